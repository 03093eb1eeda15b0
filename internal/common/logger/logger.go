package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/constants"
)

type Fields map[string]interface{}

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	CRITICAL
)

var zapLevels = map[LogLevel]zapcore.Level{
	DEBUG:    zapcore.DebugLevel,
	INFO:     zapcore.InfoLevel,
	WARNING:  zapcore.WarnLevel,
	ERROR:    zapcore.ErrorLevel,
	CRITICAL: zapcore.ErrorLevel,
}

type Logger struct {
	base  *zap.Logger
	level zap.AtomicLevel
}

// New builds a logger writing JSON lines to stdout and, when logDir is set, to a
// rotating app.log inside it.
func New(logDir, serviceName, level string) (*Logger, error) {
	atomicLevel := zap.NewAtomicLevelAt(zapLevels[parseLevel(level)])

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.MessageKey = "msg"
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), atomicLevel),
	}

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		fileWriter := &lumberjack.Logger{
			Filename:   filepath.Join(logDir, "app.log"),
			MaxSize:    constants.LoggerMaxSize,
			MaxBackups: constants.LoggerMaxBackups,
			MaxAge:     constants.LoggerMaxAge,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(fileWriter), atomicLevel))
	}

	base := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddCallerSkip(2),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if serviceName != "" {
		base = base.With(zap.String("service", serviceName))
	}

	return &Logger{base: base, level: atomicLevel}, nil
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() *Logger {
	return &Logger{base: zap.NewNop(), level: zap.NewAtomicLevelAt(zapcore.FatalLevel)}
}

func (l *Logger) ShouldLog(level LogLevel) bool {
	return l.level.Enabled(zapLevels[level])
}

func (l *Logger) Sync() error {
	return l.base.Sync()
}

func (l *Logger) write(level LogLevel, ctx context.Context, msg string, fields Fields) {
	zl := zapLevels[level]
	if !l.level.Enabled(zl) {
		return
	}

	zfields := make([]zap.Field, 0, len(fields)+2)
	if ctx != nil {
		if traceID, ok := ctx.Value(constants.TraceIDKey).(string); ok && traceID != "" {
			zfields = append(zfields, zap.String("trace_id", traceID))
		}
	}
	for k, v := range fields {
		zfields = append(zfields, zap.Any(k, v))
	}
	if level == CRITICAL {
		zfields = append(zfields, zap.Bool("critical", true))
	}

	if ce := l.base.Check(zl, msg); ce != nil {
		ce.Write(zfields...)
	}
}

func (l *Logger) Debug(msg string)    { l.write(DEBUG, nil, msg, nil) }
func (l *Logger) Info(msg string)     { l.write(INFO, nil, msg, nil) }
func (l *Logger) Warn(msg string)     { l.write(WARNING, nil, msg, nil) }
func (l *Logger) Error(msg string)    { l.write(ERROR, nil, msg, nil) }
func (l *Logger) Critical(msg string) { l.write(CRITICAL, nil, msg, nil) }

func (l *Logger) Debugf(format string, args ...any) {
	l.write(DEBUG, nil, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Infof(format string, args ...any) {
	l.write(INFO, nil, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.write(WARNING, nil, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.write(ERROR, nil, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Criticalf(format string, args ...any) {
	l.write(CRITICAL, nil, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Fatal(msg string) {
	l.write(CRITICAL, nil, msg, nil)
	_ = l.base.Sync()
	os.Exit(1)
}

func (l *Logger) Fatalf(format string, args ...any) {
	l.write(CRITICAL, nil, fmt.Sprintf(format, args...), nil)
	_ = l.base.Sync()
	os.Exit(1)
}

func (l *Logger) WithFields(ctx context.Context, fields Fields) *Entry {
	return &Entry{
		logger: l,
		ctx:    ctx,
		fields: fields,
	}
}

type Entry struct {
	logger *Logger
	ctx    context.Context
	fields Fields
}

func (e *Entry) Debug(msg string)    { e.logger.write(DEBUG, e.ctx, msg, e.fields) }
func (e *Entry) Info(msg string)     { e.logger.write(INFO, e.ctx, msg, e.fields) }
func (e *Entry) Warn(msg string)     { e.logger.write(WARNING, e.ctx, msg, e.fields) }
func (e *Entry) Error(msg string)    { e.logger.write(ERROR, e.ctx, msg, e.fields) }
func (e *Entry) Critical(msg string) { e.logger.write(CRITICAL, e.ctx, msg, e.fields) }

func (e *Entry) Debugf(format string, args ...any) {
	e.logger.write(DEBUG, e.ctx, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Infof(format string, args ...any) {
	e.logger.write(INFO, e.ctx, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Warnf(format string, args ...any) {
	e.logger.write(WARNING, e.ctx, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Errorf(format string, args ...any) {
	e.logger.write(ERROR, e.ctx, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Criticalf(format string, args ...any) {
	e.logger.write(CRITICAL, e.ctx, fmt.Sprintf(format, args...), e.fields)
}

func parseLevel(value string) LogLevel {
	value = strings.TrimSpace(strings.ToUpper(value))
	switch value {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARNING", "WARN":
		return WARNING
	case "ERROR":
		return ERROR
	case "CRITICAL":
		return CRITICAL
	default:
		return INFO
	}
}
