package resilience

import (
	"context"
	"sync/atomic"
	"time"

	commonerrors "github.com/AlibekovAA/tenantdesk-auth/internal/common/errors"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	"github.com/AlibekovAA/tenantdesk-auth/internal/observability/metrics"
)

// CircuitBreaker trips after threshold consecutive failures and rejects calls
// until resetAfter has passed since the last failure.
type CircuitBreaker struct {
	failures    atomic.Int32
	lastFailure atomic.Int64
	threshold   int32
	timeout     time.Duration
	resetAfter  time.Duration
	name        string
	log         *logger.Logger
	isExpected  func(error) bool
	now         func() time.Time
}

type CircuitBreakerConfig struct {
	Threshold  int32
	Timeout    time.Duration
	ResetAfter time.Duration
	Name       string
	Logger     *logger.Logger
	// IsExpected marks errors that are normal outcomes (e.g. not found) and must
	// not count as failures.
	IsExpected func(error) bool
}

func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:  config.Threshold,
		timeout:    config.Timeout,
		resetAfter: config.ResetAfter,
		name:       config.Name,
		log:        config.Logger,
		isExpected: config.IsExpected,
		now:        time.Now,
	}
}

func (cb *CircuitBreaker) IsOpen() bool {
	if cb.threshold <= 0 || cb.failures.Load() < cb.threshold {
		cb.setState(0)
		return false
	}

	last := cb.lastFailure.Load()
	if last == 0 {
		cb.setState(0)
		return false
	}

	if cb.now().Sub(time.Unix(0, last)) > cb.resetAfter {
		cb.reset()
		cb.setState(0)
		return false
	}

	cb.setState(1)
	return true
}

func (cb *CircuitBreaker) setState(state float64) {
	if cb.name != "" {
		metrics.CircuitBreakerState.WithLabelValues(cb.name).Set(state)
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.failures.Add(1)
	cb.lastFailure.Store(cb.now().UnixNano())
	if cb.name != "" {
		metrics.CircuitBreakerFailures.WithLabelValues(cb.name).Inc()
	}
	if cb.log != nil {
		cb.log.Warnf("circuit breaker [%s]: failure recorded", cb.name)
	}
}

func (cb *CircuitBreaker) reset() {
	cb.failures.Store(0)
	cb.lastFailure.Store(0)
}

func (cb *CircuitBreaker) Call(ctx context.Context, fn func(context.Context) error) error {
	return cb.CallWithFallback(ctx, fn, nil)
}

func (cb *CircuitBreaker) CallWithFallback(ctx context.Context, fn func(context.Context) error, fallback func() error) error {
	if cb.IsOpen() {
		if cb.log != nil {
			if fallback != nil {
				cb.log.Warnf("circuit breaker [%s]: circuit is open, using fallback", cb.name)
			} else {
				cb.log.Warnf("circuit breaker [%s]: circuit is open, rejecting request", cb.name)
			}
		}
		if fallback != nil {
			return fallback()
		}
		return commonerrors.ErrCircuitOpen
	}

	callCtx := ctx
	if cb.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, cb.timeout)
		defer cancel()
	}

	err := fn(callCtx)
	if err != nil {
		if cb.isExpected != nil && cb.isExpected(err) {
			cb.reset()
			return err
		}
		cb.recordFailure()
		if fallback != nil {
			if cb.log != nil {
				cb.log.Infof("circuit breaker [%s]: operation failed, using fallback", cb.name)
			}
			return fallback()
		}
		return err
	}

	cb.reset()
	return nil
}
