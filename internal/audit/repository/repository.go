package repository

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"

	"github.com/AlibekovAA/tenantdesk-auth/internal/audit/domain"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/db"
)

type Recorder interface {
	Record(ctx context.Context, entry domain.Entry) error
}

type SqlxRecorder struct {
	db *sqlx.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewSqlxRecorder(conn *sqlx.DB) *SqlxRecorder {
	return &SqlxRecorder{
		db:      conn,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (r *SqlxRecorder) newID(t time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(t), r.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (r *SqlxRecorder) Record(ctx context.Context, entry domain.Entry) error {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	if entry.ID == "" {
		id, err := r.newID(entry.OccurredAt)
		if err != nil {
			return err
		}
		entry.ID = id
	}

	start := time.Now()
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO audit_log (id, occurred_at, action, outcome, actor_user_id, email, client_ip, trace_id)
		 VALUES (:id, :occurred_at, :action, :outcome, :actor_user_id, :email, :client_ip, :trace_id)`,
		entry,
	)
	return db.HandleExecError(err, "insert audit entry", start)
}
