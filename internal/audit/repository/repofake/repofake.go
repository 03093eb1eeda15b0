// Package repofake is an in-memory audit sink for tests.
package repofake

import (
	"context"
	"sync"

	"github.com/AlibekovAA/tenantdesk-auth/internal/audit/domain"
	"github.com/AlibekovAA/tenantdesk-auth/internal/audit/repository"
)

type Recorder struct {
	mu      sync.Mutex
	entries []domain.Entry

	// Err, when set, is returned by Record after the attempt is counted. A done
	// context fails the write the same way a database driver would.
	Err      error
	Attempts int
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Record(ctx context.Context, entry domain.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Attempts++
	if r.Err != nil {
		return r.Err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *Recorder) Entries() []domain.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Entry(nil), r.entries...)
}

var _ repository.Recorder = (*Recorder)(nil)
