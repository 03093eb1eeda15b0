package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	authdomain "github.com/AlibekovAA/tenantdesk-auth/internal/auth/domain"
	"github.com/AlibekovAA/tenantdesk-auth/internal/auth/repository/repofake"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/clock"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
)

type failingDeleter struct{}

func (failingDeleter) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, errors.New("db down")
}

func TestRunOnce_DeletesOnlyExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := repofake.NewStore()
	store.Put(authdomain.RefreshToken{TokenHash: "old", ExpiresAt: now.Add(-time.Minute)})
	store.Put(authdomain.RefreshToken{TokenHash: "edge", ExpiresAt: now})
	store.Put(authdomain.RefreshToken{TokenHash: "live", ExpiresAt: now.Add(time.Hour)})

	deleted := RunOnce(context.Background(), store, clock.NewMockClock(now), logger.NewNop())

	assert.Equal(t, int64(2), deleted)
	assert.True(t, store.Has("live"))
	assert.Equal(t, 1, store.Len())
}

func TestRunOnce_Error(t *testing.T) {
	deleted := RunOnce(context.Background(), failingDeleter{}, clock.NewRealClock(), logger.NewNop())
	assert.Zero(t, deleted)
}

func TestStartRefreshTokenCleanup_StopsOnCancel(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := repofake.NewStore()
	store.Put(authdomain.RefreshToken{TokenHash: "old", ExpiresAt: now.Add(-time.Minute)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartRefreshTokenCleanup(ctx, store, clock.NewMockClock(now), 5*time.Millisecond, logger.NewNop())
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not stop")
	}
}
