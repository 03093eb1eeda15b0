package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/AlibekovAA/tenantdesk-auth/internal/common/errors"
)

func TestLogout_RevokesAllRefreshTokens(t *testing.T) {
	f := newFixture(t)
	sessions := []IssuedSession{login(t, f), login(t, f), login(t, f)}
	require.Equal(t, 3, f.store.Len())

	require.NoError(t, f.svc.Logout(context.Background(), aliceID))
	assert.Zero(t, f.store.Len())

	for _, s := range sessions {
		_, err := f.svc.Refresh(context.Background(), s.RefreshToken, SessionMeta{})
		require.ErrorIs(t, err, ErrInvalidRefreshToken)
	}
}

func TestLogout_AccessTokenStaysValid(t *testing.T) {
	f := newFixture(t)
	session := login(t, f)

	require.NoError(t, f.svc.Logout(context.Background(), aliceID))

	claims, err := f.svc.ParseAccessToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, aliceID, claims.Subject)
}

func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.Logout(context.Background(), aliceID))
	require.NoError(t, f.svc.Logout(context.Background(), aliceID))
}

func TestLogout_LeavesOtherUsers(t *testing.T) {
	f := newFixture(t)
	login(t, f)
	f.directory.SetActive(bobID, true)
	_, err := f.svc.Login(context.Background(), LoginInput{Email: "bob@x.io", Password: "pw2"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), aliceID))
	assert.Equal(t, 1, f.store.Len())
}

func TestLogout_EmptyUser(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Logout(context.Background(), "")
	require.ErrorIs(t, err, commonerrors.ErrEmptyUUID)
}

func TestLogout_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.DeleteErr = errors.New("timeout")

	err := f.svc.Logout(context.Background(), aliceID)
	require.Error(t, err)
}

func TestParseAccessToken_RejectsForeignKey(t *testing.T) {
	f := newFixture(t)
	session := login(t, f)

	other := newFixture(t)
	other.keys = NewSigningKeyProvider("another-secret-of-at-least-32-bytes!!", false, nil)
	other.svc.tokens = NewTokenIssuer(other.keys, nil, other.clock, testIssuer, testAudience, 0)

	_, err := other.svc.ParseAccessToken(session.AccessToken)
	require.ErrorIs(t, err, commonerrors.ErrInvalidTokenSignature)
}
