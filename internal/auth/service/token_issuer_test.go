package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/tenantdesk-auth/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/tenantdesk-auth/internal/common/errors"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	userdomain "github.com/AlibekovAA/tenantdesk-auth/internal/user/domain"
)

func newTestIssuer(c clock.Clock, audience string) *TokenIssuer {
	keys := NewSigningKeyProvider(testSecret, false, logger.NewNop())
	return NewTokenIssuer(keys, commoncrypto.NewUUIDGenerator(), c, testIssuer, audience, time.Hour)
}

func TestTokenIssuer_Claims(t *testing.T) {
	c := clock.NewMockClock(testNow)
	issuer := newTestIssuer(c, testAudience)
	user := userdomain.User{ID: aliceID, Email: "alice@x.io", FirstName: "Alice"}

	token, expiresAt, err := issuer.Issue(user, []string{"Admin"}, []string{"users.read"})
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(time.Hour), expiresAt)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, aliceID, claims.Subject)
	assert.Equal(t, []string{"Admin"}, claims.Roles)
	assert.Equal(t, []string{"users.read"}, claims.Permissions)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "alice@x.io", claims.Email)
	assert.Equal(t, testNow, claims.IssuedAt.Time.UTC())
	assert.Equal(t, testNow, claims.NotBefore.Time.UTC())
	assert.Equal(t, expiresAt, claims.ExpiresAt.Time.UTC())
}

func TestTokenIssuer_UniqueJTI(t *testing.T) {
	issuer := newTestIssuer(clock.NewMockClock(testNow), testAudience)
	user := userdomain.User{ID: aliceID}

	a, _, err := issuer.Issue(user, nil, nil)
	require.NoError(t, err)
	b, _, err := issuer.Issue(user, nil, nil)
	require.NoError(t, err)

	ca, err := issuer.Parse(a)
	require.NoError(t, err)
	cb, err := issuer.Parse(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestTokenIssuer_Expired(t *testing.T) {
	c := clock.NewMockClock(testNow)
	issuer := newTestIssuer(c, testAudience)

	token, _, err := issuer.Issue(userdomain.User{ID: aliceID}, nil, nil)
	require.NoError(t, err)

	c.Advance(2 * time.Hour)
	_, err = issuer.Parse(token)
	require.ErrorIs(t, err, commonerrors.ErrInvalidToken)
}

func TestTokenIssuer_WrongAudience(t *testing.T) {
	c := clock.NewMockClock(testNow)
	token, _, err := newTestIssuer(c, "someone-else").Issue(userdomain.User{ID: aliceID}, nil, nil)
	require.NoError(t, err)

	_, err = newTestIssuer(c, testAudience).Parse(token)
	require.ErrorIs(t, err, commonerrors.ErrInvalidToken)
}

func TestTokenIssuer_NoSigningKey(t *testing.T) {
	keys := NewSigningKeyProvider("", true, logger.NewNop())
	issuer := NewTokenIssuer(keys, commoncrypto.NewUUIDGenerator(), clock.NewMockClock(testNow), testIssuer, testAudience, time.Hour)

	_, _, err := issuer.Issue(userdomain.User{ID: aliceID}, nil, nil)
	require.ErrorIs(t, err, ErrSigningKeyUnavailable)
}
