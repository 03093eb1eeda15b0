package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/tenantdesk-auth/internal/common/crypto"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/jwtverify"
	userdomain "github.com/AlibekovAA/tenantdesk-auth/internal/user/domain"
)

type TokenIssuer struct {
	keys           jwtverify.KeySource
	verifier       *jwtverify.Verifier
	idGenerator    commoncrypto.IDGenerator
	clock          clock.Clock
	issuer         string
	audience       string
	accessTokenTTL time.Duration
}

func NewTokenIssuer(
	keys jwtverify.KeySource,
	idGenerator commoncrypto.IDGenerator,
	clock clock.Clock,
	issuer string,
	audience string,
	accessTokenTTL time.Duration,
) *TokenIssuer {
	return &TokenIssuer{
		keys:           keys,
		verifier:       jwtverify.NewVerifier(keys, issuer, audience, jwtverify.WithTimeFunc(clock.Now)),
		idGenerator:    idGenerator,
		clock:          clock,
		issuer:         issuer,
		audience:       audience,
		accessTokenTTL: accessTokenTTL,
	}
}

// Issue signs an access token for user carrying the given role and permission claims.
func (ti *TokenIssuer) Issue(user userdomain.User, roles, permissions []string) (string, time.Time, error) {
	key, err := ti.keys.GetSigningKey()
	if err != nil {
		return "", time.Time{}, err
	}

	jti, err := ti.idGenerator.NewID()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token id: %w", err)
	}

	now := ti.clock.Now().Truncate(time.Second)
	expiresAt := now.Add(ti.accessTokenTTL)

	claims := jwtverify.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(user.ID),
			ID:        jti,
			Issuer:    ti.issuer,
			Audience:  jwt.ClaimStrings{ti.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Roles:       roles,
		Permissions: permissions,
		Name:        user.DisplayName(),
		Email:       user.Email,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := t.SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}

	incrementAccessTokensIssued()
	return tokenString, expiresAt, nil
}

func (ti *TokenIssuer) Parse(tokenString string) (jwtverify.AccessClaims, error) {
	return ti.verifier.Parse(tokenString)
}
