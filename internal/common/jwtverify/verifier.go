package jwtverify

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	commonerrors "github.com/AlibekovAA/tenantdesk-auth/internal/common/errors"
)

type KeySource interface {
	GetSigningKey() ([]byte, error)
}

type Verifier struct {
	keys     KeySource
	issuer   string
	audience string
	leeway   time.Duration
	now      func() time.Time
}

type Option func(*Verifier)

func WithLeeway(d time.Duration) Option {
	return func(v *Verifier) { v.leeway = d }
}

func WithTimeFunc(now func() time.Time) Option {
	return func(v *Verifier) { v.now = now }
}

func NewVerifier(keys KeySource, issuer, audience string, opts ...Option) *Verifier {
	v := &Verifier{
		keys:     keys,
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Parse validates signature, algorithm, issuer, audience and time claims.
func (v *Verifier) Parse(tokenString string) (AccessClaims, error) {
	key, err := v.keys.GetSigningKey()
	if err != nil {
		return AccessClaims{}, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)

	var claims AccessClaims
	token, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenUnverifiable) {
			return AccessClaims{}, commonerrors.ErrInvalidTokenSignature.WithCause(err)
		}
		return AccessClaims{}, commonerrors.ErrInvalidToken.WithCause(err)
	}
	if !token.Valid {
		return AccessClaims{}, commonerrors.ErrInvalidToken
	}

	if claims.Subject == "" || claims.ID == "" {
		return AccessClaims{}, commonerrors.ErrMissingTokenClaims.WithCause(
			fmt.Errorf("sub=%t jti=%t", claims.Subject != "", claims.ID != ""))
	}

	return claims, nil
}
