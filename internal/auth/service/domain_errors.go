package service

import (
	"errors"
	"net/http"

	commonerrors "github.com/AlibekovAA/tenantdesk-auth/internal/common/errors"
)

var (
	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid email or password",
	)

	ErrAccountDeactivated = commonerrors.NewDomainError(
		"ACCOUNT_DEACTIVATED",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"account is deactivated, contact an administrator",
	)

	ErrInvalidRefreshToken = commonerrors.NewDomainError(
		"INVALID_REFRESH_TOKEN",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid refresh token",
	)

	ErrSigningKeyUnavailable = commonerrors.NewDomainError(
		"SIGNING_KEY_UNAVAILABLE",
		commonerrors.CategoryInternal,
		http.StatusInternalServerError,
		"signing key is not configured",
	)

	ErrMalformedRequest = commonerrors.NewDomainError(
		"MALFORMED_REQUEST",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"email and password are required",
	)

	ErrServiceUnavailable = commonerrors.NewDomainError(
		"SERVICE_UNAVAILABLE",
		commonerrors.CategoryExternal,
		http.StatusServiceUnavailable,
		"service temporarily unavailable",
	)
)

func handleCircuitBreakerError(err error) error {
	if errors.Is(err, commonerrors.ErrCircuitOpen) {
		return ErrServiceUnavailable.WithCause(err)
	}
	return err
}
