package service

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

type loginRequest struct {
	Email    string `validate:"required,max=254"`
	Password string `validate:"required,max=128"`
}

type CredentialValidator struct {
	validate *validator.Validate
}

func NewCredentialValidator() CredentialValidator {
	return CredentialValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate rejects blank (after trimming) or oversized credentials.
func (cv CredentialValidator) Validate(email, password string) error {
	req := loginRequest{
		Email:    strings.TrimSpace(email),
		Password: strings.TrimSpace(password),
	}
	if err := cv.validate.Struct(req); err != nil {
		return ErrMalformedRequest.WithCause(err)
	}
	return nil
}
