package domain

import (
	"strings"
	"time"
)

type ID string

// User is a directory record. The auth core reads it and never writes it.
type User struct {
	ID           ID        `db:"id"`
	Email        string    `db:"email"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	PasswordHash string    `db:"password_hash"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
}

// DisplayName joins first and last name and falls back to the email.
func (u User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Email
	}
	return name
}

type Role struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}
