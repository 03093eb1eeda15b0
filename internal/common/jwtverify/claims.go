package jwtverify

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the claim set carried by access tokens.
type AccessClaims struct {
	jwt.RegisteredClaims
	Roles       []string `json:"role,omitempty"`
	Permissions []string `json:"permission,omitempty"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
}
