package model

import (
	"errors"
	"strings"
	"time"
)

// Identity is the authenticated-user record: one row in auth_identities.
// It carries credentials only; everything the program knows about a mantri
// lives on the Profile row correlated by AuthUID.
type Identity struct {
	AuthUID        string    `db:"auth_uid" json:"auth_uid"`
	Email          string    `db:"email" json:"email"`
	PasswordHashed string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// SignUpRequest is the request body for POST /auth/register
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the registration input before any store call is made.
func (r *SignUpRequest) Validate() error {
	fields := make(map[string]string)
	if !strings.Contains(r.Email, "@") {
		fields["email"] = "Valid email required"
	}
	if len(r.Password) < 6 {
		fields["password"] = "Password must be at least 6 characters"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// SignInRequest is the request body for POST /auth/login
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

var (
	// ErrIdentityNotFound is returned when an identity cannot be found
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrEmailExists is returned when registering with an email that is taken
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")
)
