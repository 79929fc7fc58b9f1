package model

import (
	"context"
)

// AccountStore defines persistence operations for accounts. The store keeps
// one record per username; email uniqueness is enforced by the service's own
// existence checks, not by the store.
type AccountStore interface {
	// Create inserts the account. Returns ErrAlreadyExists when a record
	// with the same username is already present.
	Create(ctx context.Context, account Account) error
	GetByUsername(ctx context.Context, username string) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	// ClearVerificationCode marks the account verified.
	ClearVerificationCode(ctx context.Context, username string) error
	// UpdatePasswordHash replaces the stored hash and clears any pending
	// password change code.
	UpdatePasswordHash(ctx context.Context, username, passwordHash string) error
	SetPasswordChangeCode(ctx context.Context, username, code string, creationTime int64) error
	Delete(ctx context.Context, username string) error
}

// Account represents a stored account with authentication material.
// Field names are the wire-level contract with the store schema.
type Account struct {
	Username                       string
	Email                          string
	VerificationCode               string
	PasswordHash                   string
	PasswordChangeCode             string
	PasswordChangeCodeCreationTime int64
	CreationTime                   int64
}

// Verified reports whether the account has consumed its verification code.
func (a Account) Verified() bool {
	return a.VerificationCode == ""
}
