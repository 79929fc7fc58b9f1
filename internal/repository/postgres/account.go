package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wingit-app/wingit-server/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

type AccountRepository struct {
	db *Connection
}

func NewAccountRepository(db *Connection) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

const accountColumns = `username, email, verification_code, password_hash,
			  password_change_code, password_change_code_creation_time, creation_time`

// Create inserts the account with an atomic conditional insert so a
// concurrent insert of the same username cannot slip past the service's
// existence check.
func (r *AccountRepository) Create(ctx context.Context, account model.Account) error {
	query := `INSERT INTO accounts (` + accountColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (username) DO NOTHING`

	tag, err := r.db.Exec(ctx, query,
		account.Username, account.Email, account.VerificationCode, account.PasswordHash,
		account.PasswordChangeCode, account.PasswordChangeCodeCreationTime, account.CreationTime,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAlreadyExists
	}

	return nil
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return r.get(ctx, query, username)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.get(ctx, query, email)
}

func (r *AccountRepository) get(ctx context.Context, query, arg string) (model.Account, error) {
	var account model.Account
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&account.Username, &account.Email, &account.VerificationCode, &account.PasswordHash,
		&account.PasswordChangeCode, &account.PasswordChangeCodeCreationTime, &account.CreationTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) ClearVerificationCode(ctx context.Context, username string) error {
	query := `UPDATE accounts SET verification_code = '' WHERE username = $1`

	tag, err := r.db.Exec(ctx, query, username)
	if err != nil {
		return fmt.Errorf("failed to clear verification code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, username, passwordHash string) error {
	query := `UPDATE accounts
			  SET password_hash = $2, password_change_code = '', password_change_code_creation_time = 0
			  WHERE username = $1`

	tag, err := r.db.Exec(ctx, query, username, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *AccountRepository) SetPasswordChangeCode(ctx context.Context, username, code string, creationTime int64) error {
	query := `UPDATE accounts
			  SET password_change_code = $2, password_change_code_creation_time = $3
			  WHERE username = $1`

	tag, err := r.db.Exec(ctx, query, username, code, creationTime)
	if err != nil {
		return fmt.Errorf("failed to set password change code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, username string) error {
	query := `DELETE FROM accounts WHERE username = $1`

	tag, err := r.db.Exec(ctx, query, username)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}
