package service

import (
	"context"
	"fmt"

	"github.com/wingit-app/wingit-server/internal/apierr"
	"github.com/wingit-app/wingit-server/internal/credential"
	"github.com/wingit-app/wingit-server/internal/model"
	"github.com/wingit-app/wingit-server/internal/params"
)

// identityRequirement is the "exactly one of username/email" group shared by
// every authenticated action. Username is tried first by declaration order.
func identityRequirement() params.Requirement {
	return params.RequireOneOf(identityGroup,
		params.F(ParamUsername, params.KindUsername),
		params.F(ParamEmail, params.KindEmail),
	)
}

// credentialRequirement is the "exactly one of password_hash or
// password_change_code" group for the actions that accept either.
func credentialRequirement() params.Requirement {
	return params.RequireOneOf(credentialGroup,
		params.F(ParamPasswordHash, params.KindPasswordHash),
		params.F(ParamPasswordChangeCode, params.KindString),
	)
}

type resolveOptions struct {
	requireVerified bool
}

// lookupAccount fetches the account named by whichever identity field the
// pipeline resolved, preserving the username-vs-email distinction in the
// not-found error so clients know which identifier to check.
func (s *Accounts) lookupAccount(ctx context.Context, values params.Values) (model.Account, error) {
	if values.Has(ParamUsername) {
		username := values[ParamUsername]
		account, err := s.store.GetByUsername(ctx, username)
		if err == model.ErrNotFound {
			return model.Account{}, apierr.UsernameDoesNotExist(username)
		} else if err != nil {
			return model.Account{}, fmt.Errorf("failed to get account by username: %w", err)
		}
		return account, nil
	}

	email := values[ParamEmail]
	account, err := s.store.GetByEmail(ctx, email)
	if err == model.ErrNotFound {
		return model.Account{}, apierr.EmailDoesNotExist(email)
	} else if err != nil {
		return model.Account{}, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, nil
}

// resolveCredentials turns a cleaned parameter map holding one identity and
// one credential into the stored account. On success the returned account
// carries the canonical username, not the form the caller typed.
func (s *Accounts) resolveCredentials(ctx context.Context, values params.Values, opts resolveOptions) (model.Account, error) {
	account, err := s.lookupAccount(ctx, values)
	if err != nil {
		return model.Account{}, err
	}

	if opts.requireVerified && !account.Verified() {
		return model.Account{}, apierr.AccountUnverified()
	}

	if values.Has(ParamPasswordHash) {
		if !credential.Verify(values[ParamPasswordHash], account.PasswordHash) {
			return model.Account{}, apierr.IncorrectPassword()
		}
		return account, nil
	}

	if err := s.checkPasswordChangeCode(account, values[ParamPasswordChangeCode]); err != nil {
		return model.Account{}, err
	}
	return account, nil
}

// checkPasswordChangeCode validates a supplied change code against the
// stored pending one. An empty stored code never matches anything, and an
// expired code is refused, not cleared.
func (s *Accounts) checkPasswordChangeCode(account model.Account, code string) error {
	if account.PasswordChangeCode == "" || account.PasswordChangeCode != code {
		return apierr.InvalidPasswordChangeCode()
	}
	elapsed := s.now().UnixMilli() - account.PasswordChangeCodeCreationTime
	if elapsed > credential.PasswordChangeCodeTTL.Milliseconds() {
		return apierr.InvalidPasswordChangeCode()
	}
	return nil
}
