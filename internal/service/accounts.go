package service

import (
	"context"
	"fmt"
	"time"

	"github.com/wingit-app/wingit-server/internal/apierr"
	"github.com/wingit-app/wingit-server/internal/credential"
	"github.com/wingit-app/wingit-server/internal/logger"
	"github.com/wingit-app/wingit-server/internal/model"
	"github.com/wingit-app/wingit-server/internal/params"
)

// Wire-level parameter names. These are the contract with clients and must
// not be renamed.
const (
	ParamUsername           = "username"
	ParamEmail              = "email"
	ParamPasswordHash       = "password_hash"
	ParamNewPasswordHash    = "new_hash"
	ParamVerificationCode   = "verification_code"
	ParamPasswordChangeCode = "password_change_code"
	ParamS3Reason           = "s3_reason"
)

const (
	identityGroup   = "username/email"
	credentialGroup = "password_hash/password_change_code"
)

// S3 reason tags and their destination layout.
const (
	S3ReasonUserProfileImageUpload = "user_profile_image_upload"

	userProfileImagesDir = "user_profile_images"
)

// Result is the success payload of one action: an optional human-readable
// confirmation plus arbitrary extra data for the response body.
type Result struct {
	Message string
	Data    map[string]any
}

// Accounts implements the seven account actions on top of the account store
// and the two external collaborators.
type Accounts struct {
	store   model.AccountStore
	mailer  model.Mailer
	storage model.GrantStorage
	logger  *logger.Logger
	now     func() time.Time
}

// NewAccounts creates a new Accounts service.
func NewAccounts(store model.AccountStore, mailer model.Mailer, storage model.GrantStorage, logger *logger.Logger) *Accounts {
	return &Accounts{
		store:   store,
		mailer:  mailer,
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateAccount inserts a new pending account and sends the activation email.
// Both the username and the canonical email must be unused.
func (s *Accounts) CreateAccount(ctx context.Context, raw map[string]string) (Result, error) {
	values, err := params.Clean(raw, params.Spec{Requirements: []params.Requirement{
		params.Require(ParamUsername, params.KindUsername),
		params.Require(ParamEmail, params.KindEmail),
		params.Require(ParamPasswordHash, params.KindPasswordHash),
	}})
	if err != nil {
		return Result{}, err
	}
	username := values[ParamUsername]
	email := values[ParamEmail]

	s.logger.Debug("Accounts service: creating account", "username", username)

	if _, err := s.store.GetByUsername(ctx, username); err == nil {
		return Result{}, apierr.UsernameAlreadyExists(username)
	} else if err != model.ErrNotFound {
		return Result{}, fmt.Errorf("failed to check username existence: %w", err)
	}

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return Result{}, apierr.EmailAlreadyInUse(email)
	} else if err != model.ErrNotFound {
		return Result{}, fmt.Errorf("failed to check email existence: %w", err)
	}

	verificationCode, err := credential.GenerateCode(credential.VerificationCodeLength, credential.AlphanumericAlphabet)
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate verification code: %w", err)
	}
	storedHash, err := credential.HashForStorage(values[ParamPasswordHash])
	if err != nil {
		return Result{}, fmt.Errorf("failed to hash credential: %w", err)
	}

	account := model.Account{
		Username:         username,
		Email:            email,
		VerificationCode: verificationCode,
		PasswordHash:     storedHash,
		CreationTime:     s.now().UnixMilli(),
	}
	if err := s.store.Create(ctx, account); err != nil {
		if err == model.ErrAlreadyExists {
			return Result{}, apierr.UsernameAlreadyExists(username)
		}
		s.logger.Error("Accounts service: failed to create account",
			"username", username,
			"error", err.Error())
		return Result{}, fmt.Errorf("failed to create account: %w", err)
	}

	if err := s.mailer.SendActivationEmail(ctx, username, email, verificationCode); err != nil {
		s.logger.Error("Accounts service: failed to send activation email",
			"username", username,
			"error", err.Error())
		return Result{}, fmt.Errorf("failed to send activation email: %w", err)
	}

	s.logger.Info("Accounts service: account created", "username", username)

	return Result{Message: "Account Created!"}, nil
}

// VerifyAccount clears the pending verification code when it matches.
// Verifying an already verified account succeeds idempotently.
func (s *Accounts) VerifyAccount(ctx context.Context, raw map[string]string) (Result, error) {
	values, err := params.Clean(raw, params.Spec{Requirements: []params.Requirement{
		params.Require(ParamUsername, params.KindUsername),
		params.Require(ParamVerificationCode, params.KindString),
	}})
	if err != nil {
		return Result{}, err
	}
	username := values[ParamUsername]
	code := values[ParamVerificationCode]

	account, err := s.store.GetByUsername(ctx, username)
	if err == model.ErrNotFound {
		return Result{}, apierr.UsernameDoesNotExist(username)
	} else if err != nil {
		return Result{}, fmt.Errorf("failed to get account: %w", err)
	}

	switch {
	case account.Verified():
		// already verified, nothing to do
	case account.VerificationCode == code:
		if err := s.store.ClearVerificationCode(ctx, username); err != nil {
			return Result{}, fmt.Errorf("failed to clear verification code: %w", err)
		}
	default:
		return Result{}, apierr.UnmatchingVerificationCode(code, username)
	}

	s.logger.Info("Accounts service: account verified", "username", username)

	return Result{Message: "Account Verified!"}, nil
}

// Login checks the supplied credential against a verified account. Only a
// password hash is accepted here; a pending change code does not log in.
func (s *Accounts) Login(ctx context.Context, raw map[string]string) (Result, error) {
	values, err := params.Clean(raw, params.Spec{Requirements: []params.Requirement{
		identityRequirement(),
		params.Require(ParamPasswordHash, params.KindPasswordHash),
	}})
	if err != nil {
		return Result{}, err
	}

	account, err := s.resolveCredentials(ctx, values, resolveOptions{requireVerified: true})
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("Accounts service: login accepted", "username", account.Username)

	return Result{Message: "Credentials Accepted!"}, nil
}

// DeleteAccount removes the record. Unverified accounts may be deleted, and
// a pending change code works in place of the password hash.
func (s *Accounts) DeleteAccount(ctx context.Context, raw map[string]string) (Result, error) {
	values, err := params.Clean(raw, params.Spec{Requirements: []params.Requirement{
		identityRequirement(),
		credentialRequirement(),
	}})
	if err != nil {
		return Result{}, err
	}

	account, err := s.resolveCredentials(ctx, values, resolveOptions{})
	if err != nil {
		return Result{}, err
	}

	if err := s.store.Delete(ctx, account.Username); err != nil {
		return Result{}, fmt.Errorf("failed to delete account: %w", err)
	}

	s.logger.Info("Accounts service: account deleted", "username", account.Username)

	return Result{Message: "Account Deleted!"}, nil
}

// ChangePassword replaces the stored hash with a freshly salted hash of the
// new client hash and clears any pending change code. The current credential
// may be either the password hash or a valid change code; verification is
// not required.
func (s *Accounts) ChangePassword(ctx context.Context, raw map[string]string) (Result, error) {
	values, err := params.Clean(raw, params.Spec{Requirements: []params.Requirement{
		identityRequirement(),
		credentialRequirement(),
		params.Require(ParamNewPasswordHash, params.KindPasswordHash),
	}})
	if err != nil {
		return Result{}, err
	}

	account, err := s.resolveCredentials(ctx, values, resolveOptions{})
	if err != nil {
		return Result{}, err
	}

	storedHash, err := credential.HashForStorage(values[ParamNewPasswordHash])
	if err != nil {
		return Result{}, fmt.Errorf("failed to hash credential: %w", err)
	}

	if err := s.store.UpdatePasswordHash(ctx, account.Username, storedHash); err != nil {
		return Result{}, fmt.Errorf("failed to update password hash: %w", err)
	}

	s.logger.Info("Accounts service: password changed", "username", account.Username)

	return Result{Message: "Password Changed!"}, nil
}

// RequestPasswordChangeCode stores a fresh numeric change code with the
// current timestamp and emails it to the account address. No credential is
// required, only an identity that resolves to an existing account.
func (s *Accounts) RequestPasswordChangeCode(ctx context.Context, raw map[string]string) (Result, error) {
	values, err := params.Clean(raw, params.Spec{Requirements: []params.Requirement{
		identityRequirement(),
	}})
	if err != nil {
		return Result{}, err
	}

	account, err := s.lookupAccount(ctx, values)
	if err != nil {
		return Result{}, err
	}

	code, err := credential.GenerateCode(credential.PasswordChangeCodeLength, credential.NumericAlphabet)
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate change code: %w", err)
	}

	if err := s.store.SetPasswordChangeCode(ctx, account.Username, code, s.now().UnixMilli()); err != nil {
		return Result{}, fmt.Errorf("failed to set change code: %w", err)
	}

	if err := s.mailer.SendPasswordChangeCode(ctx, account.Username, account.Email, code); err != nil {
		s.logger.Error("Accounts service: failed to send change code email",
			"username", account.Username,
			"error", err.Error())
		return Result{}, fmt.Errorf("failed to send change code email: %w", err)
	}

	s.logger.Info("Accounts service: password change code sent", "username", account.Username)

	return Result{Message: "Password Change Code Sent!"}, nil
}

// GetUploadPermission returns a short-lived upload grant for the
// per-account destination derived from the reason tag. The account must be
// verified and authenticate with its password hash; unknown reason tags
// fail before any storage call.
func (s *Accounts) GetUploadPermission(ctx context.Context, raw map[string]string) (Result, error) {
	values, err := params.Clean(raw, params.Spec{Requirements: []params.Requirement{
		identityRequirement(),
		params.Require(ParamPasswordHash, params.KindPasswordHash),
		params.Require(ParamS3Reason, params.KindString),
	}})
	if err != nil {
		return Result{}, err
	}

	account, err := s.resolveCredentials(ctx, values, resolveOptions{requireVerified: true})
	if err != nil {
		return Result{}, err
	}

	reason := values[ParamS3Reason]
	var dest string
	switch reason {
	case S3ReasonUserProfileImageUpload:
		dest = fmt.Sprintf("%s/%s_profile_image.png", userProfileImagesDir, account.Username)
	default:
		return Result{}, apierr.UnknownS3Reason(reason)
	}

	grant, err := s.storage.PresignUploadPost(ctx, dest)
	if err != nil {
		s.logger.Error("Accounts service: failed to presign upload",
			"username", account.Username,
			"dest", dest,
			"error", err.Error())
		return Result{}, apierr.StorageError(err)
	}

	s.logger.Info("Accounts service: upload permission granted",
		"username", account.Username,
		"dest", dest)

	return Result{Data: map[string]any{
		"url":      grant.URL,
		"fields":   grant.Fields,
		"img_dest": dest,
	}}, nil
}
