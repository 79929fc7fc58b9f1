package router

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingit-app/wingit-server/internal/apierr"
	"github.com/wingit-app/wingit-server/internal/model"
	"github.com/wingit-app/wingit-server/internal/service"
	"github.com/wingit-app/wingit-server/internal/testutil"
)

// memStore is an in-memory AccountStore for end-to-end tests.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]model.Account
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[string]model.Account)}
}

func (s *memStore) Create(_ context.Context, account model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.Username]; ok {
		return model.ErrAlreadyExists
	}
	s.accounts[account.Username] = account
	return nil
}

func (s *memStore) GetByUsername(_ context.Context, username string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[username]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	return account, nil
}

func (s *memStore) GetByEmail(_ context.Context, email string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.Email == email {
			return account, nil
		}
	}
	return model.Account{}, model.ErrNotFound
}

func (s *memStore) update(username string, fn func(*model.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[username]
	if !ok {
		return model.ErrNotFound
	}
	fn(&account)
	s.accounts[username] = account
	return nil
}

func (s *memStore) ClearVerificationCode(_ context.Context, username string) error {
	return s.update(username, func(a *model.Account) {
		a.VerificationCode = ""
	})
}

func (s *memStore) UpdatePasswordHash(_ context.Context, username, passwordHash string) error {
	return s.update(username, func(a *model.Account) {
		a.PasswordHash = passwordHash
		a.PasswordChangeCode = ""
		a.PasswordChangeCodeCreationTime = 0
	})
}

func (s *memStore) SetPasswordChangeCode(_ context.Context, username, code string, creationTime int64) error {
	return s.update(username, func(a *model.Account) {
		a.PasswordChangeCode = code
		a.PasswordChangeCodeCreationTime = creationTime
	})
}

func (s *memStore) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[username]; !ok {
		return model.ErrNotFound
	}
	delete(s.accounts, username)
	return nil
}

// captureMailer records the codes it is asked to send.
type captureMailer struct {
	verificationCode string
	changeCode       string
}

func (m *captureMailer) SendActivationEmail(_ context.Context, _, _, verificationCode string) error {
	m.verificationCode = verificationCode
	return nil
}

func (m *captureMailer) SendPasswordChangeCode(_ context.Context, _, _, code string) error {
	m.changeCode = code
	return nil
}

type stubGrantStorage struct {
	lastKey string
}

func (s *stubGrantStorage) PresignUploadPost(_ context.Context, objectKey string) (model.UploadGrant, error) {
	s.lastKey = objectKey
	return model.UploadGrant{
		URL:    "https://storage.local/wingit-data",
		Fields: map[string]string{"key": objectKey},
	}, nil
}

type env struct {
	engine  *gin.Engine
	mailer  *captureMailer
	storage *stubGrantStorage
}

func newEnv(t *testing.T) *env {
	t.Helper()

	lg := testutil.MakeNoopLogger()
	mailer := &captureMailer{}
	storage := &stubGrantStorage{}
	svc := service.NewAccounts(newMemStore(), mailer, storage, lg)

	return &env{
		engine:  New(svc, lg).Register(),
		mailer:  mailer,
		storage: storage,
	}
}

func (e *env) do(t *testing.T, method string, values url.Values) map[string]any {
	t.Helper()

	var req *http.Request
	if method == http.MethodGet {
		req = httptest.NewRequest(method, "/?"+values.Encode(), nil)
	} else {
		req = httptest.NewRequest(method, "/", strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func clientHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func requireInfo(t *testing.T, body map[string]any, want string) {
	t.Helper()
	require.Equal(t, want, body["info"], "body: %v", body)
}

func requireErrorCode(t *testing.T, body map[string]any, want apierr.Code) {
	t.Helper()
	require.Equal(t, float64(want), body["error_code"], "body: %v", body)
}

func TestAccountLifecycle(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	hashOld := clientHash("first password")
	hashNew := clientHash("second password")

	// create
	body := e.do(t, http.MethodPost, url.Values{
		"event_type":    {"create_account"},
		"username":      {"alice"},
		"email":         {"Alice.W@Gmail.com"},
		"password_hash": {hashOld},
	})
	requireInfo(t, body, "Account Created!")
	require.NotEmpty(t, e.mailer.verificationCode)

	// login refused before verification
	body = e.do(t, http.MethodGet, url.Values{
		"event_type":    {"login"},
		"username":      {"alice"},
		"password_hash": {hashOld},
	})
	requireErrorCode(t, body, apierr.CodeAccountUnverified)

	// verify with the mailed code
	body = e.do(t, http.MethodGet, url.Values{
		"event_type":        {"verify_account"},
		"username":          {"alice"},
		"verification_code": {e.mailer.verificationCode},
	})
	requireInfo(t, body, "Account Verified!")

	// login by username and by canonical-equivalent email
	body = e.do(t, http.MethodGet, url.Values{
		"event_type":    {"login"},
		"username":      {"alice"},
		"password_hash": {hashOld},
	})
	requireInfo(t, body, "Credentials Accepted!")

	body = e.do(t, http.MethodGet, url.Values{
		"event_type":    {"login"},
		"email":         {"alicew@gmail.com"},
		"password_hash": {hashOld},
	})
	requireInfo(t, body, "Credentials Accepted!")

	// wrong hash
	body = e.do(t, http.MethodGet, url.Values{
		"event_type":    {"login"},
		"username":      {"alice"},
		"password_hash": {clientHash("guess")},
	})
	requireErrorCode(t, body, apierr.CodeIncorrectPassword)

	// change password with the current hash
	body = e.do(t, http.MethodPost, url.Values{
		"event_type":    {"change_password"},
		"username":      {"alice"},
		"password_hash": {hashOld},
		"new_hash":      {hashNew},
	})
	requireInfo(t, body, "Password Changed!")

	// old hash no longer works, new one does
	body = e.do(t, http.MethodGet, url.Values{
		"event_type":    {"login"},
		"username":      {"alice"},
		"password_hash": {hashOld},
	})
	requireErrorCode(t, body, apierr.CodeIncorrectPassword)

	body = e.do(t, http.MethodGet, url.Values{
		"event_type":    {"login"},
		"username":      {"alice"},
		"password_hash": {hashNew},
	})
	requireInfo(t, body, "Credentials Accepted!")

	// upload grant for the profile image
	body = e.do(t, http.MethodGet, url.Values{
		"event_type":    {"get_s3"},
		"username":      {"alice"},
		"password_hash": {hashNew},
		"s3_reason":     {"user_profile_image_upload"},
	})
	require.Equal(t, "https://storage.local/wingit-data", body["url"])
	require.Equal(t, "user_profile_images/alice_profile_image.png", body["img_dest"])
	require.Equal(t, "user_profile_images/alice_profile_image.png", e.storage.lastKey)

	// delete, then the account is gone
	body = e.do(t, http.MethodDelete, url.Values{
		"event_type":    {"delete_account"},
		"username":      {"alice"},
		"password_hash": {hashNew},
	})
	requireInfo(t, body, "Account Deleted!")

	body = e.do(t, http.MethodGet, url.Values{
		"event_type":    {"login"},
		"username":      {"alice"},
		"password_hash": {hashNew},
	})
	requireErrorCode(t, body, apierr.CodeUsernameDoesNotExist)
}

func TestPasswordResetByMailedCode(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	hashOld := clientHash("forgotten")
	hashNew := clientHash("replacement")

	e.do(t, http.MethodPost, url.Values{
		"event_type":    {"create_account"},
		"username":      {"bob"},
		"email":         {"bob@example.com"},
		"password_hash": {hashOld},
	})
	e.do(t, http.MethodGet, url.Values{
		"event_type":        {"verify_account"},
		"username":          {"bob"},
		"verification_code": {e.mailer.verificationCode},
	})

	body := e.do(t, http.MethodPost, url.Values{
		"event_type": {"request_password_change_code"},
		"email":      {"bob@example.com"},
	})
	requireInfo(t, body, "Password Change Code Sent!")
	require.Len(t, e.mailer.changeCode, 6)

	body = e.do(t, http.MethodPost, url.Values{
		"event_type":           {"change_password"},
		"username":             {"bob"},
		"password_change_code": {e.mailer.changeCode},
		"new_hash":             {hashNew},
	})
	requireInfo(t, body, "Password Changed!")

	// the code is single-use
	body = e.do(t, http.MethodPost, url.Values{
		"event_type":           {"change_password"},
		"username":             {"bob"},
		"password_change_code": {e.mailer.changeCode},
		"new_hash":             {hashOld},
	})
	requireErrorCode(t, body, apierr.CodeInvalidPasswordChangeCode)

	body = e.do(t, http.MethodGet, url.Values{
		"event_type":    {"login"},
		"username":      {"bob"},
		"password_hash": {hashNew},
	})
	requireInfo(t, body, "Credentials Accepted!")
}

func TestUnsupportedVerb(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	req := httptest.NewRequest(http.MethodPut, "/?event_type=login", nil)
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	requireErrorCode(t, body, apierr.CodeUnimplementedHTTPRequest)
	assert.Contains(t, body["error_message"], http.MethodPut)
}

func TestGreeting(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)

	assert.Equal(t, `"Hello Wingit!"`, strings.TrimSpace(rec.Body.String()))
}
