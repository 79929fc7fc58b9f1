package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingit-app/wingit-server/internal/apierr"
	"github.com/wingit-app/wingit-server/internal/service"
	"github.com/wingit-app/wingit-server/internal/testutil"
)

type stubService struct {
	lastMethod string
	lastRaw    map[string]string
	result     service.Result
	err        error
}

func (s *stubService) record(method string, raw map[string]string) (service.Result, error) {
	s.lastMethod = method
	s.lastRaw = raw
	return s.result, s.err
}

func (s *stubService) CreateAccount(_ context.Context, raw map[string]string) (service.Result, error) {
	return s.record("CreateAccount", raw)
}

func (s *stubService) VerifyAccount(_ context.Context, raw map[string]string) (service.Result, error) {
	return s.record("VerifyAccount", raw)
}

func (s *stubService) Login(_ context.Context, raw map[string]string) (service.Result, error) {
	return s.record("Login", raw)
}

func (s *stubService) DeleteAccount(_ context.Context, raw map[string]string) (service.Result, error) {
	return s.record("DeleteAccount", raw)
}

func (s *stubService) ChangePassword(_ context.Context, raw map[string]string) (service.Result, error) {
	return s.record("ChangePassword", raw)
}

func (s *stubService) RequestPasswordChangeCode(_ context.Context, raw map[string]string) (service.Result, error) {
	return s.record("RequestPasswordChangeCode", raw)
}

func (s *stubService) GetUploadPermission(_ context.Context, raw map[string]string) (service.Result, error) {
	return s.record("GetUploadPermission", raw)
}

func newTestEngine(svc AccountService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAccounts(svc, testutil.MakeNoopLogger())

	engine := gin.New()
	engine.GET("/", h.Handle)
	engine.POST("/", h.Handle)
	engine.DELETE("/", h.Handle)
	return engine
}

func doGET(t *testing.T, engine *gin.Engine, query url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/?"+query.Encode(), nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func doForm(t *testing.T, engine *gin.Engine, method string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandle_Greeting(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(&stubService{})
	rec := doGET(t, engine, url.Values{})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"Hello Wingit!"`, strings.TrimSpace(rec.Body.String()))
}

func TestHandle_NoEventType(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(&stubService{})
	rec := doGET(t, engine, url.Values{"username": {"alice"}})

	body := decodeBody(t, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(apierr.CodeNoEventType), body["error_code"])
	assert.Contains(t, body["error_message"], "ERROR_NO_EVENT_TYPE")
}

func TestHandle_UnknownEventType(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(&stubService{})
	rec := doGET(t, engine, url.Values{"event_type": {"launch_missiles"}})

	body := decodeBody(t, rec)
	assert.Equal(t, float64(apierr.CodeUnknownEventType), body["error_code"])
	assert.Contains(t, body["error_message"], "launch_missiles")
}

func TestHandle_EventTypeMethodMismatch(t *testing.T) {
	t.Parallel()

	// create_account is POST-only
	engine := newTestEngine(&stubService{})
	rec := doGET(t, engine, url.Values{"event_type": {EventCreateAccount}})

	body := decodeBody(t, rec)
	assert.Equal(t, float64(apierr.CodeEventTypeMethodMismatch), body["error_code"])
	assert.Contains(t, body["error_message"], EventCreateAccount)
}

func TestHandle_DispatchTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		event      string
		method     string
		wantCalled string
	}{
		{EventCreateAccount, http.MethodPost, "CreateAccount"},
		{EventVerifyAccount, http.MethodGet, "VerifyAccount"},
		{EventLogin, http.MethodGet, "Login"},
		{EventDeleteAccount, http.MethodDelete, "DeleteAccount"},
		{EventChangePassword, http.MethodPost, "ChangePassword"},
		{EventRequestPasswordChangeCode, http.MethodPost, "RequestPasswordChangeCode"},
		{EventGetS3, http.MethodGet, "GetUploadPermission"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.event, func(t *testing.T) {
			t.Parallel()

			svc := &stubService{result: service.Result{Message: "ok"}}
			engine := newTestEngine(svc)

			values := url.Values{"event_type": {tt.event}, "username": {"alice"}}
			var rec *httptest.ResponseRecorder
			if tt.method == http.MethodGet {
				rec = doGET(t, engine, values)
			} else {
				rec = doForm(t, engine, tt.method, values)
			}

			assert.Equal(t, tt.wantCalled, svc.lastMethod)
			assert.Equal(t, "alice", svc.lastRaw["username"])

			body := decodeBody(t, rec)
			assert.Equal(t, "ok", body["info"])
		})
	}
}

func TestHandle_POSTParamsComeFromBody(t *testing.T) {
	t.Parallel()

	svc := &stubService{result: service.Result{Message: "ok"}}
	engine := newTestEngine(svc)

	req := httptest.NewRequest(http.MethodPost, "/?username=from_query",
		strings.NewReader(url.Values{
			"event_type": {EventCreateAccount},
			"username":   {"from_body"},
		}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, "CreateAccount", svc.lastMethod)
	assert.Equal(t, "from_body", svc.lastRaw["username"])
}

func TestHandle_SuccessEnvelope(t *testing.T) {
	t.Parallel()

	svc := &stubService{result: service.Result{
		Message: "Credentials Accepted!",
		Data: map[string]any{
			"url": "https://storage.local/bucket",
		},
	}}
	engine := newTestEngine(svc)

	rec := doGET(t, engine, url.Values{"event_type": {EventLogin}})

	body := decodeBody(t, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Credentials Accepted!", body["info"])
	assert.Equal(t, "https://storage.local/bucket", body["url"])
	assert.NotContains(t, body, "error_code")
}

func TestHandle_ServiceErrorEnvelope(t *testing.T) {
	t.Parallel()

	svc := &stubService{err: apierr.UsernameDoesNotExist("ghost")}
	engine := newTestEngine(svc)

	rec := doGET(t, engine, url.Values{"event_type": {EventLogin}})

	body := decodeBody(t, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(apierr.CodeUsernameDoesNotExist), body["error_code"])
	assert.Equal(t, "ERROR_USERNAME_DOES_NOT_EXIST: Username does not exist: ghost", body["error_message"])
}
