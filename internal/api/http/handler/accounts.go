package handler

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/wingit-app/wingit-server/internal/apierr"
	"github.com/wingit-app/wingit-server/internal/logger"
	"github.com/wingit-app/wingit-server/internal/service"
)

// Event names dispatched through the event_type parameter.
const (
	EventCreateAccount             = "create_account"
	EventVerifyAccount             = "verify_account"
	EventLogin                     = "login"
	EventDeleteAccount             = "delete_account"
	EventChangePassword            = "change_password"
	EventRequestPasswordChangeCode = "request_password_change_code"
	EventGetS3                     = "get_s3"
)

// AccountService defines the account actions the handler dispatches to.
type AccountService interface {
	CreateAccount(ctx context.Context, raw map[string]string) (service.Result, error)
	VerifyAccount(ctx context.Context, raw map[string]string) (service.Result, error)
	Login(ctx context.Context, raw map[string]string) (service.Result, error)
	DeleteAccount(ctx context.Context, raw map[string]string) (service.Result, error)
	ChangePassword(ctx context.Context, raw map[string]string) (service.Result, error)
	RequestPasswordChangeCode(ctx context.Context, raw map[string]string) (service.Result, error)
	GetUploadPermission(ctx context.Context, raw map[string]string) (service.Result, error)
}

type action func(s AccountService, ctx context.Context, raw map[string]string) (service.Result, error)

type eventRoute struct {
	method string
	run    action
}

// Each event is legal under exactly one HTTP verb.
var eventRoutes = map[string]eventRoute{
	EventCreateAccount: {http.MethodPost, AccountService.CreateAccount},
	EventVerifyAccount: {http.MethodGet, AccountService.VerifyAccount},
	EventLogin:         {http.MethodGet, AccountService.Login},
	EventDeleteAccount: {http.MethodDelete, AccountService.DeleteAccount},
	EventChangePassword: {
		http.MethodPost, AccountService.ChangePassword,
	},
	EventRequestPasswordChangeCode: {
		http.MethodPost, AccountService.RequestPasswordChangeCode,
	},
	EventGetS3: {http.MethodGet, AccountService.GetUploadPermission},
}

// Accounts handles the single account endpoint: it flattens request
// parameters, dispatches on verb plus event_type and writes the response
// envelope. Errors are always signaled in-body; the transport status is 200.
type Accounts struct {
	service AccountService
	logger  *logger.Logger
}

// NewAccounts creates a new Accounts handler.
func NewAccounts(service AccountService, logger *logger.Logger) *Accounts {
	return &Accounts{
		service: service,
		logger:  logger,
	}
}

// Handle serves one request against the account endpoint.
func (h *Accounts) Handle(c *gin.Context) {
	raw, err := flattenParams(c)
	if err != nil {
		writeError(c, apierr.Unknown(err))
		return
	}

	// bare request, used as a reachability check
	if len(raw) == 0 && c.Request.Method == http.MethodGet {
		c.JSON(http.StatusOK, "Hello Wingit!")
		return
	}

	eventType, ok := raw[eventTypeParam]
	if !ok {
		writeError(c, apierr.NoEventType())
		return
	}

	route, ok := eventRoutes[eventType]
	if !ok {
		writeError(c, apierr.UnknownEventType(c.Request.Method, eventType))
		return
	}
	if route.method != c.Request.Method {
		writeError(c, apierr.EventTypeMethodMismatch(c.Request.Method, eventType))
		return
	}

	result, err := route.run(h.service, c.Request.Context(), raw)
	if err != nil {
		apiErr := apierr.From(err)
		h.logger.Debug("Accounts handler: action failed",
			"event_type", eventType,
			"error_code", int(apiErr.Code))
		writeError(c, apiErr)
		return
	}

	writeSuccess(c, result)
}

// MethodNotAllowed answers verbs outside GET/POST/DELETE with the envelope
// instead of a bare 405.
func (h *Accounts) MethodNotAllowed(c *gin.Context) {
	writeError(c, apierr.UnimplementedHTTPRequest(c.Request.Method))
}

const eventTypeParam = "event_type"

// flattenParams builds the flat string-keyed parameter map the core
// consumes: the query string for GET, the URL-encoded body for POST and
// DELETE. Repeated keys keep their first value.
func flattenParams(c *gin.Context) (map[string]string, error) {
	var source url.Values
	switch c.Request.Method {
	case http.MethodGet:
		source = c.Request.URL.Query()
	case http.MethodPost:
		if err := c.Request.ParseForm(); err != nil {
			return nil, err
		}
		source = c.Request.PostForm
	default:
		// ParseForm only reads the body for POST, PUT and PATCH, so
		// DELETE bodies are parsed directly.
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, err
		}
		source, err = url.ParseQuery(string(body))
		if err != nil {
			return nil, err
		}
	}

	raw := make(map[string]string, len(source))
	for key, values := range source {
		if len(values) > 0 {
			raw[key] = values[0]
		} else {
			raw[key] = ""
		}
	}
	return raw, nil
}

func writeSuccess(c *gin.Context, result service.Result) {
	body := gin.H{}
	for key, value := range result.Data {
		body[key] = value
	}
	if result.Message != "" {
		body["info"] = result.Message
	}
	c.JSON(http.StatusOK, body)
}

func writeError(c *gin.Context, apiErr *apierr.Error) {
	c.JSON(http.StatusOK, gin.H{
		"error_code":    apiErr.Code,
		"error_message": apiErr.Message,
	})
}
