// Package apierr defines the fixed registry of application error codes and
// the message format returned to clients. Code values are immutable contracts
// once shipped; new errors get new codes, existing ones are never renumbered.
package apierr

import (
	"errors"
	"fmt"
)

// Code is a stable numeric error code. Codes are partitioned by concern:
// 1-99 generic, 100-199 routing, 200-299 account, 300-399 storage permission.
type Code int

const (
	CodeMissingParams             Code = 1
	CodeUnknownError              Code = 2
	CodeUnimplementedHTTPRequest  Code = 3
	CodeNoEventType               Code = 100
	CodeUnknownEventType          Code = 101
	CodeEventTypeMethodMismatch   Code = 102
	CodeInvalidEmail              Code = 200
	CodeInvalidUsername           Code = 201
	CodeInvalidVerificationCode   Code = 202
	CodeUsernameAlreadyExists     Code = 203
	CodeEmailAlreadyInUse         Code = 204
	CodeUsernameDoesNotExist      Code = 205
	CodeUnmatchingVerification    Code = 206
	CodeIncorrectPassword         Code = 207
	CodeEmailDoesNotExist         Code = 208
	CodeAccountUnverified         Code = 209
	CodeInvalidPasswordHash       Code = 210
	CodeInvalidPasswordChangeCode Code = 211
	CodeUnknownS3Reason           Code = 300
	CodeStorageError              Code = 301
)

var namesByCode = map[Code]string{
	CodeMissingParams:             "ERROR_MISSING_PARAMS",
	CodeUnknownError:              "ERROR_UNKNOWN_ERROR",
	CodeUnimplementedHTTPRequest:  "ERROR_UNIMPLEMENTED_HTTP_REQUEST",
	CodeNoEventType:               "ERROR_NO_EVENT_TYPE",
	CodeUnknownEventType:          "ERROR_UNKNOWN_EVENT_TYPE",
	CodeEventTypeMethodMismatch:   "ERROR_EVENT_TYPE_METHOD_MISMATCH",
	CodeInvalidEmail:              "ERROR_INVALID_EMAIL",
	CodeInvalidUsername:           "ERROR_INVALID_USERNAME",
	CodeInvalidVerificationCode:   "ERROR_INVALID_VERIFICATION_CODE",
	CodeUsernameAlreadyExists:     "ERROR_USERNAME_ALREADY_EXISTS",
	CodeEmailAlreadyInUse:         "ERROR_EMAIL_ALREADY_IN_USE",
	CodeUsernameDoesNotExist:      "ERROR_USERNAME_DOES_NOT_EXIST",
	CodeUnmatchingVerification:    "ERROR_UNMATCHING_VERIFICATION_CODE",
	CodeIncorrectPassword:         "ERROR_INCORRECT_PASSWORD",
	CodeEmailDoesNotExist:         "ERROR_EMAIL_DOES_NOT_EXIST",
	CodeAccountUnverified:         "ERROR_ACCOUNT_UNVERIFIED",
	CodeInvalidPasswordHash:       "ERROR_INVALID_PASSWORD_HASH",
	CodeInvalidPasswordChangeCode: "ERROR_INVALID_PASSWORD_CHANGE_CODE",
	CodeUnknownS3Reason:           "ERROR_UNKNOWN_S3_REASON",
	CodeStorageError:              "ERROR_STORAGE_ERROR",
}

var codesByName = func() map[string]Code {
	m := make(map[string]Code, len(namesByCode))
	for code, name := range namesByCode {
		m[name] = code
	}
	return m
}()

// Name returns the registry name for a code, or an empty string for codes
// outside the registry.
func Name(code Code) string {
	return namesByCode[code]
}

// ByName returns the code registered under name.
func ByName(name string) (Code, bool) {
	code, ok := codesByName[name]
	return code, ok
}

// Error is an application error carried back to the client in the response
// envelope. Message is already formatted as "<ERROR_NAME>: <detail>".
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code Code, detail string) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf("%s: %s", namesByCode[code], detail),
	}
}

func MissingParams(param string) *Error {
	return newError(CodeMissingParams, fmt.Sprintf("Missing param '%s'", param))
}

func Unknown(err error) *Error {
	return newError(CodeUnknownError, fmt.Sprintf("Unknown error occurred: %v", err))
}

func UnimplementedHTTPRequest(method string) *Error {
	return newError(CodeUnimplementedHTTPRequest, fmt.Sprintf("Unimplemented http request type: %s", method))
}

func NoEventType() *Error {
	return newError(CodeNoEventType, "No event type was passed")
}

func UnknownEventType(method, eventType string) *Error {
	return newError(CodeUnknownEventType, fmt.Sprintf("An unknown event type was passed for http method '%s': %s", method, eventType))
}

func EventTypeMethodMismatch(method, eventType string) *Error {
	return newError(CodeEventTypeMethodMismatch, fmt.Sprintf("Event type '%s' is not available for http method '%s'", eventType, method))
}

func InvalidEmail(email string) *Error {
	return newError(CodeInvalidEmail, fmt.Sprintf("Email is invalid: %s", email))
}

func InvalidUsername(username string) *Error {
	return newError(CodeInvalidUsername, fmt.Sprintf("Username is invalid: \"%s\"", username))
}

func InvalidVerificationCode(code string) *Error {
	return newError(CodeInvalidVerificationCode, fmt.Sprintf("Verification code invalid: \"%s\"", code))
}

func UsernameAlreadyExists(username string) *Error {
	return newError(CodeUsernameAlreadyExists, fmt.Sprintf("Username already exists: %s", username))
}

func EmailAlreadyInUse(email string) *Error {
	return newError(CodeEmailAlreadyInUse, fmt.Sprintf("Email already in use: %s", email))
}

func UsernameDoesNotExist(username string) *Error {
	return newError(CodeUsernameDoesNotExist, fmt.Sprintf("Username does not exist: %s", username))
}

func UnmatchingVerificationCode(code, username string) *Error {
	return newError(CodeUnmatchingVerification, fmt.Sprintf("Verification code '%s' does not match for username '%s'", code, username))
}

func IncorrectPassword() *Error {
	return newError(CodeIncorrectPassword, "Password incorrect")
}

func EmailDoesNotExist(email string) *Error {
	return newError(CodeEmailDoesNotExist, fmt.Sprintf("Email does not exist: %s", email))
}

func AccountUnverified() *Error {
	return newError(CodeAccountUnverified, "Account has not yet been verified, check your email for verification link")
}

func InvalidPasswordHash() *Error {
	return newError(CodeInvalidPasswordHash, "Invalid password hash")
}

func InvalidPasswordChangeCode() *Error {
	return newError(CodeInvalidPasswordChangeCode, "Invalid or expired password change code")
}

func UnknownS3Reason(reason string) *Error {
	return newError(CodeUnknownS3Reason, fmt.Sprintf("Unknown reason for accessing S3 bucket: %s", reason))
}

func StorageError(err error) *Error {
	return newError(CodeStorageError, fmt.Sprintf("Unknown storage error occurred: %v", err))
}

// From converts any error to an *Error. Errors that are not already part of
// the registry degrade to the generic unknown error carrying the underlying
// message as diagnostic text.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Unknown(err)
}
