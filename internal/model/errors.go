package model

import (
	"errors"
	"fmt"
)

// ValidationError reports missing or invalid input; nothing was sent or stored
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// QueryFailed wraps a document store failure
type QueryFailed struct {
	Op  string
	Err error
}

func (e *QueryFailed) Error() string {
	return fmt.Sprintf("query failed (%s): %v", e.Op, e.Err)
}

func (e *QueryFailed) Unwrap() error { return e.Err }

// PredictionUnavailable reports that no usable price came back from the price model
type PredictionUnavailable struct {
	Reason string
	Err    error
}

func (e *PredictionUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("prediction unavailable: %s: %v", e.Reason, e.Err)
	}
	return "prediction unavailable: " + e.Reason
}

func (e *PredictionUnavailable) Unwrap() error { return e.Err }

// AuthError carries a provider error code and the message shown to the user
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// Provider error codes with a fixed user-facing message
const (
	AuthCodeUserNotFound        = "auth/user-not-found"
	AuthCodeWrongPassword       = "auth/wrong-password"
	AuthCodeInvalidCredential   = "auth/invalid-credential"
	AuthCodeTooManyRequests     = "auth/too-many-requests"
	AuthCodeUserDisabled        = "auth/user-disabled"
	AuthCodeAccountExists       = "auth/account-exists-with-different-credential"
	AuthCodePopupClosed         = "auth/popup-closed-by-user"
	AuthCodeEmailInUse          = "auth/email-already-in-use"
	AuthCodeInvalidToken        = "auth/invalid-id-token"
	AuthCodeOperationNotAllowed = "auth/operation-not-allowed"
)

var authMessages = map[string]string{
	AuthCodeUserNotFound:      "Invalid email or password. Please try again.",
	AuthCodeWrongPassword:     "Invalid email or password. Please try again.",
	AuthCodeInvalidCredential: "Invalid email or password. Please try again.",
	AuthCodeTooManyRequests:   "Too many unsuccessful login attempts. Please try again later.",
	AuthCodeUserDisabled:      "This account has been disabled. Please contact support.",
	AuthCodeAccountExists:     "An account already exists with the same email address but different sign-in credentials.",
	AuthCodePopupClosed:       "The sign-in popup was closed before completing the sign-in.",
	AuthCodeEmailInUse:        "The email address is already in use by another account.",
}

// MapAuthError converts a provider error code to an AuthError. Unknown codes
// keep the raw provider message.
func MapAuthError(code, raw string) *AuthError {
	if msg, ok := authMessages[code]; ok {
		return &AuthError{Code: code, Message: msg}
	}
	if raw == "" {
		raw = "Authentication failed"
	}
	return &AuthError{Code: code, Message: raw}
}

// ErrForbidden is returned when the caller does not own the target resource
var ErrForbidden = errors.New("forbidden")

// ErrNotFound is returned when a referenced document does not exist
var ErrNotFound = errors.New("not found")
