// Package error defines domain-specific errors for the budget tracker ledger.
package error

import "errors"

// Authentication domain errors.
var (
	// ErrInvalidCredentials is returned when email or password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailAlreadyRegistered is returned when registering an email that
	// already has an account.
	ErrEmailAlreadyRegistered = errors.New("email already registered")

	// ErrWeakPassword is returned when the password does not meet the minimum
	// requirements.
	ErrWeakPassword = errors.New("password does not meet minimum requirements")

	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidSessionToken is returned when a session token fails
	// validation or has expired.
	ErrInvalidSessionToken = errors.New("invalid or expired session token")

	// ErrNoActiveSession is returned when a session token is requested while
	// no user is signed in.
	ErrNoActiveSession = errors.New("no active session")
)

// AuthErrorCode defines error codes for authentication errors.
// Format: AUTH-XXYYYY where XX is category and YYYY is specific error.
type AuthErrorCode string

const (
	ErrCodeInvalidCredentials     AuthErrorCode = "AUTH-010001"
	ErrCodeEmailAlreadyRegistered AuthErrorCode = "AUTH-010002"
	ErrCodeWeakPassword           AuthErrorCode = "AUTH-010003"
	ErrCodeUserNotFound           AuthErrorCode = "AUTH-010004"
	ErrCodeInvalidSessionToken    AuthErrorCode = "AUTH-020001"
	ErrCodeNoActiveSession        AuthErrorCode = "AUTH-020002"
)

// AuthError represents an authentication error with code and message.
type AuthError struct {
	Code    AuthErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError creates a new AuthError with the given code and message.
func NewAuthError(code AuthErrorCode, message string, err error) *AuthError {
	return &AuthError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
