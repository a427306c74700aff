package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tOgg1/thinkchat/internal/credentials"
)

var (
	// ErrMissingCredential is returned before any request is sent when no
	// bearer token is available.
	ErrMissingCredential = fmt.Errorf("not signed in: %w", credentials.ErrNoToken)

	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("transport failure")
)

// Messages shown to the user when login fails without a server explanation.
const (
	MsgNetworkError   = "Network error, please try again."
	MsgSomethingWrong = "Something went wrong, please try again."
)

// TransportError reports a failed request. StatusCode is zero when no
// response was received.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: server returned %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": transport failure"
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// Unauthorized reports whether the server rejected the bearer token.
func (e *TransportError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// AuthError carries a message from the login endpoint meant for the user.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// IsUnauthorized reports whether err is a transport error for a rejected token.
func IsUnauthorized(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Unauthorized()
}
