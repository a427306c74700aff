package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tOgg1/thinkchat/internal/api"
)

// PreflightError is a failure the user can fix before retrying.
type PreflightError struct {
	Message  string
	Hint     string
	NextStep string
}

func (e *PreflightError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Hint != "" {
		fmt.Fprintf(&b, "\nHint: %s", e.Hint)
	}
	if e.NextStep != "" {
		fmt.Fprintf(&b, "\nNext: %s", e.NextStep)
	}
	return b.String()
}

// explainAPIError turns credential failures into login hints.
func explainAPIError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, api.ErrMissingCredential):
		return &PreflightError{
			Message:  "not signed in",
			Hint:     "Sign in with your parent account first",
			NextStep: "thinkchat login",
		}
	case api.IsUnauthorized(err):
		return &PreflightError{
			Message:  "your session has expired",
			Hint:     "Sign in again to get a new token",
			NextStep: "thinkchat login",
		}
	default:
		return err
	}
}
