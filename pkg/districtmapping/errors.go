package districtmapping

import (
	"errors"
	"fmt"
)

// RedirectError reports a session/auth failure. The server either answered
// 403 or embedded a redirect URL in the payload; callers must navigate to the
// URL and never retry.
type RedirectError struct {
	URL string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("districtmapping: session expired, redirect to %s", e.URL)
}

// StatusError reports a non-403 HTTP failure. These are transport-level and
// terminal: retry is a manual user action, never automatic.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("districtmapping: unexpected status %d: %s", e.Code, e.Body)
}

// RequestError reports success=false from an otherwise healthy response,
// carrying the server's message verbatim.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return "districtmapping: request failed"
	}
	return "districtmapping: " + e.Message
}

// IsRedirect returns the redirect URL if err (or any error in its chain) is a
// session-expiry redirect.
func IsRedirect(err error) (string, bool) {
	var re *RedirectError
	if errors.As(err, &re) {
		return re.URL, true
	}
	return "", false
}
