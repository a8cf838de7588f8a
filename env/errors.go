package env

import (
	"fmt"
	"strings"
)

// ValidationError reports every variable that failed to decode in one
// validation pass. Errors holds one formatted "KEY: detail" line per failure,
// in deterministic key order.
type ValidationError struct {
	Errors []string
	cause  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid environment variables:\n  %s", strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) Unwrap() error { return e.cause }

// AccessError reports a server-only variable read from a non-server context.
type AccessError struct {
	Key string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("attempted to access server-side environment variable %q on the client", e.Key)
}
