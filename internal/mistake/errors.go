package mistake

import "fmt"

// ValidationError indicates a bad or missing field on create/update.
// It is the only error class in the system meant to reach external callers
// as a hard failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}
