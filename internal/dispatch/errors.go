package dispatch

import (
	"errors"
	"fmt"
)

// NotFoundError reports that no registered command matched a name, neither
// exactly nor by prefix.
type NotFoundError struct {
	Command string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("command not found: %s", e.Command)
}

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
