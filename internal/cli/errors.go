package cli

import (
	"errors"

	"github.com/mesh-intelligence/stowlog/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// systemError marks a failure outside the user's control, such as an
// unwritable export path.
type systemError struct {
	err error
}

func (e *systemError) Error() string { return e.err.Error() }
func (e *systemError) Unwrap() error { return e.err }

func sysError(err error) error {
	return &systemError{err: err}
}

// exitCode maps err to the process exit code. Storage and system failures
// exit 2; everything else is a user error and exits 1.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se *systemError
	if isStorage(err) || errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}

func isStorage(err error) bool {
	return errors.Is(err, types.ErrStorage)
}
