package cli

import (
	"errors"
	"fmt"
	"os"

	berr "github.com/next-trace/scg-mics/contract/errors"
)

// Exit codes.
const (
	exitValidation   = 1
	exitRuntime      = 2
	exitFileNotFound = 3
	exitInterrupted  = 130
)

// ExitError carries the process exit code for main.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

func exitError(code int, err error) *ExitError { return &ExitError{Code: code, Err: err} }

// loadError maps a configuration or data loading failure to an exit code.
func loadError(err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return exitError(exitFileNotFound, err)
	case errors.Is(err, berr.ErrInvalidConfig):
		return exitError(exitValidation, err)
	default:
		return exitError(exitRuntime, fmt.Errorf("load: %w", err))
	}
}
