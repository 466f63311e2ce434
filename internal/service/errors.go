package service

import "errors"

var (
	// ErrAlreadyInstalled is returned by install for a package that has a
	// valid record. Nothing on disk is touched.
	ErrAlreadyInstalled = errors.New("package is already installed")
	// ErrNotInstalled is returned by remove for a package without a record.
	// Nothing on disk is touched.
	ErrNotInstalled = errors.New("package is not installed")
	// ErrNotConfirmed is returned by nuke without confirmation.
	ErrNotConfirmed = errors.New("confirmation required")
)

// IsWarning reports whether err is an outcome the CLI reports as a warning
// with a successful exit.
func IsWarning(err error) bool {
	return errors.Is(err, ErrAlreadyInstalled) || errors.Is(err, ErrNotInstalled)
}
