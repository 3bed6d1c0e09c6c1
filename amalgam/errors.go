package amalgam

import (
	"errors"
	"fmt"
)

var (
	ErrConfig            = errors.New("invalid configuration")
	ErrDirectoryNotFound = errors.New("directory not found")
	ErrFileRead          = errors.New("file read error")
	ErrFileWrite         = errors.New("file write error")
)

// PathError ties one of the error kinds above to the path that caused it.
type PathError struct {
	Kind error
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Path)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind.Error(), e.Path, e.Err)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is / errors.As.
func (e *PathError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func readError(path string, err error) error {
	return &PathError{Kind: ErrFileRead, Path: path, Err: err}
}

func writeError(path string, err error) error {
	return &PathError{Kind: ErrFileWrite, Path: path, Err: err}
}

// Configf returns an ErrConfig with a formatted message.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}
