package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrCorrupt is matched by every *CorruptError.
	ErrCorrupt = errors.New("corrupt mesh cache")

	// ErrUnknownFormat is returned for paths or names that map to no format.
	ErrUnknownFormat = errors.New("unknown cache format")

	// ErrMissingField is wrapped when a required array is absent.
	ErrMissingField = errors.New("missing field")
)

// CorruptError reports a cache file that cannot be decoded into a record.
// Field is empty when the problem is not tied to one array.
type CorruptError struct {
	Path  string
	Field string
	Err   error
}

func (e *CorruptError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("corrupt mesh cache %s: %s: %v", e.Path, e.Field, e.Err)
	}
	return fmt.Sprintf("corrupt mesh cache %s: %v", e.Path, e.Err)
}

// Is lets errors.Is match ErrCorrupt as well as the wrapped cause.
func (e *CorruptError) Is(target error) bool { return target == ErrCorrupt }

func (e *CorruptError) Unwrap() error { return e.Err }

func corrupt(path, field string, err error) error {
	return &CorruptError{Path: path, Field: field, Err: err}
}
