package guardar

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNilBackend is returned by New when no backend is given.
	ErrNilBackend = errors.New("guardar: nil backend")
	// ErrNotObject marks JSON that is valid but not an object.
	ErrNotObject = errors.New("guardar: not a JSON object")
	// ErrConflict is returned when a Swapper backend kept changing under a
	// read-modify-write after every retry.
	ErrConflict = errors.New("guardar: concurrent update conflict")
	// ErrInvalidKey marks a field name that is not valid UTF-8 and so cannot
	// be written as a JSON member name.
	ErrInvalidKey = errors.New("guardar: key is not valid UTF-8")
)

// ParseError reports stored content under a root key that is not a valid
// JSON object.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("guardar: parse %q: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SerializationError reports a value that could not be encoded for
// persistence. Key is the field being written, empty for whole-document
// writes.
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("guardar: serialize: %v", e.Err)
	}
	return fmt.Sprintf("guardar: serialize %q: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
