package value

import (
	"errors"
	"fmt"
)

// Value tree errors.
var (
	// ErrNameCollision is recoverable: the later value replaced the earlier one.
	ErrNameCollision = errors.New("name collision")
	// ErrInvalidName is fatal for literal rendering only.
	ErrInvalidName = errors.New("invalid name")
	// ErrInvalidUTF8 marks strings that renderers write with U+FFFD
	// substituted for the invalid bytes.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
	// ErrUnsupportedTypedArrayEncoding is fatal for every renderer.
	ErrUnsupportedTypedArrayEncoding = errors.New("unsupported typed array encoding")
)

// CollisionError reports a key that was inserted twice into an object.
type CollisionError struct {
	Name string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("%v: %q replaced by a later value", ErrNameCollision, e.Name)
}

func (e *CollisionError) Unwrap() error {
	return ErrNameCollision
}
