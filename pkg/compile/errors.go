package compile

import (
	"errors"
	"fmt"
)

// Compilation errors. All of them abort the model being compiled.
var (
	ErrLayoutMismatch = errors.New("vertex layout mismatch")
	ErrIndexOverflow  = errors.New("index overflow")
	ErrMalformedMesh  = errors.New("malformed mesh")
	ErrEmptyScene     = errors.New("scene has no root node")
)

// LayoutMismatchError reports a mesh whose derived layout differs from the
// model's canonical layout.
type LayoutMismatchError struct {
	Mesh      string
	Attribute string // name of the first differing attribute
	Want      string
	Got       string
}

func (e *LayoutMismatchError) Error() string {
	return fmt.Sprintf("%v: mesh %q attribute %s: want %s, got %s",
		ErrLayoutMismatch, e.Mesh, e.Attribute, e.Want, e.Got)
}

func (e *LayoutMismatchError) Unwrap() error {
	return ErrLayoutMismatch
}
