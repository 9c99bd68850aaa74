// Package value is the serialization-agnostic tree every manifest and
// source literal is rendered from.
package value

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strings"

	"cogentcore.org/core/base/ordmap"
)

// Kind tags the variant held by a Node.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInteger
	KindFloat
	KindTypedArray
	KindObject
	KindArray
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindTypedArray:
		return "typedarray"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ElementKind is the element type of a typed array.
type ElementKind uint8

const (
	Int8 ElementKind = iota + 1
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Float32
	Float64
)

// Size returns the element size in bytes, or 0 for an unknown kind.
func (e ElementKind) Size() int {
	switch e {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// String returns the element type name, e.g. "float32".
func (e ElementKind) String() string {
	switch e {
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("element(%d)", uint8(e))
	}
}

// Node is one value in the tree. The zero value is not valid; use the
// constructors.
type Node struct {
	kind  Kind
	str   string
	num   int64
	flt   float64
	elem  ElementKind
	data  []byte
	obj   *ordmap.Map[string, *Node]
	items []*Node
}

// Null returns a null node.
func Null() *Node { return &Node{kind: KindNull} }

// String returns a string node.
func String(s string) *Node { return &Node{kind: KindString, str: s} }

// Int returns an integer node.
func Int(i int) *Node { return &Node{kind: KindInteger, num: int64(i)} }

// Int64 returns an integer node.
func Int64(i int64) *Node { return &Node{kind: KindInteger, num: i} }

// Float returns a float node.
func Float(f float64) *Node { return &Node{kind: KindFloat, flt: f} }

// Typed returns a typed array over little-endian encoded data. The encoding
// is validated when the node is rendered.
func Typed(elem ElementKind, data []byte) *Node {
	return &Node{kind: KindTypedArray, elem: elem, data: data}
}

// Float32s encodes vs as a float32 typed array.
func Float32s(vs []float32) *Node {
	data := make([]byte, len(vs)*4)
	for i, v := range vs {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return Typed(Float32, data)
}

// Uint8s wraps vs as a uint8 typed array.
func Uint8s(vs []uint8) *Node {
	return Typed(Uint8, append([]byte(nil), vs...))
}

// Uint16s encodes vs as a uint16 typed array.
func Uint16s(vs []uint16) *Node {
	data := make([]byte, len(vs)*2)
	for i, v := range vs {
		binary.LittleEndian.PutUint16(data[i*2:], v)
	}
	return Typed(Uint16, data)
}

// Uint32s encodes vs as a uint32 typed array.
func Uint32s(vs []uint32) *Node {
	data := make([]byte, len(vs)*4)
	for i, v := range vs {
		binary.LittleEndian.PutUint32(data[i*4:], v)
	}
	return Typed(Uint32, data)
}

// Uints wraps already encoded little-endian unsigned integers of the given
// byte width.
func Uints(width int, data []byte) *Node {
	switch width {
	case 1:
		return Typed(Uint8, data)
	case 2:
		return Typed(Uint16, data)
	default:
		return Typed(Uint32, data)
	}
}

// NewObject returns an empty object.
func NewObject() *Node {
	return &Node{kind: KindObject, obj: ordmap.New[string, *Node]()}
}

// NewArray returns an array holding items.
func NewArray(items ...*Node) *Node {
	return &Node{kind: KindArray, items: items}
}

// Vector returns an array of float nodes.
func Vector(vs ...float32) *Node {
	items := make([]*Node, len(vs))
	for i, v := range vs {
		items[i] = Float(float64(v))
	}
	return NewArray(items...)
}

// Ints returns an array of integer nodes.
func Ints(vs ...int) *Node {
	items := make([]*Node, len(vs))
	for i, v := range vs {
		items[i] = Int(v)
	}
	return NewArray(items...)
}

// Kind returns the node's variant tag.
func (n *Node) Kind() Kind { return n.kind }

// AsString returns the payload of a string node.
func (n *Node) AsString() string { return n.str }

// AsInt returns the payload of an integer node.
func (n *Node) AsInt() int64 { return n.num }

// AsFloat returns the payload of a float node.
func (n *Node) AsFloat() float64 { return n.flt }

// Element returns the element kind of a typed array.
func (n *Node) Element() ElementKind { return n.elem }

// Bytes returns the raw data of a typed array.
func (n *Node) Bytes() []byte { return n.data }

// Count returns the number of elements of a typed array, rounding down.
func (n *Node) Count() int {
	size := n.elem.Size()
	if size == 0 {
		return 0
	}
	return len(n.data) / size
}

// Set stores v under name in an object. If name already exists the previous
// entry is evicted, v is stored as the most recent insertion, and a
// *CollisionError is returned so the caller can report it.
func (n *Node) Set(name string, v *Node) error {
	n.mustBe(KindObject, "Set")
	var err error
	if _, has := n.obj.ValueByKeyTry(name); has {
		n.obj.DeleteKey(name)
		err = &CollisionError{Name: name}
	}
	n.obj.Add(name, v)
	return err
}

// Get returns the value stored under name in an object.
func (n *Node) Get(name string) (*Node, bool) {
	n.mustBe(KindObject, "Get")
	return n.obj.ValueByKeyTry(name)
}

// Keys returns an object's keys in insertion order.
func (n *Node) Keys() []string {
	n.mustBe(KindObject, "Keys")
	return n.obj.Keys()
}

// SortedKeys returns an object's keys in descending name order, the order
// every renderer uses.
func (n *Node) SortedKeys() []string {
	keys := n.Keys()
	slices.SortFunc(keys, func(a, b string) int {
		return strings.Compare(b, a)
	})
	return keys
}

// Append adds items to an array.
func (n *Node) Append(items ...*Node) {
	n.mustBe(KindArray, "Append")
	n.items = append(n.items, items...)
}

// Items returns an array's elements.
func (n *Node) Items() []*Node {
	n.mustBe(KindArray, "Items")
	return n.items
}

// Len returns the number of entries of an object or array, or the element
// count of a typed array.
func (n *Node) Len() int {
	switch n.kind {
	case KindObject:
		return n.obj.Len()
	case KindArray:
		return len(n.items)
	case KindTypedArray:
		return n.Count()
	default:
		return 0
	}
}

// checkTyped validates that a typed array's bytes split evenly into elements.
func (n *Node) checkTyped() error {
	size := n.elem.Size()
	if size == 0 {
		return fmt.Errorf("%w: unknown element kind %d", ErrUnsupportedTypedArrayEncoding, n.elem)
	}
	if len(n.data)%size != 0 {
		return fmt.Errorf("%w: %d bytes is not a multiple of %s size %d",
			ErrUnsupportedTypedArrayEncoding, len(n.data), n.elem, size)
	}
	return nil
}

func (n *Node) mustBe(k Kind, op string) {
	if n.kind != k {
		panic(fmt.Sprintf("value: %s on %s node", op, n.kind))
	}
}
