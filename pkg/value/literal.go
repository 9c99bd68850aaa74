package value

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"unicode"

	"cogentcore.org/core/base/indent"
)

// LiteralRenderer renders a tree as a source literal that can be pasted into
// generated code, e.g.
//
//	export const cube = {
//		vertices: new Float32Array([0, 0, 0]),
//		name: "cube",
//	};
type LiteralRenderer struct {
	Declaration string           // keyword(s) before the name, "const" when empty
	IndentChar  indent.Character // tabs by default
	IndentWidth int              // spaces per level when IndentChar is indent.Space
}

// typedConstructors names the array constructor for each element kind.
var typedConstructors = map[ElementKind]string{
	Int8:    "Int8Array",
	Uint8:   "Uint8Array",
	Int16:   "Int16Array",
	Uint16:  "Uint16Array",
	Int32:   "Int32Array",
	Uint32:  "Uint32Array",
	Float32: "Float32Array",
	Float64: "Float64Array",
}

// Render declares name as the literal form of root.
func (r LiteralRenderer) Render(name string, root *Node) ([]byte, error) {
	if !IsIdentifier(name) {
		return nil, fmt.Errorf("%w: %q is not an identifier", ErrInvalidName, name)
	}
	if IsReserved(name) {
		return nil, fmt.Errorf("%w: %q is a reserved word", ErrInvalidName, name)
	}
	decl := r.Declaration
	if decl == "" {
		decl = "const"
	}
	width := r.IndentWidth
	if width <= 0 {
		width = 2
	}

	w := &literalWriter{ich: r.IndentChar, width: width}
	w.buf.WriteString(decl)
	w.buf.WriteByte(' ')
	w.buf.WriteString(name)
	w.buf.WriteString(" = ")
	if err := w.write(root, 0); err != nil {
		return nil, err
	}
	w.buf.WriteString(";\n")
	return w.buf.Bytes(), nil
}

// IsIdentifier reports whether s can be used as a bare identifier.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || c == '$' || unicode.IsLetter(c):
		case i > 0 && unicode.IsDigit(c):
		default:
			return false
		}
	}
	return true
}

// reservedWords cannot be declared as variable names. They stay valid as
// bare property keys.
var reservedWords = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true,
	"delete": true, "do": true, "else": true, "enum": true, "export": true,
	"extends": true, "false": true, "finally": true, "for": true,
	"function": true, "if": true, "implements": true, "import": true,
	"in": true, "instanceof": true, "interface": true, "let": true,
	"new": true, "null": true, "package": true, "private": true,
	"protected": true, "public": true, "return": true, "static": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true, "arguments": true, "eval": true,
}

// IsReserved reports whether s is a reserved word in the literal syntax.
func IsReserved(s string) bool {
	return reservedWords[s]
}

// validKey rejects keys the literal form cannot carry even when quoted.
func validKey(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if unicode.IsSpace(c) || unicode.IsControl(c) {
			return false
		}
	}
	return true
}

type literalWriter struct {
	buf   bytes.Buffer
	ich   indent.Character
	width int
}

func (w *literalWriter) newline(depth int) {
	w.buf.WriteByte('\n')
	w.buf.WriteString(indent.String(w.ich, depth, w.width))
}

func (w *literalWriter) write(n *Node, depth int) error {
	switch n.kind {
	case KindNull:
		w.buf.WriteString("null")
	case KindString:
		return w.quote(n.str)
	case KindInteger:
		w.buf.WriteString(strconv.FormatInt(n.num, 10))
	case KindFloat:
		w.buf.WriteString(literalFloat(n.flt, 64))
	case KindTypedArray:
		return w.writeTyped(n)
	case KindObject:
		keys := n.SortedKeys()
		if len(keys) == 0 {
			w.buf.WriteString("{}")
			return nil
		}
		w.buf.WriteByte('{')
		for _, k := range keys {
			if !validKey(k) {
				return fmt.Errorf("%w: key %q", ErrInvalidName, k)
			}
			w.newline(depth + 1)
			if IsIdentifier(k) {
				w.buf.WriteString(k)
			} else if err := w.quote(k); err != nil {
				return err
			}
			w.buf.WriteString(": ")
			v, _ := n.Get(k)
			if err := w.write(v, depth+1); err != nil {
				return err
			}
			w.buf.WriteByte(',')
		}
		w.newline(depth)
		w.buf.WriteByte('}')
	case KindArray:
		if scalarsOnly(n.items) {
			w.buf.WriteByte('[')
			for i, item := range n.items {
				if i > 0 {
					w.buf.WriteString(", ")
				}
				if err := w.write(item, depth); err != nil {
					return err
				}
			}
			w.buf.WriteByte(']')
			return nil
		}
		w.buf.WriteByte('[')
		for _, item := range n.items {
			w.newline(depth + 1)
			if err := w.write(item, depth+1); err != nil {
				return err
			}
			w.buf.WriteByte(',')
		}
		w.newline(depth)
		w.buf.WriteByte(']')
	default:
		return fmt.Errorf("cannot render %s node", n.kind)
	}
	return nil
}

// quote writes s as a double-quoted string. Invalid UTF-8 becomes U+FFFD.
func (w *literalWriter) quote(s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	w.buf.Write(b)
	return nil
}

func (w *literalWriter) writeTyped(n *Node) error {
	if err := n.checkTyped(); err != nil {
		return err
	}
	w.buf.WriteString("new ")
	w.buf.WriteString(typedConstructors[n.elem])
	w.buf.WriteString("([")

	size := n.elem.Size()
	for i := 0; i+size <= len(n.data); i += size {
		if i > 0 {
			w.buf.WriteString(", ")
		}
		w.buf.WriteString(typedElement(n.elem, n.data[i:i+size]))
	}
	w.buf.WriteString("])")
	return nil
}

// typedElement formats one little-endian element.
func typedElement(elem ElementKind, b []byte) string {
	switch elem {
	case Int8:
		return strconv.FormatInt(int64(int8(b[0])), 10)
	case Uint8:
		return strconv.FormatUint(uint64(b[0]), 10)
	case Int16:
		return strconv.FormatInt(int64(int16(binary.LittleEndian.Uint16(b))), 10)
	case Uint16:
		return strconv.FormatUint(uint64(binary.LittleEndian.Uint16(b)), 10)
	case Int32:
		return strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(b))), 10)
	case Uint32:
		return strconv.FormatUint(uint64(binary.LittleEndian.Uint32(b)), 10)
	case Float32:
		return literalFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(b))), 32)
	default:
		return literalFloat(math.Float64frombits(binary.LittleEndian.Uint64(b)), 64)
	}
}

func literalFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

func scalarsOnly(items []*Node) bool {
	for _, it := range items {
		switch it.kind {
		case KindObject, KindArray, KindTypedArray:
			return false
		}
	}
	return true
}
