package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"cogentcore.org/core/base/indent"
	"gopkg.in/yaml.v3"
)

// Format selects the manifest document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// String returns "json" or "yaml".
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat parses "json" or "yaml" (case-insensitive, "yml" accepted).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("unknown manifest format %q", s)
	}
}

// Manifest is a rendered manifest document plus the binary payload its typed
// array sections refer to.
type Manifest struct {
	Document []byte
	Payload  []byte
}

// ManifestRenderer renders a tree as a structured document. Typed arrays are
// moved into the payload in render order and replaced by a section descriptor
// {type, count, offset, length}.
type ManifestRenderer struct {
	Format Format
	Indent int // spaces per level, 4 when zero
}

// Render renders root. Rendering the same tree twice yields identical output.
func (r ManifestRenderer) Render(root *Node) (*Manifest, error) {
	width := r.Indent
	if width <= 0 {
		width = 4
	}
	p := &payload{}

	var doc []byte
	var err error
	switch r.Format {
	case FormatJSON:
		w := &jsonWriter{payload: p, width: width}
		if err = w.write(root, 0); err == nil {
			w.buf.WriteByte('\n')
			doc = w.buf.Bytes()
		}
	case FormatYAML:
		doc, err = renderYAML(root, p, width)
	default:
		err = fmt.Errorf("unknown manifest format %d", int(r.Format))
	}
	if err != nil {
		return nil, err
	}
	return &Manifest{Document: doc, Payload: p.buf}, nil
}

// payload collects typed array bytes.
type payload struct {
	buf []byte
}

// place appends a typed array and returns the section descriptor that
// replaces it in the document.
func (p *payload) place(n *Node) (*Node, error) {
	if err := n.checkTyped(); err != nil {
		return nil, err
	}
	offset := len(p.buf)
	p.buf = append(p.buf, n.data...)

	desc := NewObject()
	desc.Set("type", String(n.elem.String()))
	desc.Set("count", Int(n.Count()))
	desc.Set("offset", Int(offset))
	desc.Set("length", Int(len(n.data)))
	return desc, nil
}

// formatFloat renders a finite float so it always reads back as a float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

type jsonWriter struct {
	buf     bytes.Buffer
	payload *payload
	width   int
}

func (w *jsonWriter) newline(depth int) {
	w.buf.WriteByte('\n')
	w.buf.WriteString(indent.Spaces(depth, w.width))
}

func (w *jsonWriter) write(n *Node, depth int) error {
	switch n.kind {
	case KindNull:
		w.buf.WriteString("null")
	case KindString:
		return w.writeString(n.str)
	case KindInteger:
		w.buf.WriteString(strconv.FormatInt(n.num, 10))
	case KindFloat:
		if math.IsNaN(n.flt) || math.IsInf(n.flt, 0) {
			w.buf.WriteString("null")
		} else {
			w.buf.WriteString(formatFloat(n.flt))
		}
	case KindTypedArray:
		desc, err := w.payload.place(n)
		if err != nil {
			return err
		}
		return w.write(desc, depth)
	case KindObject:
		keys := n.SortedKeys()
		if len(keys) == 0 {
			w.buf.WriteString("{}")
			return nil
		}
		w.buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			w.newline(depth + 1)
			if err := w.writeString(k); err != nil {
				return err
			}
			w.buf.WriteString(": ")
			v, _ := n.Get(k)
			if err := w.write(v, depth+1); err != nil {
				return err
			}
		}
		w.newline(depth)
		w.buf.WriteByte('}')
	case KindArray:
		if len(n.items) == 0 {
			w.buf.WriteString("[]")
			return nil
		}
		w.buf.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			w.newline(depth + 1)
			if err := w.write(item, depth+1); err != nil {
				return err
			}
		}
		w.newline(depth)
		w.buf.WriteByte(']')
	default:
		return fmt.Errorf("cannot render %s node", n.kind)
	}
	return nil
}

// writeString quotes s. Invalid UTF-8 becomes U+FFFD.
func (w *jsonWriter) writeString(s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	w.buf.Write(b)
	return nil
}

func renderYAML(root *Node, p *payload, width int) ([]byte, error) {
	body, err := yamlNode(root, p)
	if err != nil {
		return nil, err
	}
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{body}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(width)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func yamlScalar(tag, v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v}
}

// yamlString matches the JSON writer: invalid UTF-8 becomes U+FFFD.
func yamlString(s string) *yaml.Node {
	return yamlScalar("!!str", strings.ToValidUTF8(s, "\uFFFD"))
}

func yamlNode(n *Node, p *payload) (*yaml.Node, error) {
	switch n.kind {
	case KindNull:
		return yamlScalar("!!null", "null"), nil
	case KindString:
		return yamlString(n.str), nil
	case KindInteger:
		return yamlScalar("!!int", strconv.FormatInt(n.num, 10)), nil
	case KindFloat:
		switch {
		case math.IsNaN(n.flt):
			return yamlScalar("!!float", ".nan"), nil
		case math.IsInf(n.flt, 1):
			return yamlScalar("!!float", ".inf"), nil
		case math.IsInf(n.flt, -1):
			return yamlScalar("!!float", "-.inf"), nil
		}
		return yamlScalar("!!float", formatFloat(n.flt)), nil
	case KindTypedArray:
		desc, err := p.place(n)
		if err != nil {
			return nil, err
		}
		return yamlNode(desc, p)
	case KindObject:
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range n.SortedKeys() {
			v, _ := n.Get(k)
			child, err := yamlNode(v, p)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, yamlString(k), child)
		}
		return m, nil
	case KindArray:
		s := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range n.items {
			child, err := yamlNode(item, p)
			if err != nil {
				return nil, err
			}
			s.Content = append(s.Content, child)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("cannot render %s node", n.kind)
	}
}
