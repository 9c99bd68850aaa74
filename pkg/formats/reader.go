package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/modelbake/pkg/encoding"
)

// binReader reads little-endian fields and remembers the first failure, so
// parsers can read a whole record and check the error once.
type binReader struct {
	r         *bytes.Reader
	err       error
	truncated error
}

func newBinReader(data []byte, truncated error) *binReader {
	return &binReader{r: bytes.NewReader(data), truncated: truncated}
}

func (b *binReader) read(v any) {
	if b.err != nil {
		return
	}
	if err := binary.Read(b.r, binary.LittleEndian, v); err != nil {
		b.err = b.truncated
	}
}

func (b *binReader) u8() uint8 {
	var v uint8
	b.read(&v)
	return v
}

func (b *binReader) i32() int32 {
	var v int32
	b.read(&v)
	return v
}

func (b *binReader) f32() float32 {
	var v float32
	b.read(&v)
	return v
}

// str reads a fixed-size, NUL padded EUC-KR string.
func (b *binReader) str(size int) string {
	buf := make([]byte, size)
	b.read(buf)
	if b.err != nil {
		return ""
	}
	return encoding.FixedStringToUTF8(buf)
}

func (b *binReader) skip(n int) {
	if b.err != nil {
		return
	}
	if b.r.Len() < n {
		b.err = b.truncated
		return
	}
	b.r.Seek(int64(n), 1)
}

// count reads an element count and rejects negative or implausible values.
func (b *binReader) count(limit int, what string, invalid error) int {
	n := b.i32()
	if b.err != nil {
		return 0
	}
	if n < 0 || int(n) > limit {
		b.err = fmt.Errorf("%w: %d %s", invalid, n, what)
		return 0
	}
	return int(n)
}
