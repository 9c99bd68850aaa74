// Package grftest builds GRF 0x200 archives in memory for tests.
package grftest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"

	"github.com/Faultbox/modelbake/pkg/encoding"
)

// File is one archive member.
type File struct {
	Name    string // stored with backslashes, like real archives
	Content []byte
	Stored  bool // write uncompressed
	Flags   uint8
}

// Build encodes files into an archive image.
func Build(files ...File) []byte {
	header := make([]byte, 46)
	copy(header, "Master of Magic")
	binary.LittleEndian.PutUint32(header[42:], 0x200)

	var body, table bytes.Buffer
	for _, f := range files {
		data := f.Content
		if !f.Stored {
			var z bytes.Buffer
			zw := zlib.NewWriter(&z)
			zw.Write(f.Content)
			zw.Close()
			data = z.Bytes()
		}

		aligned := len(data)
		if aligned%8 != 0 {
			aligned += 8 - aligned%8
		}
		offset := uint32(body.Len())
		body.Write(data)
		body.Write(make([]byte, aligned-len(data)))

		flags := f.Flags
		if flags == 0 {
			flags = 0x01
		}
		name := bytes.ReplaceAll(encoding.UTF8ToEUCKR(f.Name), []byte("/"), []byte("\\"))
		table.Write(name)
		table.WriteByte(0)
		binary.Write(&table, binary.LittleEndian, uint32(len(data)))
		binary.Write(&table, binary.LittleEndian, uint32(aligned))
		binary.Write(&table, binary.LittleEndian, uint32(len(f.Content)))
		table.WriteByte(flags)
		binary.Write(&table, binary.LittleEndian, offset)
	}

	var compressedTable bytes.Buffer
	tw := zlib.NewWriter(&compressedTable)
	tw.Write(table.Bytes())
	tw.Close()

	binary.LittleEndian.PutUint32(header[30:], uint32(body.Len())) // table offset
	binary.LittleEndian.PutUint32(header[34:], 0)                  // seed
	binary.LittleEndian.PutUint32(header[38:], uint32(len(files)+7))

	var out bytes.Buffer
	out.Write(header)
	out.Write(body.Bytes())
	binary.Write(&out, binary.LittleEndian, uint32(compressedTable.Len()))
	binary.Write(&out, binary.LittleEndian, uint32(table.Len()))
	out.Write(compressedTable.Bytes())
	return out.Bytes()
}
