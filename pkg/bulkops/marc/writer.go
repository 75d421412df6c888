package marc

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Writer serializes MARC21 records to an ISO 2709 stream.
type Writer struct {
	w io.Writer
}

// NewWriter creates a Writer over the given stream.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write serializes one record and appends it to the stream.
func (w *Writer) Write(record *Record) error {
	data, err := Serialize(record)
	if err != nil {
		return err
	}
	_, err = w.w.Write(data)
	return err
}

// isControlTag reports whether the tag names a control field (001-009).
func isControlTag(tag string) bool {
	return strings.HasPrefix(tag, "00")
}

// Serialize renders one record as ISO 2709 bytes: leader, directory,
// variable fields, record terminator. The leader's record-length and
// base-address slots are recomputed.
func Serialize(record *Record) ([]byte, error) {
	if len(record.Leader) != leaderLength {
		return nil, fmt.Errorf("invalid leader length %d, expected %d", len(record.Leader), leaderLength)
	}

	var directory bytes.Buffer
	var fields bytes.Buffer

	writeField := func(tag string, data []byte) {
		start := fields.Len()
		fields.Write(data)
		fields.WriteByte(fieldTerminator)
		fmt.Fprintf(&directory, "%s%04d%05d", tag, len(data)+1, start)
	}

	for _, f := range record.ControlFields {
		writeField(f.Tag, []byte(f.Data))
	}
	for _, f := range record.DataFields {
		var data bytes.Buffer
		data.WriteByte(f.Ind1)
		data.WriteByte(f.Ind2)
		for _, sf := range f.Subfields {
			data.WriteByte(subfieldDelimiter)
			data.WriteByte(sf.Code)
			data.WriteString(sf.Value)
		}
		writeField(f.Tag, data.Bytes())
	}

	baseAddress := leaderLength + directory.Len() + 1
	recordLength := baseAddress + fields.Len() + 1

	leader := []byte(record.Leader)
	copy(leader[0:5], fmt.Sprintf("%05d", recordLength))
	copy(leader[12:17], fmt.Sprintf("%05d", baseAddress))

	var out bytes.Buffer
	out.Grow(recordLength)
	out.Write(leader)
	out.Write(directory.Bytes())
	out.WriteByte(fieldTerminator)
	out.Write(fields.Bytes())
	out.WriteByte(recordTerminator)
	return out.Bytes(), nil
}
