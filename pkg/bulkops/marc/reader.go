package marc

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// Reader parses MARC21 records from an ISO 2709 stream one at a time.
type Reader struct {
	r *bufio.Reader
}

// NewReader creates a Reader over the given stream.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next reads and parses the next record. It returns io.EOF when the stream
// is exhausted.
func (r *Reader) Next() (*Record, error) {
	lengthBytes := make([]byte, 5)
	if _, err := io.ReadFull(r.r, lengthBytes); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}

	recordLength, err := strconv.Atoi(string(lengthBytes))
	if err != nil {
		return nil, fmt.Errorf("invalid record length %q: %w", lengthBytes, err)
	}
	if recordLength < leaderLength+2 {
		return nil, fmt.Errorf("record length %d shorter than a leader", recordLength)
	}

	rest := make([]byte, recordLength-5)
	if _, err := io.ReadFull(r.r, rest); err != nil {
		return nil, fmt.Errorf("truncated record of declared length %d: %w", recordLength, err)
	}

	raw := append(lengthBytes, rest...)
	return parse(raw)
}

// parse decodes one complete ISO 2709 record.
func parse(raw []byte) (*Record, error) {
	if raw[len(raw)-1] != recordTerminator {
		return nil, fmt.Errorf("record of length %d missing record terminator", len(raw))
	}

	record := &Record{Leader: string(raw[:leaderLength])}

	baseAddress, err := strconv.Atoi(record.Leader[12:17])
	if err != nil {
		return nil, fmt.Errorf("invalid base address in leader %q: %w", record.Leader, err)
	}
	if baseAddress <= leaderLength || baseAddress > len(raw) {
		return nil, fmt.Errorf("base address %d out of bounds for record of length %d", baseAddress, len(raw))
	}

	// Directory runs from the leader to the field terminator before the base address.
	directory := raw[leaderLength : baseAddress-1]
	if len(directory)%directoryEntryLength != 0 {
		return nil, fmt.Errorf("directory length %d is not a multiple of %d", len(directory), directoryEntryLength)
	}
	body := raw[baseAddress:]

	for i := 0; i < len(directory); i += directoryEntryLength {
		entry := directory[i : i+directoryEntryLength]
		tag := string(entry[0:3])
		fieldLength, err := strconv.Atoi(string(entry[3:7]))
		if err != nil {
			return nil, fmt.Errorf("invalid field length in directory entry %q: %w", entry, err)
		}
		start, err := strconv.Atoi(string(entry[7:12]))
		if err != nil {
			return nil, fmt.Errorf("invalid field start in directory entry %q: %w", entry, err)
		}
		if start+fieldLength > len(body) {
			return nil, fmt.Errorf("field %s extends past record body", tag)
		}

		// Field data excludes its trailing field terminator.
		data := body[start : start+fieldLength-1]
		if isControlTag(tag) {
			record.ControlFields = append(record.ControlFields, ControlField{Tag: tag, Data: string(data)})
			continue
		}

		field, err := parseDataField(tag, data)
		if err != nil {
			return nil, err
		}
		record.DataFields = append(record.DataFields, *field)
	}
	return record, nil
}

// parseDataField decodes indicators and subfields of one data field.
func parseDataField(tag string, data []byte) (*DataField, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("data field %s shorter than its indicators", tag)
	}
	field := &DataField{Tag: tag, Ind1: data[0], Ind2: data[1]}

	rest := data[2:]
	for len(rest) > 0 {
		if rest[0] != subfieldDelimiter {
			return nil, fmt.Errorf("data field %s has malformed subfield structure", tag)
		}
		rest = rest[1:]
		if len(rest) == 0 {
			return nil, fmt.Errorf("data field %s ends with a bare subfield delimiter", tag)
		}
		code := rest[0]
		rest = rest[1:]

		end := bytes.IndexByte(rest, subfieldDelimiter)
		if end < 0 {
			end = len(rest)
		}
		field.Subfields = append(field.Subfields, Subfield{Code: code, Value: string(rest[:end])})
		rest = rest[end:]
	}
	return field, nil
}
