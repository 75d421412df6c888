// Package marc implements reading, writing and diffing of binary MARC21
// (ISO 2709) bibliographic records, plus conversion from the JSON-MARC
// representation used by the source record store.
package marc

import (
	"strings"
	"time"
)

const (
	// fieldTerminator ends every variable field and the directory.
	fieldTerminator = 0x1e
	// recordTerminator ends a record.
	recordTerminator = 0x1d
	// subfieldDelimiter introduces a subfield code inside a data field.
	subfieldDelimiter = 0x1f

	leaderLength         = 24
	directoryEntryLength = 12
)

// ControlFieldUpdatedTag is the machine-generated "date and time of latest
// transaction" control field stamped on every rewritten record.
const ControlFieldUpdatedTag = "005"

// controlNumberTag carries the record's HRID.
const controlNumberTag = "001"

// instanceFieldTag is the data field carrying the instance uuid in
// subfield 'i'.
const instanceFieldTag = "999"

// updatedTimeFormat is the 005 timestamp layout (yyyyMMddHHmmss.f).
const updatedTimeFormat = "20060102150405.0"

// ControlField is a variable control field (tags 001-009): raw data, no
// indicators or subfields.
type ControlField struct {
	Tag  string
	Data string
}

// Subfield is one coded value inside a data field.
type Subfield struct {
	Code  byte
	Value string
}

// DataField is a variable data field: two indicators plus subfields.
type DataField struct {
	Tag       string
	Ind1      byte
	Ind2      byte
	Subfields []Subfield
}

// Record is one MARC21 record.
type Record struct {
	Leader        string
	ControlFields []ControlField
	DataFields    []DataField
}

// ControlField returns the data of the first control field with the given
// tag, or empty when absent.
func (r *Record) ControlField(tag string) string {
	for _, f := range r.ControlFields {
		if f.Tag == tag {
			return f.Data
		}
	}
	return ""
}

// SetControlField replaces the data of the first control field with the
// given tag, appending the field when absent.
func (r *Record) SetControlField(tag, data string) {
	for i, f := range r.ControlFields {
		if f.Tag == tag {
			r.ControlFields[i].Data = data
			return
		}
	}
	r.ControlFields = append(r.ControlFields, ControlField{Tag: tag, Data: data})
}

// SubfieldValue returns the first value of the given subfield code in the
// first data field with the given tag, or empty when absent.
func (r *Record) SubfieldValue(tag string, code byte) string {
	for _, f := range r.DataFields {
		if f.Tag != tag {
			continue
		}
		for _, sf := range f.Subfields {
			if sf.Code == code {
				return sf.Value
			}
		}
	}
	return ""
}

// HRID returns the record's human-readable identifier from field 001.
func (r *Record) HRID() string {
	return strings.TrimSpace(r.ControlField(controlNumberTag))
}

// InstanceID returns the record's instance uuid from field 999 subfield i.
func (r *Record) InstanceID() string {
	return strings.TrimSpace(r.SubfieldValue(instanceFieldTag, 'i'))
}

// StampUpdated sets the 005 control field to the given time.
func (r *Record) StampUpdated(t time.Time) {
	r.SetControlField(ControlFieldUpdatedTag, t.UTC().Format(updatedTimeFormat))
}
