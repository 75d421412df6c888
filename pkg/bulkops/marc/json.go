package marc

import (
	"encoding/json"
	"fmt"
)

// jsonRecord mirrors the JSON-MARC representation used by the source record
// store: a leader plus an ordered field list where each entry maps one tag
// to either a control field string or a data field object.
type jsonRecord struct {
	Leader string                       `json:"leader"`
	Fields []map[string]json.RawMessage `json:"fields"`
}

// jsonDataField is the data field object of the JSON-MARC representation.
type jsonDataField struct {
	Ind1      string              `json:"ind1"`
	Ind2      string              `json:"ind2"`
	Subfields []map[string]string `json:"subfields"`
}

// FromJSON converts a JSON-MARC payload into a Record.
func FromJSON(payload []byte) (*Record, error) {
	var jr jsonRecord
	if err := json.Unmarshal(payload, &jr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON-MARC record: %w", err)
	}
	if len(jr.Leader) != leaderLength {
		return nil, fmt.Errorf("JSON-MARC record has invalid leader length %d", len(jr.Leader))
	}

	record := &Record{Leader: jr.Leader}
	for _, entry := range jr.Fields {
		for tag, raw := range entry {
			if isControlTag(tag) {
				var data string
				if err := json.Unmarshal(raw, &data); err != nil {
					return nil, fmt.Errorf("control field %s is not a string: %w", tag, err)
				}
				record.ControlFields = append(record.ControlFields, ControlField{Tag: tag, Data: data})
				continue
			}

			var df jsonDataField
			if err := json.Unmarshal(raw, &df); err != nil {
				return nil, fmt.Errorf("data field %s is not an object: %w", tag, err)
			}
			field := DataField{Tag: tag, Ind1: indicator(df.Ind1), Ind2: indicator(df.Ind2)}
			for _, sf := range df.Subfields {
				for code, value := range sf {
					if len(code) != 1 {
						return nil, fmt.Errorf("data field %s has invalid subfield code %q", tag, code)
					}
					field.Subfields = append(field.Subfields, Subfield{Code: code[0], Value: value})
				}
			}
			record.DataFields = append(record.DataFields, field)
		}
	}
	return record, nil
}

// indicator normalizes a JSON indicator value to a single byte, defaulting
// to blank.
func indicator(s string) byte {
	if s == "" {
		return ' '
	}
	return s[0]
}
