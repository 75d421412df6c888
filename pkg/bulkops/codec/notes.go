package codec

import (
	"context"
	"strconv"
	"strings"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	port "github.com/opencatalog/bulkops/pkg/bulkops/core/port"
)

// Note tuples carry three tokens, plus a trailing tenant id in consortial
// contexts.
const (
	noteTokens           = 3
	consortialNoteTokens = 4
)

// EncodeNotes encodes a record's notes as a delimited tuple list for the
// staged notes column: each tuple is "type;value;staff-only[;tenant]" with
// tuples joined by the array delimiter. The tenant token is emitted only
// when consortial is true.
func (c *Codec) EncodeNotes(ctx context.Context, notes []model.Note, consortial bool) string {
	tuples := make([]string, 0, len(notes))
	for _, note := range notes {
		typeName := note.NoteTypeName
		if typeName == "" {
			typeName = c.resolver.NameByID(ctx, port.RefNoteType, note.NoteTypeID, note.TenantID)
		}
		fields := []string{
			escape(typeName),
			escape(note.Value),
			strconv.FormatBool(note.StaffOnly),
		}
		if consortial {
			fields = append(fields, escape(note.TenantID))
		}
		tuples = append(tuples, strings.Join(fields, FieldDelimiter))
	}
	return strings.Join(tuples, ArrayDelimiter)
}

// DecodeNotes parses a staged notes column back into note values. Tuples
// with unexpected arity raise a format error; an empty cell decodes to nil.
func (c *Codec) DecodeNotes(ctx context.Context, encoded string, tenantID string) ([]model.Note, error) {
	if encoded == "" {
		return nil, nil
	}
	var notes []model.Note
	for _, tuple := range strings.Split(encoded, ArrayDelimiter) {
		tokens := strings.Split(tuple, FieldDelimiter)
		if len(tokens) != noteTokens && len(tokens) != consortialNoteTokens {
			return nil, newFormatError("note", len(tokens), noteTokens)
		}
		note := model.Note{
			NoteTypeName: tokens[0],
			Value:        tokens[1],
			StaffOnly:    tokens[2] == "true",
		}
		if len(tokens) == consortialNoteTokens {
			note.TenantID = tokens[3]
		}
		note.NoteTypeID = c.resolver.IDByName(ctx, port.RefNoteType, note.NoteTypeName, firstNonEmpty(note.TenantID, tenantID))
		notes = append(notes, note)
	}
	return notes, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
