// Package codec implements the reversible flat-record encoding used to
// stage compound catalog sub-objects (classification, publication, subject,
// electronic access, note) in single delimited table cells.
//
// Fields inside one encoded value are joined with FieldDelimiter; multiple
// values sharing a cell are joined with ArrayDelimiter. Both sequences pair
// a non-printing control character with a printable one so collisions with
// real catalog text are vanishingly unlikely. Empty fields are rendered as a
// single hyphen so arity is always preserved; decoding splits on the
// delimiter with a fixed expected token count and fails loudly on a
// mismatch, because silently mis-aligned fields would corrupt unrelated
// columns downstream.
package codec

import (
	"context"
	"strings"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	port "github.com/opencatalog/bulkops/pkg/bulkops/core/port"
)

const (
	// FieldDelimiter joins the fields of one encoded compound value.
	FieldDelimiter = "\u001f;"
	// ArrayDelimiter joins multiple encoded values sharing one table cell.
	ArrayDelimiter = "\u001f|"
	// EmptyPlaceholder stands in for an empty or absent field so token
	// counts stay fixed.
	EmptyPlaceholder = "-"
)

// Token counts per compound type. Decoding enforces these strictly.
const (
	classificationTokens   = 2
	publicationTokens      = 4
	subjectTokens          = 3
	electronicAccessTokens = 5
)

const moduleName = "codec"

// Codec encodes and decodes compound sub-objects. Reference-valued
// sub-fields are resolved to display names on encode and back to ids on
// decode; resolution failure passes the raw value through unchanged rather
// than failing the record.
type Codec struct {
	resolver port.ReferenceResolver
}

// New creates a Codec using the given reference resolver.
func New(resolver port.ReferenceResolver) *Codec {
	return &Codec{resolver: resolver}
}

// orPlaceholder renders an empty value as the hyphen placeholder.
func orPlaceholder(value string) string {
	if value == "" {
		return EmptyPlaceholder
	}
	return value
}

// fromPlaceholder restores an empty value from the hyphen placeholder.
func fromPlaceholder(token string) string {
	if token == EmptyPlaceholder {
		return ""
	}
	return token
}

// splitStrict splits an encoded value and validates the token count.
func splitStrict(encoded, fieldName string, expected int) ([]string, error) {
	tokens := strings.Split(encoded, FieldDelimiter)
	if len(tokens) != expected {
		return nil, newFormatError(fieldName, len(tokens), expected)
	}
	return tokens, nil
}

// EncodeClassification encodes a classification as "type-name;number".
// A nil classification encodes to the empty string.
func (c *Codec) EncodeClassification(ctx context.Context, cl *model.Classification, tenantID string) string {
	if cl == nil {
		return ""
	}
	typeName := c.resolver.NameByID(ctx, port.RefClassificationType, cl.ClassificationTypeID, tenantID)
	return strings.Join([]string{
		orPlaceholder(escape(typeName)),
		orPlaceholder(escape(cl.ClassificationNumber)),
	}, FieldDelimiter)
}

// DecodeClassification decodes a classification cell, resolving the type
// name back to its id.
func (c *Codec) DecodeClassification(ctx context.Context, encoded, tenantID string) (*model.Classification, error) {
	tokens, err := splitStrict(encoded, "classification", classificationTokens)
	if err != nil {
		return nil, err
	}
	typeName := fromPlaceholder(tokens[0])
	cl := &model.Classification{
		ClassificationNumber: fromPlaceholder(tokens[1]),
	}
	if typeName != "" {
		cl.ClassificationTypeID = c.resolver.IDByName(ctx, port.RefClassificationType, typeName, tenantID)
	}
	return cl, nil
}

// EncodePublication encodes a publication as
// "publisher;role;place;date". A nil publication encodes to an all-hyphen
// value so publication cells always carry their full arity.
func (c *Codec) EncodePublication(ctx context.Context, p *model.Publication) string {
	if p == nil {
		p = &model.Publication{}
	}
	return strings.Join([]string{
		orPlaceholder(escape(p.Publisher)),
		orPlaceholder(escape(p.Role)),
		orPlaceholder(escape(p.Place)),
		orPlaceholder(escape(p.DateOfPublication)),
	}, FieldDelimiter)
}

// DecodePublication decodes a publication cell.
func (c *Codec) DecodePublication(ctx context.Context, encoded string) (*model.Publication, error) {
	tokens, err := splitStrict(encoded, "publication", publicationTokens)
	if err != nil {
		return nil, err
	}
	return &model.Publication{
		Publisher:         fromPlaceholder(tokens[0]),
		Role:              fromPlaceholder(tokens[1]),
		Place:             fromPlaceholder(tokens[2]),
		DateOfPublication: fromPlaceholder(tokens[3]),
	}, nil
}

// EncodeSubject encodes a subject as "heading;source-name;type-name".
// A nil subject encodes to the empty string.
func (c *Codec) EncodeSubject(ctx context.Context, s *model.Subject, tenantID string) string {
	if s == nil {
		return ""
	}
	sourceName := c.resolver.NameByID(ctx, port.RefSubjectSource, s.SourceID, tenantID)
	typeName := c.resolver.NameByID(ctx, port.RefSubjectType, s.TypeID, tenantID)
	return strings.Join([]string{
		orPlaceholder(escape(s.Value)),
		orPlaceholder(escape(sourceName)),
		orPlaceholder(escape(typeName)),
	}, FieldDelimiter)
}

// DecodeSubject decodes a subject cell, resolving source and type names back
// to their ids.
func (c *Codec) DecodeSubject(ctx context.Context, encoded, tenantID string) (*model.Subject, error) {
	tokens, err := splitStrict(encoded, "subject", subjectTokens)
	if err != nil {
		return nil, err
	}
	s := &model.Subject{Value: fromPlaceholder(tokens[0])}
	if sourceName := fromPlaceholder(tokens[1]); sourceName != "" {
		s.SourceID = c.resolver.IDByName(ctx, port.RefSubjectSource, sourceName, tenantID)
	}
	if typeName := fromPlaceholder(tokens[2]); typeName != "" {
		s.TypeID = c.resolver.IDByName(ctx, port.RefSubjectType, typeName, tenantID)
	}
	return s, nil
}

// EncodeElectronicAccess encodes an electronic access entry as
// "uri;link-text;material-spec;public-note;relationship-name". A nil entry
// encodes to the empty string.
func (c *Codec) EncodeElectronicAccess(ctx context.Context, ea *model.ElectronicAccess, tenantID string) string {
	if ea == nil {
		return ""
	}
	relationshipName := c.resolver.NameByID(ctx, port.RefElectronicAccessRelationship, ea.RelationshipID, tenantID)
	return strings.Join([]string{
		orPlaceholder(escape(ea.URI)),
		orPlaceholder(escape(ea.LinkText)),
		orPlaceholder(escape(ea.MaterialsSpecification)),
		orPlaceholder(escape(ea.PublicNote)),
		orPlaceholder(escape(relationshipName)),
	}, FieldDelimiter)
}

// DecodeElectronicAccess decodes an electronic access cell, resolving the
// relationship name back to its id.
func (c *Codec) DecodeElectronicAccess(ctx context.Context, encoded, tenantID string) (*model.ElectronicAccess, error) {
	tokens, err := splitStrict(encoded, "electronic access", electronicAccessTokens)
	if err != nil {
		return nil, err
	}
	ea := &model.ElectronicAccess{
		URI:                    fromPlaceholder(tokens[0]),
		LinkText:               fromPlaceholder(tokens[1]),
		MaterialsSpecification: fromPlaceholder(tokens[2]),
		PublicNote:             fromPlaceholder(tokens[3]),
	}
	if relationshipName := fromPlaceholder(tokens[4]); relationshipName != "" {
		ea.RelationshipID = c.resolver.IDByName(ctx, port.RefElectronicAccessRelationship, relationshipName, tenantID)
	}
	return ea, nil
}
