package codec

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/exception"
)

// Staged matched-records tables share a fixed column layout per entity type.
// The first column always carries the operation's business identifier, so
// ledger rows and commit-time row comparison key on the same value that the
// client used to match records.

// identifierHeader names the leading identifier column.
func identifierHeader(identifierType model.IdentifierType) string {
	switch identifierType {
	case model.IdentifierTypeBarcode:
		return "Barcode"
	case model.IdentifierTypeHrid:
		return "Hrid"
	case model.IdentifierTypeUsername:
		return "Username"
	case model.IdentifierTypeExternalID:
		return "External System Id"
	case model.IdentifierTypeAccessionNumber:
		return "Accession Number"
	default:
		return "Id"
	}
}

// HeaderRow returns the staged table header for the given entity type.
func (c *Codec) HeaderRow(entityType model.EntityType, identifierType model.IdentifierType) []string {
	ident := identifierHeader(identifierType)
	switch entityType {
	case model.EntityTypeUser:
		return []string{ident, "Active", "Patron Group", "Last Name", "First Name", "Email", "Expiration Date"}
	case model.EntityTypeItem:
		return []string{ident, "Status", "Holdings Record Id", "Electronic Access", "Notes"}
	case model.EntityTypeHoldingsRecord:
		return []string{ident, "Instance Id", "Permanent Location Id", "Electronic Access", "Notes"}
	default:
		return []string{ident, "Title", "Source", "Classifications", "Publications", "Subjects", "Electronic Access", "Notes"}
	}
}

// EncodeRow renders one raw matched record into a table row matching
// HeaderRow. Compound sub-objects travel through their cell codecs; multiple
// values sharing a cell are joined with the array delimiter.
func (c *Codec) EncodeRow(ctx context.Context, entityType model.EntityType, identifierType model.IdentifierType, raw []byte, consortial bool) ([]string, error) {
	switch entityType {
	case model.EntityTypeUser:
		var user model.User
		if err := json.Unmarshal(raw, &user); err != nil {
			return nil, newRowDecodeError(entityType, err)
		}
		return []string{
			user.Identifier(identifierType),
			strconv.FormatBool(user.Active),
			user.PatronGroup,
			user.Personal.LastName,
			user.Personal.FirstName,
			user.Personal.Email,
			user.ExpirationDate,
		}, nil

	case model.EntityTypeItem:
		var item model.Item
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, newRowDecodeError(entityType, err)
		}
		return []string{
			item.Identifier(identifierType),
			item.Status,
			item.HoldingsRecordID,
			c.encodeElectronicAccessList(ctx, item.ElectronicAccess, item.TenantID),
			c.EncodeNotes(ctx, item.Notes, consortial),
		}, nil

	case model.EntityTypeHoldingsRecord:
		var holdings model.HoldingsRecord
		if err := json.Unmarshal(raw, &holdings); err != nil {
			return nil, newRowDecodeError(entityType, err)
		}
		return []string{
			holdings.Identifier(identifierType),
			holdings.InstanceID,
			holdings.PermanentLocationID,
			c.encodeElectronicAccessList(ctx, holdings.ElectronicAccess, holdings.TenantID),
			c.EncodeNotes(ctx, holdings.Notes, consortial),
		}, nil

	default:
		var instance model.Instance
		if err := json.Unmarshal(raw, &instance); err != nil {
			return nil, newRowDecodeError(entityType, err)
		}
		return []string{
			instance.Identifier(identifierType),
			instance.Title,
			instance.Source,
			c.encodeClassificationList(ctx, instance.Classifications, instance.TenantID),
			c.encodePublicationList(ctx, instance.Publications),
			c.encodeSubjectList(ctx, instance.Subjects, instance.TenantID),
			c.encodeElectronicAccessList(ctx, instance.ElectronicAccess, instance.TenantID),
			c.EncodeNotes(ctx, instance.Notes, consortial),
		}, nil
	}
}

func (c *Codec) encodeClassificationList(ctx context.Context, list []model.Classification, tenantID string) string {
	encoded := make([]string, 0, len(list))
	for i := range list {
		encoded = append(encoded, c.EncodeClassification(ctx, &list[i], tenantID))
	}
	return strings.Join(encoded, ArrayDelimiter)
}

func (c *Codec) encodePublicationList(ctx context.Context, list []model.Publication) string {
	encoded := make([]string, 0, len(list))
	for i := range list {
		encoded = append(encoded, c.EncodePublication(ctx, &list[i]))
	}
	return strings.Join(encoded, ArrayDelimiter)
}

func (c *Codec) encodeSubjectList(ctx context.Context, list []model.Subject, tenantID string) string {
	encoded := make([]string, 0, len(list))
	for i := range list {
		encoded = append(encoded, c.EncodeSubject(ctx, &list[i], tenantID))
	}
	return strings.Join(encoded, ArrayDelimiter)
}

func (c *Codec) encodeElectronicAccessList(ctx context.Context, list []model.ElectronicAccess, tenantID string) string {
	encoded := make([]string, 0, len(list))
	for i := range list {
		encoded = append(encoded, c.EncodeElectronicAccess(ctx, &list[i], tenantID))
	}
	return strings.Join(encoded, ArrayDelimiter)
}

func newRowDecodeError(entityType model.EntityType, err error) error {
	return exception.NewBatchError(moduleName, fmt.Sprintf("failed to decode %s record for table row", entityType), err, true, false)
}
