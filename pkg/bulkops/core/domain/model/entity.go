package model

// Catalog record types retrieved from the owning inventory and user systems.
// Only the fields the pipeline touches are modeled; unknown fields survive
// retrieval untouched because matched records are staged as raw JSON.

// Classification is a compound instance sub-object.
type Classification struct {
	// ClassificationTypeID references a classification type in the remote
	// catalog; the codec resolves it to a display name for table cells.
	ClassificationTypeID string `json:"classificationTypeId,omitempty"`
	ClassificationNumber string `json:"classificationNumber,omitempty"`
}

// Publication is a compound instance sub-object.
type Publication struct {
	Publisher         string `json:"publisher,omitempty"`
	Role              string `json:"role,omitempty"`
	Place             string `json:"place,omitempty"`
	DateOfPublication string `json:"dateOfPublication,omitempty"`
}

// Subject is a compound instance sub-object.
type Subject struct {
	Value    string `json:"value,omitempty"`
	SourceID string `json:"sourceId,omitempty"`
	TypeID   string `json:"typeId,omitempty"`
}

// ElectronicAccess is a compound sub-object shared by items, holdings and
// instances.
type ElectronicAccess struct {
	URI                    string `json:"uri,omitempty"`
	LinkText               string `json:"linkText,omitempty"`
	MaterialsSpecification string `json:"materialsSpecification,omitempty"`
	PublicNote             string `json:"publicNote,omitempty"`
	RelationshipID         string `json:"relationshipId,omitempty"`
}

// Note is a typed note attached to a catalog record. TenantID is set only in
// consortial contexts where the record came from a member tenant.
type Note struct {
	NoteTypeID   string `json:"noteTypeId,omitempty"`
	NoteTypeName string `json:"noteTypeName,omitempty"`
	Value        string `json:"note,omitempty"`
	StaffOnly    bool   `json:"staffOnly,omitempty"`
	TenantID     string `json:"tenantId,omitempty"`
}

// NoteType is a catalog note-type definition, optionally tenant-scoped.
type NoteType struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TenantID string `json:"tenantId,omitempty"`
}

// Personal holds the name fields of a user record.
type Personal struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
}

// User is a library patron or staff record.
type User struct {
	ID               string   `json:"id"`
	Username         string   `json:"username,omitempty"`
	Barcode          string   `json:"barcode,omitempty"`
	ExternalSystemID string   `json:"externalSystemId,omitempty"`
	Active           bool     `json:"active"`
	PatronGroup      string   `json:"patronGroup,omitempty"`
	Personal         Personal `json:"personal,omitempty"`
	ExpirationDate   string   `json:"expirationDate,omitempty"`
}

// Item is a physical or electronic item record.
type Item struct {
	ID               string             `json:"id"`
	HRID             string             `json:"hrid,omitempty"`
	Barcode          string             `json:"barcode,omitempty"`
	HoldingsRecordID string             `json:"holdingsRecordId,omitempty"`
	Status           string             `json:"status,omitempty"`
	AccessionNumber  string             `json:"accessionNumber,omitempty"`
	ElectronicAccess []ElectronicAccess `json:"electronicAccess,omitempty"`
	Notes            []Note             `json:"notes,omitempty"`
	TenantID         string             `json:"tenantId,omitempty"`
}

// HoldingsRecord ties items to an instance at a location.
type HoldingsRecord struct {
	ID                  string             `json:"id"`
	HRID                string             `json:"hrid,omitempty"`
	InstanceID          string             `json:"instanceId,omitempty"`
	PermanentLocationID string             `json:"permanentLocationId,omitempty"`
	ElectronicAccess    []ElectronicAccess `json:"electronicAccess,omitempty"`
	Notes               []Note             `json:"notes,omitempty"`
	SourceID            string             `json:"sourceId,omitempty"`
	TenantID            string             `json:"tenantId,omitempty"`
}

// Instance is a bibliographic instance record. Source distinguishes
// catalog-native instances from MARC-backed ones.
type Instance struct {
	ID               string             `json:"id"`
	HRID             string             `json:"hrid,omitempty"`
	Title            string             `json:"title,omitempty"`
	Source           string             `json:"source,omitempty"`
	Classifications  []Classification   `json:"classifications,omitempty"`
	Publications     []Publication      `json:"publication,omitempty"`
	Subjects         []Subject          `json:"subjects,omitempty"`
	ElectronicAccess []ElectronicAccess `json:"electronicAccess,omitempty"`
	Notes            []Note             `json:"administrativeNotes,omitempty"`
	TenantID         string             `json:"tenantId,omitempty"`
}

// Identifier returns the item's business identifier of the given type,
// falling back to the uuid when the type is not carried by items.
func (i *Item) Identifier(identifierType IdentifierType) string {
	switch identifierType {
	case IdentifierTypeBarcode:
		return i.Barcode
	case IdentifierTypeHrid:
		return i.HRID
	case IdentifierTypeAccessionNumber:
		return i.AccessionNumber
	default:
		return i.ID
	}
}

// Identifier returns the user's business identifier of the given type.
func (u *User) Identifier(identifierType IdentifierType) string {
	switch identifierType {
	case IdentifierTypeBarcode:
		return u.Barcode
	case IdentifierTypeUsername:
		return u.Username
	case IdentifierTypeExternalID:
		return u.ExternalSystemID
	default:
		return u.ID
	}
}

// Identifier returns the holdings record's business identifier of the given type.
func (h *HoldingsRecord) Identifier(identifierType IdentifierType) string {
	if identifierType == IdentifierTypeHrid {
		return h.HRID
	}
	return h.ID
}

// Identifier returns the instance's business identifier of the given type.
func (i *Instance) Identifier(identifierType IdentifierType) string {
	if identifierType == IdentifierTypeHrid {
		return i.HRID
	}
	return i.ID
}
