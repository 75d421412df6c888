package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// UpdateOption names the field a rule updates (e.g., "PERMANENT_LOCATION",
// "STATUS", "SUPPRESS_FROM_DISCOVERY"). The value set is owned by the
// modification stage; this service persists rules verbatim.
type UpdateOption string

// UpdateAction names a single operation a rule performs on a field.
type UpdateAction string

const (
	ActionAddToExisting         UpdateAction = "ADD_TO_EXISTING"
	ActionClearField            UpdateAction = "CLEAR_FIELD"
	ActionFindAndRemove         UpdateAction = "FIND_AND_REMOVE_THESE"
	ActionFindAndReplace        UpdateAction = "FIND_AND_REPLACE"
	ActionReplaceWith           UpdateAction = "REPLACE_WITH"
	ActionSetToTrue             UpdateAction = "SET_TO_TRUE"
	ActionSetToFalse            UpdateAction = "SET_TO_FALSE"
	ActionMarkAsStaffOnly       UpdateAction = "MARK_AS_STAFF_ONLY"
	ActionRemoveMarkAsStaffOnly UpdateAction = "REMOVE_MARK_AS_STAFF_ONLY"
	ActionChangeNoteType        UpdateAction = "CHANGE_NOTE_TYPE"
	ActionDuplicate             UpdateAction = "DUPLICATE"
)

// Action is one step of a rule: what to do, the value to look for, and the
// value to apply.
type Action struct {
	Type         UpdateAction `json:"type"`
	Initial      string       `json:"initial,omitempty"`
	Updated      string       `json:"updated,omitempty"`
	// Tenants optionally scopes the action to specific member tenants.
	Tenants []string `json:"tenants,omitempty"`
}

// Actions is the ordered action list of a rule, stored as JSON.
type Actions []Action

// Value implements driver.Valuer.
func (a Actions) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (a *Actions) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported type for Actions: %T", value)
	}
	return json.Unmarshal(b, a)
}

// RuleDetails carries the actions applied for one update option.
type RuleDetails struct {
	Option  UpdateOption `json:"option"`
	Actions Actions      `json:"actions"`
}

// Rule is one persisted declarative update instruction of a bulk operation.
// Rules are consumed by the modification stage; this core owns and persists
// them.
type Rule struct {
	ID              string
	BulkOperationID string
	UpdateOption    UpdateOption
	Actions         Actions
}

// NewRule creates a rule bound to the given operation.
func NewRule(operationID string, option UpdateOption, actions Actions) *Rule {
	return &Rule{
		ID:              uuid.NewString(),
		BulkOperationID: operationID,
		UpdateOption:    option,
		Actions:         actions,
	}
}

// MarcRule is a persisted declarative update instruction targeting MARC
// fields directly: a tag/indicator address plus subfield-level actions.
type MarcRule struct {
	ID              string
	BulkOperationID string
	Tag             string
	Ind1            string
	Ind2            string
	Subfield        string
	Actions         Actions
}

// NewMarcRule creates a MARC rule bound to the given operation.
func NewMarcRule(operationID, tag, ind1, ind2, subfield string, actions Actions) *MarcRule {
	return &MarcRule{
		ID:              uuid.NewString(),
		BulkOperationID: operationID,
		Tag:             tag,
		Ind1:            ind1,
		Ind2:            ind2,
		Subfield:        subfield,
		Actions:         actions,
	}
}
