package preview

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/opencatalog/bulkops/pkg/bulkops/codec"
	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	port "github.com/opencatalog/bulkops/pkg/bulkops/core/port"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

// staffOnlySuffix is appended to note values flagged staff-only.
const staffOnlySuffix = " (staff only)"

// noteValueJoin joins multiple note values resolving to the same column.
const noteValueJoin = " | "

// headerNoteSuffix is appended to the displayed header of note types whose
// bare name would be ambiguous with unrelated columns.
const headerNoteSuffix = " note"

// suffixedNoteTypes is the fixed set of note-type names that always receive
// the " note" suffix in the displayed header.
var suffixedNoteTypes = map[string]bool{
	"Binding":              true,
	"Electronic bookplate": true,
	"Provenance":           true,
	"Reproduction":         true,
}

// Transposer expands the delimited notes column of a staged table into one
// column per distinct note type discovered across one or more tenants.
type Transposer struct {
	resolver port.ReferenceResolver
}

// NewTransposer creates a Transposer using the given reference resolver.
func NewTransposer(resolver port.ReferenceResolver) *Transposer {
	return &Transposer{resolver: resolver}
}

// noteColumn is one expanded column: the resolution key used to match
// tuples, and the displayed header value.
type noteColumn struct {
	key     string
	display string
}

// displayName applies the fixed " note" suffix to ambiguous note-type
// names. The tenant qualifier, when present, stays outside the suffix base.
func displayName(key string) string {
	base, qualifier := key, ""
	if idx := strings.LastIndex(key, " ("); idx > 0 && strings.HasSuffix(key, ")") {
		base, qualifier = key[:idx], key[idx:]
	}
	if suffixedNoteTypes[base] {
		return base + headerNoteSuffix + qualifier
	}
	return key
}

// Transpose replaces the notes column of the table in place: the single
// header becomes one header per note type (lexicographic order) and every
// row's delimited tuple list is distributed across the new columns. Column
// count grows by (note-type count - 1).
//
// In a consortial context where currentTenant is the central tenant, the
// note-type set is the union across every tenant referenced by the
// operation; names not shared by all referenced tenants are qualified with
// " (tenantId)". The tenant/name union is computed once per operation and
// cached on the aggregate, never recomputed while present.
func (t *Transposer) Transpose(ctx context.Context, table *Table, op *model.BulkOperation, currentTenant string, central bool, forceVisible map[string]bool) error {
	noteIdx := table.ColumnIndex("Notes")
	if noteIdx < 0 {
		return fmt.Errorf("table for operation %s has no notes column", op.ID)
	}

	columns, pairs, err := t.noteColumns(ctx, op, currentTenant, central)
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return nil
	}

	positions := make(map[string]int, len(columns))
	for i, col := range columns {
		positions[col.key] = i
	}

	// Names not shared by every referenced tenant; tuples from those tenants
	// resolve through the qualified "name (tenant)" combination.
	qualified := qualifiedNames(pairs, op.UsedTenants)

	original := table.Headers[noteIdx]
	expanded := make([]HeaderCell, 0, len(table.Headers)+len(columns)-1)
	expanded = append(expanded, table.Headers[:noteIdx]...)
	for _, col := range columns {
		expanded = append(expanded, HeaderCell{
			Value:        col.display,
			Visible:      original.Visible,
			ForceVisible: forceVisible[col.key] || forceVisible[col.display],
			DataType:     original.DataType,
		})
	}
	expanded = append(expanded, table.Headers[noteIdx+1:]...)
	table.Headers = expanded

	for rowIdx, row := range table.Rows {
		values := make([]string, len(columns))
		t.distributeTuples(row[noteIdx], positions, qualified, values)

		newRow := make([]string, 0, len(row)+len(columns)-1)
		newRow = append(newRow, row[:noteIdx]...)
		newRow = append(newRow, values...)
		newRow = append(newRow, row[noteIdx+1:]...)
		table.Rows[rowIdx] = newRow
	}
	return nil
}

// distributeTuples parses one row's delimited tuple list and appends each
// value into its resolved column. Tuples with unknown types or malformed
// arity are dropped; they represent note types no longer in the catalog.
func (t *Transposer) distributeTuples(cell string, positions map[string]int, qualified map[string]bool, values []string) {
	if cell == "" {
		return
	}
	for _, tuple := range strings.Split(cell, codec.ArrayDelimiter) {
		tokens := strings.Split(tuple, codec.FieldDelimiter)
		if len(tokens) != 3 && len(tokens) != 4 {
			continue
		}
		typeName := tokens[0]
		value := tokens[1]
		staffOnly := tokens[2] == "true"

		key := typeName
		if len(tokens) == 4 && tokens[3] != "" {
			withTenant := fmt.Sprintf("%s (%s)", typeName, tokens[3])
			if qualified[withTenant] {
				key = withTenant
			}
		}

		pos, ok := positions[key]
		if !ok {
			continue
		}
		if staffOnly {
			value += staffOnlySuffix
		}
		if values[pos] != "" {
			values[pos] += noteValueJoin + value
		} else {
			values[pos] = value
		}
	}
}

// noteColumns determines the sorted note-type column set and the cached
// tenant/name pairs backing it.
func (t *Transposer) noteColumns(ctx context.Context, op *model.BulkOperation, currentTenant string, central bool) ([]noteColumn, model.TenantNotePairs, error) {
	consortial := central && len(op.UsedTenants) > 0

	if !consortial {
		types, err := t.resolver.NoteTypes(ctx, currentTenant)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load note types for tenant %s: %w", currentTenant, err)
		}
		names := make([]string, 0, len(types))
		seen := make(map[string]bool)
		for _, nt := range types {
			if !seen[nt.Name] {
				seen[nt.Name] = true
				names = append(names, nt.Name)
			}
		}
		return buildColumns(names), nil, nil
	}

	pairs := op.TenantNotePairs
	if pairs == nil {
		var err error
		pairs, err = t.collectTenantNotePairs(ctx, op)
		if err != nil {
			return nil, nil, err
		}
		op.TenantNotePairs = pairs
	}

	names := resolveConsortialNames(pairs, op.UsedTenants)
	return buildColumns(names), pairs, nil
}

// collectTenantNotePairs unions the note-type catalogs of every tenant
// referenced by the operation.
func (t *Transposer) collectTenantNotePairs(ctx context.Context, op *model.BulkOperation) (model.TenantNotePairs, error) {
	var pairs model.TenantNotePairs
	for _, tenantID := range op.UsedTenants {
		types, err := t.resolver.NoteTypes(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to load note types for tenant %s: %w", tenantID, err)
		}
		for _, nt := range types {
			pairs = append(pairs, model.TenantNotePair{TenantID: tenantID, NoteType: nt.Name})
		}
	}
	logger.Debugf("Collected %d tenant note pairs for operation %s.", len(pairs), op.ID)
	return pairs, nil
}

// resolveConsortialNames derives the column name set from the tenant/name
// pairs: names present in every referenced tenant stay unqualified, all
// other occurrences are qualified per tenant.
func resolveConsortialNames(pairs model.TenantNotePairs, usedTenants model.StringSet) []string {
	tenantsByName := make(map[string]map[string]bool)
	for _, pair := range pairs {
		if tenantsByName[pair.NoteType] == nil {
			tenantsByName[pair.NoteType] = make(map[string]bool)
		}
		tenantsByName[pair.NoteType][pair.TenantID] = true
	}

	var names []string
	seen := make(map[string]bool)
	for _, pair := range pairs {
		name := pair.NoteType
		if len(tenantsByName[name]) != len(usedTenants) {
			name = fmt.Sprintf("%s (%s)", pair.NoteType, pair.TenantID)
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// qualifiedNames returns the set of known disambiguated "name (tenant)"
// combinations.
func qualifiedNames(pairs model.TenantNotePairs, usedTenants model.StringSet) map[string]bool {
	tenantsByName := make(map[string]map[string]bool)
	for _, pair := range pairs {
		if tenantsByName[pair.NoteType] == nil {
			tenantsByName[pair.NoteType] = make(map[string]bool)
		}
		tenantsByName[pair.NoteType][pair.TenantID] = true
	}

	qualified := make(map[string]bool)
	for _, pair := range pairs {
		if len(tenantsByName[pair.NoteType]) != len(usedTenants) {
			qualified[fmt.Sprintf("%s (%s)", pair.NoteType, pair.TenantID)] = true
		}
	}
	return qualified
}

// buildColumns sorts the resolved names and attaches display headers.
func buildColumns(names []string) []noteColumn {
	sort.Strings(names)
	columns := make([]noteColumn, 0, len(names))
	for _, name := range names {
		columns = append(columns, noteColumn{key: name, display: displayName(name)})
	}
	return columns
}
