package marc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

// OutcomeLedger is the slice of the error ledger the differ needs: it
// records per-record outcomes without aborting the stream.
type OutcomeLedger interface {
	Record(ctx context.Context, operationID, identifier, errorMessage, uiErrorMessage, link string) error
}

// Differ pairs matched (pre-edit) and modified (post-edit) MARC records
// position-by-position and decides which records the commit must rewrite.
type Differ struct {
	ledger OutcomeLedger
	now    func() time.Time
}

// NewDiffer creates a Differ recording outcomes through the given ledger.
func NewDiffer(ledger OutcomeLedger) *Differ {
	return &Differ{ledger: ledger, now: time.Now}
}

// Diff reads one record from each stream in lock-step. Byte-identical pairs
// require no material change: a "no change required" outcome is recorded
// against the record's business identifier and nothing is written. Changed
// records get their 005 control field stamped with the current timestamp
// and are appended to the output stream. The streams are read until either
// is exhausted; unequal lengths violate the caller contract and are logged.
// Diff returns the number of records written.
func (d *Differ) Diff(ctx context.Context, op *model.BulkOperation, matched, modified io.Reader, out io.Writer) (int, error) {
	matchedReader := NewReader(matched)
	modifiedReader := NewReader(modified)
	writer := NewWriter(out)

	written := 0
	for {
		matchedRec, matchedErr := matchedReader.Next()
		modifiedRec, modifiedErr := modifiedReader.Next()

		if errors.Is(matchedErr, io.EOF) || errors.Is(modifiedErr, io.EOF) {
			if errors.Is(matchedErr, io.EOF) != errors.Is(modifiedErr, io.EOF) {
				logger.Errorf("Matched and modified MARC streams for operation %s have unequal lengths.", op.ID)
			}
			return written, nil
		}
		if matchedErr != nil {
			return written, matchedErr
		}
		if modifiedErr != nil {
			return written, modifiedErr
		}

		matchedBytes, err := Serialize(matchedRec)
		if err != nil {
			return written, err
		}
		modifiedBytes, err := Serialize(modifiedRec)
		if err != nil {
			return written, err
		}

		if bytes.Equal(matchedBytes, modifiedBytes) {
			identifier := recordIdentifier(modifiedRec, op.IdentifierType)
			if err := d.ledger.Record(ctx, op.ID, identifier, model.MsgNoChangeRequired, "", ""); err != nil {
				return written, err
			}
			continue
		}

		modifiedRec.StampUpdated(d.now())
		if err := writer.Write(modifiedRec); err != nil {
			return written, err
		}
		written++
	}
}

// recordIdentifier selects the business identifier recorded for a MARC
// record: the HRID from field 001 when the operation matches on HRIDs, the
// instance uuid from 999$i otherwise.
func recordIdentifier(record *Record, identifierType model.IdentifierType) string {
	if identifierType == model.IdentifierTypeHrid {
		return record.HRID()
	}
	return record.InstanceID()
}
