package marc

import (
	"context"
	"io"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	"github.com/opencatalog/bulkops/pkg/bulkops/core/domain/repository"
	port "github.com/opencatalog/bulkops/pkg/bulkops/core/port"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

// Fetcher pulls committed MARC content for instance ids from the source
// record store in fixed-size chunks, converting each chunk's JSON-MARC
// representation to binary MARC. It is used when records are sourced by
// query rather than by direct identifier upload.
type Fetcher struct {
	client     port.SourceRecordClient
	operations repository.OperationRepository
	chunkSize  int
}

// NewFetcher creates a Fetcher requesting chunkSize records per remote call.
func NewFetcher(client port.SourceRecordClient, operations repository.OperationRepository, chunkSize int) *Fetcher {
	if chunkSize <= 0 {
		chunkSize = 100
	}
	return &Fetcher{client: client, operations: operations, chunkSize: chunkSize}
}

// FetchCommitted writes the MARC records of the given instance ids to the
// output stream and updates the parent operation's processed-record counter
// after each chunk, bounding memory to one chunk's records. An error on an
// individual chunk aborts the loop but leaves the counters reflecting the
// progress already made.
func (f *Fetcher) FetchCommitted(ctx context.Context, op *model.BulkOperation, instanceIDs []string, out io.Writer) error {
	writer := NewWriter(out)

	for start := 0; start < len(instanceIDs); start += f.chunkSize {
		end := start + f.chunkSize
		if end > len(instanceIDs) {
			end = len(instanceIDs)
		}
		chunk := instanceIDs[start:end]

		records, err := f.client.RecordsByInstanceIDs(ctx, chunk)
		if err != nil {
			logger.Errorf("Failed to fetch source records for operation %s (chunk %d-%d): %v", op.ID, start, end, err)
			return err
		}

		for _, source := range records {
			record, err := FromJSON(source.ParsedRecord)
			if err != nil {
				logger.Errorf("Failed to convert source record %s for operation %s: %v", source.InstanceID, op.ID, err)
				return err
			}
			if err := writer.Write(record); err != nil {
				logger.Errorf("Failed to write MARC record %s for operation %s: %v", source.InstanceID, op.ID, err)
				return err
			}
		}

		op.ProcessedNumOfRecords += len(records)
		if err := f.operations.Update(ctx, op); err != nil {
			return err
		}
	}
	return nil
}
