// Package repository defines the persistence contracts for the bulk
// operations domain. Implementations live under infrastructure/repository.
package repository

import (
	"context"
	"errors"
	"time"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
)

// ErrNotFound is returned when a requested aggregate does not exist.
var ErrNotFound = errors.New("record not found")

// OperationRepository persists BulkOperation aggregates. Every state
// transition goes through a load-mutate-persist cycle against this
// interface; Update enforces optimistic locking on the aggregate version.
type OperationRepository interface {
	Save(ctx context.Context, op *model.BulkOperation) error
	Update(ctx context.Context, op *model.BulkOperation) error
	FindByID(ctx context.Context, id string) (*model.BulkOperation, error)
	// FindByExportJobID returns the operation correlated with the given
	// external export job.
	FindByExportJobID(ctx context.Context, jobID string) (*model.BulkOperation, error)
	// FindExpirable returns non-expired operations whose end time (or start
	// time, when the operation never ended) is older than the threshold.
	FindExpirable(ctx context.Context, olderThan time.Time) ([]*model.BulkOperation, error)
}

// ContentRepository persists the append-only per-record outcome ledger.
type ContentRepository interface {
	Save(ctx context.Context, content *model.ExecutionContent) error
	// ExistsByOperationAndIdentifier reports whether any ledger row exists
	// for the (operation, identifier) pair regardless of message.
	ExistsByOperationAndIdentifier(ctx context.Context, operationID, identifier string) (bool, error)
	// ExistsExact reports whether a ledger row exists matching operation,
	// identifier and error message exactly.
	ExistsExact(ctx context.Context, operationID, identifier, errorMessage string) (bool, error)
	// FindByOperation lists ledger rows for an operation ordered by
	// insertion time, paginated by offset/limit.
	FindByOperation(ctx context.Context, operationID string, offset, limit int) ([]*model.ExecutionContent, error)
	CountByOperation(ctx context.Context, operationID string) (int64, error)
	// DeleteByOperation bulk-deletes all ledger rows of an operation. Used
	// only when an operation's errors are reset.
	DeleteByOperation(ctx context.Context, operationID string) error
}

// ExecutionRepository persists MARC commit sub-job trackers.
type ExecutionRepository interface {
	Save(ctx context.Context, execution *model.Execution) error
	Update(ctx context.Context, execution *model.Execution) error
	FindByOperation(ctx context.Context, operationID string) ([]*model.Execution, error)
}

// RuleRepository persists declarative update rules.
type RuleRepository interface {
	Save(ctx context.Context, rule *model.Rule) error
	SaveMarc(ctx context.Context, rule *model.MarcRule) error
	FindByOperation(ctx context.Context, operationID string) ([]*model.Rule, error)
	FindMarcByOperation(ctx context.Context, operationID string) ([]*model.MarcRule, error)
	DeleteByOperation(ctx context.Context, operationID string) error
}
