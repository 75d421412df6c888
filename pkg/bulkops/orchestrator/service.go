// Package orchestrator drives bulk operations through their state machine:
// submission, identifier upload or saved-query retrieval, staging, commit
// and retention cleanup. Every transition is persisted before the next
// stage runs.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/opencatalog/bulkops/pkg/bulkops/adapter/storage"
	"github.com/opencatalog/bulkops/pkg/bulkops/codec"
	config "github.com/opencatalog/bulkops/pkg/bulkops/core/config"
	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	"github.com/opencatalog/bulkops/pkg/bulkops/core/domain/repository"
	metrics "github.com/opencatalog/bulkops/pkg/bulkops/core/metrics"
	port "github.com/opencatalog/bulkops/pkg/bulkops/core/port"
	"github.com/opencatalog/bulkops/pkg/bulkops/ledger"
	"github.com/opencatalog/bulkops/pkg/bulkops/preview"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/exception"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

const moduleName = "orchestrator"

// Service orchestrates the lifecycle of bulk operations.
type Service struct {
	cfg         config.PipelineConfig
	operations  repository.OperationRepository
	executions  repository.ExecutionRepository
	rules       repository.RuleRepository
	store       storage.ArtifactStore
	ledger      *ledger.Service
	exports     port.DataExportClient
	queries     port.QueryClient
	sources     port.SourceRecordClient
	permissions port.PermissionChecker
	recorder    metrics.MetricRecorder
	transposer  *preview.Transposer
	codec       *codec.Codec
	validate    *validator.Validate
	now         func() time.Time
}

// NewService creates the orchestrator Service.
func NewService(
	cfg *config.PipelineConfig,
	operations repository.OperationRepository,
	executions repository.ExecutionRepository,
	rules repository.RuleRepository,
	store storage.ArtifactStore,
	ledgerService *ledger.Service,
	exports port.DataExportClient,
	queries port.QueryClient,
	sources port.SourceRecordClient,
	permissions port.PermissionChecker,
	resolver port.ReferenceResolver,
	recorder metrics.MetricRecorder,
) *Service {
	return &Service{
		cfg:         *cfg,
		operations:  operations,
		executions:  executions,
		rules:       rules,
		store:       store,
		ledger:      ledgerService,
		exports:     exports,
		queries:     queries,
		sources:     sources,
		permissions: permissions,
		recorder:    recorder,
		transposer:  preview.NewTransposer(resolver),
		codec:       codec.New(resolver),
		validate:    validator.New(),
		now:         time.Now,
	}
}

// Submission is the request payload creating a new bulk operation.
type Submission struct {
	EntityType     model.EntityType     `json:"entityType" validate:"required,oneof=USER ITEM HOLDINGS_RECORD INSTANCE INSTANCE_MARC"`
	IdentifierType model.IdentifierType `json:"identifierType" validate:"required,oneof=ID BARCODE HRID USER_NAME EXTERNAL_SYSTEM_ID ACCESSION_NUMBER ISBN ISSN"`
	ApproachType   model.ApproachType   `json:"approachType" validate:"required,oneof=MANUAL QUERY"`
	// QueryID names the saved query to execute; required for QUERY submissions.
	QueryID string `json:"queryId,omitempty" validate:"required_if=ApproachType QUERY"`
	// Tenants lists the member tenants a consortial operation spans.
	Tenants []string `json:"tenants,omitempty"`
}

// Create validates a submission and persists a new operation in the NEW
// state.
func (s *Service) Create(ctx context.Context, submission Submission) (*model.BulkOperation, error) {
	if err := s.validate.Struct(submission); err != nil {
		return nil, exception.NewBatchError(moduleName, "invalid bulk operation submission", err, false, false)
	}

	op := model.NewBulkOperation(submission.EntityType, submission.IdentifierType, submission.ApproachType)
	op.FqlQueryID = submission.QueryID
	op.UsedTenants = model.StringSet(submission.Tenants)

	if err := s.operations.Save(ctx, op); err != nil {
		return nil, err
	}
	s.recorder.RecordOperationStart(ctx, op)
	logger.Infof("Created bulk operation %s (%s/%s, approach %s).", op.ID, op.EntityType, op.IdentifierType, op.ApproachType)
	return op, nil
}

// SaveRules replaces the declarative update rules of an operation. Saving
// rules discards any previous review: the ledger is reset so a rerun starts
// from clean counters.
func (s *Service) SaveRules(ctx context.Context, operationID string, updateRules []*model.Rule, marcRules []*model.MarcRule) error {
	op, err := s.operations.FindByID(ctx, operationID)
	if err != nil {
		return err
	}
	if op.Status.IsTerminal() {
		return exception.NewBatchError(moduleName, fmt.Sprintf("cannot save rules for operation '%s' in terminal state %s", op.ID, op.Status), nil, false, false)
	}

	if err := s.rules.DeleteByOperation(ctx, operationID); err != nil {
		return err
	}
	for _, rule := range updateRules {
		rule.BulkOperationID = operationID
		if err := s.rules.Save(ctx, rule); err != nil {
			return err
		}
	}
	for _, rule := range marcRules {
		rule.BulkOperationID = operationID
		if err := s.rules.SaveMarc(ctx, rule); err != nil {
			return err
		}
	}
	return s.ledger.Reset(ctx, op)
}

// Cancel cancels a non-terminal operation with the given reason.
func (s *Service) Cancel(ctx context.Context, operationID, reason string) error {
	op, err := s.operations.FindByID(ctx, operationID)
	if err != nil {
		return err
	}
	if op.Status.IsTerminal() {
		return nil
	}
	op.Cancel(reason)
	if err := s.operations.Update(ctx, op); err != nil {
		return err
	}
	s.recorder.RecordOperationEnd(ctx, op)
	return nil
}

// Get returns the operation by id.
func (s *Service) Get(ctx context.Context, operationID string) (*model.BulkOperation, error) {
	return s.operations.FindByID(ctx, operationID)
}

// transition moves the operation into the given status and persists it.
func (s *Service) transition(ctx context.Context, op *model.BulkOperation, status model.OperationStatus) error {
	from := op.Status
	if err := op.TransitionTo(status); err != nil {
		return exception.NewBatchError(moduleName, fmt.Sprintf("illegal transition for operation '%s'", op.ID), err, false, false)
	}
	if err := s.operations.Update(ctx, op); err != nil {
		return err
	}
	s.recorder.RecordStageTransition(ctx, op, from, status)
	if status.IsTerminal() {
		s.recorder.RecordOperationEnd(ctx, op)
	}
	return nil
}

// fail moves the operation to FAILED with the given message and persists it.
// A version conflict means ledger writes bumped the aggregate since it was
// loaded; the fresh copy is failed instead. Any other persistence failure is
// logged, not returned: the caller's original error matters more.
func (s *Service) fail(ctx context.Context, op *model.BulkOperation, message string) {
	op.Fail(message)
	err := s.operations.Update(ctx, op)
	if errors.Is(err, exception.ErrOptimisticLockingFailure) {
		fresh, findErr := s.operations.FindByID(ctx, op.ID)
		if findErr != nil {
			logger.Errorf("Failed to reload operation %s for failure marking: %v", op.ID, findErr)
			return
		}
		fresh.Fail(message)
		*op = *fresh
		err = s.operations.Update(ctx, op)
	}
	if err != nil {
		logger.Errorf("Failed to persist FAILED state of operation %s: %v", op.ID, err)
		return
	}
	s.recorder.RecordOperationEnd(ctx, op)
}
