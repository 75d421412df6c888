// Package gorm implements the domain repository contracts on top of a GORM
// connection. The operation repository enforces optimistic locking: updates
// compare-and-swap on the aggregate version and report a conflict when no
// row matched.
package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	gormlib "gorm.io/gorm"

	"github.com/opencatalog/bulkops/pkg/bulkops/adapter/database"
	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	"github.com/opencatalog/bulkops/pkg/bulkops/core/domain/repository"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/exception"
)

// OperationRepository implements repository.OperationRepository.
type OperationRepository struct {
	conn *database.Connection
}

// NewOperationRepository creates an OperationRepository on the given connection.
func NewOperationRepository(conn *database.Connection) repository.OperationRepository {
	return &OperationRepository{conn: conn}
}

func (r *OperationRepository) Save(ctx context.Context, op *model.BulkOperation) error {
	const scope = "OperationRepository.Save"
	entity := fromDomainOperation(op)
	if err := r.conn.DB().WithContext(ctx).Create(entity).Error; err != nil {
		return exception.NewBatchError(scope, fmt.Sprintf("failed to save bulk operation (ID: %s)", op.ID), err, false, true)
	}
	return nil
}

func (r *OperationRepository) Update(ctx context.Context, op *model.BulkOperation) error {
	const scope = "OperationRepository.Update"

	originalVersion := op.Version
	op.Version++
	entity := fromDomainOperation(op)

	// Select("*") forces zero-valued columns (reset counters, cleared links)
	// to be written as well.
	result := r.conn.DB().WithContext(ctx).
		Model(&BulkOperationEntity{}).
		Where("id = ? AND version = ?", op.ID, originalVersion).
		Select("*").
		Updates(entity)
	if result.Error != nil {
		op.Version = originalVersion
		return exception.NewBatchError(scope, fmt.Sprintf("failed to update bulk operation (ID: %s)", op.ID), result.Error, false, true)
	}
	if result.RowsAffected == 0 {
		op.Version = originalVersion
		return exception.NewOptimisticLockingFailureException("repository", fmt.Sprintf("bulk operation (ID: %s) with version %d not found for update", op.ID, originalVersion), nil)
	}
	return nil
}

func (r *OperationRepository) FindByID(ctx context.Context, id string) (*model.BulkOperation, error) {
	const scope = "OperationRepository.FindByID"
	var entity BulkOperationEntity
	err := r.conn.DB().WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, exception.NewBatchError(scope, fmt.Sprintf("failed to find bulk operation by ID: %s", id), err, false, true)
	}
	return toDomainOperation(&entity), nil
}

func (r *OperationRepository) FindByExportJobID(ctx context.Context, jobID string) (*model.BulkOperation, error) {
	const scope = "OperationRepository.FindByExportJobID"
	var entity BulkOperationEntity
	err := r.conn.DB().WithContext(ctx).Where("data_export_job_id = ?", jobID).First(&entity).Error
	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, exception.NewBatchError(scope, fmt.Sprintf("failed to find bulk operation by export job ID: %s", jobID), err, false, true)
	}
	return toDomainOperation(&entity), nil
}

func (r *OperationRepository) FindExpirable(ctx context.Context, olderThan time.Time) ([]*model.BulkOperation, error) {
	const scope = "OperationRepository.FindExpirable"
	var entities []BulkOperationEntity
	err := r.conn.DB().WithContext(ctx).
		Where("is_expired = ?", false).
		Where("COALESCE(end_time, start_time) < ?", olderThan).
		Find(&entities).Error
	if err != nil {
		return nil, exception.NewBatchError(scope, "failed to find expirable bulk operations", err, false, true)
	}

	ops := make([]*model.BulkOperation, len(entities))
	for i := range entities {
		ops[i] = toDomainOperation(&entities[i])
	}
	return ops, nil
}

var _ repository.OperationRepository = (*OperationRepository)(nil)

// ContentRepository implements repository.ContentRepository.
type ContentRepository struct {
	conn *database.Connection
}

// NewContentRepository creates a ContentRepository on the given connection.
func NewContentRepository(conn *database.Connection) repository.ContentRepository {
	return &ContentRepository{conn: conn}
}

func (r *ContentRepository) Save(ctx context.Context, content *model.ExecutionContent) error {
	const scope = "ContentRepository.Save"
	entity := fromDomainContent(content)
	if err := r.conn.DB().WithContext(ctx).Create(entity).Error; err != nil {
		return exception.NewBatchError(scope, fmt.Sprintf("failed to save ledger row (identifier: %s)", content.Identifier), err, false, true)
	}
	return nil
}

func (r *ContentRepository) ExistsByOperationAndIdentifier(ctx context.Context, operationID, identifier string) (bool, error) {
	const scope = "ContentRepository.ExistsByOperationAndIdentifier"
	var count int64
	err := r.conn.DB().WithContext(ctx).
		Model(&ExecutionContentEntity{}).
		Where("bulk_operation_id = ? AND identifier = ?", operationID, identifier).
		Count(&count).Error
	if err != nil {
		return false, exception.NewBatchError(scope, "failed to check ledger rows", err, false, true)
	}
	return count > 0, nil
}

func (r *ContentRepository) ExistsExact(ctx context.Context, operationID, identifier, errorMessage string) (bool, error) {
	const scope = "ContentRepository.ExistsExact"
	var count int64
	err := r.conn.DB().WithContext(ctx).
		Model(&ExecutionContentEntity{}).
		Where("bulk_operation_id = ? AND identifier = ? AND error_message = ?", operationID, identifier, errorMessage).
		Count(&count).Error
	if err != nil {
		return false, exception.NewBatchError(scope, "failed to check ledger rows", err, false, true)
	}
	return count > 0, nil
}

func (r *ContentRepository) FindByOperation(ctx context.Context, operationID string, offset, limit int) ([]*model.ExecutionContent, error) {
	const scope = "ContentRepository.FindByOperation"
	var entities []ExecutionContentEntity
	err := r.conn.DB().WithContext(ctx).
		Where("bulk_operation_id = ?", operationID).
		Order("created_at asc, id asc").
		Offset(offset).
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, exception.NewBatchError(scope, fmt.Sprintf("failed to find ledger rows of operation %s", operationID), err, false, true)
	}

	rows := make([]*model.ExecutionContent, len(entities))
	for i := range entities {
		rows[i] = toDomainContent(&entities[i])
	}
	return rows, nil
}

func (r *ContentRepository) CountByOperation(ctx context.Context, operationID string) (int64, error) {
	const scope = "ContentRepository.CountByOperation"
	var count int64
	err := r.conn.DB().WithContext(ctx).
		Model(&ExecutionContentEntity{}).
		Where("bulk_operation_id = ?", operationID).
		Count(&count).Error
	if err != nil {
		return 0, exception.NewBatchError(scope, fmt.Sprintf("failed to count ledger rows of operation %s", operationID), err, false, true)
	}
	return count, nil
}

func (r *ContentRepository) DeleteByOperation(ctx context.Context, operationID string) error {
	const scope = "ContentRepository.DeleteByOperation"
	err := r.conn.DB().WithContext(ctx).
		Where("bulk_operation_id = ?", operationID).
		Delete(&ExecutionContentEntity{}).Error
	if err != nil {
		return exception.NewBatchError(scope, fmt.Sprintf("failed to delete ledger rows of operation %s", operationID), err, false, true)
	}
	return nil
}

var _ repository.ContentRepository = (*ContentRepository)(nil)

// ExecutionRepository implements repository.ExecutionRepository.
type ExecutionRepository struct {
	conn *database.Connection
}

// NewExecutionRepository creates an ExecutionRepository on the given connection.
func NewExecutionRepository(conn *database.Connection) repository.ExecutionRepository {
	return &ExecutionRepository{conn: conn}
}

func (r *ExecutionRepository) Save(ctx context.Context, execution *model.Execution) error {
	const scope = "ExecutionRepository.Save"
	entity := fromDomainExecution(execution)
	if err := r.conn.DB().WithContext(ctx).Create(entity).Error; err != nil {
		return exception.NewBatchError(scope, fmt.Sprintf("failed to save execution (ID: %s)", execution.ID), err, false, true)
	}
	return nil
}

func (r *ExecutionRepository) Update(ctx context.Context, execution *model.Execution) error {
	const scope = "ExecutionRepository.Update"
	entity := fromDomainExecution(execution)
	err := r.conn.DB().WithContext(ctx).
		Model(&ExecutionEntity{}).
		Where("id = ?", execution.ID).
		Select("*").
		Updates(entity).Error
	if err != nil {
		return exception.NewBatchError(scope, fmt.Sprintf("failed to update execution (ID: %s)", execution.ID), err, false, true)
	}
	return nil
}

func (r *ExecutionRepository) FindByOperation(ctx context.Context, operationID string) ([]*model.Execution, error) {
	const scope = "ExecutionRepository.FindByOperation"
	var entities []ExecutionEntity
	err := r.conn.DB().WithContext(ctx).
		Where("bulk_operation_id = ?", operationID).
		Order("start_time asc").
		Find(&entities).Error
	if err != nil {
		return nil, exception.NewBatchError(scope, fmt.Sprintf("failed to find executions of operation %s", operationID), err, false, true)
	}

	executions := make([]*model.Execution, len(entities))
	for i := range entities {
		executions[i] = toDomainExecution(&entities[i])
	}
	return executions, nil
}

var _ repository.ExecutionRepository = (*ExecutionRepository)(nil)

// RuleRepository implements repository.RuleRepository.
type RuleRepository struct {
	conn *database.Connection
}

// NewRuleRepository creates a RuleRepository on the given connection.
func NewRuleRepository(conn *database.Connection) repository.RuleRepository {
	return &RuleRepository{conn: conn}
}

func (r *RuleRepository) Save(ctx context.Context, rule *model.Rule) error {
	const scope = "RuleRepository.Save"
	entity := fromDomainRule(rule)
	if err := r.conn.DB().WithContext(ctx).Create(entity).Error; err != nil {
		return exception.NewBatchError(scope, fmt.Sprintf("failed to save rule (ID: %s)", rule.ID), err, false, true)
	}
	return nil
}

func (r *RuleRepository) SaveMarc(ctx context.Context, rule *model.MarcRule) error {
	const scope = "RuleRepository.SaveMarc"
	entity := fromDomainMarcRule(rule)
	if err := r.conn.DB().WithContext(ctx).Create(entity).Error; err != nil {
		return exception.NewBatchError(scope, fmt.Sprintf("failed to save MARC rule (ID: %s)", rule.ID), err, false, true)
	}
	return nil
}

func (r *RuleRepository) FindByOperation(ctx context.Context, operationID string) ([]*model.Rule, error) {
	const scope = "RuleRepository.FindByOperation"
	var entities []RuleEntity
	err := r.conn.DB().WithContext(ctx).
		Where("bulk_operation_id = ?", operationID).
		Find(&entities).Error
	if err != nil {
		return nil, exception.NewBatchError(scope, fmt.Sprintf("failed to find rules of operation %s", operationID), err, false, true)
	}

	rules := make([]*model.Rule, len(entities))
	for i := range entities {
		rules[i] = toDomainRule(&entities[i])
	}
	return rules, nil
}

func (r *RuleRepository) FindMarcByOperation(ctx context.Context, operationID string) ([]*model.MarcRule, error) {
	const scope = "RuleRepository.FindMarcByOperation"
	var entities []MarcRuleEntity
	err := r.conn.DB().WithContext(ctx).
		Where("bulk_operation_id = ?", operationID).
		Find(&entities).Error
	if err != nil {
		return nil, exception.NewBatchError(scope, fmt.Sprintf("failed to find MARC rules of operation %s", operationID), err, false, true)
	}

	rules := make([]*model.MarcRule, len(entities))
	for i := range entities {
		rules[i] = toDomainMarcRule(&entities[i])
	}
	return rules, nil
}

func (r *RuleRepository) DeleteByOperation(ctx context.Context, operationID string) error {
	const scope = "RuleRepository.DeleteByOperation"
	db := r.conn.DB().WithContext(ctx)
	if err := db.Where("bulk_operation_id = ?", operationID).Delete(&RuleEntity{}).Error; err != nil {
		return exception.NewBatchError(scope, fmt.Sprintf("failed to delete rules of operation %s", operationID), err, false, true)
	}
	if err := db.Where("bulk_operation_id = ?", operationID).Delete(&MarcRuleEntity{}).Error; err != nil {
		return exception.NewBatchError(scope, fmt.Sprintf("failed to delete MARC rules of operation %s", operationID), err, false, true)
	}
	return nil
}

var _ repository.RuleRepository = (*RuleRepository)(nil)
