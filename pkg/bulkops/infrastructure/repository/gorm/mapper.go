package gorm

import (
	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
)

// --- Mapper functions ---

func fromDomainOperation(op *model.BulkOperation) *BulkOperationEntity {
	if op == nil {
		return nil
	}
	return &BulkOperationEntity{
		ID:             op.ID,
		EntityType:     op.EntityType,
		IdentifierType: op.IdentifierType,
		ApproachType:   op.ApproachType,

		Status:       op.Status,
		ErrorMessage: op.ErrorMessage,
		StartTime:    op.StartTime,
		EndTime:      op.EndTime,

		TotalNumOfRecords:      op.TotalNumOfRecords,
		MatchedNumOfRecords:    op.MatchedNumOfRecords,
		ProcessedNumOfRecords:  op.ProcessedNumOfRecords,
		CommittedNumOfRecords:  op.CommittedNumOfRecords,
		CommittedNumOfErrors:   op.CommittedNumOfErrors,
		CommittedNumOfWarnings: op.CommittedNumOfWarnings,

		LinkToTriggeringCsvFile:             op.LinkToTriggeringCsvFile,
		LinkToMatchedRecordsCsvFile:         op.LinkToMatchedRecordsCsvFile,
		LinkToMatchedRecordsJsonFile:        op.LinkToMatchedRecordsJsonFile,
		LinkToMatchedRecordsMarcFile:        op.LinkToMatchedRecordsMarcFile,
		LinkToMatchedRecordsErrorsCsvFile:   op.LinkToMatchedRecordsErrorsCsvFile,
		LinkToModifiedRecordsCsvFile:        op.LinkToModifiedRecordsCsvFile,
		LinkToModifiedRecordsJsonFile:       op.LinkToModifiedRecordsJsonFile,
		LinkToModifiedRecordsMarcFile:       op.LinkToModifiedRecordsMarcFile,
		LinkToModifiedRecordsMarcCsvFile:    op.LinkToModifiedRecordsMarcCsvFile,
		LinkToCommittedRecordsCsvFile:       op.LinkToCommittedRecordsCsvFile,
		LinkToCommittedRecordsJsonFile:      op.LinkToCommittedRecordsJsonFile,
		LinkToCommittedRecordsMarcFile:      op.LinkToCommittedRecordsMarcFile,
		LinkToCommittedRecordsMarcCsvFile:   op.LinkToCommittedRecordsMarcCsvFile,
		LinkToCommittedRecordsErrorsCsvFile: op.LinkToCommittedRecordsErrorsCsvFile,
		LinkToPreviewRecordsJsonFile:        op.LinkToPreviewRecordsJsonFile,

		UsedTenants:     op.UsedTenants,
		TenantNotePairs: op.TenantNotePairs,

		DataExportJobID: op.DataExportJobID,
		FqlQueryID:      op.FqlQueryID,

		IsExpired: op.IsExpired,
		Version:   op.Version,
	}
}

func toDomainOperation(entity *BulkOperationEntity) *model.BulkOperation {
	if entity == nil {
		return nil
	}
	return &model.BulkOperation{
		ID:             entity.ID,
		EntityType:     entity.EntityType,
		IdentifierType: entity.IdentifierType,
		ApproachType:   entity.ApproachType,

		Status:       entity.Status,
		ErrorMessage: entity.ErrorMessage,
		StartTime:    entity.StartTime,
		EndTime:      entity.EndTime,

		TotalNumOfRecords:      entity.TotalNumOfRecords,
		MatchedNumOfRecords:    entity.MatchedNumOfRecords,
		ProcessedNumOfRecords:  entity.ProcessedNumOfRecords,
		CommittedNumOfRecords:  entity.CommittedNumOfRecords,
		CommittedNumOfErrors:   entity.CommittedNumOfErrors,
		CommittedNumOfWarnings: entity.CommittedNumOfWarnings,

		LinkToTriggeringCsvFile:             entity.LinkToTriggeringCsvFile,
		LinkToMatchedRecordsCsvFile:         entity.LinkToMatchedRecordsCsvFile,
		LinkToMatchedRecordsJsonFile:        entity.LinkToMatchedRecordsJsonFile,
		LinkToMatchedRecordsMarcFile:        entity.LinkToMatchedRecordsMarcFile,
		LinkToMatchedRecordsErrorsCsvFile:   entity.LinkToMatchedRecordsErrorsCsvFile,
		LinkToModifiedRecordsCsvFile:        entity.LinkToModifiedRecordsCsvFile,
		LinkToModifiedRecordsJsonFile:       entity.LinkToModifiedRecordsJsonFile,
		LinkToModifiedRecordsMarcFile:       entity.LinkToModifiedRecordsMarcFile,
		LinkToModifiedRecordsMarcCsvFile:    entity.LinkToModifiedRecordsMarcCsvFile,
		LinkToCommittedRecordsCsvFile:       entity.LinkToCommittedRecordsCsvFile,
		LinkToCommittedRecordsJsonFile:      entity.LinkToCommittedRecordsJsonFile,
		LinkToCommittedRecordsMarcFile:      entity.LinkToCommittedRecordsMarcFile,
		LinkToCommittedRecordsMarcCsvFile:   entity.LinkToCommittedRecordsMarcCsvFile,
		LinkToCommittedRecordsErrorsCsvFile: entity.LinkToCommittedRecordsErrorsCsvFile,
		LinkToPreviewRecordsJsonFile:        entity.LinkToPreviewRecordsJsonFile,

		UsedTenants:     entity.UsedTenants,
		TenantNotePairs: entity.TenantNotePairs,

		DataExportJobID: entity.DataExportJobID,
		FqlQueryID:      entity.FqlQueryID,

		IsExpired: entity.IsExpired,
		Version:   entity.Version,
	}
}

func fromDomainContent(c *model.ExecutionContent) *ExecutionContentEntity {
	if c == nil {
		return nil
	}
	return &ExecutionContentEntity{
		ID:                 c.ID,
		BulkOperationID:    c.BulkOperationID,
		Identifier:         c.Identifier,
		State:              c.State,
		ErrorMessage:       c.ErrorMessage,
		UIErrorMessage:     c.UIErrorMessage,
		LinkToFailedEntity: c.LinkToFailedEntity,
		CreatedAt:          c.CreatedAt,
	}
}

func toDomainContent(entity *ExecutionContentEntity) *model.ExecutionContent {
	if entity == nil {
		return nil
	}
	return &model.ExecutionContent{
		ID:                 entity.ID,
		BulkOperationID:    entity.BulkOperationID,
		Identifier:         entity.Identifier,
		State:              entity.State,
		ErrorMessage:       entity.ErrorMessage,
		UIErrorMessage:     entity.UIErrorMessage,
		LinkToFailedEntity: entity.LinkToFailedEntity,
		CreatedAt:          entity.CreatedAt,
	}
}

func fromDomainExecution(e *model.Execution) *ExecutionEntity {
	if e == nil {
		return nil
	}
	return &ExecutionEntity{
		ID:               e.ID,
		BulkOperationID:  e.BulkOperationID,
		StartTime:        e.StartTime,
		EndTime:          e.EndTime,
		ProcessedRecords: e.ProcessedRecords,
		Status:           e.Status,
	}
}

func toDomainExecution(entity *ExecutionEntity) *model.Execution {
	if entity == nil {
		return nil
	}
	return &model.Execution{
		ID:               entity.ID,
		BulkOperationID:  entity.BulkOperationID,
		StartTime:        entity.StartTime,
		EndTime:          entity.EndTime,
		ProcessedRecords: entity.ProcessedRecords,
		Status:           entity.Status,
	}
}

func fromDomainRule(r *model.Rule) *RuleEntity {
	if r == nil {
		return nil
	}
	return &RuleEntity{
		ID:              r.ID,
		BulkOperationID: r.BulkOperationID,
		UpdateOption:    r.UpdateOption,
		Actions:         r.Actions,
	}
}

func toDomainRule(entity *RuleEntity) *model.Rule {
	if entity == nil {
		return nil
	}
	return &model.Rule{
		ID:              entity.ID,
		BulkOperationID: entity.BulkOperationID,
		UpdateOption:    entity.UpdateOption,
		Actions:         entity.Actions,
	}
}

func fromDomainMarcRule(r *model.MarcRule) *MarcRuleEntity {
	if r == nil {
		return nil
	}
	return &MarcRuleEntity{
		ID:              r.ID,
		BulkOperationID: r.BulkOperationID,
		Tag:             r.Tag,
		Ind1:            r.Ind1,
		Ind2:            r.Ind2,
		Subfield:        r.Subfield,
		Actions:         r.Actions,
	}
}

func toDomainMarcRule(entity *MarcRuleEntity) *model.MarcRule {
	if entity == nil {
		return nil
	}
	return &model.MarcRule{
		ID:              entity.ID,
		BulkOperationID: entity.BulkOperationID,
		Tag:             entity.Tag,
		Ind1:            entity.Ind1,
		Ind2:            entity.Ind2,
		Subfield:        entity.Subfield,
		Actions:         entity.Actions,
	}
}
