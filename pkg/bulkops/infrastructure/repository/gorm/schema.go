package gorm

import (
	"time"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
)

// BulkOperationEntity is a schema model used for persistence.
type BulkOperationEntity struct {
	ID             string `gorm:"primaryKey"`
	EntityType     model.EntityType
	IdentifierType model.IdentifierType
	ApproachType   model.ApproachType

	Status       model.OperationStatus
	ErrorMessage string
	StartTime    time.Time
	EndTime      *time.Time

	TotalNumOfRecords      int
	MatchedNumOfRecords    int
	ProcessedNumOfRecords  int
	CommittedNumOfRecords  int
	CommittedNumOfErrors   int
	CommittedNumOfWarnings int

	LinkToTriggeringCsvFile             string
	LinkToMatchedRecordsCsvFile         string
	LinkToMatchedRecordsJsonFile        string
	LinkToMatchedRecordsMarcFile        string
	LinkToMatchedRecordsErrorsCsvFile   string
	LinkToModifiedRecordsCsvFile        string
	LinkToModifiedRecordsJsonFile       string
	LinkToModifiedRecordsMarcFile       string
	LinkToModifiedRecordsMarcCsvFile    string
	LinkToCommittedRecordsCsvFile       string
	LinkToCommittedRecordsJsonFile      string
	LinkToCommittedRecordsMarcFile      string
	LinkToCommittedRecordsMarcCsvFile   string
	LinkToCommittedRecordsErrorsCsvFile string
	LinkToPreviewRecordsJsonFile        string

	UsedTenants     model.StringSet       `gorm:"type:text"`
	TenantNotePairs model.TenantNotePairs `gorm:"type:text"`

	DataExportJobID string
	FqlQueryID      string

	IsExpired bool
	Version   int
}

func (BulkOperationEntity) TableName() string {
	return "bulk_operations"
}

// ExecutionContentEntity is a schema model used for persistence.
type ExecutionContentEntity struct {
	ID                 string `gorm:"primaryKey"`
	BulkOperationID    string
	Identifier         string
	State              model.StateType
	ErrorMessage       string
	UIErrorMessage     string
	LinkToFailedEntity string
	CreatedAt          time.Time
}

func (ExecutionContentEntity) TableName() string {
	return "bulk_operation_execution_contents"
}

// ExecutionEntity is a schema model used for persistence.
type ExecutionEntity struct {
	ID               string `gorm:"primaryKey"`
	BulkOperationID  string
	StartTime        time.Time
	EndTime          *time.Time
	ProcessedRecords int
	Status           model.ExecutionStatus
}

func (ExecutionEntity) TableName() string {
	return "bulk_operation_executions"
}

// RuleEntity is a schema model used for persistence.
type RuleEntity struct {
	ID              string `gorm:"primaryKey"`
	BulkOperationID string
	UpdateOption    model.UpdateOption
	Actions         model.Actions `gorm:"type:text"`
}

func (RuleEntity) TableName() string {
	return "bulk_operation_rules"
}

// MarcRuleEntity is a schema model used for persistence.
type MarcRuleEntity struct {
	ID              string `gorm:"primaryKey"`
	BulkOperationID string
	Tag             string
	Ind1            string
	Ind2            string
	Subfield        string
	Actions         model.Actions `gorm:"type:text"`
}

func (MarcRuleEntity) TableName() string {
	return "bulk_operation_marc_rules"
}
