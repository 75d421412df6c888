package gorm_test

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	gormpostgres "gorm.io/driver/postgres"
	gormlib "gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/opencatalog/bulkops/pkg/bulkops/adapter/database"
	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	gormrepo "github.com/opencatalog/bulkops/pkg/bulkops/infrastructure/repository/gorm"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/exception"
)

// setupMockDB wires gorm onto a sqlmock connection so the exact SQL issued
// by a repository method can be asserted.
func setupMockDB(t *testing.T) (*database.Connection, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	assert.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gormlib.Open(gormpostgres.New(gormpostgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gormlib.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	assert.NoError(t, err)

	return database.NewConnection(db, "postgres", "metadata"), mock
}

// The SQLite round-trip tests prove the locking semantics; this one pins the
// SQL shape, i.e. that Update compare-and-swaps on the version column in a
// single statement rather than read-then-write.
func TestOperationUpdateIssuesVersionGuardedUpdate(t *testing.T) {
	conn, mock := setupMockDB(t)
	repo := gormrepo.NewOperationRepository(conn)

	op := model.NewBulkOperation(model.EntityTypeItem, model.IdentifierTypeBarcode, model.ApproachManual)
	op.Version = 3

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bulk_operations" SET .+ WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), op)

	assert.NoError(t, err)
	assert.Equal(t, 4, op.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOperationUpdateStaleVersionReportsConflict(t *testing.T) {
	conn, mock := setupMockDB(t)
	repo := gormrepo.NewOperationRepository(conn)

	op := model.NewBulkOperation(model.EntityTypeItem, model.IdentifierTypeBarcode, model.ApproachManual)
	op.Version = 3

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bulk_operations" SET .+ WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), op)

	assert.ErrorIs(t, err, exception.ErrOptimisticLockingFailure)
	assert.Equal(t, 3, op.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
