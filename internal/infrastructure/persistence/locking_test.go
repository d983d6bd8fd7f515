package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var balanceColumns = []string{"id", "company_id", "warehouse_id", "product_id", "qty", "updated_at"}

func TestStockLedgerRepository_LockBalance_SQL(t *testing.T) {
	companyID, warehouseID, productID := uuid.New(), uuid.New(), uuid.New()
	selectForUpdate := `SELECT \* FROM "stock_balances" WHERE warehouse_id = \$1 AND product_id = \$2 ORDER BY "stock_balances"."id" LIMIT \$3 FOR UPDATE`

	t.Run("existing row is locked", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormStockLedgerRepository(db.DB)

		id := uuid.New()
		mock.ExpectQuery(selectForUpdate).
			WillReturnRows(sqlmock.NewRows(balanceColumns).
				AddRow(id.String(), companyID.String(), warehouseID.String(), productID.String(), "12.500", time.Now()))

		bal, err := repo.LockBalance(context.Background(), companyID, warehouseID, productID)
		require.NoError(t, err)
		assert.Equal(t, id, bal.ID)
		assert.Equal(t, "12.5", bal.Qty.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is inserted then locked", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormStockLedgerRepository(db.DB)

		mock.ExpectQuery(selectForUpdate).WillReturnRows(sqlmock.NewRows(balanceColumns))
		mock.ExpectExec(`INSERT INTO "stock_balances" .* ON CONFLICT \("warehouse_id","product_id"\) DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(selectForUpdate).
			WillReturnRows(sqlmock.NewRows(balanceColumns).
				AddRow(uuid.New().String(), companyID.String(), warehouseID.String(), productID.String(), "0", time.Now()))

		bal, err := repo.LockBalance(context.Background(), companyID, warehouseID, productID)
		require.NoError(t, err)
		assert.True(t, bal.Qty.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSequenceRepository_NextSequence_SQL(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormSequenceRepository(db.DB)

	companyID, rowID := uuid.New(), uuid.New()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "document_sequences" WHERE company_id = \$1 AND prefix = \$2 AND day = \$3 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "prefix", "day", "last_value", "updated_at"}).
			AddRow(rowID.String(), companyID.String(), "SALE", "20240315", 41, time.Now()))
	mock.ExpectExec(`UPDATE "document_sequences" SET "last_value"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WithArgs(int64(42), sqlmock.AnyArg(), rowID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	next, err := repo.NextSequence(context.Background(), companyID, "SALE", day)
	require.NoError(t, err)
	assert.Equal(t, int64(42), next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_LockByID_SQL(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormDocumentRepository(db.DB)

	docID, productID := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "documents" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "doc_type", "status", "number"}).
			AddRow(docID.String(), uuid.New().String(), "SALE", "DRAFT", ""))
	mock.ExpectQuery(`SELECT \* FROM "document_items" WHERE document_id = \$1 ORDER BY position ASC`).
		WithArgs(docID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "position", "product_id", "qty"}).
			AddRow(uuid.New().String(), docID.String(), 0, productID.String(), "3"))

	doc, err := repo.LockByID(context.Background(), docID)
	require.NoError(t, err)
	assert.Equal(t, docID, doc.ID)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, productID, doc.Items[0].ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
