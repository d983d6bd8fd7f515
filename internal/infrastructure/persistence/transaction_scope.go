package persistence

import (
	"context"

	"github.com/erp/warehouse/internal/application/posting"
	"github.com/erp/warehouse/internal/domain/warehouse"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos posting.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) DocumentRepo() warehouse.DocumentRepository {
	return NewGormDocumentRepository(r.tx)
}

func (r *gormTransactionalRepositories) CashRequestRepo() warehouse.CashApprovalRequestRepository {
	return NewGormCashApprovalRequestRepository(r.tx)
}

func (r *gormTransactionalRepositories) MoneyDocumentRepo() warehouse.MoneyDocumentRepository {
	return NewGormMoneyDocumentRepository(r.tx)
}

func (r *gormTransactionalRepositories) StockRepo() warehouse.StockLedgerRepository {
	return NewGormStockLedgerRepository(r.tx)
}

func (r *gormTransactionalRepositories) AgentStockRepo() warehouse.AgentStockLedgerRepository {
	return NewGormAgentStockLedgerRepository(r.tx)
}

func (r *gormTransactionalRepositories) SequenceRepo() warehouse.SequenceRepository {
	return NewGormSequenceRepository(r.tx)
}

func (r *gormTransactionalRepositories) ProductRepo() warehouse.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) WarehouseRepo() warehouse.WarehouseRepository {
	return NewGormWarehouseRepository(r.tx)
}

func (r *gormTransactionalRepositories) CounterpartyRepo() warehouse.CounterpartyRepository {
	return NewGormCounterpartyRepository(r.tx)
}

func (r *gormTransactionalRepositories) CashRegisterRepo() warehouse.CashRegisterRepository {
	return NewGormCashRegisterRepository(r.tx)
}

func (r *gormTransactionalRepositories) PaymentCategoryRepo() warehouse.PaymentCategoryRepository {
	return NewGormPaymentCategoryRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ posting.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ posting.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
