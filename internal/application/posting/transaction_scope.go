package posting

import (
	"context"

	"github.com/erp/warehouse/internal/domain/warehouse"
)

// TransactionScope provides transactional access to warehouse repositories.
// Every posting entry point runs inside exactly one Execute call, so the
// document number, ledger moves, cash gate and money documents commit together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	DocumentRepo() warehouse.DocumentRepository
	CashRequestRepo() warehouse.CashApprovalRequestRepository
	MoneyDocumentRepo() warehouse.MoneyDocumentRepository
	StockRepo() warehouse.StockLedgerRepository
	AgentStockRepo() warehouse.AgentStockLedgerRepository
	SequenceRepo() warehouse.SequenceRepository
	ProductRepo() warehouse.ProductRepository
	WarehouseRepo() warehouse.WarehouseRepository
	CounterpartyRepo() warehouse.CounterpartyRepository
	CashRegisterRepo() warehouse.CashRegisterRepository
	PaymentCategoryRepo() warehouse.PaymentCategoryRepository
}
