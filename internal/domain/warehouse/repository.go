package warehouse

import (
	"context"
	"time"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentRepository persists Documents together with their items
type DocumentRepository interface {
	// FindByID loads a document and its items
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)
	// LockByID loads a document and its items holding an exclusive row lock until commit
	LockByID(ctx context.Context, id uuid.UUID) (*Document, error)
	// FindByCompany lists documents of a company, newest first
	FindByCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]Document, error)
	// Save creates or updates the document header and replaces its items
	Save(ctx context.Context, doc *Document) error
}

// CashApprovalRequestRepository persists the cash gate of documents
type CashApprovalRequestRepository interface {
	// FindByDocument returns the request of a document or shared.ErrNotFound
	FindByDocument(ctx context.Context, documentID uuid.UUID) (*CashApprovalRequest, error)
	// FindPending lists pending requests of a company
	FindPending(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]CashApprovalRequest, error)
	Save(ctx context.Context, req *CashApprovalRequest) error
}

// MoneyDocumentRepository persists MoneyDocuments
type MoneyDocumentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*MoneyDocument, error)
	// LockByID loads a money document holding an exclusive row lock until commit
	LockByID(ctx context.Context, id uuid.UUID) (*MoneyDocument, error)
	// FindPostedBySource lists POSTED money documents spawned by a document
	FindPostedBySource(ctx context.Context, sourceDocumentID uuid.UUID) ([]MoneyDocument, error)
	Save(ctx context.Context, doc *MoneyDocument) error
}

// StockLedgerRepository is the storage side of the warehouse ledger
type StockLedgerRepository interface {
	// LockBalance returns the (warehouse, product) balance under an exclusive
	// row lock, inserting a zero row first when none exists.
	LockBalance(ctx context.Context, companyID, warehouseID, productID uuid.UUID) (*StockBalance, error)
	// FindBalance reads a balance without locking; a missing row yields zero quantity
	FindBalance(ctx context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error)
	SaveBalance(ctx context.Context, balance *StockBalance) error
	CreateMove(ctx context.Context, move *StockMove) error
	DeleteMove(ctx context.Context, id uuid.UUID) error
	FindMovesByDocument(ctx context.Context, documentID uuid.UUID) ([]StockMove, error)
}

// AgentStockLedgerRepository is the storage side of the agent ledger
type AgentStockLedgerRepository interface {
	// LockBalance returns the (agent, warehouse, product) balance under an
	// exclusive row lock, inserting a zero row first when none exists.
	LockBalance(ctx context.Context, companyID, agentID, warehouseID, productID uuid.UUID) (*AgentStockBalance, error)
	SaveBalance(ctx context.Context, balance *AgentStockBalance) error
	CreateMove(ctx context.Context, move *AgentStockMove) error
	DeleteMove(ctx context.Context, id uuid.UUID) error
	FindMovesByDocument(ctx context.Context, documentID uuid.UUID) ([]AgentStockMove, error)
}

// SequenceRepository hands out document numbers
type SequenceRepository interface {
	// NextSequence locks the (company, prefix, day) counter row, increments it and
	// returns the new value. Numbers are never reused.
	NextSequence(ctx context.Context, companyID uuid.UUID, prefix string, day time.Time) (int64, error)
}

// ProductRepository reads products and performs the few writes the engine owns
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	// FindByWarehouse lists the products homed in a warehouse
	FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]Product, error)
	FindByBarcode(ctx context.Context, warehouseID uuid.UUID, barcode string) (*Product, error)
	FindByCode(ctx context.Context, warehouseID uuid.UUID, code string) (*Product, error)
	// MaxNumericCode returns the greatest all-digit code of a company, 0 if none
	MaxNumericCode(ctx context.Context, companyID uuid.UUID) (int64, error)
	// MaxPLU returns the greatest PLU of a company, 0 if none
	MaxPLU(ctx context.Context, companyID uuid.UUID) (int64, error)
	Create(ctx context.Context, product *Product) error
	// UpdateQuantity writes the denormalized quantity
	UpdateQuantity(ctx context.Context, id uuid.UUID, qty decimal.Decimal) error
}

// WarehouseRepository reads warehouses
type WarehouseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)
}

// CounterpartyRepository reads counterparties
type CounterpartyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Counterparty, error)
}

// CashRegisterRepository reads cash registers
type CashRegisterRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CashRegister, error)
	// FindDefaults lists default registers of exactly this company and branch
	FindDefaults(ctx context.Context, companyID uuid.UUID, branchID *uuid.UUID) ([]CashRegister, error)
}

// PaymentCategoryRepository reads payment categories
type PaymentCategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentCategory, error)
	// FindDefaults lists default categories of a kind for exactly this company and branch
	FindDefaults(ctx context.Context, companyID uuid.UUID, branchID *uuid.UUID, kind PaymentCategoryKind) ([]PaymentCategory, error)
}
