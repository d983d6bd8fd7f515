package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/erp/warehouse/internal/domain/warehouse"
	"github.com/erp/warehouse/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Fixture seeds the master data of one company: two warehouses, a customer,
// one default cash register and one default category per kind.
type Fixture struct {
	DB        *gorm.DB
	CompanyID uuid.UUID
	Main      *warehouse.Warehouse
	Store     *warehouse.Warehouse
	Customer  *warehouse.Counterparty
	Register  *warehouse.CashRegister
	Income    *warehouse.PaymentCategory
	Expense   *warehouse.PaymentCategory
}

// NewFixture seeds a fresh company into db
func NewFixture(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()
	f := &Fixture{DB: db, CompanyID: uuid.New()}
	f.Main = f.AddWarehouse(t, "Main")
	f.Store = f.AddWarehouse(t, "Store")

	f.Customer = &warehouse.Counterparty{BaseEntity: shared.NewBaseEntity(), CompanyID: f.CompanyID, Name: "Customer"}
	require.NoError(t, persistence.NewGormCounterpartyRepository(db).Create(context.Background(), f.Customer))

	f.Register = f.AddCashRegister(t, "Front desk", true)
	f.Income = f.AddPaymentCategory(t, "Sales", warehouse.PaymentCategoryKindIncome, true)
	f.Expense = f.AddPaymentCategory(t, "Purchases", warehouse.PaymentCategoryKindExpense, true)
	return f
}

// AddWarehouse creates a warehouse of the company
func (f *Fixture) AddWarehouse(t *testing.T, name string) *warehouse.Warehouse {
	t.Helper()
	w := &warehouse.Warehouse{BaseEntity: shared.NewBaseEntity(), CompanyID: f.CompanyID, Name: name}
	require.NoError(t, persistence.NewGormWarehouseRepository(f.DB).Create(context.Background(), w))
	return w
}

// AddCashRegister creates a cash register of the company without a branch
func (f *Fixture) AddCashRegister(t *testing.T, name string, isDefault bool) *warehouse.CashRegister {
	t.Helper()
	r := &warehouse.CashRegister{BaseEntity: shared.NewBaseEntity(), CompanyID: f.CompanyID, Name: name, IsDefault: isDefault}
	require.NoError(t, persistence.NewGormCashRegisterRepository(f.DB).Create(context.Background(), r))
	return r
}

// AddPaymentCategory creates a payment category of the company without a branch
func (f *Fixture) AddPaymentCategory(t *testing.T, name string, kind warehouse.PaymentCategoryKind, isDefault bool) *warehouse.PaymentCategory {
	t.Helper()
	c := &warehouse.PaymentCategory{BaseEntity: shared.NewBaseEntity(), CompanyID: f.CompanyID, Name: name, Kind: kind, IsDefault: isDefault}
	require.NoError(t, persistence.NewGormPaymentCategoryRepository(f.DB).Create(context.Background(), c))
	return c
}

// ProductOption customizes a product before it is stored
type ProductOption func(*warehouse.Product)

// WithBarcode sets the product barcode
func WithBarcode(barcode string) ProductOption {
	return func(p *warehouse.Product) { p.Barcode = barcode }
}

// WithCode sets the product code
func WithCode(code string) ProductOption {
	return func(p *warehouse.Product) { p.Code = code }
}

// WithPLU sets the product PLU
func WithPLU(plu string) ProductOption {
	return func(p *warehouse.Product) { p.PLU = plu }
}

// WithWeight marks the product as sold by weight
func WithWeight() ProductOption {
	return func(p *warehouse.Product) { p.IsWeight = true }
}

// AddProduct creates a product homed in wh with an opening balance of qty
func (f *Fixture) AddProduct(t *testing.T, wh *warehouse.Warehouse, name, qty string, opts ...ProductOption) *warehouse.Product {
	t.Helper()
	ctx := context.Background()
	p := &warehouse.Product{
		BaseEntity:  shared.NewBaseEntity(),
		CompanyID:   f.CompanyID,
		WarehouseID: wh.ID,
		Name:        name,
		Unit:        "pcs",
		Price:       Dec("150"),
		Quantity:    Dec(qty),
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, persistence.NewGormProductRepository(f.DB).Create(ctx, p))
	f.SetBalance(t, wh, p, qty)
	return p
}

// SetBalance overwrites the stock balance of p in wh
func (f *Fixture) SetBalance(t *testing.T, wh *warehouse.Warehouse, p *warehouse.Product, qty string) {
	t.Helper()
	ctx := context.Background()
	stock := persistence.NewGormStockLedgerRepository(f.DB)
	balance, err := stock.LockBalance(ctx, f.CompanyID, wh.ID, p.ID)
	require.NoError(t, err)
	balance.Qty = Dec(qty)
	balance.UpdatedAt = time.Now()
	require.NoError(t, stock.SaveBalance(ctx, balance))
}

// Balance reads the stock balance of product in wh
func (f *Fixture) Balance(t *testing.T, wh *warehouse.Warehouse, productID uuid.UUID) decimal.Decimal {
	t.Helper()
	qty, err := persistence.NewGormStockLedgerRepository(f.DB).FindBalance(context.Background(), wh.ID, productID)
	require.NoError(t, err)
	return qty
}

// Product reloads a product
func (f *Fixture) Product(t *testing.T, id uuid.UUID) *warehouse.Product {
	t.Helper()
	p, err := persistence.NewGormProductRepository(f.DB).FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

// NewDocument builds a DRAFT document with one item per product at qty × price
func (f *Fixture) NewDocument(t *testing.T, docType warehouse.DocType, from *warehouse.Warehouse, lines ...Line) *warehouse.Document {
	t.Helper()
	doc, err := warehouse.NewDocument(f.CompanyID, nil, docType, from.ID, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	if docType.IsTrade() {
		doc.CounterpartyID = &f.Customer.ID
	}
	for _, l := range lines {
		_, err := doc.AddItem(l.Product.ID, Dec(l.Qty), Dec(l.Price))
		require.NoError(t, err)
	}
	return doc
}

// Line is one item of a document built by NewDocument
type Line struct {
	Product *warehouse.Product
	Qty     string
	Price   string
}

// SaveDocument stores doc
func (f *Fixture) SaveDocument(t *testing.T, doc *warehouse.Document) {
	t.Helper()
	require.NoError(t, persistence.NewGormDocumentRepository(f.DB).Save(context.Background(), doc))
}

// Document reloads a document with its items
func (f *Fixture) Document(t *testing.T, id uuid.UUID) *warehouse.Document {
	t.Helper()
	doc, err := persistence.NewGormDocumentRepository(f.DB).FindByID(context.Background(), id)
	require.NoError(t, err)
	return doc
}

// Moves lists the stock moves of a document
func (f *Fixture) Moves(t *testing.T, documentID uuid.UUID) []warehouse.StockMove {
	t.Helper()
	moves, err := persistence.NewGormStockLedgerRepository(f.DB).FindMovesByDocument(context.Background(), documentID)
	require.NoError(t, err)
	return moves
}

// AgentMoves lists the agent stock moves of a document
func (f *Fixture) AgentMoves(t *testing.T, documentID uuid.UUID) []warehouse.AgentStockMove {
	t.Helper()
	moves, err := persistence.NewGormAgentStockLedgerRepository(f.DB).FindMovesByDocument(context.Background(), documentID)
	require.NoError(t, err)
	return moves
}

// CashRequest loads the cash approval request of a document
func (f *Fixture) CashRequest(t *testing.T, documentID uuid.UUID) *warehouse.CashApprovalRequest {
	t.Helper()
	req, err := persistence.NewGormCashApprovalRequestRepository(f.DB).FindByDocument(context.Background(), documentID)
	require.NoError(t, err)
	return req
}

// MoneyDocument reloads a money document
func (f *Fixture) MoneyDocument(t *testing.T, id uuid.UUID) *warehouse.MoneyDocument {
	t.Helper()
	m, err := persistence.NewGormMoneyDocumentRepository(f.DB).FindByID(context.Background(), id)
	require.NoError(t, err)
	return m
}
