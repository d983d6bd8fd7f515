package warehouse

import (
	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a stock-keeping item that lives in one "home" warehouse.
// The engine treats products as read-only master data except for the
// denormalized Quantity and the mirror products it creates for transfers.
type Product struct {
	shared.BaseEntity
	CompanyID     uuid.UUID
	BranchID      *uuid.UUID
	WarehouseID   uuid.UUID
	Name          string
	Code          string
	PLU           string
	Barcode       string
	Article       string
	Unit          string
	IsWeight      bool
	Price         decimal.Decimal
	PurchasePrice decimal.Decimal
	Quantity      decimal.Decimal
}

// DisplayName returns the name used in operator-facing messages
func (p *Product) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Code != "" {
		return p.Code
	}
	return p.ID.String()
}

// NewMirrorProduct copies the descriptive fields of src into a new product homed in
// warehouseID with zero quantity. Code and PLU are left for the caller to generate.
func NewMirrorProduct(src *Product, warehouseID uuid.UUID, branchID *uuid.UUID) *Product {
	return &Product{
		BaseEntity:    shared.NewBaseEntity(),
		CompanyID:     src.CompanyID,
		BranchID:      branchID,
		WarehouseID:   warehouseID,
		Name:          src.Name,
		Barcode:       src.Barcode,
		Article:       src.Article,
		Unit:          src.Unit,
		IsWeight:      src.IsWeight,
		Price:         src.Price,
		PurchasePrice: src.PurchasePrice,
		Quantity:      decimal.Zero,
	}
}

// Warehouse is a physical stock location
type Warehouse struct {
	shared.BaseEntity
	CompanyID uuid.UUID
	BranchID  *uuid.UUID
	Name      string
}

// Counterparty is a customer or supplier
type Counterparty struct {
	shared.BaseEntity
	CompanyID uuid.UUID
	Name      string
}

// CashRegister is a cash desk money documents are booked on
type CashRegister struct {
	shared.BaseEntity
	CompanyID uuid.UUID
	BranchID  *uuid.UUID
	Name      string
	IsDefault bool
}

// PaymentCategory classifies money documents as income or expense
type PaymentCategory struct {
	shared.BaseEntity
	CompanyID uuid.UUID
	BranchID  *uuid.UUID
	Name      string
	Kind      PaymentCategoryKind
	IsDefault bool
}
