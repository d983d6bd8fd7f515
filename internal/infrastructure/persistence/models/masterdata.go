package models

import (
	"github.com/erp/warehouse/internal/domain/warehouse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for Product
type ProductModel struct {
	BaseModel
	CompanyID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	BranchID      *uuid.UUID      `gorm:"type:uuid"`
	WarehouseID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name          string          `gorm:"type:varchar(255);not null"`
	Code          string          `gorm:"type:varchar(64);index"`
	PLU           string          `gorm:"column:plu;type:varchar(16)"`
	Barcode       string          `gorm:"type:varchar(64);index"`
	Article       string          `gorm:"type:varchar(64)"`
	Unit          string          `gorm:"type:varchar(16)"`
	IsWeight      bool            `gorm:"not null;default:false"`
	Price         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *warehouse.Product {
	return &warehouse.Product{
		BaseEntity:    m.BaseModel.ToDomain(),
		CompanyID:     m.CompanyID,
		BranchID:      m.BranchID,
		WarehouseID:   m.WarehouseID,
		Name:          m.Name,
		Code:          m.Code,
		PLU:           m.PLU,
		Barcode:       m.Barcode,
		Article:       m.Article,
		Unit:          m.Unit,
		IsWeight:      m.IsWeight,
		Price:         m.Price,
		PurchasePrice: m.PurchasePrice,
		Quantity:      m.Quantity,
	}
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *warehouse.Product) *ProductModel {
	m := &ProductModel{
		CompanyID:     p.CompanyID,
		BranchID:      p.BranchID,
		WarehouseID:   p.WarehouseID,
		Name:          p.Name,
		Code:          p.Code,
		PLU:           p.PLU,
		Barcode:       p.Barcode,
		Article:       p.Article,
		Unit:          p.Unit,
		IsWeight:      p.IsWeight,
		Price:         p.Price,
		PurchasePrice: p.PurchasePrice,
		Quantity:      p.Quantity,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// WarehouseModel is the persistence model for Warehouse
type WarehouseModel struct {
	BaseModel
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index"`
	BranchID  *uuid.UUID `gorm:"type:uuid"`
	Name      string     `gorm:"type:varchar(255);not null"`
}

// TableName returns the table name for GORM
func (WarehouseModel) TableName() string {
	return "warehouses"
}

// ToDomain converts the persistence model to a domain Warehouse
func (m *WarehouseModel) ToDomain() *warehouse.Warehouse {
	return &warehouse.Warehouse{
		BaseEntity: m.BaseModel.ToDomain(),
		CompanyID:  m.CompanyID,
		BranchID:   m.BranchID,
		Name:       m.Name,
	}
}

// WarehouseModelFromDomain creates a persistence model from a domain Warehouse
func WarehouseModelFromDomain(w *warehouse.Warehouse) *WarehouseModel {
	m := &WarehouseModel{CompanyID: w.CompanyID, BranchID: w.BranchID, Name: w.Name}
	m.FromDomainBaseEntity(w.BaseEntity)
	return m
}

// CounterpartyModel is the persistence model for Counterparty
type CounterpartyModel struct {
	BaseModel
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(255);not null"`
}

// TableName returns the table name for GORM
func (CounterpartyModel) TableName() string {
	return "counterparties"
}

// ToDomain converts the persistence model to a domain Counterparty
func (m *CounterpartyModel) ToDomain() *warehouse.Counterparty {
	return &warehouse.Counterparty{BaseEntity: m.BaseModel.ToDomain(), CompanyID: m.CompanyID, Name: m.Name}
}

// CounterpartyModelFromDomain creates a persistence model from a domain Counterparty
func CounterpartyModelFromDomain(c *warehouse.Counterparty) *CounterpartyModel {
	m := &CounterpartyModel{CompanyID: c.CompanyID, Name: c.Name}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// CashRegisterModel is the persistence model for CashRegister
type CashRegisterModel struct {
	BaseModel
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index"`
	BranchID  *uuid.UUID `gorm:"type:uuid"`
	Name      string     `gorm:"type:varchar(255);not null"`
	IsDefault bool       `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (CashRegisterModel) TableName() string {
	return "cash_registers"
}

// ToDomain converts the persistence model to a domain CashRegister
func (m *CashRegisterModel) ToDomain() *warehouse.CashRegister {
	return &warehouse.CashRegister{
		BaseEntity: m.BaseModel.ToDomain(),
		CompanyID:  m.CompanyID,
		BranchID:   m.BranchID,
		Name:       m.Name,
		IsDefault:  m.IsDefault,
	}
}

// CashRegisterModelFromDomain creates a persistence model from a domain CashRegister
func CashRegisterModelFromDomain(c *warehouse.CashRegister) *CashRegisterModel {
	m := &CashRegisterModel{CompanyID: c.CompanyID, BranchID: c.BranchID, Name: c.Name, IsDefault: c.IsDefault}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// PaymentCategoryModel is the persistence model for PaymentCategory
type PaymentCategoryModel struct {
	BaseModel
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index"`
	BranchID  *uuid.UUID `gorm:"type:uuid"`
	Name      string     `gorm:"type:varchar(255);not null"`
	Kind      string     `gorm:"type:varchar(16);not null"`
	IsDefault bool       `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (PaymentCategoryModel) TableName() string {
	return "payment_categories"
}

// ToDomain converts the persistence model to a domain PaymentCategory
func (m *PaymentCategoryModel) ToDomain() *warehouse.PaymentCategory {
	return &warehouse.PaymentCategory{
		BaseEntity: m.BaseModel.ToDomain(),
		CompanyID:  m.CompanyID,
		BranchID:   m.BranchID,
		Name:       m.Name,
		Kind:       warehouse.PaymentCategoryKind(m.Kind),
		IsDefault:  m.IsDefault,
	}
}

// PaymentCategoryModelFromDomain creates a persistence model from a domain PaymentCategory
func PaymentCategoryModelFromDomain(c *warehouse.PaymentCategory) *PaymentCategoryModel {
	m := &PaymentCategoryModel{
		CompanyID: c.CompanyID,
		BranchID:  c.BranchID,
		Name:      c.Name,
		Kind:      string(c.Kind),
		IsDefault: c.IsDefault,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}
