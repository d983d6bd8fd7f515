package models

import (
	"time"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// CompanyAggregateModel provides common persistence fields for company-scoped aggregate roots
type CompanyAggregateModel struct {
	BaseModel
	Version   int        `gorm:"not null;default:1"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index"`
	BranchID  *uuid.UUID `gorm:"type:uuid;index"`
}

// FromDomainCompanyAggregateRoot populates CompanyAggregateModel from a domain CompanyAggregateRoot
func (m *CompanyAggregateModel) FromDomainCompanyAggregateRoot(a shared.CompanyAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
	m.CompanyID = a.CompanyID
	m.BranchID = a.BranchID
}

// ToDomainCompanyAggregateRoot builds a domain CompanyAggregateRoot from the persistence fields
func (m *CompanyAggregateModel) ToDomainCompanyAggregateRoot() shared.CompanyAggregateRoot {
	return shared.CompanyAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			Version:    m.Version,
		},
		CompanyID: m.CompanyID,
		BranchID:  m.BranchID,
	}
}

// All lists every model of the schema in dependency order
func All() []any {
	return []any{
		&WarehouseModel{},
		&CounterpartyModel{},
		&CashRegisterModel{},
		&PaymentCategoryModel{},
		&ProductModel{},
		&DocumentModel{},
		&DocumentItemModel{},
		&DocumentSequenceModel{},
		&StockBalanceModel{},
		&StockMoveModel{},
		&AgentStockBalanceModel{},
		&AgentStockMoveModel{},
		&CashApprovalRequestModel{},
		&MoneyDocumentModel{},
	}
}
