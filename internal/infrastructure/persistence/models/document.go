package models

import (
	"time"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/erp/warehouse/internal/domain/warehouse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentModel is the persistence model for the Document aggregate root
type DocumentModel struct {
	CompanyAggregateModel
	DocType           string          `gorm:"type:varchar(32);not null;index"`
	Status            string          `gorm:"type:varchar(16);not null;index"`
	Number            string          `gorm:"type:varchar(64);index"`
	DocDate           time.Time       `gorm:"not null"`
	WarehouseFromID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseToID     *uuid.UUID      `gorm:"type:uuid"`
	CounterpartyID    *uuid.UUID      `gorm:"type:uuid"`
	AgentID           *uuid.UUID      `gorm:"type:uuid;index"`
	PaymentKind       string          `gorm:"type:varchar(16);not null"`
	PrepaymentAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DiscountPercent   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Total             decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CashRegisterID    *uuid.UUID      `gorm:"type:uuid"`
	PaymentCategoryID *uuid.UUID      `gorm:"type:uuid"`
	Comment           string          `gorm:"type:text"`
	PostedAt          *time.Time
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the persistence model and its items to a domain Document
func (m *DocumentModel) ToDomain(items []DocumentItemModel) *warehouse.Document {
	d := &warehouse.Document{
		CompanyAggregateRoot: m.ToDomainCompanyAggregateRoot(),
		DocType:              warehouse.DocType(m.DocType),
		Status:               warehouse.DocumentStatus(m.Status),
		Number:               m.Number,
		DocDate:              m.DocDate,
		WarehouseFromID:      m.WarehouseFromID,
		WarehouseToID:        m.WarehouseToID,
		CounterpartyID:       m.CounterpartyID,
		AgentID:              m.AgentID,
		PaymentKind:          warehouse.PaymentKind(m.PaymentKind),
		PrepaymentAmount:     m.PrepaymentAmount,
		DiscountPercent:      m.DiscountPercent,
		Total:                m.Total,
		CashRegisterID:       m.CashRegisterID,
		PaymentCategoryID:    m.PaymentCategoryID,
		Comment:              m.Comment,
		PostedAt:             m.PostedAt,
		Items:                make([]warehouse.DocumentItem, len(items)),
	}
	for i := range items {
		d.Items[i] = *items[i].ToDomain()
	}
	return d
}

// FromDomain populates the persistence model from a domain Document
func (m *DocumentModel) FromDomain(d *warehouse.Document) {
	m.FromDomainCompanyAggregateRoot(d.CompanyAggregateRoot)
	m.DocType = string(d.DocType)
	m.Status = string(d.Status)
	m.Number = d.Number
	m.DocDate = d.DocDate
	m.WarehouseFromID = d.WarehouseFromID
	m.WarehouseToID = d.WarehouseToID
	m.CounterpartyID = d.CounterpartyID
	m.AgentID = d.AgentID
	m.PaymentKind = string(d.PaymentKind)
	m.PrepaymentAmount = d.PrepaymentAmount
	m.DiscountPercent = d.DiscountPercent
	m.Total = d.Total
	m.CashRegisterID = d.CashRegisterID
	m.PaymentCategoryID = d.PaymentCategoryID
	m.Comment = d.Comment
	m.PostedAt = d.PostedAt
}

// DocumentModelFromDomain creates a new persistence model from a domain Document
func DocumentModelFromDomain(d *warehouse.Document) *DocumentModel {
	m := &DocumentModel{}
	m.FromDomain(d)
	return m
}

// DocumentItemModel is the persistence model for DocumentItem
type DocumentItemModel struct {
	BaseModel
	DocumentID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position        int             `gorm:"not null"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null"`
	Qty             decimal.Decimal `gorm:"type:decimal(18,3);not null"`
	Price           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (DocumentItemModel) TableName() string {
	return "document_items"
}

// ToDomain converts the persistence model to a domain DocumentItem
func (m *DocumentItemModel) ToDomain() *warehouse.DocumentItem {
	return &warehouse.DocumentItem{
		BaseEntity:      m.BaseModel.ToDomain(),
		DocumentID:      m.DocumentID,
		ProductID:       m.ProductID,
		Qty:             m.Qty,
		Price:           m.Price,
		DiscountPercent: m.DiscountPercent,
		DiscountAmount:  m.DiscountAmount,
		LineTotal:       m.LineTotal,
	}
}

// DocumentItemModelFromDomain creates a persistence model for the item at position
func DocumentItemModelFromDomain(documentID uuid.UUID, position int, i *warehouse.DocumentItem) *DocumentItemModel {
	m := &DocumentItemModel{
		DocumentID:      documentID,
		Position:        position,
		ProductID:       i.ProductID,
		Qty:             i.Qty,
		Price:           i.Price,
		DiscountPercent: i.DiscountPercent,
		DiscountAmount:  i.DiscountAmount,
		LineTotal:       i.LineTotal,
	}
	m.FromDomainBaseEntity(i.BaseEntity)
	if m.ID == uuid.Nil {
		m.FromDomainBaseEntity(shared.NewBaseEntity())
	}
	return m
}

// DocumentSequenceModel is the counter row behind document numbers
type DocumentSequenceModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_document_sequence_key,priority:1"`
	Prefix    string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_document_sequence_key,priority:2"`
	Day       string    `gorm:"type:varchar(8);not null;uniqueIndex:idx_document_sequence_key,priority:3"`
	LastValue int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}
