package models

import (
	"time"

	"github.com/erp/warehouse/internal/domain/warehouse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashApprovalRequestModel is the persistence model for CashApprovalRequest
type CashApprovalRequestModel struct {
	BaseModel
	CompanyID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	BranchID        *uuid.UUID      `gorm:"type:uuid"`
	DocumentID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Status          string          `gorm:"type:varchar(16);not null;index"`
	RequiresMoney   bool            `gorm:"not null;default:false"`
	MoneyDocType    *string         `gorm:"type:varchar(32)"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DecidedBy       *uuid.UUID      `gorm:"type:uuid"`
	DecidedAt       *time.Time
	DecisionNote    string     `gorm:"type:text"`
	MoneyDocumentID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (CashApprovalRequestModel) TableName() string {
	return "cash_approval_requests"
}

// ToDomain converts the persistence model to a domain CashApprovalRequest
func (m *CashApprovalRequestModel) ToDomain() *warehouse.CashApprovalRequest {
	r := &warehouse.CashApprovalRequest{
		BaseEntity:      m.BaseModel.ToDomain(),
		CompanyID:       m.CompanyID,
		BranchID:        m.BranchID,
		DocumentID:      m.DocumentID,
		Status:          warehouse.CashRequestStatus(m.Status),
		RequiresMoney:   m.RequiresMoney,
		Amount:          m.Amount,
		DecidedBy:       m.DecidedBy,
		DecidedAt:       m.DecidedAt,
		DecisionNote:    m.DecisionNote,
		MoneyDocumentID: m.MoneyDocumentID,
	}
	if m.MoneyDocType != nil {
		mt := warehouse.MoneyDocType(*m.MoneyDocType)
		r.MoneyDocType = &mt
	}
	return r
}

// CashApprovalRequestModelFromDomain creates a persistence model from a domain CashApprovalRequest
func CashApprovalRequestModelFromDomain(r *warehouse.CashApprovalRequest) *CashApprovalRequestModel {
	m := &CashApprovalRequestModel{
		CompanyID:       r.CompanyID,
		BranchID:        r.BranchID,
		DocumentID:      r.DocumentID,
		Status:          string(r.Status),
		RequiresMoney:   r.RequiresMoney,
		Amount:          r.Amount,
		DecidedBy:       r.DecidedBy,
		DecidedAt:       r.DecidedAt,
		DecisionNote:    r.DecisionNote,
		MoneyDocumentID: r.MoneyDocumentID,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	if r.MoneyDocType != nil {
		mt := string(*r.MoneyDocType)
		m.MoneyDocType = &mt
	}
	return m
}

// MoneyDocumentModel is the persistence model for the MoneyDocument aggregate root
type MoneyDocumentModel struct {
	CompanyAggregateModel
	DocType           string          `gorm:"type:varchar(32);not null"`
	Status            string          `gorm:"type:varchar(16);not null;index"`
	Number            string          `gorm:"type:varchar(64);index"`
	DocDate           time.Time       `gorm:"not null"`
	CashRegisterID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	CounterpartyID    *uuid.UUID      `gorm:"type:uuid"`
	PaymentCategoryID *uuid.UUID      `gorm:"type:uuid"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	SourceDocumentID  *uuid.UUID      `gorm:"type:uuid;index"`
	Comment           string          `gorm:"type:text"`
	PostedAt          *time.Time
}

// TableName returns the table name for GORM
func (MoneyDocumentModel) TableName() string {
	return "money_documents"
}

// ToDomain converts the persistence model to a domain MoneyDocument
func (m *MoneyDocumentModel) ToDomain() *warehouse.MoneyDocument {
	return &warehouse.MoneyDocument{
		CompanyAggregateRoot: m.ToDomainCompanyAggregateRoot(),
		DocType:              warehouse.MoneyDocType(m.DocType),
		Status:               warehouse.MoneyDocumentStatus(m.Status),
		Number:               m.Number,
		DocDate:              m.DocDate,
		CashRegisterID:       m.CashRegisterID,
		CounterpartyID:       m.CounterpartyID,
		PaymentCategoryID:    m.PaymentCategoryID,
		Amount:               m.Amount,
		SourceDocumentID:     m.SourceDocumentID,
		Comment:              m.Comment,
		PostedAt:             m.PostedAt,
	}
}

// MoneyDocumentModelFromDomain creates a persistence model from a domain MoneyDocument
func MoneyDocumentModelFromDomain(d *warehouse.MoneyDocument) *MoneyDocumentModel {
	m := &MoneyDocumentModel{
		DocType:           string(d.DocType),
		Status:            string(d.Status),
		Number:            d.Number,
		DocDate:           d.DocDate,
		CashRegisterID:    d.CashRegisterID,
		CounterpartyID:    d.CounterpartyID,
		PaymentCategoryID: d.PaymentCategoryID,
		Amount:            d.Amount,
		SourceDocumentID:  d.SourceDocumentID,
		Comment:           d.Comment,
		PostedAt:          d.PostedAt,
	}
	m.FromDomainCompanyAggregateRoot(d.CompanyAggregateRoot)
	return m
}
