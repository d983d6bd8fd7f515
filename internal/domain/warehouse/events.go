package warehouse

import (
	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeDocument      = "Document"
	AggregateTypeMoneyDocument = "MoneyDocument"
)

// Event type constants
const (
	EventTypeDocumentPosted        = "DocumentPosted"
	EventTypeDocumentUnposted      = "DocumentUnposted"
	EventTypeCashRequestApproved   = "CashRequestApproved"
	EventTypeCashRequestRejected   = "CashRequestRejected"
	EventTypeMoneyDocumentPosted   = "MoneyDocumentPosted"
	EventTypeMoneyDocumentUnposted = "MoneyDocumentUnposted"
)

// DocumentPostedEvent is raised when a document leaves DRAFT through posting
type DocumentPostedEvent struct {
	shared.BaseDomainEvent
	Number      string          `json:"number"`
	DocType     DocType         `json:"doc_type"`
	Status      DocumentStatus  `json:"status"`
	Total       decimal.Decimal `json:"total"`
	PaymentKind PaymentKind     `json:"payment_kind"`
}

// NewDocumentPostedEvent creates a new DocumentPostedEvent
func NewDocumentPostedEvent(d *Document) *DocumentPostedEvent {
	return &DocumentPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentPosted, AggregateTypeDocument, d.ID, d.CompanyID),
		Number:          d.Number,
		DocType:         d.DocType,
		Status:          d.Status,
		Total:           d.Total,
		PaymentKind:     d.PaymentKind,
	}
}

// DocumentUnpostedEvent is raised when a document returns to DRAFT
type DocumentUnpostedEvent struct {
	shared.BaseDomainEvent
	Number         string         `json:"number"`
	DocType        DocType        `json:"doc_type"`
	PreviousStatus DocumentStatus `json:"previous_status"`
}

// NewDocumentUnpostedEvent creates a new DocumentUnpostedEvent
func NewDocumentUnpostedEvent(d *Document, previous DocumentStatus) *DocumentUnpostedEvent {
	return &DocumentUnpostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentUnposted, AggregateTypeDocument, d.ID, d.CompanyID),
		Number:          d.Number,
		DocType:         d.DocType,
		PreviousStatus:  previous,
	}
}

// CashRequestApprovedEvent is raised when a cashier approves a pending document
type CashRequestApprovedEvent struct {
	shared.BaseDomainEvent
	RequestID       uuid.UUID       `json:"request_id"`
	Number          string          `json:"number"`
	Amount          decimal.Decimal `json:"amount"`
	MoneyDocumentID *uuid.UUID      `json:"money_document_id,omitempty"`
	DecidedBy       *uuid.UUID      `json:"decided_by,omitempty"`
}

// NewCashRequestApprovedEvent creates a new CashRequestApprovedEvent
func NewCashRequestApprovedEvent(d *Document, r *CashApprovalRequest) *CashRequestApprovedEvent {
	return &CashRequestApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashRequestApproved, AggregateTypeDocument, d.ID, d.CompanyID),
		RequestID:       r.ID,
		Number:          d.Number,
		Amount:          r.Amount,
		MoneyDocumentID: r.MoneyDocumentID,
		DecidedBy:       r.DecidedBy,
	}
}

// CashRequestRejectedEvent is raised when a cashier rejects a pending document
type CashRequestRejectedEvent struct {
	shared.BaseDomainEvent
	RequestID uuid.UUID  `json:"request_id"`
	Number    string     `json:"number"`
	Note      string     `json:"note"`
	DecidedBy *uuid.UUID `json:"decided_by,omitempty"`
}

// NewCashRequestRejectedEvent creates a new CashRequestRejectedEvent
func NewCashRequestRejectedEvent(d *Document, r *CashApprovalRequest) *CashRequestRejectedEvent {
	return &CashRequestRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashRequestRejected, AggregateTypeDocument, d.ID, d.CompanyID),
		RequestID:       r.ID,
		Number:          d.Number,
		Note:            r.DecisionNote,
		DecidedBy:       r.DecidedBy,
	}
}

// MoneyDocumentPostedEvent is raised when a money document is posted
type MoneyDocumentPostedEvent struct {
	shared.BaseDomainEvent
	Number           string          `json:"number"`
	DocType          MoneyDocType    `json:"doc_type"`
	Amount           decimal.Decimal `json:"amount"`
	CashRegisterID   uuid.UUID       `json:"cash_register_id"`
	SourceDocumentID *uuid.UUID      `json:"source_document_id,omitempty"`
}

// NewMoneyDocumentPostedEvent creates a new MoneyDocumentPostedEvent
func NewMoneyDocumentPostedEvent(m *MoneyDocument) *MoneyDocumentPostedEvent {
	return &MoneyDocumentPostedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeMoneyDocumentPosted, AggregateTypeMoneyDocument, m.ID, m.CompanyID),
		Number:           m.Number,
		DocType:          m.DocType,
		Amount:           m.Amount,
		CashRegisterID:   m.CashRegisterID,
		SourceDocumentID: m.SourceDocumentID,
	}
}

// MoneyDocumentUnpostedEvent is raised when a money document returns to DRAFT
type MoneyDocumentUnpostedEvent struct {
	shared.BaseDomainEvent
	Number  string       `json:"number"`
	DocType MoneyDocType `json:"doc_type"`
}

// NewMoneyDocumentUnpostedEvent creates a new MoneyDocumentUnpostedEvent
func NewMoneyDocumentUnpostedEvent(m *MoneyDocument) *MoneyDocumentUnpostedEvent {
	return &MoneyDocumentUnpostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMoneyDocumentUnposted, AggregateTypeMoneyDocument, m.ID, m.CompanyID),
		Number:          m.Number,
		DocType:         m.DocType,
	}
}
