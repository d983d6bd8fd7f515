package warehouse

import (
	"fmt"
	"time"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyDocument is a cash-ledger entry: a receipt or an expense on a cash register
type MoneyDocument struct {
	shared.CompanyAggregateRoot
	DocType           MoneyDocType
	Status            MoneyDocumentStatus
	Number            string
	DocDate           time.Time
	CashRegisterID    uuid.UUID
	CounterpartyID    *uuid.UUID
	PaymentCategoryID *uuid.UUID
	Amount            decimal.Decimal
	SourceDocumentID  *uuid.UUID
	Comment           string
	PostedAt          *time.Time
}

// NewMoneyDocument creates a DRAFT money document
func NewMoneyDocument(companyID uuid.UUID, branchID *uuid.UUID, docType MoneyDocType, cashRegisterID uuid.UUID, amount decimal.Decimal) (*MoneyDocument, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOC_TYPE", fmt.Sprintf("Unknown money document type %q", docType))
	}
	return &MoneyDocument{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID, branchID),
		DocType:              docType,
		Status:               MoneyDocumentStatusDraft,
		DocDate:              time.Now(),
		CashRegisterID:       cashRegisterID,
		Amount:               amount,
	}, nil
}

// NewMoneyDocumentForSource creates a DRAFT money document paying for source
func NewMoneyDocumentForSource(source *Document, docType MoneyDocType, register *CashRegister, category *PaymentCategory, amount decimal.Decimal) (*MoneyDocument, error) {
	m, err := NewMoneyDocument(source.CompanyID, source.BranchID, docType, register.ID, amount)
	if err != nil {
		return nil, err
	}
	m.DocDate = source.DocDate
	m.CounterpartyID = source.CounterpartyID
	if category != nil {
		m.PaymentCategoryID = &category.ID
	}
	sourceID := source.ID
	m.SourceDocumentID = &sourceID
	if source.Number != "" {
		m.Comment = fmt.Sprintf("payment for %s", source.Number)
	}
	return m, nil
}

// Validate checks the money document against its cash register and category
func (m *MoneyDocument) Validate(register *CashRegister, category *PaymentCategory) error {
	v := &ValidationError{}
	if !m.Amount.IsPositive() {
		v.Add("amount", "must be positive")
	}
	if register == nil {
		v.Add("cash_register_id", "cash register not found")
	} else if !shared.SameScope(m.CompanyID, m.BranchID, register.CompanyID, register.BranchID) {
		v.Add("cash_register_id", fmt.Sprintf("cash register %q belongs to another company or branch", register.Name))
	}
	if category != nil {
		if category.CompanyID != m.CompanyID {
			v.Add("payment_category_id", "payment category belongs to another company")
		} else if category.Kind != m.DocType.CategoryKind() {
			v.Add("payment_category_id", fmt.Sprintf("%s requires a %s category", m.DocType, m.DocType.CategoryKind()))
		}
	}
	return v.OrNil()
}

// MarkPosted moves the money document to POSTED
func (m *MoneyDocument) MarkPosted() error {
	if m.Status == MoneyDocumentStatusPosted {
		return newStateError(ErrAlreadyPosted, "money document %s is already posted", m.label())
	}
	now := time.Now()
	m.Status = MoneyDocumentStatusPosted
	m.PostedAt = &now
	m.UpdatedAt = now
	m.IncrementVersion()
	m.AddDomainEvent(NewMoneyDocumentPostedEvent(m))
	return nil
}

// MarkUnposted returns a POSTED money document to DRAFT. The number is kept.
func (m *MoneyDocument) MarkUnposted() error {
	if m.Status != MoneyDocumentStatusPosted {
		return newStateError(ErrNotPosted, "money document %s is not posted", m.label())
	}
	m.Status = MoneyDocumentStatusDraft
	m.PostedAt = nil
	m.Touch()
	m.IncrementVersion()
	m.AddDomainEvent(NewMoneyDocumentUnpostedEvent(m))
	return nil
}

// AssignNumber sets the number once; later calls are ignored
func (m *MoneyDocument) AssignNumber(number string) {
	if m.Number == "" {
		m.Number = number
	}
}

func (m *MoneyDocument) label() string {
	if m.Number != "" {
		return m.Number
	}
	return m.ID.String()
}
