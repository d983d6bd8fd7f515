package warehouse

import (
	"time"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AutoRejectNote is recorded on a pending request when its document is unposted
const AutoRejectNote = "auto-rejected: document unposted"

// CashApprovalRequest defers final recognition of a posted document until a
// cashier approves or rejects its monetary side. One per Document.
type CashApprovalRequest struct {
	shared.BaseEntity
	CompanyID       uuid.UUID
	BranchID        *uuid.UUID
	DocumentID      uuid.UUID
	Status          CashRequestStatus
	RequiresMoney   bool
	MoneyDocType    *MoneyDocType
	Amount          decimal.Decimal
	DecidedBy       *uuid.UUID
	DecidedAt       *time.Time
	DecisionNote    string
	MoneyDocumentID *uuid.UUID
}

// NewCashApprovalRequest opens a PENDING request for doc
func NewCashApprovalRequest(doc *Document) *CashApprovalRequest {
	r := &CashApprovalRequest{
		BaseEntity: shared.NewBaseEntity(),
		CompanyID:  doc.CompanyID,
		BranchID:   doc.BranchID,
		DocumentID: doc.ID,
	}
	r.Reset(doc)
	return r
}

// Reset reopens the request for a fresh posting of doc, recomputing the
// money requirement and clearing the previous decision.
func (r *CashApprovalRequest) Reset(doc *Document) {
	r.Status = CashRequestStatusPending
	r.MoneyDocType = nil
	if mt, ok := doc.DocType.MoneyDocType(); ok {
		r.MoneyDocType = &mt
	}
	r.RequiresMoney = doc.PaymentKind == PaymentKindCash && r.MoneyDocType != nil && !doc.IsAgentDocument()
	r.Amount = doc.Total
	r.DecidedBy = nil
	r.DecidedAt = nil
	r.DecisionNote = ""
	r.MoneyDocumentID = nil
	r.Touch()
}

// IsPending reports whether the request still awaits a decision
func (r *CashApprovalRequest) IsPending() bool {
	return r.Status == CashRequestStatusPending
}

// Approve records the approval and the money document it produced, if any
func (r *CashApprovalRequest) Approve(decidedBy *uuid.UUID, note string, moneyDocumentID *uuid.UUID) error {
	if !r.IsPending() {
		return newStateError(ErrAlreadyProcessed, "cash request is already %s", r.Status)
	}
	r.decide(CashRequestStatusApproved, decidedBy, note)
	r.MoneyDocumentID = moneyDocumentID
	return nil
}

// Reject records a rejection
func (r *CashApprovalRequest) Reject(decidedBy *uuid.UUID, note string) error {
	if !r.IsPending() {
		return newStateError(ErrAlreadyProcessed, "cash request is already %s", r.Status)
	}
	r.decide(CashRequestStatusRejected, decidedBy, note)
	return nil
}

func (r *CashApprovalRequest) decide(status CashRequestStatus, decidedBy *uuid.UUID, note string) {
	now := time.Now()
	r.Status = status
	r.DecidedBy = decidedBy
	r.DecidedAt = &now
	r.DecisionNote = note
	r.UpdatedAt = now
}
