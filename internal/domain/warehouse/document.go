package warehouse

import (
	"fmt"
	"time"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/erp/warehouse/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Document is one business transaction that changes stock once posted.
// Status is only moved by the posting service through the Mark* methods.
type Document struct {
	shared.CompanyAggregateRoot
	DocType           DocType
	Status            DocumentStatus
	Number            string
	DocDate           time.Time
	WarehouseFromID   uuid.UUID
	WarehouseToID     *uuid.UUID
	CounterpartyID    *uuid.UUID
	AgentID           *uuid.UUID
	PaymentKind       PaymentKind
	PrepaymentAmount  decimal.Decimal
	DiscountPercent   decimal.Decimal
	Total             decimal.Decimal
	CashRegisterID    *uuid.UUID
	PaymentCategoryID *uuid.UUID
	Comment           string
	PostedAt          *time.Time
	Items             []DocumentItem
}

// DocumentItem is one product line of a Document
type DocumentItem struct {
	shared.BaseEntity
	DocumentID      uuid.UUID
	ProductID       uuid.UUID
	Qty             decimal.Decimal
	Price           decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	LineTotal       decimal.Decimal
}

// NewDocument creates a DRAFT document paid in cash
func NewDocument(companyID uuid.UUID, branchID *uuid.UUID, docType DocType, warehouseFromID uuid.UUID, docDate time.Time) (*Document, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOC_TYPE", fmt.Sprintf("Unknown document type %q", docType))
	}
	if warehouseFromID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if docDate.IsZero() {
		docDate = time.Now()
	}
	return &Document{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID, branchID),
		DocType:              docType,
		Status:               DocumentStatusDraft,
		DocDate:              docDate,
		WarehouseFromID:      warehouseFromID,
		PaymentKind:          PaymentKindCash,
		PrepaymentAmount:     decimal.Zero,
		DiscountPercent:      decimal.Zero,
		Total:                decimal.Zero,
		Items:                make([]DocumentItem, 0),
	}, nil
}

// AddItem appends a product line. Only DRAFT documents can be edited.
// The returned pointer is valid until the next AddItem call.
func (d *Document) AddItem(productID uuid.UUID, qty, price decimal.Decimal) (*DocumentItem, error) {
	if d.Status != DocumentStatusDraft {
		return nil, newStateError(ErrAlreadyPosted, "document %s can only be edited in DRAFT", d.label())
	}
	item := DocumentItem{
		BaseEntity:      shared.NewBaseEntity(),
		DocumentID:      d.ID,
		ProductID:       productID,
		Qty:             qty,
		Price:           price,
		DiscountPercent: decimal.Zero,
		DiscountAmount:  decimal.Zero,
	}
	item.LineTotal = item.CalculateLineTotal()
	d.Items = append(d.Items, item)
	d.Touch()
	return &d.Items[len(d.Items)-1], nil
}

// ProductIDs returns the distinct products referenced by the items
func (d *Document) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(d.Items))
	ids := make([]uuid.UUID, 0, len(d.Items))
	for _, item := range d.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// CalculateTotal returns round2(max(0, Σ line_total · (1 − discount%/100)))
// using freshly computed line totals.
func (d *Document) CalculateTotal() decimal.Decimal {
	sum := decimal.Zero
	for i := range d.Items {
		sum = sum.Add(d.Items[i].CalculateLineTotal())
	}
	sum = valueobject.ApplyPercentDiscount(sum, d.DiscountPercent)
	return valueobject.RoundMoney(valueobject.NonNegative(sum))
}

// RecalcTotals stores fresh line totals and the document total.
// It reports whether anything changed.
func (d *Document) RecalcTotals() bool {
	changed := false
	for i := range d.Items {
		lt := d.Items[i].CalculateLineTotal()
		if !lt.Equal(d.Items[i].LineTotal) {
			d.Items[i].LineTotal = lt
			changed = true
		}
	}
	total := d.CalculateTotal()
	if !total.Equal(d.Total) {
		d.Total = total
		changed = true
	}
	if changed {
		d.Touch()
	}
	return changed
}

// IsAgentDocument reports whether moves go through the agent ledger
func (d *Document) IsAgentDocument() bool {
	return d.AgentID != nil
}

// Clean checks the document header rules
func (d *Document) Clean() error {
	v := &ValidationError{}
	if d.CompanyID == uuid.Nil {
		v.Add("company_id", "is required")
	}
	if !d.DocType.IsValid() {
		v.Add("doc_type", fmt.Sprintf("unknown document type %q", d.DocType))
	}
	if !d.PaymentKind.IsValid() {
		v.Add("payment_kind", fmt.Sprintf("unknown payment kind %q", d.PaymentKind))
	}
	if !valueobject.IsPercent(d.DiscountPercent) {
		v.Add("discount_percent", "must be between 0 and 100")
	}
	if d.WarehouseFromID == uuid.Nil {
		v.Add("warehouse_from_id", "is required")
	}

	if d.DocType == DocTypeTransfer {
		switch {
		case d.WarehouseToID == nil || *d.WarehouseToID == uuid.Nil:
			v.Add("warehouse_to_id", "is required for TRANSFER")
		case *d.WarehouseToID == d.WarehouseFromID:
			v.Add("warehouse_to_id", "must differ from warehouse_from_id")
		}
	} else if d.WarehouseToID != nil {
		v.Add("warehouse_to_id", "is only allowed for TRANSFER")
	}

	if d.DocType.IsTrade() && (d.CounterpartyID == nil || *d.CounterpartyID == uuid.Nil) {
		v.Add("counterparty_id", fmt.Sprintf("is required for %s", d.DocType))
	}
	if d.IsAgentDocument() && !d.DocType.AllowsAgent() {
		v.Add("agent_id", fmt.Sprintf("is not allowed for %s", d.DocType))
	}

	switch {
	case d.PrepaymentAmount.IsNegative():
		v.Add("prepayment_amount", "must not be negative")
	case d.PrepaymentAmount.IsPositive() && d.PaymentKind != PaymentKindCredit:
		v.Add("prepayment_amount", "is only allowed for CREDIT payment")
	case d.PrepaymentAmount.IsPositive() && !d.DocType.IsTrade():
		v.Add("prepayment_amount", fmt.Sprintf("is not allowed for %s", d.DocType))
	case d.PrepaymentAmount.GreaterThan(d.CalculateTotal()):
		v.Add("prepayment_amount", "must not exceed the document total")
	}
	return v.OrNil()
}

// CleanItems checks every item against its product. products must hold every
// product referenced by the items; a missing entry is reported as a field error.
func (d *Document) CleanItems(products map[uuid.UUID]*Product) error {
	v := &ValidationError{}
	if len(d.Items) == 0 {
		v.Add("items", "document has no items")
	}
	for i := range d.Items {
		item := &d.Items[i]
		if err := item.Clean(products[item.ProductID], d); err != nil {
			if ve, ok := err.(*ValidationError); ok {
				v.Merge(fmt.Sprintf("items[%d].", i), ve)
			}
		}
	}
	return v.OrNil()
}

// CanPost returns a state error unless the document is DRAFT
func (d *Document) CanPost() error {
	if d.Status != DocumentStatusDraft {
		return newStateError(ErrAlreadyPosted, "document %s is already %s", d.label(), d.Status)
	}
	return nil
}

// CanUnpost returns a state error unless the document is CASH_PENDING or POSTED
func (d *Document) CanUnpost() error {
	if !d.Status.HasMoves() {
		return newStateError(ErrNotPosted, "document %s is %s and cannot be unposted", d.label(), d.Status)
	}
	return nil
}

// CanDecide returns a state error unless the document awaits a cash decision
func (d *Document) CanDecide() error {
	switch d.Status {
	case DocumentStatusCashPending:
		return nil
	case DocumentStatusDraft:
		return newStateError(ErrNotPosted, "document %s is not posted", d.label())
	default:
		return newStateError(ErrAlreadyProcessed, "document %s is already %s", d.label(), d.Status)
	}
}

// MarkPosted moves a DRAFT document into CASH_PENDING when gated, else POSTED
func (d *Document) MarkPosted(gated bool) error {
	if err := d.CanPost(); err != nil {
		return err
	}
	if gated {
		d.Status = DocumentStatusCashPending
	} else {
		d.Status = DocumentStatusPosted
	}
	now := time.Now()
	d.PostedAt = &now
	d.UpdatedAt = now
	d.IncrementVersion()
	d.AddDomainEvent(NewDocumentPostedEvent(d))
	return nil
}

// ConfirmPosting moves a CASH_PENDING document to POSTED after approval
func (d *Document) ConfirmPosting() error {
	if err := d.CanDecide(); err != nil {
		return err
	}
	d.Status = DocumentStatusPosted
	d.Touch()
	d.IncrementVersion()
	return nil
}

// MarkUnposted returns a CASH_PENDING or POSTED document to DRAFT
func (d *Document) MarkUnposted() error {
	if err := d.CanUnpost(); err != nil {
		return err
	}
	previous := d.Status
	d.Status = DocumentStatusDraft
	d.PostedAt = nil
	d.Touch()
	d.IncrementVersion()
	d.AddDomainEvent(NewDocumentUnpostedEvent(d, previous))
	return nil
}

// MarkRejected closes a reversed document as REJECTED
func (d *Document) MarkRejected() error {
	if d.Status != DocumentStatusDraft {
		return newStateError(ErrAlreadyProcessed, "document %s must be reversed before rejection", d.label())
	}
	d.Status = DocumentStatusRejected
	d.Touch()
	d.IncrementVersion()
	return nil
}

// AssignNumber sets the number once; later calls are ignored
func (d *Document) AssignNumber(number string) {
	if d.Number == "" {
		d.Number = number
	}
}

func (d *Document) label() string {
	if d.Number != "" {
		return d.Number
	}
	return d.ID.String()
}

// CalculateLineTotal returns round2(max(0, price·qty·(1 − discount%/100) − discount_amount))
func (i *DocumentItem) CalculateLineTotal() decimal.Decimal {
	gross := valueobject.ApplyPercentDiscount(i.Price.Mul(i.Qty), i.DiscountPercent)
	return valueobject.RoundMoney(valueobject.NonNegative(gross.Sub(i.DiscountAmount)))
}

// SetDiscount sets both discount forms and refreshes the line total
func (i *DocumentItem) SetDiscount(percent, amount decimal.Decimal) {
	i.DiscountPercent = percent
	i.DiscountAmount = amount
	i.LineTotal = i.CalculateLineTotal()
}

// Clean checks the item rules against its product and owning document
func (i *DocumentItem) Clean(product *Product, doc *Document) error {
	v := &ValidationError{}
	if product == nil {
		v.Add("product_id", "product not found")
		return v
	}
	if product.CompanyID != doc.CompanyID {
		v.Add("product_id", "product belongs to another company")
	}
	if product.WarehouseID != doc.WarehouseFromID {
		v.Add("product_id", fmt.Sprintf("product %q is not stocked in the source warehouse", product.DisplayName()))
	}
	if !i.Qty.IsPositive() {
		v.Add("qty", "must be positive")
	} else if !product.IsWeight && !valueobject.IsWhole(i.Qty) {
		v.Add("qty", fmt.Sprintf("must be a whole number for %q", product.DisplayName()))
	} else if !i.Qty.Equal(valueobject.RoundQuantity(i.Qty)) {
		v.Add("qty", "supports at most 3 decimal places")
	}
	if i.Price.IsNegative() {
		v.Add("price", "must not be negative")
	}
	if !valueobject.IsPercent(i.DiscountPercent) {
		v.Add("discount_percent", "must be between 0 and 100")
	}
	if i.DiscountAmount.IsNegative() {
		v.Add("discount_amount", "must not be negative")
	}
	return v.OrNil()
}
