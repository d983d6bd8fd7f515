package warehouse

// DocType identifies the business transaction a Document records
type DocType string

const (
	DocTypeSale           DocType = "SALE"
	DocTypePurchase       DocType = "PURCHASE"
	DocTypeSaleReturn     DocType = "SALE_RETURN"
	DocTypePurchaseReturn DocType = "PURCHASE_RETURN"
	DocTypeTransfer       DocType = "TRANSFER"
	DocTypeInventory      DocType = "INVENTORY"
	DocTypeReceipt        DocType = "RECEIPT"
	DocTypeWriteOff       DocType = "WRITE_OFF"
)

// stockSigns maps every single-sided doc type to the sign applied to item quantities.
// TRANSFER and INVENTORY compute their deltas differently and are absent on purpose.
var stockSigns = map[DocType]int64{
	DocTypeSale:           -1,
	DocTypePurchase:       1,
	DocTypeSaleReturn:     1,
	DocTypePurchaseReturn: -1,
	DocTypeReceipt:        1,
	DocTypeWriteOff:       -1,
}

// moneyDocTypes maps trade doc types to the cash-side document their payment produces
var moneyDocTypes = map[DocType]MoneyDocType{
	DocTypeSale:           MoneyDocTypeReceipt,
	DocTypePurchaseReturn: MoneyDocTypeReceipt,
	DocTypePurchase:       MoneyDocTypeExpense,
	DocTypeSaleReturn:     MoneyDocTypeExpense,
}

// String returns the string representation of DocType
func (t DocType) String() string {
	return string(t)
}

// IsValid returns true if the doc type is known
func (t DocType) IsValid() bool {
	switch t {
	case DocTypeSale,
		DocTypePurchase,
		DocTypeSaleReturn,
		DocTypePurchaseReturn,
		DocTypeTransfer,
		DocTypeInventory,
		DocTypeReceipt,
		DocTypeWriteOff:
		return true
	}
	return false
}

// StockSign returns the sign applied to item quantities and whether the doc type
// is posted as one signed move per item.
func (t DocType) StockSign() (int64, bool) {
	s, ok := stockSigns[t]
	return s, ok
}

// MoneyDocType returns the money document type produced by paying this document
func (t DocType) MoneyDocType() (MoneyDocType, bool) {
	m, ok := moneyDocTypes[t]
	return m, ok
}

// IsTrade returns true for doc types that exchange goods with a counterparty
func (t DocType) IsTrade() bool {
	_, ok := moneyDocTypes[t]
	return ok
}

// AllowsAgent returns false for doc types that cannot run through the agent ledger
func (t DocType) AllowsAgent() bool {
	return t != DocTypeTransfer && t != DocTypeInventory
}

// DocumentStatus is the posting state of a Document
type DocumentStatus string

const (
	DocumentStatusDraft       DocumentStatus = "DRAFT"
	DocumentStatusCashPending DocumentStatus = "CASH_PENDING"
	DocumentStatusPosted      DocumentStatus = "POSTED"
	DocumentStatusRejected    DocumentStatus = "REJECTED"
)

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is known
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusDraft, DocumentStatusCashPending, DocumentStatusPosted, DocumentStatusRejected:
		return true
	}
	return false
}

// HasMoves reports whether a document in this status owns ledger moves
func (s DocumentStatus) HasMoves() bool {
	return s == DocumentStatusCashPending || s == DocumentStatusPosted
}

// PaymentKind tells whether a document is paid immediately or on credit
type PaymentKind string

const (
	PaymentKindCash   PaymentKind = "CASH"
	PaymentKindCredit PaymentKind = "CREDIT"
)

// IsValid returns true if the payment kind is known
func (k PaymentKind) IsValid() bool {
	return k == PaymentKindCash || k == PaymentKindCredit
}

// MoneyDocType identifies a cash-side document
type MoneyDocType string

const (
	MoneyDocTypeReceipt MoneyDocType = "MONEY_RECEIPT"
	MoneyDocTypeExpense MoneyDocType = "MONEY_EXPENSE"
)

// String returns the string representation of MoneyDocType
func (t MoneyDocType) String() string {
	return string(t)
}

// IsValid returns true if the money doc type is known
func (t MoneyDocType) IsValid() bool {
	return t == MoneyDocTypeReceipt || t == MoneyDocTypeExpense
}

// CategoryKind returns the payment category kind a money document of this type books against
func (t MoneyDocType) CategoryKind() PaymentCategoryKind {
	if t == MoneyDocTypeExpense {
		return PaymentCategoryKindExpense
	}
	return PaymentCategoryKindIncome
}

// MoneyDocumentStatus is the posting state of a MoneyDocument
type MoneyDocumentStatus string

const (
	MoneyDocumentStatusDraft  MoneyDocumentStatus = "DRAFT"
	MoneyDocumentStatusPosted MoneyDocumentStatus = "POSTED"
)

// CashRequestStatus is the decision state of a CashApprovalRequest
type CashRequestStatus string

const (
	CashRequestStatusPending  CashRequestStatus = "PENDING"
	CashRequestStatusApproved CashRequestStatus = "APPROVED"
	CashRequestStatusRejected CashRequestStatus = "REJECTED"
)

// PaymentCategoryKind separates income and expense categories
type PaymentCategoryKind string

const (
	PaymentCategoryKindIncome  PaymentCategoryKind = "INCOME"
	PaymentCategoryKindExpense PaymentCategoryKind = "EXPENSE"
)
