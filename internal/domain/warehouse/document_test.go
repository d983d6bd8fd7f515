package warehouse

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestDocument(t *testing.T, docType DocType) *Document {
	t.Helper()
	doc, err := NewDocument(uuid.New(), nil, docType, uuid.New(), time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	if docType.IsTrade() {
		cp := uuid.New()
		doc.CounterpartyID = &cp
	}
	return doc
}

func newTestProduct(doc *Document, isWeight bool) *Product {
	return &Product{
		BaseEntity:  shared.NewBaseEntity(),
		CompanyID:   doc.CompanyID,
		WarehouseID: doc.WarehouseFromID,
		Name:        "Cola 0.5",
		IsWeight:    isWeight,
	}
}

func TestNewDocument(t *testing.T) {
	t.Run("creates draft cash document", func(t *testing.T) {
		doc := newTestDocument(t, DocTypeSale)
		assert.Equal(t, DocumentStatusDraft, doc.Status)
		assert.Equal(t, PaymentKindCash, doc.PaymentKind)
		assert.True(t, doc.Total.IsZero())
		assert.Empty(t, doc.Number)
	})

	t.Run("rejects unknown doc type", func(t *testing.T) {
		_, err := NewDocument(uuid.New(), nil, DocType("ORDER"), uuid.New(), time.Now())
		assert.Error(t, err)
	})

	t.Run("rejects empty warehouse", func(t *testing.T) {
		_, err := NewDocument(uuid.New(), nil, DocTypeSale, uuid.Nil, time.Now())
		assert.Error(t, err)
	})
}

func TestDocument_Totals(t *testing.T) {
	t.Run("sale example", func(t *testing.T) {
		doc := newTestDocument(t, DocTypeSale)
		_, err := doc.AddItem(uuid.New(), dec("30"), dec("150"))
		require.NoError(t, err)

		assert.True(t, doc.RecalcTotals())
		assert.Equal(t, "4500.00", doc.Total.StringFixed(2))
	})

	t.Run("line discounts and document discount", func(t *testing.T) {
		doc := newTestDocument(t, DocTypeSale)
		item, err := doc.AddItem(uuid.New(), dec("3"), dec("10.10"))
		require.NoError(t, err)
		item.SetDiscount(dec("10"), dec("1"))
		_, err = doc.AddItem(uuid.New(), dec("1"), dec("5"))
		require.NoError(t, err)
		doc.DiscountPercent = dec("50")

		doc.RecalcTotals()
		// 3·10.10·0.9 − 1 = 26.27; (26.27 + 5)·0.5 = 15.635
		assert.Equal(t, "26.27", doc.Items[0].LineTotal.StringFixed(2))
		assert.Equal(t, "15.64", doc.Total.StringFixed(2))
	})

	t.Run("line total never negative", func(t *testing.T) {
		doc := newTestDocument(t, DocTypeSale)
		item, err := doc.AddItem(uuid.New(), dec("1"), dec("5"))
		require.NoError(t, err)
		item.SetDiscount(decimal.Zero, dec("7"))
		doc.RecalcTotals()
		assert.True(t, doc.Items[0].LineTotal.IsZero())
		assert.True(t, doc.Total.IsZero())
	})

	t.Run("recalc is idempotent", func(t *testing.T) {
		doc := newTestDocument(t, DocTypePurchase)
		_, err := doc.AddItem(uuid.New(), dec("2.5"), dec("3.33"))
		require.NoError(t, err)

		doc.RecalcTotals()
		first := doc.Total
		assert.False(t, doc.RecalcTotals())
		assert.True(t, first.Equal(doc.Total))
	})
}

func TestDocument_Clean(t *testing.T) {
	fieldErr := func(t *testing.T, err error, field string) {
		t.Helper()
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
		assert.Contains(t, ve.Fields, field)
	}

	t.Run("valid sale", func(t *testing.T) {
		assert.NoError(t, newTestDocument(t, DocTypeSale).Clean())
	})

	t.Run("trade requires counterparty", func(t *testing.T) {
		doc := newTestDocument(t, DocTypePurchase)
		doc.CounterpartyID = nil
		fieldErr(t, doc.Clean(), "counterparty_id")
	})

	t.Run("receipt needs no counterparty", func(t *testing.T) {
		assert.NoError(t, newTestDocument(t, DocTypeReceipt).Clean())
	})

	t.Run("transfer requires distinct destination", func(t *testing.T) {
		doc := newTestDocument(t, DocTypeTransfer)
		fieldErr(t, doc.Clean(), "warehouse_to_id")

		same := doc.WarehouseFromID
		doc.WarehouseToID = &same
		fieldErr(t, doc.Clean(), "warehouse_to_id")

		other := uuid.New()
		doc.WarehouseToID = &other
		assert.NoError(t, doc.Clean())
	})

	t.Run("destination only for transfer", func(t *testing.T) {
		doc := newTestDocument(t, DocTypeWriteOff)
		to := uuid.New()
		doc.WarehouseToID = &to
		fieldErr(t, doc.Clean(), "warehouse_to_id")
	})

	t.Run("agent not allowed for transfer and inventory", func(t *testing.T) {
		for _, dt := range []DocType{DocTypeTransfer, DocTypeInventory} {
			doc := newTestDocument(t, dt)
			agent := uuid.New()
			doc.AgentID = &agent
			fieldErr(t, doc.Clean(), "agent_id")
		}
	})

	t.Run("discount percent out of range", func(t *testing.T) {
		doc := newTestDocument(t, DocTypeSale)
		doc.DiscountPercent = dec("100.5")
		fieldErr(t, doc.Clean(), "discount_percent")
	})

	t.Run("prepayment only on credit and bounded by total", func(t *testing.T) {
		doc := newTestDocument(t, DocTypeSale)
		_, err := doc.AddItem(uuid.New(), dec("2"), dec("50"))
		require.NoError(t, err)

		doc.PrepaymentAmount = dec("10")
		fieldErr(t, doc.Clean(), "prepayment_amount")

		doc.PaymentKind = PaymentKindCredit
		assert.NoError(t, doc.Clean())

		doc.PrepaymentAmount = dec("100.01")
		fieldErr(t, doc.Clean(), "prepayment_amount")
	})
}

func TestDocumentItem_Clean(t *testing.T) {
	doc := newTestDocument(t, DocTypeSale)

	t.Run("fractional qty requires weight product", func(t *testing.T) {
		item := DocumentItem{Qty: dec("1.5"), Price: dec("1")}
		err := item.Clean(newTestProduct(doc, false), doc)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
		assert.NoError(t, item.Clean(newTestProduct(doc, true), doc))
	})

	t.Run("qty precision limited to 3 places", func(t *testing.T) {
		item := DocumentItem{Qty: dec("1.2345"), Price: dec("1")}
		assert.Error(t, item.Clean(newTestProduct(doc, true), doc))
	})

	t.Run("qty must be positive", func(t *testing.T) {
		item := DocumentItem{Qty: decimal.Zero, Price: dec("1")}
		assert.Error(t, item.Clean(newTestProduct(doc, false), doc))
	})

	t.Run("product must belong to source warehouse", func(t *testing.T) {
		product := newTestProduct(doc, false)
		product.WarehouseID = uuid.New()
		item := DocumentItem{Qty: dec("1"), Price: dec("1")}
		assert.Error(t, item.Clean(product, doc))
	})

	t.Run("negative price and discounts", func(t *testing.T) {
		item := DocumentItem{Qty: dec("1"), Price: dec("-1"), DiscountPercent: dec("120"), DiscountAmount: dec("-2")}
		err := item.Clean(newTestProduct(doc, false), doc)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Len(t, ve.Fields, 3)
	})
}

func TestDocument_CleanItems(t *testing.T) {
	doc := newTestDocument(t, DocTypeSale)
	assert.Error(t, doc.CleanItems(nil), "document without items")

	product := newTestProduct(doc, false)
	_, err := doc.AddItem(product.ID, dec("1"), dec("1"))
	require.NoError(t, err)
	_, err = doc.AddItem(uuid.New(), dec("1"), dec("1"))
	require.NoError(t, err)

	err = doc.CleanItems(map[uuid.UUID]*Product{product.ID: product})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "product not found", ve.Fields["items[1].product_id"])
}

func TestDocument_Transitions(t *testing.T) {
	t.Run("gated post then approve", func(t *testing.T) {
		doc := newTestDocument(t, DocTypeSale)
		require.NoError(t, doc.MarkPosted(true))
		assert.Equal(t, DocumentStatusCashPending, doc.Status)
		assert.NotNil(t, doc.PostedAt)
		require.Len(t, doc.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeDocumentPosted, doc.GetDomainEvents()[0].EventType())

		require.NoError(t, doc.ConfirmPosting())
		assert.Equal(t, DocumentStatusPosted, doc.Status)
	})

	t.Run("double post is rejected", func(t *testing.T) {
		doc := newTestDocument(t, DocTypeSale)
		require.NoError(t, doc.MarkPosted(false))
		err := doc.MarkPosted(false)
		assert.True(t, errors.Is(err, ErrAlreadyPosted))
	})

	t.Run("unpost requires posted status", func(t *testing.T) {
		doc := newTestDocument(t, DocTypeSale)
		assert.True(t, errors.Is(doc.MarkUnposted(), ErrNotPosted))

		require.NoError(t, doc.MarkPosted(false))
		require.NoError(t, doc.MarkUnposted())
		assert.Equal(t, DocumentStatusDraft, doc.Status)
		assert.Nil(t, doc.PostedAt)
	})

	t.Run("reject after reversal", func(t *testing.T) {
		doc := newTestDocument(t, DocTypeSale)
		require.NoError(t, doc.MarkPosted(true))
		assert.Error(t, doc.MarkRejected())
		require.NoError(t, doc.MarkUnposted())
		require.NoError(t, doc.MarkRejected())
		assert.Equal(t, DocumentStatusRejected, doc.Status)
		assert.True(t, errors.Is(doc.MarkPosted(true), ErrAlreadyPosted))
	})

	t.Run("items frozen after posting", func(t *testing.T) {
		doc := newTestDocument(t, DocTypeSale)
		require.NoError(t, doc.MarkPosted(true))
		_, err := doc.AddItem(uuid.New(), dec("1"), dec("1"))
		assert.Error(t, err)
	})

	t.Run("number assigned once", func(t *testing.T) {
		doc := newTestDocument(t, DocTypeSale)
		doc.AssignNumber("SALE-20260314-0001")
		doc.AssignNumber("SALE-20260314-0002")
		assert.Equal(t, "SALE-20260314-0001", doc.Number)
	})
}

func TestDocument_CanDecide(t *testing.T) {
	doc := newTestDocument(t, DocTypeSale)
	assert.True(t, errors.Is(doc.CanDecide(), ErrNotPosted))

	require.NoError(t, doc.MarkPosted(true))
	assert.NoError(t, doc.CanDecide())

	require.NoError(t, doc.ConfirmPosting())
	assert.True(t, errors.Is(doc.CanDecide(), ErrAlreadyProcessed))
}
