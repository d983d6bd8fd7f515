package warehouse

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCashApprovalRequest(t *testing.T) {
	t.Run("cash sale requires receipt", func(t *testing.T) {
		doc := newTestDocument(t, DocTypeSale)
		doc.Total = dec("4500")
		req := NewCashApprovalRequest(doc)

		assert.Equal(t, CashRequestStatusPending, req.Status)
		assert.True(t, req.RequiresMoney)
		require.NotNil(t, req.MoneyDocType)
		assert.Equal(t, MoneyDocTypeReceipt, *req.MoneyDocType)
		assert.True(t, req.Amount.Equal(dec("4500")))
	})

	t.Run("agent documents never require money", func(t *testing.T) {
		doc := newTestDocument(t, DocTypeSale)
		agent := uuid.New()
		doc.AgentID = &agent
		assert.False(t, NewCashApprovalRequest(doc).RequiresMoney)
	})

	t.Run("non trade documents have no money type", func(t *testing.T) {
		req := NewCashApprovalRequest(newTestDocument(t, DocTypeWriteOff))
		assert.False(t, req.RequiresMoney)
		assert.Nil(t, req.MoneyDocType)
	})

	t.Run("credit documents do not require money", func(t *testing.T) {
		doc := newTestDocument(t, DocTypePurchase)
		doc.PaymentKind = PaymentKindCredit
		req := NewCashApprovalRequest(doc)
		assert.False(t, req.RequiresMoney)
		require.NotNil(t, req.MoneyDocType)
		assert.Equal(t, MoneyDocTypeExpense, *req.MoneyDocType)
	})
}

func TestCashApprovalRequest_Decisions(t *testing.T) {
	doc := newTestDocument(t, DocTypeSale)
	user := uuid.New()

	t.Run("approve once", func(t *testing.T) {
		req := NewCashApprovalRequest(doc)
		money := uuid.New()
		require.NoError(t, req.Approve(&user, "ok", &money))
		assert.Equal(t, CashRequestStatusApproved, req.Status)
		assert.Equal(t, &money, req.MoneyDocumentID)
		assert.NotNil(t, req.DecidedAt)

		err := req.Approve(&user, "again", nil)
		assert.True(t, errors.Is(err, ErrAlreadyProcessed))
		assert.True(t, errors.Is(req.Reject(&user, "no"), ErrAlreadyProcessed))
	})

	t.Run("reset reopens a decided request", func(t *testing.T) {
		req := NewCashApprovalRequest(doc)
		require.NoError(t, req.Reject(&user, "wrong price"))
		doc.Total = dec("12.50")

		req.Reset(doc)
		assert.True(t, req.IsPending())
		assert.Nil(t, req.DecidedBy)
		assert.Empty(t, req.DecisionNote)
		assert.True(t, req.Amount.Equal(dec("12.50")))
	})
}
