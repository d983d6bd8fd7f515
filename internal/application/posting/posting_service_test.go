package posting_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/warehouse/internal/application/posting"
	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/erp/warehouse/internal/domain/warehouse"
	"github.com/erp/warehouse/internal/infrastructure/cache"
	"github.com/erp/warehouse/internal/infrastructure/event"
	"github.com/erp/warehouse/internal/infrastructure/persistence"
	"github.com/erp/warehouse/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *recordingMetrics) inc(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[key]++
}

func (m *recordingMetrics) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}

func (m *recordingMetrics) DocumentPosted(_ context.Context, t warehouse.DocType) {
	m.inc("posted:" + t.String())
}

func (m *recordingMetrics) DocumentUnposted(_ context.Context, t warehouse.DocType) {
	m.inc("unposted:" + t.String())
}

func (m *recordingMetrics) InsufficientStock(_ context.Context, t warehouse.DocType) {
	m.inc("insufficient:" + t.String())
}

func (m *recordingMetrics) MoneyDocumentPosted(_ context.Context, t warehouse.MoneyDocType) {
	m.inc("money_posted:" + t.String())
}

type testEnv struct {
	*testutil.Fixture
	locker  *cache.InMemoryCompanyLocker
	posting *posting.PostingService
	money   *posting.MoneyPostingService
	events  *testutil.MockEventHandler
	metrics *recordingMetrics
	logs    *observer.ObservedLogs
}

func newTestEnv(t *testing.T, opts posting.LedgerOptions) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	scope := persistence.NewGormTransactionScope(db)
	locker := cache.NewInMemoryCompanyLocker(cache.LockOptions{TTL: time.Second, Retries: 5, RetryDelay: 10 * time.Millisecond})
	money := posting.NewMoneyPostingService(scope, logger)
	svc := posting.NewPostingService(scope,
		posting.NewStockLedger(opts, logger),
		posting.NewAgentStockLedger(logger),
		money,
		posting.NewDestinationResolver(locker, logger),
		logger,
	)

	bus := event.NewInMemoryEventBus(logger)
	handler := testutil.NewMockEventHandler()
	bus.Subscribe(handler)
	svc.SetEventPublisher(bus)
	money.SetEventPublisher(bus)

	metrics := &recordingMetrics{}
	svc.SetMetrics(metrics)
	money.SetMetrics(metrics)

	return &testEnv{
		Fixture: testutil.NewFixture(t, db),
		locker:  locker,
		posting: svc,
		money:   money,
		events:  handler,
		metrics: metrics,
		logs:    logs,
	}
}

func boolPtr(b bool) *bool { return &b }

func TestPostDocument_CashSale(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	product := env.AddProduct(t, env.Main, "Flour", "100")
	doc := env.NewDocument(t, warehouse.DocTypeSale, env.Main, testutil.Line{Product: product, Qty: "30", Price: "150"})
	env.SaveDocument(t, doc)

	posted, err := env.posting.PostDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, warehouse.DocumentStatusCashPending, posted.Status)
	assert.Equal(t, "SALE-20240315-0001", posted.Number)
	testutil.AssertDecimal(t, "4500.00", posted.Total)
	assert.NotNil(t, posted.PostedAt)

	testutil.AssertDecimal(t, "70", env.Balance(t, env.Main, product.ID))
	testutil.AssertDecimal(t, "70", env.Product(t, product.ID).Quantity)

	moves := env.Moves(t, doc.ID)
	require.Len(t, moves, 1)
	testutil.AssertDecimal(t, "-30", moves[0].QtyDelta)
	assert.Equal(t, env.Main.ID, moves[0].WarehouseID)

	req := env.CashRequest(t, doc.ID)
	assert.Equal(t, warehouse.CashRequestStatusPending, req.Status)
	assert.True(t, req.RequiresMoney)
	require.NotNil(t, req.MoneyDocType)
	assert.Equal(t, warehouse.MoneyDocTypeReceipt, *req.MoneyDocType)
	testutil.AssertDecimal(t, "4500", req.Amount)

	stored := env.Document(t, doc.ID)
	assert.Equal(t, warehouse.DocumentStatusCashPending, stored.Status)
	assert.Equal(t, "SALE-20240315-0001", stored.Number)

	assert.Equal(t, []string{warehouse.EventTypeDocumentPosted}, env.events.HandledTypes())
	assert.Equal(t, 1, env.metrics.count("posted:SALE"))
}

func TestPostDocument_NumbersAreSequentialPerType(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	product := env.AddProduct(t, env.Main, "Flour", "100")

	var numbers []string
	for _, docType := range []warehouse.DocType{warehouse.DocTypeSale, warehouse.DocTypeSale, warehouse.DocTypeWriteOff} {
		doc := env.NewDocument(t, docType, env.Main, testutil.Line{Product: product, Qty: "1", Price: "1"})
		env.SaveDocument(t, doc)
		posted, err := env.posting.PostDocument(ctx, doc.ID, nil)
		require.NoError(t, err)
		numbers = append(numbers, posted.Number)
	}
	assert.Equal(t, []string{"SALE-20240315-0001", "SALE-20240315-0002", "WRITE_OFF-20240315-0001"}, numbers)
}

func TestPostDocument_MoveSigns(t *testing.T) {
	tests := []struct {
		docType warehouse.DocType
		want    string
	}{
		{warehouse.DocTypeSale, "-4"},
		{warehouse.DocTypePurchase, "4"},
		{warehouse.DocTypeSaleReturn, "4"},
		{warehouse.DocTypePurchaseReturn, "-4"},
		{warehouse.DocTypeReceipt, "4"},
		{warehouse.DocTypeWriteOff, "-4"},
	}
	for _, tt := range tests {
		t.Run(tt.docType.String(), func(t *testing.T) {
			env := newTestEnv(t, posting.LedgerOptions{})
			product := env.AddProduct(t, env.Main, "Flour", "10")
			doc := env.NewDocument(t, tt.docType, env.Main, testutil.Line{Product: product, Qty: "4", Price: "5"})
			env.SaveDocument(t, doc)

			_, err := env.posting.PostDocument(context.Background(), doc.ID, nil)
			require.NoError(t, err)

			moves := env.Moves(t, doc.ID)
			require.Len(t, moves, 1)
			testutil.AssertDecimal(t, tt.want, moves[0].QtyDelta)
			testutil.AssertDecimal(t, testutil.Dec("10").Add(testutil.Dec(tt.want)).String(), env.Balance(t, env.Main, product.ID))
		})
	}
}

func TestPostDocument_InsufficientStock(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	flour := env.AddProduct(t, env.Main, "Flour", "100")
	sugar := env.AddProduct(t, env.Main, "Sugar", "5")
	doc := env.NewDocument(t, warehouse.DocTypeSale, env.Main,
		testutil.Line{Product: flour, Qty: "10", Price: "1"},
		testutil.Line{Product: sugar, Qty: "8", Price: "1"},
	)
	env.SaveDocument(t, doc)

	_, err := env.posting.PostDocument(ctx, doc.ID, nil)
	require.Error(t, err)

	var insufficient *warehouse.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Equal(t, sugar.ID, insufficient.ProductID)
	assert.Equal(t, "Main", insufficient.WarehouseName)
	testutil.AssertDecimal(t, "5", insufficient.Available)
	testutil.AssertDecimal(t, "8", insufficient.Required)

	// The whole posting rolled back, including the first item and the number.
	testutil.AssertDecimal(t, "100", env.Balance(t, env.Main, flour.ID))
	testutil.AssertDecimal(t, "5", env.Balance(t, env.Main, sugar.ID))
	assert.Empty(t, env.Moves(t, doc.ID))
	stored := env.Document(t, doc.ID)
	assert.Equal(t, warehouse.DocumentStatusDraft, stored.Status)
	assert.Empty(t, stored.Number)

	assert.Empty(t, env.events.HandledTypes())
	assert.Equal(t, 1, env.metrics.count("insufficient:SALE"))
	assert.Equal(t, 1, env.logs.FilterMessage("post document failed").FilterField(zap.String("doc_type", "SALE")).Len())

	t.Run("override allows negative balance", func(t *testing.T) {
		posted, err := env.posting.PostDocument(ctx, doc.ID, boolPtr(true))
		require.NoError(t, err)
		assert.Equal(t, warehouse.DocumentStatusCashPending, posted.Status)
		testutil.AssertDecimal(t, "-3", env.Balance(t, env.Main, sugar.ID))
	})
}

func TestPostDocument_LedgerAllowsNegative(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{AllowNegative: true})
	product := env.AddProduct(t, env.Main, "Flour", "2")
	doc := env.NewDocument(t, warehouse.DocTypeWriteOff, env.Main, testutil.Line{Product: product, Qty: "5", Price: "1"})
	env.SaveDocument(t, doc)

	t.Run("override refuses", func(t *testing.T) {
		_, err := env.posting.PostDocument(context.Background(), doc.ID, boolPtr(false))
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})

	t.Run("default allows", func(t *testing.T) {
		_, err := env.posting.PostDocument(context.Background(), doc.ID, nil)
		require.NoError(t, err)
		testutil.AssertDecimal(t, "-3", env.Balance(t, env.Main, product.ID))
	})
}

func TestPostDocument_Validation(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	product := env.AddProduct(t, env.Main, "Flour", "100")
	elsewhere := env.AddProduct(t, env.Store, "Salt", "100")

	tests := []struct {
		name  string
		build func() *warehouse.Document
		field string
	}{
		{
			name: "trade document without counterparty",
			build: func() *warehouse.Document {
				doc := env.NewDocument(t, warehouse.DocTypeSale, env.Main, testutil.Line{Product: product, Qty: "1", Price: "1"})
				doc.CounterpartyID = nil
				return doc
			},
			field: "counterparty_id",
		},
		{
			name: "transfer to the same warehouse",
			build: func() *warehouse.Document {
				doc := env.NewDocument(t, warehouse.DocTypeTransfer, env.Main, testutil.Line{Product: product, Qty: "1", Price: "1"})
				doc.WarehouseToID = &env.Main.ID
				return doc
			},
			field: "warehouse_to_id",
		},
		{
			name: "prepayment on cash document",
			build: func() *warehouse.Document {
				doc := env.NewDocument(t, warehouse.DocTypeSale, env.Main, testutil.Line{Product: product, Qty: "1", Price: "100"})
				doc.PrepaymentAmount = testutil.Dec("10")
				return doc
			},
			field: "prepayment_amount",
		},
		{
			name: "prepayment above total",
			build: func() *warehouse.Document {
				doc := env.NewDocument(t, warehouse.DocTypeSale, env.Main, testutil.Line{Product: product, Qty: "1", Price: "100"})
				doc.PaymentKind = warehouse.PaymentKindCredit
				doc.PrepaymentAmount = testutil.Dec("100.01")
				return doc
			},
			field: "prepayment_amount",
		},
		{
			name: "fractional quantity of piece product",
			build: func() *warehouse.Document {
				return env.NewDocument(t, warehouse.DocTypeSale, env.Main, testutil.Line{Product: product, Qty: "1.5", Price: "1"})
			},
			field: "items[0].qty",
		},
		{
			name: "product from another warehouse",
			build: func() *warehouse.Document {
				return env.NewDocument(t, warehouse.DocTypeSale, env.Main, testutil.Line{Product: elsewhere, Qty: "1", Price: "1"})
			},
			field: "items[0].product_id",
		},
		{
			name: "no items",
			build: func() *warehouse.Document {
				return env.NewDocument(t, warehouse.DocTypeWriteOff, env.Main)
			},
			field: "items",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tt.build()
			env.SaveDocument(t, doc)

			_, err := env.posting.PostDocument(ctx, doc.ID, nil)
			require.ErrorIs(t, err, warehouse.ErrValidation)
			var v *warehouse.ValidationError
			require.True(t, errors.As(err, &v))
			assert.Contains(t, v.Fields, tt.field)
			assert.Equal(t, warehouse.DocumentStatusDraft, env.Document(t, doc.ID).Status)
		})
	}
	testutil.AssertDecimal(t, "100", env.Balance(t, env.Main, product.ID))
}

func TestPostDocument_StateErrors(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	product := env.AddProduct(t, env.Main, "Flour", "100")
	doc := env.NewDocument(t, warehouse.DocTypeSale, env.Main, testutil.Line{Product: product, Qty: "1", Price: "1"})
	env.SaveDocument(t, doc)

	t.Run("unpost draft", func(t *testing.T) {
		_, err := env.posting.UnpostDocument(ctx, doc.ID)
		assert.ErrorIs(t, err, warehouse.ErrNotPosted)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("approve draft", func(t *testing.T) {
		_, err := env.posting.ApproveCashRequest(ctx, doc.ID, posting.DecisionRequest{})
		assert.ErrorIs(t, err, warehouse.ErrNotPosted)
	})

	_, err := env.posting.PostDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	t.Run("post twice", func(t *testing.T) {
		_, err := env.posting.PostDocument(ctx, doc.ID, nil)
		assert.ErrorIs(t, err, warehouse.ErrAlreadyPosted)
		testutil.AssertDecimal(t, "99", env.Balance(t, env.Main, product.ID))
	})

	t.Run("recalc posted", func(t *testing.T) {
		_, err := env.posting.RecalcDocumentTotals(ctx, doc.ID)
		assert.ErrorIs(t, err, warehouse.ErrAlreadyPosted)
	})

	t.Run("reject without note", func(t *testing.T) {
		_, err := env.posting.RejectCashRequest(ctx, doc.ID, posting.DecisionRequest{})
		var v *warehouse.ValidationError
		require.True(t, errors.As(err, &v))
		assert.Contains(t, v.Fields, "note")
	})

	_, err = env.posting.ApproveCashRequest(ctx, doc.ID, posting.DecisionRequest{})
	require.NoError(t, err)

	t.Run("approve twice", func(t *testing.T) {
		_, err := env.posting.ApproveCashRequest(ctx, doc.ID, posting.DecisionRequest{})
		assert.ErrorIs(t, err, warehouse.ErrAlreadyProcessed)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := env.posting.PostDocument(ctx, uuid.New(), nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestApproveCashRequest_CreatesMoneyDocument(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	product := env.AddProduct(t, env.Main, "Flour", "100")
	doc := env.NewDocument(t, warehouse.DocTypeSale, env.Main, testutil.Line{Product: product, Qty: "30", Price: "150"})
	env.SaveDocument(t, doc)
	_, err := env.posting.PostDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	cashier := testutil.TestUserID()
	approved, err := env.posting.ApproveCashRequest(ctx, doc.ID, posting.DecisionRequest{DecidedBy: &cashier, Note: "paid"})
	require.NoError(t, err)
	assert.Equal(t, warehouse.DocumentStatusPosted, approved.Status)

	req := env.CashRequest(t, doc.ID)
	assert.Equal(t, warehouse.CashRequestStatusApproved, req.Status)
	require.NotNil(t, req.DecidedBy)
	assert.Equal(t, cashier, *req.DecidedBy)
	assert.NotNil(t, req.DecidedAt)
	assert.Equal(t, "paid", req.DecisionNote)
	require.NotNil(t, req.MoneyDocumentID)

	m := env.MoneyDocument(t, *req.MoneyDocumentID)
	assert.Equal(t, warehouse.MoneyDocTypeReceipt, m.DocType)
	assert.Equal(t, warehouse.MoneyDocumentStatusPosted, m.Status)
	assert.Equal(t, "MONEY_RECEIPT-20240315-0001", m.Number)
	testutil.AssertDecimal(t, "4500", m.Amount)
	assert.Equal(t, env.Register.ID, m.CashRegisterID)
	require.NotNil(t, m.PaymentCategoryID)
	assert.Equal(t, env.Income.ID, *m.PaymentCategoryID)
	require.NotNil(t, m.SourceDocumentID)
	assert.Equal(t, doc.ID, *m.SourceDocumentID)
	require.NotNil(t, m.CounterpartyID)
	assert.Equal(t, env.Customer.ID, *m.CounterpartyID)

	testutil.AssertDecimal(t, "70", env.Balance(t, env.Main, product.ID))
	assert.ElementsMatch(t, []string{
		warehouse.EventTypeDocumentPosted,
		warehouse.EventTypeCashRequestApproved,
		warehouse.EventTypeMoneyDocumentPosted,
	}, env.events.HandledTypes())
	assert.Equal(t, 1, env.metrics.count("money_posted:MONEY_RECEIPT"))
}

func TestApproveCashRequest_PurchaseCreatesExpense(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	product := env.AddProduct(t, env.Main, "Flour", "0")
	doc := env.NewDocument(t, warehouse.DocTypePurchase, env.Main, testutil.Line{Product: product, Qty: "12", Price: "20"})
	env.SaveDocument(t, doc)
	_, err := env.posting.PostDocument(ctx, doc.ID, nil)
	require.NoError(t, err)
	_, err = env.posting.ApproveCashRequest(ctx, doc.ID, posting.DecisionRequest{})
	require.NoError(t, err)

	req := env.CashRequest(t, doc.ID)
	require.NotNil(t, req.MoneyDocumentID)
	m := env.MoneyDocument(t, *req.MoneyDocumentID)
	assert.Equal(t, warehouse.MoneyDocTypeExpense, m.DocType)
	assert.Equal(t, env.Expense.ID, *m.PaymentCategoryID)
	testutil.AssertDecimal(t, "240", m.Amount)
	testutil.AssertDecimal(t, "12", env.Balance(t, env.Main, product.ID))
}

func TestApproveCashRequest_RegisterResolution(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	second := env.AddCashRegister(t, "Back office", true)
	product := env.AddProduct(t, env.Main, "Flour", "100")
	doc := env.NewDocument(t, warehouse.DocTypeSale, env.Main, testutil.Line{Product: product, Qty: "1", Price: "10"})
	env.SaveDocument(t, doc)
	_, err := env.posting.PostDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	_, err = env.posting.ApproveCashRequest(ctx, doc.ID, posting.DecisionRequest{})
	var v *warehouse.ValidationError
	require.True(t, errors.As(err, &v))
	assert.Contains(t, v.Fields, "cash_register_id")

	// Nothing of the failed approval survives.
	assert.Equal(t, warehouse.DocumentStatusCashPending, env.Document(t, doc.ID).Status)
	assert.True(t, env.CashRequest(t, doc.ID).IsPending())

	stored := env.Document(t, doc.ID)
	stored.CashRegisterID = &second.ID
	env.SaveDocument(t, stored)

	_, err = env.posting.ApproveCashRequest(ctx, doc.ID, posting.DecisionRequest{})
	require.NoError(t, err)
	req := env.CashRequest(t, doc.ID)
	assert.Equal(t, second.ID, env.MoneyDocument(t, *req.MoneyDocumentID).CashRegisterID)
}

func TestApproveCashRequest_WithoutMoney(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	product := env.AddProduct(t, env.Main, "Flour", "10")
	doc := env.NewDocument(t, warehouse.DocTypeWriteOff, env.Main, testutil.Line{Product: product, Qty: "2", Price: "1"})
	env.SaveDocument(t, doc)
	_, err := env.posting.PostDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	req := env.CashRequest(t, doc.ID)
	assert.False(t, req.RequiresMoney)
	assert.Nil(t, req.MoneyDocType)

	approved, err := env.posting.ApproveCashRequest(ctx, doc.ID, posting.DecisionRequest{})
	require.NoError(t, err)
	assert.Equal(t, warehouse.DocumentStatusPosted, approved.Status)
	assert.Nil(t, env.CashRequest(t, doc.ID).MoneyDocumentID)
	assert.Empty(t, env.events.HandledOfType(warehouse.EventTypeMoneyDocumentPosted))
}

func TestRejectCashRequest(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	product := env.AddProduct(t, env.Main, "Flour", "100")
	doc := env.NewDocument(t, warehouse.DocTypeSale, env.Main, testutil.Line{Product: product, Qty: "30", Price: "150"})
	env.SaveDocument(t, doc)
	_, err := env.posting.PostDocument(ctx, doc.ID, nil)
	require.NoError(t, err)
	testutil.AssertDecimal(t, "70", env.Balance(t, env.Main, product.ID))

	rejected, err := env.posting.RejectCashRequest(ctx, doc.ID, posting.DecisionRequest{Note: "customer left"})
	require.NoError(t, err)
	assert.Equal(t, warehouse.DocumentStatusRejected, rejected.Status)
	assert.Nil(t, rejected.PostedAt)

	testutil.AssertDecimal(t, "100", env.Balance(t, env.Main, product.ID))
	testutil.AssertDecimal(t, "100", env.Product(t, product.ID).Quantity)
	assert.Empty(t, env.Moves(t, doc.ID))

	req := env.CashRequest(t, doc.ID)
	assert.Equal(t, warehouse.CashRequestStatusRejected, req.Status)
	assert.Equal(t, "customer left", req.DecisionNote)
	assert.Equal(t, warehouse.DocumentStatusRejected, env.Document(t, doc.ID).Status)

	assert.Len(t, env.events.HandledOfType(warehouse.EventTypeCashRequestRejected), 1)
	assert.Equal(t, 1, env.metrics.count("unposted:SALE"))

	t.Run("rejected document cannot be posted", func(t *testing.T) {
		_, err := env.posting.PostDocument(ctx, doc.ID, nil)
		assert.ErrorIs(t, err, warehouse.ErrAlreadyPosted)
	})
}

func TestUnpostDocument_RoundTrip(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	product := env.AddProduct(t, env.Main, "Flour", "100")
	doc := env.NewDocument(t, warehouse.DocTypeSale, env.Main, testutil.Line{Product: product, Qty: "30", Price: "150"})
	env.SaveDocument(t, doc)

	_, err := env.posting.PostDocument(ctx, doc.ID, nil)
	require.NoError(t, err)
	_, err = env.posting.ApproveCashRequest(ctx, doc.ID, posting.DecisionRequest{})
	require.NoError(t, err)
	moneyID := *env.CashRequest(t, doc.ID).MoneyDocumentID

	unposted, err := env.posting.UnpostDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, warehouse.DocumentStatusDraft, unposted.Status)
	assert.Equal(t, "SALE-20240315-0001", unposted.Number)
	assert.Nil(t, unposted.PostedAt)

	testutil.AssertDecimal(t, "100", env.Balance(t, env.Main, product.ID))
	testutil.AssertDecimal(t, "100", env.Product(t, product.ID).Quantity)
	assert.Empty(t, env.Moves(t, doc.ID))

	m := env.MoneyDocument(t, moneyID)
	assert.Equal(t, warehouse.MoneyDocumentStatusDraft, m.Status)
	assert.Equal(t, "MONEY_RECEIPT-20240315-0001", m.Number)
	// An approved request stays decided.
	assert.Equal(t, warehouse.CashRequestStatusApproved, env.CashRequest(t, doc.ID).Status)
	assert.Len(t, env.events.HandledOfType(warehouse.EventTypeMoneyDocumentUnposted), 1)

	t.Run("repost keeps the number and reopens the request", func(t *testing.T) {
		reposted, err := env.posting.PostDocument(ctx, doc.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, "SALE-20240315-0001", reposted.Number)
		testutil.AssertDecimal(t, "70", env.Balance(t, env.Main, product.ID))

		req := env.CashRequest(t, doc.ID)
		assert.Equal(t, warehouse.CashRequestStatusPending, req.Status)
		assert.Nil(t, req.MoneyDocumentID)
		assert.Empty(t, req.DecisionNote)
	})
}

func TestUnpostDocument_AutoRejectsPendingRequest(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	product := env.AddProduct(t, env.Main, "Flour", "100")
	doc := env.NewDocument(t, warehouse.DocTypeSale, env.Main, testutil.Line{Product: product, Qty: "5", Price: "1"})
	env.SaveDocument(t, doc)
	_, err := env.posting.PostDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	_, err = env.posting.UnpostDocument(ctx, doc.ID)
	require.NoError(t, err)

	req := env.CashRequest(t, doc.ID)
	assert.Equal(t, warehouse.CashRequestStatusRejected, req.Status)
	assert.Equal(t, warehouse.AutoRejectNote, req.DecisionNote)
	assert.Nil(t, req.DecidedBy)
	assert.Equal(t, []string{warehouse.EventTypeDocumentPosted, warehouse.EventTypeDocumentUnposted}, env.events.HandledTypes())
}

func TestUnpostDocument_LogsNegativeBalance(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	product := env.AddProduct(t, env.Main, "Flour", "0")
	purchase := env.NewDocument(t, warehouse.DocTypePurchase, env.Main, testutil.Line{Product: product, Qty: "10", Price: "1"})
	env.SaveDocument(t, purchase)
	_, err := env.posting.PostDocument(ctx, purchase.ID, nil)
	require.NoError(t, err)

	sale := env.NewDocument(t, warehouse.DocTypeSale, env.Main, testutil.Line{Product: product, Qty: "8", Price: "1"})
	env.SaveDocument(t, sale)
	_, err = env.posting.PostDocument(ctx, sale.ID, nil)
	require.NoError(t, err)

	// Reversing the purchase drives the balance below zero but must complete.
	_, err = env.posting.UnpostDocument(ctx, purchase.ID)
	require.NoError(t, err)
	testutil.AssertDecimal(t, "-8", env.Balance(t, env.Main, product.ID))

	entries := env.logs.FilterMessage("stock balance negative after reversal").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestPostDocument_Transfer(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	source := env.AddProduct(t, env.Main, "Cheese", "20", testutil.WithCode("000041"), testutil.WithPLU("17"), testutil.WithWeight())

	transfer := func(qty string) *warehouse.Document {
		doc := env.NewDocument(t, warehouse.DocTypeTransfer, env.Main, testutil.Line{Product: source, Qty: qty, Price: "1"})
		doc.WarehouseToID = &env.Store.ID
		env.SaveDocument(t, doc)
		_, err := env.posting.PostDocument(ctx, doc.ID, nil)
		require.NoError(t, err)
		return doc
	}
	storeProducts := func() []warehouse.Product {
		list, err := persistence.NewGormProductRepository(env.DB).FindByWarehouse(ctx, env.Store.ID)
		require.NoError(t, err)
		return list
	}

	doc := transfer("8.5")

	mirrors := storeProducts()
	require.Len(t, mirrors, 1)
	mirror := mirrors[0]
	assert.Equal(t, "Cheese", mirror.Name)
	assert.Equal(t, "000042", mirror.Code)
	assert.Equal(t, "18", mirror.PLU)
	assert.True(t, mirror.IsWeight)
	testutil.AssertDecimal(t, "8.5", mirror.Quantity)

	testutil.AssertDecimal(t, "11.5", env.Balance(t, env.Main, source.ID))
	testutil.AssertDecimal(t, "8.5", env.Balance(t, env.Store, mirror.ID))
	testutil.AssertDecimal(t, "11.5", env.Product(t, source.ID).Quantity)

	moves := env.Moves(t, doc.ID)
	require.Len(t, moves, 2)
	sum := testutil.Dec("0")
	for _, mv := range moves {
		sum = sum.Add(mv.QtyDelta)
	}
	testutil.AssertDecimal(t, "0", sum)

	req := env.CashRequest(t, doc.ID)
	assert.False(t, req.RequiresMoney)

	t.Run("second transfer reuses the mirror", func(t *testing.T) {
		transfer("1.5")
		require.Len(t, storeProducts(), 1)
		testutil.AssertDecimal(t, "10", env.Balance(t, env.Store, mirror.ID))
		testutil.AssertDecimal(t, "10", env.Balance(t, env.Main, source.ID))
	})

	t.Run("unpost removes both moves but keeps the mirror", func(t *testing.T) {
		_, err := env.posting.UnpostDocument(ctx, doc.ID)
		require.NoError(t, err)
		assert.Empty(t, env.Moves(t, doc.ID))
		testutil.AssertDecimal(t, "18.5", env.Balance(t, env.Main, source.ID))
		testutil.AssertDecimal(t, "1.5", env.Balance(t, env.Store, mirror.ID))
		require.Len(t, storeProducts(), 1)
	})
}

func TestPostDocument_TransferMatchesExistingProduct(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	source := env.AddProduct(t, env.Main, "Flour", "20")
	existing := env.AddProduct(t, env.Store, "FLOUR", "3")

	doc := env.NewDocument(t, warehouse.DocTypeTransfer, env.Main, testutil.Line{Product: source, Qty: "5", Price: "1"})
	doc.WarehouseToID = &env.Store.ID
	env.SaveDocument(t, doc)
	_, err := env.posting.PostDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	testutil.AssertDecimal(t, "8", env.Balance(t, env.Store, existing.ID))
	testutil.AssertDecimal(t, "8", env.Product(t, existing.ID).Quantity)
	list, err := persistence.NewGormProductRepository(env.DB).FindByWarehouse(ctx, env.Store.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPostDocument_TransferWaitsForProductCodeLock(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	source := env.AddProduct(t, env.Main, "Flour", "20")
	doc := env.NewDocument(t, warehouse.DocTypeTransfer, env.Main, testutil.Line{Product: source, Qty: "5", Price: "1"})
	doc.WarehouseToID = &env.Store.ID
	env.SaveDocument(t, doc)

	held, err := env.locker.Obtain(ctx, env.CompanyID, "product-code")
	require.NoError(t, err)

	_, err = env.posting.PostDocument(ctx, doc.ID, nil)
	assert.ErrorIs(t, err, shared.ErrLockNotObtained)
	assert.Empty(t, env.Moves(t, doc.ID))
	testutil.AssertDecimal(t, "20", env.Balance(t, env.Main, source.ID))

	require.NoError(t, held.Release(ctx))
	_, err = env.posting.PostDocument(ctx, doc.ID, nil)
	require.NoError(t, err)

	// The run released its lock after commit.
	again, err := env.locker.Obtain(ctx, env.CompanyID, "product-code")
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestPostDocument_Inventory(t *testing.T) {
	tests := []struct {
		name      string
		counted   string
		wantMoves int
		wantDelta string
	}{
		{name: "shortage", counted: "7", wantMoves: 1, wantDelta: "-3"},
		{name: "surplus", counted: "12.5", wantMoves: 1, wantDelta: "2.5"},
		{name: "unchanged", counted: "10", wantMoves: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, posting.LedgerOptions{})
			product := env.AddProduct(t, env.Main, "Cheese", "10", testutil.WithWeight())
			doc := env.NewDocument(t, warehouse.DocTypeInventory, env.Main, testutil.Line{Product: product, Qty: tt.counted, Price: "0"})
			env.SaveDocument(t, doc)

			_, err := env.posting.PostDocument(context.Background(), doc.ID, nil)
			require.NoError(t, err)

			testutil.AssertDecimal(t, tt.counted, env.Balance(t, env.Main, product.ID))
			moves := env.Moves(t, doc.ID)
			require.Len(t, moves, tt.wantMoves)
			if tt.wantMoves > 0 {
				testutil.AssertDecimal(t, tt.wantDelta, moves[0].QtyDelta)
			}

			_, err = env.posting.UnpostDocument(context.Background(), doc.ID)
			require.NoError(t, err)
			testutil.AssertDecimal(t, "10", env.Balance(t, env.Main, product.ID))
		})
	}
}

func TestPostDocument_CreditWithPrepayment(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	product := env.AddProduct(t, env.Main, "Flour", "100")
	doc := env.NewDocument(t, warehouse.DocTypeSale, env.Main, testutil.Line{Product: product, Qty: "30", Price: "150"})
	doc.PaymentKind = warehouse.PaymentKindCredit
	doc.PrepaymentAmount = testutil.Dec("1000")
	env.SaveDocument(t, doc)

	posted, err := env.posting.PostDocument(ctx, doc.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, warehouse.DocumentStatusPosted, posted.Status)
	testutil.AssertDecimal(t, "70", env.Balance(t, env.Main, product.ID))

	_, err = persistence.NewGormCashApprovalRequestRepository(env.DB).FindByDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	moneyRepo := persistence.NewGormMoneyDocumentRepository(env.DB)
	prepaid, err := moneyRepo.FindPostedBySource(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, prepaid, 1)
	assert.Equal(t, warehouse.MoneyDocTypeReceipt, prepaid[0].DocType)
	testutil.AssertDecimal(t, "1000", prepaid[0].Amount)
	assert.Equal(t, "MONEY_RECEIPT-20240315-0001", prepaid[0].Number)

	assert.Equal(t, []string{warehouse.EventTypeDocumentPosted, warehouse.EventTypeMoneyDocumentPosted}, env.events.HandledTypes())

	t.Run("approve is refused for a credit document", func(t *testing.T) {
		_, err := env.posting.ApproveCashRequest(ctx, doc.ID, posting.DecisionRequest{})
		assert.ErrorIs(t, err, warehouse.ErrAlreadyProcessed)
	})

	t.Run("unpost unposts the prepayment", func(t *testing.T) {
		_, err := env.posting.UnpostDocument(ctx, doc.ID)
		require.NoError(t, err)
		remaining, err := moneyRepo.FindPostedBySource(ctx, doc.ID)
		require.NoError(t, err)
		assert.Empty(t, remaining)
		assert.Equal(t, warehouse.MoneyDocumentStatusDraft, env.MoneyDocument(t, prepaid[0].ID).Status)
	})
}

func TestPostDocument_CreditWithoutPrepayment(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	product := env.AddProduct(t, env.Main, "Flour", "100")
	doc := env.NewDocument(t, warehouse.DocTypePurchase, env.Main, testutil.Line{Product: product, Qty: "5", Price: "10"})
	doc.PaymentKind = warehouse.PaymentKindCredit
	env.SaveDocument(t, doc)

	posted, err := env.posting.PostDocument(context.Background(), doc.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, warehouse.DocumentStatusPosted, posted.Status)

	money, err := persistence.NewGormMoneyDocumentRepository(env.DB).FindPostedBySource(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Empty(t, money)
}

func TestPostDocument_AgentLedger(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{AllowNegative: true})
	ctx := context.Background()
	agentID := uuid.New()
	product := env.AddProduct(t, env.Main, "Flour", "100")

	agentDoc := func(docType warehouse.DocType, qty string) *warehouse.Document {
		doc := env.NewDocument(t, docType, env.Main, testutil.Line{Product: product, Qty: qty, Price: "10"})
		doc.AgentID = &agentID
		env.SaveDocument(t, doc)
		return doc
	}

	t.Run("negative agent balance is refused even when the ledger allows it", func(t *testing.T) {
		doc := agentDoc(warehouse.DocTypeSale, "1")
		_, err := env.posting.PostDocument(ctx, doc.ID, boolPtr(true))
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Empty(t, env.AgentMoves(t, doc.ID))
	})

	purchase := agentDoc(warehouse.DocTypePurchase, "5")
	_, err := env.posting.PostDocument(ctx, purchase.ID, nil)
	require.NoError(t, err)

	moves := env.AgentMoves(t, purchase.ID)
	require.Len(t, moves, 1)
	testutil.AssertDecimal(t, "5", moves[0].QtyDelta)
	assert.Equal(t, agentID, moves[0].AgentID)
	assert.Empty(t, env.Moves(t, purchase.ID))
	testutil.AssertDecimal(t, "100", env.Balance(t, env.Main, product.ID))
	testutil.AssertDecimal(t, "100", env.Product(t, product.ID).Quantity)
	assert.False(t, env.CashRequest(t, purchase.ID).RequiresMoney)

	sale := agentDoc(warehouse.DocTypeSale, "3")
	_, err = env.posting.PostDocument(ctx, sale.ID, nil)
	require.NoError(t, err)

	t.Run("unpost reverses agent moves", func(t *testing.T) {
		_, err := env.posting.UnpostDocument(ctx, sale.ID)
		require.NoError(t, err)
		assert.Empty(t, env.AgentMoves(t, sale.ID))

		// 5 units are back with the agent.
		again := agentDoc(warehouse.DocTypeSale, "5")
		_, err = env.posting.PostDocument(ctx, again.ID, nil)
		require.NoError(t, err)
	})

	t.Run("transfer is not an agent document type", func(t *testing.T) {
		doc := env.NewDocument(t, warehouse.DocTypeTransfer, env.Main, testutil.Line{Product: product, Qty: "1", Price: "1"})
		doc.WarehouseToID = &env.Store.ID
		doc.AgentID = &agentID
		env.SaveDocument(t, doc)
		_, err := env.posting.PostDocument(ctx, doc.ID, nil)
		assert.ErrorIs(t, err, warehouse.ErrValidation)
	})
}

func TestRecalcDocumentTotals(t *testing.T) {
	env := newTestEnv(t, posting.LedgerOptions{})
	ctx := context.Background()
	product := env.AddProduct(t, env.Main, "Flour", "100")
	doc := env.NewDocument(t, warehouse.DocTypeSale, env.Main,
		testutil.Line{Product: product, Qty: "3", Price: "19.99"},
		testutil.Line{Product: product, Qty: "2", Price: "5"},
	)
	doc.DiscountPercent = testutil.Dec("10")
	doc.Items[1].SetDiscount(testutil.Dec("0"), testutil.Dec("1.5"))
	env.SaveDocument(t, doc)
	testutil.AssertDecimal(t, "0", env.Document(t, doc.ID).Total)

	recalculated, err := env.posting.RecalcDocumentTotals(ctx, doc.ID)
	require.NoError(t, err)
	// (59.97 + 8.50) × 0.9 = 61.623
	testutil.AssertDecimal(t, "61.62", recalculated.Total)

	first := env.Document(t, doc.ID)
	testutil.AssertDecimal(t, "61.62", first.Total)
	testutil.AssertDecimal(t, "59.97", first.Items[0].LineTotal)
	testutil.AssertDecimal(t, "8.5", first.Items[1].LineTotal)

	_, err = env.posting.RecalcDocumentTotals(ctx, doc.ID)
	require.NoError(t, err)
	second := env.Document(t, doc.ID)
	assert.True(t, first.UpdatedAt.Equal(second.UpdatedAt), "unchanged totals must not touch the document")
	assert.Equal(t, warehouse.DocumentStatusDraft, second.Status)
}
