package posting

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/erp/warehouse/internal/domain/shared/valueobject"
	"github.com/erp/warehouse/internal/domain/warehouse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerOptions configures the warehouse stock ledger
type LedgerOptions struct {
	// AllowNegative lets balances go below zero on posting
	AllowNegative bool
}

// StockLedger applies signed quantity deltas to (warehouse, product) balances.
// Every change happens under the balance row lock, so the negative check and
// the write cannot interleave with another posting.
type StockLedger struct {
	opts   LedgerOptions
	logger *zap.Logger
}

// NewStockLedger creates a StockLedger
func NewStockLedger(opts LedgerOptions, logger *zap.Logger) *StockLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockLedger{opts: opts, logger: logger}
}

// AllowsNegative resolves the effective policy for one call
func (l *StockLedger) AllowsNegative(override *bool) bool {
	if override != nil {
		return *override
	}
	return l.opts.AllowNegative
}

// ApplyMove adds delta to the balance of product in warehouseID and records the move
func (l *StockLedger) ApplyMove(ctx context.Context, repos TransactionalRepositories, doc *warehouse.Document,
	warehouseID uuid.UUID, product *warehouse.Product, delta decimal.Decimal, allowNegative *bool,
) (*warehouse.StockMove, error) {
	return l.apply(ctx, repos, doc, warehouseID, product, allowNegative, func(decimal.Decimal) decimal.Decimal {
		return delta
	})
}

// ApplyCount moves the balance to counted and records the difference.
// It returns a nil move when the balance already equals counted.
func (l *StockLedger) ApplyCount(ctx context.Context, repos TransactionalRepositories, doc *warehouse.Document,
	warehouseID uuid.UUID, product *warehouse.Product, counted decimal.Decimal, allowNegative *bool,
) (*warehouse.StockMove, error) {
	return l.apply(ctx, repos, doc, warehouseID, product, allowNegative, func(current decimal.Decimal) decimal.Decimal {
		return counted.Sub(current)
	})
}

func (l *StockLedger) apply(ctx context.Context, repos TransactionalRepositories, doc *warehouse.Document,
	warehouseID uuid.UUID, product *warehouse.Product, allowNegative *bool, deltaFn func(current decimal.Decimal) decimal.Decimal,
) (*warehouse.StockMove, error) {
	balance, err := repos.StockRepo().LockBalance(ctx, doc.CompanyID, warehouseID, product.ID)
	if err != nil {
		return nil, fmt.Errorf("lock stock balance: %w", err)
	}

	current := balance.Qty
	delta := valueobject.RoundQuantity(deltaFn(current))
	if delta.IsZero() {
		return nil, nil
	}
	if current.Add(delta).IsNegative() && !l.AllowsNegative(allowNegative) {
		return nil, insufficientStock(ctx, repos, product, warehouseID, current, delta.Neg())
	}

	newQty := balance.Apply(delta)
	if err := repos.StockRepo().SaveBalance(ctx, balance); err != nil {
		return nil, fmt.Errorf("save stock balance: %w", err)
	}
	move := warehouse.NewStockMove(doc, warehouseID, product.ID, delta)
	if err := repos.StockRepo().CreateMove(ctx, move); err != nil {
		return nil, fmt.Errorf("create stock move: %w", err)
	}
	if err := syncProductQuantity(ctx, repos, product, warehouseID, newQty); err != nil {
		return nil, err
	}
	return move, nil
}

// UnapplyMove reverses move and deletes it. A balance left negative is logged,
// never refused: once started, unposting must complete.
func (l *StockLedger) UnapplyMove(ctx context.Context, repos TransactionalRepositories, move *warehouse.StockMove) error {
	balance, err := repos.StockRepo().LockBalance(ctx, move.CompanyID, move.WarehouseID, move.ProductID)
	if err != nil {
		return fmt.Errorf("lock stock balance: %w", err)
	}
	newQty := balance.Apply(move.QtyDelta.Neg())
	if newQty.IsNegative() {
		l.logger.Warn("stock balance negative after reversal",
			zap.String("document_id", move.DocumentID.String()),
			zap.String("warehouse_id", move.WarehouseID.String()),
			zap.String("product_id", move.ProductID.String()),
			zap.String("balance", valueobject.FormatQuantity(newQty)),
		)
	}
	if err := repos.StockRepo().SaveBalance(ctx, balance); err != nil {
		return fmt.Errorf("save stock balance: %w", err)
	}

	product, err := repos.ProductRepo().FindByID(ctx, move.ProductID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		l.logger.Debug("product of reversed move no longer exists", zap.String("product_id", move.ProductID.String()))
	case err != nil:
		return fmt.Errorf("load product: %w", err)
	default:
		if err := syncProductQuantity(ctx, repos, product, move.WarehouseID, newQty); err != nil {
			return err
		}
	}

	if err := repos.StockRepo().DeleteMove(ctx, move.ID); err != nil {
		return fmt.Errorf("delete stock move: %w", err)
	}
	return nil
}

// AgentStockLedger is the agent-keyed ledger. Negative balances are always refused.
type AgentStockLedger struct {
	logger *zap.Logger
}

// NewAgentStockLedger creates an AgentStockLedger
func NewAgentStockLedger(logger *zap.Logger) *AgentStockLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentStockLedger{logger: logger}
}

// ApplyMove adds delta to the agent balance and records the move
func (l *AgentStockLedger) ApplyMove(ctx context.Context, repos TransactionalRepositories, doc *warehouse.Document,
	agentID, warehouseID uuid.UUID, product *warehouse.Product, delta decimal.Decimal,
) (*warehouse.AgentStockMove, error) {
	balance, err := repos.AgentStockRepo().LockBalance(ctx, doc.CompanyID, agentID, warehouseID, product.ID)
	if err != nil {
		return nil, fmt.Errorf("lock agent stock balance: %w", err)
	}
	delta = valueobject.RoundQuantity(delta)
	if balance.Qty.Add(delta).IsNegative() {
		return nil, insufficientStock(ctx, repos, product, warehouseID, balance.Qty, delta.Neg())
	}
	balance.Apply(delta)
	if err := repos.AgentStockRepo().SaveBalance(ctx, balance); err != nil {
		return nil, fmt.Errorf("save agent stock balance: %w", err)
	}
	move := warehouse.NewAgentStockMove(doc, agentID, warehouseID, product.ID, delta)
	if err := repos.AgentStockRepo().CreateMove(ctx, move); err != nil {
		return nil, fmt.Errorf("create agent stock move: %w", err)
	}
	return move, nil
}

// UnapplyMove reverses an agent move and deletes it
func (l *AgentStockLedger) UnapplyMove(ctx context.Context, repos TransactionalRepositories, move *warehouse.AgentStockMove) error {
	balance, err := repos.AgentStockRepo().LockBalance(ctx, move.CompanyID, move.AgentID, move.WarehouseID, move.ProductID)
	if err != nil {
		return fmt.Errorf("lock agent stock balance: %w", err)
	}
	if newQty := balance.Apply(move.QtyDelta.Neg()); newQty.IsNegative() {
		l.logger.Warn("agent stock balance negative after reversal",
			zap.String("document_id", move.DocumentID.String()),
			zap.String("agent_id", move.AgentID.String()),
			zap.String("product_id", move.ProductID.String()),
			zap.String("balance", valueobject.FormatQuantity(newQty)),
		)
	}
	if err := repos.AgentStockRepo().SaveBalance(ctx, balance); err != nil {
		return fmt.Errorf("save agent stock balance: %w", err)
	}
	if err := repos.AgentStockRepo().DeleteMove(ctx, move.ID); err != nil {
		return fmt.Errorf("delete agent stock move: %w", err)
	}
	return nil
}

// syncProductQuantity writes the balance back to the product when the product is homed there
func syncProductQuantity(ctx context.Context, repos TransactionalRepositories, product *warehouse.Product, warehouseID uuid.UUID, qty decimal.Decimal) error {
	if product.WarehouseID != warehouseID {
		return nil
	}
	if err := repos.ProductRepo().UpdateQuantity(ctx, product.ID, qty); err != nil {
		return fmt.Errorf("sync product quantity: %w", err)
	}
	product.Quantity = qty
	return nil
}

func insufficientStock(ctx context.Context, repos TransactionalRepositories, product *warehouse.Product,
	warehouseID uuid.UUID, available, required decimal.Decimal,
) error {
	name := warehouseID.String()
	if wh, err := repos.WarehouseRepo().FindByID(ctx, warehouseID); err == nil {
		name = wh.Name
	}
	return &warehouse.InsufficientStockError{
		ProductID:     product.ID,
		ProductName:   product.DisplayName(),
		WarehouseID:   warehouseID,
		WarehouseName: name,
		Available:     available,
		Required:      required,
	}
}
