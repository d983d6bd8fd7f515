package warehouse

import (
	"time"

	"github.com/erp/warehouse/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockBalance is the authoritative quantity of a product in a warehouse.
// It is only changed by applying signed deltas while the row is locked.
type StockBalance struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	WarehouseID uuid.UUID
	ProductID   uuid.UUID
	Qty         decimal.Decimal
	UpdatedAt   time.Time
}

// NewStockBalance creates a zero balance for (warehouse, product)
func NewStockBalance(companyID, warehouseID, productID uuid.UUID) *StockBalance {
	return &StockBalance{
		ID:          uuid.New(),
		CompanyID:   companyID,
		WarehouseID: warehouseID,
		ProductID:   productID,
		Qty:         decimal.Zero,
		UpdatedAt:   time.Now(),
	}
}

// Apply adds delta and returns the new quantity
func (b *StockBalance) Apply(delta decimal.Decimal) decimal.Decimal {
	b.Qty = valueobject.RoundQuantity(b.Qty.Add(delta))
	b.UpdatedAt = time.Now()
	return b.Qty
}

// StockMove is an immutable audit row for one signed change of a StockBalance
type StockMove struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	DocumentID  uuid.UUID
	WarehouseID uuid.UUID
	ProductID   uuid.UUID
	QtyDelta    decimal.Decimal
	CreatedAt   time.Time
}

// NewStockMove creates a move for doc
func NewStockMove(doc *Document, warehouseID, productID uuid.UUID, delta decimal.Decimal) *StockMove {
	return &StockMove{
		ID:          uuid.New(),
		CompanyID:   doc.CompanyID,
		DocumentID:  doc.ID,
		WarehouseID: warehouseID,
		ProductID:   productID,
		QtyDelta:    valueobject.RoundQuantity(delta),
		CreatedAt:   time.Now(),
	}
}

// AgentStockBalance is the quantity of a product an agent holds against a warehouse.
// It can never go below zero.
type AgentStockBalance struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	AgentID     uuid.UUID
	WarehouseID uuid.UUID
	ProductID   uuid.UUID
	Qty         decimal.Decimal
	UpdatedAt   time.Time
}

// NewAgentStockBalance creates a zero balance for (agent, warehouse, product)
func NewAgentStockBalance(companyID, agentID, warehouseID, productID uuid.UUID) *AgentStockBalance {
	return &AgentStockBalance{
		ID:          uuid.New(),
		CompanyID:   companyID,
		AgentID:     agentID,
		WarehouseID: warehouseID,
		ProductID:   productID,
		Qty:         decimal.Zero,
		UpdatedAt:   time.Now(),
	}
}

// Apply adds delta and returns the new quantity
func (b *AgentStockBalance) Apply(delta decimal.Decimal) decimal.Decimal {
	b.Qty = valueobject.RoundQuantity(b.Qty.Add(delta))
	b.UpdatedAt = time.Now()
	return b.Qty
}

// AgentStockMove is the agent ledger counterpart of StockMove
type AgentStockMove struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	DocumentID  uuid.UUID
	AgentID     uuid.UUID
	WarehouseID uuid.UUID
	ProductID   uuid.UUID
	QtyDelta    decimal.Decimal
	CreatedAt   time.Time
}

// NewAgentStockMove creates an agent move for doc
func NewAgentStockMove(doc *Document, agentID, warehouseID, productID uuid.UUID, delta decimal.Decimal) *AgentStockMove {
	return &AgentStockMove{
		ID:          uuid.New(),
		CompanyID:   doc.CompanyID,
		DocumentID:  doc.ID,
		AgentID:     agentID,
		WarehouseID: warehouseID,
		ProductID:   productID,
		QtyDelta:    valueobject.RoundQuantity(delta),
		CreatedAt:   time.Now(),
	}
}
