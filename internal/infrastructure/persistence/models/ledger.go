package models

import (
	"time"

	"github.com/erp/warehouse/internal/domain/warehouse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockBalanceModel is the persistence model for StockBalance
type StockBalanceModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_balance_warehouse_product,priority:1"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_balance_warehouse_product,priority:2"`
	Qty         decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockBalanceModel) TableName() string {
	return "stock_balances"
}

// ToDomain converts the persistence model to a domain StockBalance
func (m *StockBalanceModel) ToDomain() *warehouse.StockBalance {
	return &warehouse.StockBalance{
		ID:          m.ID,
		CompanyID:   m.CompanyID,
		WarehouseID: m.WarehouseID,
		ProductID:   m.ProductID,
		Qty:         m.Qty,
		UpdatedAt:   m.UpdatedAt,
	}
}

// StockBalanceModelFromDomain creates a persistence model from a domain StockBalance
func StockBalanceModelFromDomain(b *warehouse.StockBalance) *StockBalanceModel {
	return &StockBalanceModel{
		ID:          b.ID,
		CompanyID:   b.CompanyID,
		WarehouseID: b.WarehouseID,
		ProductID:   b.ProductID,
		Qty:         b.Qty,
		UpdatedAt:   b.UpdatedAt,
	}
}

// StockMoveModel is the persistence model for StockMove
type StockMoveModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	DocumentID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	QtyDelta    decimal.Decimal `gorm:"type:decimal(18,3);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockMoveModel) TableName() string {
	return "stock_moves"
}

// ToDomain converts the persistence model to a domain StockMove
func (m *StockMoveModel) ToDomain() *warehouse.StockMove {
	return &warehouse.StockMove{
		ID:          m.ID,
		CompanyID:   m.CompanyID,
		DocumentID:  m.DocumentID,
		WarehouseID: m.WarehouseID,
		ProductID:   m.ProductID,
		QtyDelta:    m.QtyDelta,
		CreatedAt:   m.CreatedAt,
	}
}

// StockMoveModelFromDomain creates a persistence model from a domain StockMove
func StockMoveModelFromDomain(mv *warehouse.StockMove) *StockMoveModel {
	return &StockMoveModel{
		ID:          mv.ID,
		CompanyID:   mv.CompanyID,
		DocumentID:  mv.DocumentID,
		WarehouseID: mv.WarehouseID,
		ProductID:   mv.ProductID,
		QtyDelta:    mv.QtyDelta,
		CreatedAt:   mv.CreatedAt,
	}
}

// AgentStockBalanceModel is the persistence model for AgentStockBalance
type AgentStockBalanceModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	AgentID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_agent_stock_balance_key,priority:1"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_agent_stock_balance_key,priority:2"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_agent_stock_balance_key,priority:3"`
	Qty         decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AgentStockBalanceModel) TableName() string {
	return "agent_stock_balances"
}

// ToDomain converts the persistence model to a domain AgentStockBalance
func (m *AgentStockBalanceModel) ToDomain() *warehouse.AgentStockBalance {
	return &warehouse.AgentStockBalance{
		ID:          m.ID,
		CompanyID:   m.CompanyID,
		AgentID:     m.AgentID,
		WarehouseID: m.WarehouseID,
		ProductID:   m.ProductID,
		Qty:         m.Qty,
		UpdatedAt:   m.UpdatedAt,
	}
}

// AgentStockBalanceModelFromDomain creates a persistence model from a domain AgentStockBalance
func AgentStockBalanceModelFromDomain(b *warehouse.AgentStockBalance) *AgentStockBalanceModel {
	return &AgentStockBalanceModel{
		ID:          b.ID,
		CompanyID:   b.CompanyID,
		AgentID:     b.AgentID,
		WarehouseID: b.WarehouseID,
		ProductID:   b.ProductID,
		Qty:         b.Qty,
		UpdatedAt:   b.UpdatedAt,
	}
}

// AgentStockMoveModel is the persistence model for AgentStockMove
type AgentStockMoveModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	DocumentID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	AgentID     uuid.UUID       `gorm:"type:uuid;not null"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	QtyDelta    decimal.Decimal `gorm:"type:decimal(18,3);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AgentStockMoveModel) TableName() string {
	return "agent_stock_moves"
}

// ToDomain converts the persistence model to a domain AgentStockMove
func (m *AgentStockMoveModel) ToDomain() *warehouse.AgentStockMove {
	return &warehouse.AgentStockMove{
		ID:          m.ID,
		CompanyID:   m.CompanyID,
		DocumentID:  m.DocumentID,
		AgentID:     m.AgentID,
		WarehouseID: m.WarehouseID,
		ProductID:   m.ProductID,
		QtyDelta:    m.QtyDelta,
		CreatedAt:   m.CreatedAt,
	}
}

// AgentStockMoveModelFromDomain creates a persistence model from a domain AgentStockMove
func AgentStockMoveModelFromDomain(mv *warehouse.AgentStockMove) *AgentStockMoveModel {
	return &AgentStockMoveModel{
		ID:          mv.ID,
		CompanyID:   mv.CompanyID,
		DocumentID:  mv.DocumentID,
		AgentID:     mv.AgentID,
		WarehouseID: mv.WarehouseID,
		ProductID:   mv.ProductID,
		QtyDelta:    mv.QtyDelta,
		CreatedAt:   mv.CreatedAt,
	}
}
