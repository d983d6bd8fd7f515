package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/warehouse/internal/domain/warehouse"
	"github.com/erp/warehouse/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStockLedgerRepository implements StockLedgerRepository using GORM
type GormStockLedgerRepository struct {
	db *gorm.DB
}

// NewGormStockLedgerRepository creates a new GormStockLedgerRepository
func NewGormStockLedgerRepository(db *gorm.DB) *GormStockLedgerRepository {
	return &GormStockLedgerRepository{db: db}
}

// LockBalance returns the (warehouse, product) balance under SELECT ... FOR UPDATE,
// inserting a zero row first when none exists.
func (r *GormStockLedgerRepository) LockBalance(ctx context.Context, companyID, warehouseID, productID uuid.UUID) (*warehouse.StockBalance, error) {
	db := r.db.WithContext(ctx)
	var m models.StockBalanceModel
	err := forUpdate(db).Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seed := models.StockBalanceModelFromDomain(warehouse.NewStockBalance(companyID, warehouseID, productID))
		if err := insertIfAbsent(db, seed, "warehouse_id", "product_id"); err != nil {
			return nil, fmt.Errorf("create stock balance: %w", err)
		}
		err = forUpdate(db).Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).First(&m).Error
	}
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindBalance reads a balance without locking; a missing row yields zero
func (r *GormStockLedgerRepository) FindBalance(ctx context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error) {
	var m models.StockBalanceModel
	err := r.db.WithContext(ctx).Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return m.Qty, nil
}

// SaveBalance writes the quantity of a locked balance
func (r *GormStockLedgerRepository) SaveBalance(ctx context.Context, b *warehouse.StockBalance) error {
	return r.db.WithContext(ctx).
		Model(&models.StockBalanceModel{}).
		Where("id = ?", b.ID).
		Updates(map[string]interface{}{"qty": b.Qty, "updated_at": b.UpdatedAt}).Error
}

// CreateMove appends a move
func (r *GormStockLedgerRepository) CreateMove(ctx context.Context, mv *warehouse.StockMove) error {
	return r.db.WithContext(ctx).Create(models.StockMoveModelFromDomain(mv)).Error
}

// DeleteMove removes a move
func (r *GormStockLedgerRepository) DeleteMove(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.StockMoveModel{}).Error
}

// FindMovesByDocument lists the moves of a document in creation order
func (r *GormStockLedgerRepository) FindMovesByDocument(ctx context.Context, documentID uuid.UUID) ([]warehouse.StockMove, error) {
	var rows []models.StockMoveModel
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	moves := make([]warehouse.StockMove, len(rows))
	for i := range rows {
		moves[i] = *rows[i].ToDomain()
	}
	return moves, nil
}

// GormAgentStockLedgerRepository implements AgentStockLedgerRepository using GORM
type GormAgentStockLedgerRepository struct {
	db *gorm.DB
}

// NewGormAgentStockLedgerRepository creates a new GormAgentStockLedgerRepository
func NewGormAgentStockLedgerRepository(db *gorm.DB) *GormAgentStockLedgerRepository {
	return &GormAgentStockLedgerRepository{db: db}
}

// LockBalance returns the (agent, warehouse, product) balance under SELECT ... FOR UPDATE,
// inserting a zero row first when none exists.
func (r *GormAgentStockLedgerRepository) LockBalance(ctx context.Context, companyID, agentID, warehouseID, productID uuid.UUID) (*warehouse.AgentStockBalance, error) {
	db := r.db.WithContext(ctx)
	where := "agent_id = ? AND warehouse_id = ? AND product_id = ?"
	var m models.AgentStockBalanceModel
	err := forUpdate(db).Where(where, agentID, warehouseID, productID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seed := models.AgentStockBalanceModelFromDomain(warehouse.NewAgentStockBalance(companyID, agentID, warehouseID, productID))
		if err := insertIfAbsent(db, seed, "agent_id", "warehouse_id", "product_id"); err != nil {
			return nil, fmt.Errorf("create agent stock balance: %w", err)
		}
		err = forUpdate(db).Where(where, agentID, warehouseID, productID).First(&m).Error
	}
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// SaveBalance writes the quantity of a locked agent balance
func (r *GormAgentStockLedgerRepository) SaveBalance(ctx context.Context, b *warehouse.AgentStockBalance) error {
	return r.db.WithContext(ctx).
		Model(&models.AgentStockBalanceModel{}).
		Where("id = ?", b.ID).
		Updates(map[string]interface{}{"qty": b.Qty, "updated_at": b.UpdatedAt}).Error
}

// CreateMove appends an agent move
func (r *GormAgentStockLedgerRepository) CreateMove(ctx context.Context, mv *warehouse.AgentStockMove) error {
	return r.db.WithContext(ctx).Create(models.AgentStockMoveModelFromDomain(mv)).Error
}

// DeleteMove removes an agent move
func (r *GormAgentStockLedgerRepository) DeleteMove(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AgentStockMoveModel{}).Error
}

// FindMovesByDocument lists the agent moves of a document in creation order
func (r *GormAgentStockLedgerRepository) FindMovesByDocument(ctx context.Context, documentID uuid.UUID) ([]warehouse.AgentStockMove, error) {
	var rows []models.AgentStockMoveModel
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	moves := make([]warehouse.AgentStockMove, len(rows))
	for i := range rows {
		moves[i] = *rows[i].ToDomain()
	}
	return moves, nil
}

var (
	_ warehouse.StockLedgerRepository      = (*GormStockLedgerRepository)(nil)
	_ warehouse.AgentStockLedgerRepository = (*GormAgentStockLedgerRepository)(nil)
)
