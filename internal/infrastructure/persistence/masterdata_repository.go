package persistence

import (
	"context"
	"errors"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/erp/warehouse/internal/domain/warehouse"
	"github.com/erp/warehouse/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCounterpartyRepository implements CounterpartyRepository using GORM
type GormCounterpartyRepository struct {
	db *gorm.DB
}

// NewGormCounterpartyRepository creates a new GormCounterpartyRepository
func NewGormCounterpartyRepository(db *gorm.DB) *GormCounterpartyRepository {
	return &GormCounterpartyRepository{db: db}
}

// FindByID finds a counterparty by its ID
func (r *GormCounterpartyRepository) FindByID(ctx context.Context, id uuid.UUID) (*warehouse.Counterparty, error) {
	var m models.CounterpartyModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// Create inserts a new counterparty
func (r *GormCounterpartyRepository) Create(ctx context.Context, c *warehouse.Counterparty) error {
	return r.db.WithContext(ctx).Create(models.CounterpartyModelFromDomain(c)).Error
}

// GormCashRegisterRepository implements CashRegisterRepository using GORM
type GormCashRegisterRepository struct {
	db *gorm.DB
}

// NewGormCashRegisterRepository creates a new GormCashRegisterRepository
func NewGormCashRegisterRepository(db *gorm.DB) *GormCashRegisterRepository {
	return &GormCashRegisterRepository{db: db}
}

// FindByID finds a cash register by its ID
func (r *GormCashRegisterRepository) FindByID(ctx context.Context, id uuid.UUID) (*warehouse.CashRegister, error) {
	var m models.CashRegisterModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindDefaults lists default registers of exactly this company and branch
func (r *GormCashRegisterRepository) FindDefaults(ctx context.Context, companyID uuid.UUID, branchID *uuid.UUID) ([]warehouse.CashRegister, error) {
	query := scopeExact(r.db.WithContext(ctx), companyID, branchID).Where("is_default = ?", true)
	var rows []models.CashRegisterModel
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]warehouse.CashRegister, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts a new cash register
func (r *GormCashRegisterRepository) Create(ctx context.Context, c *warehouse.CashRegister) error {
	return r.db.WithContext(ctx).Create(models.CashRegisterModelFromDomain(c)).Error
}

// GormPaymentCategoryRepository implements PaymentCategoryRepository using GORM
type GormPaymentCategoryRepository struct {
	db *gorm.DB
}

// NewGormPaymentCategoryRepository creates a new GormPaymentCategoryRepository
func NewGormPaymentCategoryRepository(db *gorm.DB) *GormPaymentCategoryRepository {
	return &GormPaymentCategoryRepository{db: db}
}

// FindByID finds a payment category by its ID
func (r *GormPaymentCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*warehouse.PaymentCategory, error) {
	var m models.PaymentCategoryModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindDefaults lists default categories of a kind for exactly this company and branch
func (r *GormPaymentCategoryRepository) FindDefaults(ctx context.Context, companyID uuid.UUID, branchID *uuid.UUID, kind warehouse.PaymentCategoryKind) ([]warehouse.PaymentCategory, error) {
	query := scopeExact(r.db.WithContext(ctx), companyID, branchID).
		Where("is_default = ? AND kind = ?", true, string(kind))
	var rows []models.PaymentCategoryModel
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]warehouse.PaymentCategory, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts a new payment category
func (r *GormPaymentCategoryRepository) Create(ctx context.Context, c *warehouse.PaymentCategory) error {
	return r.db.WithContext(ctx).Create(models.PaymentCategoryModelFromDomain(c)).Error
}

// scopeExact filters on company and branch, where a nil branch matches only company-wide rows
func scopeExact(db *gorm.DB, companyID uuid.UUID, branchID *uuid.UUID) *gorm.DB {
	db = db.Where("company_id = ?", companyID)
	if branchID == nil {
		return db.Where("branch_id IS NULL")
	}
	return db.Where("branch_id = ?", *branchID)
}

var (
	_ warehouse.CounterpartyRepository    = (*GormCounterpartyRepository)(nil)
	_ warehouse.CashRegisterRepository    = (*GormCashRegisterRepository)(nil)
	_ warehouse.PaymentCategoryRepository = (*GormPaymentCategoryRepository)(nil)
)
