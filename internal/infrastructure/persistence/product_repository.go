package persistence

import (
	"context"
	"errors"
	"strconv"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/erp/warehouse/internal/domain/warehouse"
	"github.com/erp/warehouse/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*warehouse.Product, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDs finds products by IDs. Unknown IDs are skipped.
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]warehouse.Product, error) {
	if len(ids) == 0 {
		return []warehouse.Product{}, nil
	}
	return r.list(r.db.WithContext(ctx).Where("id IN ?", ids))
}

// FindByWarehouse lists the products homed in a warehouse
func (r *GormProductRepository) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]warehouse.Product, error) {
	return r.list(r.db.WithContext(ctx).Where("warehouse_id = ?", warehouseID).Order("name ASC"))
}

// FindByBarcode finds a product by barcode within a warehouse
func (r *GormProductRepository) FindByBarcode(ctx context.Context, warehouseID uuid.UUID, barcode string) (*warehouse.Product, error) {
	return r.first(r.db.WithContext(ctx).Where("warehouse_id = ? AND barcode = ?", warehouseID, barcode))
}

// FindByCode finds a product by code within a warehouse
func (r *GormProductRepository) FindByCode(ctx context.Context, warehouseID uuid.UUID, code string) (*warehouse.Product, error) {
	return r.first(r.db.WithContext(ctx).Where("warehouse_id = ? AND code = ?", warehouseID, code))
}

// MaxNumericCode returns the greatest all-digit product code of a company
func (r *GormProductRepository) MaxNumericCode(ctx context.Context, companyID uuid.UUID) (int64, error) {
	return r.maxNumeric(ctx, companyID, "code")
}

// MaxPLU returns the greatest PLU of a company
func (r *GormProductRepository) MaxPLU(ctx context.Context, companyID uuid.UUID) (int64, error) {
	return r.maxNumeric(ctx, companyID, "plu")
}

// maxNumeric scans a text column and keeps the values that parse as
// non-negative integers. Codes like "A-12" are ignored.
func (r *GormProductRepository) maxNumeric(ctx context.Context, companyID uuid.UUID, column string) (int64, error) {
	var values []string
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("company_id = ? AND "+column+" <> ''", companyID).
		Pluck(column, &values).Error; err != nil {
		return 0, err
	}
	var best int64
	for _, v := range values {
		if !isDigits(v) {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		if n > best {
			best = n
		}
	}
	return best, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, p *warehouse.Product) error {
	return r.db.WithContext(ctx).Create(models.ProductModelFromDomain(p)).Error
}

// UpdateQuantity writes the denormalized quantity of a product
func (r *GormProductRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, qty decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ?", id).
		Update("quantity", qty)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormProductRepository) first(query *gorm.DB) (*warehouse.Product, error) {
	var m models.ProductModel
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

func (r *GormProductRepository) list(query *gorm.DB) ([]warehouse.Product, error) {
	var rows []models.ProductModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]warehouse.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

var _ warehouse.ProductRepository = (*GormProductRepository)(nil)
