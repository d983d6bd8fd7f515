package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/warehouse/internal/domain/warehouse"
	"github.com/erp/warehouse/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSequenceRepository implements SequenceRepository with one counter row per
// (company, prefix, day), incremented under a row lock.
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// NextSequence increments and returns the counter for (company, prefix, day)
func (r *GormSequenceRepository) NextSequence(ctx context.Context, companyID uuid.UUID, prefix string, day time.Time) (int64, error) {
	db := r.db.WithContext(ctx)
	dayKey := day.Format(warehouse.SequenceDateLayout)
	where := "company_id = ? AND prefix = ? AND day = ?"

	var row models.DocumentSequenceModel
	err := forUpdate(db).Where(where, companyID, prefix, dayKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seed := &models.DocumentSequenceModel{
			ID:        uuid.New(),
			CompanyID: companyID,
			Prefix:    prefix,
			Day:       dayKey,
			UpdatedAt: time.Now(),
		}
		if err := insertIfAbsent(db, seed, "company_id", "prefix", "day"); err != nil {
			return 0, fmt.Errorf("create sequence row: %w", err)
		}
		err = forUpdate(db).Where(where, companyID, prefix, dayKey).First(&row).Error
	}
	if err != nil {
		return 0, fmt.Errorf("lock sequence row: %w", err)
	}

	next := row.LastValue + 1
	if err := db.Model(&models.DocumentSequenceModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{"last_value": next, "updated_at": time.Now()}).Error; err != nil {
		return 0, fmt.Errorf("advance sequence: %w", err)
	}
	return next, nil
}

var _ warehouse.SequenceRepository = (*GormSequenceRepository)(nil)
