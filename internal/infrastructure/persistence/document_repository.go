package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/erp/warehouse/internal/domain/warehouse"
	"github.com/erp/warehouse/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDocumentRepository implements DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByID loads a document and its items
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*warehouse.Document, error) {
	return r.find(ctx, r.db.WithContext(ctx), id)
}

// LockByID loads a document and its items, locking the document row until commit
func (r *GormDocumentRepository) LockByID(ctx context.Context, id uuid.UUID) (*warehouse.Document, error) {
	return r.find(ctx, forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormDocumentRepository) find(ctx context.Context, query *gorm.DB, id uuid.UUID) (*warehouse.Document, error) {
	var m models.DocumentModel
	if err := query.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	var items []models.DocumentItemModel
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", id).
		Order("position ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load document items: %w", err)
	}
	return m.ToDomain(items), nil
}

// FindByCompany lists document headers of a company. Items are not loaded.
// Supported filters: "status", "doc_type".
func (r *GormDocumentRepository) FindByCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]warehouse.Document, error) {
	query := r.db.WithContext(ctx).Model(&models.DocumentModel{}).Where("company_id = ?", companyID)
	for _, key := range []string{"status", "doc_type"} {
		if v, ok := filter.Filters[key]; ok {
			query = query.Where(key+" = ?", v)
		}
	}
	query = applyPaging(query, filter, DocumentSortFields, "created_at", "DESC")

	var rows []models.DocumentModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]warehouse.Document, len(rows))
	for i := range rows {
		docs[i] = *rows[i].ToDomain(nil)
	}
	return docs, nil
}

// Save creates or updates the document header and replaces its items
func (r *GormDocumentRepository) Save(ctx context.Context, doc *warehouse.Document) error {
	db := r.db.WithContext(ctx)
	if err := db.Save(models.DocumentModelFromDomain(doc)).Error; err != nil {
		return fmt.Errorf("save document header: %w", err)
	}
	if err := db.Where("document_id = ?", doc.ID).Delete(&models.DocumentItemModel{}).Error; err != nil {
		return fmt.Errorf("clear document items: %w", err)
	}
	if len(doc.Items) == 0 {
		return nil
	}
	items := make([]*models.DocumentItemModel, len(doc.Items))
	for i := range doc.Items {
		items[i] = models.DocumentItemModelFromDomain(doc.ID, i, &doc.Items[i])
		doc.Items[i].ID = items[i].ID
		doc.Items[i].DocumentID = doc.ID
	}
	if err := db.Create(&items).Error; err != nil {
		return fmt.Errorf("save document items: %w", err)
	}
	return nil
}

var _ warehouse.DocumentRepository = (*GormDocumentRepository)(nil)
