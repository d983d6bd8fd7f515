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

// GormCashApprovalRequestRepository implements CashApprovalRequestRepository using GORM
type GormCashApprovalRequestRepository struct {
	db *gorm.DB
}

// NewGormCashApprovalRequestRepository creates a new GormCashApprovalRequestRepository
func NewGormCashApprovalRequestRepository(db *gorm.DB) *GormCashApprovalRequestRepository {
	return &GormCashApprovalRequestRepository{db: db}
}

// FindByDocument finds the request attached to a document
func (r *GormCashApprovalRequestRepository) FindByDocument(ctx context.Context, documentID uuid.UUID) (*warehouse.CashApprovalRequest, error) {
	var m models.CashApprovalRequestModel
	if err := r.db.WithContext(ctx).First(&m, "document_id = ?", documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindPending lists pending requests of a company, oldest first
func (r *GormCashApprovalRequestRepository) FindPending(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]warehouse.CashApprovalRequest, error) {
	query := r.db.WithContext(ctx).
		Where("company_id = ? AND status = ?", companyID, string(warehouse.CashRequestStatusPending))
	query = applyPaging(query, filter, CashRequestSortFields, "created_at", "ASC")
	var rows []models.CashApprovalRequestModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	reqs := make([]warehouse.CashApprovalRequest, len(rows))
	for i := range rows {
		reqs[i] = *rows[i].ToDomain()
	}
	return reqs, nil
}

// Save creates or updates a request
func (r *GormCashApprovalRequestRepository) Save(ctx context.Context, req *warehouse.CashApprovalRequest) error {
	return r.db.WithContext(ctx).Save(models.CashApprovalRequestModelFromDomain(req)).Error
}

// GormMoneyDocumentRepository implements MoneyDocumentRepository using GORM
type GormMoneyDocumentRepository struct {
	db *gorm.DB
}

// NewGormMoneyDocumentRepository creates a new GormMoneyDocumentRepository
func NewGormMoneyDocumentRepository(db *gorm.DB) *GormMoneyDocumentRepository {
	return &GormMoneyDocumentRepository{db: db}
}

// FindByID finds a money document by its ID
func (r *GormMoneyDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*warehouse.MoneyDocument, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// LockByID finds a money document and locks its row until commit
func (r *GormMoneyDocumentRepository) LockByID(ctx context.Context, id uuid.UUID) (*warehouse.MoneyDocument, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormMoneyDocumentRepository) find(query *gorm.DB, id uuid.UUID) (*warehouse.MoneyDocument, error) {
	var m models.MoneyDocumentModel
	if err := query.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindPostedBySource lists the POSTED money documents spawned by a document.
// Rows are locked since the caller is about to unpost them.
func (r *GormMoneyDocumentRepository) FindPostedBySource(ctx context.Context, sourceDocumentID uuid.UUID) ([]warehouse.MoneyDocument, error) {
	var rows []models.MoneyDocumentModel
	if err := forUpdate(r.db.WithContext(ctx)).
		Where("source_document_id = ? AND status = ?", sourceDocumentID, string(warehouse.MoneyDocumentStatusPosted)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]warehouse.MoneyDocument, len(rows))
	for i := range rows {
		docs[i] = *rows[i].ToDomain()
	}
	return docs, nil
}

// Save creates or updates a money document
func (r *GormMoneyDocumentRepository) Save(ctx context.Context, doc *warehouse.MoneyDocument) error {
	return r.db.WithContext(ctx).Save(models.MoneyDocumentModelFromDomain(doc)).Error
}

var (
	_ warehouse.CashApprovalRequestRepository = (*GormCashApprovalRequestRepository)(nil)
	_ warehouse.MoneyDocumentRepository       = (*GormMoneyDocumentRepository)(nil)
)
