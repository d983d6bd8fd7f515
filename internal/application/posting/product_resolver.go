package posting

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/erp/warehouse/internal/domain/warehouse"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

const (
	// productCodeLockName names the company lock held while generating codes
	productCodeLockName = "product-code"
	productCodeWidth    = 6
)

// DestinationResolver finds or creates the product a TRANSFER delivers into
// in the destination warehouse.
type DestinationResolver struct {
	locker CompanyLocker
	logger *zap.Logger
}

// NewDestinationResolver creates a DestinationResolver
func NewDestinationResolver(locker CompanyLocker, logger *zap.Logger) *DestinationResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DestinationResolver{
		locker: locker,
		logger: logger,
	}
}

// Resolve returns the product in warehouseToID matching src by barcode, then code,
// then article and name, then name alone. Without a match a mirror product with
// zero quantity is created under the company product-code lock.
func (r *DestinationResolver) Resolve(ctx context.Context, rn *run, repos TransactionalRepositories,
	src *warehouse.Product, warehouseToID uuid.UUID,
) (*warehouse.Product, error) {
	found, err := r.find(ctx, repos, src, warehouseToID)
	if err != nil || found != nil {
		return found, err
	}

	if err := rn.companyLock(ctx, r.locker, src.CompanyID, productCodeLockName); err != nil {
		return nil, fmt.Errorf("obtain product code lock: %w", err)
	}
	// A concurrent transfer may have created the mirror before the lock was ours.
	found, err = r.find(ctx, repos, src, warehouseToID)
	if err != nil || found != nil {
		return found, err
	}

	dest, err := repos.WarehouseRepo().FindByID(ctx, warehouseToID)
	if err != nil {
		return nil, fmt.Errorf("load destination warehouse: %w", err)
	}
	mirror := warehouse.NewMirrorProduct(src, warehouseToID, dest.BranchID)
	if err := r.assignCodes(ctx, repos, mirror); err != nil {
		return nil, err
	}
	if err := repos.ProductRepo().Create(ctx, mirror); err != nil {
		return nil, fmt.Errorf("create mirror product: %w", err)
	}
	r.logger.Info("created mirror product for transfer",
		zap.String("company_id", src.CompanyID.String()),
		zap.String("source_product_id", src.ID.String()),
		zap.String("product_id", mirror.ID.String()),
		zap.String("warehouse_id", warehouseToID.String()),
		zap.String("code", mirror.Code),
	)
	return mirror, nil
}

func (r *DestinationResolver) find(ctx context.Context, repos TransactionalRepositories,
	src *warehouse.Product, warehouseToID uuid.UUID,
) (*warehouse.Product, error) {
	products := repos.ProductRepo()
	if src.Barcode != "" {
		p, err := products.FindByBarcode(ctx, warehouseToID, src.Barcode)
		if err == nil || !errors.Is(err, shared.ErrNotFound) {
			return p, err
		}
	}
	if src.Code != "" {
		p, err := products.FindByCode(ctx, warehouseToID, src.Code)
		if err == nil || !errors.Is(err, shared.ErrNotFound) {
			return p, err
		}
	}

	candidates, err := products.FindByWarehouse(ctx, warehouseToID)
	if err != nil {
		return nil, fmt.Errorf("list destination products: %w", err)
	}
	// Casers are stateful and must not be shared between goroutines.
	fold := cases.Fold()
	name := fold.String(src.Name)
	if src.Article != "" {
		article := fold.String(src.Article)
		for i := range candidates {
			if fold.String(candidates[i].Article) == article && fold.String(candidates[i].Name) == name {
				return &candidates[i], nil
			}
		}
	}
	for i := range candidates {
		if fold.String(candidates[i].Name) == name {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// assignCodes gives p the next numeric code of its company and, for weight
// products, the next PLU. The caller holds the company product-code lock.
func (r *DestinationResolver) assignCodes(ctx context.Context, repos TransactionalRepositories, p *warehouse.Product) error {
	maxCode, err := repos.ProductRepo().MaxNumericCode(ctx, p.CompanyID)
	if err != nil {
		return fmt.Errorf("next product code: %w", err)
	}
	p.Code = fmt.Sprintf("%0*d", productCodeWidth, maxCode+1)

	if p.IsWeight {
		maxPLU, err := repos.ProductRepo().MaxPLU(ctx, p.CompanyID)
		if err != nil {
			return fmt.Errorf("next product PLU: %w", err)
		}
		p.PLU = strconv.FormatInt(maxPLU+1, 10)
	}
	return nil
}
