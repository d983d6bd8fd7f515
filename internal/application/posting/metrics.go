package posting

import (
	"context"

	"github.com/erp/warehouse/internal/domain/warehouse"
)

// Metrics receives posting outcomes
type Metrics interface {
	DocumentPosted(ctx context.Context, docType warehouse.DocType)
	DocumentUnposted(ctx context.Context, docType warehouse.DocType)
	InsufficientStock(ctx context.Context, docType warehouse.DocType)
	MoneyDocumentPosted(ctx context.Context, docType warehouse.MoneyDocType)
}

type noopMetrics struct{}

func (noopMetrics) DocumentPosted(context.Context, warehouse.DocType)           {}
func (noopMetrics) DocumentUnposted(context.Context, warehouse.DocType)         {}
func (noopMetrics) InsufficientStock(context.Context, warehouse.DocType)        {}
func (noopMetrics) MoneyDocumentPosted(context.Context, warehouse.MoneyDocType) {}
