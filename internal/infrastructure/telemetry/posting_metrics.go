package telemetry

import (
	"context"

	"github.com/erp/warehouse/internal/domain/warehouse"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AttrDocType labels posting counters by document type
var AttrDocType = attribute.Key("doc_type")

// PostingMetrics records posting outcomes as OpenTelemetry counters.
type PostingMetrics struct {
	posted            *Counter
	unposted          *Counter
	insufficientStock *Counter
	moneyPosted       *Counter
}

// NewPostingMetrics registers the posting counters on meter.
func NewPostingMetrics(meter metric.Meter) (*PostingMetrics, error) {
	posted, err := NewCounter(meter, "wms_documents_posted_total", "Documents posted", "{document}")
	if err != nil {
		return nil, err
	}
	unposted, err := NewCounter(meter, "wms_documents_unposted_total", "Documents unposted", "{document}")
	if err != nil {
		return nil, err
	}
	insufficient, err := NewCounter(meter, "wms_insufficient_stock_total", "Postings refused for insufficient stock", "{attempt}")
	if err != nil {
		return nil, err
	}
	money, err := NewCounter(meter, "wms_money_documents_posted_total", "Money documents posted", "{document}")
	if err != nil {
		return nil, err
	}
	return &PostingMetrics{
		posted:            posted,
		unposted:          unposted,
		insufficientStock: insufficient,
		moneyPosted:       money,
	}, nil
}

func (m *PostingMetrics) DocumentPosted(ctx context.Context, docType warehouse.DocType) {
	m.posted.Inc(ctx, AttrDocType.String(string(docType)))
}

func (m *PostingMetrics) DocumentUnposted(ctx context.Context, docType warehouse.DocType) {
	m.unposted.Inc(ctx, AttrDocType.String(string(docType)))
}

func (m *PostingMetrics) InsufficientStock(ctx context.Context, docType warehouse.DocType) {
	m.insufficientStock.Inc(ctx, AttrDocType.String(string(docType)))
}

func (m *PostingMetrics) MoneyDocumentPosted(ctx context.Context, docType warehouse.MoneyDocType) {
	m.moneyPosted.Inc(ctx, AttrDocType.String(string(docType)))
}
