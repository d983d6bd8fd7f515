package event

import (
	"context"
	"fmt"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/erp/warehouse/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// JournalHandler writes every posting event to the log as one structured
// record carrying the JSON payload, giving an audit trail of document changes.
type JournalHandler struct {
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewJournalHandler creates a JournalHandler for the registered event types of serializer
func NewJournalHandler(serializer *EventSerializer, l *zap.Logger) *JournalHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &JournalHandler{serializer: serializer, logger: l}
}

// Handle logs the event
func (h *JournalHandler) Handle(ctx context.Context, e shared.DomainEvent) error {
	payload, err := h.serializer.Serialize(e)
	if err != nil {
		return fmt.Errorf("serialize %s: %w", e.EventType(), err)
	}
	logger.WithLogger(ctx, h.logger).Info("domain event",
		zap.String("event_type", e.EventType()),
		zap.String("event_id", e.EventID().String()),
		zap.String("aggregate_type", e.AggregateType()),
		zap.String("aggregate_id", e.AggregateID().String()),
		zap.String("company_id", e.CompanyID().String()),
		zap.Time("occurred_at", e.OccurredAt()),
		zap.ByteString("payload", payload),
	)
	return nil
}

// EventTypes returns the event types known to the serializer
func (h *JournalHandler) EventTypes() []string {
	return h.serializer.RegisteredTypes()
}

var _ shared.EventHandler = (*JournalHandler)(nil)
