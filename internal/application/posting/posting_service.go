package posting

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/erp/warehouse/internal/domain/shared/valueobject"
	"github.com/erp/warehouse/internal/domain/warehouse"
	"github.com/erp/warehouse/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// PostingService drives documents through DRAFT → CASH_PENDING → POSTED/REJECTED
// and back to DRAFT, keeping the stock ledgers, the cash gate and money documents
// consistent. Each entry point is a single transaction.
type PostingService struct {
	scope          TransactionScope
	ledger         *StockLedger
	agentLedger    *AgentStockLedger
	money          *MoneyPostingService
	resolver       *DestinationResolver
	logger         *zap.Logger
	metrics        Metrics
	eventPublisher shared.EventPublisher
}

// NewPostingService creates a PostingService
func NewPostingService(
	scope TransactionScope,
	ledger *StockLedger,
	agentLedger *AgentStockLedger,
	money *MoneyPostingService,
	resolver *DestinationResolver,
	logger *zap.Logger,
) *PostingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostingService{
		scope:       scope,
		ledger:      ledger,
		agentLedger: agentLedger,
		money:       money,
		resolver:    resolver,
		logger:      logger,
		metrics:     noopMetrics{},
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PostingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the posting metrics recorder
func (s *PostingService) SetMetrics(metrics Metrics) {
	if metrics != nil {
		s.metrics = metrics
	}
}

// PostDocument validates a DRAFT document, numbers it, applies its moves and opens
// the cash gate. CREDIT documents skip the gate and go straight to POSTED.
// allowNegative overrides the ledger's negative-stock policy when non-nil.
func (s *PostingService) PostDocument(ctx context.Context, documentID uuid.UUID, allowNegative *bool) (*warehouse.Document, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "posting", "post_document",
		telemetry.WithAttribute(telemetry.SpanAttrDocumentID, documentID.String()))
	defer span.End()

	rn := newRun()
	defer rn.release(ctx, s.logger)
	var doc *warehouse.Document
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		d, err := repos.DocumentRepo().LockByID(ctx, documentID)
		if err != nil {
			return err
		}
		doc = d
		rn.track(d)
		if err := d.CanPost(); err != nil {
			return err
		}

		products, err := s.loadProducts(ctx, repos, d)
		if err != nil {
			return err
		}
		if err := d.Clean(); err != nil {
			return err
		}
		if err := d.CleanItems(products); err != nil {
			return err
		}

		if d.Number == "" {
			seq, err := repos.SequenceRepo().NextSequence(ctx, d.CompanyID, d.DocType.String(), warehouse.SequenceDay(d.DocDate))
			if err != nil {
				return fmt.Errorf("next document number: %w", err)
			}
			d.AssignNumber(warehouse.FormatNumber(d.DocType.String(), d.DocDate, seq))
		}
		d.RecalcTotals()

		if err := s.applyMoves(ctx, rn, repos, d, products, allowNegative); err != nil {
			return err
		}

		if d.PaymentKind == warehouse.PaymentKindCredit {
			if err := d.MarkPosted(false); err != nil {
				return err
			}
			if d.PrepaymentAmount.IsPositive() {
				moneyType, _ := d.DocType.MoneyDocType()
				if _, err := s.money.createForDocument(ctx, rn, repos, d, moneyType, d.PrepaymentAmount); err != nil {
					return err
				}
			}
		} else {
			if err := d.MarkPosted(true); err != nil {
				return err
			}
			if err := s.openCashRequest(ctx, repos, d); err != nil {
				return err
			}
		}

		if err := repos.DocumentRepo().Save(ctx, d); err != nil {
			return fmt.Errorf("save document: %w", err)
		}
		return nil
	})
	if err != nil {
		rn.discard()
		s.failed(ctx, span, "post document failed", doc, documentID, err)
		return nil, err
	}

	s.metrics.DocumentPosted(ctx, doc.DocType)
	s.publish(ctx, rn)
	s.logger.Info("document posted",
		zap.String("document_id", doc.ID.String()),
		zap.String("number", doc.Number),
		zap.String("doc_type", doc.DocType.String()),
		zap.String("status", doc.Status.String()),
		zap.String("total", valueobject.FormatMoney(doc.Total)),
	)
	return doc, nil
}

// UnpostDocument reverses every move of a CASH_PENDING or POSTED document, unposts
// the money documents it spawned and returns it to DRAFT.
func (s *PostingService) UnpostDocument(ctx context.Context, documentID uuid.UUID) (*warehouse.Document, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "posting", "unpost_document",
		telemetry.WithAttribute(telemetry.SpanAttrDocumentID, documentID.String()))
	defer span.End()

	rn := newRun()
	var doc *warehouse.Document
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		d, err := repos.DocumentRepo().LockByID(ctx, documentID)
		if err != nil {
			return err
		}
		doc = d
		rn.track(d)
		if err := s.unpostInTx(ctx, rn, repos, d); err != nil {
			return err
		}
		if err := repos.DocumentRepo().Save(ctx, d); err != nil {
			return fmt.Errorf("save document: %w", err)
		}
		return nil
	})
	if err != nil {
		rn.discard()
		s.failed(ctx, span, "unpost document failed", doc, documentID, err)
		return nil, err
	}

	s.metrics.DocumentUnposted(ctx, doc.DocType)
	s.publish(ctx, rn)
	s.logger.Info("document unposted",
		zap.String("document_id", doc.ID.String()),
		zap.String("number", doc.Number),
	)
	return doc, nil
}

// ApproveCashRequest accepts the monetary side of a CASH_PENDING document. When
// the request requires money, a money document for the requested amount is
// created and posted. The document becomes POSTED.
func (s *PostingService) ApproveCashRequest(ctx context.Context, documentID uuid.UUID, req DecisionRequest) (*warehouse.Document, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "posting", "approve_cash_request",
		telemetry.WithAttribute(telemetry.SpanAttrDocumentID, documentID.String()))
	defer span.End()

	if err := validateCommand(req); err != nil {
		return nil, err
	}

	rn := newRun()
	var doc *warehouse.Document
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		d, err := repos.DocumentRepo().LockByID(ctx, documentID)
		if err != nil {
			return err
		}
		doc = d
		rn.track(d)
		if err := d.CanDecide(); err != nil {
			return err
		}
		cashReq, err := s.pendingRequest(ctx, repos, d)
		if err != nil {
			return err
		}

		var moneyID *uuid.UUID
		if cashReq.RequiresMoney && cashReq.MoneyDocType != nil {
			m, err := s.money.createForDocument(ctx, rn, repos, d, *cashReq.MoneyDocType, cashReq.Amount)
			if err != nil {
				return err
			}
			moneyID = &m.ID
		}
		if err := cashReq.Approve(req.DecidedBy, req.Note, moneyID); err != nil {
			return err
		}
		if err := repos.CashRequestRepo().Save(ctx, cashReq); err != nil {
			return fmt.Errorf("save cash request: %w", err)
		}
		if err := d.ConfirmPosting(); err != nil {
			return err
		}
		d.AddDomainEvent(warehouse.NewCashRequestApprovedEvent(d, cashReq))
		if err := repos.DocumentRepo().Save(ctx, d); err != nil {
			return fmt.Errorf("save document: %w", err)
		}
		return nil
	})
	if err != nil {
		rn.discard()
		s.failed(ctx, span, "approve cash request failed", doc, documentID, err)
		return nil, err
	}

	s.publish(ctx, rn)
	s.logger.Info("cash request approved",
		zap.String("document_id", doc.ID.String()),
		zap.String("number", doc.Number),
	)
	return doc, nil
}

// RejectCashRequest refuses a CASH_PENDING document: stock is fully reversed and
// both the document and the request end REJECTED. A note is mandatory.
func (s *PostingService) RejectCashRequest(ctx context.Context, documentID uuid.UUID, req DecisionRequest) (*warehouse.Document, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "posting", "reject_cash_request",
		telemetry.WithAttribute(telemetry.SpanAttrDocumentID, documentID.String()))
	defer span.End()

	if err := validateCommand(rejectRequest(req)); err != nil {
		return nil, err
	}

	rn := newRun()
	var doc *warehouse.Document
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		d, err := repos.DocumentRepo().LockByID(ctx, documentID)
		if err != nil {
			return err
		}
		doc = d
		rn.track(d)
		if err := d.CanDecide(); err != nil {
			return err
		}
		cashReq, err := s.pendingRequest(ctx, repos, d)
		if err != nil {
			return err
		}

		// Decide first so the reversal below does not auto-reject the request.
		if err := cashReq.Reject(req.DecidedBy, req.Note); err != nil {
			return err
		}
		if err := repos.CashRequestRepo().Save(ctx, cashReq); err != nil {
			return fmt.Errorf("save cash request: %w", err)
		}
		if err := s.unpostInTx(ctx, rn, repos, d); err != nil {
			return err
		}
		if err := d.MarkRejected(); err != nil {
			return err
		}
		d.AddDomainEvent(warehouse.NewCashRequestRejectedEvent(d, cashReq))
		if err := repos.DocumentRepo().Save(ctx, d); err != nil {
			return fmt.Errorf("save document: %w", err)
		}
		return nil
	})
	if err != nil {
		rn.discard()
		s.failed(ctx, span, "reject cash request failed", doc, documentID, err)
		return nil, err
	}

	s.metrics.DocumentUnposted(ctx, doc.DocType)
	s.publish(ctx, rn)
	s.logger.Info("cash request rejected",
		zap.String("document_id", doc.ID.String()),
		zap.String("number", doc.Number),
		zap.String("note", req.Note),
	)
	return doc, nil
}

// RecalcDocumentTotals recomputes and stores line totals and the total of a DRAFT
// document. Repeated calls without item changes leave the document untouched.
func (s *PostingService) RecalcDocumentTotals(ctx context.Context, documentID uuid.UUID) (*warehouse.Document, error) {
	var doc *warehouse.Document
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		d, err := repos.DocumentRepo().LockByID(ctx, documentID)
		if err != nil {
			return err
		}
		doc = d
		if err := d.CanPost(); err != nil {
			return err
		}
		if !d.RecalcTotals() {
			return nil
		}
		return repos.DocumentRepo().Save(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *PostingService) loadProducts(ctx context.Context, repos TransactionalRepositories, d *warehouse.Document) (map[uuid.UUID]*warehouse.Product, error) {
	list, err := repos.ProductRepo().FindByIDs(ctx, d.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	products := make(map[uuid.UUID]*warehouse.Product, len(list))
	for i := range list {
		products[list[i].ID] = &list[i]
	}
	return products, nil
}

// applyMoves routes every item through the ledger chosen by the doc type
func (s *PostingService) applyMoves(ctx context.Context, rn *run, repos TransactionalRepositories,
	d *warehouse.Document, products map[uuid.UUID]*warehouse.Product, allowNegative *bool,
) error {
	for i := range d.Items {
		item := &d.Items[i]
		product := products[item.ProductID]

		switch {
		case d.IsAgentDocument():
			sign, ok := d.DocType.StockSign()
			if !ok {
				return warehouse.NewValidationError("agent_id", fmt.Sprintf("is not allowed for %s", d.DocType))
			}
			if _, err := s.agentLedger.ApplyMove(ctx, repos, d, *d.AgentID, d.WarehouseFromID, product, signed(item.Qty, sign)); err != nil {
				return err
			}

		case d.DocType == warehouse.DocTypeTransfer:
			dest, err := s.resolver.Resolve(ctx, rn, repos, product, *d.WarehouseToID)
			if err != nil {
				return err
			}
			if _, err := s.ledger.ApplyMove(ctx, repos, d, d.WarehouseFromID, product, item.Qty.Neg(), allowNegative); err != nil {
				return err
			}
			if _, err := s.ledger.ApplyMove(ctx, repos, d, *d.WarehouseToID, dest, item.Qty, allowNegative); err != nil {
				return err
			}

		case d.DocType == warehouse.DocTypeInventory:
			if _, err := s.ledger.ApplyCount(ctx, repos, d, d.WarehouseFromID, product, item.Qty, allowNegative); err != nil {
				return err
			}

		default:
			sign, ok := d.DocType.StockSign()
			if !ok {
				return warehouse.NewValidationError("doc_type", fmt.Sprintf("unsupported document type %q", d.DocType))
			}
			if _, err := s.ledger.ApplyMove(ctx, repos, d, d.WarehouseFromID, product, signed(item.Qty, sign), allowNegative); err != nil {
				return err
			}
		}
	}
	return nil
}

// openCashRequest creates the document's PENDING request or resets the existing one
func (s *PostingService) openCashRequest(ctx context.Context, repos TransactionalRepositories, d *warehouse.Document) error {
	cashReq, err := repos.CashRequestRepo().FindByDocument(ctx, d.ID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		cashReq = warehouse.NewCashApprovalRequest(d)
	case err != nil:
		return fmt.Errorf("load cash request: %w", err)
	default:
		cashReq.Reset(d)
	}
	if err := repos.CashRequestRepo().Save(ctx, cashReq); err != nil {
		return fmt.Errorf("save cash request: %w", err)
	}
	return nil
}

func (s *PostingService) pendingRequest(ctx context.Context, repos TransactionalRepositories, d *warehouse.Document) (*warehouse.CashApprovalRequest, error) {
	cashReq, err := repos.CashRequestRepo().FindByDocument(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("load cash request: %w", err)
	}
	if !cashReq.IsPending() {
		return nil, &warehouse.StateError{
			Reason:  warehouse.ErrAlreadyProcessed.Reason,
			Message: fmt.Sprintf("cash request of document %s is already %s", d.Number, cashReq.Status),
		}
	}
	return cashReq, nil
}

// unpostInTx reverses all ledger effects of d and returns it to DRAFT. It does not save d.
func (s *PostingService) unpostInTx(ctx context.Context, rn *run, repos TransactionalRepositories, d *warehouse.Document) error {
	if err := d.CanUnpost(); err != nil {
		return err
	}

	moves, err := repos.StockRepo().FindMovesByDocument(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("find stock moves: %w", err)
	}
	for i := range moves {
		if err := s.ledger.UnapplyMove(ctx, repos, &moves[i]); err != nil {
			return err
		}
	}
	agentMoves, err := repos.AgentStockRepo().FindMovesByDocument(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("find agent stock moves: %w", err)
	}
	for i := range agentMoves {
		if err := s.agentLedger.UnapplyMove(ctx, repos, &agentMoves[i]); err != nil {
			return err
		}
	}

	if err := s.money.unpostBySource(ctx, rn, repos, d); err != nil {
		return err
	}

	cashReq, err := repos.CashRequestRepo().FindByDocument(ctx, d.ID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
	case err != nil:
		return fmt.Errorf("load cash request: %w", err)
	case cashReq.IsPending():
		if err := cashReq.Reject(nil, warehouse.AutoRejectNote); err != nil {
			return err
		}
		if err := repos.CashRequestRepo().Save(ctx, cashReq); err != nil {
			return fmt.Errorf("save cash request: %w", err)
		}
	}

	return d.MarkUnposted()
}

func (s *PostingService) publish(ctx context.Context, rn *run) {
	events := rn.events()
	for _, e := range events {
		if posted, ok := e.(*warehouse.MoneyDocumentPostedEvent); ok {
			s.metrics.MoneyDocumentPosted(ctx, posted.DocType)
		}
	}
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish posting events", zap.Error(err))
	}
}

// failed records a rolled back entry point. Business rule violations are logged
// at Warn, anything else at Error.
func (s *PostingService) failed(ctx context.Context, span trace.Span, msg string, doc *warehouse.Document, documentID uuid.UUID, err error) {
	telemetry.RecordError(span, err)
	fields := []zap.Field{zap.String("document_id", documentID.String()), zap.Error(err)}
	if doc != nil {
		fields = append(fields, zap.String("doc_type", doc.DocType.String()), zap.String("number", doc.Number))
	}

	var insufficient *warehouse.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		if doc != nil {
			s.metrics.InsufficientStock(ctx, doc.DocType)
		}
		s.logger.Warn(msg, fields...)
	case errors.Is(err, warehouse.ErrValidation), errors.Is(err, shared.ErrInvalidState), errors.Is(err, shared.ErrNotFound):
		s.logger.Warn(msg, fields...)
	default:
		s.logger.Error(msg, fields...)
	}
}

func signed(qty decimal.Decimal, sign int64) decimal.Decimal {
	if sign < 0 {
		return qty.Neg()
	}
	return qty
}
