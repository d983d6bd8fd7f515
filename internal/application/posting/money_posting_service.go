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
	"go.uber.org/zap"
)

// MoneyPostingService numbers and posts cash-side documents
type MoneyPostingService struct {
	scope          TransactionScope
	logger         *zap.Logger
	metrics        Metrics
	eventPublisher shared.EventPublisher
}

// NewMoneyPostingService creates a MoneyPostingService
func NewMoneyPostingService(scope TransactionScope, logger *zap.Logger) *MoneyPostingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MoneyPostingService{
		scope:   scope,
		logger:  logger,
		metrics: noopMetrics{},
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *MoneyPostingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the posting metrics recorder
func (s *MoneyPostingService) SetMetrics(metrics Metrics) {
	if metrics != nil {
		s.metrics = metrics
	}
}

// CreateMoneyDocument stores a standalone DRAFT money document
func (s *MoneyPostingService) CreateMoneyDocument(ctx context.Context, cmd NewMoneyDocumentCommand) (*warehouse.MoneyDocument, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	m, err := warehouse.NewMoneyDocument(cmd.CompanyID, cmd.BranchID, warehouse.MoneyDocType(cmd.DocType), cmd.CashRegisterID, valueobject.RoundMoney(cmd.Amount))
	if err != nil {
		return nil, err
	}
	m.CounterpartyID = cmd.CounterpartyID
	m.PaymentCategoryID = cmd.PaymentCategoryID
	m.Comment = cmd.Comment

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.MoneyDocumentRepo().Save(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// PostMoneyDocument validates, numbers and posts a money document
func (s *MoneyPostingService) PostMoneyDocument(ctx context.Context, id uuid.UUID) (*warehouse.MoneyDocument, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "money_posting", "post",
		telemetry.WithAttribute(telemetry.SpanAttrMoneyDocumentID, id.String()))
	defer span.End()

	rn := newRun()
	var result *warehouse.MoneyDocument
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		m, err := repos.MoneyDocumentRepo().LockByID(ctx, id)
		if err != nil {
			return err
		}
		rn.track(m)
		if err := s.postInTx(ctx, repos, m); err != nil {
			return err
		}
		if err := repos.MoneyDocumentRepo().Save(ctx, m); err != nil {
			return fmt.Errorf("save money document: %w", err)
		}
		result = m
		return nil
	})
	if err != nil {
		rn.discard()
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.MoneyDocumentPosted(ctx, result.DocType)
	s.publish(ctx, rn)
	s.logger.Info("money document posted",
		zap.String("money_document_id", result.ID.String()),
		zap.String("number", result.Number),
		zap.String("amount", valueobject.FormatMoney(result.Amount)),
	)
	return result, nil
}

// UnpostMoneyDocument returns a POSTED money document to DRAFT keeping its number
func (s *MoneyPostingService) UnpostMoneyDocument(ctx context.Context, id uuid.UUID) (*warehouse.MoneyDocument, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "money_posting", "unpost",
		telemetry.WithAttribute(telemetry.SpanAttrMoneyDocumentID, id.String()))
	defer span.End()

	rn := newRun()
	var result *warehouse.MoneyDocument
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		m, err := repos.MoneyDocumentRepo().LockByID(ctx, id)
		if err != nil {
			return err
		}
		rn.track(m)
		if err := m.MarkUnposted(); err != nil {
			return err
		}
		if err := repos.MoneyDocumentRepo().Save(ctx, m); err != nil {
			return fmt.Errorf("save money document: %w", err)
		}
		result = m
		return nil
	})
	if err != nil {
		rn.discard()
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, rn)
	s.logger.Info("money document unposted",
		zap.String("money_document_id", result.ID.String()),
		zap.String("number", result.Number),
	)
	return result, nil
}

// postInTx runs the posting rules for m inside the caller's transaction. It does not save m.
func (s *MoneyPostingService) postInTx(ctx context.Context, repos TransactionalRepositories, m *warehouse.MoneyDocument) error {
	if m.Status == warehouse.MoneyDocumentStatusPosted {
		return m.MarkPosted()
	}

	var register *warehouse.CashRegister
	if m.CashRegisterID != uuid.Nil {
		r, err := repos.CashRegisterRepo().FindByID(ctx, m.CashRegisterID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("load cash register: %w", err)
		}
		register = r
	}
	var category *warehouse.PaymentCategory
	if m.PaymentCategoryID != nil {
		c, err := repos.PaymentCategoryRepo().FindByID(ctx, *m.PaymentCategoryID)
		if errors.Is(err, shared.ErrNotFound) {
			return warehouse.NewValidationError("payment_category_id", "payment category not found")
		}
		if err != nil {
			return fmt.Errorf("load payment category: %w", err)
		}
		category = c
	}
	if err := m.Validate(register, category); err != nil {
		return err
	}

	if m.Number == "" {
		seq, err := repos.SequenceRepo().NextSequence(ctx, m.CompanyID, m.DocType.String(), warehouse.SequenceDay(m.DocDate))
		if err != nil {
			return fmt.Errorf("next money document number: %w", err)
		}
		m.AssignNumber(warehouse.FormatNumber(m.DocType.String(), m.DocDate, seq))
	}
	return m.MarkPosted()
}

// createForDocument creates and posts a money document paying amount for doc
func (s *MoneyPostingService) createForDocument(ctx context.Context, rn *run, repos TransactionalRepositories,
	doc *warehouse.Document, docType warehouse.MoneyDocType, amount decimal.Decimal,
) (*warehouse.MoneyDocument, error) {
	if doc.DocType.IsTrade() {
		if doc.CounterpartyID == nil {
			return nil, warehouse.NewValidationError("counterparty_id", "is required to create a money document")
		}
		if _, err := repos.CounterpartyRepo().FindByID(ctx, *doc.CounterpartyID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, warehouse.NewValidationError("counterparty_id", "counterparty not found")
			}
			return nil, fmt.Errorf("load counterparty: %w", err)
		}
	}
	register, err := resolveCashRegister(ctx, repos, doc)
	if err != nil {
		return nil, err
	}
	category, err := resolvePaymentCategory(ctx, repos, doc, docType.CategoryKind())
	if err != nil {
		return nil, err
	}

	m, err := warehouse.NewMoneyDocumentForSource(doc, docType, register, category, valueobject.RoundMoney(amount))
	if err != nil {
		return nil, err
	}
	rn.track(m)
	if err := s.postInTx(ctx, repos, m); err != nil {
		return nil, err
	}
	if err := repos.MoneyDocumentRepo().Save(ctx, m); err != nil {
		return nil, fmt.Errorf("save money document: %w", err)
	}
	return m, nil
}

// unpostBySource unposts every POSTED money document spawned by doc
func (s *MoneyPostingService) unpostBySource(ctx context.Context, rn *run, repos TransactionalRepositories, doc *warehouse.Document) error {
	docs, err := repos.MoneyDocumentRepo().FindPostedBySource(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("find money documents: %w", err)
	}
	for i := range docs {
		m := &docs[i]
		rn.track(m)
		if err := m.MarkUnposted(); err != nil {
			return err
		}
		if err := repos.MoneyDocumentRepo().Save(ctx, m); err != nil {
			return fmt.Errorf("save money document: %w", err)
		}
	}
	return nil
}

func (s *MoneyPostingService) publish(ctx context.Context, rn *run) {
	events := rn.events()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish money document events", zap.Error(err))
	}
}

// resolveCashRegister returns the explicit register of doc or the unique default of its company and branch
func resolveCashRegister(ctx context.Context, repos TransactionalRepositories, doc *warehouse.Document) (*warehouse.CashRegister, error) {
	if doc.CashRegisterID != nil {
		r, err := repos.CashRegisterRepo().FindByID(ctx, *doc.CashRegisterID)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, warehouse.NewValidationError("cash_register_id", "cash register not found")
		}
		if err != nil {
			return nil, fmt.Errorf("load cash register: %w", err)
		}
		return r, nil
	}
	defaults, err := repos.CashRegisterRepo().FindDefaults(ctx, doc.CompanyID, doc.BranchID)
	if err != nil {
		return nil, fmt.Errorf("find default cash registers: %w", err)
	}
	switch len(defaults) {
	case 0:
		return nil, warehouse.NewValidationError("cash_register_id", "no default cash register; choose one explicitly")
	case 1:
		return &defaults[0], nil
	default:
		return nil, warehouse.NewValidationError("cash_register_id",
			fmt.Sprintf("%d default cash registers; choose one explicitly", len(defaults)))
	}
}

// resolvePaymentCategory returns the explicit category of doc or the unique default of the kind
func resolvePaymentCategory(ctx context.Context, repos TransactionalRepositories, doc *warehouse.Document,
	kind warehouse.PaymentCategoryKind,
) (*warehouse.PaymentCategory, error) {
	if doc.PaymentCategoryID != nil {
		c, err := repos.PaymentCategoryRepo().FindByID(ctx, *doc.PaymentCategoryID)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, warehouse.NewValidationError("payment_category_id", "payment category not found")
		}
		if err != nil {
			return nil, fmt.Errorf("load payment category: %w", err)
		}
		return c, nil
	}
	defaults, err := repos.PaymentCategoryRepo().FindDefaults(ctx, doc.CompanyID, doc.BranchID, kind)
	if err != nil {
		return nil, fmt.Errorf("find default payment categories: %w", err)
	}
	switch len(defaults) {
	case 0:
		return nil, warehouse.NewValidationError("payment_category_id",
			fmt.Sprintf("no default %s payment category; choose one explicitly", kind))
	case 1:
		return &defaults[0], nil
	default:
		return nil, warehouse.NewValidationError("payment_category_id",
			fmt.Sprintf("%d default %s payment categories; choose one explicitly", len(defaults), kind))
	}
}
