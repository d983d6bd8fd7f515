package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/erp/warehouse/internal/application/posting"
	"github.com/erp/warehouse/internal/domain/shared"
	"github.com/erp/warehouse/internal/domain/warehouse"
	"github.com/erp/warehouse/internal/infrastructure/logger"
	"github.com/google/uuid"
)

// Exit codes beyond 0/1/2 let scripts tell business refusals from failures
const (
	exitValidation   = 3
	exitInvalidState = 4
	exitInsufficient = 5
	exitNotFound     = 6
	exitLockBusy     = 7
)

type execFunc func(ctx context.Context, a *app) (string, error)

type command struct {
	name    string
	summary string
	bind    func(fs *flag.FlagSet) execFunc
}

var commandOrder = []string{
	"post", "unpost", "approve", "reject", "recalc", "money-post", "money-unpost",
	"documents", "pending",
}

var commands = map[string]command{
	"post": {
		name:    "post",
		summary: "Post a DRAFT document (-doc, -allow-negative)",
		bind: func(fs *flag.FlagSet) execFunc {
			id := uuidFlag(fs, "doc", "document id")
			allowNegative := fs.String("allow-negative", "", "override the negative stock policy (true|false)")
			return func(ctx context.Context, a *app) (string, error) {
				override, err := parseOverride(*allowNegative)
				if err != nil {
					return "", err
				}
				doc, err := a.posting.PostDocument(ctx, *id, override)
				return describeDocument(doc), err
			}
		},
	},
	"unpost": {
		name:    "unpost",
		summary: "Return a document to DRAFT and reverse its moves (-doc)",
		bind: func(fs *flag.FlagSet) execFunc {
			id := uuidFlag(fs, "doc", "document id")
			return func(ctx context.Context, a *app) (string, error) {
				doc, err := a.posting.UnpostDocument(ctx, *id)
				return describeDocument(doc), err
			}
		},
	},
	"approve": {
		name:    "approve",
		summary: "Approve the pending cash request of a document (-doc, -by, -note)",
		bind: func(fs *flag.FlagSet) execFunc {
			id := uuidFlag(fs, "doc", "document id")
			decision := decisionFlags(fs)
			return func(ctx context.Context, a *app) (string, error) {
				req, err := decision.request()
				if err != nil {
					return "", err
				}
				doc, err := a.posting.ApproveCashRequest(withUser(ctx, req), *id, req)
				return describeDocument(doc), err
			}
		},
	},
	"reject": {
		name:    "reject",
		summary: "Reject the pending cash request and unpost the document (-doc, -by, -note)",
		bind: func(fs *flag.FlagSet) execFunc {
			id := uuidFlag(fs, "doc", "document id")
			decision := decisionFlags(fs)
			return func(ctx context.Context, a *app) (string, error) {
				req, err := decision.request()
				if err != nil {
					return "", err
				}
				doc, err := a.posting.RejectCashRequest(withUser(ctx, req), *id, req)
				return describeDocument(doc), err
			}
		},
	},
	"recalc": {
		name:    "recalc",
		summary: "Recompute line and document totals of a DRAFT document (-doc)",
		bind: func(fs *flag.FlagSet) execFunc {
			id := uuidFlag(fs, "doc", "document id")
			return func(ctx context.Context, a *app) (string, error) {
				doc, err := a.posting.RecalcDocumentTotals(ctx, *id)
				return describeDocument(doc), err
			}
		},
	},
	"money-post": {
		name:    "money-post",
		summary: "Post a DRAFT money document (-id)",
		bind: func(fs *flag.FlagSet) execFunc {
			id := uuidFlag(fs, "id", "money document id")
			return func(ctx context.Context, a *app) (string, error) {
				m, err := a.money.PostMoneyDocument(ctx, *id)
				return describeMoneyDocument(m), err
			}
		},
	},
	"money-unpost": {
		name:    "money-unpost",
		summary: "Return a posted money document to DRAFT (-id)",
		bind: func(fs *flag.FlagSet) execFunc {
			id := uuidFlag(fs, "id", "money document id")
			return func(ctx context.Context, a *app) (string, error) {
				m, err := a.money.UnpostMoneyDocument(ctx, *id)
				return describeMoneyDocument(m), err
			}
		},
	},
	"documents": {
		name:    "documents",
		summary: "List documents of a company (-company, -status, -type, -page, -size)",
		bind: func(fs *flag.FlagSet) execFunc {
			company := uuidFlag(fs, "company", "company id")
			status := fs.String("status", "", "only documents in this status")
			docType := fs.String("type", "", "only documents of this type")
			page := pageFlags(fs, "created_at")
			return func(ctx context.Context, a *app) (string, error) {
				filter := page.filter()
				if *status != "" {
					filter.Filters["status"] = *status
				}
				if *docType != "" {
					filter.Filters["doc_type"] = *docType
				}
				docs, err := a.documents.FindByCompany(logger.WithCompanyID(ctx, company.String()), *company, filter)
				if err != nil {
					return "", err
				}
				var b strings.Builder
				for i := range docs {
					fmt.Fprintf(&b, "%s  %s\n", docs[i].ID, describeDocument(&docs[i]))
				}
				fmt.Fprintf(&b, "%d document(s)", len(docs))
				return b.String(), nil
			}
		},
	},
	"pending": {
		name:    "pending",
		summary: "List cash requests waiting for a decision, oldest first (-company, -page, -size)",
		bind: func(fs *flag.FlagSet) execFunc {
			company := uuidFlag(fs, "company", "company id")
			page := pageFlags(fs, "created_at")
			return func(ctx context.Context, a *app) (string, error) {
				reqs, err := a.requests.FindPending(logger.WithCompanyID(ctx, company.String()), *company, page.filter())
				if err != nil {
					return "", err
				}
				var b strings.Builder
				for _, r := range reqs {
					money := "-"
					if r.MoneyDocType != nil {
						money = r.MoneyDocType.String()
					}
					fmt.Fprintf(&b, "document %s  amount=%s  money=%s\n", r.DocumentID, r.Amount.StringFixed(2), money)
				}
				fmt.Fprintf(&b, "%d pending request(s)", len(reqs))
				return b.String(), nil
			}
		},
	},
}

type pageArgs struct {
	page    int
	size    int
	orderBy string
	desc    bool
}

func pageFlags(fs *flag.FlagSet, defaultOrder string) *pageArgs {
	p := &pageArgs{}
	fs.IntVar(&p.page, "page", 1, "page number")
	fs.IntVar(&p.size, "size", 50, "page size")
	fs.StringVar(&p.orderBy, "order", defaultOrder, "sort field")
	fs.BoolVar(&p.desc, "desc", false, "sort descending")
	return p
}

func (p *pageArgs) filter() shared.Filter {
	dir := "asc"
	if p.desc {
		dir = "desc"
	}
	return shared.Filter{
		Page:     p.page,
		PageSize: p.size,
		OrderBy:  p.orderBy,
		OrderDir: dir,
		Filters:  make(map[string]interface{}),
	}
}

// uuidValue is a flag.Value parsing a UUID
type uuidValue struct{ id *uuid.UUID }

func (v uuidValue) String() string {
	if v.id == nil || *v.id == uuid.Nil {
		return ""
	}
	return v.id.String()
}

func (v uuidValue) Set(s string) error {
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*v.id = id
	return nil
}

func uuidFlag(fs *flag.FlagSet, name, usage string) *uuid.UUID {
	id := new(uuid.UUID)
	fs.Var(uuidValue{id}, name, usage)
	return id
}

type decisionArgs struct {
	by   string
	note string
}

func decisionFlags(fs *flag.FlagSet) *decisionArgs {
	d := &decisionArgs{}
	fs.StringVar(&d.by, "by", "", "id of the deciding cashier")
	fs.StringVar(&d.note, "note", "", "decision note, required when rejecting")
	return d
}

func (d *decisionArgs) request() (posting.DecisionRequest, error) {
	req := posting.DecisionRequest{Note: d.note}
	if d.by != "" {
		id, err := uuid.Parse(d.by)
		if err != nil {
			return req, fmt.Errorf("invalid -by: %w", err)
		}
		req.DecidedBy = &id
	}
	return req, nil
}

func withUser(ctx context.Context, req posting.DecisionRequest) context.Context {
	if req.DecidedBy == nil {
		return ctx
	}
	return logger.WithUserID(ctx, req.DecidedBy.String())
}

// parseOverride maps "" to nil so the configured policy applies
func parseOverride(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("invalid -allow-negative %q: %w", s, err)
	}
	return &b, nil
}

func describeDocument(d *warehouse.Document) string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("%s %s %s total=%s", d.DocType, d.Number, d.Status, d.Total.StringFixed(2))
}

func describeMoneyDocument(m *warehouse.MoneyDocument) string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%s %s %s amount=%s", m.DocType, m.Number, m.Status, m.Amount.StringFixed(2))
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, warehouse.ErrValidation):
		return exitValidation
	case errors.Is(err, shared.ErrInsufficientStock):
		return exitInsufficient
	case errors.Is(err, shared.ErrInvalidState):
		return exitInvalidState
	case errors.Is(err, shared.ErrNotFound):
		return exitNotFound
	case errors.Is(err, shared.ErrLockNotObtained):
		return exitLockBusy
	default:
		return 1
	}
}
