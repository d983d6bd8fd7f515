package posting

import (
	"errors"
	"reflect"
	"strings"

	"github.com/erp/warehouse/internal/domain/warehouse"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DecisionRequest carries a cashier's decision on a pending document
type DecisionRequest struct {
	DecidedBy *uuid.UUID `json:"decided_by"`
	Note      string     `json:"note" validate:"max=1000"`
}

// rejectRequest is DecisionRequest with the note made mandatory
type rejectRequest struct {
	DecidedBy *uuid.UUID `json:"decided_by"`
	Note      string     `json:"note" validate:"required,max=1000"`
}

// NewMoneyDocumentCommand creates a standalone DRAFT money document
type NewMoneyDocumentCommand struct {
	CompanyID         uuid.UUID       `json:"company_id" validate:"required"`
	BranchID          *uuid.UUID      `json:"branch_id"`
	DocType           string          `json:"doc_type" validate:"required,oneof=MONEY_RECEIPT MONEY_EXPENSE"`
	CashRegisterID    uuid.UUID       `json:"cash_register_id" validate:"required"`
	CounterpartyID    *uuid.UUID      `json:"counterparty_id"`
	PaymentCategoryID *uuid.UUID      `json:"payment_category_id"`
	Amount            decimal.Decimal `json:"amount"`
	Comment           string          `json:"comment" validate:"max=500"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateCommand runs struct validation and reports failures as a warehouse.ValidationError
func validateCommand(cmd any) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	v := &warehouse.ValidationError{}
	for _, fe := range fieldErrs {
		v.Add(fe.Field(), describeFieldError(fe))
	}
	return v
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}
