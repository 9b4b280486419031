package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/sangkips/registerd/internal/domain/enum"
	"github.com/sangkips/registerd/internal/pricing"
	"github.com/sangkips/registerd/pkg/apperror"
)

// Instruments holds the payment targets configured for the branch. A nil
// reference means no target of that kind is selectable.
type Instruments struct {
	CashSafeID    *uuid.UUID
	BankAccountID *uuid.UUID
}

// PaymentPlanInput is the plan as chosen by the user at checkout. Amounts are
// pointers so that "not entered" is distinguishable from zero.
type PaymentPlanInput struct {
	Mode       enum.PaymentMode `json:"mode"`
	Split      bool             `json:"split"`
	CashAmount *float64         `json:"cash_amount,omitempty"`
	CardAmount *float64         `json:"card_amount,omitempty"`
}

// ValidatedPlan is the reconciled plan: instrument references assigned and
// amounts confirmed. Reconciliation never mutates the net it was given.
type ValidatedPlan struct {
	Mode          enum.PaymentMode `json:"mode"`
	Split         bool             `json:"split"`
	CashSafeID    *uuid.UUID       `json:"cash_safe_id,omitempty"`
	BankAccountID *uuid.UUID       `json:"bank_account_id,omitempty"`
	CashAmount    float64          `json:"cash_amount"`
	CardAmount    float64          `json:"card_amount"`
}

// DeriveSplit computes the counterpart amount when the user edits one side of
// a split: net minus the edited amount, clamped at zero.
func DeriveSplit(net, edited float64) float64 {
	other := net - edited
	if other < 0 {
		return 0
	}
	return other
}

// ReconcilePlan validates the chosen plan against the net amount and the
// configured instruments. Failures are returned, not panicked, so the caller
// can surface a message and keep the draft open.
func ReconcilePlan(net float64, plan PaymentPlanInput, instruments Instruments) (*ValidatedPlan, error) {
	if plan.Mode == enum.PaymentModeCredit {
		if plan.Split || plan.CashAmount != nil || plan.CardAmount != nil {
			return nil, apperror.NewValidationError([]apperror.FieldError{
				{Field: "mode", Message: "a credit invoice carries no payment instruments"},
			})
		}
		return &ValidatedPlan{Mode: enum.PaymentModeCredit}, nil
	}

	if plan.Split {
		return reconcileSplit(net, plan, instruments)
	}

	switch plan.Mode {
	case enum.PaymentModeCash:
		if instruments.CashSafeID == nil {
			return nil, apperror.NewValidationError([]apperror.FieldError{
				{Field: "cash_amount", Message: "no cash safe is configured for this branch"},
			})
		}
		return &ValidatedPlan{
			Mode:       enum.PaymentModeCash,
			CashSafeID: instruments.CashSafeID,
			CashAmount: net,
		}, nil
	case enum.PaymentModeCard:
		if instruments.BankAccountID == nil {
			return nil, apperror.NewValidationError([]apperror.FieldError{
				{Field: "card_amount", Message: "no bank account is configured for this branch"},
			})
		}
		return &ValidatedPlan{
			Mode:          enum.PaymentModeCard,
			BankAccountID: instruments.BankAccountID,
			CardAmount:    net,
		}, nil
	default:
		return nil, apperror.NewBadRequestError("Unknown payment mode")
	}
}

func reconcileSplit(net float64, plan PaymentPlanInput, instruments Instruments) (*ValidatedPlan, error) {
	if instruments.CashSafeID == nil || instruments.BankAccountID == nil {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "split", Message: "a split payment needs both a cash safe and a bank account configured"},
		})
	}

	var cash, card float64
	switch {
	case plan.CashAmount != nil && plan.CardAmount != nil:
		cash, card = *plan.CashAmount, *plan.CardAmount
	case plan.CashAmount != nil:
		cash = *plan.CashAmount
		card = DeriveSplit(net, cash)
	case plan.CardAmount != nil:
		card = *plan.CardAmount
		cash = DeriveSplit(net, card)
	default:
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "cash_amount", Message: "enter at least one amount for a split payment"},
		})
	}

	if cash < 0 || card < 0 {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "split", Message: "split amounts cannot be negative"},
		})
	}

	if !pricing.ApproxEqual(cash+card, net) {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "split", Message: fmt.Sprintf("split amounts %.2f + %.2f do not balance the net %.2f", cash, card, net)},
		})
	}

	return &ValidatedPlan{
		Mode:          plan.Mode,
		Split:         true,
		CashSafeID:    instruments.CashSafeID,
		BankAccountID: instruments.BankAccountID,
		CashAmount:    cash,
		CardAmount:    card,
	}, nil
}
