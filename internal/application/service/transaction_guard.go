package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sangkips/registerd/internal/domain/entity"
	"github.com/sangkips/registerd/internal/domain/enum"
	"github.com/sangkips/registerd/internal/pricing"
)

// Guard rejection codes. Checks short-circuit on the first failure, so the
// codes are mutually exclusive, never cumulative.
const (
	GuardCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	GuardCodeBelowCost           = "BELOW_COST"
	GuardCodeCreditLimitExceeded = "CREDIT_LIMIT_EXCEEDED"
)

// GuardPolicies is the company policy snapshot passed in at call time.
// No ambient global state is consulted.
type GuardPolicies struct {
	AllowNegativeStock    bool
	AllowSellingBelowCost bool
	CreditLimitPolicy     enum.CreditPolicy
}

// GuardLine is the pre-fetched state for one invoice line: current stock and
// the purchase-price history at or before the invoice date, most recent
// first.
type GuardLine struct {
	ItemID       uuid.UUID
	ItemName     string
	Stocked      bool
	Quantity     float64
	UnitPrice    float64
	Stock        float64
	CostHistory  []entity.ItemCost
	FallbackCost float64
}

// CustomerCredit is the pre-fetched customer credit state.
type CustomerCredit struct {
	ID             uuid.UUID
	Name           string
	CurrentBalance float64
	CreditLimit    float64
}

// GuardInput carries everything the guard consults. All of it is fetched by
// the caller immediately before the check; the guard performs no I/O.
type GuardInput struct {
	Lines       []GuardLine
	PaymentMode enum.PaymentMode
	Net         float64
	Customer    *CustomerCredit
	// ExistingNet is the stored net of the same invoice when editing, so the
	// projected balance counts only the delta.
	ExistingNet float64
	// ApprovalGranted converts a would-be ApprovalRequired outcome into a
	// pass; set after the user confirms interactively.
	ApprovalGranted bool
}

// GuardOutcome classifies a guard run.
type GuardOutcome int

const (
	GuardPass GuardOutcome = iota
	GuardReject
	GuardNeedsApproval
)

// GuardResult reports the first failing check, or a pass. For a credit-limit
// outcome the projected figures are carried so the caller can show them and,
// under the approval policy, re-invoke the commit after confirmation.
type GuardResult struct {
	Outcome  GuardOutcome
	Code     string
	Message  string
	ItemID   uuid.UUID
	ItemName string

	// below-cost figures
	Cost      float64
	UnitPrice float64

	// credit-limit figures
	ProjectedBalance float64
	CreditLimit      float64
	OverBy           float64
}

// RunGuards executes the pre-commit invariant checks in fixed order: stock,
// then sell-below-cost, then credit limit. Order matters: a line violating
// several invariants reports the stock failure first.
func RunGuards(in GuardInput, policies GuardPolicies) GuardResult {
	if !policies.AllowNegativeStock {
		for _, l := range in.Lines {
			if !l.Stocked {
				continue
			}
			if l.Stock < l.Quantity {
				return GuardResult{
					Outcome:  GuardReject,
					Code:     GuardCodeInsufficientStock,
					ItemID:   l.ItemID,
					ItemName: l.ItemName,
					Message:  fmt.Sprintf("Insufficient stock for %s: %.2f available, %.2f requested", l.ItemName, l.Stock, l.Quantity),
				}
			}
		}
	}

	if !policies.AllowSellingBelowCost {
		for _, l := range in.Lines {
			cost := resolveCost(l)
			if l.UnitPrice < cost {
				return GuardResult{
					Outcome:   GuardReject,
					Code:      GuardCodeBelowCost,
					ItemID:    l.ItemID,
					ItemName:  l.ItemName,
					Cost:      cost,
					UnitPrice: l.UnitPrice,
					Message:   fmt.Sprintf("%s is priced at %.2f, below its cost of %.2f", l.ItemName, l.UnitPrice, cost),
				}
			}
		}
	}

	if in.PaymentMode == enum.PaymentModeCredit && in.Customer != nil && in.Customer.CreditLimit > 0 {
		delta := in.Net - in.ExistingNet
		if delta < 0 {
			delta = 0
		}
		projected := in.Customer.CurrentBalance + delta
		if projected-in.Customer.CreditLimit > pricing.Epsilon && !in.ApprovalGranted {
			r := GuardResult{
				Code:             GuardCodeCreditLimitExceeded,
				ProjectedBalance: projected,
				CreditLimit:      in.Customer.CreditLimit,
				OverBy:           projected - in.Customer.CreditLimit,
				Message: fmt.Sprintf("Credit limit exceeded for %s: projected balance %.2f over limit %.2f",
					in.Customer.Name, projected, in.Customer.CreditLimit),
			}
			if policies.CreditLimitPolicy == enum.CreditPolicyRequireApproval {
				r.Outcome = GuardNeedsApproval
			} else {
				r.Outcome = GuardReject
			}
			return r
		}
	}

	return GuardResult{Outcome: GuardPass}
}

// resolveCost picks the most recent purchase price at or before the invoice
// date, falling back to the item's stored purchase price when no history
// precedes it. CostHistory arrives pre-filtered and ordered most recent
// first.
func resolveCost(l GuardLine) float64 {
	if len(l.CostHistory) > 0 {
		return l.CostHistory[0].Price
	}
	return l.FallbackCost
}

// filterHistory keeps entries at or before the cutoff, preserving order.
// Repositories already filter; this covers callers assembling input by hand.
func filterHistory(history []entity.ItemCost, onOrBefore time.Time) []entity.ItemCost {
	out := make([]entity.ItemCost, 0, len(history))
	for _, h := range history {
		if !h.PurchasedAt.After(onOrBefore) {
			out = append(out, h)
		}
	}
	return out
}
