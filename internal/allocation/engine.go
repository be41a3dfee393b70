// Package allocation implements the payment allocation engine: the rules
// that distribute a paid or received amount across outstanding references
// and keep the allocated, unallocated, and difference totals consistent.
//
// Every operation is a pure mutation of a caller-supplied PaymentContext.
// The engine performs no I/O, holds no state between calls, and raises no
// errors: imbalances such as an allocation exceeding an outstanding balance
// are expected steady-state outputs, surfaced through a non-zero
// unallocated or difference amount for the user to resolve manually.
//
// The surrounding application re-runs the full computation on every edit
// (recompute-on-every-change, not incremental updates); AllocateTotal is
// the entry point for that pass and chains the dependent recomputations.
//
// Example usage:
//
//	engine := allocation.NewEngine(money.DefaultPolicy())
//	engine.AutoAllocate(ctx, ctx.PaidAmount)
//	// ctx.References[i].AllocatedAmount, ctx.UnallocatedAmount and
//	// ctx.DifferenceAmount now reflect the allocation
package allocation

import (
	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/money"

	"github.com/shopspring/decimal"
)

// Engine carries the rounding policy applied to every monetary output.
type Engine struct {
	policy money.Policy
}

// NewEngine creates an allocation engine with the given rounding policy.
// A zero-value policy is replaced with the default (2 decimal places,
// banker's rounding).
func NewEngine(policy money.Policy) *Engine {
	if policy == (money.Policy{}) || policy.Validate() != nil {
		policy = money.DefaultPolicy()
	}
	return &Engine{policy: policy}
}

// Policy returns the engine's rounding policy
func (e *Engine) Policy() money.Policy {
	return e.policy
}

// Recompute runs a full allocation pass over the context. It is the single
// entry point the caller's event handler invokes after any field change;
// no observer machinery lives inside the engine.
func (e *Engine) Recompute(ctx *models.PaymentContext) {
	e.AllocateTotal(ctx)
}

// AllocateTotal sums the per-reference allocated amounts into
// TotalAllocatedAmount and chains into RecomputeUnallocated. Reference
// allocations are expected to be rounded at the point they were written;
// the sum itself is not re-rounded. An empty reference list yields zero.
func (e *Engine) AllocateTotal(ctx *models.PaymentContext) {
	total := decimal.Zero
	for _, ref := range ctx.References {
		total = total.Add(ref.AllocatedAmount)
	}
	ctx.TotalAllocatedAmount = total

	e.RecomputeUnallocated(ctx)
}

// RecomputeUnallocated derives the unallocated amount from the context's
// direction and totals, then chains into RecomputeDifference.
//
// With no party set the unallocated amount is zero regardless of totals.
// For Receive and Pay the computation is gated on both the paid and
// received amounts; in the multi-currency source these are distinct base
// and display quantities, and in this single-currency collapse the dual
// guard is kept so the branch structure survives a future multi-currency
// extension.
func (e *Engine) RecomputeUnallocated(ctx *models.PaymentContext) {
	unallocated := decimal.Zero

	if ctx.HasParty() {
		deductions := ctx.TotalDeductions()
		allocated := ctx.TotalAllocatedAmount

		switch ctx.PaymentType {
		case models.PaymentTypeReceive:
			if allocated.LessThan(ctx.ReceivedAmount.Add(deductions)) &&
				allocated.LessThan(ctx.PaidAmount.Add(deductions)) {
				unallocated = ctx.ReceivedAmount.Add(deductions).Add(ctx.TotalTaxes).Sub(allocated)
			}
		case models.PaymentTypePay:
			if allocated.LessThan(ctx.PaidAmount.Sub(deductions)) &&
				allocated.LessThan(ctx.ReceivedAmount.Add(deductions)) {
				unallocated = ctx.PaidAmount.Add(ctx.TotalTaxes).Sub(deductions.Add(allocated))
			}
		}
	}

	ctx.UnallocatedAmount = e.policy.Round(unallocated)

	e.RecomputeDifference(ctx, ctx.UnallocatedAmount)
}

// RecomputeDifference derives the difference amount: the mismatch between
// the payment's declared amount and the sum of allocations plus the
// candidate unallocated amount, adjusted for deductions and taxes. Ideally
// zero at submission; never an error.
func (e *Engine) RecomputeDifference(ctx *models.PaymentContext, candidateUnallocated decimal.Decimal) {
	partyAmount := ctx.TotalAllocatedAmount.Add(candidateUnallocated)

	var difference decimal.Decimal
	switch ctx.PaymentType {
	case models.PaymentTypeReceive:
		difference = partyAmount.Sub(ctx.ReceivedAmount)
	case models.PaymentTypePay:
		difference = ctx.PaidAmount.Sub(partyAmount)
	default:
		difference = ctx.PaidAmount.Sub(ctx.ReceivedAmount)
	}

	difference = difference.Sub(ctx.TotalDeductions()).Add(ctx.TotalTaxes)
	ctx.DifferenceAmount = e.policy.Round(difference)
}

// AutoAllocate distributes a gross amount across references with
// mixed-sign outstanding balances, used when the user has not manually
// allocated each row ("Allocate Party Amount"). Deductions are subtracted
// from the gross amount before distribution. References are walked in
// their original order, each row clamped to its own outstanding balance
// while the running pools are drawn down. Finishes with a full
// AllocateTotal pass.
func (e *Engine) AutoAllocate(ctx *models.PaymentContext, paidAmount decimal.Decimal) {
	paid := e.policy.Round(paidAmount).Sub(ctx.TotalDeductions())

	positiveOutstanding := decimal.Zero
	negativeOutstanding := decimal.Zero
	for _, ref := range ctx.References {
		if ref.OutstandingAmount.IsPositive() {
			positiveOutstanding = positiveOutstanding.Add(ref.OutstandingAmount)
		} else if ref.OutstandingAmount.IsNegative() {
			negativeOutstanding = negativeOutstanding.Add(ref.OutstandingAmount.Abs())
		}
	}

	var allocatedPositive, allocatedNegative decimal.Decimal

	normalDirection := (ctx.PaymentType == models.PaymentTypeReceive && ctx.PartyRole == models.PartyRoleCustomer) ||
		(ctx.PaymentType == models.PaymentTypePay && ctx.PartyRole == models.PartyRoleSupplier)

	if normalDirection {
		if positiveOutstanding.GreaterThan(paid) {
			remaining := positiveOutstanding.Sub(paid)
			allocatedNegative = decimal.Min(negativeOutstanding, remaining)
		}
		allocatedPositive = paid.Add(allocatedNegative)
	} else {
		// Reverse direction: paying a customer a refund or receiving from
		// a supplier. When the paid amount exceeds the available credits,
		// the positive pool is computed as a negative number and then fed
		// back into a min against the positive outstanding total, which is
		// dimensionally odd (a pool compared against a balance). This
		// mirrors the observed behavior of the source system and is kept
		// as-is pending product-owner review; the resulting allocations
		// are pinned by tests.
		if paid.GreaterThan(negativeOutstanding) {
			allocatedPositive = negativeOutstanding.Sub(paid)
			allocatedNegative = paid.Add(decimal.Min(positiveOutstanding, allocatedPositive))
		} else {
			allocatedNegative = paid
		}
	}

	for _, ref := range ctx.References {
		switch {
		case ref.OutstandingAmount.IsPositive():
			rowAmount := decimal.Min(ref.OutstandingAmount, allocatedPositive)
			ref.AllocatedAmount = e.policy.Round(rowAmount)
			allocatedPositive = allocatedPositive.Sub(rowAmount)
		case ref.OutstandingAmount.IsNegative():
			rowAmount := decimal.Min(ref.OutstandingAmount.Abs(), allocatedNegative)
			ref.AllocatedAmount = e.policy.Round(rowAmount.Neg())
			allocatedNegative = allocatedNegative.Sub(rowAmount)
		default:
			ref.AllocatedAmount = decimal.Zero
		}
	}

	e.AllocateTotal(ctx)
}
