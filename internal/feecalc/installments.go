package feecalc

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Installment schemes. SchemeFull is a single payment due at course start
// and never goes through PlanInstallments.
const (
	SchemeFull       = "full"
	SchemeMonthly    = "monthly"
	SchemeQuarterly  = "quarterly"
	SchemeHalfYearly = "half_yearly"
)

var (
	ErrUnknownScheme      = errors.New("unknown installment scheme")
	ErrDurationTooShort   = errors.New("course duration is shorter than one installment period")
	ErrInvalidTotalAmount = errors.New("total amount must be positive")
)

// Installment is one slice of a plan.
type Installment struct {
	Number      int             `json:"installment_number"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"due_date"`
	Description string          `json:"description"`
}

type schemeShape struct {
	monthsPerInstallment int
	label                string
}

var schemeShapes = map[string]schemeShape{
	SchemeMonthly:    {monthsPerInstallment: 1, label: "Month"},
	SchemeQuarterly:  {monthsPerInstallment: 3, label: "Quarter"},
	SchemeHalfYearly: {monthsPerInstallment: 6, label: "Half-year"},
}

// IsValidScheme reports whether scheme names a known plan, including full.
func IsValidScheme(scheme string) bool {
	if scheme == SchemeFull {
		return true
	}
	_, ok := schemeShapes[scheme]
	return ok
}

// PlanInstallments splits total into equal installments due every period
// after anchor. Months left over by the integer division are dropped, so
// a seven month course on the quarterly scheme gets two installments.
// Amounts are rounded to cents and the last installment carries the
// rounding remainder, so the plan always sums to total.
func (c *Calculator) PlanInstallments(total decimal.Decimal, durationMonths int, scheme string, anchor time.Time) ([]Installment, error) {
	shape, ok := schemeShapes[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
	if !total.IsPositive() {
		return nil, ErrInvalidTotalAmount
	}
	if durationMonths < shape.monthsPerInstallment {
		return nil, fmt.Errorf("%w: %s needs at least %d months, got %d",
			ErrDurationTooShort, scheme, shape.monthsPerInstallment, durationMonths)
	}

	count := durationMonths / shape.monthsPerInstallment
	period := c.policy.InstallmentPeriodDays[scheme]
	if period <= 0 {
		period = 30 * shape.monthsPerInstallment
	}

	each := total.DivRound(decimal.NewFromInt(int64(count)), 2)
	allocated := decimal.Zero

	plan := make([]Installment, 0, count)
	for i := 1; i <= count; i++ {
		amount := each
		if i == count {
			amount = total.Sub(allocated)
		}
		allocated = allocated.Add(amount)

		plan = append(plan, Installment{
			Number:      i,
			Amount:      amount,
			DueDate:     anchor.AddDate(0, 0, period*i),
			Description: fmt.Sprintf("%s %d fee", shape.label, i),
		})
	}

	return plan, nil
}
