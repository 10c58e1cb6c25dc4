package feecalc

import (
	"time"

	"github.com/segyhp/student-fees/pkg/utils"

	"github.com/shopspring/decimal"
)

// Refund reasons
const (
	RefundReasonStarted   = "course already started"
	RefundReasonWithdrawn = "withdrawn before course start"
)

// RefundResult describes a withdrawal refund quote.
type RefundResult struct {
	RefundAmount        decimal.Decimal `json:"refund_amount"`
	RefundPercent       decimal.Decimal `json:"refund_percent"`
	RefundableAmount    decimal.Decimal `json:"refundable_amount"`
	NonRefundableAmount decimal.Decimal `json:"non_refundable_amount"`
	DaysBeforeStart     int             `json:"days_before_start"`
	Reason              string          `json:"reason"`
}

// LateFeePercent is the surcharge rate for a fee that is daysOverdue late:
// a fixed rate per started week, capped.
func (c *Calculator) LateFeePercent(daysOverdue int) decimal.Decimal {
	if daysOverdue <= 0 {
		return decimal.Zero
	}
	weeks := (daysOverdue + 6) / 7
	percent := c.policy.LateFeePercentPerWeek.Mul(decimal.NewFromInt(int64(weeks)))
	if percent.GreaterThan(c.policy.LateFeeMaxPercent) {
		percent = c.policy.LateFeeMaxPercent
	}
	return percent
}

// LateFee returns the surcharge on remaining for a fee daysOverdue late.
func (c *Calculator) LateFee(remaining decimal.Decimal, daysOverdue int) decimal.Decimal {
	if daysOverdue <= 0 || !remaining.IsPositive() {
		return decimal.Zero
	}
	return percentOf(remaining, c.LateFeePercent(daysOverdue)).Round(2)
}

// Refund quotes the refund for withdrawing on withdrawal from a course
// starting on start. The registration fee is never refunded.
func (c *Calculator) Refund(total, registrationFee decimal.Decimal, start, withdrawal time.Time) RefundResult {
	start = utils.DateOnly(start)
	withdrawal = utils.DateOnly(withdrawal)

	if !withdrawal.Before(start) {
		return RefundResult{
			RefundAmount:        decimal.Zero,
			RefundPercent:       decimal.Zero,
			RefundableAmount:    decimal.Zero,
			NonRefundableAmount: total,
			Reason:              RefundReasonStarted,
		}
	}

	days := utils.DaysBetween(withdrawal, start)
	percent := c.policy.RefundFallbackPercent
	for _, tier := range c.policy.sortedRefundTiers() {
		if days >= tier.MinDaysBeforeStart {
			percent = tier.Percent
			break
		}
	}

	refundable := total.Sub(registrationFee)
	if refundable.IsNegative() {
		refundable = decimal.Zero
	}

	return RefundResult{
		RefundAmount:        percentOf(refundable, percent).Round(2),
		RefundPercent:       percent,
		RefundableAmount:    refundable,
		NonRefundableAmount: total.Sub(refundable),
		DaysBeforeStart:     days,
		Reason:              RefundReasonWithdrawn,
	}
}
