// Package feecalc holds the pure fee arithmetic: course fee breakdowns,
// installment plans, late fees and withdrawal refunds. Nothing in here
// touches storage or the clock; callers pass dates in.
package feecalc

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidBaseFee        = errors.New("base fee must not be negative")
	ErrInvalidDuration       = errors.New("duration must be at least one month")
	ErrInvalidCustomDiscount = errors.New("custom discount must be between 0 and 100 percent")
)

var hundred = decimal.NewFromInt(100)

// FeeBreakdown is the itemised result of ComputeFee.
type FeeBreakdown struct {
	BaseFee                 decimal.Decimal `json:"base_fee"`
	BatchMultiplier         decimal.Decimal `json:"batch_multiplier"`
	AdjustedBaseFee         decimal.Decimal `json:"adjusted_base_fee"`
	RegistrationFee         decimal.Decimal `json:"registration_fee"`
	DurationDiscountPercent decimal.Decimal `json:"duration_discount_percent"`
	DurationDiscount        decimal.Decimal `json:"duration_discount_amount"`
	EarlyBirdDiscount       decimal.Decimal `json:"early_bird_discount_amount"`
	CustomDiscount          decimal.Decimal `json:"custom_discount_amount"`
	TotalDiscount           decimal.Decimal `json:"total_discount"`
	Subtotal                decimal.Decimal `json:"subtotal"`
	TotalFee                decimal.Decimal `json:"total_fee"`
}

// Calculator applies a Policy. The zero value is not usable; build one
// with New.
type Calculator struct {
	policy Policy
}

func New(policy Policy) *Calculator {
	return &Calculator{policy: policy.Clone()}
}

// Policy returns a copy of the tables in use.
func (c *Calculator) Policy() Policy {
	return c.policy.Clone()
}

// ComputeFee prices a course enrollment.
//
// The batch multiplier is applied to the base fee first. Duration,
// early-bird and custom discounts are each taken from that adjusted base
// and summed; they never compound. The subtotal is clamped at zero and
// the registration fee is added on top, undiscounted.
func (c *Calculator) ComputeFee(baseFee decimal.Decimal, durationMonths int, batch string, earlyBird bool, customDiscount *decimal.Decimal) (FeeBreakdown, error) {
	if baseFee.IsNegative() {
		return FeeBreakdown{}, ErrInvalidBaseFee
	}
	if durationMonths <= 0 {
		return FeeBreakdown{}, fmt.Errorf("%w: got %d", ErrInvalidDuration, durationMonths)
	}
	if customDiscount != nil && (customDiscount.IsNegative() || customDiscount.GreaterThan(hundred)) {
		return FeeBreakdown{}, ErrInvalidCustomDiscount
	}

	multiplier := c.policy.batchMultiplier(batch)
	adjusted := baseFee.Mul(multiplier)

	durationPercent := c.policy.durationDiscount(durationMonths)
	durationDiscount := percentOf(adjusted, durationPercent)

	earlyBirdDiscount := decimal.Zero
	if earlyBird {
		earlyBirdDiscount = percentOf(adjusted, c.policy.EarlyBirdPercent)
	}

	customAmount := decimal.Zero
	if customDiscount != nil {
		customAmount = percentOf(adjusted, *customDiscount)
	}

	totalDiscount := durationDiscount.Add(earlyBirdDiscount).Add(customAmount)
	subtotal := adjusted.Sub(totalDiscount)
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}

	return FeeBreakdown{
		BaseFee:                 baseFee,
		BatchMultiplier:         multiplier,
		AdjustedBaseFee:         adjusted.Round(2),
		RegistrationFee:         c.policy.RegistrationFee,
		DurationDiscountPercent: durationPercent,
		DurationDiscount:        durationDiscount.Round(2),
		EarlyBirdDiscount:       earlyBirdDiscount.Round(2),
		CustomDiscount:          customAmount.Round(2),
		TotalDiscount:           totalDiscount.Round(2),
		Subtotal:                subtotal.Round(2),
		TotalFee:                subtotal.Add(c.policy.RegistrationFee).Round(2),
	}, nil
}

func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred)
}
