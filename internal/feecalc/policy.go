package feecalc

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Batch names accepted by the calculator
const (
	BatchMorning   = "morning"
	BatchAfternoon = "afternoon"
	BatchEvening   = "evening"
)

// RefundTier grants Percent of the refundable amount when the withdrawal
// happens at least MinDaysBeforeStart days before the course starts.
type RefundTier struct {
	MinDaysBeforeStart int
	Percent            decimal.Decimal
}

// Policy holds every rate table the calculators read. A Policy is passed
// by value and never mutated after construction.
type Policy struct {
	RegistrationFee       decimal.Decimal
	BatchMultipliers      map[string]decimal.Decimal
	DurationDiscounts     map[int]decimal.Decimal
	EarlyBirdPercent      decimal.Decimal
	LateFeePercentPerWeek decimal.Decimal
	LateFeeMaxPercent     decimal.Decimal
	RefundTiers           []RefundTier
	RefundFallbackPercent decimal.Decimal
	InstallmentPeriodDays map[string]int
}

// DefaultPolicy returns the institute's standard rates.
func DefaultPolicy() Policy {
	return Policy{
		RegistrationFee: decimal.NewFromInt(500),
		BatchMultipliers: map[string]decimal.Decimal{
			BatchMorning:   decimal.RequireFromString("1.0"),
			BatchAfternoon: decimal.RequireFromString("0.95"),
			BatchEvening:   decimal.RequireFromString("1.10"),
		},
		DurationDiscounts: map[int]decimal.Decimal{
			1:  decimal.Zero,
			3:  decimal.NewFromInt(5),
			6:  decimal.NewFromInt(10),
			12: decimal.NewFromInt(15),
		},
		EarlyBirdPercent:      decimal.NewFromInt(5),
		LateFeePercentPerWeek: decimal.NewFromInt(2),
		LateFeeMaxPercent:     decimal.NewFromInt(20),
		RefundTiers: []RefundTier{
			{MinDaysBeforeStart: 30, Percent: decimal.NewFromInt(90)},
			{MinDaysBeforeStart: 15, Percent: decimal.NewFromInt(75)},
			{MinDaysBeforeStart: 7, Percent: decimal.NewFromInt(50)},
		},
		RefundFallbackPercent: decimal.NewFromInt(25),
		InstallmentPeriodDays: map[string]int{
			SchemeMonthly:    30,
			SchemeQuarterly:  90,
			SchemeHalfYearly: 180,
		},
	}
}

// Clone returns a deep copy so callers can derive a variant without
// touching the original tables.
func (p Policy) Clone() Policy {
	out := p
	out.BatchMultipliers = make(map[string]decimal.Decimal, len(p.BatchMultipliers))
	for k, v := range p.BatchMultipliers {
		out.BatchMultipliers[k] = v
	}
	out.DurationDiscounts = make(map[int]decimal.Decimal, len(p.DurationDiscounts))
	for k, v := range p.DurationDiscounts {
		out.DurationDiscounts[k] = v
	}
	out.InstallmentPeriodDays = make(map[string]int, len(p.InstallmentPeriodDays))
	for k, v := range p.InstallmentPeriodDays {
		out.InstallmentPeriodDays[k] = v
	}
	out.RefundTiers = append([]RefundTier(nil), p.RefundTiers...)
	return out
}

// batchMultiplier falls back to 1.0 for unknown batches.
func (p Policy) batchMultiplier(batch string) decimal.Decimal {
	if m, ok := p.BatchMultipliers[batch]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// durationDiscount only matches listed durations exactly.
func (p Policy) durationDiscount(months int) decimal.Decimal {
	if d, ok := p.DurationDiscounts[months]; ok {
		return d
	}
	return decimal.Zero
}

// sortedRefundTiers orders tiers from the longest notice to the shortest.
func (p Policy) sortedRefundTiers() []RefundTier {
	tiers := append([]RefundTier(nil), p.RefundTiers...)
	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].MinDaysBeforeStart > tiers[j].MinDaysBeforeStart
	})
	return tiers
}
