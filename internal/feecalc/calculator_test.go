package feecalc

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestComputeFee(t *testing.T) {
	calc := New(DefaultPolicy())

	tests := []struct {
		name           string
		baseFee        decimal.Decimal
		duration       int
		batch          string
		earlyBird      bool
		customDiscount *decimal.Decimal
		expectedTotal  decimal.Decimal
		validate       func(*testing.T, FeeBreakdown)
	}{
		{
			name:          "six month morning course",
			baseFee:       dec("6000"),
			duration:      6,
			batch:         BatchMorning,
			expectedTotal: dec("5900"), // 6000 - 600 + 500
			validate: func(t *testing.T, b FeeBreakdown) {
				assert.True(t, b.AdjustedBaseFee.Equal(dec("6000")))
				assert.True(t, b.DurationDiscount.Equal(dec("600")))
				assert.True(t, b.EarlyBirdDiscount.IsZero())
			},
		},
		{
			name:          "evening premium with no listed duration discount",
			baseFee:       dec("1000"),
			duration:      2,
			batch:         BatchEvening,
			expectedTotal: dec("1600"), // 1100 + 500
			validate: func(t *testing.T, b FeeBreakdown) {
				assert.True(t, b.DurationDiscountPercent.IsZero())
			},
		},
		{
			name:           "discounts are additive on the adjusted base",
			baseFee:        dec("10000"),
			duration:       12,
			batch:          BatchAfternoon,
			earlyBird:      true,
			customDiscount: decPtr("10"),
			// adjusted 9500; 15% + 5% + 10% = 2850; 6650 + 500
			expectedTotal: dec("7150"),
			validate: func(t *testing.T, b FeeBreakdown) {
				assert.True(t, b.AdjustedBaseFee.Equal(dec("9500")))
				assert.True(t, b.DurationDiscount.Equal(dec("1425")))
				assert.True(t, b.EarlyBirdDiscount.Equal(dec("475")))
				assert.True(t, b.CustomDiscount.Equal(dec("950")))
				assert.True(t, b.TotalDiscount.Equal(dec("2850")))
			},
		},
		{
			name:          "unknown batch falls back to standard rate",
			baseFee:       dec("2000"),
			duration:      1,
			batch:         "weekend",
			expectedTotal: dec("2500"),
		},
		{
			name:           "discounts beyond the base collapse to the registration fee",
			baseFee:        dec("1000"),
			duration:       12,
			batch:          BatchMorning,
			earlyBird:      true,
			customDiscount: decPtr("95"),
			expectedTotal:  dec("500"),
			validate: func(t *testing.T, b FeeBreakdown) {
				assert.True(t, b.Subtotal.IsZero())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := calc.ComputeFee(tt.baseFee, tt.duration, tt.batch, tt.earlyBird, tt.customDiscount)
			require.NoError(t, err)
			assert.True(t, b.TotalFee.Equal(tt.expectedTotal), "expected %s, got %s", tt.expectedTotal, b.TotalFee)
			if tt.validate != nil {
				tt.validate(t, b)
			}
		})
	}
}

func TestComputeFee_InvalidInput(t *testing.T) {
	calc := New(DefaultPolicy())

	_, err := calc.ComputeFee(dec("-1"), 3, BatchMorning, false, nil)
	assert.ErrorIs(t, err, ErrInvalidBaseFee)

	_, err = calc.ComputeFee(dec("100"), 0, BatchMorning, false, nil)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = calc.ComputeFee(dec("100"), 3, BatchMorning, false, decPtr("-5"))
	assert.ErrorIs(t, err, ErrInvalidCustomDiscount)
}

func TestComputeFee_NeverBelowRegistrationFee(t *testing.T) {
	calc := New(DefaultPolicy())
	rng := rand.New(rand.NewSource(42))
	batches := []string{BatchMorning, BatchAfternoon, BatchEvening}
	durations := []int{1, 2, 3, 6, 9, 12}

	for i := 0; i < 500; i++ {
		base := decimal.NewFromInt(rng.Int63n(50000))
		duration := durations[rng.Intn(len(durations))]
		batch := batches[rng.Intn(len(batches))]
		custom := decimal.NewFromInt(rng.Int63n(101))
		early := rng.Intn(2) == 0

		first, err := calc.ComputeFee(base, duration, batch, early, &custom)
		require.NoError(t, err)
		second, err := calc.ComputeFee(base, duration, batch, early, &custom)
		require.NoError(t, err)

		assert.True(t, first.TotalFee.Equal(second.TotalFee), "ComputeFee must be deterministic")
		assert.True(t, first.TotalDiscount.Equal(second.TotalDiscount))
		assert.True(t, first.TotalFee.GreaterThanOrEqual(first.RegistrationFee),
			"total %s below registration fee for base=%s duration=%d batch=%s custom=%s",
			first.TotalFee, base, duration, batch, custom)
	}
}

func TestPolicyOverride(t *testing.T) {
	policy := DefaultPolicy()
	policy.DurationDiscounts[6] = dec("20")
	policy.RegistrationFee = dec("0")
	calc := New(policy)

	// mutating the caller's copy after construction has no effect
	policy.DurationDiscounts[6] = dec("50")

	b, err := calc.ComputeFee(dec("1000"), 6, BatchMorning, false, nil)
	require.NoError(t, err)
	assert.True(t, b.TotalFee.Equal(dec("800")))

	untouched := New(DefaultPolicy())
	b, err = untouched.ComputeFee(dec("1000"), 6, BatchMorning, false, nil)
	require.NoError(t, err)
	assert.True(t, b.TotalFee.Equal(dec("1400")))
}

func TestPlanInstallments(t *testing.T) {
	calc := New(DefaultPolicy())
	anchor := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		total         decimal.Decimal
		duration      int
		scheme        string
		expectedCount int
		expectedStep  int
		expectedFirst decimal.Decimal
	}{
		{
			name:          "monthly exact split",
			total:         dec("5900"),
			duration:      4,
			scheme:        SchemeMonthly,
			expectedCount: 4,
			expectedStep:  30,
			expectedFirst: dec("1475"),
		},
		{
			name:          "quarterly drops leftover months",
			total:         dec("9000"),
			duration:      7,
			scheme:        SchemeQuarterly,
			expectedCount: 2,
			expectedStep:  90,
			expectedFirst: dec("4500"),
		},
		{
			name:          "half yearly",
			total:         dec("12000"),
			duration:      12,
			scheme:        SchemeHalfYearly,
			expectedCount: 2,
			expectedStep:  180,
			expectedFirst: dec("6000"),
		},
		{
			name:          "uneven split rounds to cents",
			total:         dec("1000"),
			duration:      3,
			scheme:        SchemeMonthly,
			expectedCount: 3,
			expectedStep:  30,
			expectedFirst: dec("333.33"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := calc.PlanInstallments(tt.total, tt.duration, tt.scheme, anchor)
			require.NoError(t, err)
			require.Len(t, plan, tt.expectedCount)

			sum := decimal.Zero
			for i, inst := range plan {
				assert.Equal(t, i+1, inst.Number)
				assert.Equal(t, anchor.AddDate(0, 0, tt.expectedStep*(i+1)), inst.DueDate)
				sum = sum.Add(inst.Amount)
			}
			assert.True(t, plan[0].Amount.Equal(tt.expectedFirst), "first installment %s", plan[0].Amount)
			assert.True(t, sum.Equal(tt.total), "plan sums to %s, want %s", sum, tt.total)
		})
	}
}

func TestPlanInstallments_Rejects(t *testing.T) {
	calc := New(DefaultPolicy())
	now := time.Now()

	_, err := calc.PlanInstallments(dec("1000"), 2, SchemeQuarterly, now)
	assert.ErrorIs(t, err, ErrDurationTooShort)

	_, err = calc.PlanInstallments(dec("1000"), 5, SchemeHalfYearly, now)
	assert.ErrorIs(t, err, ErrDurationTooShort)

	_, err = calc.PlanInstallments(dec("1000"), 6, "weekly", now)
	assert.ErrorIs(t, err, ErrUnknownScheme)

	_, err = calc.PlanInstallments(dec("0"), 6, SchemeMonthly, now)
	assert.ErrorIs(t, err, ErrInvalidTotalAmount)

	assert.True(t, IsValidScheme(SchemeFull))
	assert.False(t, IsValidScheme("weekly"))
}

func TestLateFee(t *testing.T) {
	calc := New(DefaultPolicy())

	tests := []struct {
		name      string
		remaining decimal.Decimal
		days      int
		expected  decimal.Decimal
	}{
		{name: "not overdue", remaining: dec("1000"), days: 0, expected: dec("0")},
		{name: "negative days", remaining: dec("1000"), days: -4, expected: dec("0")},
		{name: "one day is a full week", remaining: dec("1000"), days: 1, expected: dec("20")},
		{name: "ten days is two weeks", remaining: dec("1000"), days: 10, expected: dec("40")},
		{name: "exactly two weeks", remaining: dec("1000"), days: 14, expected: dec("40")},
		{name: "capped at twenty percent", remaining: dec("1000"), days: 200, expected: dec("200")},
		{name: "nothing outstanding", remaining: dec("0"), days: 30, expected: dec("0")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.LateFee(tt.remaining, tt.days)
			assert.True(t, got.Equal(tt.expected), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestRefund(t *testing.T) {
	calc := New(DefaultPolicy())
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	total := dec("10000")
	registration := dec("500")

	tests := []struct {
		name            string
		withdrawal      time.Time
		expectedPercent decimal.Decimal
		expectedAmount  decimal.Decimal
		expectedReason  string
	}{
		{
			name:            "twenty days before start",
			withdrawal:      start.AddDate(0, 0, -20),
			expectedPercent: dec("75"),
			expectedAmount:  dec("7125"),
			expectedReason:  RefundReasonWithdrawn,
		},
		{
			name:            "thirty days before start",
			withdrawal:      start.AddDate(0, 0, -30),
			expectedPercent: dec("90"),
			expectedAmount:  dec("8550"),
			expectedReason:  RefundReasonWithdrawn,
		},
		{
			name:            "one week before start",
			withdrawal:      start.AddDate(0, 0, -7),
			expectedPercent: dec("50"),
			expectedAmount:  dec("4750"),
			expectedReason:  RefundReasonWithdrawn,
		},
		{
			name:            "day before start",
			withdrawal:      start.AddDate(0, 0, -1),
			expectedPercent: dec("25"),
			expectedAmount:  dec("2375"),
			expectedReason:  RefundReasonWithdrawn,
		},
		{
			name:            "on the start date",
			withdrawal:      start,
			expectedPercent: dec("0"),
			expectedAmount:  dec("0"),
			expectedReason:  RefundReasonStarted,
		},
		{
			name:            "after start",
			withdrawal:      start.AddDate(0, 0, 3),
			expectedPercent: dec("0"),
			expectedAmount:  dec("0"),
			expectedReason:  RefundReasonStarted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := calc.Refund(total, registration, start, tt.withdrawal)
			assert.True(t, r.RefundPercent.Equal(tt.expectedPercent), "percent %s", r.RefundPercent)
			assert.True(t, r.RefundAmount.Equal(tt.expectedAmount), "amount %s", r.RefundAmount)
			assert.Equal(t, tt.expectedReason, r.Reason)
		})
	}

	r := calc.Refund(total, registration, start, start.AddDate(0, 0, -20))
	assert.Equal(t, 20, r.DaysBeforeStart)
	assert.True(t, r.RefundableAmount.Equal(dec("9500")))
	assert.True(t, r.NonRefundableAmount.Equal(registration))
}
