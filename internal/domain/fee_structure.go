package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeStructure is the catalog price of a course for a given duration.
// (course_id, duration_months) is unique.
type FeeStructure struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	CourseID           uuid.UUID       `json:"course_id" db:"course_id"`
	DurationMonths     int             `json:"duration_months" db:"duration_months"`
	BaseFee            decimal.Decimal `json:"base_fee" db:"base_fee"`
	RegistrationFee    decimal.Decimal `json:"registration_fee" db:"registration_fee"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" db:"discount_percentage"`
	IsActive           bool            `json:"is_active" db:"is_active"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// TotalFee is base + registration - base*discount/100
func (s *FeeStructure) TotalFee() decimal.Decimal {
	discount := s.BaseFee.Mul(s.DiscountPercentage).Div(decimal.NewFromInt(100))
	return s.BaseFee.Add(s.RegistrationFee).Sub(discount).Round(2)
}

// FeeStructureView adds the derived total for API responses
type FeeStructureView struct {
	*FeeStructure
	TotalFee decimal.Decimal `json:"total_fee"`
}

func NewFeeStructureView(s *FeeStructure) *FeeStructureView {
	return &FeeStructureView{FeeStructure: s, TotalFee: s.TotalFee()}
}

// FeeStructureFilter narrows structure listings
type FeeStructureFilter struct {
	CourseID       *uuid.UUID
	DurationMonths *int
	ActiveOnly     bool
}
