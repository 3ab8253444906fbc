package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Plan describes the rates applied to an investment at the moment it is opened.
type Plan struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	MinAmount       decimal.Decimal  `json:"min_amount"`
	MaxAmount       *decimal.Decimal `json:"max_amount,omitempty"` // nil = unbounded
	DailyPercentage decimal.Decimal  `json:"daily_percentage"`     // 3.00 means 3% per day
	DurationDays    int              `json:"duration_days"`
	Description     string           `json:"description,omitempty"`
	IsActive        bool             `json:"is_active"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

var hundred = decimal.NewFromInt(100)

// TotalReturnPercentage is capital plus profit as a percentage of capital.
func (p *Plan) TotalReturnPercentage() decimal.Decimal {
	return hundred.Add(p.DailyPercentage.Mul(decimal.NewFromInt(int64(p.DurationDays))))
}

// DisplayRange renders the accepted amount range, "∞" when unbounded.
func (p *Plan) DisplayRange() string {
	if p.MaxAmount != nil {
		return FormatMoney(p.MinAmount) + " - " + FormatMoney(*p.MaxAmount)
	}
	return FormatMoney(p.MinAmount) + " - ∞"
}

// CheckAmount rejects amounts outside [MinAmount, MaxAmount].
func (p *Plan) CheckAmount(amount decimal.Decimal) error {
	if err := ValidateAmount("amount", amount); err != nil {
		return err
	}
	if amount.LessThan(p.MinAmount) {
		return &ValidationError{Field: "amount", Message: fmt.Sprintf("minimum amount for %s is %s", p.Name, FormatMoney(p.MinAmount))}
	}
	if p.MaxAmount != nil && amount.GreaterThan(*p.MaxAmount) {
		return &ValidationError{Field: "amount", Message: fmt.Sprintf("maximum amount for %s is %s", p.Name, FormatMoney(*p.MaxAmount))}
	}
	return nil
}

// Validate checks the plan's own parameters.
func (p *Plan) Validate() error {
	if p.ID == "" {
		return &ValidationError{Field: "id", Message: "plan id is required"}
	}
	if p.Name == "" {
		return &ValidationError{Field: "name", Message: "plan name is required"}
	}
	if !p.MinAmount.IsPositive() {
		return &ValidationError{Field: "min_amount", Message: "must be greater than zero"}
	}
	if p.MaxAmount != nil && p.MaxAmount.LessThan(p.MinAmount) {
		return &ValidationError{Field: "max_amount", Message: "must not be below min_amount"}
	}
	if !p.DailyPercentage.IsPositive() {
		return &ValidationError{Field: "daily_percentage", Message: "must be greater than zero"}
	}
	if p.DurationDays <= 0 {
		return &ValidationError{Field: "duration_days", Message: "must be greater than zero"}
	}
	return nil
}
