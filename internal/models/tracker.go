package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProfitTracker keeps per-account timeline statistics. It is informational;
// Account.TotalEarnings remains the source of truth.
type ProfitTracker struct {
	AccountID              string          `json:"account_id"`
	FirstDepositDate       *time.Time      `json:"first_deposit_date,omitempty"`
	FirstInvestmentDate    *time.Time      `json:"first_investment_date,omitempty"`
	TotalProfitEarned      decimal.Decimal `json:"total_profit_earned"`
	ProfitCalculationCount int             `json:"profit_calculation_count"`
	LastProfitCalculation  *time.Time      `json:"last_profit_calculation,omitempty"`
}

func earliest(current *time.Time, t time.Time) *time.Time {
	if current == nil || t.Before(*current) {
		return &t
	}
	return current
}

// RecordDeposit keeps the earliest approved deposit date.
func (p *ProfitTracker) RecordDeposit(at time.Time) {
	p.FirstDepositDate = earliest(p.FirstDepositDate, at)
}

// RecordInvestment keeps the earliest investment date.
func (p *ProfitTracker) RecordInvestment(at time.Time) {
	p.FirstInvestmentDate = earliest(p.FirstInvestmentDate, at)
}

// RecordProfit adds a realized profit amount.
func (p *ProfitTracker) RecordProfit(amount decimal.Decimal, at time.Time) {
	p.TotalProfitEarned = p.TotalProfitEarned.Add(amount)
	p.ProfitCalculationCount++
	p.LastProfitCalculation = &at
}
