package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentStatus is the lifecycle state of a position.
type InvestmentStatus string

const (
	InvestmentActive    InvestmentStatus = "ACTIVE"
	InvestmentCompleted InvestmentStatus = "COMPLETED"
	InvestmentCancelled InvestmentStatus = "CANCELLED"
)

// Day is the accrual period. Profit accrues continuously at DailyProfit per Day.
const Day = 24 * time.Hour

// Investment is one capital commitment to a plan. Rates are snapshotted at
// open time so later plan edits do not apply retroactively.
type Investment struct {
	ID              string           `json:"id"`
	AccountID       string           `json:"account_id"`
	PlanID          string           `json:"plan_id"`
	PlanName        string           `json:"plan_name"`
	Amount          decimal.Decimal  `json:"amount"`
	DailyPercentage decimal.Decimal  `json:"daily_percentage"`
	DurationDays    int              `json:"duration_days"`
	DailyProfit     decimal.Decimal  `json:"daily_profit"`
	TotalProfit     decimal.Decimal  `json:"total_profit"`
	ProfitPaid      decimal.Decimal  `json:"profit_paid"`
	CapitalReturned bool             `json:"capital_returned"`
	Status          InvestmentStatus `json:"status"`
	StartDate       time.Time        `json:"start_date"`
	EndDate         time.Time        `json:"end_date"`
	LastProfitDate  time.Time        `json:"last_profit_date"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
	CancelledAt     *time.Time       `json:"cancelled_at,omitempty"`
}

// IsActive reports whether the position still accrues.
func (i *Investment) IsActive() bool {
	return i.Status == InvestmentActive
}

// IsExpired reports whether an active position has run past its end date.
func (i *Investment) IsExpired(now time.Time) bool {
	return i.IsActive() && i.EndDate.Before(now)
}

// TotalPayout is principal plus all committed profit.
func (i *Investment) TotalPayout() decimal.Decimal {
	return i.Amount.Add(i.TotalProfit)
}

// RemainingProfit is committed profit not yet realized.
func (i *Investment) RemainingProfit() decimal.Decimal {
	return i.TotalProfit.Sub(i.ProfitPaid)
}

// DaysRemaining counts whole days until EndDate; 0 once no longer active.
func (i *Investment) DaysRemaining(now time.Time) int {
	if !i.IsActive() {
		return 0
	}
	left := int(i.EndDate.Sub(now) / Day)
	if left < 0 {
		return 0
	}
	return left
}

// DaysActive counts whole days since StartDate, capped at the duration.
func (i *Investment) DaysActive(now time.Time) int {
	days := int(now.Sub(i.StartDate) / Day)
	if days < 0 {
		return 0
	}
	if days > i.DurationDays {
		return i.DurationDays
	}
	return days
}

// ProgressPercentage is elapsed time over total duration, 0..100.
func (i *Investment) ProgressPercentage(now time.Time) float64 {
	if !i.IsActive() {
		return 100
	}
	total := i.EndDate.Sub(i.StartDate)
	if total <= 0 {
		return 0
	}
	pct := float64(now.Sub(i.StartDate)) / float64(total) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
