package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecentLimit is how many users, deposits and withdrawals PlatformStats lists.
const RecentLimit = 10

// PlatformStats is the admin dashboard view across every account.
type PlatformStats struct {
	TotalUsers          int             `json:"total_users"`
	NewUsersToday       int             `json:"new_users_today"`
	NewUsersWeek        int             `json:"new_users_week"`
	ApprovedDeposits    decimal.Decimal `json:"approved_deposits"`
	ApprovedWithdrawals decimal.Decimal `json:"approved_withdrawals"`
	ActiveInvested      decimal.Decimal `json:"active_invested"`
	ActiveInvestments   int             `json:"active_investments"`
	PendingDeposits     int             `json:"pending_deposits"`
	PendingWithdrawals  int             `json:"pending_withdrawals"`
	RecentUsers         []*Account      `json:"recent_users"`
	RecentDeposits      []*Deposit      `json:"recent_deposits"`
	RecentWithdrawals   []*Withdrawal   `json:"recent_withdrawals"`
	GeneratedAt         time.Time       `json:"generated_at"`
}

// DailyActivity is one UTC day of approvals and sign-ups.
type DailyActivity struct {
	Date        string          `json:"date"` // YYYY-MM-DD
	Deposits    decimal.Decimal `json:"deposits"`
	Withdrawals decimal.Decimal `json:"withdrawals"`
	NewUsers    int             `json:"new_users"`
}
