package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterRequest is the input to account registration.
type RegisterRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	ReferralCode string `json:"referral_code,omitempty"`
}

// AccountSummary is the dashboard view of one account.
type AccountSummary struct {
	Account              *Account        `json:"account"`
	TotalDeposits        decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals     decimal.Decimal `json:"total_withdrawals"`
	PendingWithdrawals   decimal.Decimal `json:"pending_withdrawals"`
	TotalInvested        decimal.Decimal `json:"total_invested"`
	AvailableProfit      decimal.Decimal `json:"available_profit"`
	DailyProfitTotal     decimal.Decimal `json:"daily_profit_total"`
	RealizedNow          decimal.Decimal `json:"realized_now"`
	ActiveInvestments    int             `json:"active_investments"`
	CompletedInvestments int             `json:"completed_investments"`
	TotalReferrals       int             `json:"total_referrals"`
	RecentTransactions   []*Transaction  `json:"recent_transactions"`
	GeneratedAt          time.Time       `json:"generated_at"`
}

// Referral is the public view of an account registered with another
// account's referral code.
type Referral struct {
	AccountID string    `json:"account_id"`
	Username  string    `json:"username"`
	JoinedAt  time.Time `json:"joined_at"`
}

// ReferralSummary lists the accounts an account has referred.
type ReferralSummary struct {
	AccountID        string          `json:"account_id"`
	ReferralCode     string          `json:"referral_code"`
	ReferralLink     string          `json:"referral_link,omitempty"`
	ReferralEarnings decimal.Decimal `json:"referral_earnings"`
	TotalReferrals   int             `json:"total_referrals"`
	Referrals        []Referral      `json:"referrals"`
}

// SweepResult reports one run of the expiry sweep.
type SweepResult struct {
	Completed       int       `json:"completed"`
	TrackersUpdated int       `json:"trackers_updated"`
	Drifted         []string  `json:"drifted,omitempty"`
	Errors          []string  `json:"errors,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	Duration        string    `json:"duration"`
}
