package interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Giftedmindbenjamin/surbminer/internal/ledger"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

// PlanService is the read side of the plan catalog plus admin writes.
type PlanService interface {
	// Find returns an active plan or a NotFoundError.
	Find(ctx context.Context, id string) (*models.Plan, error)

	// ListActive returns active plans ordered by MinAmount.
	ListActive(ctx context.Context) ([]*models.Plan, error)

	Save(ctx context.Context, plan *models.Plan) error

	// Seed saves plans that do not exist yet and leaves existing ones alone.
	Seed(ctx context.Context, plans []*models.Plan) (int, error)
}

// InvestmentService manages positions and their profit accrual.
type InvestmentService interface {
	Open(ctx context.Context, accountID, planID string, amount decimal.Decimal) (*models.Investment, error)

	// Get returns the investment after realizing any profit earned so far.
	Get(ctx context.Context, id string) (*models.Investment, error)

	// List returns the account's investments, accruing the active ones first.
	List(ctx context.Context, accountID string) ([]*models.Investment, error)

	Accrue(ctx context.Context, id string) (ledger.AccrualResult, error)

	// AccrueAccount accrues every active position of the account in one
	// transaction and returns the total realized.
	AccrueAccount(ctx context.Context, accountID string) (decimal.Decimal, error)

	// Complete force-completes an active position. It returns false when the
	// position was not active.
	Complete(ctx context.Context, id string) (bool, error)

	Cancel(ctx context.Context, id string) error

	// CompleteExpired completes every active position whose EndDate is before
	// now. Failures are collected per position.
	CompleteExpired(ctx context.Context, now time.Time) (int, []error)
}

// FundingService runs the deposit and withdrawal approval workflows.
type FundingService interface {
	RequestDeposit(ctx context.Context, accountID string, amount decimal.Decimal, cryptoType, txHash string) (*models.Deposit, error)
	RequestWithdrawal(ctx context.Context, accountID string, amount decimal.Decimal, cryptoType, address string) (*models.Withdrawal, error)

	ApproveDeposit(ctx context.Context, id string) (*models.Deposit, error)
	CancelDeposit(ctx context.Context, id string) (*models.Deposit, error)

	// ApproveWithdrawal returns false, with the withdrawal still pending,
	// when the account balance does not cover it.
	ApproveWithdrawal(ctx context.Context, id string) (*models.Withdrawal, bool, error)
	CancelWithdrawal(ctx context.Context, id string) (*models.Withdrawal, error)

	ListDeposits(ctx context.Context, accountID string) ([]*models.Deposit, error)
	ListWithdrawals(ctx context.Context, accountID string) ([]*models.Withdrawal, error)

	// FindDeposits and FindWithdrawals list requests across accounts for
	// the admin queues.
	FindDeposits(ctx context.Context, f models.RequestFilter) ([]*models.Deposit, error)
	FindWithdrawals(ctx context.Context, f models.RequestFilter) ([]*models.Withdrawal, error)
}

// AccountService handles registration and dashboard reads.
type AccountService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.Account, error)
	Get(ctx context.Context, id string) (*models.Account, error)

	// Summary accrues the account's positions and returns dashboard totals.
	Summary(ctx context.Context, id string, now time.Time) (*models.AccountSummary, error)

	// Referrals lists the accounts registered with id's referral code.
	Referrals(ctx context.Context, id string) (*models.ReferralSummary, error)

	Reconcile(ctx context.Context, id string) (*ledger.ReconcileReport, error)
	ReconcileAll(ctx context.Context) ([]ledger.ReconcileReport, error)
}

// ReportService computes the admin dashboard aggregates.
type ReportService interface {
	Stats(ctx context.Context, now time.Time) (*models.PlatformStats, error)

	// Daily returns one entry per UTC day, oldest first, ending with now's day.
	Daily(ctx context.Context, now time.Time, days int) ([]models.DailyActivity, error)
}

// SweepService finalizes expired positions and reconciles trackers.
type SweepService interface {
	Run(ctx context.Context, now time.Time) (*models.SweepResult, error)
}
