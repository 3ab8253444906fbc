// Package interfaces defines service contracts for surbminer
package interfaces

import (
	"context"
	"time"

	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

// StorageManager coordinates the ledger and plan stores of one backend.
type StorageManager interface {
	LedgerStore() LedgerStore
	PlanStore() PlanStore

	// Backend returns the configured backend name ("surrealdb", "sqlite", "memory").
	Backend() string

	// Lifecycle
	Close() error
}

// LedgerStore persists accounts and everything they own. All balance
// changes go through Update.
type LedgerStore interface {
	// CreateAccount inserts a new account. Usernames and referral codes are
	// unique; a clash returns a ValidationError.
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	FindAccountByReferralCode(ctx context.Context, code string) (*models.Account, error)
	ListAccountIDs(ctx context.Context) ([]string, error)
	// ListAccounts returns accounts newest first. limit <= 0 means all.
	ListAccounts(ctx context.Context, limit int) ([]*models.Account, error)
	// ListReferrals returns the accounts whose ReferredBy is referrerID,
	// newest first.
	ListReferrals(ctx context.Context, referrerID string) ([]*models.Account, error)

	// Update runs fn with exclusive access to the account aggregate. Writes
	// made through tx, including changes to tx.Account(), commit together
	// when fn returns nil and are discarded otherwise.
	Update(ctx context.Context, accountID string, fn func(tx LedgerTx) error) error

	GetInvestment(ctx context.Context, id string) (*models.Investment, error)
	// ListInvestments returns the account's investments, newest first. An
	// empty status returns all of them.
	ListInvestments(ctx context.Context, accountID string, status models.InvestmentStatus) ([]*models.Investment, error)
	// ListExpiredInvestments returns ACTIVE investments whose EndDate is before t.
	ListExpiredInvestments(ctx context.Context, before time.Time) ([]*models.Investment, error)
	// ListInvestmentsByStatus returns investments of every account with the
	// given status, newest first.
	ListInvestmentsByStatus(ctx context.Context, status models.InvestmentStatus) ([]*models.Investment, error)

	GetDeposit(ctx context.Context, id string) (*models.Deposit, error)
	ListDeposits(ctx context.Context, accountID string) ([]*models.Deposit, error)
	GetWithdrawal(ctx context.Context, id string) (*models.Withdrawal, error)
	ListWithdrawals(ctx context.Context, accountID string) ([]*models.Withdrawal, error)
	// FindDeposits and FindWithdrawals search every account, newest first.
	FindDeposits(ctx context.Context, f models.RequestFilter) ([]*models.Deposit, error)
	FindWithdrawals(ctx context.Context, f models.RequestFilter) ([]*models.Withdrawal, error)

	// ListTransactions returns the newest entries first. limit <= 0 means all.
	ListTransactions(ctx context.Context, accountID string, limit int) ([]*models.Transaction, error)
	GetTracker(ctx context.Context, accountID string) (*models.ProfitTracker, error)

	Close() error
}

// LedgerTx is the view of one account inside LedgerStore.Update. Values it
// returns are private copies; nothing is visible to other callers until the
// transaction commits.
type LedgerTx interface {
	// Account is the locked account. Mutations are persisted on commit.
	Account() *models.Account
	// Tracker returns the account's profit tracker, creating an empty one
	// when none exists yet.
	Tracker() (*models.ProfitTracker, error)

	Investment(id string) (*models.Investment, error)
	Investments() ([]*models.Investment, error)
	ActiveInvestments() ([]*models.Investment, error)
	Deposit(id string) (*models.Deposit, error)
	Withdrawal(id string) (*models.Withdrawal, error)

	PutInvestment(inv *models.Investment) error
	PutDeposit(dep *models.Deposit) error
	PutWithdrawal(w *models.Withdrawal) error
	PutTracker(tracker *models.ProfitTracker) error
	AddTransaction(tx *models.Transaction) error
}

// PlanStore holds the plan catalog.
type PlanStore interface {
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	SavePlan(ctx context.Context, plan *models.Plan) error
	ListPlans(ctx context.Context) ([]*models.Plan, error)
}
