// Package memdb implements the ledger and plan stores in process memory.
// It backs the "memory" storage backend and most service tests.
package memdb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/interfaces"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
	"github.com/Giftedmindbenjamin/surbminer/internal/storage/staging"
)

// Store implements interfaces.LedgerStore and interfaces.PlanStore.
type Store struct {
	mu     sync.RWMutex
	logger *common.Logger

	accounts     map[string]*models.Account
	investments  map[string]*models.Investment
	deposits     map[string]*models.Deposit
	withdrawals  map[string]*models.Withdrawal
	transactions map[string][]*models.Transaction // by account
	trackers     map[string]*models.ProfitTracker
	plans        map[string]*models.Plan

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

var (
	_ interfaces.LedgerStore = (*Store)(nil)
	_ interfaces.PlanStore   = (*Store)(nil)
)

// NewStore creates an empty store.
func NewStore(logger *common.Logger) *Store {
	return &Store{
		logger:       logger,
		accounts:     make(map[string]*models.Account),
		investments:  make(map[string]*models.Investment),
		deposits:     make(map[string]*models.Deposit),
		withdrawals:  make(map[string]*models.Withdrawal),
		transactions: make(map[string][]*models.Transaction),
		trackers:     make(map[string]*models.ProfitTracker),
		plans:        make(map[string]*models.Plan),
		locks:        make(map[string]*sync.Mutex),
	}
}

func copyAccount(a *models.Account) *models.Account {
	c := *a
	return &c
}

func copyInvestment(i *models.Investment) *models.Investment {
	c := *i
	return &c
}

func copyDeposit(d *models.Deposit) *models.Deposit {
	c := *d
	return &c
}

func copyWithdrawal(w *models.Withdrawal) *models.Withdrawal {
	c := *w
	return &c
}

func copyTracker(t *models.ProfitTracker) *models.ProfitTracker {
	c := *t
	return &c
}

func copyTransaction(t *models.Transaction) *models.Transaction {
	c := *t
	return &c
}

func copyPlan(p *models.Plan) *models.Plan {
	c := *p
	return &c
}

func (s *Store) accountLock(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// --- Accounts ---

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; exists {
		return &models.ValidationError{Field: "id", Message: fmt.Sprintf("account %s already exists", account.ID)}
	}
	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Username, account.Username) {
			return &models.ValidationError{Field: "username", Message: "username already taken"}
		}
		if existing.ReferralCode == account.ReferralCode {
			return &models.ValidationError{Field: "referral_code", Message: "referral code already in use"}
		}
	}
	s.accounts[account.ID] = copyAccount(account)
	s.logger.Debug().Str("account_id", account.ID).Msg("Account created")
	return nil
}

func (s *Store) GetAccount(_ context.Context, id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, models.NewNotFound("account", id)
	}
	return copyAccount(a), nil
}

func (s *Store) FindAccountByReferralCode(_ context.Context, code string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.ReferralCode == code {
			return copyAccount(a), nil
		}
	}
	return nil, models.NewNotFound("referral code", code)
}

func (s *Store) ListAccountIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func sortAccounts(list []*models.Account) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
}

func (s *Store) ListAccounts(_ context.Context, limit int) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, copyAccount(a))
	}
	sortAccounts(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListReferrals(_ context.Context, referrerID string) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Account
	for _, a := range s.accounts {
		if referrerID != "" && a.ReferredBy == referrerID {
			out = append(out, copyAccount(a))
		}
	}
	sortAccounts(out)
	return out, nil
}

// Update serialises writers per account. fn works on copies; they replace
// the stored records only when fn succeeds and staged something.
func (s *Store) Update(ctx context.Context, accountID string, fn func(tx interfaces.LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}

	tx := staging.New(&source{s}, account)
	if err := fn(tx); err != nil {
		return err
	}

	changes := tx.Changes()
	if changes.Empty() {
		return nil
	}
	s.commit(changes)
	return nil
}

func (s *Store) commit(c staging.Changes) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account := copyAccount(c.Account)
	account.Version++
	account.UpdatedAt = time.Now()
	s.accounts[account.ID] = account

	if c.Tracker != nil {
		s.trackers[c.Tracker.AccountID] = copyTracker(c.Tracker)
	}
	for _, inv := range c.Investments {
		s.investments[inv.ID] = copyInvestment(inv)
	}
	for _, dep := range c.Deposits {
		s.deposits[dep.ID] = copyDeposit(dep)
	}
	for _, w := range c.Withdrawals {
		s.withdrawals[w.ID] = copyWithdrawal(w)
	}
	for _, tx := range c.Transactions {
		s.transactions[tx.AccountID] = append(s.transactions[tx.AccountID], copyTransaction(tx))
	}
}

// source reads committed state for staging.Tx.
type source struct{ s *Store }

func (r *source) Investment(id string) (*models.Investment, error) {
	return r.s.GetInvestment(context.Background(), id)
}

func (r *source) Investments(accountID string) ([]*models.Investment, error) {
	return r.s.ListInvestments(context.Background(), accountID, "")
}

func (r *source) Deposit(id string) (*models.Deposit, error) {
	return r.s.GetDeposit(context.Background(), id)
}

func (r *source) Withdrawal(id string) (*models.Withdrawal, error) {
	return r.s.GetWithdrawal(context.Background(), id)
}

func (r *source) Tracker(accountID string) (*models.ProfitTracker, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.trackers[accountID]
	if !ok {
		return nil, nil
	}
	return copyTracker(t), nil
}

// --- Investments ---

func (s *Store) GetInvestment(_ context.Context, id string) (*models.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.investments[id]
	if !ok {
		return nil, models.NewNotFound("investment", id)
	}
	return copyInvestment(inv), nil
}

func (s *Store) ListInvestments(_ context.Context, accountID string, status models.InvestmentStatus) ([]*models.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Investment
	for _, inv := range s.investments {
		if inv.AccountID != accountID {
			continue
		}
		if status != "" && inv.Status != status {
			continue
		}
		out = append(out, copyInvestment(inv))
	}
	staging.SortInvestments(out)
	return out, nil
}

func (s *Store) ListExpiredInvestments(_ context.Context, before time.Time) ([]*models.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Investment
	for _, inv := range s.investments {
		if inv.IsActive() && inv.EndDate.Before(before) {
			out = append(out, copyInvestment(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, nil
}

func (s *Store) ListInvestmentsByStatus(_ context.Context, status models.InvestmentStatus) ([]*models.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Investment
	for _, inv := range s.investments {
		if inv.Status == status {
			out = append(out, copyInvestment(inv))
		}
	}
	staging.SortInvestments(out)
	return out, nil
}

// --- Deposits and withdrawals ---

func (s *Store) GetDeposit(_ context.Context, id string) (*models.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dep, ok := s.deposits[id]
	if !ok {
		return nil, models.NewNotFound("deposit", id)
	}
	return copyDeposit(dep), nil
}

func (s *Store) ListDeposits(_ context.Context, accountID string) ([]*models.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Deposit
	for _, dep := range s.deposits {
		if dep.AccountID == accountID {
			out = append(out, copyDeposit(dep))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetWithdrawal(_ context.Context, id string) (*models.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.withdrawals[id]
	if !ok {
		return nil, models.NewNotFound("withdrawal", id)
	}
	return copyWithdrawal(w), nil
}

func (s *Store) ListWithdrawals(_ context.Context, accountID string) ([]*models.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Withdrawal
	for _, w := range s.withdrawals {
		if w.AccountID == accountID {
			out = append(out, copyWithdrawal(w))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) FindDeposits(_ context.Context, f models.RequestFilter) ([]*models.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Deposit
	for _, dep := range s.deposits {
		if f.Matches(dep.Status, dep.CryptoType, dep.CreatedAt) {
			out = append(out, copyDeposit(dep))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) FindWithdrawals(_ context.Context, f models.RequestFilter) ([]*models.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Withdrawal
	for _, w := range s.withdrawals {
		if f.Matches(w.Status, w.CryptoType, w.CreatedAt) {
			out = append(out, copyWithdrawal(w))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// --- Transactions and trackers ---

func (s *Store) ListTransactions(_ context.Context, accountID string, limit int) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.transactions[accountID]
	out := make([]*models.Transaction, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, copyTransaction(entries[i]))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) GetTracker(_ context.Context, accountID string) (*models.ProfitTracker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trackers[accountID]
	if !ok {
		return nil, models.NewNotFound("profit tracker", accountID)
	}
	return copyTracker(t), nil
}

// --- Plans ---

func (s *Store) GetPlan(_ context.Context, id string) (*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, models.NewNotFound("plan", id)
	}
	return copyPlan(p), nil
}

func (s *Store) SavePlan(_ context.Context, plan *models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = copyPlan(plan)
	return nil
}

func (s *Store) ListPlans(_ context.Context) ([]*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, copyPlan(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinAmount.LessThan(out[j].MinAmount) })
	return out, nil
}

func (s *Store) Close() error {
	return nil
}
