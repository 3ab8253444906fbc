// Package staging buffers the writes of one account transaction so every
// storage backend can commit them as a unit.
package staging

import (
	"fmt"
	"sort"

	"github.com/Giftedmindbenjamin/surbminer/internal/interfaces"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

// Source is the committed state a transaction reads through to. Get methods
// return a NotFoundError for missing records; Tracker returns nil, nil when
// the account has none yet.
type Source interface {
	Investment(id string) (*models.Investment, error)
	Investments(accountID string) ([]*models.Investment, error)
	Deposit(id string) (*models.Deposit, error)
	Withdrawal(id string) (*models.Withdrawal, error)
	Tracker(accountID string) (*models.ProfitTracker, error)
}

// Changes is everything a transaction wants persisted. AccountChanged is
// false when the account still matches what the transaction started from.
type Changes struct {
	Account        *models.Account
	AccountChanged bool
	Tracker        *models.ProfitTracker
	Investments  []*models.Investment
	Deposits     []*models.Deposit
	Withdrawals  []*models.Withdrawal
	Transactions []*models.Transaction
}

// Tx implements interfaces.LedgerTx on top of a Source.
type Tx struct {
	src      Source
	account  *models.Account
	original models.Account

	tracker      *models.ProfitTracker
	trackerDirty bool

	investments  []*models.Investment
	deposits     []*models.Deposit
	withdrawals  []*models.Withdrawal
	transactions []*models.Transaction
}

var _ interfaces.LedgerTx = (*Tx)(nil)

// New starts a transaction for account. The account value is owned by the
// transaction from here on.
func New(src Source, account *models.Account) *Tx {
	return &Tx{src: src, account: account, original: *account}
}

func (t *Tx) Account() *models.Account {
	return t.account
}

func (t *Tx) Tracker() (*models.ProfitTracker, error) {
	if t.tracker != nil {
		return t.tracker, nil
	}
	tracker, err := t.src.Tracker(t.account.ID)
	if err != nil {
		return nil, err
	}
	if tracker == nil {
		tracker = &models.ProfitTracker{AccountID: t.account.ID}
	}
	t.tracker = tracker
	return tracker, nil
}

func (t *Tx) Investment(id string) (*models.Investment, error) {
	for _, inv := range t.investments {
		if inv.ID == id {
			return inv, nil
		}
	}
	inv, err := t.src.Investment(id)
	if err != nil {
		return nil, err
	}
	if inv.AccountID != t.account.ID {
		return nil, models.NewNotFound("investment", id)
	}
	return inv, nil
}

func (t *Tx) Investments() ([]*models.Investment, error) {
	stored, err := t.src.Investments(t.account.ID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Investment, len(stored)+len(t.investments))
	for _, inv := range stored {
		byID[inv.ID] = inv
	}
	for _, inv := range t.investments {
		byID[inv.ID] = inv
	}

	out := make([]*models.Investment, 0, len(byID))
	for _, inv := range byID {
		out = append(out, inv)
	}
	SortInvestments(out)
	return out, nil
}

func (t *Tx) ActiveInvestments() ([]*models.Investment, error) {
	all, err := t.Investments()
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, inv := range all {
		if inv.IsActive() {
			active = append(active, inv)
		}
	}
	return active, nil
}

func (t *Tx) Deposit(id string) (*models.Deposit, error) {
	for _, dep := range t.deposits {
		if dep.ID == id {
			return dep, nil
		}
	}
	dep, err := t.src.Deposit(id)
	if err != nil {
		return nil, err
	}
	if dep.AccountID != t.account.ID {
		return nil, models.NewNotFound("deposit", id)
	}
	return dep, nil
}

func (t *Tx) Withdrawal(id string) (*models.Withdrawal, error) {
	for _, w := range t.withdrawals {
		if w.ID == id {
			return w, nil
		}
	}
	w, err := t.src.Withdrawal(id)
	if err != nil {
		return nil, err
	}
	if w.AccountID != t.account.ID {
		return nil, models.NewNotFound("withdrawal", id)
	}
	return w, nil
}

func (t *Tx) checkOwner(kind, id, accountID string) error {
	if accountID != t.account.ID {
		return fmt.Errorf("%s %s belongs to account %s, not %s", kind, id, accountID, t.account.ID)
	}
	return nil
}

func (t *Tx) PutInvestment(inv *models.Investment) error {
	if err := t.checkOwner("investment", inv.ID, inv.AccountID); err != nil {
		return err
	}
	for i, existing := range t.investments {
		if existing.ID == inv.ID {
			t.investments[i] = inv
			return nil
		}
	}
	t.investments = append(t.investments, inv)
	return nil
}

func (t *Tx) PutDeposit(dep *models.Deposit) error {
	if err := t.checkOwner("deposit", dep.ID, dep.AccountID); err != nil {
		return err
	}
	for i, existing := range t.deposits {
		if existing.ID == dep.ID {
			t.deposits[i] = dep
			return nil
		}
	}
	t.deposits = append(t.deposits, dep)
	return nil
}

func (t *Tx) PutWithdrawal(w *models.Withdrawal) error {
	if err := t.checkOwner("withdrawal", w.ID, w.AccountID); err != nil {
		return err
	}
	for i, existing := range t.withdrawals {
		if existing.ID == w.ID {
			t.withdrawals[i] = w
			return nil
		}
	}
	t.withdrawals = append(t.withdrawals, w)
	return nil
}

func (t *Tx) PutTracker(tracker *models.ProfitTracker) error {
	if err := t.checkOwner("tracker", tracker.AccountID, tracker.AccountID); err != nil {
		return err
	}
	t.tracker = tracker
	t.trackerDirty = true
	return nil
}

func (t *Tx) AddTransaction(tx *models.Transaction) error {
	if err := t.checkOwner("transaction", tx.ID, tx.AccountID); err != nil {
		return err
	}
	t.transactions = append(t.transactions, tx)
	return nil
}

// Changes returns the staged writes in the order they were made.
func (t *Tx) Changes() Changes {
	c := Changes{
		Account:        t.account,
		AccountChanged: !sameAccount(&t.original, t.account),
		Investments:    t.investments,
		Deposits:       t.deposits,
		Withdrawals:    t.withdrawals,
		Transactions:   t.transactions,
	}
	if t.trackerDirty {
		c.Tracker = t.tracker
	}
	return c
}

// Empty reports whether committing c would write nothing. Backends skip
// the commit, and the version bump that goes with it, for empty changes.
func (c Changes) Empty() bool {
	return !c.AccountChanged &&
		c.Tracker == nil &&
		len(c.Investments) == 0 &&
		len(c.Deposits) == 0 &&
		len(c.Withdrawals) == 0 &&
		len(c.Transactions) == 0
}

func sameAccount(a, b *models.Account) bool {
	return a.ID == b.ID &&
		a.Username == b.Username &&
		a.Email == b.Email &&
		a.FullName == b.FullName &&
		a.ActiveBalance.Equal(b.ActiveBalance) &&
		a.AccountBalance.Equal(b.AccountBalance) &&
		a.TotalEarnings.Equal(b.TotalEarnings) &&
		a.ReferralEarnings.Equal(b.ReferralEarnings) &&
		a.ReferralCode == b.ReferralCode &&
		a.ReferredBy == b.ReferredBy
}

// SortInvestments orders newest first, ties broken by ID.
func SortInvestments(list []*models.Investment) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].StartDate.Equal(list[j].StartDate) {
			return list[i].StartDate.After(list[j].StartDate)
		}
		return list[i].ID > list[j].ID
	})
}
