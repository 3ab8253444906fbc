package memdb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/interfaces"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(common.NewSilentLogger())
}

func seedAccount(t *testing.T, s *Store, id, active string) {
	t.Helper()
	require.NoError(t, s.CreateAccount(context.Background(), &models.Account{
		ID:            id,
		Username:      id,
		ReferralCode:  "REF-" + id,
		ActiveBalance: decimal.RequireFromString(active),
	}))
}

func TestCreateAccount_Uniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "alice", "0")

	err := s.CreateAccount(ctx, &models.Account{ID: "other", Username: "ALICE", ReferralCode: "X"})
	assert.True(t, errors.Is(err, models.ErrValidation))

	err = s.CreateAccount(ctx, &models.Account{ID: "other", Username: "bob", ReferralCode: "REF-alice"})
	assert.True(t, errors.Is(err, models.ErrValidation))

	found, err := s.FindAccountByReferralCode(ctx, "REF-alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", found.ID)

	_, err = s.GetAccount(ctx, "nobody")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestUpdate_CommitsAllOrNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "alice", "100")
	now := time.Now()

	err := s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
		require.NoError(t, tx.Account().DebitActive(decimal.NewFromInt(40)))
		require.NoError(t, tx.PutInvestment(&models.Investment{ID: "inv_1", AccountID: "alice", Status: models.InvestmentActive, StartDate: now}))
		require.NoError(t, tx.AddTransaction(models.NewTransaction("alice", models.TxInvestment, decimal.NewFromInt(40), "open", "inv_1", now)))
		return errors.New("boom")
	})
	require.Error(t, err)

	acct, err := s.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "100", acct.ActiveBalance.String())
	_, err = s.GetInvestment(ctx, "inv_1")
	assert.True(t, errors.Is(err, models.ErrNotFound))
	txs, err := s.ListTransactions(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Empty(t, txs)

	err = s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
		if err := tx.Account().DebitActive(decimal.NewFromInt(40)); err != nil {
			return err
		}
		return tx.PutInvestment(&models.Investment{ID: "inv_1", AccountID: "alice", Status: models.InvestmentActive, StartDate: now})
	})
	require.NoError(t, err)

	acct, err = s.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "60", acct.ActiveBalance.String())
	assert.Equal(t, int64(1), acct.Version)
	inv, err := s.GetInvestment(ctx, "inv_1")
	require.NoError(t, err)
	assert.Equal(t, "alice", inv.AccountID)
}

func TestUpdate_ReadsSeeStagedWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "alice", "0")
	now := time.Now()

	err := s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
		require.NoError(t, tx.PutInvestment(&models.Investment{ID: "a", AccountID: "alice", Status: models.InvestmentActive, StartDate: now}))
		require.NoError(t, tx.PutInvestment(&models.Investment{ID: "b", AccountID: "alice", Status: models.InvestmentCompleted, StartDate: now.Add(time.Hour)}))

		all, err := tx.Investments()
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "b", all[0].ID)

		active, err := tx.ActiveInvestments()
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "a", active[0].ID)

		got, err := tx.Investment("a")
		require.NoError(t, err)
		assert.Equal(t, models.InvestmentActive, got.Status)
		return nil
	})
	require.NoError(t, err)
}

func TestUpdate_RejectsForeignRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "alice", "0")
	seedAccount(t, s, "bob", "0")

	require.NoError(t, s.Update(ctx, "bob", func(tx interfaces.LedgerTx) error {
		return tx.PutDeposit(&models.Deposit{ID: "dep_b", AccountID: "bob", Status: models.RequestPending})
	}))

	err := s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
		_, err := tx.Deposit("dep_b")
		return err
	})
	assert.True(t, errors.Is(err, models.ErrNotFound))

	err = s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
		return tx.PutDeposit(&models.Deposit{ID: "dep_x", AccountID: "bob"})
	})
	assert.Error(t, err)
}

func TestUpdate_UnknownAccount(t *testing.T) {
	s := newTestStore(t)
	err := s.Update(context.Background(), "ghost", func(tx interfaces.LedgerTx) error { return nil })
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestUpdate_SerialisesConcurrentWriters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "alice", "0")

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
				return tx.Account().CreditActive(decimal.NewFromInt(1))
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	acct, err := s.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "50", acct.ActiveBalance.String())
	assert.Equal(t, int64(workers), acct.Version)
}

func TestTracker_CreatedOnDemand(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "alice", "0")

	_, err := s.GetTracker(ctx, "alice")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	now := time.Now()
	require.NoError(t, s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
		tracker, err := tx.Tracker()
		if err != nil {
			return err
		}
		tracker.RecordDeposit(now)
		return tx.PutTracker(tracker)
	}))

	tracker, err := s.GetTracker(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, tracker.FirstDepositDate)
	assert.True(t, now.Equal(*tracker.FirstDepositDate))
}

func TestListTransactions_NewestFirstWithLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "alice", "0")
	base := time.Now()

	require.NoError(t, s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
		for i := 0; i < 5; i++ {
			entry := models.NewTransaction("alice", models.TxProfit, decimal.NewFromInt(int64(i+1)), "profit", "", base.Add(time.Duration(i)*time.Minute))
			if err := tx.AddTransaction(entry); err != nil {
				return err
			}
		}
		return nil
	}))

	txs, err := s.ListTransactions(ctx, "alice", 3)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "5", txs[0].Amount.String())
	assert.Equal(t, "3", txs[2].Amount.String())
}

func TestListExpiredInvestments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "alice", "0")
	now := time.Now()

	require.NoError(t, s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
		for _, inv := range []*models.Investment{
			{ID: "expired", AccountID: "alice", Status: models.InvestmentActive, EndDate: now.Add(-time.Hour)},
			{ID: "running", AccountID: "alice", Status: models.InvestmentActive, EndDate: now.Add(time.Hour)},
			{ID: "done", AccountID: "alice", Status: models.InvestmentCompleted, EndDate: now.Add(-time.Hour)},
		} {
			if err := tx.PutInvestment(inv); err != nil {
				return err
			}
		}
		return nil
	}))

	expired, err := s.ListExpiredInvestments(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "expired", expired[0].ID)
}

func TestPlans(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePlan(ctx, &models.Plan{ID: "gold", MinAmount: decimal.NewFromInt(5000)}))
	require.NoError(t, s.SavePlan(ctx, &models.Plan{ID: "basic", MinAmount: decimal.NewFromInt(100)}))

	plans, err := s.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "basic", plans[0].ID)

	_, err = s.GetPlan(ctx, "platinum")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestUpdate_NoChangesKeepsVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "alice", "100")

	before, err := s.GetAccount(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
		if _, err := tx.Tracker(); err != nil {
			return err
		}
		_, err := tx.Investments()
		return err
	}))

	// a credit and matching debit nets to the same balance
	require.NoError(t, s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
		if err := tx.Account().CreditActive(decimal.NewFromInt(5)); err != nil {
			return err
		}
		return tx.Account().DebitActive(decimal.NewFromInt(5))
	}))

	after, err := s.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
	_, err = s.GetTracker(ctx, "alice")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	require.NoError(t, s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
		return tx.Account().CreditActive(decimal.NewFromInt(1))
	}))
	after, err = s.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, before.Version+1, after.Version)
}

func TestListAccountsAndReferrals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, a := range []*models.Account{
		{ID: "alice", Username: "alice", ReferralCode: "A"},
		{ID: "bob", Username: "bob", ReferralCode: "B", ReferredBy: "alice"},
		{ID: "carol", Username: "carol", ReferralCode: "C", ReferredBy: "alice"},
		{ID: "dave", Username: "dave", ReferralCode: "D", ReferredBy: "bob"},
	} {
		a.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.CreateAccount(ctx, a))
	}

	all, err := s.ListAccounts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "dave", all[0].ID)
	assert.Equal(t, "alice", all[3].ID)

	recent, err := s.ListAccounts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "carol", recent[1].ID)

	refs, err := s.ListReferrals(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "carol", refs[0].ID)
	assert.Equal(t, "bob", refs[1].ID)

	refs, err = s.ListReferrals(ctx, "dave")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestFindRequestsAcrossAccounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "alice", "0")
	seedAccount(t, s, "bob", "0")
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	put := func(id, account, crypto string, status models.RequestStatus, at time.Time) {
		require.NoError(t, s.Update(ctx, account, func(tx interfaces.LedgerTx) error {
			if err := tx.PutDeposit(&models.Deposit{ID: id, AccountID: account, Amount: decimal.NewFromInt(100),
				CryptoType: crypto, Status: status, CreatedAt: at}); err != nil {
				return err
			}
			return tx.PutWithdrawal(&models.Withdrawal{ID: "w-" + id, AccountID: account, Amount: decimal.NewFromInt(10),
				CryptoType: crypto, CryptoAddress: "addr", Status: status, CreatedAt: at})
		}))
	}
	put("d1", "alice", models.CryptoBTC, models.RequestPending, base)
	put("d2", "bob", models.CryptoETH, models.RequestPending, base.Add(models.Day))
	put("d3", "bob", models.CryptoBTC, models.RequestApproved, base.Add(2*models.Day))

	pending, err := s.FindDeposits(ctx, models.RequestFilter{Status: models.RequestPending})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "d2", pending[0].ID)
	assert.Equal(t, "d1", pending[1].ID)

	btc, err := s.FindDeposits(ctx, models.RequestFilter{CryptoType: models.CryptoBTC})
	require.NoError(t, err)
	assert.Len(t, btc, 2)

	window, err := s.FindWithdrawals(ctx, models.RequestFilter{From: base.Add(time.Hour), To: base.Add(2 * models.Day)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "w-d2", window[0].ID)

	latest, err := s.FindWithdrawals(ctx, models.RequestFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "w-d3", latest[0].ID)
}

func TestListInvestmentsByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "alice", "0")
	seedAccount(t, s, "bob", "0")
	now := time.Now()

	for _, inv := range []*models.Investment{
		{ID: "a1", AccountID: "alice", Status: models.InvestmentActive, StartDate: now},
		{ID: "a2", AccountID: "alice", Status: models.InvestmentCompleted, StartDate: now},
		{ID: "b1", AccountID: "bob", Status: models.InvestmentActive, StartDate: now.Add(time.Hour)},
	} {
		inv := inv
		require.NoError(t, s.Update(ctx, inv.AccountID, func(tx interfaces.LedgerTx) error {
			return tx.PutInvestment(inv)
		}))
	}

	active, err := s.ListInvestmentsByStatus(ctx, models.InvestmentActive)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "b1", active[0].ID)
	assert.Equal(t, "a1", active[1].ID)
}
