package sqlite

import (
	"context"
	"errors"
	"path/filepath"
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
	s, err := NewStore(common.NewSilentLogger(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedAccount(t *testing.T, s *Store, id, active string) {
	t.Helper()
	require.NoError(t, s.CreateAccount(context.Background(), &models.Account{
		ID:             id,
		Username:       id,
		ReferralCode:   "REF-" + id,
		ActiveBalance:  decimal.RequireFromString(active),
		AccountBalance: decimal.Zero,
		TotalEarnings:  decimal.Zero,
	}))
}

func TestCreateAccount_RoundTripAndUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "alice", "123.45")

	acct, err := s.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "123.45", acct.ActiveBalance.StringFixed(2))
	assert.False(t, acct.CreatedAt.IsZero())

	err = s.CreateAccount(ctx, &models.Account{ID: "x", Username: "Alice", ReferralCode: "other"})
	require.Error(t, err)
	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "username", ve.Field)

	err = s.CreateAccount(ctx, &models.Account{ID: "y", Username: "bob", ReferralCode: "REF-alice"})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "referral_code", ve.Field)

	found, err := s.FindAccountByReferralCode(ctx, "REF-alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", found.ID)

	_, err = s.GetAccount(ctx, "ghost")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestUpdate_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "alice", "100")
	now := time.Now()

	err := s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
		if err := tx.Account().DebitActive(decimal.NewFromInt(100)); err != nil {
			return err
		}
		if err := tx.PutInvestment(sampleInvestment("inv_1", "alice", now)); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	acct, err := s.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "100", acct.ActiveBalance.String())
	_, err = s.GetInvestment(ctx, "inv_1")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func sampleInvestment(id, accountID string, start time.Time) *models.Investment {
	return &models.Investment{
		ID:              id,
		AccountID:       accountID,
		PlanID:          "basic",
		PlanName:        "BASIC",
		Amount:          decimal.NewFromInt(500),
		DailyPercentage: decimal.NewFromInt(3),
		DurationDays:    30,
		DailyProfit:     decimal.NewFromInt(15),
		TotalProfit:     decimal.NewFromInt(450),
		ProfitPaid:      decimal.Zero,
		Status:          models.InvestmentActive,
		StartDate:       start,
		EndDate:         start.Add(30 * models.Day),
		LastProfitDate:  start,
	}
}

func TestUpdate_PersistsEverything(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "alice", "1000")
	now := time.Date(2026, 5, 1, 10, 30, 0, 123456789, time.UTC)

	err := s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
		acct := tx.Account()
		if err := acct.DebitActive(decimal.NewFromInt(500)); err != nil {
			return err
		}
		inv := sampleInvestment("inv_1", "alice", now)
		if err := tx.PutInvestment(inv); err != nil {
			return err
		}
		tracker, err := tx.Tracker()
		if err != nil {
			return err
		}
		tracker.RecordInvestment(now)
		if err := tx.PutTracker(tracker); err != nil {
			return err
		}
		if err := tx.PutDeposit(&models.Deposit{ID: "dep_1", AccountID: "alice", Amount: decimal.NewFromInt(50),
			CryptoType: models.CryptoBTC, Status: models.RequestPending, CreatedAt: now}); err != nil {
			return err
		}
		if err := tx.PutWithdrawal(&models.Withdrawal{ID: "wd_1", AccountID: "alice", Amount: decimal.NewFromInt(10),
			CryptoType: models.CryptoETH, CryptoAddress: "0xabc", Status: models.RequestPending, CreatedAt: now}); err != nil {
			return err
		}
		return tx.AddTransaction(models.NewTransaction("alice", models.TxInvestment, decimal.NewFromInt(500), "open", "inv_1", now))
	})
	require.NoError(t, err)

	acct, err := s.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "500", acct.ActiveBalance.String())
	assert.Equal(t, int64(1), acct.Version)

	inv, err := s.GetInvestment(ctx, "inv_1")
	require.NoError(t, err)
	assert.True(t, now.Equal(inv.StartDate))
	assert.Equal(t, "15", inv.DailyProfit.String())
	assert.Nil(t, inv.CompletedAt)

	tracker, err := s.GetTracker(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, tracker.FirstInvestmentDate)
	assert.True(t, now.Equal(*tracker.FirstInvestmentDate))

	deps, err := s.ListDeposits(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, models.RequestPending, deps[0].Status)

	wds, err := s.ListWithdrawals(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, wds, 1)
	assert.Equal(t, "0xabc", wds[0].CryptoAddress)

	txs, err := s.ListTransactions(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TxInvestment, txs[0].Type)

	// status change is an upsert
	completed := now.Add(30 * models.Day)
	require.NoError(t, s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
		inv, err := tx.Investment("inv_1")
		if err != nil {
			return err
		}
		inv.Status = models.InvestmentCompleted
		inv.CompletedAt = &completed
		return tx.PutInvestment(inv)
	}))

	inv, err = s.GetInvestment(ctx, "inv_1")
	require.NoError(t, err)
	assert.Equal(t, models.InvestmentCompleted, inv.Status)
	require.NotNil(t, inv.CompletedAt)
	assert.True(t, completed.Equal(*inv.CompletedAt))
}

func TestUpdate_ConcurrentWritersDoNotLoseUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "alice", "0")

	const workers = 20
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
	assert.Equal(t, "20", acct.ActiveBalance.String())
}

func TestListExpiredInvestments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "alice", "0")
	now := time.Now()

	require.NoError(t, s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
		old := sampleInvestment("old", "alice", now.Add(-40*models.Day))
		fresh := sampleInvestment("fresh", "alice", now)
		if err := tx.PutInvestment(old); err != nil {
			return err
		}
		return tx.PutInvestment(fresh)
	}))

	expired, err := s.ListExpiredInvestments(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "old", expired[0].ID)

	active, err := s.ListInvestments(ctx, "alice", models.InvestmentActive)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "fresh", active[0].ID)
}

func TestPlans_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	max := decimal.RequireFromString("999.99")

	require.NoError(t, s.SavePlan(ctx, &models.Plan{ID: "gold", Name: "GOLD", MinAmount: decimal.NewFromInt(10000),
		DailyPercentage: decimal.NewFromInt(5), DurationDays: 30, IsActive: true}))
	require.NoError(t, s.SavePlan(ctx, &models.Plan{ID: "basic", Name: "BASIC", MinAmount: decimal.NewFromInt(100),
		MaxAmount: &max, DailyPercentage: decimal.NewFromInt(3), DurationDays: 30, IsActive: true}))

	plans, err := s.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "basic", plans[0].ID)
	require.NotNil(t, plans[0].MaxAmount)
	assert.Equal(t, "999.99", plans[0].MaxAmount.String())
	assert.Nil(t, plans[1].MaxAmount)

	_, err = s.GetPlan(ctx, "nope")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestUpdate_NoChangesSkipsCommit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, s, "alice", "100")

	before, err := s.GetAccount(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
		_, err := tx.Tracker()
		return err
	}))

	after, err := s.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
}

func TestListAccountsAndReferrals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, a := range []*models.Account{
		{ID: "alice", Username: "alice", ReferralCode: "A"},
		{ID: "bob", Username: "bob", ReferralCode: "B", ReferredBy: "alice"},
		{ID: "carol", Username: "carol", ReferralCode: "C", ReferredBy: "alice"},
	} {
		a.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.CreateAccount(ctx, a))
	}

	all, err := s.ListAccounts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "carol", all[0].ID)

	recent, err := s.ListAccounts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	refs, err := s.ListReferrals(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "carol", refs[0].ID)
	assert.Equal(t, "bob", refs[1].ID)

	refs, err = s.ListReferrals(ctx, "carol")
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

	btc, err := s.FindDeposits(ctx, models.RequestFilter{Status: models.RequestPending, CryptoType: models.CryptoBTC})
	require.NoError(t, err)
	require.Len(t, btc, 1)
	assert.Equal(t, "d1", btc[0].ID)

	window, err := s.FindWithdrawals(ctx, models.RequestFilter{From: base.Add(time.Hour), To: base.Add(2 * models.Day)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "w-d2", window[0].ID)

	latest, err := s.FindWithdrawals(ctx, models.RequestFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "w-d3", latest[0].ID)

	require.NoError(t, s.Update(ctx, "alice", func(tx interfaces.LedgerTx) error {
		return tx.PutInvestment(sampleInvestment("inv_1", "alice", base))
	}))
	active, err := s.ListInvestmentsByStatus(ctx, models.InvestmentActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "inv_1", active[0].ID)
}
