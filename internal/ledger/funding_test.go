package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

func pendingDeposit(amount string) *models.Deposit {
	return &models.Deposit{
		ID:         "dep_1",
		AccountID:  "acct_1",
		Amount:     d(amount),
		CryptoType: models.CryptoUSDT,
		Status:     models.RequestPending,
		CreatedAt:  t0,
	}
}

func pendingWithdrawal(amount string) *models.Withdrawal {
	return &models.Withdrawal{
		ID:            "wd_1",
		AccountID:     "acct_1",
		Amount:        d(amount),
		CryptoType:    models.CryptoBTC,
		CryptoAddress: "bc1-user",
		Status:        models.RequestPending,
		CreatedAt:     t0,
	}
}

func TestApproveDeposit(t *testing.T) {
	b := fundedBook("0")
	dep := pendingDeposit("250")
	now := t0.Add(models.Day)

	require.NoError(t, ApproveDeposit(b, dep, now))

	assert.Equal(t, models.RequestApproved, dep.Status)
	require.NotNil(t, dep.ApprovedAt)
	assert.Equal(t, now, *dep.ApprovedAt)
	assert.Equal(t, "250.00", b.Account.ActiveBalance.StringFixed(2))
	assert.True(t, b.Account.AccountBalance.IsZero())

	require.NotNil(t, b.Tracker.FirstDepositDate)
	assert.Equal(t, t0, *b.Tracker.FirstDepositDate)

	require.Len(t, b.Entries, 1)
	assert.Equal(t, models.TxDeposit, b.Entries[0].Type)
	assert.Equal(t, dep.ID, b.Entries[0].Reference)
}

func TestApproveDeposit_TwiceRejected(t *testing.T) {
	b := fundedBook("0")
	dep := pendingDeposit("250")
	require.NoError(t, ApproveDeposit(b, dep, t0))

	err := ApproveDeposit(b, dep, t0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidState))
	assert.Equal(t, "250.00", b.Account.ActiveBalance.StringFixed(2))
}

func TestCancelDeposit(t *testing.T) {
	dep := pendingDeposit("250")
	require.NoError(t, CancelDeposit(dep, t0))
	assert.Equal(t, models.RequestCancelled, dep.Status)
	require.NotNil(t, dep.CancelledAt)

	b := fundedBook("0")
	err := ApproveDeposit(b, dep, t0)
	assert.True(t, errors.Is(err, models.ErrInvalidState))
	assert.True(t, b.Account.ActiveBalance.IsZero())

	assert.True(t, errors.Is(CancelDeposit(dep, t0), models.ErrInvalidState))
}

func TestApproveWithdrawal_InsufficientStaysPending(t *testing.T) {
	b := fundedBook("0")
	b.Account.AccountBalance = d("100")
	w := pendingWithdrawal("200")

	ok, err := ApproveWithdrawal(b, w, t0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, models.RequestPending, w.Status)
	assert.Nil(t, w.ApprovedAt)
	assert.Equal(t, "100.00", b.Account.AccountBalance.StringFixed(2))
	assert.Empty(t, b.Entries)
}

func TestApproveWithdrawal(t *testing.T) {
	b := fundedBook("0")
	b.Account.AccountBalance = d("300")
	w := pendingWithdrawal("200")

	ok, err := ApproveWithdrawal(b, w, t0)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, models.RequestApproved, w.Status)
	assert.Equal(t, "100.00", b.Account.AccountBalance.StringFixed(2))
	require.Len(t, b.Entries, 1)
	assert.Equal(t, models.TxWithdrawal, b.Entries[0].Type)

	ok, err = ApproveWithdrawal(b, w, t0)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, models.ErrInvalidState))
	assert.Equal(t, "100.00", b.Account.AccountBalance.StringFixed(2))
}

func TestApproveWithdrawal_ExactBalance(t *testing.T) {
	b := fundedBook("0")
	b.Account.AccountBalance = d("200")

	ok, err := ApproveWithdrawal(b, pendingWithdrawal("200"), t0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, b.Account.AccountBalance.IsZero())
}

func TestCancelWithdrawal(t *testing.T) {
	w := pendingWithdrawal("200")
	require.NoError(t, CancelWithdrawal(w, t0))
	assert.Equal(t, models.RequestCancelled, w.Status)

	b := fundedBook("0")
	b.Account.AccountBalance = d("500")
	ok, err := ApproveWithdrawal(b, w, t0)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, models.ErrInvalidState))
	assert.Equal(t, "500.00", b.Account.AccountBalance.StringFixed(2))
}
