package staging

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

// emptySource has no committed records.
type emptySource struct{}

func (emptySource) Investment(id string) (*models.Investment, error) {
	return nil, models.NewNotFound("investment", id)
}

func (emptySource) Investments(string) ([]*models.Investment, error) { return nil, nil }

func (emptySource) Deposit(id string) (*models.Deposit, error) {
	return nil, models.NewNotFound("deposit", id)
}

func (emptySource) Withdrawal(id string) (*models.Withdrawal, error) {
	return nil, models.NewNotFound("withdrawal", id)
}

func (emptySource) Tracker(string) (*models.ProfitTracker, error) { return nil, nil }

func newAccount() *models.Account {
	return &models.Account{ID: "alice", Username: "alice", ActiveBalance: decimal.NewFromInt(100)}
}

func TestChanges_Empty(t *testing.T) {
	tx := New(emptySource{}, newAccount())
	_, err := tx.Tracker()
	require.NoError(t, err)
	_, err = tx.Investments()
	require.NoError(t, err)
	assert.True(t, tx.Changes().Empty())

	// same value reached through arithmetic is not a change
	tx.Account().ActiveBalance = decimal.RequireFromString("100.00")
	assert.True(t, tx.Changes().Empty())
}

func TestChanges_NotEmpty(t *testing.T) {
	tests := []struct {
		name  string
		stage func(tx *Tx) error
	}{
		{"balance", func(tx *Tx) error { return tx.Account().CreditActive(decimal.NewFromInt(1)) }},
		{"referrer", func(tx *Tx) error {
			tx.Account().ReferredBy = "bob"
			return nil
		}},
		{"tracker", func(tx *Tx) error {
			tracker, err := tx.Tracker()
			if err != nil {
				return err
			}
			return tx.PutTracker(tracker)
		}},
		{"investment", func(tx *Tx) error {
			return tx.PutInvestment(&models.Investment{ID: "inv_1", AccountID: "alice"})
		}},
		{"entry", func(tx *Tx) error {
			return tx.AddTransaction(models.NewTransaction("alice", models.TxProfit, decimal.NewFromInt(1), "profit", "", time.Now()))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := New(emptySource{}, newAccount())
			require.NoError(t, tt.stage(tx))
			assert.False(t, tx.Changes().Empty())
		})
	}
}
