package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

// Book carries the account being changed plus the side effects of engine
// calls: new ledger entries and tracker updates.
type Book struct {
	Account *models.Account
	Tracker *models.ProfitTracker
	Entries []*models.Transaction
}

// NewBook starts a book for account. A nil tracker gets a fresh one.
func NewBook(account *models.Account, tracker *models.ProfitTracker) *Book {
	if tracker == nil {
		tracker = &models.ProfitTracker{AccountID: account.ID}
	}
	return &Book{Account: account, Tracker: tracker}
}

func (b *Book) record(typ models.TransactionType, amount decimal.Decimal, description, reference string, now time.Time) *models.Transaction {
	tx := models.NewTransaction(b.Account.ID, typ, amount, description, reference, now)
	b.Entries = append(b.Entries, tx)
	return tx
}

// realizeProfit moves profit into the withdrawable balance and the earnings counter.
func (b *Book) realizeProfit(amount decimal.Decimal, description, reference string, now time.Time) error {
	if err := b.Account.CreditAccount(amount); err != nil {
		return err
	}
	if err := b.Account.AddEarnings(amount); err != nil {
		return err
	}
	b.Tracker.RecordProfit(amount, now)
	b.record(models.TxProfit, amount, description, reference, now)
	return nil
}
