// Package posting moves ledger engine results into a store transaction.
package posting

import (
	"fmt"

	"github.com/Giftedmindbenjamin/surbminer/internal/interfaces"
	"github.com/Giftedmindbenjamin/surbminer/internal/ledger"
)

// Begin opens a book over the transaction's account and profit tracker.
func Begin(tx interfaces.LedgerTx) (*ledger.Book, error) {
	tracker, err := tx.Tracker()
	if err != nil {
		return nil, fmt.Errorf("failed to load profit tracker: %w", err)
	}
	return ledger.NewBook(tx.Account(), tracker), nil
}

// Post stages the tracker and every entry recorded in b. Entries are cleared
// so a book can be posted more than once.
func Post(tx interfaces.LedgerTx, b *ledger.Book) error {
	if err := tx.PutTracker(b.Tracker); err != nil {
		return err
	}
	for _, entry := range b.Entries {
		if err := tx.AddTransaction(entry); err != nil {
			return err
		}
	}
	b.Entries = nil
	return nil
}
