package ledger

import (
	"fmt"
	"time"

	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

// ApproveDeposit credits a pending deposit to the active balance.
func ApproveDeposit(b *Book, dep *models.Deposit, now time.Time) error {
	next, ok := RequestTransition(dep.Status, EventApprove)
	if !ok {
		return &models.InvalidStateError{Entity: "deposit", ID: dep.ID, Status: string(dep.Status), Operation: "approve"}
	}
	if err := b.Account.CreditActive(dep.Amount); err != nil {
		return err
	}

	dep.Status = next
	dep.ApprovedAt = &now
	b.Tracker.RecordDeposit(dep.CreatedAt)
	b.record(models.TxDeposit, dep.Amount,
		fmt.Sprintf("%s deposit approved", dep.CryptoType), dep.ID, now)
	return nil
}

// CancelDeposit rejects a pending deposit. Nothing was credited, so nothing
// is reversed.
func CancelDeposit(dep *models.Deposit, now time.Time) error {
	next, ok := RequestTransition(dep.Status, EventCancel)
	if !ok {
		return &models.InvalidStateError{Entity: "deposit", ID: dep.ID, Status: string(dep.Status), Operation: "cancel"}
	}
	dep.Status = next
	dep.CancelledAt = &now
	return nil
}

// ApproveWithdrawal pays out a pending withdrawal from the account balance.
// Insufficient funds is an expected outcome: it returns false and leaves both
// the withdrawal and the account unchanged.
func ApproveWithdrawal(b *Book, w *models.Withdrawal, now time.Time) (bool, error) {
	next, ok := RequestTransition(w.Status, EventApprove)
	if !ok {
		return false, &models.InvalidStateError{Entity: "withdrawal", ID: w.ID, Status: string(w.Status), Operation: "approve"}
	}
	if !b.Account.CanWithdraw(w.Amount) {
		return false, nil
	}
	if err := b.Account.DebitAccount(w.Amount); err != nil {
		return false, err
	}

	w.Status = next
	w.ApprovedAt = &now
	b.record(models.TxWithdrawal, w.Amount,
		fmt.Sprintf("%s withdrawal to %s", w.CryptoType, w.CryptoAddress), w.ID, now)
	return true, nil
}

// CancelWithdrawal rejects a pending withdrawal. Funds were never held.
func CancelWithdrawal(w *models.Withdrawal, now time.Time) error {
	next, ok := RequestTransition(w.Status, EventCancel)
	if !ok {
		return &models.InvalidStateError{Entity: "withdrawal", ID: w.ID, Status: string(w.Status), Operation: "cancel"}
	}
	w.Status = next
	w.CancelledAt = &now
	return nil
}
