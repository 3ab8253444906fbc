package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType categorizes a ledger history entry.
type TransactionType string

const (
	TxDeposit       TransactionType = "deposit"
	TxWithdrawal    TransactionType = "withdrawal"
	TxProfit        TransactionType = "profit"
	TxInvestment    TransactionType = "investment"
	TxCapitalReturn TransactionType = "capital_return"
	TxReferral      TransactionType = "referral"
)

// TransactionStatus mirrors the settlement state of the underlying event.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
	TxCancelled TransactionStatus = "cancelled"
)

// Transaction is an append-only ledger entry written alongside every balance change.
type Transaction struct {
	ID          string            `json:"id"`
	AccountID   string            `json:"account_id"`
	Type        TransactionType   `json:"type"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	Status      TransactionStatus `json:"status"`
	Reference   string            `json:"reference,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewTransaction builds a completed entry.
func NewTransaction(accountID string, typ TransactionType, amount decimal.Decimal, description, reference string, now time.Time) *Transaction {
	return &Transaction{
		ID:          NewID("tx"),
		AccountID:   accountID,
		Type:        typ,
		Amount:      amount,
		Description: description,
		Status:      TxCompleted,
		Reference:   reference,
		CreatedAt:   now,
	}
}
