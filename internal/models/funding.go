package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus is the approval state of a deposit or withdrawal.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestApproved  RequestStatus = "APPROVED"
	RequestCancelled RequestStatus = "CANCELLED"
)

// Supported crypto types for deposits and withdrawals.
const (
	CryptoBTC  = "BTC"
	CryptoETH  = "ETH"
	CryptoTRX  = "TRX"
	CryptoUSDT = "USDT"
)

var validCryptoTypes = map[string]bool{
	CryptoBTC:  true,
	CryptoETH:  true,
	CryptoTRX:  true,
	CryptoUSDT: true,
}

// ValidCryptoType returns true if t is an accepted crypto type.
func ValidCryptoType(t string) bool {
	return validCryptoTypes[t]
}

// Deposit is a manually attested transfer into the platform. Approval credits
// the active balance.
type Deposit struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"account_id"`
	Amount          decimal.Decimal `json:"amount"`
	CryptoType      string          `json:"crypto_type"`
	TransactionHash string          `json:"transaction_hash,omitempty"`
	WalletAddress   string          `json:"wallet_address,omitempty"`
	Status          RequestStatus   `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
}

// Withdrawal is a request to pay out from the account balance. Funds are
// only debited at approval.
type Withdrawal struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"account_id"`
	Amount        decimal.Decimal `json:"amount"`
	CryptoType    string          `json:"crypto_type"`
	CryptoAddress string          `json:"crypto_address"`
	Status        RequestStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
}

// RequestFilter narrows a cross-account deposit or withdrawal listing. Zero
// fields match everything. From and To bound CreatedAt; To is exclusive.
type RequestFilter struct {
	Status     RequestStatus
	CryptoType string
	From       time.Time
	To         time.Time
	Limit      int // <= 0 means no limit
}

// Validate rejects unknown statuses and crypto types and inverted ranges.
func (f RequestFilter) Validate() error {
	switch f.Status {
	case "", RequestPending, RequestApproved, RequestCancelled:
	default:
		return &ValidationError{Field: "status", Message: "unknown status " + string(f.Status)}
	}
	if f.CryptoType != "" && !ValidCryptoType(f.CryptoType) {
		return &ValidationError{Field: "crypto_type", Message: "unsupported crypto type " + f.CryptoType}
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return &ValidationError{Field: "to", Message: "date range is empty"}
	}
	return nil
}

// Matches reports whether a request with these attributes passes f.
func (f RequestFilter) Matches(status RequestStatus, cryptoType string, createdAt time.Time) bool {
	if f.Status != "" && status != f.Status {
		return false
	}
	if f.CryptoType != "" && cryptoType != f.CryptoType {
		return false
	}
	if !f.From.IsZero() && createdAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !createdAt.Before(f.To) {
		return false
	}
	return true
}
