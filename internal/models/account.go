package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is the ledger aggregate for one user. Balances are only changed
// through the Credit*/Debit* methods.
type Account struct {
	ID               string          `json:"id"`
	Username         string          `json:"username"`
	Email            string          `json:"email"`
	FullName         string          `json:"full_name,omitempty"`
	ActiveBalance    decimal.Decimal `json:"active_balance"`
	AccountBalance   decimal.Decimal `json:"account_balance"`
	TotalEarnings    decimal.Decimal `json:"total_earnings"`
	ReferralEarnings decimal.Decimal `json:"referral_earnings"`
	ReferralCode     string          `json:"referral_code"`
	ReferredBy       string          `json:"referred_by,omitempty"`
	Version          int64           `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewReferralCode returns an 8 character upper-case code.
func NewReferralCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// NewID returns a prefixed random identifier, e.g. "inv_3f1c...".
func NewID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func checkCredit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return &ValidationError{Field: "amount", Message: "credit amount must not be negative"}
	}
	return nil
}

// CreditActive adds amount to the active (committed) balance.
func (a *Account) CreditActive(amount decimal.Decimal) error {
	if err := checkCredit(amount); err != nil {
		return err
	}
	a.ActiveBalance = a.ActiveBalance.Add(amount)
	return nil
}

// DebitActive removes amount from the active balance or fails without
// touching it.
func (a *Account) DebitActive(amount decimal.Decimal) error {
	if err := checkCredit(amount); err != nil {
		return err
	}
	if a.ActiveBalance.LessThan(amount) {
		return &InsufficientFundsError{Balance: BalanceActive, Available: a.ActiveBalance, Required: amount}
	}
	a.ActiveBalance = a.ActiveBalance.Sub(amount)
	return nil
}

// CreditAccount adds amount to the withdrawable balance.
func (a *Account) CreditAccount(amount decimal.Decimal) error {
	if err := checkCredit(amount); err != nil {
		return err
	}
	a.AccountBalance = a.AccountBalance.Add(amount)
	return nil
}

// DebitAccount removes amount from the withdrawable balance or fails without
// touching it.
func (a *Account) DebitAccount(amount decimal.Decimal) error {
	if err := checkCredit(amount); err != nil {
		return err
	}
	if a.AccountBalance.LessThan(amount) {
		return &InsufficientFundsError{Balance: BalanceAccount, Available: a.AccountBalance, Required: amount}
	}
	a.AccountBalance = a.AccountBalance.Sub(amount)
	return nil
}

// AddEarnings increases the lifetime earnings counter. It never decreases.
func (a *Account) AddEarnings(amount decimal.Decimal) error {
	if err := checkCredit(amount); err != nil {
		return err
	}
	a.TotalEarnings = a.TotalEarnings.Add(amount)
	return nil
}

// CanWithdraw reports whether the withdrawable balance covers amount.
func (a *Account) CanWithdraw(amount decimal.Decimal) bool {
	return a.AccountBalance.GreaterThanOrEqual(amount)
}
