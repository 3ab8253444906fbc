package surrealdb

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

// Records keep amounts as decimal strings and never carry an "id" field; the
// SurrealDB record id is built from the *_id field.

func money(d decimal.Decimal) string {
	return d.String()
}

func parseMoney(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad %s value %q: %w", field, s, err)
	}
	return d, nil
}

type accountRecord struct {
	AccountID        string    `json:"account_id"`
	Username         string    `json:"username"`
	UsernameKey      string    `json:"username_key"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	ActiveBalance    string    `json:"active_balance"`
	AccountBalance   string    `json:"account_balance"`
	TotalEarnings    string    `json:"total_earnings"`
	ReferralEarnings string    `json:"referral_earnings"`
	ReferralCode     string    `json:"referral_code"`
	ReferredBy       string    `json:"referred_by"`
	Version          int64     `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toAccountRecord(a *models.Account) accountRecord {
	return accountRecord{
		AccountID:        a.ID,
		Username:         a.Username,
		UsernameKey:      strings.ToLower(a.Username),
		Email:            a.Email,
		FullName:         a.FullName,
		ActiveBalance:    money(a.ActiveBalance),
		AccountBalance:   money(a.AccountBalance),
		TotalEarnings:    money(a.TotalEarnings),
		ReferralEarnings: money(a.ReferralEarnings),
		ReferralCode:     a.ReferralCode,
		ReferredBy:       a.ReferredBy,
		Version:          a.Version,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func (r accountRecord) model() (*models.Account, error) {
	a := &models.Account{
		ID:           r.AccountID,
		Username:     r.Username,
		Email:        r.Email,
		FullName:     r.FullName,
		ReferralCode: r.ReferralCode,
		ReferredBy:   r.ReferredBy,
		Version:      r.Version,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	var err error
	if a.ActiveBalance, err = parseMoney("active_balance", r.ActiveBalance); err != nil {
		return nil, err
	}
	if a.AccountBalance, err = parseMoney("account_balance", r.AccountBalance); err != nil {
		return nil, err
	}
	if a.TotalEarnings, err = parseMoney("total_earnings", r.TotalEarnings); err != nil {
		return nil, err
	}
	if a.ReferralEarnings, err = parseMoney("referral_earnings", r.ReferralEarnings); err != nil {
		return nil, err
	}
	return a, nil
}

type planRecord struct {
	PlanID          string    `json:"plan_id"`
	Name            string    `json:"name"`
	MinAmount       string    `json:"min_amount"`
	MaxAmount       string    `json:"max_amount"` // empty = unbounded
	DailyPercentage string    `json:"daily_percentage"`
	DurationDays    int       `json:"duration_days"`
	Description     string    `json:"description"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toPlanRecord(p *models.Plan) planRecord {
	r := planRecord{
		PlanID:          p.ID,
		Name:            p.Name,
		MinAmount:       money(p.MinAmount),
		DailyPercentage: money(p.DailyPercentage),
		DurationDays:    p.DurationDays,
		Description:     p.Description,
		IsActive:        p.IsActive,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.MaxAmount != nil {
		r.MaxAmount = money(*p.MaxAmount)
	}
	return r
}

func (r planRecord) model() (*models.Plan, error) {
	p := &models.Plan{
		ID:           r.PlanID,
		Name:         r.Name,
		DurationDays: r.DurationDays,
		Description:  r.Description,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	var err error
	if p.MinAmount, err = parseMoney("min_amount", r.MinAmount); err != nil {
		return nil, err
	}
	if p.DailyPercentage, err = parseMoney("daily_percentage", r.DailyPercentage); err != nil {
		return nil, err
	}
	if r.MaxAmount != "" {
		max, err := parseMoney("max_amount", r.MaxAmount)
		if err != nil {
			return nil, err
		}
		p.MaxAmount = &max
	}
	return p, nil
}

type investmentRecord struct {
	InvestmentID    string     `json:"investment_id"`
	AccountID       string     `json:"account_id"`
	PlanID          string     `json:"plan_id"`
	PlanName        string     `json:"plan_name"`
	Amount          string     `json:"amount"`
	DailyPercentage string     `json:"daily_percentage"`
	DurationDays    int        `json:"duration_days"`
	DailyProfit     string     `json:"daily_profit"`
	TotalProfit     string     `json:"total_profit"`
	ProfitPaid      string     `json:"profit_paid"`
	CapitalReturned bool       `json:"capital_returned"`
	Status          string     `json:"status"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	LastProfitDate  time.Time  `json:"last_profit_date"`
	CompletedAt     *time.Time `json:"completed_at"`
	CancelledAt     *time.Time `json:"cancelled_at"`
}

func toInvestmentRecord(i *models.Investment) investmentRecord {
	return investmentRecord{
		InvestmentID:    i.ID,
		AccountID:       i.AccountID,
		PlanID:          i.PlanID,
		PlanName:        i.PlanName,
		Amount:          money(i.Amount),
		DailyPercentage: money(i.DailyPercentage),
		DurationDays:    i.DurationDays,
		DailyProfit:     money(i.DailyProfit),
		TotalProfit:     money(i.TotalProfit),
		ProfitPaid:      money(i.ProfitPaid),
		CapitalReturned: i.CapitalReturned,
		Status:          string(i.Status),
		StartDate:       i.StartDate,
		EndDate:         i.EndDate,
		LastProfitDate:  i.LastProfitDate,
		CompletedAt:     i.CompletedAt,
		CancelledAt:     i.CancelledAt,
	}
}

func (r investmentRecord) model() (*models.Investment, error) {
	i := &models.Investment{
		ID:              r.InvestmentID,
		AccountID:       r.AccountID,
		PlanID:          r.PlanID,
		PlanName:        r.PlanName,
		DurationDays:    r.DurationDays,
		CapitalReturned: r.CapitalReturned,
		Status:          models.InvestmentStatus(r.Status),
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		LastProfitDate:  r.LastProfitDate,
		CompletedAt:     r.CompletedAt,
		CancelledAt:     r.CancelledAt,
	}
	var err error
	if i.Amount, err = parseMoney("amount", r.Amount); err != nil {
		return nil, err
	}
	if i.DailyPercentage, err = parseMoney("daily_percentage", r.DailyPercentage); err != nil {
		return nil, err
	}
	if i.DailyProfit, err = parseMoney("daily_profit", r.DailyProfit); err != nil {
		return nil, err
	}
	if i.TotalProfit, err = parseMoney("total_profit", r.TotalProfit); err != nil {
		return nil, err
	}
	if i.ProfitPaid, err = parseMoney("profit_paid", r.ProfitPaid); err != nil {
		return nil, err
	}
	return i, nil
}

type depositRecord struct {
	DepositID       string     `json:"deposit_id"`
	AccountID       string     `json:"account_id"`
	Amount          string     `json:"amount"`
	CryptoType      string     `json:"crypto_type"`
	TransactionHash string     `json:"transaction_hash"`
	WalletAddress   string     `json:"wallet_address"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	ApprovedAt      *time.Time `json:"approved_at"`
	CancelledAt     *time.Time `json:"cancelled_at"`
}

func toDepositRecord(d *models.Deposit) depositRecord {
	return depositRecord{
		DepositID:       d.ID,
		AccountID:       d.AccountID,
		Amount:          money(d.Amount),
		CryptoType:      d.CryptoType,
		TransactionHash: d.TransactionHash,
		WalletAddress:   d.WalletAddress,
		Status:          string(d.Status),
		CreatedAt:       d.CreatedAt,
		ApprovedAt:      d.ApprovedAt,
		CancelledAt:     d.CancelledAt,
	}
}

func (r depositRecord) model() (*models.Deposit, error) {
	amount, err := parseMoney("amount", r.Amount)
	if err != nil {
		return nil, err
	}
	return &models.Deposit{
		ID:              r.DepositID,
		AccountID:       r.AccountID,
		Amount:          amount,
		CryptoType:      r.CryptoType,
		TransactionHash: r.TransactionHash,
		WalletAddress:   r.WalletAddress,
		Status:          models.RequestStatus(r.Status),
		CreatedAt:       r.CreatedAt,
		ApprovedAt:      r.ApprovedAt,
		CancelledAt:     r.CancelledAt,
	}, nil
}

type withdrawalRecord struct {
	WithdrawalID  string     `json:"withdrawal_id"`
	AccountID     string     `json:"account_id"`
	Amount        string     `json:"amount"`
	CryptoType    string     `json:"crypto_type"`
	CryptoAddress string     `json:"crypto_address"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	ApprovedAt    *time.Time `json:"approved_at"`
	CancelledAt   *time.Time `json:"cancelled_at"`
}

func toWithdrawalRecord(w *models.Withdrawal) withdrawalRecord {
	return withdrawalRecord{
		WithdrawalID:  w.ID,
		AccountID:     w.AccountID,
		Amount:        money(w.Amount),
		CryptoType:    w.CryptoType,
		CryptoAddress: w.CryptoAddress,
		Status:        string(w.Status),
		CreatedAt:     w.CreatedAt,
		ApprovedAt:    w.ApprovedAt,
		CancelledAt:   w.CancelledAt,
	}
}

func (r withdrawalRecord) model() (*models.Withdrawal, error) {
	amount, err := parseMoney("amount", r.Amount)
	if err != nil {
		return nil, err
	}
	return &models.Withdrawal{
		ID:            r.WithdrawalID,
		AccountID:     r.AccountID,
		Amount:        amount,
		CryptoType:    r.CryptoType,
		CryptoAddress: r.CryptoAddress,
		Status:        models.RequestStatus(r.Status),
		CreatedAt:     r.CreatedAt,
		ApprovedAt:    r.ApprovedAt,
		CancelledAt:   r.CancelledAt,
	}, nil
}

type entryRecord struct {
	EntryID     string    `json:"entry_id"`
	Seq         int64     `json:"seq"`
	AccountID   string    `json:"account_id"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Reference   string    `json:"reference"`
	CreatedAt   time.Time `json:"created_at"`
}

func toEntryRecord(t *models.Transaction, seq int64) entryRecord {
	return entryRecord{
		EntryID:     t.ID,
		Seq:         seq,
		AccountID:   t.AccountID,
		Type:        string(t.Type),
		Amount:      money(t.Amount),
		Description: t.Description,
		Status:      string(t.Status),
		Reference:   t.Reference,
		CreatedAt:   t.CreatedAt,
	}
}

func (r entryRecord) model() (*models.Transaction, error) {
	amount, err := parseMoney("amount", r.Amount)
	if err != nil {
		return nil, err
	}
	return &models.Transaction{
		ID:          r.EntryID,
		AccountID:   r.AccountID,
		Type:        models.TransactionType(r.Type),
		Amount:      amount,
		Description: r.Description,
		Status:      models.TransactionStatus(r.Status),
		Reference:   r.Reference,
		CreatedAt:   r.CreatedAt,
	}, nil
}

type trackerRecord struct {
	AccountID              string     `json:"account_id"`
	FirstDepositDate       *time.Time `json:"first_deposit_date"`
	FirstInvestmentDate    *time.Time `json:"first_investment_date"`
	TotalProfitEarned      string     `json:"total_profit_earned"`
	ProfitCalculationCount int        `json:"profit_calculation_count"`
	LastProfitCalculation  *time.Time `json:"last_profit_calculation"`
}

func toTrackerRecord(t *models.ProfitTracker) trackerRecord {
	return trackerRecord{
		AccountID:              t.AccountID,
		FirstDepositDate:       t.FirstDepositDate,
		FirstInvestmentDate:    t.FirstInvestmentDate,
		TotalProfitEarned:      money(t.TotalProfitEarned),
		ProfitCalculationCount: t.ProfitCalculationCount,
		LastProfitCalculation:  t.LastProfitCalculation,
	}
}

func (r trackerRecord) model() (*models.ProfitTracker, error) {
	total, err := parseMoney("total_profit_earned", r.TotalProfitEarned)
	if err != nil {
		return nil, err
	}
	return &models.ProfitTracker{
		AccountID:              r.AccountID,
		FirstDepositDate:       r.FirstDepositDate,
		FirstInvestmentDate:    r.FirstInvestmentDate,
		TotalProfitEarned:      total,
		ProfitCalculationCount: r.ProfitCalculationCount,
		LastProfitCalculation:  r.LastProfitCalculation,
	}, nil
}
