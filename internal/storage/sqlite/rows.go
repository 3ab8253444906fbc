package sqlite

import (
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

const accountColumns = `id, username, email, full_name, active_balance, account_balance,
  total_earnings, referral_earnings, referral_code, referred_by, version, created_at, updated_at`

func scanAccount(row scanner) (*models.Account, error) {
	var a models.Account
	var created, updated string
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.FullName, &a.ActiveBalance, &a.AccountBalance,
		&a.TotalEarnings, &a.ReferralEarnings, &a.ReferralCode, &a.ReferredBy, &a.Version, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &a, nil
}

const planColumns = `id, name, min_amount, max_amount, daily_percentage, duration_days,
  description, is_active, created_at, updated_at`

func scanPlan(row scanner) (*models.Plan, error) {
	var p models.Plan
	var max decimal.NullDecimal
	var active int
	var created, updated string
	if err := row.Scan(&p.ID, &p.Name, &p.MinAmount, &max, &p.DailyPercentage, &p.DurationDays,
		&p.Description, &active, &created, &updated); err != nil {
		return nil, err
	}
	if max.Valid {
		p.MaxAmount = &max.Decimal
	}
	p.IsActive = active != 0
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

const investmentColumns = `id, account_id, plan_id, plan_name, amount, daily_percentage, duration_days,
  daily_profit, total_profit, profit_paid, capital_returned, status, start_date, end_date,
  last_profit_date, completed_at, cancelled_at`

func scanInvestment(row scanner) (*models.Investment, error) {
	var i models.Investment
	var capital int
	var start, end, last string
	var completed, cancelled sql.NullString
	if err := row.Scan(&i.ID, &i.AccountID, &i.PlanID, &i.PlanName, &i.Amount, &i.DailyPercentage, &i.DurationDays,
		&i.DailyProfit, &i.TotalProfit, &i.ProfitPaid, &capital, &i.Status, &start, &end,
		&last, &completed, &cancelled); err != nil {
		return nil, err
	}
	i.CapitalReturned = capital != 0
	var err error
	if i.StartDate, err = parseTime(start); err != nil {
		return nil, err
	}
	if i.EndDate, err = parseTime(end); err != nil {
		return nil, err
	}
	if i.LastProfitDate, err = parseTime(last); err != nil {
		return nil, err
	}
	if i.CompletedAt, err = parseTimePtr(completed); err != nil {
		return nil, err
	}
	if i.CancelledAt, err = parseTimePtr(cancelled); err != nil {
		return nil, err
	}
	return &i, nil
}

func investmentArgs(i *models.Investment) []any {
	return []any{i.ID, i.AccountID, i.PlanID, i.PlanName, i.Amount, i.DailyPercentage, i.DurationDays,
		i.DailyProfit, i.TotalProfit, i.ProfitPaid, boolInt(i.CapitalReturned), string(i.Status),
		formatTime(i.StartDate), formatTime(i.EndDate), formatTime(i.LastProfitDate),
		formatTimePtr(i.CompletedAt), formatTimePtr(i.CancelledAt)}
}

const depositColumns = `id, account_id, amount, crypto_type, transaction_hash, wallet_address,
  status, created_at, approved_at, cancelled_at`

func scanDeposit(row scanner) (*models.Deposit, error) {
	var d models.Deposit
	var created string
	var approved, cancelled sql.NullString
	if err := row.Scan(&d.ID, &d.AccountID, &d.Amount, &d.CryptoType, &d.TransactionHash, &d.WalletAddress,
		&d.Status, &created, &approved, &cancelled); err != nil {
		return nil, err
	}
	var err error
	if d.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if d.ApprovedAt, err = parseTimePtr(approved); err != nil {
		return nil, err
	}
	if d.CancelledAt, err = parseTimePtr(cancelled); err != nil {
		return nil, err
	}
	return &d, nil
}

const withdrawalColumns = `id, account_id, amount, crypto_type, crypto_address,
  status, created_at, approved_at, cancelled_at`

func scanWithdrawal(row scanner) (*models.Withdrawal, error) {
	var w models.Withdrawal
	var created string
	var approved, cancelled sql.NullString
	if err := row.Scan(&w.ID, &w.AccountID, &w.Amount, &w.CryptoType, &w.CryptoAddress,
		&w.Status, &created, &approved, &cancelled); err != nil {
		return nil, err
	}
	var err error
	if w.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if w.ApprovedAt, err = parseTimePtr(approved); err != nil {
		return nil, err
	}
	if w.CancelledAt, err = parseTimePtr(cancelled); err != nil {
		return nil, err
	}
	return &w, nil
}

const transactionColumns = `id, account_id, type, amount, description, status, reference, created_at`

func scanTransaction(row scanner) (*models.Transaction, error) {
	var t models.Transaction
	var created string
	if err := row.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.Description, &t.Status, &t.Reference, &created); err != nil {
		return nil, err
	}
	var err error
	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &t, nil
}

const trackerColumns = `account_id, first_deposit_date, first_investment_date, total_profit_earned,
  profit_calculation_count, last_profit_calculation`

func scanTracker(row scanner) (*models.ProfitTracker, error) {
	var t models.ProfitTracker
	var firstDeposit, firstInvestment, last sql.NullString
	if err := row.Scan(&t.AccountID, &firstDeposit, &firstInvestment, &t.TotalProfitEarned,
		&t.ProfitCalculationCount, &last); err != nil {
		return nil, err
	}
	var err error
	if t.FirstDepositDate, err = parseTimePtr(firstDeposit); err != nil {
		return nil, err
	}
	if t.FirstInvestmentDate, err = parseTimePtr(firstInvestment); err != nil {
		return nil, err
	}
	if t.LastProfitCalculation, err = parseTimePtr(last); err != nil {
		return nil, err
	}
	return &t, nil
}
