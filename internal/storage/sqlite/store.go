// Package sqlite implements the ledger and plan stores on SQLite through
// github.com/mattn/go-sqlite3. Writers take the database lock at BEGIN
// (_txlock=immediate), so an account transaction never reads a balance that
// another writer is about to change.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/interfaces"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
	"github.com/Giftedmindbenjamin/surbminer/internal/storage/staging"
)

// Store implements interfaces.LedgerStore and interfaces.PlanStore.
type Store struct {
	db     *sql.DB
	logger *common.Logger
	path   string
}

var (
	_ interfaces.LedgerStore = (*Store)(nil)
	_ interfaces.PlanStore   = (*Store)(nil)
)

// NewStore opens (creating if needed) the database at path and applies the schema.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory %s: %w", dir, err)
		}
	}

	dsn := path + "?_busy_timeout=5000&_journal_mode=WAL&_fk=1&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite at %s: %w", path, err)
	}

	if err := applyMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Msg("SQLite ledger store opened")
	return &Store{db: db, logger: logger, path: path}, nil
}

// mapConstraintError turns unique-constraint violations into validation errors.
func mapConstraintError(err error) error {
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) && sqErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		field := "id"
		msg := sqErr.Error()
		switch {
		case strings.Contains(msg, "username"):
			field = "username"
		case strings.Contains(msg, "referral_code"):
			field = "referral_code"
		}
		return &models.ValidationError{Field: field, Message: field + " already in use"}
	}
	return err
}

// --- Accounts ---

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = now
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID, account.Username, account.Email, account.FullName,
		account.ActiveBalance, account.AccountBalance, account.TotalEarnings, account.ReferralEarnings,
		account.ReferralCode, account.ReferredBy, account.Version,
		formatTime(account.CreatedAt), formatTime(account.UpdatedAt))
	if err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func getAccount(ctx context.Context, q querier, id string) (*models.Account, error) {
	a, err := scanAccount(q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFound("account", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return getAccount(ctx, s.db, id)
}

func (s *Store) FindAccountByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE referral_code = ?`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFound("referral code", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by referral code: %w", err)
	}
	return a, nil
}

func (s *Store) ListAccountIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func listAccounts(ctx context.Context, q querier, where string, args ...any) ([]*models.Account, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var out []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ListAccounts(ctx context.Context, limit int) ([]*models.Account, error) {
	if limit > 0 {
		return listAccounts(ctx, s.db, `ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	}
	return listAccounts(ctx, s.db, `ORDER BY created_at DESC, id DESC`)
}

func (s *Store) ListReferrals(ctx context.Context, referrerID string) ([]*models.Account, error) {
	if referrerID == "" {
		return nil, nil
	}
	return listAccounts(ctx, s.db, `WHERE referred_by = ? ORDER BY created_at DESC, id DESC`, referrerID)
}

// Update runs fn inside one IMMEDIATE transaction.
func (s *Store) Update(ctx context.Context, accountID string, fn func(tx interfaces.LedgerTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	account, err := getAccount(ctx, tx, accountID)
	if err != nil {
		return err
	}

	staged := staging.New(&source{ctx: ctx, q: tx}, account)
	if err := fn(staged); err != nil {
		return err
	}

	changes := staged.Changes()
	if changes.Empty() {
		return nil
	}
	if err := apply(ctx, tx, changes); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit account %s: %w", accountID, err)
	}
	return nil
}

func apply(ctx context.Context, q querier, c staging.Changes) error {
	a := c.Account
	a.Version++
	a.UpdatedAt = time.Now()
	if _, err := q.ExecContext(ctx, `UPDATE accounts SET email = ?, full_name = ?,
		active_balance = ?, account_balance = ?, total_earnings = ?, referral_earnings = ?,
		referred_by = ?, version = ?, updated_at = ? WHERE id = ?`,
		a.Email, a.FullName, a.ActiveBalance, a.AccountBalance, a.TotalEarnings, a.ReferralEarnings,
		a.ReferredBy, a.Version, formatTime(a.UpdatedAt), a.ID); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	for _, inv := range c.Investments {
		if _, err := q.ExecContext(ctx, `INSERT INTO investments (`+investmentColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
			  profit_paid = excluded.profit_paid, capital_returned = excluded.capital_returned,
			  status = excluded.status, last_profit_date = excluded.last_profit_date,
			  completed_at = excluded.completed_at, cancelled_at = excluded.cancelled_at`,
			investmentArgs(inv)...); err != nil {
			return fmt.Errorf("failed to save investment %s: %w", inv.ID, err)
		}
	}

	for _, d := range c.Deposits {
		if _, err := q.ExecContext(ctx, `INSERT INTO deposits (`+depositColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET status = excluded.status,
			  approved_at = excluded.approved_at, cancelled_at = excluded.cancelled_at`,
			d.ID, d.AccountID, d.Amount, d.CryptoType, d.TransactionHash, d.WalletAddress,
			string(d.Status), formatTime(d.CreatedAt), formatTimePtr(d.ApprovedAt), formatTimePtr(d.CancelledAt)); err != nil {
			return fmt.Errorf("failed to save deposit %s: %w", d.ID, err)
		}
	}

	for _, w := range c.Withdrawals {
		if _, err := q.ExecContext(ctx, `INSERT INTO withdrawals (`+withdrawalColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET status = excluded.status,
			  approved_at = excluded.approved_at, cancelled_at = excluded.cancelled_at`,
			w.ID, w.AccountID, w.Amount, w.CryptoType, w.CryptoAddress,
			string(w.Status), formatTime(w.CreatedAt), formatTimePtr(w.ApprovedAt), formatTimePtr(w.CancelledAt)); err != nil {
			return fmt.Errorf("failed to save withdrawal %s: %w", w.ID, err)
		}
	}

	for _, t := range c.Transactions {
		if _, err := q.ExecContext(ctx, `INSERT INTO transactions (`+transactionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.AccountID, string(t.Type), t.Amount, t.Description, string(t.Status), t.Reference,
			formatTime(t.CreatedAt)); err != nil {
			return fmt.Errorf("failed to add transaction %s: %w", t.ID, err)
		}
	}

	if t := c.Tracker; t != nil {
		if _, err := q.ExecContext(ctx, `INSERT INTO profit_trackers (`+trackerColumns+`)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(account_id) DO UPDATE SET
			  first_deposit_date = excluded.first_deposit_date,
			  first_investment_date = excluded.first_investment_date,
			  total_profit_earned = excluded.total_profit_earned,
			  profit_calculation_count = excluded.profit_calculation_count,
			  last_profit_calculation = excluded.last_profit_calculation`,
			t.AccountID, formatTimePtr(t.FirstDepositDate), formatTimePtr(t.FirstInvestmentDate),
			t.TotalProfitEarned, t.ProfitCalculationCount, formatTimePtr(t.LastProfitCalculation)); err != nil {
			return fmt.Errorf("failed to save profit tracker: %w", err)
		}
	}
	return nil
}

// source reads committed state through the open transaction.
type source struct {
	ctx context.Context
	q   querier
}

func (r *source) Investment(id string) (*models.Investment, error) {
	return getInvestment(r.ctx, r.q, id)
}

func (r *source) Investments(accountID string) ([]*models.Investment, error) {
	return listInvestments(r.ctx, r.q, `WHERE account_id = ? ORDER BY start_date DESC, id DESC`, accountID)
}

func (r *source) Deposit(id string) (*models.Deposit, error) {
	return getDeposit(r.ctx, r.q, id)
}

func (r *source) Withdrawal(id string) (*models.Withdrawal, error) {
	return getWithdrawal(r.ctx, r.q, id)
}

func (r *source) Tracker(accountID string) (*models.ProfitTracker, error) {
	t, err := getTracker(r.ctx, r.q, accountID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return t, err
}

// --- Investments ---

func getInvestment(ctx context.Context, q querier, id string) (*models.Investment, error) {
	inv, err := scanInvestment(q.QueryRowContext(ctx, `SELECT `+investmentColumns+` FROM investments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFound("investment", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	return inv, nil
}

func listInvestments(ctx context.Context, q querier, where string, args ...any) ([]*models.Investment, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+investmentColumns+` FROM investments `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	defer rows.Close()

	var out []*models.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *Store) GetInvestment(ctx context.Context, id string) (*models.Investment, error) {
	return getInvestment(ctx, s.db, id)
}

func (s *Store) ListInvestments(ctx context.Context, accountID string, status models.InvestmentStatus) ([]*models.Investment, error) {
	if status == "" {
		return listInvestments(ctx, s.db, `WHERE account_id = ? ORDER BY start_date DESC, id DESC`, accountID)
	}
	return listInvestments(ctx, s.db, `WHERE account_id = ? AND status = ? ORDER BY start_date DESC, id DESC`, accountID, string(status))
}

func (s *Store) ListExpiredInvestments(ctx context.Context, before time.Time) ([]*models.Investment, error) {
	return listInvestments(ctx, s.db, `WHERE status = ? AND end_date < ? ORDER BY end_date`,
		string(models.InvestmentActive), formatTime(before))
}

func (s *Store) ListInvestmentsByStatus(ctx context.Context, status models.InvestmentStatus) ([]*models.Investment, error) {
	return listInvestments(ctx, s.db, `WHERE status = ? ORDER BY start_date DESC, id DESC`, string(status))
}

// --- Deposits and withdrawals ---

// requestWhere renders f as a WHERE clause plus ORDER BY and LIMIT for the
// deposits and withdrawals tables.
func requestWhere(f models.RequestFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.CryptoType != "" {
		conds = append(conds, "crypto_type = ?")
		args = append(args, f.CryptoType)
	}
	if !f.From.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, formatTime(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "created_at < ?")
		args = append(args, formatTime(f.To))
	}

	var clause string
	if len(conds) > 0 {
		clause = "WHERE " + strings.Join(conds, " AND ") + " "
	}
	clause += "ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		clause += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return clause, args
}

func listDeposits(ctx context.Context, q querier, where string, args ...any) ([]*models.Deposit, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+depositColumns+` FROM deposits `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer rows.Close()

	var out []*models.Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func listWithdrawals(ctx context.Context, q querier, where string, args ...any) ([]*models.Withdrawal, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	defer rows.Close()

	var out []*models.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func getDeposit(ctx context.Context, q querier, id string) (*models.Deposit, error) {
	d, err := scanDeposit(q.QueryRowContext(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFound("deposit", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	return d, nil
}

func (s *Store) GetDeposit(ctx context.Context, id string) (*models.Deposit, error) {
	return getDeposit(ctx, s.db, id)
}

func (s *Store) ListDeposits(ctx context.Context, accountID string) ([]*models.Deposit, error) {
	return listDeposits(ctx, s.db, `WHERE account_id = ? ORDER BY created_at DESC, id DESC`, accountID)
}

func (s *Store) FindDeposits(ctx context.Context, f models.RequestFilter) ([]*models.Deposit, error) {
	where, args := requestWhere(f)
	return listDeposits(ctx, s.db, where, args...)
}

func getWithdrawal(ctx context.Context, q querier, id string) (*models.Withdrawal, error) {
	w, err := scanWithdrawal(q.QueryRowContext(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFound("withdrawal", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return w, nil
}

func (s *Store) GetWithdrawal(ctx context.Context, id string) (*models.Withdrawal, error) {
	return getWithdrawal(ctx, s.db, id)
}

func (s *Store) ListWithdrawals(ctx context.Context, accountID string) ([]*models.Withdrawal, error) {
	return listWithdrawals(ctx, s.db, `WHERE account_id = ? ORDER BY created_at DESC, id DESC`, accountID)
}

func (s *Store) FindWithdrawals(ctx context.Context, f models.RequestFilter) ([]*models.Withdrawal, error) {
	where, args := requestWhere(f)
	return listWithdrawals(ctx, s.db, where, args...)
}

// --- Transactions and trackers ---

func (s *Store) ListTransactions(ctx context.Context, accountID string, limit int) ([]*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE account_id = ? ORDER BY seq DESC`
	args := []any{accountID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []*models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func getTracker(ctx context.Context, q querier, accountID string) (*models.ProfitTracker, error) {
	t, err := scanTracker(q.QueryRowContext(ctx, `SELECT `+trackerColumns+` FROM profit_trackers WHERE account_id = ?`, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFound("profit tracker", accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profit tracker: %w", err)
	}
	return t, nil
}

func (s *Store) GetTracker(ctx context.Context, accountID string) (*models.ProfitTracker, error) {
	return getTracker(ctx, s.db, accountID)
}

// --- Plans ---

func (s *Store) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	p, err := scanPlan(s.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFound("plan", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return p, nil
}

func (s *Store) SavePlan(ctx context.Context, plan *models.Plan) error {
	now := time.Now()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	var max decimal.NullDecimal
	if plan.MaxAmount != nil {
		max = decimal.NullDecimal{Decimal: *plan.MaxAmount, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO plans (`+planColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, min_amount = excluded.min_amount,
		  max_amount = excluded.max_amount, daily_percentage = excluded.daily_percentage,
		  duration_days = excluded.duration_days, description = excluded.description,
		  is_active = excluded.is_active, updated_at = excluded.updated_at`,
		plan.ID, plan.Name, plan.MinAmount, max, plan.DailyPercentage, plan.DurationDays,
		plan.Description, boolInt(plan.IsActive), formatTime(plan.CreatedAt), formatTime(plan.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save plan %s: %w", plan.ID, err)
	}
	return nil
}

func (s *Store) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+planColumns+` FROM plans`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var out []*models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// min_amount is TEXT; order numerically here.
	sortPlans(out)
	return out, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
