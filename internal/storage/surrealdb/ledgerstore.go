package surrealdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/interfaces"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
	"github.com/Giftedmindbenjamin/surbminer/internal/storage/staging"
)

const (
	tableAccount    = "account"
	tablePlan       = "plan"
	tableInvestment = "investment"
	tableDeposit    = "deposit"
	tableWithdrawal = "withdrawal"
	tableEntry      = "ledger_entry"
	tableTracker    = "profit_tracker"

	// conflictMarker is thrown by the commit script when the account version moved.
	conflictMarker = "surbminer: concurrent account modification"

	maxCommitAttempts = 3
)

// LedgerStore implements interfaces.LedgerStore. Commits are optimistic:
// the account version read at the start must still be current when the
// commit script runs, otherwise the whole script is rolled back and the
// update is retried.
type LedgerStore struct {
	db     *surrealdb.DB
	logger *common.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

var _ interfaces.LedgerStore = (*LedgerStore)(nil)

func NewLedgerStore(db *surrealdb.DB, logger *common.Logger) *LedgerStore {
	return &LedgerStore{
		db:     db,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

func rid(table, id string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(table, id)
}

func queryRecords[T any](ctx context.Context, db *surrealdb.DB, sql string, vars map[string]any) ([]T, error) {
	results, err := surrealdb.Query[[]T](ctx, db, sql, vars)
	if err != nil {
		return nil, err
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist")
}

func (s *LedgerStore) accountLock(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// --- Accounts ---

func (s *LedgerStore) CreateAccount(ctx context.Context, account *models.Account) error {
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = now
	}
	rec := toAccountRecord(account)

	clashes, err := queryRecords[accountRecord](ctx, s.db,
		"SELECT * OMIT id FROM account WHERE account_id = $id OR username_key = $username OR referral_code = $code",
		map[string]any{"id": rec.AccountID, "username": rec.UsernameKey, "code": rec.ReferralCode})
	if err != nil {
		return fmt.Errorf("failed to check account uniqueness: %w", err)
	}
	for _, c := range clashes {
		switch {
		case c.AccountID == rec.AccountID:
			return &models.ValidationError{Field: "id", Message: "id already in use"}
		case c.UsernameKey == rec.UsernameKey:
			return &models.ValidationError{Field: "username", Message: "username already in use"}
		default:
			return &models.ValidationError{Field: "referral_code", Message: "referral_code already in use"}
		}
	}

	sql := "CREATE $rid CONTENT $account"
	vars := map[string]any{"rid": rid(tableAccount, account.ID), "account": rec}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		if strings.Contains(err.Error(), "already") {
			return &models.ValidationError{Field: "username", Message: "username already in use"}
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (s *LedgerStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	recs, err := queryRecords[accountRecord](ctx, s.db, "SELECT * OMIT id FROM $rid",
		map[string]any{"rid": rid(tableAccount, id)})
	if err != nil && !isNotFoundError(err) {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if len(recs) == 0 {
		return nil, models.NewNotFound("account", id)
	}
	return recs[0].model()
}

func (s *LedgerStore) FindAccountByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	recs, err := queryRecords[accountRecord](ctx, s.db,
		"SELECT * OMIT id FROM account WHERE referral_code = $code LIMIT 1",
		map[string]any{"code": code})
	if err != nil {
		return nil, fmt.Errorf("failed to find account by referral code: %w", err)
	}
	if len(recs) == 0 {
		return nil, models.NewNotFound("referral code", code)
	}
	return recs[0].model()
}

func (s *LedgerStore) ListAccountIDs(ctx context.Context) ([]string, error) {
	ids, err := queryRecords[string](ctx, s.db, "SELECT VALUE account_id FROM account ORDER BY account_id", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return ids, nil
}

func accountModels(recs []accountRecord) ([]*models.Account, error) {
	out := make([]*models.Account, 0, len(recs))
	for _, r := range recs {
		a, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *LedgerStore) ListAccounts(ctx context.Context, limit int) ([]*models.Account, error) {
	sql := "SELECT * OMIT id FROM account ORDER BY created_at DESC"
	if limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", limit)
	}
	recs, err := queryRecords[accountRecord](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accountModels(recs)
}

func (s *LedgerStore) ListReferrals(ctx context.Context, referrerID string) ([]*models.Account, error) {
	if referrerID == "" {
		return nil, nil
	}
	recs, err := queryRecords[accountRecord](ctx, s.db,
		"SELECT * OMIT id FROM account WHERE referred_by = $referrer ORDER BY created_at DESC",
		map[string]any{"referrer": referrerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	return accountModels(recs)
}

// Update runs fn against a staged view of the account and commits the result
// in one SurrealDB transaction, retrying when another writer got there first.
func (s *LedgerStore) Update(ctx context.Context, accountID string, fn func(tx interfaces.LedgerTx) error) error {
	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		err := s.updateOnce(ctx, accountID, fn)
		if !errors.Is(err, models.ErrConflict) {
			return err
		}
		lastErr = err
		s.logger.Warn().Str("account_id", accountID).Int("attempt", attempt).Msg("Account commit conflict, retrying")
	}
	return fmt.Errorf("failed to update account %s after %d attempts: %w", accountID, maxCommitAttempts, lastErr)
}

func (s *LedgerStore) updateOnce(ctx context.Context, accountID string, fn func(tx interfaces.LedgerTx) error) error {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	expected := account.Version

	tx := staging.New(&source{ctx: ctx, s: s}, account)
	if err := fn(tx); err != nil {
		return err
	}
	changes := tx.Changes()
	if changes.Empty() {
		return nil
	}
	return s.commit(ctx, expected, changes)
}

func (s *LedgerStore) commit(ctx context.Context, expected int64, c staging.Changes) error {
	account := c.Account
	account.Version = expected + 1
	account.UpdatedAt = time.Now()

	var b strings.Builder
	vars := map[string]any{
		"account_rid": rid(tableAccount, account.ID),
		"account":     toAccountRecord(account),
		"expected":    expected,
	}

	b.WriteString("BEGIN TRANSACTION;\n")
	b.WriteString("LET $current = (SELECT VALUE version FROM ONLY $account_rid);\n")
	fmt.Fprintf(&b, "IF $current != $expected { THROW %q };\n", conflictMarker)
	b.WriteString("UPSERT $account_rid CONTENT $account;\n")

	upsert := func(key string, id any, content any) {
		vars[key+"_rid"] = id
		vars[key] = content
		fmt.Fprintf(&b, "UPSERT $%s_rid CONTENT $%s;\n", key, key)
	}
	for i, inv := range c.Investments {
		upsert(fmt.Sprintf("inv_%d", i), rid(tableInvestment, inv.ID), toInvestmentRecord(inv))
	}
	for i, d := range c.Deposits {
		upsert(fmt.Sprintf("dep_%d", i), rid(tableDeposit, d.ID), toDepositRecord(d))
	}
	for i, w := range c.Withdrawals {
		upsert(fmt.Sprintf("wd_%d", i), rid(tableWithdrawal, w.ID), toWithdrawalRecord(w))
	}
	if c.Tracker != nil {
		upsert("tracker", rid(tableTracker, c.Tracker.AccountID), toTrackerRecord(c.Tracker))
	}
	base := time.Now().UnixNano()
	for i, t := range c.Transactions {
		key := fmt.Sprintf("entry_%d", i)
		vars[key+"_rid"] = rid(tableEntry, t.ID)
		vars[key] = toEntryRecord(t, base+int64(i))
		fmt.Fprintf(&b, "CREATE $%s_rid CONTENT $%s;\n", key, key)
	}
	b.WriteString("COMMIT TRANSACTION;")

	results, err := surrealdb.Query[any](ctx, s.db, b.String(), vars)
	if err != nil {
		if strings.Contains(err.Error(), conflictMarker) {
			return fmt.Errorf("account %s: %w", account.ID, models.ErrConflict)
		}
		return fmt.Errorf("failed to commit account %s: %w", account.ID, err)
	}
	if results != nil {
		for _, r := range *results {
			if r.Status == "OK" {
				continue
			}
			msg := fmt.Sprint(r.Result)
			if strings.Contains(msg, conflictMarker) {
				return fmt.Errorf("account %s: %w", account.ID, models.ErrConflict)
			}
			return fmt.Errorf("failed to commit account %s: %s", account.ID, msg)
		}
	}
	return nil
}

// source reads committed state for staging.Tx.
type source struct {
	ctx context.Context
	s   *LedgerStore
}

func (r *source) Investment(id string) (*models.Investment, error) {
	return r.s.GetInvestment(r.ctx, id)
}

func (r *source) Investments(accountID string) ([]*models.Investment, error) {
	return r.s.ListInvestments(r.ctx, accountID, "")
}

func (r *source) Deposit(id string) (*models.Deposit, error) {
	return r.s.GetDeposit(r.ctx, id)
}

func (r *source) Withdrawal(id string) (*models.Withdrawal, error) {
	return r.s.GetWithdrawal(r.ctx, id)
}

func (r *source) Tracker(accountID string) (*models.ProfitTracker, error) {
	t, err := r.s.GetTracker(r.ctx, accountID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return t, err
}

// --- Investments ---

func investmentModels(recs []investmentRecord) ([]*models.Investment, error) {
	out := make([]*models.Investment, 0, len(recs))
	for _, r := range recs {
		inv, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

func (s *LedgerStore) GetInvestment(ctx context.Context, id string) (*models.Investment, error) {
	recs, err := queryRecords[investmentRecord](ctx, s.db, "SELECT * OMIT id FROM $rid",
		map[string]any{"rid": rid(tableInvestment, id)})
	if err != nil && !isNotFoundError(err) {
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	if len(recs) == 0 {
		return nil, models.NewNotFound("investment", id)
	}
	return recs[0].model()
}

func (s *LedgerStore) ListInvestments(ctx context.Context, accountID string, status models.InvestmentStatus) ([]*models.Investment, error) {
	sql := "SELECT * OMIT id FROM investment WHERE account_id = $account"
	vars := map[string]any{"account": accountID}
	if status != "" {
		sql += " AND status = $status"
		vars["status"] = string(status)
	}
	sql += " ORDER BY start_date DESC"

	recs, err := queryRecords[investmentRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	out, err := investmentModels(recs)
	if err != nil {
		return nil, err
	}
	staging.SortInvestments(out)
	return out, nil
}

func (s *LedgerStore) ListExpiredInvestments(ctx context.Context, before time.Time) ([]*models.Investment, error) {
	recs, err := queryRecords[investmentRecord](ctx, s.db,
		"SELECT * OMIT id FROM investment WHERE status = $active AND end_date < $before ORDER BY end_date ASC",
		map[string]any{"active": string(models.InvestmentActive), "before": before})
	if err != nil {
		return nil, fmt.Errorf("failed to list expired investments: %w", err)
	}
	return investmentModels(recs)
}

func (s *LedgerStore) ListInvestmentsByStatus(ctx context.Context, status models.InvestmentStatus) ([]*models.Investment, error) {
	recs, err := queryRecords[investmentRecord](ctx, s.db,
		"SELECT * OMIT id FROM investment WHERE status = $status ORDER BY start_date DESC",
		map[string]any{"status": string(status)})
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	out, err := investmentModels(recs)
	if err != nil {
		return nil, err
	}
	staging.SortInvestments(out)
	return out, nil
}

// --- Deposits and withdrawals ---

// requestQuery renders f as a SurrealQL SELECT over table, newest first.
func requestQuery(table string, f models.RequestFilter) (string, map[string]any) {
	var conds []string
	vars := map[string]any{}
	if f.Status != "" {
		conds = append(conds, "status = $status")
		vars["status"] = string(f.Status)
	}
	if f.CryptoType != "" {
		conds = append(conds, "crypto_type = $crypto")
		vars["crypto"] = f.CryptoType
	}
	if !f.From.IsZero() {
		conds = append(conds, "created_at >= $from")
		vars["from"] = f.From
	}
	if !f.To.IsZero() {
		conds = append(conds, "created_at < $to")
		vars["to"] = f.To
	}

	sql := "SELECT * OMIT id FROM " + table
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	return sql, vars
}

func depositModels(recs []depositRecord) ([]*models.Deposit, error) {
	out := make([]*models.Deposit, 0, len(recs))
	for _, r := range recs {
		d, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func withdrawalModels(recs []withdrawalRecord) ([]*models.Withdrawal, error) {
	out := make([]*models.Withdrawal, 0, len(recs))
	for _, r := range recs {
		w, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func (s *LedgerStore) GetDeposit(ctx context.Context, id string) (*models.Deposit, error) {
	recs, err := queryRecords[depositRecord](ctx, s.db, "SELECT * OMIT id FROM $rid",
		map[string]any{"rid": rid(tableDeposit, id)})
	if err != nil && !isNotFoundError(err) {
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	if len(recs) == 0 {
		return nil, models.NewNotFound("deposit", id)
	}
	return recs[0].model()
}

func (s *LedgerStore) ListDeposits(ctx context.Context, accountID string) ([]*models.Deposit, error) {
	recs, err := queryRecords[depositRecord](ctx, s.db,
		"SELECT * OMIT id FROM deposit WHERE account_id = $account ORDER BY created_at DESC",
		map[string]any{"account": accountID})
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	return depositModels(recs)
}

func (s *LedgerStore) FindDeposits(ctx context.Context, f models.RequestFilter) ([]*models.Deposit, error) {
	sql, vars := requestQuery(tableDeposit, f)
	recs, err := queryRecords[depositRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to find deposits: %w", err)
	}
	return depositModels(recs)
}

func (s *LedgerStore) GetWithdrawal(ctx context.Context, id string) (*models.Withdrawal, error) {
	recs, err := queryRecords[withdrawalRecord](ctx, s.db, "SELECT * OMIT id FROM $rid",
		map[string]any{"rid": rid(tableWithdrawal, id)})
	if err != nil && !isNotFoundError(err) {
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	if len(recs) == 0 {
		return nil, models.NewNotFound("withdrawal", id)
	}
	return recs[0].model()
}

func (s *LedgerStore) ListWithdrawals(ctx context.Context, accountID string) ([]*models.Withdrawal, error) {
	recs, err := queryRecords[withdrawalRecord](ctx, s.db,
		"SELECT * OMIT id FROM withdrawal WHERE account_id = $account ORDER BY created_at DESC",
		map[string]any{"account": accountID})
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return withdrawalModels(recs)
}

func (s *LedgerStore) FindWithdrawals(ctx context.Context, f models.RequestFilter) ([]*models.Withdrawal, error) {
	sql, vars := requestQuery(tableWithdrawal, f)
	recs, err := queryRecords[withdrawalRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to find withdrawals: %w", err)
	}
	return withdrawalModels(recs)
}

// --- Transactions and trackers ---

func (s *LedgerStore) ListTransactions(ctx context.Context, accountID string, limit int) ([]*models.Transaction, error) {
	sql := "SELECT * OMIT id FROM ledger_entry WHERE account_id = $account ORDER BY seq DESC"
	if limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", limit)
	}
	recs, err := queryRecords[entryRecord](ctx, s.db, sql, map[string]any{"account": accountID})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Seq > recs[j].Seq })

	out := make([]*models.Transaction, 0, len(recs))
	for _, r := range recs {
		t, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *LedgerStore) GetTracker(ctx context.Context, accountID string) (*models.ProfitTracker, error) {
	recs, err := queryRecords[trackerRecord](ctx, s.db, "SELECT * OMIT id FROM $rid",
		map[string]any{"rid": rid(tableTracker, accountID)})
	if err != nil && !isNotFoundError(err) {
		return nil, fmt.Errorf("failed to get profit tracker: %w", err)
	}
	if len(recs) == 0 {
		return nil, models.NewNotFound("profit tracker", accountID)
	}
	return recs[0].model()
}

func (s *LedgerStore) Close() error {
	return nil
}
