package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
  id                TEXT PRIMARY KEY,
  username          TEXT NOT NULL UNIQUE COLLATE NOCASE,
  email             TEXT NOT NULL DEFAULT '',
  full_name         TEXT NOT NULL DEFAULT '',
  active_balance    TEXT NOT NULL DEFAULT '0',
  account_balance   TEXT NOT NULL DEFAULT '0',
  total_earnings    TEXT NOT NULL DEFAULT '0',
  referral_earnings TEXT NOT NULL DEFAULT '0',
  referral_code     TEXT NOT NULL UNIQUE,
  referred_by       TEXT NOT NULL DEFAULT '',
  version           INTEGER NOT NULL DEFAULT 0,
  created_at        TEXT NOT NULL,
  updated_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_accounts_referred_by ON accounts(referred_by);
CREATE INDEX IF NOT EXISTS idx_accounts_created ON accounts(created_at);

CREATE TABLE IF NOT EXISTS plans (
  id               TEXT PRIMARY KEY,
  name             TEXT NOT NULL,
  min_amount       TEXT NOT NULL,
  max_amount       TEXT,
  daily_percentage TEXT NOT NULL,
  duration_days    INTEGER NOT NULL,
  description      TEXT NOT NULL DEFAULT '',
  is_active        INTEGER NOT NULL DEFAULT 1,
  created_at       TEXT NOT NULL,
  updated_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS investments (
  id               TEXT PRIMARY KEY,
  account_id       TEXT NOT NULL REFERENCES accounts(id),
  plan_id          TEXT NOT NULL,
  plan_name        TEXT NOT NULL,
  amount           TEXT NOT NULL,
  daily_percentage TEXT NOT NULL,
  duration_days    INTEGER NOT NULL,
  daily_profit     TEXT NOT NULL,
  total_profit     TEXT NOT NULL,
  profit_paid      TEXT NOT NULL,
  capital_returned INTEGER NOT NULL DEFAULT 0,
  status           TEXT NOT NULL,
  start_date       TEXT NOT NULL,
  end_date         TEXT NOT NULL,
  last_profit_date TEXT NOT NULL,
  completed_at     TEXT,
  cancelled_at     TEXT
);
CREATE INDEX IF NOT EXISTS idx_investments_account ON investments(account_id);
CREATE INDEX IF NOT EXISTS idx_investments_status_end ON investments(status, end_date);

CREATE TABLE IF NOT EXISTS deposits (
  id               TEXT PRIMARY KEY,
  account_id       TEXT NOT NULL REFERENCES accounts(id),
  amount           TEXT NOT NULL,
  crypto_type      TEXT NOT NULL,
  transaction_hash TEXT NOT NULL DEFAULT '',
  wallet_address   TEXT NOT NULL DEFAULT '',
  status           TEXT NOT NULL,
  created_at       TEXT NOT NULL,
  approved_at      TEXT,
  cancelled_at     TEXT
);
CREATE INDEX IF NOT EXISTS idx_deposits_account ON deposits(account_id);
CREATE INDEX IF NOT EXISTS idx_deposits_status ON deposits(status, created_at);

CREATE TABLE IF NOT EXISTS withdrawals (
  id             TEXT PRIMARY KEY,
  account_id     TEXT NOT NULL REFERENCES accounts(id),
  amount         TEXT NOT NULL,
  crypto_type    TEXT NOT NULL,
  crypto_address TEXT NOT NULL,
  status         TEXT NOT NULL,
  created_at     TEXT NOT NULL,
  approved_at    TEXT,
  cancelled_at   TEXT
);
CREATE INDEX IF NOT EXISTS idx_withdrawals_account ON withdrawals(account_id);
CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals(status, created_at);

CREATE TABLE IF NOT EXISTS transactions (
  seq         INTEGER PRIMARY KEY AUTOINCREMENT,
  id          TEXT NOT NULL UNIQUE,
  account_id  TEXT NOT NULL REFERENCES accounts(id),
  type        TEXT NOT NULL,
  amount      TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  status      TEXT NOT NULL,
  reference   TEXT NOT NULL DEFAULT '',
  created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id, seq);

CREATE TABLE IF NOT EXISTS profit_trackers (
  account_id               TEXT PRIMARY KEY REFERENCES accounts(id),
  first_deposit_date       TEXT,
  first_investment_date    TEXT,
  total_profit_earned      TEXT NOT NULL DEFAULT '0',
  profit_calculation_count INTEGER NOT NULL DEFAULT 0,
  last_profit_calculation  TEXT
);
`

func applyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
