package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/interfaces"
)

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	ledgerStore *LedgerStore
	planStore   *PlanStore
}

var schema = []string{
	"DEFINE TABLE IF NOT EXISTS account SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS plan SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS investment SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS deposit SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS withdrawal SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS ledger_entry SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS profit_tracker SCHEMALESS",
	"DEFINE INDEX IF NOT EXISTS account_username ON account FIELDS username_key UNIQUE",
	"DEFINE INDEX IF NOT EXISTS account_referral ON account FIELDS referral_code UNIQUE",
	"DEFINE INDEX IF NOT EXISTS account_referred_by ON account FIELDS referred_by",
	"DEFINE INDEX IF NOT EXISTS investment_account ON investment FIELDS account_id",
	"DEFINE INDEX IF NOT EXISTS investment_expiry ON investment FIELDS status, end_date",
	"DEFINE INDEX IF NOT EXISTS deposit_status ON deposit FIELDS status, created_at",
	"DEFINE INDEX IF NOT EXISTS withdrawal_status ON withdrawal FIELDS status, created_at",
	"DEFINE INDEX IF NOT EXISTS ledger_entry_account ON ledger_entry FIELDS account_id, seq",
}

// NewManager creates a new StorageManager connected to SurrealDB.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	ctx := context.Background()

	db, err := surrealdb.New(config.Storage.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Storage.Username,
		"pass": config.Storage.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Storage.Namespace, config.Storage.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	m, err := newManager(ctx, db, logger)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("address", config.Storage.Address).
		Str("namespace", config.Storage.Namespace).
		Str("database", config.Storage.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

// newManager defines the schema on an already selected database.
func newManager(ctx context.Context, db *surrealdb.DB, logger *common.Logger) (*Manager, error) {
	// SurrealDB v3 errors on querying non-existent tables
	for _, stmt := range schema {
		if _, err := surrealdb.Query[any](ctx, db, stmt, nil); err != nil {
			return nil, fmt.Errorf("failed to apply %q: %w", stmt, err)
		}
	}

	return &Manager{
		db:          db,
		logger:      logger,
		ledgerStore: NewLedgerStore(db, logger),
		planStore:   NewPlanStore(db, logger),
	}, nil
}

func (m *Manager) LedgerStore() interfaces.LedgerStore {
	return m.ledgerStore
}

func (m *Manager) PlanStore() interfaces.PlanStore {
	return m.planStore
}

func (m *Manager) Backend() string {
	return common.BackendSurrealDB
}

func (m *Manager) Close() error {
	m.db.Close(context.Background())
	return nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
