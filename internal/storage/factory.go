// Package storage selects and opens the configured ledger backend.
package storage

import (
	"fmt"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/interfaces"
	"github.com/Giftedmindbenjamin/surbminer/internal/storage/memdb"
	"github.com/Giftedmindbenjamin/surbminer/internal/storage/sqlite"
	"github.com/Giftedmindbenjamin/surbminer/internal/storage/surrealdb"
)

// combinedStore is a single store that serves both ledger and plans.
type combinedStore interface {
	interfaces.LedgerStore
	interfaces.PlanStore
}

// singleStoreManager adapts a combinedStore to interfaces.StorageManager.
type singleStoreManager struct {
	store   combinedStore
	backend string
}

func (m *singleStoreManager) LedgerStore() interfaces.LedgerStore {
	return m.store
}

func (m *singleStoreManager) PlanStore() interfaces.PlanStore {
	return m.store
}

func (m *singleStoreManager) Backend() string {
	return m.backend
}

func (m *singleStoreManager) Close() error {
	return m.store.Close()
}

var _ interfaces.StorageManager = (*singleStoreManager)(nil)

// NewStorageManager opens the backend named in config.Storage.Backend.
// Supported backends: "surrealdb" (default), "sqlite", "memory".
func NewStorageManager(logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	backend := config.Storage.Backend
	if backend == "" {
		backend = common.BackendSurrealDB
	}

	switch backend {
	case common.BackendSurrealDB:
		return surrealdb.NewManager(logger, config)

	case common.BackendSQLite:
		store, err := sqlite.NewStore(logger, config.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &singleStoreManager{store: store, backend: backend}, nil

	case common.BackendMemory:
		logger.Warn().Msg("Using in-memory storage; all data is lost on exit")
		return NewMemoryManager(logger), nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: surrealdb, sqlite, memory)", backend)
	}
}

// NewMemoryManager returns a manager over a fresh in-memory store.
func NewMemoryManager(logger *common.Logger) interfaces.StorageManager {
	return &singleStoreManager{store: memdb.NewStore(logger), backend: common.BackendMemory}
}
