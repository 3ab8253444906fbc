package surrealdb

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	tcommon "github.com/Giftedmindbenjamin/surbminer/tests/common"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	if testing.Short() {
		t.Skip("SurrealDB container tests skipped in -short mode")
	}
	sc := tcommon.StartSurrealDB(t)

	cfg := common.NewDefaultConfig()
	cfg.Environment = "test"
	cfg.Storage.Address = sc.Address()
	cfg.Storage.Namespace = "surbminer_test"
	cfg.Storage.Database = fmt.Sprintf("mgr_%s_%d", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()), time.Now().UnixNano()%100000)
	return cfg
}

func TestNewManager(t *testing.T) {
	cfg := testConfig(t)
	logger := common.NewSilentLogger()

	mgr, err := NewManager(logger, cfg)
	require.NoError(t, err)
	defer mgr.Close()

	assert.NotNil(t, mgr.LedgerStore())
	assert.NotNil(t, mgr.PlanStore())
	assert.Equal(t, common.BackendSurrealDB, mgr.Backend())
}

func TestNewManager_SchemaIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	logger := common.NewSilentLogger()

	first, err := NewManager(logger, cfg)
	require.NoError(t, err)
	defer first.Close()

	second, err := NewManager(logger, cfg)
	require.NoError(t, err)
	defer second.Close()
}

func TestNewManager_BadAddress(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Address = "ws://127.0.0.1:1/rpc"

	_, err := NewManager(common.NewSilentLogger(), cfg)
	assert.Error(t, err)
}
