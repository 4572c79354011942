package sql_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tari-project/tari-sub016/chaincfg"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/settings"
	"github.com/tari-project/tari-sub016/stores/blockchain/sql"
	"github.com/tari-project/tari-sub016/stores/blockchain/tests"
	"github.com/tari-project/tari-sub016/ulogger"
	"github.com/tari-project/tari-sub016/util"
)

func newSQLiteMemory(t *testing.T) *sql.SQL {
	storeURL, err := url.Parse("sqlitememory:///blockchain")
	require.NoError(t, err)

	tSettings := &settings.Settings{
		ChainCfgParams: &chaincfg.LocalNetParams,
		BlockChain: settings.BlockChainSettings{
			HeaderCacheSize: 16,
		},
	}

	s, err := sql.New(ulogger.TestLogger{}, storeURL, tSettings)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func TestSQLiteMemory(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		tests.EmptyStore(t, newSQLiteMemory(t))
	})

	t.Run("insert and get", func(t *testing.T) {
		tests.InsertAndGet(t, newSQLiteMemory(t))
	})

	t.Run("atomic insert", func(t *testing.T) {
		tests.InsertIsAtomic(t, newSQLiteMemory(t))
	})

	t.Run("skip tip update", func(t *testing.T) {
		tests.SkipTipUpdate(t, newSQLiteMemory(t))
	})

	t.Run("bad blocks", func(t *testing.T) {
		tests.BadBlocks(t, newSQLiteMemory(t))
	})

	t.Run("monero seeds", func(t *testing.T) {
		tests.MoneroSeeds(t, newSQLiteMemory(t))
	})
}

func TestSQLEngine(t *testing.T) {
	s := newSQLiteMemory(t)
	assert.Equal(t, util.SqliteMemory, s.GetDBEngine())
	assert.Equal(t, "sqlite", s.GetDB().Engine())
}

func TestGetChainHeaderBypassesCacheOnMiss(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteMemory(t)

	genesis := tests.Genesis(t, &chaincfg.LocalNetParams)
	chain := tests.ExtendChain(t, genesis, 20, tests.HeaderOptions{})

	require.NoError(t, s.InsertChainHeaders(ctx, append([]*model.ChainHeader{genesis}, chain...)))

	// more headers than the cache holds, the oldest are read back from the database
	for _, expected := range chain {
		actual, err := s.GetChainHeader(ctx, expected.Hash())
		require.NoError(t, err)
		assert.Equal(t, expected.Hash(), actual.Hash())
	}
}
