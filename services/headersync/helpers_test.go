package headersync

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"github.com/tari-project/tari-sub016/chaincfg"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/pow"
	"github.com/tari-project/tari-sub016/settings"
	"github.com/tari-project/tari-sub016/stores/blockchain"
	"github.com/tari-project/tari-sub016/stores/blockchain/memory"
	"github.com/tari-project/tari-sub016/stores/blockchain/tests"
	"github.com/tari-project/tari-sub016/ulogger"
)

const mockAchievedDifficulty = model.Difficulty(1_000_000)

type testEnv struct {
	store     blockchain.Store
	backend   *memory.Memory
	genesis   *model.ChainHeader
	verifier  *pow.MockVerifier
	clock     *clock.Mock
	validator *Validator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	return newTestEnvWithParams(t, &chaincfg.LocalNetParams)
}

func newTestEnvWithParams(t *testing.T, params *chaincfg.Params) *testEnv {
	t.Helper()

	ctx := context.Background()

	backend := memory.New()

	store, err := blockchain.NewStoreFromBackend(ctx, ulogger.TestLogger{}, params, backend, time.Minute, 100)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Close()
	})

	genesis, err := store.InsertGenesis(ctx)
	require.NoError(t, err)

	mockClock := clock.NewMock()
	mockClock.Set(time.Unix(int64(params.GenesisTimestamp), 0).Add(365 * 24 * time.Hour))

	verifier := pow.NewMockVerifier(mockAchievedDifficulty)

	validator := NewValidator(ulogger.TestLogger{}, store, pow.NewPool(verifier, 2),
		WithClock(mockClock),
		WithInitialHeaderBufferCapacity(16),
	)

	return &testEnv{
		store:     store,
		backend:   backend,
		genesis:   genesis,
		verifier:  verifier,
		clock:     mockClock,
		validator: validator,
	}
}

// remoteChain returns n unvalidated headers on top of parent.
func remoteChain(t *testing.T, parent *model.ChainHeader, n int, opts tests.HeaderOptions) []*model.BlockHeader {
	t.Helper()

	chain := tests.ExtendChain(t, parent, n, opts)

	headers := make([]*model.BlockHeader, 0, n)
	for _, ch := range chain {
		headers = append(headers, ch.Header())
	}

	return headers
}

func testSettings(commitEveryN int) *settings.Settings {
	return &settings.Settings{
		ChainCfgParams: &chaincfg.LocalNetParams,
		HeaderSync: settings.HeaderSyncSettings{
			CommitEveryN:    commitEveryN,
			ValidateTimeout: 10 * time.Second,
		},
	}
}
