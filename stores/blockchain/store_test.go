package blockchain_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tari-project/tari-sub016/chaincfg"
	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/pow"
	"github.com/tari-project/tari-sub016/settings"
	"github.com/tari-project/tari-sub016/stores/blockchain"
	"github.com/tari-project/tari-sub016/stores/blockchain/memory"
	"github.com/tari-project/tari-sub016/stores/blockchain/tests"
	"github.com/tari-project/tari-sub016/ulogger"
)

func newStore(t *testing.T, params *chaincfg.Params, backend blockchain.Backend) blockchain.Store {
	s, err := blockchain.NewStoreFromBackend(context.Background(), ulogger.TestLogger{}, params, backend, time.Minute, 1000)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// seededStore returns a store holding genesis and chain, with the tip at the end of chain.
func seededStore(t *testing.T, chain []*model.ChainHeader) blockchain.Store {
	ctx := context.Background()

	s := newStore(t, &chaincfg.LocalNetParams, memory.New())

	_, err := s.InsertGenesis(ctx)
	require.NoError(t, err)
	require.NoError(t, s.InsertValidHeaders(ctx, chain))

	return s
}

func TestInsertGenesis(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, &chaincfg.LocalNetParams, memory.New())

	_, err := s.GetTipHeader(ctx)
	require.ErrorIs(t, err, errors.ErrNotFound)

	genesis, err := s.InsertGenesis(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), genesis.Height())
	assert.Equal(t, chaincfg.LocalNetParams.GenesisHeader().Hash(), genesis.Hash())

	again, err := s.InsertGenesis(ctx)
	require.NoError(t, err)
	assert.Equal(t, genesis.Hash(), again.Hash())

	tip, err := s.GetTipHeader(ctx)
	require.NoError(t, err)
	assert.Equal(t, genesis.Hash(), tip.Hash())
}

func TestGetters(t *testing.T) {
	ctx := context.Background()

	genesis := tests.Genesis(t, &chaincfg.LocalNetParams)
	chain := tests.ExtendChain(t, genesis, 2, tests.HeaderOptions{Achieved: 5})
	s := seededStore(t, chain)

	header, err := s.GetHeaderByHash(ctx, chain[1].Hash())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), header.Height)

	accumulated, err := s.GetHeaderAccumulatedData(ctx, chain[1].Hash())
	require.NoError(t, err)
	assert.Equal(t, chain[1].TotalAccumulatedDifficulty(), accumulated.TotalAccumulatedDifficulty)

	exists, err := s.HeaderExists(ctx, chain[0].Hash())
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = s.GetHeaderByHash(ctx, model.FixedHash{0xff})
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestGetBlockTimestamps(t *testing.T) {
	ctx := context.Background()

	genesis := tests.Genesis(t, &chaincfg.LocalNetParams)
	chain := tests.ExtendChain(t, genesis, 5, tests.HeaderOptions{Spacing: 60})
	s := seededStore(t, chain)

	timestamps, err := s.GetBlockTimestamps(ctx, chain[4].Hash(), 3)
	require.NoError(t, err)
	assert.Equal(t, []uint64{chain[2].Timestamp(), chain[3].Timestamp(), chain[4].Timestamp()}, timestamps)

	// stops at genesis
	timestamps, err = s.GetBlockTimestamps(ctx, chain[1].Hash(), 11)
	require.NoError(t, err)
	assert.Equal(t, []uint64{genesis.Timestamp(), chain[0].Timestamp(), chain[1].Timestamp()}, timestamps)

	timestamps, err = s.GetBlockTimestamps(ctx, chain[1].Hash(), 0)
	require.NoError(t, err)
	assert.Empty(t, timestamps)
}

func TestGetTargetDifficultiesForNextBlock(t *testing.T) {
	ctx := context.Background()

	genesis := tests.Genesis(t, &chaincfg.LocalNetParams)
	chain := tests.ExtendChain(t, genesis, 3, tests.HeaderOptions{Target: 10})
	chain = append(chain, tests.ExtendChain(t, chain[2], 2, tests.HeaderOptions{Monero: true, Target: 20})...)
	s := seededStore(t, chain)

	targets, err := s.GetTargetDifficultiesForNextBlock(ctx, chain[4].Hash())
	require.NoError(t, err)

	sha3, err := targets.Get(model.PowAlgorithmSha3)
	require.NoError(t, err)
	assert.Equal(t, 3, sha3.Len())

	monero, err := targets.Get(model.PowAlgorithmMonero)
	require.NoError(t, err)
	assert.Equal(t, 2, monero.Len())

	// genesis alone leaves every window empty
	targets, err = s.GetTargetDifficultiesForNextBlock(ctx, genesis.Hash())
	require.NoError(t, err)

	sha3, err = targets.Get(model.PowAlgorithmSha3)
	require.NoError(t, err)
	assert.Equal(t, 0, sha3.Len())

	_, err = s.GetTargetDifficultiesForNextBlock(ctx, model.FixedHash{0xff})
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestGetTargetDifficultiesForNextBlockCapsWindow(t *testing.T) {
	ctx := context.Background()

	params := localNetWith(func(cc *chaincfg.ConsensusConstants) {
		cc.DifficultyBlockWindow = 4
	})

	genesis := tests.Genesis(t, params)
	chain := tests.ExtendChain(t, genesis, 10, tests.HeaderOptions{})

	s := newStore(t, params, memory.New())
	_, err := s.InsertGenesis(ctx)
	require.NoError(t, err)
	require.NoError(t, s.InsertValidHeaders(ctx, chain))

	targets, err := s.GetTargetDifficultiesForNextBlock(ctx, chain[9].Hash())
	require.NoError(t, err)

	sha3, err := targets.Get(model.PowAlgorithmSha3)
	require.NoError(t, err)
	assert.Equal(t, 5, sha3.Len())
	assert.True(t, sha3.IsFull())
}

func TestTipFollowsInserts(t *testing.T) {
	ctx := context.Background()

	genesis := tests.Genesis(t, &chaincfg.LocalNetParams)
	chain := tests.ExtendChain(t, genesis, 4, tests.HeaderOptions{})
	s := seededStore(t, chain[:2])

	tip, err := s.GetTipHeader(ctx)
	require.NoError(t, err)
	assert.Equal(t, chain[1].Hash(), tip.Hash())

	require.NoError(t, s.InsertValidHeaders(ctx, chain[2:]))

	tip, err = s.GetTipHeader(ctx)
	require.NoError(t, err)
	assert.Equal(t, chain[3].Hash(), tip.Hash())
}

func TestBadBlocks(t *testing.T) {
	ctx := context.Background()

	backend := memory.New()
	warm := model.FixedHash{0x01}
	require.NoError(t, backend.InsertBadBlock(ctx, warm, 1, "loaded at start"))

	s := newStore(t, &chaincfg.LocalNetParams, backend)

	bad, err := s.IsKnownBadBlock(ctx, warm)
	require.NoError(t, err)
	assert.True(t, bad)

	fresh := model.FixedHash{0x02}

	bad, err = s.IsKnownBadBlock(ctx, fresh)
	require.NoError(t, err)
	assert.False(t, bad)

	require.NoError(t, s.SetBadBlock(ctx, fresh, 2, "invalid pow"))

	bad, err = s.IsKnownBadBlock(ctx, fresh)
	require.NoError(t, err)
	assert.True(t, bad)
}

func TestMoneroSeedHeights(t *testing.T) {
	ctx := context.Background()

	genesis := tests.Genesis(t, &chaincfg.LocalNetParams)
	chain := tests.ExtendChain(t, genesis, 3, tests.HeaderOptions{Monero: true, RandomXKey: []byte("seed a")})
	s := seededStore(t, chain)

	height, err := s.FetchMoneroSeedFirstSeenHeight(ctx, []byte("seed a"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), height)

	height, err = s.FetchMoneroSeedFirstSeenHeight(ctx, []byte("never seen"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), height)
}

func TestCheckPowAuxiliaryData(t *testing.T) {
	ctx := context.Background()

	params := localNetWith(func(cc *chaincfg.ConsensusConstants) {
		cc.MaxRandomXSeedHeight = 5
	})

	genesis := tests.Genesis(t, params)
	chain := tests.ExtendChain(t, genesis, 1, tests.HeaderOptions{Monero: true, RandomXKey: []byte("seed")})

	s := newStore(t, params, memory.New())
	_, err := s.InsertGenesis(ctx)
	require.NoError(t, err)
	require.NoError(t, s.InsertValidHeaders(ctx, chain))

	t.Run("seed within max age", func(t *testing.T) {
		require.NoError(t, s.CheckPowAuxiliaryData(ctx, moneroHeaderAt(6, []byte("seed"))))
	})

	t.Run("seed too old", func(t *testing.T) {
		err := s.CheckPowAuxiliaryData(ctx, moneroHeaderAt(7, []byte("seed")))
		require.ErrorIs(t, err, errors.ErrOldSeedHash)
	})

	t.Run("unknown seed", func(t *testing.T) {
		require.NoError(t, s.CheckPowAuxiliaryData(ctx, moneroHeaderAt(1000, []byte("new seed"))))
	})

	t.Run("sha3 with pow data", func(t *testing.T) {
		header := tests.NewHeader(genesis, tests.HeaderOptions{})
		header.Pow.PowData = model.HexBytes{0x01}

		err := s.CheckPowAuxiliaryData(ctx, header)
		require.ErrorIs(t, err, errors.ErrInvalidPowData)
	})

	t.Run("merge mining root mismatch", func(t *testing.T) {
		header := moneroHeaderAt(3, []byte("seed"))
		header.Timestamp++

		err := s.CheckPowAuxiliaryData(ctx, header)
		require.ErrorIs(t, err, errors.ErrInvalidMergeMining)
	})
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	tSettings := &settings.Settings{
		ChainCfgParams: &chaincfg.LocalNetParams,
		BlockChain: settings.BlockChainSettings{
			HeaderCacheSize:        16,
			TipCacheTTL:            time.Second,
			BadBlockFilterCapacity: 16,
		},
	}

	for _, rawURL := range []string{"memory:///", "sqlitememory:///blockchain", "leveldb://memory"} {
		t.Run(rawURL, func(t *testing.T) {
			storeURL, err := url.Parse(rawURL)
			require.NoError(t, err)

			s, err := blockchain.NewStore(ctx, ulogger.TestLogger{}, tSettings, storeURL)
			require.NoError(t, err)

			defer s.Close()

			genesis, err := s.InsertGenesis(ctx)
			require.NoError(t, err)

			tip, err := s.GetTipHeader(ctx)
			require.NoError(t, err)
			assert.Equal(t, genesis.Hash(), tip.Hash())
			assert.Equal(t, "localnet", s.ChainParams().Name)
		})
	}

	t.Run("unknown scheme", func(t *testing.T) {
		storeURL, err := url.Parse("redis://localhost")
		require.NoError(t, err)

		_, err = blockchain.NewStore(ctx, ulogger.TestLogger{}, tSettings, storeURL)
		require.ErrorIs(t, err, errors.ErrConfiguration)
	})
}

func moneroHeaderAt(height uint64, key []byte) *model.BlockHeader {
	header := &model.BlockHeader{
		Version:   1,
		Height:    height,
		PrevHash:  model.FixedHash{byte(height)},
		Timestamp: 1_700_000_000 + height*120,
		Pow:       model.ProofOfWork{PowAlgo: model.PowAlgorithmMonero},
	}

	powData := &pow.MoneroPowData{
		RandomXKey:       key,
		BlockHashingBlob: []byte{0x0e},
		MergeMiningRoot:  header.MergeMiningHash(),
	}
	header.Pow.PowData = powData.Bytes()

	return header
}

// localNetWith returns a copy of the localnet parameters with every consensus era modified by fn.
func localNetWith(fn func(cc *chaincfg.ConsensusConstants)) *chaincfg.Params {
	params := chaincfg.LocalNetParams
	params.Name = "localnet-test"
	params.ConsensusConstants = make([]chaincfg.ConsensusConstants, len(chaincfg.LocalNetParams.ConsensusConstants))

	for i, cc := range chaincfg.LocalNetParams.ConsensusConstants {
		fn(&cc)
		params.ConsensusConstants[i] = cc
	}

	return &params
}
