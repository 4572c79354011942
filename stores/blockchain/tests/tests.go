package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tari-project/tari-sub016/chaincfg"
	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/stores/blockchain"
	"github.com/tari-project/tari-sub016/stores/blockchain/options"
)

var params = &chaincfg.LocalNetParams

func EmptyStore(t *testing.T, db blockchain.Backend) {
	ctx := context.Background()

	_, err := db.GetTipHash(ctx)
	require.ErrorIs(t, err, errors.ErrNotFound)

	_, err = db.GetChainHeader(ctx, model.FixedHash{1})
	require.ErrorIs(t, err, errors.ErrNotFound)

	exists, err := db.HeaderExists(ctx, model.FixedHash{1})
	require.NoError(t, err)
	assert.False(t, exists)
}

func InsertAndGet(t *testing.T, db blockchain.Backend) {
	ctx := context.Background()

	genesis := Genesis(t, params)
	chain := append([]*model.ChainHeader{genesis}, ExtendChain(t, genesis, 5, HeaderOptions{Achieved: 10})...)

	require.NoError(t, db.InsertChainHeaders(ctx, chain))

	for _, expected := range chain {
		actual, err := db.GetChainHeader(ctx, expected.Hash())
		require.NoError(t, err)

		assert.Equal(t, expected.Hash(), actual.Hash())
		assert.Equal(t, expected.Height(), actual.Height())
		assert.Equal(t, expected.Header().Bytes(), actual.Header().Bytes())
		assert.Equal(t, expected.AccumulatedData(), actual.AccumulatedData())

		exists, err := db.HeaderExists(ctx, expected.Hash())
		require.NoError(t, err)
		assert.True(t, exists)
	}

	tip, err := db.GetTipHash(ctx)
	require.NoError(t, err)
	assert.Equal(t, chain[len(chain)-1].Hash(), tip)
}

// InsertIsAtomic checks that a batch containing a stored header writes nothing.
func InsertIsAtomic(t *testing.T, db blockchain.Backend) {
	ctx := context.Background()

	genesis := Genesis(t, params)
	chain := ExtendChain(t, genesis, 3, HeaderOptions{})

	require.NoError(t, db.InsertChainHeaders(ctx, []*model.ChainHeader{genesis, chain[0]}))

	err := db.InsertChainHeaders(ctx, []*model.ChainHeader{chain[1], chain[0], chain[2]})
	require.ErrorIs(t, err, errors.ErrHeaderAlreadyExists)

	exists, err := db.HeaderExists(ctx, chain[1].Hash())
	require.NoError(t, err)
	assert.False(t, exists)

	tip, err := db.GetTipHash(ctx)
	require.NoError(t, err)
	assert.Equal(t, chain[0].Hash(), tip)
}

func SkipTipUpdate(t *testing.T, db blockchain.Backend) {
	ctx := context.Background()

	genesis := Genesis(t, params)
	require.NoError(t, db.InsertChainHeaders(ctx, []*model.ChainHeader{genesis}))

	fork := ExtendChain(t, genesis, 2, HeaderOptions{Nonce: 7})
	require.NoError(t, db.InsertChainHeaders(ctx, fork, options.WithSkipTipUpdate(true)))

	tip, err := db.GetTipHash(ctx)
	require.NoError(t, err)
	assert.Equal(t, genesis.Hash(), tip)

	exists, err := db.HeaderExists(ctx, fork[1].Hash())
	require.NoError(t, err)
	assert.True(t, exists)
}

func BadBlocks(t *testing.T, db blockchain.Backend) {
	ctx := context.Background()

	bad := model.FixedHash{0xba, 0xd}
	good := model.FixedHash{0x60, 0x0d}

	require.NoError(t, db.InsertBadBlock(ctx, bad, 12, "achieved difficulty too low"))

	// marking twice is not an error
	require.NoError(t, db.InsertBadBlock(ctx, bad, 12, "invalid pow"))

	isBad, err := db.IsBadBlock(ctx, bad)
	require.NoError(t, err)
	assert.True(t, isBad)

	isBad, err = db.IsBadBlock(ctx, good)
	require.NoError(t, err)
	assert.False(t, isBad)

	all, err := db.GetBadBlocks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.FixedHash{bad}, all)
}

// MoneroSeeds checks that a seed keeps the lowest height it was stored with.
func MoneroSeeds(t *testing.T, db blockchain.Backend) {
	ctx := context.Background()

	genesis := Genesis(t, params)
	chain := ExtendChain(t, genesis, 3, HeaderOptions{})
	seed := []byte("seed one")

	_, found, err := db.GetMoneroSeedHeight(ctx, seed)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, db.InsertChainHeaders(ctx, []*model.ChainHeader{genesis, chain[0]},
		options.WithMoneroSeeds(options.MoneroSeed{Key: seed, Height: 20}, options.MoneroSeed{Key: seed, Height: 10}, options.MoneroSeed{Key: seed, Height: 15}),
	))

	height, found, err := db.GetMoneroSeedHeight(ctx, seed)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(10), height)

	require.NoError(t, db.InsertChainHeaders(ctx, chain[1:2], options.WithMoneroSeeds(options.MoneroSeed{Key: seed, Height: 30})))

	height, _, err = db.GetMoneroSeedHeight(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), height)

	require.NoError(t, db.InsertChainHeaders(ctx, chain[2:], options.WithMoneroSeeds(options.MoneroSeed{Key: seed, Height: 5})))

	height, _, err = db.GetMoneroSeedHeight(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), height)
}
