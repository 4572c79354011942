package headersync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tari-project/tari-sub016/chaincfg"
	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/stores/blockchain/tests"
	"lukechampine.com/uint128"
)

func TestValidatorNotInitialized(t *testing.T) {
	env := newTestEnv(t)
	headers := remoteChain(t, env.genesis, 1, tests.HeaderOptions{})

	_, err := env.validator.Validate(context.Background(), headers[0])
	require.ErrorIs(t, err, errors.ErrNotInitialized)

	_, err = env.validator.TakeValidHeaders()
	require.ErrorIs(t, err, errors.ErrNotInitialized)

	_, err = env.validator.ValidHeaders()
	require.ErrorIs(t, err, errors.ErrNotInitialized)

	_, err = env.validator.CurrentValidChainTipHeader()
	require.ErrorIs(t, err, errors.ErrNotInitialized)

	assert.True(t, errors.IsPreconditionError(err))
}

func TestInitializeState(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown start hash", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.validator.InitializeState(ctx, model.FixedHash{0xde, 0xad})
		require.ErrorIs(t, err, errors.ErrStartHashNotFound)
	})

	t.Run("empty buffer after initialization", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.validator.InitializeState(ctx, env.genesis.Hash()))

		tip, err := env.validator.CurrentValidChainTipHeader()
		require.NoError(t, err)
		assert.Nil(t, tip)

		headers, err := env.validator.ValidHeaders()
		require.NoError(t, err)
		assert.Empty(t, headers)
	})

	t.Run("reinitialization replaces state", func(t *testing.T) {
		env := newTestEnv(t)
		headers := remoteChain(t, env.genesis, 2, tests.HeaderOptions{})

		require.NoError(t, env.validator.InitializeState(ctx, env.genesis.Hash()))
		_, err := env.validator.Validate(ctx, headers[0])
		require.NoError(t, err)

		require.NoError(t, env.validator.InitializeState(ctx, env.genesis.Hash()))

		valid, err := env.validator.ValidHeaders()
		require.NoError(t, err)
		assert.Empty(t, valid)

		// height 1 is expected again
		_, err = env.validator.Validate(ctx, headers[0])
		require.NoError(t, err)
	})
}

func TestValidateHappyPath(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	headers := remoteChain(t, env.genesis, 3, tests.HeaderOptions{})

	require.NoError(t, env.validator.InitializeState(ctx, env.genesis.Hash()))

	previous := env.genesis.TotalAccumulatedDifficulty()

	for _, header := range headers {
		total, err := env.validator.Validate(ctx, header)
		require.NoError(t, err)

		assert.Equal(t, 1, total.Cmp(previous), "total accumulated difficulty must increase")
		previous = total
	}

	assert.Equal(t, uint128.From64(1+3*mockAchievedDifficulty.Uint64()), previous)

	valid, err := env.validator.ValidHeaders()
	require.NoError(t, err)
	require.Len(t, valid, 3)

	for i, ch := range valid {
		assert.Equal(t, uint64(i+1), ch.Height())
		assert.Equal(t, headers[i].Hash(), ch.Hash())

		if i == 0 {
			assert.Equal(t, env.genesis.Hash(), ch.Header().PrevHash)
		} else {
			assert.Equal(t, valid[i-1].Hash(), ch.Header().PrevHash)
		}
	}

	tip, err := env.validator.CurrentValidChainTipHeader()
	require.NoError(t, err)
	assert.Equal(t, headers[2].Hash(), tip.Hash())
	assert.Equal(t, previous, tip.TotalAccumulatedDifficulty())
}

func TestTakeValidHeaders(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	headers := remoteChain(t, env.genesis, 4, tests.HeaderOptions{})

	require.NoError(t, env.validator.InitializeState(ctx, env.genesis.Hash()))

	for _, header := range headers[:2] {
		_, err := env.validator.Validate(ctx, header)
		require.NoError(t, err)
	}

	taken, err := env.validator.TakeValidHeaders()
	require.NoError(t, err)
	require.Len(t, taken, 2)

	again, err := env.validator.TakeValidHeaders()
	require.NoError(t, err)
	assert.Empty(t, again)

	tip, err := env.validator.CurrentValidChainTipHeader()
	require.NoError(t, err)
	assert.Nil(t, tip)

	// draining keeps the chain position
	for _, header := range headers[2:] {
		_, err = env.validator.Validate(ctx, header)
		require.NoError(t, err)
	}

	taken2, err := env.validator.TakeValidHeaders()
	require.NoError(t, err)
	require.Len(t, taken2, 2)
	assert.Equal(t, taken[1].Hash(), taken2[0].Header().PrevHash)

	// the first drained slice is not affected by later validations
	assert.Equal(t, headers[0].Hash(), taken[0].Hash())
	assert.Equal(t, headers[1].Hash(), taken[1].Hash())
}

func TestValidateRejects(t *testing.T) {
	ctx := context.Background()

	tt := []struct {
		name    string
		prepare func(t *testing.T, env *testEnv) *model.BlockHeader
		err     error
	}{
		{
			name: "height gap",
			prepare: func(t *testing.T, env *testEnv) *model.BlockHeader {
				return remoteChain(t, env.genesis, 2, tests.HeaderOptions{})[1]
			},
			err: errors.ErrInvalidBlockHeight,
		},
		{
			name: "broken chain link",
			prepare: func(t *testing.T, env *testEnv) *model.BlockHeader {
				header := remoteChain(t, env.genesis, 1, tests.HeaderOptions{})[0]
				header.PrevHash = model.FixedHash{0x01}

				return header
			},
			err: errors.ErrChainLinkBroken,
		},
		{
			name: "beyond future time limit",
			prepare: func(t *testing.T, env *testEnv) *model.BlockHeader {
				header := remoteChain(t, env.genesis, 1, tests.HeaderOptions{})[0]
				header.Timestamp = uint64(env.clock.Now().Unix()) + 541

				return header
			},
			err: errors.ErrFutureTimeLimit,
		},
		{
			name: "timestamp equal to median",
			prepare: func(t *testing.T, env *testEnv) *model.BlockHeader {
				header := remoteChain(t, env.genesis, 1, tests.HeaderOptions{})[0]
				header.Timestamp = env.genesis.Timestamp()

				return header
			},
			err: errors.ErrTimestampTooEarly,
		},
		{
			name: "achieved difficulty below target",
			prepare: func(t *testing.T, env *testEnv) *model.BlockHeader {
				header := remoteChain(t, env.genesis, 1, tests.HeaderOptions{})[0]
				env.verifier.SetDifficulty(header.Hash(), 0)

				return header
			},
			err: errors.ErrDifficultyTooLow,
		},
		{
			name: "known bad block",
			prepare: func(t *testing.T, env *testEnv) *model.BlockHeader {
				header := remoteChain(t, env.genesis, 1, tests.HeaderOptions{})[0]
				require.NoError(t, env.store.SetBadBlock(context.Background(), header.Hash(), header.Height, "test"))

				return header
			},
			err: errors.ErrBadBlock,
		},
		{
			name: "sha3 header with pow data",
			prepare: func(t *testing.T, env *testEnv) *model.BlockHeader {
				header := remoteChain(t, env.genesis, 1, tests.HeaderOptions{})[0]
				header.Pow.PowData = model.HexBytes{0x01, 0x02}

				return header
			},
			err: errors.ErrInvalidPowData,
		},
		{
			name: "monero merge mining root mismatch",
			prepare: func(t *testing.T, env *testEnv) *model.BlockHeader {
				header := remoteChain(t, env.genesis, 1, tests.HeaderOptions{Monero: true})[0]
				header.OutputMMRSize++

				return header
			},
			err: errors.ErrInvalidMergeMining,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			require.NoError(t, env.validator.InitializeState(ctx, env.genesis.Hash()))

			before := env.validator.state

			_, err := env.validator.Validate(ctx, tc.prepare(t, env))
			require.ErrorIs(t, err, tc.err)
			assert.True(t, errors.IsConsensusError(err))

			// no mutation on failure
			assert.Same(t, before, env.validator.state)

			valid, err := env.validator.ValidHeaders()
			require.NoError(t, err)
			assert.Empty(t, valid)

			// the session can carry on with a valid header
			header := remoteChain(t, env.genesis, 1, tests.HeaderOptions{Nonce: 99})[0]
			_, err = env.validator.Validate(ctx, header)
			require.NoError(t, err)
		})
	}
}

func TestValidateCanceled(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.validator.InitializeState(context.Background(), env.genesis.Hash()))

	before := env.validator.state

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	header := remoteChain(t, env.genesis, 1, tests.HeaderOptions{})[0]

	_, err := env.validator.Validate(ctx, header)
	require.ErrorIs(t, err, errors.ErrContextCanceled)
	assert.True(t, errors.IsCanceled(err))
	assert.Same(t, before, env.validator.state)
}

func TestValidateMixedAlgorithms(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.validator.InitializeState(ctx, env.genesis.Hash()))

	parent := env.genesis
	previous := env.genesis.TotalAccumulatedDifficulty()

	for i := 0; i < 10; i++ {
		algo := model.PowAlgorithmSha3
		if i%2 == 1 {
			algo = model.PowAlgorithmMonero
		}

		header := tests.NewHeader(parent, tests.HeaderOptions{Monero: algo == model.PowAlgorithmMonero, RandomXKey: []byte("seed")})

		total, err := env.validator.Validate(ctx, header)
		require.NoError(t, err)
		assert.Equal(t, 1, total.Cmp(previous))

		previous = total

		parent, err = env.validator.CurrentValidChainTipHeader()
		require.NoError(t, err)
	}

	accumulated := parent.AccumulatedData()
	assert.Equal(t, uint128.From64(1+5*mockAchievedDifficulty.Uint64()), accumulated.AccumulatedSha3Difficulty)
	assert.Equal(t, uint128.From64(1+5*mockAchievedDifficulty.Uint64()), accumulated.AccumulatedMoneroDifficulty)
}

// The windows kept in memory while validating must match the ones rebuilt from the store once the
// headers are committed.
func TestStateMatchesStoredWindows(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.validator.InitializeState(ctx, env.genesis.Hash()))

	parent := env.genesis

	for i := 0; i < 12; i++ {
		algo := model.PowAlgorithmSha3
		if i%3 == 0 {
			algo = model.PowAlgorithmMonero
		}

		header := tests.NewHeader(parent, tests.HeaderOptions{Monero: algo == model.PowAlgorithmMonero, Spacing: uint64(60 + i*7)})

		_, err := env.validator.Validate(ctx, header)
		require.NoError(t, err)

		parent, err = env.validator.CurrentValidChainTipHeader()
		require.NoError(t, err)
	}

	inMemory := env.validator.state.targetDifficulties

	headers, err := env.validator.TakeValidHeaders()
	require.NoError(t, err)
	require.NoError(t, env.store.InsertValidHeaders(ctx, headers))

	stored, err := env.store.GetTargetDifficultiesForNextBlock(ctx, parent.Hash())
	require.NoError(t, err)

	cc := env.store.ChainParams().ConsensusConstantsAt(parent.Height() + 1)

	for _, algo := range model.PowAlgorithms {
		a, err := inMemory.Get(algo)
		require.NoError(t, err)

		b, err := stored.Get(algo)
		require.NoError(t, err)

		assert.Equal(t, a.Len(), b.Len())

		targetA, err := a.CalculateTarget(cc.MinPowDifficulty(algo), cc.MaxPowDifficulty(algo))
		require.NoError(t, err)

		targetB, err := b.CalculateTarget(cc.MinPowDifficulty(algo), cc.MaxPowDifficulty(algo))
		require.NoError(t, err)

		assert.Equal(t, targetA, targetB, algo.String())
	}

	// and a validator initialized from the stored tip accepts the next header
	require.NoError(t, env.validator.InitializeState(ctx, parent.Hash()))

	_, err = env.validator.Validate(ctx, tests.NewHeader(parent, tests.HeaderOptions{}))
	require.NoError(t, err)
}

func TestValidateCopiesHeader(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.validator.InitializeState(ctx, env.genesis.Hash()))

	header := tests.NewHeader(env.genesis, tests.HeaderOptions{Monero: true, RandomXKey: []byte("seed")})
	hash := header.Hash()

	_, err := env.validator.Validate(ctx, header)
	require.NoError(t, err)

	header.Nonce += 7
	header.Pow.PowData[0] ^= 0xff
	require.NotEqual(t, hash, header.Hash())

	tip, err := env.validator.CurrentValidChainTipHeader()
	require.NoError(t, err)
	assert.Equal(t, hash, tip.Hash())
	assert.Equal(t, tip.Hash(), tip.Header().Hash())

	taken, err := env.validator.TakeValidHeaders()
	require.NoError(t, err)
	require.Len(t, taken, 1)
	assert.Equal(t, taken[0].Hash(), taken[0].Header().Hash())

	// headers built on the validated hash still link
	_, err = env.validator.Validate(ctx, tests.NewHeader(tip, tests.HeaderOptions{}))
	require.NoError(t, err)
}

func TestValidateErrorData(t *testing.T) {
	ctx := context.Background()

	t.Run("height gap", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.validator.InitializeState(ctx, env.genesis.Hash()))

		header := remoteChain(t, env.genesis, 10, tests.HeaderOptions{})[9]

		_, err := env.validator.Validate(ctx, header)
		require.ErrorIs(t, err, errors.ErrInvalidBlockHeight)

		var e *errors.Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, uint64(1), e.GetData(errors.DataKeyExpected))
		assert.Equal(t, uint64(10), e.GetData(errors.DataKeyActual))
	})

	t.Run("broken chain link", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.validator.InitializeState(ctx, env.genesis.Hash()))

		header := remoteChain(t, env.genesis, 1, tests.HeaderOptions{})[0]
		header.PrevHash = model.FixedHash{}

		_, err := env.validator.Validate(ctx, header)
		require.ErrorIs(t, err, errors.ErrChainLinkBroken)

		var e *errors.Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, env.genesis.Hash().String(), e.GetData(errors.DataKeyExpected))
		assert.Equal(t, model.FixedHash{}.String(), e.GetData(errors.DataKeyActual))
	})
}

// paramsWithUpgrade returns LocalNetParams with a second set of consensus constants from height 3.
func paramsWithUpgrade(medianTimestampCount, difficultyBlockWindow int) *chaincfg.Params {
	params := chaincfg.LocalNetParams

	upgrade := params.ConsensusConstants[0]
	upgrade.EffectiveFromHeight = 3
	upgrade.MedianTimestampCount = medianTimestampCount
	upgrade.DifficultyBlockWindow = difficultyBlockWindow

	params.Name = "localnet-upgrade"
	params.ConsensusConstants = []chaincfg.ConsensusConstants{params.ConsensusConstants[0], upgrade}

	return &params
}

func TestValidateAcrossConsensusUpgrade(t *testing.T) {
	ctx := context.Background()

	t.Run("windows shrink", func(t *testing.T) {
		env := newTestEnvWithParams(t, paramsWithUpgrade(3, 2))
		require.NoError(t, env.validator.InitializeState(ctx, env.genesis.Hash()))

		parent := env.genesis

		for i := 0; i < 6; i++ {
			_, err := env.validator.Validate(ctx, tests.NewHeader(parent, tests.HeaderOptions{Spacing: uint64(100 + i*10)}))
			require.NoError(t, err)

			parent, err = env.validator.CurrentValidChainTipHeader()
			require.NoError(t, err)
		}

		state := env.validator.state
		assert.Equal(t, 3, state.timestamps.Capacity())
		assert.Equal(t, 3, state.timestamps.Len())

		newest, ok := state.timestamps.Get(2)
		require.True(t, ok)
		assert.Equal(t, parent.Timestamp(), newest)

		sha3, err := state.targetDifficulties.Get(model.PowAlgorithmSha3)
		require.NoError(t, err)
		assert.Equal(t, 3, sha3.Len())
		assert.True(t, sha3.IsFull())

		headers, err := env.validator.TakeValidHeaders()
		require.NoError(t, err)
		require.NoError(t, env.store.InsertValidHeaders(ctx, headers))

		stored, err := env.store.GetTargetDifficultiesForNextBlock(ctx, parent.Hash())
		require.NoError(t, err)

		storedSha3, err := stored.Get(model.PowAlgorithmSha3)
		require.NoError(t, err)
		assert.Equal(t, storedSha3.Len(), sha3.Len())

		cc := env.store.ChainParams().ConsensusConstantsAt(parent.Height() + 1)

		targetA, err := sha3.CalculateTarget(cc.MinPowDifficulty(model.PowAlgorithmSha3), cc.MaxPowDifficulty(model.PowAlgorithmSha3))
		require.NoError(t, err)

		targetB, err := storedSha3.CalculateTarget(cc.MinPowDifficulty(model.PowAlgorithmSha3), cc.MaxPowDifficulty(model.PowAlgorithmSha3))
		require.NoError(t, err)
		assert.Equal(t, targetB, targetA)

		timestamps, err := env.store.GetBlockTimestamps(ctx, parent.Hash(), cc.MedianTimestampCount)
		require.NoError(t, err)
		assert.ElementsMatch(t, timestamps, state.timestamps.Items())
	})

	t.Run("windows grow", func(t *testing.T) {
		params := paramsWithUpgrade(5, 4)
		params.ConsensusConstants[0].MedianTimestampCount = 2
		params.ConsensusConstants[0].DifficultyBlockWindow = 1

		env := newTestEnvWithParams(t, params)
		require.NoError(t, env.validator.InitializeState(ctx, env.genesis.Hash()))

		assert.Equal(t, 2, env.validator.state.timestamps.Capacity())

		parent := env.genesis

		for i := 0; i < 6; i++ {
			_, err := env.validator.Validate(ctx, tests.NewHeader(parent, tests.HeaderOptions{}))
			require.NoError(t, err)

			parent, err = env.validator.CurrentValidChainTipHeader()
			require.NoError(t, err)
		}

		state := env.validator.state
		assert.Equal(t, 5, state.timestamps.Capacity())
		assert.Equal(t, 5, state.timestamps.Len())

		sha3, err := state.targetDifficulties.Get(model.PowAlgorithmSha3)
		require.NoError(t, err)
		assert.Equal(t, 5, sha3.Len())
		assert.True(t, sha3.IsFull())
	})
}
