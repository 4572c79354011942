package chaincfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
)

func TestGetChainParams(t *testing.T) {
	for _, name := range []string{"mainnet", "testnet", "localnet"} {
		params, err := GetChainParams(name)
		require.NoError(t, err)
		assert.Equal(t, name, params.Name)
	}

	_, err := GetChainParams("regtest")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestParams_ConsensusConstantsAt(t *testing.T) {
	t.Run("single era", func(t *testing.T) {
		cc := MainNetParams.ConsensusConstantsAt(1_000_000)
		assert.Equal(t, uint64(0), cc.EffectiveFromHeight)
		assert.Equal(t, model.Difficulty(60_000_000), cc.MinPowDifficulty(model.PowAlgorithmSha3))
		assert.Equal(t, uint64(200), cc.PowTargetBlockInterval(model.PowAlgorithmMonero))
	})

	t.Run("height activated", func(t *testing.T) {
		assert.Equal(t, uint64(0), TestNetParams.ConsensusConstantsAt(9_999).EffectiveFromHeight)
		assert.Equal(t, uint64(10_000), TestNetParams.ConsensusConstantsAt(10_000).EffectiveFromHeight)
		assert.Equal(t, uint64(10_000), TestNetParams.ConsensusConstantsAt(50_000).EffectiveFromHeight)
	})
}

func TestRegister(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		err := Register(&MainNetParams)
		require.Error(t, err)
	})

	t.Run("missing algorithm", func(t *testing.T) {
		params := &Params{
			Name: "broken",
			ConsensusConstants: []ConsensusConstants{{
				MedianTimestampCount:  11,
				DifficultyBlockWindow: 90,
				ProofOfWork: map[model.PowAlgorithm]PowAlgorithmConstants{
					model.PowAlgorithmSha3: {MinDifficulty: 1, MaxDifficulty: 10, TargetTime: 300},
				},
			}},
		}

		err := Register(params)
		require.Error(t, err)

		_, err = GetChainParams("broken")
		require.Error(t, err)
	})

	t.Run("not starting at genesis", func(t *testing.T) {
		params := &Params{
			Name:               "late",
			ConsensusConstants: []ConsensusConstants{{EffectiveFromHeight: 5}},
		}

		require.Error(t, Register(params))
	})
}

func TestParams_GenesisHeader(t *testing.T) {
	a := LocalNetParams.GenesisHeader()
	b := LocalNetParams.GenesisHeader()

	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, uint64(0), a.Height)
	assert.NotEqual(t, MainNetParams.GenesisHeader().Hash(), a.Hash())
}

func TestConsensusConstants_Defaults(t *testing.T) {
	cc := &ConsensusConstants{}

	assert.Equal(t, model.MinDifficulty, cc.MinPowDifficulty(model.PowAlgorithmMonero))
	assert.Equal(t, model.MaxDifficulty, cc.MaxPowDifficulty(model.PowAlgorithmMonero))
}
