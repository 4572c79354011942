// Package tests holds the backend conformance suite and chain building helpers shared by store and
// header sync tests.
package tests

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tari-project/tari-sub016/chaincfg"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/pow"
)

// HeaderOptions describes the headers produced by ExtendChain. Zero values mean sha3 mined, difficulty 1,
// 120 seconds between blocks.
type HeaderOptions struct {
	Monero     bool
	Target     model.Difficulty
	Achieved   model.Difficulty
	Spacing    uint64
	Nonce      uint64
	RandomXKey []byte
}

func Genesis(t testing.TB, params *chaincfg.Params) *model.ChainHeader {
	t.Helper()

	genesis := params.GenesisHeader()

	ch, err := model.TryConstructChainHeader(genesis, model.GenesisAccumulatedData(genesis))
	require.NoError(t, err)

	return ch
}

// NewHeader returns an unmined header that extends parent. Monero headers get pow data that commits to
// the header's merge mining hash.
func NewHeader(parent *model.ChainHeader, opts HeaderOptions) *model.BlockHeader {
	spacing := opts.Spacing
	if spacing == 0 {
		spacing = 120
	}

	header := model.NewBlockHeaderFromPrevious(parent.Header(), parent.Timestamp()+spacing)
	header.Pow.PowAlgo = model.PowAlgorithmSha3
	header.Nonce = opts.Nonce

	if opts.Monero {
		header.Pow.PowAlgo = model.PowAlgorithmMonero

		key := opts.RandomXKey
		if len(key) == 0 {
			key = []byte("default randomx key")
		}

		powData := &pow.MoneroPowData{
			RandomXKey:       key,
			BlockHashingBlob: []byte{0x0e, 0x0e, 0x01},
			MergeMiningRoot:  header.MergeMiningHash(),
		}
		header.Pow.PowData = powData.Bytes()
	}

	return header
}

// AccumulateHeader builds the chain header of header on top of parent.
func AccumulateHeader(t testing.TB, parent *model.ChainHeader, header *model.BlockHeader, target, achieved model.Difficulty) *model.ChainHeader {
	t.Helper()

	if target == 0 {
		target = model.MinDifficulty
	}

	if achieved < target {
		achieved = target
	}

	achievedTarget, ok := model.TryConstructAchievedTargetDifficulty(header.Pow.PowAlgo, target, achieved)
	require.True(t, ok)

	accumulatedData, err := model.NewAccumulatedDataBuilder(parent.AccumulatedData()).
		WithHash(header.Hash()).
		WithTotalKernelOffset(header.TotalKernelOffset).
		WithAchievedTargetDifficulty(achievedTarget).
		Build()
	require.NoError(t, err)

	ch, err := model.TryConstructChainHeader(header, accumulatedData)
	require.NoError(t, err)

	return ch
}

// ExtendChain returns n chain headers on top of parent.
func ExtendChain(t testing.TB, parent *model.ChainHeader, n int, opts HeaderOptions) []*model.ChainHeader {
	t.Helper()

	chain := make([]*model.ChainHeader, 0, n)
	current := parent

	for i := 0; i < n; i++ {
		current = AccumulateHeader(t, current, NewHeader(current, opts), opts.Target, opts.Achieved)
		chain = append(chain, current)
	}

	return chain
}
