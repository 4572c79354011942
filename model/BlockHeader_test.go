package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tari-project/tari-sub016/errors"
)

func testHeader() *BlockHeader {
	return &BlockHeader{
		Version:       1,
		Height:        12,
		PrevHash:      FixedHash{1, 2, 3},
		Timestamp:     1_700_000_000,
		OutputMR:      FixedHash{4},
		WitnessMR:     FixedHash{5},
		OutputMMRSize: 100,
		KernelMR:      FixedHash{6},
		KernelMMRSize: 200,
		Nonce:         42,
		Pow:           ProofOfWork{PowAlgo: PowAlgorithmSha3},
	}
}

func TestNewBlockHeaderFromBytes(t *testing.T) {
	t.Run("round trip without pow data", func(t *testing.T) {
		bh := testHeader()

		decoded, err := NewBlockHeaderFromBytes(bh.Bytes())
		require.NoError(t, err)

		assert.Equal(t, bh, decoded)
		assert.Equal(t, bh.Hash(), decoded.Hash())
	})

	t.Run("round trip with pow data", func(t *testing.T) {
		bh := testHeader()
		bh.Pow = ProofOfWork{PowAlgo: PowAlgorithmMonero, PowData: HexBytes{0xde, 0xad, 0xbe, 0xef}}

		decoded, err := NewBlockHeaderFromBytes(bh.Bytes())
		require.NoError(t, err)

		assert.Equal(t, bh.Pow, decoded.Pow)
		assert.Equal(t, bh.Hash(), decoded.Hash())
	})

	t.Run("short input", func(t *testing.T) {
		_, err := NewBlockHeaderFromBytes(make([]byte, 10))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidHeaderEncoded))
	})

	t.Run("unknown pow algorithm", func(t *testing.T) {
		b := testHeader().Bytes()
		b[blockHeaderFixedSize-1] = 7

		_, err := NewBlockHeaderFromBytes(b)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrUnsupportedPowAlgo))
	})

	t.Run("trailing bytes", func(t *testing.T) {
		b := append(testHeader().Bytes(), 0x01)

		_, err := NewBlockHeaderFromBytes(b)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidHeaderEncoded))
	})
}

func TestBlockHeader_Hash(t *testing.T) {
	bh := testHeader()
	hash := bh.Hash()
	mm := bh.MergeMiningHash()

	assert.NotEqual(t, hash, mm)

	t.Run("nonce changes hash but not merge mining hash", func(t *testing.T) {
		other := testHeader()
		other.Nonce++

		assert.NotEqual(t, hash, other.Hash())
		assert.Equal(t, mm, other.MergeMiningHash())
	})

	t.Run("pow data changes hash but not merge mining hash", func(t *testing.T) {
		other := testHeader()
		other.Pow.PowData = HexBytes{1}

		assert.NotEqual(t, hash, other.Hash())
		assert.Equal(t, mm, other.MergeMiningHash())
	})

	t.Run("timestamp changes both", func(t *testing.T) {
		other := testHeader()
		other.Timestamp++

		assert.NotEqual(t, hash, other.Hash())
		assert.NotEqual(t, mm, other.MergeMiningHash())
	})
}

func TestNewBlockHeaderFromPrevious(t *testing.T) {
	prev := testHeader()
	next := NewBlockHeaderFromPrevious(prev, prev.Timestamp+120)

	assert.Equal(t, prev.Height+1, next.Height)
	assert.Equal(t, prev.Hash(), next.PrevHash)
	assert.Equal(t, prev.Timestamp+120, next.Timestamp)
	assert.Equal(t, prev.PowAlgo(), next.PowAlgo())
	assert.Equal(t, uint64(0), next.Nonce)
}

func TestFixedHash(t *testing.T) {
	h := FixedHash{0xab, 0xcd}

	parsed, err := NewFixedHashFromString(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	_, err = NewFixedHashFromString("abcd")
	require.Error(t, err)

	assert.True(t, ZeroHash.IsZero())
	assert.Equal(t, -1, ZeroHash.Compare(h))
	assert.Equal(t, 1, h.Compare(ZeroHash))
	assert.Equal(t, 0, h.Compare(parsed))
}

func TestPowAlgorithm(t *testing.T) {
	for _, algo := range PowAlgorithms {
		text, err := algo.MarshalText()
		require.NoError(t, err)

		var parsed PowAlgorithm
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, algo, parsed)
	}

	_, err := ParsePowAlgorithm("cuckoo")
	require.Error(t, err)
	assert.False(t, PowAlgorithm(9).IsValid())
}
