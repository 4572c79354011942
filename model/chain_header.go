package model

import (
	"github.com/tari-project/tari-sub016/errors"
	"lukechampine.com/uint128"
)

// ChainHeader pairs a header with the accumulated data computed from that exact header.
// The pairing is checked at construction. The header is copied in and copied out, so callers cannot
// change it afterwards.
type ChainHeader struct {
	header          *BlockHeader
	accumulatedData *BlockHeaderAccumulatedData
}

// TryConstructChainHeader fails when the accumulated data was not computed for header.
func TryConstructChainHeader(header *BlockHeader, accumulatedData *BlockHeaderAccumulatedData) (*ChainHeader, error) {
	if header == nil || accumulatedData == nil {
		return nil, errors.NewInvalidChainHeaderError("header and accumulated data are required")
	}

	header = header.Clone()

	hash := header.Hash()
	if hash != accumulatedData.Hash {
		return nil, errors.NewInvalidChainHeaderError("header hash %s does not match accumulated data hash %s", hash, accumulatedData.Hash)
	}

	return &ChainHeader{header: header, accumulatedData: accumulatedData}, nil
}

// Header returns a copy of the header.
func (c *ChainHeader) Header() *BlockHeader {
	return c.header.Clone()
}

func (c *ChainHeader) PowAlgo() PowAlgorithm {
	return c.header.Pow.PowAlgo
}

func (c *ChainHeader) AccumulatedData() *BlockHeaderAccumulatedData {
	return c.accumulatedData
}

func (c *ChainHeader) Height() uint64 {
	return c.header.Height
}

func (c *ChainHeader) Hash() FixedHash {
	return c.accumulatedData.Hash
}

func (c *ChainHeader) Timestamp() uint64 {
	return c.header.Timestamp
}

func (c *ChainHeader) TotalAccumulatedDifficulty() uint128.Uint128 {
	return c.accumulatedData.TotalAccumulatedDifficulty
}
