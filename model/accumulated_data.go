package model

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/tari-project/tari-sub016/errors"
	"lukechampine.com/uint128"
)

const accumulatedDataSize = HashSize + 1 + 8 + 8 + 32 + 16 + 16 + 16

// BlockHeaderAccumulatedData is derived from a header and its parent's accumulated data.
// Values are replaced, never mutated in place.
type BlockHeaderAccumulatedData struct {
	Hash                        FixedHash
	AchievedTarget              AchievedTargetDifficulty
	TotalKernelOffset           BlindingFactor
	AccumulatedMoneroDifficulty uint128.Uint128
	AccumulatedSha3Difficulty   uint128.Uint128
	TotalAccumulatedDifficulty  uint128.Uint128
}

// GenesisAccumulatedData seeds both per-algorithm accumulators with 1 so that the multiplicative
// total is non-zero from the first block of either algorithm onwards.
func GenesisAccumulatedData(genesis *BlockHeader) *BlockHeaderAccumulatedData {
	achieved, _ := TryConstructAchievedTargetDifficulty(genesis.Pow.PowAlgo, MinDifficulty, MinDifficulty)

	return &BlockHeaderAccumulatedData{
		Hash:                        genesis.Hash(),
		AchievedTarget:              achieved,
		TotalKernelOffset:           genesis.TotalKernelOffset,
		AccumulatedMoneroDifficulty: uint128.From64(1),
		AccumulatedSha3Difficulty:   uint128.From64(1),
		TotalAccumulatedDifficulty:  uint128.From64(1),
	}
}

func (a *BlockHeaderAccumulatedData) AchievedDifficulty() Difficulty {
	return a.AchievedTarget.Achieved()
}

func (a *BlockHeaderAccumulatedData) TargetDifficulty() Difficulty {
	return a.AchievedTarget.Target()
}

func (a *BlockHeaderAccumulatedData) String() string {
	return fmt.Sprintf("hash=%s achieved=%s monero=%s sha3=%s total=%s",
		a.Hash, a.AchievedTarget, a.AccumulatedMoneroDifficulty, a.AccumulatedSha3Difficulty, a.TotalAccumulatedDifficulty)
}

// Bytes is the canonical storage encoding of the accumulated data.
func (a *BlockHeaderAccumulatedData) Bytes() []byte {
	b := make([]byte, 0, accumulatedDataSize)

	b = append(b, a.Hash[:]...)
	b = append(b, byte(a.AchievedTarget.PowAlgo()))
	b = binary.BigEndian.AppendUint64(b, a.AchievedTarget.Target().Uint64())
	b = binary.BigEndian.AppendUint64(b, a.AchievedTarget.Achieved().Uint64())
	b = append(b, a.TotalKernelOffset[:]...)

	var u [16]byte

	for _, v := range []uint128.Uint128{a.AccumulatedMoneroDifficulty, a.AccumulatedSha3Difficulty, a.TotalAccumulatedDifficulty} {
		v.PutBytesBE(u[:])
		b = append(b, u[:]...)
	}

	return b
}

func NewBlockHeaderAccumulatedDataFromBytes(b []byte) (*BlockHeaderAccumulatedData, error) {
	if len(b) != accumulatedDataSize {
		return nil, errors.NewInvalidAccumulatedDataError("accumulated data must be %d bytes, got %d", accumulatedDataSize, len(b))
	}

	a := &BlockHeaderAccumulatedData{}

	b = b[copy(a.Hash[:], b):]
	algo := PowAlgorithm(b[0])
	target := Difficulty(binary.BigEndian.Uint64(b[1:9]))
	achieved := Difficulty(binary.BigEndian.Uint64(b[9:17]))
	b = b[17:]

	achievedTarget, ok := TryConstructAchievedTargetDifficulty(algo, target, achieved)
	if !ok {
		return nil, errors.NewInvalidAccumulatedDataError("stored achieved difficulty %d is below target %d", achieved, target)
	}

	a.AchievedTarget = achievedTarget
	b = b[copy(a.TotalKernelOffset[:], b):]
	a.AccumulatedMoneroDifficulty = uint128.FromBytesBE(b[0:16])
	a.AccumulatedSha3Difficulty = uint128.FromBytesBE(b[16:32])
	a.TotalAccumulatedDifficulty = uint128.FromBytesBE(b[32:48])

	return a, nil
}

// BlockHeaderAccumulatedDataBuilder builds the accumulated data of a header from its parent's.
// Hash, achieved target and kernel offset are all required.
type BlockHeaderAccumulatedDataBuilder struct {
	previous          *BlockHeaderAccumulatedData
	hash              *FixedHash
	totalKernelOffset *BlindingFactor
	achievedTarget    *AchievedTargetDifficulty
}

func NewAccumulatedDataBuilder(previous *BlockHeaderAccumulatedData) *BlockHeaderAccumulatedDataBuilder {
	return &BlockHeaderAccumulatedDataBuilder{previous: previous}
}

func (b *BlockHeaderAccumulatedDataBuilder) WithHash(hash FixedHash) *BlockHeaderAccumulatedDataBuilder {
	b.hash = &hash
	return b
}

// WithTotalKernelOffset takes the header's own offset. The parent's running total is added in Build.
func (b *BlockHeaderAccumulatedDataBuilder) WithTotalKernelOffset(offset BlindingFactor) *BlockHeaderAccumulatedDataBuilder {
	b.totalKernelOffset = &offset
	return b
}

func (b *BlockHeaderAccumulatedDataBuilder) WithAchievedTargetDifficulty(achieved AchievedTargetDifficulty) *BlockHeaderAccumulatedDataBuilder {
	b.achievedTarget = &achieved
	return b
}

func (b *BlockHeaderAccumulatedDataBuilder) Build() (*BlockHeaderAccumulatedData, error) {
	if b.previous == nil {
		return nil, errors.NewInvalidAccumulatedDataError("previous accumulated data is required")
	}

	if b.hash == nil {
		return nil, errors.NewInvalidAccumulatedDataError("builder missing field: hash")
	}

	if *b.hash == b.previous.Hash {
		return nil, errors.NewInvalidAccumulatedDataError("hash %s is the same as the previous accumulated hash", b.hash)
	}

	if b.achievedTarget == nil {
		return nil, errors.NewInvalidAccumulatedDataError("builder missing field: achieved target difficulty")
	}

	if b.totalKernelOffset == nil {
		return nil, errors.NewInvalidAccumulatedDataError("builder missing field: total kernel offset")
	}

	moneroDiff := b.previous.AccumulatedMoneroDifficulty
	sha3Diff := b.previous.AccumulatedSha3Difficulty
	achieved := b.achievedTarget.Achieved().Uint64()

	var ok bool

	switch b.achievedTarget.PowAlgo() {
	case PowAlgorithmMonero:
		if moneroDiff, ok = checkedAdd64(moneroDiff, achieved); !ok {
			return nil, errors.NewArithmeticOverflowError("accumulated monero difficulty overflowed at %s", b.hash)
		}
	case PowAlgorithmSha3:
		if sha3Diff, ok = checkedAdd64(sha3Diff, achieved); !ok {
			return nil, errors.NewArithmeticOverflowError("accumulated sha3 difficulty overflowed at %s", b.hash)
		}
	default:
		return nil, errors.NewUnsupportedPowAlgorithmError("unknown pow algorithm %d", uint8(b.achievedTarget.PowAlgo()))
	}

	total, ok := checkedMul(maxOne(moneroDiff), maxOne(sha3Diff))
	if !ok {
		return nil, errors.NewArithmeticOverflowError("total accumulated difficulty overflowed at %s", b.hash)
	}

	offset, err := b.previous.TotalKernelOffset.Add(*b.totalKernelOffset)
	if err != nil {
		return nil, err
	}

	return &BlockHeaderAccumulatedData{
		Hash:                        *b.hash,
		AchievedTarget:              *b.achievedTarget,
		TotalKernelOffset:           offset,
		AccumulatedMoneroDifficulty: moneroDiff,
		AccumulatedSha3Difficulty:   sha3Diff,
		TotalAccumulatedDifficulty:  total,
	}, nil
}

func maxOne(v uint128.Uint128) uint128.Uint128 {
	if v.IsZero() {
		return uint128.From64(1)
	}

	return v
}

func checkedAdd64(a uint128.Uint128, v uint64) (uint128.Uint128, bool) {
	lo, carry := bits.Add64(a.Lo, v, 0)
	hi, carry := bits.Add64(a.Hi, 0, carry)

	if carry != 0 {
		return uint128.Zero, false
	}

	return uint128.New(lo, hi), true
}

func checkedMul(a, b uint128.Uint128) (uint128.Uint128, bool) {
	if a.Hi != 0 && b.Hi != 0 {
		return uint128.Zero, false
	}

	hi, lo := bits.Mul64(a.Lo, b.Lo)

	// at most one of the cross terms is non-zero
	crossHi, cross := bits.Mul64(a.Hi, b.Lo)
	if crossHi != 0 {
		return uint128.Zero, false
	}

	crossHi, cross2 := bits.Mul64(a.Lo, b.Hi)
	if crossHi != 0 {
		return uint128.Zero, false
	}

	hi, carry := bits.Add64(hi, cross, 0)
	if carry != 0 {
		return uint128.Zero, false
	}

	hi, carry = bits.Add64(hi, cross2, 0)
	if carry != 0 {
		return uint128.Zero, false
	}

	return uint128.New(lo, hi), true
}
