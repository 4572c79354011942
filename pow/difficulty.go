package pow

import (
	"math"
	"math/big"
	"slices"

	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
)

var (
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	maxUint64  = new(big.Int).SetUint64(math.MaxUint64)
)

// BigEndianDifficulty is (2^256 - 1) / hash, with hash read as a big-endian 256 bit integer, capped
// at the maximum difficulty.
func BigEndianDifficulty(hash []byte) (model.Difficulty, error) {
	return scalarToDifficulty(new(big.Int).SetBytes(hash))
}

// LittleEndianDifficulty is BigEndianDifficulty with hash read as little-endian.
func LittleEndianDifficulty(hash []byte) (model.Difficulty, error) {
	reversed := slices.Clone(hash)
	slices.Reverse(reversed)

	return BigEndianDifficulty(reversed)
}

func scalarToDifficulty(scalar *big.Int) (model.Difficulty, error) {
	if scalar.Sign() == 0 {
		return 0, errors.NewInvalidPowError("proof of work hash is zero")
	}

	if scalar.Cmp(maxUint256) > 0 {
		return 0, errors.NewInvalidPowError("proof of work hash is wider than 256 bits")
	}

	result := new(big.Int).Quo(maxUint256, scalar)
	if result.Cmp(maxUint64) > 0 {
		return model.MaxDifficulty, nil
	}

	return model.Difficulty(result.Uint64()), nil
}
