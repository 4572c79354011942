package pow

import (
	"context"

	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
)

// Verifier computes the difficulty a header's proof of work achieved.
type Verifier interface {
	AchievedDifficulty(ctx context.Context, header *model.BlockHeader) (model.Difficulty, error)
}

// DefaultVerifier hashes sha3x headers directly and Monero headers with RandomX. Without a RandomX
// factory Monero headers are rejected.
type DefaultVerifier struct {
	randomX *RandomXFactory
}

func NewVerifier(randomX *RandomXFactory) *DefaultVerifier {
	return &DefaultVerifier{randomX: randomX}
}

func (v *DefaultVerifier) AchievedDifficulty(ctx context.Context, header *model.BlockHeader) (model.Difficulty, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.NewContextCanceledError("proof of work verification canceled", err)
	}

	switch header.Pow.PowAlgo {
	case model.PowAlgorithmSha3:
		return Sha3xDifficulty(header)
	case model.PowAlgorithmMonero:
		return v.randomXDifficulty(header)
	default:
		return 0, errors.NewUnsupportedPowAlgorithmError("unknown pow algorithm %d", uint8(header.Pow.PowAlgo))
	}
}

func (v *DefaultVerifier) randomXDifficulty(header *model.BlockHeader) (model.Difficulty, error) {
	if v.randomX == nil {
		return 0, errors.NewUnsupportedPowAlgorithmError("randomx verification is not enabled")
	}

	powData, err := NewMoneroPowDataFromHeader(header)
	if err != nil {
		return 0, err
	}

	hash, err := v.randomX.Hash(powData.RandomXKey, powData.BlockHashingBlob)
	if err != nil {
		return 0, errors.NewInvalidPowError("randomx hash of header %d failed", header.Height, err)
	}

	return LittleEndianDifficulty(hash[:])
}

// VerifyAchievesTarget asks verifier for the achieved difficulty of header and fails with an
// achieved difficulty too low error when it is below target.
func VerifyAchievesTarget(ctx context.Context, verifier Verifier, header *model.BlockHeader, target model.Difficulty) (model.AchievedTargetDifficulty, error) {
	achieved, err := verifier.AchievedDifficulty(ctx, header)
	if err != nil {
		return model.AchievedTargetDifficulty{}, err
	}

	result, ok := model.TryConstructAchievedTargetDifficulty(header.Pow.PowAlgo, target, achieved)
	if !ok {
		return model.AchievedTargetDifficulty{}, errors.NewAchievedDifficultyTooLowError(achieved.Uint64(), target.Uint64())
	}

	return result, nil
}
