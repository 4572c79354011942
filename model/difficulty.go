package model

import (
	"fmt"
	"math"
)

// Difficulty is the proof of work difficulty of a single header. Zero is never a valid difficulty.
type Difficulty uint64

const (
	MinDifficulty Difficulty = 1
	MaxDifficulty Difficulty = math.MaxUint64
)

func (d Difficulty) Uint64() uint64 {
	return uint64(d)
}

// CheckedAdd returns d + other and false when the sum overflows.
func (d Difficulty) CheckedAdd(other Difficulty) (Difficulty, bool) {
	sum := d + other
	if sum < d {
		return 0, false
	}

	return sum, true
}

// Clamp bounds d to [min, max].
func (d Difficulty) Clamp(min, max Difficulty) Difficulty {
	if d < min {
		return min
	}

	if d > max {
		return max
	}

	return d
}

func (d Difficulty) String() string {
	return fmt.Sprintf("%d", uint64(d))
}

// AchievedTargetDifficulty pairs the target a header was checked against with the difficulty
// it actually achieved. It can only be constructed when achieved >= target.
type AchievedTargetDifficulty struct {
	powAlgo  PowAlgorithm
	target   Difficulty
	achieved Difficulty
}

func TryConstructAchievedTargetDifficulty(powAlgo PowAlgorithm, target, achieved Difficulty) (AchievedTargetDifficulty, bool) {
	if achieved < target {
		return AchievedTargetDifficulty{}, false
	}

	return AchievedTargetDifficulty{powAlgo: powAlgo, target: target, achieved: achieved}, true
}

func (a AchievedTargetDifficulty) PowAlgo() PowAlgorithm {
	return a.powAlgo
}

func (a AchievedTargetDifficulty) Target() Difficulty {
	return a.target
}

func (a AchievedTargetDifficulty) Achieved() Difficulty {
	return a.achieved
}

func (a AchievedTargetDifficulty) String() string {
	return fmt.Sprintf("%s achieved %d (target %d)", a.powAlgo, a.achieved, a.target)
}
