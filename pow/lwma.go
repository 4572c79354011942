package pow

import (
	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/util"
	"lukechampine.com/uint128"
)

// solve times are capped at this many target times so a single slow block cannot drag the target down
const maxSolveTimeMultiple = 6

type TimestampDifficulty struct {
	Timestamp  uint64
	Difficulty model.Difficulty
}

// LinearWeightedMovingAverage is the LWMA difficulty adjustment: recent solve times weigh more than
// older ones. The window holds blockWindow+1 samples.
type LinearWeightedMovingAverage struct {
	samples     *util.RollingWindow[TimestampDifficulty]
	blockWindow int
	targetTime  uint64
}

func NewLinearWeightedMovingAverage(blockWindow int, targetTime uint64) (*LinearWeightedMovingAverage, error) {
	if blockWindow < 1 {
		return nil, errors.NewInvalidArgumentError("difficulty block window must be at least 1")
	}

	if targetTime == 0 {
		return nil, errors.NewInvalidArgumentError("target time must be greater than 0")
	}

	return &LinearWeightedMovingAverage{
		samples:     util.NewRollingWindow[TimestampDifficulty](blockWindow + 1),
		blockWindow: blockWindow,
		targetTime:  targetTime,
	}, nil
}

func (l *LinearWeightedMovingAverage) AddBack(timestamp uint64, difficulty model.Difficulty) {
	l.samples.PushBack(TimestampDifficulty{Timestamp: timestamp, Difficulty: difficulty})
}

func (l *LinearWeightedMovingAverage) Len() int {
	return l.samples.Len()
}

func (l *LinearWeightedMovingAverage) IsFull() bool {
	return l.samples.IsFull()
}

func (l *LinearWeightedMovingAverage) TargetTime() uint64 {
	return l.targetTime
}

func (l *LinearWeightedMovingAverage) BlockWindow() int {
	return l.blockWindow
}

// Resize returns a copy with a new block window and target time, keeping the most recent samples.
func (l *LinearWeightedMovingAverage) Resize(blockWindow int, targetTime uint64) (*LinearWeightedMovingAverage, error) {
	resized, err := NewLinearWeightedMovingAverage(blockWindow, targetTime)
	if err != nil {
		return nil, err
	}

	resized.samples = l.samples.Resize(blockWindow + 1)

	return resized, nil
}

func (l *LinearWeightedMovingAverage) Clone() *LinearWeightedMovingAverage {
	return &LinearWeightedMovingAverage{
		samples:     l.samples.Clone(),
		blockWindow: l.blockWindow,
		targetTime:  l.targetTime,
	}
}

// Calculate returns the unclamped LWMA difficulty. ok is false when there are fewer than two samples.
func (l *LinearWeightedMovingAverage) Calculate() (difficulty model.Difficulty, ok bool, err error) {
	samples := l.samples.Items()
	if len(samples) <= 1 {
		return 0, false, nil
	}

	n := uint64(len(samples) - 1)

	sum := uint128.Zero
	for _, s := range samples[1:] {
		sum = sum.Add64(s.Difficulty.Uint64())
	}

	aveDifficulty := sum.Div64(n)

	var (
		weightedTimes = uint128.Zero
		maxSolveTime  = maxSolveTimeMultiple * l.targetTime
		previous      = samples[0].Timestamp
	)

	for i := 1; i < len(samples); i++ {
		this := samples[i].Timestamp
		if this <= previous {
			this = previous + 1
		}

		solveTime := min(this-previous, maxSolveTime)
		previous = this

		weightedTimes = weightedTimes.Add(uint128.From64(solveTime).Mul64(uint64(i)))
	}

	// sum of the weights 1..n, scaled by the target time
	k := uint128.From64(n).Mul64(n + 1).Mul64(l.targetTime).Div64(2)

	target := aveDifficulty.Mul(k).Div(weightedTimes)
	if target.Hi != 0 {
		return 0, false, errors.NewArithmeticOverflowError("lwma target %s does not fit in 64 bits", target)
	}

	return model.Difficulty(target.Lo), true, nil
}
