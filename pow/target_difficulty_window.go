package pow

import (
	"github.com/tari-project/tari-sub016/chaincfg"
	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
)

// TargetDifficultyWindow is the difficulty adjustment window of a single algorithm.
type TargetDifficultyWindow struct {
	lwma *LinearWeightedMovingAverage
}

func NewTargetDifficultyWindow(blockWindow int, targetTime uint64) (*TargetDifficultyWindow, error) {
	lwma, err := NewLinearWeightedMovingAverage(blockWindow, targetTime)
	if err != nil {
		return nil, err
	}

	return &TargetDifficultyWindow{lwma: lwma}, nil
}

// AddBack appends the timestamp and target difficulty of a header, evicting the oldest sample when
// the window is full.
func (w *TargetDifficultyWindow) AddBack(timestamp uint64, target model.Difficulty) {
	w.lwma.AddBack(timestamp, target)
}

func (w *TargetDifficultyWindow) Len() int {
	return w.lwma.Len()
}

func (w *TargetDifficultyWindow) IsFull() bool {
	return w.lwma.IsFull()
}

func (w *TargetDifficultyWindow) Clone() *TargetDifficultyWindow {
	return &TargetDifficultyWindow{lwma: w.lwma.Clone()}
}

// CalculateTarget returns the target difficulty for the next block, clamped to [minDifficulty,
// maxDifficulty]. A window with fewer than two samples yields minDifficulty.
func (w *TargetDifficultyWindow) CalculateTarget(minDifficulty, maxDifficulty model.Difficulty) (model.Difficulty, error) {
	if minDifficulty > maxDifficulty {
		return 0, errors.NewInvalidTargetDifficultyError("minimum difficulty %d is above maximum %d", minDifficulty, maxDifficulty)
	}

	target, ok, err := w.lwma.Calculate()
	if err != nil {
		return 0, err
	}

	if !ok {
		return minDifficulty, nil
	}

	return target.Clamp(minDifficulty, maxDifficulty), nil
}

// TargetDifficulties holds one TargetDifficultyWindow per algorithm.
type TargetDifficulties struct {
	windows map[model.PowAlgorithm]*TargetDifficultyWindow
}

// NewTargetDifficulties creates empty windows for every algorithm, sized from cc.
func NewTargetDifficulties(cc *chaincfg.ConsensusConstants) (*TargetDifficulties, error) {
	t := &TargetDifficulties{windows: make(map[model.PowAlgorithm]*TargetDifficultyWindow, len(model.PowAlgorithms))}

	for _, algo := range model.PowAlgorithms {
		w, err := NewTargetDifficultyWindow(cc.DifficultyBlockWindow, cc.PowTargetBlockInterval(algo))
		if err != nil {
			return nil, errors.NewConfigurationError("cannot create %s difficulty window", algo, err)
		}

		t.windows[algo] = w
	}

	return t, nil
}

func (t *TargetDifficulties) AddBack(algo model.PowAlgorithm, timestamp uint64, target model.Difficulty) error {
	w, err := t.Get(algo)
	if err != nil {
		return err
	}

	w.AddBack(timestamp, target)

	return nil
}

func (t *TargetDifficulties) Get(algo model.PowAlgorithm) (*TargetDifficultyWindow, error) {
	w, ok := t.windows[algo]
	if !ok {
		return nil, errors.NewUnsupportedPowAlgorithmError("no difficulty window for %s", algo)
	}

	return w, nil
}

// ResizeFor returns windows sized for cc. The receiver is returned as is when every window already
// matches, otherwise each window is resized keeping its most recent samples.
func (t *TargetDifficulties) ResizeFor(cc *chaincfg.ConsensusConstants) (*TargetDifficulties, error) {
	matches := true

	for algo, w := range t.windows {
		if w.lwma.BlockWindow() != cc.DifficultyBlockWindow || w.lwma.TargetTime() != cc.PowTargetBlockInterval(algo) {
			matches = false
			break
		}
	}

	if matches {
		return t, nil
	}

	c := &TargetDifficulties{windows: make(map[model.PowAlgorithm]*TargetDifficultyWindow, len(t.windows))}

	for algo, w := range t.windows {
		lwma, err := w.lwma.Resize(cc.DifficultyBlockWindow, cc.PowTargetBlockInterval(algo))
		if err != nil {
			return nil, errors.NewConfigurationError("cannot resize %s difficulty window", algo, err)
		}

		c.windows[algo] = &TargetDifficultyWindow{lwma: lwma}
	}

	return c, nil
}

// Clone deep copies every window.
func (t *TargetDifficulties) Clone() *TargetDifficulties {
	c := &TargetDifficulties{windows: make(map[model.PowAlgorithm]*TargetDifficultyWindow, len(t.windows))}

	for algo, w := range t.windows {
		c.windows[algo] = w.Clone()
	}

	return c
}
