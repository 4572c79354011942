package headersync

import (
	"github.com/tari-project/tari-sub016/chaincfg"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/pow"
	"github.com/tari-project/tari-sub016/util"
)

// validatorState is replaced as a whole after every successful validation, never modified in place.
type validatorState struct {
	currentHeight      uint64
	timestamps         *util.RollingWindow[uint64]
	targetDifficulties *pow.TargetDifficulties
	previousAccum      *model.BlockHeaderAccumulatedData

	// contiguous in height, each linking to the one before it
	validHeaders []*model.ChainHeader
}

// next returns the state after ch with its timestamp and target difficulty recorded. The windows are
// sized by nextCC, the constants that apply to the block after ch. The receiver is left untouched.
func (s *validatorState) next(ch *model.ChainHeader, target model.Difficulty, nextCC *chaincfg.ConsensusConstants) (*validatorState, error) {
	timestamps := s.timestamps.Resize(nextCC.MedianTimestampCount)
	util.InsertSorted(timestamps, ch.Timestamp())

	targetDifficulties, err := s.targetDifficulties.ResizeFor(nextCC)
	if err != nil {
		return nil, err
	}

	if targetDifficulties == s.targetDifficulties {
		targetDifficulties = targetDifficulties.Clone()
	}

	// the target, not the achieved difficulty, so the window matches the one the store rebuilds
	if err = targetDifficulties.AddBack(ch.PowAlgo(), ch.Timestamp(), target); err != nil {
		return nil, err
	}

	return &validatorState{
		currentHeight:      ch.Height(),
		timestamps:         timestamps,
		targetDifficulties: targetDifficulties,
		previousAccum:      ch.AccumulatedData(),
		validHeaders:       append(s.validHeaders, ch),
	}, nil
}
