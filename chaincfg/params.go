package chaincfg

import (
	"math"
	"sort"
	"time"

	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
)

// PowAlgorithmConstants bounds the target difficulty of one proof of work algorithm and sets the block
// time the difficulty adjustment steers towards.
type PowAlgorithmConstants struct {
	MinDifficulty model.Difficulty
	MaxDifficulty model.Difficulty

	// TargetTime is the target block time in seconds for this algorithm.
	TargetTime uint64
}

// ConsensusConstants holds the header level consensus rules that are active from EffectiveFromHeight
// until the next entry in Params.ConsensusConstants takes over.
type ConsensusConstants struct {
	// EffectiveFromHeight is the first height these constants apply to.
	EffectiveFromHeight uint64

	// FutureTimeLimit is the maximum number of seconds a header timestamp may be ahead of local time.
	FutureTimeLimit uint64

	// MedianTimestampCount is the number of previous timestamps used for the median time check.
	MedianTimestampCount int

	// DifficultyBlockWindow is the number of blocks per algorithm used by the difficulty adjustment.
	DifficultyBlockWindow int

	// MaxRandomXSeedHeight is how many blocks a RandomX seed may be used for after it was first seen.
	MaxRandomXSeedHeight uint64

	ProofOfWork map[model.PowAlgorithm]PowAlgorithmConstants
}

// MinPowDifficulty returns the minimum target difficulty for algo, or model.MinDifficulty when the
// algorithm has no constants.
func (c *ConsensusConstants) MinPowDifficulty(algo model.PowAlgorithm) model.Difficulty {
	if pc, ok := c.ProofOfWork[algo]; ok {
		return pc.MinDifficulty
	}

	return model.MinDifficulty
}

func (c *ConsensusConstants) MaxPowDifficulty(algo model.PowAlgorithm) model.Difficulty {
	if pc, ok := c.ProofOfWork[algo]; ok {
		return pc.MaxDifficulty
	}

	return model.MaxDifficulty
}

func (c *ConsensusConstants) PowTargetBlockInterval(algo model.PowAlgorithm) uint64 {
	return c.ProofOfWork[algo].TargetTime
}

// FutureTimeLimitDuration is FutureTimeLimit as a time.Duration.
func (c *ConsensusConstants) FutureTimeLimitDuration() time.Duration {
	return time.Duration(c.FutureTimeLimit) * time.Second
}

// ChainStrengthTieBreak names a rule used to order two chains with equal accumulated difficulty.
type ChainStrengthTieBreak uint8

const (
	// TieBreakHeight prefers the taller chain.
	TieBreakHeight ChainStrengthTieBreak = iota

	// TieBreakLowestHash prefers the chain whose tip hash sorts lowest.
	TieBreakLowestHash
)

func (t ChainStrengthTieBreak) String() string {
	switch t {
	case TieBreakHeight:
		return "height"
	case TieBreakLowestHash:
		return "lowest_hash"
	default:
		return "unknown"
	}
}

// Params defines a Tari network by its header consensus parameters.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// ConsensusConstants is ordered by EffectiveFromHeight and must start at height 0.
	ConsensusConstants []ConsensusConstants

	// ChainStrengthTieBreaks is applied in order when two chains have equal accumulated difficulty.
	ChainStrengthTieBreaks []ChainStrengthTieBreak

	// GenesisTimestamp is the timestamp of the genesis header in seconds since the unix epoch.
	GenesisTimestamp uint64

	// GenesisPowAlgo is the algorithm recorded in the genesis header.
	GenesisPowAlgo model.PowAlgorithm
}

// ConsensusConstantsAt returns the constants in effect at height.
func (p *Params) ConsensusConstantsAt(height uint64) *ConsensusConstants {
	idx := sort.Search(len(p.ConsensusConstants), func(i int) bool {
		return p.ConsensusConstants[i].EffectiveFromHeight > height
	})

	if idx == 0 {
		// validated in init, the first entry always starts at 0
		return &p.ConsensusConstants[0]
	}

	return &p.ConsensusConstants[idx-1]
}

// GenesisHeader builds the genesis header of the network. It is deterministic so every node agrees on
// its hash.
func (p *Params) GenesisHeader() *model.BlockHeader {
	return &model.BlockHeader{
		Version:   1,
		Height:    0,
		Timestamp: p.GenesisTimestamp,
		Pow:       model.ProofOfWork{PowAlgo: p.GenesisPowAlgo},
	}
}

func (p *Params) validate() error {
	if len(p.ConsensusConstants) == 0 {
		return errors.NewConfigurationError("network %s has no consensus constants", p.Name)
	}

	if p.ConsensusConstants[0].EffectiveFromHeight != 0 {
		return errors.NewConfigurationError("network %s consensus constants must start at height 0", p.Name)
	}

	for i, cc := range p.ConsensusConstants {
		if i > 0 && cc.EffectiveFromHeight <= p.ConsensusConstants[i-1].EffectiveFromHeight {
			return errors.NewConfigurationError("network %s consensus constants are not ordered by height", p.Name)
		}

		if cc.MedianTimestampCount < 1 || cc.DifficultyBlockWindow < 1 {
			return errors.NewConfigurationError("network %s has empty timestamp or difficulty windows at height %d", p.Name, cc.EffectiveFromHeight)
		}

		for _, algo := range model.PowAlgorithms {
			pc, ok := cc.ProofOfWork[algo]
			if !ok {
				return errors.NewConfigurationError("network %s is missing %s constants at height %d", p.Name, algo, cc.EffectiveFromHeight)
			}

			if pc.MinDifficulty < model.MinDifficulty || pc.MinDifficulty > pc.MaxDifficulty || pc.TargetTime == 0 {
				return errors.NewConfigurationError("network %s has invalid %s constants at height %d", p.Name, algo, cc.EffectiveFromHeight)
			}
		}
	}

	return nil
}

var MainNetParams = Params{
	Name: "mainnet",
	ConsensusConstants: []ConsensusConstants{
		{
			EffectiveFromHeight:   0,
			FutureTimeLimit:       540,
			MedianTimestampCount:  11,
			DifficultyBlockWindow: 90,
			MaxRandomXSeedHeight:  3000,
			ProofOfWork: map[model.PowAlgorithm]PowAlgorithmConstants{
				model.PowAlgorithmMonero: {
					MinDifficulty: 1_200_000,
					MaxDifficulty: model.MaxDifficulty,
					TargetTime:    200,
				},
				model.PowAlgorithmSha3: {
					MinDifficulty: 60_000_000,
					MaxDifficulty: model.MaxDifficulty,
					TargetTime:    300,
				},
			},
		},
	},
	ChainStrengthTieBreaks: []ChainStrengthTieBreak{TieBreakHeight, TieBreakLowestHash},
	GenesisTimestamp:       1_714_118_400,
	GenesisPowAlgo:         model.PowAlgorithmSha3,
}

var TestNetParams = Params{
	Name: "testnet",
	ConsensusConstants: []ConsensusConstants{
		{
			EffectiveFromHeight:   0,
			FutureTimeLimit:       540,
			MedianTimestampCount:  11,
			DifficultyBlockWindow: 90,
			MaxRandomXSeedHeight:  3000,
			ProofOfWork: map[model.PowAlgorithm]PowAlgorithmConstants{
				model.PowAlgorithmMonero: {
					MinDifficulty: 60_000,
					MaxDifficulty: model.MaxDifficulty,
					TargetTime:    200,
				},
				model.PowAlgorithmSha3: {
					MinDifficulty: 60_000,
					MaxDifficulty: model.MaxDifficulty,
					TargetTime:    300,
				},
			},
		},
		{
			EffectiveFromHeight:   10_000,
			FutureTimeLimit:       540,
			MedianTimestampCount:  11,
			DifficultyBlockWindow: 90,
			MaxRandomXSeedHeight:  3000,
			ProofOfWork: map[model.PowAlgorithm]PowAlgorithmConstants{
				model.PowAlgorithmMonero: {
					MinDifficulty: 120_000,
					MaxDifficulty: model.MaxDifficulty,
					TargetTime:    240,
				},
				model.PowAlgorithmSha3: {
					MinDifficulty: 1_000_000,
					MaxDifficulty: model.MaxDifficulty,
					TargetTime:    240,
				},
			},
		},
	},
	ChainStrengthTieBreaks: []ChainStrengthTieBreak{TieBreakLowestHash},
	GenesisTimestamp:       1_711_929_600,
	GenesisPowAlgo:         model.PowAlgorithmSha3,
}

// LocalNetParams uses minimum difficulties and never expires RandomX seeds, for local test networks.
var LocalNetParams = Params{
	Name: "localnet",
	ConsensusConstants: []ConsensusConstants{
		{
			EffectiveFromHeight:   0,
			FutureTimeLimit:       540,
			MedianTimestampCount:  11,
			DifficultyBlockWindow: 90,
			MaxRandomXSeedHeight:  math.MaxUint64,
			ProofOfWork: map[model.PowAlgorithm]PowAlgorithmConstants{
				model.PowAlgorithmMonero: {
					MinDifficulty: model.MinDifficulty,
					MaxDifficulty: model.MaxDifficulty,
					TargetTime:    200,
				},
				model.PowAlgorithmSha3: {
					MinDifficulty: model.MinDifficulty,
					MaxDifficulty: model.MaxDifficulty,
					TargetTime:    300,
				},
			},
		},
	},
	ChainStrengthTieBreaks: []ChainStrengthTieBreak{TieBreakHeight},
	GenesisTimestamp:       1_700_000_000,
	GenesisPowAlgo:         model.PowAlgorithmSha3,
}

var registeredNets = make(map[string]*Params)

// Register registers the network parameters for a Tari network. Parameters are validated and names
// must be unique.
func Register(params *Params) error {
	if _, ok := registeredNets[params.Name]; ok {
		return errors.NewConfigurationError("duplicate network %s", params.Name)
	}

	if err := params.validate(); err != nil {
		return err
	}

	registeredNets[params.Name] = params

	return nil
}

func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("failed to register network: " + err.Error())
	}
}

func GetChainParams(network string) (*Params, error) {
	params, ok := registeredNets[network]
	if !ok {
		return nil, errors.NewConfigurationError("unknown network %s", network)
	}

	return params, nil
}

func init() {
	mustRegister(&MainNetParams)
	mustRegister(&TestNetParams)
	mustRegister(&LocalNetParams)
}
