package headersync

import (
	"github.com/tari-project/tari-sub016/chaincfg"
	"github.com/tari-project/tari-sub016/model"
)

// ChainStrengthComparer orders two chain tips. Compare returns a positive value when a is the stronger
// tip, negative when b is, and 0 when neither wins.
type ChainStrengthComparer interface {
	Compare(a, b *model.ChainHeader) int
}

type compareFunc func(a, b *model.ChainHeader) int

type chainStrengthComparer struct {
	comparers []compareFunc
}

func (c *chainStrengthComparer) Compare(a, b *model.ChainHeader) int {
	for _, cmp := range c.comparers {
		if r := cmp(a, b); r != 0 {
			return r
		}
	}

	return 0
}

// ChainStrengthComparerBuilder chains comparison strategies, each one consulted only when all
// previous ones tie.
type ChainStrengthComparerBuilder struct {
	comparers []compareFunc
}

func NewChainStrengthComparerBuilder() *ChainStrengthComparerBuilder {
	return &ChainStrengthComparerBuilder{}
}

// ByAccumulatedDifficulty prefers the tip with the greater total accumulated difficulty.
func (b *ChainStrengthComparerBuilder) ByAccumulatedDifficulty() *ChainStrengthComparerBuilder {
	b.comparers = append(b.comparers, func(x, y *model.ChainHeader) int {
		return x.TotalAccumulatedDifficulty().Cmp(y.TotalAccumulatedDifficulty())
	})

	return b
}

// ByHeight prefers the longer chain.
func (b *ChainStrengthComparerBuilder) ByHeight() *ChainStrengthComparerBuilder {
	b.comparers = append(b.comparers, func(x, y *model.ChainHeader) int {
		switch {
		case x.Height() > y.Height():
			return 1
		case x.Height() < y.Height():
			return -1
		default:
			return 0
		}
	})

	return b
}

// ByLowestHash prefers the tip whose hash sorts first.
func (b *ChainStrengthComparerBuilder) ByLowestHash() *ChainStrengthComparerBuilder {
	b.comparers = append(b.comparers, func(x, y *model.ChainHeader) int {
		return y.Hash().Compare(x.Hash())
	})

	return b
}

func (b *ChainStrengthComparerBuilder) Build() ChainStrengthComparer {
	comparers := make([]compareFunc, len(b.comparers))
	copy(comparers, b.comparers)

	return &chainStrengthComparer{comparers: comparers}
}

// NewChainStrengthComparer builds the comparer for a network: accumulated difficulty first, then the
// network's tie breaks in order.
func NewChainStrengthComparer(params *chaincfg.Params) ChainStrengthComparer {
	b := NewChainStrengthComparerBuilder().ByAccumulatedDifficulty()

	for _, tieBreak := range params.ChainStrengthTieBreaks {
		switch tieBreak {
		case chaincfg.TieBreakHeight:
			b.ByHeight()
		case chaincfg.TieBreakLowestHash:
			b.ByLowestHash()
		}
	}

	return b.Build()
}
