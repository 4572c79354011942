package blockchain

import (
	"context"
	"time"

	"github.com/tari-project/tari-sub016/chaincfg"
	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/pow"
	"github.com/tari-project/tari-sub016/stores/blockchain/options"
	"github.com/tari-project/tari-sub016/tracing"
	"github.com/tari-project/tari-sub016/ulogger"
)

// store implements Store on top of a Backend. It owns the consensus aware parts: difficulty window
// reconstruction, seed age checks and the caches in front of the backend.
type store struct {
	logger    ulogger.Logger
	params    *chaincfg.Params
	backend   Backend
	tip       *tipCache
	badBlocks *badBlockFilter
}

// NewStoreFromBackend wraps backend and warms the bad block filter from it.
func NewStoreFromBackend(ctx context.Context, logger ulogger.Logger, params *chaincfg.Params, backend Backend, tipCacheTTL time.Duration, badBlockCapacity uint64) (Store, error) {
	s := &store{
		logger:    logger,
		params:    params,
		backend:   backend,
		tip:       newTipCache(tipCacheTTL),
		badBlocks: newBadBlockFilter(badBlockCapacity),
	}

	bad, err := backend.GetBadBlocks(ctx)
	if err != nil {
		s.tip.stop()
		return nil, errors.NewStorageError("failed to load bad blocks", err)
	}

	for _, hash := range bad {
		s.badBlocks.add(hash)
	}

	logger.Infof("[blockchain] store ready on %s, %d known bad blocks", params.Name, len(bad))

	return s, nil
}

func (s *store) ChainParams() *chaincfg.Params {
	return s.params
}

func (s *store) Close() error {
	s.tip.stop()
	return s.backend.Close()
}

func (s *store) GetChainHeader(ctx context.Context, hash model.FixedHash) (*model.ChainHeader, error) {
	return s.backend.GetChainHeader(ctx, hash)
}

func (s *store) GetHeaderByHash(ctx context.Context, hash model.FixedHash) (*model.BlockHeader, error) {
	ch, err := s.backend.GetChainHeader(ctx, hash)
	if err != nil {
		return nil, err
	}

	return ch.Header(), nil
}

func (s *store) GetHeaderAccumulatedData(ctx context.Context, hash model.FixedHash) (*model.BlockHeaderAccumulatedData, error) {
	ch, err := s.backend.GetChainHeader(ctx, hash)
	if err != nil {
		return nil, err
	}

	return ch.AccumulatedData(), nil
}

func (s *store) HeaderExists(ctx context.Context, hash model.FixedHash) (bool, error) {
	return s.backend.HeaderExists(ctx, hash)
}

func (s *store) GetBlockTimestamps(ctx context.Context, hash model.FixedHash, count int) ([]uint64, error) {
	if count <= 0 {
		return nil, nil
	}

	timestamps := make([]uint64, 0, count)
	current := hash

	for len(timestamps) < count {
		ch, err := s.backend.GetChainHeader(ctx, current)
		if err != nil {
			return nil, err
		}

		timestamps = append(timestamps, ch.Timestamp())

		if ch.Height() == 0 {
			break
		}

		current = ch.Header().PrevHash
	}

	// collected newest first
	for i, j := 0, len(timestamps)-1; i < j; i, j = i+1, j-1 {
		timestamps[i], timestamps[j] = timestamps[j], timestamps[i]
	}

	return timestamps, nil
}

type difficultySample struct {
	algo      model.PowAlgorithm
	timestamp uint64
	target    model.Difficulty
}

// GetTargetDifficultiesForNextBlock walks back from hash until every algorithm's window is full or the
// genesis block is reached. Genesis has no mined target and is not sampled.
func (s *store) GetTargetDifficultiesForNextBlock(ctx context.Context, hash model.FixedHash) (*pow.TargetDifficulties, error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "blockchain:GetTargetDifficultiesForNextBlock")

	var err error
	defer func() { deferFn(err) }()

	var start *model.ChainHeader

	if start, err = s.backend.GetChainHeader(ctx, hash); err != nil {
		return nil, err
	}

	cc := s.params.ConsensusConstantsAt(start.Height() + 1)
	capacity := cc.DifficultyBlockWindow + 1

	counts := make(map[model.PowAlgorithm]int, len(model.PowAlgorithms))
	samples := make([]difficultySample, 0, capacity*len(model.PowAlgorithms))
	current := start

	for current.Height() > 0 && !windowsFull(counts, capacity) {
		algo := current.PowAlgo()
		if counts[algo] < capacity {
			counts[algo]++

			samples = append(samples, difficultySample{
				algo:      algo,
				timestamp: current.Timestamp(),
				target:    current.AccumulatedData().TargetDifficulty(),
			})
		}

		if current, err = s.backend.GetChainHeader(ctx, current.Header().PrevHash); err != nil {
			return nil, err
		}
	}

	var targets *pow.TargetDifficulties

	if targets, err = pow.NewTargetDifficulties(cc); err != nil {
		return nil, err
	}

	for i := len(samples) - 1; i >= 0; i-- {
		if err = targets.AddBack(samples[i].algo, samples[i].timestamp, samples[i].target); err != nil {
			return nil, err
		}
	}

	return targets, nil
}

func windowsFull(counts map[model.PowAlgorithm]int, capacity int) bool {
	for _, algo := range model.PowAlgorithms {
		if counts[algo] < capacity {
			return false
		}
	}

	return true
}

func (s *store) GetTipHeader(ctx context.Context) (*model.ChainHeader, error) {
	if tip := s.tip.get(); tip != nil {
		return tip, nil
	}

	generation := s.tip.begin()

	hash, err := s.backend.GetTipHash(ctx)
	if err != nil {
		return nil, err
	}

	tip, err := s.backend.GetChainHeader(ctx, hash)
	if err != nil {
		return nil, errors.NewStorageError("tip %s is not stored", hash, err)
	}

	s.tip.set(generation, tip)

	return tip, nil
}

func (s *store) IsKnownBadBlock(ctx context.Context, hash model.FixedHash) (bool, error) {
	if !s.badBlocks.mayContain(hash) {
		return false, nil
	}

	return s.backend.IsBadBlock(ctx, hash)
}

func (s *store) SetBadBlock(ctx context.Context, hash model.FixedHash, height uint64, reason string) error {
	if err := s.backend.InsertBadBlock(ctx, hash, height, reason); err != nil {
		return err
	}

	s.badBlocks.add(hash)
	s.logger.Warnf("[blockchain] marked %s at height %d as bad: %s", hash, height, reason)

	return nil
}

func (s *store) CheckPowAuxiliaryData(ctx context.Context, header *model.BlockHeader) error {
	powData, err := pow.CheckPowData(header)
	if err != nil {
		return err
	}

	if powData == nil {
		return nil
	}

	seedHeight, err := s.FetchMoneroSeedFirstSeenHeight(ctx, powData.RandomXKey)
	if err != nil {
		return err
	}

	maxAge := s.params.ConsensusConstantsAt(header.Height).MaxRandomXSeedHeight

	if seedHeight != 0 && header.Height > seedHeight && header.Height-seedHeight > maxAge {
		return errors.NewOldSeedHashError("randomx seed first seen at %d is more than %d blocks older than %d", seedHeight, maxAge, header.Height)
	}

	return nil
}

func (s *store) FetchMoneroSeedFirstSeenHeight(ctx context.Context, seed []byte) (uint64, error) {
	height, found, err := s.backend.GetMoneroSeedHeight(ctx, seed)
	if err != nil {
		return 0, err
	}

	if !found {
		return 0, nil
	}

	return height, nil
}

func (s *store) InsertValidHeaders(ctx context.Context, headers []*model.ChainHeader) error {
	if len(headers) == 0 {
		return nil
	}

	ctx, _, deferFn := tracing.StartTracing(ctx, "blockchain:InsertValidHeaders",
		tracing.WithLogMessage(s.logger, "[blockchain] inserting %d headers up to %s", len(headers), headers[len(headers)-1].Hash()),
	)

	var err error
	defer func() { deferFn(err) }()

	seeds := make([]options.MoneroSeed, 0)

	for _, ch := range headers {
		var powData *pow.MoneroPowData

		if powData, err = pow.CheckPowData(ch.Header()); err != nil {
			return err
		}

		if powData != nil {
			seeds = append(seeds, options.MoneroSeed{Key: powData.RandomXKey, Height: ch.Height()})
		}
	}

	err = s.backend.InsertChainHeaders(ctx, headers, options.WithMoneroSeeds(seeds...))

	// invalidate even on failure, the backend may have been partially written by another writer
	s.tip.invalidate()

	return err
}

func (s *store) InsertGenesis(ctx context.Context) (*model.ChainHeader, error) {
	if _, err := s.backend.GetTipHash(ctx); err == nil {
		return s.GetTipHeader(ctx)
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	genesis := s.params.GenesisHeader()

	ch, err := model.TryConstructChainHeader(genesis, model.GenesisAccumulatedData(genesis))
	if err != nil {
		return nil, err
	}

	if err = s.backend.InsertChainHeaders(ctx, []*model.ChainHeader{ch}); err != nil {
		return nil, err
	}

	s.tip.invalidate()
	s.logger.Infof("[blockchain] inserted %s genesis %s", s.params.Name, ch.Hash())

	return ch, nil
}
