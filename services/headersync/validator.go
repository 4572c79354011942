// Package headersync validates block headers received during header sync and decides, by accumulated
// proof of work, whether a synced chain should replace the local one.
package headersync

import (
	"context"
	"slices"

	"github.com/benbjohnson/clock"
	"github.com/tari-project/tari-sub016/chaincfg"
	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/pow"
	"github.com/tari-project/tari-sub016/stores/blockchain"
	"github.com/tari-project/tari-sub016/tracing"
	"github.com/tari-project/tari-sub016/ulogger"
	"github.com/tari-project/tari-sub016/util"
	"lukechampine.com/uint128"
)

const defaultHeaderBufferCapacity = 1000

// Validator checks a stream of headers against consensus rules, one header at a time and in order.
// It is owned by a single sync session and is not safe for concurrent use.
type Validator struct {
	logger         ulogger.Logger
	store          blockchain.Store
	params         *chaincfg.Params
	pool           *pow.Pool
	comparer       ChainStrengthComparer
	clock          clock.Clock
	bufferCapacity int

	state *validatorState
}

type ValidatorOption func(*Validator)

// WithClock replaces the wall clock used for the future time limit.
func WithClock(c clock.Clock) ValidatorOption {
	return func(v *Validator) {
		v.clock = c
	}
}

func WithInitialHeaderBufferCapacity(n int) ValidatorOption {
	return func(v *Validator) {
		v.bufferCapacity = n
	}
}

func WithChainStrengthComparer(c ChainStrengthComparer) ValidatorOption {
	return func(v *Validator) {
		v.comparer = c
	}
}

func NewValidator(logger ulogger.Logger, store blockchain.Store, pool *pow.Pool, opts ...ValidatorOption) *Validator {
	initPrometheusMetrics()

	v := &Validator{
		logger:         logger,
		store:          store,
		params:         store.ChainParams(),
		pool:           pool,
		clock:          clock.New(),
		bufferCapacity: defaultHeaderBufferCapacity,
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.comparer == nil {
		v.comparer = NewChainStrengthComparer(v.params)
	}

	return v
}

// InitializeState loads everything needed to validate the child of startHash. Any previous state is
// replaced.
func (v *Validator) InitializeState(ctx context.Context, startHash model.FixedHash) error {
	ctx, _, deferFn := tracing.StartTracing(ctx, "headersync:InitializeState",
		tracing.WithLogMessage(v.logger, "[InitializeState][%s] initializing validator state", startHash),
	)

	var err error
	defer func() { deferFn(err) }()

	var header *model.BlockHeader

	if header, err = v.store.GetHeaderByHash(ctx, startHash); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			err = errors.NewStartHashNotFoundError("start hash %s not found", startHash, err)
		}

		return err
	}

	cc := v.params.ConsensusConstantsAt(header.Height + 1)

	var timestamps []uint64

	if timestamps, err = v.store.GetBlockTimestamps(ctx, startHash, cc.MedianTimestampCount); err != nil {
		return err
	}

	timestampWindow := util.NewRollingWindow[uint64](cc.MedianTimestampCount)
	for _, ts := range timestamps {
		util.InsertSorted(timestampWindow, ts)
	}

	var targetDifficulties *pow.TargetDifficulties

	if targetDifficulties, err = v.store.GetTargetDifficultiesForNextBlock(ctx, startHash); err != nil {
		return err
	}

	var accumulatedData *model.BlockHeaderAccumulatedData

	if accumulatedData, err = v.store.GetHeaderAccumulatedData(ctx, startHash); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			err = errors.NewNotFoundError("value not found: accumulated data of %s", startHash, err)
		}

		return err
	}

	v.state = &validatorState{
		currentHeight:      header.Height,
		timestamps:         timestampWindow,
		targetDifficulties: targetDifficulties,
		previousAccum:      accumulatedData,
		validHeaders:       make([]*model.ChainHeader, 0, v.bufferCapacity),
	}

	prometheusHeaderSyncHeight.Set(float64(header.Height))

	return nil
}

// Validate runs every consensus check on header and, only if all pass, appends it to the valid
// headers. It returns the total accumulated difficulty of the chain ending at header.
func (v *Validator) Validate(ctx context.Context, header *model.BlockHeader) (uint128.Uint128, error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "headersync:Validate",
		tracing.WithHistogram(prometheusHeaderSyncValidate),
	)

	total, err := v.validate(ctx, header)

	deferFn(err)

	if err != nil {
		prometheusHeaderSyncRejected.WithLabelValues(errorReason(err)).Inc()
		return uint128.Zero, err
	}

	prometheusHeaderSyncValidated.Inc()
	prometheusHeaderSyncHeight.Set(float64(header.Height))

	return total, nil
}

func (v *Validator) validate(ctx context.Context, header *model.BlockHeader) (uint128.Uint128, error) {
	state := v.state
	if state == nil {
		return uint128.Zero, errors.NewNotInitializedError("Validate called before InitializeState")
	}

	if err := ctx.Err(); err != nil {
		return uint128.Zero, errors.NewContextCanceledError("validation of header %d canceled", header.Height, err)
	}

	if expected := state.currentHeight + 1; header.Height != expected {
		return uint128.Zero, errors.NewInvalidBlockHeightError(expected, header.Height)
	}

	if header.PrevHash != state.previousAccum.Hash {
		return uint128.Zero, errors.NewChainLinkBrokenError(header.PrevHash.String(), state.previousAccum.Hash.String())
	}

	cc := v.params.ConsensusConstantsAt(header.Height)

	if err := v.checkTimestamp(header, cc, state); err != nil {
		return uint128.Zero, err
	}

	window, err := state.targetDifficulties.Get(header.PowAlgo())
	if err != nil {
		return uint128.Zero, err
	}

	target, err := window.CalculateTarget(cc.MinPowDifficulty(header.PowAlgo()), cc.MaxPowDifficulty(header.PowAlgo()))
	if err != nil {
		return uint128.Zero, err
	}

	achieved, err := v.pool.VerifyAchievesTarget(ctx, header, target)
	if err != nil {
		return uint128.Zero, err
	}

	hash := header.Hash()

	bad, err := v.store.IsKnownBadBlock(ctx, hash)
	if err != nil {
		return uint128.Zero, err
	}

	if bad {
		return uint128.Zero, errors.NewBadBlockError("header %s at height %d is a known bad block", hash, header.Height)
	}

	if err = v.store.CheckPowAuxiliaryData(ctx, header); err != nil {
		return uint128.Zero, err
	}

	accumulatedData, err := model.NewAccumulatedDataBuilder(state.previousAccum).
		WithHash(hash).
		WithTotalKernelOffset(header.TotalKernelOffset).
		WithAchievedTargetDifficulty(achieved).
		Build()
	if err != nil {
		return uint128.Zero, err
	}

	chainHeader, err := model.TryConstructChainHeader(header, accumulatedData)
	if err != nil {
		return uint128.Zero, err
	}

	next, err := state.next(chainHeader, target, v.params.ConsensusConstantsAt(header.Height+1))
	if err != nil {
		return uint128.Zero, err
	}

	v.state = next

	v.logger.Debugf("[Validate][%s] header %d valid, achieved %s, total %s", hash, header.Height, achieved, accumulatedData.TotalAccumulatedDifficulty)

	return accumulatedData.TotalAccumulatedDifficulty, nil
}

func (v *Validator) checkTimestamp(header *model.BlockHeader, cc *chaincfg.ConsensusConstants, state *validatorState) error {
	now := v.clock.Now().Unix()
	if now < 0 {
		now = 0
	}

	ftl := uint64(now) + cc.FutureTimeLimit
	if header.Timestamp > ftl {
		return errors.NewFutureTimeLimitError("header %d timestamp %d is beyond the future time limit %d", header.Height, header.Timestamp, ftl)
	}

	if state.timestamps.IsEmpty() {
		return nil
	}

	median, err := util.CalcMedianTimestamp(state.timestamps.Items())
	if err != nil {
		return err
	}

	if header.Timestamp <= median {
		return errors.NewTimestampTooEarlyError("header %d timestamp %d is not after the median timestamp %d", header.Height, header.Timestamp, median)
	}

	return nil
}

// TakeValidHeaders returns the validated headers and empties the buffer.
func (v *Validator) TakeValidHeaders() ([]*model.ChainHeader, error) {
	if v.state == nil {
		return nil, errors.NewNotInitializedError("TakeValidHeaders called before InitializeState")
	}

	headers := v.state.validHeaders

	// a shallow copy keeps the drained slice out of reach of later appends
	drained := *v.state
	drained.validHeaders = make([]*model.ChainHeader, 0, v.bufferCapacity)
	v.state = &drained

	return headers, nil
}

// ValidHeaders returns a copy of the validated headers still buffered.
func (v *Validator) ValidHeaders() ([]*model.ChainHeader, error) {
	if v.state == nil {
		return nil, errors.NewNotInitializedError("ValidHeaders called before InitializeState")
	}

	return slices.Clone(v.state.validHeaders), nil
}

// CurrentValidChainTipHeader returns the last buffered header, or nil when the buffer is empty.
func (v *Validator) CurrentValidChainTipHeader() (*model.ChainHeader, error) {
	if v.state == nil {
		return nil, errors.NewNotInitializedError("CurrentValidChainTipHeader called before InitializeState")
	}

	if len(v.state.validHeaders) == 0 {
		return nil, nil
	}

	return v.state.validHeaders[len(v.state.validHeaders)-1], nil
}

// CompareChains orders two tips by chain strength: positive when ours is the stronger tip, negative
// when theirs is.
func (v *Validator) CompareChains(ours, theirs *model.ChainHeader) int {
	return v.comparer.Compare(ours, theirs)
}

func errorReason(err error) string {
	var tErr *errors.Error
	if errors.As(err, &tErr) {
		return tErr.Code().String()
	}

	return errors.ERR_UNKNOWN.String()
}
