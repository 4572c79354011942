package headersync

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/settings"
	"github.com/tari-project/tari-sub016/stores/blockchain"
	"github.com/tari-project/tari-sub016/tracing"
	"github.com/tari-project/tari-sub016/ulogger"
)

// synchronizer states
const (
	StateIdle       = "IDLE"
	StateSyncing    = "SYNCING"
	StateCommitting = "COMMITTING"
	StateDone       = "DONE"
	StateFailed     = "FAILED"
)

// synchronizer events
const (
	EventStart  = "START"
	EventCommit = "COMMIT"
	EventResume = "RESUME"
	EventFinish = "FINISH"
	EventFail   = "FAIL"
	EventReset  = "RESET"
)

var stateValues = map[string]float64{
	StateIdle:       0,
	StateSyncing:    1,
	StateCommitting: 2,
	StateDone:       3,
	StateFailed:     4,
}

const defaultCommitEveryN = 1000

// SyncResult summarises a finished sync session.
type SyncResult struct {
	SessionID uuid.UUID
	Tip       *model.ChainHeader
	Validated int
	Committed int
	Skipped   int
}

// Synchronizer drives a Validator over a HeaderSource. Headers are kept in memory until the synced
// chain is stronger than the local tip, then committed in batches.
type Synchronizer struct {
	logger       ulogger.Logger
	store        blockchain.Store
	validator    *Validator
	commitEveryN int
	settings     *settings.Settings
	fsm          *fsm.FSM
}

func NewSynchronizer(logger ulogger.Logger, tSettings *settings.Settings, store blockchain.Store, validator *Validator) *Synchronizer {
	initPrometheusMetrics()

	commitEveryN := tSettings.HeaderSync.CommitEveryN
	if commitEveryN <= 0 {
		commitEveryN = defaultCommitEveryN
	}

	s := &Synchronizer{
		logger:       logger,
		store:        store,
		validator:    validator,
		commitEveryN: commitEveryN,
		settings:     tSettings,
	}

	s.fsm = NewFiniteStateMachine(fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			prometheusHeaderSyncState.Set(stateValues[e.Dst])
		},
	})

	return s
}

// NewFiniteStateMachine returns the synchronizer lifecycle:
// IDLE -> SYNCING <-> COMMITTING -> DONE, any active state -> FAILED, DONE or FAILED -> IDLE.
func NewFiniteStateMachine(callbacks fsm.Callbacks) *fsm.FSM {
	return fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: EventStart, Src: []string{StateIdle}, Dst: StateSyncing},
			{Name: EventCommit, Src: []string{StateSyncing}, Dst: StateCommitting},
			{Name: EventResume, Src: []string{StateCommitting}, Dst: StateSyncing},
			{Name: EventFinish, Src: []string{StateSyncing, StateCommitting}, Dst: StateDone},
			{Name: EventFail, Src: []string{StateIdle, StateSyncing, StateCommitting}, Dst: StateFailed},
			{Name: EventReset, Src: []string{StateDone, StateFailed}, Dst: StateIdle},
		},
		callbacks,
	)
}

// State is the current lifecycle state.
func (s *Synchronizer) State() string {
	return s.fsm.Current()
}

// Synchronize validates the headers of source on top of startHash. It fails with a weaker chain error
// when the synced chain never becomes stronger than the local tip, in which case nothing is committed.
func (s *Synchronizer) Synchronize(ctx context.Context, startHash model.FixedHash, source HeaderSource) (*SyncResult, error) {
	if state := s.fsm.Current(); state == StateDone || state == StateFailed {
		if err := s.fsm.Event(ctx, EventReset); err != nil {
			return nil, errors.NewSyncSessionError("cannot reset synchronizer from %s", state, err)
		}
	}

	if err := s.fsm.Event(ctx, EventStart); err != nil {
		return nil, errors.NewSyncSessionError("synchronizer is busy in state %s", s.fsm.Current(), err)
	}

	result := &SyncResult{SessionID: uuid.New()}

	ctx, _, deferFn := tracing.StartTracing(ctx, "headersync:Synchronize",
		tracing.WithTag("session", result.SessionID.String()),
		tracing.WithLogMessage(s.logger, "[Synchronize][%s] syncing headers from %s", result.SessionID, startHash),
	)

	err := s.synchronize(ctx, startHash, source, result)

	deferFn(err)

	if err != nil {
		s.logger.Warnf("[Synchronize][%s] session failed after %d validated headers: %v", result.SessionID, result.Validated, err)

		if fsmErr := s.fsm.Event(context.WithoutCancel(ctx), EventFail); fsmErr != nil {
			s.logger.Errorf("[Synchronize][%s] failed to record failure: %v", result.SessionID, fsmErr)
		}

		return result, err
	}

	if err = s.fsm.Event(ctx, EventFinish); err != nil {
		return result, errors.NewSyncSessionError("cannot finish session %s", result.SessionID, err)
	}

	s.logger.Infof("[Synchronize][%s] done, tip %s at height %d, %d committed, %d skipped", result.SessionID, result.Tip.Hash(), result.Tip.Height(), result.Committed, result.Skipped)

	return result, nil
}

func (s *Synchronizer) synchronize(ctx context.Context, startHash model.FixedHash, source HeaderSource, result *SyncResult) error {
	localTip, err := s.store.GetTipHeader(ctx)
	if err != nil {
		return err
	}

	if err = s.validator.InitializeState(ctx, startHash); err != nil {
		return err
	}

	switched := false
	pending := 0

	for {
		var header *model.BlockHeader

		header, err = source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return errors.NewSyncSessionError("failed to read header from source", err)
		}

		var exists bool

		if exists, err = s.store.HeaderExists(ctx, header.Hash()); err != nil {
			return err
		}

		if exists {
			s.logger.Warnf("[Synchronize][%s] received header %d that is already stored, ignoring", header.Hash(), header.Height)

			result.Skipped++

			continue
		}

		if err = s.validateHeader(ctx, header); err != nil {
			return err
		}

		result.Validated++
		pending++

		if switched {
			if pending >= s.commitEveryN {
				if err = s.commit(ctx, result); err != nil {
					return err
				}

				pending = 0
			}

			continue
		}

		var stronger bool

		if stronger, err = s.pendingChainIsStronger(localTip); err != nil {
			return err
		}

		if stronger {
			s.logger.Infof("[Synchronize][%s] synced chain is stronger than local tip %s, switching", result.SessionID, localTip.Hash())

			if err = s.commit(ctx, result); err != nil {
				return err
			}

			switched = true
			pending = 0
		}
	}

	if !switched {
		return errors.NewWeakerChainError("synced chain is not stronger than local tip %s at height %d", localTip.Hash(), localTip.Height())
	}

	if pending > 0 {
		return s.commit(ctx, result)
	}

	return nil
}

func (s *Synchronizer) validateHeader(ctx context.Context, header *model.BlockHeader) error {
	if timeout := s.settings.HeaderSync.ValidateTimeout; timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	_, err := s.validator.Validate(ctx, header)

	return err
}

func (s *Synchronizer) pendingChainIsStronger(localTip *model.ChainHeader) (bool, error) {
	pending, err := s.validator.CurrentValidChainTipHeader()
	if err != nil || pending == nil {
		return false, err
	}

	return s.validator.CompareChains(pending, localTip) > 0, nil
}

func (s *Synchronizer) commit(ctx context.Context, result *SyncResult) (err error) {
	if err = s.fsm.Event(ctx, EventCommit); err != nil {
		return errors.NewSyncSessionError("cannot commit in state %s", s.fsm.Current(), err)
	}

	ctx, _, deferFn := tracing.StartTracing(ctx, "headersync:commit",
		tracing.WithHistogram(prometheusHeaderSyncCommit),
	)
	defer func() { deferFn(err) }()

	var headers []*model.ChainHeader

	if headers, err = s.validator.TakeValidHeaders(); err != nil {
		return err
	}

	if len(headers) == 0 {
		return s.fsm.Event(ctx, EventResume)
	}

	if err = s.store.InsertValidHeaders(ctx, headers); err != nil {
		return err
	}

	result.Committed += len(headers)
	result.Tip = headers[len(headers)-1]
	prometheusHeaderSyncCommittedHeaders.Add(float64(len(headers)))

	s.logger.Debugf("[commit][%s] %d header(s) committed, tip %d", result.Tip.Hash(), len(headers), result.Tip.Height())

	return s.fsm.Event(ctx, EventResume)
}
