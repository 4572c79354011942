package pow

import (
	"context"

	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
	"golang.org/x/sync/semaphore"
)

// Pool runs proof of work verification on goroutines bounded by a weighted semaphore, so hashing does
// not run on the caller's goroutine and a canceled context returns immediately.
type Pool struct {
	verifier Verifier
	sem      *semaphore.Weighted
}

func NewPool(verifier Verifier, workers int64) *Pool {
	if workers < 1 {
		workers = 1
	}

	return &Pool{
		verifier: verifier,
		sem:      semaphore.NewWeighted(workers),
	}
}

type verifyResult struct {
	achieved model.AchievedTargetDifficulty
	err      error
}

// VerifyAchievesTarget is VerifyAchievesTarget run on the pool. When ctx is done first the result of
// the in-flight verification is discarded.
func (p *Pool) VerifyAchievesTarget(ctx context.Context, header *model.BlockHeader, target model.Difficulty) (model.AchievedTargetDifficulty, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return model.AchievedTargetDifficulty{}, errors.NewContextCanceledError("waiting for a proof of work worker", err)
	}

	resultCh := make(chan verifyResult, 1)

	go func() {
		defer p.sem.Release(1)

		achieved, err := VerifyAchievesTarget(ctx, p.verifier, header, target)
		resultCh <- verifyResult{achieved: achieved, err: err}
	}()

	select {
	case <-ctx.Done():
		return model.AchievedTargetDifficulty{}, errors.NewContextCanceledError("proof of work verification canceled", ctx.Err())
	case res := <-resultCh:
		return res.achieved, res.err
	}
}
