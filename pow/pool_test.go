package pow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
)

func sha3Header() *model.BlockHeader {
	return &model.BlockHeader{Height: 1, Pow: model.ProofOfWork{PowAlgo: model.PowAlgorithmSha3}}
}

func TestPool_VerifyAchievesTarget(t *testing.T) {
	t.Run("achieves target", func(t *testing.T) {
		pool := NewPool(NewMockVerifier(100), 2)

		achieved, err := pool.VerifyAchievesTarget(context.Background(), sha3Header(), 50)
		require.NoError(t, err)
		assert.Equal(t, model.Difficulty(100), achieved.Achieved())
		assert.Equal(t, model.Difficulty(50), achieved.Target())
		assert.Equal(t, model.PowAlgorithmSha3, achieved.PowAlgo())
	})

	t.Run("below target", func(t *testing.T) {
		pool := NewPool(NewMockVerifier(10), 1)

		_, err := pool.VerifyAchievesTarget(context.Background(), sha3Header(), 50)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrDifficultyTooLow))

		var data *errors.Error
		require.True(t, errors.As(err, &data))
	})

	t.Run("verifier error", func(t *testing.T) {
		verifier := NewMockVerifier(10)
		verifier.Err = errors.NewInvalidPowError("bad hash")

		_, err := NewPool(verifier, 1).VerifyAchievesTarget(context.Background(), sha3Header(), 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidPow))
	})

	t.Run("canceled while verifying", func(t *testing.T) {
		verifier := NewMockVerifier(100)
		verifier.Block = make(chan struct{})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := NewPool(verifier, 1).VerifyAchievesTarget(ctx, sha3Header(), 1)
		require.Error(t, err)
		assert.True(t, errors.IsCanceled(err))
	})

	t.Run("canceled while waiting for a worker", func(t *testing.T) {
		verifier := NewMockVerifier(100)
		verifier.Block = make(chan struct{})
		pool := NewPool(verifier, 1)

		busyCtx, busyCancel := context.WithCancel(context.Background())
		defer busyCancel()

		go func() {
			_, _ = pool.VerifyAchievesTarget(busyCtx, sha3Header(), 1)
		}()

		require.Eventually(t, func() bool { return verifier.Calls() == 1 }, time.Second, time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := pool.VerifyAchievesTarget(ctx, sha3Header(), 1)
		require.Error(t, err)
		assert.True(t, errors.IsCanceled(err))
		assert.Equal(t, int64(1), verifier.Calls())
	})

	t.Run("per hash difficulty", func(t *testing.T) {
		verifier := NewMockVerifier(1)
		header := sha3Header()
		verifier.SetDifficulty(header.Hash(), 77)

		achieved, err := NewPool(verifier, 1).VerifyAchievesTarget(context.Background(), header, 1)
		require.NoError(t, err)
		assert.Equal(t, model.Difficulty(77), achieved.Achieved())
	})
}

func TestDefaultVerifier(t *testing.T) {
	v := NewVerifier(nil)

	d, err := v.AchievedDifficulty(context.Background(), sha3Header())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d, model.MinDifficulty)

	header := &model.BlockHeader{Pow: model.ProofOfWork{PowAlgo: model.PowAlgorithmMonero}}
	_, err = v.AchievedDifficulty(context.Background(), header)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedPowAlgo))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = v.AchievedDifficulty(ctx, sha3Header())
	assert.True(t, errors.IsCanceled(err))
}
