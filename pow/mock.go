package pow

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tari-project/tari-sub016/model"
)

// MockVerifier returns a fixed difficulty, or a per hash override, without hashing anything.
type MockVerifier struct {
	Difficulty model.Difficulty
	Err        error

	// Block, when set, is waited on before answering, or until the context is done.
	Block chan struct{}

	mu     sync.Mutex
	byHash map[model.FixedHash]model.Difficulty
	calls  atomic.Int64
}

func NewMockVerifier(difficulty model.Difficulty) *MockVerifier {
	return &MockVerifier{
		Difficulty: difficulty,
		byHash:     make(map[model.FixedHash]model.Difficulty),
	}
}

func (m *MockVerifier) SetDifficulty(hash model.FixedHash, difficulty model.Difficulty) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byHash[hash] = difficulty
}

func (m *MockVerifier) Calls() int64 {
	return m.calls.Load()
}

func (m *MockVerifier) AchievedDifficulty(ctx context.Context, header *model.BlockHeader) (model.Difficulty, error) {
	m.calls.Add(1)

	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	if m.Err != nil {
		return 0, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if d, ok := m.byHash[header.Hash()]; ok {
		return d, nil
	}

	return m.Difficulty, nil
}
