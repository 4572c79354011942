// Package memory is an in-process blockchain backend, used by tests and by the replay tool.
package memory

import (
	"context"
	"sync"

	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/stores/blockchain/options"
	fasthex "github.com/tmthrgd/go-hex"
)

type badBlock struct {
	height uint64
	reason string
}

type Memory struct {
	mu          sync.RWMutex
	headers     map[model.FixedHash]*model.ChainHeader
	tip         *model.FixedHash
	badBlocks   map[model.FixedHash]badBlock
	moneroSeeds map[string]uint64

	// InsertErr, when set, fails the next InsertChainHeaders call without writing anything.
	InsertErr error
}

func New() *Memory {
	return &Memory{
		headers:     make(map[model.FixedHash]*model.ChainHeader),
		badBlocks:   make(map[model.FixedHash]badBlock),
		moneroSeeds: make(map[string]uint64),
	}
}

func (m *Memory) GetChainHeader(_ context.Context, hash model.FixedHash) (*model.ChainHeader, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ch, ok := m.headers[hash]
	if !ok {
		return nil, errors.NewNotFoundError("header %s not found", hash)
	}

	return ch, nil
}

func (m *Memory) HeaderExists(_ context.Context, hash model.FixedHash) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.headers[hash]

	return ok, nil
}

func (m *Memory) GetTipHash(_ context.Context) (model.FixedHash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.tip == nil {
		return model.FixedHash{}, errors.NewNotFoundError("no chain tip stored")
	}

	return *m.tip, nil
}

func (m *Memory) InsertChainHeaders(_ context.Context, headers []*model.ChainHeader, opts ...options.InsertHeadersOption) error {
	o := options.ProcessInsertHeadersOptions(opts...)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.InsertErr != nil {
		err := m.InsertErr
		m.InsertErr = nil

		return errors.NewStorageError("insert failed", err)
	}

	for _, ch := range headers {
		if _, ok := m.headers[ch.Hash()]; ok {
			return errors.NewHeaderAlreadyExistsError("header %s already exists", ch.Hash())
		}
	}

	for _, ch := range headers {
		m.headers[ch.Hash()] = ch
	}

	for _, seed := range o.MoneroSeeds {
		key := fasthex.EncodeToString(seed.Key)
		if height, ok := m.moneroSeeds[key]; !ok || seed.Height < height {
			m.moneroSeeds[key] = seed.Height
		}
	}

	if len(headers) > 0 && !o.SkipTipUpdate {
		hash := headers[len(headers)-1].Hash()
		m.tip = &hash
	}

	return nil
}

func (m *Memory) InsertBadBlock(_ context.Context, hash model.FixedHash, height uint64, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.badBlocks[hash] = badBlock{height: height, reason: reason}

	return nil
}

func (m *Memory) IsBadBlock(_ context.Context, hash model.FixedHash) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.badBlocks[hash]

	return ok, nil
}

func (m *Memory) GetBadBlocks(_ context.Context) ([]model.FixedHash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hashes := make([]model.FixedHash, 0, len(m.badBlocks))
	for hash := range m.badBlocks {
		hashes = append(hashes, hash)
	}

	return hashes, nil
}

func (m *Memory) GetMoneroSeedHeight(_ context.Context, seed []byte) (uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	height, ok := m.moneroSeeds[fasthex.EncodeToString(seed)]

	return height, ok, nil
}

// Len returns the number of stored headers.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.headers)
}

func (m *Memory) Close() error {
	return nil
}
