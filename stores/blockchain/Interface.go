package blockchain

import (
	"context"

	"github.com/tari-project/tari-sub016/chaincfg"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/pow"
	"github.com/tari-project/tari-sub016/stores/blockchain/options"
)

// Store is the blockchain database as seen by header sync. Missing values are reported with a not
// found error.
type Store interface {
	GetHeaderByHash(ctx context.Context, hash model.FixedHash) (*model.BlockHeader, error)
	GetChainHeader(ctx context.Context, hash model.FixedHash) (*model.ChainHeader, error)
	GetHeaderAccumulatedData(ctx context.Context, hash model.FixedHash) (*model.BlockHeaderAccumulatedData, error)
	HeaderExists(ctx context.Context, hash model.FixedHash) (bool, error)

	// GetBlockTimestamps returns up to count timestamps of the chain ending at hash, oldest first.
	GetBlockTimestamps(ctx context.Context, hash model.FixedHash, count int) ([]uint64, error)

	// GetTargetDifficultiesForNextBlock returns the difficulty windows of every algorithm for the block
	// following hash.
	GetTargetDifficultiesForNextBlock(ctx context.Context, hash model.FixedHash) (*pow.TargetDifficulties, error)

	GetTipHeader(ctx context.Context) (*model.ChainHeader, error)
	IsKnownBadBlock(ctx context.Context, hash model.FixedHash) (bool, error)
	SetBadBlock(ctx context.Context, hash model.FixedHash, height uint64, reason string) error

	// CheckPowAuxiliaryData checks the shape of the header's pow data and, for Monero headers, the age
	// of the RandomX seed.
	CheckPowAuxiliaryData(ctx context.Context, header *model.BlockHeader) error

	// FetchMoneroSeedFirstSeenHeight returns 0 for a seed that has never been stored.
	FetchMoneroSeedFirstSeenHeight(ctx context.Context, seed []byte) (uint64, error)

	// InsertValidHeaders stores headers atomically and moves the tip to the last one.
	InsertValidHeaders(ctx context.Context, headers []*model.ChainHeader) error

	// InsertGenesis stores the network's genesis header when the database is empty.
	InsertGenesis(ctx context.Context) (*model.ChainHeader, error)

	ChainParams() *chaincfg.Params
	Close() error
}

// Backend is the storage engine behind a Store.
type Backend interface {
	GetChainHeader(ctx context.Context, hash model.FixedHash) (*model.ChainHeader, error)
	HeaderExists(ctx context.Context, hash model.FixedHash) (bool, error)
	GetTipHash(ctx context.Context) (model.FixedHash, error)
	InsertChainHeaders(ctx context.Context, headers []*model.ChainHeader, opts ...options.InsertHeadersOption) error
	InsertBadBlock(ctx context.Context, hash model.FixedHash, height uint64, reason string) error
	IsBadBlock(ctx context.Context, hash model.FixedHash) (bool, error)
	GetBadBlocks(ctx context.Context) ([]model.FixedHash, error)
	GetMoneroSeedHeight(ctx context.Context, seed []byte) (uint64, bool, error)
	Close() error
}
