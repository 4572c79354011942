package settings

import (
	"net/url"
	"time"

	"github.com/tari-project/tari-sub016/chaincfg"
)

type HeaderSyncSettings struct {
	// CommitEveryN is how many validated headers are buffered before they are committed, once the
	// synced chain is stronger than the local chain.
	CommitEveryN int

	// InitialHeaderBufferCapacity pre-sizes the validated header buffer of a session.
	InitialHeaderBufferCapacity int

	// PowWorkers bounds how many proof of work verifications run at the same time.
	PowWorkers int64

	// RandomXVMCacheSize is the number of RandomX VMs, keyed by seed, kept warm.
	RandomXVMCacheSize int

	// RandomXFullMem enables the RandomX dataset (fast mode) instead of light mode.
	RandomXFullMem bool

	ValidateTimeout time.Duration
}

type BlockChainSettings struct {
	StoreURL *url.URL

	// HeaderCacheSize is the number of headers kept in the store's LRU cache.
	HeaderCacheSize int

	// TipCacheTTL is how long the chain tip is cached by the store.
	TipCacheTTL time.Duration

	// BadBlockFilterCapacity sizes the bloom filter in front of the bad block set.
	BadBlockFilterCapacity uint64

	PostgresMaxIdleConns int
	PostgresMaxOpenConns int

	// StoreRetryCount is how many times opening a SQL store is attempted while the database is
	// unavailable.
	StoreRetryCount   int
	StoreRetryBackoff time.Duration
}

type TracingSettings struct {
	Enabled      bool
	ServiceName  string
	CollectorURL *url.URL
	SampleRate   float64
}

type MetricsSettings struct {
	Enabled bool
	Address string
}

type Settings struct {
	ClientName     string
	DataFolder     string
	LogLevel       string
	ChainCfgParams *chaincfg.Params
	HeaderSync     HeaderSyncSettings
	BlockChain     BlockChainSettings
	Tracing        TracingSettings
	Metrics        MetricsSettings
}
