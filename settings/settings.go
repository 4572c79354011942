package settings

import (
	"strconv"
	"time"

	"github.com/tari-project/tari-sub016/chaincfg"
)

func NewSettings() *Settings {
	params, err := chaincfg.GetChainParams(getString("network", "mainnet"))
	if err != nil {
		panic(err)
	}

	sampleRate, err := strconv.ParseFloat(getString("tracing_sampleRate", "0.01"), 64)
	if err != nil {
		sampleRate = 0.01
	}

	return &Settings{
		ClientName:     getString("clientName", "defaultClientName"),
		DataFolder:     getString("dataFolder", "data"),
		LogLevel:       getString("logLevel", "INFO"),
		ChainCfgParams: params,
		HeaderSync: HeaderSyncSettings{
			CommitEveryN:                getInt("headersync_commitEveryN", 1000),
			InitialHeaderBufferCapacity: getInt("headersync_initialHeaderBufferCapacity", 1000),
			PowWorkers:                  int64(getInt("headersync_powWorkers", 4)),
			RandomXVMCacheSize:          getInt("headersync_randomxVMCacheSize", 2),
			RandomXFullMem:              getBool("headersync_randomxFullMem", false),
			ValidateTimeout:             getDuration("headersync_validateTimeout", 30*time.Second),
		},
		BlockChain: BlockChainSettings{
			StoreURL:               getURL("blockchain_store", "sqlite:///blockchain"),
			HeaderCacheSize:        getInt("blockchain_headerCacheSize", 10_000),
			TipCacheTTL:            getDuration("blockchain_tipCacheTTL", 2*time.Second),
			BadBlockFilterCapacity: getUint64("blockchain_badBlockFilterCapacity", 100_000),
			PostgresMaxIdleConns:   getInt("blockchain_postgresMaxIdleConns", 10),
			PostgresMaxOpenConns:   getInt("blockchain_postgresMaxOpenConns", 80),
			StoreRetryCount:        getInt("blockchain_storeRetryCount", 3),
			StoreRetryBackoff:      getDuration("blockchain_storeRetryBackoff", time.Second),
		},
		Tracing: TracingSettings{
			Enabled:      getBool("tracing_enabled", false),
			ServiceName:  getString("tracing_serviceName", "headersync"),
			CollectorURL: getURL("tracing_collectorURL", "http://localhost:4318"),
			SampleRate:   sampleRate,
		},
		Metrics: MetricsSettings{
			Enabled: getBool("metrics_enabled", true),
			Address: getMultiString("metrics_listenAddress", ":9091")[0],
		},
	}
}
