package blockchain

import (
	"context"
	"net/url"

	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/settings"
	"github.com/tari-project/tari-sub016/stores/blockchain/leveldb"
	"github.com/tari-project/tari-sub016/stores/blockchain/memory"
	"github.com/tari-project/tari-sub016/stores/blockchain/sql"
	"github.com/tari-project/tari-sub016/ulogger"
	"github.com/tari-project/tari-sub016/util/retry"
)

// NewStore opens the backend selected by the scheme of storeURL and wraps it in a Store for the
// network in tSettings.
func NewStore(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, storeURL *url.URL) (Store, error) {
	if storeURL == nil {
		return nil, errors.NewConfigurationError("no blockchain store url configured")
	}

	var (
		backend Backend
		err     error
	)

	switch storeURL.Scheme {
	case "memory":
		backend = memory.New()
	case "postgres", "sqlitememory", "sqlite":
		backend, err = retry.Retry(ctx, logger, func() (*sql.SQL, error) {
			return sql.New(logger, storeURL, tSettings)
		},
			retry.WithRetryCount(tSettings.BlockChain.StoreRetryCount),
			retry.WithBackoffDurationType(tSettings.BlockChain.StoreRetryBackoff),
			retry.WithRetryIf(errors.IsStorageError),
			retry.WithMessage("opening "+storeURL.Scheme+" blockchain store"),
		)
	case "leveldb":
		backend, err = leveldb.New(logger, storeURL, tSettings.DataFolder)
	default:
		return nil, errors.NewConfigurationError("unknown scheme: %s", storeURL.Scheme)
	}

	if err != nil {
		return nil, err
	}

	s, err := NewStoreFromBackend(ctx, logger, tSettings.ChainCfgParams, backend, tSettings.BlockChain.TipCacheTTL, tSettings.BlockChain.BadBlockFilterCapacity)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	return s, nil
}
