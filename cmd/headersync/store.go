package main

import (
	"context"
	"net/url"

	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/settings"
	"github.com/tari-project/tari-sub016/stores/blockchain"
	"github.com/tari-project/tari-sub016/ulogger"
	"github.com/urfave/cli/v2"
)

func newLogger(tSettings *settings.Settings) ulogger.Logger {
	return ulogger.New(progname, ulogger.WithLevel(tSettings.LogLevel))
}

// openStore opens the configured store and makes sure it holds the genesis header.
func openStore(ctx context.Context, c *cli.Context, logger ulogger.Logger, tSettings *settings.Settings) (blockchain.Store, error) {
	storeURL := tSettings.BlockChain.StoreURL

	if raw := c.String("store"); raw != "" {
		parsed, err := url.Parse(raw)
		if err != nil {
			return nil, errors.NewConfigurationError("invalid store url %q", raw, err)
		}

		storeURL = parsed
	}

	if storeURL == nil {
		return nil, errors.NewConfigurationError("no blockchain store configured")
	}

	store, err := blockchain.NewStore(ctx, logger, tSettings, storeURL)
	if err != nil {
		return nil, err
	}

	if _, err = store.InsertGenesis(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	return store, nil
}
