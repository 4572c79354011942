package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/pow"
	"github.com/tari-project/tari-sub016/services/headersync"
	"github.com/tari-project/tari-sub016/settings"
	"github.com/tari-project/tari-sub016/tracing"
	"github.com/tari-project/tari-sub016/ulogger"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func replay(c *cli.Context) error {
	tSettings := settings.NewSettings()
	logger := newLogger(tSettings)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tracing.InitTracer(tSettings); err != nil {
		logger.Warnf("failed to initialize tracer: %v", err)
	}

	defer func() {
		if err := tracing.ShutdownTracer(context.Background()); err != nil {
			logger.Warnf("failed to shut down tracer: %v", err)
		}
	}()

	input, err := openInput(c.String("file"))
	if err != nil {
		return err
	}

	defer func() {
		_ = input.Close()
	}()

	store, err := openStore(ctx, c, logger, tSettings)
	if err != nil {
		return err
	}

	defer func() {
		_ = store.Close()
	}()

	startHash, err := resolveStartHash(ctx, c.String("start"), store.GetTipHeader)
	if err != nil {
		return err
	}

	randomX, err := pow.NewRandomXFactory(logger, tSettings.HeaderSync.RandomXVMCacheSize, tSettings.HeaderSync.RandomXFullMem)
	if err != nil {
		return err
	}

	defer randomX.Close()

	validator := headersync.NewValidator(logger, store, pow.NewPool(pow.NewVerifier(randomX), tSettings.HeaderSync.PowWorkers),
		headersync.WithInitialHeaderBufferCapacity(tSettings.HeaderSync.InitialHeaderBufferCapacity),
	)

	synchronizer := headersync.NewSynchronizer(logger, tSettings, store, validator)

	g, gCtx := errgroup.WithContext(ctx)

	var server *http.Server

	if tSettings.Metrics.Enabled {
		server = newMetricsServer(tSettings.Metrics.Address)

		g.Go(func() error {
			logger.Infof("Starting prometheus endpoint on %s/metrics", tSettings.Metrics.Address)

			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return errors.NewProcessingError("metrics server failed", err)
			}

			return nil
		})
	}

	g.Go(func() error {
		defer shutdownServer(logger, server)

		result, err := synchronizer.Synchronize(gCtx, startHash, headersync.NewJSONHeaderSource(input))
		if result != nil {
			logger.Infof("session %s: %d validated, %d committed, %d skipped", result.SessionID, result.Validated, result.Committed, result.Skipped)
		}

		return err
	})

	return g.Wait()
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("cannot open header file %s", path, err)
	}

	return f, nil
}

// resolveStartHash parses raw, or falls back to the hash of the current tip when raw is empty.
func resolveStartHash(ctx context.Context, raw string, getTip func(context.Context) (*model.ChainHeader, error)) (model.FixedHash, error) {
	if raw != "" {
		return model.NewFixedHashFromString(raw)
	}

	tipHeader, err := getTip(ctx)
	if err != nil {
		return model.ZeroHash, err
	}

	return tipHeader.Hash(), nil
}

func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func shutdownServer(logger ulogger.Logger, server *http.Server) {
	if server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warnf("failed to shut down metrics server: %v", err)
	}
}
