// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package daemon assembles and runs vaultd: the node, its HTTP API, the
// metrics endpoint, and the keeper.
package daemon

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gulitsky/firedao-protocol/config"
	"github.com/gulitsky/firedao-protocol/internal/api"
	"github.com/gulitsky/firedao-protocol/internal/core/protocol"
	"github.com/gulitsky/firedao-protocol/internal/events"
	"github.com/gulitsky/firedao-protocol/internal/keeper"
	"github.com/gulitsky/firedao-protocol/internal/logging"
	"github.com/gulitsky/firedao-protocol/internal/node"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue/badger"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue/bolt"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue/leveldb"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue/memory"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type Daemon struct {
	config *config.Config
	logger *slog.Logger
	db     keyvalue.Beginner
	node   *node.Node
	keeper *keeper.Keeper

	api     *http.Server
	apiL    net.Listener
	metrics *http.Server
	metricL net.Listener
}

// NewLogger creates the daemon's logger from the logging configuration.
func NewLogger(cfg config.Logging, w io.Writer) (*slog.Logger, error) {
	levels, err := logging.ParseLevels(cfg.Level)
	if err != nil {
		return nil, err
	}
	if cfg.Format != config.LogFormatJSON {
		w = logging.ConsoleSlogWriter(w, cfg.Color)
	}
	h, err := logging.NewSlogHandler(levels, w)
	if err != nil {
		return nil, err
	}
	return slog.New(h), nil
}

// New opens the database, applies the genesis if the database is empty, and
// binds the listeners. Nothing is served until Run is called.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *Daemon, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Daemon{config: cfg, logger: logger.With("module", "daemon")}
	defer func() {
		if err != nil {
			d.close()
		}
	}()

	switch cfg.Storage.Type {
	case config.MemoryStorage:
		d.db = memory.New()
	case config.BadgerStorage:
		d.db, err = badger.New(cfg.StoragePath(), badger.WithLogger(logger))
		if err != nil {
			return nil, err
		}
	case config.BoltStorage:
		d.db, err = bolt.Open(cfg.StoragePath())
		if err != nil {
			return nil, err
		}
	case config.LevelDBStorage:
		d.db, err = leveldb.OpenFile(cfg.StoragePath())
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.BadRequest.WithFormat("unknown storage type %q", cfg.Storage.Type)
	}

	bus := events.NewBus(logger)
	logEvents(bus, logger)

	d.node, err = node.New(ctx, node.Options{
		Database: d.db,
		Protocol: protocol.New(logger),
		Genesis:  &cfg.Genesis,
		Events:   bus,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	handler, err := api.NewHandler(api.Options{Ledger: d.node, Logger: logger, DisableAdmin: cfg.API.DisableAdmin})
	if err != nil {
		return nil, err
	}
	d.api = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: cfg.API.ReadTimeout,
		ReadTimeout:       cfg.API.ReadTimeout,
		WriteTimeout:      cfg.API.WriteTimeout,
	}
	d.apiL, err = net.Listen("tcp", cfg.API.ListenAddress)
	if err != nil {
		return nil, errors.UnknownError.WithFormat("listen on %s: %w", cfg.API.ListenAddress, err)
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		d.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		d.metricL, err = net.Listen("tcp", cfg.Metrics.ListenAddress)
		if err != nil {
			return nil, errors.UnknownError.WithFormat("listen on %s: %w", cfg.Metrics.ListenAddress, err)
		}
	}

	if cfg.Keeper.Enabled {
		d.keeper, err = keeper.New(keeper.Options{
			Ledger: d.node,
			Config: cfg.Keeper,
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Daemon) Node() *node.Node { return d.node }

// APIAddress returns the address the API is listening on.
func (d *Daemon) APIAddress() net.Addr { return d.apiL.Addr() }

// MetricsAddress returns the address the metrics endpoint is listening on,
// or nil if metrics are disabled.
func (d *Daemon) MetricsAddress() net.Addr {
	if d.metricL == nil {
		return nil
	}
	return d.metricL.Addr()
}

// Run serves until the context is canceled or a service fails, then shuts
// every service down and closes the database.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.close()

	g, ctx := errgroup.WithContext(ctx)
	serve := func(name string, s *http.Server, l net.Listener) {
		g.Go(func() error {
			d.logger.InfoContext(ctx, "Listening", "service", name, "address", l.Addr())
			err := s.Serve(l)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return errors.UnknownError.WithFormat("%s: %w", name, err)
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return s.Shutdown(sctx)
		})
	}

	serve("api", d.api, d.apiL)
	if d.metrics != nil {
		serve("metrics", d.metrics, d.metricL)
	}
	if d.keeper != nil {
		g.Go(func() error { return d.keeper.Run(ctx) })
	}

	head := d.node.Head()
	d.logger.InfoContext(ctx, "Running", "height", head.Height, "time", head.Time)
	err := g.Wait()
	d.logger.InfoContext(context.Background(), "Stopped", "error", err)
	return err
}

func (d *Daemon) close() {
	for _, l := range []net.Listener{d.apiL, d.metricL} {
		if l != nil {
			_ = l.Close()
		}
	}
	if c, ok := d.db.(io.Closer); ok {
		err := c.Close()
		if err != nil {
			d.logger.Error("Failed to close database", "error", err)
		}
	}
}

// logEvents logs the events operators care about.
func logEvents(bus *events.Bus, logger *slog.Logger) {
	logger = logger.With("module", "events")
	events.SubscribeSync(bus, func(e events.Harvested) {
		logger.Info("Harvested", "vault", e.Vault, "yield", e.Yield, "profit", e.Profit, "fee", e.Fee)
	})
	events.SubscribeSync(bus, func(e events.StrategyChanged) {
		logger.Info("Strategy changed", "vault", e.Vault, "old", e.Old, "new", e.New, "forced", e.Forced)
	})
	events.SubscribeSync(bus, func(e events.ActionExecuted) {
		logger.Info("Action executed", "id", e.ID, "target", e.Target, "method", e.Method)
	})
}
