// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package keeper performs the protocol's routine upkeep on a schedule:
// moving idle vault funds into strategies, reinvesting strategy rewards,
// and harvesting vault yield.
package keeper

import (
	"context"
	"log/slog"
	"time"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/config"
	"github.com/gulitsky/firedao-protocol/internal/core/protocol"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
	"github.com/gulitsky/firedao-protocol/pkg/types/amount"
	"github.com/robfig/cron/v3"
)

// Ledger executes operations against the protocol.
type Ledger interface {
	Protocol() *protocol.Protocol
	Execute(ctx context.Context, name string, fn func(st *state.State) error) error
	View(ctx context.Context, fn func(st *state.State) error) error
}

type Options struct {
	Ledger Ledger
	Config config.Keeper
	Logger *slog.Logger

	// Clock returns the current time. It defaults to time.Now.
	Clock func() time.Time
}

type Keeper struct {
	ledger   Ledger
	account  address.Address
	slippage amount.Bps
	ttl      time.Duration
	clock    func() time.Time
	logger   *slog.Logger
	cron     *cron.Cron
}

// New creates a keeper and schedules its jobs. Jobs with an empty schedule
// are not scheduled.
func New(opts Options) (*Keeper, error) {
	if opts.Ledger == nil {
		return nil, errors.BadRequest.With("missing ledger")
	}
	if opts.Config.Account == "" {
		return nil, errors.BadRequest.With("missing keeper account")
	}
	slippage := amount.Bps(opts.Config.SlippageBps)
	if err := slippage.Validate(); err != nil {
		return nil, err
	}

	k := new(Keeper)
	k.ledger = opts.Ledger
	k.account = address.Address(opts.Config.Account)
	k.slippage = slippage
	k.ttl = opts.Config.HarvestTTL
	k.clock = opts.Clock
	if k.clock == nil {
		k.clock = time.Now
	}
	k.logger = opts.Logger
	if k.logger == nil {
		k.logger = slog.Default()
	}
	k.logger = k.logger.With("module", "keeper")

	log := cronLogger{k.logger}
	k.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)

	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context) error
	}{
		{"earn", opts.Config.EarnSchedule, k.EarnAll},
		{"reinvest", opts.Config.ReinvestSchedule, k.ReinvestAll},
		{"harvest", opts.Config.HarvestSchedule, k.HarvestAll},
	}
	for _, job := range jobs {
		if job.schedule == "" {
			continue
		}
		_, err := k.cron.AddFunc(job.schedule, k.job(job.name, job.run))
		if err != nil {
			return nil, errors.BadRequest.WithFormat("%s schedule %q: %w", job.name, job.schedule, err)
		}
	}
	return k, nil
}

// Run runs scheduled jobs until the context is canceled, then waits for
// running jobs to finish.
func (k *Keeper) Run(ctx context.Context) error {
	k.cron.Start()
	k.logger.InfoContext(ctx, "Started", "account", k.account, "jobs", len(k.cron.Entries()))

	<-ctx.Done()
	<-k.cron.Stop().Done()
	k.logger.InfoContext(ctx, "Stopped")
	return nil
}

func (k *Keeper) job(name string, run func(context.Context) error) func() {
	return func() {
		start := time.Now()
		err := run(context.Background())
		if err != nil {
			k.logger.Error("Job failed", "job", name, "error", err)
			return
		}
		k.logger.Debug("Job completed", "job", name, "duration", time.Since(start))
	}
}

// minOut reduces a quote by the tolerated slippage.
func (k *Keeper) minOut(quote math.Int) math.Int {
	return k.slippage.Complement().Of(quote)
}

// cronLogger adapts slog to cron's logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
