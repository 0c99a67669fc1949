// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package keeper

import (
	"context"
	"time"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/harvester"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/core/strategy"
	"github.com/gulitsky/firedao-protocol/internal/core/vault"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
)

// EarnAll moves the idle funds of every active vault into its strategy.
func (k *Keeper) EarnAll(ctx context.Context) error {
	ids, err := k.active(ctx)
	if err != nil {
		return err
	}
	return k.each(ctx, "earn", ids, func(id string) error {
		_, err := k.Earn(ctx, id)
		return err
	})
}

// Earn moves the idle funds of a vault into its strategy.
func (k *Keeper) Earn(ctx context.Context, id string) (math.Int, error) {
	var moved math.Int
	err := k.ledger.Execute(ctx, "earn", func(st *state.State) error {
		var err error
		moved, err = k.ledger.Protocol().Vaults.Earn(st, id)
		return err
	})
	return moved, err
}

// ReinvestAll reinvests the rewards of every strategy that earns them.
func (k *Keeper) ReinvestAll(ctx context.Context) error {
	var ids []string
	err := k.ledger.View(ctx, func(st *state.State) error {
		var err error
		ids, err = strategy.List(st)
		return err
	})
	if err != nil {
		return err
	}
	return k.each(ctx, "reinvest", ids, func(id string) error {
		_, err := k.Reinvest(ctx, id)
		return err
	})
}

// Reinvest quotes the reinvestment of a strategy's rewards and executes it,
// accepting no less than the quote less the tolerated slippage. It does
// nothing if the strategy does not earn rewards or has none.
func (k *Keeper) Reinvest(ctx context.Context, id string) (math.Int, error) {
	var quote math.Int
	err := k.ledger.View(ctx, func(st *state.State) error {
		s, err := k.ledger.Protocol().Strategies.Load(st, id)
		if err != nil {
			return err
		}
		r, ok := s.(strategy.Reinvester)
		if !ok {
			quote = math.ZeroInt()
			return nil
		}
		quote, err = r.QuoteReinvest(st)
		return err
	})
	if err != nil || quote.IsZero() {
		return quote, err
	}

	var out math.Int
	deadline := k.deadline()
	err = k.ledger.Execute(ctx, "reinvest", func(st *state.State) error {
		s, err := k.ledger.Protocol().Strategies.Load(st, id)
		if err != nil {
			return err
		}
		out, err = s.(strategy.Reinvester).Reinvest(st, k.account, k.minOut(quote), deadline)
		return err
	})
	return out, err
}

// HarvestAll harvests the yield of every active vault.
func (k *Keeper) HarvestAll(ctx context.Context) error {
	ids, err := k.active(ctx)
	if err != nil {
		return err
	}
	return k.each(ctx, "harvest", ids, func(id string) error {
		_, err := k.Harvest(ctx, id)
		return err
	})
}

// Harvest builds a harvest of a vault's current yield from quotes and
// executes it. It returns nil if the vault has no yield.
func (k *Keeper) Harvest(ctx context.Context, id string) (*harvester.Result, error) {
	var req *harvester.Request
	err := k.ledger.View(ctx, func(st *state.State) error {
		var err error
		req, err = k.BuildHarvest(st, id)
		return err
	})
	if err != nil || req == nil {
		return nil, err
	}

	var r *harvester.Result
	err = k.ledger.Execute(ctx, "harvest", func(st *state.State) error {
		var err error
		r, err = k.ledger.Protocol().Harvester.HarvestVault(st, k.account, *req)
		return err
	})
	return r, err
}

// BuildHarvest builds a harvest request for a vault's current yield. The
// yield is swapped directly from the underlying to the target, and the
// buyback directly from the target to the buyback asset. Minimum outputs
// are the quotes less the tolerated slippage.
func (k *Keeper) BuildHarvest(st *state.State, id string) (*harvester.Request, error) {
	p := k.ledger.Protocol()
	v, err := vault.Get(st, id)
	if err != nil {
		return nil, err
	}
	yield, err := p.Vaults.UnderlyingYield(st, id)
	if err != nil {
		return nil, err
	}
	if yield.IsZero() {
		return nil, nil
	}

	// Nobody to credit. Fees left behind by the last depositor wait for the
	// next one.
	if !v.TotalShares.IsPositive() {
		return nil, nil
	}

	req := &harvester.Request{
		Vault:      id,
		Amount:     yield,
		MinBuyback: math.ZeroInt(),
		Deadline:   k.deadline(),
	}

	quote := yield
	if !v.Direct() {
		req.PathIn = []string{v.Underlying, v.Target}
		quote, err = p.Router.Quote(st, req.PathIn, yield)
		if err != nil {
			return nil, err
		}
	}
	req.MinOut = k.minOut(quote)

	cfg, err := harvester.Get(st)
	if err != nil {
		return nil, err
	}
	if cfg.BuybackBps == 0 || cfg.BuybackAsset == v.Target {
		return req, nil
	}

	req.PathOut = []string{v.Target, cfg.BuybackAsset}
	buyback := cfg.BuybackBps.Of(req.MinOut)
	if buyback.IsPositive() {
		bought, err := p.Router.Quote(st, req.PathOut, buyback)
		if err != nil {
			return nil, err
		}
		req.MinBuyback = k.minOut(bought)
	}
	return req, nil
}

// active returns the vaults that have a strategy and are not paused.
func (k *Keeper) active(ctx context.Context) ([]string, error) {
	var ids []string
	err := k.ledger.View(ctx, func(st *state.State) error {
		all, err := vault.List(st)
		if err != nil {
			return err
		}
		for _, id := range all {
			v, err := vault.Get(st, id)
			if err != nil {
				return err
			}
			if v.Strategy != "" && !v.Paused {
				ids = append(ids, id)
			}
		}
		return nil
	})
	return ids, err
}

// each runs fn for every ID. A failure is logged and does not stop the
// remaining IDs.
func (k *Keeper) each(ctx context.Context, job string, ids []string, fn func(string) error) error {
	var failed int
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := fn(id)
		if err != nil {
			failed++
			k.logger.WarnContext(ctx, "Upkeep failed", "job", job, "id", id, "error", err)
		}
	}
	if failed > 0 {
		return errors.UnknownError.WithFormat("%s failed for %d of %d", job, failed, len(ids))
	}
	return nil
}

func (k *Keeper) deadline() time.Time {
	return k.clock().UTC().Add(k.ttl)
}
