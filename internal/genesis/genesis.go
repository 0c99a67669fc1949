// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package genesis builds the initial state of the protocol from its
// configuration.
package genesis

import (
	"encoding/json"
	"log/slog"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/config"
	"github.com/gulitsky/firedao-protocol/internal/core/bank"
	"github.com/gulitsky/firedao-protocol/internal/core/farm"
	"github.com/gulitsky/firedao-protocol/internal/core/harvester"
	"github.com/gulitsky/firedao-protocol/internal/core/protocol"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/core/strategy"
	"github.com/gulitsky/firedao-protocol/internal/core/vault"
	"github.com/gulitsky/firedao-protocol/internal/yieldsource"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
	"github.com/gulitsky/firedao-protocol/pkg/types/amount"
)

// Apply writes the genesis state. It is executed as a single operation and
// must be committed or discarded by the caller.
func Apply(st *state.State, p *protocol.Protocol, g *config.Genesis, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("module", "genesis")

	steps := []struct {
		name string
		fn   func(*state.State, *protocol.Protocol, *config.Genesis) error
	}{
		{"assets", applyAssets},
		{"balances", applyBalances},
		{"pairs", applyPairs},
		{"sources", applySources},
		{"vaults", applyVaults},
		{"strategies", applyStrategies},
		{"activate", activateStrategies},
		{"timelock", applyTimelock},
		{"harvester", applyHarvester},
		{"farm", applyFarm},
	}
	for _, step := range steps {
		err := step.fn(st, p, g)
		if err != nil {
			return errors.UnknownError.WithFormat("genesis %s: %w", step.name, err)
		}
		logger.DebugContext(st.Context(), "Applied", "step", step.name)
	}

	logger.InfoContext(st.Context(), "Genesis complete", "assets", len(g.Assets), "vaults", len(g.Vaults), "strategies", len(g.Strategies))
	return nil
}

func applyAssets(st *state.State, _ *protocol.Protocol, g *config.Genesis) error {
	for _, a := range g.Assets {
		err := bank.RegisterAsset(st, bank.Asset{
			ID:       a.ID,
			Symbol:   a.Symbol,
			Decimals: a.Decimals,
			Minter:   address.Address(a.Minter),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// mint mints as the asset's minter.
func mint(st *state.State, asset string, to address.Address, s string) (math.Int, error) {
	amt, err := amount.Parse(s)
	if err != nil {
		return math.Int{}, err
	}
	a, err := bank.GetAsset(st, asset)
	if err != nil {
		return math.Int{}, err
	}
	return amt, bank.Mint(st, a.Minter, asset, to, amt)
}

func applyBalances(st *state.State, _ *protocol.Protocol, g *config.Genesis) error {
	for _, b := range g.Balances {
		_, err := mint(st, b.Asset, address.Address(b.Account), b.Amount)
		if err != nil {
			return err
		}
	}
	return nil
}

func applyPairs(st *state.State, p *protocol.Protocol, g *config.Genesis) error {
	for _, pair := range g.Pairs {
		a, err := mint(st, pair.A, address.Genesis, pair.AmountA)
		if err != nil {
			return err
		}
		b, err := mint(st, pair.B, address.Genesis, pair.AmountB)
		if err != nil {
			return err
		}
		err = p.Router.AddLiquidity(st, address.Genesis, pair.A, pair.B, a, b)
		if err != nil {
			return err
		}
	}
	return nil
}

func applySources(st *state.State, _ *protocol.Protocol, g *config.Genesis) error {
	for _, s := range g.Sources {
		err := yieldsource.Register(st, yieldsource.Source{
			ID:          s.ID,
			Kind:        yieldsource.Kind(s.Kind),
			Underlying:  s.Underlying,
			RewardAsset: s.RewardAsset,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func applyVaults(st *state.State, p *protocol.Protocol, g *config.Genesis) error {
	for _, v := range g.Vaults {
		_, err := p.Vaults.Create(st, vault.Params{
			ID:                v.ID,
			Underlying:        v.Underlying,
			Target:            v.Target,
			Harvester:         p.Harvester.Account(),
			Timelock:          p.Timelock.Account(),
			BarrierBps:        amount.Bps(v.BarrierBps),
			WithdrawalFeeBps:  amount.Bps(v.WithdrawalFeeBps),
			PerformanceFeeBps: amount.Bps(v.PerformanceFeeBps),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func applyStrategies(st *state.State, p *protocol.Protocol, g *config.Genesis) error {
	for _, s := range g.Strategies {
		_, err := p.Strategies.Create(st, strategy.Record{
			ID:         s.ID,
			Vault:      s.Vault,
			Kind:       strategy.Kind(s.Kind),
			Underlying: s.Underlying,
			Source:     s.Source,
			Owner:      p.Timelock.Account(),
			Strategist: address.Address(s.Strategist),
			RewardPath: s.RewardPath,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// activateStrategies sets each vault's initial strategy the way the
// timelock would.
func activateStrategies(st *state.State, p *protocol.Protocol, g *config.Genesis) error {
	for _, v := range g.Vaults {
		if v.Strategy == "" {
			continue
		}
		payload, err := json.Marshal(vault.SetStrategy{Strategy: v.Strategy})
		if err != nil {
			return errors.EncodingError.Wrap(err)
		}
		err = p.Vaults.Execute(st, p.Timelock.Account(), v.ID, "setStrategy", payload)
		if err != nil {
			return err
		}
	}
	return nil
}

func applyTimelock(st *state.State, p *protocol.Protocol, g *config.Genesis) error {
	return p.Timelock.Init(st, address.Address(g.Timelock.Admin), g.Timelock.Delay)
}

func applyHarvester(st *state.State, p *protocol.Protocol, g *config.Genesis) error {
	h := g.Harvester
	cfg := harvester.Config{
		Admin:        address.Address(h.Admin),
		Treasury:     address.Address(h.Treasury),
		BuybackBps:   amount.Bps(h.BuybackBps),
		BuybackAsset: h.BuybackAsset,
		BurnBuyback:  h.BurnBuyback,
	}
	for _, k := range h.Keepers {
		cfg.Keepers = append(cfg.Keepers, address.Address(k))
	}
	return p.Harvester.Init(st, cfg)
}

func applyFarm(st *state.State, p *protocol.Protocol, g *config.Genesis) error {
	f := g.Farm
	rate, err := amount.Parse(f.RewardPerBlock)
	if err != nil {
		return err
	}
	admin := address.Address(f.Admin)
	err = p.Farm.Init(st, farm.Config{
		Admin:          admin,
		RewardAsset:    f.RewardAsset,
		RewardPerBlock: rate,
		StartBlock:     f.StartBlock,
	})
	if err != nil {
		return err
	}

	for _, pool := range f.Pools {
		if pool.Vault != "" {
			_, err = p.Farm.AddVault(st, admin, pool.Vault, pool.Weight)
		} else {
			_, err = p.Farm.AddPool(st, admin, pool.Asset, pool.Weight)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
