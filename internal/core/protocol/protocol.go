// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package protocol assembles the protocol's components and connects the
// governance timelock to the components it governs.
package protocol

import (
	"log/slog"

	"github.com/gulitsky/firedao-protocol/internal/core/farm"
	"github.com/gulitsky/firedao-protocol/internal/core/harvester"
	"github.com/gulitsky/firedao-protocol/internal/core/strategy"
	"github.com/gulitsky/firedao-protocol/internal/core/swap"
	"github.com/gulitsky/firedao-protocol/internal/core/timelock"
	"github.com/gulitsky/firedao-protocol/internal/core/vault"
	"github.com/gulitsky/firedao-protocol/internal/yieldsource"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
)

// Governed target kinds.
const (
	TargetVault     = "vault"
	TargetStrategy  = "strategy"
	TargetFarm      = "farm"
	TargetHarvester = "harvester"
)

type Protocol struct {
	Router     *swap.ConstantProduct
	Sources    yieldsource.Registry
	Strategies *strategy.Loader
	Vaults     *vault.Manager
	Harvester  *harvester.Harvester
	Farm       *farm.Farm
	Timelock   *timelock.Timelock
}

func New(logger *slog.Logger) *Protocol {
	if logger == nil {
		logger = slog.Default()
	}

	p := new(Protocol)
	p.Router = swap.NewConstantProduct(logger)
	p.Strategies = strategy.NewLoader(p.Sources, p.Router, logger)
	p.Vaults = vault.NewManager(p.Strategies, logger)
	p.Harvester = harvester.New(p.Vaults, p.Router, logger)
	p.Vaults.UseBuybackRate(p.Harvester.BuybackRate)
	p.Farm = farm.New(p.Vaults, logger)

	p.Timelock = timelock.New(logger)
	p.Timelock.Register(TargetVault, p.Vaults)
	p.Timelock.Register(TargetStrategy, p.Strategies)
	p.Timelock.Register(TargetFarm, p.Farm)
	p.Timelock.Register(TargetHarvester, p.Harvester)
	return p
}

// VaultTarget returns the governed target of a vault.
func VaultTarget(id string) string { return address.Vault(id).String() }

// StrategyTarget returns the governed target of a strategy.
func StrategyTarget(id string) string { return address.Strategy(id).String() }
