// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package yieldsource defines the external yield sources strategies deploy
// funds into, and provides ledger-backed simulations of them for devnets and
// tests.
package yieldsource

import (
	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
)

// LendingMarket is a money market. Supplied underlying earns interest, so
// the value of a supplier's position grows over time.
type LendingMarket interface {
	Underlying(st *state.State) (string, error)
	RewardAsset(st *state.State) (string, error)

	// Supply moves amount of underlying from the supplier into the market.
	Supply(st *state.State, supplier address.Address, amount math.Int) error

	// Redeem returns up to amount of underlying to the supplier and reports
	// how much was actually returned.
	Redeem(st *state.State, supplier address.Address, amount math.Int) (math.Int, error)

	// SupplyBalance returns the underlying value of the supplier's position.
	SupplyBalance(st *state.State, supplier address.Address) (math.Int, error)

	// ClaimRewards pays the supplier's accrued reward tokens.
	ClaimRewards(st *state.State, holder address.Address) (math.Int, error)

	// PendingRewards returns the reward tokens ClaimRewards would pay.
	PendingRewards(st *state.State, holder address.Address) (math.Int, error)
}

// StakingPool is a staking pool. Staked principal does not grow; stakers
// earn a reward token instead.
type StakingPool interface {
	Underlying(st *state.State) (string, error)
	RewardAsset(st *state.State) (string, error)

	// Stake moves amount of underlying from the staker into the pool.
	Stake(st *state.State, staker address.Address, amount math.Int) error

	// Unstake returns up to amount of underlying to the staker and reports
	// how much was actually returned.
	Unstake(st *state.State, staker address.Address, amount math.Int) (math.Int, error)

	// Staked returns the staker's principal.
	Staked(st *state.State, staker address.Address) (math.Int, error)

	// ClaimRewards pays the staker's accrued reward tokens.
	ClaimRewards(st *state.State, holder address.Address) (math.Int, error)
	PendingRewards(st *state.State, holder address.Address) (math.Int, error)
}

// Resolver resolves yield sources by ID.
type Resolver interface {
	LendingMarket(id string) LendingMarket
	StakingPool(id string) StakingPool
}
