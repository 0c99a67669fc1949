// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package strategy

import (
	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/yieldsource"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
)

// Lending supplies the vault's funds to a lending market and reinvests the
// market's reward token.
type Lending struct {
	rewarding
	market yieldsource.LendingMarket
}

// Staking stakes the vault's funds in a staking pool and reinvests the
// pool's reward token.
type Staking struct {
	rewarding
	pool yieldsource.StakingPool
}

// Passive holds the vault's funds without deploying them.
type Passive struct {
	base
}

var _ Reinvester = (*Lending)(nil)
var _ Reinvester = (*Staking)(nil)
var _ Strategy = (*Passive)(nil)

func (s *Lending) validate(st *state.State) error {
	return validateSource(st, s.rec, s.market)
}

func (s *Staking) validate(st *state.State) error {
	return validateSource(st, s.rec, s.pool)
}

func validateSource(st *state.State, rec *Record, src rewardSource) error {
	u, err := src.Underlying(st)
	if err != nil {
		return err
	}
	if u != rec.Underlying {
		return errors.BadRequest.WithFormat("strategy %s underlying is %s but %s accepts %s", rec.ID, rec.Underlying, rec.Source, u)
	}
	return nil
}

type lendingPosition struct {
	market yieldsource.LendingMarket
}

func (p lendingPosition) deploy(st *state.State, account address.Address, amount math.Int) error {
	return p.market.Supply(st, account, amount)
}

func (p lendingPosition) release(st *state.State, account address.Address, amount math.Int) (math.Int, error) {
	return p.market.Redeem(st, account, amount)
}

func (p lendingPosition) deployed(st *state.State, account address.Address) (math.Int, error) {
	return p.market.SupplyBalance(st, account)
}

type stakingPosition struct {
	pool yieldsource.StakingPool
}

func (p stakingPosition) deploy(st *state.State, account address.Address, amount math.Int) error {
	return p.pool.Stake(st, account, amount)
}

func (p stakingPosition) release(st *state.State, account address.Address, amount math.Int) (math.Int, error) {
	return p.pool.Unstake(st, account, amount)
}

func (p stakingPosition) deployed(st *state.State, account address.Address) (math.Int, error) {
	return p.pool.Staked(st, account)
}

type passivePosition struct{}

func (passivePosition) deploy(*state.State, address.Address, math.Int) error { return nil }

func (passivePosition) release(*state.State, address.Address, math.Int) (math.Int, error) {
	return math.ZeroInt(), nil
}

func (passivePosition) deployed(*state.State, address.Address) (math.Int, error) {
	return math.ZeroInt(), nil
}
