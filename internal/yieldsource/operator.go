// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package yieldsource

import (
	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/bank"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
	"github.com/gulitsky/firedao-protocol/pkg/types/amount"
)

// The operations below drive a simulated source the way the outside world
// drives a real one.

// Accrue adds interest to a lending market, paid by the funder.
func Accrue(st *state.State, id string, funder address.Address, amt math.Int) error {
	if err := amount.RequirePositive(amt, "interest"); err != nil {
		return err
	}
	src, err := Get(st, id)
	if err != nil {
		return err
	}
	if src.Kind != KindLending {
		return errors.BadRequest.WithFormat("%s is not a lending market", id)
	}
	if !src.TotalUnits.IsPositive() {
		return errors.BadRequest.WithFormat("%s has no suppliers", id)
	}
	if err := bank.Transfer(st, src.Underlying, funder, src.Account(), amt); err != nil {
		return err
	}
	src.TotalAssets = src.TotalAssets.Add(amt)
	return sourceValue(st, id).Put(src)
}

// Slash removes underlying from a source, reducing the value of every
// position. The removed funds go to the recipient.
func Slash(st *state.State, id string, recipient address.Address, amt math.Int) error {
	if err := amount.RequirePositive(amt, "loss"); err != nil {
		return err
	}
	src, err := Get(st, id)
	if err != nil {
		return err
	}
	if amt.GT(src.TotalAssets) {
		return errors.InsufficientBalance.WithFormat("%s holds %v, cannot lose %v", id, src.TotalAssets, amt)
	}
	if err := bank.Transfer(st, src.Underlying, src.Account(), recipient, amt); err != nil {
		return err
	}
	src.TotalAssets = src.TotalAssets.Sub(amt)
	return sourceValue(st, id).Put(src)
}

// DripRewards distributes reward tokens, paid by the funder, to the current
// holders of a source pro rata.
func DripRewards(st *state.State, id string, funder address.Address, amt math.Int) error {
	if err := amount.RequirePositive(amt, "reward"); err != nil {
		return err
	}
	src, err := Get(st, id)
	if err != nil {
		return err
	}
	if !src.TotalUnits.IsPositive() {
		return errors.BadRequest.WithFormat("%s has no holders", id)
	}
	if err := bank.Transfer(st, src.RewardAsset, funder, src.Account(), amt); err != nil {
		return err
	}
	src.RewardPerUnit = src.RewardPerUnit.Add(amt.Mul(precision).Quo(src.TotalUnits))
	return sourceValue(st, id).Put(src)
}

// SetAvailable marks a source as available or unavailable. Operations on an
// unavailable source fail with AdapterUnavailable.
func SetAvailable(st *state.State, id string, available bool) error {
	src, err := Get(st, id)
	if err != nil {
		return err
	}
	src.Unavailable = !available
	return sourceValue(st, id).Put(src)
}

// SetLocked marks amount of a source's assets as lent out. Locked assets
// still count towards the value of positions but cannot be withdrawn.
func SetLocked(st *state.State, id string, amt math.Int) error {
	if amt.IsNil() || amt.IsNegative() {
		return errors.InvalidAmount.WithFormat("cannot lock %v", amt)
	}
	src, err := Get(st, id)
	if err != nil {
		return err
	}
	src.Locked = amt
	return sourceValue(st, id).Put(src)
}
