// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package bank is the protocol's token ledger. It records the assets known to
// the protocol, the balance of every account in every asset, and the supply
// of every asset.
package bank

import (
	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/values"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
)

// Asset describes a fungible asset.
type Asset struct {
	ID       string          `json:"id"`
	Symbol   string          `json:"symbol"`
	Decimals uint8           `json:"decimals"`
	Minter   address.Address `json:"minter"`
}

func assetKey(id string) *database.Key { return database.NewKey("bank", "asset", id) }
func supplyKey(id string) *database.Key { return database.NewKey("bank", "supply", id) }

func balanceKey(id string, account address.Address) *database.Key {
	return database.NewKey("bank", "balance", id, account)
}

func assetIndex(st *state.State) *values.Set {
	return values.NewSet(st, database.NewKey("bank", "assets"))
}

func holdings(st *state.State, account address.Address) *values.Set {
	return values.NewSet(st, database.NewKey("bank", "holdings", account))
}

// RegisterAsset records a new asset. It fails with Conflict if the asset
// already exists.
func RegisterAsset(st *state.State, asset Asset) error {
	if err := address.ValidateID("asset", asset.ID); err != nil {
		return err
	}
	if err := asset.Minter.Validate(); err != nil {
		return errors.BadRequest.WithFormat("asset %s minter: %w", asset.ID, err)
	}
	if asset.Symbol == "" {
		asset.Symbol = asset.ID
	}

	v := values.NewValue[*Asset](st, assetKey(asset.ID))
	ok, err := v.Exists()
	if err != nil {
		return err
	}
	if ok {
		return errors.Conflict.WithFormat("asset %s already exists", asset.ID)
	}
	if err := v.Put(&asset); err != nil {
		return err
	}
	return assetIndex(st).Add(asset.ID)
}

// GetAsset loads an asset. It fails with NotFound if the asset does not exist.
func GetAsset(st *state.State, id string) (*Asset, error) {
	a, err := values.NewValue[*Asset](st, assetKey(id)).Get()
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, errors.NotFound.WithFormat("asset %s not found", id)
		}
		return nil, err
	}
	return a, nil
}

// Assets returns the IDs of all registered assets.
func Assets(st *state.State) ([]string, error) {
	return assetIndex(st).Get()
}

// Holdings returns the IDs of the assets the account has held.
func Holdings(st *state.State, account address.Address) ([]string, error) {
	return holdings(st, account).Get()
}

// BalanceOf returns the balance of the account. Unknown accounts have a
// balance of zero.
func BalanceOf(st *state.State, asset string, account address.Address) (math.Int, error) {
	return values.NewValue[math.Int](st, balanceKey(asset, account)).GetOr(math.ZeroInt())
}

// TotalSupply returns the total supply of the asset.
func TotalSupply(st *state.State, asset string) (math.Int, error) {
	return values.NewValue[math.Int](st, supplyKey(asset)).GetOr(math.ZeroInt())
}

// Transfer moves amount of asset from one account to another. Transferring
// zero is a no-op. It fails with InsufficientBalance if from does not hold
// enough.
func Transfer(st *state.State, asset string, from, to address.Address, amount math.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return errors.InvalidAmount.WithFormat("cannot transfer %v %s", amount, asset)
	}
	if err := to.Validate(); err != nil {
		return err
	}
	if _, err := GetAsset(st, asset); err != nil {
		return err
	}
	if amount.IsZero() || from == to {
		return nil
	}

	if err := debit(st, asset, from, amount); err != nil {
		return err
	}
	return credit(st, asset, to, amount)
}

// Mint creates amount of asset and credits it to the recipient. Only the
// asset's minter may mint.
func Mint(st *state.State, caller address.Address, asset string, to address.Address, amount math.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return errors.InvalidAmount.WithFormat("cannot mint %v %s", amount, asset)
	}
	a, err := GetAsset(st, asset)
	if err != nil {
		return err
	}
	if caller != a.Minter {
		return errors.Unauthorized.WithFormat("%v is not the minter of %s", caller, asset)
	}
	if err := to.Validate(); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}

	if err := credit(st, asset, to, amount); err != nil {
		return err
	}
	return addSupply(st, asset, amount)
}

// Burn destroys amount of asset held by the account.
func Burn(st *state.State, asset string, from address.Address, amount math.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return errors.InvalidAmount.WithFormat("cannot burn %v %s", amount, asset)
	}
	if _, err := GetAsset(st, asset); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}

	if err := debit(st, asset, from, amount); err != nil {
		return err
	}
	return addSupply(st, asset, amount.Neg())
}

func credit(st *state.State, asset string, account address.Address, amount math.Int) error {
	v := values.NewValue[math.Int](st, balanceKey(asset, account))
	bal, err := v.GetOr(math.ZeroInt())
	if err != nil {
		return err
	}
	bal, err = bal.SafeAdd(amount)
	if err != nil {
		return errors.BadRequest.WithFormat("credit %v %s to %v: %w", amount, asset, account, err)
	}
	if err := v.Put(bal); err != nil {
		return err
	}
	return holdings(st, account).Add(asset)
}

func debit(st *state.State, asset string, account address.Address, amount math.Int) error {
	v := values.NewValue[math.Int](st, balanceKey(asset, account))
	bal, err := v.GetOr(math.ZeroInt())
	if err != nil {
		return err
	}
	if bal.LT(amount) {
		return errors.InsufficientBalance.WithFormat("%v has %v %s, needs %v", account, bal, asset, amount)
	}
	return v.Put(bal.Sub(amount))
}

func addSupply(st *state.State, asset string, delta math.Int) error {
	v := values.NewValue[math.Int](st, supplyKey(asset))
	supply, err := v.GetOr(math.ZeroInt())
	if err != nil {
		return err
	}
	supply, err = supply.SafeAdd(delta)
	if err != nil {
		return errors.BadRequest.WithFormat("update supply of %s: %w", asset, err)
	}
	if supply.IsNegative() {
		return errors.InternalError.WithFormat("supply of %s is negative", asset)
	}
	return v.Put(supply)
}
