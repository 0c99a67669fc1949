// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package farm

import (
	"encoding/json"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
)

type AddPool struct {
	Asset  string `json:"asset"`
	Weight uint64 `json:"weight"`
}

type AddVault struct {
	Vault  string `json:"vault"`
	Weight uint64 `json:"weight"`
}

type SetWeight struct {
	Pool   uint64 `json:"pool"`
	Weight uint64 `json:"weight"`
}

type SetRewardPerBlock struct {
	Rate math.Int `json:"rate"`
}

// Execute executes an administrative call. When the farm's admin is the
// timelock, this is how the timelock administers the farm.
func (f *Farm) Execute(st *state.State, caller address.Address, _, method string, payload json.RawMessage) error {
	switch method {
	case "addPool":
		var args AddPool
		if err := decode(method, payload, &args); err != nil {
			return err
		}
		_, err := f.AddPool(st, caller, args.Asset, args.Weight)
		return err

	case "addVault":
		var args AddVault
		if err := decode(method, payload, &args); err != nil {
			return err
		}
		_, err := f.AddVault(st, caller, args.Vault, args.Weight)
		return err

	case "setWeight":
		var args SetWeight
		if err := decode(method, payload, &args); err != nil {
			return err
		}
		return f.SetWeight(st, caller, args.Pool, args.Weight)

	case "setRewardPerBlock":
		var args SetRewardPerBlock
		if err := decode(method, payload, &args); err != nil {
			return err
		}
		return f.SetRewardPerBlock(st, caller, args.Rate)

	default:
		return errors.BadRequest.WithFormat("farm has no method %q", method)
	}
}

func decode(method string, payload json.RawMessage, v any) error {
	err := json.Unmarshal(payload, v)
	if err != nil {
		return errors.EncodingError.WithFormat("decode %s payload: %w", method, err)
	}
	return nil
}
