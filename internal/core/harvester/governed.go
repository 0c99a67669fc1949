// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package harvester

import (
	"encoding/json"

	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
	"github.com/gulitsky/firedao-protocol/pkg/types/amount"
)

type SetBuyback struct {
	BuybackBps amount.Bps `json:"buybackBps"`
}

type SetKeeper struct {
	Keeper  address.Address `json:"keeper"`
	Allowed bool            `json:"allowed"`
}

type Sweep struct {
	Asset string `json:"asset"`
}

// Execute executes an administrative call on behalf of the caller.
func (h *Harvester) Execute(st *state.State, caller address.Address, _, method string, payload json.RawMessage) error {
	switch method {
	case "setBuyback":
		var args SetBuyback
		if err := decode(method, payload, &args); err != nil {
			return err
		}
		return h.SetBuyback(st, caller, args.BuybackBps)

	case "setKeeper":
		var args SetKeeper
		if err := decode(method, payload, &args); err != nil {
			return err
		}
		return h.SetKeeper(st, caller, args.Keeper, args.Allowed)

	case "sweep":
		var args Sweep
		if err := decode(method, payload, &args); err != nil {
			return err
		}
		_, err := h.Sweep(st, caller, args.Asset)
		return err

	default:
		return errors.BadRequest.WithFormat("harvester has no method %q", method)
	}
}

func decode(method string, payload json.RawMessage, v any) error {
	err := json.Unmarshal(payload, v)
	if err != nil {
		return errors.EncodingError.WithFormat("decode %s payload: %w", method, err)
	}
	return nil
}
