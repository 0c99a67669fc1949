// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package strategy

import (
	"encoding/json"

	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
)

// SetStrategist is the payload of the setStrategist governed call.
type SetStrategist struct {
	Strategist address.Address `json:"strategist"`
}

// SetRewardPath is the payload of the setRewardPath governed call.
type SetRewardPath struct {
	Path []string `json:"path"`
}

// Execute executes a governed call on a strategy. Only the strategy's owner
// may execute governed calls.
func (l *Loader) Execute(st *state.State, caller address.Address, id, method string, payload json.RawMessage) error {
	rec, err := GetRecord(st, id)
	if err != nil {
		return err
	}
	if caller != rec.Owner {
		return errors.Unauthorized.WithFormat("%v is not the owner of strategy %s", caller, id)
	}

	switch method {
	case "setStrategist":
		var args SetStrategist
		if err := decode(method, payload, &args); err != nil {
			return err
		}
		if args.Strategist != "" {
			if err := args.Strategist.Validate(); err != nil {
				return err
			}
		}
		rec.Strategist = args.Strategist

	case "setRewardPath":
		var args SetRewardPath
		if err := decode(method, payload, &args); err != nil {
			return err
		}
		if len(args.Path) == 1 {
			return errors.BadRequest.With("reward path must be empty or have at least 2 assets")
		}
		if len(args.Path) > 0 && args.Path[len(args.Path)-1] != rec.Underlying {
			return errors.BadRequest.WithFormat("reward path must end with %s", rec.Underlying)
		}
		rec.RewardPath = args.Path

	default:
		return errors.BadRequest.WithFormat("strategy has no governed method %q", method)
	}

	l.Logger.InfoContext(st.Context(), "Governed call", "strategy", id, "method", method)
	return recordValue(st, id).Put(rec)
}

func decode(method string, payload json.RawMessage, v any) error {
	err := json.Unmarshal(payload, v)
	if err != nil {
		return errors.EncodingError.WithFormat("decode %s payload: %w", method, err)
	}
	return nil
}
