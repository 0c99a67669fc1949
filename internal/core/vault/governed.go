// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package vault

import (
	"encoding/json"

	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/events"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
	"github.com/gulitsky/firedao-protocol/pkg/types/amount"
)

// SetStrategy is the payload of the setStrategy governed call. Unless Force
// is set, the current strategy must be unwound completely before the new
// one is activated. With Force, whatever the current strategy fails to
// return is abandoned.
type SetStrategy struct {
	Strategy string `json:"strategy"`
	Force    bool   `json:"force,omitempty"`
}

// SetFees is the payload of the setFees governed call.
type SetFees struct {
	WithdrawalFeeBps  amount.Bps `json:"withdrawalFeeBps"`
	PerformanceFeeBps amount.Bps `json:"performanceFeeBps"`
}

// SetBarrier is the payload of the setBarrier governed call.
type SetBarrier struct {
	BarrierBps amount.Bps `json:"barrierBps"`
}

// SetHarvester is the payload of the setHarvester governed call.
type SetHarvester struct {
	Harvester address.Address `json:"harvester"`
}

// SetPaused is the payload of the setPaused governed call.
type SetPaused struct {
	Paused bool `json:"paused"`
}

// Execute executes a governed call on a vault. Only the vault's timelock
// may execute governed calls.
func (m *Manager) Execute(st *state.State, caller address.Address, id, method string, payload json.RawMessage) error {
	v, exit, err := m.begin(st, id)
	if err != nil {
		return err
	}
	defer exit()

	if caller != v.Timelock {
		return errors.Unauthorized.WithFormat("%v is not the timelock of vault %s", caller, id)
	}

	switch method {
	case "setStrategy":
		var args SetStrategy
		if err := decode(method, payload, &args); err != nil {
			return err
		}
		err = m.setStrategy(st, v, args)

	case "setFees":
		var args SetFees
		if err := decode(method, payload, &args); err != nil {
			return err
		}
		if err := args.WithdrawalFeeBps.Validate(); err != nil {
			return err
		}
		if err := args.PerformanceFeeBps.Validate(); err != nil {
			return err
		}
		if err := m.checkPerformanceFee(st, args.PerformanceFeeBps); err != nil {
			return err
		}
		v.WithdrawalFeeBps = args.WithdrawalFeeBps
		v.PerformanceFeeBps = args.PerformanceFeeBps

	case "setBarrier":
		var args SetBarrier
		if err := decode(method, payload, &args); err != nil {
			return err
		}
		if err := args.BarrierBps.Validate(); err != nil {
			return err
		}
		v.BarrierBps = args.BarrierBps

	case "setHarvester":
		var args SetHarvester
		if err := decode(method, payload, &args); err != nil {
			return err
		}
		if err := args.Harvester.Validate(); err != nil {
			return err
		}
		v.Harvester = args.Harvester

	case "setPaused":
		var args SetPaused
		if err := decode(method, payload, &args); err != nil {
			return err
		}
		if !args.Paused && v.Strategy == "" {
			return errors.BadRequest.WithFormat("vault %s has no strategy", id)
		}
		v.Paused = args.Paused

	default:
		return errors.BadRequest.WithFormat("vault has no governed method %q", method)
	}
	if err != nil {
		return err
	}

	m.logger.InfoContext(st.Context(), "Governed call", "vault", id, "method", method)
	return putVault(st, v)
}

func (m *Manager) setStrategy(st *state.State, v *Vault, args SetStrategy) error {
	next, err := m.strategies.Load(st, args.Strategy)
	if err != nil {
		return err
	}
	if next.Vault() != v.ID {
		return errors.BadRequest.WithFormat("strategy %s belongs to vault %s, not %s", next.ID(), next.Vault(), v.ID)
	}
	if next.Underlying() != v.Underlying {
		return errors.BadRequest.WithFormat("strategy %s custodies %s, vault %s holds %s", next.ID(), next.Underlying(), v.ID, v.Underlying)
	}

	old, err := m.strategy(st, v)
	if err != nil {
		return err
	}
	if old != nil && old.ID() != next.ID() {
		if args.Force {
			// Recover what can be recovered; the rest is abandoned
			err = st.Atomic(func() error {
				_, err := old.WithdrawAll(st, v.Account())
				return err
			})
			if err != nil {
				m.logger.WarnContext(st.Context(), "Abandoning strategy", "vault", v.ID, "strategy", old.ID(), "error", err)
			}
		} else {
			_, err = old.WithdrawAll(st, v.Account())
			if err != nil {
				return err
			}
			left, err := old.ReportedBalance(st)
			if err != nil {
				return err
			}
			if !left.IsZero() {
				return errors.Shortfall.WithFormat("strategy %s still holds %v after withdrawing", old.ID(), left)
			}
		}
	}

	e := events.StrategyChanged{Vault: v.ID, New: next.ID(), Forced: args.Force}
	if old != nil {
		e.Old = old.ID()
	}
	v.Strategy = next.ID()
	v.Paused = false
	st.Emit(e)
	return nil
}

func decode(method string, payload json.RawMessage, v any) error {
	err := json.Unmarshal(payload, v)
	if err != nil {
		return errors.EncodingError.WithFormat("decode %s payload: %w", method, err)
	}
	return nil
}
