// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package harvester

import (
	"slices"
	"time"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/bank"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/core/vault"
	"github.com/gulitsky/firedao-protocol/internal/events"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
)

// Request describes a harvest.
type Request struct {
	Vault string `json:"vault" validate:"required"`

	// Amount is the underlying yield to harvest. If it is unset, all of the
	// vault's current yield is harvested.
	Amount math.Int `json:"amount"`

	// MinOut is the least target the yield may be swapped for.
	MinOut math.Int `json:"minOut"`

	// PathIn swaps the underlying into the target. It is ignored if they are
	// the same asset.
	PathIn []string `json:"pathIn"`

	// PathOut swaps the buyback share of the target into the buyback asset.
	PathOut []string `json:"pathOut,omitempty"`

	// MinBuyback is the least buyback asset the buyback may be swapped for.
	MinBuyback math.Int `json:"minBuyback"`

	Deadline time.Time `json:"deadline" validate:"required"`
}

// Result describes a completed harvest.
type Result struct {
	Yield   math.Int `json:"yield"`
	Target  math.Int `json:"target"`
	Fee     math.Int `json:"fee"`
	Buyback math.Int `json:"buyback"`
	Bought  math.Int `json:"bought"`
	Profit  math.Int `json:"profit"`
}

// HarvestVault harvests a vault's yield. The yield is released by the vault,
// swapped into the target along PathIn, and split between the treasury (the
// vault's performance fee), the buyback, and the vault's depositors. Only
// the admin and keepers may harvest.
//
// The harvest is atomic. If any step fails, including a swap failing its
// slippage or deadline check, nothing changes.
func (h *Harvester) HarvestVault(st *state.State, caller address.Address, req Request) (*Result, error) {
	cfg, err := Get(st)
	if err != nil {
		return nil, err
	}
	if caller != cfg.Admin && !slices.Contains(cfg.Keepers, caller) {
		return nil, errors.Unauthorized.WithFormat("%v may not harvest", caller)
	}
	if req.Deadline.IsZero() {
		return nil, errors.BadRequest.With("harvest has no deadline")
	}
	if st.Now().After(req.Deadline) {
		return nil, errors.Expired.WithFormat("harvest deadline %v has passed", req.Deadline.UTC())
	}

	v, err := vault.Get(st, req.Vault)
	if err != nil {
		return nil, err
	}

	amt := req.Amount
	if amt.IsNil() || amt.IsZero() {
		amt, err = h.vaults.UnderlyingYield(st, v.ID)
		if err != nil {
			return nil, err
		}
		if amt.IsZero() {
			return &Result{
				Yield:   amt,
				Target:  math.ZeroInt(),
				Fee:     math.ZeroInt(),
				Buyback: math.ZeroInt(),
				Bought:  math.ZeroInt(),
				Profit:  math.ZeroInt(),
			}, nil
		}
	}

	var r *Result
	err = st.Atomic(func() error {
		var err error
		r, err = h.harvest(st, cfg, v, amt, req)
		return err
	})
	if err != nil {
		h.logger.InfoContext(st.Context(), "Harvest failed", "vault", v.ID, "error", err)
		return nil, err
	}

	h.logger.InfoContext(st.Context(), "Harvested", "vault", v.ID, "yield", r.Yield, "target", r.Target, "fee", r.Fee, "buyback", r.Buyback, "profit", r.Profit)
	return r, nil
}

func (h *Harvester) harvest(st *state.State, cfg *Config, v *vault.Vault, amt math.Int, req Request) (*Result, error) {
	r := &Result{Yield: amt, Bought: math.ZeroInt()}

	err := h.vaults.ReleaseYield(st, h.Account(), v.ID, amt)
	if err != nil {
		return nil, err
	}

	// Convert the yield into the target
	if v.Direct() {
		r.Target = amt
		if !req.MinOut.IsNil() && r.Target.LT(req.MinOut) {
			return nil, errors.SlippageExceeded.WithFormat("harvest yields %v %s, want at least %v", r.Target, v.Target, req.MinOut)
		}
	} else {
		err = checkPath(req.PathIn, v.Underlying, v.Target)
		if err != nil {
			return nil, err
		}
		r.Target, err = h.router.SwapExactIn(st, h.Account(), req.PathIn, amt, req.MinOut, req.Deadline, h.Account())
		if err != nil {
			return nil, err
		}
	}

	// Performance fee
	r.Fee = v.PerformanceFeeBps.Of(r.Target)
	if r.Fee.IsPositive() {
		err = bank.Transfer(st, v.Target, h.Account(), cfg.Treasury, r.Fee)
		if err != nil {
			return nil, err
		}
	}

	// Buyback
	r.Buyback = cfg.BuybackBps.Of(r.Target)
	if r.Buyback.IsPositive() {
		r.Bought, err = h.buyback(st, cfg, v, r.Buyback, req)
		if err != nil {
			return nil, err
		}
	}

	// Everything else goes to the depositors
	r.Profit = r.Target.Sub(r.Fee).Sub(r.Buyback)
	if r.Profit.IsNegative() {
		return nil, errors.BadRequest.WithFormat("fee and buyback exceed the harvest of vault %s", v.ID)
	}
	if r.Profit.IsPositive() {
		err = h.vaults.CreditProfit(st, h.Account(), v.ID, r.Profit)
		if err != nil {
			return nil, err
		}
	}

	st.Emit(events.Harvested{Vault: v.ID, Yield: r.Yield, Target: r.Target, Fee: r.Fee, Buyback: r.Buyback, Profit: r.Profit})
	return r, nil
}

func (h *Harvester) buyback(st *state.State, cfg *Config, v *vault.Vault, amt math.Int, req Request) (math.Int, error) {
	bought := amt
	if cfg.BuybackAsset != v.Target {
		err := checkPath(req.PathOut, v.Target, cfg.BuybackAsset)
		if err != nil {
			return math.Int{}, err
		}
		bought, err = h.router.SwapExactIn(st, h.Account(), req.PathOut, amt, req.MinBuyback, req.Deadline, h.Account())
		if err != nil {
			return math.Int{}, err
		}
	}

	if cfg.BurnBuyback {
		return bought, bank.Burn(st, cfg.BuybackAsset, h.Account(), bought)
	}
	return bought, bank.Transfer(st, cfg.BuybackAsset, h.Account(), cfg.Treasury, bought)
}

func checkPath(path []string, from, to string) error {
	if len(path) < 2 || path[0] != from || path[len(path)-1] != to {
		return errors.BadRequest.WithFormat("swap path %v does not lead from %s to %s", path, from, to)
	}
	return nil
}
