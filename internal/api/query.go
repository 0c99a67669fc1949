// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package api

import (
	"net/http"
	"strconv"
	"strings"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/bank"
	"github.com/gulitsky/firedao-protocol/internal/core/farm"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/core/strategy"
	"github.com/gulitsky/firedao-protocol/internal/core/swap"
	"github.com/gulitsky/firedao-protocol/internal/core/timelock"
	"github.com/gulitsky/firedao-protocol/internal/core/vault"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
	"github.com/julienschmidt/httprouter"
)

type AssetInfo struct {
	bank.Asset
	Supply math.Int `json:"supply"`
}

type VaultInfo struct {
	*vault.Vault
	TotalValue math.Int `json:"totalValue"`
	Idle       math.Int `json:"idle"`
	Yield      math.Int `json:"yield"`
}

type DepositorInfo struct {
	*vault.Depositor
	PendingProfit math.Int `json:"pendingProfit"`
}

type StrategyInfo struct {
	*strategy.Record
	Balance math.Int `json:"balance"`

	// Reinvest is the underlying a reinvestment would currently produce.
	// It is omitted for strategies that do not earn rewards.
	Reinvest *math.Int `json:"reinvest,omitempty"`
}

type FarmInfo struct {
	*farm.Config
	Pools []*farm.Pool `json:"pools"`
}

type StakerInfo struct {
	*farm.Staker
	PendingReward math.Int `json:"pendingReward"`
}

type TimelockInfo struct {
	*timelock.Config
	Actions []*ActionInfo `json:"actions"`
}

type ActionInfo struct {
	*timelock.Action
	Phase timelock.Phase `json:"phase"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.respond(w, r, h.ledger.Head())
}

func (h *Handler) assets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.query(w, r, func(st *state.State) (any, error) {
		ids, err := bank.Assets(st)
		if err != nil {
			return nil, err
		}
		infos := make([]*AssetInfo, 0, len(ids))
		for _, id := range ids {
			a, err := bank.GetAsset(st, id)
			if err != nil {
				return nil, err
			}
			supply, err := bank.TotalSupply(st, id)
			if err != nil {
				return nil, err
			}
			infos = append(infos, &AssetInfo{*a, supply})
		}
		return infos, nil
	})
}

func (h *Handler) balances(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	account := address.Address(strings.TrimPrefix(p.ByName("account"), "/"))
	h.query(w, r, func(st *state.State) (any, error) {
		if account == "" {
			return nil, errors.BadRequest.With("missing account")
		}
		assets, err := bank.Holdings(st, account)
		if err != nil {
			return nil, err
		}
		balances := map[string]math.Int{}
		for _, asset := range assets {
			balances[asset], err = bank.BalanceOf(st, asset, account)
			if err != nil {
				return nil, err
			}
		}
		return balances, nil
	})
}

func (h *Handler) pairs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.query(w, r, func(st *state.State) (any, error) {
		return swap.Pairs(st)
	})
}

func (h *Handler) vaults(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.query(w, r, func(st *state.State) (any, error) {
		ids, err := vault.List(st)
		if err != nil {
			return nil, err
		}
		vaults := make([]*vault.Vault, 0, len(ids))
		for _, id := range ids {
			v, err := vault.Get(st, id)
			if err != nil {
				return nil, err
			}
			vaults = append(vaults, v)
		}
		return vaults, nil
	})
}

func (h *Handler) vault(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id := p.ByName("vault")
	vaults := h.ledger.Protocol().Vaults
	h.query(w, r, func(st *state.State) (any, error) {
		v, err := vault.Get(st, id)
		if err != nil {
			return nil, err
		}
		info := &VaultInfo{Vault: v}
		info.TotalValue, err = vaults.TotalValue(st, id)
		if err != nil {
			return nil, err
		}
		info.Idle, err = vaults.Idle(st, id)
		if err != nil {
			return nil, err
		}
		info.Yield, err = vaults.UnderlyingYield(st, id)
		if err != nil {
			return nil, err
		}
		return info, nil
	})
}

func (h *Handler) depositor(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, account := p.ByName("vault"), address.Address(p.ByName("account"))
	h.query(w, r, func(st *state.State) (any, error) {
		if _, err := vault.Get(st, id); err != nil {
			return nil, err
		}
		d, err := vault.GetDepositor(st, id, account)
		if err != nil {
			return nil, err
		}
		pending, err := h.ledger.Protocol().Vaults.PendingProfit(st, id, account)
		if err != nil {
			return nil, err
		}
		return &DepositorInfo{d, pending}, nil
	})
}

func (h *Handler) strategy(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id := p.ByName("strategy")
	h.query(w, r, func(st *state.State) (any, error) {
		rec, err := strategy.GetRecord(st, id)
		if err != nil {
			return nil, err
		}
		s, err := h.ledger.Protocol().Strategies.Load(st, id)
		if err != nil {
			return nil, err
		}
		info := &StrategyInfo{Record: rec}
		info.Balance, err = s.ReportedBalance(st)
		if err != nil {
			return nil, err
		}
		if re, ok := s.(strategy.Reinvester); ok {
			quote, err := re.QuoteReinvest(st)
			if err != nil {
				return nil, err
			}
			info.Reinvest = &quote
		}
		return info, nil
	})
}

func (h *Handler) farm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.query(w, r, func(st *state.State) (any, error) {
		cfg, err := farm.Get(st)
		if err != nil {
			return nil, err
		}
		pools, err := farm.Pools(st)
		if err != nil {
			return nil, err
		}
		return &FarmInfo{cfg, pools}, nil
	})
}

func (h *Handler) staker(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	account := address.Address(p.ByName("account"))
	h.query(w, r, func(st *state.State) (any, error) {
		id, err := poolID(p)
		if err != nil {
			return nil, err
		}
		if _, err := farm.GetPool(st, id); err != nil {
			return nil, err
		}
		s, err := farm.GetStaker(st, id, account)
		if err != nil {
			return nil, err
		}
		pending, err := h.ledger.Protocol().Farm.PendingReward(st, id, account)
		if err != nil {
			return nil, err
		}
		return &StakerInfo{s, pending}, nil
	})
}

func (h *Handler) timelock(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.query(w, r, func(st *state.State) (any, error) {
		cfg, err := timelock.Get(st)
		if err != nil {
			return nil, err
		}
		ids, err := timelock.Actions(st)
		if err != nil {
			return nil, err
		}
		info := &TimelockInfo{Config: cfg, Actions: make([]*ActionInfo, 0, len(ids))}
		for _, id := range ids {
			a, err := timelock.GetAction(st, id)
			if err != nil {
				return nil, err
			}
			info.Actions = append(info.Actions, &ActionInfo{a, a.Phase(st.Now())})
		}
		return info, nil
	})
}

func (h *Handler) action(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id := p.ByName("action")
	h.query(w, r, func(st *state.State) (any, error) {
		a, err := timelock.GetAction(st, id)
		if err != nil {
			return nil, err
		}
		return &ActionInfo{a, a.Phase(st.Now())}, nil
	})
}

func poolID(p httprouter.Params) (uint64, error) {
	id, err := strconv.ParseUint(p.ByName("pool"), 10, 64)
	if err != nil {
		return 0, errors.BadRequest.WithFormat("invalid pool %q", p.ByName("pool"))
	}
	return id, nil
}
