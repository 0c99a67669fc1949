// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/harvester"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/core/strategy"
	"github.com/gulitsky/firedao-protocol/internal/core/timelock"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
	"github.com/julienschmidt/httprouter"
)

type AmountRequest struct {
	Account address.Address `json:"account" validate:"required"`
	Amount  math.Int        `json:"amount"`
}

type AccountRequest struct {
	Account address.Address `json:"account" validate:"required"`
}

type HarvestRequest struct {
	Caller     address.Address `json:"caller" validate:"required"`
	Amount     math.Int        `json:"amount"`
	MinOut     math.Int        `json:"minOut"`
	PathIn     []string        `json:"pathIn"`
	PathOut    []string        `json:"pathOut"`
	MinBuyback math.Int        `json:"minBuyback"`
	Deadline   time.Time       `json:"deadline" validate:"required"`
}

type ReinvestRequest struct {
	Caller   address.Address `json:"caller" validate:"required"`
	MinOut   math.Int        `json:"minOut"`
	Deadline time.Time       `json:"deadline"`
}

type QueueRequest struct {
	Caller  address.Address `json:"caller" validate:"required"`
	Target  string          `json:"target" validate:"required"`
	Method  string          `json:"method" validate:"required"`
	Payload json.RawMessage `json:"payload"`
	ETA     time.Time       `json:"eta" validate:"required"`
}

func (r *AmountRequest) signer() address.Address   { return r.Account }
func (r *AccountRequest) signer() address.Address  { return r.Account }
func (r *HarvestRequest) signer() address.Address  { return r.Caller }
func (r *ReinvestRequest) signer() address.Address { return r.Caller }
func (r *QueueRequest) signer() address.Address    { return r.Caller }

type SharesResponse struct {
	Shares math.Int `json:"shares"`
}

type AmountResponse struct {
	Amount math.Int `json:"amount"`
}

func (h *Handler) deposit(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	req := new(AmountRequest)
	h.submit(w, r, "deposit", req, func(st *state.State) (any, error) {
		shares, err := h.ledger.Protocol().Vaults.Deposit(st, req.Account, p.ByName("vault"), req.Amount)
		return &SharesResponse{shares}, err
	})
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	req := new(AmountRequest)
	h.submit(w, r, "withdraw", req, func(st *state.State) (any, error) {
		amt, err := h.ledger.Protocol().Vaults.Withdraw(st, req.Account, p.ByName("vault"), req.Amount)
		return &AmountResponse{amt}, err
	})
}

func (h *Handler) claim(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	req := new(AccountRequest)
	h.submit(w, r, "claim", req, func(st *state.State) (any, error) {
		amt, err := h.ledger.Protocol().Vaults.Claim(st, req.Account, p.ByName("vault"))
		return &AmountResponse{amt}, err
	})
}

// earn does not read a body. Anyone may move a vault's idle funds.
func (h *Handler) earn(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	h.submit(w, r, "earn", nil, func(st *state.State) (any, error) {
		amt, err := h.ledger.Protocol().Vaults.Earn(st, p.ByName("vault"))
		return &AmountResponse{amt}, err
	})
}

func (h *Handler) harvest(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	req := new(HarvestRequest)
	h.submit(w, r, "harvest", req, func(st *state.State) (any, error) {
		return h.ledger.Protocol().Harvester.HarvestVault(st, req.Caller, harvester.Request{
			Vault:      p.ByName("vault"),
			Amount:     req.Amount,
			MinOut:     req.MinOut,
			PathIn:     req.PathIn,
			PathOut:    req.PathOut,
			MinBuyback: req.MinBuyback,
			Deadline:   req.Deadline,
		})
	})
}

func (h *Handler) reinvest(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	req := new(ReinvestRequest)
	h.submit(w, r, "reinvest", req, func(st *state.State) (any, error) {
		id := p.ByName("strategy")
		s, err := h.ledger.Protocol().Strategies.Load(st, id)
		if err != nil {
			return nil, err
		}
		re, ok := s.(strategy.Reinvester)
		if !ok {
			return nil, errors.BadRequest.WithFormat("strategy %s does not earn rewards", id)
		}
		amt, err := re.Reinvest(st, req.Caller, req.MinOut, req.Deadline)
		return &AmountResponse{amt}, err
	})
}

func (h *Handler) farmDeposit(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	req := new(AmountRequest)
	h.submit(w, r, "farm.deposit", req, func(st *state.State) (any, error) {
		id, err := poolID(p)
		if err != nil {
			return nil, err
		}
		return &AmountResponse{req.Amount}, h.ledger.Protocol().Farm.Deposit(st, req.Account, id, req.Amount)
	})
}

func (h *Handler) farmWithdraw(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	req := new(AmountRequest)
	h.submit(w, r, "farm.withdraw", req, func(st *state.State) (any, error) {
		id, err := poolID(p)
		if err != nil {
			return nil, err
		}
		return &AmountResponse{req.Amount}, h.ledger.Protocol().Farm.Withdraw(st, req.Account, id, req.Amount)
	})
}

func (h *Handler) farmEmergencyWithdraw(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	req := new(AccountRequest)
	h.submit(w, r, "farm.emergencyWithdraw", req, func(st *state.State) (any, error) {
		id, err := poolID(p)
		if err != nil {
			return nil, err
		}
		amt, err := h.ledger.Protocol().Farm.EmergencyWithdraw(st, req.Account, id)
		return &AmountResponse{amt}, err
	})
}

func (h *Handler) queue(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(QueueRequest)
	h.submit(w, r, "timelock.queue", req, func(st *state.State) (any, error) {
		a, err := h.ledger.Protocol().Timelock.Queue(st, req.Caller, req.Target, req.Method, req.Payload, req.ETA)
		if err != nil {
			return nil, err
		}
		return &ActionInfo{a, a.Phase(st.Now())}, nil
	})
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	req := new(AccountRequest)
	h.submit(w, r, "timelock.execute", req, func(st *state.State) (any, error) {
		return h.settleAction(st, p.ByName("action"), func(id string) error {
			return h.ledger.Protocol().Timelock.Execute(st, req.Account, id)
		})
	})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	req := new(AccountRequest)
	h.submit(w, r, "timelock.cancel", req, func(st *state.State) (any, error) {
		return h.settleAction(st, p.ByName("action"), func(id string) error {
			return h.ledger.Protocol().Timelock.Cancel(st, req.Account, id)
		})
	})
}

// settleAction runs fn and returns the action's resulting state.
func (h *Handler) settleAction(st *state.State, id string, fn func(string) error) (any, error) {
	err := fn(id)
	if err != nil {
		return nil, err
	}
	a, err := timelock.GetAction(st, id)
	if err != nil {
		return nil, err
	}
	return &ActionInfo{a, a.Phase(st.Now())}, nil
}
