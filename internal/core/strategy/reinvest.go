// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package strategy

import (
	"time"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/bank"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/core/swap"
	"github.com/gulitsky/firedao-protocol/internal/events"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
)

type rewardSource interface {
	Underlying(st *state.State) (string, error)
	RewardAsset(st *state.State) (string, error)
	ClaimRewards(st *state.State, holder address.Address) (math.Int, error)
	PendingRewards(st *state.State, holder address.Address) (math.Int, error)
}

// rewarding implements reinvestment for strategies whose yield source pays
// a reward token.
type rewarding struct {
	base
	router swap.Router
}

func (s *Lending) Reinvest(st *state.State, caller address.Address, minOut math.Int, deadline time.Time) (math.Int, error) {
	return s.reinvest(st, s.market, caller, minOut, deadline)
}

func (s *Staking) Reinvest(st *state.State, caller address.Address, minOut math.Int, deadline time.Time) (math.Int, error) {
	return s.reinvest(st, s.pool, caller, minOut, deadline)
}

func (s *Lending) QuoteReinvest(st *state.State) (math.Int, error) {
	return s.quote(st, s.market)
}

func (s *Staking) QuoteReinvest(st *state.State) (math.Int, error) {
	return s.quote(st, s.pool)
}

// RewardPath returns the swap path from the reward token to the underlying.
func (s *rewarding) RewardPath() []string {
	return s.rec.RewardPath
}

func (s *rewarding) reinvest(st *state.State, src rewardSource, caller address.Address, minOut math.Int, deadline time.Time) (math.Int, error) {
	if caller != s.rec.Owner && (s.rec.Strategist == "" || caller != s.rec.Strategist) {
		return math.Int{}, errors.Unauthorized.WithFormat("%v may not reinvest strategy %s", caller, s.rec.ID)
	}
	exit, err := s.enter(st)
	if err != nil {
		return math.Int{}, err
	}
	defer exit()

	claimed, err := src.ClaimRewards(st, s.Account())
	if err != nil {
		return math.Int{}, err
	}
	reward, err := src.RewardAsset(st)
	if err != nil {
		return math.Int{}, err
	}

	var out math.Int
	if reward == s.rec.Underlying {
		out = claimed
	} else {
		// Swap every reward token held, including any left by an earlier
		// reinvestment
		held, err := bank.BalanceOf(st, reward, s.Account())
		if err != nil {
			return math.Int{}, err
		}
		if held.IsZero() {
			return math.ZeroInt(), nil
		}

		path := s.rec.RewardPath
		if len(path) == 0 {
			path = []string{reward, s.rec.Underlying}
		}
		if path[0] != reward || path[len(path)-1] != s.rec.Underlying {
			return math.Int{}, errors.BadRequest.WithFormat("reward path %v of strategy %s does not lead from %s to %s", path, s.rec.ID, reward, s.rec.Underlying)
		}

		out, err = s.router.SwapExactIn(st, s.Account(), path, held, minOut, deadline, s.Account())
		if err != nil {
			return math.Int{}, err
		}
		claimed = held
	}

	idle, err := s.idle(st)
	if err != nil {
		return math.Int{}, err
	}
	if idle.IsPositive() {
		err = s.pos.deploy(st, s.Account(), idle)
		if err != nil {
			return math.Int{}, err
		}
	}

	if out.IsPositive() {
		st.Emit(events.Reinvested{Strategy: s.rec.ID, Rewards: claimed, Amount: out})
		s.logger.InfoContext(st.Context(), "Reinvested", "rewards", claimed, "amount", out)
	}
	return out, nil
}

// quote returns the underlying a reinvestment would produce at current
// prices. It does not modify state.
func (s *rewarding) quote(st *state.State, src rewardSource) (math.Int, error) {
	pending, err := src.PendingRewards(st, s.Account())
	if err != nil {
		return math.Int{}, err
	}
	reward, err := src.RewardAsset(st)
	if err != nil {
		return math.Int{}, err
	}
	if reward == s.rec.Underlying {
		return pending, nil
	}

	held, err := bank.BalanceOf(st, reward, s.Account())
	if err != nil {
		return math.Int{}, err
	}
	held = held.Add(pending)
	if held.IsZero() {
		return held, nil
	}

	path := s.rec.RewardPath
	if len(path) == 0 {
		path = []string{reward, s.rec.Underlying}
	}
	return s.router.Quote(st, path, held)
}
