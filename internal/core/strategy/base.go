// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package strategy

import (
	"log/slog"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/bank"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
	"github.com/gulitsky/firedao-protocol/pkg/types/amount"
)

// position is the part of a strategy that differs per yield source.
type position interface {
	deploy(st *state.State, account address.Address, amount math.Int) error
	release(st *state.State, account address.Address, amount math.Int) (math.Int, error)
	deployed(st *state.State, account address.Address) (math.Int, error)
}

type base struct {
	rec    *Record
	pos    position
	logger *slog.Logger
}

func (s *base) ID() string               { return s.rec.ID }
func (s *base) Vault() string            { return s.rec.Vault }
func (s *base) Underlying() string       { return s.rec.Underlying }
func (s *base) Kind() Kind               { return s.rec.Kind }
func (s *base) Account() address.Address { return address.Strategy(s.rec.ID) }
func (s *base) Record() Record           { return *s.rec }

func (s *base) validate(*state.State) error { return nil }

func (s *base) enter(st *state.State) (func(), error) {
	return st.Enter(s.Account().String())
}

func (s *base) requireVault(caller address.Address) error {
	if caller != address.Vault(s.rec.Vault) {
		return errors.Unauthorized.WithFormat("%v is not the vault of strategy %s", caller, s.rec.ID)
	}
	return nil
}

func (s *base) idle(st *state.State) (math.Int, error) {
	return bank.BalanceOf(st, s.rec.Underlying, s.Account())
}

func (s *base) Deposit(st *state.State, caller address.Address, amt math.Int) error {
	if err := s.requireVault(caller); err != nil {
		return err
	}
	if err := amount.RequirePositive(amt, "deposit"); err != nil {
		return err
	}
	exit, err := s.enter(st)
	if err != nil {
		return err
	}
	defer exit()

	err = bank.Transfer(st, s.rec.Underlying, caller, s.Account(), amt)
	if err != nil {
		return err
	}

	// Deploy everything idle, including anything left over from earlier
	idle, err := s.idle(st)
	if err != nil {
		return err
	}
	err = s.pos.deploy(st, s.Account(), idle)
	if err != nil {
		return err
	}

	s.logger.DebugContext(st.Context(), "Deposit", "amount", amt, "deployed", idle)
	return nil
}

func (s *base) Withdraw(st *state.State, caller address.Address, amt math.Int) (math.Int, error) {
	if err := s.requireVault(caller); err != nil {
		return math.Int{}, err
	}
	if err := amount.RequirePositive(amt, "withdrawal"); err != nil {
		return math.Int{}, err
	}
	exit, err := s.enter(st)
	if err != nil {
		return math.Int{}, err
	}
	defer exit()

	idle, err := s.idle(st)
	if err != nil {
		return math.Int{}, err
	}
	if idle.LT(amt) {
		_, err = s.pos.release(st, s.Account(), amt.Sub(idle))
		if err != nil {
			return math.Int{}, err
		}
		idle, err = s.idle(st)
		if err != nil {
			return math.Int{}, err
		}
	}

	actual := math.MinInt(amt, idle)
	if actual.IsPositive() {
		err = bank.Transfer(st, s.rec.Underlying, s.Account(), caller, actual)
		if err != nil {
			return math.Int{}, err
		}
	}

	s.logger.DebugContext(st.Context(), "Withdraw", "requested", amt, "delivered", actual)
	if actual.LT(amt) {
		return actual, errors.Shortfall.WithFormat("strategy %s delivered %v of %v %s", s.rec.ID, actual, amt, s.rec.Underlying)
	}
	return actual, nil
}

func (s *base) WithdrawAll(st *state.State, caller address.Address) (math.Int, error) {
	if err := s.requireVault(caller); err != nil {
		return math.Int{}, err
	}
	exit, err := s.enter(st)
	if err != nil {
		return math.Int{}, err
	}
	defer exit()

	deployed, err := s.pos.deployed(st, s.Account())
	if err != nil {
		return math.Int{}, err
	}
	if deployed.IsPositive() {
		_, err = s.pos.release(st, s.Account(), deployed)
		if err != nil {
			return math.Int{}, err
		}
	}

	idle, err := s.idle(st)
	if err != nil {
		return math.Int{}, err
	}
	if idle.IsPositive() {
		err = bank.Transfer(st, s.rec.Underlying, s.Account(), caller, idle)
		if err != nil {
			return math.Int{}, err
		}
	}

	s.logger.InfoContext(st.Context(), "Withdrew all", "delivered", idle)
	return idle, nil
}

func (s *base) ReportedBalance(st *state.State) (math.Int, error) {
	idle, err := s.idle(st)
	if err != nil {
		return math.Int{}, err
	}
	deployed, err := s.pos.deployed(st, s.Account())
	if err != nil {
		return math.Int{}, err
	}
	return idle.Add(deployed), nil
}
