// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package vault

import (
	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/bank"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
)

// Idle returns the underlying held by the vault itself, excluding reserved
// profit.
func (m *Manager) Idle(st *state.State, id string) (math.Int, error) {
	v, err := Get(st, id)
	if err != nil {
		return math.Int{}, err
	}
	return idle(st, v)
}

func idle(st *state.State, v *Vault) (math.Int, error) {
	bal, err := bank.BalanceOf(st, v.Underlying, v.Account())
	if err != nil {
		return math.Int{}, err
	}
	if v.Direct() {
		bal = bal.Sub(v.ReservedProfit)
		if bal.IsNegative() {
			bal = math.ZeroInt()
		}
	}
	return bal, nil
}

// TotalValue returns the vault's idle balance plus the strategy's reported
// balance.
func (m *Manager) TotalValue(st *state.State, id string) (math.Int, error) {
	v, err := Get(st, id)
	if err != nil {
		return math.Int{}, err
	}
	return m.totalValue(st, v)
}

func (m *Manager) totalValue(st *state.State, v *Vault) (math.Int, error) {
	total, err := idle(st, v)
	if err != nil {
		return math.Int{}, err
	}
	s, err := m.strategy(st, v)
	if err != nil || s == nil {
		return total, err
	}
	bal, err := s.ReportedBalance(st)
	if err != nil {
		return math.Int{}, err
	}
	return total.Add(bal), nil
}

// UnderlyingYield returns the vault's total value in excess of its total
// shares. A vault whose value has fallen below its shares reports zero.
func (m *Manager) UnderlyingYield(st *state.State, id string) (math.Int, error) {
	v, err := Get(st, id)
	if err != nil {
		return math.Int{}, err
	}
	return m.underlyingYield(st, v)
}

func (m *Manager) underlyingYield(st *state.State, v *Vault) (math.Int, error) {
	total, err := m.totalValue(st, v)
	if err != nil {
		return math.Int{}, err
	}
	y := total.Sub(v.TotalShares)
	if y.IsNegative() {
		return math.ZeroInt(), nil
	}
	return y, nil
}

// SharesOf returns the shares held by the account.
func (m *Manager) SharesOf(st *state.State, id string, account address.Address) (math.Int, error) {
	d, err := GetDepositor(st, id, account)
	if err != nil {
		return math.Int{}, err
	}
	return d.Shares, nil
}
