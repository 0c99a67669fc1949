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
	"github.com/gulitsky/firedao-protocol/internal/events"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
	"github.com/gulitsky/firedao-protocol/pkg/types/amount"
)

// settle moves profit accrued since the position was last settled into
// Unclaimed.
func settle(v *Vault, d *Depositor) {
	delta := v.ProfitPerShare.Sub(d.LastClaimed)
	if delta.IsPositive() && d.Shares.IsPositive() {
		d.Unclaimed = d.Unclaimed.Add(d.Shares.Mul(delta).Quo(precision))
	}
	d.LastClaimed = v.ProfitPerShare
}

// PendingProfit returns the target profit the account can claim.
func (m *Manager) PendingProfit(st *state.State, id string, account address.Address) (math.Int, error) {
	v, err := Get(st, id)
	if err != nil {
		return math.Int{}, err
	}
	d, err := GetDepositor(st, id, account)
	if err != nil {
		return math.Int{}, err
	}
	settle(v, d)
	return d.Unclaimed, nil
}

// Claim pays the caller's pending profit in the target asset. Claiming with
// nothing pending pays nothing.
func (m *Manager) Claim(st *state.State, caller address.Address, id string) (math.Int, error) {
	v, exit, err := m.begin(st, id)
	if err != nil {
		return math.Int{}, err
	}
	defer exit()

	d, err := GetDepositor(st, id, caller)
	if err != nil {
		return math.Int{}, err
	}
	settle(v, d)
	pay := d.Unclaimed
	if pay.IsZero() {
		return pay, nil
	}

	d.Unclaimed = math.ZeroInt()
	if v.Direct() {
		v.ReservedProfit = v.ReservedProfit.Sub(pay)
		if v.ReservedProfit.IsNegative() {
			return math.Int{}, errors.InternalError.WithFormat("vault %s reserved profit is negative", id)
		}
	}
	if err := putDepositor(st, v, caller, d); err != nil {
		return math.Int{}, err
	}
	if err := putVault(st, v); err != nil {
		return math.Int{}, err
	}

	err = bank.Transfer(st, v.Target, v.Account(), caller, pay)
	if err != nil {
		return math.Int{}, err
	}

	st.Emit(events.ProfitClaimed{Vault: id, Account: caller, Amount: pay})
	m.logger.DebugContext(st.Context(), "Claim", "vault", id, "account", caller, "amount", pay)
	return pay, nil
}

// ReleaseYield transfers amount of underlying yield to the vault's
// harvester, taking it from the strategy first and then from the idle
// balance. Only the harvester may release yield, and never more than the
// vault's underlying yield.
func (m *Manager) ReleaseYield(st *state.State, caller address.Address, id string, amt math.Int) error {
	if err := amount.RequirePositive(amt, "yield"); err != nil {
		return err
	}
	v, exit, err := m.begin(st, id)
	if err != nil {
		return err
	}
	defer exit()

	if caller != v.Harvester {
		return errors.Unauthorized.WithFormat("%v is not the harvester of vault %s", caller, id)
	}
	y, err := m.underlyingYield(st, v)
	if err != nil {
		return err
	}
	if amt.GT(y) {
		return errors.InsufficientBalance.WithFormat("vault %s has %v yield, cannot release %v", id, y, amt)
	}

	s, err := m.strategy(st, v)
	if err != nil {
		return err
	}
	if s != nil {
		reported, err := s.ReportedBalance(st)
		if err != nil {
			return err
		}
		if pull := math.MinInt(amt, reported); pull.IsPositive() {
			_, err = s.Withdraw(st, v.Account(), pull)
			if err != nil {
				return err
			}
		}
	}

	err = bank.Transfer(st, v.Underlying, v.Account(), caller, amt)
	if err != nil {
		return err
	}

	m.logger.DebugContext(st.Context(), "Released yield", "vault", id, "amount", amt)
	return nil
}

// CreditProfit transfers amount of target from the harvester to the vault
// and distributes it to the vault's shares. Only the harvester may credit
// profit. Division dust stays in the vault.
func (m *Manager) CreditProfit(st *state.State, caller address.Address, id string, amt math.Int) error {
	if err := amount.RequirePositive(amt, "profit"); err != nil {
		return err
	}
	v, exit, err := m.begin(st, id)
	if err != nil {
		return err
	}
	defer exit()

	if caller != v.Harvester {
		return errors.Unauthorized.WithFormat("%v is not the harvester of vault %s", caller, id)
	}
	if !v.TotalShares.IsPositive() {
		return errors.BadRequest.WithFormat("vault %s has no shares to credit", id)
	}

	err = bank.Transfer(st, v.Target, caller, v.Account(), amt)
	if err != nil {
		return err
	}

	v.ProfitPerShare = v.ProfitPerShare.Add(amt.Mul(precision).Quo(v.TotalShares))
	if v.Direct() {
		v.ReservedProfit = v.ReservedProfit.Add(amt)
	}
	if err := putVault(st, v); err != nil {
		return err
	}

	m.logger.DebugContext(st.Context(), "Credited profit", "vault", id, "amount", amt, "profitPerShare", v.ProfitPerShare)
	return nil
}
