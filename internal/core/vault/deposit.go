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

// Deposit transfers amount of underlying from the caller to the vault and
// mints shares for it. Shares are minted at the rate of the vault's total
// value before the deposit, or 1:1 for the first deposit.
func (m *Manager) Deposit(st *state.State, caller address.Address, id string, amt math.Int) (math.Int, error) {
	if err := amount.RequirePositive(amt, "deposit"); err != nil {
		return math.Int{}, err
	}
	v, exit, err := m.begin(st, id)
	if err != nil {
		return math.Int{}, err
	}
	defer exit()

	if v.Paused {
		return math.Int{}, errors.VaultPaused.WithFormat("vault %s is paused", id)
	}

	d, err := GetDepositor(st, id, caller)
	if err != nil {
		return math.Int{}, err
	}
	settle(v, d)

	shares := amt
	if v.TotalShares.IsPositive() {
		total, err := m.totalValue(st, v)
		if err != nil {
			return math.Int{}, err
		}
		if !total.IsPositive() {
			return math.Int{}, errors.Shortfall.WithFormat("vault %s has shares but no value", id)
		}
		shares = amt.Mul(v.TotalShares).Quo(total)
	}
	if !shares.IsPositive() {
		return math.Int{}, errors.InvalidAmount.WithFormat("deposit of %v is worth no shares", amt)
	}

	err = bank.Transfer(st, v.Underlying, caller, v.Account(), amt)
	if err != nil {
		return math.Int{}, err
	}

	d.Shares = d.Shares.Add(shares)
	v.TotalShares = v.TotalShares.Add(shares)
	if err := putDepositor(st, v, caller, d); err != nil {
		return math.Int{}, err
	}
	if err := putVault(st, v); err != nil {
		return math.Int{}, err
	}

	st.Emit(events.Deposited{Vault: id, Account: caller, Amount: amt, Shares: shares})
	m.logger.DebugContext(st.Context(), "Deposit", "vault", id, "account", caller, "amount", amt, "shares", shares)
	return shares, nil
}

// Withdraw burns shares of the caller and pays out their value in
// underlying, less the withdrawal fee. The fee stays in the vault. If the
// vault's idle balance is short, the difference is pulled from the
// strategy.
func (m *Manager) Withdraw(st *state.State, caller address.Address, id string, shares math.Int) (math.Int, error) {
	if err := amount.RequirePositive(shares, "withdrawal"); err != nil {
		return math.Int{}, err
	}
	v, exit, err := m.begin(st, id)
	if err != nil {
		return math.Int{}, err
	}
	defer exit()

	d, err := GetDepositor(st, id, caller)
	if err != nil {
		return math.Int{}, err
	}
	if d.Shares.LT(shares) {
		return math.Int{}, errors.InsufficientShares.WithFormat("%v has %v shares of %s, needs %v", caller, d.Shares, id, shares)
	}
	settle(v, d)

	total, err := m.totalValue(st, v)
	if err != nil {
		return math.Int{}, err
	}
	owed := shares.Mul(total).Quo(v.TotalShares)
	fee := v.WithdrawalFeeBps.Of(owed)
	pay := owed.Sub(fee)

	d.Shares = d.Shares.Sub(shares)
	v.TotalShares = v.TotalShares.Sub(shares)
	if err := putDepositor(st, v, caller, d); err != nil {
		return math.Int{}, err
	}
	if err := putVault(st, v); err != nil {
		return math.Int{}, err
	}

	idle, err := idle(st, v)
	if err != nil {
		return math.Int{}, err
	}
	if idle.LT(pay) {
		s, err := m.strategy(st, v)
		if err != nil {
			return math.Int{}, err
		}
		if s == nil {
			return math.Int{}, errors.Shortfall.WithFormat("vault %s holds %v, owes %v", id, idle, pay)
		}
		_, err = s.Withdraw(st, v.Account(), pay.Sub(idle))
		if err != nil {
			return math.Int{}, err
		}
	}

	if pay.IsPositive() {
		err = bank.Transfer(st, v.Underlying, v.Account(), caller, pay)
		if err != nil {
			return math.Int{}, err
		}
	}

	st.Emit(events.Withdrawn{Vault: id, Account: caller, Shares: shares, Amount: pay, Fee: fee})
	m.logger.DebugContext(st.Context(), "Withdraw", "vault", id, "account", caller, "shares", shares, "amount", pay, "fee", fee)
	return pay, nil
}

// TransferShares moves shares from one account to another. Both positions
// are settled first, so profit accrued before the transfer stays with the
// sender.
func (m *Manager) TransferShares(st *state.State, from address.Address, id string, to address.Address, shares math.Int) error {
	if err := amount.RequirePositive(shares, "share transfer"); err != nil {
		return err
	}
	if err := to.Validate(); err != nil {
		return err
	}
	v, exit, err := m.begin(st, id)
	if err != nil {
		return err
	}
	defer exit()

	src, err := GetDepositor(st, id, from)
	if err != nil {
		return err
	}
	if src.Shares.LT(shares) {
		return errors.InsufficientShares.WithFormat("%v has %v shares of %s, needs %v", from, src.Shares, id, shares)
	}
	if from == to {
		return nil
	}
	dst, err := GetDepositor(st, id, to)
	if err != nil {
		return err
	}

	settle(v, src)
	settle(v, dst)
	src.Shares = src.Shares.Sub(shares)
	dst.Shares = dst.Shares.Add(shares)
	if err := putDepositor(st, v, from, src); err != nil {
		return err
	}
	return putDepositor(st, v, to, dst)
}
