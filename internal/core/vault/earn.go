// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package vault

import (
	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/events"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
)

// Earn keeps the barrier fraction of the vault's idle balance and moves the
// rest into the strategy. It returns the amount moved; with nothing to move it
// is a no-op.
func (m *Manager) Earn(st *state.State, id string) (math.Int, error) {
	v, exit, err := m.begin(st, id)
	if err != nil {
		return math.Int{}, err
	}
	defer exit()

	s, err := m.strategy(st, v)
	if err != nil {
		return math.Int{}, err
	}
	if s == nil || v.Paused {
		return math.Int{}, errors.VaultPaused.WithFormat("vault %s is paused", id)
	}

	idle, err := idle(st, v)
	if err != nil {
		return math.Int{}, err
	}
	excess := idle.Sub(v.BarrierBps.Of(idle))
	if !excess.IsPositive() {
		return math.ZeroInt(), nil
	}

	err = s.Deposit(st, v.Account(), excess)
	if err != nil {
		return math.Int{}, err
	}

	st.Emit(events.Earned{Vault: id, Strategy: s.ID(), Amount: excess})
	m.logger.DebugContext(st.Context(), "Earn", "vault", id, "strategy", s.ID(), "amount", excess)
	return excess, nil
}
