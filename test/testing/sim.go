// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package testing provides fixtures for protocol tests.
package testing

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/bank"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/logging"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue/memory"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
	"github.com/stretchr/testify/require"
)

// GenesisTime is the time of the first block of a simulation.
var GenesisTime = time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

// Sim is a minimal in-memory ledger. Each call to Exec runs an operation in
// its own state and commits it if the operation succeeds, the way the node
// does.
type Sim struct {
	T      testing.TB
	DB     *memory.Database
	Header state.Header
}

func NewSim(t testing.TB) *Sim {
	return &Sim{
		T:      t,
		DB:     memory.New(),
		Header: state.Header{Height: 1, Time: GenesisTime},
	}
}

// Context returns a context that logs to the test log.
func (s *Sim) Context() context.Context {
	return logging.With(context.Background(), "test", s.T.Name())
}

// Begin returns a writable state at the current header. The caller is
// responsible for committing or discarding it.
func (s *Sim) Begin() *state.State {
	return state.New(s.Context(), s.DB.Begin(true), s.Header)
}

// Exec runs fn and commits its changes if it succeeds.
func (s *Sim) Exec(fn func(st *state.State) error) error {
	st := s.Begin()
	defer st.Discard()
	err := fn(st)
	if err != nil {
		return err
	}
	return st.Commit()
}

// Must runs fn with Exec and fails the test if it returns an error.
func (s *Sim) Must(fn func(st *state.State) error) {
	s.T.Helper()
	require.NoError(s.T, s.Exec(fn))
}

// View runs fn against a read-only state.
func (s *Sim) View(fn func(st *state.State)) {
	st := state.New(s.Context(), s.DB.Begin(false), s.Header)
	defer st.Discard()
	fn(st)
}

// Advance moves the simulation forward.
func (s *Sim) Advance(blocks uint64, d time.Duration) {
	s.Header.Height += blocks
	s.Header.Time = s.Header.Time.Add(d)
}

// Asset registers an asset minted by the genesis account.
func (s *Sim) Asset(id string, decimals uint8) {
	s.T.Helper()
	s.Must(func(st *state.State) error {
		return bank.RegisterAsset(st, bank.Asset{ID: id, Symbol: id, Decimals: decimals, Minter: address.Genesis})
	})
}

// Fund mints amount of a genesis asset to the account, registering the
// asset if necessary.
func (s *Sim) Fund(asset string, account address.Address, amount int64) {
	s.T.Helper()
	s.Must(func(st *state.State) error {
		_, err := bank.GetAsset(st, asset)
		if errors.Is(err, errors.NotFound) {
			err = bank.RegisterAsset(st, bank.Asset{ID: asset, Symbol: asset, Decimals: 18, Minter: address.Genesis})
		}
		if err != nil {
			return err
		}
		return bank.Mint(st, address.Genesis, asset, account, math.NewInt(amount))
	})
}

// Balance returns the balance of the account.
func (s *Sim) Balance(asset string, account address.Address) math.Int {
	s.T.Helper()
	var bal math.Int
	s.View(func(st *state.State) {
		var err error
		bal, err = bank.BalanceOf(st, asset, account)
		require.NoError(s.T, err)
	})
	return bal
}

// RequireBalance fails the test if the balance of the account does not
// equal expect.
func (s *Sim) RequireBalance(asset string, account address.Address, expect int64) {
	s.T.Helper()
	RequireInt(s.T, expect, s.Balance(asset, account), "balance of %v in %s", account, asset)
}

// RequireInt fails the test if actual does not equal expect.
func RequireInt(t testing.TB, expect int64, actual math.Int, msgAndArgs ...any) {
	t.Helper()
	require.False(t, actual.IsNil(), msgAndArgs...)
	require.Equal(t, math.NewInt(expect).String(), actual.String(), msgAndArgs...)
}
