// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package node

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/config"
	"github.com/gulitsky/firedao-protocol/internal/core/bank"
	"github.com/gulitsky/firedao-protocol/internal/core/protocol"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/events"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue/memory"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	fdtesting "github.com/gulitsky/firedao-protocol/test/testing"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func open(t *testing.T, db *memory.Database, c *clock, bus *events.Bus) *Node {
	g := config.DevnetGenesis()
	n, err := New(context.Background(), Options{
		Database: db,
		Protocol: protocol.New(nil),
		Genesis:  &g,
		Events:   bus,
		Clock:    c.Now,
	})
	require.NoError(t, err)
	return n
}

func deposit(n *Node, amount int64) error {
	return n.Execute(context.Background(), "deposit", func(st *state.State) error {
		_, err := n.Protocol().Vaults.Deposit(st, "alice", "DAI-CAKE", math.NewInt(amount))
		return err
	})
}

func balance(t *testing.T, n *Node, asset string) math.Int {
	var b math.Int
	require.NoError(t, n.View(context.Background(), func(st *state.State) error {
		var err error
		b, err = bank.BalanceOf(st, asset, "vault/DAI-CAKE")
		return err
	}))
	return b
}

func TestGenesis(t *testing.T) {
	c := &clock{fdtesting.GenesisTime}
	n := open(t, memory.New(), c, nil)
	require.Equal(t, Head{Height: 1, Time: fdtesting.GenesisTime}, n.Head())

	_, err := New(context.Background(), Options{Database: memory.New(), Protocol: protocol.New(nil)})
	require.ErrorIs(t, err, errors.NotReady)
}

func TestExecute(t *testing.T) {
	c := &clock{fdtesting.GenesisTime}
	bus := events.NewBus(nil)
	var seen []string
	events.SubscribeSync(bus, func(e events.DidCommit) { seen = append(seen, e.EventType()) })
	events.SubscribeSync(bus, func(e events.Deposited) { seen = append(seen, e.EventType()) })

	n := open(t, memory.New(), c, bus)
	seen = nil

	c.now = c.now.Add(time.Minute)
	require.NoError(t, deposit(n, 1000))
	require.Equal(t, Head{Height: 2, Time: c.now}, n.Head())
	require.Equal(t, []string{"didCommit", "deposited"}, seen)
	fdtesting.RequireInt(t, 1000, balance(t, n, "DAI"))

	// A failed operation changes nothing
	seen = nil
	require.ErrorIs(t, deposit(n, 0), errors.InvalidAmount)
	require.Equal(t, uint64(2), n.Head().Height)
	require.Empty(t, seen)

	err := n.Execute(context.Background(), "partial", func(st *state.State) error {
		_, err := n.Protocol().Vaults.Deposit(st, "alice", "DAI-CAKE", math.NewInt(1000))
		if err != nil {
			return err
		}
		return errors.InternalError.With("boom")
	})
	require.ErrorIs(t, err, errors.InternalError)
	fdtesting.RequireInt(t, 1000, balance(t, n, "DAI"))
}

func TestClockNeverGoesBack(t *testing.T) {
	c := &clock{fdtesting.GenesisTime}
	n := open(t, memory.New(), c, nil)

	c.now = c.now.Add(-time.Hour)
	require.NoError(t, deposit(n, 1000))
	require.Equal(t, fdtesting.GenesisTime, n.Head().Time)
}

func TestReopen(t *testing.T) {
	db := memory.New()
	c := &clock{fdtesting.GenesisTime}
	n := open(t, db, c, nil)
	require.NoError(t, deposit(n, 1000))

	// Reopening does not reapply the genesis
	n = open(t, db, c, nil)
	require.Equal(t, uint64(2), n.Head().Height)
	fdtesting.RequireInt(t, 1000, balance(t, n, "DAI"))
}
