// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package protocol_test

import (
	"encoding/json"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/config"
	"github.com/gulitsky/firedao-protocol/internal/core/farm"
	"github.com/gulitsky/firedao-protocol/internal/core/harvester"
	. "github.com/gulitsky/firedao-protocol/internal/core/protocol"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/core/strategy"
	"github.com/gulitsky/firedao-protocol/internal/core/timelock"
	"github.com/gulitsky/firedao-protocol/internal/core/vault"
	"github.com/gulitsky/firedao-protocol/internal/genesis"
	"github.com/gulitsky/firedao-protocol/internal/yieldsource"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
	fdtesting "github.com/gulitsky/firedao-protocol/test/testing"
	"github.com/stretchr/testify/require"
)

func init() { fdtesting.EnableDebugFeatures() }

var unit = math.NewIntWithDecimal(1, 18)

func units(n int64) math.Int { return math.NewInt(n).Mul(unit) }

func setup(t *testing.T) (*fdtesting.Sim, *Protocol) {
	sim := fdtesting.NewSim(t)
	p := New(nil)
	g := config.DevnetGenesis()
	sim.Must(func(st *state.State) error { return genesis.Apply(st, p, &g, nil) })
	sim.Advance(1, time.Minute)
	return sim, p
}

func reported(t *testing.T, sim *fdtesting.Sim, p *Protocol, id string) math.Int {
	var b math.Int
	sim.View(func(st *state.State) {
		s, err := p.Strategies.Load(st, id)
		require.NoError(t, err)
		b, err = s.ReportedBalance(st)
		require.NoError(t, err)
	})
	return b
}

// govern queues a call through the timelock, waits out the delay, and
// executes it.
func govern(t *testing.T, sim *fdtesting.Sim, p *Protocol, target, method string, payload any) {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)

	var a *timelock.Action
	sim.Must(func(st *state.State) error {
		var err error
		a, err = p.Timelock.Queue(st, "ops", target, method, b, st.Now().Add(48*time.Hour))
		return err
	})
	require.ErrorIs(t, sim.Exec(func(st *state.State) error {
		return p.Timelock.Execute(st, "ops", a.ID)
	}), errors.NotReady)

	sim.Advance(1, 49*time.Hour)
	sim.Must(func(st *state.State) error { return p.Timelock.Execute(st, "ops", a.ID) })
}

func TestLifecycle(t *testing.T) {
	sim, p := setup(t)

	// Deposit and deploy
	sim.Must(func(st *state.State) error {
		_, err := p.Vaults.Deposit(st, "alice", "DAI-CAKE", units(10000))
		return err
	})
	sim.Must(func(st *state.State) error {
		_, err := p.Vaults.Earn(st, "DAI-CAKE")
		return err
	})
	require.Equal(t, units(9000).String(), reported(t, sim, p, "venus-dai").String())

	// Interest accrues and is harvested into CAKE
	sim.Must(func(st *state.State) error { return yieldsource.Accrue(st, "venus-dai", "ops", units(900)) })

	var r *harvester.Result
	sim.Must(func(st *state.State) error {
		path := []string{"DAI", "CAKE"}
		quote, err := p.Router.Quote(st, path, units(900))
		require.NoError(t, err)
		r, err = p.Harvester.HarvestVault(st, "keeper", harvester.Request{
			Vault:    "DAI-CAKE",
			MinOut:   quote,
			PathIn:   path,
			Deadline: st.Now().Add(time.Minute),
		})
		return err
	})
	require.Equal(t, units(900).String(), r.Yield.String())
	require.Equal(t, r.Target.MulRaw(2000).QuoRaw(10000).String(), r.Fee.String())
	require.Equal(t, r.Target.Sub(r.Fee).String(), r.Profit.String())
	require.Equal(t, r.Fee.String(), sim.Balance("CAKE", "treasury").String())

	// Alice is the only depositor, so the profit is hers, less rounding
	var claimed math.Int
	sim.Must(func(st *state.State) error {
		var err error
		claimed, err = p.Vaults.Claim(st, "alice", "DAI-CAKE")
		return err
	})
	require.True(t, claimed.LTE(r.Profit))
	require.True(t, r.Profit.Sub(claimed).LT(math.NewInt(10000)))
	require.Equal(t, claimed.String(), sim.Balance("CAKE", "alice").String())

	// Migrate to a new market through the timelock
	sim.Must(func(st *state.State) error {
		err := yieldsource.Register(st, yieldsource.Source{ID: "venus-dai-v2", Kind: yieldsource.KindLending, Underlying: "DAI", RewardAsset: "XVS"})
		if err != nil {
			return err
		}
		_, err = p.Strategies.Create(st, strategy.Record{
			ID:         "venus-dai-v2",
			Vault:      "DAI-CAKE",
			Kind:       strategy.KindLending,
			Underlying: "DAI",
			Source:     "venus-dai-v2",
			Owner:      address.Timelock,
		})
		return err
	})
	govern(t, sim, p, VaultTarget("DAI-CAKE"), "setStrategy", vault.SetStrategy{Strategy: "venus-dai-v2"})

	sim.View(func(st *state.State) {
		v, err := vault.Get(st, "DAI-CAKE")
		require.NoError(t, err)
		require.Equal(t, "venus-dai-v2", v.Strategy)
	})
	require.True(t, reported(t, sim, p, "venus-dai").IsZero())
	require.Equal(t, units(10000).String(), sim.Balance("DAI", address.Vault("DAI-CAKE")).String())

	sim.Must(func(st *state.State) error {
		_, err := p.Vaults.Earn(st, "DAI-CAKE")
		return err
	})
	require.Equal(t, units(9000).String(), reported(t, sim, p, "venus-dai-v2").String())

	// Withdraw everything, less the 0.1% fee
	before := sim.Balance("DAI", "alice")
	sim.Must(func(st *state.State) error {
		_, err := p.Vaults.Withdraw(st, "alice", "DAI-CAKE", units(10000))
		return err
	})
	require.Equal(t, units(9990).String(), sim.Balance("DAI", "alice").Sub(before).String())
}

func TestGovernedOnlyThroughTimelock(t *testing.T) {
	sim, p := setup(t)

	err := sim.Exec(func(st *state.State) error {
		return p.Vaults.Execute(st, "ops", "DAI-CAKE", "setPaused", json.RawMessage(`{"paused":true}`))
	})
	require.ErrorIs(t, err, errors.Unauthorized)

	govern(t, sim, p, VaultTarget("DAI-CAKE"), "setPaused", vault.SetPaused{Paused: true})
	err = sim.Exec(func(st *state.State) error {
		_, err := p.Vaults.Deposit(st, "alice", "DAI-CAKE", units(1))
		return err
	})
	require.ErrorIs(t, err, errors.VaultPaused)

	govern(t, sim, p, StrategyTarget("venus-dai"), "setStrategist", strategy.SetStrategist{Strategist: "bob"})
	sim.View(func(st *state.State) {
		rec, err := strategy.GetRecord(st, "venus-dai")
		require.NoError(t, err)
		require.Equal(t, address.Address("bob"), rec.Strategist)
	})

	govern(t, sim, p, TargetFarm, "setWeight", farm.SetWeight{Pool: 1, Weight: 3})
	sim.View(func(st *state.State) {
		cfg, err := farm.Get(st)
		require.NoError(t, err)
		require.Equal(t, uint64(4), cfg.TotalWeight)
	})
}

