// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package harvester

import (
	"encoding/json"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/bank"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/core/strategy"
	"github.com/gulitsky/firedao-protocol/internal/core/swap"
	"github.com/gulitsky/firedao-protocol/internal/core/vault"
	"github.com/gulitsky/firedao-protocol/internal/events"
	"github.com/gulitsky/firedao-protocol/internal/yieldsource"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
	"github.com/gulitsky/firedao-protocol/pkg/types/amount"
	fdtesting "github.com/gulitsky/firedao-protocol/test/testing"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	*fdtesting.Sim
	t      *testing.T
	router *swap.ConstantProduct
	vaults *vault.Manager
	h      *Harvester
}

// setup creates a vault with 10000 DAI deposited by alice, 9000 of which is
// supplied to a lending market that has earned 900 interest.
func setup(t *testing.T, underlying, target string) *fixture {
	sim := fdtesting.NewSim(t)
	sim.Fund("DAI", "alice", 10_000)
	sim.Fund("DAI", "ops", 1_000_000)
	sim.Fund("DAI", "lp", 1_000_000)
	sim.Fund("CAKE", "lp", 2_000_000)
	sim.Fund("FIRE", "lp", 1_000_000)
	sim.Asset("XVS", 18)

	router := swap.NewConstantProduct(nil)
	loader := strategy.NewLoader(yieldsource.Registry{}, router, nil)
	vaults := vault.NewManager(loader, nil)
	f := &fixture{Sim: sim, t: t, router: router, vaults: vaults, h: New(vaults, router, nil)}

	f.Must(func(st *state.State) error {
		err := router.AddLiquidity(st, "lp", "DAI", "CAKE", math.NewInt(1_000_000), math.NewInt(1_000_000))
		if err != nil {
			return err
		}
		err = router.AddLiquidity(st, "lp", "CAKE", "FIRE", math.NewInt(1_000_000), math.NewInt(1_000_000))
		if err != nil {
			return err
		}
		err = yieldsource.Register(st, yieldsource.Source{ID: "venus-dai", Kind: yieldsource.KindLending, Underlying: "DAI", RewardAsset: "XVS"})
		if err != nil {
			return err
		}
		_, err = vaults.Create(st, vault.Params{
			ID:                "v",
			Underlying:        underlying,
			Target:            target,
			Harvester:         address.Harvester,
			Timelock:          address.Timelock,
			BarrierBps:        vault.DefaultBarrierBps,
			WithdrawalFeeBps:  vault.DefaultWithdrawalFeeBps,
			PerformanceFeeBps: vault.DefaultPerformanceFeeBps,
		})
		if err != nil {
			return err
		}
		_, err = loader.Create(st, strategy.Record{ID: "venus-dai", Vault: "v", Kind: strategy.KindLending, Underlying: "DAI", Source: "venus-dai", Owner: address.Timelock})
		if err != nil {
			return err
		}
		payload, err := json.Marshal(vault.SetStrategy{Strategy: "venus-dai"})
		if err != nil {
			return err
		}
		err = vaults.Execute(st, address.Timelock, "v", "setStrategy", payload)
		if err != nil {
			return err
		}
		return f.h.Init(st, Config{Admin: "admin", Treasury: "treasury", Keepers: []address.Address{"keeper"}, BuybackAsset: "FIRE", BurnBuyback: true})
	})

	f.Must(func(st *state.State) error {
		_, err := vaults.Deposit(st, "alice", "v", math.NewInt(10_000))
		if err != nil {
			return err
		}
		_, err = vaults.Earn(st, "v")
		return err
	})
	f.Must(func(st *state.State) error {
		return yieldsource.Accrue(st, "venus-dai", "ops", math.NewInt(900))
	})
	return f
}

func (f *fixture) request(minOut int64) Request {
	return Request{
		Vault:    "v",
		MinOut:   math.NewInt(minOut),
		PathIn:   []string{"DAI", "CAKE"},
		PathOut:  []string{"CAKE", "FIRE"},
		Deadline: f.Header.Time.Add(time.Minute),
	}
}

func (f *fixture) harvest(caller address.Address, req Request) (*Result, error) {
	var r *Result
	err := f.Exec(func(st *state.State) error {
		var err error
		r, err = f.h.HarvestVault(st, caller, req)
		return err
	})
	return r, err
}

func (f *fixture) vault() *vault.Vault {
	var v *vault.Vault
	f.View(func(st *state.State) {
		var err error
		v, err = vault.Get(st, "v")
		require.NoError(f.t, err)
	})
	return v
}

func (f *fixture) yield() math.Int {
	var y math.Int
	f.View(func(st *state.State) {
		var err error
		y, err = f.vaults.UnderlyingYield(st, "v")
		require.NoError(f.t, err)
	})
	return y
}

func TestHarvestDirect(t *testing.T) {
	f := setup(t, "DAI", "DAI")
	fdtesting.RequireInt(t, 900, f.yield())

	req := f.request(900)
	req.PathIn = nil
	r, err := f.harvest("keeper", req)
	require.NoError(t, err)
	fdtesting.RequireInt(t, 900, r.Yield)
	fdtesting.RequireInt(t, 180, r.Fee)
	fdtesting.RequireInt(t, 720, r.Profit)

	f.RequireBalance("DAI", "treasury", 180)
	f.RequireBalance("DAI", address.Harvester, 0)
	require.Equal(t, "72000000000000000", f.vault().ProfitPerShare.String())
	fdtesting.RequireInt(t, 0, f.yield())

	f.Must(func(st *state.State) error {
		paid, err := f.vaults.Claim(st, "alice", "v")
		fdtesting.RequireInt(t, 720, paid)
		return err
	})
	f.RequireBalance("DAI", "alice", 720)
	fdtesting.RequireInt(t, 0, f.yield())
}

func TestHarvestSwap(t *testing.T) {
	f := setup(t, "DAI", "CAKE")

	// 900 DAI swaps for 896 CAKE
	r, err := f.harvest("keeper", f.request(890))
	require.NoError(t, err)
	fdtesting.RequireInt(t, 896, r.Target)
	fdtesting.RequireInt(t, 179, r.Fee)
	fdtesting.RequireInt(t, 717, r.Profit)

	f.RequireBalance("CAKE", "treasury", 179)
	f.RequireBalance("CAKE", address.Vault("v"), 717)
	require.Equal(t, "71700000000000000", f.vault().ProfitPerShare.String())
}

func TestHarvestEmitsEvent(t *testing.T) {
	f := setup(t, "DAI", "CAKE")

	st := f.Begin()
	defer st.Discard()
	_, err := f.h.HarvestVault(st, "admin", f.request(0))
	require.NoError(t, err)

	var found bool
	for _, e := range st.Events() {
		if h, ok := e.(events.Harvested); ok {
			found = true
			require.Equal(t, "v", h.Vault)
			fdtesting.RequireInt(t, 717, h.Profit)
		}
	}
	require.True(t, found)
}

func TestHarvestSlippage(t *testing.T) {
	f := setup(t, "DAI", "CAKE")

	_, err := f.harvest("keeper", f.request(897))
	require.ErrorIs(t, err, errors.SlippageExceeded)

	// Nothing moved
	require.True(t, f.vault().ProfitPerShare.IsZero())
	fdtesting.RequireInt(t, 900, f.yield())
	f.RequireBalance("DAI", address.Harvester, 0)
	f.RequireBalance("CAKE", "treasury", 0)
}

func TestHarvestGuards(t *testing.T) {
	f := setup(t, "DAI", "CAKE")

	_, err := f.harvest("alice", f.request(0))
	require.ErrorIs(t, err, errors.Unauthorized)

	req := f.request(0)
	req.Deadline = f.Header.Time.Add(-time.Second)
	_, err = f.harvest("keeper", req)
	require.ErrorIs(t, err, errors.Expired)

	req = f.request(0)
	req.Deadline = time.Time{}
	_, err = f.harvest("keeper", req)
	require.ErrorIs(t, err, errors.BadRequest)

	req = f.request(0)
	req.PathIn = []string{"DAI", "FIRE"}
	_, err = f.harvest("keeper", req)
	require.ErrorIs(t, err, errors.BadRequest)

	req = f.request(0)
	req.Amount = math.NewInt(901)
	_, err = f.harvest("keeper", req)
	require.ErrorIs(t, err, errors.InsufficientBalance)

	_, err = f.harvest("keeper", Request{Vault: "nope", Deadline: f.Header.Time.Add(time.Minute)})
	require.ErrorIs(t, err, errors.NotFound)
}

func TestHarvestNothing(t *testing.T) {
	f := setup(t, "DAI", "CAKE")
	_, err := f.harvest("keeper", f.request(0))
	require.NoError(t, err)

	r, err := f.harvest("keeper", f.request(0))
	require.NoError(t, err)
	require.True(t, r.Yield.IsZero())
	require.True(t, r.Profit.IsZero())
}

func TestBuyback(t *testing.T) {
	f := setup(t, "DAI", "CAKE")
	require.ErrorIs(t, f.Exec(func(st *state.State) error {
		return f.h.SetBuyback(st, "keeper", 1000)
	}), errors.Unauthorized)
	require.ErrorIs(t, f.Exec(func(st *state.State) error {
		return f.h.SetBuyback(st, "admin", amount.MaxBps+1)
	}), errors.BadRequest)
	f.Must(func(st *state.State) error {
		return f.h.SetBuyback(st, "admin", 1000)
	})

	// 896 CAKE: 179 fee, 89 buyback (88 FIRE, burned), 628 profit
	r, err := f.harvest("keeper", f.request(0))
	require.NoError(t, err)
	fdtesting.RequireInt(t, 179, r.Fee)
	fdtesting.RequireInt(t, 89, r.Buyback)
	fdtesting.RequireInt(t, 88, r.Bought)
	fdtesting.RequireInt(t, 628, r.Profit)

	f.RequireBalance("FIRE", address.Harvester, 0)
	f.View(func(st *state.State) {
		supply, err := bank.TotalSupply(st, "FIRE")
		require.NoError(t, err)
		fdtesting.RequireInt(t, 1_000_000-88, supply)
	})
}

func TestFeeAndBuybackLimit(t *testing.T) {
	f := setup(t, "DAI", "CAKE")
	f.vaults.UseBuybackRate(f.h.BuybackRate)
	setFees := func(performance amount.Bps) error {
		return f.Exec(func(st *state.State) error {
			payload, err := json.Marshal(vault.SetFees{WithdrawalFeeBps: 10, PerformanceFeeBps: performance})
			if err != nil {
				return err
			}
			return f.vaults.Execute(st, address.Timelock, "v", "setFees", payload)
		})
	}

	// The vault takes 20%, so at most 80% can be bought back
	require.ErrorIs(t, f.Exec(func(st *state.State) error {
		return f.h.SetBuyback(st, "admin", 8001)
	}), errors.BadRequest)
	f.Must(func(st *state.State) error {
		return f.h.SetBuyback(st, "admin", 8000)
	})

	require.ErrorIs(t, setFees(2001), errors.BadRequest)
	require.NoError(t, setFees(1500))
	require.EqualValues(t, 1500, f.vault().PerformanceFeeBps)
}

func TestKeepersAndSweep(t *testing.T) {
	f := setup(t, "DAI", "CAKE")

	f.Must(func(st *state.State) error { return f.h.SetKeeper(st, "admin", "keeper", false) })
	_, err := f.harvest("keeper", f.request(0))
	require.ErrorIs(t, err, errors.Unauthorized)

	f.Must(func(st *state.State) error { return f.h.SetKeeper(st, "admin", "keeper2", true) })
	_, err = f.harvest("keeper2", f.request(0))
	require.NoError(t, err)

	f.Fund("XVS", address.Harvester, 50)
	require.ErrorIs(t, f.Exec(func(st *state.State) error {
		_, err := f.h.Sweep(st, "keeper2", "XVS")
		return err
	}), errors.Unauthorized)
	f.Must(func(st *state.State) error {
		swept, err := f.h.Sweep(st, "admin", "XVS")
		fdtesting.RequireInt(t, 50, swept)
		return err
	})
	f.RequireBalance("XVS", "admin", 50)
}

func TestInit(t *testing.T) {
	f := setup(t, "DAI", "CAKE")
	require.ErrorIs(t, f.Exec(func(st *state.State) error {
		return f.h.Init(st, Config{Admin: "admin", Treasury: "treasury"})
	}), errors.Conflict)

	sim := fdtesting.NewSim(t)
	require.ErrorIs(t, sim.Exec(func(st *state.State) error {
		_, err := Get(st)
		return err
	}), errors.NotReady)
	require.ErrorIs(t, sim.Exec(func(st *state.State) error {
		return f.h.Init(st, Config{Admin: "admin", Treasury: "treasury", BuybackBps: 100})
	}), errors.BadRequest)
}
