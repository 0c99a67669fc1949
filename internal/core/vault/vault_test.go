// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package vault

import (
	"encoding/json"
	"testing"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/core/strategy"
	"github.com/gulitsky/firedao-protocol/internal/core/swap"
	"github.com/gulitsky/firedao-protocol/internal/yieldsource"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
	fdtesting "github.com/gulitsky/firedao-protocol/test/testing"
	"github.com/stretchr/testify/require"
)

func init() { fdtesting.EnableDebugFeatures() }

const vaultID = "DAI-CAKE"

var vaultAcct = address.Vault(vaultID)

type fixture struct {
	*fdtesting.Sim
	t      *testing.T
	loader *strategy.Loader
	m      *Manager
}

func setup(t *testing.T) *fixture {
	sim := fdtesting.NewSim(t)
	sim.Fund("DAI", "alice", 20_000)
	sim.Fund("DAI", "bob", 20_000)
	sim.Fund("DAI", "ops", 1_000_000)
	sim.Fund("CAKE", address.Harvester, 1_000_000)
	sim.Asset("XVS", 18)

	loader := strategy.NewLoader(yieldsource.Registry{}, swap.NewConstantProduct(nil), nil)
	f := &fixture{Sim: sim, t: t, loader: loader, m: NewManager(loader, nil)}

	sim.Must(func(st *state.State) error {
		return yieldsource.Register(st, yieldsource.Source{ID: "venus-dai", Kind: yieldsource.KindLending, Underlying: "DAI", RewardAsset: "XVS"})
	})
	f.createVault(vaultID, "DAI", "CAKE")
	f.createStrategy("venus-dai", vaultID, strategy.KindLending, "venus-dai")
	f.createStrategy("hold-dai", vaultID, strategy.KindPassive, "")
	return f
}

func (f *fixture) createVault(id, underlying, target string) {
	f.Must(func(st *state.State) error {
		_, err := f.m.Create(st, Params{
			ID:                id,
			Underlying:        underlying,
			Target:            target,
			Harvester:         address.Harvester,
			Timelock:          address.Timelock,
			BarrierBps:        DefaultBarrierBps,
			WithdrawalFeeBps:  DefaultWithdrawalFeeBps,
			PerformanceFeeBps: DefaultPerformanceFeeBps,
		})
		return err
	})
}

func (f *fixture) createStrategy(id, vault string, kind strategy.Kind, source string) {
	f.Must(func(st *state.State) error {
		_, err := f.loader.Create(st, strategy.Record{ID: id, Vault: vault, Kind: kind, Underlying: "DAI", Source: source, Owner: address.Timelock})
		return err
	})
}

func (f *fixture) govern(caller address.Address, vault, method string, args any) error {
	payload, err := json.Marshal(args)
	require.NoError(f.t, err)
	return f.Exec(func(st *state.State) error {
		return f.m.Execute(st, caller, vault, method, payload)
	})
}

func (f *fixture) deposit(account address.Address, amount int64) error {
	return f.Exec(func(st *state.State) error {
		_, err := f.m.Deposit(st, account, vaultID, math.NewInt(amount))
		return err
	})
}

func (f *fixture) withdraw(account address.Address, shares int64) error {
	return f.Exec(func(st *state.State) error {
		_, err := f.m.Withdraw(st, account, vaultID, math.NewInt(shares))
		return err
	})
}

func (f *fixture) earn() {
	f.Must(func(st *state.State) error {
		_, err := f.m.Earn(st, vaultID)
		return err
	})
}

func (f *fixture) credit(vault string, amount int64) error {
	return f.Exec(func(st *state.State) error {
		return f.m.CreditProfit(st, address.Harvester, vault, math.NewInt(amount))
	})
}

func (f *fixture) query(fn func(st *state.State) (math.Int, error)) math.Int {
	var v math.Int
	f.View(func(st *state.State) {
		var err error
		v, err = fn(st)
		require.NoError(f.t, err)
	})
	return v
}

func (f *fixture) vault(id string) *Vault {
	var v *Vault
	f.View(func(st *state.State) {
		var err error
		v, err = Get(st, id)
		require.NoError(f.t, err)
	})
	return v
}

func (f *fixture) strategyBalance(id string) math.Int {
	return f.query(func(st *state.State) (math.Int, error) {
		s, err := f.loader.Load(st, id)
		if err != nil {
			return math.Int{}, err
		}
		return s.ReportedBalance(st)
	})
}

func (f *fixture) pending(account address.Address) math.Int {
	return f.query(func(st *state.State) (math.Int, error) {
		return f.m.PendingProfit(st, vaultID, account)
	})
}

func (f *fixture) yield(id string) math.Int {
	return f.query(func(st *state.State) (math.Int, error) {
		return f.m.UnderlyingYield(st, id)
	})
}

func TestCreate(t *testing.T) {
	f := setup(t)
	v := f.vault(vaultID)
	require.Equal(t, "FIREDAO DAI to CAKE Yield Token", v.Name)
	require.Equal(t, "fiDAI->CAKE", v.Symbol)
	require.True(t, v.Paused)
	require.Empty(t, v.Strategy)

	err := f.Exec(func(st *state.State) error {
		_, err := f.m.Create(st, Params{ID: vaultID, Underlying: "DAI", Target: "CAKE", Harvester: address.Harvester, Timelock: address.Timelock})
		return err
	})
	require.ErrorIs(t, err, errors.Conflict)

	err = f.Exec(func(st *state.State) error {
		_, err := f.m.Create(st, Params{ID: "X", Underlying: "DAI", Target: "CAKE", Harvester: address.Harvester, Timelock: address.Timelock, BarrierBps: 10_001})
		return err
	})
	require.ErrorIs(t, err, errors.BadRequest)
}

func TestDepositGuards(t *testing.T) {
	f := setup(t)
	require.ErrorIs(t, f.deposit("alice", 0), errors.InvalidAmount)
	require.ErrorIs(t, f.deposit("alice", 100), errors.VaultPaused)

	require.NoError(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "venus-dai"}))
	require.False(t, f.vault(vaultID).Paused)
	require.ErrorIs(t, f.deposit("alice", 0), errors.InvalidAmount)
	require.ErrorIs(t, f.deposit("alice", 100_000), errors.InsufficientBalance)
	require.NoError(t, f.deposit("alice", 100))

	require.NoError(t, f.govern(address.Timelock, vaultID, "setPaused", SetPaused{Paused: true}))
	require.ErrorIs(t, f.deposit("alice", 100), errors.VaultPaused)

	// Withdrawals are still possible while paused
	require.NoError(t, f.withdraw("alice", 100))
}

func TestRoundTrip(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "venus-dai"}))
	require.NoError(t, f.govern(address.Timelock, vaultID, "setFees", SetFees{WithdrawalFeeBps: 0, PerformanceFeeBps: 2000}))

	require.NoError(t, f.deposit("alice", 100))
	require.NoError(t, f.withdraw("alice", 100))
	f.RequireBalance("DAI", "alice", 20_000)
	fdtesting.RequireInt(t, 0, f.vault(vaultID).TotalShares)
}

func TestEarn(t *testing.T) {
	f := setup(t)
	err := f.Exec(func(st *state.State) error {
		_, err := f.m.Earn(st, vaultID)
		return err
	})
	require.ErrorIs(t, err, errors.VaultPaused)

	require.NoError(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "venus-dai"}))

	// Nothing idle
	f.Must(func(st *state.State) error {
		moved, err := f.m.Earn(st, vaultID)
		fdtesting.RequireInt(t, 0, moved)
		require.Empty(t, st.Events())
		return err
	})

	require.NoError(t, f.deposit("alice", 10_000))
	f.earn()
	f.RequireBalance("DAI", vaultAcct, 1000)
	fdtesting.RequireInt(t, 9000, f.strategyBalance("venus-dai"))

	// The barrier applies to the idle balance, not the total value
	require.NoError(t, f.deposit("bob", 1000))
	f.earn()
	f.RequireBalance("DAI", vaultAcct, 200)
	fdtesting.RequireInt(t, 10_800, f.strategyBalance("venus-dai"))
}

func TestEarnTwice(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "venus-dai"}))
	require.NoError(t, f.deposit("alice", 10_000))
	f.earn()

	f.Must(func(st *state.State) error {
		moved, err := f.m.Earn(st, vaultID)
		fdtesting.RequireInt(t, 900, moved)
		return err
	})
	f.RequireBalance("DAI", vaultAcct, 100)
	fdtesting.RequireInt(t, 9900, f.strategyBalance("venus-dai"))
}

func TestWithdrawFromStrategy(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "venus-dai"}))
	require.NoError(t, f.deposit("alice", 10_000))
	f.earn()

	require.ErrorIs(t, f.withdraw("alice", 10_001), errors.InsufficientShares)
	require.ErrorIs(t, f.withdraw("bob", 1), errors.InsufficientShares)
	require.ErrorIs(t, f.withdraw("alice", 0), errors.InvalidAmount)

	f.Must(func(st *state.State) error {
		paid, err := f.m.Withdraw(st, "alice", vaultID, math.NewInt(5000))
		fdtesting.RequireInt(t, 4995, paid)
		return err
	})
	f.RequireBalance("DAI", "alice", 14_995)
	f.RequireBalance("DAI", vaultAcct, 0)
	fdtesting.RequireInt(t, 5005, f.strategyBalance("venus-dai"))

	// The fee stays in the vault as yield
	fdtesting.RequireInt(t, 5, f.yield(vaultID))
}

func TestWithdrawShortfall(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "venus-dai"}))
	require.NoError(t, f.deposit("alice", 10_000))
	f.earn()

	// The vault cannot be valued while the strategy is unavailable
	f.Must(func(st *state.State) error { return yieldsource.SetAvailable(st, "venus-dai", false) })
	require.ErrorIs(t, f.withdraw("alice", 500), errors.AdapterUnavailable)
	f.Must(func(st *state.State) error { return yieldsource.SetAvailable(st, "venus-dai", true) })

	// Only 1000 of the market's 9000 can be redeemed
	f.Must(func(st *state.State) error { return yieldsource.SetLocked(st, "venus-dai", math.NewInt(8000)) })
	require.ErrorIs(t, f.withdraw("alice", 10_000), errors.Shortfall)
	fdtesting.RequireInt(t, 10_000, f.vault(vaultID).TotalShares)
	f.RequireBalance("DAI", "alice", 10_000)

	require.NoError(t, f.withdraw("alice", 1500))
	f.RequireBalance("DAI", "alice", 11_499)
}

func TestShareAccounting(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "venus-dai"}))
	require.NoError(t, f.deposit("alice", 10_000))
	f.earn()
	f.Must(func(st *state.State) error { return yieldsource.Accrue(st, "venus-dai", "ops", math.NewInt(1000)) })

	// Bob pays the current share price
	f.Must(func(st *state.State) error {
		shares, err := f.m.Deposit(st, "bob", vaultID, math.NewInt(1100))
		fdtesting.RequireInt(t, 1000, shares)
		return err
	})

	require.NoError(t, f.withdraw("alice", 3000))
	require.NoError(t, f.deposit("alice", 777))
	require.NoError(t, f.withdraw("bob", 400))

	f.View(func(st *state.State) {
		v, err := Get(st, vaultID)
		require.NoError(t, err)
		accounts, err := Depositors(st, vaultID)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"alice", "bob"}, accounts)

		sum := math.ZeroInt()
		for _, a := range accounts {
			d, err := GetDepositor(st, vaultID, address.Address(a))
			require.NoError(t, err)
			sum = sum.Add(d.Shares)
		}
		require.Equal(t, v.TotalShares.String(), sum.String())
	})
}

func TestUnderlyingYieldClamp(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "venus-dai"}))
	require.NoError(t, f.deposit("alice", 10_000))
	f.earn()

	f.Must(func(st *state.State) error { return yieldsource.Accrue(st, "venus-dai", "ops", math.NewInt(900)) })
	fdtesting.RequireInt(t, 900, f.yield(vaultID))

	f.Must(func(st *state.State) error { return yieldsource.Slash(st, "venus-dai", "ops", math.NewInt(2000)) })
	fdtesting.RequireInt(t, 0, f.yield(vaultID))
}

func TestProfitDistribution(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "venus-dai"}))
	require.NoError(t, f.deposit("alice", 10_000))

	require.ErrorIs(t, f.Exec(func(st *state.State) error {
		return f.m.CreditProfit(st, "alice", vaultID, math.NewInt(1))
	}), errors.Unauthorized)

	require.NoError(t, f.credit(vaultID, 720))
	expect, ok := math.NewIntFromString("72000000000000000")
	require.True(t, ok)
	require.Equal(t, expect.String(), f.vault(vaultID).ProfitPerShare.String())
	fdtesting.RequireInt(t, 720, f.pending("alice"))

	// Shares transferred after a harvest do not carry its profit
	f.Must(func(st *state.State) error {
		return f.m.TransferShares(st, "alice", vaultID, "bob", math.NewInt(5000))
	})
	fdtesting.RequireInt(t, 720, f.pending("alice"))
	fdtesting.RequireInt(t, 0, f.pending("bob"))

	require.NoError(t, f.credit(vaultID, 1000))
	fdtesting.RequireInt(t, 1220, f.pending("alice"))
	fdtesting.RequireInt(t, 500, f.pending("bob"))

	f.Must(func(st *state.State) error {
		paid, err := f.m.Claim(st, "alice", vaultID)
		fdtesting.RequireInt(t, 1220, paid)
		return err
	})
	f.RequireBalance("CAKE", "alice", 1220)
	fdtesting.RequireInt(t, 0, f.pending("alice"))

	// Claiming again pays nothing
	f.Must(func(st *state.State) error {
		paid, err := f.m.Claim(st, "alice", vaultID)
		fdtesting.RequireInt(t, 0, paid)
		return err
	})

	// A depositor who joins later does not share earlier profit
	f.Fund("DAI", "carol", 1000)
	require.NoError(t, f.deposit("carol", 1000))
	fdtesting.RequireInt(t, 0, f.pending("carol"))
}

func TestReleaseYield(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "venus-dai"}))
	require.NoError(t, f.deposit("alice", 10_000))
	f.earn()
	f.Must(func(st *state.State) error { return yieldsource.Accrue(st, "venus-dai", "ops", math.NewInt(900)) })

	release := func(caller address.Address, amount int64) error {
		return f.Exec(func(st *state.State) error {
			return f.m.ReleaseYield(st, caller, vaultID, math.NewInt(amount))
		})
	}
	require.ErrorIs(t, release("alice", 900), errors.Unauthorized)
	require.ErrorIs(t, release(address.Harvester, 901), errors.InsufficientBalance)
	require.NoError(t, release(address.Harvester, 900))

	f.RequireBalance("DAI", address.Harvester, 900)
	f.RequireBalance("DAI", vaultAcct, 1000)
	fdtesting.RequireInt(t, 9000, f.strategyBalance("venus-dai"))
	fdtesting.RequireInt(t, 0, f.yield(vaultID))
}

func TestSetStrategy(t *testing.T) {
	f := setup(t)
	require.ErrorIs(t, f.govern("alice", vaultID, "setStrategy", SetStrategy{Strategy: "venus-dai"}), errors.Unauthorized)
	require.ErrorIs(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "nope"}), errors.NotFound)
	require.ErrorIs(t, f.govern(address.Timelock, vaultID, "setOwner", SetStrategy{}), errors.BadRequest)

	f.createVault("DAI-XVS", "DAI", "XVS")
	f.createStrategy("other", "DAI-XVS", strategy.KindPassive, "")
	require.ErrorIs(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "other"}), errors.BadRequest)

	require.NoError(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "venus-dai"}))
	require.NoError(t, f.deposit("alice", 10_000))
	f.earn()

	// The old strategy is unwound into the vault
	require.NoError(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "hold-dai"}))
	require.Equal(t, "hold-dai", f.vault(vaultID).Strategy)
	f.RequireBalance("DAI", vaultAcct, 10_000)
	fdtesting.RequireInt(t, 0, f.strategyBalance("venus-dai"))
}

func TestForceSetStrategy(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "venus-dai"}))
	require.NoError(t, f.deposit("alice", 10_000))
	f.earn()
	f.Must(func(st *state.State) error { return yieldsource.SetAvailable(st, "venus-dai", false) })

	require.ErrorIs(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "hold-dai"}), errors.AdapterUnavailable)
	require.Equal(t, "venus-dai", f.vault(vaultID).Strategy)

	require.NoError(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "hold-dai", Force: true}))
	require.Equal(t, "hold-dai", f.vault(vaultID).Strategy)
	fdtesting.RequireInt(t, 1000, f.query(func(st *state.State) (math.Int, error) {
		return f.m.TotalValue(st, vaultID)
	}))
	fdtesting.RequireInt(t, 0, f.yield(vaultID))
}

func TestGovernedRates(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.govern(address.Timelock, vaultID, "setFees", SetFees{WithdrawalFeeBps: 50, PerformanceFeeBps: 3000}))
	require.NoError(t, f.govern(address.Timelock, vaultID, "setBarrier", SetBarrier{BarrierBps: 500}))
	require.ErrorIs(t, f.govern(address.Timelock, vaultID, "setBarrier", SetBarrier{BarrierBps: 10_001}), errors.BadRequest)
	require.ErrorIs(t, f.govern(address.Timelock, vaultID, "setPaused", SetPaused{Paused: false}), errors.BadRequest)

	v := f.vault(vaultID)
	require.EqualValues(t, 50, v.WithdrawalFeeBps)
	require.EqualValues(t, 3000, v.PerformanceFeeBps)
	require.EqualValues(t, 500, v.BarrierBps)
}

func TestDirectVault(t *testing.T) {
	f := setup(t)
	f.createVault("DAI-DAI", "DAI", "DAI")
	f.createStrategy("hold-direct", "DAI-DAI", strategy.KindPassive, "")
	require.NoError(t, f.govern(address.Timelock, "DAI-DAI", "setStrategy", SetStrategy{Strategy: "hold-direct"}))
	require.True(t, f.vault("DAI-DAI").Direct())

	f.Must(func(st *state.State) error {
		_, err := f.m.Deposit(st, "alice", "DAI-DAI", math.NewInt(1000))
		return err
	})
	f.Fund("DAI", address.Harvester, 100)
	require.NoError(t, f.credit("DAI-DAI", 100))

	// Reserved profit is not idle and is not yield
	fdtesting.RequireInt(t, 100, f.vault("DAI-DAI").ReservedProfit)
	fdtesting.RequireInt(t, 1000, f.query(func(st *state.State) (math.Int, error) { return f.m.Idle(st, "DAI-DAI") }))
	fdtesting.RequireInt(t, 0, f.yield("DAI-DAI"))

	f.Must(func(st *state.State) error {
		paid, err := f.m.Claim(st, "alice", "DAI-DAI")
		fdtesting.RequireInt(t, 100, paid)
		return err
	})
	fdtesting.RequireInt(t, 0, f.vault("DAI-DAI").ReservedProfit)
	f.RequireBalance("DAI", address.Vault("DAI-DAI"), 1000)
}

func TestReentrancy(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.govern(address.Timelock, vaultID, "setStrategy", SetStrategy{Strategy: "venus-dai"}))

	err := f.Exec(func(st *state.State) error {
		exit, err := st.Enter(vaultAcct.String())
		require.NoError(t, err)
		defer exit()
		_, err = f.m.Deposit(st, "alice", vaultID, math.NewInt(100))
		return err
	})
	require.ErrorIs(t, err, errors.Reentrant)
	f.RequireBalance("DAI", "alice", 20_000)
}
