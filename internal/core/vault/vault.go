// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package vault implements yield vaults. A vault accepts deposits of an
// underlying asset, deploys the funds above its liquidity barrier through a
// strategy, and distributes harvested yield to depositors in a target asset.
package vault

import (
	"fmt"
	"log/slog"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/bank"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/core/strategy"
	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/values"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
	"github.com/gulitsky/firedao-protocol/pkg/types/amount"
)

// Default rates of new vaults.
const (
	DefaultBarrierBps        amount.Bps = 1000
	DefaultWithdrawalFeeBps  amount.Bps = 10
	DefaultPerformanceFeeBps amount.Bps = 2000
)

// precision scales the cumulative profit per share.
var precision = math.NewIntWithDecimal(1, 18)

// Vault is the persisted state of a vault.
type Vault struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Symbol     string          `json:"symbol"`
	Underlying string          `json:"underlying"`
	Target     string          `json:"target"`
	Harvester  address.Address `json:"harvester"`
	Timelock   address.Address `json:"timelock"`
	Strategy   string          `json:"strategy,omitempty"`
	Paused     bool            `json:"paused"`

	BarrierBps        amount.Bps `json:"barrierBps"`
	WithdrawalFeeBps  amount.Bps `json:"withdrawalFeeBps"`
	PerformanceFeeBps amount.Bps `json:"performanceFeeBps"`

	TotalShares math.Int `json:"totalShares"`

	// ProfitPerShare is the cumulative target profit per share, scaled by
	// 10^18. It never decreases.
	ProfitPerShare math.Int `json:"profitPerShare"`

	// ReservedProfit is the target held by the vault that belongs to
	// depositors. It is only used when the underlying and the target are the
	// same asset, to keep harvested profit out of the idle balance.
	ReservedProfit math.Int `json:"reservedProfit"`
}

// Account returns the account that holds the vault's funds.
func (v *Vault) Account() address.Address { return address.Vault(v.ID) }

// Direct returns true if the vault's yield is paid in its underlying.
func (v *Vault) Direct() bool { return v.Underlying == v.Target }

// Depositor is a depositor's position in a vault.
type Depositor struct {
	Shares math.Int `json:"shares"`

	// LastClaimed is the vault's ProfitPerShare when the position was last
	// settled.
	LastClaimed math.Int `json:"lastClaimed"`

	// Unclaimed is profit settled into the position but not yet paid.
	Unclaimed math.Int `json:"unclaimed"`
}

// Params are the parameters of a new vault.
type Params struct {
	ID                string
	Underlying        string
	Target            string
	Harvester         address.Address
	Timelock          address.Address
	BarrierBps        amount.Bps
	WithdrawalFeeBps  amount.Bps
	PerformanceFeeBps amount.Bps
}

// Strategies resolves the strategies vaults deploy through.
type Strategies interface {
	Load(st *state.State, id string) (strategy.Strategy, error)
}

// Manager executes vault operations.
type Manager struct {
	strategies Strategies
	buyback    func(*state.State) (amount.Bps, error)
	logger     *slog.Logger
}

func NewManager(strategies Strategies, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		strategies: strategies,
		logger:     logger.With("module", "vault"),
	}
}

// UseBuybackRate sets where the manager reads the harvester's buyback rate.
// A vault's performance fee and the buyback rate together may not exceed
// 100%.
func (m *Manager) UseBuybackRate(fn func(*state.State) (amount.Bps, error)) {
	m.buyback = fn
}

func (m *Manager) checkPerformanceFee(st *state.State, fee amount.Bps) error {
	if m.buyback == nil {
		return nil
	}
	b, err := m.buyback(st)
	if err != nil {
		return err
	}
	if fee+b > amount.MaxBps {
		return errors.BadRequest.WithFormat("performance fee %d and buyback %d exceed %d basis points", fee, b, amount.MaxBps)
	}
	return nil
}

// MaxPerformanceFee returns the highest performance fee of any vault.
func (m *Manager) MaxPerformanceFee(st *state.State) (amount.Bps, error) {
	ids, err := List(st)
	if err != nil {
		return 0, err
	}
	var highest amount.Bps
	for _, id := range ids {
		v, err := Get(st, id)
		if err != nil {
			return 0, err
		}
		if v.PerformanceFeeBps > highest {
			highest = v.PerformanceFeeBps
		}
	}
	return highest, nil
}

func vaultValue(st *state.State, id string) *values.Value[*Vault] {
	return values.NewValue[*Vault](st, database.NewKey("vault", id))
}

func depositorValue(st *state.State, id string, account address.Address) *values.Value[*Depositor] {
	return values.NewValue[*Depositor](st, database.NewKey("vault", id, "depositor", account))
}

func depositorIndex(st *state.State, id string) *values.Set {
	return values.NewSet(st, database.NewKey("vault", id, "depositors"))
}

func vaultIndex(st *state.State) *values.Set {
	return values.NewSet(st, database.NewKey("vault", "index"))
}

// Create records a new vault. The vault is paused until its first strategy
// is set.
func (m *Manager) Create(st *state.State, p Params) (*Vault, error) {
	if err := address.ValidateID("vault", p.ID); err != nil {
		return nil, err
	}
	for _, r := range []amount.Bps{p.BarrierBps, p.WithdrawalFeeBps, p.PerformanceFeeBps} {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	if err := m.checkPerformanceFee(st, p.PerformanceFeeBps); err != nil {
		return nil, err
	}
	if err := p.Harvester.Validate(); err != nil {
		return nil, errors.BadRequest.WithFormat("vault %s harvester: %w", p.ID, err)
	}
	if err := p.Timelock.Validate(); err != nil {
		return nil, errors.BadRequest.WithFormat("vault %s timelock: %w", p.ID, err)
	}

	u, err := bank.GetAsset(st, p.Underlying)
	if err != nil {
		return nil, err
	}
	t, err := bank.GetAsset(st, p.Target)
	if err != nil {
		return nil, err
	}

	rv := vaultValue(st, p.ID)
	ok, err := rv.Exists()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, errors.Conflict.WithFormat("vault %s already exists", p.ID)
	}

	v := &Vault{
		ID:                p.ID,
		Name:              fmt.Sprintf("FIREDAO %s to %s Yield Token", u.Symbol, t.Symbol),
		Symbol:            fmt.Sprintf("fi%s->%s", u.Symbol, t.Symbol),
		Underlying:        p.Underlying,
		Target:            p.Target,
		Harvester:         p.Harvester,
		Timelock:          p.Timelock,
		Paused:            true,
		BarrierBps:        p.BarrierBps,
		WithdrawalFeeBps:  p.WithdrawalFeeBps,
		PerformanceFeeBps: p.PerformanceFeeBps,
		TotalShares:       math.ZeroInt(),
		ProfitPerShare:    math.ZeroInt(),
		ReservedProfit:    math.ZeroInt(),
	}
	if err := rv.Put(v); err != nil {
		return nil, err
	}
	if err := vaultIndex(st).Add(v.ID); err != nil {
		return nil, err
	}

	m.logger.InfoContext(st.Context(), "Created vault", "id", v.ID, "name", v.Name)
	return v, nil
}

// Get loads a vault.
func Get(st *state.State, id string) (*Vault, error) {
	v, err := vaultValue(st, id).Get()
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, errors.NotFound.WithFormat("vault %s not found", id)
		}
		return nil, err
	}
	return v, nil
}

// List returns the IDs of all vaults.
func List(st *state.State) ([]string, error) {
	return vaultIndex(st).Get()
}

// Depositors returns the accounts that have held shares of the vault.
func Depositors(st *state.State, id string) ([]string, error) {
	return depositorIndex(st, id).Get()
}

// GetDepositor loads an account's position. Accounts that never deposited
// have an empty position.
func GetDepositor(st *state.State, id string, account address.Address) (*Depositor, error) {
	return depositorValue(st, id, account).GetOr(&Depositor{
		Shares:      math.ZeroInt(),
		LastClaimed: math.ZeroInt(),
		Unclaimed:   math.ZeroInt(),
	})
}

func putVault(st *state.State, v *Vault) error {
	return vaultValue(st, v.ID).Put(v)
}

func putDepositor(st *state.State, v *Vault, account address.Address, d *Depositor) error {
	if err := depositorValue(st, v.ID, account).Put(d); err != nil {
		return err
	}
	return depositorIndex(st, v.ID).Add(account.String())
}

// begin loads the vault and marks it as executing.
func (m *Manager) begin(st *state.State, id string) (*Vault, func(), error) {
	v, err := Get(st, id)
	if err != nil {
		return nil, nil, err
	}
	exit, err := st.Enter(v.Account().String())
	if err != nil {
		return nil, nil, err
	}
	return v, exit, nil
}

func (m *Manager) strategy(st *state.State, v *Vault) (strategy.Strategy, error) {
	if v.Strategy == "" {
		return nil, nil
	}
	return m.strategies.Load(st, v.Strategy)
}
