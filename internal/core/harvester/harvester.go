// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package harvester converts vault yield into each vault's target asset and
// splits it between the treasury, the protocol token buyback, and the
// vault's depositors.
package harvester

import (
	"log/slog"
	"slices"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/bank"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/core/swap"
	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/values"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
	"github.com/gulitsky/firedao-protocol/pkg/types/amount"
)

// Config is the persisted configuration of the harvester.
type Config struct {
	Admin    address.Address   `json:"admin"`
	Treasury address.Address   `json:"treasury"`
	Keepers  []address.Address `json:"keepers,omitempty"`

	// BuybackBps is the share of harvested target spent buying the buyback
	// asset.
	BuybackBps   amount.Bps `json:"buybackBps"`
	BuybackAsset string     `json:"buybackAsset,omitempty"`

	// BurnBuyback burns bought tokens. Otherwise they go to the treasury.
	BurnBuyback bool `json:"burnBuyback,omitempty"`
}

// Vaults is the part of the vault manager the harvester drives.
type Vaults interface {
	UnderlyingYield(st *state.State, id string) (math.Int, error)
	ReleaseYield(st *state.State, caller address.Address, id string, amount math.Int) error
	CreditProfit(st *state.State, caller address.Address, id string, amount math.Int) error
	MaxPerformanceFee(st *state.State) (amount.Bps, error)
}

// Harvester executes harvests.
type Harvester struct {
	vaults Vaults
	router swap.Router
	logger *slog.Logger
}

func New(vaults Vaults, router swap.Router, logger *slog.Logger) *Harvester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harvester{
		vaults: vaults,
		router: router,
		logger: logger.With("module", "harvester"),
	}
}

// Account returns the account the harvester holds funds in.
func (h *Harvester) Account() address.Address { return address.Harvester }

func configValue(st *state.State) *values.Value[*Config] {
	return values.NewValue[*Config](st, database.NewKey("harvester"))
}

// Init records the harvester's configuration.
func (h *Harvester) Init(st *state.State, cfg Config) error {
	if err := cfg.Admin.Validate(); err != nil {
		return errors.BadRequest.WithFormat("harvester admin: %w", err)
	}
	if err := cfg.Treasury.Validate(); err != nil {
		return errors.BadRequest.WithFormat("harvester treasury: %w", err)
	}
	if err := cfg.BuybackBps.Validate(); err != nil {
		return err
	}
	if cfg.BuybackAsset != "" {
		if _, err := bank.GetAsset(st, cfg.BuybackAsset); err != nil {
			return err
		}
	} else if cfg.BuybackBps > 0 {
		return errors.BadRequest.With("buyback rate is set but there is no buyback asset")
	}
	if err := h.checkBuyback(st, cfg.BuybackBps); err != nil {
		return err
	}

	v := configValue(st)
	ok, err := v.Exists()
	if err != nil {
		return err
	}
	if ok {
		return errors.Conflict.With("harvester is already initialized")
	}
	return v.Put(&cfg)
}

// Get loads the harvester's configuration.
func Get(st *state.State) (*Config, error) {
	cfg, err := configValue(st).Get()
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, errors.NotReady.With("harvester is not initialized")
		}
		return nil, err
	}
	return cfg, nil
}

func requireAdmin(st *state.State, caller address.Address) (*Config, error) {
	cfg, err := Get(st)
	if err != nil {
		return nil, err
	}
	if caller != cfg.Admin {
		return nil, errors.Unauthorized.WithFormat("%v is not the harvester admin", caller)
	}
	return cfg, nil
}

// SetBuyback sets the buyback rate. Only the admin may set it.
func (h *Harvester) SetBuyback(st *state.State, caller address.Address, bps amount.Bps) error {
	cfg, err := requireAdmin(st, caller)
	if err != nil {
		return err
	}
	if err := bps.Validate(); err != nil {
		return err
	}
	if bps > 0 && cfg.BuybackAsset == "" {
		return errors.BadRequest.With("there is no buyback asset")
	}
	if err := h.checkBuyback(st, bps); err != nil {
		return err
	}
	cfg.BuybackBps = bps
	return configValue(st).Put(cfg)
}

// BuybackRate returns the buyback rate, or zero if the harvester is not
// initialized.
func (h *Harvester) BuybackRate(st *state.State) (amount.Bps, error) {
	cfg, err := Get(st)
	switch {
	case err == nil:
		return cfg.BuybackBps, nil
	case errors.Is(err, errors.NotReady):
		return 0, nil
	default:
		return 0, err
	}
}

// checkBuyback fails if bps plus any vault's performance fee exceeds 100%.
func (h *Harvester) checkBuyback(st *state.State, bps amount.Bps) error {
	fee, err := h.vaults.MaxPerformanceFee(st)
	if err != nil {
		return err
	}
	if fee+bps > amount.MaxBps {
		return errors.BadRequest.WithFormat("buyback %d and performance fee %d exceed %d basis points", bps, fee, amount.MaxBps)
	}
	return nil
}

// SetKeeper allows or disallows an account to harvest. Only the admin may
// set keepers.
func (h *Harvester) SetKeeper(st *state.State, caller, keeper address.Address, allowed bool) error {
	cfg, err := requireAdmin(st, caller)
	if err != nil {
		return err
	}
	if err := keeper.Validate(); err != nil {
		return err
	}
	i := slices.Index(cfg.Keepers, keeper)
	switch {
	case allowed && i < 0:
		cfg.Keepers = append(cfg.Keepers, keeper)
	case !allowed && i >= 0:
		cfg.Keepers = slices.Delete(cfg.Keepers, i, i+1)
	default:
		return nil
	}
	return configValue(st).Put(cfg)
}

// Sweep transfers the harvester's entire balance of asset to the admin.
// Only the admin may sweep.
func (h *Harvester) Sweep(st *state.State, caller address.Address, asset string) (math.Int, error) {
	cfg, err := requireAdmin(st, caller)
	if err != nil {
		return math.Int{}, err
	}
	bal, err := bank.BalanceOf(st, asset, h.Account())
	if err != nil {
		return math.Int{}, err
	}
	if bal.IsZero() {
		return bal, nil
	}
	err = bank.Transfer(st, asset, h.Account(), cfg.Admin, bal)
	if err != nil {
		return math.Int{}, err
	}

	h.logger.WarnContext(st.Context(), "Swept", "asset", asset, "amount", bal, "to", cfg.Admin)
	return bal, nil
}
