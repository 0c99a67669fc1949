// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package farm streams the protocol's reward token to accounts that stake
// tokens or vault shares. Each pool has a weight, and every block the farm
// mints its emission and divides it between the pools by weight and between
// a pool's stakers by their stake.
package farm

import (
	"log/slog"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/bank"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/core/vault"
	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/values"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
)

var precision = math.NewIntWithDecimal(1, 18)

// Config is the farm's persisted configuration.
type Config struct {
	Admin          address.Address `json:"admin"`
	RewardAsset    string          `json:"rewardAsset"`
	RewardPerBlock math.Int        `json:"rewardPerBlock"`
	StartBlock     uint64          `json:"startBlock"`
	TotalWeight    uint64          `json:"totalWeight"`
	PoolCount      uint64          `json:"poolCount"`
}

// Pool is a staking pool. A pool stakes either a bank asset or the shares of
// a vault.
type Pool struct {
	ID     uint64 `json:"id"`
	Asset  string `json:"asset,omitempty"`
	Vault  string `json:"vault,omitempty"`
	Weight uint64 `json:"weight"`

	SharesTotal       math.Int `json:"sharesTotal"`
	AccRewardPerShare math.Int `json:"accRewardPerShare"`
	LastRewardBlock   uint64   `json:"lastRewardBlock"`

	// AccProfitPerShare distributes the profit earned by the vault shares
	// the farm holds.
	AccProfitPerShare math.Int `json:"accProfitPerShare"`
}

// Staked identifies what the pool stakes.
func (p *Pool) Staked() string {
	if p.Vault != "" {
		return address.Vault(p.Vault).String()
	}
	return p.Asset
}

// Staker is an account's stake in a pool.
type Staker struct {
	Shares     math.Int `json:"shares"`
	RewardDebt math.Int `json:"rewardDebt"`
	ProfitDebt math.Int `json:"profitDebt"`
}

func newStaker() *Staker {
	return &Staker{Shares: math.ZeroInt(), RewardDebt: math.ZeroInt(), ProfitDebt: math.ZeroInt()}
}

// Vaults is the part of the vault manager the farm uses to hold shares.
type Vaults interface {
	TransferShares(st *state.State, from address.Address, id string, to address.Address, shares math.Int) error
	Claim(st *state.State, caller address.Address, id string) (math.Int, error)
}

type Farm struct {
	vaults Vaults
	logger *slog.Logger
}

func New(vaults Vaults, logger *slog.Logger) *Farm {
	if logger == nil {
		logger = slog.Default()
	}
	return &Farm{vaults: vaults, logger: logger.With("module", "farm")}
}

// Account returns the account that holds staked funds.
func (f *Farm) Account() address.Address { return address.Farm }

func configValue(st *state.State) *values.Value[*Config] {
	return values.NewValue[*Config](st, database.NewKey("farm"))
}

func poolValue(st *state.State, id uint64) *values.Value[*Pool] {
	return values.NewValue[*Pool](st, database.NewKey("farm", "pool", id))
}

func stakedValue(st *state.State, staked string) *values.Value[uint64] {
	return values.NewValue[uint64](st, database.NewKey("farm", "staked", staked))
}

func stakerValue(st *state.State, id uint64, account address.Address) *values.Value[*Staker] {
	return values.NewValue[*Staker](st, database.NewKey("farm", "staker", id, account))
}

// Init records the farm's configuration. The farm must be the minter of its
// reward asset.
func (f *Farm) Init(st *state.State, cfg Config) error {
	if err := cfg.Admin.Validate(); err != nil {
		return errors.BadRequest.WithFormat("farm admin: %w", err)
	}
	if cfg.RewardPerBlock.IsNil() || cfg.RewardPerBlock.IsNegative() {
		return errors.InvalidAmount.WithFormat("invalid reward rate %v", cfg.RewardPerBlock)
	}
	asset, err := bank.GetAsset(st, cfg.RewardAsset)
	if err != nil {
		return err
	}
	if asset.Minter != f.Account() {
		return errors.BadRequest.WithFormat("the farm cannot mint %s", cfg.RewardAsset)
	}

	v := configValue(st)
	ok, err := v.Exists()
	if err != nil {
		return err
	}
	if ok {
		return errors.Conflict.With("farm is already initialized")
	}
	cfg.TotalWeight = 0
	cfg.PoolCount = 0
	return v.Put(&cfg)
}

// Get loads the farm's configuration.
func Get(st *state.State) (*Config, error) {
	cfg, err := configValue(st).Get()
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, errors.NotReady.With("farm is not initialized")
		}
		return nil, err
	}
	return cfg, nil
}

// GetPool loads a pool. It fails with PoolNotFound if there is no such pool.
func GetPool(st *state.State, id uint64) (*Pool, error) {
	p, err := poolValue(st, id).Get()
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, errors.PoolNotFound.WithFormat("pool %d does not exist", id)
		}
		return nil, err
	}
	return p, nil
}

// Pools loads every pool.
func Pools(st *state.State) ([]*Pool, error) {
	cfg, err := Get(st)
	if err != nil {
		return nil, err
	}
	pools := make([]*Pool, 0, cfg.PoolCount)
	for id := uint64(0); id < cfg.PoolCount; id++ {
		p, err := GetPool(st, id)
		if err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, nil
}

// GetStaker loads an account's stake in a pool.
func GetStaker(st *state.State, id uint64, account address.Address) (*Staker, error) {
	if _, err := GetPool(st, id); err != nil {
		return nil, err
	}
	return stakerValue(st, id, account).GetOr(newStaker())
}

func requireAdmin(st *state.State, caller address.Address) (*Config, error) {
	cfg, err := Get(st)
	if err != nil {
		return nil, err
	}
	if caller != cfg.Admin {
		return nil, errors.Unauthorized.WithFormat("%v is not the farm admin", caller)
	}
	return cfg, nil
}

// AddPool adds a pool that stakes a bank asset. It fails with DuplicatePool
// if the asset already has a pool.
func (f *Farm) AddPool(st *state.State, caller address.Address, asset string, weight uint64) (*Pool, error) {
	if _, err := bank.GetAsset(st, asset); err != nil {
		return nil, err
	}
	return f.addPool(st, caller, &Pool{Asset: asset, Weight: weight})
}

// AddVault adds a pool that stakes the shares of a vault. It fails with
// DuplicatePool if the vault already has a pool.
func (f *Farm) AddVault(st *state.State, caller address.Address, vaultID string, weight uint64) (*Pool, error) {
	if _, err := vault.Get(st, vaultID); err != nil {
		return nil, err
	}
	return f.addPool(st, caller, &Pool{Vault: vaultID, Weight: weight})
}

func (f *Farm) addPool(st *state.State, caller address.Address, p *Pool) (*Pool, error) {
	cfg, err := requireAdmin(st, caller)
	if err != nil {
		return nil, err
	}

	staked := stakedValue(st, p.Staked())
	ok, err := staked.Exists()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, errors.DuplicatePool.WithFormat("%s already has a pool", p.Staked())
	}

	// Settle every pool at the old weights
	if err := f.updateAll(st, cfg); err != nil {
		return nil, err
	}

	p.ID = cfg.PoolCount
	p.SharesTotal = math.ZeroInt()
	p.AccRewardPerShare = math.ZeroInt()
	p.AccProfitPerShare = math.ZeroInt()
	p.LastRewardBlock = max(st.Height(), cfg.StartBlock)

	cfg.PoolCount++
	cfg.TotalWeight += p.Weight
	if err := poolValue(st, p.ID).Put(p); err != nil {
		return nil, err
	}
	if err := staked.Put(p.ID); err != nil {
		return nil, err
	}
	if err := configValue(st).Put(cfg); err != nil {
		return nil, err
	}

	f.logger.InfoContext(st.Context(), "Added pool", "pool", p.ID, "staked", p.Staked(), "weight", p.Weight)
	return p, nil
}

// SetWeight changes the weight of a pool.
func (f *Farm) SetWeight(st *state.State, caller address.Address, id uint64, weight uint64) error {
	cfg, err := requireAdmin(st, caller)
	if err != nil {
		return err
	}
	if err := f.updateAll(st, cfg); err != nil {
		return err
	}
	p, err := GetPool(st, id)
	if err != nil {
		return err
	}

	cfg.TotalWeight = cfg.TotalWeight - p.Weight + weight
	p.Weight = weight
	if err := poolValue(st, id).Put(p); err != nil {
		return err
	}
	return configValue(st).Put(cfg)
}

// SetRewardPerBlock changes the emission rate.
func (f *Farm) SetRewardPerBlock(st *state.State, caller address.Address, rate math.Int) error {
	cfg, err := requireAdmin(st, caller)
	if err != nil {
		return err
	}
	if rate.IsNil() || rate.IsNegative() {
		return errors.InvalidAmount.WithFormat("invalid reward rate %v", rate)
	}
	if err := f.updateAll(st, cfg); err != nil {
		return err
	}
	cfg.RewardPerBlock = rate
	return configValue(st).Put(cfg)
}

