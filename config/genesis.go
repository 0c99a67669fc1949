// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package config

import "time"

// Genesis describes the initial state of the protocol. Amounts are decimal
// strings in base units.
type Genesis struct {
	Assets     []Asset    `toml:"assets" mapstructure:"assets" validate:"required,dive"`
	Balances   []Balance  `toml:"balances" mapstructure:"balances" validate:"dive"`
	Pairs      []Pair     `toml:"pairs" mapstructure:"pairs" validate:"dive"`
	Sources    []Source   `toml:"sources" mapstructure:"sources" validate:"dive"`
	Vaults     []Vault    `toml:"vaults" mapstructure:"vaults" validate:"dive"`
	Strategies []Strategy `toml:"strategies" mapstructure:"strategies" validate:"dive"`
	Harvester  Harvester  `toml:"harvester" mapstructure:"harvester"`
	Farm       Farm       `toml:"farm" mapstructure:"farm"`
	Timelock   Timelock   `toml:"timelock" mapstructure:"timelock"`
}

type Asset struct {
	ID       string `toml:"id" mapstructure:"id" validate:"required"`
	Symbol   string `toml:"symbol" mapstructure:"symbol"`
	Decimals uint8  `toml:"decimals" mapstructure:"decimals"`
	Minter   string `toml:"minter" mapstructure:"minter" validate:"required"`
}

type Balance struct {
	Asset   string `toml:"asset" mapstructure:"asset" validate:"required"`
	Account string `toml:"account" mapstructure:"account" validate:"required"`
	Amount  string `toml:"amount" mapstructure:"amount" validate:"amount"`
}

// Pair seeds a swap pair. The reserves are minted for the purpose.
type Pair struct {
	A       string `toml:"a" mapstructure:"a" validate:"required"`
	B       string `toml:"b" mapstructure:"b" validate:"required,nefield=A"`
	AmountA string `toml:"amount-a" mapstructure:"amount-a" validate:"amount"`
	AmountB string `toml:"amount-b" mapstructure:"amount-b" validate:"amount"`
}

// Source is a simulated yield source.
type Source struct {
	ID          string `toml:"id" mapstructure:"id" validate:"required"`
	Kind        string `toml:"kind" mapstructure:"kind" validate:"oneof=lending staking"`
	Underlying  string `toml:"underlying" mapstructure:"underlying" validate:"required"`
	RewardAsset string `toml:"reward-asset" mapstructure:"reward-asset" validate:"required"`
}

type Vault struct {
	ID                string `toml:"id" mapstructure:"id" validate:"required"`
	Underlying        string `toml:"underlying" mapstructure:"underlying" validate:"required"`
	Target            string `toml:"target" mapstructure:"target" validate:"required"`
	Strategy          string `toml:"strategy" mapstructure:"strategy"`
	BarrierBps        uint64 `toml:"barrier-bps" mapstructure:"barrier-bps" validate:"lte=10000"`
	WithdrawalFeeBps  uint64 `toml:"withdrawal-fee-bps" mapstructure:"withdrawal-fee-bps" validate:"lte=10000"`
	PerformanceFeeBps uint64 `toml:"performance-fee-bps" mapstructure:"performance-fee-bps" validate:"lte=10000"`
}

type Strategy struct {
	ID         string   `toml:"id" mapstructure:"id" validate:"required"`
	Vault      string   `toml:"vault" mapstructure:"vault" validate:"required"`
	Kind       string   `toml:"kind" mapstructure:"kind" validate:"oneof=lending staking passive"`
	Underlying string   `toml:"underlying" mapstructure:"underlying" validate:"required"`
	Source     string   `toml:"source" mapstructure:"source" validate:"required_unless=Kind passive"`
	Strategist string   `toml:"strategist" mapstructure:"strategist"`
	RewardPath []string `toml:"reward-path" mapstructure:"reward-path"`
}

type Harvester struct {
	Admin        string   `toml:"admin" mapstructure:"admin" validate:"required"`
	Treasury     string   `toml:"treasury" mapstructure:"treasury" validate:"required"`
	Keepers      []string `toml:"keepers" mapstructure:"keepers"`
	BuybackBps   uint64   `toml:"buyback-bps" mapstructure:"buyback-bps" validate:"lte=10000"`
	BuybackAsset string   `toml:"buyback-asset" mapstructure:"buyback-asset" validate:"required_unless=BuybackBps 0"`
	BurnBuyback  bool     `toml:"burn-buyback" mapstructure:"burn-buyback"`
}

type Farm struct {
	Admin          string     `toml:"admin" mapstructure:"admin" validate:"required"`
	RewardAsset    string     `toml:"reward-asset" mapstructure:"reward-asset" validate:"required"`
	RewardPerBlock string     `toml:"reward-per-block" mapstructure:"reward-per-block" validate:"amount"`
	StartBlock     uint64     `toml:"start-block" mapstructure:"start-block"`
	Pools          []FarmPool `toml:"pools" mapstructure:"pools" validate:"dive"`
}

// FarmPool stakes either an asset or the shares of a vault.
type FarmPool struct {
	Asset  string `toml:"asset" mapstructure:"asset" validate:"required_without=Vault,excluded_with=Vault"`
	Vault  string `toml:"vault" mapstructure:"vault"`
	Weight uint64 `toml:"weight" mapstructure:"weight"`
}

type Timelock struct {
	Admin string        `toml:"admin" mapstructure:"admin" validate:"required"`
	Delay time.Duration `toml:"delay" mapstructure:"delay" validate:"gte=172800000000000,lte=2592000000000000"`
}

const unit = "000000000000000000"

// DevnetGenesis returns a genesis with two vaults, a lending strategy that
// realizes its yield in another asset, and a direct staking strategy.
func DevnetGenesis() Genesis {
	return Genesis{
		Assets: []Asset{
			{ID: "DAI", Symbol: "DAI", Decimals: 18, Minter: "genesis"},
			{ID: "USDT", Symbol: "USDT", Decimals: 18, Minter: "genesis"},
			{ID: "CAKE", Symbol: "CAKE", Decimals: 18, Minter: "genesis"},
			{ID: "XVS", Symbol: "XVS", Decimals: 18, Minter: "genesis"},
			{ID: "FIRE", Symbol: "FIRE", Decimals: 18, Minter: "farm"},
		},
		Balances: []Balance{
			{Asset: "DAI", Account: "alice", Amount: "100000" + unit},
			{Asset: "USDT", Account: "alice", Amount: "100000" + unit},
			{Asset: "DAI", Account: "bob", Amount: "100000" + unit},
			{Asset: "DAI", Account: "ops", Amount: "1000000" + unit},
			{Asset: "USDT", Account: "ops", Amount: "1000000" + unit},
			{Asset: "XVS", Account: "ops", Amount: "1000000" + unit},
			{Asset: "CAKE", Account: "ops", Amount: "1000000" + unit},
		},
		Pairs: []Pair{
			{A: "DAI", B: "CAKE", AmountA: "10000000" + unit, AmountB: "1000000" + unit},
			{A: "USDT", B: "CAKE", AmountA: "10000000" + unit, AmountB: "1000000" + unit},
			{A: "XVS", B: "DAI", AmountA: "1000000" + unit, AmountB: "5000000" + unit},
		},
		Sources: []Source{
			{ID: "venus-dai", Kind: "lending", Underlying: "DAI", RewardAsset: "XVS"},
			{ID: "pancake-usdt", Kind: "staking", Underlying: "USDT", RewardAsset: "CAKE"},
		},
		Vaults: []Vault{
			{ID: "DAI-CAKE", Underlying: "DAI", Target: "CAKE", Strategy: "venus-dai", BarrierBps: 1000, WithdrawalFeeBps: 10, PerformanceFeeBps: 2000},
			{ID: "USDT-USDT", Underlying: "USDT", Target: "USDT", Strategy: "pancake-usdt", BarrierBps: 1000, WithdrawalFeeBps: 10, PerformanceFeeBps: 2000},
		},
		Strategies: []Strategy{
			{ID: "venus-dai", Vault: "DAI-CAKE", Kind: "lending", Underlying: "DAI", Source: "venus-dai", Strategist: "keeper", RewardPath: []string{"XVS", "DAI"}},
			{ID: "pancake-usdt", Vault: "USDT-USDT", Kind: "staking", Underlying: "USDT", Source: "pancake-usdt", Strategist: "keeper", RewardPath: []string{"CAKE", "USDT"}},
		},
		Harvester: Harvester{
			Admin:    "ops",
			Treasury: "treasury",
			Keepers:  []string{"keeper"},
		},
		Farm: Farm{
			Admin:          "timelock",
			RewardAsset:    "FIRE",
			RewardPerBlock: "10" + unit,
			Pools: []FarmPool{
				{Vault: "DAI-CAKE", Weight: 1},
				{Vault: "USDT-USDT", Weight: 1},
			},
		},
		Timelock: Timelock{
			Admin: "ops",
			Delay: 48 * time.Hour,
		},
	}
}
