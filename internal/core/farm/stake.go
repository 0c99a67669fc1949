// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package farm

import (
	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/bank"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/core/vault"
	"github.com/gulitsky/firedao-protocol/internal/events"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
)

func (f *Farm) begin(st *state.State) (func(), error) {
	return st.Enter(f.Account().String())
}

// UpdatePool brings a pool's accumulators up to the current block. It fails
// with PoolNotFound if there is no such pool.
func (f *Farm) UpdatePool(st *state.State, id uint64) error {
	exit, err := f.begin(st)
	if err != nil {
		return err
	}
	defer exit()

	cfg, err := Get(st)
	if err != nil {
		return err
	}
	p, err := GetPool(st, id)
	if err != nil {
		return err
	}
	if err := f.update(st, cfg, p); err != nil {
		return err
	}
	return poolValue(st, id).Put(p)
}

func (f *Farm) updateAll(st *state.State, cfg *Config) error {
	for id := uint64(0); id < cfg.PoolCount; id++ {
		p, err := GetPool(st, id)
		if err != nil {
			return err
		}
		if err := f.update(st, cfg, p); err != nil {
			return err
		}
		if err := poolValue(st, id).Put(p); err != nil {
			return err
		}
	}
	return nil
}

// update advances the pool's accumulators. If the pool has no stake, the
// interval's emission is skipped and never minted.
func (f *Farm) update(st *state.State, cfg *Config, p *Pool) error {
	if p.Vault != "" && p.SharesTotal.IsPositive() {
		profit, err := f.vaults.Claim(st, f.Account(), p.Vault)
		if err != nil {
			return err
		}
		p.AccProfitPerShare = p.AccProfitPerShare.Add(profit.Mul(precision).Quo(p.SharesTotal))
	}

	height := st.Height()
	if height <= p.LastRewardBlock {
		return nil
	}
	if !p.SharesTotal.IsPositive() || p.Weight == 0 || cfg.TotalWeight == 0 {
		p.LastRewardBlock = height
		return nil
	}

	blocks := height - p.LastRewardBlock
	reward := cfg.RewardPerBlock.Mul(math.NewIntFromUint64(blocks)).Mul(math.NewIntFromUint64(p.Weight)).Quo(math.NewIntFromUint64(cfg.TotalWeight))
	if reward.IsPositive() {
		err := bank.Mint(st, f.Account(), cfg.RewardAsset, f.Account(), reward)
		if err != nil {
			return err
		}
		p.AccRewardPerShare = p.AccRewardPerShare.Add(reward.Mul(precision).Quo(p.SharesTotal))
	}
	p.LastRewardBlock = height
	return nil
}

func accrued(shares, acc, debt math.Int) math.Int {
	v := shares.Mul(acc).Quo(precision).Sub(debt)
	if v.IsNegative() {
		return math.ZeroInt()
	}
	return v
}

// PendingReward returns the reward an account would be paid if its stake
// were settled now.
func (f *Farm) PendingReward(st *state.State, id uint64, account address.Address) (math.Int, error) {
	cfg, err := Get(st)
	if err != nil {
		return math.Int{}, err
	}
	p, err := GetPool(st, id)
	if err != nil {
		return math.Int{}, err
	}
	s, err := stakerValue(st, id, account).GetOr(newStaker())
	if err != nil {
		return math.Int{}, err
	}

	acc := p.AccRewardPerShare
	height := st.Height()
	if height > p.LastRewardBlock && p.SharesTotal.IsPositive() && cfg.TotalWeight > 0 {
		blocks := math.NewIntFromUint64(height - p.LastRewardBlock)
		reward := cfg.RewardPerBlock.Mul(blocks).Mul(math.NewIntFromUint64(p.Weight)).Quo(math.NewIntFromUint64(cfg.TotalWeight))
		acc = acc.Add(reward.Mul(precision).Quo(p.SharesTotal))
	}
	return accrued(s.Shares, acc, s.RewardDebt), nil
}

// settle pays the account its accrued reward and vault profit.
func (f *Farm) settle(st *state.State, cfg *Config, p *Pool, account address.Address, s *Staker) error {
	reward := accrued(s.Shares, p.AccRewardPerShare, s.RewardDebt)
	if reward.IsPositive() {
		err := f.pay(st, cfg.RewardAsset, account, reward)
		if err != nil {
			return err
		}
		st.Emit(events.RewardPaid{Pool: p.ID, Account: account, Amount: reward})
	}

	if p.Vault == "" {
		return nil
	}
	profit := accrued(s.Shares, p.AccProfitPerShare, s.ProfitDebt)
	if !profit.IsPositive() {
		return nil
	}
	v, err := vault.Get(st, p.Vault)
	if err != nil {
		return err
	}
	return f.pay(st, v.Target, account, profit)
}

// pay transfers up to amount from the farm. Accumulator rounding may leave
// the farm a unit short.
func (f *Farm) pay(st *state.State, asset string, to address.Address, amount math.Int) error {
	bal, err := bank.BalanceOf(st, asset, f.Account())
	if err != nil {
		return err
	}
	return bank.Transfer(st, asset, f.Account(), to, math.MinInt(amount, bal))
}

func (s *Staker) reset(p *Pool) {
	s.RewardDebt = s.Shares.Mul(p.AccRewardPerShare).Quo(precision)
	s.ProfitDebt = s.Shares.Mul(p.AccProfitPerShare).Quo(precision)
}

func (f *Farm) load(st *state.State, id uint64, account address.Address) (*Config, *Pool, *Staker, error) {
	cfg, err := Get(st)
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := GetPool(st, id)
	if err != nil {
		return nil, nil, nil, err
	}
	s, err := stakerValue(st, id, account).GetOr(newStaker())
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, p, s, nil
}

func (f *Farm) save(st *state.State, p *Pool, account address.Address, s *Staker) error {
	if err := poolValue(st, p.ID).Put(p); err != nil {
		return err
	}
	return stakerValue(st, p.ID, account).Put(s)
}

func (f *Farm) custody(st *state.State, p *Pool, from, to address.Address, amount math.Int) error {
	if p.Vault != "" {
		return f.vaults.TransferShares(st, from, p.Vault, to, amount)
	}
	return bank.Transfer(st, p.Asset, from, to, amount)
}

// Deposit stakes amount in a pool, first paying the caller whatever their
// existing stake has earned. Depositing zero only pays out.
func (f *Farm) Deposit(st *state.State, caller address.Address, id uint64, amount math.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return errors.InvalidAmount.WithFormat("cannot stake %v", amount)
	}
	exit, err := f.begin(st)
	if err != nil {
		return err
	}
	defer exit()

	cfg, p, s, err := f.load(st, id, caller)
	if err != nil {
		return err
	}
	if err := f.update(st, cfg, p); err != nil {
		return err
	}
	if err := f.settle(st, cfg, p, caller, s); err != nil {
		return err
	}

	if amount.IsPositive() {
		err = f.custody(st, p, caller, f.Account(), amount)
		if err != nil {
			return err
		}
		s.Shares = s.Shares.Add(amount)
		p.SharesTotal = p.SharesTotal.Add(amount)
	}
	s.reset(p)
	if err := f.save(st, p, caller, s); err != nil {
		return err
	}

	st.Emit(events.FarmDeposited{Pool: id, Account: caller, Amount: amount})
	f.logger.DebugContext(st.Context(), "Deposit", "pool", id, "account", caller, "amount", amount)
	return nil
}

// Withdraw unstakes amount from a pool, first paying the caller whatever
// their stake has earned. Withdrawing zero only pays out.
func (f *Farm) Withdraw(st *state.State, caller address.Address, id uint64, amount math.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return errors.InvalidAmount.WithFormat("cannot unstake %v", amount)
	}
	exit, err := f.begin(st)
	if err != nil {
		return err
	}
	defer exit()

	cfg, p, s, err := f.load(st, id, caller)
	if err != nil {
		return err
	}
	if amount.GT(s.Shares) {
		return errors.InsufficientShares.WithFormat("%v has %v staked in pool %d, cannot withdraw %v", caller, s.Shares, id, amount)
	}
	if err := f.update(st, cfg, p); err != nil {
		return err
	}
	if err := f.settle(st, cfg, p, caller, s); err != nil {
		return err
	}

	if amount.IsPositive() {
		s.Shares = s.Shares.Sub(amount)
		p.SharesTotal = p.SharesTotal.Sub(amount)
		err = f.custody(st, p, f.Account(), caller, amount)
		if err != nil {
			return err
		}
	}
	s.reset(p)
	if err := f.save(st, p, caller, s); err != nil {
		return err
	}

	st.Emit(events.FarmWithdrawn{Pool: id, Account: caller, Amount: amount})
	f.logger.DebugContext(st.Context(), "Withdraw", "pool", id, "account", caller, "amount", amount)
	return nil
}

// EmergencyWithdraw returns the caller's entire stake without paying what it
// has earned. The forfeited earnings stay with the farm.
func (f *Farm) EmergencyWithdraw(st *state.State, caller address.Address, id uint64) (math.Int, error) {
	exit, err := f.begin(st)
	if err != nil {
		return math.Int{}, err
	}
	defer exit()

	cfg, p, s, err := f.load(st, id, caller)
	if err != nil {
		return math.Int{}, err
	}
	amount := s.Shares
	if amount.IsZero() {
		return amount, nil
	}
	if err := f.update(st, cfg, p); err != nil {
		return math.Int{}, err
	}

	p.SharesTotal = p.SharesTotal.Sub(amount)
	err = f.custody(st, p, f.Account(), caller, amount)
	if err != nil {
		return math.Int{}, err
	}
	if err := f.save(st, p, caller, newStaker()); err != nil {
		return math.Int{}, err
	}

	st.Emit(events.FarmWithdrawn{Pool: id, Account: caller, Amount: amount, Emergency: true})
	f.logger.InfoContext(st.Context(), "Emergency withdraw", "pool", id, "account", caller, "amount", amount)
	return amount, nil
}
