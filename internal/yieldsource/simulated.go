// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package yieldsource

import (
	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/bank"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/values"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
	"github.com/gulitsky/firedao-protocol/pkg/types/amount"
)

type Kind string

const (
	KindLending Kind = "lending"
	KindStaking Kind = "staking"
)

// precision scales the reward accumulator.
var precision = math.NewIntWithDecimal(1, 18)

// Source is the record of a simulated yield source. Positions are tracked in
// units; a lending market's units appreciate as interest accrues while a
// staking pool's units are always worth one underlying each.
type Source struct {
	ID            string   `json:"id"`
	Kind          Kind     `json:"kind"`
	Underlying    string   `json:"underlying"`
	RewardAsset   string   `json:"rewardAsset"`
	Unavailable   bool     `json:"unavailable,omitempty"`
	TotalUnits    math.Int `json:"totalUnits"`
	TotalAssets   math.Int `json:"totalAssets"`
	RewardPerUnit math.Int `json:"rewardPerUnit"`
	Locked        math.Int `json:"locked"`
}

// Account returns the account holding the source's funds.
func (s *Source) Account() address.Address {
	if s.Kind == KindStaking {
		return address.Pool(s.ID)
	}
	return address.Market(s.ID)
}

type position struct {
	Units     math.Int `json:"units"`
	RewardAcc math.Int `json:"rewardAcc"`
	Owed      math.Int `json:"owed"`
}

func sourceValue(st *state.State, id string) *values.Value[*Source] {
	return values.NewValue[*Source](st, database.NewKey("yieldsource", id))
}

func positionValue(st *state.State, id string, holder address.Address) *values.Value[*position] {
	return values.NewValue[*position](st, database.NewKey("yieldsource", id, "position", holder))
}

func sourceIndex(st *state.State) *values.Set {
	return values.NewSet(st, database.NewKey("yieldsource", "index"))
}

// Register records a new simulated source.
func Register(st *state.State, src Source) error {
	if err := address.ValidateID("yield source", src.ID); err != nil {
		return err
	}
	switch src.Kind {
	case KindLending, KindStaking:
	default:
		return errors.BadRequest.WithFormat("unknown yield source kind %q", src.Kind)
	}
	for _, id := range []string{src.Underlying, src.RewardAsset} {
		if _, err := bank.GetAsset(st, id); err != nil {
			return err
		}
	}

	v := sourceValue(st, src.ID)
	ok, err := v.Exists()
	if err != nil {
		return err
	}
	if ok {
		return errors.Conflict.WithFormat("yield source %s already exists", src.ID)
	}
	src.TotalUnits = math.ZeroInt()
	src.TotalAssets = math.ZeroInt()
	src.RewardPerUnit = math.ZeroInt()
	src.Locked = math.ZeroInt()
	if err := v.Put(&src); err != nil {
		return err
	}
	return sourceIndex(st).Add(src.ID)
}

// Get loads a simulated source.
func Get(st *state.State, id string) (*Source, error) {
	s, err := sourceValue(st, id).Get()
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, errors.NotFound.WithFormat("yield source %s not found", id)
		}
		return nil, err
	}
	return s, nil
}

// List returns the IDs of all simulated sources.
func List(st *state.State) ([]string, error) {
	return sourceIndex(st).Get()
}

// Registry resolves IDs to simulated sources.
type Registry struct{}

var _ Resolver = Registry{}

func (Registry) LendingMarket(id string) LendingMarket { return &Simulated{id: id, kind: KindLending} }
func (Registry) StakingPool(id string) StakingPool     { return &Simulated{id: id, kind: KindStaking} }

// Simulated is a handle to a simulated source. It implements both
// [LendingMarket] and [StakingPool]; the kind it was resolved as must match
// the recorded kind.
type Simulated struct {
	id   string
	kind Kind
}

var _ LendingMarket = (*Simulated)(nil)
var _ StakingPool = (*Simulated)(nil)

func (s *Simulated) load(st *state.State) (*Source, error) {
	src, err := Get(st, s.id)
	if err != nil {
		return nil, err
	}
	if src.Kind != s.kind {
		return nil, errors.BadRequest.WithFormat("yield source %s is a %s, not a %s", s.id, src.Kind, s.kind)
	}
	return src, nil
}

func (s *Simulated) loadAvailable(st *state.State) (*Source, error) {
	src, err := s.load(st)
	if err != nil {
		return nil, err
	}
	if src.Unavailable {
		return nil, errors.AdapterUnavailable.WithFormat("yield source %s is unavailable", s.id)
	}
	return src, nil
}

func (s *Simulated) Underlying(st *state.State) (string, error) {
	src, err := s.load(st)
	if err != nil {
		return "", err
	}
	return src.Underlying, nil
}

func (s *Simulated) RewardAsset(st *state.State) (string, error) {
	src, err := s.load(st)
	if err != nil {
		return "", err
	}
	return src.RewardAsset, nil
}

func (s *Simulated) Supply(st *state.State, supplier address.Address, amount math.Int) error {
	return s.deposit(st, supplier, amount)
}

func (s *Simulated) Stake(st *state.State, staker address.Address, amount math.Int) error {
	return s.deposit(st, staker, amount)
}

func (s *Simulated) Redeem(st *state.State, supplier address.Address, amount math.Int) (math.Int, error) {
	return s.withdraw(st, supplier, amount)
}

func (s *Simulated) Unstake(st *state.State, staker address.Address, amount math.Int) (math.Int, error) {
	return s.withdraw(st, staker, amount)
}

func (s *Simulated) SupplyBalance(st *state.State, supplier address.Address) (math.Int, error) {
	return s.balance(st, supplier)
}

func (s *Simulated) Staked(st *state.State, staker address.Address) (math.Int, error) {
	return s.balance(st, staker)
}

func (s *Simulated) deposit(st *state.State, holder address.Address, amt math.Int) error {
	if err := amount.RequirePositive(amt, "deposit"); err != nil {
		return err
	}
	src, err := s.loadAvailable(st)
	if err != nil {
		return err
	}
	pos, err := s.settle(st, src, holder)
	if err != nil {
		return err
	}

	if err := bank.Transfer(st, src.Underlying, holder, src.Account(), amt); err != nil {
		return err
	}

	units := amt
	if src.TotalUnits.IsPositive() && src.TotalAssets.IsPositive() {
		units = amt.Mul(src.TotalUnits).Quo(src.TotalAssets)
	}
	pos.Units = pos.Units.Add(units)
	src.TotalUnits = src.TotalUnits.Add(units)
	src.TotalAssets = src.TotalAssets.Add(amt)

	if err := positionValue(st, s.id, holder).Put(pos); err != nil {
		return err
	}
	return sourceValue(st, s.id).Put(src)
}

func (s *Simulated) withdraw(st *state.State, holder address.Address, amt math.Int) (math.Int, error) {
	if err := amount.RequirePositive(amt, "withdrawal"); err != nil {
		return math.Int{}, err
	}
	src, err := s.loadAvailable(st)
	if err != nil {
		return math.Int{}, err
	}
	pos, err := s.settle(st, src, holder)
	if err != nil {
		return math.Int{}, err
	}

	value := valueOf(src, pos.Units)
	actual := math.MinInt(amt, math.MinInt(value, src.liquidity()))
	if !actual.IsPositive() {
		return math.ZeroInt(), nil
	}

	// Burn the units backing actual, rounding up
	units := pos.Units
	if actual.LT(value) {
		units = actual.Mul(src.TotalUnits).Add(src.TotalAssets).SubRaw(1).Quo(src.TotalAssets)
		units = math.MinInt(units, pos.Units)
	}
	pos.Units = pos.Units.Sub(units)
	src.TotalUnits = src.TotalUnits.Sub(units)
	src.TotalAssets = src.TotalAssets.Sub(actual)

	if err := bank.Transfer(st, src.Underlying, src.Account(), holder, actual); err != nil {
		return math.Int{}, err
	}
	if err := positionValue(st, s.id, holder).Put(pos); err != nil {
		return math.Int{}, err
	}
	return actual, sourceValue(st, s.id).Put(src)
}

func (s *Simulated) balance(st *state.State, holder address.Address) (math.Int, error) {
	src, err := s.loadAvailable(st)
	if err != nil {
		return math.Int{}, err
	}
	pos, err := positionValue(st, s.id, holder).GetOr(newPosition(src))
	if err != nil {
		return math.Int{}, err
	}
	return valueOf(src, pos.Units), nil
}

func (s *Simulated) ClaimRewards(st *state.State, holder address.Address) (math.Int, error) {
	src, err := s.loadAvailable(st)
	if err != nil {
		return math.Int{}, err
	}
	pos, err := s.settle(st, src, holder)
	if err != nil {
		return math.Int{}, err
	}

	owed := pos.Owed
	pos.Owed = math.ZeroInt()
	if err := positionValue(st, s.id, holder).Put(pos); err != nil {
		return math.Int{}, err
	}
	if owed.IsZero() {
		return owed, nil
	}
	return owed, bank.Transfer(st, src.RewardAsset, src.Account(), holder, owed)
}

func (s *Simulated) PendingRewards(st *state.State, holder address.Address) (math.Int, error) {
	src, err := s.load(st)
	if err != nil {
		return math.Int{}, err
	}
	pos, err := s.settle(st, src, holder)
	if err != nil {
		return math.Int{}, err
	}
	return pos.Owed, nil
}

// settle credits the holder's position with rewards accrued since it was
// last touched.
func (s *Simulated) settle(st *state.State, src *Source, holder address.Address) (*position, error) {
	pos, err := positionValue(st, s.id, holder).GetOr(newPosition(src))
	if err != nil {
		return nil, err
	}
	delta := src.RewardPerUnit.Sub(pos.RewardAcc)
	pos.Owed = pos.Owed.Add(pos.Units.Mul(delta).Quo(precision))
	pos.RewardAcc = src.RewardPerUnit
	return pos, nil
}

func newPosition(src *Source) *position {
	return &position{Units: math.ZeroInt(), RewardAcc: src.RewardPerUnit, Owed: math.ZeroInt()}
}

// liquidity returns the assets that can be withdrawn.
func (s *Source) liquidity() math.Int {
	if s.Locked.IsNil() || s.Locked.IsNegative() {
		return s.TotalAssets
	}
	l := s.TotalAssets.Sub(s.Locked)
	if l.IsNegative() {
		return math.ZeroInt()
	}
	return l
}

func valueOf(src *Source, units math.Int) math.Int {
	if !src.TotalUnits.IsPositive() {
		return math.ZeroInt()
	}
	return units.Mul(src.TotalAssets).Quo(src.TotalUnits)
}
