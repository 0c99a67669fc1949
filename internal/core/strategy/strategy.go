// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package strategy implements the strategies a vault deploys its funds
// through. A strategy custodies one vault's funds in one external yield
// source.
package strategy

import (
	"log/slog"
	"time"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/internal/core/bank"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/core/swap"
	"github.com/gulitsky/firedao-protocol/internal/yieldsource"
	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/values"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
)

// Strategy is the capability a vault uses to deploy funds.
type Strategy interface {
	ID() string
	Vault() string
	Underlying() string
	Kind() Kind

	// Account returns the account holding the strategy's idle funds.
	Account() address.Address

	// Deposit moves amount of underlying from the vault into the yield
	// source. Only the vault may deposit.
	Deposit(st *state.State, caller address.Address, amount math.Int) error

	// Withdraw returns amount of underlying to the vault. If the yield source
	// cannot return the full amount, Withdraw delivers what it can and fails
	// with Shortfall. Only the vault may withdraw.
	Withdraw(st *state.State, caller address.Address, amount math.Int) (math.Int, error)

	// WithdrawAll unwinds the entire position into the vault and returns the
	// amount delivered. Only the vault may withdraw.
	WithdrawAll(st *state.State, caller address.Address) (math.Int, error)

	// ReportedBalance returns the underlying value held by the strategy, idle
	// and deployed.
	ReportedBalance(st *state.State) (math.Int, error)
}

// Reinvester is implemented by strategies whose yield source pays secondary
// rewards.
type Reinvester interface {
	Strategy

	// Reinvest claims rewards, swaps them into underlying along the reward
	// path, and deploys the result. Only the strategist or the owner may
	// reinvest.
	Reinvest(st *state.State, caller address.Address, minOut math.Int, deadline time.Time) (math.Int, error)

	// QuoteReinvest returns the underlying Reinvest would deploy at current
	// prices.
	QuoteReinvest(st *state.State) (math.Int, error)

	RewardPath() []string
}

type Kind string

const (
	KindLending Kind = "lending"
	KindStaking Kind = "staking"
	KindPassive Kind = "passive"
)

// Record is the persisted form of a strategy.
type Record struct {
	ID         string          `json:"id"`
	Vault      string          `json:"vault"`
	Kind       Kind            `json:"kind"`
	Underlying string          `json:"underlying"`
	Source     string          `json:"source,omitempty"`
	Owner      address.Address `json:"owner"`
	Strategist address.Address `json:"strategist,omitempty"`
	RewardPath []string        `json:"rewardPath,omitempty"`
}

func recordValue(st *state.State, id string) *values.Value[*Record] {
	return values.NewValue[*Record](st, database.NewKey("strategy", id))
}

func index(st *state.State) *values.Set {
	return values.NewSet(st, database.NewKey("strategy", "index"))
}

// Loader creates strategies and reconstructs them from their records.
type Loader struct {
	Sources yieldsource.Resolver
	Router  swap.Router
	Logger  *slog.Logger
}

func NewLoader(sources yieldsource.Resolver, router swap.Router, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		Sources: sources,
		Router:  router,
		Logger:  logger.With("module", "strategy"),
	}
}

// Create validates and records a new strategy.
func (l *Loader) Create(st *state.State, rec Record) (Strategy, error) {
	if err := address.ValidateID("strategy", rec.ID); err != nil {
		return nil, err
	}
	if err := address.ValidateID("vault", rec.Vault); err != nil {
		return nil, err
	}
	if err := rec.Owner.Validate(); err != nil {
		return nil, errors.BadRequest.WithFormat("strategy %s owner: %w", rec.ID, err)
	}
	if _, err := bank.GetAsset(st, rec.Underlying); err != nil {
		return nil, err
	}

	v := recordValue(st, rec.ID)
	ok, err := v.Exists()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, errors.Conflict.WithFormat("strategy %s already exists", rec.ID)
	}

	s, err := l.build(&rec)
	if err != nil {
		return nil, err
	}
	if err := s.validate(st); err != nil {
		return nil, err
	}

	if err := v.Put(&rec); err != nil {
		return nil, err
	}
	if err := index(st).Add(rec.ID); err != nil {
		return nil, err
	}
	l.Logger.InfoContext(st.Context(), "Created strategy", "id", rec.ID, "kind", rec.Kind, "vault", rec.Vault)
	return s, nil
}

// Load reconstructs a strategy from its record.
func (l *Loader) Load(st *state.State, id string) (Strategy, error) {
	rec, err := GetRecord(st, id)
	if err != nil {
		return nil, err
	}
	return l.build(rec)
}

// GetRecord loads the record of a strategy.
func GetRecord(st *state.State, id string) (*Record, error) {
	rec, err := recordValue(st, id).Get()
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, errors.NotFound.WithFormat("strategy %s not found", id)
		}
		return nil, err
	}
	return rec, nil
}

// List returns the IDs of all strategies.
func List(st *state.State) ([]string, error) {
	return index(st).Get()
}

type variant interface {
	Strategy
	validate(st *state.State) error
}

func (l *Loader) build(rec *Record) (variant, error) {
	b := base{rec: rec, logger: l.Logger.With("strategy", rec.ID)}
	switch rec.Kind {
	case KindLending:
		if rec.Source == "" {
			return nil, errors.BadRequest.WithFormat("lending strategy %s has no market", rec.ID)
		}
		s := &Lending{market: l.Sources.LendingMarket(rec.Source)}
		s.base, s.router, s.pos = b, l.Router, lendingPosition{s.market}
		return s, nil

	case KindStaking:
		if rec.Source == "" {
			return nil, errors.BadRequest.WithFormat("staking strategy %s has no pool", rec.ID)
		}
		s := &Staking{pool: l.Sources.StakingPool(rec.Source)}
		s.base, s.router, s.pos = b, l.Router, stakingPosition{s.pool}
		return s, nil

	case KindPassive:
		b.pos = passivePosition{}
		return &Passive{base: b}, nil

	default:
		return nil, errors.BadRequest.WithFormat("unknown strategy kind %q", rec.Kind)
	}
}
