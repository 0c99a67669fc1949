// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package events

import (
	"time"

	"cosmossdk.io/math"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
)

type Event interface {
	EventType() string
}

// DidCommit is published after an operation's changes are committed, before
// the operation's own events.
type DidCommit struct {
	Height uint64    `json:"height"`
	Time   time.Time `json:"time"`
	Events int       `json:"events"`
}

type Deposited struct {
	Vault   string          `json:"vault"`
	Account address.Address `json:"account"`
	Amount  math.Int        `json:"amount"`
	Shares  math.Int        `json:"shares"`
}

type Withdrawn struct {
	Vault   string          `json:"vault"`
	Account address.Address `json:"account"`
	Shares  math.Int        `json:"shares"`
	Amount  math.Int        `json:"amount"`
	Fee     math.Int        `json:"fee"`
}

type Earned struct {
	Vault    string   `json:"vault"`
	Strategy string   `json:"strategy"`
	Amount   math.Int `json:"amount"`
}

type StrategyChanged struct {
	Vault  string `json:"vault"`
	Old    string `json:"old,omitempty"`
	New    string `json:"new"`
	Forced bool   `json:"forced,omitempty"`
}

type Harvested struct {
	Vault   string   `json:"vault"`
	Yield   math.Int `json:"yield"`
	Target  math.Int `json:"target"`
	Fee     math.Int `json:"fee"`
	Buyback math.Int `json:"buyback"`
	Profit  math.Int `json:"profit"`
}

type ProfitClaimed struct {
	Vault   string          `json:"vault"`
	Account address.Address `json:"account"`
	Amount  math.Int        `json:"amount"`
}

type Reinvested struct {
	Strategy string   `json:"strategy"`
	Rewards  math.Int `json:"rewards"`
	Amount   math.Int `json:"amount"`
}

type FarmDeposited struct {
	Pool    uint64          `json:"pool"`
	Account address.Address `json:"account"`
	Amount  math.Int        `json:"amount"`
}

type FarmWithdrawn struct {
	Pool      uint64          `json:"pool"`
	Account   address.Address `json:"account"`
	Amount    math.Int        `json:"amount"`
	Emergency bool            `json:"emergency,omitempty"`
}

type RewardPaid struct {
	Pool    uint64          `json:"pool"`
	Account address.Address `json:"account"`
	Amount  math.Int        `json:"amount"`
}

type ActionQueued struct {
	ID     string    `json:"id"`
	Target string    `json:"target"`
	Method string    `json:"method"`
	ETA    time.Time `json:"eta"`
}

type ActionExecuted struct {
	ID     string `json:"id"`
	Target string `json:"target"`
	Method string `json:"method"`
}

type ActionCancelled struct {
	ID string `json:"id"`
}

func (DidCommit) EventType() string       { return "didCommit" }
func (Deposited) EventType() string       { return "deposited" }
func (Withdrawn) EventType() string       { return "withdrawn" }
func (Earned) EventType() string          { return "earned" }
func (StrategyChanged) EventType() string { return "strategyChanged" }
func (Harvested) EventType() string       { return "harvested" }
func (ProfitClaimed) EventType() string   { return "profitClaimed" }
func (Reinvested) EventType() string      { return "reinvested" }
func (FarmDeposited) EventType() string   { return "farmDeposited" }
func (FarmWithdrawn) EventType() string   { return "farmWithdrawn" }
func (RewardPaid) EventType() string      { return "rewardPaid" }
func (ActionQueued) EventType() string    { return "actionQueued" }
func (ActionExecuted) EventType() string  { return "actionExecuted" }
func (ActionCancelled) EventType() string { return "actionCancelled" }
