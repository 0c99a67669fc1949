// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package timelock is the protocol's governance gate. Privileged actions are
// queued by the admin, may only be executed after a delay, and expire if they
// are not executed within a grace period.
package timelock

import (
	"encoding/binary"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/values"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
)

const (
	MinimumDelay = 2 * 24 * time.Hour
	MaximumDelay = 30 * 24 * time.Hour
	GracePeriod  = 14 * 24 * time.Hour
)

// Config is the timelock's persisted configuration.
type Config struct {
	Admin        address.Address `json:"admin"`
	PendingAdmin address.Address `json:"pendingAdmin,omitempty"`
	Delay        time.Duration   `json:"delay"`
}

// Executor executes governed methods on the components of one kind.
type Executor interface {
	Execute(st *state.State, caller address.Address, id, method string, payload json.RawMessage) error
}

// ExecutorFunc adapts a function to an Executor.
type ExecutorFunc func(st *state.State, caller address.Address, id, method string, payload json.RawMessage) error

func (fn ExecutorFunc) Execute(st *state.State, caller address.Address, id, method string, payload json.RawMessage) error {
	return fn(st, caller, id, method, payload)
}

type Timelock struct {
	executors map[string]Executor
	logger    *slog.Logger
}

func New(logger *slog.Logger) *Timelock {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Timelock{
		executors: map[string]Executor{},
		logger:    logger.With("module", "timelock"),
	}
	t.Register(address.Timelock.String(), ExecutorFunc(t.executeSelf))
	return t
}

// Account returns the account actions are executed as.
func (t *Timelock) Account() address.Address { return address.Timelock }

// Register registers the executor for targets of the given kind. A target is
// either the kind alone, such as "farm", or the kind and an ID, such as
// "vault/DAI-CAKE".
func (t *Timelock) Register(kind string, e Executor) {
	t.executors[kind] = e
}

func (t *Timelock) resolve(target string) (Executor, string, error) {
	kind, id, _ := strings.Cut(target, "/")
	e, ok := t.executors[kind]
	if !ok {
		return nil, "", errors.BadRequest.WithFormat("unknown target %q", target)
	}
	return e, id, nil
}

func configValue(st *state.State) *values.Value[*Config] {
	return values.NewValue[*Config](st, database.NewKey("timelock"))
}

func validateDelay(d time.Duration) error {
	if d < MinimumDelay || d > MaximumDelay {
		return errors.BadRequest.WithFormat("delay %v is not between %v and %v", d, MinimumDelay, MaximumDelay)
	}
	return nil
}

// Init records the timelock's configuration.
func (t *Timelock) Init(st *state.State, admin address.Address, delay time.Duration) error {
	if err := admin.Validate(); err != nil {
		return errors.BadRequest.WithFormat("timelock admin: %w", err)
	}
	if err := validateDelay(delay); err != nil {
		return err
	}

	v := configValue(st)
	ok, err := v.Exists()
	if err != nil {
		return err
	}
	if ok {
		return errors.Conflict.With("timelock is already initialized")
	}
	return v.Put(&Config{Admin: admin, Delay: delay})
}

// Get loads the timelock's configuration.
func Get(st *state.State) (*Config, error) {
	cfg, err := configValue(st).Get()
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, errors.NotReady.With("timelock is not initialized")
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
		return nil, errors.Unauthorized.WithFormat("%v is not the timelock admin", caller)
	}
	return cfg, nil
}

// AcceptAdmin makes the pending admin the admin. Only the pending admin may
// accept.
func (t *Timelock) AcceptAdmin(st *state.State, caller address.Address) error {
	cfg, err := Get(st)
	if err != nil {
		return err
	}
	if cfg.PendingAdmin == "" || caller != cfg.PendingAdmin {
		return errors.Unauthorized.WithFormat("%v is not the pending timelock admin", caller)
	}
	cfg.Admin, cfg.PendingAdmin = cfg.PendingAdmin, ""
	if err := configValue(st).Put(cfg); err != nil {
		return err
	}

	t.logger.InfoContext(st.Context(), "Admin changed", "admin", cfg.Admin)
	return nil
}

type SetDelay struct {
	Delay time.Duration `json:"delay"`
}

type SetPendingAdmin struct {
	Admin address.Address `json:"admin"`
}

// executeSelf executes methods that can only be reached through a queued
// action.
func (t *Timelock) executeSelf(st *state.State, caller address.Address, _, method string, payload json.RawMessage) error {
	if caller != t.Account() {
		return errors.Unauthorized.WithFormat("%s may only be called by the timelock", method)
	}
	cfg, err := Get(st)
	if err != nil {
		return err
	}

	switch method {
	case "setDelay":
		var args SetDelay
		if err := decode(method, payload, &args); err != nil {
			return err
		}
		if err := validateDelay(args.Delay); err != nil {
			return err
		}
		cfg.Delay = args.Delay

	case "setPendingAdmin":
		var args SetPendingAdmin
		if err := decode(method, payload, &args); err != nil {
			return err
		}
		if err := args.Admin.Validate(); err != nil {
			return err
		}
		cfg.PendingAdmin = args.Admin

	default:
		return errors.BadRequest.WithFormat("timelock has no method %q", method)
	}
	return configValue(st).Put(cfg)
}

func decode(method string, payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return errors.EncodingError.WithFormat("decode %s: %w", method, err)
	}
	return nil
}

// ActionID returns the ID of an action.
func ActionID(target, method string, payload json.RawMessage, eta time.Time) string {
	return crypto.Keccak256Hash(
		[]byte(target),
		[]byte(method),
		payload,
		binary.BigEndian.AppendUint64(nil, uint64(eta.Unix())),
	).Hex()
}
