// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package timelock

import (
	"encoding/json"
	"time"

	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/events"
	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/values"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
	"github.com/gulitsky/firedao-protocol/pkg/types/address"
)

// Status is the recorded status of an action.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusExecuted  Status = "executed"
	StatusCancelled Status = "cancelled"
)

// Phase is the phase of an action at a point in time.
type Phase string

const (
	PhaseQueued     Phase = "queued"
	PhaseExecutable Phase = "executable"
	PhaseExecuted   Phase = "executed"
	PhaseExpired    Phase = "expired"
	PhaseCancelled  Phase = "cancelled"
)

type Action struct {
	ID      string          `json:"id"`
	Target  string          `json:"target"`
	Method  string          `json:"method"`
	Payload json.RawMessage `json:"payload,omitempty"`
	ETA     time.Time       `json:"eta"`
	Status  Status          `json:"status"`
}

// Phase returns the phase of the action at the given time.
func (a *Action) Phase(now time.Time) Phase {
	switch {
	case a.Status == StatusExecuted:
		return PhaseExecuted
	case a.Status == StatusCancelled:
		return PhaseCancelled
	case !now.Before(a.ETA.Add(GracePeriod)):
		return PhaseExpired
	case !now.Before(a.ETA):
		return PhaseExecutable
	default:
		return PhaseQueued
	}
}

func actionValue(st *state.State, id string) *values.Value[*Action] {
	return values.NewValue[*Action](st, database.NewKey("timelock", "action", id))
}

func actionIndex(st *state.State) *values.Set {
	return values.NewSet(st, database.NewKey("timelock", "actions"))
}

// GetAction loads an action.
func GetAction(st *state.State, id string) (*Action, error) {
	return actionValue(st, id).Get()
}

// Actions returns the IDs of every action ever queued.
func Actions(st *state.State) ([]string, error) {
	return actionIndex(st).Get()
}

// Queue queues an action to be executed at or after eta. Only the admin may
// queue, and eta must be at least the timelock's delay in the future.
func (t *Timelock) Queue(st *state.State, caller address.Address, target, method string, payload json.RawMessage, eta time.Time) (*Action, error) {
	cfg, err := requireAdmin(st, caller)
	if err != nil {
		return nil, err
	}
	if _, _, err := t.resolve(target); err != nil {
		return nil, err
	}
	if method == "" {
		return nil, errors.BadRequest.With("action has no method")
	}
	eta = eta.Truncate(time.Second).UTC()
	if earliest := st.Now().Add(cfg.Delay); eta.Before(earliest) {
		return nil, errors.BadRequest.WithFormat("eta %v is before %v", eta, earliest.UTC())
	}

	a := &Action{
		ID:      ActionID(target, method, payload, eta),
		Target:  target,
		Method:  method,
		Payload: payload,
		ETA:     eta,
		Status:  StatusQueued,
	}

	v := actionValue(st, a.ID)
	ok, err := v.Exists()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, errors.Conflict.WithFormat("action %s has already been queued", a.ID)
	}
	if err := v.Put(a); err != nil {
		return nil, err
	}
	if err := actionIndex(st).Add(a.ID); err != nil {
		return nil, err
	}

	st.Emit(events.ActionQueued{ID: a.ID, Target: target, Method: method, ETA: eta})
	t.logger.InfoContext(st.Context(), "Queued", "id", a.ID, "target", target, "method", method, "eta", eta)
	return a, nil
}

// Execute executes a queued action, with the timelock as the caller. Only
// the admin may execute. The action must be executable: its eta has passed
// and its grace period has not. If the action fails it remains queued.
func (t *Timelock) Execute(st *state.State, caller address.Address, id string) error {
	if _, err := requireAdmin(st, caller); err != nil {
		return err
	}
	a, err := GetAction(st, id)
	if err != nil {
		return err
	}

	switch p := a.Phase(st.Now()); p {
	case PhaseExecutable:
	case PhaseQueued:
		return errors.NotReady.WithFormat("action %s cannot be executed before %v", id, a.ETA)
	case PhaseExpired:
		return errors.Expired.WithFormat("action %s expired at %v", id, a.ETA.Add(GracePeriod))
	default:
		return errors.Conflict.WithFormat("action %s is %s", id, p)
	}

	e, target, err := t.resolve(a.Target)
	if err != nil {
		return err
	}
	err = st.Atomic(func() error {
		return e.Execute(st, t.Account(), target, a.Method, a.Payload)
	})
	if err != nil {
		return errors.UnknownError.WithFormat("execute %s.%s: %w", a.Target, a.Method, err)
	}

	a.Status = StatusExecuted
	if err := actionValue(st, id).Put(a); err != nil {
		return err
	}

	st.Emit(events.ActionExecuted{ID: id, Target: a.Target, Method: a.Method})
	t.logger.InfoContext(st.Context(), "Executed", "id", id, "target", a.Target, "method", a.Method)
	return nil
}

// Cancel cancels a queued action. Only the admin may cancel.
func (t *Timelock) Cancel(st *state.State, caller address.Address, id string) error {
	if _, err := requireAdmin(st, caller); err != nil {
		return err
	}
	a, err := GetAction(st, id)
	if err != nil {
		return err
	}

	switch p := a.Phase(st.Now()); p {
	case PhaseQueued, PhaseExecutable:
	case PhaseExpired:
		return errors.Expired.WithFormat("action %s has expired", id)
	default:
		return errors.Conflict.WithFormat("action %s is %s", id, p)
	}

	a.Status = StatusCancelled
	if err := actionValue(st, id).Put(a); err != nil {
		return err
	}

	st.Emit(events.ActionCancelled{ID: id})
	t.logger.InfoContext(st.Context(), "Cancelled", "id", id)
	return nil
}
