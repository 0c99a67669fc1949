// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package state provides the execution context of protocol operations.
//
// Every operation runs against a State. A State wraps a change set of the
// node's key-value store, the header (height and time) of the operation, the
// events the operation emits, and the set of components currently executing.
// Nothing is visible to other operations until the State is committed, and a
// State that is discarded leaves no trace.
package state

import (
	"context"
	"time"

	"github.com/gulitsky/firedao-protocol/internal/events"
	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
)

// Header identifies the point in the chain of operations at which an
// operation executes.
type Header struct {
	Height uint64    `json:"height"`
	Time   time.Time `json:"time"`
}

type State struct {
	ctx     context.Context
	batch   keyvalue.ChangeSet
	header  Header
	events  []events.Event
	entered map[string]int
	done    bool
}

var _ keyvalue.Store = (*State)(nil)

// New returns a State that reads and writes through batch.
func New(ctx context.Context, batch keyvalue.ChangeSet, header Header) *State {
	if ctx == nil {
		ctx = context.Background()
	}
	return &State{
		ctx:     ctx,
		batch:   batch,
		header:  header,
		entered: map[string]int{},
	}
}

func (s *State) Context() context.Context { return s.ctx }
func (s *State) Header() Header           { return s.header }
func (s *State) Height() uint64           { return s.header.Height }
func (s *State) Now() time.Time           { return s.header.Time }

// Get implements [keyvalue.Store] against the innermost open scope.
func (s *State) Get(key *database.Key) ([]byte, error) {
	if s.done {
		return nil, errors.NotReady.With("state has been committed or discarded")
	}
	return s.batch.Get(key)
}

// Put implements [keyvalue.Store] against the innermost open scope.
func (s *State) Put(key *database.Key, value []byte) error {
	if s.done {
		return errors.NotReady.With("state has been committed or discarded")
	}
	return s.batch.Put(key, value)
}

// Delete implements [keyvalue.Store] against the innermost open scope.
func (s *State) Delete(key *database.Key) error {
	if s.done {
		return errors.NotReady.With("state has been committed or discarded")
	}
	return s.batch.Delete(key)
}

// Emit records an event. Events are dropped along with the scope that emitted
// them if that scope fails.
func (s *State) Emit(e events.Event) {
	s.events = append(s.events, e)
}

// Events returns the events emitted so far.
func (s *State) Events() []events.Event {
	return s.events
}

// Atomic runs fn in a nested scope. If fn fails, every write and event made
// by fn is rolled back and the error is returned. Otherwise the nested scope
// is merged into the enclosing one.
func (s *State) Atomic(fn func() error) error {
	if s.done {
		return errors.NotReady.With("state has been committed or discarded")
	}

	parent, n := s.batch, len(s.events)
	nested := parent.Begin(true)
	s.batch = nested

	err := fn()
	s.batch = parent
	if err != nil {
		nested.Discard()
		s.events = s.events[:n]
		return err
	}

	return errors.UnknownError.Wrap(nested.Commit())
}

// Enter marks the component identified by key as executing. It fails with
// Reentrant if the component is already executing. The returned function
// must be called when the component returns.
func (s *State) Enter(key string) (exit func(), err error) {
	if s.entered[key] > 0 {
		return nil, errors.Reentrant.WithFormat("%s is already executing", key)
	}
	s.entered[key]++
	return func() { s.entered[key]-- }, nil
}

// Commit commits all changes to the underlying store.
func (s *State) Commit() error {
	if s.done {
		return errors.NotReady.With("state has been committed or discarded")
	}
	s.done = true
	return errors.UnknownError.Wrap(s.batch.Commit())
}

// Discard drops all changes. Discard is a no-op once the state is done.
func (s *State) Discard() {
	if s.done {
		return
	}
	s.done = true
	s.batch.Discard()
}
