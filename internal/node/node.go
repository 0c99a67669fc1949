// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package node applies operations to the protocol's ledger one at a time.
// Every operation runs in its own change set at a new height and is
// committed only if it succeeds.
package node

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gulitsky/firedao-protocol/config"
	"github.com/gulitsky/firedao-protocol/internal/core/protocol"
	"github.com/gulitsky/firedao-protocol/internal/core/state"
	"github.com/gulitsky/firedao-protocol/internal/events"
	"github.com/gulitsky/firedao-protocol/internal/genesis"
	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue"
	"github.com/gulitsky/firedao-protocol/pkg/database/values"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
)

// Head is the height and time of the last committed operation.
type Head struct {
	Height uint64    `json:"height"`
	Time   time.Time `json:"time"`
}

type Options struct {
	Database keyvalue.Beginner
	Protocol *protocol.Protocol
	Genesis  *config.Genesis
	Events   *events.Bus
	Logger   *slog.Logger

	// Clock returns the current time. It defaults to time.Now.
	Clock func() time.Time
}

type Node struct {
	mu       sync.Mutex
	db       keyvalue.Beginner
	protocol *protocol.Protocol
	bus      *events.Bus
	logger   *slog.Logger
	clock    func() time.Time
	head     Head
}

var headKey = database.NewKey("node", "head")

// New opens a node. If the database has no head, the genesis is applied
// at height 1.
func New(ctx context.Context, opts Options) (*Node, error) {
	if opts.Database == nil || opts.Protocol == nil {
		return nil, errors.BadRequest.With("missing database or protocol")
	}
	n := &Node{
		db:       opts.Database,
		protocol: opts.Protocol,
		bus:      opts.Events,
		logger:   opts.Logger,
		clock:    opts.Clock,
	}
	if n.bus == nil {
		n.bus = events.NewBus(opts.Logger)
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	n.logger = n.logger.With("module", "node")
	if n.clock == nil {
		n.clock = time.Now
	}

	batch := n.db.Begin(false)
	head, err := values.NewValue[*Head](batch, headKey).Get()
	batch.Discard()
	switch {
	case err == nil:
		n.head = *head
		n.logger.InfoContext(ctx, "Loaded", "height", head.Height, "time", head.Time)
		mHeight.Set(float64(head.Height))
		return n, nil

	case !errors.Is(err, errors.NotFound):
		return nil, errors.UnknownError.WithFormat("load head: %w", err)
	}

	if opts.Genesis == nil {
		return nil, errors.NotReady.With("database is empty and there is no genesis")
	}
	err = n.Execute(ctx, "genesis", func(st *state.State) error {
		return genesis.Apply(st, n.protocol, opts.Genesis, n.logger)
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Protocol returns the protocol the node executes.
func (n *Node) Protocol() *protocol.Protocol { return n.protocol }

// Events returns the bus committed events are published to.
func (n *Node) Events() *events.Bus { return n.bus }

// Head returns the height and time of the last committed operation.
func (n *Node) Head() Head {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.head
}

// Execute runs an operation at the next height and commits it if it
// succeeds. Operations are serialized. The operation's events are published
// after it is committed.
func (n *Node) Execute(ctx context.Context, name string, fn func(st *state.State) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	start := time.Now()
	header := state.Header{
		Height: n.head.Height + 1,
		Time:   n.clock().UTC(),
	}
	if header.Time.Before(n.head.Time) {
		header.Time = n.head.Time
	}

	st := state.New(ctx, n.db.Begin(true), header)
	defer st.Discard()

	err := fn(st)
	if err != nil {
		mOperations.WithLabelValues(name, errors.Code(err).String()).Inc()
		n.logger.DebugContext(ctx, "Operation failed", "operation", name, "height", header.Height, "error", err)
		return err
	}

	head := Head{Height: header.Height, Time: header.Time}
	err = values.NewValue[*Head](st, headKey).Put(&head)
	if err != nil {
		return err
	}
	err = st.Commit()
	if err != nil {
		mOperations.WithLabelValues(name, errors.Code(err).String()).Inc()
		return errors.UnknownError.WithFormat("commit %s: %w", name, err)
	}

	n.head = head
	mOperations.WithLabelValues(name, errors.OK.String()).Inc()
	mHeight.Set(float64(head.Height))
	mDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	evs := st.Events()
	n.bus.Publish(events.DidCommit{Height: head.Height, Time: head.Time, Events: len(evs)})
	for _, e := range evs {
		n.bus.Publish(e)
	}

	n.logger.DebugContext(ctx, "Committed", "operation", name, "height", head.Height, "events", len(evs))
	return nil
}

// View runs a read-only query against the last committed state.
func (n *Node) View(ctx context.Context, fn func(st *state.State) error) error {
	n.mu.Lock()
	header := state.Header{Height: n.head.Height, Time: n.head.Time}
	batch := n.db.Begin(false)
	n.mu.Unlock()

	st := state.New(ctx, batch, header)
	defer st.Discard()
	return fn(st)
}
