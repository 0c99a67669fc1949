// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package memory

import (
	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
)

// Entry is a pending key-value change.
type Entry struct {
	Key    *database.Key
	Value  []byte
	Delete bool
}

type GetFunc = func(*database.Key) ([]byte, error)
type CommitFunc = func(map[string]Entry) error

// ChangeSet buffers changes in memory until they are committed.
type ChangeSet struct {
	get     GetFunc
	commit  CommitFunc
	discard func()
	entries map[string]Entry
	done    bool
}

var _ keyvalue.ChangeSet = (*ChangeSet)(nil)

// NewChangeSet returns a change set that reads through to get and writes
// pending entries to commit. A nil commit makes the change set read-only.
func NewChangeSet(get GetFunc, commit CommitFunc, discard func()) *ChangeSet {
	return &ChangeSet{
		get:     get,
		commit:  commit,
		discard: discard,
		entries: map[string]Entry{},
	}
}

// Begin begins a nested change set. Committing the nested change set writes
// its entries into this one.
func (c *ChangeSet) Begin(writable bool) keyvalue.ChangeSet {
	var commit CommitFunc
	if writable {
		commit = c.putAll
	}
	return NewChangeSet(c.Get, commit, nil)
}

func (c *ChangeSet) Get(key *database.Key) ([]byte, error) {
	if c.done {
		return nil, errors.NotReady.With("change set has been committed or discarded")
	}

	if e, ok := c.entries[key.String()]; ok {
		if e.Delete {
			return nil, errors.NotFound.WithFormat("%v not found", key)
		}
		return copyBytes(e.Value), nil
	}

	if c.get == nil {
		return nil, errors.NotFound.WithFormat("%v not found", key)
	}
	return c.get(key)
}

func (c *ChangeSet) Put(key *database.Key, value []byte) error {
	if c.done {
		return errors.NotReady.With("change set has been committed or discarded")
	}
	if c.commit == nil {
		return errors.BadRequest.With("change set is read-only")
	}
	c.entries[key.String()] = Entry{Key: key, Value: copyBytes(value)}
	return nil
}

func (c *ChangeSet) Delete(key *database.Key) error {
	if c.done {
		return errors.NotReady.With("change set has been committed or discarded")
	}
	if c.commit == nil {
		return errors.BadRequest.With("change set is read-only")
	}
	c.entries[key.String()] = Entry{Key: key, Delete: true}
	return nil
}

func (c *ChangeSet) putAll(entries map[string]Entry) error {
	if c.done {
		return errors.NotReady.With("change set has been committed or discarded")
	}
	for k, e := range entries {
		c.entries[k] = e
	}
	return nil
}

// Commit writes pending entries. Committing a read-only change set is
// equivalent to discarding it.
func (c *ChangeSet) Commit() error {
	if c.done {
		return errors.NotReady.With("change set has been committed or discarded")
	}
	c.done = true
	defer c.release()

	if c.commit == nil || len(c.entries) == 0 {
		return nil
	}
	return c.commit(c.entries)
}

func (c *ChangeSet) Discard() {
	if c.done {
		return
	}
	c.done = true
	c.release()
}

func (c *ChangeSet) release() {
	c.entries = nil
	if c.discard != nil {
		c.discard()
	}
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
