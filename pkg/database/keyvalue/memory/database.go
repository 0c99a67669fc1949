// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package memory

import (
	"sort"
	"sync"

	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue"
	"github.com/gulitsky/firedao-protocol/pkg/errors"
)

// Database is an in-memory key-value database.
type Database struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

var _ keyvalue.Beginner = (*Database)(nil)

func New() *Database {
	return &Database{entries: map[string]Entry{}}
}

// Begin begins a change set.
func (d *Database) Begin(writable bool) keyvalue.ChangeSet {
	var commit CommitFunc
	if writable {
		commit = d.put
	}
	return NewChangeSet(d.get, commit, nil)
}

// Export exports the database as a set of entries, sorted by key.
func (d *Database) Export() []Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entries := make([]Entry, 0, len(d.entries))
	for _, e := range d.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key.String() < entries[j].Key.String()
	})
	return entries
}

// Import imports a set of entries into the database.
func (d *Database) Import(entries []Entry) error {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.Key.String()] = e
	}
	return d.put(m)
}

func (d *Database) get(key *database.Key) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.entries[key.String()]
	if ok {
		return copyBytes(entry.Value), nil
	}

	// Not found
	return nil, errors.NotFound.WithFormat("%v not found", key)
}

func (d *Database) put(entries map[string]Entry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for k, e := range entries {
		if e.Delete {
			delete(d.entries, k)
		} else {
			d.entries[k] = e
		}
	}
	return nil
}
