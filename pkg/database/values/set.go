// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package values

import (
	"sort"

	"github.com/gulitsky/firedao-protocol/pkg/database"
	"github.com/gulitsky/firedao-protocol/pkg/database/keyvalue"
)

// Set is a sorted set of strings stored as a single value. It is used to index
// records that must be enumerated, such as the registered vaults.
type Set struct {
	value *Value[[]string]
}

// NewSet returns a set for the given key.
func NewSet(store keyvalue.Store, key *database.Key) *Set {
	return &Set{NewValue[[]string](store, key)}
}

// Get returns the members of the set.
func (s *Set) Get() ([]string, error) {
	return s.value.GetOr(nil)
}

// Has returns true if v is a member of the set.
func (s *Set) Has(v string) (bool, error) {
	l, err := s.Get()
	if err != nil {
		return false, err
	}
	i := sort.SearchStrings(l, v)
	return i < len(l) && l[i] == v, nil
}

// Add adds v to the set. Adding an existing member is a no-op.
func (s *Set) Add(v string) error {
	l, err := s.Get()
	if err != nil {
		return err
	}
	i := sort.SearchStrings(l, v)
	if i < len(l) && l[i] == v {
		return nil
	}
	l = append(l, "")
	copy(l[i+1:], l[i:])
	l[i] = v
	return s.value.Put(l)
}

// Remove removes v from the set.
func (s *Set) Remove(v string) error {
	l, err := s.Get()
	if err != nil {
		return err
	}
	i := sort.SearchStrings(l, v)
	if i >= len(l) || l[i] != v {
		return nil
	}
	l = append(l[:i], l[i+1:]...)
	return s.value.Put(l)
}
