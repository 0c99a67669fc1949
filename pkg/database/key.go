// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package database

import (
	"fmt"
	"strings"
)

// Key is a hierarchical record key, such as Vault.DAI-CAKE.Depositor.alice.
type Key struct {
	parts []string
}

// NewKey returns a new key with the given parts.
func NewKey(parts ...any) *Key {
	return (*Key)(nil).Append(parts...)
}

// Append returns a new key with the given parts appended. Append does not
// modify the receiver.
func (k *Key) Append(parts ...any) *Key {
	l := &Key{}
	if k != nil {
		l.parts = make([]string, len(k.parts), len(k.parts)+len(parts))
		copy(l.parts, k.parts)
	}
	for _, p := range parts {
		l.parts = append(l.parts, fmt.Sprint(p))
	}
	return l
}

// Len returns the number of parts in the key.
func (k *Key) Len() int {
	if k == nil {
		return 0
	}
	return len(k.parts)
}

// String joins the parts of the key with dots.
func (k *Key) String() string {
	if k == nil {
		return ""
	}
	return strings.Join(k.parts, ".")
}

// Bytes returns the key as a byte slice, suitable for a key-value store.
func (k *Key) Bytes() []byte {
	return []byte(k.String())
}
