// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package events

import (
	"log/slog"
	"runtime/debug"
	"sync"
)

// Bus delivers events to subscribers. Events are published by the node after
// the operation that produced them has been committed.
type Bus struct {
	mu          *sync.Mutex
	subscribers []func(Event)
	logger      *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	b := new(Bus)
	b.mu = new(sync.Mutex)
	b.logger = logger.With("module", "events")
	return b
}

func (b *Bus) subscribe(sub func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, sub)
}

func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	n := len(b.subscribers)
	subs := b.subscribers
	b.mu.Unlock()

	for _, sub := range subs[:n] {
		sub(event)
	}
}

// SubscribeSync calls sub on the publisher's goroutine for every event of
// type T.
func SubscribeSync[T Event](b *Bus, sub func(T)) {
	b.subscribe(func(e Event) {
		et, ok := e.(T)
		if !ok {
			return
		}

		defer b.recover()
		sub(et)
	})
}

// SubscribeAsync calls sub on a new goroutine for every event of type T.
func SubscribeAsync[T Event](b *Bus, sub func(T)) {
	b.subscribe(func(e Event) {
		et, ok := e.(T)
		if !ok {
			return
		}

		go func() {
			defer b.recover()
			sub(et)
		}()
	})
}

func (b *Bus) recover() {
	err := recover()
	if err == nil {
		return
	}

	b.logger.Error("Subscriber panicked", "error", err, "stack", string(debug.Stack()))
}
