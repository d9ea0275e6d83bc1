// Package lock provides an in-process mutual exclusion domain per key.
package lock

import (
	"context"
	"sync"
)

type entry struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex serializes holders of the same key; distinct keys never contend.
// Entries are dropped once no goroutine holds or waits on them.
type KeyedMutex[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

func NewKeyedMutex[K comparable]() *KeyedMutex[K] {
	return &KeyedMutex[K]{entries: make(map[K]*entry)}
}

// Lock blocks until key is acquired or ctx is done. The returned unlock is
// safe to call more than once.
func (m *KeyedMutex[K]) Lock(ctx context.Context, key K) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e := m.acquire(key)

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			m.release(key, e)
		})
	}, nil
}

// Len is the number of keys currently held or waited on.
func (m *KeyedMutex[K]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *KeyedMutex[K]) acquire(key K) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	return e
}

func (m *KeyedMutex[K]) release(key K, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}
