// Package shard provides a map split into independently locked shards so that
// operations on one key never wait on operations on keys of other shards.
package shard

import (
	"sync"

	"github.com/NeuralTrust/TrustRelay/pkg/domain/relay"
)

const DefaultShards = 32

type bucket[V any] struct {
	mu   sync.Mutex
	data map[relay.SenderKey]V
}

// Map is safe for concurrent use. The zero value is not usable, use New.
type Map[V any] struct {
	buckets []*bucket[V]
}

func New[V any](shards int) *Map[V] {
	if shards <= 0 {
		shards = DefaultShards
	}
	m := &Map[V]{buckets: make([]*bucket[V], shards)}
	for i := range m.buckets {
		m.buckets[i] = &bucket[V]{data: make(map[relay.SenderKey]V)}
	}
	return m
}

func (m *Map[V]) bucketFor(key relay.SenderKey) *bucket[V] {
	// fibonacci hashing spreads sequential chat ids across shards
	h := uint64(key) * 11400714819323198485
	return m.buckets[h%uint64(len(m.buckets))]
}

// Update runs fn under the key's shard lock. fn receives the current value and
// whether it exists, and returns the value to store and whether to keep it.
// Returning keep=false deletes the key.
func (m *Map[V]) Update(key relay.SenderKey, fn func(value V, ok bool) (V, bool)) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.data[key]
	next, keep := fn(current, ok)
	if keep {
		b.data[key] = next
		return
	}
	delete(b.data, key)
}

// Delete removes the key and returns the removed value.
func (m *Map[V]) Delete(key relay.SenderKey) (V, bool) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	if ok {
		delete(b.data, key)
	}
	return v, ok
}

// Sweep visits every entry shard by shard and deletes those for which fn
// returns false. It returns the number of deleted entries.
func (m *Map[V]) Sweep(fn func(key relay.SenderKey, value V) bool) int {
	removed := 0
	for _, b := range m.buckets {
		b.mu.Lock()
		for k, v := range b.data {
			if !fn(k, v) {
				delete(b.data, k)
				removed++
			}
		}
		b.mu.Unlock()
	}
	return removed
}

// Range calls fn for every entry while holding the entry's shard lock.
func (m *Map[V]) Range(fn func(key relay.SenderKey, value V)) {
	for _, b := range m.buckets {
		b.mu.Lock()
		for k, v := range b.data {
			fn(k, v)
		}
		b.mu.Unlock()
	}
}

// Keys returns a snapshot of all keys.
func (m *Map[V]) Keys() []relay.SenderKey {
	var keys []relay.SenderKey
	for _, b := range m.buckets {
		b.mu.Lock()
		for k := range b.data {
			keys = append(keys, k)
		}
		b.mu.Unlock()
	}
	return keys
}

func (m *Map[V]) Len() int {
	n := 0
	for _, b := range m.buckets {
		b.mu.Lock()
		n += len(b.data)
		b.mu.Unlock()
	}
	return n
}
