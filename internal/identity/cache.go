// Package identity provides a value-weak map used to hand out one canonical wrapper
// object per foreign handle.
package identity

import (
	"runtime"
	"sync"
	"weak"
)

// Cache maps keys to values without keeping the values alive. A value stays
// reachable from the cache only while something else references it; once it is
// collected its entry is pruned by a cleanup registered when the value was created.
//
// The zero value is not usable, create caches with New.
type Cache[K comparable, V any] struct {
	lock    sync.Mutex
	entries map[K]weak.Pointer[V]
}

type entry[K comparable, V any] struct {
	key     K
	pointer weak.Pointer[V]
}

// New returns an empty Cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]weak.Pointer[V])}
}

// Get returns the live value stored under key, or nil.
func (cache *Cache[K, V]) Get(key K) *V {
	cache.lock.Lock()
	defer cache.lock.Unlock()

	if pointer, ok := cache.entries[key]; ok {
		return pointer.Value()
	}
	return nil
}

// GetOrCreate returns the live value stored under key. If there is none, create is
// called, its result is stored under key and returned with created set. create runs
// with the cache locked and must not call back into the cache.
func (cache *Cache[K, V]) GetOrCreate(key K, create func() *V) (value *V, created bool) {
	cache.lock.Lock()
	defer cache.lock.Unlock()

	if pointer, ok := cache.entries[key]; ok {
		if value = pointer.Value(); value != nil {
			return value, false
		}
	}

	value = create()
	pointer := weak.Make(value)
	cache.entries[key] = pointer
	runtime.AddCleanup(value, cache.prune, entry[K, V]{key: key, pointer: pointer})

	return value, true
}

// prune removes a collected value's entry, unless the key has since been bound to a
// newer value.
func (cache *Cache[K, V]) prune(stale entry[K, V]) {
	cache.lock.Lock()
	defer cache.lock.Unlock()

	if current, ok := cache.entries[stale.key]; ok && current == stale.pointer {
		delete(cache.entries, stale.key)
	}
}

// Forget drops the entry for key, whatever its state. The value itself is unaffected.
func (cache *Cache[K, V]) Forget(key K) {
	cache.lock.Lock()
	defer cache.lock.Unlock()
	delete(cache.entries, key)
}

// Len returns the number of entries, including entries whose value has been
// collected but not yet pruned.
func (cache *Cache[K, V]) Len() int {
	cache.lock.Lock()
	defer cache.lock.Unlock()
	return len(cache.entries)
}
