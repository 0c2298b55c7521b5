// Package cache provides Slot, a single entry read-through cache with weak retention.
package cache

import (
	"sync"
	"sync/atomic"
	"weak"
)

// Key identifies the value held in a slot.
type Key struct {
	Index       int64
	NumInternal int
}

// Slot holds at most one value, referenced weakly.
// The garbage collector may reclaim the value as soon as no caller holds it.
//
// The zero Slot is empty and ready to use.
// A Slot may be used concurrently.
type Slot[V any] struct {
	m     sync.Mutex // protects key, ref, valid and gen
	key   Key
	ref   weak.Pointer[V]
	valid bool
	gen   uint64 // incremented by every invalidation

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats holds counters of a slot.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// Get returns the value cached for key.
//
// If the slot holds a different key, or the value has been reclaimed, Get calls build and installs the result.
// build is called without holding any lock, so concurrent misses may each call build.
// In that case the last one to finish is kept.
//
// The result of build is returned but not installed if the slot was invalidated while build ran,
// as it may have been built from data that has since been replaced.
//
// Errors returned by build are passed through and leave the slot untouched.
func (slot *Slot[V]) Get(key Key, build func() (*V, error)) (*V, error) {
	slot.m.Lock()
	value, gen := slot.lookup(key), slot.gen
	slot.m.Unlock()

	if value != nil {
		slot.hits.Add(1)
		return value, nil
	}
	slot.misses.Add(1)

	value, err := build()
	if err != nil {
		return nil, err
	}

	ref := weak.Make(value)

	slot.m.Lock()
	defer slot.m.Unlock()

	if slot.gen == gen {
		slot.key, slot.ref, slot.valid = key, ref, true
	}
	return value, nil
}

// Peek returns the value held for key, or nil if there is none.
// Peek does not update counters.
func (slot *Slot[V]) Peek(key Key) *V {
	slot.m.Lock()
	defer slot.m.Unlock()

	return slot.lookup(key)
}

// lookup implements Peek.
// slot.m must be held.
func (slot *Slot[V]) lookup(key Key) *V {
	if !slot.valid || slot.key != key {
		return nil
	}
	return slot.ref.Value()
}

// Put replaces the content of the slot with value, stored under key.
// A nil value empties the slot.
func (slot *Slot[V]) Put(key Key, value *V) {
	if value == nil {
		slot.Invalidate()
		return
	}

	ref := weak.Make(value)

	slot.m.Lock()
	defer slot.m.Unlock()

	slot.key, slot.ref, slot.valid = key, ref, true
}

// Invalidate empties the slot.
// Values being built by concurrent calls to Get are not installed.
func (slot *Slot[V]) Invalidate() {
	slot.m.Lock()
	defer slot.m.Unlock()

	slot.clear()
}

// InvalidateIndex empties the slot if it holds a value for the given index.
// Values being built by concurrent calls to Get are not installed, regardless of their index.
func (slot *Slot[V]) InvalidateIndex(index int64) {
	slot.m.Lock()
	defer slot.m.Unlock()

	if slot.valid && slot.key.Index == index {
		slot.clear()
		return
	}
	slot.gen++
}

// clear empties the slot.
// slot.m must be held.
func (slot *Slot[V]) clear() {
	slot.key, slot.ref, slot.valid = Key{}, weak.Pointer[V]{}, false
	slot.gen++
}

// Stats returns the number of hits and misses so far.
func (slot *Slot[V]) Stats() Stats {
	return Stats{
		Hits:   slot.hits.Load(),
		Misses: slot.misses.Load(),
	}
}
