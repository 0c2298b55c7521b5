package idmap

import (
	"math"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Reverse maps global ids to positions.
//
// The zero Reverse is empty and ready for lookups; use [MakeReverse] before calling Set.
type Reverse struct {
	mp map[GID]int32
}

// MakeReverse makes a new Reverse with room for size entries.
func MakeReverse(size int) Reverse {
	return Reverse{mp: make(map[GID]int32, size)}
}

// Set stores pos as the position of gid.
// Positions must fit into an int32.
func (reverse Reverse) Set(gid GID, pos int) {
	if pos < 0 || pos > math.MaxInt32 {
		panic("Reverse.Set: position out of range")
	}
	reverse.mp[gid] = int32(pos)
}

// Get returns the position of gid, or [NotFound] if it is not contained.
func (reverse Reverse) Get(gid GID) int {
	pos, ok := reverse.mp[gid]
	if !ok {
		return NotFound
	}
	return int(pos)
}

// Lookup is like Get, but reports if gid was contained separately.
func (reverse Reverse) Lookup(gid GID) (int, bool) {
	pos, ok := reverse.mp[gid]
	return int(pos), ok
}

// Len returns the number of entries in this Reverse.
func (reverse Reverse) Len() int {
	return len(reverse.mp)
}

// Keys returns the global ids contained in this reverse, in ascending order.
func (reverse Reverse) Keys() []GID {
	keys := maps.Keys(reverse.mp)
	slices.Sort(keys)
	return keys
}

// Iterate calls f for every entry, in ascending order of global ids.
// When f returns a non-nil error, iteration stops and the error is returned.
func (reverse Reverse) Iterate(f func(gid GID, pos int) error) error {
	for _, gid := range reverse.Keys() {
		if err := f(gid, int(reverse.mp[gid])); err != nil {
			return err
		}
	}
	return nil
}
