// Package idmap translates between the identifier spaces of a call graph.
//
// A node is known under three identifiers:
//
//   - its global id (GID), assigned outside of this module and stable forever,
//   - its ingest position, the index of the node in the sequence it was handed to us in,
//   - its local id (LID), the index after renumbering nodes for compression.
//
// A [Table] holds a dense position to GID mapping along with its inverse.
// Both ingest positions and local ids are positions in this sense.
package idmap

// cspell:words idmap

import (
	"errors"
	"fmt"
)

// GID represents the globally stable identifier of a node.
type GID = int64

// NotFound is the position returned for global ids which are not contained in a table.
const NotFound = -1

// Table holds a dense mapping from positions to global ids, along with the reverse mapping.
//
// Nodes in [0, Internal) are internal nodes, all other nodes are external.
// A Table is never mutated after it has been created.
type Table struct {
	GIDs     []GID   // GIDs[pos] is the global id of the node at pos
	Reverse  Reverse // inverse of GIDs
	Internal int     // number of internal nodes
}

var (
	ErrBoundary    = errors.New("number of internal nodes out of range")
	ErrPermutation = errors.New("invalid permutation")
	ErrNotInverse  = errors.New("tables are not mutual inverses")
)

// Ingest creates a new table from the given sequence of nodes.
// The first numInternal nodes are considered internal, the remaining ones external.
//
// The returned table holds a copy of nodes.
// When a global id occurs more than once, the reverse mapping points to the last occurrence.
func Ingest(nodes []GID, numInternal int) (Table, error) {
	if numInternal < 0 || numInternal > len(nodes) {
		return Table{}, fmt.Errorf("%w: %d internal nodes for %d nodes", ErrBoundary, numInternal, len(nodes))
	}

	gids := make([]GID, len(nodes))
	copy(gids, nodes)

	return Table{
		GIDs:     gids,
		Reverse:  Invert(gids),
		Internal: numInternal,
	}, nil
}

// Len returns the number of nodes in this table.
func (table Table) Len() int {
	return len(table.GIDs)
}

// GID returns the global id of the node at the given position.
func (table Table) GID(pos int) GID {
	return table.GIDs[pos]
}

// Position returns the position of the given global id, or [NotFound].
func (table Table) Position(gid GID) int {
	return table.Reverse.Get(gid)
}

// IsInternal checks if the node at the given position is internal.
func (table Table) IsInternal(pos int) bool {
	return pos >= 0 && pos < table.Internal
}

// Permute renumbers the nodes in this table.
// The node at position x in this table is moved to position perm[x] in the returned table.
//
// perm must be a bijection on [0, table.Len()).
func (table Table) Permute(perm []int) (Table, error) {
	if err := ValidatePermutation(perm, len(table.GIDs)); err != nil {
		return Table{}, err
	}

	gids := make([]GID, len(table.GIDs))
	for x, gid := range table.GIDs {
		gids[perm[x]] = gid
	}

	return Table{
		GIDs:     gids,
		Reverse:  Invert(gids),
		Internal: table.Internal,
	}, nil
}

// Check checks that GIDs and Reverse are mutual inverses.
//
// When a global id occurs more than once, Reverse may point to any of its positions.
func (table Table) Check() error {
	if table.Reverse.Len() > len(table.GIDs) {
		return fmt.Errorf("%w: %d positions, but %d reverse entries", ErrNotInverse, len(table.GIDs), table.Reverse.Len())
	}
	for pos, gid := range table.GIDs {
		got := table.Reverse.Get(gid)
		if got == NotFound || got >= len(table.GIDs) || table.GIDs[got] != gid {
			return fmt.Errorf("%w: gid %d at %d maps to %d", ErrNotInverse, gid, pos, got)
		}
	}
	return table.Reverse.Iterate(func(gid GID, pos int) error {
		if pos < 0 || pos >= len(table.GIDs) || table.GIDs[pos] != gid {
			return fmt.Errorf("%w: gid %d maps to %d", ErrNotInverse, gid, pos)
		}
		return nil
	})
}

// Invert creates the reverse mapping of the given positions.
func Invert(gids []GID) Reverse {
	reverse := MakeReverse(len(gids))
	for pos, gid := range gids {
		reverse.Set(gid, pos)
	}
	return reverse
}

// ValidatePermutation checks that perm is a bijection on [0, n).
func ValidatePermutation(perm []int, n int) error {
	if len(perm) != n {
		return fmt.Errorf("%w: length %d, expected %d", ErrPermutation, len(perm), n)
	}

	seen := make([]bool, n)
	for x, target := range perm {
		if target < 0 || target >= n {
			return fmt.Errorf("%w: %d maps to %d, out of range", ErrPermutation, x, target)
		}
		if seen[target] {
			return fmt.Errorf("%w: %d is the image of more than one node", ErrPermutation, target)
		}
		seen[target] = true
	}
	return nil
}
