package callgraphdb

import (
	"github.com/FAU-CDI/callgraphdb/pkg/cgraph"
	"github.com/FAU-CDI/callgraphdb/pkg/idmap"
)

// GID is the globally stable identifier of a node.
type GID = idmap.GID

// CallGraphData is a reconstructed call graph.
//
// Nodes are addressed by their local id (LID), a position in [0, NumNodes()).
// Internal nodes have LIDs below NumInternal.
//
// CallGraphData is never modified after it has been loaded and may be shared between goroutines.
type CallGraphData struct {
	Forward   cgraph.Graph // arcs from caller to callee
	Transpose cgraph.Graph // arcs from callee to caller

	ForwardProperties   cgraph.Properties
	TransposeProperties cgraph.Properties

	LID2GID []GID
	GID2LID idmap.Reverse

	NumInternal int
}

// NumNodes returns the number of nodes.
func (data *CallGraphData) NumNodes() int {
	return len(data.LID2GID)
}

// NumArcs returns the number of arcs.
func (data *CallGraphData) NumArcs() int64 {
	return data.Forward.NumArcs()
}

// Successors returns the sorted LIDs called by lid.
// The returned slice must not be modified.
func (data *CallGraphData) Successors(lid int) []uint32 {
	return data.Forward.Successors(lid)
}

// Predecessors returns the sorted LIDs calling lid.
// The returned slice must not be modified.
func (data *CallGraphData) Predecessors(lid int) []uint32 {
	return data.Transpose.Successors(lid)
}

// GID returns the global id of lid.
func (data *CallGraphData) GID(lid int) GID {
	return data.LID2GID[lid]
}

// LID returns the local id of gid, or -1 when gid is not a node.
func (data *CallGraphData) LID(gid GID) int {
	return data.GID2LID.Get(gid)
}

// Internal reports if lid is an internal node.
func (data *CallGraphData) Internal(lid int) bool {
	return lid >= 0 && lid < data.NumInternal
}

// Arcs calls f for every arc, identified by global ids, in ascending order of the source LID.
// When f returns a non-nil error, iteration stops and the error is returned.
func (data *CallGraphData) Arcs(f func(source, target GID) error) error {
	return cgraph.Arcs(data.Forward, func(source, target int) error {
		return f(data.LID2GID[source], data.LID2GID[target])
	})
}
