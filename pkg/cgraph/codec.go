package cgraph

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Codec turns graphs into compact bytes and back.
type Codec interface {
	// Store writes the compressed form of g to basename + [GraphExtension],
	// and its properties to basename + [PropertiesExtension].
	Store(g Graph, basename string) error

	// Decode decodes a graph from the contents of a file written by Store.
	Decode(data []byte) (Graph, error)
}

// Extensions of files written by [Codec.Store].
const (
	GraphExtension      = ".graph"
	PropertiesExtension = ".properties"
)

// ErrCorrupt indicates that a graph payload could not be decoded.
var ErrCorrupt = errors.New("corrupt graph payload")

// GapCodec stores successor lists as gaps between consecutive successors,
// encoded as variable length integers and then compressed as a whole.
//
// The zero GapCodec does not compress.
type GapCodec struct {
	Compression Compression
}

// gapCodecVersion is the version of the payload layout.
//
//	byte     version
//	byte     compression
//	uvarint  uncompressed size of body
//	...      (compressed) body
//
// body:
//
//	uvarint  number of nodes
//	uvarint  number of arcs
//	for each node:
//	  uvarint  outdegree
//	  varint   first successor - node (only if outdegree > 0)
//	  uvarint  successor - previous successor - 1 (for all remaining successors)
const gapCodecVersion = 1

var _ Codec = GapCodec{}

func (codec GapCodec) Store(g Graph, basename string) error {
	data, props, err := codec.Encode(g)
	if err != nil {
		return err
	}

	if err := os.WriteFile(basename+GraphExtension, data, 0o600); err != nil {
		return fmt.Errorf("failed to write graph: %w", err)
	}
	if err := storeProperties(basename+PropertiesExtension, props); err != nil {
		return fmt.Errorf("failed to write properties: %w", err)
	}
	return nil
}

// Encode encodes g into bytes, and returns them along with properties describing g.
func (codec GapCodec) Encode(g Graph) ([]byte, Properties, error) {
	n := g.NumNodes()

	body := make([]byte, 0, 2*binary.MaxVarintLen64+n+int(g.NumArcs()))
	body = binary.AppendUvarint(body, uint64(n))
	body = binary.AppendUvarint(body, uint64(g.NumArcs()))

	for node := 0; node < n; node++ {
		succ := g.Successors(node)
		body = binary.AppendUvarint(body, uint64(len(succ)))
		if len(succ) == 0 {
			continue
		}

		body = binary.AppendVarint(body, int64(succ[0])-int64(node))
		for i := 1; i < len(succ); i++ {
			if succ[i] <= succ[i-1] {
				return nil, nil, fmt.Errorf("Encode: successors of %d are not strictly increasing", node)
			}
			body = binary.AppendUvarint(body, uint64(succ[i]-succ[i-1]-1))
		}
	}

	used, compressed, err := compress(codec.Compression, body)
	if err != nil {
		return nil, nil, err
	}

	data := make([]byte, 0, 2+binary.MaxVarintLen64+len(compressed))
	data = append(data, gapCodecVersion, byte(used))
	data = binary.AppendUvarint(data, uint64(len(body)))
	data = append(data, compressed...)

	props := Properties{
		PropGraphClass:  "cgraph.GapCodec",
		PropVersion:     strconv.Itoa(gapCodecVersion),
		PropCompression: used.String(),
		PropNodes:       strconv.Itoa(n),
		PropArcs:        strconv.FormatInt(g.NumArcs(), 10),
		PropBytes:       strconv.Itoa(len(data)),
	}
	if arcs := g.NumArcs(); arcs > 0 {
		props[PropBitsPerLink] = strconv.FormatFloat(float64(8*len(data))/float64(arcs), 'f', 3, 64)
	}

	return data, props, nil
}

func (GapCodec) Decode(data []byte) (Graph, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: missing header", ErrCorrupt)
	}
	if data[0] != gapCodecVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, data[0])
	}
	compression := Compression(data[1])

	size, k := binary.Uvarint(data[2:])
	if k <= 0 || size > uint64(maxInt) {
		return nil, fmt.Errorf("%w: invalid body size", ErrCorrupt)
	}

	body, err := decompress(compression, data[2+k:], int(size))
	if err != nil {
		return nil, err
	}

	return decodeBody(body)
}

const maxInt = int(^uint(0) >> 1)

// reader reads variable length integers from a byte slice.
type reader struct {
	data []byte
	err  error
}

func (r *reader) uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	value, k := binary.Uvarint(r.data)
	if k <= 0 {
		r.err = fmt.Errorf("%w: truncated body", ErrCorrupt)
		return 0
	}
	r.data = r.data[k:]
	return value
}

func (r *reader) varint() int64 {
	if r.err != nil {
		return 0
	}
	value, k := binary.Varint(r.data)
	if k <= 0 {
		r.err = fmt.Errorf("%w: truncated body", ErrCorrupt)
		return 0
	}
	r.data = r.data[k:]
	return value
}

func decodeBody(body []byte) (*Immutable, error) {
	r := reader{data: body}

	n := r.uvarint()
	arcs := r.uvarint()
	if r.err != nil {
		return nil, r.err
	}

	// every node takes at least one byte, every arc at least one byte
	if n > uint64(len(r.data)) || arcs > uint64(len(r.data)) || n > 1<<32 {
		return nil, fmt.Errorf("%w: %d nodes and %d arcs do not fit into %d bytes", ErrCorrupt, n, arcs, len(r.data))
	}

	offsets := make([]int64, n+1)
	successors := make([]uint32, 0, arcs)

	for node := uint64(0); node < n; node++ {
		degree := r.uvarint()
		if r.err != nil {
			return nil, r.err
		}
		if degree > n || uint64(len(successors))+degree > arcs {
			return nil, fmt.Errorf("%w: node %d has invalid outdegree %d", ErrCorrupt, node, degree)
		}

		if degree > 0 {
			delta := r.varint()
			if delta < -int64(n) || delta >= int64(n) {
				return nil, fmt.Errorf("%w: successor of %d out of range", ErrCorrupt, node)
			}
			prev := int64(node) + delta
			if prev < 0 || uint64(prev) >= n {
				return nil, fmt.Errorf("%w: successor of %d out of range", ErrCorrupt, node)
			}
			successors = append(successors, uint32(prev))

			for i := uint64(1); i < degree; i++ {
				gap := r.uvarint()
				if gap >= n || uint64(prev)+gap+1 >= n {
					return nil, fmt.Errorf("%w: successor of %d out of range", ErrCorrupt, node)
				}
				prev += int64(gap) + 1
				successors = append(successors, uint32(prev))
			}
		}
		if r.err != nil {
			return nil, r.err
		}

		offsets[node+1] = int64(len(successors))
	}

	if uint64(len(successors)) != arcs {
		return nil, fmt.Errorf("%w: expected %d arcs, got %d", ErrCorrupt, arcs, len(successors))
	}
	if len(r.data) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(r.data))
	}

	return &Immutable{offsets: offsets, successors: successors}, nil
}
