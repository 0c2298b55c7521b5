// Package record implements the binary layout of a persisted call graph.
//
// A record packs, in this order:
//
//  1. the compressed forward graph
//  2. the compressed transpose graph
//  3. the properties of the forward graph
//  4. the properties of the transpose graph
//  5. the LID to GID table
//  6. the GID to LID table
//
// The layout is
//
//	[4]byte   magic "CGR" followed by the layout version
//	section   x6, each an uvarint length followed by that many bytes
//	[8]byte   big endian xxhash64 of everything before
//
// Graph payloads and properties are copied verbatim and are not interpreted.
package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/FAU-CDI/callgraphdb/pkg/cgraph"
	"github.com/FAU-CDI/callgraphdb/pkg/idmap"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Version is the current version of the layout.
const Version = 1

var magic = [4]byte{'C', 'G', 'R', Version}

const (
	headerLen   = len(magic)
	checksumLen = 8
	gidLen      = 8 // length of an encoded GID
	lidLen      = 4 // length of an encoded LID
)

// ErrCorrupt is returned when a record cannot be decoded.
var ErrCorrupt = errors.New("corrupt record")

// Record holds the decoded contents of a persisted call graph.
type Record struct {
	Forward   []byte // compressed forward graph
	Transpose []byte // compressed transpose graph

	ForwardProperties   cgraph.Properties
	TransposeProperties cgraph.Properties

	LID2GID []idmap.GID   // dense, indexed by LID
	GID2LID idmap.Reverse // inverse of LID2GID
}

// Encode encodes record into a new byte slice.
func Encode(record Record) ([]byte, error) {
	if len(record.LID2GID) > math.MaxInt32 {
		return nil, fmt.Errorf("Encode: %d nodes do not fit into a record", len(record.LID2GID))
	}

	props := [2][]byte{
		encodeProperties(record.ForwardProperties),
		encodeProperties(record.TransposeProperties),
	}
	lid2gid := encodeLID2GID(record.LID2GID)
	gid2lid, err := encodeGID2LID(record.GID2LID)
	if err != nil {
		return nil, err
	}

	sections := [...][]byte{record.Forward, record.Transpose, props[0], props[1], lid2gid, gid2lid}

	size := headerLen + checksumLen
	for _, section := range sections {
		size += binary.MaxVarintLen64 + len(section)
	}

	blob := make([]byte, 0, size)
	blob = append(blob, magic[:]...)
	for _, section := range sections {
		blob = binary.AppendUvarint(blob, uint64(len(section)))
		blob = append(blob, section...)
	}
	blob = binary.BigEndian.AppendUint64(blob, xxhash.Sum64(blob))

	return blob, nil
}

// Decode decodes a record from blob.
// Any error wraps [ErrCorrupt].
//
// The returned record does not share memory with blob.
func Decode(blob []byte) (record Record, err error) {
	if len(blob) < headerLen+checksumLen {
		return record, fmt.Errorf("%w: %d bytes is too short", ErrCorrupt, len(blob))
	}
	if !bytes.Equal(blob[:headerLen-1], magic[:headerLen-1]) {
		return record, fmt.Errorf("%w: invalid magic", ErrCorrupt)
	}
	if blob[headerLen-1] != Version {
		return record, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, blob[headerLen-1])
	}

	body, trailer := blob[:len(blob)-checksumLen], blob[len(blob)-checksumLen:]
	if got, want := xxhash.Sum64(body), binary.BigEndian.Uint64(trailer); got != want {
		return record, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	var sections [6][]byte
	rest := body[headerLen:]
	for i := range sections {
		length, k := binary.Uvarint(rest)
		if k <= 0 || length > uint64(len(rest)-k) {
			return record, fmt.Errorf("%w: section %d is truncated", ErrCorrupt, i+1)
		}
		sections[i] = rest[k : k+int(length)]
		rest = rest[k+int(length):]
	}
	if len(rest) != 0 {
		return record, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(rest))
	}

	record.Forward = bytes.Clone(sections[0])
	record.Transpose = bytes.Clone(sections[1])

	if record.ForwardProperties, err = decodeProperties(sections[2]); err != nil {
		return Record{}, fmt.Errorf("forward properties: %w", err)
	}
	if record.TransposeProperties, err = decodeProperties(sections[3]); err != nil {
		return Record{}, fmt.Errorf("transpose properties: %w", err)
	}
	if record.LID2GID, err = decodeLID2GID(sections[4]); err != nil {
		return Record{}, err
	}
	if record.GID2LID, err = decodeGID2LID(sections[5], len(record.LID2GID)); err != nil {
		return Record{}, err
	}

	return record, nil
}

// encodeProperties encodes properties as a count, followed by length-prefixed keys and values in key order.
func encodeProperties(props cgraph.Properties) []byte {
	keys := maps.Keys(props)
	slices.Sort(keys)

	data := binary.AppendUvarint(nil, uint64(len(keys)))
	for _, key := range keys {
		data = appendString(data, key)
		data = appendString(data, props[key])
	}
	return data
}

func appendString(data []byte, value string) []byte {
	data = binary.AppendUvarint(data, uint64(len(value)))
	return append(data, value...)
}

func decodeProperties(data []byte) (cgraph.Properties, error) {
	count, k := binary.Uvarint(data)
	if k <= 0 || count > uint64(len(data)) {
		return nil, fmt.Errorf("%w: invalid property count", ErrCorrupt)
	}
	data = data[k:]

	props := make(cgraph.Properties, count)
	for i := uint64(0); i < count; i++ {
		var key, value string
		var ok bool

		if key, data, ok = readString(data); !ok {
			return nil, fmt.Errorf("%w: truncated property key", ErrCorrupt)
		}
		if value, data, ok = readString(data); !ok {
			return nil, fmt.Errorf("%w: truncated property value", ErrCorrupt)
		}
		props[key] = value
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%w: trailing bytes after properties", ErrCorrupt)
	}
	return props, nil
}

func readString(data []byte) (value string, rest []byte, ok bool) {
	length, k := binary.Uvarint(data)
	if k <= 0 || length > uint64(len(data)-k) {
		return "", data, false
	}
	return string(data[k : k+int(length)]), data[k+int(length):], true
}

// encodeLID2GID encodes the table as fixed width big endian integers, indexed by LID.
func encodeLID2GID(table []idmap.GID) []byte {
	data := make([]byte, len(table)*gidLen)
	for lid, gid := range table {
		binary.BigEndian.PutUint64(data[lid*gidLen:], uint64(gid))
	}
	return data
}

func decodeLID2GID(data []byte) ([]idmap.GID, error) {
	if len(data)%gidLen != 0 {
		return nil, fmt.Errorf("%w: LID2GID table has %d bytes", ErrCorrupt, len(data))
	}

	table := make([]idmap.GID, len(data)/gidLen)
	for lid := range table {
		table[lid] = idmap.GID(binary.BigEndian.Uint64(data[lid*gidLen:]))
	}
	return table, nil
}

// encodeGID2LID encodes the map as (gid, lid) pairs of fixed width big endian integers, in ascending gid order.
func encodeGID2LID(reverse idmap.Reverse) ([]byte, error) {
	data := make([]byte, 0, reverse.Len()*(gidLen+lidLen))
	err := reverse.Iterate(func(gid idmap.GID, lid int) error {
		data = binary.BigEndian.AppendUint64(data, uint64(gid))
		data = binary.BigEndian.AppendUint32(data, uint32(lid))
		return nil
	})
	return data, err
}

func decodeGID2LID(data []byte, nodes int) (idmap.Reverse, error) {
	const entryLen = gidLen + lidLen
	if len(data)%entryLen != 0 {
		return idmap.Reverse{}, fmt.Errorf("%w: GID2LID table has %d bytes", ErrCorrupt, len(data))
	}

	reverse := idmap.MakeReverse(len(data) / entryLen)
	for offset := 0; offset < len(data); offset += entryLen {
		gid := idmap.GID(binary.BigEndian.Uint64(data[offset:]))
		lid := binary.BigEndian.Uint32(data[offset+gidLen:])
		if uint64(lid) >= uint64(nodes) {
			return idmap.Reverse{}, fmt.Errorf("%w: gid %d maps to lid %d, but there are only %d nodes", ErrCorrupt, gid, lid, nodes)
		}
		reverse.Set(gid, int(lid))
	}
	return reverse, nil
}
