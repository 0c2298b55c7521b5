package record_test

import (
	"errors"
	"testing"

	"github.com/FAU-CDI/callgraphdb/internal/record"
	"github.com/FAU-CDI/callgraphdb/pkg/cgraph"
	"github.com/FAU-CDI/callgraphdb/pkg/idmap"
	"github.com/google/go-cmp/cmp"
)

func makeRecord() record.Record {
	lid2gid := []idmap.GID{102, 100, 101, 200, -7}
	return record.Record{
		Forward:             []byte("forward graph bytes"),
		Transpose:           []byte{0, 1, 2, 3, 255},
		ForwardProperties:   cgraph.Properties{"nodes": "5", "arcs": "3"},
		TransposeProperties: cgraph.Properties{"nodes": "5", "arcs": "3", "compression": "zstd"},
		LID2GID:             lid2gid,
		GID2LID:             idmap.Invert(lid2gid),
	}
}

// reverseEntries turns a reverse map into a comparable map
func reverseEntries(reverse idmap.Reverse) map[idmap.GID]int {
	entries := make(map[idmap.GID]int, reverse.Len())
	_ = reverse.Iterate(func(gid idmap.GID, pos int) error {
		entries[gid] = pos
		return nil
	})
	return entries
}

func assertEqualRecords(t *testing.T, want, got record.Record) {
	t.Helper()

	if diff := cmp.Diff(want.Forward, got.Forward); diff != "" {
		t.Errorf("Forward mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Transpose, got.Transpose); diff != "" {
		t.Errorf("Transpose mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.ForwardProperties, got.ForwardProperties); diff != "" {
		t.Errorf("ForwardProperties mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.TransposeProperties, got.TransposeProperties); diff != "" {
		t.Errorf("TransposeProperties mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.LID2GID, got.LID2GID); diff != "" {
		t.Errorf("LID2GID mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(reverseEntries(want.GID2LID), reverseEntries(got.GID2LID)); diff != "" {
		t.Errorf("GID2LID mismatch (-want +got):\n%s", diff)
	}
}

func TestRecord_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		record record.Record
	}{
		{"full", makeRecord()},
		{"empty graph", record.Record{
			Forward:             []byte{},
			Transpose:           []byte{},
			ForwardProperties:   cgraph.Properties{},
			TransposeProperties: cgraph.Properties{},
			LID2GID:             []idmap.GID{},
			GID2LID:             idmap.MakeReverse(0),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			blob, err := record.Encode(tt.record)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			got, err := record.Decode(blob)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			assertEqualRecords(t, tt.record, got)
		})
	}
}

func TestRecord_Deterministic(t *testing.T) {
	t.Parallel()

	first, err := record.Encode(makeRecord())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := record.Encode(makeRecord())
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("Encode() is not deterministic (-first +again):\n%s", diff)
		}
	}
}

func TestDecode_Truncated(t *testing.T) {
	t.Parallel()

	blob, err := record.Encode(makeRecord())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < len(blob); i++ {
		if _, err := record.Decode(blob[:i]); !errors.Is(err, record.ErrCorrupt) {
			t.Fatalf("Decode(blob[:%d]) error = %v, want ErrCorrupt", i, err)
		}
	}
}

func TestDecode_Corrupt(t *testing.T) {
	t.Parallel()

	blob, err := record.Encode(makeRecord())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"magic", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"version", func(b []byte) []byte { b[3] = record.Version + 1; return b }},
		{"payload bit flip", func(b []byte) []byte { b[10] ^= 0x01; return b }},
		{"checksum", func(b []byte) []byte { b[len(b)-1] ^= 0xFF; return b }},
		{"trailing byte", func(b []byte) []byte { return append(b, 0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mutated := tt.mutate(append([]byte(nil), blob...))
			if _, err := record.Decode(mutated); !errors.Is(err, record.ErrCorrupt) {
				t.Errorf("Decode() error = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestDecode_NoAliasing(t *testing.T) {
	t.Parallel()

	blob, err := record.Encode(makeRecord())
	if err != nil {
		t.Fatal(err)
	}

	got, err := record.Decode(blob)
	if err != nil {
		t.Fatal(err)
	}

	for i := range blob {
		blob[i] = 0
	}
	if string(got.Forward) != "forward graph bytes" {
		t.Errorf("Decode() result shares memory with blob: %q", got.Forward)
	}
}
