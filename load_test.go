package callgraphdb_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FAU-CDI/callgraphdb"
	"github.com/google/go-cmp/cmp"
)

func TestReadSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    callgraphdb.Source
		wantErr bool
	}{
		{
			name:  "full",
			input: `{"nodes":[100,101,102,200],"numInternal":3,"edges":[[0,1],[1,2],[0,3]]}`,
			want: callgraphdb.Source{
				Nodes:       []callgraphdb.GID{100, 101, 102, 200},
				NumInternal: 3,
				Edges:       [][2]int{{0, 1}, {1, 2}, {0, 3}},
			},
		},
		{
			name:  "no edges",
			input: `{"nodes":[],"numInternal":0}`,
			want:  callgraphdb.Source{Nodes: []callgraphdb.GID{}},
		},
		{name: "missing nodes", input: `{"numInternal":0}`, wantErr: true},
		{name: "not json", input: `nodes`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := callgraphdb.ReadSource(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadSource() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ReadSource() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadSource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "graph.json")
	if err := os.WriteFile(path, []byte(`{"nodes":[1,2],"numInternal":1,"edges":[[0,1]]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	var progress bytes.Buffer
	source, err := callgraphdb.LoadSource(path, &progress)
	if err != nil {
		t.Fatalf("LoadSource() error = %v", err)
	}
	if !strings.Contains(progress.String(), "Read") {
		t.Errorf("LoadSource() did not report progress, got %q", progress.String())
	}

	db := newDB(t)
	if err := db.SaveSource(1, source); err != nil {
		t.Fatalf("SaveSource() error = %v", err)
	}
	data, err := db.Load(1, source.NumInternal)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([][2]callgraphdb.GID{{1, 2}}, gidArcs(t, data)); diff != "" {
		t.Errorf("Arcs() mismatch (-want +got):\n%s", diff)
	}
}
