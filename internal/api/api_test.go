package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/FAU-CDI/callgraphdb"
	"github.com/FAU-CDI/callgraphdb/internal/api"
	"github.com/google/go-cmp/cmp"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	options := callgraphdb.DefaultOptions()
	options.ScratchDir = t.TempDir()

	db, err := callgraphdb.Open(filepath.Join(t.TempDir(), "db"), options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Save(42, []callgraphdb.GID{100, 101, 102, 200}, 3, [][2]int{{0, 1}, {1, 2}, {0, 3}}); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(&api.API{DB: db})
	t.Cleanup(server.Close)
	return server
}

func get(t *testing.T, server *httptest.Server, path string, dest any) int {
	t.Helper()

	res, err := server.Client().Get(server.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK && dest != nil {
		if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
			t.Fatalf("GET %s: invalid json: %v", path, err)
		}
	}
	return res.StatusCode
}

func TestAPI(t *testing.T) {
	t.Parallel()

	server := newServer(t)

	var indexes []int64
	if code := get(t, server, "/api/v1/graphs", &indexes); code != http.StatusOK {
		t.Fatalf("graphs: status %d", code)
	}
	if diff := cmp.Diff([]int64{42}, indexes); diff != "" {
		t.Errorf("graphs mismatch (-want +got):\n%s", diff)
	}

	var graph api.Graph
	if code := get(t, server, "/api/v1/graph/42?internal=3", &graph); code != http.StatusOK {
		t.Fatalf("graph: status %d", code)
	}
	if graph.Index != 42 || graph.Nodes != 4 || graph.Arcs != 3 || graph.NumInternal != 3 {
		t.Errorf("graph = %+v", graph)
	}

	var node api.Node
	if code := get(t, server, "/api/v1/graph/42/node/101?internal=3", &node); code != http.StatusOK {
		t.Fatalf("node: status %d", code)
	}
	want := api.Node{
		GID:      101,
		LID:      node.LID,
		Internal: true,
		Callees:  []callgraphdb.GID{102},
		Callers:  []callgraphdb.GID{100},
	}
	if diff := cmp.Diff(want, node); diff != "" {
		t.Errorf("node mismatch (-want +got):\n%s", diff)
	}

	var stats map[string]uint64
	if code := get(t, server, "/api/v1/cache", &stats); code != http.StatusOK {
		t.Fatalf("cache: status %d", code)
	}
	// the first graph may have been reclaimed in between
	if stats["hits"]+stats["misses"] != 2 || stats["misses"] < 1 {
		t.Errorf("cache = %v", stats)
	}
}

func TestAPI_Errors(t *testing.T) {
	t.Parallel()

	server := newServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/graph/43", http.StatusNotFound},
		{"/api/v1/graph/42/node/999", http.StatusNotFound},
		{"/api/v1/graph/42?internal=10", http.StatusBadRequest},
		{"/api/v1/graph/42?internal=abc", http.StatusBadRequest},
		{"/api/v1/graph/abc", http.StatusNotFound},
		{"/api/v1/graph/99999999999999999999", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if got := get(t, server, tt.path, nil); got != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, got, tt.want)
		}
	}
}
