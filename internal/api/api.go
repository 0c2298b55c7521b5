// Package api implements a read-only json api for a call graph database.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/FAU-CDI/callgraphdb"
	"github.com/FAU-CDI/callgraphdb/internal/status"
	"github.com/FAU-CDI/callgraphdb/pkg/cgraph"
	"github.com/gorilla/mux"
)

// API implements an [http.Handler] that serves call graphs from a database.
type API struct {
	DB     *callgraphdb.DB
	Status *status.Status

	init sync.Once
	mux  mux.Router
}

func (api *API) Prepare() {
	api.init.Do(func() {
		api.mux.HandleFunc("/api/v1/graphs", api.jsonGraphs).Methods(http.MethodGet)
		api.mux.HandleFunc("/api/v1/graph/{index:-?[0-9]+}", api.jsonGraph).Methods(http.MethodGet)
		api.mux.HandleFunc("/api/v1/graph/{index:-?[0-9]+}/node/{gid:-?[0-9]+}", api.jsonNode).Methods(http.MethodGet)
		api.mux.HandleFunc("/api/v1/cache", api.jsonCache).Methods(http.MethodGet)
	})
}

func (api *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.Prepare()
	api.mux.ServeHTTP(w, r)
}

// Graph is the summary of a call graph returned by the api.
type Graph struct {
	Index       int64 `json:"index"`
	Nodes       int   `json:"nodes"`
	Arcs        int64 `json:"arcs"`
	NumInternal int   `json:"numInternal"`

	Forward   cgraph.Properties `json:"forward"`
	Transpose cgraph.Properties `json:"transpose"`
}

// Node describes a single node of a call graph.
type Node struct {
	GID      callgraphdb.GID `json:"gid"`
	LID      int             `json:"lid"`
	Internal bool            `json:"internal"`

	Callees []callgraphdb.GID `json:"callees"`
	Callers []callgraphdb.GID `json:"callers"`
}

func (api *API) jsonGraphs(w http.ResponseWriter, r *http.Request) {
	indexes, err := api.DB.Indexes()
	if err != nil {
		api.fail(w, r, err)
		return
	}
	if indexes == nil {
		indexes = []int64{}
	}
	writeJSON(w, indexes)
}

func (api *API) jsonGraph(w http.ResponseWriter, r *http.Request) {
	index, data, ok := api.load(w, r)
	if !ok {
		return
	}

	writeJSON(w, Graph{
		Index:       index,
		Nodes:       data.NumNodes(),
		Arcs:        data.NumArcs(),
		NumInternal: data.NumInternal,
		Forward:     data.ForwardProperties,
		Transpose:   data.TransposeProperties,
	})
}

func (api *API) jsonNode(w http.ResponseWriter, r *http.Request) {
	_, data, ok := api.load(w, r)
	if !ok {
		return
	}

	gid, err := strconv.ParseInt(mux.Vars(r)["gid"], 10, 64)
	if err != nil {
		http.Error(w, "invalid gid", http.StatusBadRequest)
		return
	}

	lid := data.LID(gid)
	if lid < 0 {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, Node{
		GID:      gid,
		LID:      lid,
		Internal: data.Internal(lid),
		Callees:  gids(data, data.Successors(lid)),
		Callers:  gids(data, data.Predecessors(lid)),
	})
}

func (api *API) jsonCache(w http.ResponseWriter, r *http.Request) {
	stats := api.DB.CacheStats()
	writeJSON(w, map[string]uint64{
		"hits":   stats.Hits,
		"misses": stats.Misses,
	})
}

// load loads the graph referred to by the request.
// If it cannot be loaded, an error is written to w and ok is false.
func (api *API) load(w http.ResponseWriter, r *http.Request) (index int64, data *callgraphdb.CallGraphData, ok bool) {
	index, err := strconv.ParseInt(mux.Vars(r)["index"], 10, 64)
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return 0, nil, false
	}

	var numInternal int
	if raw := r.URL.Query().Get("internal"); raw != "" {
		numInternal, err = strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid number of internal nodes", http.StatusBadRequest)
			return 0, nil, false
		}
	}

	data, err = api.DB.Load(index, numInternal)
	if err != nil {
		api.fail(w, r, err)
		return 0, nil, false
	}
	return index, data, true
}

// fail writes an error response for err.
func (api *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, callgraphdb.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, callgraphdb.ErrInvalidGraph):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		api.Status.LogError("serve request", err, "path", r.URL.Path)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func gids(data *callgraphdb.CallGraphData, lids []uint32) []callgraphdb.GID {
	result := make([]callgraphdb.GID, len(lids))
	for i, lid := range lids {
		result[i] = data.GID(int(lid))
	}
	return result
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(value)
}
