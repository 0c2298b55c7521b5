package callgraphdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/FAU-CDI/callgraphdb/pkg/progress"
)

// Source is a raw call graph, as produced by an analysis.
type Source struct {
	Nodes       []GID    `json:"nodes"`
	NumInternal int      `json:"numInternal"`
	Edges       [][2]int `json:"edges"`
}

var errNoNodes = errors.New("source does not contain a \"nodes\" field")

// ReadSource reads a json-encoded Source from r.
func ReadSource(r io.Reader) (source Source, err error) {
	var raw struct {
		Source
		Nodes *[]GID `json:"nodes"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return source, fmt.Errorf("failed to decode source: %w", err)
	}
	if raw.Nodes == nil {
		return source, errNoNodes
	}

	source = raw.Source
	source.Nodes = *raw.Nodes
	return source, nil
}

// LoadSource reads a json-encoded Source from the file at path.
// If progressWriter is not nil, the number of bytes read is reported to it.
func LoadSource(path string, progressWriter io.Writer) (source Source, err error) {
	file, err := os.Open(path)
	if err != nil {
		return source, fmt.Errorf("failed to open source: %w", err)
	}
	defer func() {
		if e2 := file.Close(); e2 != nil && err == nil {
			err = fmt.Errorf("failed to close source: %w", e2)
		}
	}()

	var reader io.Reader = file
	if progressWriter != nil {
		var total int64
		if info, err := file.Stat(); err == nil {
			total = info.Size()
		}

		pr := &progress.Reader{
			Reader: file,
			Total:  total,
			Rewritable: progress.Rewritable{
				Writer:        progressWriter,
				FlushInterval: progress.DefaultFlushInterval,
			},
		}
		defer pr.Rewritable.Close()
		reader = pr
	}

	return ReadSource(reader)
}

// SaveSource saves source under the given index.
func (db *DB) SaveSource(index int64, source Source) error {
	return db.Save(index, source.Nodes, source.NumInternal, source.Edges)
}
