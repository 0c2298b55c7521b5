// Package export writes call graphs into sql databases.
package export

//spellchecker:words sqlbuilder

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/FAU-CDI/callgraphdb"
	"github.com/FAU-CDI/callgraphdb/internal/status"
	"github.com/huandu/go-sqlbuilder"
)

// Tables and columns written by SQL.
const (
	NodesTable = "nodes"
	ArcsTable  = "arcs"

	graphColumn    = "graph"
	lidColumn      = "lid"
	gidColumn      = "gid"
	internalColumn = "internal"
	callerColumn   = "caller"
	calleeColumn   = "callee"
)

// Limits suitable for sqlite, see https://www.sqlite.org/limits.html.
const (
	SqliteMaxQueryVar = 32766
	SqliteBatchSize   = 1000
)

var errInsufficientQueryVars = errors.New("insufficient query variables")

// SQL exports call graphs into an sql database.
//
// Every graph is written into two tables shared by all graphs.
// The nodes table holds one row per node, the arcs table one row per arc identified by global ids.
// Both have a graph column holding the index of the graph.
type SQL struct {
	DB *sql.DB

	BatchSize   int // maximal number of rows per insert
	MaxQueryVar int // maximal number of query variables per insert (overrides BatchSize)

	Status *status.Status
}

// Export replaces the rows of the graph with the given index by the contents of data.
// The replacement happens inside a single transaction.
func (exporter *SQL) Export(index int64, data *callgraphdb.CallGraphData) (err error) {
	if err := exporter.createTables(); err != nil {
		return err
	}

	tx, err := exporter.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if e2 := tx.Rollback(); e2 != nil {
			err = errors.Join(err, fmt.Errorf("failed to rollback: %w", e2))
		}
	}()

	for _, table := range []string{NodesTable, ArcsTable} {
		del := sqlbuilder.DeleteFrom(table)
		del.Where(del.Equal(graphColumn, index))
		if err := exec(tx, del); err != nil {
			return fmt.Errorf("failed to delete old rows: %w", err)
		}
	}

	nodes := make([][]any, data.NumNodes())
	for lid := range nodes {
		nodes[lid] = []any{index, lid, data.GID(lid), data.Internal(lid)}
	}
	if err := exporter.insert(tx, NodesTable, []string{graphColumn, lidColumn, gidColumn, internalColumn}, nodes); err != nil {
		return fmt.Errorf("failed to insert nodes: %w", err)
	}

	arcs := make([][]any, 0, data.NumArcs())
	if err := data.Arcs(func(caller, callee callgraphdb.GID) error {
		arcs = append(arcs, []any{index, caller, callee})
		return nil
	}); err != nil {
		return err
	}
	if err := exporter.insert(tx, ArcsTable, []string{graphColumn, callerColumn, calleeColumn}, arcs); err != nil {
		return fmt.Errorf("failed to insert arcs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// createTables creates the nodes and arcs tables unless they exist.
func (exporter *SQL) createTables() error {
	nodes := sqlbuilder.CreateTable(NodesTable).IfNotExists()
	nodes.Define(graphColumn, "BIGINT", "NOT NULL")
	nodes.Define(lidColumn, "BIGINT", "NOT NULL")
	nodes.Define(gidColumn, "BIGINT", "NOT NULL")
	nodes.Define(internalColumn, "BOOLEAN", "NOT NULL")

	arcs := sqlbuilder.CreateTable(ArcsTable).IfNotExists()
	arcs.Define(graphColumn, "BIGINT", "NOT NULL")
	arcs.Define(callerColumn, "BIGINT", "NOT NULL")
	arcs.Define(calleeColumn, "BIGINT", "NOT NULL")

	for _, table := range []*sqlbuilder.CreateTableBuilder{nodes, arcs} {
		if err := exec(exporter.DB, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func exec(db execer, builder sqlbuilder.Builder) error {
	query, args := builder.Build()
	_, err := db.Exec(query, args...)
	return err
}

// insert inserts values into the given columns of table.
// When this would exceed the limits on query variables, multiple inserts are executed.
func (exporter *SQL) insert(db execer, table string, columns []string, values [][]any) error {
	if len(values) == 0 {
		return nil
	}

	chunkSize := exporter.MaxQueryVar / len(columns)
	if chunkSize == 0 {
		return errInsufficientQueryVars
	}
	if exporter.BatchSize > 0 && exporter.BatchSize < chunkSize {
		chunkSize = exporter.BatchSize
	}

	for start := 0; start < len(values); start += chunkSize {
		end := min(start+chunkSize, len(values))

		insert := sqlbuilder.InsertInto(table)
		insert.Cols(columns...)
		for _, row := range values[start:end] {
			insert.Values(row...)
		}
		if err := exec(db, insert); err != nil {
			return err
		}

		exporter.Status.SetCT(end, len(values))
	}
	return nil
}
