package main

import (
	"bufio"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/FAU-CDI/callgraphdb"
	"github.com/FAU-CDI/callgraphdb/internal/api"
	"github.com/FAU-CDI/callgraphdb/internal/export"
	"github.com/FAU-CDI/callgraphdb/internal/status"
	"github.com/FAU-CDI/callgraphdb/pkg/cgraph"
	"github.com/pkg/browser"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	_ "github.com/glebarez/go-sqlite"
	_ "github.com/go-sql-driver/mysql"
)

func doImport(db *callgraphdb.DB, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}

	var source callgraphdb.Source
	if err := st.DoStage(status.StageImport, func() (err error) {
		source, err = callgraphdb.LoadSource(args[1], os.Stderr)
		return err
	}); err != nil {
		return err
	}

	st.Log("read call graph", "nodes", len(source.Nodes), "internal", source.NumInternal, "edges", len(source.Edges))
	return db.SaveSource(index, source)
}

func doShow(db *callgraphdb.DB, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	numInternal, err := parseInternal(args[1])
	if err != nil {
		return err
	}

	data, err := db.Load(index, numInternal)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	fmt.Fprintf(out, "index:    %d\n", index)
	fmt.Fprintf(out, "nodes:    %d (%d internal)\n", data.NumNodes(), data.NumInternal)
	fmt.Fprintf(out, "arcs:     %d\n", data.NumArcs())
	writeProperties(out, "forward", data.ForwardProperties)
	writeProperties(out, "transpose", data.TransposeProperties)

	return data.Arcs(func(source, target callgraphdb.GID) error {
		_, err := fmt.Fprintf(out, "%d -> %d\n", source, target)
		return err
	})
}

func writeProperties(out *bufio.Writer, name string, props cgraph.Properties) {
	keys := maps.Keys(props)
	slices.Sort(keys)
	for _, key := range keys {
		fmt.Fprintf(out, "%s.%s = %s\n", name, key, props[key])
	}
}

func doList(db *callgraphdb.DB, args []string) error {
	indexes, err := db.Indexes()
	if err != nil {
		return err
	}
	for _, index := range indexes {
		fmt.Println(index)
	}
	return nil
}

func doDelete(db *callgraphdb.DB, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	if err := db.Delete(index); err != nil {
		return err
	}
	return db.Compact()
}

func doSQL(db *callgraphdb.DB, args []string) error {
	var proto, dsn string
	switch {
	case sqlite != "" && mysql != "":
		return errBothSqliteAndMysql
	case sqlite != "":
		proto, dsn = "sqlite", sqlite
	case mysql != "":
		proto, dsn = "mysql", mysql
	default:
		return errNoSQL
	}

	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	numInternal, err := parseInternal(args[1])
	if err != nil {
		return err
	}

	data, err := db.Load(index, numInternal)
	if err != nil {
		return err
	}

	sqlDB, err := sql.Open(proto, dsn)
	if err != nil {
		return fmt.Errorf("failed to open sql: %w", err)
	}
	defer sqlDB.Close()

	return st.DoStage(status.StageExportSQL, func() error {
		exporter := &export.SQL{
			DB:          sqlDB,
			BatchSize:   export.SqliteBatchSize,
			MaxQueryVar: export.SqliteMaxQueryVar,
			Status:      st,
		}
		return exporter.Export(index, data)
	})
}

func doServe(db *callgraphdb.DB, args []string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	st.Log("listen", "addr", listener.Addr().String())

	if openBrowser {
		url := "http://" + listener.Addr().String() + "/api/v1/graphs"
		if err := browser.OpenURL(url); err != nil {
			st.LogError("open browser", err, "url", url)
		}
	}

	server := http.Server{
		Handler:           &api.API{DB: db, Status: st},
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.Serve(listener)
}
