// Command callgraphdb stores and inspects call graphs
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/FAU-CDI/callgraphdb"
	"github.com/FAU-CDI/callgraphdb/internal/status"
	"github.com/FAU-CDI/callgraphdb/pkg/cgraph"
	"github.com/pkg/profile"
	"github.com/tkw1536/pkglib/perf"
)

// cspell:words callgraphdb

const usage = `Usage: callgraphdb [-help] [...flags] COMMAND [ARGS...]

Commands:
  import INDEX FILE.json       save the call graph in FILE.json under INDEX
  show INDEX NUMINTERNAL       print the call graph stored under INDEX
  list                         list all stored indexes
  delete INDEX                 delete the call graph stored under INDEX
  sql INDEX NUMINTERNAL        export the call graph into -sqlite or -mysql
  serve                        serve a json api at -addr
`

var (
	errUnknownCommand     = errors.New("unknown command")
	errArgCount           = errors.New("wrong number of arguments")
	errBothSqliteAndMysql = errors.New("both -sqlite and -mysql were given")
	errNoSQL              = errors.New("need one of -sqlite or -mysql")
)

type command struct {
	args int
	run  func(db *callgraphdb.DB, args []string) error
}

var commands = map[string]command{
	"import": {2, doImport},
	"show":   {2, doShow},
	"list":   {0, doList},
	"delete": {1, doDelete},
	"sql":    {2, doSQL},
	"serve":  {0, doServe},
}

func main() {
	if debugProfile != "" {
		defer profile.Start(profile.ProfilePath(debugProfile)).Stop()
	}

	if len(nArgs) == 0 {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
		os.Exit(1)
	}

	cmd, ok := commands[nArgs[0]]
	if !ok {
		st.Log(usage)
		st.LogFatal("parse arguments", fmt.Errorf("%w: %q", errUnknownCommand, nArgs[0]))
	}
	if len(nArgs)-1 != cmd.args {
		st.Log(usage)
		st.LogFatal("parse arguments", fmt.Errorf("%w: %s needs %d", errArgCount, nArgs[0], cmd.args))
	}

	if debugServer != "" {
		go listenDebug()
	}

	options, err := makeOptions(nArgs[0])
	if err != nil {
		st.LogFatal("parse arguments", err)
	}

	db, err := callgraphdb.Open(dbPath, options)
	if err != nil {
		st.LogFatal("open database", err)
	}

	err = cmd.run(db, nArgs[1:])
	if e2 := db.Close(); e2 != nil {
		st.LogError("close database", e2)
	}
	if err != nil {
		st.LogFatal(nArgs[0], err)
	}

	st.Log("finished", "took", st.Diff(), "now", perf.Now())
}

func makeOptions(command string) (options callgraphdb.Options, err error) {
	options = callgraphdb.DefaultOptions()
	options.Compression, err = cgraph.ParseCompression(compression)
	if err != nil {
		return options, err
	}
	options.Permuter, err = cgraph.ParsePermuter(permuter)
	if err != nil {
		return options, err
	}
	options.EngineCompression = !noSnappy
	options.BlockCacheCapacity = blockCache
	options.ScratchDir = scratchDir
	// requests are served concurrently, and would end each other's stages
	if command != "serve" {
		options.Status = st
	}
	return options, nil
}

// parseIndex parses an index argument
func parseIndex(arg string) (int64, error) {
	index, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: %w", arg, err)
	}
	return index, nil
}

// parseInternal parses a number of internal nodes argument
func parseInternal(arg string) (int, error) {
	numInternal, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid number of internal nodes %q: %w", arg, err)
	}
	return numInternal, nil
}

var st *status.Status

var nArgs []string

var dbPath = "callgraphs.leveldb"
var compression = cgraph.CompressionZstd.String()
var permuter = "bfs"
var noSnappy bool
var blockCache int
var scratchDir string
var verbose bool

var addr = ":3000"
var openBrowser bool

var sqlite string
var mysql string

var debugProfile string
var debugServer string

func init() {
	var legalFlag bool = false
	flag.BoolVar(&legalFlag, "legal", legalFlag, "Display legal notices and exit")
	defer func() {
		if legalFlag {
			fmt.Print(callgraphdb.LegalText())
			os.Exit(0)
		}
	}()

	flag.StringVar(&dbPath, "db", dbPath, "path to the database directory")
	flag.StringVar(&compression, "compression", compression, "compression of stored graphs, one of none, lz4, zstd")
	flag.StringVar(&permuter, "permuter", permuter, "renumbering of nodes before compression, one of bfs, identity")
	flag.BoolVar(&noSnappy, "no-snappy", noSnappy, "disable snappy block compression of the database")
	flag.IntVar(&blockCache, "block-cache", blockCache, "size of the database block cache in bytes")
	flag.StringVar(&scratchDir, "scratch", scratchDir, "directory for temporary files")
	flag.BoolVar(&verbose, "verbose", verbose, "log every stage")

	flag.StringVar(&addr, "addr", addr, "address to serve the json api at")
	flag.BoolVar(&openBrowser, "open", openBrowser, "open the api in a browser once serving")

	flag.StringVar(&sqlite, "sqlite", sqlite, "Export an sqlite database to the given path")
	flag.StringVar(&mysql, "mysql", mysql, "Export a mysql database. Use a connection string of the form `username:password@host/database`")

	flag.StringVar(&debugProfile, "debug-profile", debugProfile, "write out a debugging profile to the given path")
	flag.StringVar(&debugServer, "debug-listen", debugServer, "start a profiling server on the given address")

	flag.Parse()
	nArgs = flag.Args()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	st = status.NewStatusLevel(os.Stderr, level)
}
