// Package status provides Status
package status

// spellchecker:words rewritable

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/FAU-CDI/callgraphdb/pkg/progress"
	"github.com/tkw1536/pkglib/perf"
)

// Status holds statistical information about the current stage of a call graph operation.
// Updating the status writes out detailed information to an underlying io.Writer.
//
// Status is safe to access concurrently, however the caller is responsible for only logging to one stage at a time.
// Stages of concurrent operations end each other, so a Status used for stage timings must only be used by one operation at a time.
// Log, LogDebug and LogError may be used by any number of operations.
//
// A nil Status is valid, and discards any information written to it.
type Status struct {
	m sync.RWMutex // m protects changes to current and all

	logger  *slog.Logger
	counter *progress.Counter // counter reports the progress of the current stage

	current StageStats   // current holds information about the current stage
	all     []StageStats // all hold information about the old stages
}

// NewStatus creates a new status which writes output to the given io.Writer.
// If w is nil, returns a nil Status.
func NewStatus(w io.Writer) *Status {
	return NewStatusLevel(w, slog.LevelInfo)
}

// NewStatusLevel is like NewStatus, but only logs messages at or above the given level.
func NewStatusLevel(w io.Writer, level slog.Level) *Status {
	if w == nil {
		return nil
	}
	return &Status{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})),
		counter: &progress.Counter{
			Rewritable: progress.Rewritable{Writer: w, FlushInterval: progress.DefaultFlushInterval},
		},
	}
}

// Log logs an informational message with the provided key, value field pairs.
// When status or the associated logger are nil, no logging occurs.
func (status *Status) Log(message string, fields ...any) {
	if status == nil || status.logger == nil {
		return
	}
	status.logger.Info(message, fields...)
}

// LogDebug logs a debug message with the provided key, value field pairs.
// When status or the associated logger are nil, no logging occurs.
func (status *Status) LogDebug(message string, fields ...any) {
	if status == nil || status.logger == nil {
		return
	}
	status.logger.Debug(message, fields...)
}

// LogError logs an error message containing the provided error and the provided key, value field pairs.
func (status *Status) LogError(message string, err error, fields ...any) {
	if status == nil || status.logger == nil {
		return
	}

	status.logger.Error("FAILED "+message, append([]any{"err", err}, fields...)...)
}

// LogFatal is like LogError followed by os.Exit(1).
// When status or the associated logger are nil, os.Exit(1) is called immediately.
func (status *Status) LogFatal(message string, err error) {
	status.LogError(message, err)
	os.Exit(1)
}

// Diff returns a performance diff starting at the first, and ending at the last stage.
// If status is nil, a nil diff is returned.
func (status *Status) Diff() perf.Diff {
	if status == nil {
		var zero perf.Diff
		return zero
	}

	status.m.RLock()
	defer status.m.RUnlock()

	min := status.current.Start
	max := status.current.End

	for _, ss := range status.all {
		if min.Time.IsZero() || ss.Start.Time.Before(min.Time) {
			min = ss.Start
		}
		if max.Time.IsZero() || ss.End.Time.After(max.Time) {
			max = ss.End
		}
	}

	return max.Sub(min)
}

// Stages returns the stages that have been completed so far, in order.
// If status is nil, returns nil.
func (status *Status) Stages() []StageStats {
	if status == nil {
		return nil
	}

	status.m.RLock()
	defer status.m.RUnlock()

	return append([]StageStats(nil), status.all...)
}

// Start starts a new stage, updating the current property.
// Any changes are written to the underlying writer.
//
// If st is nil, this function has no effect.
func (st *Status) Start(stage Stage) {
	if st == nil {
		return
	}

	st.m.Lock()
	defer st.m.Unlock()

	// end the previous stage (if any)
	st.end()

	st.current.Stage = stage
	st.current.Start = perf.Now()

	if st.logger != nil {
		st.logger.Debug("start", "stage", stage)
	}
}

// End ends the current stage if any.
// Any changes are flushed to the underlying writer.
//
// If st is nil, this function has no effect.
func (st *Status) End() (prev StageStats) {
	if st == nil {
		return
	}

	st.m.Lock()
	defer st.m.Unlock()

	return st.end()
}

// end implements End.
// st.m must be held for writing.
func (st *Status) end() (prev StageStats) {
	if st.current.Stage != StageInitial {
		st.current.End = perf.Now()
		st.all = append(st.all, st.current)
		prev = st.current
	}

	st.current = *new(StageStats)

	if prev.Stage == StageInitial {
		return
	}

	// force a final rewrite, then reset it
	if st.counter != nil && prev.Total > 0 {
		st.counter.Flush(true)
		st.counter.Close()
	}

	if st.logger != nil {
		st.logger.Debug("end", "stage", prev.Stage, "took", prev.Diff())
	}
	return
}

// DoStage is a convenience wrapper to start a new stage, call f, and log the resulting error if any.
//
// If st is nil, immediately invokes f.
func (st *Status) DoStage(stage Stage, f func() error) error {
	if st == nil {
		return f()
	}

	st.Start(stage)

	err := f()

	st.m.Lock()
	defer st.m.Unlock()

	st.end()
	if err != nil {
		st.LogError("failed stage", err, "stage", stage)
	}
	return err
}

// StageStats holds the stats for a specific stage
type StageStats struct {
	Stage Stage

	Start perf.Snapshot // At the start of the stage
	End   perf.Snapshot // At the end of the stage

	Current int
	Total   int
}

// SetCT sets the current and total for the current stage.
func (status *Status) SetCT(current, total int) {
	if status == nil {
		return
	}

	status.m.Lock()
	defer status.m.Unlock()

	status.current.Current = current
	status.current.Total = total
	if status.counter != nil {
		status.counter.Set(string(status.current.Stage), current, total)
	}
}

// Diff returns a diff of the given stage
func (ss StageStats) Diff() perf.Diff {
	return ss.End.Sub(ss.Start)
}

// Stage represents a stage of saving, loading or exporting a call graph
type Stage string

const (
	StageInitial           Stage = ""
	StageAssemble          Stage = "assemble"
	StagePermute           Stage = "permute"
	StageCompressForward   Stage = "compress/forward"
	StageCompressTranspose Stage = "compress/transpose"
	StageRecordEncode      Stage = "record/encode"
	StageStorePut          Stage = "store/put"
	StageStoreGet          Stage = "store/get"
	StageRecordDecode      Stage = "record/decode"
	StageGraphDecode       Stage = "graph/decode"
	StageImport            Stage = "import"
	StageExportSQL         Stage = "export/sql"
)
