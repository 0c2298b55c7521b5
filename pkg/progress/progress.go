// Package progress provides Reader and Counter
package progress

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Reader consistently writes the number of bytes read to a Rewritable.
type Reader struct {
	io.Reader       // Reader to read from
	Bytes     int64 // total number of bytes read (so far)
	Total     int64 // expected total number of bytes, if known

	Rewritable
}

func (cr *Reader) Read(bytes []byte) (int, error) {
	count, err := cr.Reader.Read(bytes)
	cr.Bytes += int64(count)
	cr.Rewritable.Write("Read " + sizeOf(cr.Bytes, cr.Total))
	return count, err
}

// sizeOf formats a number of bytes, along with a percentage of total when total is positive.
func sizeOf(bytes, total int64) string {
	if total <= 0 {
		return humanize.Bytes(uint64(bytes))
	}
	return fmt.Sprintf("%s of %s (%d%%)", humanize.Bytes(uint64(bytes)), humanize.Bytes(uint64(total)), 100*bytes/total)
}

// DefaultFlushInterval is a reasonable default flush interval
const DefaultFlushInterval = time.Second / 30

// Rewritable is a single line of terminal output that is repeatedly overwritten.
type Rewritable struct {
	Writer io.Writer

	FlushInterval  time.Duration // minimum time between flushes of the progress
	lastFlush      time.Time     // last time we flushed
	longestContent int           // longest content ever flushed
	content        string        // current content
}

func (rw *Rewritable) Write(value string) {
	rw.content = value
	rw.Flush(false)
}

func (rw *Rewritable) Flush(force bool) {
	if rw.Writer == nil {
		return
	}
	if !(force || time.Since(rw.lastFlush) > rw.FlushInterval) {
		return
	}

	if len(rw.content) >= rw.longestContent {
		rw.longestContent = len(rw.content)
	}

	// blank out anything left over from a longer line
	blank := strings.Repeat(" ", rw.longestContent-len(rw.content))
	fmt.Fprintf(rw.Writer, "\r%s%s", rw.content, blank)

	rw.lastFlush = time.Now()
}

func (rw *Rewritable) Close() {
	if rw.Writer == nil {
		return
	}
	rw.content = ""
	rw.Flush(true)
	_, _ = rw.Writer.Write([]byte("\r"))
}

// Counter reports the progress of processing a known number of items.
type Counter struct {
	Rewritable
}

// Set reports that count out of total items with the given prefix have been processed.
// Counts are padded to the width of total.
func (counter *Counter) Set(prefix string, count, total int) {
	totalS := strconv.Itoa(total)
	countS := strconv.Itoa(count)
	if len(countS) < len(totalS) {
		countS = strings.Repeat(" ", len(totalS)-len(countS)) + countS
	}

	if count < total {
		counter.Rewritable.Write(fmt.Sprintf("%s: %s/%s", prefix, countS, totalS))
	} else {
		counter.Rewritable.Write(fmt.Sprintf("%s: %s", prefix, countS))
	}
}
