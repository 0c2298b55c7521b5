package callgraphdb

import (
	"errors"
	"fmt"

	"github.com/FAU-CDI/callgraphdb/internal/assemble"
	"github.com/FAU-CDI/callgraphdb/internal/store"
)

var (
	// ErrNotFound indicates that no call graph has been saved under an index.
	ErrNotFound = errors.New("call graph not found")

	// ErrDecode indicates that a stored call graph exists, but could not be decoded.
	ErrDecode = errors.New("failed to decode call graph")

	// ErrEncode indicates that a call graph could not be encoded.
	ErrEncode = errors.New("failed to encode call graph")

	// ErrStore indicates that the underlying store failed.
	ErrStore = errors.New("store failed")

	// ErrClosed indicates that the database has already been closed.
	ErrClosed = errors.New("database is closed")

	// ErrInvalidGraph indicates that the caller passed a malformed call graph.
	ErrInvalidGraph = assemble.ErrInvalidGraph
)

// storeError turns an error returned from the store into an error of this package.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrClosed) {
		return ErrClosed
	}
	return fmt.Errorf("%w: %w", ErrStore, err)
}
