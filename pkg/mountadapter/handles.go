package mountadapter

import (
	"github.com/vaultfs/vault8/pkg/streaming"
	"github.com/vaultfs/vault8/pkg/vaultlock"
)

// WriteBuffer is the read-modify-write-over-AEAD-chunks abstraction
// every backend shares (§4.10): pkg/streaming.Writer. Re-exported under
// this name so a backend can depend on pkg/mountadapter alone for its
// data-plane types instead of reaching into pkg/streaming directly.
type WriteBuffer = streaming.Writer

// Reader is the random-access, chunk-cached read view every backend
// shares.
type Reader = streaming.Reader

// HandleTable is the monotonic-id handle table every backend allocates
// its open file/directory state through (§4.8).
type HandleTable[T any] = vaultlock.HandleTable[T]

// NewHandleTable constructs an empty HandleTable for backend state type T.
func NewHandleTable[T any]() *HandleTable[T] {
	return vaultlock.NewHandleTable[T]()
}
