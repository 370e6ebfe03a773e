package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the vault core.
// Use these keys consistently across all log statements so they stay
// queryable regardless of which package emitted them.
const (
	// ========================================================================
	// Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // caller-supplied correlation ID
	KeyVaultID = "vault_id" // opaque identifier for the unlocked vault instance

	// ========================================================================
	// Operation
	// ========================================================================
	KeyOperation = "operation" // CreateFile, ReadFile, Move, ...
	KeyDirID     = "dir_id"    // DirId an operation is scoped to

	// ========================================================================
	// Filesystem Entities
	// ========================================================================
	KeyPath       = "path"        // decrypted vault path
	KeyFilename   = "filename"    // file or directory name (basename)
	KeyParentPath = "parent_path" // parent directory path
	KeyOldPath    = "old_path"    // source path for rename/move operations
	KeyNewPath    = "new_path"    // destination path for rename/move operations
	KeyEncoded    = "encoded"     // encrypted storage basename
	KeySize       = "size"        // file size in bytes

	// ========================================================================
	// I/O
	// ========================================================================
	KeyOffset       = "offset"        // byte offset for read/write operations
	KeyLength       = "length"        // requested byte count
	KeyBytesRead    = "bytes_read"    // actual bytes read
	KeyBytesWritten = "bytes_written" // actual bytes written
	KeyChunkIndex   = "chunk_index"   // chunk number within a file body

	// ========================================================================
	// Handles & Locks
	// ========================================================================
	KeyHandleID = "handle_id" // allocated handle-table ID
	KeyLockKind = "lock_kind" // dir-read, dir-write, file-read, file-write

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message
	KeyErrorCode  = "error_code"  // vaulterr.Code numeric value

	// ========================================================================
	// Chunk Cache
	// ========================================================================
	KeyCacheHit      = "cache_hit"      // cache hit indicator
	KeyCacheSize     = "cache_size"     // current cache entry count
	KeyCacheCapacity = "cache_capacity" // maximum cache entry count
	KeyEvicted       = "evicted"        // number of entries evicted

	// ========================================================================
	// Directory Listing
	// ========================================================================
	KeyEntries = "entries" // number of directory entries returned
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }
func VaultID(id string) slog.Attr { return slog.String(KeyVaultID, id) }

func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }
func DirID(id string) slog.Attr     { return slog.String(KeyDirID, id) }

func Path(p string) slog.Attr       { return slog.String(KeyPath, p) }
func Filename(name string) slog.Attr { return slog.String(KeyFilename, name) }
func ParentPath(p string) slog.Attr { return slog.String(KeyParentPath, p) }
func OldPath(p string) slog.Attr    { return slog.String(KeyOldPath, p) }
func NewPath(p string) slog.Attr    { return slog.String(KeyNewPath, p) }
func Encoded(e string) slog.Attr    { return slog.String(KeyEncoded, e) }
func Size(s uint64) slog.Attr       { return slog.Uint64(KeySize, s) }

func Offset(off uint64) slog.Attr     { return slog.Uint64(KeyOffset, off) }
func Length(n uint64) slog.Attr       { return slog.Uint64(KeyLength, n) }
func BytesRead(n int) slog.Attr       { return slog.Int(KeyBytesRead, n) }
func BytesWritten(n int) slog.Attr    { return slog.Int(KeyBytesWritten, n) }
func ChunkIndex(idx uint32) slog.Attr { return slog.Any(KeyChunkIndex, idx) }

func HandleID(id uint64) slog.Attr { return slog.Uint64(KeyHandleID, id) }
func LockKind(kind string) slog.Attr { return slog.String(KeyLockKind, kind) }

func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

func ErrorCode(code int) slog.Attr { return slog.Int(KeyErrorCode, code) }

func CacheHit(hit bool) slog.Attr         { return slog.Bool(KeyCacheHit, hit) }
func CacheSize(n int) slog.Attr           { return slog.Int(KeyCacheSize, n) }
func CacheCapacity(n int) slog.Attr       { return slog.Int(KeyCacheCapacity, n) }
func Evicted(n int) slog.Attr             { return slog.Int(KeyEvicted, n) }

func Entries(n int) slog.Attr { return slog.Int(KeyEntries, n) }
