package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for a single vault
// operation (e.g. one call to ReadFile, one open reader/writer handle).
type LogContext struct {
	TraceID   string    // caller-supplied correlation ID, if any
	Operation string    // operation name (ReadFile, WriteFile, Lookup, ...)
	VaultID   string    // opaque identifier for the unlocked vault instance
	DirID     string    // DirId the operation is scoped to, if applicable
	StartTime time.Time // for duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a vault operation.
func NewLogContext(vaultID string) *LogContext {
	return &LogContext{
		VaultID:   vaultID,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:   lc.TraceID,
		Operation: lc.Operation,
		VaultID:   lc.VaultID,
		DirID:     lc.DirID,
		StartTime: lc.StartTime,
	}
}

// WithOperation returns a copy with the operation name set
func (lc *LogContext) WithOperation(operation string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Operation = operation
	}
	return clone
}

// WithDirID returns a copy with the DirId set
func (lc *LogContext) WithDirID(dirID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.DirID = dirID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
