package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for a single engine operation.
type LogContext struct {
	TraceID   string    // Upstream trace ID, if the caller propagated one
	Project   string    // Project ID the operation is scoped to
	Vault     string    // Vault ID the operation is scoped to
	Operation string    // Backend method name (AssignBlock, FinalizeFile, …)
	Backend   string    // Backend driver ("sqlite", "badger", "memory")
	StartTime time.Time // For duration calculation
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

// NewLogContext creates a new LogContext for an operation against (project, vault).
func NewLogContext(project, vault string) *LogContext {
	return &LogContext{
		Project:   project,
		Vault:     vault,
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
		Project:   lc.Project,
		Vault:     lc.Vault,
		Operation: lc.Operation,
		Backend:   lc.Backend,
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

// WithBackend returns a copy with the backend driver name set
func (lc *LogContext) WithBackend(backend string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Backend = backend
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
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
