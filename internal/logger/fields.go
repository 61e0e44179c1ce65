package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // Upstream trace ID for request correlation

	// ========================================================================
	// Tenancy & Operation
	// ========================================================================
	KeyProject   = "project"   // Project ID the operation is scoped to
	KeyVault     = "vault"     // Vault ID the operation is scoped to
	KeyOperation = "operation" // Backend method name: AssignBlock, FinalizeFile, …
	KeyBackend   = "backend"   // Backend driver: sqlite, badger, memory

	// ========================================================================
	// Entities
	// ========================================================================
	KeyFileID    = "file_id"    // File ID (UUID)
	KeyBlockID   = "block_id"   // Block ID (client-supplied content hash)
	KeyStorageID = "storage_id" // Opaque object-store key
	KeyOffset    = "offset"     // Byte offset within a file
	KeySize      = "size"       // Size in bytes
	KeyRefCount  = "refcount"   // Block reference count
	KeyMarker    = "marker"     // Pagination marker
	KeyLimit     = "limit"      // Pagination limit

	// ========================================================================
	// Outcome
	// ========================================================================
	KeyDurationMs  = "duration_ms"
	KeyError       = "error"
	KeyErrorCode   = "error_code"
	KeyDiagnostics = "diagnostics" // Count of finalize diagnostics returned
	KeyAttempt     = "attempt"
	KeyMaxRetries  = "max_retries"
	KeySource      = "source" // subsystem emitting the log line
)

// TraceID returns a slog.Attr for distributed trace correlation
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// Project returns a slog.Attr for the project ID
func Project(id string) slog.Attr {
	return slog.String(KeyProject, id)
}

// Vault returns a slog.Attr for the vault ID
func Vault(id string) slog.Attr {
	return slog.String(KeyVault, id)
}

// Operation returns a slog.Attr for the backend method name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Backend returns a slog.Attr for the backend driver name
func Backend(name string) slog.Attr {
	return slog.String(KeyBackend, name)
}

// FileID returns a slog.Attr for a file ID
func FileID(id string) slog.Attr {
	return slog.String(KeyFileID, id)
}

// BlockID returns a slog.Attr for a block ID
func BlockID(id string) slog.Attr {
	return slog.String(KeyBlockID, id)
}

// StorageID returns a slog.Attr for an object-store key
func StorageID(id string) slog.Attr {
	return slog.String(KeyStorageID, id)
}

// Offset returns a slog.Attr for a byte offset
func Offset(off int64) slog.Attr {
	return slog.Int64(KeyOffset, off)
}

// Size returns a slog.Attr for a size in bytes
func Size(s int64) slog.Attr {
	return slog.Int64(KeySize, s)
}

// RefCount returns a slog.Attr for a block reference count
func RefCount(n int64) slog.Attr {
	return slog.Int64(KeyRefCount, n)
}

// Marker returns a slog.Attr for a pagination marker
func Marker(m string) slog.Attr {
	return slog.String(KeyMarker, m)
}

// Limit returns a slog.Attr for a pagination limit
func Limit(n int) slog.Attr {
	return slog.Int(KeyLimit, n)
}

// DurationMs returns a slog.Attr for an operation's duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error value. Returns an empty Attr if err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a domain error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Diagnostics returns a slog.Attr for the number of finalize diagnostics returned
func Diagnostics(n int) slog.Attr {
	return slog.Int(KeyDiagnostics, n)
}

// Attempt returns a slog.Attr for a retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for the configured maximum retry count
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// Source returns a slog.Attr identifying the subsystem emitting the log line
func Source(src string) slog.Attr {
	return slog.String(KeySource, src)
}
