package engine

import (
	"context"

	"github.com/marmos91/deuce/internal/ids"
)

// Backend is the pluggable storage contract implemented by every metadata
// driver (in-memory, embedded SQLite, embedded wide-column KV, …). Every
// operation is scoped to a (project, vault) pair unless noted, and every
// operation returns a typed *EngineError rather than an opaque failure.
//
// Implementations are selected by configuration (see pkg/engine/config);
// no dynamic loading is required.
type Backend interface {
	// ========================================================================
	// Vault operations
	// ========================================================================

	// ListVaults returns up to limit vault ids in lexicographic order,
	// starting strictly after marker. A non-nil next marker is returned
	// when more vaults remain.
	ListVaults(ctx context.Context, project ids.ProjectID, marker *ids.VaultID, limit int) ([]ids.VaultID, *ids.VaultID, error)

	// CreateVault creates a vault if it does not already exist.
	// Idempotent: creating an existing vault is a no-op success.
	CreateVault(ctx context.Context, project ids.ProjectID, vault ids.VaultID) error

	// DeleteVault removes an empty vault. Fails with ErrConstraint if the
	// vault still contains any file or block.
	DeleteVault(ctx context.Context, project ids.ProjectID, vault ids.VaultID) error

	// VaultStatistics summarizes a vault's current contents.
	VaultStatistics(ctx context.Context, project ids.ProjectID, vault ids.VaultID) (VaultStats, error)

	// ========================================================================
	// File operations
	// ========================================================================

	// CreateFile allocates a fresh file id in the Open state.
	CreateFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID) (ids.FileID, error)

	// HasFile reports whether the file id exists (in any state).
	HasFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (bool, error)

	// IsFinalized reports whether the file has completed finalization.
	IsFinalized(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (bool, error)

	// FileLength returns the sum of sizes of the file's assigned,
	// registered blocks.
	FileLength(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (int64, error)

	// DeleteFile transitions a file to deleted, decrementing the
	// refcount of every assigned block. Idempotent.
	DeleteFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) error

	// ListFiles returns up to limit file ids matching the finalized
	// filter, ordered by file id, starting strictly after marker.
	ListFiles(ctx context.Context, project ids.ProjectID, vault ids.VaultID, marker *ids.FileID, limit int, finalized bool) ([]ids.FileID, *ids.FileID, error)

	// AssignBlock inserts or replaces the assignment at offset. Fails
	// with ErrAlreadyFinalized if the file is finalized. A new row
	// increments the block's refcount by 1; a replacement decrements the
	// old block's refcount and increments the new one's.
	AssignBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID, block ids.BlockID, offset int64) error

	// FinalizeFile runs the finalization validator against the file's
	// assignment stream. On success (empty diagnostics) the file
	// transitions to Finalized atomically with the validating read. On
	// failure the file remains Open and the diagnostics are returned as
	// a value, not an error.
	FinalizeFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID, fileSize *int64) ([]Diagnostic, error)

	// ListFileBlocks returns up to limit (block_id, offset) assignments
	// ordered by offset ascending, starting at offsetMarker (inclusive).
	ListFileBlocks(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID, offsetMarker *int64, limit int) ([]BlockAssignment, error)

	// ========================================================================
	// Block operations
	// ========================================================================

	// RegisterBlock idempotently replaces the (vault, block) row. A
	// re-registration with a storage id that differs from the existing
	// one is rejected with ErrConstraint.
	RegisterBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID, storage ids.StorageID, size int64) error

	// HasBlock reports whether the block is registered.
	HasBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (bool, error)

	// GetBlockSize returns a registered block's size.
	GetBlockSize(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (int64, error)

	// GetBlockStorageID returns the storage id for a registered block.
	GetBlockStorageID(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (ids.StorageID, error)

	// GetBlockMetadataID is the inverse of GetBlockStorageID: given a
	// storage id, returns the block id that maps to it.
	GetBlockMetadataID(ctx context.Context, project ids.ProjectID, vault ids.VaultID, storage ids.StorageID) (ids.BlockID, error)

	// UnregisterBlock removes a block's metadata record. Fails with
	// ErrConstraint unless the block's refcount is zero.
	UnregisterBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) error

	// ListBlocks returns up to limit block ids in lexicographic order,
	// starting strictly after marker.
	ListBlocks(ctx context.Context, project ids.ProjectID, vault ids.VaultID, marker *ids.BlockID, limit int) ([]ids.BlockID, *ids.BlockID, error)

	// BlockRefCount returns the number of assignments referencing the
	// block, or nil if the block is unknown.
	BlockRefCount(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (*int64, error)

	// BlockRefModified returns the unix timestamp of the last refcount
	// change for the block.
	BlockRefModified(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (int64, error)

	// ========================================================================
	// Lifecycle
	// ========================================================================

	// Health reports whether the backend is able to serve requests.
	Health(ctx context.Context) HealthStatus

	// Close releases any resources (connections, file handles) held by
	// the backend. The backend must not be used after Close returns.
	Close() error
}
