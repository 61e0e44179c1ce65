package metrics

import (
	"context"
	"time"

	"github.com/marmos91/deuce/internal/ids"
	"github.com/marmos91/deuce/pkg/engine"
)

// Instrument wraps backend so every operation's latency and outcome are
// reported to m. Passing a nil m returns backend unchanged, so disabling
// metrics costs nothing beyond the one nil check.
func Instrument(backend engine.Backend, m BackendMetrics) engine.Backend {
	if m == nil {
		return backend
	}
	return &instrumentedBackend{backend: backend, metrics: m}
}

type instrumentedBackend struct {
	backend engine.Backend
	metrics BackendMetrics
}

var _ engine.Backend = (*instrumentedBackend)(nil)

func (b *instrumentedBackend) observe(operation string, start time.Time, err error) {
	b.metrics.RecordOperation(operation, time.Since(start), err)
}

func (b *instrumentedBackend) ListVaults(ctx context.Context, project ids.ProjectID, marker *ids.VaultID, limit int) ([]ids.VaultID, *ids.VaultID, error) {
	start := time.Now()
	out, next, err := b.backend.ListVaults(ctx, project, marker, limit)
	b.observe("list_vaults", start, err)
	return out, next, err
}

func (b *instrumentedBackend) CreateVault(ctx context.Context, project ids.ProjectID, vault ids.VaultID) error {
	start := time.Now()
	err := b.backend.CreateVault(ctx, project, vault)
	b.observe("create_vault", start, err)
	return err
}

func (b *instrumentedBackend) DeleteVault(ctx context.Context, project ids.ProjectID, vault ids.VaultID) error {
	start := time.Now()
	err := b.backend.DeleteVault(ctx, project, vault)
	b.observe("delete_vault", start, err)
	return err
}

func (b *instrumentedBackend) VaultStatistics(ctx context.Context, project ids.ProjectID, vault ids.VaultID) (engine.VaultStats, error) {
	start := time.Now()
	out, err := b.backend.VaultStatistics(ctx, project, vault)
	b.observe("vault_statistics", start, err)
	return out, err
}

func (b *instrumentedBackend) CreateFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID) (ids.FileID, error) {
	start := time.Now()
	out, err := b.backend.CreateFile(ctx, project, vault)
	b.observe("create_file", start, err)
	return out, err
}

func (b *instrumentedBackend) HasFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (bool, error) {
	start := time.Now()
	out, err := b.backend.HasFile(ctx, project, vault, file)
	b.observe("has_file", start, err)
	return out, err
}

func (b *instrumentedBackend) IsFinalized(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (bool, error) {
	start := time.Now()
	out, err := b.backend.IsFinalized(ctx, project, vault, file)
	b.observe("is_finalized", start, err)
	return out, err
}

func (b *instrumentedBackend) FileLength(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (int64, error) {
	start := time.Now()
	out, err := b.backend.FileLength(ctx, project, vault, file)
	b.observe("file_length", start, err)
	return out, err
}

func (b *instrumentedBackend) DeleteFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) error {
	start := time.Now()
	err := b.backend.DeleteFile(ctx, project, vault, file)
	b.observe("delete_file", start, err)
	return err
}

func (b *instrumentedBackend) ListFiles(ctx context.Context, project ids.ProjectID, vault ids.VaultID, marker *ids.FileID, limit int, finalized bool) ([]ids.FileID, *ids.FileID, error) {
	start := time.Now()
	out, next, err := b.backend.ListFiles(ctx, project, vault, marker, limit, finalized)
	b.observe("list_files", start, err)
	return out, next, err
}

func (b *instrumentedBackend) AssignBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID, block ids.BlockID, offset int64) error {
	start := time.Now()
	err := b.backend.AssignBlock(ctx, project, vault, file, block, offset)
	b.observe("assign_block", start, err)
	if err == nil {
		if count, cerr := b.backend.BlockRefCount(ctx, project, vault, block); cerr == nil && count != nil {
			b.metrics.RecordRefCount(string(block), *count)
		}
	}
	return err
}

func (b *instrumentedBackend) FinalizeFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID, fileSize *int64) ([]engine.Diagnostic, error) {
	start := time.Now()
	diagnostics, err := b.backend.FinalizeFile(ctx, project, vault, file, fileSize)
	b.observe("finalize_file", start, err)
	return diagnostics, err
}

func (b *instrumentedBackend) ListFileBlocks(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID, offsetMarker *int64, limit int) ([]engine.BlockAssignment, error) {
	start := time.Now()
	out, err := b.backend.ListFileBlocks(ctx, project, vault, file, offsetMarker, limit)
	b.observe("list_file_blocks", start, err)
	return out, err
}

func (b *instrumentedBackend) RegisterBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID, storage ids.StorageID, size int64) error {
	start := time.Now()
	err := b.backend.RegisterBlock(ctx, project, vault, block, storage, size)
	b.observe("register_block", start, err)
	return err
}

func (b *instrumentedBackend) HasBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (bool, error) {
	start := time.Now()
	out, err := b.backend.HasBlock(ctx, project, vault, block)
	b.observe("has_block", start, err)
	return out, err
}

func (b *instrumentedBackend) GetBlockSize(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (int64, error) {
	start := time.Now()
	out, err := b.backend.GetBlockSize(ctx, project, vault, block)
	b.observe("get_block_size", start, err)
	return out, err
}

func (b *instrumentedBackend) GetBlockStorageID(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (ids.StorageID, error) {
	start := time.Now()
	out, err := b.backend.GetBlockStorageID(ctx, project, vault, block)
	b.observe("get_block_storage_id", start, err)
	return out, err
}

func (b *instrumentedBackend) GetBlockMetadataID(ctx context.Context, project ids.ProjectID, vault ids.VaultID, storage ids.StorageID) (ids.BlockID, error) {
	start := time.Now()
	out, err := b.backend.GetBlockMetadataID(ctx, project, vault, storage)
	b.observe("get_block_metadata_id", start, err)
	return out, err
}

func (b *instrumentedBackend) UnregisterBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) error {
	start := time.Now()
	err := b.backend.UnregisterBlock(ctx, project, vault, block)
	b.observe("unregister_block", start, err)
	return err
}

func (b *instrumentedBackend) ListBlocks(ctx context.Context, project ids.ProjectID, vault ids.VaultID, marker *ids.BlockID, limit int) ([]ids.BlockID, *ids.BlockID, error) {
	start := time.Now()
	out, next, err := b.backend.ListBlocks(ctx, project, vault, marker, limit)
	b.observe("list_blocks", start, err)
	return out, next, err
}

func (b *instrumentedBackend) BlockRefCount(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (*int64, error) {
	start := time.Now()
	out, err := b.backend.BlockRefCount(ctx, project, vault, block)
	b.observe("block_ref_count", start, err)
	return out, err
}

func (b *instrumentedBackend) BlockRefModified(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (int64, error) {
	start := time.Now()
	out, err := b.backend.BlockRefModified(ctx, project, vault, block)
	b.observe("block_ref_modified", start, err)
	return out, err
}

func (b *instrumentedBackend) Health(ctx context.Context) engine.HealthStatus {
	start := time.Now()
	status := b.backend.Health(ctx)
	var err error
	if !status.OK {
		err = engine.NewBackendError("", "", nil)
	}
	b.observe("health", start, err)
	return status
}

func (b *instrumentedBackend) Close() error {
	return b.backend.Close()
}
