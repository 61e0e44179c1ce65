package memory

import (
	"context"
	"sort"

	"github.com/marmos91/deuce/internal/ids"
	"github.com/marmos91/deuce/pkg/engine"
)

// RegisterBlock idempotently replaces the (vault, block) row. A
// re-registration with a storage id that differs from the existing one
// is rejected with ErrConstraint, preserving the storage_id <-> block_id
// bijection.
func (s *Store) RegisterBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID, storage ids.StorageID, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if size < 0 {
		return engine.NewConstraintError(string(project), string(vault), "block size must not be negative")
	}
	if max := s.cfg.MaxBlockSize; max > 0 && size > max {
		return engine.NewConstraintError(string(project), string(vault), "block size exceeds configured maximum")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := vkey(project, vault)
	if _, exists := s.vaults[key]; !exists {
		return engine.NewNotFoundError(string(project), string(vault), "vault not found")
	}

	if existing, ok := s.blocks[key][block]; ok {
		if existing.storageID != storage {
			return engine.NewConstraintError(string(project), string(vault), "block already registered with a different storage id")
		}
		existing.size = size
		return nil
	}

	if owner, ok := s.storageIndex[key][storage]; ok && owner != block {
		return engine.NewConstraintError(string(project), string(vault), "storage id already bound to a different block")
	}

	s.blocks[key][block] = &blockRecord{storageID: storage, size: size, refModified: s.clock()}
	s.storageIndex[key][storage] = block
	return nil
}

// HasBlock reports whether the block is registered.
func (s *Store) HasBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	key := vkey(project, vault)
	_, exists := s.blocks[key][block]
	return exists, nil
}

// GetBlockSize returns a registered block's size.
func (s *Store) GetBlockSize(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	key := vkey(project, vault)
	b, exists := s.blocks[key][block]
	if !exists {
		return 0, engine.NewNotFoundError(string(project), string(vault), "block not found")
	}
	return b.size, nil
}

// GetBlockStorageID returns the storage id for a registered block.
func (s *Store) GetBlockStorageID(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (ids.StorageID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	key := vkey(project, vault)
	b, exists := s.blocks[key][block]
	if !exists {
		return "", engine.NewNotFoundError(string(project), string(vault), "block not found")
	}
	return b.storageID, nil
}

// GetBlockMetadataID is the inverse lookup of GetBlockStorageID.
func (s *Store) GetBlockMetadataID(ctx context.Context, project ids.ProjectID, vault ids.VaultID, storage ids.StorageID) (ids.BlockID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	key := vkey(project, vault)
	blockID, exists := s.storageIndex[key][storage]
	if !exists {
		return "", engine.NewNotFoundError(string(project), string(vault), "storage id not found")
	}
	return blockID, nil
}

// UnregisterBlock removes a block's metadata record. Fails with
// ErrConstraint unless the block's refcount is zero.
func (s *Store) UnregisterBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := vkey(project, vault)
	b, exists := s.blocks[key][block]
	if !exists {
		return engine.NewNotFoundError(string(project), string(vault), "block not found")
	}
	if s.refcounts[key][block] != 0 {
		return engine.NewConstraintError(string(project), string(vault), "block is still referenced")
	}

	delete(s.blocks[key], block)
	delete(s.storageIndex[key], b.storageID)
	delete(s.refcounts[key], block)
	return nil
}

// ListBlocks returns up to limit block ids in lexicographic order,
// starting strictly after marker.
func (s *Store) ListBlocks(ctx context.Context, project ids.ProjectID, vault ids.VaultID, marker *ids.BlockID, limit int) ([]ids.BlockID, *ids.BlockID, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	key := vkey(project, vault)
	if _, exists := s.vaults[key]; !exists {
		return nil, nil, engine.NewNotFoundError(string(project), string(vault), "vault not found")
	}

	var all []ids.BlockID
	for id := range s.blocks[key] {
		if marker != nil && id <= *marker {
			continue
		}
		all = append(all, id)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

	effective := engine.ClampLimit(limit, s.cfg.EffectiveMaxReturnNum())
	page, next := engine.Paginate(all, effective, func(b ids.BlockID) string { return string(b) })
	if next == nil {
		return page, nil, nil
	}
	nextID := ids.BlockID(*next)
	return page, &nextID, nil
}

// BlockRefCount returns the number of assignments referencing the block,
// or nil if the block is not registered.
func (s *Store) BlockRefCount(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (*int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	key := vkey(project, vault)
	if _, exists := s.blocks[key][block]; !exists {
		return nil, nil
	}
	count := s.refcounts[key][block]
	return &count, nil
}

// BlockRefModified returns the unix timestamp of the last refcount change
// for the block.
func (s *Store) BlockRefModified(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	key := vkey(project, vault)
	b, exists := s.blocks[key][block]
	if !exists {
		return 0, engine.NewNotFoundError(string(project), string(vault), "block not found")
	}
	return b.refModified, nil
}

// incrementRefLocked and decrementRefLocked maintain s.refcounts for a
// block regardless of whether it is currently registered, so that
// refcounts accumulated before registration are visible the moment
// RegisterBlock runs. Callers must hold s.mu.
func (s *Store) incrementRefLocked(key vaultKey, block ids.BlockID) {
	s.refcounts[key][block]++
	s.touchRefModifiedLocked(key, block)
}

func (s *Store) decrementRefLocked(key vaultKey, block ids.BlockID) {
	if s.refcounts[key][block] > 0 {
		s.refcounts[key][block]--
	}
	s.touchRefModifiedLocked(key, block)
}

func (s *Store) touchRefModifiedLocked(key vaultKey, block ids.BlockID) {
	if b, ok := s.blocks[key][block]; ok {
		b.refModified = s.clock()
	}
}
