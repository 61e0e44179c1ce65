package memory

import (
	"context"
	"sort"

	"github.com/marmos91/deuce/internal/ids"
	"github.com/marmos91/deuce/pkg/engine"
)

// ListVaults returns up to limit vault ids for project, lexicographically
// ordered, starting strictly after marker.
func (s *Store) ListVaults(ctx context.Context, project ids.ProjectID, marker *ids.VaultID, limit int) ([]ids.VaultID, *ids.VaultID, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []ids.VaultID
	for key := range s.vaults {
		if key.project != project {
			continue
		}
		if marker != nil && key.vault <= *marker {
			continue
		}
		all = append(all, key.vault)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

	effective := engine.ClampLimit(limit, s.cfg.EffectiveMaxReturnNum())
	page, next := engine.Paginate(all, effective, func(v ids.VaultID) string { return string(v) })
	if next == nil {
		return page, nil, nil
	}
	nextID := ids.VaultID(*next)
	return page, &nextID, nil
}

// CreateVault is idempotent: creating an existing vault is a no-op success.
func (s *Store) CreateVault(ctx context.Context, project ids.ProjectID, vault ids.VaultID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := vkey(project, vault)
	if _, exists := s.vaults[key]; exists {
		return nil
	}

	s.vaults[key] = struct{}{}
	s.files[key] = make(map[ids.FileID]*fileRecord)
	s.blocks[key] = make(map[ids.BlockID]*blockRecord)
	s.storageIndex[key] = make(map[ids.StorageID]ids.BlockID)
	s.assignments[key] = make(map[ids.FileID]map[int64]ids.BlockID)
	s.refcounts[key] = make(map[ids.BlockID]int64)
	return nil
}

// DeleteVault removes an empty vault. Fails with ErrConstraint if the
// vault still holds any file or block.
func (s *Store) DeleteVault(ctx context.Context, project ids.ProjectID, vault ids.VaultID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := vkey(project, vault)
	if _, exists := s.vaults[key]; !exists {
		return engine.NewNotFoundError(string(project), string(vault), "vault not found")
	}

	if len(s.files[key]) > 0 || len(s.blocks[key]) > 0 {
		return engine.NewConstraintError(string(project), string(vault), "vault is not empty")
	}

	delete(s.vaults, key)
	delete(s.files, key)
	delete(s.blocks, key)
	delete(s.storageIndex, key)
	delete(s.assignments, key)
	delete(s.refcounts, key)
	return nil
}

// VaultStatistics summarizes the vault's current files, blocks, and the
// total registered size of those blocks.
func (s *Store) VaultStatistics(ctx context.Context, project ids.ProjectID, vault ids.VaultID) (engine.VaultStats, error) {
	if err := ctx.Err(); err != nil {
		return engine.VaultStats{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	key := vkey(project, vault)
	if _, exists := s.vaults[key]; !exists {
		return engine.VaultStats{}, engine.NewNotFoundError(string(project), string(vault), "vault not found")
	}

	var totalSize int64
	for _, b := range s.blocks[key] {
		totalSize += b.size
	}

	return engine.VaultStats{
		FileCount:  int64(len(s.files[key])),
		BlockCount: int64(len(s.blocks[key])),
		TotalSize:  totalSize,
	}, nil
}
