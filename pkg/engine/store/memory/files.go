package memory

import (
	"context"
	"sort"

	"github.com/marmos91/deuce/internal/ids"
	"github.com/marmos91/deuce/pkg/engine"
)

// CreateFile allocates a fresh file id in the Open state.
func (s *Store) CreateFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID) (ids.FileID, error) {
	if err := ctx.Err(); err != nil {
		return ids.FileID{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := vkey(project, vault)
	if _, exists := s.vaults[key]; !exists {
		return ids.FileID{}, engine.NewNotFoundError(string(project), string(vault), "vault not found")
	}

	id := ids.NewFileID()
	s.files[key][id] = &fileRecord{}
	s.assignments[key][id] = make(map[int64]ids.BlockID)
	return id, nil
}

// HasFile reports whether the file id exists, in any state.
func (s *Store) HasFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	key := vkey(project, vault)
	_, exists := s.files[key][file]
	return exists, nil
}

// IsFinalized reports whether the file has completed finalization.
func (s *Store) IsFinalized(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	key := vkey(project, vault)
	rec, exists := s.files[key][file]
	if !exists {
		return false, engine.NewNotFoundError(string(project), string(vault), "file not found")
	}
	return rec.finalized, nil
}

// FileLength returns the sum of sizes of the file's assigned, registered
// blocks. Unregistered blocks contribute nothing (their size is unknown).
func (s *Store) FileLength(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	key := vkey(project, vault)
	if _, exists := s.files[key][file]; !exists {
		return 0, engine.NewNotFoundError(string(project), string(vault), "file not found")
	}

	var total int64
	for _, blockID := range s.assignments[key][file] {
		if b, ok := s.blocks[key][blockID]; ok {
			total += b.size
		}
	}
	return total, nil
}

// DeleteFile transitions a file to deleted, decrementing the refcount of
// every block it referenced. Idempotent: deleting a file that does not
// exist is a no-op success.
func (s *Store) DeleteFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := vkey(project, vault)
	if _, exists := s.files[key][file]; !exists {
		return nil
	}

	for _, blockID := range s.assignments[key][file] {
		s.decrementRefLocked(key, blockID)
	}

	delete(s.assignments[key], file)
	delete(s.files[key], file)
	return nil
}

// ListFiles returns up to limit file ids matching the finalized filter,
// ordered by file id, starting strictly after marker.
func (s *Store) ListFiles(ctx context.Context, project ids.ProjectID, vault ids.VaultID, marker *ids.FileID, limit int, finalized bool) ([]ids.FileID, *ids.FileID, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	key := vkey(project, vault)
	if _, exists := s.vaults[key]; !exists {
		return nil, nil, engine.NewNotFoundError(string(project), string(vault), "vault not found")
	}

	var all []ids.FileID
	for id, rec := range s.files[key] {
		if rec.finalized != finalized {
			continue
		}
		if marker != nil && id.String() <= marker.String() {
			continue
		}
		all = append(all, id)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].String() < all[j].String() })

	effective := engine.ClampLimit(limit, s.cfg.EffectiveMaxReturnNum())
	page, next := engine.Paginate(all, effective, func(f ids.FileID) string { return f.String() })
	if next == nil {
		return page, nil, nil
	}
	nextID, err := ids.ParseFileID(*next)
	if err != nil {
		return nil, nil, engine.NewBackendError(string(project), string(vault), err)
	}
	return page, &nextID, nil
}

// AssignBlock inserts or replaces the assignment at offset. Fails with
// ErrAlreadyFinalized if the file is finalized. A new row increments the
// block's refcount by one; a replacement decrements the old block's
// refcount and increments the new one's. Re-assigning the same
// (file, block, offset) is a no-op on refcount (idempotent).
func (s *Store) AssignBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID, block ids.BlockID, offset int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := vkey(project, vault)
	rec, exists := s.files[key][file]
	if !exists {
		return engine.NewNotFoundError(string(project), string(vault), "file not found")
	}
	if rec.finalized {
		return engine.NewAlreadyFinalizedError(string(project), string(vault))
	}

	existing, hadPrior := s.assignments[key][file][offset]
	if hadPrior && existing == block {
		return nil
	}
	if hadPrior {
		s.decrementRefLocked(key, existing)
	}
	s.assignments[key][file][offset] = block
	s.incrementRefLocked(key, block)
	return nil
}

// ListFileBlocks returns up to limit (block_id, offset) assignments
// ordered by offset ascending, starting at offsetMarker (inclusive).
func (s *Store) ListFileBlocks(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID, offsetMarker *int64, limit int) ([]engine.BlockAssignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	key := vkey(project, vault)
	if _, exists := s.files[key][file]; !exists {
		return nil, engine.NewNotFoundError(string(project), string(vault), "file not found")
	}

	var all []engine.BlockAssignment
	for offset, blockID := range s.assignments[key][file] {
		if offsetMarker != nil && offset < *offsetMarker {
			continue
		}
		all = append(all, engine.BlockAssignment{FileID: file, BlockID: blockID, Offset: offset})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Offset < all[j].Offset })

	effective := engine.ClampLimit(limit, s.cfg.EffectiveMaxReturnNum())
	if len(all) > effective {
		all = all[:effective]
	}
	return all, nil
}

// sortedAssignments returns the file's assignments as BlockSpan rows
// sorted by offset, joined against registered block sizes. Used by
// FinalizeFile.
func (s *Store) sortedAssignments(key vaultKey, file ids.FileID) []engine.BlockSpan {
	var rows []engine.BlockSpan
	for offset, blockID := range s.assignments[key][file] {
		b, ok := s.blocks[key][blockID]
		if !ok {
			continue
		}
		rows = append(rows, engine.BlockSpan{BlockID: blockID, Offset: offset, Size: b.size})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Offset < rows[j].Offset })
	return rows
}
