package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/marmos91/deuce/internal/ids"
	"github.com/marmos91/deuce/pkg/engine"
)

// RegisterBlock idempotently replaces the (vault, block) row. A
// re-registration with a storage id that differs from the existing one
// is rejected with ErrConstraint, preserving the storage_id <-> block_id
// bijection.
func (s *Store) RegisterBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID, storage ids.StorageID, size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if size < 0 {
		return engine.NewConstraintError(string(project), string(vault), "block size must not be negative")
	}
	if max := s.cfg.MaxBlockSize; max > 0 && size > max {
		return engine.NewConstraintError(string(project), string(vault), "block size exceeds configured maximum")
	}
	if err := s.requireVaultLocked(ctx, project, vault); err != nil {
		return err
	}

	var existingStorage string
	err := s.db.QueryRowContext(ctx,
		`SELECT storage_id FROM blocks WHERE project_id = ? AND vault_id = ? AND block_id = ?`,
		string(project), string(vault), string(block)).Scan(&existingStorage)
	if err != nil && err != sql.ErrNoRows {
		return sqliteErr(string(project), string(vault), err)
	}
	if err == nil {
		if existingStorage != string(storage) {
			return engine.NewConstraintError(string(project), string(vault), "block already registered with a different storage id")
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE blocks SET size = ? WHERE project_id = ? AND vault_id = ? AND block_id = ?`,
			size, string(project), string(vault), string(block)); err != nil {
			return sqliteErr(string(project), string(vault), err)
		}
		return nil
	}

	var owner string
	err = s.db.QueryRowContext(ctx,
		`SELECT block_id FROM blocks WHERE project_id = ? AND vault_id = ? AND storage_id = ?`,
		string(project), string(vault), string(storage)).Scan(&owner)
	if err != nil && err != sql.ErrNoRows {
		return sqliteErr(string(project), string(vault), err)
	}
	if err == nil && owner != string(block) {
		return engine.NewConstraintError(string(project), string(vault), "storage id already bound to a different block")
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO blocks (project_id, vault_id, block_id, storage_id, size, ref_modified)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(project), string(vault), string(block), string(storage), size, time.Now().Unix()); err != nil {
		return sqliteErr(string(project), string(vault), err)
	}
	return nil
}

// HasBlock reports whether the block is registered.
func (s *Store) HasBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.blockRowLocked(ctx, project, vault, block)
	if engine.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type blockRow struct {
	storageID   string
	size        int64
	refModified int64
}

func (s *Store) blockRowLocked(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (blockRow, error) {
	var row blockRow
	err := s.db.QueryRowContext(ctx,
		`SELECT storage_id, size, ref_modified FROM blocks WHERE project_id = ? AND vault_id = ? AND block_id = ?`,
		string(project), string(vault), string(block)).Scan(&row.storageID, &row.size, &row.refModified)
	if err == sql.ErrNoRows {
		return blockRow{}, engine.NewNotFoundError(string(project), string(vault), "block not found")
	}
	if err != nil {
		return blockRow{}, sqliteErr(string(project), string(vault), err)
	}
	return row, nil
}

// GetBlockSize returns a registered block's size.
func (s *Store) GetBlockSize(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.blockRowLocked(ctx, project, vault, block)
	if err != nil {
		return 0, err
	}
	return row.size, nil
}

// GetBlockStorageID returns the storage id for a registered block.
func (s *Store) GetBlockStorageID(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (ids.StorageID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.blockRowLocked(ctx, project, vault, block)
	if err != nil {
		return "", err
	}
	return ids.StorageID(row.storageID), nil
}

// GetBlockMetadataID is the inverse lookup of GetBlockStorageID.
func (s *Store) GetBlockMetadataID(ctx context.Context, project ids.ProjectID, vault ids.VaultID, storage ids.StorageID) (ids.BlockID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blockID string
	err := s.db.QueryRowContext(ctx,
		`SELECT block_id FROM blocks WHERE project_id = ? AND vault_id = ? AND storage_id = ?`,
		string(project), string(vault), string(storage)).Scan(&blockID)
	if err == sql.ErrNoRows {
		return "", engine.NewNotFoundError(string(project), string(vault), "storage id not found")
	}
	if err != nil {
		return "", sqliteErr(string(project), string(vault), err)
	}
	return ids.BlockID(blockID), nil
}

// UnregisterBlock removes a block's metadata record. Fails with
// ErrConstraint unless the block's refcount is zero.
func (s *Store) UnregisterBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.blockRowLocked(ctx, project, vault, block); err != nil {
		return err
	}

	count, err := s.blockRefCountLocked(ctx, project, vault, block)
	if err != nil {
		return err
	}
	if count != 0 {
		return engine.NewConstraintError(string(project), string(vault), "block is still referenced")
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM blocks WHERE project_id = ? AND vault_id = ? AND block_id = ?`,
		string(project), string(vault), string(block)); err != nil {
		return sqliteErr(string(project), string(vault), err)
	}
	return nil
}

// ListBlocks returns up to limit block ids in lexicographic order,
// starting strictly after marker.
func (s *Store) ListBlocks(ctx context.Context, project ids.ProjectID, vault ids.VaultID, marker *ids.BlockID, limit int) ([]ids.BlockID, *ids.BlockID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireVaultLocked(ctx, project, vault); err != nil {
		return nil, nil, err
	}

	effective := engine.ClampLimit(limit, s.cfg.EffectiveMaxReturnNum())

	var rows *sql.Rows
	var err error
	if marker != nil {
		rows, err = s.db.QueryContext(ctx,
			`SELECT block_id FROM blocks WHERE project_id = ? AND vault_id = ? AND block_id > ? ORDER BY block_id LIMIT ?`,
			string(project), string(vault), string(*marker), effective+1)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT block_id FROM blocks WHERE project_id = ? AND vault_id = ? ORDER BY block_id LIMIT ?`,
			string(project), string(vault), effective+1)
	}
	if err != nil {
		return nil, nil, sqliteErr(string(project), string(vault), err)
	}
	defer rows.Close()

	var all []ids.BlockID
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, nil, sqliteErr(string(project), string(vault), err)
		}
		all = append(all, ids.BlockID(b))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, sqliteErr(string(project), string(vault), err)
	}

	page, next := engine.Paginate(all, effective, func(b ids.BlockID) string { return string(b) })
	if next == nil {
		return page, nil, nil
	}
	nextID := ids.BlockID(*next)
	return page, &nextID, nil
}

// BlockRefCount returns the number of assignments referencing the block,
// or nil if the block is not registered. Derived on read by counting
// matching fileblocks rows.
func (s *Store) BlockRefCount(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (*int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.blockRowLocked(ctx, project, vault, block); err != nil {
		if engine.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	count, err := s.blockRefCountLocked(ctx, project, vault, block)
	if err != nil {
		return nil, err
	}
	return &count, nil
}

func (s *Store) blockRefCountLocked(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fileblocks WHERE project_id = ? AND vault_id = ? AND block_id = ?`,
		string(project), string(vault), string(block)).Scan(&count)
	if err != nil {
		return 0, sqliteErr(string(project), string(vault), err)
	}
	return count, nil
}

// BlockRefModified returns the unix timestamp of the last refcount
// change for the block: the max mtime over its referencing assignments,
// or the block record's own mtime if it has none.
func (s *Store) BlockRefModified(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.blockRowLocked(ctx, project, vault, block)
	if err != nil {
		return 0, err
	}

	var maxMtime sql.NullInt64
	err = s.db.QueryRowContext(ctx,
		`SELECT MAX(mtime) FROM fileblocks WHERE project_id = ? AND vault_id = ? AND block_id = ?`,
		string(project), string(vault), string(block)).Scan(&maxMtime)
	if err != nil {
		return 0, sqliteErr(string(project), string(vault), err)
	}
	if maxMtime.Valid {
		return maxMtime.Int64, nil
	}
	return row.refModified, nil
}
