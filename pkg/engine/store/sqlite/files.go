package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/marmos91/deuce/internal/ids"
	"github.com/marmos91/deuce/pkg/engine"
)

// CreateFile allocates a fresh file id in the Open state.
func (s *Store) CreateFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID) (ids.FileID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireVaultLocked(ctx, project, vault); err != nil {
		return ids.FileID{}, err
	}

	id := ids.NewFileID()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO files (project_id, vault_id, file_id, finalized) VALUES (?, ?, ?, 0)`,
		string(project), string(vault), id.String()); err != nil {
		return ids.FileID{}, sqliteErr(string(project), string(vault), err)
	}
	return id, nil
}

// HasFile reports whether the file id exists, in any state.
func (s *Store) HasFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.fileFinalizedLocked(ctx, project, vault, file)
	if engine.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsFinalized reports whether the file has completed finalization.
func (s *Store) IsFinalized(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fileFinalizedLocked(ctx, project, vault, file)
}

func (s *Store) fileFinalizedLocked(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (bool, error) {
	var finalized bool
	err := s.db.QueryRowContext(ctx,
		`SELECT finalized FROM files WHERE project_id = ? AND vault_id = ? AND file_id = ?`,
		string(project), string(vault), file.String()).Scan(&finalized)
	if err == sql.ErrNoRows {
		return false, engine.NewNotFoundError(string(project), string(vault), "file not found")
	}
	if err != nil {
		return false, sqliteErr(string(project), string(vault), err)
	}
	return finalized, nil
}

// FileLength returns the sum of sizes of the file's assigned, registered
// blocks. Unregistered blocks contribute nothing (their size is unknown).
func (s *Store) FileLength(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.fileFinalizedLocked(ctx, project, vault, file); err != nil {
		return 0, err
	}

	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(b.size)
		FROM fileblocks fb
		JOIN blocks b ON b.project_id = fb.project_id AND b.vault_id = fb.vault_id AND b.block_id = fb.block_id
		WHERE fb.project_id = ? AND fb.vault_id = ? AND fb.file_id = ?`,
		string(project), string(vault), file.String()).Scan(&total)
	if err != nil {
		return 0, sqliteErr(string(project), string(vault), err)
	}
	return total.Int64, nil
}

// DeleteFile transitions a file to deleted, decrementing the refcount of
// every block it referenced. Idempotent: deleting a file that does not
// exist is a no-op success. Since refcount is derived on read from
// fileblocks, "decrementing" is simply deleting the file's assignment rows.
func (s *Store) DeleteFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sqliteErr(string(project), string(vault), err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM fileblocks WHERE project_id = ? AND vault_id = ? AND file_id = ?`,
		string(project), string(vault), file.String()); err != nil {
		return sqliteErr(string(project), string(vault), err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM files WHERE project_id = ? AND vault_id = ? AND file_id = ?`,
		string(project), string(vault), file.String()); err != nil {
		return sqliteErr(string(project), string(vault), err)
	}

	if err := tx.Commit(); err != nil {
		return sqliteErr(string(project), string(vault), err)
	}
	return nil
}

// ListFiles returns up to limit file ids matching the finalized filter,
// ordered by file id, starting strictly after marker.
func (s *Store) ListFiles(ctx context.Context, project ids.ProjectID, vault ids.VaultID, marker *ids.FileID, limit int, finalized bool) ([]ids.FileID, *ids.FileID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireVaultLocked(ctx, project, vault); err != nil {
		return nil, nil, err
	}

	effective := engine.ClampLimit(limit, s.cfg.EffectiveMaxReturnNum())

	var rows *sql.Rows
	var err error
	if marker != nil {
		rows, err = s.db.QueryContext(ctx, `
			SELECT file_id FROM files
			WHERE project_id = ? AND vault_id = ? AND finalized = ? AND file_id > ?
			ORDER BY file_id LIMIT ?`,
			string(project), string(vault), finalized, marker.String(), effective+1)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT file_id FROM files
			WHERE project_id = ? AND vault_id = ? AND finalized = ?
			ORDER BY file_id LIMIT ?`,
			string(project), string(vault), finalized, effective+1)
	}
	if err != nil {
		return nil, nil, sqliteErr(string(project), string(vault), err)
	}
	defer rows.Close()

	var all []ids.FileID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, nil, sqliteErr(string(project), string(vault), err)
		}
		id, err := ids.ParseFileID(raw)
		if err != nil {
			return nil, nil, sqliteErr(string(project), string(vault), err)
		}
		all = append(all, id)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, sqliteErr(string(project), string(vault), err)
	}

	page, next := engine.Paginate(all, effective, func(f ids.FileID) string { return f.String() })
	if next == nil {
		return page, nil, nil
	}
	nextID, err := ids.ParseFileID(*next)
	if err != nil {
		return nil, nil, sqliteErr(string(project), string(vault), err)
	}
	return page, &nextID, nil
}

// AssignBlock inserts or replaces the assignment at offset. Fails with
// ErrAlreadyFinalized if the file is finalized. Refcount is derived on
// read from the fileblocks table, so no counter bookkeeping happens
// here beyond the row itself and its mtime.
func (s *Store) AssignBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID, block ids.BlockID, offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	finalized, err := s.fileFinalizedLocked(ctx, project, vault, file)
	if err != nil {
		return err
	}
	if finalized {
		return engine.NewAlreadyFinalizedError(string(project), string(vault))
	}

	var existing string
	err = s.db.QueryRowContext(ctx,
		`SELECT block_id FROM fileblocks WHERE project_id = ? AND vault_id = ? AND file_id = ? AND offset = ?`,
		string(project), string(vault), file.String(), offset).Scan(&existing)
	if err != nil && err != sql.ErrNoRows {
		return sqliteErr(string(project), string(vault), err)
	}
	if err == nil && existing == string(block) {
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO fileblocks (project_id, vault_id, file_id, offset, block_id, mtime)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id, vault_id, file_id, offset)
		DO UPDATE SET block_id = excluded.block_id, mtime = excluded.mtime`,
		string(project), string(vault), file.String(), offset, string(block), time.Now().Unix())
	if err != nil {
		return sqliteErr(string(project), string(vault), err)
	}
	return nil
}

// ListFileBlocks returns up to limit (block_id, offset) assignments
// ordered by offset ascending, starting at offsetMarker (inclusive).
func (s *Store) ListFileBlocks(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID, offsetMarker *int64, limit int) ([]engine.BlockAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.fileFinalizedLocked(ctx, project, vault, file); err != nil {
		return nil, err
	}

	effective := engine.ClampLimit(limit, s.cfg.EffectiveMaxReturnNum())

	var rows *sql.Rows
	var err error
	if offsetMarker != nil {
		rows, err = s.db.QueryContext(ctx, `
			SELECT block_id, offset FROM fileblocks
			WHERE project_id = ? AND vault_id = ? AND file_id = ? AND offset >= ?
			ORDER BY offset LIMIT ?`,
			string(project), string(vault), file.String(), *offsetMarker, effective+1)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT block_id, offset FROM fileblocks
			WHERE project_id = ? AND vault_id = ? AND file_id = ?
			ORDER BY offset LIMIT ?`,
			string(project), string(vault), file.String(), effective+1)
	}
	if err != nil {
		return nil, sqliteErr(string(project), string(vault), err)
	}
	defer rows.Close()

	var all []engine.BlockAssignment
	for rows.Next() {
		var blockID string
		var offset int64
		if err := rows.Scan(&blockID, &offset); err != nil {
			return nil, sqliteErr(string(project), string(vault), err)
		}
		all = append(all, engine.BlockAssignment{FileID: file, BlockID: ids.BlockID(blockID), Offset: offset})
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteErr(string(project), string(vault), err)
	}

	if len(all) > effective {
		all = all[:effective]
	}
	return all, nil
}

// requireVaultLocked fails with ErrNotFound if the vault does not exist.
// Callers must already hold s.mu.
func (s *Store) requireVaultLocked(ctx context.Context, project ids.ProjectID, vault ids.VaultID) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM vaults WHERE project_id = ? AND vault_id = ?`,
		string(project), string(vault)).Scan(&exists)
	if err == sql.ErrNoRows {
		return engine.NewNotFoundError(string(project), string(vault), "vault not found")
	}
	if err != nil {
		return sqliteErr(string(project), string(vault), err)
	}
	return nil
}
