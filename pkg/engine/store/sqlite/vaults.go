package sqlite

import (
	"context"
	"database/sql"

	"github.com/marmos91/deuce/internal/ids"
	"github.com/marmos91/deuce/pkg/engine"
)

// ListVaults returns up to limit vault ids for project, lexicographically
// ordered, starting strictly after marker.
func (s *Store) ListVaults(ctx context.Context, project ids.ProjectID, marker *ids.VaultID, limit int) ([]ids.VaultID, *ids.VaultID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	effective := engine.ClampLimit(limit, s.cfg.EffectiveMaxReturnNum())

	var rows *sql.Rows
	var err error
	if marker != nil {
		rows, err = s.db.QueryContext(ctx,
			`SELECT vault_id FROM vaults WHERE project_id = ? AND vault_id > ? ORDER BY vault_id LIMIT ?`,
			string(project), string(*marker), effective+1)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT vault_id FROM vaults WHERE project_id = ? ORDER BY vault_id LIMIT ?`,
			string(project), effective+1)
	}
	if err != nil {
		return nil, nil, sqliteErr(string(project), "", err)
	}
	defer rows.Close()

	var all []ids.VaultID
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, nil, sqliteErr(string(project), "", err)
		}
		all = append(all, ids.VaultID(v))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, sqliteErr(string(project), "", err)
	}

	page, next := engine.Paginate(all, effective, func(v ids.VaultID) string { return string(v) })
	if next == nil {
		return page, nil, nil
	}
	nextID := ids.VaultID(*next)
	return page, &nextID, nil
}

// CreateVault is idempotent: creating an existing vault is a no-op success.
func (s *Store) CreateVault(ctx context.Context, project ids.ProjectID, vault ids.VaultID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO vaults (project_id, vault_id) VALUES (?, ?)`,
		string(project), string(vault))
	if err != nil {
		return sqliteErr(string(project), string(vault), err)
	}
	return nil
}

// DeleteVault removes an empty vault. Fails with ErrConstraint if the
// vault still holds any file or block.
func (s *Store) DeleteVault(ctx context.Context, project ids.ProjectID, vault ids.VaultID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM vaults WHERE project_id = ? AND vault_id = ?`,
		string(project), string(vault)).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return engine.NewNotFoundError(string(project), string(vault), "vault not found")
		}
		return sqliteErr(string(project), string(vault), err)
	}

	fileCount, blockCount, err := s.vaultContentsLocked(ctx, project, vault)
	if err != nil {
		return err
	}
	if fileCount > 0 || blockCount > 0 {
		return engine.NewConstraintError(string(project), string(vault), "vault is not empty")
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM vaults WHERE project_id = ? AND vault_id = ?`,
		string(project), string(vault)); err != nil {
		return sqliteErr(string(project), string(vault), err)
	}
	return nil
}

// VaultStatistics summarizes the vault's current files, blocks, and the
// total registered size of those blocks.
func (s *Store) VaultStatistics(ctx context.Context, project ids.ProjectID, vault ids.VaultID) (engine.VaultStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM vaults WHERE project_id = ? AND vault_id = ?`,
		string(project), string(vault)).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return engine.VaultStats{}, engine.NewNotFoundError(string(project), string(vault), "vault not found")
		}
		return engine.VaultStats{}, sqliteErr(string(project), string(vault), err)
	}

	fileCount, blockCount, err := s.vaultContentsLocked(ctx, project, vault)
	if err != nil {
		return engine.VaultStats{}, err
	}

	var totalSize sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		`SELECT SUM(size) FROM blocks WHERE project_id = ? AND vault_id = ?`,
		string(project), string(vault)).Scan(&totalSize); err != nil {
		return engine.VaultStats{}, sqliteErr(string(project), string(vault), err)
	}

	return engine.VaultStats{
		FileCount:  fileCount,
		BlockCount: blockCount,
		TotalSize:  totalSize.Int64,
	}, nil
}

// vaultContentsLocked returns the file and block counts for a vault.
// Callers must already hold s.mu.
func (s *Store) vaultContentsLocked(ctx context.Context, project ids.ProjectID, vault ids.VaultID) (int64, int64, error) {
	var fileCount int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM files WHERE project_id = ? AND vault_id = ?`,
		string(project), string(vault)).Scan(&fileCount); err != nil {
		return 0, 0, sqliteErr(string(project), string(vault), err)
	}

	var blockCount int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blocks WHERE project_id = ? AND vault_id = ?`,
		string(project), string(vault)).Scan(&blockCount); err != nil {
		return 0, 0, sqliteErr(string(project), string(vault), err)
	}

	return fileCount, blockCount, nil
}
