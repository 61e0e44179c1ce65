package sqlite

import (
	"context"
	"database/sql"

	"github.com/marmos91/deuce/internal/ids"
	"github.com/marmos91/deuce/pkg/engine"
)

// FinalizeFile joins the file's assignments against the blocks table to
// build the ordered (block_id, offset, size) stream the validator needs,
// failing with ErrConstraint if any assignment references a block that
// was never registered. The validating read and the finalized flag write
// happen inside one transaction so a concurrent AssignBlock cannot slip
// in between.
func (s *Store) FinalizeFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID, fileSize *int64) ([]engine.Diagnostic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, sqliteErr(string(project), string(vault), err)
	}
	defer tx.Rollback()

	var finalized bool
	err = tx.QueryRowContext(ctx,
		`SELECT finalized FROM files WHERE project_id = ? AND vault_id = ? AND file_id = ?`,
		string(project), string(vault), file.String()).Scan(&finalized)
	if err == sql.ErrNoRows {
		return nil, engine.NewNotFoundError(string(project), string(vault), "file not found")
	}
	if err != nil {
		return nil, sqliteErr(string(project), string(vault), err)
	}
	if finalized {
		return nil, engine.NewAlreadyFinalizedError(string(project), string(vault))
	}

	assignedCount, spans, err := s.loadFileSpans(ctx, tx, project, vault, file)
	if err != nil {
		return nil, err
	}
	if assignedCount != len(spans) {
		return nil, engine.NewConstraintError(string(project), string(vault), "file references an unregistered block")
	}

	diagnostics := engine.Finalize(spans, fileSize)
	if len(diagnostics) > 0 {
		return diagnostics, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE files SET finalized = 1 WHERE project_id = ? AND vault_id = ? AND file_id = ?`,
		string(project), string(vault), file.String()); err != nil {
		return nil, sqliteErr(string(project), string(vault), err)
	}

	if err := tx.Commit(); err != nil {
		return nil, sqliteErr(string(project), string(vault), err)
	}
	return nil, nil
}

// loadFileSpans returns the number of assignment rows the file has and the
// ordered block spans for those assignments that join against a
// registered block. A mismatch between the two counts means some
// assignment points at an unregistered block.
func (s *Store) loadFileSpans(ctx context.Context, tx *sql.Tx, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (int, []engine.BlockSpan, error) {
	var assignedCount int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fileblocks WHERE project_id = ? AND vault_id = ? AND file_id = ?`,
		string(project), string(vault), file.String()).Scan(&assignedCount); err != nil {
		return 0, nil, sqliteErr(string(project), string(vault), err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT fb.block_id, fb.offset, b.size
		FROM fileblocks fb
		JOIN blocks b ON b.project_id = fb.project_id AND b.vault_id = fb.vault_id AND b.block_id = fb.block_id
		WHERE fb.project_id = ? AND fb.vault_id = ? AND fb.file_id = ?
		ORDER BY fb.offset`,
		string(project), string(vault), file.String())
	if err != nil {
		return 0, nil, sqliteErr(string(project), string(vault), err)
	}
	defer rows.Close()

	var spans []engine.BlockSpan
	for rows.Next() {
		var blockID string
		var offset, size int64
		if err := rows.Scan(&blockID, &offset, &size); err != nil {
			return 0, nil, sqliteErr(string(project), string(vault), err)
		}
		spans = append(spans, engine.BlockSpan{BlockID: ids.BlockID(blockID), Offset: offset, Size: size})
	}
	if err := rows.Err(); err != nil {
		return 0, nil, sqliteErr(string(project), string(vault), err)
	}

	return assignedCount, spans, nil
}
