package memory

import (
	"context"

	"github.com/marmos91/deuce/internal/ids"
	"github.com/marmos91/deuce/pkg/engine"
)

// FinalizeFile runs the finalization validator against the file's
// assignment stream and, on success, transitions the file to Finalized
// atomically with the validating read (both happen under s.mu).
func (s *Store) FinalizeFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID, fileSize *int64) ([]engine.Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := vkey(project, vault)
	rec, exists := s.files[key][file]
	if !exists {
		return nil, engine.NewNotFoundError(string(project), string(vault), "file not found")
	}
	if rec.finalized {
		return nil, engine.NewAlreadyFinalizedError(string(project), string(vault))
	}

	for _, blockID := range s.assignments[key][file] {
		if _, registered := s.blocks[key][blockID]; !registered {
			return nil, engine.NewConstraintError(string(project), string(vault), "file references an unregistered block")
		}
	}

	diagnostics := engine.Finalize(s.sortedAssignments(key, file), fileSize)
	if len(diagnostics) > 0 {
		return diagnostics, nil
	}

	rec.finalized = true
	return nil, nil
}
