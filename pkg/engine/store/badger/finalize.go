package badger

import (
	"context"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/deuce/internal/ids"
	"github.com/marmos91/deuce/pkg/engine"
)

// FinalizeFile reads the file's assignment range in one forward scan,
// runs the validator, and on success writes finalized=true in the same
// transaction that read the file record. A
// concurrent finalize racing the same file trips Badger's serializable
// conflict detection on commit, which this method reports to the caller
// as ErrAlreadyFinalized rather than a backend error, since that is the
// only reason two finalizes of the same file can conflict.
func (s *Store) FinalizeFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID, fileSize *int64) ([]engine.Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var diagnostics []engine.Diagnostic
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		rec, err := getFileRecordTxn(txn, project, vault, file)
		if err != nil {
			return err
		}
		if rec.Finalized {
			return engine.NewAlreadyFinalizedError(string(project), string(vault))
		}

		spans, err := loadFileSpansTxn(txn, project, vault, file)
		if err != nil {
			return err
		}

		diagnostics = engine.Finalize(spans, fileSize)
		if len(diagnostics) > 0 {
			return nil
		}

		rec.Finalized = true
		return txn.Set(keyFile(project, vault, file), encodeFile(rec))
	})
	if err == badgerdb.ErrConflict {
		return nil, engine.NewAlreadyFinalizedError(string(project), string(vault))
	}
	if err != nil {
		return nil, translateTxnErr(project, vault, err)
	}
	return diagnostics, nil
}

// loadFileSpansTxn builds the ordered block-span stream for a file within
// an already-open transaction, failing with ErrConstraint if any
// assignment references a block that was never registered.
func loadFileSpansTxn(txn *badgerdb.Txn, project ids.ProjectID, vault ids.VaultID, file ids.FileID) ([]engine.BlockSpan, error) {
	prefix := keyAssignmentPrefix(project, vault, file)
	opts := badgerdb.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var spans []engine.BlockSpan
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		offset := decodeOffset(item.Key()[len(prefix):])

		var assignment assignmentRecord
		if err := item.Value(func(val []byte) error {
			rec, decErr := decodeAssignment(val)
			if decErr != nil {
				return decErr
			}
			assignment = rec
			return nil
		}); err != nil {
			return nil, err
		}

		blockID := ids.BlockID(assignment.BlockID)
		blockRec, err := getBlockRecordTxn(txn, project, vault, blockID)
		if engine.IsNotFound(err) {
			return nil, engine.NewConstraintError(string(project), string(vault), "file references an unregistered block")
		}
		if err != nil {
			return nil, err
		}

		spans = append(spans, engine.BlockSpan{BlockID: blockID, Offset: offset, Size: blockRec.Size})
	}
	return spans, nil
}
