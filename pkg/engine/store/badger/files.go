package badger

import (
	"context"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/deuce/internal/ids"
	"github.com/marmos91/deuce/pkg/engine"
)

// CreateFile allocates a fresh file id in the Open state.
func (s *Store) CreateFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID) (ids.FileID, error) {
	if err := ctx.Err(); err != nil {
		return ids.FileID{}, err
	}

	id := ids.NewFileID()
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(keyVault(project, vault)); err == badgerdb.ErrKeyNotFound {
			return engine.NewNotFoundError(string(project), string(vault), "vault not found")
		} else if err != nil {
			return err
		}
		return txn.Set(keyFile(project, vault, id), encodeFile(fileRecord{Finalized: false}))
	})
	if err != nil {
		return ids.FileID{}, translateTxnErr(project, vault, err)
	}
	return id, nil
}

func getFileRecordTxn(txn *badgerdb.Txn, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (fileRecord, error) {
	item, err := txn.Get(keyFile(project, vault, file))
	if err == badgerdb.ErrKeyNotFound {
		return fileRecord{}, engine.NewNotFoundError(string(project), string(vault), "file not found")
	}
	if err != nil {
		return fileRecord{}, err
	}
	var rec fileRecord
	err = item.Value(func(val []byte) error {
		r, decErr := decodeFile(val)
		if decErr != nil {
			return decErr
		}
		rec = r
		return nil
	})
	return rec, err
}

// HasFile reports whether the file id exists, in any state.
func (s *Store) HasFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var found bool
	err := s.db.View(func(txn *badgerdb.Txn) error {
		_, err := getFileRecordTxn(txn, project, vault, file)
		if engine.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, badgerErr(string(project), string(vault), err)
	}
	return found, nil
}

// IsFinalized reports whether the file has completed finalization.
func (s *Store) IsFinalized(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var finalized bool
	err := s.db.View(func(txn *badgerdb.Txn) error {
		rec, err := getFileRecordTxn(txn, project, vault, file)
		if err != nil {
			return err
		}
		finalized = rec.Finalized
		return nil
	})
	return finalized, translateTxnErr(project, vault, err)
}

// FileLength returns the sum of sizes of the file's assigned, registered
// blocks.
func (s *Store) FileLength(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var total int64
	err := s.db.View(func(txn *badgerdb.Txn) error {
		if _, err := getFileRecordTxn(txn, project, vault, file); err != nil {
			return err
		}

		prefix := keyAssignmentPrefix(project, vault, file)
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var blockID string
			if err := it.Item().Value(func(val []byte) error {
				rec, decErr := decodeAssignment(val)
				if decErr != nil {
					return decErr
				}
				blockID = rec.BlockID
				return nil
			}); err != nil {
				return err
			}

			blockItem, err := txn.Get(keyBlock(project, vault, ids.BlockID(blockID)))
			if err == badgerdb.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			if err := blockItem.Value(func(val []byte) error {
				rec, decErr := decodeBlock(val)
				if decErr != nil {
					return decErr
				}
				total += rec.Size
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, translateTxnErr(project, vault, err)
	}
	return total, nil
}

// DeleteFile removes the file and all of its assignments, decrementing
// the refcount of every block it referenced in the same transaction.
// Idempotent: deleting a file that does not exist is a no-op success.
func (s *Store) DeleteFile(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(keyFile(project, vault, file)); err == badgerdb.ErrKeyNotFound {
			return nil
		} else if err != nil {
			return err
		}

		prefix := keyAssignmentPrefix(project, vault, file)
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)

		var keys [][]byte
		var blockIDs []ids.BlockID
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := append([]byte{}, item.Key()...)
			var blockID string
			if err := item.Value(func(val []byte) error {
				rec, decErr := decodeAssignment(val)
				if decErr != nil {
					return decErr
				}
				blockID = rec.BlockID
				return nil
			}); err != nil {
				it.Close()
				return err
			}
			keys = append(keys, key)
			blockIDs = append(blockIDs, ids.BlockID(blockID))
		}
		it.Close()

		now := time.Now().Unix()
		for _, blockID := range blockIDs {
			if err := adjustBlockRefCountTxn(txn, project, vault, blockID, -1, now); err != nil {
				return err
			}
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}

		return txn.Delete(keyFile(project, vault, file))
	})
	return translateTxnErr(project, vault, err)
}

// ListFiles returns up to limit file ids matching the finalized filter,
// ordered by file id, starting strictly after marker.
func (s *Store) ListFiles(ctx context.Context, project ids.ProjectID, vault ids.VaultID, marker *ids.FileID, limit int, finalized bool) ([]ids.FileID, *ids.FileID, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	effective := engine.ClampLimit(limit, s.cfg.EffectiveMaxReturnNum())
	prefix := keyFilePrefix(project, vault)

	var all []ids.FileID
	err := s.db.View(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(keyVault(project, vault)); err == badgerdb.ErrKeyNotFound {
			return engine.NewNotFoundError(string(project), string(vault), "vault not found")
		} else if err != nil {
			return err
		}

		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := prefix
		if marker != nil {
			seek = keyFile(project, vault, *marker)
		}
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(all) <= effective; it.Next() {
			item := it.Item()
			raw := decodeIDSuffix(item.Key(), prefix)
			if marker != nil && raw == marker.String() {
				continue
			}

			var rec fileRecord
			if err := item.Value(func(val []byte) error {
				r, decErr := decodeFile(val)
				if decErr != nil {
					return decErr
				}
				rec = r
				return nil
			}); err != nil {
				return err
			}
			if rec.Finalized != finalized {
				continue
			}

			id, err := ids.ParseFileID(raw)
			if err != nil {
				return err
			}
			all = append(all, id)
		}
		return nil
	})
	if err != nil {
		return nil, nil, translateTxnErr(project, vault, err)
	}

	page, next := engine.Paginate(all, effective, func(f ids.FileID) string { return f.String() })
	if next == nil {
		return page, nil, nil
	}
	nextID, err := ids.ParseFileID(*next)
	if err != nil {
		return nil, nil, badgerErr(string(project), string(vault), err)
	}
	return page, &nextID, nil
}

// AssignBlock inserts or replaces the assignment at offset, adjusting
// block refcounts in the same transaction as the assignment write.
func (s *Store) AssignBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID, block ids.BlockID, offset int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().Unix()
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		rec, err := getFileRecordTxn(txn, project, vault, file)
		if err != nil {
			return err
		}
		if rec.Finalized {
			return engine.NewAlreadyFinalizedError(string(project), string(vault))
		}

		key := keyAssignment(project, vault, file, offset)
		var previous *string
		item, err := txn.Get(key)
		if err == nil {
			if err := item.Value(func(val []byte) error {
				a, decErr := decodeAssignment(val)
				if decErr != nil {
					return decErr
				}
				previous = &a.BlockID
				return nil
			}); err != nil {
				return err
			}
		} else if err != badgerdb.ErrKeyNotFound {
			return err
		}

		if previous != nil && *previous == string(block) {
			return nil
		}

		if previous != nil {
			if err := adjustBlockRefCountTxn(txn, project, vault, ids.BlockID(*previous), -1, now); err != nil {
				return err
			}
		}
		if err := adjustBlockRefCountTxn(txn, project, vault, block, 1, now); err != nil {
			return err
		}

		return txn.Set(key, encodeAssignment(assignmentRecord{BlockID: string(block), Mtime: now}))
	})
	return translateTxnErr(project, vault, err)
}

// ListFileBlocks returns up to limit (block_id, offset) assignments
// ordered by offset ascending, starting at offsetMarker (inclusive). A
// single forward iterator range scan over the fixed-width big-endian
// offset suffix yields numeric order directly.
func (s *Store) ListFileBlocks(ctx context.Context, project ids.ProjectID, vault ids.VaultID, file ids.FileID, offsetMarker *int64, limit int) ([]engine.BlockAssignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	effective := engine.ClampLimit(limit, s.cfg.EffectiveMaxReturnNum())
	prefix := keyAssignmentPrefix(project, vault, file)

	var all []engine.BlockAssignment
	err := s.db.View(func(txn *badgerdb.Txn) error {
		if _, err := getFileRecordTxn(txn, project, vault, file); err != nil {
			return err
		}

		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := prefix
		if offsetMarker != nil {
			seek = keyAssignmentAt(project, vault, file, *offsetMarker)
		}
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(all) < effective+1; it.Next() {
			item := it.Item()
			offset := decodeOffset(item.Key()[len(prefix):])

			var rec assignmentRecord
			if err := item.Value(func(val []byte) error {
				r, decErr := decodeAssignment(val)
				if decErr != nil {
					return decErr
				}
				rec = r
				return nil
			}); err != nil {
				return err
			}
			all = append(all, engine.BlockAssignment{FileID: file, BlockID: ids.BlockID(rec.BlockID), Offset: offset})
		}
		return nil
	})
	if err != nil {
		return nil, translateTxnErr(project, vault, err)
	}

	if len(all) > effective {
		all = all[:effective]
	}
	return all, nil
}
