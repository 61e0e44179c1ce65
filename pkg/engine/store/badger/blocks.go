package badger

import (
	"context"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/deuce/internal/ids"
	"github.com/marmos91/deuce/pkg/engine"
)

func getBlockRecordTxn(txn *badgerdb.Txn, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (blockRecord, error) {
	item, err := txn.Get(keyBlock(project, vault, block))
	if err == badgerdb.ErrKeyNotFound {
		return blockRecord{}, engine.NewNotFoundError(string(project), string(vault), "block not found")
	}
	if err != nil {
		return blockRecord{}, err
	}
	var rec blockRecord
	err = item.Value(func(val []byte) error {
		r, decErr := decodeBlock(val)
		if decErr != nil {
			return decErr
		}
		rec = r
		return nil
	})
	return rec, err
}

// getRefcountRecordTxn reads a block's standalone refcount counter. A
// missing key is not an error: it means no assignment has ever touched
// this block id, so the zero-value record (count 0) is returned.
func getRefcountRecordTxn(txn *badgerdb.Txn, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (refcountRecord, error) {
	item, err := txn.Get(keyRefcount(project, vault, block))
	if err == badgerdb.ErrKeyNotFound {
		return refcountRecord{}, nil
	}
	if err != nil {
		return refcountRecord{}, err
	}
	var rec refcountRecord
	err = item.Value(func(val []byte) error {
		r, decErr := decodeRefcount(val)
		if decErr != nil {
			return decErr
		}
		rec = r
		return nil
	})
	return rec, err
}

// adjustBlockRefCountTxn adds delta to the block's standalone refcount
// counter and bumps its modified timestamp, within an already-open
// transaction. This counter is tracked regardless of whether the block
// is currently registered, so that an AssignBlock preceding the matching
// RegisterBlock still counts.
func adjustBlockRefCountTxn(txn *badgerdb.Txn, project ids.ProjectID, vault ids.VaultID, block ids.BlockID, delta int64, mtime int64) error {
	rec, err := getRefcountRecordTxn(txn, project, vault, block)
	if err != nil {
		return err
	}
	rec.Count += delta
	if rec.Count < 0 {
		rec.Count = 0
	}
	rec.Modified = mtime
	return txn.Set(keyRefcount(project, vault, block), encodeRefcount(rec))
}

// RegisterBlock idempotently replaces the (vault, block) record. A
// re-registration with a storage id that differs from the existing one,
// or a storage id already bound to a different block, is rejected with
// ErrConstraint -- the storage_id <-> block_id bijection holds per vault.
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

	now := time.Now().Unix()
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(keyVault(project, vault)); err == badgerdb.ErrKeyNotFound {
			return engine.NewNotFoundError(string(project), string(vault), "vault not found")
		} else if err != nil {
			return err
		}

		existing, err := getBlockRecordTxn(txn, project, vault, block)
		if err != nil && !engine.IsNotFound(err) {
			return err
		}
		if err == nil {
			if existing.StorageID != string(storage) {
				return engine.NewConstraintError(string(project), string(vault), "block already registered with a different storage id")
			}
			existing.Size = size
			return txn.Set(keyBlock(project, vault, block), encodeBlock(existing))
		}

		if ownerItem, err := txn.Get(keyReverse(project, vault, storage)); err == nil {
			var owner string
			if verr := ownerItem.Value(func(val []byte) error {
				owner = string(val)
				return nil
			}); verr != nil {
				return verr
			}
			if owner != string(block) {
				return engine.NewConstraintError(string(project), string(vault), "storage id already bound to a different block")
			}
		} else if err != badgerdb.ErrKeyNotFound {
			return err
		}

		rec := blockRecord{StorageID: string(storage), Size: size}
		if err := txn.Set(keyBlock(project, vault, block), encodeBlock(rec)); err != nil {
			return err
		}
		if err := txn.Set(keyReverse(project, vault, storage), []byte(block)); err != nil {
			return err
		}

		// Seed the refcount counter's Modified timestamp if this block id
		// has never been assigned before; adjustBlockRefCountTxn already
		// maintains it once assignments start touching this block.
		refRec, err := getRefcountRecordTxn(txn, project, vault, block)
		if err != nil {
			return err
		}
		if refRec.Modified == 0 {
			refRec.Modified = now
			return txn.Set(keyRefcount(project, vault, block), encodeRefcount(refRec))
		}
		return nil
	})
	return translateTxnErr(project, vault, err)
}

// HasBlock reports whether the block is registered.
func (s *Store) HasBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var found bool
	err := s.db.View(func(txn *badgerdb.Txn) error {
		_, err := getBlockRecordTxn(txn, project, vault, block)
		if engine.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, translateTxnErr(project, vault, err)
}

// GetBlockSize returns a registered block's size.
func (s *Store) GetBlockSize(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var size int64
	err := s.db.View(func(txn *badgerdb.Txn) error {
		rec, err := getBlockRecordTxn(txn, project, vault, block)
		if err != nil {
			return err
		}
		size = rec.Size
		return nil
	})
	return size, translateTxnErr(project, vault, err)
}

// GetBlockStorageID returns the storage id for a registered block.
func (s *Store) GetBlockStorageID(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (ids.StorageID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var storage string
	err := s.db.View(func(txn *badgerdb.Txn) error {
		rec, err := getBlockRecordTxn(txn, project, vault, block)
		if err != nil {
			return err
		}
		storage = rec.StorageID
		return nil
	})
	return ids.StorageID(storage), translateTxnErr(project, vault, err)
}

// GetBlockMetadataID is the inverse lookup of GetBlockStorageID, served
// by the reverse index.
func (s *Store) GetBlockMetadataID(ctx context.Context, project ids.ProjectID, vault ids.VaultID, storage ids.StorageID) (ids.BlockID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var block string
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keyReverse(project, vault, storage))
		if err == badgerdb.ErrKeyNotFound {
			return engine.NewNotFoundError(string(project), string(vault), "storage id not found")
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			block = string(val)
			return nil
		})
	})
	return ids.BlockID(block), translateTxnErr(project, vault, err)
}

// UnregisterBlock removes a block's metadata record and reverse index
// entry. Fails with ErrConstraint unless the block's refcount is zero.
func (s *Store) UnregisterBlock(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		rec, err := getBlockRecordTxn(txn, project, vault, block)
		if err != nil {
			return err
		}
		refRec, err := getRefcountRecordTxn(txn, project, vault, block)
		if err != nil {
			return err
		}
		if refRec.Count != 0 {
			return engine.NewConstraintError(string(project), string(vault), "block is still referenced")
		}
		if err := txn.Delete(keyReverse(project, vault, ids.StorageID(rec.StorageID))); err != nil {
			return err
		}
		if err := txn.Delete(keyRefcount(project, vault, block)); err != nil {
			return err
		}
		return txn.Delete(keyBlock(project, vault, block))
	})
	return translateTxnErr(project, vault, err)
}

// ListBlocks returns up to limit block ids in lexicographic order,
// starting strictly after marker.
func (s *Store) ListBlocks(ctx context.Context, project ids.ProjectID, vault ids.VaultID, marker *ids.BlockID, limit int) ([]ids.BlockID, *ids.BlockID, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	effective := engine.ClampLimit(limit, s.cfg.EffectiveMaxReturnNum())
	prefix := keyBlockPrefix(project, vault)

	var all []ids.BlockID
	err := s.db.View(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(keyVault(project, vault)); err == badgerdb.ErrKeyNotFound {
			return engine.NewNotFoundError(string(project), string(vault), "vault not found")
		} else if err != nil {
			return err
		}

		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := prefix
		if marker != nil {
			seek = keyBlock(project, vault, *marker)
		}
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(all) <= effective; it.Next() {
			b := decodeIDSuffix(it.Item().Key(), prefix)
			if marker != nil && b == string(*marker) {
				continue
			}
			all = append(all, ids.BlockID(b))
		}
		return nil
	})
	if err != nil {
		return nil, nil, translateTxnErr(project, vault, err)
	}

	page, next := engine.Paginate(all, effective, func(b ids.BlockID) string { return string(b) })
	if next == nil {
		return page, nil, nil
	}
	nextID := ids.BlockID(*next)
	return page, &nextID, nil
}

// BlockRefCount returns the standalone counter maintained alongside the
// block record, or nil if the block is not registered. The counter
// itself accumulates regardless of registration (see
// adjustBlockRefCountTxn), so a block assigned before it is registered
// reports its correct, non-zero count the moment RegisterBlock runs.
func (s *Store) BlockRefCount(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (*int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var count *int64
	err := s.db.View(func(txn *badgerdb.Txn) error {
		_, err := getBlockRecordTxn(txn, project, vault, block)
		if engine.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		refRec, err := getRefcountRecordTxn(txn, project, vault, block)
		if err != nil {
			return err
		}
		c := refRec.Count
		count = &c
		return nil
	})
	return count, translateTxnErr(project, vault, err)
}

// BlockRefModified returns the unix timestamp of the last refcount
// change for the block.
func (s *Store) BlockRefModified(ctx context.Context, project ids.ProjectID, vault ids.VaultID, block ids.BlockID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var modified int64
	err := s.db.View(func(txn *badgerdb.Txn) error {
		if _, err := getBlockRecordTxn(txn, project, vault, block); err != nil {
			return err
		}
		refRec, err := getRefcountRecordTxn(txn, project, vault, block)
		if err != nil {
			return err
		}
		modified = refRec.Modified
		return nil
	})
	return modified, translateTxnErr(project, vault, err)
}
