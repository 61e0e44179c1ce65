package badger

import (
	"context"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/deuce/internal/ids"
	"github.com/marmos91/deuce/pkg/engine"
)

func vaultPrefix(project ids.ProjectID) []byte {
	return stem(prefixVault, string(project))
}

// ListVaults returns up to limit vault ids for project, lexicographically
// ordered, starting strictly after marker.
func (s *Store) ListVaults(ctx context.Context, project ids.ProjectID, marker *ids.VaultID, limit int) ([]ids.VaultID, *ids.VaultID, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	effective := engine.ClampLimit(limit, s.cfg.EffectiveMaxReturnNum())
	prefix := vaultPrefix(project)

	var all []ids.VaultID
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := prefix
		if marker != nil {
			seek = keyVault(project, *marker)
		}
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(all) <= effective; it.Next() {
			v := decodeIDSuffix(it.Item().Key(), prefix)
			if marker != nil && v == string(*marker) {
				continue
			}
			all = append(all, ids.VaultID(v))
		}
		return nil
	})
	if err != nil {
		return nil, nil, badgerErr(string(project), "", err)
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
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keyVault(project, vault), []byte{})
	})
	if err != nil {
		return badgerErr(string(project), string(vault), err)
	}
	return nil
}

// DeleteVault removes an empty vault. Fails with ErrConstraint if the
// vault still holds any file or block.
func (s *Store) DeleteVault(ctx context.Context, project ids.ProjectID, vault ids.VaultID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(keyVault(project, vault)); err == badgerdb.ErrKeyNotFound {
			return engine.NewNotFoundError(string(project), string(vault), "vault not found")
		} else if err != nil {
			return err
		}

		fileCount, blockCount, err := vaultContentsTxn(txn, project, vault)
		if err != nil {
			return err
		}
		if fileCount > 0 || blockCount > 0 {
			return engine.NewConstraintError(string(project), string(vault), "vault is not empty")
		}

		return txn.Delete(keyVault(project, vault))
	})
	return translateTxnErr(project, vault, err)
}

// VaultStatistics summarizes the vault's current files, blocks, and the
// total registered size of those blocks.
func (s *Store) VaultStatistics(ctx context.Context, project ids.ProjectID, vault ids.VaultID) (engine.VaultStats, error) {
	if err := ctx.Err(); err != nil {
		return engine.VaultStats{}, err
	}

	var stats engine.VaultStats
	err := s.db.View(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(keyVault(project, vault)); err == badgerdb.ErrKeyNotFound {
			return engine.NewNotFoundError(string(project), string(vault), "vault not found")
		} else if err != nil {
			return err
		}

		fileCount, blockCount, err := vaultContentsTxn(txn, project, vault)
		if err != nil {
			return err
		}

		var totalSize int64
		prefix := keyBlockPrefix(project, vault)
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				rec, err := decodeBlock(val)
				if err != nil {
					return err
				}
				totalSize += rec.Size
				return nil
			})
			if err != nil {
				return err
			}
		}

		stats = engine.VaultStats{FileCount: fileCount, BlockCount: blockCount, TotalSize: totalSize}
		return nil
	})
	if err != nil {
		return engine.VaultStats{}, translateTxnErr(project, vault, err)
	}
	return stats, nil
}

// vaultContentsTxn counts the files and blocks in a vault within an
// already-open transaction.
func vaultContentsTxn(txn *badgerdb.Txn, project ids.ProjectID, vault ids.VaultID) (int64, int64, error) {
	var fileCount int64
	filePrefix := keyFilePrefix(project, vault)
	fileOpts := badgerdb.DefaultIteratorOptions
	fileOpts.Prefix = filePrefix
	fileOpts.PrefetchValues = false
	fileIt := txn.NewIterator(fileOpts)
	for fileIt.Seek(filePrefix); fileIt.ValidForPrefix(filePrefix); fileIt.Next() {
		fileCount++
	}
	fileIt.Close()

	var blockCount int64
	blockPrefix := keyBlockPrefix(project, vault)
	blockOpts := badgerdb.DefaultIteratorOptions
	blockOpts.Prefix = blockPrefix
	blockOpts.PrefetchValues = false
	blockIt := txn.NewIterator(blockOpts)
	for blockIt.Seek(blockPrefix); blockIt.ValidForPrefix(blockPrefix); blockIt.Next() {
		blockCount++
	}
	blockIt.Close()

	return fileCount, blockCount, nil
}

// translateTxnErr wraps a non-engine error from inside a Badger
// transaction as a backend error, passing engine errors through
// unchanged.
func translateTxnErr(project ids.ProjectID, vault ids.VaultID, err error) error {
	if err == nil {
		return nil
	}
	if engine.IsNotFound(err) || engine.IsConstraint(err) || engine.IsAlreadyFinalized(err) {
		return err
	}
	return badgerErr(string(project), string(vault), err)
}
