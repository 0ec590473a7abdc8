// ABOUTME: BadgerDB backend matching the charm/kv.KV surface
// ABOUTME: Serves local-only stores and isolated test clients
package charm

import (
	"github.com/dgraph-io/badger/v3"
)

type badgerKV struct {
	db *badger.DB
}

func (b *badgerKV) Get(key []byte) ([]byte, error) {
	var result []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	return result, err
}

func (b *badgerKV) Set(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (b *badgerKV) Delete(key []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (b *badgerKV) Keys() ([][]byte, error) {
	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

// Sync is a no-op: there is no remote.
func (b *badgerKV) Sync() error {
	return nil
}

func (b *badgerKV) Reset() error {
	return b.db.DropAll()
}
