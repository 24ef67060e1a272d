// Package kv is the Pebble-backed store.Store implementation: the durable
// default used by cmd/btcwatchd, grounded on the reference indexer's
// internal/storage package (same Options tuning, same Sync-on-write
// discipline, same prefix-iteration idiom).
package kv

import (
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/ripsline/btcwatch/internal/store"
)

// Store is a pebble.DB-backed store.Store.
type Store struct {
	db    *pebble.DB
	path  string
	cache *pebble.Cache
}

// Open opens (creating if absent) a Pebble database at path, tuned the same
// way as the reference indexer: a shared block cache, Snappy compression on
// the top levels and Zstd on the rest, and the newest on-disk format.
func Open(path string) (*Store, error) {
	cache := pebble.NewCache(256 << 20)

	opts := &pebble.Options{
		Cache: cache,

		MemTableSize: 64 << 20,

		Levels: []pebble.LevelOptions{
			{Compression: pebble.SnappyCompression},
			{Compression: pebble.SnappyCompression},
			{Compression: pebble.ZstdCompression},
			{Compression: pebble.ZstdCompression},
			{Compression: pebble.ZstdCompression},
			{Compression: pebble.ZstdCompression},
			{Compression: pebble.ZstdCompression},
		},

		L0CompactionThreshold: 4,
		L0StopWritesThreshold: 12,

		DisableWAL: false,

		FormatMajorVersion: pebble.FormatNewest,
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		cache.Unref()
		return nil, fmt.Errorf("%w: open pebble database at %s: %v", store.ErrStore, path, err)
	}

	return &Store{db: db, path: path, cache: cache}, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: close pebble database: %v", store.ErrStore, err)
	}
	s.db = nil

	if s.cache != nil {
		s.cache.Unref()
		s.cache = nil
	}

	return nil
}

// SaveAddress implements store.Store.
func (s *Store) SaveAddress(addr *store.Address) error {
	key := makeAddressKey(addr.ScriptHash)
	value := encodeAddress(addr)

	if err := s.db.Set(key, value, pebble.Sync); err != nil {
		return fmt.Errorf("%w: save address: %v", store.ErrStore, err)
	}
	return nil
}

// UpdateAddress implements store.Store.
func (s *Store) UpdateAddress(addr *store.Address) error {
	return s.SaveAddress(addr)
}

// LoadAllAddresses implements store.Store.
func (s *Store) LoadAllAddresses() ([]*store.Address, error) {
	iter, err := s.newPrefixIterator(addressPrefix())
	if err != nil {
		return nil, fmt.Errorf("%w: load addresses: %v", store.ErrStore, err)
	}
	defer iter.Close()

	var out []*store.Address
	for iter.First(); iter.Valid(); iter.Next() {
		addr, err := decodeAddress(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("%w: iterate addresses: %v", store.ErrStore, err)
	}
	return out, nil
}

// GetCacheHeight implements store.Store.
func (s *Store) GetCacheHeight() (int32, error) {
	st, err := s.GetStats()
	if err != nil {
		return 0, err
	}
	return st.CacheHeight, nil
}

// SetCacheHeight implements store.Store.
func (s *Store) SetCacheHeight(height int32) error {
	st, err := s.GetStats()
	if err != nil {
		return err
	}
	st.CacheHeight = height
	return s.SaveStats(st)
}

// SaveDescriptor implements store.Store.
//
// Descriptors are keyed by a big-endian insertion-order counter so
// ListDescriptors naturally returns them in insertion order via a prefix
// scan; re-saving an expression already on disk overwrites its existing
// slot instead of appending a duplicate.
func (s *Store) SaveDescriptor(rec *store.DescriptorRecord) error {
	existing, err := s.ListDescriptors()
	if err != nil {
		return err
	}

	order := uint32(len(existing))
	for i, d := range existing {
		if d.Expression == rec.Expression {
			order = uint32(i)
			break
		}
	}

	value, err := encodeDescriptor(rec)
	if err != nil {
		return fmt.Errorf("%w: encode descriptor: %v", store.ErrStore, err)
	}

	if err := s.db.Set(makeDescriptorKey(order), value, pebble.Sync); err != nil {
		return fmt.Errorf("%w: save descriptor: %v", store.ErrStore, err)
	}
	return nil
}

// ListDescriptors implements store.Store.
func (s *Store) ListDescriptors() ([]*store.DescriptorRecord, error) {
	iter, err := s.newPrefixIterator(descriptorPrefix())
	if err != nil {
		return nil, fmt.Errorf("%w: list descriptors: %v", store.ErrStore, err)
	}
	defer iter.Close()

	var out []*store.DescriptorRecord
	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeDescriptor(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("%w: iterate descriptors: %v", store.ErrStore, err)
	}
	return out, nil
}

// GetTransaction implements store.Store.
func (s *Store) GetTransaction(txid [32]byte) (*store.Transaction, error) {
	value, closer, err := s.db.Get(makeTransactionKey(txid))
	if err == pebble.ErrNotFound {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get transaction: %v", store.ErrStore, err)
	}
	defer closer.Close()

	return decodeTransaction(value)
}

// SaveTransaction implements store.Store.
func (s *Store) SaveTransaction(tx *store.Transaction) error {
	value, err := encodeTransaction(tx)
	if err != nil {
		return fmt.Errorf("%w: encode transaction: %v", store.ErrStore, err)
	}

	if err := s.db.Set(makeTransactionKey(tx.Txid), value, pebble.Sync); err != nil {
		return fmt.Errorf("%w: save transaction: %v", store.ErrStore, err)
	}
	return nil
}

// ListTransactions implements store.Store.
func (s *Store) ListTransactions() ([]*store.Transaction, error) {
	iter, err := s.newPrefixIterator(transactionPrefix())
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %v", store.ErrStore, err)
	}
	defer iter.Close()

	var out []*store.Transaction
	for iter.First(); iter.Valid(); iter.Next() {
		tx, err := decodeTransaction(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("%w: iterate transactions: %v", store.ErrStore, err)
	}
	return out, nil
}

// GetStats implements store.Store.
func (s *Store) GetStats() (*store.Stats, error) {
	value, closer, err := s.db.Get([]byte(keyStats))
	if err == pebble.ErrNotFound {
		return &store.Stats{CacheHeight: -1, SchemaVersion: store.SchemaVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get stats: %v", store.ErrStore, err)
	}
	defer closer.Close()

	return decodeStats(value)
}

// SaveStats implements store.Store.
func (s *Store) SaveStats(st *store.Stats) error {
	value, err := encodeStats(st)
	if err != nil {
		return fmt.Errorf("%w: encode stats: %v", store.ErrStore, err)
	}

	if err := s.db.Set([]byte(keyStats), value, pebble.Sync); err != nil {
		return fmt.Errorf("%w: save stats: %v", store.ErrStore, err)
	}
	return nil
}

func (s *Store) newPrefixIterator(prefix []byte) (*pebble.Iterator, error) {
	return s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
}
