// Package memstore is an in-memory implementation of store.Store, used for
// tests and as the "null" backend referenced in spec.md's design notes.
// It carries no third-party dependency: there is no in-memory KV library in
// the reference corpus to reach for, and a mutex-guarded map is the correct
// idiomatic backend here, mirroring the reference indexer's own
// sync.RWMutex-guarded maps (internal/electrum/status_cache.go).
package memstore

import (
	"sync"

	"github.com/ripsline/btcwatch/internal/scripthash"
	"github.com/ripsline/btcwatch/internal/store"
)

// Store is a thread-safe in-memory store.Store.
type Store struct {
	mu sync.RWMutex

	addresses   map[scripthash.ScriptHash]*store.Address
	transactions map[[32]byte]*store.Transaction
	descriptors []*store.DescriptorRecord
	descIndex   map[string]int

	stats store.Stats
}

// New returns an empty in-memory store with cache height -1 (no blocks
// processed).
func New() *Store {
	return &Store{
		addresses:    make(map[scripthash.ScriptHash]*store.Address),
		transactions: make(map[[32]byte]*store.Transaction),
		descIndex:    make(map[string]int),
		stats:        store.Stats{CacheHeight: -1, SchemaVersion: store.SchemaVersion},
	}
}

func cloneAddress(a *store.Address) *store.Address {
	out := &store.Address{
		ScriptHash: a.ScriptHash,
		Script:     append([]byte(nil), a.Script...),
		Balance:    a.Balance,
	}
	out.Transactions = append([][32]byte(nil), a.Transactions...)
	out.UTXOs = append([]store.OutPoint(nil), a.UTXOs...)
	return out
}

func cloneTransaction(t *store.Transaction) *store.Transaction {
	out := &store.Transaction{
		Txid:     t.Txid,
		Raw:      append([]byte(nil), t.Raw...),
		Height:   t.Height,
		Position: t.Position,
	}
	if t.MerkleBlock != nil {
		mb := &store.MerkleProof{Position: t.MerkleBlock.Position}
		mb.Siblings = append([][32]byte(nil), t.MerkleBlock.Siblings...)
		out.MerkleBlock = mb
	}
	return out
}

// SaveAddress implements store.Store.
func (s *Store) SaveAddress(addr *store.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addresses[addr.ScriptHash] = cloneAddress(addr)
	return nil
}

// UpdateAddress implements store.Store.
func (s *Store) UpdateAddress(addr *store.Address) error {
	return s.SaveAddress(addr)
}

// LoadAllAddresses implements store.Store.
func (s *Store) LoadAllAddresses() ([]*store.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*store.Address, 0, len(s.addresses))
	for _, a := range s.addresses {
		out = append(out, cloneAddress(a))
	}
	return out, nil
}

// GetCacheHeight implements store.Store.
func (s *Store) GetCacheHeight() (int32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats.CacheHeight, nil
}

// SetCacheHeight implements store.Store.
func (s *Store) SetCacheHeight(height int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.CacheHeight = height
	return nil
}

// SaveDescriptor implements store.Store.
func (s *Store) SaveDescriptor(rec *store.DescriptorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.descIndex[rec.Expression]; ok {
		cp := *rec
		s.descriptors[idx] = &cp
		return nil
	}

	cp := *rec
	s.descIndex[rec.Expression] = len(s.descriptors)
	s.descriptors = append(s.descriptors, &cp)
	return nil
}

// ListDescriptors implements store.Store.
func (s *Store) ListDescriptors() ([]*store.DescriptorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*store.DescriptorRecord, len(s.descriptors))
	for i, d := range s.descriptors {
		cp := *d
		out[i] = &cp
	}
	return out, nil
}

// GetTransaction implements store.Store.
func (s *Store) GetTransaction(txid [32]byte) (*store.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[txid]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTransaction(tx), nil
}

// SaveTransaction implements store.Store.
func (s *Store) SaveTransaction(tx *store.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions[tx.Txid] = cloneTransaction(tx)
	return nil
}

// ListTransactions implements store.Store.
func (s *Store) ListTransactions() ([]*store.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*store.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		out = append(out, cloneTransaction(t))
	}
	return out, nil
}

// GetStats implements store.Store.
func (s *Store) GetStats() (*store.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := s.stats
	return &cp, nil
}

// SaveStats implements store.Store.
func (s *Store) SaveStats(st *store.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = *st
	return nil
}

// Close implements store.Store. The in-memory backend owns no resources.
func (s *Store) Close() error {
	return nil
}
