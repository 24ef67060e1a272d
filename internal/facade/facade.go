// Package facade wraps the inner cache.Cache with a single sync.RWMutex,
// following the reader/writer split in internal/electrum's StatusCache:
// writers (block processing, descriptor registration) take the write lock,
// readers (balance/history/UTXO/proof queries) take the read lock. No lock
// is ever held across storage I/O beyond what cache.Cache itself performs
// under the hood — the façade only serializes access to the Cache, it does
// not introduce additional I/O.
package facade

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"

	"github.com/ripsline/btcwatch/internal/cache"
	"github.com/ripsline/btcwatch/internal/scripthash"
	"github.com/ripsline/btcwatch/internal/store"
)

// Facade is the thread-safe entry point used by every caller outside this
// module: the block consumer, the RPC adapter, and any future transport.
type Facade struct {
	mu sync.RWMutex
	c  *cache.Cache
}

// New constructs a Facade around a freshly rehydrated cache.Cache.
func New(st store.Store, network *chaincfg.Params, gapLimit uint32) (*Facade, error) {
	c, err := cache.New(st, network, gapLimit)
	if err != nil {
		return nil, err
	}
	return &Facade{c: c}, nil
}

// ProcessBlock runs the credit/debit reconciliation for block under the
// write lock.
func (f *Facade) ProcessBlock(block *wire.MsgBlock, height int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.c.ProcessBlock(block, height)
}

// PushDescriptor parses, registers, and immediately derives expr under the
// write lock.
func (f *Facade) PushDescriptor(expr string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.c.PushDescriptor(expr)
}

// DeriveAddresses forces extra derivation on an already-registered
// descriptor under the write lock.
func (f *Facade) DeriveAddresses(descriptorIndex int, count uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.c.DeriveAddresses(descriptorIndex, count)
}

// CacheAddress registers a raw output script for tracking under the write
// lock.
func (f *Facade) CacheAddress(script []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.c.CacheAddress(script)
}

// CacheHeight returns the last fully processed block height.
func (f *Facade) CacheHeight() int32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.c.CacheHeight()
}

// ListDescriptors returns every registered descriptor's canonical
// expression, in registration order.
func (f *Facade) ListDescriptors() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.c.ListDescriptors()
}

// GetAddressBalance returns h's current balance, or 0 if h is unknown.
func (f *Facade) GetAddressBalance(h scripthash.ScriptHash) uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.c.GetAddressBalance(h)
}

// GetAddressHistory returns h's transaction history in chain order.
func (f *Facade) GetAddressHistory(h scripthash.ScriptHash) []cache.HistoryEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.c.GetAddressHistory(h)
}

// GetAddressUTXOs returns h's currently unspent outpoints.
func (f *Facade) GetAddressUTXOs(h scripthash.ScriptHash) []store.OutPoint {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.c.GetAddressUTXOs(h)
}

// GetMerkleProof returns the cached inclusion proof for txid, if any.
func (f *Facade) GetMerkleProof(txid [32]byte) (*store.MerkleProof, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.c.GetMerkleProof(txid)
}

// GetCachedTransaction returns the cached transaction record for txid.
func (f *Facade) GetCachedTransaction(txid [32]byte) (*store.Transaction, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.c.GetCachedTransaction(txid)
}
