// Package cache is the inner, non-thread-safe block-processing and
// address-indexing engine: the linked address/script/outpoint/transaction
// indices, descriptor-driven gap-limit address discovery, and the
// per-block credit/debit reconciliation that keeps them consistent. It is
// grounded on the block-processing algorithm in the reference indexer's
// internal/indexer/block.go, generalized from UTXO-set tracking to
// watch-only address tracking.
//
// Cache itself holds no lock: concurrency is the façade's job
// (internal/facade), exactly as the reference indexer separates
// BlockIndexer from the connection-level synchronization in
// internal/electrum/status_cache.go.
package cache

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/ripsline/btcwatch/internal/descriptor"
	"github.com/ripsline/btcwatch/internal/scripthash"
	"github.com/ripsline/btcwatch/internal/store"
)

// DefaultGapLimit is the number of consecutive unused scripts the engine
// keeps derived ahead of the highest used index of every wildcard
// descriptor.
const DefaultGapLimit = 100

// descriptorEntry tracks one single-branch (already `<a;b>`-split) wildcard
// or fixed descriptor and the scripts derived from it so far.
type descriptorEntry struct {
	expression string
	parsed     *descriptor.Descriptor

	// scripts[i] is the ScriptHash derived at index i; for a fixed
	// (non-wildcard) descriptor this holds exactly one entry.
	scripts []scripthash.ScriptHash

	// highestUsed is the highest derivation index ever observed paying a
	// transaction, or -1 if none has been.
	highestUsed int64
}

// scriptLocation records which descriptor (and which derivation index
// within it) owns a derived script, so a block observation can find its
// owning descriptor in O(1) and trigger gap-limit extension.
type scriptLocation struct {
	descriptorIdx int
	derivationIdx uint32
}

// Cache is the inner engine. It is not safe for concurrent use; wrap it
// with internal/facade.Facade.
type Cache struct {
	store    store.Store
	network  *chaincfg.Params
	gapLimit uint32

	addressMap map[scripthash.ScriptHash]*store.Address
	scriptSet  map[scripthash.ScriptHash]struct{}
	utxoIndex  map[store.OutPoint]scripthash.ScriptHash
	txMap      map[[32]byte]*store.Transaction

	descriptors []*descriptorEntry
	scriptOwner map[scripthash.ScriptHash]scriptLocation

	cacheHeight int32
}

// New constructs a Cache and rehydrates every in-memory index from st in a
// single pass, per spec §3's restart contract.
func New(st store.Store, network *chaincfg.Params, gapLimit uint32) (*Cache, error) {
	if gapLimit == 0 {
		gapLimit = DefaultGapLimit
	}

	c := &Cache{
		store:       st,
		network:     network,
		gapLimit:    gapLimit,
		addressMap:  make(map[scripthash.ScriptHash]*store.Address),
		scriptSet:   make(map[scripthash.ScriptHash]struct{}),
		utxoIndex:   make(map[store.OutPoint]scripthash.ScriptHash),
		txMap:       make(map[[32]byte]*store.Transaction),
		scriptOwner: make(map[scripthash.ScriptHash]scriptLocation),
		cacheHeight: -1,
	}

	if err := c.rehydrate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) rehydrate() error {
	stats, err := c.store.GetStats()
	if err != nil {
		return fmt.Errorf("%w: load stats: %v", store.ErrStore, err)
	}
	c.cacheHeight = stats.CacheHeight

	addrs, err := c.store.LoadAllAddresses()
	if err != nil {
		return fmt.Errorf("%w: load addresses: %v", store.ErrStore, err)
	}
	for _, a := range addrs {
		c.addressMap[a.ScriptHash] = a
		c.scriptSet[a.ScriptHash] = struct{}{}
		for _, op := range a.UTXOs {
			c.utxoIndex[op] = a.ScriptHash
		}
	}

	txs, err := c.store.ListTransactions()
	if err != nil {
		return fmt.Errorf("%w: load transactions: %v", store.ErrStore, err)
	}
	for _, tx := range txs {
		c.txMap[tx.Txid] = tx
	}

	records, err := c.store.ListDescriptors()
	if err != nil {
		return fmt.Errorf("%w: load descriptors: %v", store.ErrStore, err)
	}
	for _, rec := range records {
		parsed, err := descriptor.Parse(rec.Expression, c.network)
		if err != nil {
			return fmt.Errorf("%w: re-parse persisted descriptor %q: %v", store.ErrDecode, rec.Expression, err)
		}
		if len(parsed) != 1 {
			return fmt.Errorf("%w: persisted descriptor %q is not single-branch", store.ErrDecode, rec.Expression)
		}

		entry := &descriptorEntry{
			expression:  rec.Expression,
			parsed:      parsed[0],
			highestUsed: -1,
		}
		entryIdx := len(c.descriptors)
		c.descriptors = append(c.descriptors, entry)

		for i := uint32(0); i < rec.DerivationIndex; i++ {
			script, err := entry.parsed.DeriveScript(i)
			if err != nil {
				return fmt.Errorf("%w: re-derive %q index %d: %v", store.ErrDecode, rec.Expression, i, err)
			}
			h := scripthash.Compute(script)
			entry.scripts = append(entry.scripts, h)
			c.scriptOwner[h] = scriptLocation{descriptorIdx: entryIdx, derivationIdx: i}

			if addr, ok := c.addressMap[h]; ok && len(addr.Transactions) > 0 {
				entry.highestUsed = int64(i)
			}
		}
	}

	return nil
}

// CacheHeight returns the last fully processed block height, or -1 if no
// block has ever been processed.
func (c *Cache) CacheHeight() int32 {
	return c.cacheHeight
}
