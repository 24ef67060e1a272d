package cache

import (
	"github.com/ripsline/btcwatch/internal/scripthash"
	"github.com/ripsline/btcwatch/internal/store"
)

// HistoryEntry is one (height, txid) pair in an address's history, ordered
// by height ascending and, within a block, by position.
type HistoryEntry struct {
	Height int32
	Txid   [32]byte
}

// GetAddressBalance returns h's current balance, or 0 if h is unknown.
func (c *Cache) GetAddressBalance(h scripthash.ScriptHash) uint64 {
	addr, ok := c.addressMap[h]
	if !ok {
		return 0
	}
	return addr.Balance
}

// GetAddressHistory returns h's transaction history in (height, position)
// order. addr.Transactions is already in that order: transactions are
// appended to it exactly once, in the block-processing order blocks are
// fed to the cache in.
func (c *Cache) GetAddressHistory(h scripthash.ScriptHash) []HistoryEntry {
	addr, ok := c.addressMap[h]
	if !ok {
		return nil
	}

	out := make([]HistoryEntry, 0, len(addr.Transactions))
	for _, txid := range addr.Transactions {
		tx, ok := c.txMap[txid]
		height := int32(0)
		if ok {
			height = tx.Height
		}
		out = append(out, HistoryEntry{Height: height, Txid: txid})
	}
	return out
}

// GetAddressUTXOs returns h's currently unspent outpoints.
func (c *Cache) GetAddressUTXOs(h scripthash.ScriptHash) []store.OutPoint {
	addr, ok := c.addressMap[h]
	if !ok {
		return nil
	}
	out := make([]store.OutPoint, len(addr.UTXOs))
	copy(out, addr.UTXOs)
	return out
}

// GetMerkleProof returns the cached inclusion proof for txid, if any.
func (c *Cache) GetMerkleProof(txid [32]byte) (*store.MerkleProof, bool) {
	tx, ok := c.txMap[txid]
	if !ok || tx.MerkleBlock == nil {
		return nil, false
	}
	return tx.MerkleBlock, true
}

// GetCachedTransaction returns the cached transaction record for txid.
func (c *Cache) GetCachedTransaction(txid [32]byte) (*store.Transaction, bool) {
	tx, ok := c.txMap[txid]
	return tx, ok
}
