// Package store defines the durable-storage contract used by the inner
// cache to persist addresses, transactions, descriptors, and stats. It is a
// capability surface, not a base class: concrete backends (kv, memstore)
// implement Store directly and are drop-in replacements for each other.
package store

import (
	"errors"
	"fmt"

	"github.com/ripsline/btcwatch/internal/scripthash"
)

// OutPoint uniquely identifies a transaction output.
type OutPoint struct {
	Txid [32]byte
	Vout uint32
}

// String renders the outpoint as txid:vout using display (reversed) txid
// hex, matching Bitcoin's usual human-readable convention.
func (o OutPoint) String() string {
	rev := reverse32(o.Txid)
	return fmt.Sprintf("%x:%d", rev[:], o.Vout)
}

func reverse32(b [32]byte) [32]byte {
	var out [32]byte
	for i := 0; i < 32; i++ {
		out[i] = b[31-i]
	}
	return out
}

// Address is the durable record for one watched script.
type Address struct {
	ScriptHash   scripthash.ScriptHash
	Script       []byte
	Balance      uint64
	Transactions [][32]byte
	UTXOs        []OutPoint
}

// MerkleProof is the durable, hex-free representation of a Merkle inclusion
// path: siblings are raw 32-byte hashes, leaf to root.
type MerkleProof struct {
	Position int
	Siblings [][32]byte
}

// Transaction is the durable record for a cached transaction.
type Transaction struct {
	Txid        [32]byte
	Raw         []byte
	Height      int32
	MerkleBlock *MerkleProof
	Position    int
}

// DescriptorRecord is the durable record for a watched descriptor.
type DescriptorRecord struct {
	Expression       string
	DerivationIndex  uint32
}

// SchemaVersion is bumped whenever the durable encoding changes shape.
const SchemaVersion = 1

// Stats is the durable summary record.
type Stats struct {
	CacheHeight   int32
	SchemaVersion int
}

// Sentinel error kinds, per spec §7. Backends wrap these with
// backend-specific context via fmt.Errorf("...: %w", Err*).
var (
	// ErrStore marks any durable-backend I/O failure.
	ErrStore = errors.New("store: backend failure")

	// ErrDecode marks a corrupted serialized record. Fatal for the
	// affected record; rehydration aborts rather than silently dropping.
	ErrDecode = errors.New("store: corrupted record")

	// ErrNotFound marks a missing key, returned by getters that model a
	// present-or-absent lookup rather than a hard failure.
	ErrNotFound = errors.New("store: not found")
)

// Store is the durable-storage contract. Every method must be durable
// before returning (or return an error), and every read must observe all
// prior completed writes from the same process. No cross-method
// transactionality is required.
type Store interface {
	// SaveAddress persists a newly created address record.
	SaveAddress(addr *Address) error

	// UpdateAddress persists mutations to an existing address record.
	UpdateAddress(addr *Address) error

	// LoadAllAddresses returns every address record, for startup
	// rehydration.
	LoadAllAddresses() ([]*Address, error)

	// GetCacheHeight returns the last fully processed block height, or -1
	// if no block has ever been processed.
	GetCacheHeight() (int32, error)

	// SetCacheHeight durably advances the last-processed-height scalar.
	// Callers must invoke this only after all per-transaction writes of a
	// block are durable.
	SetCacheHeight(height int32) error

	// SaveDescriptor persists a descriptor record, keyed by insertion
	// order; re-saving an existing expression updates its counter.
	SaveDescriptor(rec *DescriptorRecord) error

	// ListDescriptors returns every descriptor record in insertion order.
	ListDescriptors() ([]*DescriptorRecord, error)

	// GetTransaction returns the cached transaction for txid, or
	// ErrNotFound.
	GetTransaction(txid [32]byte) (*Transaction, error)

	// SaveTransaction persists a cached transaction record.
	SaveTransaction(tx *Transaction) error

	// ListTransactions returns every cached transaction, for startup
	// rehydration.
	ListTransactions() ([]*Transaction, error)

	// GetStats returns the persisted stats record.
	GetStats() (*Stats, error)

	// SaveStats persists the stats record.
	SaveStats(s *Stats) error

	// Close releases backend resources.
	Close() error
}
