package cache

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/ripsline/btcwatch/internal/merkle"
	"github.com/ripsline/btcwatch/internal/scripthash"
	"github.com/ripsline/btcwatch/internal/store"
)

// ProcessBlock runs the credit/debit reconciliation for every transaction
// in block, in block order, and advances the cache height. height must be
// exactly one more than CacheHeight() — blocks arrive in strict chain
// order, and a crash-recovery retry of the same block (cache height never
// advanced past the previous attempt) is the only legal repeat call for a
// given height.
func (c *Cache) ProcessBlock(block *wire.MsgBlock, height int32) error {
	if height != c.cacheHeight+1 {
		return fmt.Errorf("%w: block height %d does not follow cache height %d", ErrInvariant, height, c.cacheHeight)
	}

	for position, tx := range block.Transactions {
		if err := c.processTx(block, tx, height, position); err != nil {
			return err
		}
	}

	if err := c.store.SetCacheHeight(height); err != nil {
		return fmt.Errorf("%w: advance cache height: %v", store.ErrStore, err)
	}
	c.cacheHeight = height

	return nil
}

func (c *Cache) processTx(block *wire.MsgBlock, tx *wire.MsgTx, height int32, position int) error {
	relevant := make(map[scripthash.ScriptHash]struct{})

	if !isCoinbase(tx) {
		for _, in := range tx.TxIn {
			op := store.OutPoint{Txid: in.PreviousOutPoint.Hash, Vout: in.PreviousOutPoint.Index}

			h, ok := c.utxoIndex[op]
			if !ok {
				continue
			}

			value, err := c.spentValue(op)
			if err != nil {
				return fmt.Errorf("%w: resolve spent value for %s: %v", ErrInvariant, op, err)
			}

			addr := c.addressMap[h]
			addr.Balance -= uint64(value)
			addr.UTXOs = removeOutPoint(addr.UTXOs, op)
			delete(c.utxoIndex, op)

			relevant[h] = struct{}{}
		}
	}

	for n, out := range tx.TxOut {
		h := scripthash.Compute(out.PkScript)
		if _, watched := c.scriptSet[h]; !watched {
			continue
		}

		addr := c.addressMap[h]
		op := store.OutPoint{Txid: txidBytes(tx), Vout: uint32(n)}

		if !containsOutPoint(addr.UTXOs, op) {
			addr.UTXOs = append(addr.UTXOs, op)
			c.utxoIndex[op] = h
			addr.Balance += uint64(out.Value)
		}

		relevant[h] = struct{}{}

		if err := c.markUsed(h); err != nil {
			return err
		}
	}

	if len(relevant) == 0 {
		return nil
	}

	txid := txidBytes(tx)

	cachedTx, exists := c.txMap[txid]
	if !exists {
		leaf, err := chainhash.NewHash(txid[:])
		if err != nil {
			return fmt.Errorf("%w: build txid hash: %v", ErrInvariant, err)
		}
		proof, err := merkle.Build(block, *leaf)
		if err != nil {
			return fmt.Errorf("%w: build merkle proof for %x: %v", ErrInvariant, txid, err)
		}

		raw, err := serializeTx(tx)
		if err != nil {
			return fmt.Errorf("%w: serialize transaction: %v", ErrInvariant, err)
		}

		cachedTx = &store.Transaction{
			Txid:        txid,
			Raw:         raw,
			Height:      height,
			MerkleBlock: convertProof(proof),
			Position:    position,
		}
		c.txMap[txid] = cachedTx

		if err := c.store.SaveTransaction(cachedTx); err != nil {
			return fmt.Errorf("%w: save transaction: %v", store.ErrStore, err)
		}
	}

	for h := range relevant {
		addr := c.addressMap[h]
		if !containsTxid(addr.Transactions, txid) {
			addr.Transactions = append(addr.Transactions, txid)
		}
		if err := c.store.UpdateAddress(addr); err != nil {
			return fmt.Errorf("%w: update address: %v", store.ErrStore, err)
		}
	}

	return nil
}

// spentValue resolves the satoshi value of outpoint op by looking up its
// producing transaction, which must already be cached: op is only ever in
// utxoIndex because its producing output paid a watched script, which is
// exactly the case in which the producing transaction is stored.
func (c *Cache) spentValue(op store.OutPoint) (int64, error) {
	producing, ok := c.txMap[op.Txid]
	if !ok {
		return 0, fmt.Errorf("producing transaction %x not cached", op.Txid)
	}

	producingTx, err := deserializeTx(producing.Raw)
	if err != nil {
		return 0, fmt.Errorf("decode producing transaction: %w", err)
	}
	if int(op.Vout) >= len(producingTx.TxOut) {
		return 0, fmt.Errorf("outpoint vout %d out of range", op.Vout)
	}

	return producingTx.TxOut[op.Vout].Value, nil
}

func isCoinbase(tx *wire.MsgTx) bool {
	if len(tx.TxIn) != 1 {
		return false
	}
	prev := tx.TxIn[0].PreviousOutPoint
	return prev.Index == wire.MaxPrevOutIndex && prev.Hash == chainhash.Hash{}
}

func txidBytes(tx *wire.MsgTx) [32]byte {
	h := tx.TxHash()
	var out [32]byte
	copy(out[:], h[:])
	return out
}

func serializeTx(tx *wire.MsgTx) ([]byte, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deserializeTx(raw []byte) (*wire.MsgTx, error) {
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return tx, nil
}

func convertProof(p *merkle.Proof) *store.MerkleProof {
	siblings := make([][32]byte, len(p.Siblings))
	for i, s := range p.Siblings {
		copy(siblings[i][:], s[:])
	}
	return &store.MerkleProof{Position: p.Position, Siblings: siblings}
}

func containsOutPoint(ops []store.OutPoint, target store.OutPoint) bool {
	for _, op := range ops {
		if op == target {
			return true
		}
	}
	return false
}

func removeOutPoint(ops []store.OutPoint, target store.OutPoint) []store.OutPoint {
	out := make([]store.OutPoint, 0, len(ops))
	for _, op := range ops {
		if op != target {
			out = append(out, op)
		}
	}
	return out
}

func containsTxid(txids [][32]byte, target [32]byte) bool {
	for _, t := range txids {
		if t == target {
			return true
		}
	}
	return false
}
