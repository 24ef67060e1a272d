package kv

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/ripsline/btcwatch/internal/scripthash"
	"github.com/ripsline/btcwatch/internal/store"
)

func encodeAddress(a *store.Address) []byte {
	buf := &bytes.Buffer{}

	buf.Write(a.ScriptHash[:])

	writeU32(buf, uint32(len(a.Script)))
	buf.Write(a.Script)

	writeU64(buf, a.Balance)

	writeU32(buf, uint32(len(a.Transactions)))
	for _, txid := range a.Transactions {
		buf.Write(txid[:])
	}

	writeU32(buf, uint32(len(a.UTXOs)))
	for _, o := range a.UTXOs {
		buf.Write(o.Txid[:])
		writeU32(buf, o.Vout)
	}

	return buf.Bytes()
}

func decodeAddress(data []byte) (*store.Address, error) {
	r := bytes.NewReader(data)

	var shBytes [32]byte
	if _, err := readFull(r, shBytes[:]); err != nil {
		return nil, fmt.Errorf("%w: address scripthash: %v", store.ErrDecode, err)
	}
	sh, err := scripthash.FromBytes(shBytes[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrDecode, err)
	}

	scriptLen, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: script length: %v", store.ErrDecode, err)
	}
	script := make([]byte, scriptLen)
	if _, err := readFull(r, script); err != nil {
		return nil, fmt.Errorf("%w: script body: %v", store.ErrDecode, err)
	}

	balance, err := readU64(r)
	if err != nil {
		return nil, fmt.Errorf("%w: balance: %v", store.ErrDecode, err)
	}

	txCount, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: tx count: %v", store.ErrDecode, err)
	}
	txids := make([][32]byte, txCount)
	for i := range txids {
		if _, err := readFull(r, txids[i][:]); err != nil {
			return nil, fmt.Errorf("%w: txid %d: %v", store.ErrDecode, i, err)
		}
	}

	utxoCount, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: utxo count: %v", store.ErrDecode, err)
	}
	utxos := make([]store.OutPoint, utxoCount)
	for i := range utxos {
		if _, err := readFull(r, utxos[i].Txid[:]); err != nil {
			return nil, fmt.Errorf("%w: utxo %d txid: %v", store.ErrDecode, i, err)
		}
		vout, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("%w: utxo %d vout: %v", store.ErrDecode, i, err)
		}
		utxos[i].Vout = vout
	}

	return &store.Address{
		ScriptHash:   sh,
		Script:       script,
		Balance:      balance,
		Transactions: txids,
		UTXOs:        utxos,
	}, nil
}

func encodeTransaction(t *store.Transaction) ([]byte, error) {
	buf := &bytes.Buffer{}

	buf.Write(t.Txid[:])
	writeI32(buf, t.Height)
	writeI32(buf, int32(t.Position))

	if t.MerkleBlock != nil {
		buf.WriteByte(1)
		writeI32(buf, int32(t.MerkleBlock.Position))
		writeU32(buf, uint32(len(t.MerkleBlock.Siblings)))
		for _, s := range t.MerkleBlock.Siblings {
			buf.Write(s[:])
		}
	} else {
		buf.WriteByte(0)
	}

	compressed, err := compressZstd(t.Raw)
	if err != nil {
		return nil, fmt.Errorf("compress transaction: %w", err)
	}
	writeU32(buf, uint32(len(compressed)))
	buf.Write(compressed)

	return buf.Bytes(), nil
}

func decodeTransaction(data []byte) (*store.Transaction, error) {
	r := bytes.NewReader(data)

	var tx store.Transaction
	if _, err := readFull(r, tx.Txid[:]); err != nil {
		return nil, fmt.Errorf("%w: tx txid: %v", store.ErrDecode, err)
	}

	height, err := readI32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: tx height: %v", store.ErrDecode, err)
	}
	tx.Height = height

	position, err := readI32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: tx position: %v", store.ErrDecode, err)
	}
	tx.Position = int(position)

	hasProof, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: tx proof flag: %v", store.ErrDecode, err)
	}
	if hasProof == 1 {
		proofPos, err := readI32(r)
		if err != nil {
			return nil, fmt.Errorf("%w: proof position: %v", store.ErrDecode, err)
		}
		sibCount, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("%w: proof sibling count: %v", store.ErrDecode, err)
		}
		siblings := make([][32]byte, sibCount)
		for i := range siblings {
			if _, err := readFull(r, siblings[i][:]); err != nil {
				return nil, fmt.Errorf("%w: proof sibling %d: %v", store.ErrDecode, i, err)
			}
		}
		tx.MerkleBlock = &store.MerkleProof{Position: int(proofPos), Siblings: siblings}
	}

	compressedLen, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: tx blob length: %v", store.ErrDecode, err)
	}
	compressed := make([]byte, compressedLen)
	if _, err := readFull(r, compressed); err != nil {
		return nil, fmt.Errorf("%w: tx blob body: %v", store.ErrDecode, err)
	}

	raw, err := decompressZstd(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress tx blob: %v", store.ErrDecode, err)
	}
	tx.Raw = raw

	return &tx, nil
}

type descriptorValue struct {
	Expression      string `json:"expression"`
	DerivationIndex uint32 `json:"derivation_index"`
}

func encodeDescriptor(rec *store.DescriptorRecord) ([]byte, error) {
	return json.Marshal(descriptorValue{
		Expression:      rec.Expression,
		DerivationIndex: rec.DerivationIndex,
	})
}

func decodeDescriptor(data []byte) (*store.DescriptorRecord, error) {
	var v descriptorValue
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: descriptor: %v", store.ErrDecode, err)
	}
	return &store.DescriptorRecord{Expression: v.Expression, DerivationIndex: v.DerivationIndex}, nil
}

type statsValue struct {
	CacheHeight   int32 `json:"cache_height"`
	SchemaVersion int   `json:"schema_version"`
}

func encodeStats(s *store.Stats) ([]byte, error) {
	return json.Marshal(statsValue{CacheHeight: s.CacheHeight, SchemaVersion: s.SchemaVersion})
}

func decodeStats(data []byte) (*store.Stats, error) {
	var v statsValue
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: stats: %v", store.ErrDecode, err)
	}
	return &store.Stats{CacheHeight: v.CacheHeight, SchemaVersion: v.SchemaVersion}, nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}

func writeI32(buf *bytes.Buffer, v int32) {
	writeU32(buf, uint32(v))
}

func readU32(r *bytes.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := readFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(tmp[:]), nil
}

func readU64(r *bytes.Reader) (uint64, error) {
	var tmp [8]byte
	if _, err := readFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(tmp[:]), nil
}

func readI32(r *bytes.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}

func readFull(r *bytes.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func compressZstd(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func decompressZstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
