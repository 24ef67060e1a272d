package kv

import (
	"encoding/binary"
	"fmt"
)

// Key namespace prefixes, one byte each, following the reference indexer's
// internal/storage/keys.go convention of a single prefix byte followed by a
// fixed-width identifier.
const (
	prefixAddress    byte = 'a'
	prefixTransaction byte = 't'
	prefixDescriptor byte = 'd'

	keyStats = "s"
)

func makeAddressKey(scripthash [32]byte) []byte {
	key := make([]byte, 1+32)
	key[0] = prefixAddress
	copy(key[1:], scripthash[:])
	return key
}

func parseAddressKey(key []byte) ([32]byte, error) {
	var sh [32]byte
	if len(key) != 1+32 || key[0] != prefixAddress {
		return sh, fmt.Errorf("invalid address key")
	}
	copy(sh[:], key[1:])
	return sh, nil
}

func addressPrefix() []byte {
	return []byte{prefixAddress}
}

func makeTransactionKey(txid [32]byte) []byte {
	key := make([]byte, 1+32)
	key[0] = prefixTransaction
	copy(key[1:], txid[:])
	return key
}

func transactionPrefix() []byte {
	return []byte{prefixTransaction}
}

func makeDescriptorKey(order uint32) []byte {
	key := make([]byte, 1+4)
	key[0] = prefixDescriptor
	binary.BigEndian.PutUint32(key[1:], order)
	return key
}

func descriptorPrefix() []byte {
	return []byte{prefixDescriptor}
}

// prefixUpperBound computes the exclusive upper bound of a prefix scan,
// matching the reference indexer's internal/storage/keys.go helper.
func prefixUpperBound(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end
		}
	}

	return nil
}
