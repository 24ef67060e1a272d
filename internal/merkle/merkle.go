// Package merkle builds and verifies per-transaction Merkle inclusion
// proofs against a full block, following Bitcoin's double-SHA256 pairing
// rule with the duplicate-last-node convention at odd levels.
package merkle

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// ErrNotInBlock is returned by Build when the target txid is not a member
// of the block's transaction list.
var ErrNotInBlock = errors.New("merkle: transaction not found in block")

// ProofError reports a structurally invalid proof: bad hex, truncated or
// oversized input.
type ProofError struct {
	Reason string
}

func (e *ProofError) Error() string {
	return fmt.Sprintf("merkle: malformed proof: %s", e.Reason)
}

// Proof is a per-transaction Merkle inclusion path from leaf to root.
type Proof struct {
	// TargetTxid is the leaf this proof covers, in internal byte order.
	TargetTxid chainhash.Hash

	// Position is the 0-based index of TargetTxid among the block's
	// transactions.
	Position int

	// Siblings holds the sibling hash at each level, leaf to root, in
	// internal byte order.
	Siblings []chainhash.Hash
}

// Build constructs the inclusion path for target within block, in
// O(n log n) over the block's transactions.
func Build(block *wire.MsgBlock, target chainhash.Hash) (*Proof, error) {
	leaves := make([]chainhash.Hash, len(block.Transactions))
	pos := -1
	for i, tx := range block.Transactions {
		leaves[i] = tx.TxHash()
		if leaves[i].IsEqual(&target) {
			pos = i
		}
	}
	if pos < 0 {
		return nil, ErrNotInBlock
	}

	siblings := buildBranch(leaves, pos)

	return &Proof{
		TargetTxid: target,
		Position:   pos,
		Siblings:   siblings,
	}, nil
}

// buildBranch folds the leaf level up to the root, recording the sibling
// consumed at each level. A single-leaf block yields an empty branch.
func buildBranch(level []chainhash.Hash, pos int) []chainhash.Hash {
	if len(level) == 1 {
		return nil
	}

	siblings := make([]chainhash.Hash, 0)
	cur := level
	for len(cur) > 1 {
		sibPos := pos ^ 1
		if sibPos < len(cur) {
			siblings = append(siblings, cur[sibPos])
		} else {
			// Odd level: the node pairs with itself (duplicate-last-node
			// rule), which contributes no distinct sibling hash but still
			// folds at this level below.
			siblings = append(siblings, cur[pos])
		}

		next := make([]chainhash.Hash, (len(cur)+1)/2)
		for i := 0; i < len(cur); i += 2 {
			left := cur[i]
			right := left
			if i+1 < len(cur) {
				right = cur[i+1]
			}
			next[i/2] = hashPair(left, right)
		}

		cur = next
		pos = pos / 2
	}

	return siblings
}

func hashPair(left, right chainhash.Hash) chainhash.Hash {
	var buf [64]byte
	copy(buf[:32], left[:])
	copy(buf[32:], right[:])
	return chainhash.DoubleHashH(buf[:])
}

// Verify folds proof's siblings starting from TargetTxid and reports
// whether the resulting root equals root. Malformed proofs (mismatched
// position/siblings) return a *ProofError instead of a bool.
func Verify(proof *Proof, root chainhash.Hash) (bool, error) {
	if proof == nil {
		return false, &ProofError{Reason: "nil proof"}
	}
	if proof.Position < 0 {
		return false, &ProofError{Reason: "negative position"}
	}

	maxLevels := 0
	for n := 1 << 30; n > 0; n >>= 1 {
		maxLevels++
	}
	if len(proof.Siblings) > maxLevels {
		return false, &ProofError{Reason: "too many siblings"}
	}
	if proof.Position>>uint(len(proof.Siblings)) != 0 {
		return false, &ProofError{Reason: "position does not fit the sibling count"}
	}

	cur := proof.TargetTxid
	pos := proof.Position

	for _, sibling := range proof.Siblings {
		isRight := pos&1 == 1
		if isRight {
			cur = hashPair(sibling, cur)
		} else {
			cur = hashPair(cur, sibling)
		}
		pos >>= 1
	}

	return cur.IsEqual(&root), nil
}

// VerifyHex is the hex-string convenience form used by query/RPC adapters:
// it decodes target/root/sibling hex and reports BadHex via *ProofError on
// malformed input, matching spec §4.3/§6.
func VerifyHex(targetHex string, position int, siblingsHex []string, rootHex string) (bool, error) {
	target, err := chainhash.NewHashFromStr(targetHex)
	if err != nil {
		return false, &ProofError{Reason: fmt.Sprintf("bad target hex: %v", err)}
	}
	root, err := chainhash.NewHashFromStr(rootHex)
	if err != nil {
		return false, &ProofError{Reason: fmt.Sprintf("bad root hex: %v", err)}
	}

	siblings := make([]chainhash.Hash, len(siblingsHex))
	for i, s := range siblingsHex {
		h, err := chainhash.NewHashFromStr(s)
		if err != nil {
			return false, &ProofError{Reason: fmt.Sprintf("bad sibling hex at %d: %v", i, err)}
		}
		siblings[i] = *h
	}

	return Verify(&Proof{
		TargetTxid: *target,
		Position:   position,
		Siblings:   siblings,
	}, *root)
}
