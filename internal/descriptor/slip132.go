package descriptor

import (
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// SLIP-132 extended-public-key version magics, grounded on
// original_source/crates/floresta-watch-only/src/descriptor/slip132.rs. Each
// maps to the script type it implies and whether it belongs to mainnet or
// testnet/regtest.
var (
	versionXpub = [4]byte{0x04, 0x88, 0xB2, 0x1E}
	versionYpub = [4]byte{0x04, 0x9D, 0x7C, 0xB2}
	versionZpub = [4]byte{0x04, 0xB2, 0x47, 0x46}
	versionTpub = [4]byte{0x04, 0x35, 0x87, 0xCF}
	versionUpub = [4]byte{0x04, 0x4A, 0x52, 0x62}
	versionVpub = [4]byte{0x04, 0x5F, 0x1C, 0xF6}
)

type slip132Entry struct {
	version    [4]byte
	scriptType ScriptType
	mainnet    bool
}

var slip132Table = []slip132Entry{
	{versionXpub, ScriptTypePKH, true},
	{versionYpub, ScriptTypeSHWPKH, true},
	{versionZpub, ScriptTypeWPKH, true},
	{versionTpub, ScriptTypePKH, false},
	{versionUpub, ScriptTypeSHWPKH, false},
	{versionVpub, ScriptTypeWPKH, false},
}

// NormalizeExtendedKey decodes a base58check-encoded extended public key
// carrying any of the six supported version prefixes (xpub/ypub/zpub for
// mainnet, tpub/upub/vpub for testnet/regtest) and re-serializes it under
// the standard xpub/tpub version bytes BIP-32 derivation expects, along
// with the script type and network-class the original prefix implied.
//
// SLIP-132 prefixes are wire-level annotations only: the underlying key
// material and derivation math are identical once rewritten to the
// standard version, so this is a pure byte-rewrite, not a key transform.
func NormalizeExtendedKey(s string) (standard string, scriptType ScriptType, mainnet bool, err error) {
	decoded := base58.Decode(s)
	if len(decoded) != 82 {
		return "", 0, false, &Error{Reason: "extended key has the wrong decoded length"}
	}

	payload := decoded[:78]
	wantChecksum := decoded[78:]
	if !verifyBase58Checksum(payload, wantChecksum) {
		return "", 0, false, &Error{Reason: "extended key has an invalid base58check checksum"}
	}

	var version [4]byte
	copy(version[:], payload[:4])

	entry, ok := lookupSlip132(version)
	if !ok {
		return "", 0, false, &Error{Reason: "extended key carries an unrecognized SLIP-132 prefix"}
	}

	target := versionXpub
	if !entry.mainnet {
		target = versionTpub
	}

	rewritten := make([]byte, 78)
	copy(rewritten, payload)
	copy(rewritten[:4], target[:])

	checksum := base58Checksum(rewritten)
	return base58.Encode(append(rewritten, checksum[:]...)), entry.scriptType, entry.mainnet, nil
}

func lookupSlip132(version [4]byte) (slip132Entry, bool) {
	for _, e := range slip132Table {
		if e.version == version {
			return e, true
		}
	}
	return slip132Entry{}, false
}

// base58Checksum computes the first 4 bytes of double-SHA256(payload), the
// checksum every base58check-encoded Bitcoin key or address carries.
func base58Checksum(payload []byte) [4]byte {
	h := chainhash.DoubleHashB(payload)
	var out [4]byte
	copy(out[:], h[:4])
	return out
}

func verifyBase58Checksum(payload, want []byte) bool {
	got := base58Checksum(payload)
	for i := 0; i < 4; i++ {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
