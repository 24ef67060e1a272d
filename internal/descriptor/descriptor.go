// Package descriptor parses output-script descriptors (pkh/wpkh/sh(wpkh)/tr
// over a single public key or extended public key), validates their BIP-380
// checksum, and derives addresses/scripts from them by public-key-only
// BIP-32 derivation. It is grounded on
// original_source/crates/floresta-watch-only/src/descriptor, reimplemented
// against the btcsuite/btcd ecosystem instead of rust-miniscript.
package descriptor

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// ScriptType is one of the four single-key script kinds this resolver
// understands.
type ScriptType int

const (
	ScriptTypePKH ScriptType = iota
	ScriptTypeWPKH
	ScriptTypeSHWPKH
	ScriptTypeTR
)

func (t ScriptType) String() string {
	switch t {
	case ScriptTypePKH:
		return "pkh"
	case ScriptTypeWPKH:
		return "wpkh"
	case ScriptTypeSHWPKH:
		return "sh(wpkh)"
	case ScriptTypeTR:
		return "tr"
	default:
		return "unknown"
	}
}

// Error reports a malformed descriptor, a network mismatch, or an attempt
// to derive a hardened path segment from a public-only key.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return "descriptor: " + e.Reason
}

// key is a parsed descriptor key expression: either a fixed compressed
// public key, or an extended public key plus a fixed derivation prefix and
// an optional trailing wildcard.
type key struct {
	extended *hdkeychain.ExtendedKey
	rawPub   *btcec.PublicKey
	path     []uint32
	wildcard bool
}

// Descriptor is one fully parsed, single-key output descriptor.
type Descriptor struct {
	// Expression is the canonical (checksum-appended) descriptor string,
	// exactly as ListDescriptors should report it.
	Expression string

	ScriptType ScriptType
	key        key
	network    *chaincfg.Params
}

// Parse validates expr's grammar and checksum and returns the descriptors
// it denotes: one, unless expr's key path contains a "<a;b>" multi-path
// element, in which case it returns two (branch a, branch b), matching the
// original resolver's descriptor decomposition.
func Parse(expr string, network *chaincfg.Params) ([]*Descriptor, error) {
	body, err := verifyChecksum(strings.TrimSpace(expr))
	if err != nil {
		return nil, err
	}

	scriptType, inner, err := splitWrapper(body)
	if err != nil {
		return nil, err
	}

	keys, err := parseKeyExpr(inner, network)
	if err != nil {
		return nil, err
	}

	out := make([]*Descriptor, len(keys))
	for i, k := range keys {
		canonicalBody := rewrap(scriptType, formatKeyExpr(k))
		canonical, err := withChecksum(canonicalBody)
		if err != nil {
			return nil, err
		}
		out[i] = &Descriptor{
			Expression: canonical,
			ScriptType: scriptType,
			key:        k,
			network:    network,
		}
	}
	return out, nil
}

// splitWrapper strips the pkh(...)/wpkh(...)/sh(wpkh(...))/tr(...) wrapper
// and returns the script type and the inner key expression.
func splitWrapper(body string) (ScriptType, string, error) {
	switch {
	case strings.HasPrefix(body, "sh(wpkh(") && strings.HasSuffix(body, "))"):
		return ScriptTypeSHWPKH, body[len("sh(wpkh(") : len(body)-2], nil
	case strings.HasPrefix(body, "pkh(") && strings.HasSuffix(body, ")"):
		return ScriptTypePKH, body[len("pkh(") : len(body)-1], nil
	case strings.HasPrefix(body, "wpkh(") && strings.HasSuffix(body, ")"):
		return ScriptTypeWPKH, body[len("wpkh(") : len(body)-1], nil
	case strings.HasPrefix(body, "tr(") && strings.HasSuffix(body, ")"):
		return ScriptTypeTR, body[len("tr(") : len(body)-1], nil
	default:
		return 0, "", &Error{Reason: "unsupported or malformed descriptor wrapper"}
	}
}

func rewrap(t ScriptType, inner string) string {
	switch t {
	case ScriptTypeSHWPKH:
		return "sh(wpkh(" + inner + "))"
	case ScriptTypeWPKH:
		return "wpkh(" + inner + ")"
	case ScriptTypeTR:
		return "tr(" + inner + ")"
	default:
		return "pkh(" + inner + ")"
	}
}

// parseKeyExpr parses a single key expression (an optional "[origin]"
// prefix, a key, and an optional derivation path) and returns one key per
// branch of a multi-path "<a;b>" element, or a single key if there is none.
func parseKeyExpr(expr string, network *chaincfg.Params) ([]key, error) {
	if idx := strings.IndexByte(expr, ']'); strings.HasPrefix(expr, "[") && idx >= 0 {
		expr = expr[idx+1:]
	}

	parts := strings.Split(expr, "/")
	keydata := parts[0]
	steps := parts[1:]

	if isRawPubKeyHex(keydata) {
		raw, err := hex.DecodeString(keydata)
		if err != nil {
			return nil, &Error{Reason: "malformed public key hex"}
		}
		pub, err := btcec.ParsePubKey(raw)
		if err != nil {
			return nil, &Error{Reason: fmt.Sprintf("invalid public key: %v", err)}
		}
		if len(steps) != 0 {
			return nil, &Error{Reason: "a raw public key cannot carry a derivation path"}
		}
		return []key{{rawPub: pub}}, nil
	}

	standard, _, mainnet, err := NormalizeExtendedKey(keydata)
	if err != nil {
		return nil, err
	}
	if mainnet != isMainnetParams(network) {
		return nil, &Error{Reason: fmt.Sprintf("extended key %s does not operate on this network", keydata)}
	}

	extended, err := hdkeychain.NewKeyFromString(standard)
	if err != nil {
		return nil, &Error{Reason: fmt.Sprintf("invalid extended public key: %v", err)}
	}
	if extended.IsPrivate() {
		return nil, &Error{Reason: "descriptor keys must be public, not private"}
	}

	basePath, branches, wildcard, err := parsePathSteps(steps)
	if err != nil {
		return nil, err
	}

	if branches == nil {
		return []key{{extended: extended, path: basePath, wildcard: wildcard}}, nil
	}

	keys := make([]key, len(branches))
	for i, b := range branches {
		path := make([]uint32, 0, len(basePath)+1)
		path = append(path, basePath...)
		path = append(path, b)
		keys[i] = key{extended: extended, path: path, wildcard: wildcard}
	}
	return keys, nil
}

// parsePathSteps parses the "/"-separated path steps following a key. At
// most one "<a;b>" multi-path element is allowed, and only the final step
// may be the wildcard "*".
func parsePathSteps(steps []string) (path []uint32, branches []uint32, wildcard bool, err error) {
	for i, step := range steps {
		if step == "*" {
			if i != len(steps)-1 {
				return nil, nil, false, &Error{Reason: "wildcard '*' must be the last path element"}
			}
			wildcard = true
			continue
		}

		if strings.HasPrefix(step, "<") && strings.HasSuffix(step, ">") {
			if branches != nil {
				return nil, nil, false, &Error{Reason: "a descriptor path may contain only one multi-path element"}
			}
			pair := strings.Split(step[1:len(step)-1], ";")
			if len(pair) != 2 {
				return nil, nil, false, &Error{Reason: "malformed multi-path element, expected <a;b>"}
			}
			a, err1 := parsePathIndex(pair[0])
			b, err2 := parsePathIndex(pair[1])
			if err1 != nil {
				return nil, nil, false, err1
			}
			if err2 != nil {
				return nil, nil, false, err2
			}
			branches = []uint32{a, b}
			continue
		}

		idx, err := parsePathIndex(step)
		if err != nil {
			return nil, nil, false, err
		}
		path = append(path, idx)
	}
	return path, branches, wildcard, nil
}

func parsePathIndex(step string) (uint32, error) {
	if strings.HasSuffix(step, "h") || strings.HasSuffix(step, "H") || strings.HasSuffix(step, "'") {
		return 0, &Error{Reason: "hardened derivation requires a private key, which this resolver never accepts"}
	}
	n, err := strconv.ParseUint(step, 10, 32)
	if err != nil {
		return 0, &Error{Reason: fmt.Sprintf("malformed path segment %q", step)}
	}
	if n >= hdkeychain.HardenedKeyStart {
		return 0, &Error{Reason: "path segment out of the unhardened range"}
	}
	return uint32(n), nil
}

func isRawPubKeyHex(s string) bool {
	if len(s) != 66 {
		return false
	}
	if !strings.HasPrefix(s, "02") && !strings.HasPrefix(s, "03") {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func isMainnetParams(network *chaincfg.Params) bool {
	return network.Net == chaincfg.MainNetParams.Net
}

func formatKeyExpr(k key) string {
	var sb strings.Builder
	if k.rawPub != nil {
		sb.WriteString(hex.EncodeToString(k.rawPub.SerializeCompressed()))
		return sb.String()
	}

	sb.WriteString(k.extended.String())
	for _, step := range k.path {
		sb.WriteByte('/')
		sb.WriteString(strconv.FormatUint(uint64(step), 10))
	}
	if k.wildcard {
		sb.WriteString("/*")
	}
	return sb.String()
}

// DeriveScript derives the output script at index and, for wildcard
// descriptors, the address-index-th address of the descriptor. Fixed
// (non-wildcard) descriptors ignore index and always yield the same
// script.
func (d *Descriptor) DeriveScript(index uint32) ([]byte, error) {
	pub, err := d.derivePubKey(index)
	if err != nil {
		return nil, err
	}

	switch d.ScriptType {
	case ScriptTypePKH:
		addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), d.network)
		if err != nil {
			return nil, &Error{Reason: fmt.Sprintf("build p2pkh address: %v", err)}
		}
		return txscript.PayToAddrScript(addr)

	case ScriptTypeWPKH:
		addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), d.network)
		if err != nil {
			return nil, &Error{Reason: fmt.Sprintf("build p2wpkh address: %v", err)}
		}
		return txscript.PayToAddrScript(addr)

	case ScriptTypeSHWPKH:
		witnessAddr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), d.network)
		if err != nil {
			return nil, &Error{Reason: fmt.Sprintf("build p2wpkh redeem script: %v", err)}
		}
		redeemScript, err := txscript.PayToAddrScript(witnessAddr)
		if err != nil {
			return nil, err
		}
		addr, err := btcutil.NewAddressScriptHash(redeemScript, d.network)
		if err != nil {
			return nil, &Error{Reason: fmt.Sprintf("build p2sh address: %v", err)}
		}
		return txscript.PayToAddrScript(addr)

	case ScriptTypeTR:
		outputKey := txscript.ComputeTaprootKeyNoScript(pub)
		return txscript.PayToTaprootScript(outputKey)

	default:
		return nil, &Error{Reason: "unsupported script type"}
	}
}

// Address renders the address DeriveScript's underlying key implies, for
// display purposes (RPC responses, logs).
func (d *Descriptor) Address(index uint32) (btcutil.Address, error) {
	pub, err := d.derivePubKey(index)
	if err != nil {
		return nil, err
	}

	switch d.ScriptType {
	case ScriptTypePKH:
		return btcutil.NewAddressPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), d.network)
	case ScriptTypeWPKH:
		return btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), d.network)
	case ScriptTypeSHWPKH:
		witnessAddr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), d.network)
		if err != nil {
			return nil, err
		}
		redeemScript, err := txscript.PayToAddrScript(witnessAddr)
		if err != nil {
			return nil, err
		}
		return btcutil.NewAddressScriptHash(redeemScript, d.network)
	case ScriptTypeTR:
		outputKey := txscript.ComputeTaprootKeyNoScript(pub)
		return btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), d.network)
	default:
		return nil, &Error{Reason: "unsupported script type"}
	}
}

func (d *Descriptor) derivePubKey(index uint32) (*btcec.PublicKey, error) {
	if d.key.rawPub != nil {
		return d.key.rawPub, nil
	}

	current := d.key.extended
	for _, step := range d.key.path {
		next, err := current.Derive(step)
		if err != nil {
			return nil, &Error{Reason: fmt.Sprintf("derive path segment %d: %v", step, err)}
		}
		current = next
	}
	if d.key.wildcard {
		next, err := current.Derive(index)
		if err != nil {
			return nil, &Error{Reason: fmt.Sprintf("derive address index %d: %v", index, err)}
		}
		current = next
	}

	return current.ECPubKey()
}

// IsWildcard reports whether the descriptor derives a distinct address per
// index (true) or always resolves to one fixed address (false).
func (d *Descriptor) IsWildcard() bool {
	return d.key.wildcard
}
