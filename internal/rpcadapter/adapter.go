// Package rpcadapter maps the façade's query and write surface onto
// Electrum/JSON-RPC-style method names, returning JSON-serializable values
// and typed errors. It carries no transport of its own — the separation
// the reference indexer draws between internal/electrum's ConnectionHandler
// (wire framing) and its query handlers (domain logic) — so an HTTP or
// Electrum TCP front end can be layered on top without touching this type.
package rpcadapter

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/ripsline/btcwatch/internal/facade"
	"github.com/ripsline/btcwatch/internal/merkle"
	"github.com/ripsline/btcwatch/internal/scripthash"
)

// Adapter is the query/write surface exposed to an RPC or Electrum
// transport. It holds no transport-level state.
type Adapter struct {
	facade  *facade.Facade
	network *chaincfg.Params
}

// New builds an Adapter over f, decoding addresses for network.
func New(f *facade.Facade, network *chaincfg.Params) *Adapter {
	return &Adapter{facade: f, network: network}
}

// ListDescriptors maps listdescriptors.
func (a *Adapter) ListDescriptors() []DescriptorView {
	exprs := a.facade.ListDescriptors()
	out := make([]DescriptorView, len(exprs))
	for i, e := range exprs {
		out[i] = DescriptorView{Index: i, Expression: e}
	}
	return out
}

// LoadDescriptor maps loaddescriptor.
func (a *Adapter) LoadDescriptor(expr string) ([]string, error) {
	return a.facade.PushDescriptor(expr)
}

// GetAddressBalance maps getaddressbalance.
func (a *Adapter) GetAddressBalance(scriptHashHex string) (uint64, error) {
	h, err := scripthash.FromHex(scriptHashHex)
	if err != nil {
		return 0, fmt.Errorf("rpcadapter: %w", err)
	}
	return a.facade.GetAddressBalance(h), nil
}

// GetAddressHistory maps getaddresshistory.
func (a *Adapter) GetAddressHistory(scriptHashHex string) ([]HistoryView, error) {
	h, err := scripthash.FromHex(scriptHashHex)
	if err != nil {
		return nil, fmt.Errorf("rpcadapter: %w", err)
	}

	entries := a.facade.GetAddressHistory(h)
	out := make([]HistoryView, len(entries))
	for i, e := range entries {
		out[i] = HistoryView{Height: e.Height, Txid: chainhash.Hash(e.Txid).String()}
	}
	return out, nil
}

// GetAddressUTXOs maps getaddressutxos.
func (a *Adapter) GetAddressUTXOs(scriptHashHex string) ([]UTXOView, error) {
	h, err := scripthash.FromHex(scriptHashHex)
	if err != nil {
		return nil, fmt.Errorf("rpcadapter: %w", err)
	}

	utxos := a.facade.GetAddressUTXOs(h)
	out := make([]UTXOView, len(utxos))
	for i, op := range utxos {
		out[i] = UTXOView{Txid: chainhash.Hash(op.Txid).String(), Vout: op.Vout}
	}
	return out, nil
}

// GetTxMerkleProof maps gettxmerkleproof.
func (a *Adapter) GetTxMerkleProof(txidHex string) (*MerkleProofView, error) {
	txid, err := chainhash.NewHashFromStr(txidHex)
	if err != nil {
		return nil, &merkle.ProofError{Reason: fmt.Sprintf("bad txid hex: %v", err)}
	}

	proof, ok := a.facade.GetMerkleProof([32]byte(*txid))
	if !ok {
		return nil, TxNotFound
	}

	siblings := make([]string, len(proof.Siblings))
	for i, s := range proof.Siblings {
		siblings[i] = chainhash.Hash(s).String()
	}
	return &MerkleProofView{Position: proof.Position, Siblings: siblings}, nil
}

// VerifyMerkleProof checks a previously returned proof against rootHex,
// surfacing a tampered or malformed proof as InvalidProof / ProofError.
func (a *Adapter) VerifyMerkleProof(txidHex string, proof *MerkleProofView, rootHex string) error {
	ok, err := merkle.VerifyHex(txidHex, proof.Position, proof.Siblings, rootHex)
	if err != nil {
		return err
	}
	if !ok {
		return InvalidProof
	}
	return nil
}

// GetTransaction maps gettransaction(txid, verbose?). verbose must be 0 or
// 1; 0 returns the raw hex-encoded transaction, 1 returns a decoded view.
func (a *Adapter) GetTransaction(txidHex string, verbose int) (interface{}, error) {
	if verbose != 0 && verbose != 1 {
		return nil, InvalidVerbosityLevel
	}

	txidRev, err := chainhash.NewHashFromStr(txidHex)
	if err != nil {
		return nil, &merkle.ProofError{Reason: fmt.Sprintf("bad txid hex: %v", err)}
	}

	cached, ok := a.facade.GetCachedTransaction([32]byte(*txidRev))
	if !ok {
		return nil, TxNotFound
	}

	if verbose == 0 {
		return hex.EncodeToString(cached.Raw), nil
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(cached.Raw)); err != nil {
		return nil, fmt.Errorf("rpcadapter: decode cached transaction: %w", err)
	}

	return a.buildTransactionView(tx), nil
}

func (a *Adapter) buildTransactionView(tx *wire.MsgTx) *TransactionView {
	view := &TransactionView{
		Txid:     tx.TxHash().String(),
		Hash:     tx.WitnessHash().String(),
		Version:  tx.Version,
		Size:     tx.SerializeSize(),
		Vsize:    (int(blockchain.GetTransactionWeight(btcutil.NewTx(tx))) + 3) / 4,
		Weight:   blockchain.GetTransactionWeight(btcutil.NewTx(tx)),
		Locktime: tx.LockTime,
	}

	view.Vin = make([]VinView, len(tx.TxIn))
	for i, in := range tx.TxIn {
		asm, _ := txscript.DisasmString(in.SignatureScript)
		witness := make([]string, len(in.Witness))
		for j, w := range in.Witness {
			witness[j] = hex.EncodeToString(w)
		}
		view.Vin[i] = VinView{
			Txid: chainhash.Hash(in.PreviousOutPoint.Hash).String(),
			Vout: in.PreviousOutPoint.Index,
			ScriptSig: ScriptView{
				Asm: asm,
				Hex: hex.EncodeToString(in.SignatureScript),
			},
			Sequence: in.Sequence,
			Witness:  witness,
		}
	}

	view.Vout = make([]VoutView, len(tx.TxOut))
	for i, out := range tx.TxOut {
		view.Vout[i] = VoutView{
			Value:        out.Value,
			N:            i,
			ScriptPubKey: a.decodeScriptPubKey(out.PkScript),
		}
	}

	return view
}

func (a *Adapter) decodeScriptPubKey(script []byte) ScriptPubKeyView {
	asm, _ := txscript.DisasmString(script)
	class, addrs, reqSigs, _ := txscript.ExtractPkScriptAddrs(script, a.network)

	view := ScriptPubKeyView{
		Asm:     asm,
		Hex:     hex.EncodeToString(script),
		ReqSigs: reqSigs,
		Type:    class.String(),
	}
	if len(addrs) > 0 {
		view.Address = addrs[0].EncodeAddress()
	}
	return view
}

// GetRoots maps getroots, delegated to the chain source's own reorg/tip
// tracking; this engine has no chain-tip concept of its own.
func (a *Adapter) GetRoots() ([]string, error) {
	return nil, fmt.Errorf("rpcadapter: getroots: %w", errNotImplemented)
}

// FindTxOut maps findtxout, delegated to the chain source's UTXO set; this
// engine only indexes watched scripts, not the full chain state.
func (a *Adapter) FindTxOut(txidHex string, vout uint32) (interface{}, error) {
	return nil, fmt.Errorf("rpcadapter: findtxout: %w", errNotImplemented)
}
