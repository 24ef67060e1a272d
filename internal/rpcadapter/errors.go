package rpcadapter

import "errors"

// TxNotFound is returned by GetTransaction for a txid absent from the
// cache.
var TxNotFound = errors.New("rpcadapter: transaction not found")

// InvalidVerbosityLevel is returned by GetTransaction when verbose is
// neither 0 nor 1.
var InvalidVerbosityLevel = errors.New("rpcadapter: verbose must be 0 or 1")

// InvalidProof is returned by VerifyMerkleProof when the proof is
// well-formed but does not fold to the expected root.
var InvalidProof = errors.New("rpcadapter: merkle proof does not verify")

// errNotImplemented marks RPC methods delegated to the chain source, which
// this module does not implement or stand in for.
var errNotImplemented = errors.New("delegated to chain source, not implemented here")
