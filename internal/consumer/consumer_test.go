package consumer

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/ripsline/btcwatch/internal/facade"
	"github.com/ripsline/btcwatch/internal/store/memstore"
)

func TestWantsSpentUTXOsIsFalse(t *testing.T) {
	f, err := facade.New(memstore.New(), &chaincfg.MainNetParams, 5)
	require.NoError(t, err)
	require.False(t, New(f).WantsSpentUTXOs())
}

func TestOnBlockDelegatesToFacade(t *testing.T) {
	f, err := facade.New(memstore.New(), &chaincfg.MainNetParams, 5)
	require.NoError(t, err)
	c := New(f)

	block := &wire.MsgBlock{Header: wire.BlockHeader{Timestamp: time.Unix(0, 0)}}
	coinbase := wire.NewMsgTx(wire.TxVersion)
	coinbase.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: wire.MaxPrevOutIndex}, nil, nil))
	coinbase.AddTxOut(wire.NewTxOut(5000000000, []byte{0x51}))
	block.Transactions = []*wire.MsgTx{coinbase}

	require.NoError(t, c.OnBlock(block, 0))
	require.Equal(t, int32(0), f.CacheHeight())

	require.Error(t, c.OnBlock(block, 5))
}
