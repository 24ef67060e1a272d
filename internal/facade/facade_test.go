package facade

import (
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/ripsline/btcwatch/internal/scripthash"
	"github.com/ripsline/btcwatch/internal/store/memstore"
)

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	f, err := New(memstore.New(), &chaincfg.MainNetParams, 5)
	require.NoError(t, err)
	return f
}

func coinbaseTx() *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: wire.MaxPrevOutIndex}, nil, nil))
	tx.AddTxOut(wire.NewTxOut(5000000000, []byte{0x51}))
	return tx
}

func TestFacadeProcessBlockAndQuery(t *testing.T) {
	f := newTestFacade(t)
	script := []byte{0x76, 0xa9, 0x14, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 0x88, 0xac}
	require.NoError(t, f.CacheAddress(script))
	h := scripthash.Compute(script)

	pay := wire.NewMsgTx(wire.TxVersion)
	pay.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: wire.MaxPrevOutIndex}, nil, nil))
	pay.AddTxOut(wire.NewTxOut(321, script))

	block := &wire.MsgBlock{
		Header:       wire.BlockHeader{Timestamp: time.Unix(0, 0)},
		Transactions: []*wire.MsgTx{coinbaseTx(), pay},
	}
	require.NoError(t, f.ProcessBlock(block, 0))

	require.Equal(t, uint64(321), f.GetAddressBalance(h))
	require.Equal(t, int32(0), f.CacheHeight())
}

func TestFacadeSerializesConcurrentAccess(t *testing.T) {
	f := newTestFacade(t)
	xpub := "zpub6rFvSvP5VbpXwej2L5WseLfxfdUzSczs9DK9v9mpXgXNqjFhtfUTRGkQKr7sXKNyrrzhd2LCysGqts1oT3b1PJji16xWzcmNMfhmZ8kkLZ1"
	_, err := f.PushDescriptor("wpkh(" + xpub + "/0/*)")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.ListDescriptors()
			_ = f.CacheHeight()
		}()
	}
	wg.Wait()

	require.Len(t, f.ListDescriptors(), 1)
}
