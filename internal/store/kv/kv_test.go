package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ripsline/btcwatch/internal/scripthash"
	"github.com/ripsline/btcwatch/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestAddressRoundTrip(t *testing.T) {
	s := openTestStore(t)

	sh := scripthash.Compute([]byte("an output script"))
	addr := &store.Address{
		ScriptHash: sh,
		Script:     []byte("an output script"),
		Balance:    4200,
		Transactions: [][32]byte{
			{1, 2, 3},
			{4, 5, 6},
		},
		UTXOs: []store.OutPoint{
			{Txid: [32]byte{1, 2, 3}, Vout: 0},
			{Txid: [32]byte{4, 5, 6}, Vout: 1},
		},
	}

	require.NoError(t, s.SaveAddress(addr))

	loaded, err := s.LoadAllAddresses()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, addr.ScriptHash, loaded[0].ScriptHash)
	require.Equal(t, addr.Script, loaded[0].Script)
	require.Equal(t, addr.Balance, loaded[0].Balance)
	require.Equal(t, addr.Transactions, loaded[0].Transactions)
	require.Equal(t, addr.UTXOs, loaded[0].UTXOs)
}

func TestAddressUpdateOverwrites(t *testing.T) {
	s := openTestStore(t)

	sh := scripthash.Compute([]byte("script"))
	addr := &store.Address{ScriptHash: sh, Balance: 100}
	require.NoError(t, s.SaveAddress(addr))

	addr.Balance = 200
	require.NoError(t, s.UpdateAddress(addr))

	loaded, err := s.LoadAllAddresses()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, uint64(200), loaded[0].Balance)
}

func TestTransactionRoundTripWithProof(t *testing.T) {
	s := openTestStore(t)

	tx := &store.Transaction{
		Txid:   [32]byte{9, 9, 9},
		Raw:    []byte{0x01, 0x00, 0x00, 0x00, 0xde, 0xad, 0xbe, 0xef},
		Height: 800000,
		MerkleBlock: &store.MerkleProof{
			Position: 3,
			Siblings: [][32]byte{{1}, {2}, {3}},
		},
		Position: 3,
	}

	require.NoError(t, s.SaveTransaction(tx))

	got, err := s.GetTransaction(tx.Txid)
	require.NoError(t, err)
	require.Equal(t, tx.Txid, got.Txid)
	require.Equal(t, tx.Raw, got.Raw)
	require.Equal(t, tx.Height, got.Height)
	require.Equal(t, tx.Position, got.Position)
	require.NotNil(t, got.MerkleBlock)
	require.Equal(t, tx.MerkleBlock.Position, got.MerkleBlock.Position)
	require.Equal(t, tx.MerkleBlock.Siblings, got.MerkleBlock.Siblings)
}

func TestTransactionWithoutProof(t *testing.T) {
	s := openTestStore(t)

	tx := &store.Transaction{Txid: [32]byte{7}, Raw: []byte{0xca, 0xfe}, Height: -1, Position: -1}
	require.NoError(t, s.SaveTransaction(tx))

	got, err := s.GetTransaction(tx.Txid)
	require.NoError(t, err)
	require.Nil(t, got.MerkleBlock)
	require.Equal(t, int32(-1), got.Height)
}

func TestGetTransactionNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetTransaction([32]byte{1, 1, 1})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDescriptorInsertionOrderAndUpsert(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveDescriptor(&store.DescriptorRecord{Expression: "pkh(A)", DerivationIndex: 0}))
	require.NoError(t, s.SaveDescriptor(&store.DescriptorRecord{Expression: "wpkh(B)", DerivationIndex: 0}))

	list, err := s.ListDescriptors()
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "pkh(A)", list[0].Expression)
	require.Equal(t, "wpkh(B)", list[1].Expression)

	require.NoError(t, s.SaveDescriptor(&store.DescriptorRecord{Expression: "pkh(A)", DerivationIndex: 5}))

	list, err = s.ListDescriptors()
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, uint32(5), list[0].DerivationIndex)
}

func TestCacheHeightDefaultsToMinusOne(t *testing.T) {
	s := openTestStore(t)

	height, err := s.GetCacheHeight()
	require.NoError(t, err)
	require.Equal(t, int32(-1), height)

	require.NoError(t, s.SetCacheHeight(123))

	height, err = s.GetCacheHeight()
	require.NoError(t, err)
	require.Equal(t, int32(123), height)
}

func TestStatsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveStats(&store.Stats{CacheHeight: 55, SchemaVersion: store.SchemaVersion}))

	st, err := s.GetStats()
	require.NoError(t, err)
	require.Equal(t, int32(55), st.CacheHeight)
	require.Equal(t, store.SchemaVersion, st.SchemaVersion)
}

func TestDataSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db")

	s, err := Open(path)
	require.NoError(t, err)

	sh := scripthash.Compute([]byte("persisted"))
	require.NoError(t, s.SaveAddress(&store.Address{ScriptHash: sh, Balance: 7}))
	require.NoError(t, s.SetCacheHeight(42))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	addrs, err := reopened.LoadAllAddresses()
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	require.Equal(t, uint64(7), addrs[0].Balance)

	height, err := reopened.GetCacheHeight()
	require.NoError(t, err)
	require.Equal(t, int32(42), height)
}
