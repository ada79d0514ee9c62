package store

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowfork/ethereum-light-client/beacon/state"
)

func collect(t *testing.T, kv KVStore, prefix []byte) []string {
	var keys []string
	err := kv.Iterate(prefix, PrefixEnd(prefix), func(key, _ []byte) (bool, error) {
		keys = append(keys, string(key))
		return true, nil
	})
	require.NoError(t, err)
	return keys
}

func TestTxnReadYourWrites(t *testing.T) {
	db := NewMemDB()
	require.NoError(t, db.Set([]byte("a"), []byte{1}))
	require.NoError(t, db.Set([]byte("b"), []byte{2}))

	txn := NewTxn(db)
	require.NoError(t, txn.Set([]byte("c"), []byte{3}))
	require.NoError(t, txn.Delete([]byte("a")))

	value, err := txn.Get([]byte("c"))
	require.NoError(t, err)
	assert.Equal(t, []byte{3}, value)

	has, err := txn.Has([]byte("a"))
	require.NoError(t, err)
	assert.False(t, has)

	// Nothing reaches the database before commit.
	has, err = db.Has([]byte("a"))
	require.NoError(t, err)
	assert.True(t, has)
	value, err = db.Get([]byte("c"))
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, txn.Commit())

	has, err = db.Has([]byte("a"))
	require.NoError(t, err)
	assert.False(t, has)
	value, err = db.Get([]byte("c"))
	require.NoError(t, err)
	assert.Equal(t, []byte{3}, value)

	assert.ErrorIs(t, txn.Commit(), ErrTxnClosed)
}

func TestTxnDiscard(t *testing.T) {
	db := NewMemDB()
	txn := NewTxn(db)
	require.NoError(t, txn.Set([]byte("k"), []byte{1}))
	txn.Discard()

	value, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Nil(t, value)

	_, err = txn.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrTxnClosed)
}

func TestTxnIterateMergesOverlay(t *testing.T) {
	db := NewMemDB()
	for _, n := range []uint64{1, 3, 5} {
		require.NoError(t, db.Set(FinalizedBlockKey(n), []byte{byte(n)}))
	}

	txn := NewTxn(db)
	require.NoError(t, txn.Set(FinalizedBlockKey(2), []byte{2}))
	require.NoError(t, txn.Set(FinalizedBlockKey(300), []byte{3}))
	require.NoError(t, txn.Delete(FinalizedBlockKey(3)))
	require.NoError(t, txn.Set([]byte("other"), []byte{9}))

	var numbers []uint64
	err := txn.Iterate(FinalizedBlockPrefix, PrefixEnd(FinalizedBlockPrefix), func(key, _ []byte) (bool, error) {
		n, ok := FinalizedBlockNumber(key)
		require.True(t, ok)
		numbers = append(numbers, n)
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 5, 300}, numbers)
}

func TestIterateStopsEarly(t *testing.T) {
	db := NewMemDB()
	for n := uint64(0); n < 10; n++ {
		require.NoError(t, db.Set(FinalizedBlockKey(n), []byte{1}))
	}

	visited := 0
	err := db.Iterate(FinalizedBlockPrefix, PrefixEnd(FinalizedBlockPrefix), func(_, _ []byte) (bool, error) {
		visited++
		return visited < 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, visited)
}

func TestSaveLoad(t *testing.T) {
	db := NewMemDB()
	info := state.ExecutionHeaderInfo{
		ParentHash:  common.HexToHash("0x0102"),
		BlockNumber: 42,
		Submitter:   "relayer",
	}
	key := UnfinalizedHeaderKey(common.HexToHash("0xff"))

	require.NoError(t, Save(db, key, info))

	var loaded state.ExecutionHeaderInfo
	require.NoError(t, Load(db, key, &loaded))
	assert.Equal(t, info, loaded)

	err := Load(db, UnfinalizedHeaderKey(common.HexToHash("0xfe")), &loaded)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePrefix(t *testing.T) {
	db := NewMemDB()
	require.NoError(t, db.Set(SubmitterKey("alice"), []byte{0}))
	require.NoError(t, db.Set(SubmitterKey("bob"), []byte{0}))
	require.NoError(t, db.Set(FinalizedBlockKey(1), []byte{0}))

	removed, err := DeletePrefix(db, SubmitterPrefix)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Empty(t, collect(t, db, SubmitterPrefix))
	assert.Len(t, collect(t, db, FinalizedBlockPrefix), 1)
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte("ab"), PrefixEnd([]byte("aa")))
	assert.Equal(t, []byte{0x02}, PrefixEnd([]byte{0x01, 0xff}))
	assert.Nil(t, PrefixEnd([]byte{0xff, 0xff}))
}

func TestOpen(t *testing.T) {
	db, err := Open(GoLevelDBBackend, "lightclient", t.TempDir())
	require.NoError(t, err)
	require.NoError(t, db.Set([]byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	_, err = Open("rocksdb", "lightclient", t.TempDir())
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
