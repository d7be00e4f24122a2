package asyncswap

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TheOnma/async-swap-hook/storage"
)

func ledgerRecord(tag byte, createdAt int64) *PendingSwap {
	return &PendingSwap{
		ID:           [32]byte{tag},
		Owner:        [20]byte{0x11},
		Pool:         PoolKey{Currency0: "TOKA", Currency1: "TOKB", FeePips: 3000},
		ZeroForOne:   true,
		AmountIn:     big.NewInt(20_000),
		MinAmountOut: big.NewInt(0),
		ValidAfter:   createdAt + 30,
		ValidUntil:   createdAt + 690,
		CreatedAt:    createdAt,
	}
}

func TestLedgerPutGetRoundTrip(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	record := ledgerRecord(0x01, 1_700_000_000)
	require.NoError(t, ledger.Put(record))

	got, ok, err := ledger.Get(record.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, record.ID, got.ID)
	require.Equal(t, record.Owner, got.Owner)
	require.Equal(t, record.Pool, got.Pool)
	require.Zero(t, got.AmountIn.Cmp(record.AmountIn))
	require.Equal(t, record.ValidAfter, got.ValidAfter)
	require.Equal(t, record.ValidUntil, got.ValidUntil)
	require.False(t, got.Executed)
}

func TestLedgerRejectsDuplicates(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	record := ledgerRecord(0x02, 1_700_000_000)
	require.NoError(t, ledger.Put(record))
	require.Error(t, ledger.Put(record))
}

func TestLedgerUpdateRequiresExisting(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	record := ledgerRecord(0x03, 1_700_000_000)
	require.Error(t, ledger.Update(record))

	require.NoError(t, ledger.Put(record))
	record.Executed = true
	require.NoError(t, ledger.Update(record))

	got, ok, err := ledger.Get(record.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Executed)
}

func TestLedgerSanitizesOnPut(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	record := ledgerRecord(0x04, 1_700_000_000)
	record.Pool.Currency0 = " toka "
	require.NoError(t, ledger.Put(record))

	got, _, err := ledger.Get(record.ID)
	require.NoError(t, err)
	require.Equal(t, "TOKA", got.Pool.Currency0)

	bad := ledgerRecord(0x05, 1_700_000_000)
	bad.AmountIn = big.NewInt(0)
	require.Error(t, ledger.Put(bad))

	inverted := ledgerRecord(0x06, 1_700_000_000)
	inverted.ValidUntil = inverted.ValidAfter
	require.Error(t, ledger.Put(inverted))
}

func TestLedgerSequenceMonotonic(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	for want := uint64(0); want < 5; want++ {
		got, err := ledger.NextSequence()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	count, err := ledger.Count()
	require.NoError(t, err)
	require.Equal(t, uint64(5), count)
}

func TestLedgerListFiltersAndPaginates(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	base := int64(1_700_000_000)
	for i := byte(0); i < 5; i++ {
		require.NoError(t, ledger.Put(ledgerRecord(i+1, base+int64(i)*10)))
	}

	records, cursor, err := ledger.List(base+10, base+30, "", 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Empty(t, cursor)
	require.Equal(t, base+10, records[0].CreatedAt)
	require.Equal(t, base+30, records[2].CreatedAt)

	first, cursor, err := ledger.List(0, 0, "", 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, hex.EncodeToString(first[1].ID[:]), cursor)

	second, cursor, err := ledger.List(0, 0, cursor, 2)
	require.NoError(t, err)
	require.Len(t, second, 2)
	require.NotEqual(t, first[0].ID, second[0].ID)

	last, cursor, err := ledger.List(0, 0, cursor, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)
	require.Empty(t, cursor)
}
