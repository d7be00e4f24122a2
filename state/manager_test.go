package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TheOnma/async-swap-hook/core/types"
	"github.com/TheOnma/async-swap-hook/native/asyncswap"
	"github.com/TheOnma/async-swap-hook/storage"
)

func newTestManager() *Manager {
	return NewManager(storage.NewMemDB(), [20]byte{0xec})
}

func TestAccountRoundTrip(t *testing.T) {
	manager := newTestManager()
	addr := []byte{0x01, 0x02}

	got, err := manager.GetAccount(addr)
	require.NoError(t, err)
	require.Nil(t, got)

	account := types.NewAccount()
	account.SetBalance("TOKA", big.NewInt(500))
	account.SetBalance("TOKB", big.NewInt(7))
	require.NoError(t, manager.PutAccount(addr, account))

	got, err = manager.GetAccount(addr)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Zero(t, got.Balance("TOKA").Cmp(big.NewInt(500)))
	require.Zero(t, got.Balance("TOKB").Cmp(big.NewInt(7)))
	require.Zero(t, got.Balance("TOKC").Sign())
}

func TestEscrowCreditDebit(t *testing.T) {
	manager := newTestManager()
	id := [32]byte{0xaa}

	balance, err := manager.EscrowBalance(id, "TOKA")
	require.NoError(t, err)
	require.Zero(t, balance.Sign())

	require.NoError(t, manager.EscrowCredit(id, "TOKA", big.NewInt(100)))
	require.NoError(t, manager.EscrowCredit(id, "TOKA", big.NewInt(50)))

	balance, err = manager.EscrowBalance(id, "TOKA")
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(150)))

	require.NoError(t, manager.EscrowDebit(id, "TOKA", big.NewInt(150)))
	require.Error(t, manager.EscrowDebit(id, "TOKA", big.NewInt(1)), "debit past zero must fail")

	// Balances are per swap and per currency.
	require.NoError(t, manager.EscrowCredit([32]byte{0xbb}, "TOKA", big.NewInt(9)))
	balance, err = manager.EscrowBalance(id, "TOKA")
	require.NoError(t, err)
	require.Zero(t, balance.Sign())
}

func TestEscrowRejectsNegativeAmounts(t *testing.T) {
	manager := newTestManager()
	id := [32]byte{0xcc}
	require.Error(t, manager.EscrowCredit(id, "TOKA", big.NewInt(-1)))
	require.Error(t, manager.EscrowCredit(id, "TOKA", nil))
	require.Error(t, manager.EscrowDebit(id, "TOKA", big.NewInt(-1)))
}

func TestPendingDelegation(t *testing.T) {
	manager := newTestManager()
	record := &asyncswap.PendingSwap{
		ID:           [32]byte{0x01},
		Owner:        [20]byte{0x11},
		Pool:         asyncswap.PoolKey{Currency0: "TOKA", Currency1: "TOKB", FeePips: 3000},
		ZeroForOne:   true,
		AmountIn:     big.NewInt(20_000),
		MinAmountOut: big.NewInt(0),
		ValidAfter:   100,
		ValidUntil:   800,
		CreatedAt:    50,
	}
	require.NoError(t, manager.PendingPut(record))

	got, ok := manager.PendingGet(record.ID)
	require.True(t, ok)
	require.Equal(t, record.ID, got.ID)

	got.Executed = true
	require.NoError(t, manager.PendingUpdate(got))
	got, ok = manager.PendingGet(record.ID)
	require.True(t, ok)
	require.True(t, got.Executed)

	_, ok = manager.PendingGet([32]byte{0xff})
	require.False(t, ok)
}

func TestVaultAddress(t *testing.T) {
	manager := newTestManager()
	require.Equal(t, [20]byte{0xec}, manager.VaultAddress())
}

func TestNextSequenceAdvances(t *testing.T) {
	manager := newTestManager()
	first, err := manager.NextSequence()
	require.NoError(t, err)
	second, err := manager.NextSequence()
	require.NoError(t, err)
	require.Greater(t, second, first)
}
