package simpool

import (
	"math/big"
	"testing"

	"github.com/TheOnma/async-swap-hook/core/types"
	"github.com/TheOnma/async-swap-hook/native/asyncswap"
	"github.com/TheOnma/async-swap-hook/state"
	"github.com/TheOnma/async-swap-hook/storage"
)

var testKey = asyncswap.PoolKey{Currency0: "TOKA", Currency1: "TOKB", FeePips: 3000}

func newTestPool(t *testing.T) (*Pool, *state.Manager) {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB(), [20]byte{0xec})
	pool := New(manager, [20]byte{0xb0})
	pool.SetSlot0(testKey, new(big.Int).Lsh(big.NewInt(1), 96), big.NewInt(1_000_000))
	return pool, manager
}

func TestSwapQuotesBothDirections(t *testing.T) {
	pool, _ := newTestPool(t)
	// sqrtPriceX96 = 2 * 2^96 quotes price 4.
	pool.SetSlot0(testKey, new(big.Int).Lsh(big.NewInt(1), 97), big.NewInt(1_000_000))

	delta, err := pool.Swap([20]byte{}, testKey, asyncswap.SwapParams{
		ZeroForOne:      true,
		AmountSpecified: big.NewInt(-1_000),
	})
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if delta.Amount0.Cmp(big.NewInt(-1_000)) != 0 || delta.Amount1.Cmp(big.NewInt(4_000)) != 0 {
		t.Fatalf("zeroForOne delta = (%s, %s), want (-1000, 4000)", delta.Amount0, delta.Amount1)
	}

	delta, err = pool.Swap([20]byte{}, testKey, asyncswap.SwapParams{
		ZeroForOne:      false,
		AmountSpecified: big.NewInt(-4_000),
	})
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if delta.Amount0.Cmp(big.NewInt(1_000)) != 0 || delta.Amount1.Cmp(big.NewInt(-4_000)) != 0 {
		t.Fatalf("oneForZero delta = (%s, %s), want (1000, -4000)", delta.Amount0, delta.Amount1)
	}
}

func TestSwapRejectsExactOutput(t *testing.T) {
	pool, _ := newTestPool(t)
	if _, err := pool.Swap([20]byte{}, testKey, asyncswap.SwapParams{
		ZeroForOne:      true,
		AmountSpecified: big.NewInt(1_000),
	}); err == nil {
		t.Fatalf("positive amounts must be rejected")
	}
}

func TestSwapUnknownPool(t *testing.T) {
	pool, _ := newTestPool(t)
	other := asyncswap.PoolKey{Currency0: "TOKX", Currency1: "TOKY", FeePips: 500}
	if _, err := pool.Swap([20]byte{}, other, asyncswap.SwapParams{
		ZeroForOne:      true,
		AmountSpecified: big.NewInt(-1),
	}); err == nil {
		t.Fatalf("unknown pools must error")
	}
}

func TestTakeAndSettleMoveFunds(t *testing.T) {
	pool, manager := newTestPool(t)
	user := [20]byte{0x11}

	account := types.NewAccount()
	account.SetBalance("TOKA", big.NewInt(500))
	if err := manager.PutAccount(user[:], account); err != nil {
		t.Fatalf("put account: %v", err)
	}

	if err := pool.Settle("TOKA", user, big.NewInt(300)); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if err := pool.Take("TOKA", user, big.NewInt(100)); err != nil {
		t.Fatalf("take: %v", err)
	}
	if err := pool.Take("TOKA", user, big.NewInt(1_000)); err == nil {
		t.Fatalf("take beyond the reserve balance must fail")
	}

	got, err := manager.GetAccount(user[:])
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.Balance("TOKA").Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("user balance = %s, want 300", got.Balance("TOKA"))
	}
	reserveAddr := pool.ReserveAddress()
	reserve, err := manager.GetAccount(reserveAddr[:])
	if err != nil {
		t.Fatalf("get reserve account: %v", err)
	}
	if reserve.Balance("TOKA").Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("reserve balance = %s, want 200", reserve.Balance("TOKA"))
	}
}
