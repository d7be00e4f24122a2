package asyncswap

import (
	"math/big"
	"testing"
)

func poolState(sqrtShift uint, liquidity int64) *PoolState {
	return &PoolState{
		SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), sqrtShift),
		Liquidity:    big.NewInt(liquidity),
	}
}

func TestEstimateReserves(t *testing.T) {
	// Price 1: both reserves equal liquidity.
	r0, r1 := EstimateReserves(poolState(96, 1_000_000))
	if r0.Cmp(big.NewInt(1_000_000)) != 0 || r1.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("reserves at price 1 = (%s, %s), want (1000000, 1000000)", r0, r1)
	}
	// Price 4 (sqrt 2): token0 side halves, token1 side doubles.
	r0, r1 = EstimateReserves(poolState(97, 1_000_000))
	if r0.Cmp(big.NewInt(500_000)) != 0 || r1.Cmp(big.NewInt(2_000_000)) != 0 {
		t.Fatalf("reserves at price 4 = (%s, %s), want (500000, 2000000)", r0, r1)
	}
}

func TestEstimateReservesZeroLiquidity(t *testing.T) {
	r0, r1 := EstimateReserves(poolState(96, 0))
	if r0.Sign() != 0 || r1.Sign() != 0 {
		t.Fatalf("zero liquidity must report zero reserves")
	}
	r0, r1 = EstimateReserves(nil)
	if r0.Sign() != 0 || r1.Sign() != 0 {
		t.Fatalf("nil state must report zero reserves")
	}
}

func TestSwapThresholdTruncates(t *testing.T) {
	// 100 bps of 999 truncates to 9.
	got := SwapThreshold(big.NewInt(999), 100)
	if got.Cmp(big.NewInt(9)) != 0 {
		t.Fatalf("threshold = %s, want 9", got)
	}
	if got := SwapThreshold(nil, 100); got.Sign() != 0 {
		t.Fatalf("nil reserve must yield zero threshold")
	}
}

func TestIsLargeSwapStrictBoundary(t *testing.T) {
	state := poolState(96, 1_000_000)
	if IsLargeSwap(state, true, big.NewInt(10_000), 100) {
		t.Fatalf("amount equal to the threshold is not large")
	}
	if !IsLargeSwap(state, true, big.NewInt(10_001), 100) {
		t.Fatalf("amount one above the threshold is large")
	}
}

func TestIsLargeSwapUsesInputSideReserve(t *testing.T) {
	// Price 4: reserve0 = 500k, reserve1 = 2M, so the same amount classifies
	// differently by direction.
	state := poolState(97, 1_000_000)
	amount := big.NewInt(10_000)
	if !IsLargeSwap(state, true, amount, 100) {
		t.Fatalf("10000 exceeds 100 bps of the 500k token0 reserve")
	}
	if IsLargeSwap(state, false, amount, 100) {
		t.Fatalf("10000 is under 100 bps of the 2M token1 reserve")
	}
}

func TestIsLargeSwapZeroLiquidity(t *testing.T) {
	if IsLargeSwap(poolState(96, 0), true, big.NewInt(1_000_000_000), 100) {
		t.Fatalf("zero-liquidity pools classify nothing as large")
	}
}
