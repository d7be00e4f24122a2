package asyncswap

import "math/big"

// SwapThreshold converts a single-sided reserve estimate into the
// classification boundary: thresholdBps of the reserve, truncated.
func SwapThreshold(reserve *big.Int, thresholdBps uint32) *big.Int {
	if reserve == nil || reserve.Sign() <= 0 {
		return big.NewInt(0)
	}
	threshold := new(big.Int).Mul(reserve, new(big.Int).SetUint64(uint64(thresholdBps)))
	return threshold.Quo(threshold, big.NewInt(BpsDenominator))
}

// IsLargeSwap classifies a swap against the live pool state. The threshold is
// recomputed from the current reserves on every call so that thin pools escrow
// proportionally smaller swaps. A swap is large iff its input strictly exceeds
// the threshold for the side being sold. Zero-liquidity pools classify nothing
// as large: a pool that cannot execute anything must not escrow anything.
func IsLargeSwap(state *PoolState, zeroForOne bool, amountIn *big.Int, thresholdBps uint32) bool {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return false
	}
	reserve0, reserve1 := EstimateReserves(state)
	reserveIn := reserve0
	if !zeroForOne {
		reserveIn = reserve1
	}
	if reserveIn.Sign() == 0 {
		return false
	}
	return amountIn.Cmp(SwapThreshold(reserveIn, thresholdBps)) > 0
}
