package asyncswap

import "math/big"

var q96 = new(big.Int).Lsh(big.NewInt(1), 96)

// EstimateReserves derives the approximate single-sided virtual reserves
// available near the current price from the concentrated-liquidity identities
//
//	reserve0 = liquidity * 2^96 / sqrtPriceX96
//	reserve1 = liquidity * sqrtPriceX96 / 2^96
//
// The multiply always runs at full precision before the truncating divide, so
// the estimate never rounds in the caller's favour. A pool with zero liquidity
// (or an unset price) reports zero reserves on both sides.
func EstimateReserves(state *PoolState) (reserve0, reserve1 *big.Int) {
	if state == nil || state.Liquidity == nil || state.Liquidity.Sign() <= 0 {
		return big.NewInt(0), big.NewInt(0)
	}
	if state.SqrtPriceX96 == nil || state.SqrtPriceX96.Sign() <= 0 {
		return big.NewInt(0), big.NewInt(0)
	}
	reserve0 = new(big.Int).Mul(state.Liquidity, q96)
	reserve0.Quo(reserve0, state.SqrtPriceX96)
	reserve1 = new(big.Int).Mul(state.Liquidity, state.SqrtPriceX96)
	reserve1.Quo(reserve1, q96)
	return reserve0, reserve1
}
