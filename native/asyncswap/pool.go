package asyncswap

import "math/big"

// PoolState is the slice of live pool state the hook classifies against.
type PoolState struct {
	SqrtPriceX96 *big.Int
	Liquidity    *big.Int
}

// SwapParams describes a swap request against a pool. A negative
// AmountSpecified denotes an exact-input swap; non-negative values request an
// exact output, which the hook rejects.
type SwapParams struct {
	ZeroForOne        bool
	AmountSpecified   *big.Int
	SqrtPriceLimitX96 *big.Int
}

// BalanceDelta carries the signed balance changes of a swap from the
// swapper's perspective: the input side is negative, the output side positive.
type BalanceDelta struct {
	Amount0 *big.Int
	Amount1 *big.Int
}

// OutputAmount returns the magnitude of the output-side delta for the given
// direction.
func (d *BalanceDelta) OutputAmount(zeroForOne bool) *big.Int {
	if d == nil {
		return big.NewInt(0)
	}
	out := d.Amount1
	if !zeroForOne {
		out = d.Amount0
	}
	if out == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Abs(out)
}

// PoolEngine is the external price-discovery and custody engine the hook
// defers to. Implementations must execute synchronously; every call completes
// within the caller's atomic unit of work.
type PoolEngine interface {
	// Slot0 returns the current price and liquidity of the pool.
	Slot0(key PoolKey) (*PoolState, error)
	// Swap executes a swap on behalf of sender and returns the signed
	// balance deltas for both currencies.
	Swap(sender [20]byte, key PoolKey, params SwapParams) (*BalanceDelta, error)
	// Take claims funds owed to the hook, crediting the recipient account.
	Take(currency string, to [20]byte, amount *big.Int) error
	// Settle pays funds owed to the pool out of the from account.
	Settle(currency string, from [20]byte, amount *big.Int) error
}
