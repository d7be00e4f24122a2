package simpool

import (
	"fmt"
	"math/big"

	"github.com/TheOnma/async-swap-hook/native/asyncswap"
)

// Router originates swap requests the way an on-chain router would: it moves
// the caller's input under pool custody, hands the request to the hook, and
// either finishes the swap immediately or surfaces the pending record the
// interceptor produced.
type Router struct {
	pool   *Pool
	engine *asyncswap.Engine
}

// NewRouter binds the router to the pool and hook engine.
func NewRouter(pool *Pool, engine *asyncswap.Engine) *Router {
	return &Router{pool: pool, engine: engine}
}

// SwapOutcome is the immediate result of a swap submission. Exactly one of
// Pending and Delta is set: Pending when the hook escrowed the swap, Delta
// when it settled straight through the pool.
type SwapOutcome struct {
	Pending *asyncswap.PendingSwap
	Delta   *asyncswap.BalanceDelta
}

// SubmitSwap routes one swap request through the hook.
func (r *Router) SubmitSwap(sender [20]byte, key asyncswap.PoolKey, params asyncswap.SwapParams, minAmountOut *big.Int) (*SwapOutcome, error) {
	if r == nil || r.pool == nil || r.engine == nil {
		return nil, fmt.Errorf("simpool: router not configured")
	}
	if params.AmountSpecified == nil || params.AmountSpecified.Sign() >= 0 {
		return nil, asyncswap.ErrExactOutputUnsupported
	}
	amountIn := new(big.Int).Abs(params.AmountSpecified)
	currencyIn := key.Currency0
	currencyOut := key.Currency1
	if !params.ZeroForOne {
		currencyIn, currencyOut = currencyOut, currencyIn
	}
	// The hook expects the input already under pool custody when it runs.
	if err := r.pool.Settle(currencyIn, sender, amountIn); err != nil {
		return nil, err
	}
	result, err := r.engine.Intercept(sender, key, params, minAmountOut)
	if err != nil {
		if refundErr := r.pool.Take(currencyIn, sender, amountIn); refundErr != nil {
			return nil, fmt.Errorf("simpool: refund after failed interception: %w", refundErr)
		}
		return nil, err
	}
	if result.Intercepted {
		return &SwapOutcome{Pending: result.Swap}, nil
	}
	delta, err := r.pool.Swap(sender, key, params)
	if err != nil {
		if refundErr := r.pool.Take(currencyIn, sender, amountIn); refundErr != nil {
			return nil, fmt.Errorf("simpool: refund after failed swap: %w", refundErr)
		}
		return nil, err
	}
	output := delta.OutputAmount(params.ZeroForOne)
	if err := r.pool.Take(currencyOut, sender, output); err != nil {
		return nil, err
	}
	return &SwapOutcome{Delta: delta}, nil
}
