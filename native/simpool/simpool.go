package simpool

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/TheOnma/async-swap-hook/core/types"
	"github.com/TheOnma/async-swap-hook/native/asyncswap"
)

var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

// AccountState is the slice of state manager functionality the pool needs to
// move funds during custody operations.
type AccountState interface {
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Pool is a deterministic in-process pool engine. It quotes and executes
// exact-input swaps at the configured spot price without moving it, which
// keeps settlement amounts reproducible. The daemon uses it as a devnet pool;
// the engine tests use it as the external collaborator.
type Pool struct {
	mu      sync.RWMutex
	state   AccountState
	reserve [20]byte
	slots   map[[32]byte]*asyncswap.PoolState
}

// New constructs a pool engine whose reserves live in the account identified
// by reserve.
func New(state AccountState, reserve [20]byte) *Pool {
	return &Pool{
		state:   state,
		reserve: reserve,
		slots:   make(map[[32]byte]*asyncswap.PoolState),
	}
}

// ReserveAddress returns the account holding the pool's funds.
func (p *Pool) ReserveAddress() [20]byte { return p.reserve }

// SetSlot0 configures price and liquidity for a pool.
func (p *Pool) SetSlot0(key asyncswap.PoolKey, sqrtPriceX96, liquidity *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots[key.ID()] = &asyncswap.PoolState{
		SqrtPriceX96: cloneOrZero(sqrtPriceX96),
		Liquidity:    cloneOrZero(liquidity),
	}
}

// Slot0 returns the current price and liquidity of the pool.
func (p *Pool) Slot0(key asyncswap.PoolKey) (*asyncswap.PoolState, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	slot, ok := p.slots[key.ID()]
	if !ok {
		return nil, fmt.Errorf("simpool: unknown pool %s/%s", key.Currency0, key.Currency1)
	}
	return &asyncswap.PoolState{
		SqrtPriceX96: cloneOrZero(slot.SqrtPriceX96),
		Liquidity:    cloneOrZero(slot.Liquidity),
	}, nil
}

// Swap executes an exact-input swap at the current spot price and returns the
// signed balance deltas from the swapper's perspective.
func (p *Pool) Swap(_ [20]byte, key asyncswap.PoolKey, params asyncswap.SwapParams) (*asyncswap.BalanceDelta, error) {
	if params.AmountSpecified == nil || params.AmountSpecified.Sign() >= 0 {
		return nil, fmt.Errorf("simpool: exact input swaps only")
	}
	slot, err := p.Slot0(key)
	if err != nil {
		return nil, err
	}
	if slot.Liquidity.Sign() == 0 || slot.SqrtPriceX96.Sign() == 0 {
		return nil, fmt.Errorf("simpool: pool has no liquidity")
	}
	amountIn := new(big.Int).Abs(params.AmountSpecified)
	priceSquared := new(big.Int).Mul(slot.SqrtPriceX96, slot.SqrtPriceX96)
	amountOut := new(big.Int)
	if params.ZeroForOne {
		amountOut.Mul(amountIn, priceSquared)
		amountOut.Quo(amountOut, q192)
	} else {
		amountOut.Mul(amountIn, q192)
		amountOut.Quo(amountOut, priceSquared)
	}
	delta := &asyncswap.BalanceDelta{}
	if params.ZeroForOne {
		delta.Amount0 = new(big.Int).Neg(amountIn)
		delta.Amount1 = amountOut
	} else {
		delta.Amount0 = amountOut
		delta.Amount1 = new(big.Int).Neg(amountIn)
	}
	return delta, nil
}

// Take claims funds owed to the caller, moving them from the pool reserves to
// the recipient account.
func (p *Pool) Take(currency string, to [20]byte, amount *big.Int) error {
	return p.transfer(p.reserve, to, currency, amount)
}

// Settle pays funds owed to the pool out of the from account into the pool
// reserves.
func (p *Pool) Settle(currency string, from [20]byte, amount *big.Int) error {
	return p.transfer(from, p.reserve, currency, amount)
}

func (p *Pool) transfer(from, to [20]byte, currency string, amount *big.Int) error {
	if p == nil || p.state == nil {
		return fmt.Errorf("simpool: state not configured")
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("simpool: negative transfer amount")
	}
	fromAcc, err := p.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := p.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	if fromAcc == nil {
		fromAcc = types.NewAccount()
	}
	if toAcc == nil {
		toAcc = types.NewAccount()
	}
	balance := fromAcc.Balance(currency)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("simpool: insufficient %s balance", currency)
	}
	fromAcc.SetBalance(currency, new(big.Int).Sub(balance, amount))
	toAcc.SetBalance(currency, new(big.Int).Add(toAcc.Balance(currency), amount))
	if err := p.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return p.state.PutAccount(to[:], toAcc)
}

func cloneOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
