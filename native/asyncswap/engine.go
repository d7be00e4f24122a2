package asyncswap

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/TheOnma/async-swap-hook/core/events"
	"github.com/TheOnma/async-swap-hook/core/types"
)

var (
	errNilState = errors.New("asyncswap engine: state not configured")
	errNilPool  = errors.New("asyncswap engine: pool engine not configured")
)

type engineState interface {
	PendingPut(*PendingSwap) error
	PendingGet(id [32]byte) (*PendingSwap, bool)
	PendingUpdate(*PendingSwap) error
	NextSequence() (uint64, error)
	EscrowCredit(id [32]byte, currency string, amount *big.Int) error
	EscrowDebit(id [32]byte, currency string, amount *big.Int) error
	EscrowBalance(id [32]byte, currency string) (*big.Int, error)
	VaultAddress() [20]byte
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Engine intercepts large swaps, escrows them across a randomized delay and
// settles them against the live pool once the execution window opens. All
// state-mutating operations run to completion atomically under the host's
// serialized execution model; the engine's only concurrency concern is
// reentrancy through the pool engine, which the finalize-before-external-call
// ordering closes.
type Engine struct {
	state     engineState
	pool      PoolEngine
	params    Params
	self      [20]byte
	emitter   events.Emitter
	nowFn     func() int64
	entropyFn func() [32]byte
}

// NewEngine constructs an engine bound to the hook's own address. Swaps the
// engine re-submits during settlement carry this address as sender and bypass
// interception.
func NewEngine(self [20]byte, params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		params:    params,
		self:      self,
		emitter:   events.NoopEmitter{},
		nowFn:     func() int64 { return time.Now().Unix() },
		entropyFn: randomEntropy,
	}, nil
}

// SetState configures the state backend.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPool configures the external pool engine.
func (e *Engine) SetPool(pool PoolEngine) { e.pool = pool }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily used in tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEntropyFunc overrides the entropy source used for delay randomization,
// primarily used in tests.
func (e *Engine) SetEntropyFunc(entropy func() [32]byte) {
	if entropy == nil {
		e.entropyFn = randomEntropy
		return
	}
	e.entropyFn = entropy
}

// Params returns the engine parameters fixed at construction.
func (e *Engine) Params() Params { return e.params }

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// InterceptResult reports the outcome of routing one swap request through the
// hook. When Intercepted is false the caller forwards the request to the pool
// engine unmodified; when true the input has been escrowed and no output is
// produced until execution.
type InterceptResult struct {
	Intercepted bool
	Swap        *PendingSwap
}

// Intercept is the entry point invoked on every swap request. Small swaps
// pass through untouched; large swaps are escrowed under a randomized
// execution window. The input funds are presumed already under the pool
// engine's control when this runs: interception claims them into the hook
// vault rather than initiating a transfer from the requester.
func (e *Engine) Intercept(sender [20]byte, key PoolKey, swap SwapParams, minAmountOut *big.Int) (*InterceptResult, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.pool == nil {
		return nil, errNilPool
	}
	if sender == e.self {
		// Re-submission during settlement; classification would recurse.
		return &InterceptResult{}, nil
	}
	c0, err := NormalizeCurrency(key.Currency0)
	if err != nil {
		return nil, err
	}
	c1, err := NormalizeCurrency(key.Currency1)
	if err != nil {
		return nil, err
	}
	key.Currency0, key.Currency1 = c0, c1
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if swap.AmountSpecified == nil || swap.AmountSpecified.Sign() >= 0 {
		return nil, ErrExactOutputUnsupported
	}
	amountIn := new(big.Int).Abs(swap.AmountSpecified)
	poolState, err := e.pool.Slot0(key)
	if err != nil {
		return nil, fmt.Errorf("asyncswap: query pool state: %w", err)
	}
	if !IsLargeSwap(poolState, swap.ZeroForOne, amountIn, e.params.ThresholdBps) {
		return &InterceptResult{}, nil
	}
	sequence, err := e.state.NextSequence()
	if err != nil {
		return nil, err
	}
	now := e.now()
	id := pendingSwapID(sender, key.ID(), amountIn, now, sequence)
	validAfter, validUntil := executionWindow(now, e.entropyFn(), id, e.params)
	floor := big.NewInt(0)
	if minAmountOut != nil {
		if minAmountOut.Sign() < 0 {
			return nil, fmt.Errorf("asyncswap: min amount out must be non-negative")
		}
		floor = new(big.Int).Set(minAmountOut)
	}
	priceLimit := big.NewInt(0)
	if swap.SqrtPriceLimitX96 != nil {
		priceLimit = new(big.Int).Set(swap.SqrtPriceLimitX96)
	}
	pending := &PendingSwap{
		ID:                id,
		Owner:             sender,
		Pool:              key,
		ZeroForOne:        swap.ZeroForOne,
		AmountIn:          amountIn,
		MinAmountOut:      floor,
		SqrtPriceLimitX96: priceLimit,
		ValidAfter:        validAfter,
		ValidUntil:        validUntil,
		CreatedAt:         now,
	}
	if err := e.state.PendingPut(pending); err != nil {
		return nil, err
	}
	vault := e.state.VaultAddress()
	if err := e.pool.Take(pending.CurrencyIn(), vault, amountIn); err != nil {
		return nil, fmt.Errorf("asyncswap: claim escrow funds: %w", err)
	}
	if err := e.state.EscrowCredit(id, pending.CurrencyIn(), amountIn); err != nil {
		return nil, err
	}
	e.emit(SwapPaused{
		ID:         id,
		Owner:      sender,
		AmountIn:   amountIn,
		ValidAfter: validAfter,
		ValidUntil: validUntil,
	})
	return &InterceptResult{Intercepted: true, Swap: pending.Clone()}, nil
}

// ExecutionReceipt reports the settlement amounts of an executed swap.
type ExecutionReceipt struct {
	ID        [32]byte
	Executor  [20]byte
	AmountOut *big.Int
	Fee       *big.Int
}

// Execute settles a pending swap once its window has opened. Anyone may
// trigger execution; the caller earns the executor fee. The record is
// finalized before any pool interaction so a reentrant or hostile pool sees a
// finalized record and fails closed. A failure after finalization, including
// the slippage check, is terminal: the swap is not retryable and the escrow
// remains held until the owner cancels post-expiry.
func (e *Engine) Execute(id [32]byte, executor [20]byte) (*ExecutionReceipt, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.pool == nil {
		return nil, errNilPool
	}
	pending, ok := e.state.PendingGet(id)
	if !ok || pending.Executed {
		return nil, ErrSwapNotFound
	}
	now := e.now()
	if now < pending.ValidAfter {
		return nil, ErrTooEarly
	}
	if now > pending.ValidUntil {
		return nil, ErrExpired
	}
	// Phase 1: finalize before touching the pool.
	pending.Executed = true
	if err := e.state.PendingUpdate(pending); err != nil {
		return nil, err
	}
	// Phase 2: re-submit the original parameters as a fresh exact-input swap.
	delta, err := e.pool.Swap(e.self, pending.Pool, SwapParams{
		ZeroForOne:        pending.ZeroForOne,
		AmountSpecified:   new(big.Int).Neg(pending.AmountIn),
		SqrtPriceLimitX96: pending.SqrtPriceLimitX96,
	})
	if err != nil {
		return nil, fmt.Errorf("asyncswap: pool swap: %w", err)
	}
	vault := e.state.VaultAddress()
	currencyIn := pending.CurrencyIn()
	currencyOut := pending.CurrencyOut()
	if err := e.pool.Settle(currencyIn, vault, pending.AmountIn); err != nil {
		return nil, fmt.Errorf("asyncswap: settle escrow input: %w", err)
	}
	if err := e.state.EscrowDebit(id, currencyIn, pending.AmountIn); err != nil {
		return nil, err
	}
	output := delta.OutputAmount(pending.ZeroForOne)
	if output.Sign() <= 0 {
		return nil, fmt.Errorf("asyncswap: pool returned no output")
	}
	if err := e.pool.Take(currencyOut, vault, output); err != nil {
		return nil, fmt.Errorf("asyncswap: withdraw swap output: %w", err)
	}
	if err := e.state.EscrowCredit(id, currencyOut, output); err != nil {
		return nil, err
	}
	if pending.MinAmountOut != nil && output.Cmp(pending.MinAmountOut) < 0 {
		return nil, ErrSlippageExceeded
	}
	fee := new(big.Int).Mul(output, new(big.Int).SetUint64(uint64(e.params.ExecutorFeeBps)))
	fee.Quo(fee, big.NewInt(BpsDenominator))
	payout := new(big.Int).Sub(output, fee)
	if payout.Sign() > 0 {
		if err := e.transferToken(vault, pending.Owner, currencyOut, payout); err != nil {
			return nil, err
		}
	}
	if fee.Sign() > 0 {
		if err := e.transferToken(vault, executor, currencyOut, fee); err != nil {
			return nil, err
		}
	}
	if err := e.state.EscrowDebit(id, currencyOut, output); err != nil {
		return nil, err
	}
	e.emit(SwapExecuted{ID: id, Executor: executor, AmountOut: output, Fee: fee})
	return &ExecutionReceipt{ID: id, Executor: executor, AmountOut: output, Fee: fee}, nil
}

// Cancel refunds whatever escrow remains for the swap to its owner once the
// execution window has irrevocably expired. It is never a way to preempt
// execution. For swaps finalized by a failed execution the remaining escrow
// is the undistributed balance; for untouched pending swaps it is the full
// input amount.
func (e *Engine) Cancel(id [32]byte, caller [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	pending, ok := e.state.PendingGet(id)
	if !ok {
		return ErrSwapNotFound
	}
	if caller != pending.Owner {
		return ErrNotOwner
	}
	currencyIn := pending.CurrencyIn()
	currencyOut := pending.CurrencyOut()
	balanceIn, err := e.state.EscrowBalance(id, currencyIn)
	if err != nil {
		return err
	}
	balanceOut, err := e.state.EscrowBalance(id, currencyOut)
	if err != nil {
		return err
	}
	if pending.Executed && balanceIn.Sign() == 0 && balanceOut.Sign() == 0 {
		return ErrAlreadyFinalized
	}
	if e.now() <= pending.ValidUntil {
		return ErrTooSoon
	}
	// Finalize before the refund transfers, mirroring the execution path.
	if !pending.Executed {
		pending.Executed = true
		if err := e.state.PendingUpdate(pending); err != nil {
			return err
		}
	}
	vault := e.state.VaultAddress()
	if balanceIn.Sign() > 0 {
		if err := e.transferToken(vault, pending.Owner, currencyIn, balanceIn); err != nil {
			return err
		}
		if err := e.state.EscrowDebit(id, currencyIn, balanceIn); err != nil {
			return err
		}
	}
	if balanceOut.Sign() > 0 {
		if err := e.transferToken(vault, pending.Owner, currencyOut, balanceOut); err != nil {
			return err
		}
		if err := e.state.EscrowDebit(id, currencyOut, balanceOut); err != nil {
			return err
		}
	}
	e.emit(SwapCancelled{ID: id})
	return nil
}

// Get returns a copy of the pending swap record, if present.
func (e *Engine) Get(id [32]byte) (*PendingSwap, bool) {
	if e == nil || e.state == nil {
		return nil, false
	}
	pending, ok := e.state.PendingGet(id)
	if !ok {
		return nil, false
	}
	return pending.Clone(), true
}

// CanExecute reports whether the swap exists, is not finalized and the
// current time falls within its execution window.
func (e *Engine) CanExecute(id [32]byte) bool {
	if e == nil || e.state == nil {
		return false
	}
	pending, ok := e.state.PendingGet(id)
	if !ok || pending.Executed {
		return false
	}
	now := e.now()
	return now >= pending.ValidAfter && now <= pending.ValidUntil
}

func (e *Engine) transferToken(from, to [20]byte, currency string, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("asyncswap: negative transfer amount")
	}
	fromAcc, err := e.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := e.state.GetAccount(to[:])
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
		return fmt.Errorf("asyncswap: insufficient %s balance", currency)
	}
	fromAcc.SetBalance(currency, new(big.Int).Sub(balance, amount))
	toAcc.SetBalance(currency, new(big.Int).Add(toAcc.Balance(currency), amount))
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to[:], toAcc)
}
