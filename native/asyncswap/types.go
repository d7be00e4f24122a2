package asyncswap

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// PoolKey identifies a pool by its currency pair and fee tier. Currency
// symbols are canonical uppercase identifiers; Currency0 and Currency1 must be
// distinct.
type PoolKey struct {
	Currency0 string
	Currency1 string
	FeePips   uint32
}

// ID returns the deterministic pool identifier derived from the key fields.
func (k PoolKey) ID() [32]byte {
	var fee [4]byte
	binary.BigEndian.PutUint32(fee[:], k.FeePips)
	return ethcrypto.Keccak256Hash([]byte(k.Currency0), []byte(k.Currency1), fee[:])
}

// Validate reports whether the key carries a usable currency pair.
func (k PoolKey) Validate() error {
	c0 := strings.TrimSpace(k.Currency0)
	c1 := strings.TrimSpace(k.Currency1)
	if c0 == "" || c1 == "" {
		return fmt.Errorf("asyncswap: pool key requires both currencies")
	}
	if c0 == c1 {
		return fmt.Errorf("asyncswap: pool key currencies must be distinct")
	}
	return nil
}

// NormalizeCurrency returns the canonical uppercase form of a currency symbol.
func NormalizeCurrency(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if trimmed == "" {
		return "", fmt.Errorf("asyncswap: currency symbol required")
	}
	return trimmed, nil
}

// PendingSwap is the authoritative record of one escrowed, not-yet-settled
// swap. The identifier is the keccak256 hash of the owner, pool id, input
// amount, submission time and a monotonic sequence counter, guaranteeing
// uniqueness even for identical submissions within the same instant.
type PendingSwap struct {
	ID                [32]byte
	Owner             [20]byte
	Pool              PoolKey
	ZeroForOne        bool
	AmountIn          *big.Int
	MinAmountOut      *big.Int
	SqrtPriceLimitX96 *big.Int
	ValidAfter        int64
	ValidUntil        int64
	CreatedAt         int64
	Executed          bool
}

// CurrencyIn returns the currency being sold.
func (p *PendingSwap) CurrencyIn() string {
	if p.ZeroForOne {
		return p.Pool.Currency0
	}
	return p.Pool.Currency1
}

// CurrencyOut returns the currency being bought.
func (p *PendingSwap) CurrencyOut() string {
	if p.ZeroForOne {
		return p.Pool.Currency1
	}
	return p.Pool.Currency0
}

// Clone returns a deep copy so callers can mutate the result without affecting
// the stored instance.
func (p *PendingSwap) Clone() *PendingSwap {
	if p == nil {
		return nil
	}
	clone := *p
	if p.AmountIn != nil {
		clone.AmountIn = new(big.Int).Set(p.AmountIn)
	} else {
		clone.AmountIn = big.NewInt(0)
	}
	if p.MinAmountOut != nil {
		clone.MinAmountOut = new(big.Int).Set(p.MinAmountOut)
	} else {
		clone.MinAmountOut = big.NewInt(0)
	}
	if p.SqrtPriceLimitX96 != nil {
		clone.SqrtPriceLimitX96 = new(big.Int).Set(p.SqrtPriceLimitX96)
	} else {
		clone.SqrtPriceLimitX96 = big.NewInt(0)
	}
	return &clone
}

// SanitizePendingSwap validates and normalises the supplied record, returning
// a cloned instance with canonical currency casing and non-nil amount fields.
// The original value is not mutated.
func SanitizePendingSwap(p *PendingSwap) (*PendingSwap, error) {
	if p == nil {
		return nil, fmt.Errorf("asyncswap: nil pending swap")
	}
	clone := p.Clone()
	c0, err := NormalizeCurrency(clone.Pool.Currency0)
	if err != nil {
		return nil, err
	}
	c1, err := NormalizeCurrency(clone.Pool.Currency1)
	if err != nil {
		return nil, err
	}
	clone.Pool.Currency0 = c0
	clone.Pool.Currency1 = c1
	if err := clone.Pool.Validate(); err != nil {
		return nil, err
	}
	if clone.AmountIn.Sign() <= 0 {
		return nil, fmt.Errorf("asyncswap: amount in must be positive")
	}
	if clone.MinAmountOut.Sign() < 0 {
		return nil, fmt.Errorf("asyncswap: min amount out must be non-negative")
	}
	if clone.ValidAfter >= clone.ValidUntil {
		return nil, fmt.Errorf("asyncswap: execution window must be non-empty")
	}
	return clone, nil
}

func pendingSwapID(owner [20]byte, poolID [32]byte, amountIn *big.Int, createdAt int64, sequence uint64) [32]byte {
	var ts, seq [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(createdAt))
	binary.BigEndian.PutUint64(seq[:], sequence)
	amount := []byte{}
	if amountIn != nil {
		amount = amountIn.Bytes()
	}
	return ethcrypto.Keccak256Hash(owner[:], poolID[:], amount, ts[:], seq[:])
}
