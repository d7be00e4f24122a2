package asyncswap

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/TheOnma/async-swap-hook/core/types"
)

const (
	// EventTypeSwapPaused is emitted when a large swap is intercepted and
	// escrowed for deferred execution.
	EventTypeSwapPaused = "asyncswap.paused"
	// EventTypeSwapExecuted is emitted when a pending swap settles.
	EventTypeSwapExecuted = "asyncswap.executed"
	// EventTypeSwapCancelled is emitted when an expired pending swap is
	// refunded to its owner.
	EventTypeSwapCancelled = "asyncswap.cancelled"
)

// SwapPaused carries the public parameters of a newly escrowed swap. The id is
// reconstructible from the submission parameters, letting the original caller
// track its deferred swap without a separate lookup.
type SwapPaused struct {
	ID         [32]byte
	Owner      [20]byte
	AmountIn   *big.Int
	ValidAfter int64
	ValidUntil int64
}

func (SwapPaused) EventType() string { return EventTypeSwapPaused }

func (e SwapPaused) Event() *types.Event {
	return &types.Event{
		Type: EventTypeSwapPaused,
		Attributes: map[string]string{
			"id":         hex.EncodeToString(e.ID[:]),
			"owner":      hex.EncodeToString(e.Owner[:]),
			"amountIn":   bigIntString(e.AmountIn),
			"validAfter": strconv.FormatInt(e.ValidAfter, 10),
			"validUntil": strconv.FormatInt(e.ValidUntil, 10),
		},
	}
}

// SwapExecuted reports the settlement outcome of a pending swap.
type SwapExecuted struct {
	ID        [32]byte
	Executor  [20]byte
	AmountOut *big.Int
	Fee       *big.Int
}

func (SwapExecuted) EventType() string { return EventTypeSwapExecuted }

func (e SwapExecuted) Event() *types.Event {
	return &types.Event{
		Type: EventTypeSwapExecuted,
		Attributes: map[string]string{
			"id":        hex.EncodeToString(e.ID[:]),
			"executor":  hex.EncodeToString(e.Executor[:]),
			"amountOut": bigIntString(e.AmountOut),
			"fee":       bigIntString(e.Fee),
		},
	}
}

// SwapCancelled marks the terminal refund of an expired pending swap.
type SwapCancelled struct {
	ID [32]byte
}

func (SwapCancelled) EventType() string { return EventTypeSwapCancelled }

func (e SwapCancelled) Event() *types.Event {
	return &types.Event{
		Type: EventTypeSwapCancelled,
		Attributes: map[string]string{
			"id": hex.EncodeToString(e.ID[:]),
		},
	}
}

func bigIntString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
