package asyncswap

import "fmt"

// BpsDenominator is the basis point scale shared by the threshold and fee
// calculations.
const BpsDenominator = 10_000

// Params carries the hook parameters fixed at construction time. None of the
// values are runtime-mutable; thresholds track pool depth dynamically instead.
type Params struct {
	// ThresholdBps sets the classification boundary as a fraction of the
	// estimated single-sided reserves.
	ThresholdBps uint32
	// MinDelaySeconds is the floor applied before the randomized offset.
	MinDelaySeconds int64
	// WindowSeconds bounds both the randomized offset and the length of the
	// execution window.
	WindowSeconds int64
	// MaxPendingSeconds extends the execution window past its randomized
	// start, bounding how long funds stay escrowed before cancellation
	// becomes available.
	MaxPendingSeconds int64
	// ExecutorFeeBps is the share of the realised output paid to whichever
	// party triggers execution.
	ExecutorFeeBps uint32
}

// DefaultParams returns the deployment defaults.
func DefaultParams() Params {
	return Params{
		ThresholdBps:      100,
		MinDelaySeconds:   24,
		WindowSeconds:     60,
		MaxPendingSeconds: 600,
		ExecutorFeeBps:    30,
	}
}

// Validate checks the parameter domain.
func (p Params) Validate() error {
	if p.ThresholdBps == 0 || p.ThresholdBps > BpsDenominator {
		return fmt.Errorf("asyncswap: threshold bps must be in (0, %d]", BpsDenominator)
	}
	if p.ExecutorFeeBps > BpsDenominator {
		return fmt.Errorf("asyncswap: executor fee bps must not exceed %d", BpsDenominator)
	}
	if p.MinDelaySeconds < 0 {
		return fmt.Errorf("asyncswap: min delay must be non-negative")
	}
	if p.WindowSeconds <= 0 {
		return fmt.Errorf("asyncswap: execution window must be positive")
	}
	if p.MaxPendingSeconds < 0 {
		return fmt.Errorf("asyncswap: max pending time must be non-negative")
	}
	return nil
}
