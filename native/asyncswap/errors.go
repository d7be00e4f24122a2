package asyncswap

import "errors"

var (
	// ErrExactOutputUnsupported rejects swaps that specify an exact output
	// amount; the hook only defers exact-input swaps.
	ErrExactOutputUnsupported = errors.New("asyncswap: exact output swaps unsupported")
	// ErrSwapNotFound is returned by Execute when no live pending record
	// exists for the identifier, including records already finalized.
	ErrSwapNotFound = errors.New("asyncswap: pending swap not found")
	// ErrTooEarly is returned by Execute before the execution window opens.
	ErrTooEarly = errors.New("asyncswap: execution window not yet open")
	// ErrExpired is returned by Execute after the execution window closed.
	ErrExpired = errors.New("asyncswap: execution window expired")
	// ErrSlippageExceeded is returned when the realised output falls below
	// the owner's floor. The record stays finalized; the swap is not
	// retryable.
	ErrSlippageExceeded = errors.New("asyncswap: output below minimum")
	// ErrAlreadyFinalized is returned by Cancel once the record has settled
	// and no escrow remains to refund.
	ErrAlreadyFinalized = errors.New("asyncswap: pending swap already finalized")
	// ErrNotOwner is returned by Cancel for any caller other than the
	// original requester.
	ErrNotOwner = errors.New("asyncswap: caller is not the swap owner")
	// ErrTooSoon is returned by Cancel while the execution window is still
	// open; cancellation is strictly a post-expiry escape hatch.
	ErrTooSoon = errors.New("asyncswap: execution window still open")
)
