package asyncswap

import (
	"encoding/binary"
	"testing"
)

func TestExecutionWindowBounds(t *testing.T) {
	params := DefaultParams()
	now := int64(1_700_000_000)
	id := [32]byte{0xab}
	for i := 0; i < 512; i++ {
		var entropy [32]byte
		binary.BigEndian.PutUint64(entropy[:8], uint64(i))
		validAfter, validUntil := executionWindow(now, entropy, id, params)
		minAfter := now + params.MinDelaySeconds
		maxAfter := minAfter + params.WindowSeconds - 1
		if validAfter < minAfter || validAfter > maxAfter {
			t.Fatalf("entropy %d: validAfter %d outside [%d, %d]", i, validAfter, minAfter, maxAfter)
		}
		if want := validAfter + params.WindowSeconds + params.MaxPendingSeconds; validUntil != want {
			t.Fatalf("entropy %d: validUntil = %d, want %d", i, validUntil, want)
		}
	}
}

func TestExecutionWindowDeterministic(t *testing.T) {
	params := DefaultParams()
	entropy := [32]byte{0x01, 0x02}
	id := [32]byte{0xcd}
	a1, u1 := executionWindow(42, entropy, id, params)
	a2, u2 := executionWindow(42, entropy, id, params)
	if a1 != a2 || u1 != u2 {
		t.Fatalf("same inputs must derive the same window")
	}
}

func TestExecutionWindowVariesWithEntropy(t *testing.T) {
	params := DefaultParams()
	id := [32]byte{0xef}
	seen := make(map[int64]bool)
	for i := 0; i < 64; i++ {
		var entropy [32]byte
		entropy[0] = byte(i)
		validAfter, _ := executionWindow(1_700_000_000, entropy, id, params)
		seen[validAfter] = true
	}
	if len(seen) < 2 {
		t.Fatalf("entropy must influence the delay offset")
	}
}
