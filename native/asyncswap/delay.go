package asyncswap

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// randomEntropy sources 32 bytes from the operating system CSPRNG. The delay
// seed must be unpredictable to an adversary at submission time, so each swap
// draws fresh entropy rather than hashing public inputs alone.
func randomEntropy() [32]byte {
	var entropy [32]byte
	if _, err := rand.Read(entropy[:]); err != nil {
		panic("asyncswap: entropy source unavailable: " + err.Error())
	}
	return entropy
}

// executionWindow derives the randomized execution window for a pending swap.
// The seed hashes the submission time, the entropy draw and the swap id; the
// offset is the seed reduced modulo the window length. The resulting bounds
// satisfy
//
//	validAfter  = now + minDelay + offset,  offset in [0, window)
//	validUntil  = validAfter + window + maxPending
//
// so validAfter < validUntil always holds for valid params.
func executionWindow(now int64, entropy [32]byte, id [32]byte, params Params) (validAfter, validUntil int64) {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(now))
	seed := ethcrypto.Keccak256(ts[:], entropy[:], id[:])
	offset := new(big.Int).SetBytes(seed)
	offset.Mod(offset, big.NewInt(params.WindowSeconds))
	validAfter = now + params.MinDelaySeconds + offset.Int64()
	validUntil = validAfter + params.WindowSeconds + params.MaxPendingSeconds
	return validAfter, validUntil
}
