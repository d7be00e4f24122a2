package asyncswap

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/TheOnma/async-swap-hook/storage"
)

var (
	pendingRecordPrefix = []byte("asyncswap/pending/")
	pendingIndexKey     = []byte("asyncswap/pending/index")
	sequenceKey         = []byte("asyncswap/sequence")
)

// Ledger persists pending swap records in the underlying key-value store.
// Records are RLP encoded; an index entry per record supports time-ordered
// listing with cursor pagination. The sequence counter is monotonic and only
// ever incremented, serving identifier derivation exclusively.
type Ledger struct {
	store storage.Database
}

// NewLedger constructs a ledger bound to the provided storage backend.
func NewLedger(store storage.Database) *Ledger {
	return &Ledger{store: store}
}

type storedPendingSwap struct {
	ID                [32]byte
	Owner             [20]byte
	Currency0         string
	Currency1         string
	FeePips           uint32
	ZeroForOne        bool
	AmountIn          *big.Int
	MinAmountOut      *big.Int
	SqrtPriceLimitX96 *big.Int
	ValidAfter        uint64
	ValidUntil        uint64
	CreatedAt         uint64
	Executed          bool
}

type ledgerIndexEntry struct {
	ID        [32]byte
	CreatedAt uint64
}

// Put stores a new pending swap record, rejecting duplicate identifiers.
func (l *Ledger) Put(record *PendingSwap) error {
	if l == nil || l.store == nil {
		return fmt.Errorf("ledger not initialised")
	}
	sanitized, err := SanitizePendingSwap(record)
	if err != nil {
		return err
	}
	key := pendingKey(sanitized.ID)
	ok, err := l.store.Has(key)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("ledger: pending swap %x already exists", sanitized.ID)
	}
	if err := l.writeRecord(key, sanitized); err != nil {
		return err
	}
	entries, err := l.loadIndex()
	if err != nil {
		return err
	}
	entries = append(entries, ledgerIndexEntry{ID: sanitized.ID, CreatedAt: int64ToUint64(sanitized.CreatedAt)})
	encoded, err := rlp.EncodeToBytes(entries)
	if err != nil {
		return err
	}
	return l.store.Put(pendingIndexKey, encoded)
}

// Update overwrites an existing record, typically to set the executed flag.
func (l *Ledger) Update(record *PendingSwap) error {
	if l == nil || l.store == nil {
		return fmt.Errorf("ledger not initialised")
	}
	sanitized, err := SanitizePendingSwap(record)
	if err != nil {
		return err
	}
	key := pendingKey(sanitized.ID)
	ok, err := l.store.Has(key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("ledger: pending swap %x not found", sanitized.ID)
	}
	return l.writeRecord(key, sanitized)
}

// Get retrieves a pending swap by identifier.
func (l *Ledger) Get(id [32]byte) (*PendingSwap, bool, error) {
	if l == nil || l.store == nil {
		return nil, false, fmt.Errorf("ledger not initialised")
	}
	key := pendingKey(id)
	ok, err := l.store.Has(key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	raw, err := l.store.Get(key)
	if err != nil {
		return nil, false, err
	}
	var stored storedPendingSwap
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, false, err
	}
	record, err := fromStoredPending(&stored)
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// NextSequence returns the current counter value and advances it. The counter
// never decreases, guaranteeing distinct identifiers for back-to-back
// submissions with identical parameters.
func (l *Ledger) NextSequence() (uint64, error) {
	if l == nil || l.store == nil {
		return 0, fmt.Errorf("ledger not initialised")
	}
	current, err := l.Count()
	if err != nil {
		return 0, err
	}
	encoded, err := rlp.EncodeToBytes(current + 1)
	if err != nil {
		return 0, err
	}
	if err := l.store.Put(sequenceKey, encoded); err != nil {
		return 0, err
	}
	return current, nil
}

// Count reports how many swaps have ever been escrowed.
func (l *Ledger) Count() (uint64, error) {
	if l == nil || l.store == nil {
		return 0, fmt.Errorf("ledger not initialised")
	}
	ok, err := l.store.Has(sequenceKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	raw, err := l.store.Get(sequenceKey)
	if err != nil {
		return 0, err
	}
	var current uint64
	if err := rlp.DecodeBytes(raw, &current); err != nil {
		return 0, err
	}
	return current, nil
}

// List returns pending swap records created within the supplied timestamp
// range, oldest first. Both bounds are inclusive; zero disables a bound. The
// cursor is the hex identifier of the last item from the previous page.
func (l *Ledger) List(startTs, endTs int64, cursor string, limit int) ([]*PendingSwap, string, error) {
	if l == nil || l.store == nil {
		return nil, "", fmt.Errorf("ledger not initialised")
	}
	entries, err := l.loadIndex()
	if err != nil {
		return nil, "", err
	}
	filtered := make([]ledgerIndexEntry, 0, len(entries))
	for _, entry := range entries {
		createdAt, err := uint64ToInt64(entry.CreatedAt)
		if err != nil {
			return nil, "", fmt.Errorf("ledger: index entry overflow: %w", err)
		}
		if startTs != 0 && createdAt < startTs {
			continue
		}
		if endTs != 0 && createdAt > endTs {
			continue
		}
		filtered = append(filtered, entry)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].CreatedAt == filtered[j].CreatedAt {
			return hex.EncodeToString(filtered[i].ID[:]) < hex.EncodeToString(filtered[j].ID[:])
		}
		return filtered[i].CreatedAt < filtered[j].CreatedAt
	})
	startIdx := 0
	cursorID := strings.TrimSpace(cursor)
	if cursorID != "" {
		for i, entry := range filtered {
			if hex.EncodeToString(entry.ID[:]) == cursorID {
				startIdx = i + 1
				break
			}
		}
	}
	pageSize := limit
	if pageSize <= 0 {
		pageSize = len(filtered) - startIdx
	}
	records := make([]*PendingSwap, 0, pageSize)
	nextCursor := ""
	for i := startIdx; i < len(filtered) && len(records) < pageSize; i++ {
		record, ok, err := l.Get(filtered[i].ID)
		if err != nil {
			return nil, "", err
		}
		if !ok {
			continue
		}
		records = append(records, record)
		nextCursor = hex.EncodeToString(filtered[i].ID[:])
	}
	if startIdx+len(records) >= len(filtered) {
		nextCursor = ""
	}
	return records, nextCursor, nil
}

func (l *Ledger) writeRecord(key []byte, record *PendingSwap) error {
	encoded, err := rlp.EncodeToBytes(toStoredPending(record))
	if err != nil {
		return err
	}
	return l.store.Put(key, encoded)
}

func (l *Ledger) loadIndex() ([]ledgerIndexEntry, error) {
	ok, err := l.store.Has(pendingIndexKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	raw, err := l.store.Get(pendingIndexKey)
	if err != nil {
		return nil, err
	}
	var entries []ledgerIndexEntry
	if err := rlp.DecodeBytes(raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func pendingKey(id [32]byte) []byte {
	encoded := hex.EncodeToString(id[:])
	buf := make([]byte, len(pendingRecordPrefix)+len(encoded))
	copy(buf, pendingRecordPrefix)
	copy(buf[len(pendingRecordPrefix):], encoded)
	return buf
}

func toStoredPending(record *PendingSwap) storedPendingSwap {
	stored := storedPendingSwap{}
	if record == nil {
		return stored
	}
	stored.ID = record.ID
	stored.Owner = record.Owner
	stored.Currency0 = record.Pool.Currency0
	stored.Currency1 = record.Pool.Currency1
	stored.FeePips = record.Pool.FeePips
	stored.ZeroForOne = record.ZeroForOne
	stored.AmountIn = cloneOrZero(record.AmountIn)
	stored.MinAmountOut = cloneOrZero(record.MinAmountOut)
	stored.SqrtPriceLimitX96 = cloneOrZero(record.SqrtPriceLimitX96)
	stored.ValidAfter = int64ToUint64(record.ValidAfter)
	stored.ValidUntil = int64ToUint64(record.ValidUntil)
	stored.CreatedAt = int64ToUint64(record.CreatedAt)
	stored.Executed = record.Executed
	return stored
}

func fromStoredPending(stored *storedPendingSwap) (*PendingSwap, error) {
	if stored == nil {
		return nil, fmt.Errorf("ledger: nil stored record")
	}
	validAfter, err := uint64ToInt64(stored.ValidAfter)
	if err != nil {
		return nil, fmt.Errorf("ledger: valid after overflow: %w", err)
	}
	validUntil, err := uint64ToInt64(stored.ValidUntil)
	if err != nil {
		return nil, fmt.Errorf("ledger: valid until overflow: %w", err)
	}
	createdAt, err := uint64ToInt64(stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ledger: created at overflow: %w", err)
	}
	return &PendingSwap{
		ID:    stored.ID,
		Owner: stored.Owner,
		Pool: PoolKey{
			Currency0: stored.Currency0,
			Currency1: stored.Currency1,
			FeePips:   stored.FeePips,
		},
		ZeroForOne:        stored.ZeroForOne,
		AmountIn:          cloneOrZero(stored.AmountIn),
		MinAmountOut:      cloneOrZero(stored.MinAmountOut),
		SqrtPriceLimitX96: cloneOrZero(stored.SqrtPriceLimitX96),
		ValidAfter:        validAfter,
		ValidUntil:        validUntil,
		CreatedAt:         createdAt,
		Executed:          stored.Executed,
	}, nil
}

func cloneOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func int64ToUint64(value int64) uint64 {
	if value < 0 {
		return 0
	}
	return uint64(value)
}

func uint64ToInt64(value uint64) (int64, error) {
	if value > math.MaxInt64 {
		return 0, fmt.Errorf("value %d exceeds int64 range", value)
	}
	return int64(value), nil
}
