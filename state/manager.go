package state

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/TheOnma/async-swap-hook/core/types"
	"github.com/TheOnma/async-swap-hook/native/asyncswap"
	"github.com/TheOnma/async-swap-hook/storage"
)

var (
	accountKeyPrefix = []byte("asyncswap/account/")
	escrowKeyPrefix  = []byte("asyncswap/escrow/")
)

// Manager is the hook's state backend: account balances, per-swap escrow
// balances and the pending-swap ledger, all persisted in a single key-value
// store. Individual methods are safe for concurrent use; operation-level
// atomicity is provided by the serialized execution model of the caller.
type Manager struct {
	mu     sync.Mutex
	db     storage.Database
	ledger *asyncswap.Ledger
	vault  [20]byte
}

// NewManager constructs a state manager over the supplied database. The vault
// address holds all escrowed funds between interception and settlement.
func NewManager(db storage.Database, vault [20]byte) *Manager {
	return &Manager{
		db:     db,
		ledger: asyncswap.NewLedger(db),
		vault:  vault,
	}
}

// Ledger exposes the pending-swap ledger for read paths (listing, RPC).
func (m *Manager) Ledger() *asyncswap.Ledger { return m.ledger }

// VaultAddress returns the address holding escrowed funds.
func (m *Manager) VaultAddress() [20]byte { return m.vault }

// PendingPut stores a new pending swap record.
func (m *Manager) PendingPut(record *asyncswap.PendingSwap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.Put(record)
}

// PendingGet fetches a pending swap record by identifier.
func (m *Manager) PendingGet(id [32]byte) (*asyncswap.PendingSwap, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok, err := m.ledger.Get(id)
	if err != nil || !ok {
		return nil, false
	}
	return record, true
}

// PendingUpdate overwrites an existing pending swap record.
func (m *Manager) PendingUpdate(record *asyncswap.PendingSwap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.Update(record)
}

// NextSequence advances and returns the monotonic submission counter.
func (m *Manager) NextSequence() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.NextSequence()
}

// EscrowCredit adds to the escrow balance held for a pending swap.
func (m *Manager) EscrowCredit(id [32]byte, currency string, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: escrow credit requires a non-negative amount")
	}
	balance, err := m.escrowBalance(id, currency)
	if err != nil {
		return err
	}
	return m.writeEscrowBalance(id, currency, new(big.Int).Add(balance, amount))
}

// EscrowDebit removes from the escrow balance held for a pending swap.
func (m *Manager) EscrowDebit(id [32]byte, currency string, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: escrow debit requires a non-negative amount")
	}
	balance, err := m.escrowBalance(id, currency)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("state: escrow balance underflow for %x", id)
	}
	return m.writeEscrowBalance(id, currency, new(big.Int).Sub(balance, amount))
}

// EscrowBalance reports the escrow balance held for a pending swap.
func (m *Manager) EscrowBalance(id [32]byte, currency string) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.escrowBalance(id, currency)
}

type storedBalance struct {
	Currency string
	Amount   *big.Int
}

// GetAccount loads the account stored for the address, or nil if absent.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := accountKey(addr)
	ok, err := m.db.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	raw, err := m.db.Get(key)
	if err != nil {
		return nil, err
	}
	var stored []storedBalance
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, err
	}
	account := types.NewAccount()
	for _, entry := range stored {
		account.SetBalance(entry.Currency, entry.Amount)
	}
	return account, nil
}

// PutAccount persists the account for the address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if account == nil {
		account = types.NewAccount()
	}
	stored := make([]storedBalance, 0, len(account.Balances))
	for currency := range account.Balances {
		stored = append(stored, storedBalance{Currency: currency, Amount: account.Balance(currency)})
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].Currency < stored[j].Currency })
	encoded, err := rlp.EncodeToBytes(stored)
	if err != nil {
		return err
	}
	return m.db.Put(accountKey(addr), encoded)
}

func (m *Manager) escrowBalance(id [32]byte, currency string) (*big.Int, error) {
	key := escrowKey(id, currency)
	ok, err := m.db.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	raw, err := m.db.Get(key)
	if err != nil {
		return nil, err
	}
	balance := new(big.Int)
	if err := rlp.DecodeBytes(raw, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

func (m *Manager) writeEscrowBalance(id [32]byte, currency string, balance *big.Int) error {
	encoded, err := rlp.EncodeToBytes(balance)
	if err != nil {
		return err
	}
	return m.db.Put(escrowKey(id, currency), encoded)
}

func accountKey(addr []byte) []byte {
	encoded := hex.EncodeToString(addr)
	buf := make([]byte, len(accountKeyPrefix)+len(encoded))
	copy(buf, accountKeyPrefix)
	copy(buf[len(accountKeyPrefix):], encoded)
	return buf
}

func escrowKey(id [32]byte, currency string) []byte {
	encoded := hex.EncodeToString(id[:]) + "/" + currency
	buf := make([]byte, len(escrowKeyPrefix)+len(encoded))
	copy(buf, escrowKeyPrefix)
	copy(buf[len(escrowKeyPrefix):], encoded)
	return buf
}
