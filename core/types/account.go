package types

import "math/big"

// Account tracks per-currency balances for a single address. Currencies are
// canonical token identifiers as carried by pool keys.
type Account struct {
	Balances map[string]*big.Int `json:"balances"`
}

// NewAccount returns an account with an initialised balance table.
func NewAccount() *Account {
	return &Account{Balances: make(map[string]*big.Int)}
}

// Balance returns the balance held for the supplied currency, treating missing
// entries as zero. The returned value is a copy.
func (a *Account) Balance(currency string) *big.Int {
	if a == nil || a.Balances == nil {
		return big.NewInt(0)
	}
	bal, ok := a.Balances[currency]
	if !ok || bal == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(bal)
}

// SetBalance records the balance for the supplied currency, copying the amount.
func (a *Account) SetBalance(currency string, amount *big.Int) {
	if a == nil {
		return
	}
	if a.Balances == nil {
		a.Balances = make(map[string]*big.Int)
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	a.Balances[currency] = new(big.Int).Set(amount)
}

// Clone returns a deep copy of the account so callers can mutate the result
// without affecting the stored instance.
func (a *Account) Clone() *Account {
	if a == nil {
		return NewAccount()
	}
	clone := NewAccount()
	for currency, bal := range a.Balances {
		if bal == nil {
			clone.Balances[currency] = big.NewInt(0)
			continue
		}
		clone.Balances[currency] = new(big.Int).Set(bal)
	}
	return clone
}
