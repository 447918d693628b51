// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

import (
	"fmt"
	"math"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/matchingengine/state"
)

const (
	balancePrefix = "custody/balance"
	ownerPrefix   = "custody/owner"
)

// Program owns the accounts derived from its address. It is the only source
// of authorities over them.
type Program struct {
	address common.Address
}

func NewProgram(address common.Address) *Program {
	return &Program{address: address}
}

func (p *Program) Address() common.Address {
	return p.address
}

// Account derives an account without granting authority over it
func (p *Program) Account(seeds ...[]byte) common.Address {
	return Derive(p.address, seeds...)
}

// Authority grants control of the account derived from seeds
func (p *Program) Authority(seeds ...[]byte) Authority {
	return Authority{account: Derive(p.address, seeds...), owner: p.address}
}

// Treasury grants control of the program's own account
func (p *Program) Treasury() Authority {
	return Authority{account: p.address, owner: p.address}
}

// Signer is the authority of a participant whose signature the host verified
func Signer(account common.Address) Authority {
	return Authority{account: account, owner: account}
}

// Ledger tracks balances of a single token. It keeps no state of its own:
// every call reads and writes through the supplied KV.
type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Balance returns the balance of account, zero when never funded
func (l *Ledger) Balance(kv state.KV, account common.Address) (uint64, error) {
	var bal uint64
	if _, err := state.GetRecord(kv, state.Key(balancePrefix, account[:]), &bal); err != nil {
		return 0, err
	}
	return bal, nil
}

// Open marks a derived account as controlled by the program behind auth.
// From then on only authorities minted by that program may debit it.
func (l *Ledger) Open(kv state.KV, auth Authority) error {
	key := state.Key(ownerPrefix, auth.account[:])
	has, err := kv.Has(key)
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("%w: %s", ErrAccountExists, auth.account.Hex())
	}
	return state.PutRecord(kv, key, auth.owner)
}

// Close releases a derived account. It must be empty.
func (l *Ledger) Close(kv state.KV, auth Authority) error {
	if err := l.authorize(kv, auth); err != nil {
		return err
	}
	bal, err := l.Balance(kv, auth.account)
	if err != nil {
		return err
	}
	if bal != 0 {
		return fmt.Errorf("%w: %s holds %d", ErrAccountNotEmpty, auth.account.Hex(), bal)
	}
	return kv.Delete(state.Key(ownerPrefix, auth.account[:]))
}

// Transfer moves amount from the authority's account to to. The credit is
// checked: a balance that would overflow fails with ErrOverflow.
func (l *Ledger) Transfer(kv state.KV, from Authority, to common.Address, amount uint64) error {
	if err := l.authorize(kv, from); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return ErrZeroAccount
	}
	if amount == 0 || from.account == to {
		return nil
	}
	if err := l.debit(kv, from.account, amount); err != nil {
		return err
	}
	return l.credit(kv, to, amount)
}

// Mint credits freshly bridged tokens to account
func (l *Ledger) Mint(kv state.KV, to common.Address, amount uint64) error {
	if to == (common.Address{}) {
		return ErrZeroAccount
	}
	return l.credit(kv, to, amount)
}

// Burn destroys amount from the authority's account
func (l *Ledger) Burn(kv state.KV, from Authority, amount uint64) error {
	if err := l.authorize(kv, from); err != nil {
		return err
	}
	return l.debit(kv, from.account, amount)
}

// Helper functions

func (l *Ledger) authorize(kv state.KV, auth Authority) error {
	var owner common.Address
	found, err := state.GetRecord(kv, state.Key(ownerPrefix, auth.account[:]), &owner)
	if err != nil {
		return err
	}
	if !found {
		owner = auth.account
	}
	if owner != auth.owner {
		return fmt.Errorf("%w: %s", ErrUnauthorized, auth.account.Hex())
	}
	return nil
}

func (l *Ledger) debit(kv state.KV, account common.Address, amount uint64) error {
	bal, err := l.Balance(kv, account)
	if err != nil {
		return err
	}
	if bal < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, account.Hex(), bal, amount)
	}
	return l.setBalance(kv, account, bal-amount)
}

func (l *Ledger) credit(kv state.KV, account common.Address, amount uint64) error {
	bal, err := l.Balance(kv, account)
	if err != nil {
		return err
	}
	if bal > math.MaxUint64-amount {
		return fmt.Errorf("%w: %s", ErrOverflow, account.Hex())
	}
	return l.setBalance(kv, account, bal+amount)
}

func (l *Ledger) setBalance(kv state.KV, account common.Address, bal uint64) error {
	key := state.Key(balancePrefix, account[:])
	if bal == 0 {
		return kv.Delete(key)
	}
	return state.PutRecord(kv, key, bal)
}
