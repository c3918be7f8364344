// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import (
	"fmt"

	"github.com/luxfi/cswap/pool"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
)

// The permission and delegation services are external collaborators; the
// program only derives the accounts they act on and validates them before
// handing off.

// AccessRegistrar registers a derived account with the permission service,
// granting the listed members access to it.
type AccessRegistrar interface {
	CreatePermission(account common.Address, members []common.Address) error
}

// Delegator hands a derived account to a rollup validator for delegated
// execution.
type Delegator interface {
	Delegate(account common.Address, validator common.Address) error
}

// RegisterPoolAuthority derives the custody authority for the mint pair,
// checks it against the caller-supplied account, and registers it with the
// permission service. The equality check is what prevents registering a
// permission for an account this program does not control.
func (pr *Program) RegisterPoolAuthority(reg AccessRegistrar, account common.Address, mintA, mintB common.Address, members []common.Address) error {
	expected := pool.DeriveAuthority(mintA, mintB)
	if account != expected {
		return fmt.Errorf("%w: got %s, derived %s", pool.ErrIntegrityMismatch, account, expected)
	}
	if err := reg.CreatePermission(account, members); err != nil {
		return fmt.Errorf("create permission: %w", err)
	}
	pr.log.Info("pool authority registered", log.Stringer("account", account))
	return nil
}

// DelegatePoolAuthority delegates the derived custody authority to a rollup
// validator.
func (pr *Program) DelegatePoolAuthority(d Delegator, mintA, mintB common.Address, validator common.Address) error {
	account := pool.DeriveAuthority(mintA, mintB)
	if err := d.Delegate(account, validator); err != nil {
		return fmt.Errorf("delegate: %w", err)
	}
	pr.log.Info("pool authority delegated",
		log.Stringer("account", account),
		log.Stringer("validator", validator),
	)
	return nil
}
