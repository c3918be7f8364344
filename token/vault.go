// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package token moves encrypted balances between vaults. Amounts are
// ciphertext blobs decoded at the oracle; the transfer layer never observes
// a plaintext balance and overdrafts wrap at the oracle's 128-bit width
// exactly like pool reserves.
package token

import (
	"errors"
	"fmt"

	"github.com/luxfi/cswap/oracle"
	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

var (
	// ErrTransferFault covers authority mismatch, unknown vaults, and
	// oracle-level failures during a transfer. Fatal to the instruction.
	ErrTransferFault = errors.New("token transfer fault")

	ErrVaultNotFound = errors.New("vault not found")
	ErrVaultExists   = errors.New("vault already exists")
)

var vaultSeed = []byte("vault")

// Vault holds one owner's encrypted balance of one mint.
type Vault struct {
	Owner   common.Address
	Mint    common.Address
	Balance oracle.EncryptedValue
}

// VaultID derives the storage id for an (owner, mint) pair.
func VaultID(owner, mint common.Address) common.Hash {
	h := blake3.New()
	h.Write(vaultSeed)
	h.Write(owner.Bytes())
	h.Write(mint.Bytes())
	var id common.Hash
	h.Digest().Read(id[:])
	return id
}

func (v *Vault) encode() []byte {
	buf := make([]byte, 0, 2*common.AddressLength+common.HashLength)
	buf = append(buf, v.Owner.Bytes()...)
	buf = append(buf, v.Mint.Bytes()...)
	buf = append(buf, v.Balance.Bytes()...)
	return buf
}

func decodeVault(data []byte) (*Vault, error) {
	if len(data) != 2*common.AddressLength+common.HashLength {
		return nil, errors.New("malformed vault record")
	}
	return &Vault{
		Owner:   common.BytesToAddress(data[:common.AddressLength]),
		Mint:    common.BytesToAddress(data[common.AddressLength : 2*common.AddressLength]),
		Balance: oracle.ValueFromBytes(data[2*common.AddressLength:]),
	}, nil
}

// Book is the vault ledger. The signer identity is the one the book uses for
// its own oracle calls (balance updates); transfer authorization is checked
// against the vault owner separately.
type Book struct {
	db     database.Database
	oracle oracle.Oracle
	signer common.Address
}

// NewBook opens a vault ledger over the given database.
func NewBook(db database.Database, o oracle.Oracle, signer common.Address) *Book {
	return &Book{db: db, oracle: o, signer: signer}
}

// Create opens a vault with an encrypted-zero balance.
func (b *Book) Create(owner, mint common.Address) (*Vault, error) {
	id := VaultID(owner, mint)
	ok, err := b.db.Has(id.Bytes())
	if err != nil {
		return nil, fmt.Errorf("vault %s: %w", id, err)
	}
	if ok {
		return nil, fmt.Errorf("vault %s: %w", id, ErrVaultExists)
	}
	zero, err := b.oracle.Constant(b.signer, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransferFault, err)
	}
	v := &Vault{Owner: owner, Mint: mint, Balance: zero}
	if err := b.db.Put(id.Bytes(), v.encode()); err != nil {
		return nil, fmt.Errorf("vault %s: %w", id, err)
	}
	return v, nil
}

// Get loads a vault.
func (b *Book) Get(owner, mint common.Address) (*Vault, error) {
	id := VaultID(owner, mint)
	data, err := b.db.Get(id.Bytes())
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("vault %s: %w", id, ErrVaultNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("vault %s: %w", id, err)
	}
	return decodeVault(data)
}

// Deposit credits a vault from an external ciphertext. Bootstrap path for
// funding test and demo vaults.
func (b *Book) Deposit(owner, mint common.Address, ciphertext []byte, typeTag uint8) error {
	v, err := b.Get(owner, mint)
	if err != nil {
		return err
	}
	amount, err := b.oracle.NewValue(b.signer, ciphertext, typeTag)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFault, err)
	}
	v.Balance, err = b.oracle.Add(b.signer, v.Balance, amount)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFault, err)
	}
	return b.db.Put(VaultID(owner, mint).Bytes(), v.encode())
}

// Transfer moves an encrypted amount between two vaults of the same mint.
// The amount ciphertext is single-use and must be distinct from any blob
// already consumed in the same instruction.
func (b *Book) Transfer(source, destination, authority, mint common.Address, ciphertext []byte, typeTag uint8) error {
	amount, err := b.oracle.NewValue(b.signer, ciphertext, typeTag)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFault, err)
	}
	return b.TransferValue(source, destination, authority, mint, amount)
}

// TransferValue moves a live amount handle between two vaults of the same
// mint. Swap settlement uses this path with the engine's gated amounts, so
// the tokens moved are exactly the ones the reserves absorbed. The authority
// must be the source vault's owner. Both balance updates are oblivious; a
// zeroed handle moves nothing while looking identical to a real transfer.
func (b *Book) TransferValue(source, destination, authority, mint common.Address, amount oracle.EncryptedValue) error {
	src, err := b.Get(source, mint)
	if err != nil {
		return fmt.Errorf("%w: source: %w", ErrTransferFault, err)
	}
	dst, err := b.Get(destination, mint)
	if err != nil {
		return fmt.Errorf("%w: destination: %w", ErrTransferFault, err)
	}
	if authority != src.Owner {
		return fmt.Errorf("%w: authority %s does not own source vault", ErrTransferFault, authority)
	}

	src.Balance, err = b.oracle.Sub(b.signer, src.Balance, amount)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFault, err)
	}
	dst.Balance, err = b.oracle.Add(b.signer, dst.Balance, amount)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFault, err)
	}

	if err := b.db.Put(VaultID(source, mint).Bytes(), src.encode()); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFault, err)
	}
	if err := b.db.Put(VaultID(destination, mint).Bytes(), dst.encode()); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFault, err)
	}
	return nil
}
