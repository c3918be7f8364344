// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"testing"

	"github.com/luxfi/cswap/oracle"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

var (
	signer = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice  = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	bob    = common.HexToAddress("0x0000000000000000000000000000000000000b22")
	mint   = common.HexToAddress("0x0000000000000000000000000000000000000c33")
)

func newBook(t *testing.T) (*Book, *oracle.Local) {
	t.Helper()
	o := oracle.NewLocal(signer)
	return NewBook(memdb.New(), o, signer), o
}

func balance(t *testing.T, b *Book, o *oracle.Local, owner common.Address) uint64 {
	t.Helper()
	v, err := b.Get(owner, mint)
	require.NoError(t, err)
	pt, err := o.Reveal(signer, v.Balance)
	require.NoError(t, err)
	return pt.Uint64()
}

func TestCreateAndDeposit(t *testing.T) {
	b, o := newBook(t)

	_, err := b.Create(alice, mint)
	require.NoError(t, err)
	_, err = b.Create(alice, mint)
	require.ErrorIs(t, err, ErrVaultExists)

	require.Equal(t, uint64(0), balance(t, b, o, alice))

	require.NoError(t, b.Deposit(alice, mint, o.Encrypt(500), oracle.TypeEuint128))
	require.Equal(t, uint64(500), balance(t, b, o, alice))
}

func TestTransfer(t *testing.T) {
	b, o := newBook(t)
	_, err := b.Create(alice, mint)
	require.NoError(t, err)
	_, err = b.Create(bob, mint)
	require.NoError(t, err)
	require.NoError(t, b.Deposit(alice, mint, o.Encrypt(500), oracle.TypeEuint128))

	require.NoError(t, b.Transfer(alice, bob, alice, mint, o.Encrypt(120), oracle.TypeEuint128))

	require.Equal(t, uint64(380), balance(t, b, o, alice))
	require.Equal(t, uint64(120), balance(t, b, o, bob))
}

func TestTransferValue(t *testing.T) {
	b, o := newBook(t)
	_, err := b.Create(alice, mint)
	require.NoError(t, err)
	_, err = b.Create(bob, mint)
	require.NoError(t, err)
	require.NoError(t, b.Deposit(alice, mint, o.Encrypt(500), oracle.TypeEuint128))

	// A live handle moves like a blob but is not single-use: the same
	// handle settles twice, the way a swap's gated amounts settle both legs
	// of repeated trades.
	amount, err := o.NewValue(signer, o.Encrypt(120), oracle.TypeEuint128)
	require.NoError(t, err)
	require.NoError(t, b.TransferValue(alice, bob, alice, mint, amount))
	require.NoError(t, b.TransferValue(alice, bob, alice, mint, amount))

	require.Equal(t, uint64(260), balance(t, b, o, alice))
	require.Equal(t, uint64(240), balance(t, b, o, bob))

	err = b.TransferValue(alice, bob, bob, mint, amount)
	require.ErrorIs(t, err, ErrTransferFault)
}

func TestTransferAuthorityMismatch(t *testing.T) {
	b, o := newBook(t)
	_, err := b.Create(alice, mint)
	require.NoError(t, err)
	_, err = b.Create(bob, mint)
	require.NoError(t, err)

	err = b.Transfer(alice, bob, bob, mint, o.Encrypt(10), oracle.TypeEuint128)
	require.ErrorIs(t, err, ErrTransferFault)

	// Nothing moved.
	require.Equal(t, uint64(0), balance(t, b, o, bob))
}

func TestTransferUnknownVault(t *testing.T) {
	b, o := newBook(t)
	_, err := b.Create(alice, mint)
	require.NoError(t, err)

	err = b.Transfer(alice, bob, alice, mint, o.Encrypt(10), oracle.TypeEuint128)
	require.ErrorIs(t, err, ErrTransferFault)
	require.ErrorIs(t, err, ErrVaultNotFound)
}

func TestTransferReusedCiphertext(t *testing.T) {
	b, o := newBook(t)
	_, err := b.Create(alice, mint)
	require.NoError(t, err)
	_, err = b.Create(bob, mint)
	require.NoError(t, err)

	blob := o.Encrypt(10)
	require.NoError(t, b.Transfer(alice, bob, alice, mint, blob, oracle.TypeEuint128))

	err = b.Transfer(alice, bob, alice, mint, blob, oracle.TypeEuint128)
	require.ErrorIs(t, err, ErrTransferFault)
	require.ErrorIs(t, err, oracle.ErrCiphertextReused)
}
