// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package oracle defines the encrypted-value handle types and the client
// contract for the external arithmetic oracle. All arithmetic on encrypted
// amounts happens oracle-side; callers only ever hold opaque handles and
// every operation mints a fresh handle.
package oracle

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Ciphertext type constants, matching the FheUintType wire encoding.
const (
	TypeEbool    uint8 = 0
	TypeEuint8   uint8 = 2
	TypeEuint16  uint8 = 3
	TypeEuint32  uint8 = 4
	TypeEuint64  uint8 = 5
	TypeEuint128 uint8 = 6
)

var (
	// ErrArithmeticFault covers every oracle-level failure: unknown or stale
	// handles, malformed or reused ciphertext blobs, and unauthorized
	// signers. It is fatal to the enclosing instruction and never retried.
	ErrArithmeticFault = errors.New("arithmetic oracle fault")

	ErrInvalidCiphertext = errors.New("invalid ciphertext blob")
	ErrCiphertextReused  = errors.New("ciphertext blob already consumed")
	ErrUnknownHandle     = errors.New("unknown value handle")
	ErrUnauthorized      = errors.New("signer not authorized for oracle operations")
	ErrTypeMismatch      = errors.New("ciphertext type mismatch")
)

// EncryptedValue is an opaque reference to a 128-bit ciphertext held by the
// oracle. The zero value is not a valid handle.
type EncryptedValue struct {
	ID common.Hash
}

// IsZero reports whether the handle is unset.
func (v EncryptedValue) IsZero() bool {
	return v.ID == (common.Hash{})
}

// Bytes returns the 32-byte handle for storage.
func (v EncryptedValue) Bytes() []byte {
	return v.ID.Bytes()
}

// ValueFromBytes rebuilds a handle from its stored form.
func ValueFromBytes(b []byte) EncryptedValue {
	return EncryptedValue{ID: common.BytesToHash(b)}
}

// BoolValue is an opaque reference to an encrypted boolean. The program can
// select on it but never observe its plaintext truth value.
type BoolValue struct {
	ID common.Hash
}

// IsZero reports whether the handle is unset.
func (b BoolValue) IsZero() bool {
	return b.ID == (common.Hash{})
}

// Oracle is the client contract for the external arithmetic service. Every
// call names the signer identity invoking it; values are immutable and each
// operation returns a fresh handle. Any failure surfaces as
// ErrArithmeticFault (possibly wrapped with a more specific cause).
type Oracle interface {
	// NewValue decodes a client-supplied ciphertext blob into a value handle.
	// Blobs are single-use: decoding the same blob twice faults.
	NewValue(signer common.Address, ciphertext []byte, typeTag uint8) (EncryptedValue, error)

	// Constant materializes an encrypted constant from a public plaintext.
	Constant(signer common.Address, v uint64) (EncryptedValue, error)

	Add(signer common.Address, a, b EncryptedValue) (EncryptedValue, error)
	Sub(signer common.Address, a, b EncryptedValue) (EncryptedValue, error)
	Mul(signer common.Address, a, b EncryptedValue) (EncryptedValue, error)

	// CompareGe returns an encrypted a >= b.
	CompareGe(signer common.Address, a, b EncryptedValue) (BoolValue, error)

	// Select returns ifTrue where cond holds and ifFalse elsewhere, without
	// revealing which branch was taken.
	Select(signer common.Address, cond BoolValue, ifTrue, ifFalse EncryptedValue) (EncryptedValue, error)
}

// Revealer is the settlement/debug capability some backends expose. It is
// deliberately separate from Oracle: the swap engine must never depend on it.
type Revealer interface {
	Reveal(signer common.Address, v EncryptedValue) (*uint256.Int, error)
}
