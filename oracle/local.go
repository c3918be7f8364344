// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

var (
	_ Oracle   = (*Local)(nil)
	_ Revealer = (*Local)(nil)
)

// localBlobSize is 16 bytes of big-endian value plus an 8-byte nonce. The
// nonce keeps independently produced blobs for the same amount distinct,
// which the single-use tracking depends on.
const localBlobSize = 24

// width128 masks results to the 128-bit semantic width. Arithmetic wraps
// modulo 2^128, including subtraction below zero.
var width128 = func() *uint256.Int {
	m := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	return m.SubUint64(m, 1)
}()

// Local is an in-process oracle backend. Values live behind random 32-byte
// handles in the oracle's own table; callers never see plaintexts. It
// enforces the same contract as the remote service: signer scoping,
// single-use ciphertext blobs, fresh handle per operation.
type Local struct {
	mu      sync.Mutex
	signers map[common.Address]struct{}
	values  map[common.Hash]*uint256.Int
	bools   map[common.Hash]bool
	seen    map[common.Hash]struct{}
}

// NewLocal returns a Local oracle that accepts calls from the given signers.
func NewLocal(signers ...common.Address) *Local {
	o := &Local{
		signers: make(map[common.Address]struct{}),
		values:  make(map[common.Hash]*uint256.Int),
		bools:   make(map[common.Hash]bool),
		seen:    make(map[common.Hash]struct{}),
	}
	for _, s := range signers {
		o.signers[s] = struct{}{}
	}
	return o
}

// Authorize grants an additional signer access to oracle operations.
func (o *Local) Authorize(signer common.Address) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.signers[signer] = struct{}{}
}

// Encrypt produces a ciphertext blob the Local backend will accept. Each
// call yields a distinct blob even for equal amounts.
func (o *Local) Encrypt(v uint64) []byte {
	blob := make([]byte, localBlobSize)
	binary.BigEndian.PutUint64(blob[8:16], v)
	rand.Read(blob[16:])
	return blob
}

// EncryptWide is Encrypt for full 128-bit amounts.
func (o *Local) EncryptWide(v *uint256.Int) []byte {
	blob := make([]byte, localBlobSize)
	b := v.Bytes32()
	copy(blob[:16], b[16:])
	rand.Read(blob[16:])
	return blob
}

func (o *Local) checkSigner(signer common.Address) error {
	if _, ok := o.signers[signer]; !ok {
		return fmt.Errorf("%w: %w: %s", ErrArithmeticFault, ErrUnauthorized, signer)
	}
	return nil
}

func freshHandle() common.Hash {
	var h common.Hash
	rand.Read(h[:])
	return h
}

func (o *Local) store(v *uint256.Int) EncryptedValue {
	h := freshHandle()
	o.values[h] = new(uint256.Int).And(v, width128)
	return EncryptedValue{ID: h}
}

func (o *Local) load(v EncryptedValue) (*uint256.Int, error) {
	pt, ok := o.values[v.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", ErrArithmeticFault, ErrUnknownHandle, v.ID)
	}
	return pt, nil
}

// NewValue decodes a single-use ciphertext blob into a fresh handle.
func (o *Local) NewValue(signer common.Address, ciphertext []byte, typeTag uint8) (EncryptedValue, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkSigner(signer); err != nil {
		return EncryptedValue{}, err
	}
	if typeTag != TypeEuint128 {
		return EncryptedValue{}, fmt.Errorf("%w: %w: tag %d", ErrArithmeticFault, ErrTypeMismatch, typeTag)
	}
	if len(ciphertext) != localBlobSize {
		return EncryptedValue{}, fmt.Errorf("%w: %w: %d bytes", ErrArithmeticFault, ErrInvalidCiphertext, len(ciphertext))
	}
	digest := blake3.Sum256(ciphertext)
	if _, used := o.seen[digest]; used {
		return EncryptedValue{}, fmt.Errorf("%w: %w", ErrArithmeticFault, ErrCiphertextReused)
	}
	o.seen[digest] = struct{}{}

	pt := new(uint256.Int).SetBytes(ciphertext[:16])
	return o.store(pt), nil
}

// Constant materializes an encrypted constant.
func (o *Local) Constant(signer common.Address, v uint64) (EncryptedValue, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkSigner(signer); err != nil {
		return EncryptedValue{}, err
	}
	return o.store(uint256.NewInt(v)), nil
}

func (o *Local) binop(signer common.Address, a, b EncryptedValue, f func(z, x, y *uint256.Int) *uint256.Int) (EncryptedValue, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkSigner(signer); err != nil {
		return EncryptedValue{}, err
	}
	x, err := o.load(a)
	if err != nil {
		return EncryptedValue{}, err
	}
	y, err := o.load(b)
	if err != nil {
		return EncryptedValue{}, err
	}
	return o.store(f(new(uint256.Int), x, y)), nil
}

func (o *Local) Add(signer common.Address, a, b EncryptedValue) (EncryptedValue, error) {
	return o.binop(signer, a, b, (*uint256.Int).Add)
}

func (o *Local) Sub(signer common.Address, a, b EncryptedValue) (EncryptedValue, error) {
	return o.binop(signer, a, b, (*uint256.Int).Sub)
}

func (o *Local) Mul(signer common.Address, a, b EncryptedValue) (EncryptedValue, error) {
	return o.binop(signer, a, b, (*uint256.Int).Mul)
}

// CompareGe returns an encrypted a >= b.
func (o *Local) CompareGe(signer common.Address, a, b EncryptedValue) (BoolValue, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkSigner(signer); err != nil {
		return BoolValue{}, err
	}
	x, err := o.load(a)
	if err != nil {
		return BoolValue{}, err
	}
	y, err := o.load(b)
	if err != nil {
		return BoolValue{}, err
	}
	h := freshHandle()
	o.bools[h] = x.Cmp(y) >= 0
	return BoolValue{ID: h}, nil
}

// Select returns ifTrue where cond holds and ifFalse elsewhere.
func (o *Local) Select(signer common.Address, cond BoolValue, ifTrue, ifFalse EncryptedValue) (EncryptedValue, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkSigner(signer); err != nil {
		return EncryptedValue{}, err
	}
	c, ok := o.bools[cond.ID]
	if !ok {
		return EncryptedValue{}, fmt.Errorf("%w: %w: %s", ErrArithmeticFault, ErrUnknownHandle, cond.ID)
	}
	t, err := o.load(ifTrue)
	if err != nil {
		return EncryptedValue{}, err
	}
	f, err := o.load(ifFalse)
	if err != nil {
		return EncryptedValue{}, err
	}
	if c {
		return o.store(t), nil
	}
	return o.store(f), nil
}

// Reveal decrypts a handle. Settlement and test capability only.
func (o *Local) Reveal(signer common.Address, v EncryptedValue) (*uint256.Int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkSigner(signer); err != nil {
		return nil, err
	}
	pt, err := o.load(v)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Set(pt), nil
}
