// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/fhe"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

var (
	_ Oracle   = (*TFHE)(nil)
	_ Revealer = (*TFHE)(nil)
)

// TFHE is an oracle backend evaluating over real TFHE ciphertexts. The key
// material never leaves the backend; callers hold handles to ciphertexts in
// the backend's table, mirroring the hosted oracle service.
type TFHE struct {
	mu        sync.Mutex
	signers   map[common.Address]struct{}
	values    map[common.Hash]*fhe.BitCiphertext
	bools     map[common.Hash]*fhe.Ciphertext
	seen      map[common.Hash]struct{}
	encryptor *fhe.BitwiseEncryptor
	decryptor *fhe.BitwiseDecryptor
	evaluator *fhe.BitwiseEvaluator
}

// NewTFHE generates fresh TFHE key material and returns a backend accepting
// calls from the given signers. Key generation is expensive; share one
// instance per process.
func NewTFHE(signers ...common.Address) (*TFHE, error) {
	params, err := fhe.NewParametersFromLiteral(fhe.PN10QP27)
	if err != nil {
		return nil, fmt.Errorf("tfhe parameters: %w", err)
	}
	kg := fhe.NewKeyGenerator(params)
	sk, _ := kg.GenKeyPair()
	bsk := kg.GenBootstrapKey(sk)

	o := &TFHE{
		signers:   make(map[common.Address]struct{}),
		values:    make(map[common.Hash]*fhe.BitCiphertext),
		bools:     make(map[common.Hash]*fhe.Ciphertext),
		seen:      make(map[common.Hash]struct{}),
		encryptor: fhe.NewBitwiseEncryptor(params, sk),
		decryptor: fhe.NewBitwiseDecryptor(params, sk),
		evaluator: fhe.NewBitwiseEvaluator(params, bsk, sk),
	}
	for _, s := range signers {
		o.signers[s] = struct{}{}
	}
	return o, nil
}

// Authorize grants an additional signer access to oracle operations.
func (o *TFHE) Authorize(signer common.Address) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.signers[signer] = struct{}{}
}

// Encrypt produces a serialized ciphertext blob for NewValue. TFHE
// encryption is randomized, so equal amounts yield distinct blobs.
func (o *TFHE) Encrypt(v uint64) ([]byte, error) {
	ct := o.encryptor.EncryptUint64(v, fhe.FheUint128)
	data, err := ct.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal ciphertext: %w", err)
	}
	return data, nil
}

func (o *TFHE) checkSigner(signer common.Address) error {
	if _, ok := o.signers[signer]; !ok {
		return fmt.Errorf("%w: %w: %s", ErrArithmeticFault, ErrUnauthorized, signer)
	}
	return nil
}

func (o *TFHE) store(ct *fhe.BitCiphertext) EncryptedValue {
	h := freshHandle()
	o.values[h] = ct
	return EncryptedValue{ID: h}
}

func (o *TFHE) load(v EncryptedValue) (*fhe.BitCiphertext, error) {
	ct, ok := o.values[v.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", ErrArithmeticFault, ErrUnknownHandle, v.ID)
	}
	return ct, nil
}

// NewValue decodes a single-use serialized ciphertext into a fresh handle.
func (o *TFHE) NewValue(signer common.Address, ciphertext []byte, typeTag uint8) (EncryptedValue, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkSigner(signer); err != nil {
		return EncryptedValue{}, err
	}
	if typeTag != TypeEuint128 {
		return EncryptedValue{}, fmt.Errorf("%w: %w: tag %d", ErrArithmeticFault, ErrTypeMismatch, typeTag)
	}
	digest := blake3.Sum256(ciphertext)
	if _, used := o.seen[digest]; used {
		return EncryptedValue{}, fmt.Errorf("%w: %w", ErrArithmeticFault, ErrCiphertextReused)
	}
	ct := new(fhe.BitCiphertext)
	if err := ct.UnmarshalBinary(ciphertext); err != nil {
		return EncryptedValue{}, fmt.Errorf("%w: %w: %v", ErrArithmeticFault, ErrInvalidCiphertext, err)
	}
	o.seen[digest] = struct{}{}
	return o.store(ct), nil
}

// Constant materializes an encrypted constant.
func (o *TFHE) Constant(signer common.Address, v uint64) (EncryptedValue, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkSigner(signer); err != nil {
		return EncryptedValue{}, err
	}
	return o.store(o.encryptor.EncryptUint64(v, fhe.FheUint128)), nil
}

func (o *TFHE) binop(signer common.Address, a, b EncryptedValue, f func(x, y *fhe.BitCiphertext) (*fhe.BitCiphertext, error)) (EncryptedValue, error) {
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
	out, err := f(x, y)
	if err != nil {
		return EncryptedValue{}, fmt.Errorf("%w: %v", ErrArithmeticFault, err)
	}
	return o.store(out), nil
}

func (o *TFHE) Add(signer common.Address, a, b EncryptedValue) (EncryptedValue, error) {
	return o.binop(signer, a, b, o.evaluator.Add)
}

func (o *TFHE) Sub(signer common.Address, a, b EncryptedValue) (EncryptedValue, error) {
	return o.binop(signer, a, b, o.evaluator.Sub)
}

func (o *TFHE) Mul(signer common.Address, a, b EncryptedValue) (EncryptedValue, error) {
	return o.binop(signer, a, b, o.evaluator.Mul)
}

// CompareGe returns an encrypted a >= b.
func (o *TFHE) CompareGe(signer common.Address, a, b EncryptedValue) (BoolValue, error) {
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
	out, err := o.evaluator.Ge(x, y)
	if err != nil {
		return BoolValue{}, fmt.Errorf("%w: %v", ErrArithmeticFault, err)
	}
	h := freshHandle()
	o.bools[h] = out
	return BoolValue{ID: h}, nil
}

// Select returns ifTrue where cond holds and ifFalse elsewhere. The oracle
// evaluates the multiplexer homomorphically; it never learns the branch.
func (o *TFHE) Select(signer common.Address, cond BoolValue, ifTrue, ifFalse EncryptedValue) (EncryptedValue, error) {
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
	out, err := o.evaluator.Select(c, t, f)
	if err != nil {
		return EncryptedValue{}, fmt.Errorf("%w: %v", ErrArithmeticFault, err)
	}
	return o.store(out), nil
}

// Reveal decrypts a handle. Settlement and test capability only.
func (o *TFHE) Reveal(signer common.Address, v EncryptedValue) (*uint256.Int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkSigner(signer); err != nil {
		return nil, err
	}
	ct, err := o.load(v)
	if err != nil {
		return nil, err
	}
	return uint256.NewInt(o.decryptor.DecryptUint64(ct)), nil
}
