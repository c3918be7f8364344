// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

var testSigner = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func newTestOracle() *Local {
	return NewLocal(testSigner)
}

func mustValue(t *testing.T, o *Local, v uint64) EncryptedValue {
	t.Helper()
	ev, err := o.NewValue(testSigner, o.Encrypt(v), TypeEuint128)
	require.NoError(t, err)
	return ev
}

func reveal(t *testing.T, o *Local, v EncryptedValue) uint64 {
	t.Helper()
	pt, err := o.Reveal(testSigner, v)
	require.NoError(t, err)
	return pt.Uint64()
}

func TestArithmetic(t *testing.T) {
	o := newTestOracle()

	tests := []struct {
		name string
		op   func(a, b EncryptedValue) (EncryptedValue, error)
		a, b uint64
		want uint64
	}{
		{"add", func(a, b EncryptedValue) (EncryptedValue, error) { return o.Add(testSigner, a, b) }, 1000, 234, 1234},
		{"sub", func(a, b EncryptedValue) (EncryptedValue, error) { return o.Sub(testSigner, a, b) }, 1000, 234, 766},
		{"mul", func(a, b EncryptedValue) (EncryptedValue, error) { return o.Mul(testSigner, a, b) }, 1000, 234, 234000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustValue(t, o, tt.a)
			b := mustValue(t, o, tt.b)
			got, err := tt.op(a, b)
			require.NoError(t, err)
			require.Equal(t, tt.want, reveal(t, o, got))
			// Operands stay live and untouched; operations mint fresh handles.
			require.NotEqual(t, a.ID, got.ID)
			require.Equal(t, tt.a, reveal(t, o, a))
		})
	}
}

func TestSubWrapsAt128Bits(t *testing.T) {
	o := newTestOracle()
	a := mustValue(t, o, 1)
	b := mustValue(t, o, 2)
	got, err := o.Sub(testSigner, a, b)
	require.NoError(t, err)

	pt, err := o.Reveal(testSigner, got)
	require.NoError(t, err)
	// 1 - 2 wraps to 2^128 - 1.
	want := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	want.SubUint64(want, 1)
	require.Equal(t, want, pt)
}

func TestCompareGeAndSelect(t *testing.T) {
	o := newTestOracle()

	tests := []struct {
		name string
		a, b uint64
		want uint64 // selected value: a if a >= b else b
	}{
		{"greater", 10, 3, 10},
		{"equal", 7, 7, 7},
		{"less", 3, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustValue(t, o, tt.a)
			b := mustValue(t, o, tt.b)
			cond, err := o.CompareGe(testSigner, a, b)
			require.NoError(t, err)
			got, err := o.Select(testSigner, cond, a, b)
			require.NoError(t, err)
			require.Equal(t, tt.want, reveal(t, o, got))
		})
	}
}

func TestCiphertextSingleUse(t *testing.T) {
	o := newTestOracle()
	blob := o.Encrypt(42)

	_, err := o.NewValue(testSigner, blob, TypeEuint128)
	require.NoError(t, err)

	_, err = o.NewValue(testSigner, blob, TypeEuint128)
	require.ErrorIs(t, err, ErrArithmeticFault)
	require.ErrorIs(t, err, ErrCiphertextReused)
}

func TestDistinctBlobsForEqualAmounts(t *testing.T) {
	o := newTestOracle()
	require.NotEqual(t, o.Encrypt(42), o.Encrypt(42))
}

func TestUnauthorizedSigner(t *testing.T) {
	o := newTestOracle()
	intruder := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	_, err := o.NewValue(intruder, o.Encrypt(1), TypeEuint128)
	require.ErrorIs(t, err, ErrArithmeticFault)
	require.ErrorIs(t, err, ErrUnauthorized)

	o.Authorize(intruder)
	_, err = o.NewValue(intruder, o.Encrypt(1), TypeEuint128)
	require.NoError(t, err)
}

func TestUnknownHandle(t *testing.T) {
	o := newTestOracle()
	a := mustValue(t, o, 1)
	stale := EncryptedValue{ID: common.HexToHash("0xdead")}

	_, err := o.Add(testSigner, a, stale)
	require.ErrorIs(t, err, ErrArithmeticFault)
	require.ErrorIs(t, err, ErrUnknownHandle)
}

func TestRejectsBadBlob(t *testing.T) {
	o := newTestOracle()

	_, err := o.NewValue(testSigner, []byte{1, 2, 3}, TypeEuint128)
	require.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = o.NewValue(testSigner, o.Encrypt(1), TypeEuint64)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestEncryptWide(t *testing.T) {
	o := newTestOracle()
	v := new(uint256.Int).Lsh(uint256.NewInt(3), 100)
	ev, err := o.NewValue(testSigner, o.EncryptWide(v), TypeEuint128)
	require.NoError(t, err)

	pt, err := o.Reveal(testSigner, ev)
	require.NoError(t, err)
	require.Equal(t, v, pt)
}
