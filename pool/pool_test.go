// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"testing"

	"github.com/luxfi/crypto"
	"github.com/luxfi/cswap/oracle"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

var (
	mintA     = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	mintB     = common.HexToAddress("0x0000000000000000000000000000000000000b02")
	authority = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func testPool() *SwapPool {
	return &SwapPool{
		Authority:     authority,
		PoolAuthority: DeriveAuthority(mintA, mintB),
		MintA:         mintA,
		MintB:         mintB,
		ReserveA:      oracle.EncryptedValue{ID: common.HexToHash("0x01")},
		ReserveB:      oracle.EncryptedValue{ID: common.HexToHash("0x02")},
		ProtocolFeeA:  oracle.EncryptedValue{ID: common.HexToHash("0x03")},
		ProtocolFeeB:  oracle.EncryptedValue{ID: common.HexToHash("0x04")},
		FeeBps:        30,
		IsPaused:      false,
		LastUpdateTs:  1700000000,
	}
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	p := testPool()
	p.IsPaused = true

	decoded, err := Decode(p.Encode())
	require.NoError(t, err)
	require.Equal(t, p, decoded)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestDerivationStable(t *testing.T) {
	id := ID(mintA, mintB)
	auth := DeriveAuthority(mintA, mintB)
	for i := 0; i < 3; i++ {
		require.Equal(t, id, ID(mintA, mintB))
		require.Equal(t, auth, DeriveAuthority(mintA, mintB))
	}
	// Order matters: the pair (B, A) is a different pool.
	require.NotEqual(t, id, ID(mintB, mintA))
	require.NotEqual(t, auth, DeriveAuthority(mintB, mintA))
}

func TestAuthoritySignerMatchesDerivedAuthority(t *testing.T) {
	key, _, err := AuthoritySigner(mintA, mintB)
	require.NoError(t, err)

	// The signing capability and the custody identity come from the same
	// seed material, so their addresses agree. PubkeyToAddress returns the
	// crypto package's own address type; convert before comparing.
	require.Equal(t, DeriveAuthority(mintA, mintB), common.Address(crypto.PubkeyToAddress(key.PublicKey)))
}

func TestGuards(t *testing.T) {
	t.Run("paused", func(t *testing.T) {
		p := testPool()
		require.NoError(t, p.CheckActive())
		p.IsPaused = true
		require.ErrorIs(t, p.CheckActive(), ErrPoolPaused)
	})

	t.Run("authority", func(t *testing.T) {
		p := testPool()
		require.NoError(t, p.CheckAuthority(authority))
		require.ErrorIs(t, p.CheckAuthority(mintA), ErrUnauthorized)
	})

	t.Run("integrity", func(t *testing.T) {
		p := testPool()
		require.NoError(t, p.CheckIntegrity())
		p.PoolAuthority = authority
		require.ErrorIs(t, p.CheckIntegrity(), ErrIntegrityMismatch)
	})

	t.Run("reserves", func(t *testing.T) {
		p := testPool()
		require.NoError(t, p.CheckReserves())
		p.ProtocolFeeB = oracle.EncryptedValue{}
		require.ErrorIs(t, p.CheckReserves(), ErrEmptyReserve)
	})
}

func TestValidateMintPair(t *testing.T) {
	require.NoError(t, ValidateMintPair(mintA, mintB))
	require.ErrorIs(t, ValidateMintPair(mintA, mintA), ErrInvalidMintPair)
	require.ErrorIs(t, ValidateMintPair(common.Address{}, mintB), ErrInvalidMintPair)
}

func TestSides(t *testing.T) {
	p := testPool()

	in, out, fee := p.Sides(AToB)
	require.Equal(t, p.ReserveA, in)
	require.Equal(t, p.ReserveB, out)
	require.Equal(t, p.ProtocolFeeA, fee)

	in, out, fee = p.Sides(BToA)
	require.Equal(t, p.ReserveB, in)
	require.Equal(t, p.ReserveA, out)
	require.Equal(t, p.ProtocolFeeB, fee)

	newIn := oracle.EncryptedValue{ID: common.HexToHash("0x11")}
	newOut := oracle.EncryptedValue{ID: common.HexToHash("0x12")}
	newFee := oracle.EncryptedValue{ID: common.HexToHash("0x13")}
	p.SetSides(BToA, newIn, newOut, newFee)
	require.Equal(t, newIn, p.ReserveB)
	require.Equal(t, newOut, p.ReserveA)
	require.Equal(t, newFee, p.ProtocolFeeB)
	// The untouched side keeps its original fee accumulator.
	require.Equal(t, oracle.EncryptedValue{ID: common.HexToHash("0x03")}, p.ProtocolFeeA)
}
