// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pool holds the confidential swap-pool record, its wire codec, and
// the guard checks every mutating instruction runs before touching it.
package pool

import (
	"encoding/binary"
	"errors"

	"github.com/luxfi/cswap/oracle"
	"github.com/luxfi/geth/common"
)

// Direction selects which side of the pair is the swap input.
type Direction bool

const (
	AToB Direction = true
	BToA Direction = false
)

func (d Direction) String() string {
	if d == AToB {
		return "a_to_b"
	}
	return "b_to_a"
}

// SwapPool is the persisted pool record. Reserves and protocol fees are
// encrypted-value handles; feeBps, the pause flag, and the timestamp are
// public. The mint pair is fixed for the pool's lifetime.
type SwapPool struct {
	Authority     common.Address
	PoolAuthority common.Address
	MintA         common.Address
	MintB         common.Address
	ReserveA      oracle.EncryptedValue
	ReserveB      oracle.EncryptedValue
	ProtocolFeeA  oracle.EncryptedValue
	ProtocolFeeB  oracle.EncryptedValue
	FeeBps        uint16
	IsPaused      bool
	LastUpdateTs  int64
}

// encodedSize is the fixed wire size: four 20-byte identities, four 32-byte
// handles, fee, pause flag, timestamp.
const encodedSize = 4*common.AddressLength + 4*common.HashLength + 2 + 1 + 8

// Encode serializes the pool record with a fixed layout.
func (p *SwapPool) Encode() []byte {
	buf := make([]byte, 0, encodedSize)
	buf = append(buf, p.Authority.Bytes()...)
	buf = append(buf, p.PoolAuthority.Bytes()...)
	buf = append(buf, p.MintA.Bytes()...)
	buf = append(buf, p.MintB.Bytes()...)
	buf = append(buf, p.ReserveA.Bytes()...)
	buf = append(buf, p.ReserveB.Bytes()...)
	buf = append(buf, p.ProtocolFeeA.Bytes()...)
	buf = append(buf, p.ProtocolFeeB.Bytes()...)
	buf = binary.BigEndian.AppendUint16(buf, p.FeeBps)
	if p.IsPaused {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.BigEndian.AppendUint64(buf, uint64(p.LastUpdateTs))
	return buf
}

// Decode rebuilds a pool record from its wire form.
func Decode(data []byte) (*SwapPool, error) {
	if len(data) != encodedSize {
		return nil, errors.New("malformed pool record")
	}
	p := new(SwapPool)
	off := 0
	p.Authority = common.BytesToAddress(data[off : off+common.AddressLength])
	off += common.AddressLength
	p.PoolAuthority = common.BytesToAddress(data[off : off+common.AddressLength])
	off += common.AddressLength
	p.MintA = common.BytesToAddress(data[off : off+common.AddressLength])
	off += common.AddressLength
	p.MintB = common.BytesToAddress(data[off : off+common.AddressLength])
	off += common.AddressLength
	p.ReserveA = oracle.ValueFromBytes(data[off : off+common.HashLength])
	off += common.HashLength
	p.ReserveB = oracle.ValueFromBytes(data[off : off+common.HashLength])
	off += common.HashLength
	p.ProtocolFeeA = oracle.ValueFromBytes(data[off : off+common.HashLength])
	off += common.HashLength
	p.ProtocolFeeB = oracle.ValueFromBytes(data[off : off+common.HashLength])
	off += common.HashLength
	p.FeeBps = binary.BigEndian.Uint16(data[off : off+2])
	off += 2
	p.IsPaused = data[off] == 1
	off++
	p.LastUpdateTs = int64(binary.BigEndian.Uint64(data[off : off+8]))
	return p, nil
}

// CheckActive rejects mutation while the pool is paused.
func (p *SwapPool) CheckActive() error {
	if p.IsPaused {
		return ErrPoolPaused
	}
	return nil
}

// CheckAuthority gates configuration and liquidity changes to the recorded
// authority.
func (p *SwapPool) CheckAuthority(caller common.Address) error {
	if caller != p.Authority {
		return ErrUnauthorized
	}
	return nil
}

// CheckIntegrity re-derives the pool authority from the mint pair and
// compares it to the stored value. Stored state is never trusted beyond
// this equality.
func (p *SwapPool) CheckIntegrity() error {
	if DeriveAuthority(p.MintA, p.MintB) != p.PoolAuthority {
		return ErrIntegrityMismatch
	}
	return nil
}

// CheckReserves rejects a record with unset encrypted handles. A freshly
// initialized pool always carries four encrypted zeros, so an empty handle
// means a corrupt or hand-rolled record.
func (p *SwapPool) CheckReserves() error {
	if p.ReserveA.IsZero() || p.ReserveB.IsZero() || p.ProtocolFeeA.IsZero() || p.ProtocolFeeB.IsZero() {
		return ErrEmptyReserve
	}
	return nil
}

// ValidateMintPair rejects degenerate pairs at initialization.
func ValidateMintPair(mintA, mintB common.Address) error {
	if mintA == mintB || mintA == (common.Address{}) || mintB == (common.Address{}) {
		return ErrInvalidMintPair
	}
	return nil
}

// Sides returns the (reserveIn, reserveOut, protocolFeeIn) triple for the
// given swap direction.
func (p *SwapPool) Sides(dir Direction) (reserveIn, reserveOut, protocolFeeIn oracle.EncryptedValue) {
	if dir == AToB {
		return p.ReserveA, p.ReserveB, p.ProtocolFeeA
	}
	return p.ReserveB, p.ReserveA, p.ProtocolFeeB
}

// SetSides writes back the post-swap triple according to the direction.
func (p *SwapPool) SetSides(dir Direction, newReserveIn, newReserveOut, newProtocolFee oracle.EncryptedValue) {
	if dir == AToB {
		p.ReserveA = newReserveIn
		p.ReserveB = newReserveOut
		p.ProtocolFeeA = newProtocolFee
	} else {
		p.ReserveB = newReserveIn
		p.ReserveA = newReserveOut
		p.ProtocolFeeB = newProtocolFee
	}
}
