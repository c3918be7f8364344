// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"github.com/luxfi/cswap/oracle"
	"github.com/luxfi/geth/common"
)

// LiquidityResult carries the updated reserves after a liquidity change.
type LiquidityResult struct {
	NewReserveA oracle.EncryptedValue
	NewReserveB oracle.EncryptedValue
}

// ComputeAddLiquidity adds the two encrypted amounts to the reserves.
// Liquidity provision is not subject to the swap gates; the adds are plain
// oblivious arithmetic.
func ComputeAddLiquidity(
	o oracle.Oracle,
	signer common.Address,
	reserveA, reserveB oracle.EncryptedValue,
	amountACiphertext, amountBCiphertext []byte,
	inputType uint8,
) (LiquidityResult, error) {
	amountA, err := o.NewValue(signer, amountACiphertext, inputType)
	if err != nil {
		return LiquidityResult{}, err
	}
	amountB, err := o.NewValue(signer, amountBCiphertext, inputType)
	if err != nil {
		return LiquidityResult{}, err
	}
	newA, err := o.Add(signer, reserveA, amountA)
	if err != nil {
		return LiquidityResult{}, err
	}
	newB, err := o.Add(signer, reserveB, amountB)
	if err != nil {
		return LiquidityResult{}, err
	}
	return LiquidityResult{NewReserveA: newA, NewReserveB: newB}, nil
}

// ComputeRemoveLiquidity subtracts the two encrypted amounts from the
// reserves. There is no in-band underflow guard: an amount exceeding the
// reserve wraps modulo 2^128 at the oracle. Callers are responsible for
// withdrawing no more than they provided.
func ComputeRemoveLiquidity(
	o oracle.Oracle,
	signer common.Address,
	reserveA, reserveB oracle.EncryptedValue,
	amountACiphertext, amountBCiphertext []byte,
	inputType uint8,
) (LiquidityResult, error) {
	amountA, err := o.NewValue(signer, amountACiphertext, inputType)
	if err != nil {
		return LiquidityResult{}, err
	}
	amountB, err := o.NewValue(signer, amountBCiphertext, inputType)
	if err != nil {
		return LiquidityResult{}, err
	}
	newA, err := o.Sub(signer, reserveA, amountA)
	if err != nil {
		return LiquidityResult{}, err
	}
	newB, err := o.Sub(signer, reserveB, amountB)
	if err != nil {
		return LiquidityResult{}, err
	}
	return LiquidityResult{NewReserveA: newA, NewReserveB: newB}, nil
}
