// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package engine computes confidential constant-product updates. Nothing in
// this package ever observes a plaintext amount or branches on one: every
// control decision is an oblivious select at the oracle, so the shape of the
// computation is identical whether a trade lands or degrades to a no-op.
package engine

import (
	"github.com/luxfi/cswap/oracle"
	"github.com/luxfi/geth/common"
)

// SwapResult carries the committed-candidate values for one swap direction.
// AmountIn and AmountOut are the fully gated trade amounts; settlement must
// move exactly these handles so a failed-gate trade transfers zero on both
// legs, not just on the reserves.
type SwapResult struct {
	NewReserveIn   oracle.EncryptedValue
	NewReserveOut  oracle.EncryptedValue
	NewProtocolFee oracle.EncryptedValue
	AmountIn       oracle.EncryptedValue
	AmountOut      oracle.EncryptedValue
}

// ComputeSwapUpdates derives new encrypted reserves and fee accrual for an
// exact-in swap. The three ciphertext blobs are client-supplied and
// single-use; reserves and fees are live handles from the pool record.
//
// The update is gated twice, and both gates are data, not control flow:
//
//  1. solvency: reserveOut >= amountOut
//  2. constant product: (reserveIn+amountIn)*(reserveOut-amountOut) >= reserveIn*reserveOut
//
// Each gate re-selects amountIn/amountOut/feeAmount to encrypted zero when
// it fails. The gates compose sequentially - the second is applied to the
// already-gated amounts - so a trade moves value only if both pass. The
// final reserves are recomputed from the gated amounts rather than reusing
// the candidates, keeping reserve deltas and fee accrual consistent with one
// another. The gated amounts come back in the result so settlement moves
// exactly what the reserves absorbed: the gate outcomes depend on encrypted
// reserves, so no caller could produce a correctly gated copy.
//
// A failed gate is indistinguishable from a successful zero trade; only the
// oracle could tell, and it only ever sees encrypted booleans.
func ComputeSwapUpdates(
	o oracle.Oracle,
	signer common.Address,
	reserveIn, reserveOut, protocolFeeIn oracle.EncryptedValue,
	amountInCiphertext, amountOutCiphertext, feeAmountCiphertext []byte,
	inputType uint8,
) (SwapResult, error) {
	amountIn, err := o.NewValue(signer, amountInCiphertext, inputType)
	if err != nil {
		return SwapResult{}, err
	}
	amountOut, err := o.NewValue(signer, amountOutCiphertext, inputType)
	if err != nil {
		return SwapResult{}, err
	}
	feeAmount, err := o.NewValue(signer, feeAmountCiphertext, inputType)
	if err != nil {
		return SwapResult{}, err
	}
	zero, err := o.Constant(signer, 0)
	if err != nil {
		return SwapResult{}, err
	}

	// Solvency gate: reserve_out >= amount_out.
	hasLiquidity, err := o.CompareGe(signer, reserveOut, amountOut)
	if err != nil {
		return SwapResult{}, err
	}
	amountIn, err = o.Select(signer, hasLiquidity, amountIn, zero)
	if err != nil {
		return SwapResult{}, err
	}
	amountOut, err = o.Select(signer, hasLiquidity, amountOut, zero)
	if err != nil {
		return SwapResult{}, err
	}
	feeAmount, err = o.Select(signer, hasLiquidity, feeAmount, zero)
	if err != nil {
		return SwapResult{}, err
	}

	// Candidate reserves for the invariant check.
	tempReserveIn, err := o.Add(signer, reserveIn, amountIn)
	if err != nil {
		return SwapResult{}, err
	}
	tempReserveOut, err := o.Sub(signer, reserveOut, amountOut)
	if err != nil {
		return SwapResult{}, err
	}

	// Constant-product gate: new_k >= old_k.
	oldK, err := o.Mul(signer, reserveIn, reserveOut)
	if err != nil {
		return SwapResult{}, err
	}
	newK, err := o.Mul(signer, tempReserveIn, tempReserveOut)
	if err != nil {
		return SwapResult{}, err
	}
	kOK, err := o.CompareGe(signer, newK, oldK)
	if err != nil {
		return SwapResult{}, err
	}
	amountIn, err = o.Select(signer, kOK, amountIn, zero)
	if err != nil {
		return SwapResult{}, err
	}
	amountOut, err = o.Select(signer, kOK, amountOut, zero)
	if err != nil {
		return SwapResult{}, err
	}
	feeAmount, err = o.Select(signer, kOK, feeAmount, zero)
	if err != nil {
		return SwapResult{}, err
	}

	// Final values, recomputed from the fully gated amounts.
	newReserveIn, err := o.Add(signer, reserveIn, amountIn)
	if err != nil {
		return SwapResult{}, err
	}
	newReserveOut, err := o.Sub(signer, reserveOut, amountOut)
	if err != nil {
		return SwapResult{}, err
	}
	newProtocolFee, err := o.Add(signer, protocolFeeIn, feeAmount)
	if err != nil {
		return SwapResult{}, err
	}

	return SwapResult{
		NewReserveIn:   newReserveIn,
		NewReserveOut:  newReserveOut,
		NewProtocolFee: newProtocolFee,
		AmountIn:       amountIn,
		AmountOut:      amountOut,
	}, nil
}
