// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import "errors"

var (
	ErrPoolPaused        = errors.New("pool is paused")
	ErrUnauthorized      = errors.New("caller is not the pool authority")
	ErrIntegrityMismatch = errors.New("stored pool authority does not match derived authority")
	ErrInvalidMintPair   = errors.New("invalid mint pair")
	ErrMintMismatch      = errors.New("mint does not belong to pool")
	ErrEmptyReserve      = errors.New("pool carries an unset reserve handle")
)
