// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"crypto/ecdsa"
	"errors"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// Seed tags for the deterministic derivations. poolAuthSeed matches the
// vault-custody identity namespace; poolSeed namespaces pool record ids.
var (
	poolSeed     = []byte("pool")
	poolAuthSeed = []byte("pool_authority")
)

// ID derives the canonical pool record id for a mint pair.
func ID(mintA, mintB common.Address) common.Hash {
	h := blake3.New()
	h.Write(poolSeed)
	h.Write(mintA.Bytes())
	h.Write(mintB.Bytes())
	var id common.Hash
	h.Digest().Read(id[:])
	return id
}

// DeriveAuthority maps a mint pair to the pool-custody identity. The mapping
// is deterministic and keeps no stored secret: it is recomputed and compared
// on every privileged call. The identity is the address of the key
// AuthoritySigner derives, so the custody account and its signing capability
// always agree.
func DeriveAuthority(mintA, mintB common.Address) common.Address {
	key, _, err := deriveSigner(mintA, mintB)
	if err != nil {
		// Exhausting every nonce requires 256 consecutive seed hashes to
		// fall outside the curve order.
		panic(err)
	}
	return common.Address(crypto.PubkeyToAddress(key.PublicKey))
}

// AuthoritySigner derives the pool authority's signing key and the nonce
// that disambiguated it. The key exists only for the duration of the call.
func AuthoritySigner(mintA, mintB common.Address) (*ecdsa.PrivateKey, uint8, error) {
	return deriveSigner(mintA, mintB)
}

// deriveSigner scans nonces from 255 downward until the seed hash is a
// valid secp256k1 scalar.
func deriveSigner(mintA, mintB common.Address) (*ecdsa.PrivateKey, uint8, error) {
	for nonce := 255; nonce >= 0; nonce-- {
		seed := crypto.Keccak256(poolAuthSeed, mintA.Bytes(), mintB.Bytes(), []byte{uint8(nonce)})
		key, err := crypto.ToECDSA(seed)
		if err == nil {
			return key, uint8(nonce), nil
		}
	}
	return nil, 0, errors.New("no valid authority nonce for mint pair")
}
