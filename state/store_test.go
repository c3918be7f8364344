// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"testing"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

var id = common.HexToHash("0x01")

func TestCreateReadWrite(t *testing.T) {
	s := New(memdb.New())

	require.NoError(t, s.Create(id, []byte("v0")))
	require.ErrorIs(t, s.Create(id, []byte("again")), ErrAlreadyExists)

	blob, proof, err := s.ReadWithProof(id)
	require.NoError(t, err)
	require.Equal(t, []byte("v0"), blob)
	require.Equal(t, uint64(0), proof.Version)

	require.NoError(t, s.WriteWithProof(id, []byte("v1"), proof))

	blob, proof2, err := s.ReadWithProof(id)
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), blob)
	require.Equal(t, uint64(1), proof2.Version)
}

func TestNotFound(t *testing.T) {
	s := New(memdb.New())

	_, _, err := s.ReadWithProof(id)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, s.WriteWithProof(id, []byte("x"), Proof{}), ErrNotFound)
}

func TestStaleProofLosesRace(t *testing.T) {
	s := New(memdb.New())
	require.NoError(t, s.Create(id, []byte("v0")))

	// Two writers read the same version; exactly one commits.
	_, proofA, err := s.ReadWithProof(id)
	require.NoError(t, err)
	_, proofB, err := s.ReadWithProof(id)
	require.NoError(t, err)

	require.NoError(t, s.WriteWithProof(id, []byte("winner"), proofA))
	require.ErrorIs(t, s.WriteWithProof(id, []byte("loser"), proofB), ErrStaleProof)

	blob, _, err := s.ReadWithProof(id)
	require.NoError(t, err)
	require.Equal(t, []byte("winner"), blob)
}

func TestProofBindsContent(t *testing.T) {
	s := New(memdb.New())
	require.NoError(t, s.Create(id, []byte("v0")))

	_, proof, err := s.ReadWithProof(id)
	require.NoError(t, err)

	// Matching version but wrong digest is still stale.
	proof.Digest = common.HexToHash("0xbad")
	require.ErrorIs(t, s.WriteWithProof(id, []byte("x"), proof), ErrStaleProof)
}
