// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state is the proved compressed-state store. Every entity has
// exactly one committed version; a mutation must present the proof returned
// by the read it was computed from, and loses with ErrStaleProof if another
// writer committed in between. Optimistic concurrency, no locks held across
// instructions.
package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

var (
	ErrStaleProof    = errors.New("proof does not match latest committed version")
	ErrAlreadyExists = errors.New("entity already committed")
	ErrNotFound      = errors.New("entity not committed")
)

var (
	blobPrefix    = []byte("blob")
	versionPrefix = []byte("vers")
)

// Proof is the credential that the caller read the latest committed version.
// It binds both the version counter and the content digest, so a proof from
// a different read of the same counter still fails if the content diverged.
type Proof struct {
	Version uint64
	Digest  common.Hash
}

// ProvedStore persists entity blobs under optimistic version proofs.
type ProvedStore struct {
	mu       sync.Mutex
	blobs    database.Database
	versions database.Database
}

// New wraps a database with proof-of-prior-state semantics.
func New(db database.Database) *ProvedStore {
	return &ProvedStore{
		blobs:    prefixdb.New(blobPrefix, db),
		versions: prefixdb.New(versionPrefix, db),
	}
}

func digest(blob []byte) common.Hash {
	return blake3.Sum256(blob)
}

// Create commits the first version of an entity.
func (s *ProvedStore) Create(id common.Hash, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.blobs.Has(id.Bytes())
	if err != nil {
		return fmt.Errorf("create %s: %w", id, err)
	}
	if ok {
		return fmt.Errorf("create %s: %w", id, ErrAlreadyExists)
	}
	return s.put(id, blob, 0)
}

// ReadWithProof returns the latest committed blob and the proof required to
// replace it.
func (s *ProvedStore) ReadWithProof(id common.Hash) ([]byte, Proof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.blobs.Get(id.Bytes())
	if errors.Is(err, database.ErrNotFound) {
		return nil, Proof{}, fmt.Errorf("read %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, Proof{}, fmt.Errorf("read %s: %w", id, err)
	}
	raw, err := s.versions.Get(id.Bytes())
	if err != nil {
		return nil, Proof{}, fmt.Errorf("read version %s: %w", id, err)
	}
	return blob, Proof{
		Version: binary.BigEndian.Uint64(raw),
		Digest:  digest(blob),
	}, nil
}

// WriteWithProof atomically replaces the committed version. It fails with
// ErrStaleProof if the proof no longer matches; exactly one of two racing
// writers holding the same proof commits.
func (s *ProvedStore) WriteWithProof(id common.Hash, blob []byte, proof Proof) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.blobs.Get(id.Bytes())
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("write %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", id, err)
	}
	raw, err := s.versions.Get(id.Bytes())
	if err != nil {
		return fmt.Errorf("write version %s: %w", id, err)
	}
	version := binary.BigEndian.Uint64(raw)
	if version != proof.Version || digest(current) != proof.Digest {
		return fmt.Errorf("write %s: %w", id, ErrStaleProof)
	}
	return s.put(id, blob, version+1)
}

func (s *ProvedStore) put(id common.Hash, blob []byte, version uint64) error {
	if err := s.blobs.Put(id.Bytes(), blob); err != nil {
		return fmt.Errorf("put %s: %w", id, err)
	}
	raw := binary.BigEndian.AppendUint64(nil, version)
	if err := s.versions.Put(id.Bytes(), raw); err != nil {
		return fmt.Errorf("put version %s: %w", id, err)
	}
	return nil
}
