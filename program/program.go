// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package program is the instruction surface of the confidential swap pool.
// Each instruction is one synchronous read-modify-proved-write: load the
// latest committed pool, run the oblivious updates at the oracle, move
// tokens, commit through the proved store. Every error is fatal to its
// instruction; the host execution environment provides all-or-nothing
// semantics per instruction, so a failed commit leaves no observable
// partial state.
package program

import (
	"errors"
	"fmt"

	"github.com/luxfi/crypto"
	"github.com/luxfi/cswap/engine"
	"github.com/luxfi/cswap/oracle"
	"github.com/luxfi/cswap/pool"
	"github.com/luxfi/cswap/state"
	"github.com/luxfi/cswap/token"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
)

// MaxFeeBps caps the pool fee at 100%.
const MaxFeeBps = 10000

var (
	ErrPoolExists   = errors.New("pool already initialized for mint pair")
	ErrPoolNotFound = errors.New("pool not initialized")
	ErrInvalidFee   = errors.New("fee exceeds maximum basis points")
)

// Clock supplies the public timestamp stamped on committed mutations.
type Clock func() int64

// Program wires the oracle, the proved store, and the vault book behind the
// pool instruction set. The signer is the fee-payer identity scoped onto
// every oracle call.
type Program struct {
	log    log.Logger
	oracle oracle.Oracle
	store  *state.ProvedStore
	vaults *token.Book
	signer common.Address
	now    Clock
}

// New assembles a program instance.
func New(logger log.Logger, o oracle.Oracle, store *state.ProvedStore, vaults *token.Book, signer common.Address, now Clock) *Program {
	return &Program{
		log:    logger,
		oracle: o,
		store:  store,
		vaults: vaults,
		signer: signer,
		now:    now,
	}
}

// InitializePool creates the pool record for a mint pair with encrypted-zero
// reserves and fee accumulators, derives the custody authority, and opens
// the two pool vaults. Fails with ErrPoolExists if the derived pool identity
// is already committed.
func (pr *Program) InitializePool(mintA, mintB common.Address, feeBps uint16, authority common.Address) (common.Hash, error) {
	if err := pool.ValidateMintPair(mintA, mintB); err != nil {
		return common.Hash{}, err
	}
	if feeBps > MaxFeeBps {
		return common.Hash{}, fmt.Errorf("%w: %d", ErrInvalidFee, feeBps)
	}

	id := pool.ID(mintA, mintB)
	poolAuthority := pool.DeriveAuthority(mintA, mintB)

	reserveA, err := pr.oracle.Constant(pr.signer, 0)
	if err != nil {
		return common.Hash{}, err
	}
	reserveB, err := pr.oracle.Constant(pr.signer, 0)
	if err != nil {
		return common.Hash{}, err
	}
	feeA, err := pr.oracle.Constant(pr.signer, 0)
	if err != nil {
		return common.Hash{}, err
	}
	feeB, err := pr.oracle.Constant(pr.signer, 0)
	if err != nil {
		return common.Hash{}, err
	}

	p := &pool.SwapPool{
		Authority:     authority,
		PoolAuthority: poolAuthority,
		MintA:         mintA,
		MintB:         mintB,
		ReserveA:      reserveA,
		ReserveB:      reserveB,
		ProtocolFeeA:  feeA,
		ProtocolFeeB:  feeB,
		FeeBps:        feeBps,
		IsPaused:      false,
		LastUpdateTs:  pr.now(),
	}
	if err := pr.store.Create(id, p.Encode()); err != nil {
		if errors.Is(err, state.ErrAlreadyExists) {
			return common.Hash{}, fmt.Errorf("%w: %s", ErrPoolExists, id)
		}
		return common.Hash{}, err
	}

	// Custody vaults for both sides of the pair.
	if _, err := pr.vaults.Create(poolAuthority, mintA); err != nil {
		return common.Hash{}, err
	}
	if _, err := pr.vaults.Create(poolAuthority, mintB); err != nil {
		return common.Hash{}, err
	}

	pr.log.Info("pool initialized",
		log.Stringer("pool", id),
		log.Stringer("poolAuthority", poolAuthority),
		log.Uint64("feeBps", uint64(feeBps)),
	)
	return id, nil
}

// loadPool reads and validates the latest committed pool record.
func (pr *Program) loadPool(id common.Hash) (*pool.SwapPool, state.Proof, error) {
	blob, proof, err := pr.store.ReadWithProof(id)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, state.Proof{}, fmt.Errorf("%w: %s", ErrPoolNotFound, id)
		}
		return nil, state.Proof{}, err
	}
	p, err := pool.Decode(blob)
	if err != nil {
		return nil, state.Proof{}, err
	}
	if err := p.CheckReserves(); err != nil {
		return nil, state.Proof{}, err
	}
	return p, proof, nil
}

func (pr *Program) commit(id common.Hash, p *pool.SwapPool, proof state.Proof) error {
	p.LastUpdateTs = pr.now()
	return pr.store.WriteWithProof(id, p.Encode(), proof)
}

// AddLiquidity adds the two encrypted amounts to the reserves. Authority
// gated and ungated by the swap invariant.
func (pr *Program) AddLiquidity(id common.Hash, amountACiphertext, amountBCiphertext []byte, typeTag uint8, caller common.Address) error {
	p, proof, err := pr.loadPool(id)
	if err != nil {
		return err
	}
	if err := p.CheckActive(); err != nil {
		return err
	}
	if err := p.CheckAuthority(caller); err != nil {
		return err
	}

	res, err := engine.ComputeAddLiquidity(pr.oracle, pr.signer, p.ReserveA, p.ReserveB, amountACiphertext, amountBCiphertext, typeTag)
	if err != nil {
		return err
	}
	p.ReserveA, p.ReserveB = res.NewReserveA, res.NewReserveB

	if err := pr.commit(id, p, proof); err != nil {
		return err
	}
	pr.log.Info("liquidity added", log.Stringer("pool", id))
	return nil
}

// RemoveLiquidity subtracts the two encrypted amounts from the reserves.
// Amounts exceeding the reserves wrap modulo 2^128 at the oracle; keeping
// withdrawals within provided liquidity is the authority's responsibility.
func (pr *Program) RemoveLiquidity(id common.Hash, amountACiphertext, amountBCiphertext []byte, typeTag uint8, caller common.Address) error {
	p, proof, err := pr.loadPool(id)
	if err != nil {
		return err
	}
	if err := p.CheckActive(); err != nil {
		return err
	}
	if err := p.CheckAuthority(caller); err != nil {
		return err
	}

	res, err := engine.ComputeRemoveLiquidity(pr.oracle, pr.signer, p.ReserveA, p.ReserveB, amountACiphertext, amountBCiphertext, typeTag)
	if err != nil {
		return err
	}
	p.ReserveA, p.ReserveB = res.NewReserveA, res.NewReserveB

	if err := pr.commit(id, p, proof); err != nil {
		return err
	}
	pr.log.Info("liquidity removed", log.Stringer("pool", id))
	return nil
}

// SetPaused flips the pause gate. Authority gated; pausing an already
// paused pool is a no-op commit.
func (pr *Program) SetPaused(id common.Hash, paused bool, caller common.Address) error {
	p, proof, err := pr.loadPool(id)
	if err != nil {
		return err
	}
	if err := p.CheckAuthority(caller); err != nil {
		return err
	}
	p.IsPaused = paused

	if err := pr.commit(id, p, proof); err != nil {
		return err
	}
	pr.log.Info("pool pause updated", log.Stringer("pool", id), log.Bool("paused", paused))
	return nil
}

// SwapParams carries one exact-in swap. MintIn and MintOut are the mints the
// caller expects to pay and receive; they are checked against the pool's
// pair for the requested direction before any oracle work. Each ciphertext
// blob is single-use at the oracle and must be distinct from the others.
type SwapParams struct {
	PoolID              common.Hash
	MintIn              common.Address
	MintOut             common.Address
	AmountInCiphertext  []byte
	AmountOutCiphertext []byte
	FeeCiphertext       []byte
	TypeTag             uint8
	Direction           pool.Direction
	User                common.Address
}

// SwapExactIn runs the full confidential swap: guards, oblivious update,
// the two ordered token movements, then the proved commit. The engine's
// gating zeroes the trade amounts at the oracle when either gate fails, and
// settlement moves those gated handles directly, so a failed-gate trade
// moves zero on both legs without the caller being able to tell.
func (pr *Program) SwapExactIn(params SwapParams) error {
	p, proof, err := pr.loadPool(params.PoolID)
	if err != nil {
		return err
	}
	if err := p.CheckActive(); err != nil {
		return err
	}
	if err := p.CheckIntegrity(); err != nil {
		return err
	}

	inMint, outMint := p.MintA, p.MintB
	if params.Direction == pool.BToA {
		inMint, outMint = p.MintB, p.MintA
	}
	if params.MintIn != inMint {
		return fmt.Errorf("%w: input mint %s", pool.ErrMintMismatch, params.MintIn)
	}
	if params.MintOut != outMint {
		return fmt.Errorf("%w: output mint %s", pool.ErrMintMismatch, params.MintOut)
	}

	reserveIn, reserveOut, protocolFeeIn := p.Sides(params.Direction)
	res, err := engine.ComputeSwapUpdates(
		pr.oracle, pr.signer,
		reserveIn, reserveOut, protocolFeeIn,
		params.AmountInCiphertext, params.AmountOutCiphertext, params.FeeCiphertext,
		params.TypeTag,
	)
	if err != nil {
		return err
	}
	p.SetSides(params.Direction, res.NewReserveIn, res.NewReserveOut, res.NewProtocolFee)

	// Outbound custody leg is signed by the derived authority; the key is
	// recomputed here and discarded, never stored.
	authorityKey, _, err := pool.AuthoritySigner(p.MintA, p.MintB)
	if err != nil {
		return err
	}
	poolAuthority := common.Address(crypto.PubkeyToAddress(authorityKey.PublicKey))

	// Fixed transfer order: user pays in, pool pays out, both legs moving
	// the engine's gated amounts. A transfer fault aborts before the state
	// commit.
	if err := pr.vaults.TransferValue(params.User, poolAuthority, params.User, inMint, res.AmountIn); err != nil {
		return err
	}
	if err := pr.vaults.TransferValue(poolAuthority, params.User, poolAuthority, outMint, res.AmountOut); err != nil {
		return err
	}

	if err := pr.commit(params.PoolID, p, proof); err != nil {
		return err
	}
	pr.log.Info("swap committed",
		log.Stringer("pool", params.PoolID),
		log.String("direction", params.Direction.String()),
	)
	return nil
}
