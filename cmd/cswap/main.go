// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/luxfi/cswap/oracle"
	"github.com/luxfi/cswap/pool"
	"github.com/luxfi/cswap/program"
	"github.com/luxfi/cswap/state"
	"github.com/luxfi/cswap/token"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cswap",
	Short: "Confidential swap pool CLI",
	Long: `cswap drives a confidential constant-product pool: reserves stay
encrypted, swaps and liquidity changes run as oblivious arithmetic at the
oracle, and commits go through proved state versions.

The derive and encrypt commands are stateless utilities; demo runs a full
pool lifecycle against an in-process store and the configured oracle
backend.`,
	Version: fmt.Sprintf("%s (built %s)", version, buildDate),
}

func init() {
	rootCmd.AddCommand(deriveCmd)
	rootCmd.AddCommand(encryptCmd)
	rootCmd.AddCommand(demoCmd)

	deriveCmd.Flags().String("mint-a", "", "Mint A address (hex)")
	deriveCmd.Flags().String("mint-b", "", "Mint B address (hex)")

	encryptCmd.Flags().Uint64("value", 0, "Plaintext amount to encrypt")

	demoCmd.Flags().Uint64("amount-in", 100, "Swap input amount")
	demoCmd.Flags().Uint64("amount-out", 90, "Swap output amount")
	demoCmd.Flags().Uint64("fee", 3, "Swap fee amount")
	demoCmd.Flags().Uint16("fee-bps", 30, "Pool fee in basis points")
	demoCmd.Flags().String("backend", program.BackendLocal, "Arithmetic oracle backend (local or tfhe)")
	demoCmd.Flags().String("log-level", "info", "Log level (info or debug)")
}

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive the pool id and custody authority for a mint pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		rawA, _ := cmd.Flags().GetString("mint-a")
		rawB, _ := cmd.Flags().GetString("mint-b")
		mintA := common.HexToAddress(rawA)
		mintB := common.HexToAddress(rawB)
		if err := pool.ValidateMintPair(mintA, mintB); err != nil {
			return err
		}
		fmt.Printf("pool id:        %s\n", pool.ID(mintA, mintB))
		fmt.Printf("pool authority: %s\n", pool.DeriveAuthority(mintA, mintB))
		return nil
	},
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Produce a single-use ciphertext blob for the local oracle",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _ := cmd.Flags().GetUint64("value")
		o := oracle.NewLocal()
		fmt.Println(hex.EncodeToString(o.Encrypt(v)))
		return nil
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a full pool lifecycle against an in-process stack",
	RunE: func(cmd *cobra.Command, args []string) error {
		amountIn, _ := cmd.Flags().GetUint64("amount-in")
		amountOut, _ := cmd.Flags().GetUint64("amount-out")
		fee, _ := cmd.Flags().GetUint64("fee")
		feeBps, _ := cmd.Flags().GetUint16("fee-bps")
		backend, _ := cmd.Flags().GetString("backend")
		logLevel, _ := cmd.Flags().GetString("log-level")

		cfg := program.Config{
			DefaultFeeBps: feeBps,
			Backend:       backend,
			LogLevel:      logLevel,
		}
		if err := cfg.Verify(); err != nil {
			return err
		}
		return runDemo(cfg, amountIn, amountOut, fee)
	},
}

func unixNow() int64 {
	return time.Now().Unix()
}

// encryptAmount produces a fresh ciphertext blob on whichever backend the
// config selected. The backends expose their client-side encryption
// capability on the concrete type, not the oracle interface, since the
// hosted service never encrypts for callers.
func encryptAmount(o oracle.Oracle, v uint64) ([]byte, error) {
	switch b := o.(type) {
	case *oracle.Local:
		return b.Encrypt(v), nil
	case *oracle.TFHE:
		return b.Encrypt(v)
	}
	return nil, fmt.Errorf("oracle backend %T cannot encrypt", o)
}

func runDemo(cfg program.Config, amountIn, amountOut, fee uint64) error {
	level := log.InfoLevel
	if cfg.LogLevel == "debug" {
		level = log.DebugLevel
	}
	logger := log.NewTestLogger(level)

	feePayer := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	authority := common.HexToAddress("0x00000000000000000000000000000000000000ab")
	user := common.HexToAddress("0x00000000000000000000000000000000000000cd")
	mintA := common.HexToAddress("0x0000000000000000000000000000000000000a01")
	mintB := common.HexToAddress("0x0000000000000000000000000000000000000b02")

	o, err := cfg.NewOracle(feePayer)
	if err != nil {
		return err
	}
	revealer, ok := o.(oracle.Revealer)
	if !ok {
		return fmt.Errorf("oracle backend %T cannot reveal", o)
	}
	store := state.New(memdb.New())
	vaults := token.NewBook(memdb.New(), o, feePayer)
	prog := program.New(logger, o, store, vaults, feePayer, unixNow)

	id, err := prog.InitializePool(mintA, mintB, cfg.DefaultFeeBps, authority)
	if err != nil {
		return err
	}
	liqA, err := encryptAmount(o, 1000)
	if err != nil {
		return err
	}
	liqB, err := encryptAmount(o, 1000)
	if err != nil {
		return err
	}
	if err := prog.AddLiquidity(id, liqA, liqB, oracle.TypeEuint128, authority); err != nil {
		return err
	}

	for _, setup := range []struct {
		owner common.Address
		mint  common.Address
		fund  uint64
	}{
		{user, mintA, 10000},
		{user, mintB, 10000},
		{pool.DeriveAuthority(mintA, mintB), mintA, 1000},
		{pool.DeriveAuthority(mintA, mintB), mintB, 1000},
	} {
		if _, err := vaults.Get(setup.owner, setup.mint); err != nil {
			if _, err := vaults.Create(setup.owner, setup.mint); err != nil {
				return err
			}
		}
		blob, err := encryptAmount(o, setup.fund)
		if err != nil {
			return err
		}
		if err := vaults.Deposit(setup.owner, setup.mint, blob, oracle.TypeEuint128); err != nil {
			return err
		}
	}

	inBlob, err := encryptAmount(o, amountIn)
	if err != nil {
		return err
	}
	outBlob, err := encryptAmount(o, amountOut)
	if err != nil {
		return err
	}
	feeBlob, err := encryptAmount(o, fee)
	if err != nil {
		return err
	}
	err = prog.SwapExactIn(program.SwapParams{
		PoolID:              id,
		MintIn:              mintA,
		MintOut:             mintB,
		AmountInCiphertext:  inBlob,
		AmountOutCiphertext: outBlob,
		FeeCiphertext:       feeBlob,
		TypeTag:             oracle.TypeEuint128,
		Direction:           pool.AToB,
		User:                user,
	})
	if err != nil {
		return err
	}

	blob, _, err := store.ReadWithProof(id)
	if err != nil {
		return err
	}
	p, err := pool.Decode(blob)
	if err != nil {
		return err
	}
	reserveA, err := revealer.Reveal(feePayer, p.ReserveA)
	if err != nil {
		return err
	}
	reserveB, err := revealer.Reveal(feePayer, p.ReserveB)
	if err != nil {
		return err
	}
	feeA, err := revealer.Reveal(feePayer, p.ProtocolFeeA)
	if err != nil {
		return err
	}
	fmt.Printf("pool %s after swap:\n", id)
	fmt.Printf("  reserve A:      %s\n", reserveA)
	fmt.Printf("  reserve B:      %s\n", reserveB)
	fmt.Printf("  protocol fee A: %s\n", feeA)
	return nil
}
