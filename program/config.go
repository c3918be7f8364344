// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import (
	"fmt"

	"github.com/luxfi/cswap/oracle"
	"github.com/luxfi/geth/common"
)

// Oracle backend selectors.
const (
	BackendLocal = "local"
	BackendTFHE  = "tfhe"
)

// Config is the operator-facing configuration for a program instance.
type Config struct {
	// DefaultFeeBps is applied when initialize requests omit a fee.
	DefaultFeeBps uint16 `json:"defaultFeeBps,omitempty"`

	// Backend selects the arithmetic oracle implementation.
	Backend string `json:"backend,omitempty"`

	LogLevel string `json:"logLevel,omitempty"`
}

// Verify validates the configuration.
func (c *Config) Verify() error {
	if c.DefaultFeeBps > MaxFeeBps {
		return fmt.Errorf("%w: %d", ErrInvalidFee, c.DefaultFeeBps)
	}
	switch c.Backend {
	case "", BackendLocal, BackendTFHE:
	default:
		return fmt.Errorf("unknown oracle backend %q", c.Backend)
	}
	return nil
}

// NewOracle constructs the configured oracle backend authorizing the given
// signers. An empty Backend selects the local backend; the TFHE backend
// generates fresh key material, which is expensive.
func (c *Config) NewOracle(signers ...common.Address) (oracle.Oracle, error) {
	switch c.Backend {
	case "", BackendLocal:
		return oracle.NewLocal(signers...), nil
	case BackendTFHE:
		return oracle.NewTFHE(signers...)
	default:
		return nil, fmt.Errorf("unknown oracle backend %q", c.Backend)
	}
}
