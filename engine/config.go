// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/matchingengine/auction"
)

// ConfigKey identifies the engine's configuration in a chain's upgrade config
const ConfigKey = "matchingEngineConfig"

// Upgrade schedules activation or deactivation of the engine
type Upgrade struct {
	BlockTimestamp *uint64 `json:"blockTimestamp,omitempty"`
	Disable        bool    `json:"disable,omitempty"`
}

func (u *Upgrade) Timestamp() *uint64 {
	return u.BlockTimestamp
}

func (u *Upgrade) Equal(other *Upgrade) bool {
	if other == nil {
		return false
	}
	if u.Disable != other.Disable {
		return false
	}
	if u.BlockTimestamp == nil || other.BlockTimestamp == nil {
		return u.BlockTimestamp == nil && other.BlockTimestamp == nil
	}
	return *u.BlockTimestamp == *other.BlockTimestamp
}

// Config is the engine's chain configuration
type Config struct {
	Upgrade Upgrade `json:"upgrade,omitempty"`

	// Program is the engine's own account. Custody accounts are derived
	// from it and outbound messages are emitted from it.
	Program      common.Address `json:"program"`
	LocalChain   uint16         `json:"localChain"`
	CctpDomain   uint32         `json:"cctpDomain"`
	Token        common.Hash    `json:"token"`
	FeeRecipient common.Address `json:"feeRecipient"`

	AuctionConfigID             uint32             `json:"auctionConfigId"`
	AuctionParameters           auction.Parameters `json:"auctionParameters"`
	AllowEarlyExecutionByWinner bool               `json:"allowEarlyExecutionByWinner"`
	Paused                      bool               `json:"paused,omitempty"`

	EndpointCacheSize int `json:"endpointCacheSize,omitempty"`
}

// DefaultConfig returns a config with the protocol's default auction
// parameters. Accounts still need to be filled in.
func DefaultConfig() *Config {
	return &Config{
		AuctionConfigID: 1,
		AuctionParameters: auction.Parameters{
			UserPenaltyRewardBps: 250_000,
			InitialPenaltyBps:    250_000,
			Duration:             2,
			GracePeriod:          5,
			PenaltyPeriod:        10,
			MinOfferDeltaBps:     20_000,
			SecurityDepositBase:  4_200_000,
			SecurityDepositBps:   5_000,
		},
		AllowEarlyExecutionByWinner: true,
	}
}

// ParseConfig decodes a JSON config over the defaults and verifies it
func ParseConfig(raw []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Key() string {
	return ConfigKey
}

func (c *Config) Timestamp() *uint64 {
	return c.Upgrade.Timestamp()
}

func (c *Config) IsDisabled() bool {
	return c.Upgrade.Disable
}

func (c *Config) Equal(other *Config) bool {
	if other == nil {
		return false
	}
	return c.Upgrade.Equal(&other.Upgrade) &&
		c.Program == other.Program &&
		c.LocalChain == other.LocalChain &&
		c.CctpDomain == other.CctpDomain &&
		c.Token == other.Token &&
		c.FeeRecipient == other.FeeRecipient &&
		c.AuctionConfigID == other.AuctionConfigID &&
		c.AuctionParameters == other.AuctionParameters &&
		c.AllowEarlyExecutionByWinner == other.AllowEarlyExecutionByWinner &&
		c.Paused == other.Paused &&
		c.EndpointCacheSize == other.EndpointCacheSize
}

func (c *Config) Verify() error {
	if c.Program == (common.Address{}) {
		return fmt.Errorf("%w: missing program", ErrInvalidConfig)
	}
	if c.FeeRecipient == (common.Address{}) {
		return fmt.Errorf("%w: missing fee recipient", ErrInvalidConfig)
	}
	if c.Token == (common.Hash{}) {
		return fmt.Errorf("%w: missing token", ErrInvalidConfig)
	}
	if c.LocalChain == 0 {
		return fmt.Errorf("%w: missing local chain", ErrInvalidConfig)
	}
	if c.EndpointCacheSize < 0 {
		return fmt.Errorf("%w: negative endpoint cache size", ErrInvalidConfig)
	}
	if err := c.AuctionParameters.Verify(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// auctionConfig is the ledger view of the configured parameters
func (c *Config) auctionConfig() auction.Config {
	return auction.Config{ID: c.AuctionConfigID, Parameters: c.AuctionParameters}
}
