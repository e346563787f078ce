// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the settings of the burnbid binary. Values are
// read from a YAML file and may be overridden by command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/log"
	"gopkg.in/yaml.v3"

	"github.com/luxfi/burnbid/bidding"
	"github.com/luxfi/burnbid/chain"
	"github.com/luxfi/burnbid/contracts"
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidKey     = errors.New("invalid private key")
	ErrInvalidValue   = errors.New("invalid value")
)

// Config is the full configuration of the binary.
type Config struct {
	RPCURL      string `yaml:"rpc_url" json:"rpc_url"`
	ProviderURL string `yaml:"provider_url" json:"provider_url"`
	// PrivateKey signs submissions. Without it the submission service
	// runs against the in-memory chain.
	PrivateKey string `yaml:"private_key" json:"-"`
	ChainID    uint64 `yaml:"chain_id" json:"chain_id"`

	ListenAddr   string `yaml:"listen_addr" json:"listen_addr"`
	DataDir      string `yaml:"data_dir" json:"data_dir"`
	VerifyingKey string `yaml:"verifying_key" json:"verifying_key"`

	Auctions         []string `yaml:"auctions" json:"auctions"`
	Factory          string   `yaml:"factory" json:"factory"`
	FactoryFromBlock uint64   `yaml:"factory_from_block" json:"factory_from_block"`
	Salts            []string `yaml:"salts" json:"salts"`

	PollInterval        time.Duration `yaml:"poll_interval" json:"poll_interval"`
	ConfirmationTimeout time.Duration `yaml:"confirmation_timeout" json:"confirmation_timeout"`
	Confirmations       uint64        `yaml:"confirmations" json:"confirmations"`

	MinBid         string `yaml:"min_bid" json:"min_bid"`
	BurnGas        uint64 `yaml:"burn_gas" json:"burn_gas"`
	SubmitGas      uint64 `yaml:"submit_gas" json:"submit_gas"`
	AttachBidValue bool   `yaml:"attach_bid_value" json:"attach_bid_value"`

	LogLevel string `yaml:"log_level" json:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	auctions := make([]string, len(contracts.KnownAuctions))
	for i, a := range contracts.KnownAuctions {
		auctions[i] = strings.ToLower(a.Hex())
	}
	return &Config{
		RPCURL:              "http://127.0.0.1:8545",
		ListenAddr:          ":8080",
		DataDir:             "data",
		Auctions:            auctions,
		Factory:             strings.ToLower(contracts.DefaultFactoryAddress.Hex()),
		PollInterval:        chain.DefaultPollInterval,
		ConfirmationTimeout: chain.DefaultConfirmationTimeout,
		Confirmations:       1,
		MinBid:              bidding.FormatEther(bidding.MinBid),
		BurnGas:             bidding.DefaultBurnGas,
		SubmitGas:           bidding.DefaultSubmitGas,
		AttachBidValue:      true,
		LogLevel:            "info",
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML over the defaults.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Verify checks that every set value is well formed.
func (c *Config) Verify() error {
	for _, a := range c.Auctions {
		if !common.IsHexAddress(a) {
			return fmt.Errorf("%w: auction %q", ErrInvalidAddress, a)
		}
	}
	if c.Factory != "" && !common.IsHexAddress(c.Factory) {
		return fmt.Errorf("%w: factory %q", ErrInvalidAddress, c.Factory)
	}
	for _, s := range c.Salts {
		if _, err := parseSalt(s); err != nil {
			return err
		}
	}
	if c.PrivateKey != "" {
		if _, err := crypto.HexToECDSA(strings.TrimPrefix(c.PrivateKey, "0x")); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
	}
	if _, err := bidding.ParseEther(c.MinBid); err != nil {
		return fmt.Errorf("%w: min_bid: %w", ErrInvalidValue, err)
	}
	if c.PollInterval < 0 || c.ConfirmationTimeout < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidValue)
	}
	if c.BurnGas != 0 && c.BurnGas < 21_000 {
		return fmt.Errorf("%w: burn_gas %d is below the intrinsic gas of a transfer", ErrInvalidValue, c.BurnGas)
	}
	if _, ok := levels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("%w: log_level %q", ErrInvalidValue, c.LogLevel)
	}
	return nil
}

// AuctionAddresses returns the configured auction contracts.
func (c *Config) AuctionAddresses() []common.Address {
	out := make([]common.Address, 0, len(c.Auctions))
	for _, a := range c.Auctions {
		out = append(out, common.HexToAddress(a))
	}
	return out
}

// FactoryAddress returns the factory contract, or false when none is
// configured.
func (c *Config) FactoryAddress() (common.Address, bool) {
	if c.Factory == "" {
		return common.Address{}, false
	}
	return common.HexToAddress(c.Factory), true
}

// SaltHashes returns the configured deployment salts.
func (c *Config) SaltHashes() ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(c.Salts))
	for _, s := range c.Salts {
		h, err := parseSalt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func parseSalt(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: salt %q must be 32 hex bytes", ErrInvalidValue, s)
	}
	return common.BytesToHash(b), nil
}

// WaiterConfig returns the receipt polling settings.
func (c *Config) WaiterConfig() chain.WaiterConfig {
	return chain.WaiterConfig{
		PollInterval:  c.PollInterval,
		Timeout:       c.ConfirmationTimeout,
		Confirmations: c.Confirmations,
	}
}

// BiddingConfig returns the session settings.
func (c *Config) BiddingConfig() (bidding.Config, error) {
	minBid, err := bidding.ParseEther(c.MinBid)
	if err != nil {
		return bidding.Config{}, fmt.Errorf("%w: min_bid: %w", ErrInvalidValue, err)
	}
	return bidding.Config{
		MinBid:       minBid,
		BurnGas:      c.BurnGas,
		SubmitGas:    c.SubmitGas,
		SkipBidValue: !c.AttachBidValue,
		Waiter:       c.WaiterConfig(),
	}, nil
}

var levels = map[string]func() log.Logger{
	"debug": func() log.Logger { return log.NewTestLogger(log.DebugLevel) },
	"info":  func() log.Logger { return log.NewTestLogger(log.InfoLevel) },
	"warn":  func() log.Logger { return log.NewTestLogger(log.WarnLevel) },
	"error": func() log.Logger { return log.NewTestLogger(log.ErrorLevel) },
}

// Logger returns a logger at the configured level, info if unset.
func (c *Config) Logger() log.Logger {
	if mk, ok := levels[strings.ToLower(c.LogLevel)]; ok {
		return mk()
	}
	return log.NewTestLogger(log.InfoLevel)
}
