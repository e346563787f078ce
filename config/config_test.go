// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/burnbid/bidding"
	"github.com/luxfi/burnbid/contracts"
)

func TestDefault(t *testing.T) {
	require := require.New(t)
	cfg := Default()
	require.NoError(cfg.Verify())

	require.Equal(contracts.KnownAuctions, cfg.AuctionAddresses())
	factory, ok := cfg.FactoryAddress()
	require.True(ok)
	require.Equal(contracts.DefaultFactoryAddress, factory)

	bc, err := cfg.BiddingConfig()
	require.NoError(err)
	require.Equal(bidding.MinBid, bc.MinBid)
	require.Equal(bidding.DefaultBurnGas, bc.BurnGas)
	require.False(bc.SkipBidValue)
	require.NotNil(cfg.Logger())
}

const sample = `
rpc_url: "https://rpc.example.org"
listen_addr: ":9000"
data_dir: "/var/lib/burnbid"
auctions:
  - "0xd4F34a4cBA28F1BEf5A5B9bEbEF7d7b0c2E8E1E4"
factory: ""
salts:
  - "0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef"
poll_interval: 500ms
confirmation_timeout: 2m
confirmations: 3
min_bid: "0.01"
attach_bid_value: false
log_level: debug
`

func TestLoad(t *testing.T) {
	require := require.New(t)
	path := filepath.Join(t.TempDir(), "burnbid.yaml")
	require.NoError(os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(err)
	require.NoError(cfg.Verify())

	require.Equal("https://rpc.example.org", cfg.RPCURL)
	require.Equal(":9000", cfg.ListenAddr)
	require.Equal([]common.Address{common.HexToAddress("0xd4F34a4cBA28F1BEf5A5B9bEbEF7d7b0c2E8E1E4")}, cfg.AuctionAddresses())
	_, ok := cfg.FactoryAddress()
	require.False(ok)

	salts, err := cfg.SaltHashes()
	require.NoError(err)
	require.Equal([]common.Hash{common.HexToHash("0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef")}, salts)

	w := cfg.WaiterConfig()
	require.Equal(500*time.Millisecond, w.PollInterval)
	require.Equal(2*time.Minute, w.Timeout)
	require.Equal(uint64(3), w.Confirmations)

	bc, err := cfg.BiddingConfig()
	require.NoError(err)
	require.Equal(uint256.NewInt(1e16), bc.MinBid)
	require.True(bc.SkipBidValue)
	// Unset keys keep their defaults.
	require.Equal(bidding.DefaultSubmitGas, bc.SubmitGas)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "reading config")

	_, err = Parse([]byte("auctions: [unterminated"))
	require.ErrorContains(t, err, "parsing config")
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		err    error
	}{
		{name: "bad auction", modify: func(c *Config) { c.Auctions = []string{"0x1234"} }, err: ErrInvalidAddress},
		{name: "bad factory", modify: func(c *Config) { c.Factory = "factory" }, err: ErrInvalidAddress},
		{name: "short salt", modify: func(c *Config) { c.Salts = []string{"0x12"} }, err: ErrInvalidValue},
		{name: "bad key", modify: func(c *Config) { c.PrivateKey = "0xnotakey" }, err: ErrInvalidKey},
		{name: "bad min bid", modify: func(c *Config) { c.MinBid = "one" }, err: ErrInvalidValue},
		{name: "negative poll", modify: func(c *Config) { c.PollInterval = -time.Second }, err: ErrInvalidValue},
		{name: "low burn gas", modify: func(c *Config) { c.BurnGas = 100 }, err: ErrInvalidValue},
		{name: "bad level", modify: func(c *Config) { c.LogLevel = "chatty" }, err: ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			require.ErrorIs(t, cfg.Verify(), tt.err)
		})
	}

	cfg := Default()
	cfg.PrivateKey = "0xb71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"
	require.NoError(t, cfg.Verify())
}
