// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/burnbid/config"
)

func TestConfigFlagsOverride(t *testing.T) {
	require := require.New(t)
	path := filepath.Join(t.TempDir(), "burnbid.yaml")
	require.NoError(os.WriteFile(path, []byte("rpc_url: http://node:8545\nlog_level: warn\n"), 0o600))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var cf configFlags
	cf.register(fs)
	require.NoError(fs.Parse([]string{"--config", path, "--log-level", "debug"}))

	cfg, err := cf.load()
	require.NoError(err)
	require.Equal("http://node:8545", cfg.RPCURL)
	require.Equal("debug", cfg.LogLevel)
	require.Equal(config.Default().ListenAddr, cfg.ListenAddr)
}

func TestConfigFlagsRejectInvalid(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var cf configFlags
	cf.register(fs)
	require.NoError(t, fs.Parse([]string{"--private-key", "not-a-key"}))

	_, err := cf.load()
	require.ErrorIs(t, err, config.ErrInvalidKey)
}

func TestDiscoveryWithoutNode(t *testing.T) {
	cfg := config.Default()
	d, err := discovery(cfg, nil, cfg.Logger())
	require.NoError(t, err)
	require.Nil(t, d.Factory)
	require.Equal(t, cfg.AuctionAddresses(), d.Known)
}
