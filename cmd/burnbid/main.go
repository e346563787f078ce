// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command burnbid bids in sealed-bid proof-of-burn auctions and runs the
// proof submission service.
//
// # Configuration File
//
//	rpc_url: "http://127.0.0.1:8545"
//	private_key: ""            # hex; empty runs the service in-memory
//	listen_addr: ":8080"
//	data_dir: "data"           # snarkjs proof.json / public.json
//	auctions:
//	  - "0x5FbDB2315678afecb367f032d93F642f64180aa3"
//	poll_interval: 2s
//	confirmation_timeout: 5m
//	min_bid: "0.001"
//
// # Usage
//
//	burnbid serve --config=burnbid.yaml
//	burnbid burn-address --user=0x… --auction=0x… --ceremony=1 --value=10000000000000000
//	burnbid list --config=burnbid.yaml
//	burnbid bid --config=burnbid.yaml --auction=0x… --burn=0.01 --bid=0.002
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/luxfi/burnbid/config"
)

type command struct {
	name  string
	usage string
	run   func(args []string) error
}

var commands = []command{
	{"serve", "run the proof submission service", runServe},
	{"burn-address", "derive burn addresses and the nullifier", runBurnAddress},
	{"list", "list auctions and their phase", runList},
	{"bid", "burn, attach a proof and submit a bid", runBid},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	for _, c := range commands {
		if c.name != os.Args[1] {
			continue
		}
		if err := c.run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags]\n\nCommands:\n", os.Args[0])
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", c.name, c.usage)
	}
}

// configFlags are the flags shared by commands that read a config file.
type configFlags struct {
	path     string
	rpcURL   string
	key      string
	logLevel string
}

func (f *configFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.path, "config", "", "Path to YAML config file")
	fs.StringVar(&f.rpcURL, "rpc", "", "JSON-RPC endpoint of the node")
	fs.StringVar(&f.key, "private-key", "", "Hex private key used to sign transactions")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// load reads the config file, if any, and applies flag overrides.
func (f *configFlags) load() (*config.Config, error) {
	cfg := config.Default()
	if f.path != "" {
		var err error
		if cfg, err = config.Load(f.path); err != nil {
			return nil, err
		}
	}

	// Command-line flags override config file
	if f.rpcURL != "" {
		cfg.RPCURL = f.rpcURL
	}
	if f.key != "" {
		cfg.PrivateKey = f.key
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if err := cfg.Verify(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
