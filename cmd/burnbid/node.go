// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/geth/ethclient"
	"github.com/luxfi/geth/rpc"
	"github.com/luxfi/log"

	"github.com/luxfi/burnbid/auction"
	"github.com/luxfi/burnbid/chain"
	"github.com/luxfi/burnbid/config"
	"github.com/luxfi/burnbid/groth16"
)

// dialNode connects to the configured node. It returns nil when no
// rpc_url is set.
func dialNode(ctx context.Context, cfg *config.Config, logger log.Logger) (*ethclient.Client, error) {
	if cfg.RPCURL == "" {
		return nil, nil
	}
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.RPCURL, err)
	}
	logger.Info("Connected to node", log.String("url", cfg.RPCURL))
	return client, nil
}

// wallet returns the wallet used to sign: the external provider when
// provider_url is set, else the configured private key.
func wallet(ctx context.Context, cfg *config.Config, node *ethclient.Client, logger log.Logger) (chain.Wallet, error) {
	if node == nil {
		return nil, errors.New("signing needs rpc_url for reads and receipts")
	}
	if cfg.ProviderURL != "" {
		client, err := rpc.DialContext(ctx, cfg.ProviderURL)
		if err != nil {
			return nil, fmt.Errorf("failed to dial wallet provider: %w", err)
		}
		return chain.NewProviderWallet(client, logger), nil
	}
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("%w: set private_key or provider_url", chain.ErrWalletNotConnected)
	}
	return chain.NewKeyWallet(node, cfg.PrivateKey, logger)
}

// checkChainID fails when chain_id is set and the wallet reports another.
func checkChainID(ctx context.Context, cfg *config.Config, w chain.Wallet) error {
	if cfg.ChainID == 0 {
		return nil
	}
	id, err := w.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to read chain id: %w", err)
	}
	if id.Cmp(new(big.Int).SetUint64(cfg.ChainID)) != 0 {
		return fmt.Errorf("wallet is on chain %s, expected %d", id, cfg.ChainID)
	}
	return nil
}

// discovery lists the configured auctions and, when a factory and a node
// are available, the factory's deployments.
func discovery(cfg *config.Config, node *ethclient.Client, logger log.Logger) (auction.Discovery, error) {
	salts, err := cfg.SaltHashes()
	if err != nil {
		return auction.Discovery{}, err
	}
	d := auction.Discovery{
		Known: cfg.AuctionAddresses(),
		Salts: salts,
	}
	if addr, ok := cfg.FactoryAddress(); ok && node != nil {
		d.Factory = auction.NewFactory(addr, node, node, logger)
		d.FromBlock = new(big.Int).SetUint64(cfg.FactoryFromBlock)
	}
	return d, nil
}

// verifier loads the verifying key when one is configured.
func verifier(cfg *config.Config, logger log.Logger) (*groth16.Verifier, error) {
	if cfg.VerifyingKey == "" {
		return nil, nil
	}
	vk, err := groth16.LoadVerifyingKey(cfg.VerifyingKey)
	if err != nil {
		return nil, err
	}
	return groth16.NewVerifier(vk, logger)
}
