// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auction

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	ethereum "github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/burnbid/chain"
	"github.com/luxfi/burnbid/contracts"
)

var ErrAuctionNotFound = errors.New("auction not found")

// Deployment is one Deployed event of the factory.
type Deployment struct {
	Address      common.Address
	CeremonyType uint8
	BlockNumber  uint64
	TxHash       common.Hash
}

// Factory reads the auction factory contract.
type Factory struct {
	address common.Address
	caller  chain.Caller
	logs    chain.LogFilterer
	log     log.Logger
}

// NewFactory returns a factory reader. logs may be nil when the node does
// not serve eth_getLogs; Deployed then fails.
func NewFactory(address common.Address, caller chain.Caller, logs chain.LogFilterer, logger log.Logger) *Factory {
	return &Factory{address: address, caller: caller, logs: logs, log: logger}
}

// Address is the factory contract address.
func (f *Factory) Address() common.Address {
	return f.address
}

// AuctionBySalt resolves the auction deployed with salt.
func (f *Factory) AuctionBySalt(ctx context.Context, salt common.Hash) (common.Address, error) {
	data, err := contracts.Factory.Pack(contracts.MethodContracts, [32]byte(salt))
	if err != nil {
		return common.Address{}, err
	}
	out, err := f.caller.CallContract(ctx, ethereum.CallMsg{To: &f.address, Data: data}, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to read factory: %w", err)
	}
	values, err := contracts.Factory.Unpack(contracts.MethodContracts, out)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode factory result: %w", err)
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected factory result type %T", values[0])
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: salt %s", ErrAuctionNotFound, salt.Hex())
	}
	return addr, nil
}

// Deployed lists Deployed events between from and to (nil for latest).
func (f *Factory) Deployed(ctx context.Context, from, to *big.Int) ([]Deployment, error) {
	if f.logs == nil {
		return nil, errors.New("factory has no log source")
	}
	logs, err := f.logs.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: from,
		ToBlock:   to,
		Addresses: []common.Address{f.address},
		Topics:    [][]common.Hash{{contracts.Factory.Events[contracts.EventDeployed].ID}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to filter Deployed logs: %w", err)
	}

	deployments := make([]Deployment, 0, len(logs))
	for i := range logs {
		fields, err := contracts.Factory.UnpackLog(contracts.EventDeployed, &logs[i])
		if err != nil {
			f.log.Warn("Skipping undecodable Deployed log",
				log.String("tx", logs[i].TxHash.Hex()),
				log.String("error", err.Error()),
			)
			continue
		}
		addr, _ := fields["contractAddress"].(common.Address)
		kind, _ := fields["votingType"].(uint8)
		deployments = append(deployments, Deployment{
			Address:      addr,
			CeremonyType: kind,
			BlockNumber:  logs[i].BlockNumber,
			TxHash:       logs[i].TxHash,
		})
	}
	return deployments, nil
}

// Discovery lists auction addresses from a fixed list, the factory's
// Deployed events and salt lookups, in that order, without duplicates.
type Discovery struct {
	Known     []common.Address
	Factory   *Factory
	FromBlock *big.Int
	Salts     []common.Hash
	// CeremonyType restricts factory events to one ceremony type when set.
	CeremonyType *uint8
}

// Addresses runs every configured source. A failing source is logged and
// skipped.
func (d Discovery) Addresses(ctx context.Context, logger log.Logger) []common.Address {
	var (
		seen = make(map[common.Address]struct{})
		out  []common.Address
	)
	add := func(addr common.Address) {
		if addr == (common.Address{}) {
			return
		}
		if _, ok := seen[addr]; ok {
			return
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}

	for _, addr := range d.Known {
		add(addr)
	}
	if d.Factory == nil {
		return out
	}

	if d.Factory.logs != nil {
		deployments, err := d.Factory.Deployed(ctx, d.FromBlock, nil)
		if err != nil {
			logger.Warn("Failed to list factory deployments", log.String("error", err.Error()))
		}
		for _, dep := range deployments {
			if d.CeremonyType != nil && dep.CeremonyType != *d.CeremonyType {
				continue
			}
			add(dep.Address)
		}
	}
	for _, salt := range d.Salts {
		addr, err := d.Factory.AuctionBySalt(ctx, salt)
		if err != nil {
			logger.Warn("Failed to resolve auction salt",
				log.String("salt", salt.Hex()),
				log.String("error", err.Error()),
			)
			continue
		}
		add(addr)
	}
	return out
}

// ListDeployed discovers auctions and reads them.
func (r *Reader) ListDeployed(ctx context.Context, d Discovery) []Context {
	return r.List(ctx, d.Addresses(ctx, r.log))
}
