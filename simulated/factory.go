// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulated

import (
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"

	"github.com/luxfi/burnbid/contracts"
)

type factoryState struct {
	contracts map[common.Hash]common.Address
}

// DeployFactory installs an auction factory and returns its address.
func (b *Backend) DeployFactory() common.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	addr := b.nextAddress(common.Address{}, []byte("factory"))
	b.factories[addr] = &factoryState{contracts: make(map[common.Hash]common.Address)}
	return addr
}

func (f *factoryState) abiMethod(data []byte) string {
	m, err := contracts.Factory.MethodBySelector(data)
	if err != nil {
		return ""
	}
	return m.Name
}

func (f *factoryState) call(data []byte) ([]byte, error) {
	switch f.abiMethod(data) {
	case contracts.MethodContracts:
		args, err := contracts.Factory.UnpackInput(contracts.MethodContracts, data[4:], true)
		if err != nil {
			return nil, revertWith("bad calldata")
		}
		salt, _ := args[0].([32]byte)
		return contracts.Factory.PackOutput(contracts.MethodContracts, f.contracts[salt])
	default:
		return nil, revertWith("unknown function selector")
	}
}

// transact serves deployAuctionContract.
func (f *factoryState) transact(b *Backend, self common.Address, data []byte, apply bool) ([]*types.Log, error) {
	if f.abiMethod(data) != contracts.MethodDeployAuctionContract {
		return nil, revertWith("unknown function selector")
	}
	args, err := contracts.Factory.UnpackInput(contracts.MethodDeployAuctionContract, data[4:], true)
	if err != nil {
		return nil, revertWith("bad calldata")
	}

	salt, _ := args[0].([32]byte)
	kind, _ := args[1].(uint8)
	if _, used := f.contracts[salt]; used {
		return nil, revertCustom(contracts.Factory, contracts.ErrorSaltAlreadyUsed)
	}
	if !apply {
		return nil, nil
	}

	cfg := AuctionConfig{
		CeremonyType:          kind,
		BiddingDeadline:       uint64Arg(args[3]),
		BidSubmissionDeadline: uint64Arg(args[4]),
		ResultDeadline:        uint64Arg(args[5]),
		CeremonyID:            bigArg(args[6]),
		MaxWinners:            uint64Arg(args[7]),
	}
	addr := b.deployAuction(self, salt[:], cfg)
	f.contracts[salt] = addr

	topics, logData, err := contracts.Factory.PackEvent(contracts.EventDeployed, addr, kind)
	if err != nil {
		return nil, err
	}
	return []*types.Log{{Address: self, Topics: topics, Data: logData}}, nil
}

func bigArg(v interface{}) *big.Int {
	if n, ok := v.(*big.Int); ok {
		return new(big.Int).Set(n)
	}
	return new(big.Int)
}

func uint64Arg(v interface{}) uint64 {
	n := bigArg(v)
	if !n.IsUint64() {
		return 0
	}
	return n.Uint64()
}
