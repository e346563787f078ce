// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulated

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"

	"github.com/luxfi/burnbid/contracts"
	"github.com/luxfi/burnbid/groth16"
)

var ErrNullifierSpent = errors.New("nullifier already spent")

// AuctionConfig are the constructor arguments of an auction contract.
type AuctionConfig struct {
	CeremonyID            *big.Int
	CeremonyType          uint8
	BiddingDeadline       uint64
	BidSubmissionDeadline uint64
	ResultDeadline        uint64
	MaxWinners            uint64
	// Verifier checks proofs when set. Without it any proof whose points
	// are on the curve and not the identity is accepted.
	Verifier *groth16.Verifier
}

// Bid is a bid accepted by an emulated auction.
type Bid struct {
	Bidder    common.Address
	Amount    *big.Int
	Value     *uint256.Int
	Nullifier common.Hash
	TxHash    common.Hash
	Block     uint64
}

type nullifierRecord struct {
	spentAt uint64
	spentTx common.Hash
}

type auctionState struct {
	address    common.Address
	cfg        AuctionConfig
	nullifiers map[common.Hash]nullifierRecord
	bids       []Bid
}

// DeployAuction installs an auction contract and returns its address.
func (b *Backend) DeployAuction(cfg AuctionConfig) common.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deployAuction(common.Address{}, nil, cfg)
}

func (b *Backend) deployAuction(deployer common.Address, salt []byte, cfg AuctionConfig) common.Address {
	if cfg.CeremonyID == nil {
		cfg.CeremonyID = new(big.Int)
	}
	addr := b.nextAddress(deployer, salt)
	b.installAuction(addr, cfg)
	return addr
}

func (b *Backend) installAuction(addr common.Address, cfg AuctionConfig) {
	b.auctions[addr] = &auctionState{
		address:    addr,
		cfg:        cfg,
		nullifiers: make(map[common.Hash]nullifierRecord),
	}
}

// MirrorAuction installs an auction without deadlines at addr unless one
// is already there. It lets submissions aimed at a contract on another
// chain be rehearsed in memory.
func (b *Backend) MirrorAuction(_ context.Context, addr common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.auctions[addr] != nil {
		return nil
	}
	if b.factories[addr] != nil {
		return fmt.Errorf("%s is a factory, not an auction", addr.Hex())
	}
	b.installAuction(addr, AuctionConfig{CeremonyID: new(big.Int)})
	b.log.Info("Mirrored auction into simulated chain",
		log.String("auction", addr.Hex()),
	)
	return nil
}

// SetVerifier installs a proof verifier on the auction at addr.
func (b *Backend) SetVerifier(addr common.Address, v *groth16.Verifier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a := b.auctions[addr]; a != nil {
		a.cfg.Verifier = v
	}
}

// Bids returns the bids accepted by the auction at addr.
func (b *Backend) Bids(addr common.Address) []Bid {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.auctions[addr]
	if a == nil {
		return nil
	}
	return append([]Bid(nil), a.bids...)
}

// NullifierSpent reports whether the auction at addr accepted a bid with
// nullifier n.
func (b *Backend) NullifierSpent(addr common.Address, n common.Hash) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.auctions[addr]
	if a == nil {
		return false
	}
	_, spent := a.nullifiers[n]
	return spent
}

func (a *auctionState) abiMethod(data []byte) string {
	m, err := contracts.Auction.MethodBySelector(data)
	if err != nil {
		return ""
	}
	return m.Name
}

// call serves eth_call: the getters, and a dry run of submitBid.
func (a *auctionState) call(b *Backend, from common.Address, value *uint256.Int, data []byte) ([]byte, error) {
	method := a.abiMethod(data)
	switch method {
	case contracts.MethodCeremonyID:
		return contracts.Auction.PackOutput(method, a.cfg.CeremonyID)
	case contracts.MethodBiddingDeadline:
		return contracts.Auction.PackOutput(method, new(big.Int).SetUint64(a.cfg.BiddingDeadline))
	case contracts.MethodBidSubmissionDeadline:
		return contracts.Auction.PackOutput(method, new(big.Int).SetUint64(a.cfg.BidSubmissionDeadline))
	case contracts.MethodResultDeadline:
		return contracts.Auction.PackOutput(method, new(big.Int).SetUint64(a.cfg.ResultDeadline))
	case contracts.MethodMaxWinners:
		return contracts.Auction.PackOutput(method, new(big.Int).SetUint64(a.cfg.MaxWinners))
	case contracts.MethodSubmitBid:
		if _, err := a.submitBid(b, from, value, data, common.Hash{}, false); err != nil {
			return nil, err
		}
		return nil, nil
	default:
		return nil, revertWith("unknown function selector")
	}
}

func (a *auctionState) transact(b *Backend, from common.Address, value *uint256.Int, data []byte, hash common.Hash, apply bool) ([]*types.Log, error) {
	if a.abiMethod(data) != contracts.MethodSubmitBid {
		if len(data) == 0 {
			return nil, revertWith("auction does not accept plain transfers")
		}
		return nil, revertWith("unknown function selector")
	}
	return a.submitBid(b, from, value, data, hash, apply)
}

// submitBid checks the submission window, the proof and the nullifier,
// then records the bid and emits BidSubmitted.
func (a *auctionState) submitBid(b *Backend, from common.Address, value *uint256.Int, data []byte, hash common.Hash, apply bool) ([]*types.Log, error) {
	now := uint64(b.now().Unix())
	if a.cfg.BidSubmissionDeadline != 0 && now >= a.cfg.BidSubmissionDeadline {
		return nil, revertWith("bid submission period has ended")
	}

	sub, err := groth16.DecodeSubmission(data)
	if err != nil {
		return nil, revertCustom(contracts.Auction, contracts.ErrorInvalidProof)
	}
	if err := a.verify(sub); err != nil {
		return nil, revertCustom(contracts.Auction, contracts.ErrorInvalidProof)
	}

	nullifier := common.BigToHash(sub.Signals[groth16.SignalNullifier])
	if _, spent := a.nullifiers[nullifier]; spent {
		return nil, revertCustom(contracts.Auction, contracts.ErrorInvalidProof)
	}
	if !apply {
		return nil, nil
	}
	if err := a.spendNullifier(nullifier, hash, b.head); err != nil {
		return nil, revertCustom(contracts.Auction, contracts.ErrorInvalidProof)
	}

	a.bids = append(a.bids, Bid{
		Bidder:    from,
		Amount:    new(big.Int).Set(sub.Bid),
		Value:     value.Clone(),
		Nullifier: nullifier,
		TxHash:    hash,
		Block:     b.head,
	})
	topics, logData, err := contracts.Auction.PackEvent(contracts.EventBidSubmitted, from, sub.Bid)
	if err != nil {
		return nil, err
	}
	return []*types.Log{{Address: a.address, Topics: topics, Data: logData}}, nil
}

func (a *auctionState) verify(sub *groth16.Submission) error {
	p := sub.Proof()
	if a.cfg.Verifier != nil {
		return a.cfg.Verifier.Verify(p, sub.Signals)
	}
	if isIdentity(p.PiA) || isIdentity(p.PiC) {
		return groth16.ErrInvalidProof
	}
	if _, err := groth16.G1Point(p.PiA); err != nil {
		return err
	}
	if _, err := groth16.G2Point(p.PiB); err != nil {
		return err
	}
	_, err := groth16.G1Point(p.PiC)
	return err
}

func isIdentity(xy [2]*big.Int) bool {
	return xy[0].Sign() == 0 && xy[1].Sign() == 0
}

// spendNullifier marks a nullifier as spent.
func (a *auctionState) spendNullifier(n common.Hash, tx common.Hash, height uint64) error {
	if _, exists := a.nullifiers[n]; exists {
		return ErrNullifierSpent
	}
	a.nullifiers[n] = nullifierRecord{spentAt: height, spentTx: tx}
	return nil
}
