// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bidding

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"

	"github.com/luxfi/burnbid/auction"
	"github.com/luxfi/burnbid/commitment"
	"github.com/luxfi/burnbid/groth16"
)

// Snapshot is a copy of a session's state. Amounts are cloned; the proof
// and receipt are shared and must not be modified.
type Snapshot struct {
	State             State
	Auction           auction.Context
	Status            auction.Status
	Account           common.Address
	BurnAmount        *uint256.Int
	BidAmount         *uint256.Int
	Blinding          commitment.Blinding
	BurnAddress       common.Address
	BurnTx            common.Hash
	BurnConfirmations uint64
	Proof             *groth16.Proof
	Signals           groth16.PublicSignals
	SubmitTx          common.Hash
	Receipt           *types.Receipt
	Bid               *BidEvent
	Err               error
}

// TotalCost is the burn plus the bid, the most the bidder can spend.
func (s Snapshot) TotalCost() *uint256.Int {
	total := new(uint256.Int)
	if s.BurnAmount != nil {
		total.Add(total, s.BurnAmount)
	}
	if s.BidAmount != nil {
		total.Add(total, s.BidAmount)
	}
	return total
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:             s.state,
		Auction:           s.auction,
		Status:            s.auction.StatusAt(s.cfg.Now()),
		Account:           s.account,
		Blinding:          s.blinding,
		BurnAddress:       s.burnAddress,
		BurnTx:            s.burnTx,
		BurnConfirmations: s.burnConfirmations,
		Proof:             s.proof,
		Signals:           s.signals,
		SubmitTx:          s.submitTx,
		Receipt:           s.receipt,
		Err:               s.lastErr,
	}
	if s.burnAmount != nil {
		snap.BurnAmount = s.burnAmount.Clone()
	}
	if s.bidAmount != nil {
		snap.BidAmount = s.bidAmount.Clone()
	}
	if s.bid != nil {
		bid := *s.bid
		snap.Bid = &bid
	}
	return snap
}
