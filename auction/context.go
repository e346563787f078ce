// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package auction reads the public state of sealed-bid auction contracts
// and discovers auctions deployed by the factory.
package auction

import (
	"math/big"
	"time"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/burnbid/commitment"
)

// Status is the phase an auction is in at a given time.
type Status string

const (
	StatusBiddingOpen     Status = "Bidding Open"
	StatusSubmissionPhase Status = "Submission Phase"
	StatusResultsPhase    Status = "Results Phase"
	StatusEnded           Status = "Ended"
	// StatusUnknown is reported when a deadline needed to place now in a
	// phase could not be read.
	StatusUnknown Status = "Unknown"
)

// Context is the public state of one auction round. Deadlines are unix
// seconds; zero means the value could not be read. A nil or zero
// CeremonyID is likewise unknown.
type Context struct {
	Address               common.Address
	CeremonyID            *big.Int
	BiddingDeadline       uint64
	BidSubmissionDeadline uint64
	ResultDeadline        uint64
}

// AuctionID is the canonical identifier bound into burn addresses.
func (c Context) AuctionID() string {
	return commitment.AuctionID(c.Address, c.CeremonyID)
}

// Known reports whether the ceremony id and all deadlines were read.
func (c Context) Known() bool {
	return c.CeremonyID != nil && c.CeremonyID.Sign() > 0 &&
		c.BiddingDeadline != 0 && c.BidSubmissionDeadline != 0 && c.ResultDeadline != 0
}

// Resolved reports whether anything at all was read.
func (c Context) Resolved() bool {
	return (c.CeremonyID != nil && c.CeremonyID.Sign() > 0) ||
		c.BiddingDeadline != 0 || c.BidSubmissionDeadline != 0 || c.ResultDeadline != 0
}

// StatusAt places now in a phase, checking the deadlines in order. An
// unknown deadline that is reached before now is placed yields
// StatusUnknown.
func (c Context) StatusAt(now time.Time) Status {
	t := now.Unix()
	phases := []struct {
		deadline uint64
		status   Status
	}{
		{c.BiddingDeadline, StatusBiddingOpen},
		{c.BidSubmissionDeadline, StatusSubmissionPhase},
		{c.ResultDeadline, StatusResultsPhase},
	}
	for _, p := range phases {
		if p.deadline == 0 {
			return StatusUnknown
		}
		if t < 0 || uint64(t) < p.deadline {
			return p.status
		}
	}
	return StatusEnded
}

// BiddingOpenAt reports whether a burn may still be made. Unknown
// deadlines do not block.
func (c Context) BiddingOpenAt(now time.Time) bool {
	return c.BiddingDeadline == 0 || now.Unix() < int64(c.BiddingDeadline)
}

// SubmissionOpenAt reports whether a proof may still be submitted.
// Unknown deadlines do not block.
func (c Context) SubmissionOpenAt(now time.Time) bool {
	return c.BidSubmissionDeadline == 0 || now.Unix() < int64(c.BidSubmissionDeadline)
}
