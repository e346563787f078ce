// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package groth16

import (
	"fmt"
	"math/big"

	"github.com/luxfi/burnbid/contracts"
)

// EncodeForSubmission builds the call data of
// submitBid(uint256[2],uint256[2][2],uint256[2],uint256[6],uint256),
// selector included. The G2 pairs are swapped here and nowhere else.
func EncodeForSubmission(p *Proof, signals []*big.Int, bid *big.Int) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil proof", ErrMalformedProof)
	}
	if len(signals) != PublicSignalCount {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidPublicSignalCount, len(signals), PublicSignalCount)
	}
	if bid == nil || bid.Sign() < 0 {
		return nil, fmt.Errorf("%w: bid amount must be a non-negative integer", ErrMalformedProof)
	}

	var pub [PublicSignalCount]*big.Int
	for i, s := range signals {
		if s == nil {
			return nil, fmt.Errorf("%w: public signal %d is missing", ErrMalformedProof, i)
		}
		pub[i] = s
	}
	return contracts.Auction.Pack(contracts.MethodSubmitBid, p.PiA, ConvertG2(p.PiB), p.PiC, pub, bid)
}

// Submission is decoded submitBid call data, in contract order.
type Submission struct {
	A       [2]*big.Int
	B       [2][2]*big.Int
	C       [2]*big.Int
	Signals PublicSignals
	Bid     *big.Int
}

// DecodeSubmission reverses EncodeForSubmission. B stays in contract order.
func DecodeSubmission(data []byte) (*Submission, error) {
	sel, err := contracts.Auction.Selector(contracts.MethodSubmitBid)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 || [4]byte(data[:4]) != sel {
		return nil, fmt.Errorf("%w: not a submitBid call", ErrMalformedProof)
	}
	values, err := contracts.Auction.UnpackInput(contracts.MethodSubmitBid, data[4:], true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedProof, err)
	}

	a, okA := values[0].([2]*big.Int)
	b, okB := values[1].([2][2]*big.Int)
	c, okC := values[2].([2]*big.Int)
	pub, okS := values[3].([PublicSignalCount]*big.Int)
	bid, okBid := values[4].(*big.Int)
	if !okA || !okB || !okC || !okS || !okBid {
		return nil, fmt.Errorf("%w: unexpected submitBid argument types", ErrMalformedProof)
	}
	return &Submission{A: a, B: b, C: c, Signals: PublicSignals(pub), Bid: bid}, nil
}

// Proof returns the submitted proof in snarkjs order.
func (s *Submission) Proof() *Proof {
	return &Proof{
		PiA:      s.A,
		PiB:      ConvertG2(s.B),
		PiC:      s.C,
		Protocol: ProtocolGroth16,
		Curve:    CurveBN128,
	}
}
