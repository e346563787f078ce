// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package commitment derives the burn addresses, nullifiers and deposit
// commitments that bind a bidder to an auction without revealing the bid.
//
// Every value is keccak256 over the UTF-8 concatenation of canonical
// string fields:
//
//	registration burn address  Λ = last20(H(userId ∥ auctionId ∥ β))
//	bid burn address           Λ = last20(H(userId ∥ auctionId ∥ bidValue ∥ β))
//	nullifier                  η = H(userId ∥ auctionId ∥ β)
//	deposit commitment         c = H(userId ∥ auctionId ∥ amount ∥ β)
//
// The nullifier never depends on the bid value, so one β yields one
// nullifier per (user, auction) pair.
package commitment

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

// Params are the inputs of every derivation. Strings are hashed verbatim;
// use NewParams to build them in canonical form.
type Params struct {
	UserID    string
	AuctionID string
	Blinding  Blinding

	// BidValue is required by the bid-phase burn address.
	BidValue *big.Int
	// Amount is required by the deposit commitment.
	Amount *big.Int
}

// NewParams builds canonical params for a bidder in an auction round.
func NewParams(user, auction common.Address, ceremonyID *big.Int, beta Blinding) Params {
	return Params{
		UserID:    CanonicalAddress(user),
		AuctionID: AuctionID(auction, ceremonyID),
		Blinding:  beta,
	}
}

// WithBid returns a copy of p carrying the bid value in wei.
func (p Params) WithBid(value *big.Int) Params {
	p.BidValue = value
	return p
}

// WithAmount returns a copy of p carrying the deposit amount in wei.
func (p Params) WithAmount(amount *big.Int) Params {
	p.Amount = amount
	return p
}

// Validate checks that the identifying fields are present.
func (p Params) Validate() error {
	switch {
	case p.UserID == "":
		return fmt.Errorf("%w: empty user id", ErrInvalidInput)
	case p.AuctionID == "":
		return fmt.Errorf("%w: empty auction id", ErrInvalidInput)
	case p.Blinding == "":
		return fmt.Errorf("%w: empty blinding factor", ErrInvalidInput)
	}
	return nil
}

// RegistrationBurnAddress derives Λ for the registration phase.
func RegistrationBurnAddress(p Params) (common.Address, error) {
	if err := p.Validate(); err != nil {
		return common.Address{}, err
	}
	return addressOf(hash(p.UserID, p.AuctionID, string(p.Blinding))), nil
}

// BidBurnAddress derives Λ for the bid phase. The bid value sits between
// the auction id and β.
func BidBurnAddress(p Params) (common.Address, error) {
	if err := p.Validate(); err != nil {
		return common.Address{}, err
	}
	value, err := CanonicalAmount(p.BidValue)
	if err != nil {
		return common.Address{}, fmt.Errorf("bid value: %w", err)
	}
	return addressOf(hash(p.UserID, p.AuctionID, value, string(p.Blinding))), nil
}

// Nullifier derives η. It is the full 32-byte hash, not truncated.
func Nullifier(p Params) (common.Hash, error) {
	if err := p.Validate(); err != nil {
		return common.Hash{}, err
	}
	return hash(p.UserID, p.AuctionID, string(p.Blinding)), nil
}

// Commitment derives the deposit-phase commitment over p.Amount.
func Commitment(p Params) (common.Hash, error) {
	if err := p.Validate(); err != nil {
		return common.Hash{}, err
	}
	amount, err := CanonicalAmount(p.Amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("amount: %w", err)
	}
	return hash(p.UserID, p.AuctionID, amount, string(p.Blinding)), nil
}

// ValidateBurnAddress recomputes the expected burn address and compares it
// with candidate, ignoring hex case. Any derivation failure yields false.
func ValidateBurnAddress(candidate string, p Params, bidPhase bool) bool {
	if len(candidate) != 2+2*common.AddressLength || !common.IsHexAddress(candidate) {
		return false
	}
	var (
		expected common.Address
		err      error
	)
	if bidPhase {
		expected, err = BidBurnAddress(p)
	} else {
		expected, err = RegistrationBurnAddress(p)
	}
	if err != nil {
		return false
	}
	return strings.EqualFold(candidate, expected.Hex())
}

func hash(fields ...string) common.Hash {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(f)
	}
	return common.BytesToHash(crypto.Keccak256([]byte(b.String())))
}

// addressOf keeps the low 20 bytes of h.
func addressOf(h common.Hash) common.Address {
	return common.BytesToAddress(h[common.HashLength-common.AddressLength:])
}
