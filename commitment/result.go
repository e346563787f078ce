// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package commitment

import (
	"math/big"

	"github.com/luxfi/geth/common"
)

// Result groups the values derived for one phase. Registration and bid
// results carry a burn address; deposit results carry a commitment.
type Result struct {
	BurnAddress common.Address
	Nullifier   common.Hash
	Commitment  common.Hash
}

// RegistrationResult derives the registration burn address and nullifier.
func RegistrationResult(p Params) (Result, error) {
	addr, err := RegistrationBurnAddress(p)
	if err != nil {
		return Result{}, err
	}
	null, err := Nullifier(p)
	if err != nil {
		return Result{}, err
	}
	return Result{BurnAddress: addr, Nullifier: null}, nil
}

// BidResult derives the bid burn address and nullifier.
func BidResult(p Params) (Result, error) {
	addr, err := BidBurnAddress(p)
	if err != nil {
		return Result{}, err
	}
	null, err := Nullifier(p)
	if err != nil {
		return Result{}, err
	}
	return Result{BurnAddress: addr, Nullifier: null}, nil
}

// DepositResult derives the deposit commitment and nullifier.
func DepositResult(p Params) (Result, error) {
	c, err := Commitment(p)
	if err != nil {
		return Result{}, err
	}
	null, err := Nullifier(p)
	if err != nil {
		return Result{}, err
	}
	return Result{Nullifier: null, Commitment: c}, nil
}

// Generated is a burn address together with the fresh β behind it.
type Generated struct {
	Params      Params
	BurnAddress common.Address
}

// Generate draws a fresh β and derives the burn address for user in the
// given auction round. A non-nil burnValue selects the bid-phase address,
// nil selects the registration address.
func Generate(user, auction common.Address, ceremonyID, burnValue *big.Int) (Generated, error) {
	beta, err := NewBlinding()
	if err != nil {
		return Generated{}, err
	}
	p := NewParams(user, auction, ceremonyID, beta)

	var addr common.Address
	if burnValue != nil {
		p = p.WithBid(burnValue)
		addr, err = BidBurnAddress(p)
	} else {
		addr, err = RegistrationBurnAddress(p)
	}
	if err != nil {
		return Generated{}, err
	}
	return Generated{Params: p, BurnAddress: addr}, nil
}
