// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package commitment

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/luxfi/geth/common"
)

// CanonicalAddress renders addr as 0x-prefixed lowercase hex.
func CanonicalAddress(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// CanonicalAmount renders a positive integer in base 10 without leading zeros.
func CanonicalAmount(v *big.Int) (string, error) {
	if v == nil {
		return "", fmt.Errorf("%w: missing value", ErrInvalidInput)
	}
	if v.Sign() <= 0 {
		return "", fmt.Errorf("%w: value must be positive, got %s", ErrInvalidInput, v)
	}
	return v.Text(10), nil
}

// AuctionID joins an auction contract address and its ceremony id as
// "<address>_<ceremonyId>". A nil ceremony id is rendered as 0.
func AuctionID(auction common.Address, ceremonyID *big.Int) string {
	id := "0"
	if ceremonyID != nil {
		id = ceremonyID.Text(10)
	}
	return CanonicalAddress(auction) + "_" + id
}

// ParseAuctionID splits an auction id produced by AuctionID.
func ParseAuctionID(id string) (common.Address, *big.Int, error) {
	i := strings.LastIndexByte(id, '_')
	if i < 0 {
		return common.Address{}, nil, fmt.Errorf("%w: auction id %q has no ceremony suffix", ErrInvalidInput, id)
	}
	addr, ceremony := id[:i], id[i+1:]
	if !common.IsHexAddress(addr) {
		return common.Address{}, nil, fmt.Errorf("%w: auction id %q has no contract address", ErrInvalidInput, id)
	}
	n, ok := new(big.Int).SetString(ceremony, 10)
	if !ok || n.Sign() < 0 {
		return common.Address{}, nil, fmt.Errorf("%w: auction id %q has a bad ceremony id", ErrInvalidInput, id)
	}
	return common.HexToAddress(addr), n, nil
}
