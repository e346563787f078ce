// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package commitment

import "github.com/luxfi/geth/common"

// Well-known sinks that other protocols already treat as burns. A derived
// burn address equal to one of these could not be attributed to a bidder.
var (
	ZeroAddress      = common.HexToAddress("0x0000000000000000000000000000000000000000")
	DeadAddress      = common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	DeadFullAddress  = common.HexToAddress("0xdEaD000000000000000000000000000000000000")
	// BlackholeAddress is where the Lux chains burn fees.
	BlackholeAddress = common.HexToAddress("0x0100000000000000000000000000000000000000")

	ReservedSinks = []common.Address{ZeroAddress, DeadAddress, DeadFullAddress, BlackholeAddress}
)

// IsReservedSink reports whether addr is one of ReservedSinks.
func IsReservedSink(addr common.Address) bool {
	for _, s := range ReservedSinks {
		if addr == s {
			return true
		}
	}
	return false
}
