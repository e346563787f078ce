// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bidding

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

const etherDecimals = 18

// MinBid is the smallest accepted bid, 0.001 ether.
var MinBid = uint256.NewInt(1_000_000_000_000_000)

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(etherDecimals), nil)

// ParseEther converts a decimal ether amount such as "0.25" to wei.
// Negative values, exponents and more than 18 fractional digits are
// rejected.
func ParseEther(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty amount", ErrInvalidInput)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if !digits(whole+frac) || whole+frac == "" {
		return nil, fmt.Errorf("%w: amount %q is not a plain decimal", ErrInvalidInput, s)
	}
	if len(frac) > etherDecimals {
		return nil, fmt.Errorf("%w: amount %q has more than %d decimals", ErrInvalidInput, s, etherDecimals)
	}

	n, ok := new(big.Int).SetString(whole+frac+strings.Repeat("0", etherDecimals-len(frac)), 10)
	if !ok {
		return nil, fmt.Errorf("%w: amount %q is not a number", ErrInvalidInput, s)
	}
	wei, overflow := uint256.FromBig(n)
	if overflow {
		return nil, fmt.Errorf("%w: amount %q overflows 256 bits", ErrInvalidInput, s)
	}
	return wei, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatEther renders wei as a decimal ether amount without trailing
// zeros.
func FormatEther(wei *uint256.Int) string {
	if wei == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(wei.ToBig(), weiPerEther)
	s := r.FloatString(etherDecimals)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
