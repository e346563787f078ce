// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package groth16

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// PublicSignalCount is the number of public inputs of the bid circuit.
const PublicSignalCount = 6

// Positions of the bid circuit's public inputs.
const (
	SignalCommitment = iota
	SignalNullifier
	SignalAuction
	SignalCeremony
	SignalCeremonyType
	SignalBurn
)

// PublicSignals are the public inputs of the bid circuit, each a BN254
// scalar-field element.
type PublicSignals [PublicSignalCount]*big.Int

// ParsePublicSignals decodes the snarkjs public.json array.
func ParsePublicSignals(raw []byte) (PublicSignals, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return PublicSignals{}, fmt.Errorf("%w: public signals: %w", ErrMalformedProof, err)
	}
	if len(entries) != PublicSignalCount {
		return PublicSignals{}, fmt.Errorf("%w: got %d, want %d", ErrInvalidPublicSignalCount, len(entries), PublicSignalCount)
	}

	var s PublicSignals
	for i, e := range entries {
		v, ok := decimal(e)
		if !ok {
			return PublicSignals{}, fmt.Errorf("%w: public signal %d is not a decimal integer", ErrMalformedProof, i)
		}
		if v.Cmp(scalarModulus) >= 0 {
			return PublicSignals{}, fmt.Errorf("%w: public signal %d: %w", ErrMalformedProof, i, ErrFieldOverflow)
		}
		s[i] = v
	}
	return s, nil
}

// Slice returns the signals as a slice for encoding.
func (s PublicSignals) Slice() []*big.Int {
	return append([]*big.Int(nil), s[:]...)
}
