// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package groth16 parses snarkjs Groth16 proofs over BN254 and encodes
// them for the auction contract's submitBid call.
package groth16

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

const (
	ProtocolGroth16 = "groth16"
	CurveBN128      = "bn128"
)

var (
	ErrMalformedProof           = errors.New("malformed proof")
	ErrInvalidPublicSignalCount = errors.New("invalid public signal count")
	ErrFieldOverflow            = errors.New("value exceeds field modulus")
	ErrInvalidProof             = errors.New("invalid proof")
)

var (
	baseModulus   = fp.Modulus()
	scalarModulus = fr.Modulus()
)

// Proof is a Groth16 proof in snarkjs coordinate order: PiB rows are
// [x0, x1] and [y0, y1] with x = x0 + x1·u. Only the affine coordinates are
// kept.
type Proof struct {
	PiA      [2]*big.Int
	PiB      [2][2]*big.Int
	PiC      [2]*big.Int
	Protocol string
	Curve    string
}

// snarkjsProof is the JSON written by `snarkjs groth16 prove`.
type snarkjsProof struct {
	PiA      []json.RawMessage   `json:"pi_a"`
	PiB      [][]json.RawMessage `json:"pi_b"`
	PiC      []json.RawMessage   `json:"pi_c"`
	Protocol string              `json:"protocol"`
	Curve    string              `json:"curve"`
}

// ParseProof decodes a snarkjs proof. Missing or mis-shaped fields and
// coordinates that are not base-field elements yield ErrMalformedProof.
func ParseProof(raw []byte) (*Proof, error) {
	var sp snarkjsProof
	if err := json.Unmarshal(raw, &sp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedProof, err)
	}
	if err := sp.validateShape(); err != nil {
		return nil, err
	}

	p := &Proof{Protocol: sp.Protocol, Curve: sp.Curve}
	if p.Protocol == "" {
		p.Protocol = ProtocolGroth16
	}
	if p.Curve == "" {
		p.Curve = CurveBN128
	}
	if p.Protocol != ProtocolGroth16 {
		return nil, fmt.Errorf("%w: unsupported protocol %q", ErrMalformedProof, p.Protocol)
	}
	if p.Curve != CurveBN128 && p.Curve != "bn254" {
		return nil, fmt.Errorf("%w: unsupported curve %q", ErrMalformedProof, p.Curve)
	}

	var err error
	for i := 0; i < 2; i++ {
		if p.PiA[i], err = parseCoordinate("pi_a", sp.PiA[i]); err != nil {
			return nil, err
		}
		if p.PiC[i], err = parseCoordinate("pi_c", sp.PiC[i]); err != nil {
			return nil, err
		}
		for j := 0; j < 2; j++ {
			if p.PiB[i][j], err = parseCoordinate("pi_b", sp.PiB[i][j]); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

// ValidateShape checks only the structure of a snarkjs proof: pi_a and
// pi_c with at least two entries, pi_b with at least two rows of at least
// two entries.
func ValidateShape(raw []byte) error {
	var sp snarkjsProof
	if err := json.Unmarshal(raw, &sp); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedProof, err)
	}
	return sp.validateShape()
}

func (sp *snarkjsProof) validateShape() error {
	switch {
	case sp.PiA == nil:
		return fmt.Errorf("%w: missing pi_a", ErrMalformedProof)
	case sp.PiB == nil:
		return fmt.Errorf("%w: missing pi_b", ErrMalformedProof)
	case sp.PiC == nil:
		return fmt.Errorf("%w: missing pi_c", ErrMalformedProof)
	case len(sp.PiA) < 2:
		return fmt.Errorf("%w: pi_a has %d coordinates", ErrMalformedProof, len(sp.PiA))
	case len(sp.PiC) < 2:
		return fmt.Errorf("%w: pi_c has %d coordinates", ErrMalformedProof, len(sp.PiC))
	case len(sp.PiB) < 2:
		return fmt.Errorf("%w: pi_b has %d rows", ErrMalformedProof, len(sp.PiB))
	}
	for i := 0; i < 2; i++ {
		if len(sp.PiB[i]) < 2 {
			return fmt.Errorf("%w: pi_b row %d has %d coordinates", ErrMalformedProof, i, len(sp.PiB[i]))
		}
	}
	return nil
}

// ConvertG2 swaps the coordinate pairs of a G2 point between snarkjs order
// and the order the EVM pairing precompile expects. It is its own inverse.
func ConvertG2(b [2][2]*big.Int) [2][2]*big.Int {
	return [2][2]*big.Int{
		{b[0][1], b[0][0]},
		{b[1][1], b[1][0]},
	}
}

// Words returns the eight proof words in contract order: A, B with swapped
// pairs, C.
func (p *Proof) Words() [8]*big.Int {
	b := ConvertG2(p.PiB)
	return [8]*big.Int{
		p.PiA[0], p.PiA[1],
		b[0][0], b[0][1], b[1][0], b[1][1],
		p.PiC[0], p.PiC[1],
	}
}

// decimal accepts a JSON string or number holding a base-10 integer.
func decimal(raw json.RawMessage) (*big.Int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	if len(raw) == 0 {
		return nil, false
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return nil, false
		}
	}
	return new(big.Int).SetString(string(raw), 10)
}

func parseCoordinate(field string, raw json.RawMessage) (*big.Int, error) {
	v, ok := decimal(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %s coordinate %s is not a decimal integer", ErrMalformedProof, field, raw)
	}
	if v.Cmp(baseModulus) >= 0 {
		return nil, fmt.Errorf("%w: %s coordinate: %w", ErrMalformedProof, field, ErrFieldOverflow)
	}
	return v, nil
}
