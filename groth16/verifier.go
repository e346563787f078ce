// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package groth16

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strconv"

	lru "github.com/hashicorp/golang-lru"
	"github.com/luxfi/crypto"
	"github.com/luxfi/crypto/bn256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
)

const defaultCacheSize = 1024

var minusOne = new(big.Int).Sub(scalarModulus, big.NewInt(1))

// VerifyingKey is a Groth16 verifying key decoded into curve points.
type VerifyingKey struct {
	Alpha *bn256.G1
	Beta  *bn256.G2
	Gamma *bn256.G2
	Delta *bn256.G2
	IC    []*bn256.G1
}

// snarkjsVerifyingKey is verification_key.json from `snarkjs zkey export`.
type snarkjsVerifyingKey struct {
	Protocol string              `json:"protocol"`
	Curve    string              `json:"curve"`
	NPublic  int                 `json:"nPublic"`
	Alpha    []json.RawMessage   `json:"vk_alpha_1"`
	Beta     [][]json.RawMessage `json:"vk_beta_2"`
	Gamma    [][]json.RawMessage `json:"vk_gamma_2"`
	Delta    [][]json.RawMessage `json:"vk_delta_2"`
	IC       [][]json.RawMessage `json:"IC"`
}

// LoadVerifyingKey reads a snarkjs verification key from path.
func LoadVerifyingKey(path string) (*VerifyingKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read verifying key: %w", err)
	}
	return ParseVerifyingKey(raw)
}

// ParseVerifyingKey decodes a snarkjs verification key. Every point must
// be on the curve and the key must have one IC point per public signal
// plus one.
func ParseVerifyingKey(raw []byte) (*VerifyingKey, error) {
	var sk snarkjsVerifyingKey
	if err := json.Unmarshal(raw, &sk); err != nil {
		return nil, fmt.Errorf("%w: verifying key: %w", ErrMalformedProof, err)
	}
	if sk.Protocol != "" && sk.Protocol != ProtocolGroth16 {
		return nil, fmt.Errorf("%w: verifying key protocol %q", ErrMalformedProof, sk.Protocol)
	}
	if sk.NPublic != 0 && sk.NPublic != PublicSignalCount {
		return nil, fmt.Errorf("%w: verifying key expects %d public signals", ErrInvalidPublicSignalCount, sk.NPublic)
	}
	if len(sk.IC) != PublicSignalCount+1 {
		return nil, fmt.Errorf("%w: verifying key has %d IC points, want %d", ErrInvalidPublicSignalCount, len(sk.IC), PublicSignalCount+1)
	}

	var (
		vk  = &VerifyingKey{IC: make([]*bn256.G1, len(sk.IC))}
		err error
	)
	if vk.Alpha, err = g1FromJSON("vk_alpha_1", sk.Alpha); err != nil {
		return nil, err
	}
	if vk.Beta, err = g2FromJSON("vk_beta_2", sk.Beta); err != nil {
		return nil, err
	}
	if vk.Gamma, err = g2FromJSON("vk_gamma_2", sk.Gamma); err != nil {
		return nil, err
	}
	if vk.Delta, err = g2FromJSON("vk_delta_2", sk.Delta); err != nil {
		return nil, err
	}
	for i, ic := range sk.IC {
		if vk.IC[i], err = g1FromJSON(fmt.Sprintf("IC[%d]", i), ic); err != nil {
			return nil, err
		}
	}
	return vk, nil
}

// Verifier checks proofs locally before they are sent on chain. The
// contract stays authoritative; a local pass is only a pre-flight.
type Verifier struct {
	vk    *VerifyingKey
	cache *lru.Cache
	log   log.Logger
}

// NewVerifier returns a verifier for vk that remembers recent results.
func NewVerifier(vk *VerifyingKey, logger log.Logger) (*Verifier, error) {
	if vk == nil {
		return nil, fmt.Errorf("%w: nil verifying key", ErrMalformedProof)
	}
	cache, err := lru.New(defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create verification cache: %w", err)
	}
	return &Verifier{vk: vk, cache: cache, log: logger}, nil
}

// Verify runs the Groth16 pairing check
//
//	e(A, B) · e(-α, β) · e(-vk_x, γ) · e(-C, δ) = 1
//
// where vk_x = IC[0] + Σ sᵢ·IC[i+1]. It returns ErrInvalidProof when the
// check fails.
func (v *Verifier) Verify(p *Proof, signals PublicSignals) error {
	if p == nil {
		return fmt.Errorf("%w: nil proof", ErrMalformedProof)
	}
	key := cacheKey(p, signals)
	if ok, hit := v.cache.Get(key); hit {
		if ok.(bool) {
			return nil
		}
		return ErrInvalidProof
	}

	err := v.verify(p, signals)
	v.cache.Add(key, err == nil)
	v.log.Debug("Groth16 proof checked locally",
		log.String("proof", key.Hex()),
		log.String("valid", strconv.FormatBool(err == nil)),
	)
	return err
}

func (v *Verifier) verify(p *Proof, signals PublicSignals) error {
	a, err := G1Point(p.PiA)
	if err != nil {
		return err
	}
	b, err := G2Point(p.PiB)
	if err != nil {
		return err
	}
	c, err := G1Point(p.PiC)
	if err != nil {
		return err
	}

	vkX := new(bn256.G1)
	vkX.ScalarMult(v.vk.IC[0], big.NewInt(1))
	for i, s := range signals {
		if s == nil || s.Cmp(scalarModulus) >= 0 {
			return fmt.Errorf("%w: public signal %d", ErrFieldOverflow, i)
		}
		term := new(bn256.G1)
		term.ScalarMult(v.vk.IC[i+1], s)
		vkX.Add(vkX, term)
	}

	g1 := []*bn256.G1{a, neg(v.vk.Alpha), neg(vkX), neg(c)}
	g2 := []*bn256.G2{b, v.vk.Beta, v.vk.Gamma, v.vk.Delta}
	if !bn256.PairingCheck(g1, g2) {
		return ErrInvalidProof
	}
	return nil
}

// neg returns -p as (r-1)·p. The bn256 backends disagree on negative
// scalars.
func neg(p *bn256.G1) *bn256.G1 {
	out := new(bn256.G1)
	out.ScalarMult(p, minusOne)
	return out
}

// G1Point decodes an affine G1 point, rejecting points off the curve.
func G1Point(xy [2]*big.Int) (*bn256.G1, error) {
	buf := make([]byte, 64)
	if err := putWords(buf, xy[0], xy[1]); err != nil {
		return nil, err
	}
	p := new(bn256.G1)
	if _, err := p.Unmarshal(buf); err != nil {
		return nil, fmt.Errorf("%w: G1 point: %w", ErrInvalidProof, err)
	}
	return p, nil
}

// G2Point decodes a G2 point given in snarkjs order.
func G2Point(b [2][2]*big.Int) (*bn256.G2, error) {
	evm := ConvertG2(b)
	buf := make([]byte, 128)
	if err := putWords(buf, evm[0][0], evm[0][1], evm[1][0], evm[1][1]); err != nil {
		return nil, err
	}
	p := new(bn256.G2)
	if _, err := p.Unmarshal(buf); err != nil {
		return nil, fmt.Errorf("%w: G2 point: %w", ErrInvalidProof, err)
	}
	return p, nil
}

func putWords(buf []byte, words ...*big.Int) error {
	for i, w := range words {
		if w == nil || w.Sign() < 0 || w.Cmp(baseModulus) >= 0 {
			return fmt.Errorf("%w: coordinate %d", ErrFieldOverflow, i)
		}
		w.FillBytes(buf[32*i : 32*(i+1)])
	}
	return nil
}

func g1FromJSON(field string, raw []json.RawMessage) (*bn256.G1, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: %s has %d coordinates", ErrMalformedProof, field, len(raw))
	}
	var xy [2]*big.Int
	for i := range xy {
		v, err := parseCoordinate(field, raw[i])
		if err != nil {
			return nil, err
		}
		xy[i] = v
	}
	return G1Point(xy)
}

func g2FromJSON(field string, raw [][]json.RawMessage) (*bn256.G2, error) {
	if len(raw) < 2 || len(raw[0]) < 2 || len(raw[1]) < 2 {
		return nil, fmt.Errorf("%w: %s is not a 2x2 array", ErrMalformedProof, field)
	}
	var b [2][2]*big.Int
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			v, err := parseCoordinate(field, raw[i][j])
			if err != nil {
				return nil, err
			}
			b[i][j] = v
		}
	}
	return G2Point(b)
}

// cacheKey hashes the proof words and signals.
func cacheKey(p *Proof, signals PublicSignals) common.Hash {
	buf := make([]byte, 0, 32*(8+PublicSignalCount))
	word := make([]byte, 32)
	for _, w := range p.Words() {
		buf = append(buf, fill(word, w)...)
	}
	for _, s := range signals {
		buf = append(buf, fill(word, s)...)
	}
	return common.BytesToHash(crypto.Keccak256(buf))
}

func fill(word []byte, v *big.Int) []byte {
	clear(word)
	if v != nil && v.Sign() >= 0 && v.BitLen() <= 256 {
		v.FillBytes(word)
	}
	return word
}
