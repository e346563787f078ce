// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package groth16test provides Groth16 fixtures for tests: a proof
// produced by snarkjs for the bid circuit, and a trapdoor key pair that
// can "prove" arbitrary public signals.
package groth16test

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/luxfi/crypto"
)

// SampleProof and SamplePublic were produced by `snarkjs groth16 prove`
// for the bid circuit.
const SampleProof = `{
  "pi_a": [
    "15735234741036841031785444279490969598560196843641202116530397007303416185676",
    "18150691990194341536057655269208744335697765123953767493612463362207859936053",
    "1"
  ],
  "pi_b": [
    [
      "10496723520671847229028022026343553242445142007883043464366930756731799554837",
      "13266005699425396071609737237474717092791047403386583977505335368316493653834"
    ],
    [
      "7737754626396588929108482656761721100100553711177325925043050569539144715458",
      "3995591568799800093966694878544427925521265551962048650602930242215399447150"
    ],
    ["1", "0"]
  ],
  "pi_c": [
    "1002095530778988323297856129135406269799571698438808857309929901200889493124",
    "13059467832921364130052777072151339381043283688520739469674524537959352978453",
    "1"
  ],
  "protocol": "groth16",
  "curve": "bn128"
}`

const SamplePublic = `[
  "16580658621263755616398168707812265815499667385403522275332483037094862039449",
  "9891682204978241203411276824529809676739256861554734859603992321540123681204",
  "7496824597605666358",
  "1",
  "0",
  "2460315761077221111371079137112756400365219279656913426802070198701997759860"
]`

// SampleProofWithout returns SampleProof with one top-level field removed.
func SampleProofWithout(field string) string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(SampleProof), &m); err != nil {
		panic(err)
	}
	delete(m, field)
	out, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return string(out)
}

// Trapdoor is a verifying key whose toxic waste is known, so valid proofs
// for any public signals can be forged. Only for tests.
type Trapdoor struct {
	alpha, beta, gamma, delta *big.Int
	ic                        []*big.Int
	nonce                     uint64
}

// NewTrapdoor derives a trapdoor for n public signals from seed.
func NewTrapdoor(seed string, n int) *Trapdoor {
	t := &Trapdoor{
		alpha: scalar(seed, "alpha"),
		beta:  scalar(seed, "beta"),
		gamma: scalar(seed, "gamma"),
		delta: scalar(seed, "delta"),
		ic:    make([]*big.Int, n+1),
	}
	for i := range t.ic {
		t.ic[i] = scalar(seed, fmt.Sprintf("ic%d", i))
	}
	return t
}

// VerifyingKeyJSON renders the key as snarkjs verification_key.json.
func (t *Trapdoor) VerifyingKeyJSON() []byte {
	ic := make([][]string, len(t.ic))
	for i, k := range t.ic {
		ic[i] = g1JSON(g1(k))
	}
	vk := map[string]interface{}{
		"protocol":   "groth16",
		"curve":      "bn128",
		"nPublic":    len(t.ic) - 1,
		"vk_alpha_1": g1JSON(g1(t.alpha)),
		"vk_beta_2":  g2JSON(g2(t.beta)),
		"vk_gamma_2": g2JSON(g2(t.gamma)),
		"vk_delta_2": g2JSON(g2(t.delta)),
		"IC":         ic,
	}
	out, err := json.Marshal(vk)
	if err != nil {
		panic(err)
	}
	return out
}

// Prove returns snarkjs proof.json and public.json contents that verify
// under the trapdoor key. Each call uses a fresh C.
func (t *Trapdoor) Prove(signals []*big.Int) (proof, public []byte) {
	r := fr.Modulus()
	if len(signals) != len(t.ic)-1 {
		panic(fmt.Sprintf("groth16test: got %d signals, want %d", len(signals), len(t.ic)-1))
	}

	// x = ic0 + Σ sᵢ·icᵢ₊₁
	x := new(big.Int).Set(t.ic[0])
	for i, s := range signals {
		x.Add(x, new(big.Int).Mul(s, t.ic[i+1]))
	}
	x.Mod(x, r)

	t.nonce++
	c := scalar(fmt.Sprint(t.nonce), "c")

	// a·1 = α·β + x·γ + c·δ
	a := new(big.Int).Mul(t.alpha, t.beta)
	a.Add(a, new(big.Int).Mul(x, t.gamma))
	a.Add(a, new(big.Int).Mul(c, t.delta))
	a.Mod(a, r)

	pi := map[string]interface{}{
		"pi_a":     append(g1JSON(g1(a)), "1"),
		"pi_b":     append(g2JSON(g2(big.NewInt(1))), []string{"1", "0"}),
		"pi_c":     append(g1JSON(g1(c)), "1"),
		"protocol": "groth16",
		"curve":    "bn128",
	}
	proof, err := json.Marshal(pi)
	if err != nil {
		panic(err)
	}

	pub := make([]string, len(signals))
	for i, s := range signals {
		pub[i] = s.String()
	}
	public, err = json.Marshal(pub)
	if err != nil {
		panic(err)
	}
	return proof, public
}

func scalar(seed, label string) *big.Int {
	h := crypto.Keccak256([]byte(seed), []byte{0}, []byte(label))
	k := new(big.Int).SetBytes(h)
	k.Mod(k, fr.Modulus())
	if k.Sign() == 0 {
		k.SetInt64(1)
	}
	return k
}

func g1(k *big.Int) *bn254.G1Affine {
	return new(bn254.G1Affine).ScalarMultiplicationBase(k)
}

func g2(k *big.Int) *bn254.G2Affine {
	return new(bn254.G2Affine).ScalarMultiplicationBase(k)
}

func g1JSON(p *bn254.G1Affine) []string {
	return []string{word(&p.X), word(&p.Y)}
}

// g2JSON renders snarkjs [real, imaginary] pairs.
func g2JSON(p *bn254.G2Affine) [][]string {
	return [][]string{
		{word(&p.X.A0), word(&p.X.A1)},
		{word(&p.Y.A0), word(&p.Y.A1)},
	}
}

func word(e *fp.Element) string {
	return e.BigInt(new(big.Int)).String()
}
