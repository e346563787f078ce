// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package groth16

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/luxfi/crypto/bn256"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/burnbid/groth16/groth16test"
)

func mustInt(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	return v
}

func TestParseProof(t *testing.T) {
	p, err := ParseProof([]byte(groth16test.SampleProof))
	require.NoError(t, err)
	require.Equal(t, ProtocolGroth16, p.Protocol)
	require.Equal(t, CurveBN128, p.Curve)
	require.Equal(t, mustInt(t, "15735234741036841031785444279490969598560196843641202116530397007303416185676"), p.PiA[0])
	require.Equal(t, mustInt(t, "13266005699425396071609737237474717092791047403386583977505335368316493653834"), p.PiB[0][1])
	require.Equal(t, mustInt(t, "13059467832921364130052777072151339381043283688520739469674524537959352978453"), p.PiC[1])
}

func TestParseProofDefaults(t *testing.T) {
	raw := `{"pi_a":["1","2"],"pi_b":[["1","2"],["3","4"]],"pi_c":[5,6]}`
	p, err := ParseProof([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, ProtocolGroth16, p.Protocol)
	require.Equal(t, CurveBN128, p.Curve)
	require.Equal(t, int64(6), p.PiC[1].Int64())
}

func TestParseProofMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing pi_a", groth16test.SampleProofWithout("pi_a")},
		{"missing pi_b", groth16test.SampleProofWithout("pi_b")},
		{"missing pi_c", groth16test.SampleProofWithout("pi_c")},
		{"not json", `pi_a`},
		{"pi_a scalar", `{"pi_a":"1","pi_b":[["1","2"],["3","4"]],"pi_c":["5","6"]}`},
		{"pi_a short", `{"pi_a":["1"],"pi_b":[["1","2"],["3","4"]],"pi_c":["5","6"]}`},
		{"pi_b one row", `{"pi_a":["1","2"],"pi_b":[["1","2"]],"pi_c":["5","6"]}`},
		{"pi_b short row", `{"pi_a":["1","2"],"pi_b":[["1","2"],["3"]],"pi_c":["5","6"]}`},
		{"hex coordinate", `{"pi_a":["0x1","2"],"pi_b":[["1","2"],["3","4"]],"pi_c":["5","6"]}`},
		{"negative coordinate", `{"pi_a":["-1","2"],"pi_b":[["1","2"],["3","4"]],"pi_c":["5","6"]}`},
		{"empty coordinate", `{"pi_a":["","2"],"pi_b":[["1","2"],["3","4"]],"pi_c":["5","6"]}`},
		{"wrong protocol", `{"pi_a":["1","2"],"pi_b":[["1","2"],["3","4"]],"pi_c":["5","6"],"protocol":"plonk"}`},
		{"wrong curve", `{"pi_a":["1","2"],"pi_b":[["1","2"],["3","4"]],"pi_c":["5","6"],"curve":"bls12381"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProof([]byte(tt.raw))
			require.ErrorIs(t, err, ErrMalformedProof)
		})
	}
}

func TestParseProofFieldOverflow(t *testing.T) {
	p := baseModulus.String()
	raw := `{"pi_a":["` + p + `","2"],"pi_b":[["1","2"],["3","4"]],"pi_c":["5","6"]}`
	_, err := ParseProof([]byte(raw))
	require.ErrorIs(t, err, ErrMalformedProof)
	require.ErrorIs(t, err, ErrFieldOverflow)
}

func TestValidateShape(t *testing.T) {
	require.NoError(t, ValidateShape([]byte(groth16test.SampleProof)))
	require.NoError(t, ValidateShape([]byte(`{"pi_a":["x","y"],"pi_b":[["a","b"],["c","d"]],"pi_c":["e","f"]}`)))
	require.ErrorIs(t, ValidateShape([]byte(groth16test.SampleProofWithout("pi_b"))), ErrMalformedProof)
	require.ErrorIs(t, ValidateShape([]byte(`{"pi_a":["1"],"pi_b":[["1","2"],["3","4"]],"pi_c":["5","6"]}`)), ErrMalformedProof)
}

func TestConvertG2(t *testing.T) {
	b := [2][2]*big.Int{
		{big.NewInt(1), big.NewInt(2)},
		{big.NewInt(3), big.NewInt(4)},
	}
	swapped := ConvertG2(b)
	require.Equal(t, [2][2]*big.Int{
		{big.NewInt(2), big.NewInt(1)},
		{big.NewInt(4), big.NewInt(3)},
	}, swapped)
	require.Equal(t, b, ConvertG2(swapped))

	p, err := ParseProof([]byte(groth16test.SampleProof))
	require.NoError(t, err)
	require.Equal(t, p.PiB, ConvertG2(ConvertG2(p.PiB)))
}

func TestParsePublicSignals(t *testing.T) {
	s, err := ParsePublicSignals([]byte(groth16test.SamplePublic))
	require.NoError(t, err)
	require.Equal(t, int64(7496824597605666358), s[SignalAuction].Int64())
	require.Equal(t, int64(1), s[SignalCeremony].Int64())
	require.Len(t, s.Slice(), PublicSignalCount)

	tests := []struct {
		name string
		raw  string
		err  error
	}{
		{"five", `["1","2","3","4","5"]`, ErrInvalidPublicSignalCount},
		{"seven", `["1","2","3","4","5","6","7"]`, ErrInvalidPublicSignalCount},
		{"empty", `[]`, ErrInvalidPublicSignalCount},
		{"object", `{"a":1}`, ErrMalformedProof},
		{"not decimal", `["1","2","3","4","5","z"]`, ErrMalformedProof},
		{"overflow", `["1","2","3","4","5","` + scalarModulus.String() + `"]`, ErrFieldOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePublicSignals([]byte(tt.raw))
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestEncodeForSubmission(t *testing.T) {
	p, err := ParseProof([]byte(groth16test.SampleProof))
	require.NoError(t, err)
	s, err := ParsePublicSignals([]byte(groth16test.SamplePublic))
	require.NoError(t, err)

	bid := big.NewInt(1000)
	data, err := EncodeForSubmission(p, s.Slice(), bid)
	require.NoError(t, err)
	require.Equal(t, "467ee81d", hex.EncodeToString(data[:4]))
	require.Len(t, data, 4+32*(2+4+2+PublicSignalCount+1))

	word := func(i int) *big.Int {
		return new(big.Int).SetBytes(data[4+32*i : 4+32*(i+1)])
	}
	words := p.Words()
	for i, w := range words {
		require.Zero(t, w.Cmp(word(i)), "word %d", i)
	}
	// proofB[0][0] on the wire is snarkjs pi_b[0][1].
	require.Zero(t, p.PiB[0][1].Cmp(word(2)))
	require.Zero(t, p.PiB[1][0].Cmp(word(5)))
	for i := range s {
		require.Zero(t, s[i].Cmp(word(8+i)))
	}
	require.Zero(t, bid.Cmp(word(14)))

	sub, err := DecodeSubmission(data)
	require.NoError(t, err)
	require.Zero(t, bid.Cmp(sub.Bid))
	got := sub.Proof().Words()
	requireInts(t, words[:], got[:])
	requireInts(t, s[:], sub.Signals[:])
}

func requireInts(t *testing.T, want, got []*big.Int) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.Zero(t, want[i].Cmp(got[i]), "index %d: want %s, got %s", i, want[i], got[i])
	}
}

func TestEncodeForSubmissionErrors(t *testing.T) {
	p, err := ParseProof([]byte(groth16test.SampleProof))
	require.NoError(t, err)
	s, err := ParsePublicSignals([]byte(groth16test.SamplePublic))
	require.NoError(t, err)

	_, err = EncodeForSubmission(p, s.Slice()[:5], big.NewInt(1))
	require.ErrorIs(t, err, ErrInvalidPublicSignalCount)
	_, err = EncodeForSubmission(p, append(s.Slice(), big.NewInt(1)), big.NewInt(1))
	require.ErrorIs(t, err, ErrInvalidPublicSignalCount)
	_, err = EncodeForSubmission(nil, s.Slice(), big.NewInt(1))
	require.ErrorIs(t, err, ErrMalformedProof)
	_, err = EncodeForSubmission(p, s.Slice(), nil)
	require.ErrorIs(t, err, ErrMalformedProof)

	_, err = DecodeSubmission([]byte{1, 2, 3, 4})
	require.ErrorIs(t, err, ErrMalformedProof)
}

func testSignals() PublicSignals {
	var s PublicSignals
	for i := range s {
		s[i] = big.NewInt(int64(100 + i))
	}
	return s
}

func TestVerifier(t *testing.T) {
	td := groth16test.NewTrapdoor("verifier", PublicSignalCount)
	vk, err := ParseVerifyingKey(td.VerifyingKeyJSON())
	require.NoError(t, err)
	v, err := NewVerifier(vk, log.NewTestLogger(log.InfoLevel))
	require.NoError(t, err)

	signals := testSignals()
	proofJSON, publicJSON := td.Prove(signals.Slice())

	p, err := ParseProof(proofJSON)
	require.NoError(t, err)
	s, err := ParsePublicSignals(publicJSON)
	require.NoError(t, err)
	require.NoError(t, v.Verify(p, s))
	// Cached result.
	require.NoError(t, v.Verify(p, s))

	tampered := s
	tampered[SignalNullifier] = big.NewInt(7)
	require.ErrorIs(t, v.Verify(p, tampered), ErrInvalidProof)
	require.ErrorIs(t, v.Verify(p, tampered), ErrInvalidProof)

	other := *p
	other.PiB = ConvertG2(p.PiB)
	require.ErrorIs(t, v.Verify(&other, s), ErrInvalidProof)

	// A proof made under another key does not verify.
	foreign, _ := groth16test.NewTrapdoor("other", PublicSignalCount).Prove(signals.Slice())
	fp, err := ParseProof(foreign)
	require.NoError(t, err)
	require.ErrorIs(t, v.Verify(fp, s), ErrInvalidProof)

	require.ErrorIs(t, v.Verify(nil, s), ErrMalformedProof)
}

func TestNegG1(t *testing.T) {
	p, err := ParseProof([]byte(groth16test.SampleProof))
	require.NoError(t, err)
	a, err := G1Point(p.PiA)
	require.NoError(t, err)

	sum := new(bn256.G1)
	sum.Add(a, neg(a))
	require.Equal(t, make([]byte, 64), sum.Marshal())
	require.NotEqual(t, a.Marshal(), neg(a).Marshal())
}

func TestSampleProofOnCurve(t *testing.T) {
	p, err := ParseProof([]byte(groth16test.SampleProof))
	require.NoError(t, err)
	_, err = G1Point(p.PiA)
	require.NoError(t, err)
	_, err = G2Point(p.PiB)
	require.NoError(t, err)
	_, err = G1Point(p.PiC)
	require.NoError(t, err)

	_, err = G1Point([2]*big.Int{big.NewInt(1), big.NewInt(1)})
	require.ErrorIs(t, err, ErrInvalidProof)
}

func TestParseVerifyingKeyErrors(t *testing.T) {
	_, err := ParseVerifyingKey([]byte(`{"protocol":"plonk"}`))
	require.ErrorIs(t, err, ErrMalformedProof)

	_, err = ParseVerifyingKey(groth16test.NewTrapdoor("short", 5).VerifyingKeyJSON())
	require.ErrorIs(t, err, ErrInvalidPublicSignalCount)

	_, err = NewVerifier(nil, log.NewTestLogger(log.InfoLevel))
	require.ErrorIs(t, err, ErrMalformedProof)
}
