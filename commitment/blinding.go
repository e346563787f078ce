// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package commitment

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// BlindingSize is the number of random bytes behind a fresh β.
const BlindingSize = 16

const blindingContext = "lux burnbid 2025-01 blinding factor"

// Blinding is the secret β. Whoever holds it can link a burn address to
// its bidder, so it must stay on the bidder's side until reveal.
type Blinding string

// NewBlinding draws a β from the system CSPRNG.
func NewBlinding() (Blinding, error) {
	var b [BlindingSize]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to read randomness: %w", err)
	}
	return Blinding(hex.EncodeToString(b[:])), nil
}

// DeriveBlinding derives a reproducible β from a seed and a label, for
// recovery from a stored seed and for fixtures.
func DeriveBlinding(seed []byte, label string) Blinding {
	material := make([]byte, 0, len(seed)+1+len(label))
	material = append(material, seed...)
	material = append(material, 0)
	material = append(material, label...)

	var out [BlindingSize]byte
	blake3.DeriveKey(blindingContext, material, out[:])
	return Blinding(hex.EncodeToString(out[:]))
}
