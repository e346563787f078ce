// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bidding

import "fmt"

// State is a step of the bid flow. Sessions only move forward, except
// that a failed burn returns to StateInput.
type State uint8

const (
	StateConnect State = iota
	StateInput
	StateBurn
	StateProof
	StateSubmit
	StateComplete
)

var stateNames = [...]string{
	StateConnect:  "connect",
	StateInput:    "input",
	StateBurn:     "burn",
	StateProof:    "proof",
	StateSubmit:   "submit",
	StateComplete: "complete",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}
