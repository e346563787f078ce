// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contracts

import (
	"bytes"
	"fmt"

	"github.com/luxfi/geth/accounts/abi"
)

// Revert is a decoded revert payload.
type Revert struct {
	// Name is the custom error name, or "Error"/"Panic" for the builtin
	// reverts. Empty when the payload could not be decoded.
	Name   string
	Reason string
	Data   []byte
}

func (r Revert) String() string {
	switch {
	case r.Name == "" && len(r.Data) == 0:
		return "execution reverted"
	case r.Name == "":
		return fmt.Sprintf("execution reverted: 0x%x", r.Data)
	case r.Reason == "":
		return r.Name
	default:
		return r.Name + ": " + r.Reason
	}
}

// PackError encodes the revert payload of a custom error declared in e.
func (e ExtendedABI) PackError(name string, args ...interface{}) ([]byte, error) {
	customErr, exist := e.Errors[name]
	if !exist {
		return nil, fmt.Errorf("error '%s' not found", name)
	}
	packed, err := customErr.Inputs.Pack(args...)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, customErr.ID[:4]...), packed...), nil
}

// DecodeRevert matches data against the custom errors of the auction and
// factory contracts and the builtin Error(string)/Panic(uint256) reverts.
func DecodeRevert(data []byte) Revert {
	r := Revert{Data: data}
	if len(data) < 4 {
		return r
	}
	for _, parsed := range []ExtendedABI{Auction, Factory} {
		for name, customErr := range parsed.Errors {
			if !bytes.Equal(customErr.ID[:4], data[:4]) {
				continue
			}
			r.Name = name
			if len(customErr.Inputs) > 0 {
				if values, err := customErr.Inputs.Unpack(data[4:]); err == nil {
					r.Reason = fmt.Sprint(values...)
				}
			}
			return r
		}
	}
	if reason, err := abi.UnpackRevert(data); err == nil {
		r.Name = "Error"
		if bytes.Equal(data[:4], panicSelector) {
			r.Name = "Panic"
		}
		r.Reason = reason
	}
	return r
}

// keccak256("Panic(uint256)")[:4]
var panicSelector = []byte{0x4e, 0x48, 0x7b, 0x71}
