// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulated

import (
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common/hexutil"

	"github.com/luxfi/burnbid/contracts"
)

// RevertError is returned for reverted calls. Like a node's JSON-RPC
// error it carries the revert payload as hex in ErrorData.
type RevertError struct {
	Data   []byte
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

func (e *RevertError) ErrorCode() int { return 3 }

func (e *RevertError) ErrorData() interface{} {
	return hexutil.Encode(e.Data)
}

// revertWith builds an Error(string) revert.
func revertWith(reason string) *RevertError {
	stringTy, _ := abi.NewType("string", "", nil)
	packed, err := abi.Arguments{{Type: stringTy}}.Pack(reason)
	if err != nil {
		return &RevertError{Reason: reason}
	}
	return &RevertError{Data: append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...), Reason: reason}
}

// revertCustom builds the revert of a custom error of parsed.
func revertCustom(parsed contracts.ExtendedABI, name string) *RevertError {
	data, err := parsed.PackError(name)
	if err != nil {
		return &RevertError{Reason: name}
	}
	return &RevertError{Data: data, Reason: name}
}
