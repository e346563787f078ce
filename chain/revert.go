// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/geth/rpc"

	"github.com/luxfi/burnbid/contracts"
)

// RevertData extracts the revert payload carried by a JSON-RPC error or
// a *TxError.
func RevertData(err error) ([]byte, bool) {
	var txErr *TxError
	if errors.As(err, &txErr) && len(txErr.Data) > 0 {
		return txErr.Data, true
	}
	var de rpc.DataError
	if !errors.As(err, &de) {
		return nil, false
	}
	switch data := de.ErrorData().(type) {
	case string:
		b, decodeErr := hexutil.Decode(data)
		if decodeErr != nil {
			return nil, false
		}
		return b, true
	case []byte:
		return data, true
	default:
		return nil, false
	}
}

// AsTxError converts a send or call error into a *TxError, decoding the
// revert reason when the error carries one.
func AsTxError(hash common.Hash, err error) *TxError {
	var txErr *TxError
	if errors.As(err, &txErr) {
		return txErr
	}
	data, ok := RevertData(err)
	if !ok {
		return &TxError{Hash: hash, Reason: err.Error()}
	}
	return &TxError{Hash: hash, Reason: contracts.DecodeRevert(data).String(), Data: data}
}

// IsRevert reports whether err is an execution revert rather than a
// transport failure.
func IsRevert(err error) bool {
	if _, ok := RevertData(err); ok {
		return true
	}
	var txErr *TxError
	return errors.As(err, &txErr) || strings.Contains(err.Error(), "execution reverted")
}

// Simulate executes msg with eth_call at blockNumber (nil for latest). A
// revert is returned as a *TxError; other failures are wrapped as is.
func Simulate(ctx context.Context, c Caller, msg ethereum.CallMsg, blockNumber *big.Int) error {
	_, err := c.CallContract(ctx, msg, blockNumber)
	switch {
	case err == nil:
		return nil
	case IsRevert(err):
		return AsTxError(common.Hash{}, err)
	default:
		return fmt.Errorf("eth_call failed: %w", err)
	}
}

// ReplayRevert re-executes req, a mined submission that reverted, on the
// state before its block to recover the revert reason. It returns
// fallback when the replay does not revert.
func ReplayRevert(ctx context.Context, c Caller, req TxRequest, conf *Confirmation, fallback error) error {
	if conf == nil {
		return fallback
	}
	var parent *big.Int
	if r := conf.Receipt; r != nil && r.BlockNumber != nil && r.BlockNumber.Sign() > 0 {
		parent = new(big.Int).Sub(r.BlockNumber, big.NewInt(1))
	}
	var txErr *TxError
	if err := Simulate(ctx, c, req.CallMsg(), parent); errors.As(err, &txErr) {
		return &TxError{Hash: conf.Hash, Reason: txErr.Reason, Data: txErr.Data}
	}
	return fallback
}
