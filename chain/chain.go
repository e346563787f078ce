// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chain is the bidder's view of the network: a wallet that signs
// and sends transactions, read-only contract calls, and confirmation
// tracking.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	ethereum "github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
)

var (
	ErrWalletNotConnected  = errors.New("wallet not connected")
	ErrUnknownAccount      = errors.New("account not managed by wallet")
	ErrTransactionFailed   = errors.New("transaction failed")
	ErrConfirmationTimeout = errors.New("confirmation timeout")
)

// ReceiptReader fetches transaction receipts. A pending transaction
// yields ethereum.NotFound.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Caller executes read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// HeadReader reports the latest block number.
type HeadReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// LogFilterer queries event logs.
type LogFilterer interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// Wallet holds the bidder's accounts and sends transactions on their
// behalf.
type Wallet interface {
	ReceiptReader

	// RequestAccounts asks the wallet to expose its accounts, prompting the
	// user if needed.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// Accounts lists already exposed accounts without prompting.
	Accounts(ctx context.Context) ([]common.Address, error)
	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Backend is everything a bidding session needs from the network.
type Backend interface {
	Wallet
	Caller
	HeadReader
}

// TxRequest is an unsigned transaction. Zero Gas lets the wallet
// estimate it.
type TxRequest struct {
	From  common.Address
	To    *common.Address
	Value *uint256.Int
	Data  []byte
	Gas   uint64
}

// CallMsg converts the request for eth_call / eth_estimateGas.
func (r TxRequest) CallMsg() ethereum.CallMsg {
	msg := ethereum.CallMsg{
		From: r.From,
		To:   r.To,
		Gas:  r.Gas,
		Data: r.Data,
	}
	if r.Value != nil {
		msg.Value = r.Value.ToBig()
	}
	return msg
}

// TxError reports a transaction that was rejected or reverted.
type TxError struct {
	Hash   common.Hash
	Reason string
	// Data is the raw revert payload, when the node returned one.
	Data []byte
}

func (e *TxError) Error() string {
	switch {
	case e.Hash == (common.Hash{}):
		return fmt.Sprintf("transaction rejected: %s", e.Reason)
	case e.Reason == "":
		return fmt.Sprintf("transaction %s failed", e.Hash.Hex())
	default:
		return fmt.Sprintf("transaction %s failed: %s", e.Hash.Hex(), e.Reason)
	}
}

func (e *TxError) Unwrap() error {
	return ErrTransactionFailed
}

// NodeReader is a read-only node client, such as *ethclient.Client.
type NodeReader interface {
	Caller
	HeadReader
}

type composite struct {
	Wallet
	NodeReader
}

// NewBackend joins a wallet with a node client for reads.
func NewBackend(w Wallet, node NodeReader) Backend {
	return composite{Wallet: w, NodeReader: node}
}
