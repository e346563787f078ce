// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"
)

// RPCClient is the subset of *rpc.Client the provider wallet uses.
type RPCClient interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// ProviderWallet delegates account access and signing to an external
// wallet provider speaking the Ethereum JSON-RPC API.
type ProviderWallet struct {
	client RPCClient
	log    log.Logger
}

func NewProviderWallet(client RPCClient, logger log.Logger) *ProviderWallet {
	return &ProviderWallet{client: client, log: logger}
}

// RequestAccounts calls eth_requestAccounts, falling back to eth_accounts
// for providers that do not implement it.
func (w *ProviderWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	err := w.client.CallContext(ctx, &accounts, "eth_requestAccounts")
	if err != nil {
		w.log.Debug("eth_requestAccounts unavailable, falling back to eth_accounts",
			log.String("error", err.Error()),
		)
		return w.Accounts(ctx)
	}
	if len(accounts) == 0 {
		return nil, ErrWalletNotConnected
	}
	return accounts, nil
}

func (w *ProviderWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := w.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWalletNotConnected, err)
	}
	if len(accounts) == 0 {
		return nil, ErrWalletNotConnected
	}
	return accounts, nil
}

type providerTx struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to,omitempty"`
	Value *hexutil.Big    `json:"value,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
	Gas   *hexutil.Uint64 `json:"gas,omitempty"`
}

// SendTransaction forwards req to eth_sendTransaction.
func (w *ProviderWallet) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	tx := providerTx{From: req.From, To: req.To, Data: req.Data}
	if req.Value != nil {
		tx.Value = (*hexutil.Big)(req.Value.ToBig())
	}
	if req.Gas != 0 {
		gas := hexutil.Uint64(req.Gas)
		tx.Gas = &gas
	}

	var hash common.Hash
	if err := w.client.CallContext(ctx, &hash, "eth_sendTransaction", tx); err != nil {
		return common.Hash{}, AsTxError(common.Hash{}, err)
	}
	w.log.Info("Transaction sent through provider",
		log.String("hash", hash.Hex()),
		log.String("from", req.From.Hex()),
	)
	return hash, nil
}

// TransactionReceipt returns ethereum.NotFound while the transaction is
// pending.
func (w *ProviderWallet) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	if err := w.client.CallContext(ctx, &receipt, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (w *ProviderWallet) ChainID(ctx context.Context) (*big.Int, error) {
	var id hexutil.Big
	if err := w.client.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return nil, fmt.Errorf("failed to fetch chain id: %w", err)
	}
	return id.ToInt(), nil
}
