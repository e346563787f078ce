// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	luxcrypto "github.com/luxfi/crypto"
	ethereum "github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"
)

// SigningBackend is the node API a KeyWallet signs against.
// *ethclient.Client implements it.
type SigningBackend interface {
	ReceiptReader

	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// KeyWallet signs legacy transactions with a local secp256k1 key.
type KeyWallet struct {
	backend SigningBackend
	key     *ecdsa.PrivateKey
	address common.Address
	log     log.Logger

	mu      sync.Mutex
	chainID *big.Int
}

// NewKeyWallet parses a hex private key, with or without 0x prefix.
func NewKeyWallet(backend SigningBackend, hexKey string, logger log.Logger) (*KeyWallet, error) {
	key, err := luxcrypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &KeyWallet{
		backend: backend,
		key:     key,
		address: AddressOf(&key.PublicKey),
		log:     logger,
	}, nil
}

// AddressOf derives the account address of an secp256k1 public key.
func AddressOf(pub *ecdsa.PublicKey) common.Address {
	raw := luxcrypto.FromECDSAPub(pub)
	return common.BytesToAddress(luxcrypto.Keccak256(raw[1:])[12:])
}

// Address is the account the wallet signs for.
func (w *KeyWallet) Address() common.Address {
	return w.address
}

func (w *KeyWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return w.Accounts(ctx)
}

func (w *KeyWallet) Accounts(context.Context) ([]common.Address, error) {
	return []common.Address{w.address}, nil
}

func (w *KeyWallet) ChainID(ctx context.Context) (*big.Int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.chainID != nil {
		return new(big.Int).Set(w.chainID), nil
	}
	id, err := w.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain id: %w", err)
	}
	w.chainID = id
	return new(big.Int).Set(id), nil
}

func (w *KeyWallet) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return w.backend.TransactionReceipt(ctx, hash)
}

// SendTransaction fills nonce, gas price and, when unset, gas, then signs
// and broadcasts the request.
func (w *KeyWallet) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	if req.From != (common.Address{}) && req.From != w.address {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrUnknownAccount, req.From.Hex())
	}
	req.From = w.address

	chainID, err := w.ChainID(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	nonce, err := w.backend.PendingNonceAt(ctx, w.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to fetch nonce: %w", err)
	}
	gasPrice, err := w.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to fetch gas price: %w", err)
	}
	gas := req.Gas
	if gas == 0 {
		if gas, err = w.backend.EstimateGas(ctx, req.CallMsg()); err != nil {
			return common.Hash{}, AsTxError(common.Hash{}, err)
		}
	}

	msg := req.CallMsg()
	value := msg.Value
	if value == nil {
		value = new(big.Int)
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       req.To,
		Value:    value,
		Data:     req.Data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := w.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, AsTxError(common.Hash{}, err)
	}

	w.log.Info("Transaction sent",
		log.String("hash", signed.Hash().Hex()),
		log.String("from", w.address.Hex()),
		log.Int("nonce", int(nonce)),
	)
	return signed.Hash(), nil
}
