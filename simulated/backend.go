// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package simulated is an in-memory chain that emulates the auction and
// factory contracts. It backs the submission service when no signing key
// is configured, and the tests of every package that talks to a chain.
package simulated

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	ethereum "github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"

	"github.com/luxfi/burnbid/chain"
)

const intrinsicGas = 21_000

var (
	ErrInsufficientFunds = errors.New("insufficient funds for gas * price + value")
	ErrIntrinsicGas      = errors.New("intrinsic gas too low")
	ErrNoCode            = errors.New("no contract code at address")
)

// DefaultChainID is the chain id reported unless WithChainID is given.
var DefaultChainID = big.NewInt(1337)

var _ chain.Backend = (*Backend)(nil)

// Backend is a single-node chain kept in memory. Transactions are mined
// by Commit, or immediately with WithAutoCommit.
type Backend struct {
	mu sync.Mutex

	chainID    *big.Int
	autoCommit bool
	now        func() time.Time
	log        log.Logger

	head     uint64
	accounts []common.Address
	balances map[common.Address]*uint256.Int
	nonces   map[common.Address]uint64

	pending  []*pendingTx
	receipts map[common.Hash]*types.Receipt
	logs     []types.Log

	auctions  map[common.Address]*auctionState
	factories map[common.Address]*factoryState
	deployed  uint64

	failures map[common.Address]map[string]error
}

type pendingTx struct {
	hash common.Hash
	from common.Address
	req  chain.TxRequest
}

// Option configures a Backend.
type Option func(*Backend)

func WithChainID(id *big.Int) Option {
	return func(b *Backend) { b.chainID = new(big.Int).Set(id) }
}

// WithAutoCommit mines every transaction as soon as it is sent.
func WithAutoCommit(auto bool) Option {
	return func(b *Backend) { b.autoCommit = auto }
}

// WithClock sets the time contracts compare their deadlines against.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithAccounts exposes accounts through the wallet API.
func WithAccounts(accounts ...common.Address) Option {
	return func(b *Backend) { b.accounts = append(b.accounts, accounts...) }
}

func New(logger log.Logger, opts ...Option) *Backend {
	b := &Backend{
		chainID:   new(big.Int).Set(DefaultChainID),
		now:       time.Now,
		log:       logger,
		balances:  make(map[common.Address]*uint256.Int),
		nonces:    make(map[common.Address]uint64),
		receipts:  make(map[common.Hash]*types.Receipt),
		auctions:  make(map[common.Address]*auctionState),
		factories: make(map[common.Address]*factoryState),
		failures:  make(map[common.Address]map[string]error),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Fund credits addr with amount wei.
func (b *Backend) Fund(addr common.Address, amount *uint256.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balanceOf(addr).Add(b.balanceOf(addr), amount)
}

// Balance returns a copy of the balance of addr.
func (b *Backend) Balance(addr common.Address) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balanceOf(addr).Clone()
}

func (b *Backend) balanceOf(addr common.Address) *uint256.Int {
	bal, ok := b.balances[addr]
	if !ok {
		bal = new(uint256.Int)
		b.balances[addr] = bal
	}
	return bal
}

// FailCalls makes eth_call of method on addr return err, emulating a
// contract whose getter reverts.
func (b *Backend) FailCalls(addr common.Address, method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures[addr] == nil {
		b.failures[addr] = make(map[string]error)
	}
	b.failures[addr][method] = err
}

func (b *Backend) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return b.Accounts(ctx)
}

func (b *Backend) Accounts(context.Context) ([]common.Address, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.accounts) == 0 {
		return nil, chain.ErrWalletNotConnected
	}
	return append([]common.Address(nil), b.accounts...), nil
}

func (b *Backend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.chainID), nil
}

func (b *Backend) BlockNumber(context.Context) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.head, nil
}

// SendTransaction queues req, or mines it with WithAutoCommit. A request
// without gas is executed first, like a wallet estimating gas, so a
// revert is returned here instead of being mined.
func (b *Backend) SendTransaction(ctx context.Context, req chain.TxRequest) (common.Hash, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	from := req.From
	if from == (common.Address{}) && len(b.accounts) > 0 {
		from = b.accounts[0]
	}
	if !b.isAccount(from) {
		return common.Hash{}, fmt.Errorf("%w: %s", chain.ErrUnknownAccount, from.Hex())
	}
	if req.Gas != 0 && req.Gas < intrinsicGas {
		return common.Hash{}, &chain.TxError{Reason: ErrIntrinsicGas.Error()}
	}
	value := req.Value
	if value == nil {
		value = new(uint256.Int)
	}
	if b.balanceOf(from).Lt(value) {
		return common.Hash{}, &chain.TxError{Reason: ErrInsufficientFunds.Error()}
	}
	if req.Gas == 0 {
		if _, err := b.execute(from, req, common.Hash{}, false); err != nil {
			return common.Hash{}, chain.AsTxError(common.Hash{}, err)
		}
	}

	nonce := b.nonces[from]
	b.nonces[from]++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)
	hash := common.BytesToHash(crypto.Keccak256(b.chainID.Bytes(), from.Bytes(), buf[:]))

	b.pending = append(b.pending, &pendingTx{hash: hash, from: from, req: req})
	b.log.Debug("Simulated transaction queued",
		log.String("hash", hash.Hex()),
		log.String("from", from.Hex()),
	)
	if b.autoCommit {
		b.commit()
	}
	return hash, nil
}

func (b *Backend) isAccount(addr common.Address) bool {
	for _, a := range b.accounts {
		if a == addr {
			return true
		}
	}
	return false
}

// Commit mines all pending transactions into one block and returns its
// number.
func (b *Backend) Commit() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.commit()
}

// Mine appends n empty blocks.
func (b *Backend) Mine(n int) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head += uint64(n)
	return b.head
}

func (b *Backend) commit() uint64 {
	b.head++
	block := new(big.Int).SetUint64(b.head)
	for i, tx := range b.pending {
		logs, err := b.execute(tx.from, tx.req, tx.hash, true)
		receipt := &types.Receipt{
			Status:           types.ReceiptStatusSuccessful,
			TxHash:           tx.hash,
			BlockNumber:      block,
			TransactionIndex: uint(i),
			GasUsed:          intrinsicGas,
			Logs:             logs,
		}
		if err != nil {
			receipt.Status = types.ReceiptStatusFailed
			receipt.Logs = []*types.Log{}
			b.log.Debug("Simulated transaction reverted",
				log.String("hash", tx.hash.Hex()),
				log.String("error", err.Error()),
			)
		}
		for _, l := range receipt.Logs {
			l.BlockNumber = b.head
			l.TxHash = tx.hash
			l.TxIndex = uint(i)
			b.logs = append(b.logs, *l)
		}
		b.receipts[tx.hash] = receipt
	}
	b.pending = nil
	return b.head
}

// execute runs req against the current state. With apply unset it only
// reports whether the transaction would succeed.
func (b *Backend) execute(from common.Address, req chain.TxRequest, hash common.Hash, apply bool) ([]*types.Log, error) {
	value := req.Value
	if value == nil {
		value = new(uint256.Int)
	}
	if b.balanceOf(from).Lt(value) {
		return nil, ErrInsufficientFunds
	}

	var (
		logs []*types.Log
		err  error
	)
	if req.To != nil {
		switch {
		case b.auctions[*req.To] != nil:
			logs, err = b.auctions[*req.To].transact(b, from, value, req.Data, hash, apply)
		case b.factories[*req.To] != nil:
			logs, err = b.factories[*req.To].transact(b, *req.To, req.Data, apply)
		case len(req.Data) > 0:
			err = revertWith("call to non-contract address")
		}
	}
	if err != nil || !apply {
		return logs, err
	}

	b.balanceOf(from).Sub(b.balanceOf(from), value)
	if req.To != nil {
		b.balanceOf(*req.To).Add(b.balanceOf(*req.To), value)
	}
	return logs, nil
}

func (b *Backend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	receipt, ok := b.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	cpy := *receipt
	return &cpy, nil
}

// CallContract executes a read-only call against the latest state.
func (b *Backend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if msg.To == nil {
		return nil, errors.New("contract creation is not supported")
	}
	to := *msg.To
	if a := b.auctions[to]; a != nil {
		if err := b.injected(to, msg.Data, a.abiMethod); err != nil {
			return nil, err
		}
		value, overflow := uint256.FromBig(bigOrZero(msg.Value))
		if overflow {
			return nil, ErrInsufficientFunds
		}
		return a.call(b, msg.From, value, msg.Data)
	}
	if f := b.factories[to]; f != nil {
		if err := b.injected(to, msg.Data, f.abiMethod); err != nil {
			return nil, err
		}
		return f.call(msg.Data)
	}
	if len(msg.Data) == 0 {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoCode, to.Hex())
}

func (b *Backend) injected(to common.Address, data []byte, method func([]byte) string) error {
	byMethod := b.failures[to]
	if byMethod == nil {
		return nil
	}
	return byMethod[method(data)]
}

// FilterLogs matches logs by block range, address and topics.
func (b *Backend) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []types.Log
	for _, l := range b.logs {
		if q.FromBlock != nil && l.BlockNumber < q.FromBlock.Uint64() {
			continue
		}
		if q.ToBlock != nil && l.BlockNumber > q.ToBlock.Uint64() {
			continue
		}
		if len(q.Addresses) > 0 && !containsAddress(q.Addresses, l.Address) {
			continue
		}
		if !matchTopics(q.Topics, l.Topics) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func containsAddress(list []common.Address, addr common.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}

func matchTopics(filter [][]common.Hash, topics []common.Hash) bool {
	if len(filter) > len(topics) {
		return false
	}
	for i, alternatives := range filter {
		if len(alternatives) == 0 {
			continue
		}
		match := false
		for _, t := range alternatives {
			if t == topics[i] {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// nextAddress derives a fresh contract address.
func (b *Backend) nextAddress(deployer common.Address, salt []byte) common.Address {
	b.deployed++
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], b.deployed)
	return common.BytesToAddress(crypto.Keccak256(deployer.Bytes(), salt, n[:])[12:])
}
