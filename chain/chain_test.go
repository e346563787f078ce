// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"
	ethereum "github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/burnbid/contracts"
)

const (
	testKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"
)

var testAddr = common.HexToAddress("0x71562b71999873DB5b286dF957af199Ec94617F7")

func testLogger() log.Logger {
	return log.NewTestLogger(log.InfoLevel)
}

// scriptedReceipts returns the queued results in order, then repeats the
// last one.
type scriptedReceipts struct {
	mu      sync.Mutex
	results []receiptResult
	calls   int
}

type receiptResult struct {
	receipt *types.Receipt
	err     error
}

func (s *scriptedReceipts) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	r := s.results[i]
	return r.receipt, r.err
}

type fixedHead uint64

func (h fixedHead) BlockNumber(context.Context) (uint64, error) {
	return uint64(h), nil
}

func minedReceipt(status uint64, block int64) *types.Receipt {
	return &types.Receipt{Status: status, BlockNumber: big.NewInt(block)}
}

func fastWaiter(r ReceiptReader, head HeadReader, confirmations uint64) *Waiter {
	return NewWaiter(r, head, WaiterConfig{
		PollInterval:  time.Millisecond,
		Timeout:       200 * time.Millisecond,
		Confirmations: confirmations,
	}, testLogger())
}

func TestWaiterConfirmed(t *testing.T) {
	r := &scriptedReceipts{results: []receiptResult{
		{err: ethereum.NotFound},
		{err: errors.New("connection reset")},
		{},
		{receipt: minedReceipt(types.ReceiptStatusSuccessful, 10)},
	}}
	hash := common.HexToHash("0x01")

	c, err := fastWaiter(r, nil, 1).Wait(context.Background(), hash)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, c.Status)
	require.Equal(t, hash, c.Hash)
	require.Equal(t, uint64(1), c.Confirmations)
	require.Equal(t, 4, r.calls)
}

func TestWaiterConfirmationDepth(t *testing.T) {
	r := &scriptedReceipts{results: []receiptResult{{receipt: minedReceipt(types.ReceiptStatusSuccessful, 10)}}}

	c, err := fastWaiter(r, fixedHead(12), 3).Wait(context.Background(), common.Hash{})
	require.NoError(t, err)
	require.Equal(t, uint64(3), c.Confirmations)

	c, err = fastWaiter(r, fixedHead(11), 3).Wait(context.Background(), common.Hash{})
	require.ErrorIs(t, err, ErrConfirmationTimeout)
	require.Equal(t, StatusTimedOut, c.Status)
	require.Equal(t, uint64(2), c.Confirmations)
}

func TestWaiterFailed(t *testing.T) {
	r := &scriptedReceipts{results: []receiptResult{{receipt: minedReceipt(types.ReceiptStatusFailed, 5)}}}
	hash := common.HexToHash("0x02")

	c, err := fastWaiter(r, nil, 1).Wait(context.Background(), hash)
	require.ErrorIs(t, err, ErrTransactionFailed)
	require.Equal(t, StatusFailed, c.Status)

	var txErr *TxError
	require.ErrorAs(t, err, &txErr)
	require.Equal(t, hash, txErr.Hash)
}

func TestWaiterTimeout(t *testing.T) {
	r := &scriptedReceipts{results: []receiptResult{{err: ethereum.NotFound}}}

	c, err := fastWaiter(r, nil, 1).Wait(context.Background(), common.HexToHash("0x03"))
	require.ErrorIs(t, err, ErrConfirmationTimeout)
	require.Equal(t, StatusTimedOut, c.Status)
	require.Nil(t, c.Receipt)
}

func TestWaiterCancelled(t *testing.T) {
	r := &scriptedReceipts{results: []receiptResult{{err: ethereum.NotFound}}}
	w := NewWaiter(r, nil, WaiterConfig{PollInterval: time.Millisecond, Timeout: time.Hour}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := w.Wait(ctx, common.Hash{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaiterDefaults(t *testing.T) {
	w := NewWaiter(nil, nil, WaiterConfig{}, testLogger())
	require.Equal(t, DefaultPollInterval, w.cfg.PollInterval)
	require.Equal(t, DefaultConfirmationTimeout, w.cfg.Timeout)
	require.Equal(t, uint64(1), w.cfg.Confirmations)
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "confirmed", StatusConfirmed.String())
	require.Equal(t, "timed out", StatusTimedOut.String())
	require.Equal(t, "status(9)", Status(9).String())
}

// revertError mimics the JSON-RPC error a node returns for a revert.
type revertError struct {
	data string
}

func (e *revertError) Error() string          { return "execution reverted" }
func (e *revertError) ErrorCode() int         { return 3 }
func (e *revertError) ErrorData() interface{} { return e.data }

func TestAsTxError(t *testing.T) {
	payload, err := contracts.Auction.PackError(contracts.ErrorInvalidProof)
	require.NoError(t, err)

	wrapped := fmt.Errorf("send: %w", &revertError{data: fmt.Sprintf("0x%x", payload)})
	data, ok := RevertData(wrapped)
	require.True(t, ok)
	require.Equal(t, payload, data)

	txErr := AsTxError(common.HexToHash("0x04"), wrapped)
	require.Equal(t, "InvalidProof", txErr.Reason)
	require.Equal(t, payload, txErr.Data)
	require.ErrorIs(t, txErr, ErrTransactionFailed)
	require.Contains(t, txErr.Error(), "InvalidProof")

	plain := AsTxError(common.Hash{}, errors.New("insufficient funds"))
	require.Equal(t, "insufficient funds", plain.Reason)
	require.Equal(t, "transaction rejected: insufficient funds", plain.Error())

	require.Same(t, txErr, AsTxError(common.Hash{}, fmt.Errorf("again: %w", txErr)))
}

type callerFunc func(ethereum.CallMsg) ([]byte, error)

func (f callerFunc) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	return f(msg)
}

func TestSimulate(t *testing.T) {
	ok := callerFunc(func(ethereum.CallMsg) ([]byte, error) { return nil, nil })
	require.NoError(t, Simulate(context.Background(), ok, ethereum.CallMsg{}, nil))

	reverted := callerFunc(func(ethereum.CallMsg) ([]byte, error) {
		return nil, &revertError{data: "0x09bde339"}
	})
	err := Simulate(context.Background(), reverted, ethereum.CallMsg{}, nil)
	var txErr *TxError
	require.ErrorAs(t, err, &txErr)
	require.Equal(t, "InvalidProof", txErr.Reason)

	down := callerFunc(func(ethereum.CallMsg) ([]byte, error) { return nil, errors.New("dial tcp: refused") })
	err = Simulate(context.Background(), down, ethereum.CallMsg{}, nil)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrTransactionFailed)
}

type blockCaller struct {
	at  *big.Int
	err error
}

func (c *blockCaller) CallContract(_ context.Context, _ ethereum.CallMsg, block *big.Int) ([]byte, error) {
	c.at = block
	return nil, c.err
}

func TestReplayRevert(t *testing.T) {
	hash := common.HexToHash("0xabc")
	fallback := &TxError{Hash: hash, Reason: "execution reverted"}
	conf := &Confirmation{
		Hash:    hash,
		Status:  StatusFailed,
		Receipt: &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(42)},
	}

	c := &blockCaller{err: &revertError{data: "0x09bde339"}}
	err := ReplayRevert(context.Background(), c, TxRequest{}, conf, fallback)
	var txErr *TxError
	require.ErrorAs(t, err, &txErr)
	require.Equal(t, "InvalidProof", txErr.Reason)
	require.Equal(t, hash, txErr.Hash)
	require.ErrorIs(t, err, ErrTransactionFailed)
	require.Equal(t, big.NewInt(41), c.at)

	require.Equal(t, fallback, ReplayRevert(context.Background(), &blockCaller{}, TxRequest{}, conf, fallback))
	require.Equal(t, fallback, ReplayRevert(context.Background(), c, TxRequest{}, nil, fallback))
}

type fakeSigningBackend struct {
	scriptedReceipts
	chainID  *big.Int
	nonce    uint64
	estimate uint64
	sent     []*types.Transaction
	sendErr  error
}

func (b *fakeSigningBackend) ChainID(context.Context) (*big.Int, error) { return b.chainID, nil }
func (b *fakeSigningBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return b.nonce, nil
}
func (b *fakeSigningBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(25_000_000_000), nil
}
func (b *fakeSigningBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return b.estimate, nil
}
func (b *fakeSigningBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	return nil
}

func TestKeyWallet(t *testing.T) {
	backend := &fakeSigningBackend{chainID: big.NewInt(96369), nonce: 7, estimate: 21_000}
	w, err := NewKeyWallet(backend, "0x"+testKey, testLogger())
	require.NoError(t, err)
	require.Equal(t, testAddr, w.Address())

	accounts, err := w.RequestAccounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []common.Address{testAddr}, accounts)

	to := common.HexToAddress("0x22e9ea746e355c5b5f6786cdb5d9c5345d58b0fb")
	hash, err := w.SendTransaction(context.Background(), TxRequest{
		To:    &to,
		Value: uint256.NewInt(1_000_000_000_000_000),
		Gas:   0x9a42,
	})
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)

	tx := backend.sent[0]
	require.Equal(t, hash, tx.Hash())
	require.Equal(t, uint64(7), tx.Nonce())
	require.Equal(t, uint64(0x9a42), tx.Gas())
	require.Equal(t, to, *tx.To())
	require.Equal(t, int64(1_000_000_000_000_000), tx.Value().Int64())

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(96369)), tx)
	require.NoError(t, err)
	require.Equal(t, testAddr, sender)

	// Gas is estimated when unset.
	_, err = w.SendTransaction(context.Background(), TxRequest{From: testAddr, To: &to})
	require.NoError(t, err)
	require.Equal(t, uint64(21_000), backend.sent[1].Gas())

	_, err = w.SendTransaction(context.Background(), TxRequest{From: to, To: &to})
	require.ErrorIs(t, err, ErrUnknownAccount)

	backend.sendErr = errors.New("insufficient funds for gas * price + value")
	_, err = w.SendTransaction(context.Background(), TxRequest{To: &to, Gas: 21_000})
	require.ErrorIs(t, err, ErrTransactionFailed)

	_, err = NewKeyWallet(backend, "zz", testLogger())
	require.Error(t, err)
}

// fakeRPC answers JSON-RPC calls from canned results.
type fakeRPC struct {
	results map[string]interface{}
	errs    map[string]error
	calls   []string
	params  [][]interface{}
}

func (f *fakeRPC) CallContext(_ context.Context, result interface{}, method string, args ...interface{}) error {
	f.calls = append(f.calls, method)
	f.params = append(f.params, args)
	if err := f.errs[method]; err != nil {
		return err
	}
	raw, err := json.Marshal(f.results[method])
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}

func TestProviderWalletAccounts(t *testing.T) {
	rpc := &fakeRPC{
		results: map[string]interface{}{"eth_accounts": []string{testAddr.Hex()}},
		errs:    map[string]error{"eth_requestAccounts": errors.New("method not found")},
	}
	w := NewProviderWallet(rpc, testLogger())

	accounts, err := w.RequestAccounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []common.Address{testAddr}, accounts)
	require.Equal(t, []string{"eth_requestAccounts", "eth_accounts"}, rpc.calls)

	empty := NewProviderWallet(&fakeRPC{results: map[string]interface{}{"eth_requestAccounts": []string{}}}, testLogger())
	_, err = empty.RequestAccounts(context.Background())
	require.ErrorIs(t, err, ErrWalletNotConnected)

	down := NewProviderWallet(&fakeRPC{errs: map[string]error{
		"eth_requestAccounts": errors.New("rejected"),
		"eth_accounts":        errors.New("rejected"),
	}}, testLogger())
	_, err = down.RequestAccounts(context.Background())
	require.ErrorIs(t, err, ErrWalletNotConnected)
}

func TestProviderWalletSend(t *testing.T) {
	hash := common.HexToHash("0xabcdef")
	rpc := &fakeRPC{results: map[string]interface{}{
		"eth_sendTransaction": hash.Hex(),
		"eth_chainId":         "0x1",
	}}
	w := NewProviderWallet(rpc, testLogger())

	to := common.HexToAddress("0x22e9ea746e355c5b5f6786cdb5d9c5345d58b0fb")
	got, err := w.SendTransaction(context.Background(), TxRequest{
		From:  testAddr,
		To:    &to,
		Value: uint256.NewInt(1_000_000_000_000_000),
		Gas:   0x9a42,
	})
	require.NoError(t, err)
	require.Equal(t, hash, got)

	raw, err := json.Marshal(rpc.params[0][0])
	require.NoError(t, err)
	require.JSONEq(t, `{
		"from": "0x71562b71999873db5b286df957af199ec94617f7",
		"to": "0x22e9ea746e355c5b5f6786cdb5d9c5345d58b0fb",
		"value": "0x38d7ea4c68000",
		"gas": "0x9a42"
	}`, string(raw))

	id, err := w.ChainID(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), id.Int64())

	rejected := NewProviderWallet(&fakeRPC{errs: map[string]error{
		"eth_sendTransaction": errors.New("User denied transaction signature"),
	}}, testLogger())
	_, err = rejected.SendTransaction(context.Background(), TxRequest{From: testAddr, To: &to})
	require.ErrorIs(t, err, ErrTransactionFailed)
}

func TestProviderWalletReceipt(t *testing.T) {
	w := NewProviderWallet(&fakeRPC{results: map[string]interface{}{"eth_getTransactionReceipt": nil}}, testLogger())
	_, err := w.TransactionReceipt(context.Background(), common.Hash{})
	require.ErrorIs(t, err, ethereum.NotFound)

	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      common.HexToHash("0x05"),
		BlockNumber: big.NewInt(9),
		Logs:        []*types.Log{},
	}
	w = NewProviderWallet(&fakeRPC{results: map[string]interface{}{"eth_getTransactionReceipt": receipt}}, testLogger())
	got, err := w.TransactionReceipt(context.Background(), receipt.TxHash)
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, got.Status)
	require.Equal(t, receipt.TxHash, got.TxHash)
}
