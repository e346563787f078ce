// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	ethereum "github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"
)

const (
	DefaultPollInterval        = 2 * time.Second
	DefaultConfirmationTimeout = 5 * time.Minute
)

// Status is the outcome of waiting for a transaction.
type Status uint8

const (
	StatusPending Status = iota
	StatusConfirmed
	StatusFailed
	StatusTimedOut
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	case StatusTimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Confirmation is what a Waiter observed about a transaction.
type Confirmation struct {
	Hash          common.Hash
	Status        Status
	Receipt       *types.Receipt
	Confirmations uint64
}

// WaiterConfig tunes receipt polling. Zero values select the defaults.
type WaiterConfig struct {
	PollInterval time.Duration
	Timeout      time.Duration
	// Confirmations is the number of blocks, counting the inclusion
	// block, required before a transaction is reported confirmed.
	Confirmations uint64
}

// Waiter polls for receipts until a transaction is mined, fails, or the
// timeout elapses.
type Waiter struct {
	receipts ReceiptReader
	head     HeadReader
	cfg      WaiterConfig
	log      log.Logger
}

// NewWaiter returns a Waiter. head may be nil, in which case a mined
// transaction counts as one confirmation.
func NewWaiter(receipts ReceiptReader, head HeadReader, cfg WaiterConfig, logger log.Logger) *Waiter {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfirmationTimeout
	}
	if cfg.Confirmations == 0 {
		cfg.Confirmations = 1
	}
	return &Waiter{receipts: receipts, head: head, cfg: cfg, log: logger}
}

// Wait blocks until hash is confirmed, fails, or times out.
//
// A reverted transaction returns StatusFailed and a *TxError. A timeout
// returns StatusTimedOut and ErrConfirmationTimeout; the transaction may
// still be mined later, so callers should wait again rather than resend.
// Cancelling ctx returns ctx.Err().
func (w *Waiter) Wait(ctx context.Context, hash common.Hash) (*Confirmation, error) {
	deadline := time.NewTimer(w.cfg.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		c, done := w.poll(ctx, hash)
		if done {
			if c.Status == StatusFailed {
				return c, &TxError{Hash: hash, Reason: "execution reverted"}
			}
			return c, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			w.log.Warn("Gave up waiting for transaction",
				log.String("hash", hash.Hex()),
				log.String("timeout", w.cfg.Timeout.String()),
			)
			return &Confirmation{Hash: hash, Status: StatusTimedOut, Receipt: c.Receipt, Confirmations: c.Confirmations},
				fmt.Errorf("%w: %s not confirmed after %s", ErrConfirmationTimeout, hash.Hex(), w.cfg.Timeout)
		case <-ticker.C:
		}
	}
}

// poll checks the receipt once. Transient RPC errors are logged and
// treated as pending.
func (w *Waiter) poll(ctx context.Context, hash common.Hash) (*Confirmation, bool) {
	c := &Confirmation{Hash: hash, Status: StatusPending}

	receipt, err := w.receipts.TransactionReceipt(ctx, hash)
	switch {
	case errors.Is(err, ethereum.NotFound), err == nil && receipt == nil:
		return c, false
	case err != nil:
		if ctx.Err() == nil {
			w.log.Warn("Failed to fetch receipt",
				log.String("hash", hash.Hex()),
				log.String("error", err.Error()),
			)
		}
		return c, false
	}

	c.Receipt = receipt
	c.Confirmations = w.confirmations(ctx, receipt)
	if receipt.Status == types.ReceiptStatusFailed {
		c.Status = StatusFailed
		return c, true
	}
	if c.Confirmations < w.cfg.Confirmations {
		return c, false
	}
	c.Status = StatusConfirmed
	w.log.Debug("Transaction confirmed",
		log.String("hash", hash.Hex()),
		log.Int("confirmations", int(c.Confirmations)),
	)
	return c, true
}

func (w *Waiter) confirmations(ctx context.Context, receipt *types.Receipt) uint64 {
	if w.head == nil || receipt.BlockNumber == nil {
		return 1
	}
	head, err := w.head.BlockNumber(ctx)
	if err != nil {
		return 1
	}
	mined := receipt.BlockNumber.Uint64()
	if head < mined {
		return 1
	}
	return head - mined + 1
}
