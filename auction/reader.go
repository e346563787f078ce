// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auction

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/burnbid/chain"
	"github.com/luxfi/burnbid/contracts"
)

// DefaultConcurrency bounds the number of auctions read at once by List.
const DefaultConcurrency = 8

// Reader reads auction contracts. Reads never fail as a whole: a field
// that cannot be read is left at zero and logged.
type Reader struct {
	caller      chain.Caller
	concurrency int
	log         log.Logger
}

func NewReader(caller chain.Caller, logger log.Logger) *Reader {
	return &Reader{caller: caller, concurrency: DefaultConcurrency, log: logger}
}

// Context reads the ceremony id and the three deadlines of an auction
// concurrently.
func (r *Reader) Context(ctx context.Context, addr common.Address) Context {
	methods := []string{
		contracts.MethodCeremonyID,
		contracts.MethodBiddingDeadline,
		contracts.MethodBidSubmissionDeadline,
		contracts.MethodResultDeadline,
	}
	values := make([]*big.Int, len(methods))

	var g errgroup.Group
	for i, method := range methods {
		i, method := i, method
		g.Go(func() error {
			values[i] = r.readUint(ctx, addr, method)
			return nil
		})
	}
	_ = g.Wait()

	c := Context{
		Address:               addr,
		BiddingDeadline:       r.deadline(addr, methods[1], values[1]),
		BidSubmissionDeadline: r.deadline(addr, methods[2], values[2]),
		ResultDeadline:        r.deadline(addr, methods[3], values[3]),
	}
	if values[0].Sign() > 0 {
		c.CeremonyID = values[0]
	}
	return c
}

// List reads every address concurrently and returns the auctions that
// resolved, in input order.
func (r *Reader) List(ctx context.Context, addrs []common.Address) []Context {
	results := make([]Context, len(addrs))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, addr := range addrs {
		i, addr := i, addr
		g.Go(func() error {
			results[i] = r.Context(ctx, addr)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Context, 0, len(results))
	for _, c := range results {
		if !c.Resolved() {
			r.log.Warn("Skipping unreadable auction", log.String("address", c.Address.Hex()))
			continue
		}
		out = append(out, c)
	}
	return out
}

// readUint calls a no-argument uint256 view. Failures yield zero.
func (r *Reader) readUint(ctx context.Context, addr common.Address, method string) *big.Int {
	v, err := r.callUint(ctx, addr, method)
	if err != nil {
		r.log.Warn("Failed to read auction field",
			log.String("address", addr.Hex()),
			log.String("method", method),
			log.String("error", err.Error()),
		)
		return new(big.Int)
	}
	return v
}

func (r *Reader) callUint(ctx context.Context, addr common.Address, method string) (*big.Int, error) {
	data, err := contracts.Auction.Pack(method)
	if err != nil {
		return nil, err
	}
	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	values, err := contracts.Auction.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", method, err)
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result type %T", method, values[0])
	}
	return v, nil
}

func (r *Reader) deadline(addr common.Address, method string, v *big.Int) uint64 {
	if !v.IsUint64() {
		r.log.Warn("Auction deadline out of range",
			log.String("address", addr.Hex()),
			log.String("method", method),
			log.String("value", v.String()),
		)
		return 0
	}
	return v.Uint64()
}
