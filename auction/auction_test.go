// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auction

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/burnbid/chain"
	"github.com/luxfi/burnbid/contracts"
	"github.com/luxfi/burnbid/simulated"
)

var (
	deployer = common.HexToAddress("0x742d35Cc6634C0532925a3b8D4C9db96C4b4d8b6")
	now      = time.Unix(1_700_000_000, 0)
)

func testLogger() log.Logger {
	return log.NewTestLogger(log.InfoLevel)
}

func newBackend() *simulated.Backend {
	return simulated.New(testLogger(),
		simulated.WithAccounts(deployer),
		simulated.WithAutoCommit(true),
		simulated.WithClock(func() time.Time { return now }),
	)
}

func deploy(b *simulated.Backend, ceremony int64) common.Address {
	t := uint64(now.Unix())
	return b.DeployAuction(simulated.AuctionConfig{
		CeremonyID:            big.NewInt(ceremony),
		BiddingDeadline:       t + 3600,
		BidSubmissionDeadline: t + 7200,
		ResultDeadline:        t + 10800,
	})
}

func TestReaderContext(t *testing.T) {
	b := newBackend()
	addr := deploy(b, 7)

	c := NewReader(b, testLogger()).Context(context.Background(), addr)
	require.Equal(t, addr, c.Address)
	require.Equal(t, int64(7), c.CeremonyID.Int64())
	require.Equal(t, uint64(now.Unix())+3600, c.BiddingDeadline)
	require.Equal(t, uint64(now.Unix())+7200, c.BidSubmissionDeadline)
	require.Equal(t, uint64(now.Unix())+10800, c.ResultDeadline)
	require.True(t, c.Known())
	require.Equal(t, strings.ToLower(addr.Hex())+"_7", c.AuctionID())
}

func TestReaderPartialFailure(t *testing.T) {
	b := newBackend()
	addr := deploy(b, 3)
	b.FailCalls(addr, contracts.MethodResultDeadline, errors.New("execution reverted"))

	c := NewReader(b, testLogger()).Context(context.Background(), addr)
	require.Zero(t, c.ResultDeadline)
	require.Equal(t, int64(3), c.CeremonyID.Int64())
	require.NotZero(t, c.BiddingDeadline)
	require.NotZero(t, c.BidSubmissionDeadline)
	require.False(t, c.Known())

	require.Equal(t, StatusBiddingOpen, c.StatusAt(now))
	require.Equal(t, StatusSubmissionPhase, c.StatusAt(now.Add(time.Hour)))
	require.Equal(t, StatusUnknown, c.StatusAt(now.Add(2*time.Hour)))
}

func TestReaderZeroCeremony(t *testing.T) {
	b := newBackend()
	addr := deploy(b, 0)

	c := NewReader(b, testLogger()).Context(context.Background(), addr)
	require.Nil(t, c.CeremonyID)
	require.NotZero(t, c.BiddingDeadline)
}

func TestReaderList(t *testing.T) {
	b := newBackend()
	first := deploy(b, 1)
	second := deploy(b, 2)
	missing := common.HexToAddress("0x0086Cfc7902287bB858Bda110a6653Bc0Eee65C1")

	list := NewReader(b, testLogger()).List(context.Background(), []common.Address{second, missing, first})
	require.Len(t, list, 2)
	require.Equal(t, second, list[0].Address)
	require.Equal(t, first, list[1].Address)

	require.Empty(t, NewReader(b, testLogger()).List(context.Background(), nil))
}

func TestStatusAt(t *testing.T) {
	c := Context{
		CeremonyID:            big.NewInt(1),
		BiddingDeadline:       100,
		BidSubmissionDeadline: 200,
		ResultDeadline:        300,
	}
	tests := []struct {
		at   int64
		want Status
	}{
		{0, StatusBiddingOpen},
		{99, StatusBiddingOpen},
		{100, StatusSubmissionPhase},
		{199, StatusSubmissionPhase},
		{200, StatusResultsPhase},
		{299, StatusResultsPhase},
		{300, StatusEnded},
		{1_000, StatusEnded},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			require.Equal(t, tt.want, c.StatusAt(time.Unix(tt.at, 0)))
		})
	}

	require.Equal(t, StatusUnknown, Context{}.StatusAt(time.Unix(0, 0)))
	require.True(t, c.BiddingOpenAt(time.Unix(99, 0)))
	require.False(t, c.BiddingOpenAt(time.Unix(100, 0)))
	require.True(t, c.SubmissionOpenAt(time.Unix(199, 0)))
	require.False(t, c.SubmissionOpenAt(time.Unix(200, 0)))
	require.True(t, Context{}.BiddingOpenAt(time.Unix(1<<40, 0)))
}

func deployViaFactory(t *testing.T, b *simulated.Backend, factory common.Address, salt common.Hash, kind uint8, ceremony int64) {
	t.Helper()
	ts := now.Unix()
	data, err := contracts.Factory.Pack(contracts.MethodDeployAuctionContract,
		[32]byte(salt), kind, common.Address{},
		big.NewInt(ts+3600), big.NewInt(ts+7200), big.NewInt(ts+10800),
		big.NewInt(ceremony), big.NewInt(10),
	)
	require.NoError(t, err)
	_, err = b.SendTransaction(context.Background(), chain.TxRequest{From: deployer, To: &factory, Data: data})
	require.NoError(t, err)
}

func TestFactoryDiscovery(t *testing.T) {
	b := newBackend()
	factoryAddr := b.DeployFactory()
	saltA := common.HexToHash("0x01")
	saltB := common.HexToHash("0x02")
	saltVote := common.HexToHash("0x03")
	deployViaFactory(t, b, factoryAddr, saltA, contracts.CeremonyTypeAuction, 1)
	deployViaFactory(t, b, factoryAddr, saltB, contracts.CeremonyTypeAuction, 2)
	deployViaFactory(t, b, factoryAddr, saltVote, contracts.CeremonyTypeVote, 3)

	factory := NewFactory(factoryAddr, b, b, testLogger())
	require.Equal(t, factoryAddr, factory.Address())

	deployments, err := factory.Deployed(context.Background(), big.NewInt(0), nil)
	require.NoError(t, err)
	require.Len(t, deployments, 3)
	require.Equal(t, contracts.CeremonyTypeVote, deployments[2].CeremonyType)

	addrA, err := factory.AuctionBySalt(context.Background(), saltA)
	require.NoError(t, err)
	require.Equal(t, deployments[0].Address, addrA)

	_, err = factory.AuctionBySalt(context.Background(), common.HexToHash("0xff"))
	require.ErrorIs(t, err, ErrAuctionNotFound)

	direct := deploy(b, 9)
	kind := contracts.CeremonyTypeAuction
	d := Discovery{
		Known:        []common.Address{direct, addrA},
		Factory:      factory,
		Salts:        []common.Hash{saltB, common.HexToHash("0xff")},
		CeremonyType: &kind,
	}
	addrs := d.Addresses(context.Background(), testLogger())
	require.Equal(t, []common.Address{direct, addrA, deployments[1].Address}, addrs)

	list := NewReader(b, testLogger()).ListDeployed(context.Background(), d)
	require.Len(t, list, 3)
	require.Equal(t, int64(9), list[0].CeremonyID.Int64())
	require.Equal(t, int64(2), list[2].CeremonyID.Int64())
}

func TestFactoryWithoutLogs(t *testing.T) {
	b := newBackend()
	factory := NewFactory(b.DeployFactory(), b, nil, testLogger())
	_, err := factory.Deployed(context.Background(), nil, nil)
	require.Error(t, err)

	d := Discovery{Known: []common.Address{{}}, Factory: factory}
	require.Empty(t, d.Addresses(context.Background(), testLogger()))
}
