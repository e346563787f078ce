// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/burnbid/auction"
	"github.com/luxfi/burnbid/bidding"
	"github.com/luxfi/burnbid/chain"
	"github.com/luxfi/burnbid/commitment"
	"github.com/luxfi/burnbid/submit"
)

func runBurnAddress(args []string) error {
	fs := flag.NewFlagSet("burn-address", flag.ExitOnError)
	var (
		user     = fs.String("user", "", "Bidder address")
		auc      = fs.String("auction", "", "Auction contract address")
		ceremony = fs.String("ceremony", "", "Ceremony id (decimal)")
		beta     = fs.String("blinding", "", "Blinding factor; a fresh one is drawn if empty")
		value    = fs.String("value", "", "Burn value in wei for the bid-phase address")
	)
	fs.Parse(args)

	if !common.IsHexAddress(*user) || !common.IsHexAddress(*auc) {
		return fmt.Errorf("%w: --user and --auction must be addresses", commitment.ErrInvalidInput)
	}
	ceremonyID, ok := new(big.Int).SetString(*ceremony, 10)
	if !ok {
		return fmt.Errorf("%w: --ceremony %q", commitment.ErrInvalidInput, *ceremony)
	}
	b := commitment.Blinding(*beta)
	if b == "" {
		var err error
		if b, err = commitment.NewBlinding(); err != nil {
			return err
		}
	}
	p := commitment.NewParams(common.HexToAddress(*user), common.HexToAddress(*auc), ceremonyID, b)

	reg, err := commitment.RegistrationResult(p)
	if err != nil {
		return err
	}
	fmt.Printf("Auction ID:           %s\n", p.AuctionID)
	fmt.Printf("Blinding:             %s\n", b)
	fmt.Printf("Registration address: %s\n", reg.BurnAddress.Hex())
	fmt.Printf("Nullifier:            %s\n", reg.Nullifier.Hex())

	if *value != "" {
		v, ok := new(big.Int).SetString(*value, 10)
		if !ok {
			return fmt.Errorf("%w: --value %q", commitment.ErrInvalidInput, *value)
		}
		bid, err := commitment.BidResult(p.WithBid(v))
		if err != nil {
			return err
		}
		fmt.Printf("Bid burn address:     %s\n", bid.BurnAddress.Hex())
		if commitment.IsReservedSink(bid.BurnAddress) {
			fmt.Println("Warning: derived address is a reserved sink, draw another blinding")
		}
	}
	return nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	var cf configFlags
	cf.register(fs)
	fs.Parse(args)

	cfg, err := cf.load()
	if err != nil {
		return err
	}
	logger := cfg.Logger()
	ctx := context.Background()

	node, err := dialNode(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if node == nil {
		return errors.New("list needs rpc_url")
	}
	d, err := discovery(cfg, node, logger)
	if err != nil {
		return err
	}

	auctions := auction.NewReader(node, logger).ListDeployed(ctx, d)
	if len(auctions) == 0 {
		fmt.Println("No auctions found")
		return nil
	}
	now := time.Now()
	for _, c := range auctions {
		fmt.Printf("%s  %-16s  ceremony %s\n", c.Address.Hex(), c.StatusAt(now), ceremonyString(c))
	}
	return nil
}

func ceremonyString(c auction.Context) string {
	if c.CeremonyID == nil || c.CeremonyID.Sign() == 0 {
		return "unknown"
	}
	return c.CeremonyID.String()
}

func runBid(args []string) error {
	fs := flag.NewFlagSet("bid", flag.ExitOnError)
	var cf configFlags
	cf.register(fs)
	var (
		auc      = fs.String("auction", "", "Auction contract address")
		burn     = fs.String("burn", "", "Amount to burn in ETH")
		bid      = fs.String("bid", "", "Bid amount in ETH")
		proofDir = fs.String("proof-dir", "", "Directory holding proof.json and public.json")
	)
	fs.Parse(args)

	cfg, err := cf.load()
	if err != nil {
		return err
	}
	if *proofDir != "" {
		cfg.DataDir = *proofDir
	}
	if !common.IsHexAddress(*auc) {
		return fmt.Errorf("%w: --auction %q", commitment.ErrInvalidInput, *auc)
	}
	logger := cfg.Logger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	node, err := dialNode(ctx, cfg, logger)
	if err != nil {
		return err
	}
	w, err := wallet(ctx, cfg, node, logger)
	if err != nil {
		return err
	}
	if err := checkChainID(ctx, cfg, w); err != nil {
		return err
	}
	bcfg, err := cfg.BiddingConfig()
	if err != nil {
		return err
	}
	if bcfg.Verifier, err = verifier(cfg, logger); err != nil {
		return err
	}

	ac := auction.NewReader(node, logger).Context(ctx, common.HexToAddress(*auc))
	if !ac.Resolved() {
		return fmt.Errorf("no auction at %s", *auc)
	}
	s := bidding.NewSession(chain.NewBackend(w, node), ac, bcfg, logger)

	steps := []struct {
		name string
		run  func() error
	}{
		{"connect", func() error { return s.Connect(ctx) }},
		{"amounts", func() error { return s.SetAmounts(*burn, *bid) }},
		{"burn", func() error { return s.Burn(ctx) }},
		{"proof", func() error { return s.AcquireProof(ctx, submit.DirProofSource{Dir: cfg.DataDir}) }},
		{"submit", func() error { return s.Submit(ctx) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			printSnapshot(s.Snapshot())
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	printSnapshot(s.Snapshot())
	return nil
}

func printSnapshot(snap bidding.Snapshot) {
	fmt.Printf("State:        %s\n", snap.State)
	fmt.Printf("Auction:      %s (%s)\n", snap.Auction.AuctionID(), snap.Status)
	if snap.BurnAmount != nil {
		fmt.Printf("Total cost:   %s ETH\n", bidding.FormatEther(snap.TotalCost()))
	}
	if snap.BurnAddress != (common.Address{}) {
		fmt.Printf("Burn address: %s\n", snap.BurnAddress.Hex())
		fmt.Printf("Blinding:     %s\n", snap.Blinding)
	}
	if snap.BurnTx != (common.Hash{}) {
		fmt.Printf("Burn tx:      %s (%d confirmations)\n", snap.BurnTx.Hex(), snap.BurnConfirmations)
	}
	if snap.SubmitTx != (common.Hash{}) {
		fmt.Printf("Submit tx:    %s\n", snap.SubmitTx.Hex())
	}
	if snap.Bid != nil {
		fmt.Printf("Bid recorded: %s ETH from %s\n", bidding.FormatEther(snap.Bid.Amount), snap.Bid.Bidder.Hex())
	}
}
