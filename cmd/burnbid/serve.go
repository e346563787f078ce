// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/luxfi/burnbid/auction"
	"github.com/luxfi/burnbid/chain"
	"github.com/luxfi/burnbid/simulated"
	"github.com/luxfi/burnbid/submit"
)

// simulatedOperator pays for submissions on the in-memory chain.
var simulatedOperator = common.HexToAddress("0x000000000000000000000000000000000000b1d0")

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var cf configFlags
	cf.register(fs)
	addr := fs.String("addr", "", "HTTP listen address")
	proofDir := fs.String("proof-dir", "", "Directory holding proof.json and public.json")
	fs.Parse(args)

	cfg, err := cf.load()
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *proofDir != "" {
		cfg.DataDir = *proofDir
	}
	logger := cfg.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	node, err := dialNode(ctx, cfg, logger)
	if err != nil {
		return err
	}
	v, err := verifier(cfg, logger)
	if err != nil {
		return err
	}

	svcCfg := submit.Config{
		SubmitGas: cfg.SubmitGas,
		Waiter:    cfg.WaiterConfig(),
		Verifier:  v,
	}
	var (
		backend chain.Backend
		caller  chain.Caller
	)
	if node != nil {
		svcCfg.BurnReceipts = node
		caller = node
	}
	if cfg.PrivateKey != "" || cfg.ProviderURL != "" {
		w, err := wallet(ctx, cfg, node, logger)
		if err != nil {
			return err
		}
		if err := checkChainID(ctx, cfg, w); err != nil {
			return err
		}
		backend = chain.NewBackend(w, node)
	} else {
		opts := []simulated.Option{
			simulated.WithAccounts(simulatedOperator),
			simulated.WithAutoCommit(true),
		}
		if cfg.ChainID != 0 {
			opts = append(opts, simulated.WithChainID(new(big.Int).SetUint64(cfg.ChainID)))
		}
		sim := simulated.New(logger, opts...)
		backend = sim
		svcCfg.Simulated = true
		if caller == nil {
			caller = sim
		}
		logger.Warn("No signing key configured, submissions go to the in-memory chain")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store := submit.NewStore(memdb.New())
	svc, err := submit.NewService(backend, submit.DirProofSource{Dir: cfg.DataDir}, store, svcCfg, reg, logger)
	if err != nil {
		return err
	}
	d, err := discovery(cfg, node, logger)
	if err != nil {
		return err
	}
	api := submit.NewAPI(svc, auction.NewReader(caller, logger), d, reg, logger)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      api.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ConfirmationTimeout + 30*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Submission service listening",
			log.String("addr", cfg.ListenAddr),
			log.String("proofDir", cfg.DataDir),
		)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Info("Shutting down submission service")
	cancel()
	return httpServer.Shutdown(shutdownCtx)
}
