// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package submit is the server side of bid submission: it loads the
// proof for a confirmed burn, submits it to the auction contract from a
// service account and records the result by burn transaction.
package submit

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/luxfi/database"
	ethereum "github.com/luxfi/geth"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/burnbid/bidding"
	"github.com/luxfi/burnbid/chain"
	"github.com/luxfi/burnbid/groth16"
)

const (
	MessageSubmitted = "Bid submitted successfully to contract"
	MessageSimulated = "Simulated transaction (configure a private key for real contract interaction)"
	MessageDuplicate = "Bid already submitted for this burn"
)

var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInProgress       = errors.New("submission for this burn already in progress")
	ErrBurnNotFound     = errors.New("burn transaction not found")
	ErrBurnFailed       = errors.New("burn transaction failed")
	ErrProofUnavailable = errors.New("failed to load proof data")
)

// Request asks for a bid to be submitted for a burn. BidAmount is in wei.
type Request struct {
	ContractAddress string `json:"contractAddress"`
	BurnTxHash      string `json:"burnTxHash"`
	BidAmount       string `json:"bidAmount"`
	WalletAddress   string `json:"walletAddress"`
}

// ProofData echoes the submitted proof in contract coordinate order.
type ProofData struct {
	PiA           [2]string    `json:"pi_a"`
	PiB           [2][2]string `json:"pi_b"`
	PiC           [2]string    `json:"pi_c"`
	PublicSignals []string     `json:"publicSignals"`
}

type Response struct {
	Success         bool       `json:"success"`
	TransactionHash string     `json:"transactionHash,omitempty"`
	Error           string     `json:"error,omitempty"`
	Message         string     `json:"message,omitempty"`
	Simulated       bool       `json:"simulated,omitempty"`
	ProofData       *ProofData `json:"proofData,omitempty"`
}

// Config tunes a Service. Zero values select the defaults.
type Config struct {
	SubmitGas uint64
	Waiter    chain.WaiterConfig
	// BurnReceipts looks up burn transactions. When nil, burns are not
	// checked.
	BurnReceipts chain.ReceiptReader
	// Verifier, when set, checks proofs before they are sent.
	Verifier *groth16.Verifier
	// Simulated marks responses as coming from the in-memory chain.
	Simulated bool
	Now       func() time.Time
}

// mirror is implemented by chains that must be told about an auction
// before they can accept bids for it.
type mirror interface {
	MirrorAuction(ctx context.Context, addr common.Address) error
}

type Service struct {
	backend chain.Backend
	proofs  bidding.ProofSource
	store   *Store
	cfg     Config
	waiter  *chain.Waiter
	metrics *metrics
	log     log.Logger

	mu       sync.Mutex
	inflight map[common.Hash]struct{}
}

// NewService submits through backend, whose first account pays for the
// transactions. Metrics are registered with reg when it is not nil.
func NewService(backend chain.Backend, proofs bidding.ProofSource, store *Store, cfg Config, reg prometheus.Registerer, logger log.Logger) (*Service, error) {
	if cfg.SubmitGas == 0 {
		cfg.SubmitGas = bidding.DefaultSubmitGas
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	m, err := newMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return &Service{
		backend:  backend,
		proofs:   proofs,
		store:    store,
		cfg:      cfg,
		waiter:   chain.NewWaiter(backend, backend, cfg.Waiter, logger),
		metrics:  m,
		log:      logger,
		inflight: make(map[common.Hash]struct{}),
	}, nil
}

// Submit handles one request. Failures are reported in the response.
func (s *Service) Submit(ctx context.Context, req Request) Response {
	resp, err := s.submit(ctx, req)
	if err != nil {
		return Response{Error: err.Error(), Simulated: s.cfg.Simulated}
	}
	return resp
}

type parsedRequest struct {
	contract common.Address
	burnTx   common.Hash
	bid      *big.Int
	wallet   common.Address
}

func parseRequest(req Request) (parsedRequest, error) {
	if req.ContractAddress == "" || req.BurnTxHash == "" || req.BidAmount == "" || req.WalletAddress == "" {
		return parsedRequest{}, ErrMissingFields
	}
	if !common.IsHexAddress(req.ContractAddress) {
		return parsedRequest{}, fmt.Errorf("%w: contractAddress %q", ErrInvalidRequest, req.ContractAddress)
	}
	if !common.IsHexAddress(req.WalletAddress) {
		return parsedRequest{}, fmt.Errorf("%w: walletAddress %q", ErrInvalidRequest, req.WalletAddress)
	}
	hash := strings.TrimPrefix(req.BurnTxHash, "0x")
	if len(hash) != 2*common.HashLength || !isHex(hash) {
		return parsedRequest{}, fmt.Errorf("%w: burnTxHash %q", ErrInvalidRequest, req.BurnTxHash)
	}
	bid, ok := new(big.Int).SetString(req.BidAmount, 10)
	if !ok || bid.Sign() <= 0 {
		return parsedRequest{}, fmt.Errorf("%w: bidAmount %q must be a positive integer in wei", ErrInvalidRequest, req.BidAmount)
	}
	return parsedRequest{
		contract: common.HexToAddress(req.ContractAddress),
		burnTx:   common.HexToHash(hash),
		bid:      bid,
		wallet:   common.HexToAddress(req.WalletAddress),
	}, nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

func (s *Service) submit(ctx context.Context, raw Request) (Response, error) {
	started := s.cfg.Now()
	req, err := parseRequest(raw)
	if err != nil {
		s.metrics.submissions.WithLabelValues(outcomeInvalid).Inc()
		return Response{}, err
	}

	if !s.claim(req.burnTx) {
		return Response{}, ErrInProgress
	}
	defer s.release(req.burnTx)

	rec, err := s.store.Get(req.burnTx)
	switch {
	case err == nil && rec.Confirmed:
		s.metrics.submissions.WithLabelValues(outcomeDuplicate).Inc()
		return Response{
			Success:         true,
			TransactionHash: rec.TxHash.Hex(),
			Message:         MessageDuplicate,
			Simulated:       rec.Simulated,
		}, nil
	case err == nil:
		// Sent earlier but not confirmed: wait again, never resend.
		return s.confirm(ctx, rec, nil, started)
	case !errors.Is(err, database.ErrNotFound):
		s.metrics.submissions.WithLabelValues(outcomeFailed).Inc()
		return Response{}, err
	}

	if err := s.checkBurn(ctx, req.burnTx); err != nil {
		s.metrics.submissions.WithLabelValues(outcomeInvalid).Inc()
		return Response{}, err
	}

	proof, signals, err := s.loadProof(ctx, req.burnTx)
	if err != nil {
		s.metrics.submissions.WithLabelValues(outcomeInvalid).Inc()
		return Response{}, err
	}
	data, err := groth16.EncodeForSubmission(proof, signals.Slice(), req.bid)
	if err != nil {
		s.metrics.submissions.WithLabelValues(outcomeInvalid).Inc()
		return Response{}, err
	}

	if m, ok := s.backend.(mirror); ok {
		if err := m.MirrorAuction(ctx, req.contract); err != nil {
			s.metrics.submissions.WithLabelValues(outcomeFailed).Inc()
			return Response{}, err
		}
	}
	from, err := s.account(ctx)
	if err != nil {
		s.metrics.submissions.WithLabelValues(outcomeFailed).Inc()
		return Response{}, err
	}

	tx := chain.TxRequest{From: from, To: &req.contract, Data: data, Gas: s.cfg.SubmitGas}
	if err := chain.Simulate(ctx, s.backend, tx.CallMsg(), nil); err != nil {
		s.metrics.submissions.WithLabelValues(outcomeReverted).Inc()
		s.log.Warn("Submission would revert",
			log.String("burnTx", req.burnTx.Hex()),
			log.String("contract", req.contract.Hex()),
			log.String("error", err.Error()),
		)
		return Response{}, err
	}
	hash, err := s.backend.SendTransaction(ctx, tx)
	if err != nil {
		s.metrics.submissions.WithLabelValues(outcomeFailed).Inc()
		return Response{}, chain.AsTxError(common.Hash{}, err)
	}

	rec = &Record{
		BurnTx:      req.burnTx,
		Contract:    req.contract,
		Wallet:      req.wallet,
		Bid:         req.bid.String(),
		TxHash:      hash,
		Sender:      from,
		Input:       data,
		Simulated:   s.cfg.Simulated,
		SubmittedAt: s.cfg.Now().Unix(),
	}
	if err := s.store.Put(rec); err != nil {
		s.log.Error("Failed to record submission",
			log.String("burnTx", req.burnTx.Hex()),
			log.String("tx", hash.Hex()),
			log.String("error", err.Error()),
		)
	}
	s.log.Info("Submitted bid",
		log.String("burnTx", req.burnTx.Hex()),
		log.String("contract", req.contract.Hex()),
		log.String("tx", hash.Hex()),
	)
	return s.confirm(ctx, rec, proofData(proof, signals), started)
}

func (s *Service) confirm(ctx context.Context, rec *Record, pd *ProofData, started time.Time) (Response, error) {
	conf, err := s.waiter.Wait(ctx, rec.TxHash)
	switch {
	case err == nil:
	case errors.Is(err, chain.ErrTransactionFailed):
		// Reverted on chain; forget it so the bidder can retry.
		contract := rec.Contract
		tx := chain.TxRequest{From: rec.Sender, To: &contract, Data: rec.Input, Gas: s.cfg.SubmitGas}
		err = chain.ReplayRevert(ctx, s.backend, tx, conf, err)
		if delErr := s.store.Delete(rec.BurnTx); delErr != nil {
			s.log.Warn("Failed to drop reverted submission", log.String("error", delErr.Error()))
		}
		s.metrics.submissions.WithLabelValues(outcomeReverted).Inc()
		return Response{}, err
	default:
		s.metrics.submissions.WithLabelValues(outcomeFailed).Inc()
		return Response{}, fmt.Errorf("submission %s sent but not confirmed: %w", rec.TxHash.Hex(), err)
	}

	rec.Confirmed = true
	if err := s.store.Put(rec); err != nil {
		s.log.Error("Failed to record confirmation",
			log.String("tx", rec.TxHash.Hex()),
			log.String("error", err.Error()),
		)
	}
	s.metrics.submissions.WithLabelValues(outcomeSubmitted).Inc()
	s.metrics.duration.Observe(s.cfg.Now().Sub(started).Seconds())

	msg := MessageSubmitted
	if rec.Simulated {
		msg = MessageSimulated
	}
	return Response{
		Success:         true,
		TransactionHash: rec.TxHash.Hex(),
		Message:         msg,
		Simulated:       rec.Simulated,
		ProofData:       pd,
	}, nil
}

func (s *Service) claim(burnTx common.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[burnTx]; busy {
		return false
	}
	s.inflight[burnTx] = struct{}{}
	return true
}

func (s *Service) release(burnTx common.Hash) {
	s.mu.Lock()
	delete(s.inflight, burnTx)
	s.mu.Unlock()
}

func (s *Service) checkBurn(ctx context.Context, burnTx common.Hash) error {
	if s.cfg.BurnReceipts == nil {
		s.log.Warn("Burn not checked, no receipt source configured", log.String("burnTx", burnTx.Hex()))
		return nil
	}
	receipt, err := s.cfg.BurnReceipts.TransactionReceipt(ctx, burnTx)
	switch {
	case errors.Is(err, ethereum.NotFound), err == nil && receipt == nil:
		return fmt.Errorf("%w: %s", ErrBurnNotFound, burnTx.Hex())
	case err != nil:
		return fmt.Errorf("failed to fetch burn receipt: %w", err)
	case receipt.Status != types.ReceiptStatusSuccessful:
		return fmt.Errorf("%w: %s", ErrBurnFailed, burnTx.Hex())
	}
	return nil
}

func (s *Service) loadProof(ctx context.Context, burnTx common.Hash) (*groth16.Proof, groth16.PublicSignals, error) {
	proofJSON, publicJSON, err := s.proofs.LoadProof(ctx, burnTx)
	if err != nil {
		return nil, groth16.PublicSignals{}, fmt.Errorf("%w: %w", ErrProofUnavailable, err)
	}
	proof, err := groth16.ParseProof(proofJSON)
	if err != nil {
		return nil, groth16.PublicSignals{}, err
	}
	signals, err := groth16.ParsePublicSignals(publicJSON)
	if err != nil {
		return nil, groth16.PublicSignals{}, err
	}
	if s.cfg.Verifier != nil {
		if err := s.cfg.Verifier.Verify(proof, signals); err != nil {
			return nil, groth16.PublicSignals{}, err
		}
	}
	return proof, signals, nil
}

func (s *Service) account(ctx context.Context) (common.Address, error) {
	accounts, err := s.backend.Accounts(ctx)
	if err != nil {
		return common.Address{}, err
	}
	if len(accounts) == 0 {
		return common.Address{}, chain.ErrWalletNotConnected
	}
	return accounts[0], nil
}

// Records lists every recorded submission.
func (s *Service) Records() ([]Record, error) {
	return s.store.List()
}

func proofData(p *groth16.Proof, signals groth16.PublicSignals) *ProofData {
	b := groth16.ConvertG2(p.PiB)
	pd := &ProofData{
		PiA: [2]string{p.PiA[0].String(), p.PiA[1].String()},
		PiB: [2][2]string{
			{b[0][0].String(), b[0][1].String()},
			{b[1][0].String(), b[1][1].String()},
		},
		PiC:           [2]string{p.PiC[0].String(), p.PiC[1].String()},
		PublicSignals: make([]string, len(signals)),
	}
	for i, v := range signals {
		pd.PublicSignals[i] = v.String()
	}
	return pd
}
