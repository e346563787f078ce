// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bidding drives one bidder through an auction: connect a wallet,
// burn funds at the derived burn address, attach the Groth16 proof of
// that burn and submit the bid to the auction contract.
package bidding

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"

	"github.com/luxfi/burnbid/auction"
	"github.com/luxfi/burnbid/chain"
	"github.com/luxfi/burnbid/commitment"
	"github.com/luxfi/burnbid/contracts"
	"github.com/luxfi/burnbid/groth16"
)

const (
	// DefaultBurnGas covers a plain value transfer with headroom.
	DefaultBurnGas uint64 = 0x9a42
	// DefaultSubmitGas covers submitBid including the pairing check.
	DefaultSubmitGas uint64 = 500_000
)

var (
	ErrInvalidInput    = commitment.ErrInvalidInput
	ErrWrongState      = errors.New("operation not allowed in current state")
	ErrPhaseClosed     = errors.New("auction phase closed")
	ErrBurnUnconfirmed = errors.New("burn transaction not confirmed")
	ErrBusy            = errors.New("another operation is in progress")
)

// ProofSource produces the snarkjs proof.json and public.json for a
// confirmed burn.
type ProofSource interface {
	LoadProof(ctx context.Context, burnTx common.Hash) (proof, public []byte, err error)
}

// Config tunes a Session. Zero values select the defaults.
type Config struct {
	MinBid    *uint256.Int
	BurnGas   uint64
	SubmitGas uint64
	// SkipBidValue sends submitBid without msg.value. By default the
	// bid amount is attached.
	SkipBidValue bool
	Waiter       chain.WaiterConfig
	// Verifier, when set, checks proofs locally before submission.
	Verifier *groth16.Verifier
	Now      func() time.Time
	// NewBlinding draws the blinding factor of the burn address.
	NewBlinding func() (commitment.Blinding, error)
}

func (c Config) withDefaults() Config {
	if c.MinBid == nil {
		c.MinBid = MinBid
	}
	if c.BurnGas == 0 {
		c.BurnGas = DefaultBurnGas
	}
	if c.SubmitGas == 0 {
		c.SubmitGas = DefaultSubmitGas
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewBlinding == nil {
		c.NewBlinding = commitment.NewBlinding
	}
	return c
}

// BidEvent is the BidSubmitted log of a completed submission.
type BidEvent struct {
	Bidder common.Address
	Amount *uint256.Int
}

// Session is a single bidder's pass through one auction. Operations are
// serialized; calling one while another is running returns ErrBusy.
type Session struct {
	backend chain.Backend
	auction auction.Context
	cfg     Config
	waiter  *chain.Waiter
	log     log.Logger

	mu   sync.Mutex
	busy bool

	state             State
	account           common.Address
	burnAmount        *uint256.Int
	bidAmount         *uint256.Int
	blinding          commitment.Blinding
	burnAddress       common.Address
	burnTx            common.Hash
	burnConfirmations uint64
	proof             *groth16.Proof
	signals           groth16.PublicSignals
	submitTx          common.Hash
	receipt           *types.Receipt
	bid               *BidEvent
	lastErr           error
}

// NewSession starts a session in StateConnect for the auction described
// by ac.
func NewSession(backend chain.Backend, ac auction.Context, cfg Config, logger log.Logger) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		backend: backend,
		auction: ac,
		cfg:     cfg,
		waiter:  chain.NewWaiter(backend, backend, cfg.Waiter, logger),
		log:     logger,
	}
}

// begin claims the session for one operation if it is in one of the
// allowed states.
func (s *Session) begin(allowed ...State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	for _, st := range allowed {
		if s.state == st {
			s.busy = true
			return nil
		}
	}
	return fmt.Errorf("%w: in %s", ErrWrongState, s.state)
}

// beginProof is begin for the proof steps. A session in StateSubmit may
// take a new proof only while no submission is pending.
func (s *Session) beginProof() (State, error) {
	if err := s.begin(StateProof, StateSubmit); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmit && s.submitTx != (common.Hash{}) {
		s.busy = false
		return 0, fmt.Errorf("%w: submission %s is still pending", ErrWrongState, s.submitTx.Hex())
	}
	return s.state, nil
}

func (s *Session) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// update applies f under the session lock.
func (s *Session) update(f func()) {
	s.mu.Lock()
	f()
	s.mu.Unlock()
}

// fail records err, moves to next and returns err.
func (s *Session) fail(next State, err error) error {
	s.update(func() {
		s.state = next
		s.lastErr = err
	})
	return err
}

// Connect asks the wallet for its accounts and selects the first one.
func (s *Session) Connect(ctx context.Context) error {
	if err := s.begin(StateConnect); err != nil {
		return err
	}
	defer s.end()

	accounts, err := s.backend.RequestAccounts(ctx)
	switch {
	case err != nil && !errors.Is(err, chain.ErrWalletNotConnected):
		return s.fail(StateConnect, fmt.Errorf("%w: %w", chain.ErrWalletNotConnected, err))
	case err != nil:
		return s.fail(StateConnect, err)
	case len(accounts) == 0:
		return s.fail(StateConnect, chain.ErrWalletNotConnected)
	}

	s.update(func() {
		s.account = accounts[0]
		s.state = StateInput
		s.lastErr = nil
	})
	s.log.Info("Wallet connected",
		log.String("account", accounts[0].Hex()),
		log.String("auction", s.auction.Address.Hex()),
	)
	return nil
}

// SetAmounts sets the burn and bid amounts, given in ether. The bid must
// be at least the configured minimum and the burn must be positive. A
// rejected call clears any amounts set before, so Burn cannot spend them.
func (s *Session) SetAmounts(burn, bid string) error {
	if err := s.begin(StateInput); err != nil {
		return err
	}
	defer s.end()
	s.update(func() {
		s.burnAmount = nil
		s.bidAmount = nil
	})

	burnWei, err := ParseEther(burn)
	if err != nil {
		return s.fail(StateInput, fmt.Errorf("burn amount: %w", err))
	}
	if burnWei.IsZero() {
		return s.fail(StateInput, fmt.Errorf("%w: burn amount must be positive", ErrInvalidInput))
	}
	bidWei, err := ParseEther(bid)
	if err != nil {
		return s.fail(StateInput, fmt.Errorf("bid amount: %w", err))
	}
	if bidWei.Lt(s.cfg.MinBid) {
		return s.fail(StateInput, fmt.Errorf("%w: bid %s ETH is below the minimum of %s ETH",
			ErrInvalidInput, FormatEther(bidWei), FormatEther(s.cfg.MinBid)))
	}

	s.update(func() {
		s.burnAmount = burnWei
		s.bidAmount = bidWei
		s.lastErr = nil
	})
	return nil
}

// Burn derives a fresh burn address, sends the burn amount to it and
// waits for confirmation. A rejected or reverted burn returns the session
// to StateInput. A confirmation timeout leaves it in StateBurn so that
// AwaitBurn can resume waiting; the burn is never sent twice.
func (s *Session) Burn(ctx context.Context) error {
	if err := s.begin(StateInput); err != nil {
		return err
	}
	defer s.end()

	s.mu.Lock()
	account, burnAmount, bidAmount := s.account, s.burnAmount, s.bidAmount
	s.mu.Unlock()
	if burnAmount == nil || bidAmount == nil {
		return s.fail(StateInput, fmt.Errorf("%w: amounts not set", ErrInvalidInput))
	}
	if !s.auction.BiddingOpenAt(s.cfg.Now()) {
		return s.fail(StateInput, fmt.Errorf("%w: bidding ended at %s", ErrPhaseClosed, unixTime(s.auction.BiddingDeadline)))
	}

	beta, err := s.cfg.NewBlinding()
	if err != nil {
		return s.fail(StateInput, fmt.Errorf("failed to draw blinding factor: %w", err))
	}
	params := commitment.NewParams(account, s.auction.Address, s.auction.CeremonyID, beta).WithBid(burnAmount.ToBig())
	burnAddress, err := commitment.BidBurnAddress(params)
	if err != nil {
		return s.fail(StateInput, err)
	}
	if commitment.IsReservedSink(burnAddress) {
		return s.fail(StateInput, fmt.Errorf("%w: derived burn address %s is reserved", ErrInvalidInput, burnAddress.Hex()))
	}

	s.update(func() {
		s.state = StateBurn
		s.blinding = beta
		s.burnAddress = burnAddress
		s.lastErr = nil
	})
	s.log.Info("Sending burn",
		log.String("auction", s.auction.AuctionID()),
		log.String("burnAddress", burnAddress.Hex()),
		log.String("amount", burnAmount.Dec()),
	)

	hash, err := s.backend.SendTransaction(ctx, chain.TxRequest{
		From:  account,
		To:    &burnAddress,
		Value: burnAmount.Clone(),
		Gas:   s.cfg.BurnGas,
	})
	if err != nil {
		return s.fail(StateInput, fmt.Errorf("burn transaction: %w", chain.AsTxError(common.Hash{}, err)))
	}
	s.update(func() { s.burnTx = hash })
	return s.awaitBurn(ctx, hash)
}

// AwaitBurn resumes waiting for a burn that timed out.
func (s *Session) AwaitBurn(ctx context.Context) error {
	if err := s.begin(StateBurn); err != nil {
		return err
	}
	defer s.end()

	s.mu.Lock()
	hash := s.burnTx
	s.mu.Unlock()
	if hash == (common.Hash{}) {
		return fmt.Errorf("%w: no burn transaction to wait for", ErrWrongState)
	}
	return s.awaitBurn(ctx, hash)
}

func (s *Session) awaitBurn(ctx context.Context, hash common.Hash) error {
	c, err := s.waiter.Wait(ctx, hash)
	switch {
	case err == nil:
		s.update(func() {
			s.burnConfirmations = c.Confirmations
			s.state = StateProof
			s.lastErr = nil
		})
		s.log.Info("Burn confirmed",
			log.String("hash", hash.Hex()),
			log.Int("confirmations", int(c.Confirmations)),
		)
		return nil
	case c != nil && c.Status == chain.StatusFailed:
		s.update(func() {
			s.burnTx = common.Hash{}
			s.burnAddress = common.Address{}
			s.blinding = ""
		})
		return s.fail(StateInput, err)
	default:
		s.log.Warn("Burn not confirmed yet",
			log.String("hash", hash.Hex()),
			log.String("error", err.Error()),
		)
		return s.fail(StateBurn, err)
	}
}

// AttachProof parses and, when a verifier is configured, checks the
// snarkjs proof of the burn. It also replaces the proof of a session in
// StateSubmit whose submission reverted. On failure the session keeps
// its state.
func (s *Session) AttachProof(ctx context.Context, proofJSON, publicJSON []byte) error {
	st, err := s.beginProof()
	if err != nil {
		return err
	}
	defer s.end()
	return s.attachProof(ctx, st, proofJSON, publicJSON)
}

// AcquireProof fetches the proof of the confirmed burn from src and
// attaches it.
func (s *Session) AcquireProof(ctx context.Context, src ProofSource) error {
	st, err := s.beginProof()
	if err != nil {
		return err
	}
	defer s.end()

	if err := s.requireConfirmedBurn(); err != nil {
		return s.fail(st, err)
	}
	s.mu.Lock()
	burnTx := s.burnTx
	s.mu.Unlock()
	proofJSON, publicJSON, err := src.LoadProof(ctx, burnTx)
	if err != nil {
		return s.fail(st, fmt.Errorf("failed to load proof: %w", err))
	}
	return s.attachProof(ctx, st, proofJSON, publicJSON)
}

func (s *Session) requireConfirmedBurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.burnConfirmations < 1 {
		return ErrBurnUnconfirmed
	}
	return nil
}

func (s *Session) attachProof(ctx context.Context, st State, proofJSON, publicJSON []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.requireConfirmedBurn(); err != nil {
		return s.fail(st, err)
	}
	proof, err := groth16.ParseProof(proofJSON)
	if err != nil {
		return s.fail(st, err)
	}
	signals, err := groth16.ParsePublicSignals(publicJSON)
	if err != nil {
		return s.fail(st, err)
	}
	if s.cfg.Verifier != nil {
		if err := s.cfg.Verifier.Verify(proof, signals); err != nil {
			return s.fail(st, err)
		}
	}

	s.update(func() {
		s.proof = proof
		s.signals = signals
		s.state = StateSubmit
		s.lastErr = nil
	})
	return nil
}

// Submit sends submitBid with the attached proof and waits for it. The
// call is simulated first and a revert is surfaced without sending. Any
// failure leaves the session in StateSubmit with the revert reason.
func (s *Session) Submit(ctx context.Context) error {
	if err := s.begin(StateSubmit); err != nil {
		return err
	}
	defer s.end()

	s.mu.Lock()
	pending := s.submitTx
	s.mu.Unlock()
	if pending != (common.Hash{}) {
		return fmt.Errorf("%w: submission %s is still pending, use AwaitSubmission", ErrWrongState, pending.Hex())
	}
	if !s.auction.SubmissionOpenAt(s.cfg.Now()) {
		return s.fail(StateSubmit, fmt.Errorf("%w: bid submission ended at %s", ErrPhaseClosed, unixTime(s.auction.BidSubmissionDeadline)))
	}

	req, err := s.submitRequest()
	if err != nil {
		return s.fail(StateSubmit, err)
	}
	if err := chain.Simulate(ctx, s.backend, req.CallMsg(), nil); err != nil {
		s.log.Warn("Bid submission would revert",
			log.String("auction", s.auction.Address.Hex()),
			log.String("error", err.Error()),
		)
		return s.fail(StateSubmit, err)
	}

	hash, err := s.backend.SendTransaction(ctx, req)
	if err != nil {
		return s.fail(StateSubmit, chain.AsTxError(common.Hash{}, err))
	}
	s.update(func() { s.submitTx = hash })
	s.log.Info("Bid submitted",
		log.String("hash", hash.Hex()),
		log.String("auction", s.auction.Address.Hex()),
	)
	return s.awaitSubmission(ctx, hash, req)
}

// AwaitSubmission resumes waiting for a submission that timed out.
func (s *Session) AwaitSubmission(ctx context.Context) error {
	if err := s.begin(StateSubmit); err != nil {
		return err
	}
	defer s.end()

	s.mu.Lock()
	hash := s.submitTx
	s.mu.Unlock()
	if hash == (common.Hash{}) {
		return fmt.Errorf("%w: no submission to wait for", ErrWrongState)
	}
	req, err := s.submitRequest()
	if err != nil {
		return s.fail(StateSubmit, err)
	}
	return s.awaitSubmission(ctx, hash, req)
}

func (s *Session) submitRequest() (chain.TxRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := groth16.EncodeForSubmission(s.proof, s.signals.Slice(), s.bidAmount.ToBig())
	if err != nil {
		return chain.TxRequest{}, err
	}
	to := s.auction.Address
	req := chain.TxRequest{
		From: s.account,
		To:   &to,
		Data: data,
		Gas:  s.cfg.SubmitGas,
	}
	if !s.cfg.SkipBidValue {
		req.Value = s.bidAmount.Clone()
	}
	return req, nil
}

func (s *Session) awaitSubmission(ctx context.Context, hash common.Hash, req chain.TxRequest) error {
	c, err := s.waiter.Wait(ctx, hash)
	switch {
	case err == nil:
		event := bidEvent(c.Receipt, s.auction.Address)
		s.update(func() {
			s.receipt = c.Receipt
			s.bid = event
			s.state = StateComplete
			s.lastErr = nil
		})
		s.log.Info("Bid confirmed",
			log.String("hash", hash.Hex()),
			log.Int("confirmations", int(c.Confirmations)),
		)
		return nil
	case c != nil && c.Status == chain.StatusFailed:
		err = chain.ReplayRevert(ctx, s.backend, req, c, err)
		s.update(func() {
			s.submitTx = common.Hash{}
			s.receipt = c.Receipt
		})
		return s.fail(StateSubmit, err)
	default:
		return s.fail(StateSubmit, err)
	}
}

func bidEvent(receipt *types.Receipt, auctionAddr common.Address) *BidEvent {
	if receipt == nil {
		return nil
	}
	for _, l := range receipt.Logs {
		if l.Address != auctionAddr {
			continue
		}
		fields, err := contracts.Auction.UnpackLog(contracts.EventBidSubmitted, l)
		if err != nil {
			continue
		}
		bidder, _ := fields["bidder"].(common.Address)
		amount, _ := fields["bid"].(*big.Int)
		if amount == nil {
			amount = new(big.Int)
		}
		return &BidEvent{Bidder: bidder, Amount: uint256.MustFromBig(amount)}
	}
	return nil
}

func unixTime(ts uint64) string {
	return time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
}
