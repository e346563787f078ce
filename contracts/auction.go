// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contracts holds the ABIs of the auction and factory contracts
// and the helpers used to talk to them.
package contracts

// Auction method, event and error names.
const (
	MethodSubmitBid             = "submitBid"
	MethodCeremonyID            = "ceremonyId"
	MethodBiddingDeadline       = "biddingDeadline"
	MethodBidSubmissionDeadline = "bidSubmissionDeadline"
	MethodResultDeadline        = "resultDeadline"
	MethodMaxWinners            = "maxWinners"

	EventBidSubmitted = "BidSubmitted"

	ErrorInvalidProof = "InvalidProof"
)

// PublicSignalCount is the length of the pubSignals argument of submitBid.
const PublicSignalCount = 6

const auctionABI = `[
  {"type":"function","name":"submitBid","stateMutability":"payable","inputs":[
    {"name":"proofA","type":"uint256[2]"},
    {"name":"proofB","type":"uint256[2][2]"},
    {"name":"proofC","type":"uint256[2]"},
    {"name":"pubSignals","type":"uint256[6]"},
    {"name":"_bid","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"ceremonyId","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"biddingDeadline","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"bidSubmissionDeadline","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"resultDeadline","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"maxWinners","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"event","name":"BidSubmitted","anonymous":false,"inputs":[
    {"name":"bidder","type":"address","indexed":true},
    {"name":"bid","type":"uint256","indexed":false}]},
  {"type":"error","name":"InvalidProof","inputs":[]}
]`

// Auction is the parsed ABI of a sealed-bid auction contract.
var Auction = ParseABI(auctionABI)
