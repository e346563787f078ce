// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contracts

import "github.com/luxfi/geth/common"

// Factory method, event and error names.
const (
	MethodContracts             = "contracts"
	MethodDeployAuctionContract = "deployAuctionContract"

	EventDeployed = "Deployed"

	ErrorSaltAlreadyUsed = "SaltAlreadyUsed"
)

// Ceremony types accepted by deployAuctionContract.
const (
	CeremonyTypeAuction uint8 = 0
	CeremonyTypeVote    uint8 = 1
)

const factoryABI = `[
  {"type":"function","name":"contracts","stateMutability":"view","inputs":[{"name":"salt","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"deployAuctionContract","stateMutability":"nonpayable","inputs":[
    {"name":"salt","type":"bytes32"},
    {"name":"ceremonyType","type":"uint8"},
    {"name":"verifier","type":"address"},
    {"name":"biddingDeadline","type":"uint256"},
    {"name":"submissionDeadline","type":"uint256"},
    {"name":"resultDeadline","type":"uint256"},
    {"name":"ceremonyId","type":"uint256"},
    {"name":"maxWinners","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"event","name":"Deployed","anonymous":false,"inputs":[
    {"name":"contractAddress","type":"address","indexed":false},
    {"name":"votingType","type":"uint8","indexed":false}]},
  {"type":"error","name":"SaltAlreadyUsed","inputs":[]}
]`

// Factory is the parsed ABI of the auction factory.
var Factory = ParseABI(factoryABI)

// DefaultFactoryAddress is the factory deployed on the reference network.
var DefaultFactoryAddress = common.HexToAddress("0xac2aec9290bf46c4dc0f5f4933ef33c11d4803b2")

// KnownAuctions are auctions deployed by DefaultFactoryAddress before
// Deployed events were indexed.
var KnownAuctions = []common.Address{
	common.HexToAddress("0x2671ae802180Fb8969A2A319Bc869EE5a4E2B5bF"),
	common.HexToAddress("0xB7b475ED68bCf3e30578aF49277CB78aE5Ca8C5e"),
	common.HexToAddress("0x291842511Ac92e2Dc31d82073919Db8f00be3964"),
	common.HexToAddress("0x6C16C0a19815591C880C026eC8239166CF313A30"),
	common.HexToAddress("0x88b0118882244B344A087c11c2fcD79F51f9a18A"),
	common.HexToAddress("0x0086Cfc7902287bB858Bda110a6653Bc0Eee65C1"),
	common.HexToAddress("0x4F27ff1319c4F840dcA65C20c6D428824AfE061C"),
}
