package constants

import "time"

// EscrowFactoryABI is the subset of the factory contract interface this
// pipeline touches: the payable createEscrow call and the EscrowDeployed
// event it emits for every deployment.
const EscrowFactoryABI = `[
	{
		"type": "function",
		"name": "createEscrow",
		"stateMutability": "payable",
		"inputs": [
			{"name": "creator", "type": "address"},
			{"name": "recorder", "type": "address"},
			{"name": "correctPool", "type": "uint256"},
			{"name": "incorrectPool", "type": "uint256"},
			{"name": "duration", "type": "uint256"}
		],
		"outputs": [
			{"name": "escrow", "type": "address"}
		]
	},
	{
		"type": "event",
		"name": "EscrowDeployed",
		"anonymous": false,
		"inputs": [
			{"name": "creator", "type": "address", "indexed": true},
			{"name": "contractType", "type": "string", "indexed": false},
			{"name": "escrow", "type": "address", "indexed": false},
			{"name": "fee", "type": "uint256", "indexed": false}
		]
	}
]`

// EscrowDeployedEventName is the event the decoder scans transaction logs for.
const EscrowDeployedEventName = "EscrowDeployed"

// DefaultContractTypeTag is the contract-type tag the factory emits for quiz
// escrows.
const DefaultContractTypeTag = "quiz-escrow"

// Retry budgets and intervals. The settlement poll budget bounds how long we
// wait for the relay to settle a handle; the log retry budget covers the gap
// between a settled transaction and its logs becoming visible on a provider.
const (
	DefaultSettlementPollInterval = 5 * time.Second
	DefaultSettlementMaxAttempts  = 30

	DefaultLogRetryAttempts = 3
	DefaultLogRetryDelay    = 5 * time.Second

	DefaultLockTTL = 5 * time.Minute

	DefaultRelayTimeout    = 15 * time.Second
	DefaultProviderTimeout = 10 * time.Second
)
