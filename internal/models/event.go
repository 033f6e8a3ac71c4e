package models

import (
	"math/big"
	"strings"
)

// DeploymentEvent is the decoded escrow factory event recording a contract
// deployment. Instances are produced by the event decoder and never mutated.
type DeploymentEvent struct {
	CreatorAddress  string   `json:"creator_address"`
	ContractTypeTag string   `json:"contract_type_tag"`
	DeployedAddress string   `json:"deployed_address"`
	DeploymentFee   *big.Int `json:"deployment_fee"`
	BlockNumber     uint64   `json:"block_number"`
	TransactionID   string   `json:"transaction_id"`
	LogIndex        uint     `json:"log_index"`
}

// MatchesCreator compares the event creator against addr. Chain addresses
// are not case-sensitive.
func (e *DeploymentEvent) MatchesCreator(addr string) bool {
	return strings.EqualFold(e.CreatorAddress, addr)
}
