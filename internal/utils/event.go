package utils

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/abridged/discord-bot-template-sub000/internal/constants"
	"github.com/abridged/discord-bot-template-sub000/internal/models"
)

// ErrNoDeploymentEvent is returned by DecodeDeploymentEvent when the logs
// contain no matching escrow deployment event.
var ErrNoDeploymentEvent = errors.New("no escrow deployment event in logs")

// ValidationError describes a mismatch between a decoded deployment event and
// the job it is being attributed to.
type ValidationError struct {
	Field string
	Want  string
	Got   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("deployment event %s mismatch: want %s, got %s", e.Field, e.Want, e.Got)
}

// DecodeDeploymentEvent scans logs for an EscrowDeployed event emitted by the
// factory and returns the match with the lowest log index. Entries that do
// not parse cleanly are skipped rather than failing the scan. Transactions
// carrying multiple deployments are out of scope; only the first event is
// returned.
func DecodeDeploymentEvent(logs []models.LogEntry, factoryAddress string) (*models.DeploymentEvent, error) {
	ordered := make([]models.LogEntry, len(logs))
	copy(ordered, logs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].LogIndex < ordered[j].LogIndex
	})

	eventABI := escrowFactoryABI.Events[constants.EscrowDeployedEventName]

	for _, entry := range ordered {
		if !strings.EqualFold(entry.Address, factoryAddress) {
			continue
		}
		// Topic 0 is the event signature, topic 1 the indexed creator.
		if len(entry.Topics) < 2 {
			continue
		}
		if common.HexToHash(entry.Topics[0]) != eventABI.ID {
			continue
		}

		data, err := hexutil.Decode(entry.Data)
		if err != nil {
			continue
		}
		unpacked, err := eventABI.Inputs.NonIndexed().Unpack(data)
		if err != nil || len(unpacked) != 3 {
			continue
		}

		contractType, ok := unpacked[0].(string)
		if !ok {
			continue
		}
		deployed, ok := unpacked[1].(common.Address)
		if !ok {
			continue
		}
		fee, ok := unpacked[2].(*big.Int)
		if !ok {
			continue
		}

		creator := common.HexToAddress(entry.Topics[1])

		return &models.DeploymentEvent{
			CreatorAddress:  creator.Hex(),
			ContractTypeTag: contractType,
			DeployedAddress: deployed.Hex(),
			DeploymentFee:   fee,
			BlockNumber:     entry.BlockNumber,
			TransactionID:   entry.TransactionHash,
			LogIndex:        entry.LogIndex,
		}, nil
	}

	return nil, ErrNoDeploymentEvent
}

// ValidateDeploymentEvent checks a decoded event against the job it resolves.
// The creator comparison is case-insensitive. skipCreatorCheck is an explicit
// opt-out for relay-executed intents where the on-chain sender differs from
// the logical creator; the contract-type check always applies.
func ValidateDeploymentEvent(event *models.DeploymentEvent, job *models.DeploymentJob, expectedTag string, skipCreatorCheck bool) error {
	if event.ContractTypeTag != expectedTag {
		return &ValidationError{Field: "contract type", Want: expectedTag, Got: event.ContractTypeTag}
	}
	if !skipCreatorCheck && !event.MatchesCreator(job.CreatorAddress) {
		return &ValidationError{Field: "creator", Want: job.CreatorAddress, Got: event.CreatorAddress}
	}
	return nil
}
