package utils_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abridged/discord-bot-template-sub000/internal/constants"
	"github.com/abridged/discord-bot-template-sub000/internal/models"
	"github.com/abridged/discord-bot-template-sub000/internal/utils"
)

const (
	testFactoryAddress = "0xFac7000000000000000000000000000000000001"
	testCreatorAddress = "0xAaAaAAaaaAAAAaaAAaaaaaAAaAaaaAaAaAAAaAaA"
	testEscrowAddress  = "0xE5c1000000000000000000000000000000000001"
)

func factoryABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(constants.EscrowFactoryABI))
	require.NoError(t, err)
	return parsed
}

// buildDeploymentLog assembles a raw EscrowDeployed log entry the way a
// provider would serialize it.
func buildDeploymentLog(t *testing.T, factory, creator, escrow, contractType string, fee int64, logIndex uint) models.LogEntry {
	t.Helper()
	parsed := factoryABI(t)
	event := parsed.Events[constants.EscrowDeployedEventName]

	data, err := event.Inputs.NonIndexed().Pack(
		contractType,
		common.HexToAddress(escrow),
		big.NewInt(fee),
	)
	require.NoError(t, err)

	return models.LogEntry{
		Address: factory,
		Topics: []string{
			event.ID.Hex(),
			common.BytesToHash(common.LeftPadBytes(common.HexToAddress(creator).Bytes(), 32)).Hex(),
		},
		Data:            hexutil.Encode(data),
		BlockNumber:     42,
		LogIndex:        logIndex,
		TransactionHash: "0xtx1",
	}
}

func TestDecodeDeploymentEvent(t *testing.T) {
	entry := buildDeploymentLog(t, testFactoryAddress, testCreatorAddress, testEscrowAddress, "quiz-escrow", 100, 3)

	event, err := utils.DecodeDeploymentEvent([]models.LogEntry{entry}, testFactoryAddress)
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress(testCreatorAddress).Hex(), event.CreatorAddress)
	assert.Equal(t, "quiz-escrow", event.ContractTypeTag)
	assert.Equal(t, common.HexToAddress(testEscrowAddress).Hex(), event.DeployedAddress)
	assert.Equal(t, big.NewInt(100), event.DeploymentFee)
	assert.Equal(t, uint64(42), event.BlockNumber)
	assert.Equal(t, "0xtx1", event.TransactionID)
	assert.Equal(t, uint(3), event.LogIndex)
}

func TestDecodeDeploymentEventPicksLowestLogIndex(t *testing.T) {
	second := buildDeploymentLog(t, testFactoryAddress, testCreatorAddress, "0xE5C1000000000000000000000000000000000002", "quiz-escrow", 100, 7)
	first := buildDeploymentLog(t, testFactoryAddress, testCreatorAddress, testEscrowAddress, "quiz-escrow", 100, 2)

	// Deliberately unordered input.
	event, err := utils.DecodeDeploymentEvent([]models.LogEntry{second, first}, testFactoryAddress)
	require.NoError(t, err)

	assert.Equal(t, uint(2), event.LogIndex)
	assert.Equal(t, common.HexToAddress(testEscrowAddress).Hex(), event.DeployedAddress)
}

func TestDecodeDeploymentEventIgnoresOtherContracts(t *testing.T) {
	entry := buildDeploymentLog(t, "0x1111111111111111111111111111111111111111", testCreatorAddress, testEscrowAddress, "quiz-escrow", 100, 0)

	_, err := utils.DecodeDeploymentEvent([]models.LogEntry{entry}, testFactoryAddress)
	assert.ErrorIs(t, err, utils.ErrNoDeploymentEvent)
}

func TestDecodeDeploymentEventFactoryAddressCaseInsensitive(t *testing.T) {
	entry := buildDeploymentLog(t, strings.ToLower(testFactoryAddress), testCreatorAddress, testEscrowAddress, "quiz-escrow", 100, 0)

	_, err := utils.DecodeDeploymentEvent([]models.LogEntry{entry}, strings.ToUpper(strings.TrimPrefix(testFactoryAddress, "0x")))
	// Comparison runs on the hex strings, so the 0x prefix must be present,
	// but letter case must not matter.
	assert.Error(t, err)

	event, err := utils.DecodeDeploymentEvent([]models.LogEntry{entry}, testFactoryAddress)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testEscrowAddress).Hex(), event.DeployedAddress)
}

func TestDecodeDeploymentEventEmptyLogs(t *testing.T) {
	_, err := utils.DecodeDeploymentEvent(nil, testFactoryAddress)
	assert.ErrorIs(t, err, utils.ErrNoDeploymentEvent)
}

func TestDecodeDeploymentEventSkipsMalformedEntries(t *testing.T) {
	malformed := models.LogEntry{
		Address: testFactoryAddress,
		Topics:  []string{factoryABI(t).Events[constants.EscrowDeployedEventName].ID.Hex(), "0x01"},
		Data:    "not-hex",
	}
	good := buildDeploymentLog(t, testFactoryAddress, testCreatorAddress, testEscrowAddress, "quiz-escrow", 100, 5)

	event, err := utils.DecodeDeploymentEvent([]models.LogEntry{malformed, good}, testFactoryAddress)
	require.NoError(t, err)
	assert.Equal(t, uint(5), event.LogIndex)
}

func TestValidateDeploymentEvent(t *testing.T) {
	job := &models.DeploymentJob{
		JobKey:         "q1",
		CreatorAddress: strings.ToLower(testCreatorAddress),
	}
	event := &models.DeploymentEvent{
		CreatorAddress:  common.HexToAddress(testCreatorAddress).Hex(),
		ContractTypeTag: "quiz-escrow",
		DeployedAddress: testEscrowAddress,
	}

	// Same address, different letter case.
	assert.NoError(t, utils.ValidateDeploymentEvent(event, job, "quiz-escrow", false))
}

func TestValidateDeploymentEventCreatorMismatch(t *testing.T) {
	job := &models.DeploymentJob{
		JobKey:         "q1",
		CreatorAddress: "0x2222222222222222222222222222222222222222",
	}
	event := &models.DeploymentEvent{
		CreatorAddress:  common.HexToAddress(testCreatorAddress).Hex(),
		ContractTypeTag: "quiz-escrow",
	}

	err := utils.ValidateDeploymentEvent(event, job, "quiz-escrow", false)
	require.Error(t, err)

	var validationErr *utils.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "creator", validationErr.Field)

	// The explicit opt-out waives only the creator check.
	assert.NoError(t, utils.ValidateDeploymentEvent(event, job, "quiz-escrow", true))
}

func TestValidateDeploymentEventContractTypeMismatch(t *testing.T) {
	job := &models.DeploymentJob{
		JobKey:         "q1",
		CreatorAddress: testCreatorAddress,
	}
	event := &models.DeploymentEvent{
		CreatorAddress:  testCreatorAddress,
		ContractTypeTag: "raffle-escrow",
	}

	err := utils.ValidateDeploymentEvent(event, job, "quiz-escrow", false)
	require.Error(t, err)

	var validationErr *utils.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "contract type", validationErr.Field)

	// Skipping creator validation must not waive the type check.
	assert.Error(t, utils.ValidateDeploymentEvent(event, job, "quiz-escrow", true))
}
