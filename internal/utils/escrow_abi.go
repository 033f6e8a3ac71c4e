package utils

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/abridged/discord-bot-template-sub000/internal/constants"
	"github.com/abridged/discord-bot-template-sub000/internal/models"
)

// escrowFactoryABI is parsed once; the ABI JSON is a compile-time constant so
// a parse failure is a programming error.
var escrowFactoryABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(constants.EscrowFactoryABI))
	if err != nil {
		panic(fmt.Sprintf("invalid escrow factory ABI: %v", err))
	}
	return parsed
}()

// EncodeCreateEscrowCall packs the factory createEscrow call for a job and
// returns it as 0x-prefixed call data.
func EncodeCreateEscrowCall(job *models.DeploymentJob) (string, error) {
	creator, err := toAddress(job.CreatorAddress)
	if err != nil {
		return "", fmt.Errorf("creator address: %w", err)
	}
	recorder, err := toAddress(job.AuthorizedRecorderAddress)
	if err != nil {
		return "", fmt.Errorf("recorder address: %w", err)
	}

	correct, err := poolAmount(job.FundingSplit.CorrectPool, "correct")
	if err != nil {
		return "", err
	}
	incorrect, err := poolAmount(job.FundingSplit.IncorrectPool, "incorrect")
	if err != nil {
		return "", err
	}

	duration := new(big.Int).SetUint64(job.DurationSeconds)

	packed, err := escrowFactoryABI.Pack("createEscrow", creator, recorder, correct, incorrect, duration)
	if err != nil {
		return "", fmt.Errorf("failed to encode createEscrow call: %w", err)
	}

	return "0x" + hex.EncodeToString(packed), nil
}

func toAddress(value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid address: %s", value)
	}
	return common.HexToAddress(value), nil
}

func poolAmount(amount *big.Int, name string) (*big.Int, error) {
	if amount == nil {
		return nil, fmt.Errorf("%s pool amount is required", name)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%s pool amount must be non-negative, got %s", name, amount)
	}
	return amount, nil
}
