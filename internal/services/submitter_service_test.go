package services_test

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abridged/discord-bot-template-sub000/internal/models"
	"github.com/abridged/discord-bot-template-sub000/internal/services"
	"github.com/abridged/discord-bot-template-sub000/internal/utils"
)

const factoryAddress = "0xFac7000000000000000000000000000000000001"

func newTestJob() *models.DeploymentJob {
	return &models.DeploymentJob{
		JobKey:                    "quiz-42",
		CreatorAddress:            "0xAaAaAAaaaAAAAaaAAaaaaaAAaAaaaAaAaAAAaAaA",
		AuthorizedRecorderAddress: "0xBbBB000000000000000000000000000000000002",
		FundingSplit: models.FundingSplit{
			CorrectPool:   big.NewInt(750),
			IncorrectPool: big.NewInt(250),
		},
		DurationSeconds: 3600,
	}
}

func TestSubmitComputesTotalValueAndCallData(t *testing.T) {
	relay := newMockRelay()
	job := newTestJob()

	submitter := services.NewSubmitterService(relay, factoryAddress)
	handle, err := submitter.Submit(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "h1", handle)

	// 750 + 250 pools plus the relay's quoted fee of 5.
	assert.Equal(t, big.NewInt(1005), relay.lastValue)
	assert.Equal(t, job.CreatorAddress, relay.lastIdentity)
	assert.Equal(t, factoryAddress, relay.lastTarget)

	wantCallData, err := utils.EncodeCreateEscrowCall(job)
	require.NoError(t, err)
	assert.Equal(t, wantCallData, relay.lastCallData)
}

func TestSubmitRetriesFeeQueryOnce(t *testing.T) {
	relay := newMockRelay()
	relay.feeFailures = 1

	submitter := services.NewSubmitterService(relay, factoryAddress)
	_, err := submitter.Submit(context.Background(), newTestJob())
	require.NoError(t, err)
	assert.Equal(t, 2, relay.feeCalls)
}

func TestSubmitFailsWhenFeeStaysUnavailable(t *testing.T) {
	relay := newMockRelay()
	relay.feeFailures = 2

	submitter := services.NewSubmitterService(relay, factoryAddress)
	_, err := submitter.Submit(context.Background(), newTestJob())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deployment fee")
	assert.Equal(t, 0, relay.executeCalls)
}

func TestSubmitSurfacesRelayError(t *testing.T) {
	relay := newMockRelay()
	relay.executeErr = fmt.Errorf("relay rejected the operation")

	submitter := services.NewSubmitterService(relay, factoryAddress)
	_, err := submitter.Submit(context.Background(), newTestJob())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay rejected")
}

func TestSubmitRejectsInvalidJob(t *testing.T) {
	relay := newMockRelay()
	job := newTestJob()
	job.CreatorAddress = ""

	submitter := services.NewSubmitterService(relay, factoryAddress)
	_, err := submitter.Submit(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid deployment job")
	assert.Equal(t, 0, relay.executeCalls)
}
