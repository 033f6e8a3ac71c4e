package api_test

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abridged/discord-bot-template-sub000/internal/api"
	"github.com/abridged/discord-bot-template-sub000/internal/hooks"
	"github.com/abridged/discord-bot-template-sub000/internal/models"
	"github.com/abridged/discord-bot-template-sub000/internal/relay"
	"github.com/abridged/discord-bot-template-sub000/internal/services"
)

// stuckRelay accepts the submission and then never settles, parking the
// pipeline in its settlement wait.
type stuckRelay struct{}

func (stuckRelay) ExecuteAs(ctx context.Context, identity, target, callData string, value *big.Int) (string, error) {
	return "h1", nil
}

func (stuckRelay) GetSettlementStatus(ctx context.Context, handle string) (*relay.SettlementStatus, error) {
	return &relay.SettlementStatus{Settled: false}, nil
}

func (stuckRelay) GetCurrentDeploymentFee(ctx context.Context) (*big.Int, error) {
	return big.NewInt(5), nil
}

func TestShutdownCancelsInFlightResolutions(t *testing.T) {
	const factory = "0xFac7000000000000000000000000000000000001"

	db, err := services.NewSqliteDBService(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	records := services.NewEscrowRecordService(db.GetDB())
	locks := services.NewLockService(5 * time.Minute)
	submitter := services.NewSubmitterService(stuckRelay{}, factory)
	// An hour between polls parks the resolution; only cancellation wakes it.
	settlement := services.NewSettlementService(stuckRelay{}, time.Hour, 30)
	pool, err := services.NewProviderPool([]models.ProviderConfig{
		{Name: "primary", EndpointURI: "http://127.0.0.1:1", Priority: 0},
	}, time.Second)
	require.NoError(t, err)

	hookService := services.NewHookService()
	require.NoError(t, hookService.AddHook(hooks.NewEscrowRecordHook(records, "quiz-escrow")))

	resolution := services.NewResolutionService(locks, submitter, settlement, pool, hookService, services.ResolutionConfig{
		FactoryAddress:  factory,
		ContractTypeTag: "quiz-escrow",
	})
	server := api.NewAPIServer(resolution, records, locks, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/deployments", createBody(t, false))
	req.Header.Set("Content-Type", "application/json")
	resp, err := server.App().Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// Wait until the background resolution owns the job and is parked in the
	// settlement wait.
	require.Eventually(t, func() bool {
		return locks.IsHeld("quiz-42", services.LockOperationDeploy)
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, server.Shutdown())

	// Shutdown returns only after the resolution terminated as cancelled and
	// its outcome record was written.
	record, err := records.GetRecordByJobKey("quiz-42")
	require.NoError(t, err)
	assert.Equal(t, models.DeploymentStatusFailed, record.Status)
	assert.Equal(t, string(models.ErrorKindCancelled), record.ErrorKind)
	assert.Equal(t, "h1", record.OperationHandle)
	assert.False(t, locks.IsHeld("quiz-42", services.LockOperationDeploy))
}
