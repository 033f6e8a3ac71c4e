package services

import (
	"context"
	"fmt"
	"math/big"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/abridged/discord-bot-template-sub000/internal/models"
	"github.com/abridged/discord-bot-template-sub000/internal/relay"
	"github.com/abridged/discord-bot-template-sub000/internal/utils"
)

// SubmitterService builds the escrow deployment payload and submits it
// through the relay. It performs no retries and no duplicate suppression of
// its own; the lock manager gates duplicate submissions and the orchestrator
// owns retry policy.
type SubmitterService interface {
	Submit(ctx context.Context, job *models.DeploymentJob) (string, error)
}

type submitterService struct {
	relay          relay.RelayClient
	factoryAddress string
	validator      *validator.Validate
	logger         *logrus.Entry
}

// NewSubmitterService creates a SubmitterService targeting the given escrow
// factory contract.
func NewSubmitterService(relayClient relay.RelayClient, factoryAddress string) SubmitterService {
	return &submitterService{
		relay:          relayClient,
		factoryAddress: factoryAddress,
		validator:      validator.New(),
		logger:         logrus.WithField("component", "submitter"),
	}
}

// Submit queries the current deployment fee, computes the total value
// (correct pool + incorrect pool + fee), encodes the createEscrow call and
// executes it through the relay as the job's creator identity. The returned
// operation handle is passed through verbatim.
func (s *submitterService) Submit(ctx context.Context, job *models.DeploymentJob) (string, error) {
	if err := s.validator.Struct(job); err != nil {
		return "", fmt.Errorf("invalid deployment job: %w", err)
	}

	fee, err := s.currentFee(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to query deployment fee: %w", err)
	}

	totalValue := new(big.Int).Add(job.FundingSplit.Total(), fee)

	callData, err := utils.EncodeCreateEscrowCall(job)
	if err != nil {
		return "", fmt.Errorf("failed to encode deployment payload: %w", err)
	}

	handle, err := s.relay.ExecuteAs(ctx, job.CreatorAddress, s.factoryAddress, callData, totalValue)
	if err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"job_key": job.JobKey,
		"handle":  handle,
		"value":   totalValue.String(),
		"fee":     fee.String(),
	}).Info("deployment submitted")
	return handle, nil
}

// currentFee reads the relay's deployment fee. The read has no side effect,
// so one transparent retry absorbs transient relay hiccups.
func (s *submitterService) currentFee(ctx context.Context) (*big.Int, error) {
	fee, err := s.relay.GetCurrentDeploymentFee(ctx)
	if err == nil {
		return fee, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	s.logger.WithError(err).Debug("fee query failed, retrying once")
	return s.relay.GetCurrentDeploymentFee(ctx)
}
