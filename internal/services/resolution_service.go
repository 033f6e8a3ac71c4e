package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abridged/discord-bot-template-sub000/internal/constants"
	"github.com/abridged/discord-bot-template-sub000/internal/metrics"
	"github.com/abridged/discord-bot-template-sub000/internal/models"
	"github.com/abridged/discord-bot-template-sub000/internal/utils"
)

// LockOperationDeploy is the lock-table operation name for escrow
// deployments; the lock key is jobKey + ":" + this.
const LockOperationDeploy = "escrow-deploy"

// ResolutionConfig tunes the orchestrator. SkipCreatorCheck is an explicit
// opt-out for relay-executed intents whose on-chain sender differs from the
// logical creator; it defaults to validating.
type ResolutionConfig struct {
	FactoryAddress   string
	ContractTypeTag  string
	SkipCreatorCheck bool
	LogRetryAttempts int
	LogRetryDelay    time.Duration
}

// ResolutionService runs the whole deployment resolution pipeline for one
// job: lock gate, relay submission, settlement polling, provider log
// retrieval, event decoding and validation. It is the sole mutator of a
// job's state, which moves strictly forward to Resolved or Failed.
type ResolutionService interface {
	ResolveDeployment(ctx context.Context, job *models.DeploymentJob) (*models.DeploymentJob, error)
}

type resolutionService struct {
	locks      LockService
	submitter  SubmitterService
	settlement SettlementService
	providers  ProviderPool
	hooks      HookService
	cfg        ResolutionConfig
	logger     *logrus.Entry
}

// NewResolutionService wires the pipeline stages into one orchestrator.
func NewResolutionService(locks LockService, submitter SubmitterService, settlement SettlementService, providers ProviderPool, hooks HookService, cfg ResolutionConfig) ResolutionService {
	if cfg.ContractTypeTag == "" {
		cfg.ContractTypeTag = constants.DefaultContractTypeTag
	}
	if cfg.LogRetryAttempts <= 0 {
		cfg.LogRetryAttempts = constants.DefaultLogRetryAttempts
	}
	if cfg.LogRetryDelay <= 0 {
		cfg.LogRetryDelay = constants.DefaultLogRetryDelay
	}
	return &resolutionService{
		locks:      locks,
		submitter:  submitter,
		settlement: settlement,
		providers:  providers,
		hooks:      hooks,
		cfg:        cfg,
		logger:     logrus.WithField("component", "resolution"),
	}
}

// ResolveDeployment blocks across all retries and returns the job in a
// terminal state. On failure the returned error is always a
// *models.ResolutionError; callers never see raw transport errors.
//
// Cancellation stops the local resolution only. An operation already handed
// to the relay may still settle on-chain later.
func (s *resolutionService) ResolveDeployment(ctx context.Context, job *models.DeploymentJob) (*models.DeploymentJob, error) {
	start := time.Now()
	log := s.logger.WithField("job_key", job.JobKey)

	if !s.locks.TryAcquire(job.JobKey, LockOperationDeploy) {
		// The in-flight owner keeps the job; report contention without
		// touching state or firing hooks.
		log.Info("resolution already in flight")
		metrics.ObserveResolution(string(models.ErrorKindLockContention), time.Since(start))
		return job, models.NewResolutionError(models.ErrorKindLockContention,
			"another resolution is in flight for this job key", nil)
	}
	defer s.locks.Release(job.JobKey, LockOperationDeploy)

	job.State = models.JobStatePending

	// Submit through the relay.
	handle, err := s.submitter.Submit(ctx, job)
	if err != nil {
		if ctx.Err() != nil {
			return s.fail(job, log, start, models.ErrorKindCancelled,
				"resolution abandoned during submission", err, nil, 0)
		}
		return s.fail(job, log, start, models.ErrorKindSubmissionFailed,
			"relay rejected or errored on the deployment", err, nil, 0)
	}
	job.OperationHandle = handle
	job.State = models.JobStateSubmitted

	// Await settlement of the handle.
	job.State = models.JobStateAwaitingSettlement
	settled, err := s.settlement.Resolve(ctx, handle)
	job.AttemptCounters.SettlementPolls = settled.Attempts
	if err != nil {
		if ctx.Err() != nil {
			return s.fail(job, log, start, models.ErrorKindCancelled,
				"resolution abandoned while awaiting settlement", err, nil, settled.Attempts)
		}
		return s.fail(job, log, start, models.ErrorKindSettlementTimeout,
			fmt.Sprintf("handle did not settle within %d polls", settled.Attempts), err, nil, settled.Attempts)
	}
	job.SettledTransactionID = settled.TransactionID

	// Retrieve and decode the deployment event. The whole stage retries on a
	// fixed outer budget: a settled transaction's logs may not be indexed by
	// any provider yet, which is "not yet visible", not "genuinely absent".
	job.State = models.JobStateResolvingLogs

	var lastKind models.ErrorKind
	var lastCause error
	var providersTried []string

	for attempt := 1; attempt <= s.cfg.LogRetryAttempts; attempt++ {
		job.AttemptCounters.LogFetchRounds = attempt

		result, err := s.providers.FetchLogs(ctx, job.SettledTransactionID)
		job.AttemptCounters.ProviderCalls += result.Calls
		providersTried = mergeNames(providersTried, result.Tried)

		if err != nil {
			if ctx.Err() != nil {
				return s.fail(job, log, start, models.ErrorKindCancelled,
					"resolution abandoned while fetching logs", err, providersTried, attempt)
			}
			lastKind, lastCause = models.ErrorKindLogsUnavailable, err
		} else {
			event, decodeErr := utils.DecodeDeploymentEvent(result.Logs, s.cfg.FactoryAddress)
			if decodeErr != nil {
				// Some providers index the receipt before its logs, so an
				// absent event is retried on the same outer budget.
				lastKind, lastCause = models.ErrorKindEventNotFound, decodeErr
			} else if validateErr := utils.ValidateDeploymentEvent(event, job, s.cfg.ContractTypeTag, s.cfg.SkipCreatorCheck); validateErr != nil {
				// A mismatched event will not change on retry.
				return s.fail(job, log, start, models.ErrorKindValidationMismatch,
					validateErr.Error(), validateErr, providersTried, attempt)
			} else {
				job.EscrowAddress = event.DeployedAddress
				job.State = models.JobStateResolved
				log.WithFields(logrus.Fields{
					"escrow":   job.EscrowAddress,
					"tx":       job.SettledTransactionID,
					"provider": result.ProviderName,
				}).Info("deployment resolved")
				metrics.ObserveResolution("resolved", time.Since(start))
				s.finalize(job, log)
				return job, nil
			}
		}

		if attempt == s.cfg.LogRetryAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return s.fail(job, log, start, models.ErrorKindCancelled,
				"resolution abandoned while waiting to re-fetch logs", ctx.Err(), providersTried, attempt)
		case <-time.After(s.cfg.LogRetryDelay):
		}
	}

	detail := "logs were never available from any provider"
	if lastKind == models.ErrorKindEventNotFound {
		detail = "settled transaction contains no matching deployment event"
	}
	return s.fail(job, log, start, lastKind, detail, lastCause, providersTried, s.cfg.LogRetryAttempts)
}

func (s *resolutionService) fail(job *models.DeploymentJob, log *logrus.Entry, start time.Time, kind models.ErrorKind, detail string, cause error, providersTried []string, attempts int) (*models.DeploymentJob, error) {
	resErr := models.NewResolutionError(kind, detail, cause)
	resErr.OperationHandle = job.OperationHandle
	resErr.TransactionID = job.SettledTransactionID
	resErr.ProvidersTried = providersTried
	resErr.Attempts = attempts

	job.State = models.JobStateFailed
	job.LastError = resErr

	log.WithFields(logrus.Fields{
		"kind":     kind,
		"handle":   job.OperationHandle,
		"tx":       job.SettledTransactionID,
		"attempts": attempts,
	}).WithError(cause).Error("deployment resolution failed")
	metrics.ObserveResolution(string(kind), time.Since(start))

	s.finalize(job, log)
	return job, resErr
}

// finalize fires terminal-state hooks. A hook failure is logged but does not
// change the resolution outcome.
func (s *resolutionService) finalize(job *models.DeploymentJob, log *logrus.Entry) {
	if s.hooks == nil {
		return
	}
	if err := s.hooks.OnJobFinalized(job); err != nil {
		log.WithError(err).Error("finalization hook failed")
	}
}

func mergeNames(existing []string, incoming []string) []string {
	for _, name := range incoming {
		seen := false
		for _, have := range existing {
			if have == name {
				seen = true
				break
			}
		}
		if !seen {
			existing = append(existing, name)
		}
	}
	return existing
}
