package api

import (
	"errors"
	"math/big"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/abridged/discord-bot-template-sub000/internal/models"
	"github.com/abridged/discord-bot-template-sub000/internal/services"
)

var requestValidator = validator.New()

// CreateDeploymentRequest is the job source's deployment request. Pool
// amounts are decimal wei strings.
type CreateDeploymentRequest struct {
	JobKey          string `json:"job_key" validate:"required"`
	CreatorAddress  string `json:"creator_address" validate:"required"`
	RecorderAddress string `json:"recorder_address" validate:"required"`
	CorrectPool     string `json:"correct_pool" validate:"required"`
	IncorrectPool   string `json:"incorrect_pool" validate:"required"`
	DurationSeconds uint64 `json:"duration_seconds" validate:"required,gt=0"`
	// Wait makes the request block until the resolution terminates instead
	// of answering 202 immediately.
	Wait bool `json:"wait"`
}

// handleCreateDeployment starts (or, with wait=true, runs) a deployment
// resolution for a job.
func (s *APIServer) handleCreateDeployment(c *fiber.Ctx) error {
	var req CreateDeploymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := requestValidator.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	correct, ok := new(big.Int).SetString(req.CorrectPool, 10)
	if !ok || correct.Sign() < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid correct_pool amount"})
	}
	incorrect, ok := new(big.Int).SetString(req.IncorrectPool, 10)
	if !ok || incorrect.Sign() < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid incorrect_pool amount"})
	}

	// A job that already resolved must not be deployed again.
	if existing, err := s.records.GetRecordByJobKey(req.JobKey); err == nil &&
		existing.Status == models.DeploymentStatusResolved {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":          "job already resolved",
			"escrow_address": existing.EscrowAddress,
		})
	}

	job := &models.DeploymentJob{
		JobKey:                    req.JobKey,
		CreatorAddress:            req.CreatorAddress,
		AuthorizedRecorderAddress: req.RecorderAddress,
		FundingSplit: models.FundingSplit{
			CorrectPool:   correct,
			IncorrectPool: incorrect,
		},
		DurationSeconds: req.DurationSeconds,
		State:           models.JobStatePending,
	}

	if req.Wait {
		resolved, err := s.resolution.ResolveDeployment(c.UserContext(), job)
		if err != nil {
			return s.renderResolutionError(c, resolved, err)
		}
		return c.JSON(fiber.Map{
			"job_key":        resolved.JobKey,
			"state":          resolved.State,
			"escrow_address": resolved.EscrowAddress,
			"transaction_id": resolved.SettledTransactionID,
		})
	}

	// Claim the job key before answering so an immediate GET or duplicate
	// POST sees it as in progress even before the goroutine takes the lock.
	if s.locks.IsHeld(req.JobKey, services.LockOperationDeploy) || !s.markPending(req.JobKey) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "resolution already in flight"})
	}

	requestID := uuid.New().String()
	s.resolutions.Add(1)
	go func() {
		defer s.resolutions.Done()
		defer s.unmarkPending(job.JobKey)
		// Detached from the request: abandoning the HTTP call must not
		// cancel an in-flight deployment. Server shutdown cancels it via
		// resolutionsCtx instead.
		if _, err := s.resolution.ResolveDeployment(s.resolutionsCtx, job); err != nil {
			logrus.WithFields(logrus.Fields{
				"job_key":    job.JobKey,
				"request_id": requestID,
			}).WithError(err).Error("background resolution failed")
		}
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_key":    req.JobKey,
		"request_id": requestID,
		"state":      models.JobStatePending,
	})
}

// handleGetDeployment returns the persisted outcome for a job key, or an
// in-progress marker while a resolution holds the lock.
func (s *APIServer) handleGetDeployment(c *fiber.Ctx) error {
	jobKey := c.Params("job_key")

	record, err := s.records.GetRecordByJobKey(jobKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.locks.IsHeld(jobKey, services.LockOperationDeploy) || s.isPending(jobKey) {
				return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
					"job_key": jobKey,
					"state":   "in_progress",
				})
			}
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "deployment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load deployment"})
	}

	return c.JSON(record)
}

// handleListDeployments returns all persisted outcomes, optionally filtered
// by creator or status.
func (s *APIServer) handleListDeployments(c *fiber.Ctx) error {
	var (
		records []models.EscrowDeployment
		err     error
	)

	switch {
	case c.Query("creator") != "":
		records, err = s.records.ListRecordsByCreator(c.Query("creator"))
	case c.Query("status") != "":
		records, err = s.records.ListRecordsByStatus(models.DeploymentStatus(c.Query("status")))
	default:
		records, err = s.records.ListRecords()
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list deployments"})
	}

	return c.JSON(fiber.Map{"deployments": records})
}

func (s *APIServer) renderResolutionError(c *fiber.Ctx, job *models.DeploymentJob, err error) error {
	kind := models.KindOf(err)

	status := fiber.StatusBadGateway
	switch kind {
	case models.ErrorKindLockContention:
		status = fiber.StatusConflict
	case models.ErrorKindValidationMismatch, models.ErrorKindEventNotFound:
		status = fiber.StatusUnprocessableEntity
	case models.ErrorKindCancelled:
		status = fiber.StatusRequestTimeout
	}

	body := fiber.Map{
		"job_key": job.JobKey,
		"state":   job.State,
		"error":   err.Error(),
		"kind":    kind,
	}
	if job.LastError != nil {
		body["detail"] = job.LastError
	}
	return c.Status(status).JSON(body)
}
