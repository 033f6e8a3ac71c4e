package hooks

import (
	"github.com/abridged/discord-bot-template-sub000/internal/models"
	"github.com/abridged/discord-bot-template-sub000/internal/services"
)

type EscrowRecordHook struct {
	records      services.EscrowRecordService
	contractType string
}

// CanHandle implements Hook.
func (h *EscrowRecordHook) CanHandle(state models.JobState) bool {
	return state == models.JobStateResolved || state == models.JobStateFailed
}

// OnJobFinalized implements Hook. It writes the durable outcome record for
// the job key; a later retry of the same job overwrites the previous row.
func (h *EscrowRecordHook) OnJobFinalized(job *models.DeploymentJob) error {
	record := &models.EscrowDeployment{
		JobKey:          job.JobKey,
		CreatorAddress:  job.CreatorAddress,
		RecorderAddress: job.AuthorizedRecorderAddress,
		EscrowAddress:   job.EscrowAddress,
		OperationHandle: job.OperationHandle,
		TransactionHash: job.SettledTransactionID,
		ContractType:    h.contractType,
		DurationSeconds: job.DurationSeconds,
	}

	if job.FundingSplit.CorrectPool != nil {
		record.CorrectPool = job.FundingSplit.CorrectPool.String()
	}
	if job.FundingSplit.IncorrectPool != nil {
		record.IncorrectPool = job.FundingSplit.IncorrectPool.String()
	}

	if job.State == models.JobStateResolved {
		record.Status = models.DeploymentStatusResolved
	} else {
		record.Status = models.DeploymentStatusFailed
		if job.LastError != nil {
			record.ErrorKind = string(job.LastError.Kind)
			record.ErrorDetail = job.LastError.Detail
		}
	}

	return h.records.UpsertRecord(record)
}

func NewEscrowRecordHook(records services.EscrowRecordService, contractType string) services.Hook {
	return &EscrowRecordHook{
		records:      records,
		contractType: contractType,
	}
}
