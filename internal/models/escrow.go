package models

import "time"

// DeploymentStatus is the persisted outcome of a resolution.
type DeploymentStatus string

const (
	DeploymentStatusResolved DeploymentStatus = "resolved"
	DeploymentStatusFailed   DeploymentStatus = "failed"
)

// EscrowDeployment is the durable record of a terminal resolution outcome.
// The pipeline itself holds no persistent state; records are written by the
// outcome hook once a job reaches Resolved or Failed.
type EscrowDeployment struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	JobKey          string           `gorm:"uniqueIndex;not null;type:varchar(255)" json:"job_key"`
	CreatorAddress  string           `gorm:"index;type:varchar(64)" json:"creator_address"`
	RecorderAddress string           `gorm:"type:varchar(64)" json:"recorder_address"`
	EscrowAddress   string           `gorm:"index;type:varchar(64)" json:"escrow_address"`
	OperationHandle string           `gorm:"type:varchar(128)" json:"operation_handle"`
	TransactionHash string           `gorm:"index;type:varchar(128)" json:"transaction_hash"`
	ContractType    string           `gorm:"type:varchar(64)" json:"contract_type"`
	CorrectPool     string           `json:"correct_pool"`
	IncorrectPool   string           `json:"incorrect_pool"`
	DeploymentFee   string           `json:"deployment_fee"`
	DurationSeconds uint64           `json:"duration_seconds"`
	Status          DeploymentStatus `gorm:"index" json:"status"`
	ErrorKind       string           `json:"error_kind,omitempty"`
	ErrorDetail     string           `json:"error_detail,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}
