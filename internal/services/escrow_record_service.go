package services

import (
	"github.com/abridged/discord-bot-template-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EscrowRecordService persists terminal resolution outcomes. The pipeline
// itself holds no durable state; these records are what callers query after
// the fact.
type EscrowRecordService interface {
	UpsertRecord(record *models.EscrowDeployment) error
	GetRecordByJobKey(jobKey string) (*models.EscrowDeployment, error)
	GetRecordByEscrowAddress(escrowAddress string) (*models.EscrowDeployment, error)
	GetRecordByTransactionHash(txHash string) (*models.EscrowDeployment, error)
	ListRecords() ([]models.EscrowDeployment, error)
	ListRecordsByCreator(creatorAddress string) ([]models.EscrowDeployment, error)
	ListRecordsByStatus(status models.DeploymentStatus) ([]models.EscrowDeployment, error)
	DeleteRecord(jobKey string) error
}

type escrowRecordService struct {
	db *gorm.DB
}

// NewEscrowRecordService creates a new EscrowRecordService
func NewEscrowRecordService(db *gorm.DB) EscrowRecordService {
	return &escrowRecordService{db: db}
}

// UpsertRecord writes the record, replacing an existing row for the same job
// key. One job key has exactly one durable outcome.
func (s *escrowRecordService) UpsertRecord(record *models.EscrowDeployment) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "job_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"escrow_address", "operation_handle", "transaction_hash",
			"correct_pool", "incorrect_pool", "duration_seconds",
			"deployment_fee", "status", "error_kind", "error_detail", "updated_at",
		}),
	}).Create(record).Error
}

// GetRecordByJobKey returns the outcome record for a job key
func (s *escrowRecordService) GetRecordByJobKey(jobKey string) (*models.EscrowDeployment, error) {
	var record models.EscrowDeployment
	err := s.db.Where("job_key = ?", jobKey).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetRecordByEscrowAddress returns the record for a deployed escrow address
func (s *escrowRecordService) GetRecordByEscrowAddress(escrowAddress string) (*models.EscrowDeployment, error) {
	var record models.EscrowDeployment
	err := s.db.Where("escrow_address = ?", escrowAddress).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetRecordByTransactionHash returns the record for a settled transaction
func (s *escrowRecordService) GetRecordByTransactionHash(txHash string) (*models.EscrowDeployment, error) {
	var record models.EscrowDeployment
	err := s.db.Where("transaction_hash = ?", txHash).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListRecords returns all outcome records
func (s *escrowRecordService) ListRecords() ([]models.EscrowDeployment, error) {
	var records []models.EscrowDeployment
	err := s.db.Order("created_at desc").Find(&records).Error
	return records, err
}

// ListRecordsByCreator returns all records for a creator address
func (s *escrowRecordService) ListRecordsByCreator(creatorAddress string) ([]models.EscrowDeployment, error) {
	var records []models.EscrowDeployment
	err := s.db.Where("creator_address = ?", creatorAddress).Order("created_at desc").Find(&records).Error
	return records, err
}

// ListRecordsByStatus returns all records with the given status
func (s *escrowRecordService) ListRecordsByStatus(status models.DeploymentStatus) ([]models.EscrowDeployment, error) {
	var records []models.EscrowDeployment
	err := s.db.Where("status = ?", status).Order("created_at desc").Find(&records).Error
	return records, err
}

// DeleteRecord deletes the record for a job key
func (s *escrowRecordService) DeleteRecord(jobKey string) error {
	return s.db.Where("job_key = ?", jobKey).Delete(&models.EscrowDeployment{}).Error
}
