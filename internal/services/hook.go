package services

import "github.com/abridged/discord-bot-template-sub000/internal/models"

// Hook is used to perform actions when a deployment job reaches a terminal
// state, based on which state it landed in
type Hook interface {
	// CanHandle is used to check if the hook can handle the terminal state
	CanHandle(state models.JobState) bool
	// OnJobFinalized is called when a job reaches Resolved or Failed
	OnJobFinalized(job *models.DeploymentJob) error
}
