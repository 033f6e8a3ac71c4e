package services

import (
	"github.com/abridged/discord-bot-template-sub000/internal/models"
)

type HookService interface {
	AddHook(hook Hook) error
	OnJobFinalized(job *models.DeploymentJob) error
}

type hookService struct {
	hooks []Hook
}

func NewHookService() HookService {
	return &hookService{
		hooks: []Hook{},
	}
}

func (h *hookService) AddHook(hook Hook) error {
	h.hooks = append(h.hooks, hook)
	return nil
}

func (h *hookService) OnJobFinalized(job *models.DeploymentJob) error {
	for _, hook := range h.hooks {
		if hook.CanHandle(job.State) {
			if err := hook.OnJobFinalized(job); err != nil {
				return err
			}
		}
	}
	return nil
}
