package server

import (
	"fmt"
	"log"

	"github.com/abridged/discord-bot-template-sub000/internal/config"
	"github.com/abridged/discord-bot-template-sub000/internal/hooks"
	"github.com/abridged/discord-bot-template-sub000/internal/relay"
	"github.com/abridged/discord-bot-template-sub000/internal/services"
)

// InitializeServices wires the resolution pipeline from configuration: relay
// client, lock manager, submitter, settlement poller, provider pool and the
// orchestrator on top of them.
func InitializeServices(cfg *config.Config, db services.DBService) (services.ResolutionService, services.EscrowRecordService, services.LockService, error) {
	relayClient, err := relay.NewClient(relay.Config{
		BaseURL:       cfg.RelayBaseURL,
		APIKey:        cfg.RelayAPIKey,
		SchemaVersion: cfg.RelaySchemaVersion,
		Timeout:       cfg.RelayTimeout,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create relay client: %w", err)
	}

	providerPool, err := services.NewProviderPool(cfg.Providers, cfg.ProviderTimeout)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create provider pool: %w", err)
	}

	lockService := services.NewLockService(cfg.LockTTL)
	submitterService := services.NewSubmitterService(relayClient, cfg.FactoryAddress)
	settlementService := services.NewSettlementService(relayClient, cfg.SettlementPollInterval, cfg.SettlementMaxAttempts)
	recordService := services.NewEscrowRecordService(db.GetDB())

	hookService := services.NewHookService()
	RegisterHooks(hookService, hooks.NewEscrowRecordHook(recordService, cfg.ContractTypeTag))

	resolutionService := services.NewResolutionService(
		lockService,
		submitterService,
		settlementService,
		providerPool,
		hookService,
		services.ResolutionConfig{
			FactoryAddress:   cfg.FactoryAddress,
			ContractTypeTag:  cfg.ContractTypeTag,
			SkipCreatorCheck: cfg.SkipCreatorCheck,
			LogRetryAttempts: cfg.LogRetryAttempts,
			LogRetryDelay:    cfg.LogRetryDelay,
		},
	)

	return resolutionService, recordService, lockService, nil
}

// RegisterHooks adds terminal-state hooks to the hook service.
func RegisterHooks(hookService services.HookService, hooksToAdd ...services.Hook) {
	for _, hook := range hooksToAdd {
		if err := hookService.AddHook(hook); err != nil {
			log.Fatal("Failed to register hook:", err)
		}
	}
}
