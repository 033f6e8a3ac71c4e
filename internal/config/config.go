package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/abridged/discord-bot-template-sub000/internal/constants"
	"github.com/abridged/discord-bot-template-sub000/internal/models"
)

// Config is the full runtime configuration, read from environment variables
// (optionally via a .env file).
type Config struct {
	// Relay
	RelayBaseURL       string `validate:"required,url"`
	RelayAPIKey        string
	RelaySchemaVersion string `validate:"oneof=v1 v2"`
	RelayTimeout       time.Duration

	// Escrow factory
	FactoryAddress  string `validate:"required"`
	ContractTypeTag string `validate:"required"`

	// Providers, in priority order.
	Providers       []models.ProviderConfig `validate:"min=1,dive"`
	ProviderTimeout time.Duration

	// Resolution tuning
	SettlementPollInterval time.Duration
	SettlementMaxAttempts  int
	LogRetryAttempts       int
	LogRetryDelay          time.Duration
	LockTTL                time.Duration
	// SkipCreatorCheck waives creator validation for relay-executed intents
	// whose on-chain sender differs from the logical creator. Off unless
	// explicitly enabled.
	SkipCreatorCheck bool

	// Storage and serving
	DatabaseDSN   string `validate:"required"`
	APIPort       int
	MetricsPort   int
	APIAuthSecret string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{
		RelayBaseURL:       os.Getenv("RELAY_BASE_URL"),
		RelayAPIKey:        os.Getenv("RELAY_API_KEY"),
		RelaySchemaVersion: envOr("RELAY_SCHEMA_VERSION", "v1"),
		RelayTimeout:       envDuration("RELAY_TIMEOUT", constants.DefaultRelayTimeout),

		FactoryAddress:  os.Getenv("ESCROW_FACTORY_ADDRESS"),
		ContractTypeTag: envOr("ESCROW_CONTRACT_TYPE", constants.DefaultContractTypeTag),

		ProviderTimeout: envDuration("PROVIDER_TIMEOUT", constants.DefaultProviderTimeout),

		SettlementPollInterval: envDuration("SETTLEMENT_POLL_INTERVAL", constants.DefaultSettlementPollInterval),
		SettlementMaxAttempts:  envInt("SETTLEMENT_MAX_ATTEMPTS", constants.DefaultSettlementMaxAttempts),
		LogRetryAttempts:       envInt("LOG_RETRY_ATTEMPTS", constants.DefaultLogRetryAttempts),
		LogRetryDelay:          envDuration("LOG_RETRY_DELAY", constants.DefaultLogRetryDelay),
		LockTTL:                envDuration("LOCK_TTL", constants.DefaultLockTTL),
		SkipCreatorCheck:       envBool("SKIP_CREATOR_CHECK", false),

		DatabaseDSN:   envOr("DATABASE_DSN", "escrow.db"),
		APIPort:       envInt("API_PORT", 8080),
		MetricsPort:   envInt("METRICS_PORT", 9090),
		APIAuthSecret: os.Getenv("API_AUTH_SECRET"),
	}

	providers, err := parseProviders(os.Getenv("ESCROW_PROVIDERS"))
	if err != nil {
		return nil, err
	}
	cfg.Providers = providers

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parseProviders parses "name=url,name=url"; priority follows list order.
func parseProviders(raw string) ([]models.ProviderConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("ESCROW_PROVIDERS is required (format: name=url,name=url)")
	}

	var providers []models.ProviderConfig
	for i, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, uri, found := strings.Cut(part, "=")
		if !found || name == "" || uri == "" {
			return nil, fmt.Errorf("invalid provider entry %q (want name=url)", part)
		}
		providers = append(providers, models.ProviderConfig{
			Name:        strings.TrimSpace(name),
			EndpointURI: strings.TrimSpace(uri),
			Priority:    i,
		})
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("ESCROW_PROVIDERS contains no providers")
	}
	return providers, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
