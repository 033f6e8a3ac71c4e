package relay

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// RelayClient is the narrow contract this pipeline consumes from the
// account-abstraction relay. The relay executes a transaction on behalf of a
// user's contract identity and answers with an opaque operation handle; it
// never returns a settled result synchronously.
type RelayClient interface {
	// ExecuteAs submits call data to target on behalf of identity, attaching
	// value, and returns the relay-issued operation handle verbatim.
	ExecuteAs(ctx context.Context, identity, target, callData string, value *big.Int) (string, error)
	// GetSettlementStatus reports whether an operation handle has settled
	// into a confirmed transaction yet.
	GetSettlementStatus(ctx context.Context, handle string) (*SettlementStatus, error)
	// GetCurrentDeploymentFee returns the relay's current deployment fee in
	// wei. The read is idempotent and safe to retry.
	GetCurrentDeploymentFee(ctx context.Context) (*big.Int, error)
}

// SettlementStatus is one settlement-status answer from the relay.
type SettlementStatus struct {
	Settled       bool
	TransactionID string
}

// Config configures the relay client. SchemaVersion selects which observed
// response schema the client parses; quirks stay inside this package.
type Config struct {
	BaseURL       string
	APIKey        string
	SchemaVersion string
	Timeout       time.Duration
}

type client struct {
	http          *resty.Client
	schemaVersion string
	logger        *logrus.Entry
}

// NewClient creates a relay client for the given base URL and schema version.
func NewClient(cfg Config) (RelayClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("relay base URL is required")
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SchemaVersionV1
	}
	if !knownSchemaVersion(cfg.SchemaVersion) {
		return nil, fmt.Errorf("unknown relay schema version %q", cfg.SchemaVersion)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}

	return &client{
		http:          httpClient,
		schemaVersion: cfg.SchemaVersion,
		logger:        logrus.WithField("component", "relay"),
	}, nil
}

type executeRequest struct {
	Identity string `json:"identity"`
	Target   string `json:"target"`
	CallData string `json:"callData"`
	Value    string `json:"value"`
}

func (c *client) ExecuteAs(ctx context.Context, identity, target, callData string, value *big.Int) (string, error) {
	body := executeRequest{
		Identity: identity,
		Target:   target,
		CallData: callData,
		Value:    value.String(),
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/operations")
	if err != nil {
		return "", fmt.Errorf("relay execute request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("relay execute returned %d: %s", resp.StatusCode(), resp.String())
	}

	handle, err := parseExecuteResponse(c.schemaVersion, resp.Body())
	if err != nil {
		return "", err
	}

	c.logger.WithFields(logrus.Fields{
		"identity": identity,
		"target":   target,
		"handle":   handle,
	}).Info("submitted operation to relay")
	return handle, nil
}

func (c *client) GetSettlementStatus(ctx context.Context, handle string) (*SettlementStatus, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/operations/" + handle)
	if err != nil {
		return nil, fmt.Errorf("relay status request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("relay status returned %d: %s", resp.StatusCode(), resp.String())
	}

	return parseSettlementResponse(c.schemaVersion, resp.Body())
}

func (c *client) GetCurrentDeploymentFee(ctx context.Context) (*big.Int, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/fees/deployment")
	if err != nil {
		return nil, fmt.Errorf("relay fee request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("relay fee returned %d: %s", resp.StatusCode(), resp.String())
	}

	return parseFeeResponse(c.schemaVersion, resp.Body())
}
