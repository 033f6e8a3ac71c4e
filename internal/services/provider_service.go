package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abridged/discord-bot-template-sub000/internal/constants"
	"github.com/abridged/discord-bot-template-sub000/internal/metrics"
	"github.com/abridged/discord-bot-template-sub000/internal/models"
	"github.com/abridged/discord-bot-template-sub000/internal/utils"
)

// FetchLogsResult is one successful log retrieval: the logs, which provider
// answered, and how many provider calls it took to get there.
type FetchLogsResult struct {
	Logs         []models.LogEntry
	ProviderName string
	Tried        []string
	Calls        int
}

// ProviderPool fetches transaction logs from a prioritized list of
// blockchain data endpoints. Providers are tried strictly in ascending
// priority order; the first non-error answer wins, including an empty log
// set. No caching: settled transaction logs are immutable and cheap to
// re-fetch.
type ProviderPool interface {
	FetchLogs(ctx context.Context, transactionID string) (FetchLogsResult, error)
}

type provider struct {
	config models.ProviderConfig
	client *utils.RPCClient
}

type providerPool struct {
	providers []provider
	logger    *logrus.Entry
}

// NewProviderPool creates a pool over the configured endpoints, sorted by
// ascending priority. An empty configuration makes resolution impossible by
// construction, so it fails fast.
func NewProviderPool(configs []models.ProviderConfig, timeout time.Duration) (ProviderPool, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("at least one provider must be configured")
	}
	if timeout <= 0 {
		timeout = constants.DefaultProviderTimeout
	}

	ordered := make([]models.ProviderConfig, len(configs))
	copy(ordered, configs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	providers := make([]provider, 0, len(ordered))
	for _, cfg := range ordered {
		client := utils.NewRPCClient(cfg.EndpointURI)
		client.SetTimeout(timeout)
		providers = append(providers, provider{config: cfg, client: client})
	}

	return &providerPool{
		providers: providers,
		logger:    logrus.WithField("component", "provider-pool"),
	}, nil
}

func (p *providerPool) FetchLogs(ctx context.Context, transactionID string) (FetchLogsResult, error) {
	var failures []string
	var tried []string

	for i, prov := range p.providers {
		tried = append(tried, prov.config.Name)

		logs, err := prov.client.GetTransactionLogs(ctx, transactionID)
		if err != nil {
			metrics.IncProviderRequest(prov.config.Name, "error")
			p.logger.WithFields(logrus.Fields{
				"provider": prov.config.Name,
				"tx":       transactionID,
			}).WithError(err).Warn("provider failed, trying next")
			failures = append(failures, fmt.Sprintf("%s: %v", prov.config.Name, err))

			if ctx.Err() != nil {
				return FetchLogsResult{Tried: tried, Calls: i + 1}, ctx.Err()
			}
			continue
		}

		metrics.IncProviderRequest(prov.config.Name, "ok")
		return FetchLogsResult{
			Logs:         logs,
			ProviderName: prov.config.Name,
			Tried:        tried,
			Calls:        i + 1,
		}, nil
	}

	return FetchLogsResult{Tried: tried, Calls: len(p.providers)},
		fmt.Errorf("all %d providers failed: %s", len(p.providers), strings.Join(failures, "; "))
}
