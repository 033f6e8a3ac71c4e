package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abridged/discord-bot-template-sub000/internal/constants"
	"github.com/abridged/discord-bot-template-sub000/internal/metrics"
	"github.com/abridged/discord-bot-template-sub000/internal/relay"
)

// ErrSettlementTimeout is returned when the poll budget is exhausted without
// ever observing a settlement record. The operation may still settle later.
var ErrSettlementTimeout = errors.New("settlement polling budget exhausted")

// SettlementResult carries the settled transaction id plus the number of
// polls it took, for diagnostics.
type SettlementResult struct {
	TransactionID string
	Attempts      int
}

// SettlementService resolves an operation handle into a settled transaction
// id by polling the relay. Polling is read-only and re-entrant: a fresh
// Resolve call for the same handle safely starts over from attempt one.
type SettlementService interface {
	Resolve(ctx context.Context, handle string) (SettlementResult, error)
}

type settlementService struct {
	relay        relay.RelayClient
	pollInterval time.Duration
	maxAttempts  int
	logger       *logrus.Entry
}

// NewSettlementService creates a SettlementService with the given poll
// interval and attempt budget; non-positive values fall back to defaults.
func NewSettlementService(relayClient relay.RelayClient, pollInterval time.Duration, maxAttempts int) SettlementService {
	if pollInterval <= 0 {
		pollInterval = constants.DefaultSettlementPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = constants.DefaultSettlementMaxAttempts
	}
	return &settlementService{
		relay:        relayClient,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		logger:       logrus.WithField("component", "settlement"),
	}
}

func (s *settlementService) Resolve(ctx context.Context, handle string) (SettlementResult, error) {
	log := s.logger.WithField("handle", handle)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		metrics.IncSettlementPoll()

		status, err := s.relay.GetSettlementStatus(ctx, handle)
		switch {
		case err != nil:
			// A failed poll is indistinguishable from "not settled yet";
			// only exhausting the whole budget is final.
			if ctx.Err() != nil {
				return SettlementResult{Attempts: attempt}, ctx.Err()
			}
			log.WithField("attempt", attempt).WithError(err).Debug("settlement poll failed")
		case status.Settled:
			log.WithFields(logrus.Fields{
				"attempt": attempt,
				"tx":      status.TransactionID,
			}).Info("operation settled")
			return SettlementResult{TransactionID: status.TransactionID, Attempts: attempt}, nil
		default:
			log.WithField("attempt", attempt).Debug("not yet settled")
		}

		if attempt == s.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return SettlementResult{Attempts: attempt}, ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}

	return SettlementResult{Attempts: s.maxAttempts}, ErrSettlementTimeout
}
