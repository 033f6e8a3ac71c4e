package services_test

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/abridged/discord-bot-template-sub000/internal/relay"
)

// settlementAnswer scripts one GetSettlementStatus response.
type settlementAnswer struct {
	settled bool
	txID    string
	err     error
}

// mockRelay is an in-memory relay.RelayClient for service tests. Settlement
// answers are consumed in order; the last one repeats once the script runs
// out.
type mockRelay struct {
	mu sync.Mutex

	fee         *big.Int
	feeFailures int
	feeCalls    int

	executeHandle string
	executeErr    error
	executeCalls  int
	lastIdentity  string
	lastTarget    string
	lastCallData  string
	lastValue     *big.Int

	settlementScript []settlementAnswer
	settlementCalls  int
}

var _ relay.RelayClient = (*mockRelay)(nil)

func newMockRelay() *mockRelay {
	return &mockRelay{
		fee:           big.NewInt(5),
		executeHandle: "h1",
	}
}

func (m *mockRelay) ExecuteAs(ctx context.Context, identity, target, callData string, value *big.Int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.executeCalls++
	m.lastIdentity = identity
	m.lastTarget = target
	m.lastCallData = callData
	m.lastValue = new(big.Int).Set(value)

	if m.executeErr != nil {
		return "", m.executeErr
	}
	return m.executeHandle, nil
}

func (m *mockRelay) GetSettlementStatus(ctx context.Context, handle string) (*relay.SettlementStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settlementCalls++

	if len(m.settlementScript) == 0 {
		return &relay.SettlementStatus{Settled: false}, nil
	}
	idx := m.settlementCalls - 1
	if idx >= len(m.settlementScript) {
		idx = len(m.settlementScript) - 1
	}
	answer := m.settlementScript[idx]
	if answer.err != nil {
		return nil, answer.err
	}
	return &relay.SettlementStatus{Settled: answer.settled, TransactionID: answer.txID}, nil
}

func (m *mockRelay) GetCurrentDeploymentFee(ctx context.Context) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.feeCalls++
	if m.feeCalls <= m.feeFailures {
		return nil, fmt.Errorf("fee endpoint unavailable")
	}
	return new(big.Int).Set(m.fee), nil
}

func (m *mockRelay) SettlementCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settlementCalls
}
