package relay

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// The relay has shipped two response schemas. Each version gets exactly one
// parsing function here; call sites never probe field names.
const (
	// SchemaVersionV1 is the flat schema:
	//   execute: {"operationHandle": "..."}
	//   status:  {"settled": true, "transactionId": "0x..."}
	//   fee:     {"fee": "1000000000000000"}
	SchemaVersionV1 = "v1"
	// SchemaVersionV2 wraps payloads in a result envelope and renames fields:
	//   execute: {"result": {"userOpHash": "..."}}
	//   status:  {"result": {"status": "settled"|"pending", "txHash": "0x..."}}
	//   fee:     {"result": {"deploymentFee": "0xde0b6b3a7640000"}}
	SchemaVersionV2 = "v2"
)

func knownSchemaVersion(version string) bool {
	return version == SchemaVersionV1 || version == SchemaVersionV2
}

func parseExecuteResponse(version string, body []byte) (string, error) {
	switch version {
	case SchemaVersionV1:
		var payload struct {
			OperationHandle string `json:"operationHandle"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return "", fmt.Errorf("malformed v1 execute response: %w", err)
		}
		if payload.OperationHandle == "" {
			return "", fmt.Errorf("v1 execute response missing operationHandle")
		}
		return payload.OperationHandle, nil

	case SchemaVersionV2:
		var payload struct {
			Result struct {
				UserOpHash string `json:"userOpHash"`
			} `json:"result"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return "", fmt.Errorf("malformed v2 execute response: %w", err)
		}
		if payload.Result.UserOpHash == "" {
			return "", fmt.Errorf("v2 execute response missing userOpHash")
		}
		return payload.Result.UserOpHash, nil
	}
	return "", fmt.Errorf("unknown relay schema version %q", version)
}

func parseSettlementResponse(version string, body []byte) (*SettlementStatus, error) {
	switch version {
	case SchemaVersionV1:
		var payload struct {
			Settled       bool   `json:"settled"`
			TransactionID string `json:"transactionId"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("malformed v1 status response: %w", err)
		}
		if payload.Settled && payload.TransactionID == "" {
			return nil, fmt.Errorf("v1 status response settled without transactionId")
		}
		return &SettlementStatus{Settled: payload.Settled, TransactionID: payload.TransactionID}, nil

	case SchemaVersionV2:
		var payload struct {
			Result struct {
				Status string `json:"status"`
				TxHash string `json:"txHash"`
			} `json:"result"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("malformed v2 status response: %w", err)
		}
		settled := payload.Result.Status == "settled"
		if settled && payload.Result.TxHash == "" {
			return nil, fmt.Errorf("v2 status response settled without txHash")
		}
		return &SettlementStatus{Settled: settled, TransactionID: payload.Result.TxHash}, nil
	}
	return nil, fmt.Errorf("unknown relay schema version %q", version)
}

func parseFeeResponse(version string, body []byte) (*big.Int, error) {
	switch version {
	case SchemaVersionV1:
		var payload struct {
			Fee string `json:"fee"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("malformed v1 fee response: %w", err)
		}
		return parseAmount(payload.Fee)

	case SchemaVersionV2:
		var payload struct {
			Result struct {
				DeploymentFee string `json:"deploymentFee"`
			} `json:"result"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("malformed v2 fee response: %w", err)
		}
		return parseAmount(payload.Result.DeploymentFee)
	}
	return nil, fmt.Errorf("unknown relay schema version %q", version)
}

// parseAmount accepts decimal or 0x-hex wei amounts.
func parseAmount(value string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("fee response missing amount")
	}
	base := 10
	trimmed := value
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		base = 16
		trimmed = value[2:]
	}
	amount, ok := new(big.Int).SetString(trimmed, base)
	if !ok {
		return nil, fmt.Errorf("invalid fee amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("negative fee amount %q", value)
	}
	return amount, nil
}
