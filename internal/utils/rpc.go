package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/abridged/discord-bot-template-sub000/internal/models"
)

// RPCClient is a minimal Ethereum JSON-RPC client for read-only queries
// against a single provider endpoint.
type RPCClient struct {
	URL    string
	client *http.Client
}

// NewRPCClient creates a new RPC client with the given URL
func NewRPCClient(url string) *RPCClient {
	return &RPCClient{
		URL:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetTimeout sets the timeout for RPC requests
func (r *RPCClient) SetTimeout(timeout time.Duration) {
	r.client.Timeout = timeout
}

// JSONRPCRequest represents a JSON-RPC request
type JSONRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// JSONRPCResponse represents a JSON-RPC response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents an RPC error
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RawLog is one log record exactly as the provider serializes it, with
// quantity fields still hex-encoded.
type RawLog struct {
	Address         string   `json:"address"`
	Topics          []string `json:"topics"`
	Data            string   `json:"data"`
	BlockNumber     string   `json:"blockNumber"`
	LogIndex        string   `json:"logIndex"`
	TransactionHash string   `json:"transactionHash"`
}

// TransactionReceipt represents an Ethereum transaction receipt
type TransactionReceipt struct {
	TransactionHash   string   `json:"transactionHash"`
	TransactionIndex  string   `json:"transactionIndex"`
	BlockHash         string   `json:"blockHash"`
	BlockNumber       string   `json:"blockNumber"`
	CumulativeGasUsed string   `json:"cumulativeGasUsed"`
	GasUsed           string   `json:"gasUsed"`
	ContractAddress   string   `json:"contractAddress"`
	Status            string   `json:"status"`
	From              string   `json:"from"`
	To                string   `json:"to"`
	Logs              []RawLog `json:"logs"`
}

// Call makes a JSON-RPC call
func (r *RPCClient) Call(ctx context.Context, method string, params []interface{}) (*JSONRPCResponse, error) {
	request := JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	var response JSONRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("RPC error %d: %s", response.Error.Code, response.Error.Message)
	}

	return &response, nil
}

// GetTransactionReceipt gets the transaction receipt for a given hash
func (r *RPCClient) GetTransactionReceipt(ctx context.Context, txHash string) (*TransactionReceipt, error) {
	response, err := r.Call(ctx, "eth_getTransactionReceipt", []interface{}{txHash})
	if err != nil {
		return nil, err
	}

	if response.Result == nil {
		return nil, fmt.Errorf("transaction not found or not yet mined")
	}

	receiptData, err := json.Marshal(response.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal receipt data: %w", err)
	}

	var receipt TransactionReceipt
	if err := json.Unmarshal(receiptData, &receipt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal receipt: %w", err)
	}

	return &receipt, nil
}

// GetTransactionLogs returns the logs of a settled transaction. An empty
// slice is a legitimate answer; only a missing receipt or a transport failure
// is an error.
func (r *RPCClient) GetTransactionLogs(ctx context.Context, txHash string) ([]models.LogEntry, error) {
	receipt, err := r.GetTransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}

	logs := make([]models.LogEntry, 0, len(receipt.Logs))
	for _, raw := range receipt.Logs {
		blockNumber, err := ParseHexUint(raw.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("invalid log blockNumber %q: %w", raw.BlockNumber, err)
		}
		logIndex, err := ParseHexUint(raw.LogIndex)
		if err != nil {
			return nil, fmt.Errorf("invalid logIndex %q: %w", raw.LogIndex, err)
		}
		logs = append(logs, models.LogEntry{
			Address:         raw.Address,
			Topics:          raw.Topics,
			Data:            raw.Data,
			BlockNumber:     blockNumber,
			LogIndex:        uint(logIndex),
			TransactionHash: raw.TransactionHash,
		})
	}
	return logs, nil
}

// GetBlockNumber gets the current block number
func (r *RPCClient) GetBlockNumber(ctx context.Context) (string, error) {
	response, err := r.Call(ctx, "eth_blockNumber", []interface{}{})
	if err != nil {
		return "", err
	}

	if response.Result == nil {
		return "", fmt.Errorf("no block number returned")
	}

	blockNumber, ok := response.Result.(string)
	if !ok {
		return "", fmt.Errorf("invalid block number format")
	}

	return blockNumber, nil
}

// ParseHexUint parses a 0x-prefixed hex quantity. An empty value parses to 0,
// matching providers that omit zero fields.
func ParseHexUint(value string) (uint64, error) {
	trimmed := strings.TrimPrefix(value, "0x")
	if trimmed == "" {
		return 0, nil
	}
	return strconv.ParseUint(trimmed, 16, 64)
}
