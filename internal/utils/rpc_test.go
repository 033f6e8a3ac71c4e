package utils_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abridged/discord-bot-template-sub000/internal/utils"
)

func TestParseHexUint(t *testing.T) {
	tests := []struct {
		input    string
		expected uint64
	}{
		{"0x0", 0},
		{"0x10", 16},
		{"0xff", 255},
		{"", 0},
		{"0x", 0},
	}
	for _, tc := range tests {
		got, err := utils.ParseHexUint(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.expected, got, tc.input)
	}

	_, err := utils.ParseHexUint("0xzz")
	assert.Error(t, err)
}

func TestGetTransactionLogs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req utils.JSONRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "eth_getTransactionReceipt", req.Method)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"result": map[string]interface{}{
				"transactionHash": "0xabc",
				"blockNumber":     "0x2a",
				"status":          "0x1",
				"logs": []map[string]interface{}{
					{
						"address":         "0xFac7000000000000000000000000000000000001",
						"topics":          []string{"0x01", "0x02"},
						"data":            "0x00",
						"blockNumber":     "0x2a",
						"logIndex":        "0x3",
						"transactionHash": "0xabc",
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := utils.NewRPCClient(server.URL)
	logs, err := client.GetTransactionLogs(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, uint64(42), logs[0].BlockNumber)
	assert.Equal(t, uint(3), logs[0].LogIndex)
	assert.Equal(t, "0xabc", logs[0].TransactionHash)
}

func TestGetTransactionLogsNotMined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"result":  nil,
		})
	}))
	defer server.Close()

	client := utils.NewRPCClient(server.URL)
	_, err := client.GetTransactionLogs(context.Background(), "0xmissing")
	assert.Error(t, err)
}

func TestGetTransactionLogsEmptyLogsIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"result": map[string]interface{}{
				"transactionHash": "0xabc",
				"blockNumber":     "0x1",
				"logs":            []interface{}{},
			},
		})
	}))
	defer server.Close()

	client := utils.NewRPCClient(server.URL)
	logs, err := client.GetTransactionLogs(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestCallHonorsConfiguredTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := utils.NewRPCClient(server.URL)
	client.SetTimeout(50 * time.Millisecond)

	start := time.Now()
	_, err := client.Call(context.Background(), "eth_blockNumber", []interface{}{})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCallSurfacesRPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"error":   map[string]interface{}{"code": -32000, "message": "header not found"},
		})
	}))
	defer server.Close()

	client := utils.NewRPCClient(server.URL)
	_, err := client.Call(context.Background(), "eth_getTransactionReceipt", []interface{}{"0xabc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header not found")
}
