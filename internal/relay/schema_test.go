package relay

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExecuteResponseV1(t *testing.T) {
	handle, err := parseExecuteResponse(SchemaVersionV1, []byte(`{"operationHandle":"h1"}`))
	require.NoError(t, err)
	assert.Equal(t, "h1", handle)
}

func TestParseExecuteResponseV1Missing(t *testing.T) {
	_, err := parseExecuteResponse(SchemaVersionV1, []byte(`{}`))
	assert.Error(t, err)
}

func TestParseExecuteResponseV2(t *testing.T) {
	handle, err := parseExecuteResponse(SchemaVersionV2, []byte(`{"result":{"userOpHash":"0xop1"}}`))
	require.NoError(t, err)
	assert.Equal(t, "0xop1", handle)
}

func TestParseExecuteResponseMalformed(t *testing.T) {
	_, err := parseExecuteResponse(SchemaVersionV1, []byte(`not-json`))
	assert.Error(t, err)

	_, err = parseExecuteResponse(SchemaVersionV2, []byte(`{"result":{}}`))
	assert.Error(t, err)
}

func TestParseSettlementResponseV1(t *testing.T) {
	status, err := parseSettlementResponse(SchemaVersionV1, []byte(`{"settled":true,"transactionId":"0xtx1"}`))
	require.NoError(t, err)
	assert.True(t, status.Settled)
	assert.Equal(t, "0xtx1", status.TransactionID)

	status, err = parseSettlementResponse(SchemaVersionV1, []byte(`{"settled":false}`))
	require.NoError(t, err)
	assert.False(t, status.Settled)
	assert.Empty(t, status.TransactionID)
}

func TestParseSettlementResponseV1SettledWithoutTx(t *testing.T) {
	_, err := parseSettlementResponse(SchemaVersionV1, []byte(`{"settled":true}`))
	assert.Error(t, err)
}

func TestParseSettlementResponseV2(t *testing.T) {
	status, err := parseSettlementResponse(SchemaVersionV2, []byte(`{"result":{"status":"settled","txHash":"0xtx2"}}`))
	require.NoError(t, err)
	assert.True(t, status.Settled)
	assert.Equal(t, "0xtx2", status.TransactionID)

	status, err = parseSettlementResponse(SchemaVersionV2, []byte(`{"result":{"status":"pending"}}`))
	require.NoError(t, err)
	assert.False(t, status.Settled)
}

func TestParseFeeResponseV1Decimal(t *testing.T) {
	fee, err := parseFeeResponse(SchemaVersionV1, []byte(`{"fee":"1000000000000000"}`))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000000000000000), fee)
}

func TestParseFeeResponseV2Hex(t *testing.T) {
	fee, err := parseFeeResponse(SchemaVersionV2, []byte(`{"result":{"deploymentFee":"0xde0b6b3a7640000"}}`))
	require.NoError(t, err)

	expected, _ := new(big.Int).SetString("de0b6b3a7640000", 16)
	assert.Equal(t, expected, fee)
}

func TestParseFeeResponseInvalid(t *testing.T) {
	_, err := parseFeeResponse(SchemaVersionV1, []byte(`{"fee":""}`))
	assert.Error(t, err)

	_, err = parseFeeResponse(SchemaVersionV1, []byte(`{"fee":"abc!"}`))
	assert.Error(t, err)

	_, err = parseFeeResponse(SchemaVersionV1, []byte(`{"fee":"-5"}`))
	assert.Error(t, err)
}

func TestUnknownSchemaVersion(t *testing.T) {
	_, err := parseExecuteResponse("v3", []byte(`{}`))
	assert.Error(t, err)
	_, err = parseSettlementResponse("v3", []byte(`{}`))
	assert.Error(t, err)
	_, err = parseFeeResponse("v3", []byte(`{}`))
	assert.Error(t, err)
}
