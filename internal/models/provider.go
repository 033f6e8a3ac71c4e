package models

// ProviderConfig describes one blockchain data endpoint. Providers are tried
// in ascending Priority order.
type ProviderConfig struct {
	Name        string `json:"name" validate:"required"`
	EndpointURI string `json:"endpoint_uri" validate:"required,url"`
	Priority    int    `json:"priority"`
}

// LogEntry is one raw log record as returned by a provider's transaction
// receipt. Topics and Data keep the provider's hex encoding; decoding into a
// typed event happens in the event decoder.
type LogEntry struct {
	Address         string   `json:"address"`
	Topics          []string `json:"topics"`
	Data            string   `json:"data"`
	BlockNumber     uint64   `json:"block_number"`
	LogIndex        uint     `json:"log_index"`
	TransactionHash string   `json:"transaction_hash"`
}
