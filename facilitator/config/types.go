package config

import "strings"

type Config struct {
	// Log Config
	LogLevel   int    `json:"log_level"`   // e.g., 0 = debug, 1 = info, etc.
	LogFormat  string `json:"log_format"`  // "json" or "console"
	LogSampler bool   `json:"log_sampler"` // if true, samples logs (e.g., 1 in 5)

	// Node Config
	NodeHome string `json:"node_home"` // Node home directory (default: ~/.facilitator)

	// Storage Config
	DatabaseDir  string `json:"database_dir"`  // Directory of the SQLite file (default: <node_home>/data)
	DatabaseFile string `json:"database_file"` // SQLite file name (default: facilitator.db)

	// Query Server Config
	QueryServerPort int `json:"query_server_port"` // Port for HTTP query server (default: 8080)

	// Handler Config
	HandlerConcurrency int `json:"handler_concurrency"` // Max concurrent keys persisted per handler call (default: 16)

	// Transaction cleanup
	TransactionCleanupIntervalSeconds int `json:"transaction_cleanup_interval_seconds"` // default: 3600
	TransactionRetentionPeriodSeconds int `json:"transaction_retention_period_seconds"` // default: 604800

	// Gateways known at startup; seeded into the gateway repository.
	Gateways []GatewayConfig `json:"gateways"`
}

// GatewayConfig describes one gateway/cogateway contract pair.
type GatewayConfig struct {
	GatewayGA    string `json:"gateway_ga"`
	RemoteGA     string `json:"remote_ga"`
	Chain        string `json:"chain"`
	GatewayType  string `json:"gateway_type"` // "origin" or "auxiliary"
	AnchorGA     string `json:"anchor_ga"`
	TokenAddress string `json:"token_address,omitempty"`
}

// GetGatewayConfig returns the configured gateway with the given address, or nil.
func (c *Config) GetGatewayConfig(gatewayGA string) *GatewayConfig {
	for i := range c.Gateways {
		if strings.EqualFold(c.Gateways[i].GatewayGA, gatewayGA) {
			return &c.Gateways[i]
		}
	}
	return nil
}
