package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

const (
	configSubdir   = "config"
	configFileName = "facilitator_config.json"

	defaultNodeHomeDir = ".facilitator"
	defaultDataSubdir  = "data"
)

//go:embed default_config.json
var defaultConfigJSON []byte

func validateConfig(cfg *Config) error {
	// Validate log level
	if cfg.LogLevel < 0 || cfg.LogLevel > 5 {
		return fmt.Errorf("log level must be between 0 and 5")
	}

	// Validate log format
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("log format must be 'json' or 'console'")
	}

	if cfg.NodeHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.NodeHome = filepath.Join(home, defaultNodeHomeDir)
	}
	if cfg.DatabaseDir == "" {
		cfg.DatabaseDir = filepath.Join(cfg.NodeHome, defaultDataSubdir)
	}
	if cfg.DatabaseFile == "" {
		cfg.DatabaseFile = "facilitator.db"
	}

	if cfg.QueryServerPort == 0 {
		cfg.QueryServerPort = 8080
	}
	if cfg.QueryServerPort < 0 || cfg.QueryServerPort > 65535 {
		return fmt.Errorf("query server port must be between 1 and 65535")
	}

	if cfg.HandlerConcurrency == 0 {
		cfg.HandlerConcurrency = 16
	}
	if cfg.HandlerConcurrency < 0 {
		return fmt.Errorf("handler concurrency must be positive")
	}

	// Set defaults for transaction cleanup
	if cfg.TransactionCleanupIntervalSeconds == 0 {
		cfg.TransactionCleanupIntervalSeconds = 3600
	}
	if cfg.TransactionRetentionPeriodSeconds == 0 {
		cfg.TransactionRetentionPeriodSeconds = 604800
	}

	seen := make(map[string]struct{}, len(cfg.Gateways))
	for i, gw := range cfg.Gateways {
		if !ethcommon.IsHexAddress(gw.GatewayGA) {
			return fmt.Errorf("gateways[%d]: gateway_ga %q is not a hex address", i, gw.GatewayGA)
		}
		if gw.RemoteGA != "" && !ethcommon.IsHexAddress(gw.RemoteGA) {
			return fmt.Errorf("gateways[%d]: remote_ga %q is not a hex address", i, gw.RemoteGA)
		}
		if gw.AnchorGA != "" && !ethcommon.IsHexAddress(gw.AnchorGA) {
			return fmt.Errorf("gateways[%d]: anchor_ga %q is not a hex address", i, gw.AnchorGA)
		}
		if gw.GatewayType != "origin" && gw.GatewayType != "auxiliary" {
			return fmt.Errorf("gateways[%d]: gateway_type must be 'origin' or 'auxiliary'", i)
		}
		key := ethcommon.HexToAddress(gw.GatewayGA).Hex()
		if _, dup := seen[key]; dup {
			return fmt.Errorf("gateways[%d]: duplicate gateway_ga %s", i, gw.GatewayGA)
		}
		seen[key] = struct{}{}
	}

	return nil
}

// Validate checks cfg and fills in defaults for unset fields.
func Validate(cfg *Config) error {
	return validateConfig(cfg)
}

// Save writes the given config to <basePath>/config/facilitator_config.json.
func Save(cfg *Config, basePath string) error {
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	configDir := filepath.Join(basePath, configSubdir)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configDir, configFileName)
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load reads and returns the config from <basePath>/config/facilitator_config.json.
func Load(basePath string) (Config, error) {
	configFile := filepath.Join(basePath, configSubdir, configFileName)
	data, err := os.ReadFile(filepath.Clean(configFile))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadDefaultConfig loads the default configuration from embedded JSON
func LoadDefaultConfig() (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(defaultConfigJSON, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
	}
	return &cfg, nil
}
