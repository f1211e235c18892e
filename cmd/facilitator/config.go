package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/pushchain/bridge-node/facilitator/config"
)

// loadConfig reads <home>/config/facilitator_config.json, falling back to the
// embedded defaults when it does not exist. Explicit flags and FACILITATOR_*
// environment variables override file values.
func loadConfig(v *viper.Viper) (config.Config, error) {
	home, err := resolveHome(v.GetString("home"))
	if err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(home)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return config.Config{}, err
		}
		def, err := config.LoadDefaultConfig()
		if err != nil {
			return config.Config{}, err
		}
		cfg = *def
	}
	cfg.NodeHome = home

	overrides := map[string]func(){
		"log_level":           func() { cfg.LogLevel = v.GetInt("log_level") },
		"log_format":          func() { cfg.LogFormat = v.GetString("log_format") },
		"database_dir":        func() { cfg.DatabaseDir = v.GetString("database_dir") },
		"database_file":       func() { cfg.DatabaseFile = v.GetString("database_file") },
		"query_server_port":   func() { cfg.QueryServerPort = v.GetInt("query_server_port") },
		"handler_concurrency": func() { cfg.HandlerConcurrency = v.GetInt("handler_concurrency") },
	}
	for key, apply := range overrides {
		if v.IsSet(key) {
			apply()
		}
	}

	if err := config.Validate(&cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func resolveHome(home string) (string, error) {
	if home != "" {
		return home, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userHome, ".facilitator"), nil
}
