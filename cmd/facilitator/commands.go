package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pushchain/bridge-node/facilitator/api"
	"github.com/pushchain/bridge-node/facilitator/config"
	"github.com/pushchain/bridge-node/facilitator/db"
	ferrors "github.com/pushchain/bridge-node/facilitator/errors"
	"github.com/pushchain/bridge-node/facilitator/handlers"
	"github.com/pushchain/bridge-node/facilitator/logger"
	"github.com/pushchain/bridge-node/facilitator/metrics"
	"github.com/pushchain/bridge-node/facilitator/repository"
)

// Set via -ldflags at build time.
var (
	Version = "dev"
	Commit  = ""
)

func InitRootCmd(rootCmd *cobra.Command, v *viper.Viper) {
	rootCmd.AddCommand(initCmd(v))
	rootCmd.AddCommand(startCmd(v))
	rootCmd.AddCommand(ingestCmd(v))
	rootCmd.AddCommand(versionCmd())
}

func initCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the home directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if err := config.Save(&cfg, cfg.NodeHome); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config written to %s\n", filepath.Join(cfg.NodeHome, "config"))
			return nil
		},
	}
}

func startCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Serve the query API over the stored facilitator state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			log := logger.Init(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			repos, database, err := openRepositories(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer repos.Close()

			cleaner := db.NewTransactionCleaner(
				database,
				time.Duration(cfg.TransactionCleanupIntervalSeconds)*time.Second,
				time.Duration(cfg.TransactionRetentionPeriodSeconds)*time.Second,
				log,
			)
			if err := cleaner.Start(ctx); err != nil {
				return err
			}
			defer cleaner.Stop()

			metrics.Default()
			server := api.NewServer(api.NewRepositoryReader(repos), prometheus.DefaultGatherer, log, cfg.QueryServerPort)
			if err := server.Start(); err != nil {
				return err
			}
			defer server.Stop()

			log.Info().Int("port", cfg.QueryServerPort).Msg("facilitator started")
			<-ctx.Done()
			log.Info().Msg("shutting down")
			return nil
		},
	}
	cmd.Flags().Int("query-server-port", 0, "port of the query API (overrides config)")
	return cmd
}

func ingestCmd(v *viper.Viper) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Apply a JSON batch of event records (entity type -> records) to the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			log := logger.Init(cfg)

			batch, err := readBatch(file)
			if err != nil {
				return err
			}

			repos, _, err := openRepositories(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer repos.Close()

			deps := handlers.Deps{
				Repos:       repos,
				Metrics:     metrics.Default(),
				Concurrency: cfg.HandlerConcurrency,
				Logger:      log,
			}
			processor := handlers.NewProcessor(handlers.NewRegistry(deps), deps)
			if err := processor.Handle(cmd.Context(), batch); err != nil {
				return err
			}

			total := 0
			for _, records := range batch {
				total += len(records)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ingested %d records across %d entity types\n", total, len(batch))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path of the JSON batch")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print facilitator version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Version:    %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Commit:     %s\n", Commit)
		},
	}
}

// openRepositories opens the configured database, retrying transient
// failures, and seeds the configured gateways.
func openRepositories(ctx context.Context, cfg config.Config, log zerolog.Logger) (*repository.Repositories, *db.DB, error) {
	var database *db.DB
	err := ferrors.Retry(ctx, func() error {
		d, err := db.OpenFileDB(cfg.DatabaseDir, cfg.DatabaseFile, true)
		if err != nil {
			return ferrors.NewDatabaseError("db", "failed to open database", err)
		}
		database = d
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	repos := repository.NewRepositories(database, log)
	if err := repos.SeedGateways(ctx, cfg.Gateways); err != nil {
		_ = repos.Close()
		return nil, nil, err
	}
	return repos, database, nil
}

func readBatch(path string) (map[string][]handlers.Record, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	// Amounts and nonces may exceed float64 precision; keep numbers as text.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var batch map[string][]handlers.Record
	if err := dec.Decode(&batch); err != nil {
		return nil, fmt.Errorf("failed to decode batch file: %w", err)
	}
	return batch, nil
}
