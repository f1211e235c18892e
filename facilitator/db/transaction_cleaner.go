package db

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TransactionCleaner periodically removes submitted transactions older than
// the retention period.
type TransactionCleaner struct {
	database        *DB
	logger          zerolog.Logger
	stopCh          chan struct{}
	stopOnce        sync.Once
	cleanupInterval time.Duration
	retentionPeriod time.Duration
}

// NewTransactionCleaner creates a new transaction cleaner
func NewTransactionCleaner(
	database *DB,
	cleanupInterval time.Duration,
	retentionPeriod time.Duration,
	logger zerolog.Logger,
) *TransactionCleaner {
	return &TransactionCleaner{
		database:        database,
		cleanupInterval: cleanupInterval,
		retentionPeriod: retentionPeriod,
		logger:          logger.With().Str("component", "transaction_cleaner").Logger(),
		stopCh:          make(chan struct{}),
	}
}

// Start performs one cleanup and then keeps cleaning every interval until
// ctx is cancelled or Stop is called.
func (tc *TransactionCleaner) Start(ctx context.Context) error {
	tc.logger.Info().
		Dur("cleanup_interval", tc.cleanupInterval).
		Dur("retention_period", tc.retentionPeriod).
		Msg("starting transaction cleaner")

	// Don't fail startup on cleanup error, just log it
	if _, err := tc.performCleanup(); err != nil {
		tc.logger.Error().Err(err).Msg("failed to perform initial cleanup")
	}

	ticker := time.NewTicker(tc.cleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				tc.logger.Info().Msg("context cancelled, stopping transaction cleaner")
				return
			case <-tc.stopCh:
				tc.logger.Info().Msg("stop signal received, stopping transaction cleaner")
				return
			case <-ticker.C:
				if _, err := tc.performCleanup(); err != nil {
					tc.logger.Error().Err(err).Msg("failed to perform scheduled cleanup")
				}
			}
		}
	}()

	return nil
}

// Stop gracefully stops the transaction cleaner
func (tc *TransactionCleaner) Stop() {
	tc.stopOnce.Do(func() {
		tc.logger.Info().Msg("stopping transaction cleaner")
		close(tc.stopCh)
	})
}

func (tc *TransactionCleaner) performCleanup() (int64, error) {
	start := time.Now()

	deleted, err := tc.database.DeleteOldSubmittedTransactions(tc.retentionPeriod)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		tc.logger.Info().
			Int64("deleted_count", deleted).
			Dur("duration", time.Since(start)).
			Msg("transaction cleanup completed")
	} else {
		tc.logger.Debug().
			Dur("duration", time.Since(start)).
			Msg("transaction cleanup completed - no transactions to delete")
	}
	return deleted, nil
}
