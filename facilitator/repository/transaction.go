package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	ferrors "github.com/pushchain/bridge-node/facilitator/errors"
	"github.com/pushchain/bridge-node/facilitator/store"
)

const entityTransaction = "transaction"

// TransactionRepository stores queued and submitted transactions.
type TransactionRepository struct {
	subject[store.Transaction]

	mu     sync.Mutex
	db     *gorm.DB
	logger zerolog.Logger
}

// NewTransactionRepository creates a transaction repository on db.
func NewTransactionRepository(db *gorm.DB, logger zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger.With().Str("component", "transaction_repository").Logger(),
	}
}

// Get returns the transaction with the given id, or nil when there is none.
func (r *TransactionRepository) Get(ctx context.Context, id uint64) (*store.Transaction, error) {
	var tx store.Transaction
	found, err := first(ctx, r.db, &tx, "id = ?", id)
	if err != nil {
		return nil, ferrors.NewDatabaseError(entityTransaction, "failed to get transaction", err)
	}
	if !found {
		return nil, nil
	}
	return &tx, nil
}

// Save inserts tx when it has no id yet, otherwise merges its set fields into
// the stored row. Saving an id that was never assigned is a validation error.
func (r *TransactionRepository) Save(ctx context.Context, tx *store.Transaction) (*store.Transaction, error) {
	saved, err := r.save(ctx, tx)
	if err != nil {
		return nil, err
	}
	r.notify(ctx, saved)
	return saved, nil
}

func (r *TransactionRepository) save(ctx context.Context, tx *store.Transaction) (*store.Transaction, error) {
	if tx == nil {
		return nil, ferrors.NewValidationError(entityTransaction, "transaction is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if tx.ID == 0 {
		row := *tx
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, ferrors.NewDatabaseError(entityTransaction, "failed to create transaction", err)
		}
		r.logger.Debug().Uint64("id", row.ID).Msg("queued transaction")
		return &row, nil
	}

	existing, err := r.Get(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ferrors.NewValidationError(entityTransaction, fmt.Sprintf("transaction %d not found", tx.ID))
	}

	if !existing.Merge(tx) {
		return existing, nil
	}
	if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, ferrors.NewDatabaseError(entityTransaction, "failed to update transaction", err)
	}
	r.logger.Debug().Uint64("id", existing.ID).Msg("updated transaction")
	return existing, nil
}

// Dequeue returns the oldest transaction that has not been submitted yet
// (no tx hash), or nil when the queue is empty.
func (r *TransactionRepository) Dequeue(ctx context.Context) (*store.Transaction, error) {
	var tx store.Transaction
	err := r.db.WithContext(ctx).
		Where("tx_hash IS NULL").
		Order("id ASC").
		Limit(1).
		Find(&tx).Error
	if err != nil {
		return nil, ferrors.NewDatabaseError(entityTransaction, "failed to dequeue transaction", err)
	}
	if tx.ID == 0 {
		return nil, nil
	}
	return &tx, nil
}
