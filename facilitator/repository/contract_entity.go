package repository

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	ferrors "github.com/pushchain/bridge-node/facilitator/errors"
	"github.com/pushchain/bridge-node/facilitator/store"
)

const entityContractEntity = "contract_entity"

// ContractEntityRepository stores the event timestamp high-water mark per
// (contract address, entity type).
type ContractEntityRepository struct {
	subject[store.ContractEntity]

	mu     sync.Mutex
	db     *gorm.DB
	logger zerolog.Logger
}

// NewContractEntityRepository creates a contract entity repository on db.
func NewContractEntityRepository(db *gorm.DB, logger zerolog.Logger) *ContractEntityRepository {
	return &ContractEntityRepository{
		db:     db,
		logger: logger.With().Str("component", "contract_entity_repository").Logger(),
	}
}

// Get returns the high-water mark for the pair, or nil when none was recorded.
func (r *ContractEntityRepository) Get(ctx context.Context, contractAddress, entityType string) (*store.ContractEntity, error) {
	var ce store.ContractEntity
	found, err := first(ctx, r.db, &ce, "contract_address = ? AND entity_type = ?", contractAddress, entityType)
	if err != nil {
		return nil, ferrors.NewDatabaseError(entityContractEntity, "failed to get contract entity", err)
	}
	if !found {
		return nil, nil
	}
	return &ce, nil
}

// Save records ce.Timestamp when it is newer than the stored mark. Older
// timestamps leave the stored mark in place and return it.
func (r *ContractEntityRepository) Save(ctx context.Context, ce *store.ContractEntity) (*store.ContractEntity, error) {
	saved, err := r.save(ctx, ce)
	if err != nil {
		return nil, err
	}
	r.notify(ctx, saved)
	return saved, nil
}

func (r *ContractEntityRepository) save(ctx context.Context, ce *store.ContractEntity) (*store.ContractEntity, error) {
	if ce == nil || ce.ContractAddress == "" || ce.EntityType == "" {
		return nil, ferrors.NewValidationError(entityContractEntity, "contract address and entity type are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.Get(ctx, ce.ContractAddress, ce.EntityType)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		row := store.ContractEntity{
			ContractAddress: ce.ContractAddress,
			EntityType:      ce.EntityType,
			Timestamp:       ce.Timestamp,
		}
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, ferrors.NewDatabaseError(entityContractEntity, "failed to create contract entity", err)
		}
		return &row, nil
	}

	if ce.Timestamp <= existing.Timestamp {
		return existing, nil
	}
	existing.Timestamp = ce.Timestamp
	if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, ferrors.NewDatabaseError(entityContractEntity, "failed to update contract entity", err)
	}
	r.logger.Debug().
		Str("contract_address", existing.ContractAddress).
		Str("entity_type", existing.EntityType).
		Uint64("timestamp", existing.Timestamp).
		Msg("advanced contract entity")
	return existing, nil
}
