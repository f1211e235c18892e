package repository

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	ferrors "github.com/pushchain/bridge-node/facilitator/errors"
	"github.com/pushchain/bridge-node/facilitator/store"
)

const entityGateway = "gateway"

// GatewayRepository stores gateways keyed by gateway global address.
// The proved remote block height never decreases.
type GatewayRepository struct {
	subject[store.Gateway]

	mu     sync.Mutex
	db     *gorm.DB
	logger zerolog.Logger
}

// NewGatewayRepository creates a gateway repository on db.
func NewGatewayRepository(db *gorm.DB, logger zerolog.Logger) *GatewayRepository {
	return &GatewayRepository{
		db:     db,
		logger: logger.With().Str("component", "gateway_repository").Logger(),
	}
}

// Get returns the gateway with the given address, or nil when there is none.
func (r *GatewayRepository) Get(ctx context.Context, gatewayGA string) (*store.Gateway, error) {
	var gw store.Gateway
	found, err := first(ctx, r.db, &gw, "gateway_ga = ?", gatewayGA)
	if err != nil {
		return nil, ferrors.NewDatabaseError(entityGateway, "failed to get gateway", err)
	}
	if !found {
		return nil, nil
	}
	return &gw, nil
}

// Save merges the set fields of gw into the stored gateway, creating it when
// absent. Lowering LastRemoteGatewayProvedBlockHeight fails with
// ErrNonMonotonicUpdate.
func (r *GatewayRepository) Save(ctx context.Context, gw *store.Gateway) (*store.Gateway, error) {
	saved, err := r.save(ctx, gw)
	if err != nil {
		return nil, err
	}
	r.notify(ctx, saved)
	return saved, nil
}

func (r *GatewayRepository) save(ctx context.Context, gw *store.Gateway) (*store.Gateway, error) {
	if gw == nil || gw.GatewayGA == "" {
		return nil, ferrors.NewValidationError(entityGateway, "gateway global address is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.Get(ctx, gw.GatewayGA)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		row := *gw
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, ferrors.NewDatabaseError(entityGateway, "failed to create gateway", err)
		}
		r.logger.Debug().Str("gateway_ga", row.GatewayGA).Msg("created gateway")
		return &row, nil
	}

	if gw.LastRemoteGatewayProvedBlockHeight != nil && existing.LastRemoteGatewayProvedBlockHeight != nil &&
		*gw.LastRemoteGatewayProvedBlockHeight < *existing.LastRemoteGatewayProvedBlockHeight {
		return nil, ferrors.NewNonMonotonicUpdateError(entityGateway, gw.GatewayGA,
			"last_remote_gateway_proved_block_height",
			*existing.LastRemoteGatewayProvedBlockHeight, *gw.LastRemoteGatewayProvedBlockHeight)
	}

	if !existing.Merge(gw) {
		return existing, nil
	}
	if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, ferrors.NewDatabaseError(entityGateway, "failed to update gateway", err)
	}
	r.logger.Debug().Str("gateway_ga", existing.GatewayGA).Msg("updated gateway")
	return existing, nil
}
