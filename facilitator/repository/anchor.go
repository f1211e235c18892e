package repository

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	ferrors "github.com/pushchain/bridge-node/facilitator/errors"
	"github.com/pushchain/bridge-node/facilitator/store"
)

const entityAnchor = "anchor"

// AnchorRepository stores anchors keyed by anchor global address.
// LastAnchoredBlockNumber must strictly increase on every update.
type AnchorRepository struct {
	subject[store.Anchor]

	mu     sync.Mutex
	db     *gorm.DB
	logger zerolog.Logger
}

// NewAnchorRepository creates an anchor repository on db.
func NewAnchorRepository(db *gorm.DB, logger zerolog.Logger) *AnchorRepository {
	return &AnchorRepository{
		db:     db,
		logger: logger.With().Str("component", "anchor_repository").Logger(),
	}
}

// Get returns the anchor with the given address, or nil when there is none.
func (r *AnchorRepository) Get(ctx context.Context, anchorGA string) (*store.Anchor, error) {
	var anchor store.Anchor
	found, err := first(ctx, r.db, &anchor, "anchor_ga = ?", anchorGA)
	if err != nil {
		return nil, ferrors.NewDatabaseError(entityAnchor, "failed to get anchor", err)
	}
	if !found {
		return nil, nil
	}
	return &anchor, nil
}

// Save inserts the anchor or advances its block number. An update that does
// not strictly increase the stored block number fails with
// ErrNonMonotonicUpdate and leaves the row untouched.
func (r *AnchorRepository) Save(ctx context.Context, anchor *store.Anchor) (*store.Anchor, error) {
	saved, err := r.save(ctx, anchor)
	if err != nil {
		return nil, err
	}
	r.notify(ctx, saved)
	return saved, nil
}

func (r *AnchorRepository) save(ctx context.Context, anchor *store.Anchor) (*store.Anchor, error) {
	if anchor == nil || anchor.AnchorGA == "" {
		return nil, ferrors.NewValidationError(entityAnchor, "anchor global address is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.Get(ctx, anchor.AnchorGA)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		row := store.Anchor{
			AnchorGA:                anchor.AnchorGA,
			LastAnchoredBlockNumber: anchor.LastAnchoredBlockNumber,
		}
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, ferrors.NewDatabaseError(entityAnchor, "failed to create anchor", err)
		}
		r.logger.Debug().
			Str("anchor_ga", row.AnchorGA).
			Uint64("block_number", row.LastAnchoredBlockNumber).
			Msg("created anchor")
		return &row, nil
	}

	if anchor.LastAnchoredBlockNumber <= existing.LastAnchoredBlockNumber {
		return nil, ferrors.NewNonMonotonicUpdateError(entityAnchor, anchor.AnchorGA,
			"last_anchored_block_number", existing.LastAnchoredBlockNumber, anchor.LastAnchoredBlockNumber)
	}

	existing.LastAnchoredBlockNumber = anchor.LastAnchoredBlockNumber
	if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, ferrors.NewDatabaseError(entityAnchor, "failed to update anchor", err)
	}

	r.logger.Debug().
		Str("anchor_ga", existing.AnchorGA).
		Uint64("block_number", existing.LastAnchoredBlockNumber).
		Msg("advanced anchor")
	return existing, nil
}
