package repository

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	ferrors "github.com/pushchain/bridge-node/facilitator/errors"
	"github.com/pushchain/bridge-node/facilitator/store"
)

const entityRequest = "request"

// RequestRepository stores stake and redeem requests keyed by request hash.
type RequestRepository struct {
	subject[store.Request]

	mu     sync.Mutex
	db     *gorm.DB
	logger zerolog.Logger
}

// NewRequestRepository creates a request repository on db.
func NewRequestRepository(db *gorm.DB, logger zerolog.Logger) *RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger.With().Str("component", "request_repository").Logger(),
	}
}

// Get returns the request with the given hash, or nil when there is none.
func (r *RequestRepository) Get(ctx context.Context, requestHash string) (*store.Request, error) {
	var req store.Request
	found, err := first(ctx, r.db, &req, "request_hash = ?", requestHash)
	if err != nil {
		return nil, ferrors.NewDatabaseError(entityRequest, "failed to get request", err)
	}
	if !found {
		return nil, nil
	}
	return &req, nil
}

// GetByMessageHash returns the request linked to messageHash, or nil.
func (r *RequestRepository) GetByMessageHash(ctx context.Context, messageHash string) (*store.Request, error) {
	var req store.Request
	found, err := first(ctx, r.db, &req, "message_hash = ?", messageHash)
	if err != nil {
		return nil, ferrors.NewDatabaseError(entityRequest, "failed to get request by message hash", err)
	}
	if !found {
		return nil, nil
	}
	return &req, nil
}

// FindUnlinked returns requests of gateway made through senderProxy with the
// given nonce that are not linked to a message yet.
func (r *RequestRepository) FindUnlinked(
	ctx context.Context,
	gateway, senderProxy string,
	nonce uint64,
) ([]*store.Request, error) {
	var reqs []*store.Request
	err := r.db.WithContext(ctx).
		Where("message_hash IS NULL AND gateway = ? AND sender_proxy = ? AND nonce = ?", gateway, senderProxy, nonce).
		Order("block_number ASC").
		Find(&reqs).Error
	if err != nil {
		return nil, ferrors.NewDatabaseError(entityRequest, "failed to query unlinked requests", err)
	}
	return reqs, nil
}

// Create inserts a new request. A request hash that already exists fails with
// ErrUniquenessViolation and the stored request is left unmodified.
func (r *RequestRepository) Create(ctx context.Context, req *store.Request) (*store.Request, error) {
	created, err := r.create(ctx, req)
	if err != nil {
		return nil, err
	}
	r.notify(ctx, created)
	return created, nil
}

func (r *RequestRepository) create(ctx context.Context, req *store.Request) (*store.Request, error) {
	if req == nil || req.RequestHash == "" {
		return nil, ferrors.NewValidationError(entityRequest, "request hash is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.Get(ctx, req.RequestHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ferrors.NewUniquenessViolationError(entityRequest, req.RequestHash)
	}

	row := *req
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ferrors.NewUniquenessViolationError(entityRequest, req.RequestHash)
		}
		return nil, ferrors.NewDatabaseError(entityRequest, "failed to create request", err)
	}
	r.logger.Debug().Str("request_hash", row.RequestHash).Msg("created request")
	return &row, nil
}

// Save merges the set fields of req into the stored request, creating it when
// absent. Used to attach the message hash once the message is known.
func (r *RequestRepository) Save(ctx context.Context, req *store.Request) (*store.Request, error) {
	saved, err := r.save(ctx, req)
	if err != nil {
		return nil, err
	}
	r.notify(ctx, saved)
	return saved, nil
}

func (r *RequestRepository) save(ctx context.Context, req *store.Request) (*store.Request, error) {
	if req == nil || req.RequestHash == "" {
		return nil, ferrors.NewValidationError(entityRequest, "request hash is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.Get(ctx, req.RequestHash)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		row := *req
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, ferrors.NewDatabaseError(entityRequest, "failed to create request", err)
		}
		return &row, nil
	}

	if !existing.Merge(req) {
		return existing, nil
	}
	if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, ferrors.NewDatabaseError(entityRequest, "failed to update request", err)
	}
	r.logger.Debug().Str("request_hash", existing.RequestHash).Msg("updated request")
	return existing, nil
}
