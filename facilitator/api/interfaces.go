package api

import (
	"context"

	"github.com/pushchain/bridge-node/facilitator/repository"
	"github.com/pushchain/bridge-node/facilitator/store"
)

// StateReader defines the lookups needed by the API server. Every method
// returns (nil, nil) for a key that is not stored.
type StateReader interface {
	GetMessage(ctx context.Context, messageHash string) (*store.Message, error)
	GetAnchor(ctx context.Context, anchorGA string) (*store.Anchor, error)
	GetGateway(ctx context.Context, gatewayGA string) (*store.Gateway, error)
	GetRequest(ctx context.Context, requestHash string) (*store.Request, error)
	GetRequestByMessageHash(ctx context.Context, messageHash string) (*store.Request, error)
	GetTransaction(ctx context.Context, id uint64) (*store.Transaction, error)
}

// RepositoryReader serves StateReader from the repositories.
type RepositoryReader struct {
	repos *repository.Repositories
}

// NewRepositoryReader wraps repos.
func NewRepositoryReader(repos *repository.Repositories) *RepositoryReader {
	return &RepositoryReader{repos: repos}
}

func (r *RepositoryReader) GetMessage(ctx context.Context, messageHash string) (*store.Message, error) {
	return r.repos.Message.Get(ctx, messageHash)
}

func (r *RepositoryReader) GetAnchor(ctx context.Context, anchorGA string) (*store.Anchor, error) {
	return r.repos.Anchor.Get(ctx, anchorGA)
}

func (r *RepositoryReader) GetGateway(ctx context.Context, gatewayGA string) (*store.Gateway, error) {
	return r.repos.Gateway.Get(ctx, gatewayGA)
}

func (r *RepositoryReader) GetRequest(ctx context.Context, requestHash string) (*store.Request, error) {
	return r.repos.Request.Get(ctx, requestHash)
}

func (r *RepositoryReader) GetRequestByMessageHash(ctx context.Context, messageHash string) (*store.Request, error) {
	return r.repos.Request.GetByMessageHash(ctx, messageHash)
}

func (r *RepositoryReader) GetTransaction(ctx context.Context, id uint64) (*store.Transaction, error) {
	return r.repos.Transaction.Get(ctx, id)
}
