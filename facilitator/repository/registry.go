package repository

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pushchain/bridge-node/facilitator/config"
	"github.com/pushchain/bridge-node/facilitator/db"
	"github.com/pushchain/bridge-node/facilitator/store"
)

// Repositories is the single construction point for every repository. All of
// them share one database handle, which is closed last by Close.
type Repositories struct {
	Message        *MessageRepository
	Anchor         *AnchorRepository
	Gateway        *GatewayRepository
	Transaction    *TransactionRepository
	Request        *RequestRepository
	ContractEntity *ContractEntityRepository

	database *db.DB
}

// NewRepositories builds all repositories on database.
func NewRepositories(database *db.DB, logger zerolog.Logger) *Repositories {
	client := database.Client()
	return &Repositories{
		Message:        NewMessageRepository(client, logger),
		Anchor:         NewAnchorRepository(client, logger),
		Gateway:        NewGatewayRepository(client, logger),
		Transaction:    NewTransactionRepository(client, logger),
		Request:        NewRequestRepository(client, logger),
		ContractEntity: NewContractEntityRepository(client, logger),
		database:       database,
	}
}

// SeedGateways saves the configured gateways so that later proofs and
// queries find their static fields. Existing rows are merged, never reset.
func (r *Repositories) SeedGateways(ctx context.Context, gateways []config.GatewayConfig) error {
	for _, g := range gateways {
		gw := &store.Gateway{
			GatewayGA:   strings.ToLower(g.GatewayGA),
			RemoteGA:    store.Ptr(strings.ToLower(g.RemoteGA)),
			Chain:       store.Ptr(g.Chain),
			GatewayType: store.Ptr(g.GatewayType),
			AnchorGA:    store.Ptr(strings.ToLower(g.AnchorGA)),
		}
		if g.TokenAddress != "" {
			gw.TokenAddress = store.Ptr(strings.ToLower(g.TokenAddress))
		}
		if _, err := r.Gateway.Save(ctx, gw); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the shared database handle.
func (r *Repositories) Close() error {
	return r.database.Close()
}
