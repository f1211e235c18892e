package handlers

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	ferrors "github.com/pushchain/bridge-node/facilitator/errors"
	"github.com/pushchain/bridge-node/facilitator/store"
)

// GatewayProvenKind is the batch entity type of prove-gateway events.
const GatewayProvenKind = "gatewayProvens"

type gatewayProvenEvent struct {
	gatewayGA   string
	remoteGA    *string
	blockHeight uint64
}

// GatewayProvenHandler records the remote block height at which each
// gateway's counterpart was last proven.
type GatewayProvenHandler struct {
	deps   Deps
	logger zerolog.Logger
}

// NewGatewayProvenHandler creates the prove-gateway handler.
func NewGatewayProvenHandler(deps Deps) *GatewayProvenHandler {
	return &GatewayProvenHandler{
		deps:   deps,
		logger: deps.Logger.With().Str("component", "gateway_proven_handler").Logger(),
	}
}

// Persist advances the proved height of each gateway. A height that is not
// above the stored one is skipped.
func (h *GatewayProvenHandler) Persist(ctx context.Context, records []Record) ([]*store.Gateway, error) {
	events, err := parseAll(records, parseGatewayProvenEvent)
	if err != nil {
		return nil, err
	}
	keys, groups := groupBy(events, func(ev gatewayProvenEvent) string { return ev.gatewayGA })
	return persistByKey(ctx, h.deps.Concurrency, keys, groups, h.persistKey)
}

func parseGatewayProvenEvent(rec Record) (gatewayProvenEvent, error) {
	p := newRecordParser(GatewayProvenKind, rec)
	var ev gatewayProvenEvent
	if ga := p.address(fieldContractAddress, true); ga != nil {
		ev.gatewayGA = *ga
	}
	ev.remoteGA = p.address("_gateway", false)
	if height := p.number("_blockHeight", true); height != nil {
		ev.blockHeight = *height
	}
	return ev, p.err
}

func (h *GatewayProvenHandler) persistKey(ctx context.Context, gatewayGA string, events []gatewayProvenEvent) ([]*store.Gateway, error) {
	var touched []*store.Gateway
	for _, ev := range events {
		existing, err := h.deps.Repos.Gateway.Get(ctx, gatewayGA)
		if err != nil {
			return touched, err
		}
		if existing != nil && existing.LastRemoteGatewayProvedBlockHeight != nil &&
			ev.blockHeight <= *existing.LastRemoteGatewayProvedBlockHeight {
			h.skipStale(gatewayGA, ev.blockHeight)
			continue
		}

		saved, err := h.deps.Repos.Gateway.Save(ctx, &store.Gateway{
			GatewayGA:                          gatewayGA,
			RemoteGA:                           ev.remoteGA,
			LastRemoteGatewayProvedBlockHeight: store.Ptr(ev.blockHeight),
		})
		if errors.Is(err, ferrors.ErrNonMonotonicUpdate) {
			// A concurrent Persist proved a higher block after the check above.
			h.skipStale(gatewayGA, ev.blockHeight)
			continue
		}
		if err != nil {
			return touched, err
		}
		touched = append(touched, saved)

		if saved.RemoteGA != nil {
			if err := h.reportConfirmable(ctx, *saved.RemoteGA, ev.blockHeight); err != nil {
				return touched, err
			}
		}
	}
	return touched, nil
}

func (h *GatewayProvenHandler) skipStale(gatewayGA string, blockHeight uint64) {
	h.deps.Metrics.RecordsSkipped.WithLabelValues(GatewayProvenKind).Inc()
	h.logger.Debug().
		Str("gateway_ga", gatewayGA).
		Uint64("block_height", blockHeight).
		Msg("skipping stale gateway proof")
}

// reportConfirmable counts messages declared on remoteGA that the new proof
// covers and that still await confirmation on this side.
func (h *GatewayProvenHandler) reportConfirmable(ctx context.Context, remoteGA string, blockHeight uint64) error {
	msgs, err := h.deps.Repos.Message.GetMessagesForConfirmation(ctx, remoteGA, blockHeight)
	if err != nil {
		return err
	}
	h.deps.Metrics.ConfirmableMessages.WithLabelValues(remoteGA).Set(float64(len(msgs)))
	h.logger.Info().
		Str("remote_gateway", remoteGA).
		Uint64("block_height", blockHeight).
		Int("confirmable", len(msgs)).
		Msg("gateway proven")
	return nil
}
