package handlers

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	ferrors "github.com/pushchain/bridge-node/facilitator/errors"
	"github.com/pushchain/bridge-node/facilitator/store"
)

// AvailableStateRootKind is the batch entity type of anchor state-root events.
const AvailableStateRootKind = "availableStateRoots"

type anchorEvent struct {
	anchorGA    string
	blockHeight uint64
}

// AnchorHandler records the latest block height anchored by each anchor.
type AnchorHandler struct {
	deps   Deps
	logger zerolog.Logger
}

// NewAnchorHandler creates the state-root handler.
func NewAnchorHandler(deps Deps) *AnchorHandler {
	return &AnchorHandler{
		deps:   deps,
		logger: deps.Logger.With().Str("component", "anchor_handler").Logger(),
	}
}

// Persist advances each anchor to the heights in records. Heights at or
// below the stored one are skipped; they are old state roots, not errors.
func (h *AnchorHandler) Persist(ctx context.Context, records []Record) ([]*store.Anchor, error) {
	events, err := parseAll(records, parseAnchorEvent)
	if err != nil {
		return nil, err
	}
	keys, groups := groupBy(events, func(ev anchorEvent) string { return ev.anchorGA })
	return persistByKey(ctx, h.deps.Concurrency, keys, groups, h.persistKey)
}

func parseAnchorEvent(rec Record) (anchorEvent, error) {
	p := newRecordParser(AvailableStateRootKind, rec)
	var ev anchorEvent
	if ga := p.address(fieldContractAddress, true); ga != nil {
		ev.anchorGA = *ga
	}
	if height := p.number("_blockHeight", true); height != nil {
		ev.blockHeight = *height
	}
	return ev, p.err
}

func (h *AnchorHandler) persistKey(ctx context.Context, anchorGA string, events []anchorEvent) ([]*store.Anchor, error) {
	var touched []*store.Anchor
	for _, ev := range events {
		existing, err := h.deps.Repos.Anchor.Get(ctx, anchorGA)
		if err != nil {
			return touched, err
		}
		if existing != nil && ev.blockHeight <= existing.LastAnchoredBlockNumber {
			h.skipStale(anchorGA, ev.blockHeight)
			continue
		}

		saved, err := h.deps.Repos.Anchor.Save(ctx, &store.Anchor{
			AnchorGA:                anchorGA,
			LastAnchoredBlockNumber: ev.blockHeight,
		})
		if errors.Is(err, ferrors.ErrNonMonotonicUpdate) {
			// A concurrent Persist advanced the anchor after the check above.
			h.skipStale(anchorGA, ev.blockHeight)
			continue
		}
		if err != nil {
			return touched, err
		}
		touched = append(touched, saved)
		h.logger.Info().
			Str("anchor_ga", anchorGA).
			Uint64("block_height", saved.LastAnchoredBlockNumber).
			Msg("anchor advanced")
	}
	return touched, nil
}

func (h *AnchorHandler) skipStale(anchorGA string, blockHeight uint64) {
	h.deps.Metrics.RecordsSkipped.WithLabelValues(AvailableStateRootKind).Inc()
	h.logger.Debug().
		Str("anchor_ga", anchorGA).
		Uint64("block_height", blockHeight).
		Msg("skipping stale state root")
}
