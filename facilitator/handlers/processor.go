package handlers

import (
	"context"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	ferrors "github.com/pushchain/bridge-node/facilitator/errors"
	"github.com/pushchain/bridge-node/facilitator/store"
)

// Processor dispatches a batch of records, keyed by entity type, to the
// registered handlers. It drops records whose `uts` is not newer than the
// high-water mark stored for their contract and entity type, and advances
// that mark once the handler has succeeded.
type Processor struct {
	registry *Registry
	deps     Deps
	logger   zerolog.Logger
}

// NewProcessor creates a processor over registry.
func NewProcessor(registry *Registry, deps Deps) *Processor {
	return &Processor{
		registry: registry,
		deps:     deps,
		logger:   deps.Logger.With().Str("component", "processor").Logger(),
	}
}

// Handle processes every entity type in batch. Kinds run in registration
// order; a failing kind does not stop the others. All failures are returned
// together as an *errors.ErrorGroup.
func (p *Processor) Handle(ctx context.Context, batch map[string][]Record) error {
	errs := ferrors.NewErrorGroup()

	for _, kind := range p.registry.Kinds() {
		records, ok := batch[kind]
		if !ok || len(records) == 0 {
			continue
		}
		errs.Add(p.handleKind(ctx, kind, records))
	}

	var unknown []string
	for kind := range batch {
		if _, ok := p.registry.Get(kind); !ok {
			unknown = append(unknown, kind)
		}
	}
	sort.Strings(unknown)
	for _, kind := range unknown {
		p.logger.Warn().Str("kind", kind).Int("records", len(batch[kind])).Msg("no handler for entity type, skipping")
	}

	return errs.ErrorOrNil()
}

func (p *Processor) handleKind(ctx context.Context, kind string, records []Record) error {
	handler, _ := p.registry.Get(kind)

	fresh, marks, err := p.filterReplays(ctx, kind, records)
	if err != nil {
		return err
	}
	if len(fresh) == 0 {
		return nil
	}

	p.deps.Metrics.RecordsProcessed.WithLabelValues(kind).Add(float64(len(fresh)))
	timer := prometheus.NewTimer(p.deps.Metrics.HandlerDuration.WithLabelValues(kind))
	touched, err := handler.Handle(ctx, fresh)
	timer.ObserveDuration()
	if err != nil {
		code := "UNKNOWN"
		var fErr *ferrors.FacilitatorError
		if ferrors.As(err, &fErr) {
			code = string(fErr.Code)
		}
		p.deps.Metrics.HandlerErrors.WithLabelValues(kind, code).Inc()
		p.logger.Error().Err(err).Str("kind", kind).Int("records", len(fresh)).Msg("handler failed")
		return ferrors.Wrapf(err, "handle %s", kind)
	}

	for contract, uts := range marks {
		if _, err := p.deps.Repos.ContractEntity.Save(ctx, &store.ContractEntity{
			ContractAddress: contract,
			EntityType:      kind,
			Timestamp:       uts,
		}); err != nil {
			return ferrors.Wrapf(err, "advance %s mark for %s", kind, contract)
		}
	}

	p.logger.Debug().
		Str("kind", kind).
		Int("records", len(fresh)).
		Int("touched", touched).
		Msg("processed records")
	return nil
}

// filterReplays drops records at or below their contract's stored mark and
// returns, per contract, the highest timestamp among the kept records.
func (p *Processor) filterReplays(ctx context.Context, kind string, records []Record) ([]Record, map[string]uint64, error) {
	stored := make(map[string]uint64)
	marks := make(map[string]uint64)
	fresh := make([]Record, 0, len(records))

	for _, rec := range records {
		src := recordSource(rec)
		if src.contractAddress == "" || src.uts == 0 {
			fresh = append(fresh, rec)
			continue
		}

		mark, ok := stored[src.contractAddress]
		if !ok {
			ce, err := p.deps.Repos.ContractEntity.Get(ctx, src.contractAddress, kind)
			if err != nil {
				return nil, nil, err
			}
			if ce != nil {
				mark = ce.Timestamp
			}
			stored[src.contractAddress] = mark
		}

		if src.uts <= mark {
			p.deps.Metrics.RecordsReplayed.WithLabelValues(kind).Inc()
			continue
		}
		fresh = append(fresh, rec)
		if src.uts > marks[src.contractAddress] {
			marks[src.contractAddress] = src.uts
		}
	}

	if dropped := len(records) - len(fresh); dropped > 0 {
		p.logger.Debug().Str("kind", kind).Int("dropped", dropped).Msg("dropped replayed records")
	}
	return fresh, marks, nil
}
