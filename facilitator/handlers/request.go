package handlers

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	ferrors "github.com/pushchain/bridge-node/facilitator/errors"
	"github.com/pushchain/bridge-node/facilitator/store"
)

// RequestEventKind describes the field layout of one request event kind.
type RequestEventKind struct {
	Name        string
	Type        store.RequestType
	HashField   string
	SenderField string
	ProxyField  string
	GatewayKey  string
}

// Request event kinds, keyed by their batch entity type.
var (
	StakeRequested = RequestEventKind{
		Name:        "stakeRequesteds",
		Type:        store.RequestTypeStake,
		HashField:   "stakeRequestHash",
		SenderField: "staker",
		ProxyField:  "stakerProxy",
		GatewayKey:  "gateway",
	}
	RedeemRequested = RequestEventKind{
		Name:        "redeemRequesteds",
		Type:        store.RequestTypeRedeem,
		HashField:   "redeemRequestHash",
		SenderField: "redeemer",
		ProxyField:  "redeemerProxy",
		GatewayKey:  "cogateway",
	}
)

// RequestHandler creates stake or redeem requests.
type RequestHandler struct {
	kind   RequestEventKind
	deps   Deps
	logger zerolog.Logger
}

// NewRequestHandler creates the handler for kind.
func NewRequestHandler(kind RequestEventKind, deps Deps) *RequestHandler {
	return &RequestHandler{
		kind: kind,
		deps: deps,
		logger: deps.Logger.With().
			Str("component", "request_handler").
			Str("kind", kind.Name).
			Logger(),
	}
}

// Persist creates a request per record. A request hash that is already
// stored is a replayed event and is skipped.
func (h *RequestHandler) Persist(ctx context.Context, records []Record) ([]*store.Request, error) {
	reqs, err := parseAll(records, h.parse)
	if err != nil {
		return nil, err
	}
	keys, groups := groupBy(reqs, func(r *store.Request) string { return r.RequestHash })
	return persistByKey(ctx, h.deps.Concurrency, keys, groups, h.persistKey)
}

func (h *RequestHandler) parse(rec Record) (*store.Request, error) {
	p := newRecordParser(h.kind.Name, rec)
	req := &store.Request{RequestType: store.Ptr(h.kind.Type)}
	if hash := p.hash(h.kind.HashField, true); hash != nil {
		req.RequestHash = *hash
	}
	req.Amount = p.decimal("amount", false)
	req.Beneficiary = p.address("beneficiary", false)
	req.GasPrice = p.decimal("gasPrice", false)
	req.GasLimit = p.decimal("gasLimit", false)
	req.Nonce = p.number("nonce", false)
	req.Sender = p.address(h.kind.SenderField, false)
	req.SenderProxy = p.address(h.kind.ProxyField, false)
	req.Gateway = p.address(h.kind.GatewayKey, false)
	req.BlockNumber = p.number(fieldBlockNumber, false)
	return req, p.err
}

func (h *RequestHandler) persistKey(ctx context.Context, requestHash string, reqs []*store.Request) ([]*store.Request, error) {
	var touched []*store.Request
	for _, req := range reqs {
		created, err := h.deps.Repos.Request.Create(ctx, req)
		if errors.Is(err, ferrors.ErrUniquenessViolation) {
			h.deps.Metrics.RecordsSkipped.WithLabelValues(h.kind.Name).Inc()
			h.logger.Warn().Str("request_hash", requestHash).Msg("request already stored, skipping")
			continue
		}
		if err != nil {
			return touched, err
		}

		linked, err := h.linkMessage(ctx, created)
		if err != nil {
			return touched, err
		}
		touched = append(touched, linked)
	}
	return touched, nil
}

// linkMessage fills MessageHash when the message for req is already stored.
// Requests created before their message are linked by the message handler.
func (h *RequestHandler) linkMessage(ctx context.Context, req *store.Request) (*store.Request, error) {
	if req.MessageHash != nil || req.Gateway == nil || req.SenderProxy == nil || req.Nonce == nil {
		return req, nil
	}
	msg, err := h.deps.Repos.Message.FindBySenderNonce(ctx, *req.Gateway, *req.SenderProxy, *req.Nonce)
	if err != nil || msg == nil {
		return req, err
	}
	return h.deps.Repos.Request.Save(ctx, &store.Request{
		RequestHash: req.RequestHash,
		MessageHash: store.Ptr(msg.MessageHash),
	})
}
