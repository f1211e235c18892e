package handlers

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pushchain/bridge-node/facilitator/metrics"
	"github.com/pushchain/bridge-node/facilitator/repository"
	"github.com/pushchain/bridge-node/facilitator/store"
)

// Deps are the collaborators shared by all handlers.
type Deps struct {
	Repos       *repository.Repositories
	Metrics     *metrics.Metrics
	Concurrency int
	Logger      zerolog.Logger
}

// Side selects the half of a message an event speaks about.
type Side int

const (
	SideSource Side = iota
	SideTarget
)

func (s Side) String() string {
	if s == SideTarget {
		return "target"
	}
	return "source"
}

// MessageEventKind describes how one message event kind maps onto a Message.
// Empty field names mean the event is not authoritative for that field.
type MessageEventKind struct {
	Name      string
	Type      store.MessageType
	Direction store.MessageDirection
	Side      Side
	Status    store.MessageStatus

	SenderField   string
	NonceField    string
	SecretField   string
	HashLockField string

	// DeclaresGateway marks events emitted by the message's own gateway:
	// contractAddress becomes GatewayAddress.
	DeclaresGateway bool
	// RecordsDeclaration sets SourceDeclarationBlockHeight from blockNumber.
	RecordsDeclaration bool
}

// Message event kinds, keyed by their batch entity type.
var (
	StakeIntentDeclared = MessageEventKind{
		Name: "stakeIntentDeclareds", Type: store.MessageTypeStake, Direction: store.DirectionOriginToAuxiliary,
		Side: SideSource, Status: store.MessageStatusDeclared,
		SenderField: "_staker", NonceField: "_stakerNonce",
		DeclaresGateway: true, RecordsDeclaration: true,
	}
	StakeProgressed = MessageEventKind{
		Name: "stakeProgresseds", Type: store.MessageTypeStake, Direction: store.DirectionOriginToAuxiliary,
		Side: SideSource, Status: store.MessageStatusProgressed,
		SenderField: "_staker", NonceField: "_stakerNonce", SecretField: "_unlockSecret",
		DeclaresGateway: true,
	}
	StakeIntentConfirmed = MessageEventKind{
		Name: "stakeIntentConfirmeds", Type: store.MessageTypeStake, Direction: store.DirectionOriginToAuxiliary,
		Side: SideTarget, Status: store.MessageStatusDeclared,
		SenderField: "_staker", NonceField: "_stakerNonce", HashLockField: "_hashLock",
	}
	MintProgressed = MessageEventKind{
		Name: "mintProgresseds", Type: store.MessageTypeStake, Direction: store.DirectionOriginToAuxiliary,
		Side: SideTarget, Status: store.MessageStatusProgressed,
		SenderField: "_staker", SecretField: "_unlockSecret",
	}
	RedeemIntentDeclared = MessageEventKind{
		Name: "redeemIntentDeclareds", Type: store.MessageTypeRedeem, Direction: store.DirectionAuxiliaryToOrigin,
		Side: SideSource, Status: store.MessageStatusDeclared,
		SenderField: "_redeemer", NonceField: "_redeemerNonce",
		DeclaresGateway: true, RecordsDeclaration: true,
	}
	RedeemProgressed = MessageEventKind{
		Name: "redeemProgresseds", Type: store.MessageTypeRedeem, Direction: store.DirectionAuxiliaryToOrigin,
		Side: SideSource, Status: store.MessageStatusProgressed,
		SenderField: "_redeemer", NonceField: "_redeemerNonce", SecretField: "_unlockSecret",
		DeclaresGateway: true,
	}
	RedeemIntentConfirmed = MessageEventKind{
		Name: "redeemIntentConfirmeds", Type: store.MessageTypeRedeem, Direction: store.DirectionAuxiliaryToOrigin,
		Side: SideTarget, Status: store.MessageStatusDeclared,
		SenderField: "_redeemer", NonceField: "_redeemerNonce", HashLockField: "_hashLock",
	}
	UnstakeProgressed = MessageEventKind{
		Name: "unstakeProgresseds", Type: store.MessageTypeRedeem, Direction: store.DirectionAuxiliaryToOrigin,
		Side: SideTarget, Status: store.MessageStatusProgressed,
		SenderField: "_redeemer", SecretField: "_unlockSecret",
	}
)

// MessageEventKinds lists every message event kind in lifecycle order.
var MessageEventKinds = []MessageEventKind{
	StakeIntentDeclared,
	StakeProgressed,
	StakeIntentConfirmed,
	MintProgressed,
	RedeemIntentDeclared,
	RedeemProgressed,
	RedeemIntentConfirmed,
	UnstakeProgressed,
}

type messageEvent struct {
	messageHash string
	gateway     *string
	sender      *string
	nonce       *uint64
	secret      *string
	hashLock    *string
	blockNumber *uint64
}

// MessageHandler persists one message event kind.
type MessageHandler struct {
	kind   MessageEventKind
	deps   Deps
	logger zerolog.Logger
}

// NewMessageHandler creates the handler for kind.
func NewMessageHandler(kind MessageEventKind, deps Deps) *MessageHandler {
	return &MessageHandler{
		kind: kind,
		deps: deps,
		logger: deps.Logger.With().
			Str("component", "message_handler").
			Str("kind", kind.Name).
			Logger(),
	}
}

// Persist applies records to their messages and returns every saved message.
// A missing or malformed message hash fails the batch before any write.
func (h *MessageHandler) Persist(ctx context.Context, records []Record) ([]*store.Message, error) {
	events, err := parseAll(records, h.parse)
	if err != nil {
		return nil, err
	}
	keys, groups := groupBy(events, func(ev messageEvent) string { return ev.messageHash })
	return persistByKey(ctx, h.deps.Concurrency, keys, groups, h.persistKey)
}

func (h *MessageHandler) parse(rec Record) (messageEvent, error) {
	p := newRecordParser(h.kind.Name, rec)
	var ev messageEvent
	if hash := p.hash("_messageHash", true); hash != nil {
		ev.messageHash = *hash
	}
	if h.kind.DeclaresGateway {
		ev.gateway = p.address(fieldContractAddress, false)
	}
	if h.kind.SenderField != "" {
		ev.sender = p.address(h.kind.SenderField, false)
	}
	if h.kind.NonceField != "" {
		ev.nonce = p.number(h.kind.NonceField, false)
	}
	if h.kind.SecretField != "" {
		ev.secret = p.secret(h.kind.SecretField)
	}
	if h.kind.HashLockField != "" {
		ev.hashLock = p.hash(h.kind.HashLockField, false)
	}
	if h.kind.RecordsDeclaration {
		ev.blockNumber = p.number(fieldBlockNumber, false)
	}
	return ev, p.err
}

func (h *MessageHandler) persistKey(ctx context.Context, hash string, events []messageEvent) ([]*store.Message, error) {
	touched := make([]*store.Message, 0, len(events))
	for _, ev := range events {
		saved, err := h.deps.Repos.Message.Apply(ctx, hash, func(existing *store.Message) *store.Message {
			return h.buildUpdate(ev, existing)
		})
		if err != nil {
			return touched, err
		}
		touched = append(touched, saved)

		if err := h.linkRequests(ctx, saved); err != nil {
			return touched, err
		}
	}
	return touched, nil
}

// buildUpdate derives the partial update for ev. The status is proposed only
// when it is forward of the stored one; a late or replayed event still
// contributes the fields it is authoritative for.
func (h *MessageHandler) buildUpdate(ev messageEvent, existing *store.Message) *store.Message {
	update := &store.Message{
		MessageHash: ev.messageHash,
		Type:        store.Ptr(h.kind.Type),
		Direction:   store.Ptr(h.kind.Direction),
		Sender:      ev.sender,
		Nonce:       ev.nonce,
		Secret:      ev.secret,
		HashLock:    ev.hashLock,

		GatewayAddress:               ev.gateway,
		SourceDeclarationBlockHeight: ev.blockNumber,
	}

	var stored *store.MessageStatus
	if existing != nil {
		if h.kind.Side == SideSource {
			stored = existing.SourceStatus
		} else {
			stored = existing.TargetStatus
		}
	}
	current := store.StatusOrUndeclared(stored)
	if current.IsForward(h.kind.Status) {
		if h.kind.Side == SideSource {
			update.SourceStatus = store.Ptr(h.kind.Status)
		} else {
			update.TargetStatus = store.Ptr(h.kind.Status)
		}
	} else if current != h.kind.Status {
		h.logger.Debug().
			Str("message_hash", ev.messageHash).
			Str("side", h.kind.Side.String()).
			Str("stored", string(current)).
			Str("event", string(h.kind.Status)).
			Msg("event status is behind stored status, keeping stored")
	}
	return update
}

// linkRequests sets MessageHash on requests that produced msg. The link is
// advisory: a request may be observed before or after its message.
func (h *MessageHandler) linkRequests(ctx context.Context, msg *store.Message) error {
	if msg.GatewayAddress == nil || msg.Sender == nil || msg.Nonce == nil {
		return nil
	}
	reqs, err := h.deps.Repos.Request.FindUnlinked(ctx, *msg.GatewayAddress, *msg.Sender, *msg.Nonce)
	if err != nil {
		return err
	}
	for _, req := range reqs {
		if _, err := h.deps.Repos.Request.Save(ctx, &store.Request{
			RequestHash: req.RequestHash,
			MessageHash: store.Ptr(msg.MessageHash),
		}); err != nil {
			return err
		}
		h.logger.Debug().
			Str("request_hash", req.RequestHash).
			Str("message_hash", msg.MessageHash).
			Msg("linked request to message")
	}
	return nil
}
