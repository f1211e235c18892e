package repository

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	ferrors "github.com/pushchain/bridge-node/facilitator/errors"
	"github.com/pushchain/bridge-node/facilitator/store"
)

const entityMessage = "message"

// MessageRepository stores messages keyed by message hash.
//
// Status regressions are rejected with ErrInvariantViolation: a proposed
// SourceStatus or TargetStatus must equal the stored status or lie after it
// in the lattice. Nothing is written when any field of the update is rejected.
type MessageRepository struct {
	subject[store.Message]

	mu     sync.Mutex
	db     *gorm.DB
	logger zerolog.Logger
}

// NewMessageRepository creates a message repository on db.
func NewMessageRepository(db *gorm.DB, logger zerolog.Logger) *MessageRepository {
	return &MessageRepository{
		db:     db,
		logger: logger.With().Str("component", "message_repository").Logger(),
	}
}

// Get returns the message with the given hash, or nil when there is none.
func (r *MessageRepository) Get(ctx context.Context, messageHash string) (*store.Message, error) {
	var msg store.Message
	found, err := first(ctx, r.db, &msg, "message_hash = ?", messageHash)
	if err != nil {
		return nil, ferrors.NewDatabaseError(entityMessage, "failed to get message", err)
	}
	if !found {
		return nil, nil
	}
	return &msg, nil
}

// Create inserts a message that must not exist yet.
func (r *MessageRepository) Create(ctx context.Context, msg *store.Message) (*store.Message, error) {
	created, err := r.create(ctx, msg)
	if err != nil {
		return nil, err
	}
	r.notify(ctx, created)
	return created, nil
}

func (r *MessageRepository) create(ctx context.Context, msg *store.Message) (*store.Message, error) {
	if err := validateMessage(msg); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.Get(ctx, msg.MessageHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ferrors.NewUniquenessViolationError(entityMessage, msg.MessageHash)
	}
	return r.insertLocked(ctx, msg)
}

// Save merges the set fields of msg into the stored message, creating it when
// absent, and returns the persisted result.
func (r *MessageRepository) Save(ctx context.Context, msg *store.Message) (*store.Message, error) {
	saved, err := r.save(ctx, msg)
	if err != nil {
		return nil, err
	}
	r.notify(ctx, saved)
	return saved, nil
}

// Apply builds an update from the stored message (nil when absent) while
// holding the repository lock, then saves it like Save. Handlers use it to
// propose only transitions that are forward from the state they observe.
func (r *MessageRepository) Apply(
	ctx context.Context,
	messageHash string,
	build func(existing *store.Message) *store.Message,
) (*store.Message, error) {
	saved, err := r.apply(ctx, messageHash, build)
	if err != nil {
		return nil, err
	}
	r.notify(ctx, saved)
	return saved, nil
}

func (r *MessageRepository) save(ctx context.Context, msg *store.Message) (*store.Message, error) {
	if err := validateMessage(msg); err != nil {
		return nil, err
	}
	return r.apply(ctx, msg.MessageHash, func(*store.Message) *store.Message { return msg })
}

func (r *MessageRepository) apply(
	ctx context.Context,
	messageHash string,
	build func(existing *store.Message) *store.Message,
) (*store.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.Get(ctx, messageHash)
	if err != nil {
		return nil, err
	}

	var snapshot *store.Message
	if existing != nil {
		cp := *existing
		snapshot = &cp
	}
	msg := build(snapshot)
	if err := validateMessage(msg); err != nil {
		return nil, err
	}
	if msg.MessageHash != messageHash {
		return nil, ferrors.NewValidationError(entityMessage, "update is for "+msg.MessageHash+", not "+messageHash)
	}

	if existing == nil {
		return r.insertLocked(ctx, msg)
	}

	if err := checkMessageUpdate(existing, msg); err != nil {
		r.logger.Warn().
			Err(err).
			Str("message_hash", msg.MessageHash).
			Msg("rejected message update")
		return nil, err
	}

	if !existing.Merge(msg) {
		return existing, nil
	}
	if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, ferrors.NewDatabaseError(entityMessage, "failed to update message", err)
	}

	r.logger.Debug().
		Str("message_hash", existing.MessageHash).
		Str("source_status", string(store.StatusOrUndeclared(existing.SourceStatus))).
		Str("target_status", string(store.StatusOrUndeclared(existing.TargetStatus))).
		Msg("updated message")
	return existing, nil
}

func (r *MessageRepository) insertLocked(ctx context.Context, msg *store.Message) (*store.Message, error) {
	row := *msg
	if row.SourceStatus == nil {
		row.SourceStatus = store.Ptr(store.MessageStatusUndeclared)
	}
	if row.TargetStatus == nil {
		row.TargetStatus = store.Ptr(store.MessageStatusUndeclared)
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ferrors.NewUniquenessViolationError(entityMessage, msg.MessageHash)
		}
		return nil, ferrors.NewDatabaseError(entityMessage, "failed to create message", err)
	}

	r.logger.Debug().
		Str("message_hash", row.MessageHash).
		Str("source_status", string(*row.SourceStatus)).
		Str("target_status", string(*row.TargetStatus)).
		Msg("created message")
	return &row, nil
}

// GetMessagesForConfirmation returns messages of gateway whose source side
// was declared at or below blockHeight and whose target side is still
// undeclared. These are the messages a new gateway proof makes confirmable.
func (r *MessageRepository) GetMessagesForConfirmation(
	ctx context.Context,
	gateway string,
	blockHeight uint64,
) ([]*store.Message, error) {
	var msgs []*store.Message
	err := r.db.WithContext(ctx).
		Where("gateway_address = ? AND source_status = ? AND target_status = ? AND source_declaration_block_height <= ?",
			gateway, store.MessageStatusDeclared, store.MessageStatusUndeclared, blockHeight).
		Order("source_declaration_block_height ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, ferrors.NewDatabaseError(entityMessage, "failed to query messages for confirmation", err)
	}
	return msgs, nil
}

// FindBySenderNonce returns the message declared on gateway by sender with
// nonce, or nil. The sender of a message is the requester's proxy.
func (r *MessageRepository) FindBySenderNonce(
	ctx context.Context,
	gateway, sender string,
	nonce uint64,
) (*store.Message, error) {
	var msg store.Message
	found, err := first(ctx, r.db, &msg, "gateway_address = ? AND sender = ? AND nonce = ?", gateway, sender, nonce)
	if err != nil {
		return nil, ferrors.NewDatabaseError(entityMessage, "failed to find message by sender nonce", err)
	}
	if !found {
		return nil, nil
	}
	return &msg, nil
}

func validateMessage(msg *store.Message) error {
	if msg == nil || msg.MessageHash == "" {
		return ferrors.NewValidationError(entityMessage, "message hash is required")
	}
	for _, s := range []*store.MessageStatus{msg.SourceStatus, msg.TargetStatus} {
		if s != nil && !s.Valid() {
			return ferrors.NewValidationError(entityMessage, "unknown message status "+string(*s))
		}
	}
	return nil
}

// checkMessageUpdate rejects status regressions and changes to the
// message's type or direction.
func checkMessageUpdate(existing, update *store.Message) error {
	sides := []struct {
		field    string
		stored   *store.MessageStatus
		proposed *store.MessageStatus
	}{
		{"source_status", existing.SourceStatus, update.SourceStatus},
		{"target_status", existing.TargetStatus, update.TargetStatus},
	}
	for _, side := range sides {
		if side.proposed == nil {
			continue
		}
		from := store.StatusOrUndeclared(side.stored)
		if !from.CanTransitionTo(*side.proposed) {
			return ferrors.NewInvariantViolationError(entityMessage, existing.MessageHash, side.field, string(from), string(*side.proposed))
		}
	}

	if existing.Type != nil && update.Type != nil && *existing.Type != *update.Type {
		return ferrors.NewInvariantViolationError(entityMessage, existing.MessageHash, "type", string(*existing.Type), string(*update.Type))
	}
	if existing.Direction != nil && update.Direction != nil && *existing.Direction != *update.Direction {
		return ferrors.NewInvariantViolationError(entityMessage, existing.MessageHash, "direction", string(*existing.Direction), string(*update.Direction))
	}
	return nil
}
