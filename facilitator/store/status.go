package store

// MessageType distinguishes stake messages from redeem messages.
type MessageType string

const (
	MessageTypeStake  MessageType = "stake"
	MessageTypeRedeem MessageType = "redeem"
)

// MessageDirection is the chain pair a message travels across.
type MessageDirection string

const (
	DirectionOriginToAuxiliary MessageDirection = "origin_to_auxiliary"
	DirectionAuxiliaryToOrigin MessageDirection = "auxiliary_to_origin"
)

// RequestType distinguishes stake requests from redeem requests.
type RequestType string

const (
	RequestTypeStake  RequestType = "stake"
	RequestTypeRedeem RequestType = "redeem"
)

// MessageStatus is the position of one side (source or target) of a message
// in the message lattice.
type MessageStatus string

const (
	MessageStatusUndeclared         MessageStatus = "undeclared"
	MessageStatusDeclared           MessageStatus = "declared"
	MessageStatusProgressed         MessageStatus = "progressed"
	MessageStatusRevocationDeclared MessageStatus = "revocation_declared"
	MessageStatusRevoked            MessageStatus = "revoked"
)

// reachable lists, for every status, the statuses strictly after it.
// Undeclared may jump anywhere because events for a hash arrive unordered.
// Progressed and Revoked are terminal.
var reachable = map[MessageStatus]map[MessageStatus]struct{}{
	MessageStatusUndeclared: {
		MessageStatusDeclared:           {},
		MessageStatusProgressed:         {},
		MessageStatusRevocationDeclared: {},
		MessageStatusRevoked:            {},
	},
	MessageStatusDeclared: {
		MessageStatusProgressed:         {},
		MessageStatusRevocationDeclared: {},
		MessageStatusRevoked:            {},
	},
	MessageStatusRevocationDeclared: {
		MessageStatusRevoked: {},
	},
	MessageStatusProgressed: {},
	MessageStatusRevoked:    {},
}

// Valid reports whether s is a known status.
func (s MessageStatus) Valid() bool {
	_, ok := reachable[s]
	return ok
}

// IsForward reports whether moving from s to next advances the lattice.
func (s MessageStatus) IsForward(next MessageStatus) bool {
	_, ok := reachable[s][next]
	return ok
}

// CanTransitionTo reports whether next is s itself or lies after s.
func (s MessageStatus) CanTransitionTo(next MessageStatus) bool {
	return s == next || s.IsForward(next)
}

// IsTerminal reports whether no status lies after s.
func (s MessageStatus) IsTerminal() bool {
	return s.Valid() && len(reachable[s]) == 0
}

// StatusOrUndeclared dereferences a stored status, treating nil as Undeclared.
func StatusOrUndeclared(s *MessageStatus) MessageStatus {
	if s == nil {
		return MessageStatusUndeclared
	}
	return *s
}
