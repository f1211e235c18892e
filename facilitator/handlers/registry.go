package handlers

import (
	"github.com/pushchain/bridge-node/facilitator/store"
)

// Registry maps batch entity types to their handlers.
type Registry struct {
	order    []string
	handlers map[string]Handler
}

// NewRegistry builds a handler for every supported event kind.
func NewRegistry(deps Deps) *Registry {
	r := &Registry{handlers: make(map[string]Handler)}

	for _, kind := range MessageEventKinds {
		r.Register(kind.Name, PersistFunc[store.Message](NewMessageHandler(kind, deps).Persist))
	}
	r.Register(AvailableStateRootKind, PersistFunc[store.Anchor](NewAnchorHandler(deps).Persist))
	r.Register(GatewayProvenKind, PersistFunc[store.Gateway](NewGatewayProvenHandler(deps).Persist))
	for _, kind := range []RequestEventKind{StakeRequested, RedeemRequested} {
		r.Register(kind.Name, PersistFunc[store.Request](NewRequestHandler(kind, deps).Persist))
	}
	return r
}

// Register adds or replaces the handler for kind.
func (r *Registry) Register(kind string, h Handler) {
	if _, ok := r.handlers[kind]; !ok {
		r.order = append(r.order, kind)
	}
	r.handlers[kind] = h
}

// Get returns the handler for kind.
func (r *Registry) Get(kind string) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
