package service

import (
	"context"
	"sort"

	"browser-pilot/internal/application/port/output"
	"browser-pilot/internal/domain/entity"
)

// ActionHandler executes one action kind. Handlers whose kind does not
// require a browser receive a nil session.
type ActionHandler interface {
	Kind() entity.ActionKind
	Handle(ctx context.Context, session output.BrowserSession, action entity.Action) (map[string]any, error)
}

// HandlerFunc adapts a plain function to ActionHandler.
type HandlerFunc struct {
	kind entity.ActionKind
	fn   func(ctx context.Context, session output.BrowserSession, action entity.Action) (map[string]any, error)
}

func NewHandlerFunc(
	kind entity.ActionKind,
	fn func(ctx context.Context, session output.BrowserSession, action entity.Action) (map[string]any, error),
) HandlerFunc {
	return HandlerFunc{kind: kind, fn: fn}
}

func (h HandlerFunc) Kind() entity.ActionKind {
	return h.kind
}

func (h HandlerFunc) Handle(ctx context.Context, session output.BrowserSession, action entity.Action) (map[string]any, error) {
	return h.fn(ctx, session, action)
}

// HandlerRegistry is the per-kind dispatch table. It is filled once at
// construction and read concurrently afterwards.
type HandlerRegistry struct {
	handlers map[entity.ActionKind]ActionHandler
}

func NewHandlerRegistry(handlers ...ActionHandler) *HandlerRegistry {
	r := &HandlerRegistry{
		handlers: make(map[entity.ActionKind]ActionHandler, len(handlers)),
	}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// Register replaces any handler already bound to the same kind.
func (r *HandlerRegistry) Register(h ActionHandler) {
	r.handlers[h.Kind()] = h
}

func (r *HandlerRegistry) Get(kind entity.ActionKind) (ActionHandler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds lists the registered kinds in lexical order.
func (r *HandlerRegistry) Kinds() []entity.ActionKind {
	result := make([]entity.ActionKind, 0, len(r.handlers))
	for kind := range r.handlers {
		result = append(result, kind)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
