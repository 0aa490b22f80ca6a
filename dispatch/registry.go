package dispatch

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnknownCommand is returned when no handler is registered
	// under the requested name.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrDuplicateCommand is returned when a name is registered twice.
	ErrDuplicateCommand = errors.New("duplicate command")
)

// HandlerFunc processes one command. The request and response types are
// a private contract between the registering code and its callers.
type HandlerFunc func(ctx context.Context, req any) (any, error)

// Registry maps command names to handlers. Populate it fully during
// startup and treat it as read-only afterwards; Register is not safe to
// call concurrently with Dispatch.
type Registry struct {
	handlers map[string]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register binds name to h. Re-registering a name fails rather than
// silently replacing the handler.
func (r *Registry) Register(name string, h HandlerFunc) error {
	if name == "" {
		return errors.New("command name must not be empty")
	}
	if h == nil {
		return errors.New("handler must not be nil")
	}
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
	}
	r.handlers[name] = h
	return nil
}

// MustRegister is Register for startup wiring where a collision is a
// programming error.
func (r *Registry) MustRegister(name string, h HandlerFunc) {
	if err := r.Register(name, h); err != nil {
		panic(err)
	}
}

// Dispatch runs the handler registered under name.
func (r *Registry) Dispatch(ctx context.Context, name string, req any) (any, error) {
	h, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return h(ctx, req)
}

// Commands returns the registered command names in no particular order.
func (r *Registry) Commands() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}
