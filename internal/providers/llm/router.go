package llm

import (
	"context"
	"fmt"
	"strings"

	"articlegen/internal/domain"
)

// Router dispatches a request to the client registered for its provider.
// Unknown or empty providers go to the fallback provider.
type Router struct {
	clients  map[string]Client
	fallback string
}

// NewRouter builds a router. fallback names the provider used when a request
// names none or an unregistered one.
func NewRouter(fallback string, clients map[string]Client) *Router {
	r := &Router{clients: make(map[string]Client, len(clients)), fallback: strings.ToLower(strings.TrimSpace(fallback))}
	for name, c := range clients {
		if c != nil {
			r.clients[strings.ToLower(strings.TrimSpace(name))] = c
		}
	}
	return r
}

// Providers lists the registered provider names.
func (r *Router) Providers() []string {
	out := make([]string, 0, len(r.clients))
	for name := range r.clients {
		out = append(out, name)
	}
	return out
}

func (r *Router) Complete(ctx context.Context, req Request) (*Response, error) {
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	client, ok := r.clients[provider]
	if !ok {
		client, ok = r.clients[r.fallback]
		if !ok {
			return nil, fmt.Errorf("llm: %w: %q", domain.ErrProviderNotConfigured, coalesce(provider, r.fallback))
		}
		// the requested model belongs to another provider
		req.Model = ""
	}
	return client.Complete(ctx, req)
}

var _ Client = (*Router)(nil)
