package transcription

import (
	"context"
	"sort"
	"sync"

	"github.com/kbukum/scribe/errors"
)

// Registry holds the configured providers and the name used when a request
// does not pick one.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	def       string
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds p under p.Name(). The first provider registered becomes the
// default.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
	if r.def == "" {
		r.def = p.Name()
	}
}

// SetDefault selects the provider used for empty names.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return errors.NotFound("transcription provider", name)
	}
	r.def = name
	return nil
}

func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def
}

// Get returns the provider registered as name, or the default for "".
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.def
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, errors.NotFound("transcription provider", name)
	}
	return p, nil
}

// Resolve is Get plus an availability check.
func (r *Registry) Resolve(ctx context.Context, name string) (Provider, error) {
	p, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if !p.IsAvailable(ctx) {
		return nil, errors.ProviderUnavailable(p.Name())
	}
	return p, nil
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Close releases providers that hold resources.
func (r *Registry) Close() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.providers {
		if c, ok := p.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
