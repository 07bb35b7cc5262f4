package chat

import (
	"context"
	"fmt"
	"sync"
)

// Builder constructs a concrete Provider for a specific backend. Adapters are
// selected by configuration at startup, not by runtime conditionals in the
// orchestrator.
type Builder interface {
	Name() string
	NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error)
}

// Factory holds the registered Builder implementations and creates providers
// on demand.
type Factory struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewFactory constructs a factory seeded with the provided builders.
func NewFactory(builders ...Builder) *Factory {
	f := &Factory{
		builders: make(map[string]Builder, len(builders)),
	}
	for _, b := range builders {
		if b == nil {
			continue
		}
		f.builders[b.Name()] = b
	}
	return f
}

// Register attaches or replaces a Builder implementation.
func (f *Factory) Register(b Builder) {
	if b == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.builders == nil {
		f.builders = map[string]Builder{}
	}
	f.builders[b.Name()] = b
}

// NewProvider builds a provider instance through the builder declared in cfg.
func (f *Factory) NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	if cfg.Provider == "" {
		return nil, fmt.Errorf("chat provider not specified")
	}

	f.mu.RLock()
	builder := f.builders[cfg.Provider]
	f.mu.RUnlock()
	if builder == nil {
		return nil, fmt.Errorf("chat provider %q is not registered", cfg.Provider)
	}

	return builder.NewProvider(ctx, cfg)
}
