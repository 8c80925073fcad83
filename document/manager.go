package document

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"

	"github.com/inkframe/inkframe/api"
)

// Manager holds the document generators in priority order and hands out the
// best available one. Acquisition is bounded by a timeout so a slow probe
// degrades to the raster fallback instead of hanging the export.
type Manager struct {
	generators []Generator
	preferred  string
	timeout    time.Duration
	mu         sync.RWMutex
}

// DefaultAcquireTimeout bounds capability acquisition.
const DefaultAcquireTimeout = 10 * time.Second

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTimeout sets the acquisition timeout.
func WithTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithPreferred sets the preferred generator by name. An unavailable
// preference silently falls through to the priority order.
func WithPreferred(name string) ManagerOption {
	return func(m *Manager) { m.preferred = name }
}

// NewManager creates a manager over the given generators, kept in priority
// order.
func NewManager(generators []Generator, opts ...ManagerOption) *Manager {
	m := &Manager{
		generators: generators,
		timeout:    DefaultAcquireTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DefaultGenerators returns the standard probe chain: external vector-quality
// converters first, the built-in page embedder last. The browser generator is
// opt-in because it may download a browser on first use.
func DefaultGenerators(enableBrowser bool) []Generator {
	gens := []Generator{
		NewRSVGGenerator(),
		NewInkscapeGenerator(),
	}
	if enableBrowser {
		gens = append(gens, NewBrowserGenerator())
	}
	return append(gens, NewMarotoGenerator())
}

// Acquire returns the generator that will serve a document export, or a
// capability failure when none is available within the timeout. Callers
// recover from that failure locally; it is never surfaced to the user as an
// error.
func (m *Manager) Acquire(ctx context.Context) (Generator, error) {
	m.mu.RLock()
	generators := make([]Generator, len(m.generators))
	copy(generators, m.generators)
	preferred := m.preferred
	timeout := m.timeout
	m.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	probe := func(g Generator) (Generator, bool) {
		if ctx.Err() != nil {
			return nil, false
		}
		if g.IsAvailable() {
			return g, true
		}
		return nil, false
	}

	if preferred != "" {
		for _, g := range generators {
			if g.Name() == preferred {
				if got, ok := probe(g); ok {
					return got, nil
				}
				logger.Warnf("preferred document generator %q unavailable, falling through", preferred)
			}
		}
	}

	for _, g := range generators {
		if got, ok := probe(g); ok {
			return got, nil
		}
	}

	err := fmt.Errorf("no document generator available")
	if ctx.Err() != nil {
		err = fmt.Errorf("document generator probe timed out: %w", ctx.Err())
	}
	return nil, api.NewExportError(api.FailureCapability, "document", api.FormatDocument, err)
}

// SetPreferred sets the preferred generator by name.
func (m *Manager) SetPreferred(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.generators {
		if g.Name() == name {
			m.preferred = name
			return nil
		}
	}
	return fmt.Errorf("generator '%s' not registered", name)
}

// Names returns the registered generator names in priority order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Map(m.generators, func(g Generator, _ int) string { return g.Name() })
}

// Available returns the names of the generators that currently probe as
// available.
func (m *Manager) Available() []string {
	m.mu.RLock()
	generators := make([]Generator, len(m.generators))
	copy(generators, m.generators)
	m.mu.RUnlock()

	available := lo.Filter(generators, func(g Generator, _ int) bool { return g.IsAvailable() })
	return lo.Map(available, func(g Generator, _ int) string { return g.Name() })
}

// Close closes any generators that need cleanup (like the browser).
func (m *Manager) Close() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.generators {
		if closer, ok := g.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				return err
			}
		}
	}
	return nil
}
