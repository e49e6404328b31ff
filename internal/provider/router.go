package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"scout/internal/domain"
	"scout/internal/metrics"
)

// AutoMode selects a backend per request based on the token estimate.
const AutoMode = "auto"

// Router owns the registered chat backends and decides which one answers
// each request. Requests route either to a pinned backend (SetProvider) or
// automatically: long prompts go to the long-context backend, everything
// else to the fast one. When the chosen backend fails, Dispatch makes a
// single fallback hop to the other.
type Router struct {
	mu      sync.Mutex
	clients map[string]domain.Client
	mode    string // AutoMode or a concrete backend name

	fast          string
	longContext   string
	tokenThreshold int

	logger *slog.Logger
}

type RouterConfig struct {
	// Mode is the initial routing mode: AutoMode or a backend name.
	Mode string
	// Fast answers short prompts in auto mode.
	Fast string
	// LongContext answers prompts above TokenThreshold. Optional.
	LongContext    string
	TokenThreshold int
	Logger         *slog.Logger
}

func NewRouter(cfg RouterConfig) *Router {
	if cfg.Mode == "" {
		cfg.Mode = AutoMode
	}
	if cfg.TokenThreshold <= 0 {
		cfg.TokenThreshold = 1000
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Router{
		clients:        make(map[string]domain.Client),
		mode:           cfg.Mode,
		fast:           cfg.Fast,
		longContext:    cfg.LongContext,
		tokenThreshold: cfg.TokenThreshold,
		logger:         cfg.Logger,
	}
}

// Register adds a backend under its Name(). Later registrations with the
// same name replace earlier ones.
func (r *Router) Register(c domain.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.Name()] = c
}

// SetProvider pins routing to the named backend, or restores automatic
// routing when name is AutoMode.
func (r *Router) SetProvider(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name != AutoMode {
		if _, ok := r.clients[name]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrInvalidProvider, name)
		}
	}
	r.mode = name
	return nil
}

// Mode returns the current routing mode.
func (r *Router) Mode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// Available returns the registered backend names, sorted.
func (r *Router) Available() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select returns the backend that should answer msgs, without dispatching.
func (r *Router) Select(msgs []domain.Message) (domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selectLocked(msgs)
}

func (r *Router) selectLocked(msgs []domain.Message) (domain.Client, error) {
	if r.mode != AutoMode {
		c, ok := r.clients[r.mode]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, r.mode)
		}
		return c, nil
	}

	name := r.fast
	if r.longContext != "" {
		if c, ok := r.clients[r.fast]; ok {
			if c.EstimateTokens(domain.JoinContents(msgs)) > r.tokenThreshold {
				name = r.longContext
			}
		}
	}
	c, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, name)
	}
	return c, nil
}

// fallbackFor returns the backend to try when primary fails, or nil when
// there is no distinct alternative.
func (r *Router) fallbackFor(primary string) domain.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range []string{r.fast, r.longContext} {
		if name != "" && name != primary {
			if c, ok := r.clients[name]; ok {
				return c
			}
		}
	}
	return nil
}

// Dispatch routes msgs to the selected backend. On failure it makes one
// fallback hop to the alternative backend; when both fail the returned error
// wraps the primary failure in a ProviderUnavailableError.
// The second return value names the backend that produced the answer.
func (r *Router) Dispatch(ctx context.Context, msgs []domain.Message) (string, string, error) {
	primary, err := r.Select(msgs)
	if err != nil {
		return "", "", err
	}

	reply, err := primary.Chat(ctx, msgs)
	if err == nil {
		return reply, primary.Name(), nil
	}
	primaryErr := &domain.ProviderUnavailableError{Provider: primary.Name(), Err: err}

	fallback := r.fallbackFor(primary.Name())
	if fallback == nil {
		return "", "", primaryErr
	}

	metrics.ProviderFallbacks.Inc()
	r.logger.Warn("backend failed, falling back",
		"provider", primary.Name(),
		"fallback", fallback.Name(),
		"error", err,
	)

	reply, fbErr := fallback.Chat(ctx, msgs)
	if fbErr != nil {
		r.logger.Error("fallback backend failed",
			"provider", fallback.Name(),
			"error", fbErr,
		)
		return "", "", fmt.Errorf("all backends failed (fallback %s: %v): %w", fallback.Name(), fbErr, primaryErr)
	}
	return reply, fallback.Name(), nil
}
