package tool

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"scout/internal/domain"
)

// Param describes a single tool parameter.
type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Spec is a registered tool: its catalog entry plus the function that runs it.
type Spec struct {
	Name        string
	Description string
	Params      []Param
	Examples    []string
	Run         func(ctx context.Context, params map[string]string) (string, error)
}

// Registry holds the available tools in registration order.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Spec
	order  []string
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]Spec),
		logger: logger,
	}
}

// Register adds a tool. A spec without a name is ignored. Re-registering a
// name replaces the spec but keeps its original position.
func (r *Registry) Register(s Spec) {
	if s.Name == "" {
		r.logger.Warn("ignoring tool spec without a name")
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[s.Name]; !exists {
		r.order = append(r.order, s.Name)
	}
	r.tools[s.Name] = s
	r.logger.Debug("registered tool", "name", s.Name)
}

// Get returns the spec for name. The bool reports whether it exists.
func (r *Registry) Get(name string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.tools[name]
	return s, ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Execute runs the named tool. Unknown names return ErrUnknownTool; tool
// failures come back wrapped in a ToolExecutionError.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]string) (string, error) {
	s, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s (available: %v)", domain.ErrUnknownTool, name, r.Names())
	}
	out, err := s.Run(ctx, params)
	if err != nil {
		return "", &domain.ToolExecutionError{Tool: name, Err: err}
	}
	return out, nil
}

// RenderPromptBlock describes every tool for inclusion in a system prompt,
// in registration order.
func (r *Registry) RenderPromptBlock() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	for _, name := range r.order {
		s := r.tools[name]
		fmt.Fprintf(&sb, "- %s: %s\n", s.Name, s.Description)
		for _, p := range s.Params {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Fprintf(&sb, "    %s (%s, %s): %s\n", p.Name, p.Type, req, p.Description)
		}
		for _, ex := range s.Examples {
			fmt.Fprintf(&sb, "    example: %s\n", ex)
		}
	}
	return sb.String()
}
