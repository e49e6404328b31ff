package tool

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"scout/internal/domain"
)

// Directive syntax emitted by the model: TOOL_CALL: name(key="value", ...)
var (
	directivePattern = regexp.MustCompile(`(?i)TOOL_CALL:\s*(\w+)\((.*?)\)`)
	paramPattern     = regexp.MustCompile(`(\w+)=(?:"([^"]*)"|'([^']*)')`)
	urlPattern       = regexp.MustCompile(`https?://[^\s<>"']+`)
)

// LogEntry records one tool execution for the session log.
type LogEntry struct {
	Tool     string
	Params   map[string]string
	Result   string // truncated to resultLogLimit
	Err      string
	Duration time.Duration
	At       time.Time
}

const resultLogLimit = 200

// Executor decides when a tool should run, parses model-emitted directives,
// and executes tools against the registry while keeping a session log.
type Executor struct {
	registry *Registry
	rules    []Rule
	logger   *slog.Logger

	mu  sync.Mutex
	log []LogEntry
}

type ExecutorConfig struct {
	Registry *Registry
	// Rules overrides the built-in trigger table when non-nil.
	Rules  []Rule
	Logger *slog.Logger
}

func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.Rules == nil {
		cfg.Rules = DefaultRules()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Executor{
		registry: cfg.Registry,
		rules:    cfg.Rules,
		logger:   cfg.Logger,
	}
}

// Classify inspects a user message and returns the tool it triggers plus
// derived parameters, or nil when no tool applies. read_webpage only
// triggers when the message actually contains a URL.
func (e *Executor) Classify(msg string) *domain.ToolInvocation {
	tool := Match(e.rules, msg)
	if tool == "" {
		return nil
	}

	params := map[string]string{}
	switch tool {
	case "read_webpage":
		url := urlPattern.FindString(msg)
		if url == "" {
			return nil
		}
		params["url"] = url
	default:
		params["query"] = strings.TrimSpace(msg)
	}

	return &domain.ToolInvocation{Tool: tool, Params: params}
}

// ParseDirective extracts the first TOOL_CALL directive from model output.
// Returns nil when the text contains none.
func (e *Executor) ParseDirective(text string) *domain.ToolInvocation {
	m := directivePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	params := map[string]string{}
	for _, pm := range paramPattern.FindAllStringSubmatch(m[2], -1) {
		val := pm[2]
		if val == "" {
			val = pm[3]
		}
		params[pm[1]] = val
	}
	return &domain.ToolInvocation{Tool: m[1], Params: params}
}

// StripDirective removes all TOOL_CALL directives from model output so they
// never reach the user verbatim.
func (e *Executor) StripDirective(text string) string {
	return strings.TrimSpace(directivePattern.ReplaceAllString(text, ""))
}

// Run executes an invocation and records it in the session log.
func (e *Executor) Run(ctx context.Context, inv *domain.ToolInvocation) (string, error) {
	start := time.Now()
	out, err := e.registry.Execute(ctx, inv.Tool, inv.Params)

	entry := LogEntry{
		Tool:     inv.Tool,
		Params:   inv.Params,
		Duration: time.Since(start),
		At:       start,
	}
	if err != nil {
		entry.Err = err.Error()
		e.logger.Warn("tool failed", "tool", inv.Tool, "error", err)
	} else {
		entry.Result = truncate(out, resultLogLimit)
		e.logger.Info("tool executed", "tool", inv.Tool, "duration", entry.Duration)
	}

	e.mu.Lock()
	e.log = append(e.log, entry)
	e.mu.Unlock()

	return out, err
}

// Log returns a copy of the session execution log, oldest first.
func (e *Executor) Log() []LogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]LogEntry, len(e.log))
	copy(out, e.log)
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
