package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"scout/internal/domain"
	"scout/internal/memory"
	"scout/internal/metrics"
	"scout/internal/tool"
)

const (
	defaultHistoryWindow = 20
	defaultMemoryLimit   = 3
	titleLimit           = 50
)

// MemoryStore is the slice of the memory store the orchestrator needs.
type MemoryStore interface {
	Relevant(msg string, limit int) ([]memory.Memory, error)
	Add(content, memType string, tags []string, metadata map[string]string) (memory.Memory, error)
}

// Dispatcher routes a message list to a chat backend and reports which
// backend answered.
type Dispatcher interface {
	Dispatch(ctx context.Context, msgs []domain.Message) (reply, provider string, err error)
}

// Reply is the orchestrator's answer to one user turn.
type Reply struct {
	Text     string
	Provider string
	Tool     string // tool that ran this turn, if any
}

// Orchestrator runs the per-turn conversation pipeline: recall memories,
// trigger tools, route to a backend, resolve any tool directive the model
// emits, extract facts, and persist the exchange.
type Orchestrator struct {
	router   Dispatcher
	executor *tool.Executor
	prompt   *PromptBuilder
	mem      MemoryStore // optional
	history  domain.HistoryStore
	logger   *slog.Logger

	memoryLimit   int
	historyWindow int

	convID      string
	convCreated bool
	transcript  []domain.Message
}

type OrchestratorConfig struct {
	Router   Dispatcher
	Executor *tool.Executor
	Prompt   *PromptBuilder
	Memory   MemoryStore          // nil disables memory
	History  domain.HistoryStore  // nil disables persistence
	Logger   *slog.Logger
	// MemoryLimit caps memories recalled per turn.
	MemoryLimit int
	// HistoryWindow caps transcript turns kept in the model context.
	HistoryWindow int
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MemoryLimit <= 0 {
		cfg.MemoryLimit = defaultMemoryLimit
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = defaultHistoryWindow
	}
	return &Orchestrator{
		router:        cfg.Router,
		executor:      cfg.Executor,
		prompt:        cfg.Prompt,
		mem:           cfg.Memory,
		history:       cfg.History,
		logger:        cfg.Logger,
		memoryLimit:   cfg.MemoryLimit,
		historyWindow: cfg.HistoryWindow,
		convID:        uuid.NewString(),
	}
}

// ConversationID returns the id of the current conversation.
func (o *Orchestrator) ConversationID() string { return o.convID }

// Reset starts a fresh conversation: new id, empty transcript. Stored
// memories survive.
func (o *Orchestrator) Reset() {
	o.convID = uuid.NewString()
	o.convCreated = false
	o.transcript = nil
	o.logger.Info("conversation reset", "conversation", o.convID)
}

// HandleMessage processes one user turn end to end.
func (o *Orchestrator) HandleMessage(ctx context.Context, userMsg string) (Reply, error) {
	userMsg = strings.TrimSpace(userMsg)
	if userMsg == "" {
		return Reply{}, fmt.Errorf("empty message")
	}
	metrics.MessagesTotal.Inc()

	memories := o.recallMemories(userMsg)

	// Keyword triggers run the tool up front so its output reaches the
	// model alongside the question.
	var toolUsed, toolNote string
	if inv := o.executor.Classify(userMsg); inv != nil {
		toolUsed = inv.Tool
		toolNote = o.runTool(ctx, inv)
	}

	msgs := o.buildMessages(memories, toolNote, userMsg)

	start := time.Now()
	metrics.ProviderRequests.Inc()
	reply, providerName, err := o.router.Dispatch(ctx, msgs)
	metrics.ProviderLatency.Observe(time.Since(start))
	if err != nil {
		return Reply{}, err
	}

	// The model may ask for a tool itself. Resolve at most one directive,
	// then dispatch a single follow-up with the result.
	if inv := o.executor.ParseDirective(reply); inv != nil {
		if toolUsed == "" {
			toolUsed = inv.Tool
		}
		note := o.runTool(ctx, inv)
		followup := append(msgs,
			domain.Message{Role: domain.RoleAssistant, Content: reply},
			domain.Message{Role: domain.RoleSystem, Content: note + "\nAnswer the user's question using this result. Do not emit another directive."},
		)
		metrics.ProviderRequests.Inc()
		if second, p, err := o.router.Dispatch(ctx, followup); err == nil {
			reply, providerName = second, p
		} else {
			o.logger.Warn("follow-up dispatch failed, keeping first reply", "error", err)
		}
		reply = o.executor.StripDirective(reply)
		if reply == "" {
			reply = "I could not complete that request."
		}
	}

	o.extractFacts(userMsg)
	o.remember(ctx, userMsg, reply, providerName)

	return Reply{Text: reply, Provider: providerName, Tool: toolUsed}, nil
}

func (o *Orchestrator) recallMemories(userMsg string) []string {
	if o.mem == nil {
		return nil
	}
	found, err := o.mem.Relevant(userMsg, o.memoryLimit)
	if err != nil {
		o.logger.Warn("memory search failed", "error", err)
		return nil
	}
	out := make([]string, 0, len(found))
	for _, m := range found {
		out = append(out, m.Content)
	}
	return out
}

// runTool executes an invocation and renders the outcome as a system note
// for the model. Failures degrade to a note instead of failing the turn.
func (o *Orchestrator) runTool(ctx context.Context, inv *domain.ToolInvocation) string {
	start := time.Now()
	metrics.ToolExecutions.Inc()
	out, err := o.executor.Run(ctx, inv)
	metrics.ToolLatency.Observe(time.Since(start))
	if err != nil {
		return fmt.Sprintf("Tool %s failed: %v. Answer from your own knowledge and say the lookup failed.", inv.Tool, err)
	}
	return fmt.Sprintf("Tool %s returned:\n%s", inv.Tool, out)
}

func (o *Orchestrator) buildMessages(memories []string, toolNote, userMsg string) []domain.Message {
	msgs := make([]domain.Message, 0, len(o.transcript)+3)
	msgs = append(msgs, domain.Message{Role: domain.RoleSystem, Content: o.prompt.Build(memories)})
	msgs = append(msgs, o.transcript...)
	if toolNote != "" {
		msgs = append(msgs, domain.Message{Role: domain.RoleSystem, Content: toolNote})
	}
	msgs = append(msgs, domain.Message{Role: domain.RoleUser, Content: userMsg})
	return msgs
}

func (o *Orchestrator) extractFacts(userMsg string) {
	if o.mem == nil {
		return
	}
	for _, f := range memory.ExtractFacts(userMsg) {
		tags := append(f.Tags, "conversation")
		meta := map[string]string{"conversation": o.convID}
		if _, err := o.mem.Add(f.Content, f.Type, tags, meta); err != nil {
			o.logger.Warn("could not store fact", "error", err)
			continue
		}
		metrics.FactsStored.Inc()
	}
}

// remember appends the exchange to the in-context transcript and persists it.
func (o *Orchestrator) remember(ctx context.Context, userMsg, reply, providerName string) {
	o.transcript = append(o.transcript,
		domain.Message{Role: domain.RoleUser, Content: userMsg},
		domain.Message{Role: domain.RoleAssistant, Content: reply},
	)
	if len(o.transcript) > o.historyWindow {
		o.transcript = o.transcript[len(o.transcript)-o.historyWindow:]
	}

	if o.history == nil {
		return
	}
	if !o.convCreated {
		title := userMsg
		if len(title) > titleLimit {
			cut := titleLimit
			for cut > 0 && !utf8.RuneStart(title[cut]) {
				cut--
			}
			title = title[:cut]
		}
		if err := o.history.CreateConversation(ctx, domain.Conversation{ID: o.convID, Title: title}); err != nil {
			o.logger.Warn("could not create conversation", "error", err)
			return
		}
		o.convCreated = true
	}
	if err := o.history.AppendMessage(ctx, o.convID, domain.MessageRecord{Role: "user", Content: userMsg}); err != nil {
		o.logger.Warn("could not persist message", "error", err)
	}
	if err := o.history.AppendMessage(ctx, o.convID, domain.MessageRecord{Role: "assistant", Content: reply, Provider: providerName}); err != nil {
		o.logger.Warn("could not persist message", "error", err)
	}
}
