package agent

import (
	"fmt"
	"strings"
	"time"
)

// PromptBuilder assembles the system prompt: persona, tool catalog, and the
// directive syntax the model may use to request a tool.
type PromptBuilder struct {
	persona   string
	toolBlock func() string
}

const defaultPersona = `You are Scout, a concise and helpful assistant.
Answer directly. When you used web sources, cite them by number.`

const directiveInstructions = `To use a tool, reply with exactly one directive on its own line:
TOOL_CALL: tool_name(param="value")
Only emit a directive when the tools below can actually help. Never invent tool names.`

// NewPromptBuilder creates a builder. toolBlock renders the current tool
// catalog and is called on every build so late registrations show up.
func NewPromptBuilder(persona string, toolBlock func() string) *PromptBuilder {
	if persona == "" {
		persona = defaultPersona
	}
	return &PromptBuilder{persona: persona, toolBlock: toolBlock}
}

// Build renders the system prompt. memories, when present, are appended as
// known facts about the user.
func (pb *PromptBuilder) Build(memories []string) string {
	var sb strings.Builder
	sb.WriteString(pb.persona)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Current date: %s\n", time.Now().Format("2006-01-02"))

	if pb.toolBlock != nil {
		if block := pb.toolBlock(); block != "" {
			sb.WriteString("\n")
			sb.WriteString(directiveInstructions)
			sb.WriteString("\n\nAvailable tools:\n")
			sb.WriteString(block)
		}
	}

	if len(memories) > 0 {
		sb.WriteString("\nWhat you know about the user:\n")
		for _, m := range memories {
			fmt.Fprintf(&sb, "- %s\n", m)
		}
	}
	return sb.String()
}
