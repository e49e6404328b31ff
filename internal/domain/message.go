package domain

// Role identifies who authored a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged entry in a conversation's prompt context.
// Messages are immutable once created; conversation order is the only
// meaningful ordering.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// JoinContents concatenates message contents with spaces. Used for rough
// token estimation over a whole prompt.
func JoinContents(msgs []Message) string {
	total := 0
	for _, m := range msgs {
		total += len(m.Content) + 1
	}
	buf := make([]byte, 0, total)
	for i, m := range msgs {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, m.Content...)
	}
	return string(buf)
}
