package domain

import "context"

// Client is the interface all model backends must implement. A client accepts
// an ordered, role-tagged message sequence and returns the assistant's text,
// or fails with a transport/auth/rate-limit error.
type Client interface {
	// Chat sends the full message sequence and returns the response text.
	Chat(ctx context.Context, msgs []Message) (string, error)

	// EstimateTokens approximates the token cost of a text. It is a
	// word-count proxy (roughly 0.75 words per token), good enough as a
	// routing signal but nowhere near billing-accurate.
	EstimateTokens(text string) int

	Name() string
}
