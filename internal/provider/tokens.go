package provider

import "strings"

// estimateTokens approximates the token count of text using the rough
// heuristic of 0.75 words per token. It is a routing signal, not an
// accounting figure.
func estimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(float64(words) / 0.75)
}
