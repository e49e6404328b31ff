package tool

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule maps trigger keywords to a tool. Keywords match case-insensitively
// as substrings of the user's message.
type Rule struct {
	Tool     string   `yaml:"tool"`
	Keywords []string `yaml:"keywords"`
}

// DefaultRules is the built-in trigger table. Order matters: the first rule
// with a matching keyword wins, so the broad search_and_read triggers sit
// above the narrower single-step tools.
func DefaultRules() []Rule {
	return []Rule{
		{
			Tool: "search_and_read",
			Keywords: []string{
				"latest", "current", "recent", "news", "today",
				"search for", "find information", "what's happening",
				"who is", "what is", "when did",
			},
		},
		{
			Tool:     "web_search",
			Keywords: []string{"quick search", "find links", "search"},
		},
		{
			Tool:     "read_webpage",
			Keywords: []string{"read this url", "open", "visit"},
		},
	}
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a trigger table from a YAML file. The file replaces the
// built-in table entirely.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read rules file %s: %w", path, err)
	}
	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("cannot parse rules file %s: %w", path, err)
	}
	if len(rf.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s defines no rules", path)
	}
	for i, r := range rf.Rules {
		if r.Tool == "" {
			return nil, fmt.Errorf("rules file %s: rule %d has no tool", path, i)
		}
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("rules file %s: rule for %s has no keywords", path, r.Tool)
		}
	}
	return rf.Rules, nil
}

// Match returns the tool triggered by msg, or "" when nothing matches.
// Matching is case-insensitive; rules are evaluated in order and the first
// hit wins.
func Match(rules []Rule, msg string) string {
	lower := strings.ToLower(msg)
	for _, r := range rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return r.Tool
			}
		}
	}
	return ""
}
