package memory

import (
	"regexp"
	"strings"
)

// Fact is a candidate memory extracted from a user message.
type Fact struct {
	Content string
	Type    string // note, fact, preference
	Tags    []string
}

var (
	explicitNoteRe = regexp.MustCompile(`(?i)^(?:remember|note):\s*(.+)$`)
	possessiveRe   = regexp.MustCompile(`(?i)\bmy ([a-z][a-z' ]{0,40}?) is ([^.,!?\n]+)`)
	preferenceRe   = regexp.MustCompile(`(?i)\bi (dislike|like|love|prefer|hate) ([^.,!?\n]+)`)
)

// ExtractFacts scans a user message for statements worth remembering:
// explicit "remember:"/"note:" requests, "my X is Y" statements, and
// expressed preferences. Returns nil when nothing matches.
func ExtractFacts(msg string) []Fact {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return nil
	}

	// An explicit request captures the whole remainder and stops other
	// patterns from slicing it up.
	if m := explicitNoteRe.FindStringSubmatch(msg); m != nil {
		return []Fact{{
			Content: strings.TrimSpace(m[1]),
			Type:    "note",
			Tags:    []string{"explicit"},
		}}
	}

	var facts []Fact
	for _, m := range possessiveRe.FindAllStringSubmatch(msg, -1) {
		subject := strings.TrimSpace(m[1])
		value := strings.TrimSpace(m[2])
		facts = append(facts, Fact{
			Content: "User's " + subject + " is " + value,
			Type:    "fact",
			Tags:    []string{subject},
		})
	}
	for _, m := range preferenceRe.FindAllStringSubmatch(msg, -1) {
		verb := strings.ToLower(m[1])
		object := strings.TrimSpace(m[2])
		facts = append(facts, Fact{
			Content: "User " + verb + "s " + object,
			Type:    "preference",
			Tags:    []string{verb},
		})
	}
	return facts
}
