package memory

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"scout/internal/domain"
)

// Memory is one stored fact about the user or their world.
type Memory struct {
	ID           int64             `json:"id"`
	Content      string            `json:"content"`
	Type         string            `json:"type"` // fact, preference, note
	Tags         []string          `json:"tags,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	AccessCount  int               `json:"access_count"`
	LastAccessed *time.Time        `json:"last_accessed,omitempty"`
}

// Store keeps memories in a JSON file. Searches reinforce the memories they
// return: access counts climb, which ranks frequently recalled memories
// higher next time.
type Store struct {
	mu     sync.Mutex
	path   string
	items  []Memory
	nextID int64
	logger *slog.Logger
}

func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{path: path, nextID: 1, logger: logger}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return &domain.PersistenceError{Op: "load memories", Err: err}
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.items); err != nil {
		return &domain.PersistenceError{Op: "load memories", Err: err}
	}
	// IDs are never reused, even after deletions.
	for _, m := range s.items {
		if m.ID >= s.nextID {
			s.nextID = m.ID + 1
		}
	}
	return nil
}

// save writes the store to disk. Callers must hold s.mu.
func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &domain.PersistenceError{Op: "save memories", Err: err}
	}
	data, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return &domain.PersistenceError{Op: "save memories", Err: err}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &domain.PersistenceError{Op: "save memories", Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return &domain.PersistenceError{Op: "save memories", Err: err}
	}
	return nil
}

// Add stores a new memory and persists immediately.
func (s *Store) Add(content, memType string, tags []string, metadata map[string]string) (Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if memType == "" {
		memType = "fact"
	}
	m := Memory{
		ID:        s.nextID,
		Content:   content,
		Type:      memType,
		Tags:      tags,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	s.nextID++
	s.items = append(s.items, m)

	if err := s.save(); err != nil {
		return Memory{}, err
	}
	s.logger.Debug("memory added", "id", m.ID, "type", m.Type)
	return m, nil
}

// Search returns up to limit memories whose content or tags contain query
// (case-insensitive). A non-empty memType restricts matches to that type.
// Every returned memory gets its access count bumped and last-accessed time
// set, and results come back most-accessed first.
func (s *Store) Search(query, memType string, limit int) ([]Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 5
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	now := time.Now()
	var matched []int
	for i := range s.items {
		if memType != "" && s.items[i].Type != memType {
			continue
		}
		if s.matchesLocked(i, q) {
			matched = append(matched, i)
		}
	}
	if len(matched) == 0 {
		return nil, nil
	}

	for _, i := range matched {
		s.items[i].AccessCount++
		t := now
		s.items[i].LastAccessed = &t
	}

	sort.SliceStable(matched, func(a, b int) bool {
		return s.items[matched[a]].AccessCount > s.items[matched[b]].AccessCount
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]Memory, len(matched))
	for i, idx := range matched {
		out[i] = s.items[idx]
	}

	if err := s.save(); err != nil {
		return nil, err
	}
	return out, nil
}

// stopwords are skipped when tokenizing a message for Relevant.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "you": true, "your": true,
	"what": true, "when": true, "where": true, "who": true, "how": true,
	"are": true, "was": true, "can": true, "could": true, "would": true,
	"please": true, "about": true, "with": true, "this": true, "that": true,
	"tell": true, "did": true, "not": true, "have": true, "has": true,
}

// Relevant returns up to limit memories sharing at least one significant
// word with msg. Unlike Search it takes a whole user message, not a phrase.
// Matched memories are reinforced the same way.
func (s *Store) Relevant(msg string, limit int) ([]Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 5
	}
	words := tokenize(msg)
	if len(words) == 0 {
		return nil, nil
	}

	now := time.Now()
	var matched []int
	for i := range s.items {
		haystack := strings.ToLower(s.items[i].Content) + " " + strings.ToLower(strings.Join(s.items[i].Tags, " "))
		for _, w := range words {
			if strings.Contains(haystack, w) {
				matched = append(matched, i)
				break
			}
		}
	}
	if len(matched) == 0 {
		return nil, nil
	}

	for _, i := range matched {
		s.items[i].AccessCount++
		t := now
		s.items[i].LastAccessed = &t
	}
	sort.SliceStable(matched, func(a, b int) bool {
		return s.items[matched[a]].AccessCount > s.items[matched[b]].AccessCount
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]Memory, len(matched))
	for i, idx := range matched {
		out[i] = s.items[idx]
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return out, nil
}

func tokenize(msg string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(msg)) {
		w = strings.Trim(w, ".,!?;:\"'()")
		if len(w) < 3 || stopwords[w] {
			continue
		}
		words = append(words, w)
	}
	return words
}

func (s *Store) matchesLocked(i int, q string) bool {
	m := &s.items[i]
	if strings.Contains(strings.ToLower(m.Content), q) {
		return true
	}
	for _, tag := range m.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Recent returns the n newest memories, newest first, without touching
// access counts.
func (s *Store) Recent(n int) []Memory {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || n > len(s.items) {
		n = len(s.items)
	}
	out := make([]Memory, 0, n)
	for i := len(s.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.items[i])
	}
	return out
}

// Delete removes the memory with the given id. Unknown ids are an error.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return s.save()
		}
	}
	return fmt.Errorf("memory %d not found", id)
}

// Stats summarizes the store: total count and per-type breakdown.
func (s *Store) Stats() (total int, byType map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byType = make(map[string]int)
	for _, m := range s.items {
		byType[m.Type]++
	}
	return len(s.items), byType
}
