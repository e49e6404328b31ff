package history

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"scout/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"), testLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_ConversationLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv := domain.Conversation{ID: "c1", Title: "first chat"}
	if err := s.CreateConversation(ctx, conv); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetConversation(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Title != "first chat" {
		t.Fatalf("got %+v", got)
	}

	missing, err := s.GetConversation(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("missing conversation should be (nil, nil), got %+v, %v", missing, err)
	}
}

func TestStore_CreateConversationIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv := domain.Conversation{ID: "c1", Title: "original"}
	if err := s.CreateConversation(ctx, conv); err != nil {
		t.Fatal(err)
	}
	conv.Title = "changed"
	if err := s.CreateConversation(ctx, conv); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetConversation(ctx, "c1")
	if got.Title != "original" {
		t.Fatalf("re-create must not overwrite, got %q", got.Title)
	}
}

func TestStore_MessagesChronological(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.CreateConversation(ctx, domain.Conversation{ID: "c1"})

	base := time.Now().Add(-time.Hour)
	for i, content := range []string{"one", "two", "three"} {
		err := s.AppendMessage(ctx, "c1", domain.MessageRecord{
			Role:      "user",
			Content:   content,
			Provider:  "groq",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	msgs, err := s.Messages(ctx, "c1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages", len(msgs))
	}
	for i, want := range []string{"one", "two", "three"} {
		if msgs[i].Content != want {
			t.Errorf("msg %d = %q, want %q", i, msgs[i].Content, want)
		}
	}
	if msgs[0].Provider != "groq" {
		t.Errorf("provider = %q", msgs[0].Provider)
	}
}

func TestStore_MessagesLimitKeepsNewest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.CreateConversation(ctx, domain.Conversation{ID: "c1"})

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		s.AppendMessage(ctx, "c1", domain.MessageRecord{
			Role:      "user",
			Content:   string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	msgs, err := s.Messages(ctx, "c1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Content != "d" || msgs[1].Content != "e" {
		t.Fatalf("got %+v", msgs)
	}
}

func TestStore_ListConversationsRecentFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := time.Now().Add(-2 * time.Hour)
	s.CreateConversation(ctx, domain.Conversation{ID: "old", CreatedAt: old, UpdatedAt: old})
	s.CreateConversation(ctx, domain.Conversation{ID: "new"})

	convs, err := s.ListConversations(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 2 || convs[0].ID != "new" {
		t.Fatalf("got %+v", convs)
	}

	// Appending to the old conversation bumps it to the top.
	if err := s.AppendMessage(ctx, "old", domain.MessageRecord{Role: "user", Content: "hi"}); err != nil {
		t.Fatal(err)
	}
	convs, _ = s.ListConversations(ctx, 10)
	if convs[0].ID != "old" {
		t.Fatalf("expected old first after append, got %+v", convs)
	}
}

func TestStore_EmptyConversation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.CreateConversation(ctx, domain.Conversation{ID: "c1"})

	msgs, err := s.Messages(ctx, "c1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Fatalf("got %d messages", len(msgs))
	}
}
