package provider

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"scout/internal/domain"
)

// mockClient implements domain.Client for testing.
type mockClient struct {
	name     string
	chatErr  error
	chatResp string
	calls    int
}

func (m *mockClient) Name() string { return m.name }

func (m *mockClient) EstimateTokens(text string) int { return estimateTokens(text) }

func (m *mockClient) Chat(ctx context.Context, msgs []domain.Message) (string, error) {
	m.calls++
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.chatResp, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRouter(fast, long *mockClient) *Router {
	r := NewRouter(RouterConfig{
		Mode:           AutoMode,
		Fast:           fast.name,
		LongContext:    long.name,
		TokenThreshold: 10,
		Logger:         testLogger(),
	})
	r.Register(fast)
	r.Register(long)
	return r
}

func userMsg(content string) []domain.Message {
	return []domain.Message{{Role: domain.RoleUser, Content: content}}
}

// --- Selection ---

func TestRouter_Select_ShortPromptUsesFast(t *testing.T) {
	fast := &mockClient{name: "fast"}
	long := &mockClient{name: "long"}
	r := newTestRouter(fast, long)

	c, err := r.Select(userMsg("short question"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name() != "fast" {
		t.Fatalf("expected fast backend, got %q", c.Name())
	}
}

func TestRouter_Select_LongPromptUsesLongContext(t *testing.T) {
	fast := &mockClient{name: "fast"}
	long := &mockClient{name: "long"}
	r := newTestRouter(fast, long) // threshold 10 tokens

	// 20 words ≈ 26 tokens, above the threshold.
	c, err := r.Select(userMsg(strings.Repeat("word ", 20)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name() != "long" {
		t.Fatalf("expected long-context backend, got %q", c.Name())
	}
}

func TestRouter_Select_PinnedModeIgnoresLength(t *testing.T) {
	fast := &mockClient{name: "fast"}
	long := &mockClient{name: "long"}
	r := newTestRouter(fast, long)

	if err := r.SetProvider("fast"); err != nil {
		t.Fatalf("SetProvider: %v", err)
	}
	c, err := r.Select(userMsg(strings.Repeat("word ", 100)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name() != "fast" {
		t.Fatalf("pinned mode should use fast regardless of length, got %q", c.Name())
	}
}

// --- SetProvider ---

func TestRouter_SetProvider_UnknownName(t *testing.T) {
	fast := &mockClient{name: "fast"}
	long := &mockClient{name: "long"}
	r := newTestRouter(fast, long)

	err := r.SetProvider("mystery")
	if !errors.Is(err, domain.ErrInvalidProvider) {
		t.Fatalf("expected ErrInvalidProvider, got %v", err)
	}
	if r.Mode() != AutoMode {
		t.Fatalf("failed SetProvider must not change mode, got %q", r.Mode())
	}
}

func TestRouter_SetProvider_AutoAlwaysValid(t *testing.T) {
	fast := &mockClient{name: "fast"}
	long := &mockClient{name: "long"}
	r := newTestRouter(fast, long)

	if err := r.SetProvider("long"); err != nil {
		t.Fatalf("SetProvider: %v", err)
	}
	if err := r.SetProvider(AutoMode); err != nil {
		t.Fatalf("SetProvider(auto): %v", err)
	}
	if r.Mode() != AutoMode {
		t.Fatalf("expected auto mode, got %q", r.Mode())
	}
}

// --- Dispatch and fallback ---

func TestRouter_Dispatch_Success(t *testing.T) {
	fast := &mockClient{name: "fast", chatResp: "from-fast"}
	long := &mockClient{name: "long", chatResp: "from-long"}
	r := newTestRouter(fast, long)

	reply, used, err := r.Dispatch(context.Background(), userMsg("hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "from-fast" || used != "fast" {
		t.Fatalf("got reply=%q used=%q", reply, used)
	}
	if long.calls != 0 {
		t.Fatal("fallback backend should not be called on success")
	}
}

func TestRouter_Dispatch_FallsBackOnError(t *testing.T) {
	fast := &mockClient{name: "fast", chatErr: errors.New("api error")}
	long := &mockClient{name: "long", chatResp: "from-long"}
	r := newTestRouter(fast, long)

	reply, used, err := r.Dispatch(context.Background(), userMsg("hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "from-long" || used != "long" {
		t.Fatalf("got reply=%q used=%q", reply, used)
	}
}

func TestRouter_Dispatch_AllBackendsFail(t *testing.T) {
	fast := &mockClient{name: "fast", chatErr: errors.New("fail 1")}
	long := &mockClient{name: "long", chatErr: errors.New("fail 2")}
	r := newTestRouter(fast, long)

	_, _, err := r.Dispatch(context.Background(), userMsg("hi"))
	if err == nil {
		t.Fatal("expected error when all backends fail")
	}
	var pe *domain.ProviderUnavailableError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderUnavailableError in chain, got %v", err)
	}
	if pe.Provider != "fast" {
		t.Fatalf("error should name the primary backend, got %q", pe.Provider)
	}
}

func TestRouter_Dispatch_SingleBackendNoFallback(t *testing.T) {
	fast := &mockClient{name: "fast", chatErr: errors.New("down")}
	r := NewRouter(RouterConfig{Mode: AutoMode, Fast: "fast", TokenThreshold: 10, Logger: testLogger()})
	r.Register(fast)

	_, _, err := r.Dispatch(context.Background(), userMsg("hi"))
	if err == nil {
		t.Fatal("expected error")
	}
	if fast.calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", fast.calls)
	}
}

// --- Available ---

func TestRouter_Available_Sorted(t *testing.T) {
	fast := &mockClient{name: "groq"}
	long := &mockClient{name: "gemini"}
	r := newTestRouter(fast, long)

	got := r.Available()
	if len(got) != 2 || got[0] != "gemini" || got[1] != "groq" {
		t.Fatalf("expected sorted [gemini groq], got %v", got)
	}
}

// --- Token estimation ---

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"one two three", 4},       // 3 / 0.75
		{"a b c d e f", 8},          // 6 / 0.75
		{"   spaced    out   ", 2},  // 2 words
	}
	for _, tt := range tests {
		if got := estimateTokens(tt.text); got != tt.want {
			t.Errorf("estimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
