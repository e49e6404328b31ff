package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"scout/internal/domain"
)

func TestGroq_Chat(t *testing.T) {
	var gotAuth string
	var gotReq chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "hello there"}},
			},
		})
	}))
	defer srv.Close()

	g := NewGroq(GroqConfig{APIKey: "sk-test", APIBase: srv.URL, Model: "test-model", Logger: testLogger()})
	reply, err := g.Chat(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "be brief"},
		{Role: domain.RoleUser, Content: "hi"},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "hello there" {
		t.Fatalf("reply = %q", reply)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != "test-model" || len(gotReq.Messages) != 2 {
		t.Errorf("request body: model=%q messages=%d", gotReq.Model, len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" {
		t.Errorf("first message role = %q, want system", gotReq.Messages[0].Role)
	}
}

func TestGroq_ChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	}))
	defer srv.Close()

	g := NewGroq(GroqConfig{APIKey: "bad", APIBase: srv.URL, Logger: testLogger()})
	_, err := g.Chat(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}})
	if err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestGemini_ChatRoleMapping(t *testing.T) {
	var gotReq geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"role": "model", "parts": []map[string]string{{"text": "ok"}}}},
			},
		})
	}))
	defer srv.Close()

	g := NewGemini(GeminiConfig{APIKey: "k", APIBase: srv.URL, Model: "m", Logger: testLogger()})
	reply, err := g.Chat(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "sys"},
		{Role: domain.RoleUser, Content: "question"},
		{Role: domain.RoleAssistant, Content: "earlier answer"},
		{Role: domain.RoleUser, Content: "followup"},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "ok" {
		t.Fatalf("reply = %q", reply)
	}
	if gotReq.SystemInstruction == nil || len(gotReq.SystemInstruction.Parts) != 1 {
		t.Fatal("system message should map to system_instruction")
	}
	if len(gotReq.Contents) != 3 {
		t.Fatalf("contents = %d, want 3", len(gotReq.Contents))
	}
	if gotReq.Contents[1].Role != "model" {
		t.Errorf("assistant turn role = %q, want model", gotReq.Contents[1].Role)
	}
}
