package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/examease/backend/internal/config"
	"github.com/examease/backend/internal/model/persona"
	chatService "github.com/examease/backend/internal/service/chat"
)

func newTestRouter() (http.Handler, *chatService.Service) {
	store := chatService.NewService(persona.ExamEase())
	cfg := config.ServerConfig{AllowedOrigins: []string{"*"}}
	return NewRouter(cfg, store, nil, nil), store
}

func TestRouterPreflightAddsCORSHeaders(t *testing.T) {
	router, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if resp.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", resp.Body.String())
	}
	if resp.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("expected Access-Control-Allow-Origin header")
	}
}

func TestRouterOfflineChat(t *testing.T) {
	router, store := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:5173")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("expected CORS header on the actual response")
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if reply, _ := body["reply"].(string); !strings.Contains(reply, "hello") {
		t.Fatalf("expected offline echo, got %v", body["reply"])
	}
	if _, ok := body["emotion"]; ok {
		t.Fatal("text-only variant must omit emotion")
	}
	if store.Len() != 4 {
		t.Fatalf("expected 4 messages, got %d", store.Len())
	}
}

func TestRouterHealth(t *testing.T) {
	router, _ := newTestRouter()

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		Status   string `json:"status"`
		LLM      bool   `json:"llm"`
		Model    string `json:"model"`
		Vision   bool   `json:"vision"`
		Messages int    `json:"messages"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Status != "ok" || body.LLM || body.Model != "offline" || body.Vision || body.Messages != 2 {
		t.Fatalf("unexpected health body: %+v", body)
	}
}

func TestRouterRejectsWrongMethod(t *testing.T) {
	router, _ := newTestRouter()

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/chat", nil))

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}
