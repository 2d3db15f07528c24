package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, srv *httptest.Server, retries int) Client {
	t.Helper()
	c, err := NewClient(logger.Nop(), Config{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		Model:      "chat-model",
		EmbedModel: "embed-model",
		MaxRetries: retries,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestEmbedOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization: got=%q", got)
		}
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv, 0).Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(out) != 2 || out[0][0] != 1 || out[1][1] != 1 {
		t.Fatalf("unexpected vectors: %v", out)
	}
}

func TestGenerateJSONSendsJSONModeAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Errorf("expected json_object response format")
		}
		if req.Model != "chat-model" || len(req.Messages) != 2 {
			t.Errorf("unexpected request: %+v", req)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"sentiment\":\"neutral\"}"}}]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv, 0).GenerateJSON(context.Background(), "sys", "user", GenOptions{Temperature: 0.2})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if out["sentiment"] != "neutral" {
		t.Fatalf("sentiment: got=%v", out["sentiment"])
	}
}

func TestRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  hello  "}}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv, 2).GenerateText(context.Background(), "sys", "user", GenOptions{})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if got != "hello" {
		t.Fatalf("text: want=%q got=%q", "hello", got)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("calls: want=2 got=%d", calls)
	}
}

func TestNoRetryOnBadRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	if _, err := newTestClient(t, srv, 3).GenerateText(context.Background(), "s", "u", GenOptions{}); err == nil {
		t.Fatalf("expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}
