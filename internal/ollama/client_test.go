package ollama

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeService stands in for the generation service: a model list on GET
// /models and a canned chat reply on POST /chat.
func fakeService(t *testing.T, models []string, reply string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		type m struct {
			Name string `json:"name"`
		}
		out := struct {
			Models []m `json:"models"`
		}{}
		for _, name := range models {
			out.Models = append(out.Models, m{Name: name})
		}
		json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Stream   bool   `json:"stream"`
			Format   string `json:"format"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode chat request: %v", err)
		}
		if req.Stream {
			t.Error("chat request asked for streaming")
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": reply},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProbeSuccess(t *testing.T) {
	srv := fakeService(t, []string{"other", "qwen2.5:7b"}, "")
	c := NewClient(srv.URL, "qwen2.5:7b", quietLog())
	if !c.Healthy() {
		t.Fatal("expected healthy client")
	}
	h := c.Health()
	if h.Status != "healthy" || h.Mode != "connected" {
		t.Fatalf("unexpected health: %+v", h)
	}
}

func TestProbeModelMissing(t *testing.T) {
	srv := fakeService(t, []string{"other"}, "")
	c := NewClient(srv.URL, "qwen2.5:7b", quietLog())
	if c.Healthy() {
		t.Fatal("expected fallback when the model is absent")
	}
}

func TestProbeUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1/api", "qwen2.5:7b", quietLog())
	if c.Healthy() {
		t.Fatal("expected fallback for an unreachable service")
	}
	h := c.Health()
	if h.Status != "degraded" || h.Mode != "mock" {
		t.Fatalf("unexpected health: %+v", h)
	}
}

func TestChat(t *testing.T) {
	srv := fakeService(t, []string{"qwen2.5:7b"}, "{\"error_type\":\"Calculation Error\"}")
	c := NewClient(srv.URL, "qwen2.5:7b", quietLog())

	out, ok := c.Chat(context.Background(), "you are a tutor", "analyze this", true)
	if !ok {
		t.Fatal("expected an answer")
	}
	if out != "{\"error_type\":\"Calculation Error\"}" {
		t.Fatalf("unexpected content %q", out)
	}
}

func TestChatFallbackShortCircuits(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "qwen2.5:7b", quietLog())
	if c.Healthy() {
		t.Fatal("expected fallback after failed probe")
	}
	before := hits.Load()

	_, ok := c.Chat(context.Background(), "s", "u", true)
	if ok {
		t.Fatal("expected no answer in fallback mode")
	}
	if hits.Load() != before {
		t.Fatal("fallback chat still issued a request")
	}
}

func TestChatServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{{"name": "qwen2.5:7b"}},
		})
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "overloaded", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, "qwen2.5:7b", quietLog())
	if !c.Healthy() {
		t.Fatal("probe should have succeeded")
	}
	_, ok := c.Chat(context.Background(), "s", "u", false)
	if ok {
		t.Fatal("expected no answer on a 500")
	}
}

func TestDefaults(t *testing.T) {
	c := NewClient("http://127.0.0.1:1/api", "", quietLog())
	if c.Model() != DefaultModel {
		t.Fatalf("model = %q", c.Model())
	}
	c = &Client{baseURL: DefaultBaseURL, model: DefaultModel}
	if c.BaseURL() != "http://localhost:11434/api" {
		t.Fatalf("base url = %q", c.BaseURL())
	}
}
