package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOllamaAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		resp := ollamaTagsResponse{
			Models: []ollamaModel{
				{Name: "nomic-embed-text"},
				{Name: "llama2"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(server.URL, "nomic-embed-text")
	if !embedder.Available() {
		t.Error("Available() returned false, want true")
	}
}

func TestOllamaAvailableTagSuffix(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := ollamaTagsResponse{
			Models: []ollamaModel{{Name: "nomic-embed-text:latest"}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(server.URL, "nomic-embed-text")
	if !embedder.Available() {
		t.Error("Available() should match model with :latest suffix")
	}
}

func TestOllamaNotAvailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "model not in list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				resp := ollamaTagsResponse{
					Models: []ollamaModel{{Name: "llama2"}, {Name: "mistral"}},
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(resp)
			},
		},
		{
			name: "empty model list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				resp := ollamaTagsResponse{Models: []ollamaModel{}}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(resp)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "internal error", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			embedder := NewOllamaEmbedder(server.URL, "nomic-embed-text")
			if embedder.Available() {
				t.Error("Available() returned true, want false")
			}
		})
	}
}

func TestOllamaEmbed(t *testing.T) {
	want := []float32{0.1, 0.2, 0.3}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Input == "" {
			t.Error("empty input in embed request")
		}

		resp := ollamaEmbedResponse{Embeddings: [][]float32{want}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(server.URL, "nomic-embed-text")
	got, err := embedder.Embed(context.Background(), "the quick brown fox")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("embedding length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("embedding[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestOllamaEmbedServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(server.URL, "nomic-embed-text")
	if _, err := embedder.Embed(context.Background(), "text"); err == nil {
		t.Error("Embed() should fail on server error")
	}
}

func TestOllamaEmbedContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	embedder := NewOllamaEmbedder(server.URL, "nomic-embed-text")
	if _, err := embedder.Embed(ctx, "text"); err == nil {
		t.Error("Embed() should fail when context is cancelled")
	}
}
