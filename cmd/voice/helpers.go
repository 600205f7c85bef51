package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/abelbrown/voiceprint/internal/embed"
	"github.com/abelbrown/voiceprint/internal/store"
	"github.com/abelbrown/voiceprint/internal/voice"
)

// dataDir returns ~/.voiceprint/, creating it if needed.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("failed to get home directory: %v", err)
	}
	dir := filepath.Join(home, ".voiceprint")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	return dir
}

// dbPath returns the path to voiceprint.db.
func dbPath() string {
	return filepath.Join(dataDir(), "voiceprint.db")
}

// openStore opens the store or fatals.
func openStore() *store.Store {
	st, err := store.NewStore(dbPath())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	return st
}

// envOrDefault returns the environment variable value or a fallback.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newEmbedder picks the embedding backend: Jina when JINA_API_KEY is set,
// then Gemini when GOOGLE_API_KEY is set, otherwise a local Ollama.
func newEmbedder(ctx context.Context) embed.Embedder {
	if key := strings.TrimSpace(os.Getenv("JINA_API_KEY")); key != "" {
		return embed.NewJinaEmbedder(key, envOrDefault("JINA_EMBED_MODEL", "jina-embeddings-v3"))
	}
	if key := strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")); key != "" {
		e, err := embed.NewGeminiEmbedder(ctx, key, envOrDefault("GEMINI_EMBED_MODEL", "gemini-embedding-001"))
		if err != nil {
			log.Fatalf("failed to create Gemini embedder: %v", err)
		}
		return e
	}
	return embed.NewOllamaEmbedder(
		envOrDefault("OLLAMA_ENDPOINT", "http://localhost:11434"),
		envOrDefault("OLLAMA_EMBED_MODEL", "nomic-embed-text"))
}

// newManager builds the facade over the default store and embedder. The
// returned cleanup closes the store.
func newManager(ctx context.Context) (*voice.Manager, func()) {
	st := openStore()
	return voice.NewManager(newEmbedder(ctx), st), func() { st.Close() }
}

// readTexts reads one text per file path. With no paths it reads a single
// text from stdin.
func readTexts(paths []string) []string {
	if len(paths) == 0 {
		return []string{readStdin()}
	}
	texts := make([]string, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("failed to read %s: %v", path, err)
		}
		texts[i] = string(data)
	}
	return texts
}

// readStdin reads all of stdin or fatals on empty input.
func readStdin() string {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatalf("failed to read stdin: %v", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		fmt.Fprintln(os.Stderr, "error: no input text (give file paths or pipe text on stdin)")
		os.Exit(1)
	}
	return string(data)
}

// requireIdentity returns the first positional argument or fatals.
func requireIdentity(args []string, cmd string) string {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintf(os.Stderr, "error: %s requires an identity\n", cmd)
		os.Exit(1)
	}
	return args[0]
}

// fail prints an operation error and exits.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
