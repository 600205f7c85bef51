package embed

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// GeminiEmbedder generates embeddings via the Google GenAI API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder creates a new GeminiEmbedder with the given API key and
// model. An empty model defaults to gemini-embedding-001.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embed: gemini api key not set")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("embed: failed to create genai client: %w", err)
	}

	return &GeminiEmbedder{client: client, model: model}, nil
}

// Available returns true if the client was constructed with a key. The API is
// not probed; failures surface on the first Embed call.
func (e *GeminiEmbedder) Available() bool {
	return e.client != nil
}

// Embed generates a vector embedding for the given text.
// Uses task type SEMANTIC_SIMILARITY: sample-to-sample comparison, not retrieval.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates vector embeddings for multiple texts in one API call.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: "SEMANTIC_SIMILARITY",
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("embed: request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("embed: gemini embed failed: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed: gemini returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	results := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("embed: gemini returned empty embedding for index %d", i)
		}
		results[i] = emb.Values
	}
	return results, nil
}
