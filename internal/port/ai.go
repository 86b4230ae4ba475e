package port

import "context"

// Embedder converts free text into a vector representation.
// Implementations can target Ollama or a local deterministic model.
type Embedder interface {
	// Name returns the identifier of the embedding model being used.
	Name() string

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel abstracts the language-model backend used to interpret queries.
// Single-turn request/response; no streaming, no conversation state.
type ChatModel interface {
	// ModelName returns the identifier of the chat model being used.
	ModelName() string

	// Chat sends a system + user prompt and returns the complete response.
	Chat(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
