package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatMessage is a single message in a chat completion conversation.
type ChatMessage struct {
	// Role is the message author: "system", "user" or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatRequest describes a chat completion call.
type ChatRequest struct {
	// Messages is the conversation so far, in order.
	Messages []ChatMessage

	// Temperature controls sampling randomness. Zero means deterministic.
	Temperature float64

	// MaxTokens limits the completion length. Zero means provider default.
	MaxTokens int

	// JSONMode requests a JSON-object response when the provider supports it.
	JSONMode bool
}

// ChatChoice is a single completion alternative.
type ChatChoice struct {
	// Content is the generated message text.
	Content string

	// FinishReason reports why generation stopped ("stop", "length", ...).
	FinishReason string
}

// ChatUsage reports token accounting for a completion call.
type ChatUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatResponse is the result of a chat completion call.
type ChatResponse struct {
	// Choices holds generated alternatives. At least one when err is nil.
	Choices []ChatChoice

	// Usage reports token consumption when the provider supplies it.
	Usage ChatUsage
}

// Text returns the content of the first choice, or "" when there is none.
func (r *ChatResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Content
}

// ChatClient performs chat completions against a language model.
// Implementations must be thread-safe for concurrent use.
type ChatClient interface {
	// ChatCompletion sends the request and returns the model's response.
	// Returns an error if the call fails or yields no choices.
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// GraphExtractor extracts entities and relations from text.
// Implementations must be thread-safe for concurrent use.
type GraphExtractor interface {
	// ExtractGraph analyzes text and extracts the entities it mentions and
	// the relations between them. Entities and relations below the
	// provider's confidence threshold are filtered out.
	// Returns an empty graph if nothing is found.
	// Returns an error if extraction fails.
	ExtractGraph(ctx context.Context, text string) (*Graph, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages the Embedder,
// ChatClient and GraphExtractor instances, ensuring they share
// configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// ChatClient returns the chat completion service.
	// The returned ChatClient is safe for concurrent use.
	ChatClient() ChatClient

	// GraphExtractor returns the entity-graph extraction service.
	// The returned GraphExtractor is safe for concurrent use.
	GraphExtractor() GraphExtractor

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
