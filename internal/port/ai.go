package port

import "context"

// StreamDelta is one increment of a streamed completion.
//
// A delta with Err set is terminal: the channel is closed immediately after
// it and no further content follows. A channel that closes without an Err
// delta completed normally. Consumers can therefore always distinguish
// "stream done" from "stream failed mid-flight".
type StreamDelta struct {
	Content string
	Err     error
}

// AIProvider abstracts the generative-model backend for summaries,
// embeddings and streamed completions. Implementations can target OpenAI
// or any API-compatible server.
type AIProvider interface {
	// ModelName returns the identifier of the chat model being used.
	ModelName() string

	// Embed generates a fixed-dimension vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Complete sends a prompt and returns the full model response.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// CompleteStream sends a prompt and streams the response as deltas.
	// See StreamDelta for the termination contract.
	CompleteStream(ctx context.Context, systemPrompt, userPrompt string) (<-chan StreamDelta, error)
}
