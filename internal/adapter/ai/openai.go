package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ProdigyRahul/Codojo/internal/port"
)

// Config holds the settings for an OpenAI-compatible endpoint.
type Config struct {
	APIKey         string
	BaseURL        string // empty = api.openai.com
	ChatModel      string // e.g. gpt-4o-mini
	EmbeddingModel string // e.g. text-embedding-3-small
	Dimensions     int    // requested embedding dimension (0 = model default)
	Timeout        time.Duration
}

// OpenAIProvider implements port.AIProvider using the go-openai client.
// Any API-compatible server (OpenAI, OpenRouter, a local gateway) works
// through BaseURL.
type OpenAIProvider struct {
	client     *openai.Client
	chatModel  string
	embedModel string
	dimensions int
}

// NewOpenAIProvider creates a new OpenAI-backed AI provider.
func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAIProvider{
		client:     openai.NewClientWithConfig(clientCfg),
		chatModel:  cfg.ChatModel,
		embedModel: cfg.EmbeddingModel,
		dimensions: cfg.Dimensions,
	}
}

// ModelName returns the chat model identifier.
func (p *OpenAIProvider) ModelName() string {
	return p.chatModel
}

// Embed generates a vector embedding for the given text.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(p.embedModel),
		Input:      []string{text},
		Dimensions: p.dimensions,
	})
	if err != nil {
		return nil, classify("embed", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embed: empty response")
	}
	return resp.Data[0].Embedding, nil
}

// Complete sends a prompt and returns the full model response.
func (p *OpenAIProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", classify("chat", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteStream sends a prompt and streams the response as deltas.
// A failure after the stream opened is surfaced as a terminal StreamDelta
// with Err set, so callers never mistake a truncated answer for a complete
// one.
func (p *OpenAIProvider) CompleteStream(ctx context.Context, systemPrompt, userPrompt string) (<-chan port.StreamDelta, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: p.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Stream: true,
	})
	if err != nil {
		return nil, classify("chat stream", err)
	}

	ch := make(chan port.StreamDelta, 64)
	go func() {
		defer close(ch)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				ch <- port.StreamDelta{Err: fmt.Errorf("chat stream: %w", err)}
				return
			}
			if len(resp.Choices) > 0 && resp.Choices[0].Delta.Content != "" {
				ch <- port.StreamDelta{Content: resp.Choices[0].Delta.Content}
			}
		}
	}()

	return ch, nil
}

// classify maps OpenAI API errors onto the port sentinels so pipelines can
// decide between backoff and fail-fast with errors.Is.
func classify(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%s: %w: %v", op, port.ErrRateLimited, err)
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %v", op, port.ErrNotFound, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w: %v", op, port.ErrAuthFailed, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
