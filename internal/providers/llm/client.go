// Package llm holds the text completion clients used by the stages.
package llm

import (
	"context"

	"articlegen/internal/staticcfg"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Request is a single completion call.
type Request struct {
	Provider    string
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	// JSON asks the provider for a JSON object response.
	JSON bool
}

// Response is the completion text and who produced it.
type Response struct {
	Text     string
	Provider string
	Model    string
}

// Client completes prompts.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (*Response, error)

func (f ClientFunc) Complete(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// NewRequest fills provider and sampling settings from a stage model config.
func NewRequest(cfg staticcfg.ModelConfig, system, prompt string) Request {
	return Request{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		System:      system,
		Prompt:      prompt,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
}
