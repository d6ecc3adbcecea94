// Package llm wraps the chat completion services used to analyze web pages
// and to answer as a persona.
package llm

import (
	"context"
	"fmt"
	"os"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Provider names
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Message is a single chat message
type Message struct {
	Role    string
	Content string
}

// Request describes one completion call
type Request struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Completer returns the completion text for a request
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Options configures NewCompleter
type Options struct {
	Provider string
	APIKey   string // read from the provider's environment variable when empty
	BaseURL  string
}

// NewCompleter creates a completer for the configured provider.
// A missing API key is not an error here; the service rejects the call later.
func NewCompleter(ctx context.Context, opts Options) (Completer, error) {
	switch opts.Provider {
	case "", ProviderOpenAI:
		apiKey := opts.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		return NewOpenAIClient(apiKey, opts.BaseURL), nil
	case ProviderGemini:
		apiKey := opts.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		return NewGeminiClient(ctx, apiKey)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s (supported: openai, gemini)", opts.Provider)
	}
}
