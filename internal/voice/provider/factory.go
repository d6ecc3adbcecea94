package provider

import (
	"context"
	"fmt"
	"os"
)

// Settings carries the configuration every provider may read
type Settings struct {
	APIKey   string // ElevenLabs and OpenAI; read from the environment when empty
	BaseURL  string
	Region   string // Polly region or GCP endpoint region
	Voice    string // GCP default voice
	Language string
}

// Names lists the supported providers
func Names() []string {
	return []string{NameElevenLabs, NameOpenAI, NamePolly, NameGCP}
}

// NewFromConfig creates the named provider. An empty name selects ElevenLabs,
// which speaks with the voice ids stored on personas.
func NewFromConfig(ctx context.Context, name string, settings Settings) (Provider, error) {
	switch name {
	case "", NameElevenLabs:
		apiKey := firstNonEmpty(settings.APIKey, os.Getenv("ELEVENLABS_API_KEY"), os.Getenv("ELEVEN_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("ElevenLabs API key not found in config or ELEVENLABS_API_KEY environment variable")
		}
		return NewElevenLabsProvider(apiKey).WithBaseURL(settings.BaseURL), nil

	case NameOpenAI:
		apiKey := firstNonEmpty(settings.APIKey, os.Getenv("OPENAI_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("OpenAI API key not found in config or OPENAI_API_KEY environment variable")
		}
		return NewOpenAIProvider(apiKey).WithBaseURL(settings.BaseURL), nil

	case NamePolly:
		return NewPollyProvider(ctx, settings.Region, settings.Language)

	case NameGCP:
		return NewGCPProvider(ctx, settings.Region, WithGCPVoice(settings.Voice), WithGCPLanguage(settings.Language))

	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: %v)", name, Names())
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
