// Package provider implements text-to-speech backends that speak persona replies.
package provider

import (
	"context"
	"io"
)

// Provider names
const (
	NameElevenLabs = "elevenlabs"
	NameOpenAI     = "openai"
	NamePolly      = "polly"
	NameGCP        = "gcp"
)

// Provider is a text-to-speech service
type Provider interface {
	// Name returns the provider name
	Name() string

	// ListVoices returns the voices this provider can speak with
	ListVoices(ctx context.Context) ([]Voice, error)

	// Synthesize returns an audio stream for text; the caller closes it
	Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error)

	// IsAvailable reports whether the service answers with the current credentials
	IsAvailable(ctx context.Context) bool
}

// Voice describes one selectable voice
type Voice struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Language    string `json:"language" yaml:"language"`
	Gender      string `json:"gender,omitempty" yaml:"gender,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// SynthesizeOptions are per-request settings. Zero values select the
// provider's defaults; fields a provider does not understand are ignored.
type SynthesizeOptions struct {
	Voice    string
	Model    string
	Format   string  // mp3, wav, ogg, pcm
	Speed    float64 // 0.25-4.0
	Language string

	// ElevenLabs
	Stability       float64
	SimilarityBoost float64
	Style           float64

	// Polly and GCP
	Engine     string
	SampleRate string
}
