package voice

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/daikw/vchat/internal/voice/provider"
	"github.com/rs/zerolog/log"
)

// Speaker synthesizes text with one provider and fixed options
type Speaker struct {
	provider provider.Provider
	options  provider.SynthesizeOptions
}

// NewSpeaker creates a speaker
func NewSpeaker(p provider.Provider, options provider.SynthesizeOptions) *Speaker {
	return &Speaker{provider: p, options: options}
}

// CheckAvailable returns an error when the provider does not answer with
// the current credentials
func CheckAvailable(ctx context.Context, p provider.Provider) error {
	if !p.IsAvailable(ctx) {
		return fmt.Errorf("voice provider '%s' is not available", p.Name())
	}
	return nil
}

// Options returns the synthesis options in use
func (s *Speaker) Options() provider.SynthesizeOptions {
	return s.options
}

// Speak synthesizes text and copies the audio to w. It returns the number
// of audio bytes written.
func (s *Speaker) Speak(ctx context.Context, text string, w io.Writer) (int64, error) {
	text = PrepareText(text, MaxSpeechChars)
	if text == "" {
		return 0, fmt.Errorf("nothing to speak")
	}

	audio, err := s.provider.Synthesize(ctx, text, s.options)
	if err != nil {
		return 0, fmt.Errorf("synthesis failed: %w", err)
	}
	defer audio.Close()

	n, err := io.Copy(w, audio)
	if err != nil {
		return n, fmt.Errorf("failed to copy audio data: %w", err)
	}

	log.Debug().
		Str("provider", s.provider.Name()).
		Int64("bytes", n).
		Msg("Audio synthesis completed")

	return n, nil
}

// SpeakToFile writes the audio for text to path, creating parent
// directories. A partially written file is removed on failure.
func (s *Speaker) SpeakToFile(ctx context.Context, text, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if _, err := s.Speak(ctx, text, out); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	log.Info().Str("path", path).Msg("Saved audio")
	return nil
}
