// Package voice speaks persona replies through a text-to-speech provider.
package voice

import (
	"github.com/daikw/vchat/internal/config"
	"github.com/daikw/vchat/internal/voice/provider"
	"github.com/rs/zerolog/log"
)

// ResolveOptions merges the persona's voice id with the voice config.
//
// Persona voice ids are ElevenLabs voice ids, so they apply only when the
// provider is ElevenLabs. Other providers use the configured voice, or
// their own default when none is configured.
func ResolveOptions(personaVoiceID string, cfg config.VoiceConfig) provider.SynthesizeOptions {
	opts := provider.SynthesizeOptions{
		Voice:           cfg.Voice,
		Model:           cfg.Model,
		Format:          cfg.Format,
		Speed:           cfg.Speed,
		Language:        cfg.Language,
		Stability:       cfg.Stability,
		SimilarityBoost: cfg.SimilarityBoost,
		Engine:          cfg.Engine,
	}

	switch cfg.Provider {
	case "", provider.NameElevenLabs:
		if personaVoiceID != "" {
			opts.Voice = personaVoiceID
		}
	case provider.NameOpenAI:
		if opts.Voice == "" {
			opts.Voice = provider.OpenAIDefaultVoice
		}
	}

	log.Debug().
		Str("provider", cfg.Provider).
		Str("voice", opts.Voice).
		Str("format", opts.Format).
		Msg("Resolved voice options")

	return opts
}

// Extension returns the file extension for an audio format name
func Extension(format string) string {
	switch format {
	case "wav", "pcm", "linear16":
		return "wav"
	case "ogg", "ogg_vorbis", "ogg_opus":
		return "ogg"
	default:
		return "mp3"
	}
}
