package persona

import (
	"bytes"
	"context"

	"github.com/rs/zerolog/log"
)

// CreateFromURL builds a persona from a web page: fetch, strip to text,
// extract traits with the language model, then store and save.
// Every failure is logged and reported as false. A persona with the same
// name is replaced.
func (s *Store) CreateFromURL(ctx context.Context, req CreateRequest) bool {
	log.Info().Str("persona", req.Name).Str("url", req.URL).Msg("Fetching web page for persona")

	body, err := s.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		log.Error().Err(err).Str("url", req.URL).Msg("Failed to fetch web page")
		return false
	}

	pageText, err := ExtractText(bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Str("url", req.URL).Msg("Failed to extract page text")
		return false
	}
	pageText = truncateText(pageText, MaxPageChars)

	log.Info().Int("chars", len([]rune(pageText))).Msg("Extracted web page text")

	analysis, err := s.analyze(ctx, req.Name, pageText)
	if err != nil {
		log.Error().Err(err).Str("persona", req.Name).Msg("Failed to analyze persona")
		return false
	}

	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}
	modelID := req.ModelID
	if modelID == "" {
		modelID = DefaultModelID
	}

	p, err := analysis.Persona(req.Name, voiceID, modelID, req.URL)
	if err != nil {
		log.Error().Err(err).Str("persona", req.Name).Msg("Failed to assemble persona")
		return false
	}

	s.Put(p)
	s.Save()

	log.Info().Str("persona", req.Name).Msg("Created persona")
	return true
}
