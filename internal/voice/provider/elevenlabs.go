package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	ElevenLabsBaseURL        = "https://api.elevenlabs.io/v1"
	ElevenLabsTTSEndpoint    = "/text-to-speech"
	ElevenLabsVoicesEndpoint = "/voices"

	// ElevenLabsDefaultModel handles Korean
	ElevenLabsDefaultModel = "eleven_multilingual_v2"
)

// ElevenLabsProvider speaks with the voice ids stored on personas
type ElevenLabsProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewElevenLabsProvider creates an ElevenLabs provider
func NewElevenLabsProvider(apiKey string) *ElevenLabsProvider {
	return &ElevenLabsProvider{
		apiKey:  apiKey,
		baseURL: ElevenLabsBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WithBaseURL overrides the API endpoint
func (p *ElevenLabsProvider) WithBaseURL(baseURL string) *ElevenLabsProvider {
	if baseURL != "" {
		p.baseURL = strings.TrimSuffix(baseURL, "/")
	}
	return p
}

func (p *ElevenLabsProvider) Name() string {
	return NameElevenLabs
}

type elevenLabsVoice struct {
	VoiceID         string            `json:"voice_id"`
	Name            string            `json:"name"`
	Category        string            `json:"category"`
	Labels          map[string]string `json:"labels"`
	Description     string            `json:"description"`
	AvailableForTTS *bool             `json:"available_for_tts"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type elevenLabsTTSRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

// ListVoices returns the voices on the account, including cloned persona voices
func (p *ElevenLabsProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	resp, err := p.get(ctx, ElevenLabsVoicesEndpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, elevenLabsError(resp)
	}

	var body struct {
		Voices []elevenLabsVoice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode voices response: %w", err)
	}

	voices := make([]Voice, 0, len(body.Voices))
	for _, v := range body.Voices {
		if v.AvailableForTTS != nil && !*v.AvailableForTTS {
			continue
		}
		language := v.Labels["language"]
		if language == "" {
			language = "multilingual"
		}
		description := v.Description
		if description == "" {
			description = v.Category
		}
		voices = append(voices, Voice{
			ID:          v.VoiceID,
			Name:        v.Name,
			Language:    language,
			Gender:      v.Labels["gender"],
			Description: description,
		})
	}

	log.Debug().Int("voice_count", len(voices)).Msg("ElevenLabs voices retrieved")
	return voices, nil
}

// Synthesize speaks text with options.Voice, which must be an ElevenLabs voice id
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if options.Voice == "" {
		return nil, fmt.Errorf("voice id is required for ElevenLabs")
	}

	model := options.Model
	if model == "" {
		model = ElevenLabsDefaultModel
	}

	settings := elevenLabsVoiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.75,
		Style:           options.Style,
		UseSpeakerBoost: true,
	}
	if options.Stability > 0 {
		settings.Stability = options.Stability
	}
	if options.SimilarityBoost > 0 {
		settings.SimilarityBoost = options.SimilarityBoost
	}

	payload, err := json.Marshal(elevenLabsTTSRequest{
		Text:          text,
		ModelID:       model,
		VoiceSettings: settings,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	outputFormat := elevenLabsFormat(options.Format)
	endpoint := fmt.Sprintf("%s%s/%s?output_format=%s",
		p.baseURL, ElevenLabsTTSEndpoint, url.PathEscape(options.Voice), url.QueryEscape(outputFormat))

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/*")
	req.Header.Set("xi-api-key", p.apiKey)

	log.Debug().
		Str("voice", options.Voice).
		Str("model", model).
		Str("format", outputFormat).
		Msg("Making ElevenLabs TTS request")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, elevenLabsError(resp)
	}

	return resp.Body, nil
}

// IsAvailable checks the API key against the user endpoint
func (p *ElevenLabsProvider) IsAvailable(ctx context.Context) bool {
	if p.apiKey == "" {
		return false
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := p.get(checkCtx, "/user")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (p *ElevenLabsProvider) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	return resp, nil
}

// elevenLabsFormat maps a short format name to an output_format value
func elevenLabsFormat(format string) string {
	switch strings.ToLower(format) {
	case "", "mp3", "mpeg":
		return "mp3_44100_128"
	case "wav", "pcm":
		return "pcm_44100"
	case "ulaw":
		return "ulaw_8000"
	default:
		// already an ElevenLabs format such as mp3_22050_32
		return format
	}
}

// elevenLabsError builds an error from a non-200 response. The API reports
// detail either as a string or as an object with a message.
func elevenLabsError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var parsed struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && len(parsed.Detail) > 0 {
		var message string
		if json.Unmarshal(parsed.Detail, &message) == nil {
			return fmt.Errorf("ElevenLabs API error (status %d): %s", resp.StatusCode, message)
		}
		var detail struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}
		if json.Unmarshal(parsed.Detail, &detail) == nil && (detail.Message != "" || detail.Status != "") {
			if detail.Message == "" {
				detail.Message = detail.Status
			}
			return fmt.Errorf("ElevenLabs API error (status %d): %s", resp.StatusCode, detail.Message)
		}
	}

	return fmt.Errorf("ElevenLabs API error: status %d, body: %s", resp.StatusCode, string(body))
}
