package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	GCPDefaultVoice    = "ko-KR-Neural2-A"
	GCPDefaultLanguage = "ko-KR"
)

// GCPClient is the subset of the Cloud Text-to-Speech client the provider calls
type GCPClient interface {
	ListVoices(ctx context.Context, req *texttospeechpb.ListVoicesRequest, opts ...gax.CallOption) (*texttospeechpb.ListVoicesResponse, error)
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
	Close() error
}

// GCPProvider implements Provider with Google Cloud Text-to-Speech
type GCPProvider struct {
	client   GCPClient
	voice    string
	language string
}

// GCPOption configures a GCPProvider
type GCPOption func(*GCPProvider)

// WithGCPVoice sets the default voice name
func WithGCPVoice(voice string) GCPOption {
	return func(p *GCPProvider) {
		if voice != "" {
			p.voice = voice
		}
	}
}

// WithGCPLanguage sets the default language code
func WithGCPLanguage(languageCode string) GCPOption {
	return func(p *GCPProvider) {
		if languageCode != "" {
			p.language = languageCode
		}
	}
}

// NewGCPProvider connects with Application Default Credentials. A non-empty
// region selects the regional endpoint, for example "asia-northeast3".
func NewGCPProvider(ctx context.Context, region string, opts ...GCPOption) (*GCPProvider, error) {
	var clientOpts []option.ClientOption
	if region != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(region+"-texttospeech.googleapis.com:443"))
	}

	client, err := texttospeech.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP TTS client: %w", err)
	}
	return NewGCPProviderWithClient(client, opts...), nil
}

// NewGCPProviderWithClient wraps an existing client
func NewGCPProviderWithClient(client GCPClient, opts ...GCPOption) *GCPProvider {
	p := &GCPProvider{
		client:   client,
		voice:    GCPDefaultVoice,
		language: GCPDefaultLanguage,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *GCPProvider) Name() string {
	return NameGCP
}

func (p *GCPProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	resp, err := p.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{LanguageCode: p.language})
	if err != nil {
		return nil, fmt.Errorf("failed to list GCP voices: %w", gcpError(err))
	}

	voices := make([]Voice, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		language := p.language
		if len(v.LanguageCodes) > 0 {
			language = v.LanguageCodes[0]
		}
		voices = append(voices, Voice{
			ID:          v.Name,
			Name:        v.Name,
			Language:    language,
			Gender:      gcpGender(v.SsmlGender),
			Description: gcpVoiceType(v.Name) + " voice",
		})
	}

	log.Debug().Int("count", len(voices)).Msg("Listed GCP TTS voices")
	return voices, nil
}

func (p *GCPProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	voice := p.voice
	if options.Voice != "" {
		voice = options.Voice
	}
	languageCode := options.Language
	if languageCode == "" {
		languageCode = languageFromVoice(voice, p.language)
	}

	input := &texttospeechpb.SynthesisInput{
		InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
	}
	if isSSML(text) {
		input.InputSource = &texttospeechpb.SynthesisInput_Ssml{Ssml: text}
	}

	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: input,
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: languageCode,
			Name:         voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   gcpEncoding(options.Format),
			SpeakingRate:    clampSpeed(options.Speed),
			SampleRateHertz: gcpSampleRate(options.SampleRate),
		},
	}

	log.Debug().
		Str("voice", voice).
		Str("language", languageCode).
		Str("encoding", req.AudioConfig.AudioEncoding.String()).
		Msg("Making GCP TTS synthesis request")

	resp, err := p.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", gcpError(err))
	}
	return io.NopCloser(bytes.NewReader(resp.AudioContent)), nil
}

func (p *GCPProvider) IsAvailable(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := p.client.ListVoices(checkCtx, &texttospeechpb.ListVoicesRequest{LanguageCode: p.language})
	return err == nil
}

// Close releases the gRPC connection
func (p *GCPProvider) Close() error {
	return p.client.Close()
}

// gcpError adds a hint for the status codes a misconfigured machine returns
func gcpError(err error) error {
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w (check GOOGLE_APPLICATION_CREDENTIALS)", err)
	case codes.InvalidArgument:
		return fmt.Errorf("%w (check the voice name and language code)", err)
	default:
		return err
	}
}

// languageFromVoice extracts ko-KR from ko-KR-Neural2-A
func languageFromVoice(voice, fallback string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 3 {
		return fallback
	}
	return parts[0] + "-" + parts[1]
}

func gcpGender(gender texttospeechpb.SsmlVoiceGender) string {
	switch gender {
	case texttospeechpb.SsmlVoiceGender_MALE:
		return "male"
	case texttospeechpb.SsmlVoiceGender_FEMALE:
		return "female"
	case texttospeechpb.SsmlVoiceGender_NEUTRAL:
		return "neutral"
	default:
		return ""
	}
}

func gcpVoiceType(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "wavenet"):
		return "WaveNet"
	case strings.Contains(lower, "neural2"):
		return "Neural2"
	case strings.Contains(lower, "chirp"):
		return "Chirp"
	case strings.Contains(lower, "studio"):
		return "Studio"
	default:
		return "Standard"
	}
}

func gcpEncoding(format string) texttospeechpb.AudioEncoding {
	switch strings.ToLower(format) {
	case "wav", "pcm", "linear16":
		return texttospeechpb.AudioEncoding_LINEAR16
	case "ogg", "ogg_opus":
		return texttospeechpb.AudioEncoding_OGG_OPUS
	default:
		return texttospeechpb.AudioEncoding_MP3
	}
}

func gcpSampleRate(sampleRate string) int32 {
	switch sampleRate {
	case "8000":
		return 8000
	case "16000":
		return 16000
	case "22050":
		return 22050
	case "24000":
		return 24000
	case "44100":
		return 44100
	case "48000":
		return 48000
	default:
		return 0
	}
}
