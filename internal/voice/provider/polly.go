package provider

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	PollyDefaultRegion   = "ap-northeast-2"
	PollyDefaultVoice    = "Seoyeon"
	PollyDefaultLanguage = "ko-KR"
)

// PollyClient is the subset of the Polly API the provider calls
type PollyClient interface {
	DescribeVoices(ctx context.Context, params *polly.DescribeVoicesInput, optFns ...func(*polly.Options)) (*polly.DescribeVoicesOutput, error)
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// PollyProvider implements Provider with Amazon Polly
type PollyProvider struct {
	client   PollyClient
	language string
}

// NewPollyProvider loads AWS credentials from the default chain
func NewPollyProvider(ctx context.Context, region, languageCode string) (*PollyProvider, error) {
	if region == "" {
		region = PollyDefaultRegion
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewPollyProviderWithClient(polly.NewFromConfig(cfg), languageCode), nil
}

// NewPollyProviderWithClient wraps an existing client. ListVoices is limited
// to languageCode; an empty code means Korean.
func NewPollyProviderWithClient(client PollyClient, languageCode string) *PollyProvider {
	if languageCode == "" {
		languageCode = PollyDefaultLanguage
	}
	return &PollyProvider{client: client, language: languageCode}
}

func (p *PollyProvider) Name() string {
	return NamePolly
}

func (p *PollyProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	result, err := p.client.DescribeVoices(ctx, &polly.DescribeVoicesInput{
		LanguageCode: types.LanguageCode(p.language),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list Polly voices: %w", err)
	}

	title := cases.Title(language.English)
	voices := make([]Voice, 0, len(result.Voices))
	for _, v := range result.Voices {
		voices = append(voices, Voice{
			ID:       string(v.Id),
			Name:     aws.ToString(v.Name),
			Language: string(v.LanguageCode),
			Gender:   strings.ToLower(string(v.Gender)),
			Description: fmt.Sprintf("%s voice, engines: %s",
				title.String(string(v.Gender)), joinEngines(v.SupportedEngines)),
		})
	}
	return voices, nil
}

func (p *PollyProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	voiceID := options.Voice
	if voiceID == "" {
		voiceID = PollyDefaultVoice
	}

	format, err := pollyFormat(options.Format)
	if err != nil {
		return nil, err
	}

	input := &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		VoiceId:      types.VoiceId(voiceID),
		OutputFormat: format,
		Engine:       pollyEngine(options.Engine),
		TextType:     types.TextTypeText,
	}
	if isSSML(text) {
		input.TextType = types.TextTypeSsml
	}
	if options.Language != "" {
		input.LanguageCode = types.LanguageCode(options.Language)
	}

	switch options.SampleRate {
	case "":
	case "8000", "16000", "22050", "24000":
		input.SampleRate = aws.String(options.SampleRate)
	default:
		log.Warn().Str("sample_rate", options.SampleRate).Msg("Unsupported Polly sample rate, using default")
	}

	log.Debug().
		Str("voice_id", voiceID).
		Str("output_format", string(format)).
		Str("engine", string(input.Engine)).
		Str("text_type", string(input.TextType)).
		Msg("Making Polly synthesis request")

	result, err := p.client.SynthesizeSpeech(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}
	return result.AudioStream, nil
}

func (p *PollyProvider) IsAvailable(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := p.client.DescribeVoices(checkCtx, &polly.DescribeVoicesInput{
		LanguageCode: types.LanguageCode(p.language),
	})
	return err == nil
}

func pollyFormat(format string) (types.OutputFormat, error) {
	switch strings.ToLower(format) {
	case "", "mp3":
		return types.OutputFormatMp3, nil
	case "ogg", "ogg_vorbis":
		return types.OutputFormatOggVorbis, nil
	case "pcm":
		return types.OutputFormatPcm, nil
	default:
		return "", fmt.Errorf("unsupported audio format for Polly: %s", format)
	}
}

// pollyEngine defaults to neural, which the Korean voice Seoyeon supports
func pollyEngine(engine string) types.Engine {
	switch strings.ToLower(engine) {
	case "", "neural":
		return types.EngineNeural
	case "standard":
		return types.EngineStandard
	case "long-form":
		return types.EngineLongForm
	case "generative":
		return types.EngineGenerative
	default:
		log.Warn().Str("engine", engine).Msg("Unknown Polly engine, using neural")
		return types.EngineNeural
	}
}

func joinEngines(engines []types.Engine) string {
	if len(engines) == 0 {
		return "unknown"
	}
	names := make([]string, len(engines))
	for i, engine := range engines {
		names[i] = string(engine)
	}
	return strings.Join(names, ", ")
}

// isSSML reports whether text is SSML markup rather than plain text
func isSSML(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "<speak")
}
