package provider

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPollyClient is a mock implementation of PollyClient
type MockPollyClient struct {
	mock.Mock
}

func (m *MockPollyClient) DescribeVoices(ctx context.Context, params *polly.DescribeVoicesInput, optFns ...func(*polly.Options)) (*polly.DescribeVoicesOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*polly.DescribeVoicesOutput), args.Error(1)
}

func (m *MockPollyClient) SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*polly.SynthesizeSpeechOutput), args.Error(1)
}

func TestPollyProvider_ListVoices(t *testing.T) {
	client := new(MockPollyClient)
	client.On("DescribeVoices", mock.Anything, mock.MatchedBy(func(in *polly.DescribeVoicesInput) bool {
		return in.LanguageCode == types.LanguageCodeKoKr
	})).Return(&polly.DescribeVoicesOutput{
		Voices: []types.Voice{{
			Id:               types.VoiceIdSeoyeon,
			Name:             aws.String("Seoyeon"),
			LanguageCode:     types.LanguageCodeKoKr,
			Gender:           types.GenderFemale,
			SupportedEngines: []types.Engine{types.EngineStandard, types.EngineNeural},
		}},
	}, nil)

	voices, err := NewPollyProviderWithClient(client, "").ListVoices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 1)
	assert.Equal(t, Voice{
		ID:          "Seoyeon",
		Name:        "Seoyeon",
		Language:    "ko-KR",
		Gender:      "female",
		Description: "Female voice, engines: standard, neural",
	}, voices[0])
	client.AssertExpectations(t)
}

func TestPollyProvider_ListVoicesError(t *testing.T) {
	client := new(MockPollyClient)
	client.On("DescribeVoices", mock.Anything, mock.Anything).Return(nil, errors.New("expired token"))

	_, err := NewPollyProviderWithClient(client, "ja-JP").ListVoices(context.Background())
	assert.ErrorContains(t, err, "expired token")
}

func TestPollyProvider_Synthesize(t *testing.T) {
	t.Run("korean defaults", func(t *testing.T) {
		client := new(MockPollyClient)
		client.On("SynthesizeSpeech", mock.Anything, mock.MatchedBy(func(in *polly.SynthesizeSpeechInput) bool {
			return aws.ToString(in.Text) == "안녕~" &&
				in.VoiceId == types.VoiceIdSeoyeon &&
				in.OutputFormat == types.OutputFormatMp3 &&
				in.Engine == types.EngineNeural &&
				in.TextType == types.TextTypeText &&
				in.SampleRate == nil
		})).Return(&polly.SynthesizeSpeechOutput{
			AudioStream: io.NopCloser(strings.NewReader("polly audio")),
			ContentType: aws.String("audio/mpeg"),
		}, nil)

		reader, err := NewPollyProviderWithClient(client, "").Synthesize(context.Background(), "안녕~", SynthesizeOptions{})
		require.NoError(t, err)
		data, _ := io.ReadAll(reader)
		assert.Equal(t, "polly audio", string(data))
		client.AssertExpectations(t)
	})

	t.Run("ssml and options", func(t *testing.T) {
		client := new(MockPollyClient)
		client.On("SynthesizeSpeech", mock.Anything, mock.MatchedBy(func(in *polly.SynthesizeSpeechInput) bool {
			return in.TextType == types.TextTypeSsml &&
				in.OutputFormat == types.OutputFormatOggVorbis &&
				in.Engine == types.EngineStandard &&
				aws.ToString(in.SampleRate) == "22050" &&
				in.LanguageCode == types.LanguageCodeKoKr
		})).Return(&polly.SynthesizeSpeechOutput{AudioStream: io.NopCloser(strings.NewReader(""))}, nil)

		_, err := NewPollyProviderWithClient(client, "").Synthesize(context.Background(), "<speak>안녕</speak>", SynthesizeOptions{
			Format:     "ogg",
			Engine:     "standard",
			SampleRate: "22050",
			Language:   "ko-KR",
		})
		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("unsupported format", func(t *testing.T) {
		client := new(MockPollyClient)
		_, err := NewPollyProviderWithClient(client, "").Synthesize(context.Background(), "hi", SynthesizeOptions{Format: "flac"})
		assert.ErrorContains(t, err, "unsupported audio format")
		client.AssertNotCalled(t, "SynthesizeSpeech", mock.Anything, mock.Anything)
	})

	t.Run("service error", func(t *testing.T) {
		client := new(MockPollyClient)
		client.On("SynthesizeSpeech", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

		_, err := NewPollyProviderWithClient(client, "").Synthesize(context.Background(), "hi", SynthesizeOptions{})
		assert.ErrorContains(t, err, "throttled")
	})
}

func TestPollyProvider_IsAvailable(t *testing.T) {
	ok := new(MockPollyClient)
	ok.On("DescribeVoices", mock.Anything, mock.Anything).Return(&polly.DescribeVoicesOutput{}, nil)
	assert.True(t, NewPollyProviderWithClient(ok, "").IsAvailable(context.Background()))

	failing := new(MockPollyClient)
	failing.On("DescribeVoices", mock.Anything, mock.Anything).Return(nil, errors.New("no credentials"))
	assert.False(t, NewPollyProviderWithClient(failing, "").IsAvailable(context.Background()))
}

func TestPollyEngine(t *testing.T) {
	assert.Equal(t, types.EngineNeural, pollyEngine(""))
	assert.Equal(t, types.EngineLongForm, pollyEngine("long-form"))
	assert.Equal(t, types.EngineGenerative, pollyEngine("Generative"))
	assert.Equal(t, types.EngineNeural, pollyEngine("turbo"))
}
