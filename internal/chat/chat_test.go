package chat

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/daikw/vchat/internal/llm"
	"github.com/daikw/vchat/internal/persona"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCompleter is a mock implementation of llm.Completer
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func newStore(t *testing.T) *persona.Store {
	t.Helper()
	store := persona.NewStore(filepath.Join(t.TempDir(), "personas.json"))
	store.Put(&persona.Persona{
		Name:             "둥그레",
		VoiceID:          "v1",
		FineTunedModelID: "ft:dunggeure",
		PersonaData:      persona.Traits{"gender": "여성", "occupation": "인터넷 방송인"},
		FewShotExamples: []persona.FewShotExample{
			{User: "안녕하세요!", Assistant: "안녕~ 반가워!"},
			{User: "오늘 뭐했어?", Assistant: "게임했지~"},
		},
	})
	return store
}

func TestBuildMessages(t *testing.T) {
	store := newStore(t)
	require.True(t, store.Select("둥그레"))
	p := store.Current()

	messages := BuildMessages(p, "배고파")

	require.Len(t, messages, 6)
	assert.Equal(t, llm.Message{Role: llm.RoleSystem, Content: persona.RenderSystemPrompt(p)}, messages[0])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "안녕하세요!"}, messages[1])
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "안녕~ 반가워!"}, messages[2])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "오늘 뭐했어?"}, messages[3])
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "게임했지~"}, messages[4])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "배고파"}, messages[5])
}

func TestBuildMessages_NoExamples(t *testing.T) {
	messages := BuildMessages(&persona.Persona{Name: "A"}, "hi")
	require.Len(t, messages, 2)
	assert.Equal(t, llm.RoleSystem, messages[0].Role)
	assert.Equal(t, "hi", messages[1].Content)
}

func TestResponder_Reply(t *testing.T) {
	t.Run("uses persona model", func(t *testing.T) {
		store := newStore(t)
		store.Select("둥그레")

		completer := new(MockCompleter)
		completer.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
			return req.Model == "ft:dunggeure" &&
				req.MaxTokens == DefaultMaxTokens &&
				req.Temperature == DefaultTemperature &&
				len(req.Messages) == 6
		})).Return("  나도 배고파~ 뭐 먹을까?\n", nil)

		reply, err := NewResponder(completer, "").Reply(context.Background(), store, "배고파")
		require.NoError(t, err)
		assert.Equal(t, "나도 배고파~ 뭐 먹을까?", reply)
		completer.AssertExpectations(t)
	})

	t.Run("configured model overrides persona", func(t *testing.T) {
		store := newStore(t)
		store.Select("둥그레")

		completer := new(MockCompleter)
		completer.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
			return req.Model == "gpt-4o"
		})).Return("응!", nil)

		reply, err := NewResponder(completer, "gpt-4o").Reply(context.Background(), store, "안녕")
		require.NoError(t, err)
		assert.Equal(t, "응!", reply)
	})

	t.Run("fallback model", func(t *testing.T) {
		store := persona.NewStore(filepath.Join(t.TempDir(), "personas.json"))
		store.Put(&persona.Persona{Name: "빈"})
		store.Select("빈")

		completer := new(MockCompleter)
		completer.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
			return req.Model == FallbackModel
		})).Return("응", nil)

		_, err := NewResponder(completer, "").Reply(context.Background(), store, "안녕")
		require.NoError(t, err)
		completer.AssertExpectations(t)
	})

	t.Run("empty completion", func(t *testing.T) {
		store := newStore(t)
		store.Select("둥그레")

		completer := new(MockCompleter)
		completer.On("Complete", mock.Anything, mock.Anything).Return("   ", nil)

		reply, err := NewResponder(completer, "").Reply(context.Background(), store, "안녕")
		require.NoError(t, err)
		assert.Equal(t, FallbackReply, reply)
	})

	t.Run("no persona selected", func(t *testing.T) {
		completer := new(MockCompleter)

		_, err := NewResponder(completer, "").Reply(context.Background(), newStore(t), "안녕")
		assert.ErrorIs(t, err, ErrNoPersona)
		completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("empty message", func(t *testing.T) {
		store := newStore(t)
		store.Select("둥그레")

		_, err := NewResponder(new(MockCompleter), "").Reply(context.Background(), store, "  ")
		assert.Error(t, err)
	})

	t.Run("completion error", func(t *testing.T) {
		store := newStore(t)
		store.Select("둥그레")

		completer := new(MockCompleter)
		completer.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

		_, err := NewResponder(completer, "").Reply(context.Background(), store, "안녕")
		assert.ErrorContains(t, err, "quota exceeded")
	})
}
