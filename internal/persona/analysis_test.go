package persona

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/daikw/vchat/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const analysisJSON = `{
  "persona_data": {
    "age_group": "20대",
    "gender": "여성",
    "occupation": "인터넷 방송인",
    "personality_traits": ["밝은", "활발한"],
    "speech_patterns": ["반말"],
    "tone": "밝고 친근한",
    "speaking_style": "반말, 애교 섞인 말투",
    "personality": "활발하고 긍정적인 방송인",
    "characteristics": ["재미있는 리액션"]
  },
  "few_shot_examples": [
    {"user": "안녕하세요!", "assistant": "안녕~ 반가워!"},
    {"user": "오늘 뭐했어?", "assistant": "게임했지~"}
  ]
}`

func TestParseAnalysis(t *testing.T) {
	wantTraits := Traits{
		"age_group":          "20대",
		"gender":             "여성",
		"occupation":         "인터넷 방송인",
		"personality_traits": []any{"밝은", "활발한"},
		"speech_patterns":    []any{"반말"},
		"tone":               "밝고 친근한",
		"speaking_style":     "반말, 애교 섞인 말투",
		"personality":        "활발하고 긍정적인 방송인",
		"characteristics":    []any{"재미있는 리액션"},
	}
	wantExamples := []FewShotExample{
		{User: "안녕하세요!", Assistant: "안녕~ 반가워!"},
		{User: "오늘 뭐했어?", Assistant: "게임했지~"},
	}

	tests := []struct {
		name     string
		response string
	}{
		{"plain json", analysisJSON},
		{"surrounding whitespace", "\n\n  " + analysisJSON + "\n"},
		{"fenced with json tag", "```json\n" + analysisJSON + "\n```"},
		{"fenced without tag", "```\n" + analysisJSON + "\n```"},
		{"fenced json tag on same line", "```json" + analysisJSON + "```"},
		{"fenced with uppercase tag", "```JSON\n" + analysisJSON + "\n```\n"},
		{"text after fence", "```json\n" + analysisJSON + "\n```\n이상입니다. 더 필요한 게 있나요?"},
		{"unterminated fence", "```json\n" + analysisJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnalysis(tt.response)
			require.NoError(t, err)
			assert.Equal(t, wantTraits, got.PersonaData)
			assert.Equal(t, wantExamples, got.FewShotExamples)
		})
	}
}

func TestParseAnalysis_KeepsSectionsAsReturned(t *testing.T) {
	t.Run("wrong-typed traits", func(t *testing.T) {
		got, err := ParseAnalysis(`{"persona_data": {"gender": "여성", "personality_traits": "밝음", "tone": ["밝음"], "age_group": 25}}`)
		require.NoError(t, err)

		assert.Equal(t, "밝음", got.PersonaData["personality_traits"])
		assert.Equal(t, []any{"밝음"}, got.PersonaData["tone"])
		assert.Equal(t, []string{"밝음"}, got.PersonaData.List(TraitPersonalityTraits))
		age, ok := got.PersonaData.Text(TraitAgeGroup)
		assert.True(t, ok)
		assert.Equal(t, "25", age)
	})

	t.Run("extra trait keys", func(t *testing.T) {
		got, err := ParseAnalysis(`{"persona_data": {"gender": "여성", "hobby": "게임", "mbti": {"type": "ENFP"}}}`)
		require.NoError(t, err)

		assert.Equal(t, "게임", got.PersonaData["hobby"])
		assert.Equal(t, map[string]any{"type": "ENFP"}, got.PersonaData["mbti"])
	})

	t.Run("assembled persona stores sections verbatim", func(t *testing.T) {
		got, err := ParseAnalysis(`{"persona_data": {"hobby": "게임", "tone": ["밝음"]}, "few_shot_examples": [{"user": "u", "assistant": "a", "emotion": "happy"}, "잡음"], "confidence": 0.4}`)
		require.NoError(t, err)

		p, err := got.Persona("둥그레", "v", "m", "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, "둥그레", p.Name)
		assert.Equal(t, []FewShotExample{{User: "u", Assistant: "a"}}, p.FewShotExamples)

		data, err := json.Marshal(p)
		require.NoError(t, err)
		assert.JSONEq(t, `{
  "name": "둥그레",
  "voice_id": "v",
  "fine_tuned_model_id": "m",
  "url": "https://example.com",
  "persona_data": {"hobby": "게임", "tone": ["밝음"]},
  "few_shot_examples": [{"user": "u", "assistant": "a", "emotion": "happy"}, "잡음"]
}`, string(data))
	})
}

func TestParseAnalysis_MissingSections(t *testing.T) {
	got, err := ParseAnalysis(`{"persona_data": {"gender": "남성"}}`)
	require.NoError(t, err)
	assert.Equal(t, "남성", got.PersonaData["gender"])
	assert.NotNil(t, got.FewShotExamples)
	assert.Empty(t, got.FewShotExamples)

	got, err = ParseAnalysis(`{"few_shot_examples": [{"user": "u", "assistant": "a"}]}`)
	require.NoError(t, err)
	assert.Nil(t, got.PersonaData)
	assert.Len(t, got.FewShotExamples, 1)

	p, err := got.Persona("A", "v", "m", "")
	require.NoError(t, err)
	assert.Equal(t, Traits{}, p.PersonaData)
}

func TestParseAnalysis_Failures(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"prose", "죄송하지만 정보가 부족합니다."},
		{"empty", ""},
		{"empty object", "{}"},
		{"null", "null"},
		{"array", `[{"user": "u"}]`},
		{"prose before fence", "결과입니다:\n```json\n" + analysisJSON + "\n```"},
		{"broken json in fence", "```json\n{\"persona_data\": \n```"},
		{"two objects", analysisJSON + analysisJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnalysis(tt.response)
			assert.Error(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestAnalysisRequest(t *testing.T) {
	req := AnalysisRequest("gpt-4o-mini", "둥그레", "페이지 본문")

	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.InDelta(t, 0.3, req.Temperature, 0.0001)
	assert.Equal(t, 2000, req.MaxTokens)
	require.Len(t, req.Messages, 2)

	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.True(t, strings.HasPrefix(req.Messages[0].Content, "당신은 웹페이지 텍스트를 분석하여 인물의 페르소나를 추출하는 전문가입니다."))
	assert.Contains(t, req.Messages[0].Content, "'둥그레'라는 인물의 특성을 분석하여")
	assert.Contains(t, req.Messages[0].Content, `"few_shot_examples": [`)

	assert.Equal(t, llm.RoleUser, req.Messages[1].Role)
	assert.Equal(t, "다음은 '둥그레'에 대한 웹페이지 텍스트입니다. 이를 분석하여 페르소나 데이터를 생성해주세요:\n\n페이지 본문", req.Messages[1].Content)
}
