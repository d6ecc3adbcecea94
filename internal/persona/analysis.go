package persona

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/daikw/vchat/internal/llm"
	"github.com/rs/zerolog/log"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Sampling settings for persona extraction
const (
	AnalysisTemperature = 0.3
	AnalysisMaxTokens   = 2000
)

const analysisSystemPrompt = `당신은 웹페이지 텍스트를 분석하여 인물의 페르소나를 추출하는 전문가입니다.

주어진 웹페이지 텍스트에서 '%[1]s'라는 인물의 특성을 분석하여 다음 JSON 형식으로 페르소나 데이터를 생성해주세요:

{
  "persona_data": {
    "age_group": "나이대 (예: 20대, 30대)",
    "gender": "성별 (남성/여성)",
    "occupation": "직업 또는 활동 분야",
    "personality_traits": ["성격 특성들을 배열로"],
    "speech_patterns": ["말투 특성들을 배열로"],
    "tone": "전체적인 톤",
    "speaking_style": "말하는 스타일 요약",
    "personality": "성격 요약 설명",
    "characteristics": ["특징들을 배열로"]
  },
  "few_shot_examples": [
    {
      "user": "적절한 질문 예시",
      "assistant": "해당 인물의 말투로 답변하는 예시"
    },
    {
      "user": "또 다른 질문 예시",
      "assistant": "해당 인물의 말투로 답변하는 예시"
    }
  ]
}

분석 시 주의사항:
1. 웹페이지에서 실제로 확인할 수 있는 정보만 사용하세요
2. few_shot_examples는 해당 인물의 실제 말투와 성격을 반영해야 합니다
3. 정보가 부족하면 "정보 부족"이라고 표시하세요
4. 반드시 유효한 JSON 형식으로 응답하세요`

const analysisUserPrompt = `다음은 '%[1]s'에 대한 웹페이지 텍스트입니다. 이를 분석하여 페르소나 데이터를 생성해주세요:

%[2]s`

// Analysis is the result of persona extraction. The sections are kept
// exactly as the model returned them; PersonaData and FewShotExamples are
// their decoded views.
type Analysis struct {
	PersonaData     Traits
	FewShotExamples []FewShotExample

	personaData     json.RawMessage
	fewShotExamples json.RawMessage
}

// Persona assembles a full record around the analysis sections. A missing
// persona_data becomes an empty object and missing examples an empty list.
func (a *Analysis) Persona(name, voiceID, modelID, url string) (*Persona, error) {
	personaData := a.personaData
	if personaData == nil {
		personaData = json.RawMessage("{}")
	}
	fewShot := a.fewShotExamples
	if fewShot == nil {
		fewShot = json.RawMessage("[]")
	}

	record := orderedmap.New[string, any]()
	record.Set(fieldName, name)
	record.Set(fieldVoiceID, voiceID)
	record.Set(fieldFineTunedModelID, modelID)
	record.Set(fieldURL, url)
	record.Set(fieldPersonaData, personaData)
	record.Set(fieldFewShotExamples, fewShot)

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble persona: %w", err)
	}

	var p Persona
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to assemble persona: %w", err)
	}
	return &p, nil
}

// AnalysisRequest builds the completion request for extracting a persona
func AnalysisRequest(model, name, pageText string) llm.Request {
	return llm.Request{
		Model: model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: fmt.Sprintf(analysisSystemPrompt, name)},
			{Role: llm.RoleUser, Content: fmt.Sprintf(analysisUserPrompt, name, pageText)},
		},
		Temperature: AnalysisTemperature,
		MaxTokens:   AnalysisMaxTokens,
	}
}

// ParseAnalysis decodes a model response. The text is first parsed as JSON
// directly; if that fails, a leading code fence (with an optional language
// tag) is removed along with anything after its closing fence, and the
// inner text is parsed. The response must be a non-empty JSON object; its
// sections are not validated.
func ParseAnalysis(response string) (*Analysis, error) {
	text := strings.TrimSpace(response)

	analysis, err := decodeAnalysis(text)
	if err == nil {
		return analysis, nil
	}

	inner, ok := stripCodeFence(text)
	if !ok {
		return nil, err
	}
	return decodeAnalysis(inner)
}

func decodeAnalysis(text string) (*Analysis, error) {
	var fields map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("invalid analysis json: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid analysis json: trailing data after object")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("analysis json is empty")
	}

	analysis := &Analysis{
		personaData:     fields[fieldPersonaData],
		fewShotExamples: fields[fieldFewShotExamples],
	}
	if analysis.personaData != nil {
		analysis.PersonaData = decodeTraits(analysis.personaData)
	}
	if analysis.fewShotExamples != nil {
		analysis.FewShotExamples = decodeExamples(analysis.fewShotExamples)
	}
	if analysis.FewShotExamples == nil {
		analysis.FewShotExamples = []FewShotExample{}
	}
	return analysis, nil
}

// stripCodeFence returns the body of a ```lang ... ``` block that opens
// text. Anything after the closing fence is dropped; without a closing
// fence the body runs to the end of text.
func stripCodeFence(text string) (string, bool) {
	const fence = "```"
	if !strings.HasPrefix(text, fence) {
		return "", false
	}

	body := strings.TrimPrefix(text, fence)
	if end := strings.Index(body, fence); end >= 0 {
		body = body[:end]
	}

	// optional language tag on the opening line
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && isLanguageTag(body[:nl]) {
		body = body[nl+1:]
	} else if strings.HasPrefix(body, "json") {
		body = strings.TrimPrefix(body, "json")
	}

	return strings.TrimSpace(body), true
}

func isLanguageTag(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// analyze asks the language model to extract persona traits from page text
func (s *Store) analyze(ctx context.Context, name, pageText string) (*Analysis, error) {
	if s.completer == nil {
		return nil, fmt.Errorf("no language model configured")
	}

	response, err := s.completer.Complete(ctx, AnalysisRequest(s.analysisModel, name, pageText))
	if err != nil {
		return nil, err
	}

	analysis, err := ParseAnalysis(response)
	if err != nil {
		log.Error().Err(err).Str("response", response).Msg("Failed to parse persona analysis")
		return nil, err
	}

	log.Debug().Str("persona", name).Int("examples", len(analysis.FewShotExamples)).Msg("Persona analysis complete")
	return analysis, nil
}
