package persona

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSystemPrompt(t *testing.T) {
	t.Run("uses defaults for missing traits", func(t *testing.T) {
		prompt := RenderSystemPrompt(&Persona{Name: "둥그레"})

		firstLine := strings.SplitN(prompt, "\n", 2)[0]
		assert.Equal(t, "당신은 '둥그레'라는 여성 방송인입니다.", firstLine)
		assert.Contains(t, prompt, "- 성격: 활발하고 친근함\n")
		assert.Contains(t, prompt, "- 나이대: 20대\n")
		assert.Contains(t, prompt, "- 말투: 반말, 애교 섞인 말투\n")
		assert.True(t, strings.HasSuffix(prompt, "항상 '둥그레'의 캐릭터를 유지하면서 자연스럽고 일관성 있게 대답해주세요."))
	})

	t.Run("uses persona traits", func(t *testing.T) {
		prompt := RenderSystemPrompt(&Persona{
			Name: "철수",
			PersonaData: Traits{
				"gender":         "남성",
				"occupation":     "게임 스트리머",
				"personality":    "차분하고 논리적",
				"age_group":      "30대",
				"speaking_style": "존댓말",
			},
		})

		assert.True(t, strings.HasPrefix(prompt, "당신은 '철수'라는 남성 게임 스트리머입니다.\n\n페르소나 특성:\n- 성격: 차분하고 논리적\n- 나이대: 30대\n- 말투: 존댓말\n\n"))
		assert.NotContains(t, prompt, DefaultOccupation+"입니다")
	})

	t.Run("present traits are used as stored", func(t *testing.T) {
		prompt := RenderSystemPrompt(&Persona{
			Name: "B",
			PersonaData: Traits{
				"gender":      "",
				"occupation":  nil,
				"personality": []any{"밝음", "엉뚱함"},
				"age_group":   json.Number("25"),
			},
		})

		assert.True(t, strings.HasPrefix(prompt, "당신은 'B'라는  방송인입니다.\n"))
		assert.Contains(t, prompt, `- 성격: ["밝음","엉뚱함"]`+"\n")
		assert.Contains(t, prompt, "- 나이대: 25\n")
		assert.Contains(t, prompt, "- 말투: "+DefaultSpeakingStyle+"\n")
	})

	t.Run("fixed instruction block", func(t *testing.T) {
		prompt := RenderSystemPrompt(&Persona{Name: "A"})

		for _, section := range []string{
			"대화할 때 다음 특징들을 반드시 지켜주세요:",
			"1. **말투와 어조**:\n   - 친한 친구와 대화하듯이 친근한 말투 사용",
			"   - 감정이 풍부하게 드러나도록 '!', '?', '~' 등 활용",
			"2. **성격 표현**:",
			"3. **절대 피해야 할 것**:\n   - 경어체 사용 금지",
			"4. **반응 스타일**:\n   - 게임이나 재미있는 주제에 큰 리액션",
		} {
			assert.Contains(t, prompt, section)
		}
		assert.Equal(t, 2, strings.Count(prompt, "'A'"))
	})
}

func TestStore_SystemPrompt(t *testing.T) {
	store := NewStore(t.TempDir() + "/personas.json")
	store.Put(&Persona{Name: "A", PersonaData: Traits{"gender": "남성"}})

	assert.Equal(t, "", store.SystemPrompt())

	store.Select("A")
	assert.True(t, strings.HasPrefix(store.SystemPrompt(), "당신은 'A'라는 남성 방송인입니다."))
}
