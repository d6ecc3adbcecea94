package voice

import (
	"strings"
)

// MaxSpeechChars caps the text sent for synthesis
const MaxSpeechChars = 500

// PrepareText flattens a reply to one line for speech: markdown emphasis
// and code markers are dropped, whitespace collapses to single spaces and
// the result is cut at maxChars characters. maxChars <= 0 means no limit.
func PrepareText(text string, maxChars int) string {
	text = markdownReplacer.Replace(text)
	text = strings.Join(strings.Fields(text), " ")

	if maxChars > 0 {
		runes := []rune(text)
		if len(runes) > maxChars {
			text = string(runes[:maxChars])
		}
	}
	return text
}

var markdownReplacer = strings.NewReplacer(
	"**", "",
	"__", "",
	"`", "",
	"# ", "",
)
