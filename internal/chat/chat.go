// Package chat answers user messages in the voice of the selected persona.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/daikw/vchat/internal/llm"
	"github.com/daikw/vchat/internal/persona"
	"github.com/rs/zerolog/log"
)

// Reply sampling settings
const (
	DefaultTemperature = 0.8
	DefaultMaxTokens   = 250

	// FallbackModel is used when neither the config nor the persona names a model
	FallbackModel = "gpt-4o-mini"

	// FallbackReply is returned when the model produces no text
	FallbackReply = "미안, 지금 말이 안 나와 ㅠㅠ"
)

// ErrNoPersona is returned when no persona is selected
var ErrNoPersona = errors.New("no persona selected")

// PersonaSource is the part of the persona store a Responder reads
type PersonaSource interface {
	Current() *persona.Persona
}

// Responder turns a user message into a persona reply
type Responder struct {
	completer   llm.Completer
	model       string
	temperature float32
	maxTokens   int
}

// NewResponder creates a responder. An empty model means the persona's
// fine-tuned model is used.
func NewResponder(completer llm.Completer, model string) *Responder {
	return &Responder{
		completer:   completer,
		model:       model,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
}

// Reply asks the model to answer message as the current persona
func (r *Responder) Reply(ctx context.Context, source PersonaSource, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("message cannot be empty")
	}

	p := source.Current()
	if p == nil {
		return "", ErrNoPersona
	}

	req := llm.Request{
		Model:       r.modelFor(p),
		Messages:    BuildMessages(p, message),
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	}

	log.Debug().Str("persona", p.Name).Str("model", req.Model).Int("messages", len(req.Messages)).Msg("Requesting persona reply")

	reply, err := r.completer.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		log.Warn().Str("persona", p.Name).Msg("Model returned an empty reply")
		return FallbackReply, nil
	}
	return reply, nil
}

func (r *Responder) modelFor(p *persona.Persona) string {
	if r.model != "" {
		return r.model
	}
	if p.FineTunedModelID != "" {
		return p.FineTunedModelID
	}
	return FallbackModel
}

// BuildMessages lays out the system prompt, the persona's example
// exchanges in order, then the user message
func BuildMessages(p *persona.Persona, message string) []llm.Message {
	messages := make([]llm.Message, 0, 2+2*len(p.FewShotExamples))
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: persona.RenderSystemPrompt(p)})

	for _, example := range p.FewShotExamples {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: example.User},
			llm.Message{Role: llm.RoleAssistant, Content: example.Assistant},
		)
	}

	return append(messages, llm.Message{Role: llm.RoleUser, Content: message})
}
