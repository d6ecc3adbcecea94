package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/daikw/vchat/internal/chat"
	"github.com/daikw/vchat/internal/persona"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog/log"
)

// Handler adapts MCP tool calls to the persona store. The store is not
// safe for concurrent use, so every call holds mu.
type Handler struct {
	mu        sync.Mutex
	store     *persona.Store
	responder *chat.Responder
}

// NewHandler creates a handler. responder may be nil, which disables chat.
func NewHandler(store *persona.Store, responder *chat.Responder) *Handler {
	return &Handler{
		store:     store,
		responder: responder,
	}
}

// PersonaList is the list_personas result
type PersonaList struct {
	Personas []string `json:"personas"`
	Current  string   `json:"current,omitempty"`
}

// ListPersonas returns the names and the current persona
func (h *Handler) ListPersonas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := h.store.Names()
	if _, ok := h.store.CurrentName(); !ok && len(names) > 0 {
		h.store.Select(names[0])
	}
	current, _ := h.store.CurrentName()

	return jsonResult(PersonaList{Personas: names, Current: current})
}

func (h *Handler) SelectPersona(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name is required"), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.store.Select(name) {
		return mcp.NewToolResultError(fmt.Sprintf("persona not found: %s", name)), nil
	}
	log.Info().Str("persona", name).Msg("Persona selected")
	return mcp.NewToolResultText(fmt.Sprintf("selected %s", name)), nil
}

func (h *Handler) GetPersona(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, err := h.lookup(req.GetString("name", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p)
}

func (h *Handler) SystemPrompt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, err := h.lookup(req.GetString("name", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(persona.RenderSystemPrompt(p)), nil
}

func (h *Handler) CreatePersona(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil || name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	url, err := req.RequireString("url")
	if err != nil || url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ok := h.store.CreateFromURL(ctx, persona.CreateRequest{
		Name:    name,
		URL:     url,
		VoiceID: req.GetString("voice_id", ""),
		ModelID: req.GetString("model_id", ""),
	})
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create persona %s from %s", name, url)), nil
	}

	p, _ := h.store.Get(name)
	return jsonResult(p)
}

func (h *Handler) Chat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := req.RequireString("message")
	if err != nil || message == "" {
		return mcp.NewToolResultError("message is required"), nil
	}
	if h.responder == nil {
		return mcp.NewToolResultError("chat is not configured"), nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if name := req.GetString("persona", ""); name != "" && !h.store.Select(name) {
		return mcp.NewToolResultError(fmt.Sprintf("persona not found: %s", name)), nil
	}

	reply, err := h.responder.Reply(ctx, h.store, message)
	if errors.Is(err, chat.ErrNoPersona) {
		return mcp.NewToolResultError("no persona selected; call select_persona first"), nil
	}
	if err != nil {
		log.Error().Err(err).Msg("Chat reply failed")
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(reply), nil
}

// lookup returns the named persona, or the current one when name is empty
func (h *Handler) lookup(name string) (*persona.Persona, error) {
	if name == "" {
		p := h.store.Current()
		if p == nil {
			return nil, errors.New("no persona selected")
		}
		return p, nil
	}
	p, ok := h.store.Get(name)
	if !ok {
		return nil, fmt.Errorf("persona not found: %s", name)
	}
	return p, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
