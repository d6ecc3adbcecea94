// Package server exposes the persona store and persona chat as MCP tools.
package server

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ServerName    = "vchat"
	ServerVersion = "0.1.0"
)

// New creates the MCP server and registers every persona tool on it
func New(handler *Handler) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("list_personas",
		mcp.WithDescription("List persona names in store order and the current persona. Selects the first persona when none is selected."),
	), handler.ListPersonas)

	s.AddTool(mcp.NewTool("select_persona",
		mcp.WithDescription("Make a persona current for prompts and chat."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Persona name"),
		),
	), handler.SelectPersona)

	s.AddTool(mcp.NewTool("get_persona",
		mcp.WithDescription("Return a persona record as JSON."),
		mcp.WithString("name",
			mcp.Description("Persona name. Defaults to the current persona."),
		),
	), handler.GetPersona)

	s.AddTool(mcp.NewTool("system_prompt",
		mcp.WithDescription("Render the Korean system prompt for a persona."),
		mcp.WithString("name",
			mcp.Description("Persona name. Defaults to the current persona."),
		),
	), handler.SystemPrompt)

	s.AddTool(mcp.NewTool("create_persona",
		mcp.WithDescription("Create a persona by analyzing a web page about the person with a language model. A persona with the same name is replaced."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Persona name"),
		),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Web page describing the person"),
		),
		mcp.WithString("voice_id",
			mcp.Description("ElevenLabs voice id"),
		),
		mcp.WithString("model_id",
			mcp.Description("Fine-tuned chat model id"),
		),
	), handler.CreatePersona)

	s.AddTool(mcp.NewTool("chat",
		mcp.WithDescription("Reply to a message in the current persona's voice."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("User message"),
		),
		mcp.WithString("persona",
			mcp.Description("Persona to select before replying"),
		),
	), handler.Chat)

	return s
}
