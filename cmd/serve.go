package main

import (
	"context"
	"fmt"

	"github.com/daikw/vchat/internal/server"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func handleServe(ctx context.Context, c *cli.Command) error {
	e, err := loadEnv(ctx, c)
	if err != nil {
		return err
	}

	responder, err := e.responder()
	if err != nil {
		log.Warn().Err(err).Msg("Chat tool disabled")
	}

	s := server.New(server.NewHandler(e.store, responder))

	log.Info().Str("store", e.store.Path()).Msg("vchat MCP server starting on stdio")
	if err := mcpserver.ServeStdio(s); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
