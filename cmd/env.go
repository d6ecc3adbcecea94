package main

import (
	"context"
	"fmt"

	"github.com/daikw/vchat/internal/chat"
	"github.com/daikw/vchat/internal/config"
	"github.com/daikw/vchat/internal/llm"
	"github.com/daikw/vchat/internal/persona"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

// env is what every command works with: the config and the directory it
// came from, the language model, and the store with the remembered
// selection applied
type env struct {
	cfg       *config.Config
	cfgDir    string
	store     *persona.Store
	completer llm.Completer
	llmErr    error
}

func loadEnv(ctx context.Context, c *cli.Command) (*env, error) {
	cfg, cfgDir, err := config.LoadWithFallback()
	if err != nil {
		return nil, err
	}

	storePath := c.String("store")
	if storePath == "" {
		storePath = cfg.StorePath
	}

	e := &env{cfg: cfg, cfgDir: cfgDir}

	opts := []persona.Option{persona.WithAnalysisModel(cfg.LLM.AnalysisModel)}
	e.completer, e.llmErr = llm.NewCompleter(ctx, llm.Options{
		Provider: cfg.LLM.Provider,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if e.llmErr != nil {
		log.Debug().Err(e.llmErr).Msg("Language model unavailable")
	} else {
		opts = append(opts, persona.WithCompleter(e.completer))
	}

	e.store = persona.NewStore(storePath, opts...)
	if cfg.Current != "" && !e.store.Select(cfg.Current) {
		log.Warn().Str("persona", cfg.Current).Msg("Configured persona is not in the store")
	}

	return e, nil
}

func (e *env) responder() (*chat.Responder, error) {
	if e.llmErr != nil {
		return nil, fmt.Errorf("language model unavailable: %w", e.llmErr)
	}
	return chat.NewResponder(e.completer, e.cfg.LLM.ChatModel), nil
}

// lookup returns the named persona, or the current one when name is empty
func (e *env) lookup(name string) (*persona.Persona, error) {
	if name == "" {
		p := e.store.Current()
		if p == nil {
			return nil, fmt.Errorf("no persona selected; run 'vchat select <name>' first")
		}
		return p, nil
	}
	p, ok := e.store.Get(name)
	if !ok {
		return nil, fmt.Errorf("persona '%s' does not exist", name)
	}
	return p, nil
}
