package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

var (
	version  = "dev"
	revision = "none"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.Command{
		Name:  "vchat",
		Usage: "Persona chat - manage chat personas, create them from web pages, talk and speak as them",
		Description: `vchat keeps persona profiles (voice id, fine-tuned model, speaking style and
example dialogue) in a JSON store. Personas can be created from a web page about
a person, selected, rendered into a system prompt, chatted with and spoken aloud.`,
		Version: fmt.Sprintf("%s (rev: %s)", version, revision),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"V"},
				Usage:   "Enable verbose logging",
			},
			&cli.StringFlag{
				Name:    "store",
				Aliases: []string{"s"},
				Usage:   "Persona store file (default: store_path from .vchat/config.json)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "list",
				Usage:   "List personas in store order",
				Action:  handleList,
				Aliases: []string{"ls", "l"},
			},
			{
				Name:      "select",
				Usage:     "Select the current persona and remember it in the config",
				Action:    handleSelect,
				ArgsUsage: "<name>",
			},
			{
				Name:      "show",
				Usage:     "Show a persona (default: current)",
				Action:    handleShow,
				ArgsUsage: "[name]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yaml",
						Usage: "Print as YAML instead of JSON",
					},
				},
			},
			{
				Name:      "prompt",
				Usage:     "Print the system prompt of a persona (default: current)",
				Action:    handlePrompt,
				ArgsUsage: "[name]",
			},
			{
				Name:   "create",
				Usage:  "Create a persona by analyzing a web page",
				Action: handleCreate,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Persona name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "url",
						Aliases:  []string{"u"},
						Usage:    "Web page about the person",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "voice-id",
						Usage: "ElevenLabs voice id (default: built-in voice)",
					},
					&cli.StringFlag{
						Name:  "model-id",
						Usage: "Fine-tuned chat model id (default: built-in model)",
					},
				},
			},
			{
				Name:      "chat",
				Usage:     "Reply to a message as the current persona",
				Action:    handleChat,
				ArgsUsage: "<message>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "persona",
						Aliases: []string{"p"},
						Usage:   "Persona to use instead of the current one",
					},
					&cli.BoolFlag{
						Name:  "speak",
						Usage: "Also synthesize the reply with the persona voice",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Audio output file for --speak",
					},
				},
			},
			{
				Name:      "speak",
				Usage:     "Synthesize text with the current persona's voice",
				Action:    handleSpeak,
				ArgsUsage: "<text>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: speech.<format>)",
					},
					&cli.BoolFlag{
						Name:  "stdout",
						Usage: "Stream audio to stdout",
					},
					&cli.StringFlag{
						Name:  "provider",
						Usage: "TTS provider: elevenlabs, openai, polly, gcp (default: from config)",
					},
				},
			},
			{
				Name:   "voices",
				Usage:  "List voices of the TTS provider",
				Action: handleVoices,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "provider",
						Usage: "TTS provider: elevenlabs, openai, polly, gcp (default: from config)",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the persona tools over MCP on stdio",
				Action: handleServe,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) error {
			if c.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
			return loadDotEnv()
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("Failed to run application")
	}
}

// loadDotEnv reads API keys from .env; variables already set win
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil {
		log.Debug().Msg("Loaded .env")
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load .env: %w", err)
}
