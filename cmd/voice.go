package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/daikw/vchat/internal/voice"
	"github.com/daikw/vchat/internal/voice/provider"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func handleSpeak(ctx context.Context, c *cli.Command) error {
	text := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text is required")
	}

	e, err := loadEnv(ctx, c)
	if err != nil {
		return err
	}

	return speakTo(ctx, e, c.String("provider"), text, c.String("output"), c.Bool("stdout"))
}

// speakTo synthesizes text with the current persona's voice and writes it
// to stdout, output, or speech.<ext> in the working directory
func speakTo(ctx context.Context, e *env, providerName, text, output string, toStdout bool) error {
	voiceCfg := e.cfg.Voice
	if providerName != "" {
		voiceCfg.Provider = providerName
	}

	voiceID, _ := e.store.VoiceID()
	opts := voice.ResolveOptions(voiceID, voiceCfg)

	p, err := newProvider(ctx, e, voiceCfg.Provider)
	if err != nil {
		return err
	}
	defer closeProvider(p)

	if err := voice.CheckAvailable(ctx, p); err != nil {
		return err
	}
	speaker := voice.NewSpeaker(p, opts)

	if toStdout {
		_, err := speaker.Speak(ctx, text, os.Stdout)
		return err
	}

	if output == "" {
		output = "speech." + voice.Extension(opts.Format)
	}
	if err := speaker.SpeakToFile(ctx, text, output); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Saved audio to %s\n", output)
	return nil
}

func handleVoices(ctx context.Context, c *cli.Command) error {
	e, err := loadEnv(ctx, c)
	if err != nil {
		return err
	}

	name := c.String("provider")
	if name == "" {
		name = e.cfg.Voice.Provider
	}

	p, err := newProvider(ctx, e, name)
	if err != nil {
		return err
	}
	defer closeProvider(p)

	if err := voice.CheckAvailable(ctx, p); err != nil {
		return err
	}

	voices, err := p.ListVoices(ctx)
	if err != nil {
		return err
	}

	if len(voices) == 0 {
		fmt.Printf("No voices available for %s\n", p.Name())
		return nil
	}

	current, _ := e.store.VoiceID()
	fmt.Printf("Voices for %s:\n", p.Name())
	for _, v := range voices {
		line := fmt.Sprintf("  %-28s %-20s %-12s %s", v.ID, v.Name, v.Language, v.Gender)
		if v.ID == current {
			color.Green("%s  (current persona)", line)
			continue
		}
		fmt.Println(line)
	}
	return nil
}

func newProvider(ctx context.Context, e *env, name string) (provider.Provider, error) {
	settings := provider.Settings{
		Region:   e.cfg.Voice.Region,
		Voice:    e.cfg.Voice.Voice,
		Language: e.cfg.Voice.Language,
	}

	p, err := provider.NewFromConfig(ctx, name, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", name, err)
	}
	log.Debug().Str("provider", p.Name()).Msg("Using TTS provider")
	return p, nil
}

// closeProvider releases providers that hold a client connection
func closeProvider(p provider.Provider) {
	closer, ok := p.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		log.Debug().Err(err).Str("provider", p.Name()).Msg("Failed to close TTS provider")
	}
}
