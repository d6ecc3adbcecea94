package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/daikw/vchat/internal/config"
	"github.com/daikw/vchat/internal/persona"
	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func handleList(ctx context.Context, c *cli.Command) error {
	e, err := loadEnv(ctx, c)
	if err != nil {
		return err
	}

	names := e.store.Names()
	if len(names) == 0 {
		fmt.Printf("No personas in %s. Create one with 'vchat create --name <name> --url <url>'\n", e.store.Path())
		return nil
	}

	current, _ := e.store.CurrentName()
	marker := color.New(color.FgGreen, color.Bold)

	fmt.Println("Available personas:")
	for _, name := range names {
		if name == current {
			marker.Printf("  * %s\n", name)
			continue
		}
		fmt.Printf("    %s\n", name)
	}
	return nil
}

func handleSelect(ctx context.Context, c *cli.Command) error {
	name := c.Args().Get(0)
	if name == "" {
		return fmt.Errorf("persona name is required")
	}

	e, err := loadEnv(ctx, c)
	if err != nil {
		return err
	}

	if !e.store.Select(name) {
		return fmt.Errorf("persona '%s' does not exist", name)
	}

	e.cfg.Current = name
	if err := config.Save(e.cfgDir, e.cfg); err != nil {
		return err
	}

	fmt.Printf("Selected persona: %s\n", color.GreenString(name))
	return nil
}

func handleShow(ctx context.Context, c *cli.Command) error {
	e, err := loadEnv(ctx, c)
	if err != nil {
		return err
	}

	p, err := e.lookup(c.Args().Get(0))
	if err != nil {
		return err
	}

	if c.Bool("yaml") {
		return writePersonaYAML(os.Stdout, p)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal persona: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func handlePrompt(ctx context.Context, c *cli.Command) error {
	e, err := loadEnv(ctx, c)
	if err != nil {
		return err
	}

	p, err := e.lookup(c.Args().Get(0))
	if err != nil {
		return err
	}

	fmt.Println(persona.RenderSystemPrompt(p))
	return nil
}

func handleCreate(ctx context.Context, c *cli.Command) error {
	e, err := loadEnv(ctx, c)
	if err != nil {
		return err
	}
	if e.llmErr != nil {
		return fmt.Errorf("language model unavailable: %w", e.llmErr)
	}

	req := persona.CreateRequest{
		Name:    c.String("name"),
		URL:     c.String("url"),
		VoiceID: c.String("voice-id"),
		ModelID: c.String("model-id"),
	}

	if !e.store.CreateFromURL(ctx, req) {
		return fmt.Errorf("failed to create persona '%s' from %s", req.Name, req.URL)
	}

	p, _ := e.store.Get(req.Name)
	fmt.Printf("Created persona: %s\n", color.GreenString(req.Name))
	fmt.Printf("  traits: %d personality, %d speech patterns\n", len(p.PersonaData.List(persona.TraitPersonalityTraits)), len(p.PersonaData.List(persona.TraitSpeechPatterns)))
	fmt.Printf("  examples: %d\n", len(p.FewShotExamples))
	fmt.Printf("Select it with: vchat select %s\n", req.Name)
	return nil
}

// writePersonaYAML prints the stored form of a persona as block YAML,
// keeping member order and members the typed fields do not cover
func writePersonaYAML(w io.Writer, p *persona.Persona) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal persona: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to convert persona: %w", err)
	}
	clearStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		enc.Close()
		return fmt.Errorf("failed to write yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to write yaml: %w", err)
	}
	return nil
}

// clearStyle drops the JSON flow and quoting styles so the encoder picks
// block style
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		clearStyle(child)
	}
}
