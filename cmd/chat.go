package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

func handleChat(ctx context.Context, c *cli.Command) error {
	message := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("message is required")
	}

	e, err := loadEnv(ctx, c)
	if err != nil {
		return err
	}

	if name := c.String("persona"); name != "" && !e.store.Select(name) {
		return fmt.Errorf("persona '%s' does not exist", name)
	}

	responder, err := e.responder()
	if err != nil {
		return err
	}

	reply, err := responder.Reply(ctx, e.store, message)
	if err != nil {
		return err
	}

	name, _ := e.store.CurrentName()
	fmt.Printf("%s %s\n", color.CyanString(name+":"), reply)

	if !c.Bool("speak") {
		return nil
	}
	return speakTo(ctx, e, "", reply, c.String("output"), false)
}
