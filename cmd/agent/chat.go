package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"browser-pilot/internal/domain/entity"
	"browser-pilot/internal/infrastructure/prompts"
	"browser-pilot/internal/infrastructure/userinteraction"

	"github.com/spf13/cobra"
)

func newChatCmd(root *rootOptions) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the agent in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !prompts.KnownMode(mode) {
				return fmt.Errorf("unknown mode %q", mode)
			}

			c, err := root.container(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Config.RequireLLM(); err != nil {
				return err
			}

			ui := userinteraction.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout())
			ctx := cmd.Context()
			ui.ShowNotice(ctx, fmt.Sprintf("Mode: %s. Type 'exit' to quit.", mode))

			for {
				message, err := ui.AskQuestion(ctx, "You:")
				if err != nil {
					if errors.Is(err, io.EOF) {
						return nil
					}
					return err
				}
				switch strings.ToLower(message) {
				case "":
					continue
				case "exit", "quit":
					return nil
				}

				res, err := c.TurnExecutor.Execute(ctx, entity.Turn{Message: message, Mode: mode})
				if err != nil {
					c.Logger.Error("Turn failed", "error", err)
					ui.ShowNotice(ctx, "Error: "+err.Error())
					continue
				}

				ui.ShowReply(ctx, res.Reply)
				for i, step := range res.Steps {
					ui.ShowStep(ctx, i, step)
				}
				if len(res.Blocked) > 0 {
					ui.ShowNotice(ctx, fmt.Sprintf("%d action(s) blocked", len(res.Blocked)))
				}
			}
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", entity.DefaultMode, "persona: companion, advisor or guardian")
	return cmd
}
