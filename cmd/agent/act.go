package main

import (
	"fmt"
	"strings"

	"browser-pilot/internal/domain/entity"
	"browser-pilot/internal/domain/grammar"
	"browser-pilot/internal/infrastructure/userinteraction"

	"github.com/spf13/cobra"
)

// parseActs reads tagged calls from the arguments. The marker is optional on
// the command line.
func parseActs(args []string) ([]entity.Action, error) {
	var actions []entity.Action
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if !strings.HasPrefix(arg, grammar.Marker) {
			arg = grammar.Marker + arg
		}
		scan := grammar.Scan(arg)
		if scan.Skipped > 0 {
			return nil, fmt.Errorf("invalid action %q: %w", arg, scan.Errors[0])
		}
		actions = append(actions, scan.Actions...)
	}
	return actions, nil
}

func newActCmd(root *rootOptions) *cobra.Command {
	var keepOpen bool

	cmd := &cobra.Command{
		Use:   "act ACTION...",
		Short: "Run tagged actions directly, e.g. 'navigate(url=https://example.com)'",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actions, err := parseActs(args)
			if err != nil {
				return err
			}

			c, err := root.container(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			for _, action := range actions {
				if err := c.Validator.Validate(action); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			ui := userinteraction.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout())
			steps := c.Controller.SubmitBatch(ctx, actions)

			failed := 0
			for i, step := range steps {
				ui.ShowStep(ctx, i, step)
				if !step.Result.Success {
					failed++
				}
			}

			if keepOpen && c.Controller.Running() {
				_, _ = ui.AskQuestion(ctx, "Press Enter to close the browser")
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d actions failed", failed, len(steps))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepOpen, "keep-open", false, "wait for Enter before closing the browser")
	return cmd
}
