// File: cmd/cfi/destroy.go
// Brief: CLI command wiring and implementation for 'destroy'.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Opius-AI/cognito-flask-infrastructure/internal/config"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/console"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/engine"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/logging"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/stacks"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/state"
)

func newDestroyCommand(opts *config.Options, logLevel *string) *cobra.Command {
	var yes bool
	var concurrency int
	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy all stacks in reverse dependency order",
		Long:  "Destroy tears the stacks down dependents-first. The registry stack is\ndeclared with empty-on-delete, so its image store is emptied as part of the\ndeletion; without that opt-in the engine would refuse to delete a non-empty\nstore.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			logger, err := logging.New(*logLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			app, err := stacks.BuildApp(opts)
			if err != nil {
				return err
			}
			asm, err := app.Assemble()
			if err != nil {
				return err
			}

			out := console.New(cmd.OutOrStdout())
			if !yes {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					return fmt.Errorf("refusing to destroy without confirmation; re-run with --yes")
				}
				out.Warnf("this will destroy %d stacks, including the image repository and its contents", len(asm.Stacks))
				fmt.Fprintf(cmd.OutOrStdout(), "Type the app name (%s) to continue: ", opts.AppName)
				line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
				if strings.TrimSpace(line) != opts.AppName {
					return fmt.Errorf("confirmation did not match, aborting")
				}
			}

			store, err := state.Open(".")
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runner := &engine.Runner{
				Engine: &engine.CLIDriver{
					AssemblyDir: opts.OutDir,
					Region:      opts.Region,
					Profile:     opts.Profile,
					Stdout:      cmd.OutOrStdout(),
					Stderr:      cmd.ErrOrStderr(),
				},
				Store:       store,
				Concurrency: concurrency,
				Observer: func(ev engine.Event) {
					switch ev.Status {
					case state.StatusDestroying:
						out.Stepf("destroying %s", ev.Stack)
					case state.StatusDestroyed:
						out.Successf("%s destroyed", ev.Stack)
					case state.StatusFailed:
						out.Failf("%s failed: %v", ev.Stack, ev.Err)
					}
				},
			}
			if err := runner.Destroy(cmd.Context(), asm); err != nil {
				return err
			}
			out.Successf("all stacks destroyed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "Stacks destroyed concurrently within one execution group")
	return cmd
}
