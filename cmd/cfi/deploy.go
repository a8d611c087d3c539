// File: cmd/cfi/deploy.go
// Brief: CLI command wiring and implementation for 'deploy'.

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Opius-AI/cognito-flask-infrastructure/internal/config"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/console"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/engine"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/logging"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/stacks"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/state"
)

func newDeployCommand(opts *config.Options, logLevel *string) *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Synthesize the plan and apply all stacks in dependency order",
		Example: `  # Deploy everything with the defaults (port 8000, 1 task)
  cfi deploy

  # Deploy against an explicit region and credential profile
  cfi deploy --region eu-west-1 --profile prod`,
		Args: cobra.NoArgs,
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
			asm, err := app.Synth(opts.OutDir)
			if err != nil {
				return err
			}
			logger.Debug("synthesized assembly", zap.Int("stacks", len(asm.Stacks)), zap.String("dir", opts.OutDir))

			store, err := state.Open(".")
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			out := console.New(cmd.OutOrStdout())
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
					case state.StatusApplying:
						out.Stepf("deploying %s", ev.Stack)
					case state.StatusApplied:
						out.Successf("%s deployed", ev.Stack)
					case state.StatusBlocked:
						out.Warnf("%s blocked by a failed prerequisite", ev.Stack)
					case state.StatusFailed:
						out.Failf("%s failed: %v", ev.Stack, ev.Err)
					}
				},
			}
			res, err := runner.Deploy(cmd.Context(), asm)
			if err != nil {
				return err
			}
			out.Successf("run %s succeeded", res.RunID)
			byStack := map[string]map[string]string{}
			for name, outputs := range res.Outputs {
				byStack[name] = outputs
			}
			out.PrintOutputs(byStack)
			out.Warnf("the application client secret is not injected into the service;")
			out.Warnf("fetch it with 'cfi secret client-secret' and place it in your secrets manager")
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "Stacks applied concurrently within one execution group")
	return cmd
}
