// File: cmd/cfi/synth.go
// Brief: CLI command wiring for 'synth'.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Opius-AI/cognito-flask-infrastructure/internal/config"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/console"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/secrets"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/stacks"
)

func newSynthCommand(opts *config.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize the resource plan without applying it",
		Example: `  # Write templates and manifest to ./cfi.out
  cfi synth

  # Synthesize with a different service size
  cfi synth --cpu 1024 --memory 2048`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			app, err := stacks.BuildApp(opts)
			if err != nil {
				return err
			}
			asm, err := app.Synth(opts.OutDir)
			if err != nil {
				return err
			}
			out := console.New(cmd.OutOrStdout())
			var findings []secrets.Finding
			for _, art := range asm.Stacks {
				found, err := secrets.ScanTemplate(art.TemplateFile, art.TemplateBytes())
				if err != nil {
					return err
				}
				findings = append(findings, found...)
			}
			if len(findings) > 0 {
				for _, f := range findings {
					out.Failf("%s", f)
				}
				return fmt.Errorf("synthesized templates contain %d literal secret(s)", len(findings))
			}
			out.Successf("synthesized %d stacks to %s", len(asm.Stacks), opts.OutDir)
			for _, art := range asm.Stacks {
				out.Printf("  %s (%s)", art.Name, art.TemplateFile)
			}
			return nil
		},
	}
	return cmd
}
