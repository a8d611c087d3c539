// File: cmd/cfi/outputs.go
// Brief: CLI command wiring for 'outputs'.

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Opius-AI/cognito-flask-infrastructure/internal/config"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/console"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/state"
)

func newOutputsCommand(opts *config.Options) *cobra.Command {
	var (
		stackName string
		format    string
	)
	cmd := &cobra.Command{
		Use:   "outputs",
		Short: "Show the stack outputs captured by the last deploy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := state.OpenRead(".")
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			all, err := store.AllOutputs(cmd.Context())
			if err != nil {
				return err
			}
			if stackName != "" {
				outputs, ok := all[stackName]
				if !ok || len(outputs) == 0 {
					return fmt.Errorf("no recorded outputs for stack %s", stackName)
				}
				all = map[string]map[string]string{stackName: outputs}
			}
			if len(all) == 0 {
				return fmt.Errorf("no recorded outputs; run 'cfi deploy' first")
			}

			switch format {
			case "table":
				if stackName != "" {
					outputs := all[stackName]
					keys := make([]string, 0, len(outputs))
					for k := range outputs {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					for _, k := range keys {
						fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, outputs[k])
					}
					return nil
				}
				console.New(cmd.OutOrStdout()).PrintOutputs(all)
				return nil
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer func() { _ = enc.Close() }()
				return enc.Encode(all)
			default:
				return fmt.Errorf("unknown format %q (table, yaml)", format)
			}
		},
	}
	cmd.Flags().StringVar(&stackName, "stack", "", "Limit output to one stack (key=value lines)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or yaml")
	return cmd
}
