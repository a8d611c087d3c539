// File: cmd/cfi/graph.go
// Brief: CLI command wiring for 'graph'.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Opius-AI/cognito-flask-infrastructure/internal/config"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/graph"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/stacks"
)

func newGraphCommand(opts *config.Options) *cobra.Command {
	format := "groups"
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the stack dependency graph and apply order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			app, err := stacks.BuildApp(opts)
			if err != nil {
				return err
			}
			asm, err := app.Assemble()
			if err != nil {
				return err
			}
			nodes := make([]graph.Node, 0, len(asm.Stacks))
			for _, s := range asm.Stacks {
				nodes = append(nodes, graph.Node{Name: s.Name, Needs: s.DependsOn})
			}
			g, err := graph.Build(nodes)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch format {
			case "dot":
				graph.PrintDOT(w, g)
			case "mermaid":
				graph.PrintMermaid(w, g)
			case "groups":
				for i, group := range g.ExecutionGroups() {
					fmt.Fprintf(w, "group %d:\n", i+1)
					for _, name := range group {
						fmt.Fprintf(w, "  %s\n", name)
					}
				}
			default:
				return fmt.Errorf("unknown format %q (expected groups, dot, or mermaid)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", format, "Output format: groups, dot, or mermaid")
	return cmd
}
