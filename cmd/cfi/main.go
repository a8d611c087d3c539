// main.go bootstraps cfi: it builds the root Cobra command and executes it
// with a signal-aware context.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Opius-AI/cognito-flask-infrastructure/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := config.NewOptions()
	logLevel := "info"
	var configFile string

	cmd := &cobra.Command{
		Use:           "cfi",
		Short:         "Declare and deploy a three-stack container application",
		Long:          "cfi synthesizes a dependency-ordered resource plan for an identity directory,\na container registry, and a load-balanced container service, and drives the\ncloud provider's provisioning engine to apply or destroy it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.Load(cmd.Root().PersistentFlags(), configFile)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", logLevel, "Log verbosity (debug, info, warn, error)")
	pf.StringVar(&configFile, "config", "", "Path to a cfi.yaml config file (defaults to ./cfi.yaml when present)")
	opts.AddFlags(pf)

	cmd.AddCommand(
		newSynthCommand(opts),
		newDeployCommand(opts, &logLevel),
		newDestroyCommand(opts, &logLevel),
		newGraphCommand(opts),
		newOutputsCommand(opts),
		newSecretCommand(opts),
		newPushCommand(opts),
		newRegistryCommand(),
		newVersionCommand(),
	)
	return cmd
}
