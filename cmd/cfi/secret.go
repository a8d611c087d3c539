// File: cmd/cfi/secret.go
// Brief: CLI command wiring for 'secret'.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Opius-AI/cognito-flask-infrastructure/internal/config"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/secrets"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/stacks"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/state"
)

func newSecretCommand(opts *config.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Retrieve values that are deliberately absent from stack outputs",
	}
	cmd.AddCommand(newSecretClientSecretCommand(opts))
	return cmd
}

func newSecretClientSecretCommand(opts *config.Options) *cobra.Command {
	var userPoolID, clientID string
	cmd := &cobra.Command{
		Use:   "client-secret",
		Short: "Fetch the application client secret from the live directory",
		Long:  "The identity stack never exposes the client secret as an output because\noutputs leak into engine logs and state files. This command queries the live\ndirectory instead and prints the secret to stdout once. Pipe it straight\ninto your secrets manager; cfi does not store it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userPoolID == "" || clientID == "" {
				store, err := state.OpenRead(".")
				if err != nil {
					return fmt.Errorf("pass --user-pool-id and --client-id, or deploy first: %w", err)
				}
				defer func() { _ = store.Close() }()
				outputs, err := store.LatestOutputs(cmd.Context(), opts.StackName("identity"))
				if err != nil {
					return err
				}
				if userPoolID == "" {
					userPoolID = outputs[stacks.OutUserPoolID]
				}
				if clientID == "" {
					clientID = outputs[stacks.OutUserPoolClientID]
				}
			}
			secret, err := secrets.ClientSecret(cmd.Context(), opts.Region, opts.Profile, userPoolID, clientID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}
	cmd.Flags().StringVar(&userPoolID, "user-pool-id", "", "Directory identifier (defaults to the identity stack's recorded output)")
	cmd.Flags().StringVar(&clientID, "client-id", "", "Client identifier (defaults to the identity stack's recorded output)")
	return cmd
}
