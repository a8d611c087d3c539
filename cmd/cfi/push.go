// File: cmd/cfi/push.go
// Brief: CLI command wiring for 'push'.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Opius-AI/cognito-flask-infrastructure/internal/config"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/console"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/push"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/stacks"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/state"
)

func newPushCommand(opts *config.Options) *cobra.Command {
	var source, repository, tag string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push a locally built image to the registry stack's repository",
		Example: `  # Push a docker-archive produced by 'docker save'
  docker build -t app . && docker save app -o app.tar
  cfi push --source app.tar --tag latest`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if repository == "" {
				store, err := state.OpenRead(".")
				if err != nil {
					return fmt.Errorf("pass --repository, or deploy the registry stack first: %w", err)
				}
				outputs, err := store.LatestOutputs(cmd.Context(), opts.StackName("registry"))
				_ = store.Close()
				if err != nil {
					return err
				}
				repository = outputs[stacks.OutRepositoryURI]
			}
			if tag == "" {
				tag = opts.ImageTag
			}
			out := console.New(cmd.OutOrStdout())
			out.Stepf("pushing %s to %s:%s", source, repository, tag)
			res, err := push.Push(cmd.Context(), push.Options{
				Region:        opts.Region,
				Profile:       opts.Profile,
				RepositoryURI: repository,
				Tag:           tag,
				Source:        source,
			})
			if err != nil {
				return err
			}
			out.Successf("pushed %s (%s)", res.Ref, res.Digest)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Image source: docker-archive tarball or pullable reference")
	cmd.Flags().StringVar(&repository, "repository", "", "Target repository URI (defaults to the registry stack's recorded output)")
	cmd.Flags().StringVar(&tag, "tag", "", "Tag to push (defaults to --image-tag)")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}
