// File: cmd/cfi/registry.go
// Brief: CLI command wiring for 'registry' debug helpers.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Opius-AI/cognito-flask-infrastructure/internal/stacks"
)

func newRegistryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the registry stack's retention behavior",
	}
	cmd.AddCommand(newRegistryPlanCleanupCommand())
	return cmd
}

type imageRecordDoc struct {
	Digest   string    `json:"digest"`
	Tags     []string  `json:"tags"`
	PushedAt time.Time `json:"pushedAt"`
}

// plan-cleanup evaluates the declared retention rules against a local image
// listing, so operators can see what the next cleanup cycle will expire
// before it happens.
func newRegistryPlanCleanupCommand() *cobra.Command {
	var imagesFile string
	cmd := &cobra.Command{
		Use:   "plan-cleanup",
		Short: "Show which images the retention rules would expire",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(imagesFile)
			if err != nil {
				return err
			}
			var docs []imageRecordDoc
			if err := json.Unmarshal(raw, &docs); err != nil {
				return fmt.Errorf("parse %s: %w", imagesFile, err)
			}
			images := make([]stacks.ImageRecord, 0, len(docs))
			for _, d := range docs {
				images = append(images, stacks.ImageRecord{Digest: d.Digest, Tags: d.Tags, PushedAt: d.PushedAt})
			}
			expired := stacks.EvaluateLifecycle(images, time.Now())
			if len(expired) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to expire")
				return nil
			}
			for _, digest := range expired {
				fmt.Fprintln(cmd.OutOrStdout(), digest)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&imagesFile, "images", "", "JSON file listing image records ([{digest, tags, pushedAt}])")
	_ = cmd.MarkFlagRequired("images")
	return cmd
}
