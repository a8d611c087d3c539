// File: internal/stacks/registry.go
// Brief: Registry stack: private image repository with retention rules.

package stacks

import (
	"encoding/json"

	"github.com/Opius-AI/cognito-flask-infrastructure/internal/config"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/synth"
)

// Output names exposed by the registry stack.
const (
	OutRepositoryURI  = "RepositoryUri"
	OutRepositoryArn  = "RepositoryArn"
	OutRepositoryName = "RepositoryName"
)

// Retention knobs. Untagged images accumulate from build overwrites and have
// no stable reference, so they are pruned by age; tagged images are pruned by
// count to bound storage while keeping recent deployable history.
const (
	TaggedImagesKept   = 10
	UntaggedMaxAgeDays = 1
)

// NewRegistryStack declares a private, scanned, mutable-tag image repository
// with the two-rule retention policy. Destroying the stack empties the
// repository first (EmptyOnDelete); without that opt-in the engine refuses
// to delete a non-empty store.
func NewRegistryStack(app *synth.App, cfg *config.Options) (*synth.Stack, error) {
	s, err := app.NewStack(cfg.StackName("registry"))
	if err != nil {
		return nil, err
	}
	s.SetDescription("Container image repository for " + cfg.AppName)

	policy, err := lifecyclePolicyText()
	if err != nil {
		return nil, err
	}
	repo := s.AddResource("Repository", "AWS::ECR::Repository", map[string]any{
		"RepositoryName":     cfg.RepositoryName,
		"ImageTagMutability": "MUTABLE",
		"ImageScanningConfiguration": map[string]any{
			"ScanOnPush": true,
		},
		"EmptyOnDelete": true,
		"LifecyclePolicy": map[string]any{
			"LifecyclePolicyText": policy,
		},
	})
	repo.WithRemovalPolicy(synth.RemovalPolicyDestroy)

	s.AddOutput(OutRepositoryURI, synth.GetAtt{LogicalID: "Repository", Attribute: "RepositoryUri"}, "URI of the image repository")
	s.AddOutput(OutRepositoryArn, synth.GetAtt{LogicalID: "Repository", Attribute: "Arn"}, "ARN of the image repository")
	s.AddOutput(OutRepositoryName, synth.Ref{LogicalID: "Repository"}, "Name of the image repository")
	return s, nil
}

// lifecyclePolicyText renders the registry's two retention rules. Rule
// priorities matter: the untagged age rule runs first so stale build
// leftovers never count against the tagged history budget.
func lifecyclePolicyText() (string, error) {
	doc := map[string]any{
		"rules": []any{
			map[string]any{
				"rulePriority": 1,
				"description":  "Expire untagged images after one day",
				"selection": map[string]any{
					"tagStatus":   "untagged",
					"countType":   "sinceImagePushed",
					"countUnit":   "days",
					"countNumber": UntaggedMaxAgeDays,
				},
				"action": map[string]any{"type": "expire"},
			},
			map[string]any{
				"rulePriority": 2,
				"description":  "Keep only the most recent tagged images",
				"selection": map[string]any{
					"tagStatus":      "tagged",
					"tagPatternList": []any{"*"},
					"countType":      "imageCountMoreThan",
					"countNumber":    TaggedImagesKept,
				},
				"action": map[string]any{"type": "expire"},
			},
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
