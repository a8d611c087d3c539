package stacks

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/Opius-AI/cognito-flask-infrastructure/internal/config"
)

func TestRegistryTemplateDeclaresRetentionRules(t *testing.T) {
	cfg := config.NewOptions()
	doc := templateDoc(t, assembleWith(t, cfg), cfg.StackName("registry"))
	props := resourceProps(t, doc, "Repository")

	if got, ok := props["EmptyOnDelete"].(bool); !ok || !got {
		t.Errorf("EmptyOnDelete = %v, want true", props["EmptyOnDelete"])
	}
	if got := props["ImageScanningConfiguration"].(map[string]any)["ScanOnPush"].(bool); !got {
		t.Errorf("ScanOnPush = %v, want true", got)
	}

	text := props["LifecyclePolicy"].(map[string]any)["LifecyclePolicyText"].(string)
	var policy struct {
		Rules []struct {
			RulePriority int `json:"rulePriority"`
			Selection    struct {
				TagStatus   string `json:"tagStatus"`
				CountType   string `json:"countType"`
				CountNumber int    `json:"countNumber"`
			} `json:"selection"`
		} `json:"rules"`
	}
	if err := json.Unmarshal([]byte(text), &policy); err != nil {
		t.Fatalf("parse lifecycle policy: %v", err)
	}
	if len(policy.Rules) != 2 {
		t.Fatalf("%d lifecycle rules, want 2", len(policy.Rules))
	}
	first := policy.Rules[0]
	if first.RulePriority != 1 || first.Selection.TagStatus != "untagged" ||
		first.Selection.CountType != "sinceImagePushed" || first.Selection.CountNumber != 1 {
		t.Errorf("rule 1 = %+v, want untagged images expired after one day", first)
	}
	second := policy.Rules[1]
	if second.RulePriority != 2 || second.Selection.TagStatus != "tagged" ||
		second.Selection.CountType != "imageCountMoreThan" || second.Selection.CountNumber != 10 {
		t.Errorf("rule 2 = %+v, want tagged history capped at 10", second)
	}
}

func TestEvaluateLifecycleExpiresStaleUntagged(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	images := []ImageRecord{
		{Digest: "sha256:fresh", PushedAt: now.Add(-2 * time.Hour)},
		{Digest: "sha256:stale", PushedAt: now.Add(-25 * time.Hour)},
		{Digest: "sha256:kept", Tags: []string{"v1"}, PushedAt: now.Add(-90 * 24 * time.Hour)},
	}
	got := EvaluateLifecycle(images, now)
	want := []string{"sha256:stale"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expired = %v, want %v", got, want)
	}
}

func TestEvaluateLifecycleKeepsMostRecentTagged(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var images []ImageRecord
	for i := 0; i < 13; i++ {
		images = append(images, ImageRecord{
			Digest:   fmt.Sprintf("sha256:tag%02d", i),
			Tags:     []string{fmt.Sprintf("v%d", i)},
			PushedAt: now.Add(-time.Duration(i) * time.Hour),
		})
	}
	got := EvaluateLifecycle(images, now)
	// The three oldest pushes fall past the 10-image budget.
	want := []string{"sha256:tag10", "sha256:tag11", "sha256:tag12"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expired = %v, want %v", got, want)
	}
}

func TestEvaluateLifecycleNoOpUnderLimits(t *testing.T) {
	now := time.Now()
	images := []ImageRecord{
		{Digest: "sha256:a", Tags: []string{"v1"}, PushedAt: now.Add(-time.Hour)},
		{Digest: "sha256:b", PushedAt: now.Add(-time.Hour)},
	}
	if got := EvaluateLifecycle(images, now); len(got) != 0 {
		t.Fatalf("expired = %v, want none", got)
	}
}
