// File: internal/engine/awscli.go
// Brief: Engine driver that shells out to the provider's CloudFormation CLI.

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// CLIDriver invokes the cloud provider's CLI, the same way the project's
// original deploy scripts did. Exit codes and diff/apply semantics belong to
// the CLI; the driver only assembles arguments and propagates failure
// immediately.
type CLIDriver struct {
	// Bin is the CLI binary, "aws" unless overridden (tests point this at a
	// stub).
	Bin string
	// AssemblyDir holds the synthesized templates referenced by deployments.
	AssemblyDir string

	Region  string
	Profile string

	// Stdout receives the CLI's progress output; stderr is captured for
	// error reporting and mirrored to Stderr when set.
	Stdout io.Writer
	Stderr io.Writer
}

var _ Engine = (*CLIDriver)(nil)

func (c *CLIDriver) bin() string {
	if strings.TrimSpace(c.Bin) == "" {
		return "aws"
	}
	return c.Bin
}

func (c *CLIDriver) commonArgs() []string {
	var args []string
	if c.Region != "" {
		args = append(args, "--region", c.Region)
	}
	if c.Profile != "" {
		args = append(args, "--profile", c.Profile)
	}
	return args
}

func (c *CLIDriver) run(ctx context.Context, stdout io.Writer, args ...string) error {
	cmd := exec.CommandContext(ctx, c.bin(), args...)
	var errBuf bytes.Buffer
	cmd.Stdout = stdout
	if c.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&errBuf, c.Stderr)
	} else {
		cmd.Stderr = &errBuf
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w%s", c.bin(), strings.Join(args[:min(3, len(args))], " "), err, stderrTail(errBuf.String()))
	}
	return nil
}

func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return ": " + strings.Join(lines, " | ")
}

// DeployStack runs `cloudformation deploy` for one stack and reads back its
// outputs. --no-fail-on-empty-changeset keeps re-deploys of an unchanged
// stack from counting as failures.
func (c *CLIDriver) DeployStack(ctx context.Context, d Deployment) (Outputs, error) {
	args := []string{
		"cloudformation", "deploy",
		"--stack-name", d.StackName,
		"--template-file", filepath.Join(c.AssemblyDir, d.TemplateFile),
		"--no-fail-on-empty-changeset",
	}
	if len(d.Capabilities) > 0 {
		args = append(args, "--capabilities")
		args = append(args, d.Capabilities...)
	}
	if len(d.Parameters) > 0 {
		keys := make([]string, 0, len(d.Parameters))
		for k := range d.Parameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		args = append(args, "--parameter-overrides")
		for _, k := range keys {
			args = append(args, k+"="+d.Parameters[k])
		}
	}
	args = append(args, c.commonArgs()...)
	if err := c.run(ctx, c.Stdout, args...); err != nil {
		return nil, err
	}
	return c.StackOutputs(ctx, d.StackName)
}

// DestroyStack deletes the stack and waits for the deletion to complete so
// reverse-order teardown stays serialized.
func (c *CLIDriver) DestroyStack(ctx context.Context, stackName string) error {
	args := append([]string{"cloudformation", "delete-stack", "--stack-name", stackName}, c.commonArgs()...)
	if err := c.run(ctx, c.Stdout, args...); err != nil {
		return err
	}
	waitArgs := append([]string{"cloudformation", "wait", "stack-delete-complete", "--stack-name", stackName}, c.commonArgs()...)
	return c.run(ctx, c.Stdout, waitArgs...)
}

type describeStacksDoc struct {
	Stacks []struct {
		Outputs []struct {
			OutputKey   string `json:"OutputKey"`
			OutputValue string `json:"OutputValue"`
		} `json:"Outputs"`
	} `json:"Stacks"`
}

// StackOutputs queries the live stack's outputs.
func (c *CLIDriver) StackOutputs(ctx context.Context, stackName string) (Outputs, error) {
	args := append([]string{
		"cloudformation", "describe-stacks",
		"--stack-name", stackName,
		"--output", "json",
	}, c.commonArgs()...)
	var buf bytes.Buffer
	if err := c.run(ctx, &buf, args...); err != nil {
		return nil, err
	}
	var doc describeStacksDoc
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		return nil, fmt.Errorf("parse describe-stacks output for %s: %w", stackName, err)
	}
	out := Outputs{}
	for _, s := range doc.Stacks {
		for _, o := range s.Outputs {
			out[o.OutputKey] = o.OutputValue
		}
	}
	return out, nil
}
