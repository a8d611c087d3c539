package engine

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
)

// stubCLI writes a shell script that records its arguments and answers
// describe-stacks with canned JSON, then returns the script path and the
// argument log path.
func stubCLI(t *testing.T, exitCode int) (bin, log string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub script requires a POSIX shell")
	}
	dir := t.TempDir()
	log = filepath.Join(dir, "args.log")
	bin = filepath.Join(dir, "aws")
	script := `#!/bin/sh
echo "$@" >> ` + log + `
case "$*" in
  *describe-stacks*)
    printf '%s' '{"Stacks":[{"Outputs":[{"OutputKey":"UserPoolId","OutputValue":"pool-123"}]}]}'
    ;;
esac
exit ` + strconv.Itoa(exitCode) + `
`
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return bin, log
}

func readLog(t *testing.T, path string) []string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read arg log: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(raw)), "\n")
}

func TestCLIDriverDeployArguments(t *testing.T) {
	bin, log := stubCLI(t, 0)
	drv := &CLIDriver{Bin: bin, AssemblyDir: "cfi.out", Region: "us-east-1"}

	outputs, err := drv.DeployStack(context.Background(), Deployment{
		StackName:    "demo-identity",
		TemplateFile: "demo-identity.template.json",
		Parameters:   map[string]string{"B": "2", "A": "1"},
		Capabilities: []string{"CAPABILITY_IAM"},
	})
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if outputs["UserPoolId"] != "pool-123" {
		t.Fatalf("outputs = %v, want UserPoolId from describe-stacks", outputs)
	}

	lines := readLog(t, log)
	if len(lines) != 2 {
		t.Fatalf("CLI called %d times, want deploy then describe-stacks: %v", len(lines), lines)
	}
	deploy := lines[0]
	for _, want := range []string{
		"cloudformation deploy",
		"--stack-name demo-identity",
		"--template-file " + filepath.Join("cfi.out", "demo-identity.template.json"),
		"--no-fail-on-empty-changeset",
		"--capabilities CAPABILITY_IAM",
		"--parameter-overrides A=1 B=2",
		"--region us-east-1",
	} {
		if !strings.Contains(deploy, want) {
			t.Errorf("deploy invocation %q missing %q", deploy, want)
		}
	}
	if !strings.Contains(lines[1], "cloudformation describe-stacks") {
		t.Errorf("second invocation %q is not describe-stacks", lines[1])
	}
}

func TestCLIDriverDestroyWaitsForDeletion(t *testing.T) {
	bin, log := stubCLI(t, 0)
	drv := &CLIDriver{Bin: bin}

	if err := drv.DestroyStack(context.Background(), "demo-identity"); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	lines := readLog(t, log)
	if len(lines) != 2 {
		t.Fatalf("CLI called %d times, want delete-stack then wait: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "cloudformation delete-stack") {
		t.Errorf("first invocation %q is not delete-stack", lines[0])
	}
	if !strings.Contains(lines[1], "cloudformation wait stack-delete-complete") {
		t.Errorf("second invocation %q does not wait for deletion", lines[1])
	}
}

func TestCLIDriverPropagatesFailure(t *testing.T) {
	bin, _ := stubCLI(t, 1)
	drv := &CLIDriver{Bin: bin}

	_, err := drv.DeployStack(context.Background(), Deployment{
		StackName:    "demo-identity",
		TemplateFile: "demo-identity.template.json",
	})
	if err == nil {
		t.Fatal("expected error from failing CLI")
	}
	if !strings.Contains(err.Error(), "cloudformation deploy") {
		t.Errorf("error %q does not name the failed command", err)
	}
}
