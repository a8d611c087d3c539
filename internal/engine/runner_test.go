package engine

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/Opius-AI/cognito-flask-infrastructure/internal/synth"
)

type fakeEngine struct {
	mu        sync.Mutex
	deployed  []string
	destroyed []string
	params    map[string]map[string]string
	outputs   map[string]Outputs
	failOn    map[string]error
}

func (f *fakeEngine) DeployStack(ctx context.Context, d Deployment) (Outputs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failOn[d.StackName]; ok {
		return nil, err
	}
	f.deployed = append(f.deployed, d.StackName)
	if f.params == nil {
		f.params = map[string]map[string]string{}
	}
	f.params[d.StackName] = d.Parameters
	return f.outputs[d.StackName], nil
}

func (f *fakeEngine) DestroyStack(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failOn[name]; ok {
		return err
	}
	f.destroyed = append(f.destroyed, name)
	return nil
}

func (f *fakeEngine) StackOutputs(ctx context.Context, name string) (Outputs, error) {
	return f.outputs[name], nil
}

// chainAssembly models the deliverable's shape: two independent stacks and a
// third that depends on both and imports an output of the first.
func chainAssembly() *synth.Assembly {
	return &synth.Assembly{
		Version: synth.AssemblyVersion,
		App:     "demo",
		Stacks: []synth.StackArtifact{
			{Name: "demo-identity", TemplateFile: "demo-identity.template.json"},
			{
				Name:         "demo-orchestration",
				TemplateFile: "demo-orchestration.template.json",
				DependsOn:    []string{"demo-identity", "demo-registry"},
				Parameters: map[string]synth.ParameterValue{
					"PoolId":  {FromStack: "demo-identity", Output: "UserPoolId"},
					"Literal": {Value: "fixed"},
				},
			},
			{Name: "demo-registry", TemplateFile: "demo-registry.template.json"},
		},
	}
}

func TestDeployRespectsDependencyOrder(t *testing.T) {
	eng := &fakeEngine{outputs: map[string]Outputs{
		"demo-identity": {"UserPoolId": "pool-123"},
	}}
	r := &Runner{Engine: eng, Concurrency: 1}

	res, err := r.Deploy(context.Background(), chainAssembly())
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if len(eng.deployed) != 3 {
		t.Fatalf("deployed %v, want 3 stacks", eng.deployed)
	}
	if eng.deployed[2] != "demo-orchestration" {
		t.Fatalf("deploy order %v: dependent stack must apply last", eng.deployed)
	}
	if res.RunID == "" {
		t.Fatal("result carries no run id")
	}
	if len(res.Failed) != 0 || len(res.Blocked) != 0 {
		t.Fatalf("failed=%v blocked=%v, want none", res.Failed, res.Blocked)
	}
}

func TestDeployResolvesUpstreamParameters(t *testing.T) {
	eng := &fakeEngine{outputs: map[string]Outputs{
		"demo-identity": {"UserPoolId": "pool-123"},
	}}
	r := &Runner{Engine: eng, Concurrency: 1}

	if _, err := r.Deploy(context.Background(), chainAssembly()); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	got := eng.params["demo-orchestration"]
	want := map[string]string{"PoolId": "pool-123", "Literal": "fixed"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("resolved parameters = %v, want %v", got, want)
	}
}

func TestDeployFailsWhenUpstreamOutputMissing(t *testing.T) {
	// Upstream applies but never exposes the output the dependent needs.
	eng := &fakeEngine{outputs: map[string]Outputs{
		"demo-identity": {},
	}}
	r := &Runner{Engine: eng, Concurrency: 1}

	_, err := r.Deploy(context.Background(), chainAssembly())
	if err == nil {
		t.Fatal("expected error for missing upstream output")
	}
	for _, name := range eng.deployed {
		if name == "demo-orchestration" {
			t.Fatal("dependent stack deployed despite unresolved parameters")
		}
	}
}

func TestDeployFailFastBlocksDependents(t *testing.T) {
	boom := errors.New("change set failed")
	eng := &fakeEngine{failOn: map[string]error{"demo-registry": boom}}
	r := &Runner{Engine: eng, Concurrency: 1}

	res, err := r.Deploy(context.Background(), chainAssembly())
	if err == nil {
		t.Fatal("expected deploy error")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("error %v does not wrap the engine failure", err)
	}
	if !reflect.DeepEqual(res.Failed, []string{"demo-registry"}) {
		t.Fatalf("failed = %v, want [demo-registry]", res.Failed)
	}
	if !reflect.DeepEqual(res.Blocked, []string{"demo-orchestration"}) {
		t.Fatalf("blocked = %v, want [demo-orchestration]", res.Blocked)
	}
	for _, name := range eng.deployed {
		if name == "demo-orchestration" {
			t.Fatal("blocked stack was deployed")
		}
	}
}

func TestDestroyRunsInExactReverseOrder(t *testing.T) {
	eng := &fakeEngine{outputs: map[string]Outputs{
		"demo-identity": {"UserPoolId": "pool-123"},
	}}
	r := &Runner{Engine: eng, Concurrency: 1}
	asm := chainAssembly()

	if _, err := r.Deploy(context.Background(), asm); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if err := r.Destroy(context.Background(), asm); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if eng.destroyed[0] != "demo-orchestration" {
		t.Fatalf("destroy order %v: dependent stack must go first", eng.destroyed)
	}
	// Destroy visits every stack the deploy visited, in reverse group order.
	if len(eng.destroyed) != len(eng.deployed) {
		t.Fatalf("destroyed %v, deployed %v", eng.destroyed, eng.deployed)
	}
}

func TestDescribeOrderGroupsStacks(t *testing.T) {
	out, err := DescribeOrder(chainAssembly())
	if err != nil {
		t.Fatalf("describe order: %v", err)
	}
	want := "group 1: demo-identity, demo-registry\ngroup 2: demo-orchestration\n"
	if out != want {
		t.Fatalf("order = %q, want %q", out, want)
	}
}
