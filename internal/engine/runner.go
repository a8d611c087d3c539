// File: internal/engine/runner.go
// Brief: Ordered stack runner: apply in groups, destroy in reverse.

package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Opius-AI/cognito-flask-infrastructure/internal/graph"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/state"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/synth"
)

// Event reports one stack's status change during a run.
type Event struct {
	Stack  string
	Status string
	Err    error
}

// Runner walks the assembly's dependency graph and drives the engine:
// execution groups in order for deploy (stacks within a group have no mutual
// ordering and may apply concurrently), the exact reverse for destroy. The
// first failure aborts the run and marks every transitive dependent blocked;
// there is no local retry.
type Runner struct {
	Engine      Engine
	Store       *state.Store
	Concurrency int
	Observer    func(Event)
}

// Result summarizes a deploy run.
type Result struct {
	RunID   string
	Outputs map[string]Outputs
	Failed  []string
	Blocked []string
}

func (r *Runner) notify(stack, status string, err error) {
	if r.Observer != nil {
		r.Observer(Event{Stack: stack, Status: status, Err: err})
	}
}

func (r *Runner) record(ctx context.Context, runID, stack, status string, err error, outputs Outputs) {
	if r.Store == nil {
		return
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	// State bookkeeping must not mask the run error; failures here are
	// ignored beyond the record itself.
	_ = r.Store.RecordStack(ctx, runID, stack, status, msg, outputs)
}

func newRunID() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return time.Now().UTC().Format("20060102-150405") + "-" + hex.EncodeToString(b[:])
}

func buildGraph(asm *synth.Assembly) (*graph.Graph, error) {
	nodes := make([]graph.Node, 0, len(asm.Stacks))
	for _, s := range asm.Stacks {
		nodes = append(nodes, graph.Node{Name: s.Name, Needs: s.DependsOn})
	}
	return graph.Build(nodes)
}

// Deploy applies every stack of the assembly in dependency order.
func (r *Runner) Deploy(ctx context.Context, asm *synth.Assembly) (*Result, error) {
	g, err := buildGraph(asm)
	if err != nil {
		return nil, err
	}
	runID := newRunID()
	if r.Store != nil {
		if err := r.Store.BeginRun(ctx, runID, "deploy", asm.StackNames()); err != nil {
			return nil, err
		}
	}

	res := &Result{RunID: runID, Outputs: map[string]Outputs{}}
	var mu sync.Mutex
	failed := map[string]error{}

	resolveParams := func(art *synth.StackArtifact) (map[string]string, error) {
		if len(art.Parameters) == 0 {
			return nil, nil
		}
		mu.Lock()
		defer mu.Unlock()
		params := map[string]string{}
		for name, pv := range art.Parameters {
			if pv.FromStack == "" {
				params[name] = pv.Value
				continue
			}
			upstream, ok := res.Outputs[pv.FromStack]
			if !ok {
				return nil, fmt.Errorf("stack %s: parameter %s needs outputs of %s, which has not applied", art.Name, name, pv.FromStack)
			}
			val, ok := upstream[pv.Output]
			if !ok {
				return nil, fmt.Errorf("stack %s: %s exposed no output %q", art.Name, pv.FromStack, pv.Output)
			}
			params[name] = val
		}
		return params, nil
	}

	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}

groups:
	for _, group := range g.ExecutionGroups() {
		eg, gctx := errgroup.WithContext(ctx)
		eg.SetLimit(concurrency)
		for _, name := range group {
			art := asm.Artifact(name)
			if art == nil {
				return nil, fmt.Errorf("assembly has no artifact for stack %s", name)
			}
			eg.Go(func() error {
				params, err := resolveParams(art)
				if err != nil {
					return err
				}
				r.notify(art.Name, state.StatusApplying, nil)
				r.record(gctx, runID, art.Name, state.StatusApplying, nil, nil)
				outputs, err := r.Engine.DeployStack(gctx, Deployment{
					StackName:    art.Name,
					TemplateFile: art.TemplateFile,
					Parameters:   params,
					Capabilities: art.Capabilities,
				})
				if err != nil {
					mu.Lock()
					failed[art.Name] = err
					mu.Unlock()
					r.notify(art.Name, state.StatusFailed, err)
					r.record(ctx, runID, art.Name, state.StatusFailed, err, nil)
					return fmt.Errorf("deploy %s: %w", art.Name, err)
				}
				mu.Lock()
				res.Outputs[art.Name] = outputs
				mu.Unlock()
				r.notify(art.Name, state.StatusApplied, nil)
				r.record(gctx, runID, art.Name, state.StatusApplied, nil, outputs)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			// Fail fast: everything downstream of a failed stack is blocked.
			blocked := map[string]struct{}{}
			for name := range failed {
				res.Failed = append(res.Failed, name)
				for _, dep := range g.DependentsOf(name) {
					blocked[dep] = struct{}{}
				}
			}
			sort.Strings(res.Failed)
			for name := range blocked {
				res.Blocked = append(res.Blocked, name)
				r.notify(name, state.StatusBlocked, nil)
				r.record(ctx, runID, name, state.StatusBlocked, nil, nil)
			}
			sort.Strings(res.Blocked)
			if r.Store != nil {
				_ = r.Store.FinishRun(ctx, runID, "failed")
			}
			return res, err
		}
		select {
		case <-ctx.Done():
			break groups
		default:
		}
	}
	if err := ctx.Err(); err != nil {
		if r.Store != nil {
			_ = r.Store.FinishRun(ctx, runID, "canceled")
		}
		return res, err
	}
	if r.Store != nil {
		if err := r.Store.FinishRun(ctx, runID, "succeeded"); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Destroy tears the assembly down in reverse dependency order, one execution
// group at a time. Stacks within a group destroy concurrently.
func (r *Runner) Destroy(ctx context.Context, asm *synth.Assembly) error {
	g, err := buildGraph(asm)
	if err != nil {
		return err
	}
	runID := newRunID()
	if r.Store != nil {
		if err := r.Store.BeginRun(ctx, runID, "destroy", asm.StackNames()); err != nil {
			return err
		}
	}

	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}

	groups := g.ExecutionGroups()
	for i := len(groups) - 1; i >= 0; i-- {
		eg, gctx := errgroup.WithContext(ctx)
		eg.SetLimit(concurrency)
		for _, name := range groups[i] {
			eg.Go(func() error {
				r.notify(name, state.StatusDestroying, nil)
				r.record(gctx, runID, name, state.StatusDestroying, nil, nil)
				if err := r.Engine.DestroyStack(gctx, name); err != nil {
					r.notify(name, state.StatusFailed, err)
					r.record(ctx, runID, name, state.StatusFailed, err, nil)
					return fmt.Errorf("destroy %s: %w", name, err)
				}
				r.notify(name, state.StatusDestroyed, nil)
				r.record(gctx, runID, name, state.StatusDestroyed, nil, nil)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			if r.Store != nil {
				_ = r.Store.FinishRun(ctx, runID, "failed")
			}
			return err
		}
	}
	if r.Store != nil {
		return r.Store.FinishRun(ctx, runID, "succeeded")
	}
	return nil
}

// DescribeOrder renders the apply order for human inspection.
func DescribeOrder(asm *synth.Assembly) (string, error) {
	g, err := buildGraph(asm)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i, group := range g.ExecutionGroups() {
		fmt.Fprintf(&b, "group %d: %s\n", i+1, strings.Join(group, ", "))
	}
	return b.String(), nil
}
