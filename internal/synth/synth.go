// File: internal/synth/synth.go
// Brief: App container and deterministic cloud-assembly synthesis.

// Package synth implements the construct core: stacks of declared cloud
// resources, the outputs they expose, and the explicit dependency edges
// between them. Synthesis is a pure function of the declared configuration;
// it renders every stack into a CloudFormation template plus a manifest and
// never touches the network or the environment.
package synth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const AssemblyVersion = "cfi/assembly/v1"

// App is the top-level orchestrator: it owns the set of stacks and renders
// them into a cloud assembly.
type App struct {
	name   string
	stacks []*Stack
	byName map[string]*Stack
}

func NewApp(name string) *App {
	return &App{
		name:   strings.TrimSpace(name),
		byName: map[string]*Stack{},
	}
}

func (a *App) Name() string { return a.name }

// NewStack registers an empty stack with the app. Stack names become
// provisioning-engine stack names, so duplicates are rejected here rather
// than at apply time.
func (a *App) NewStack(name string) (*Stack, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return nil, fmt.Errorf("stack name is required")
	}
	if _, exists := a.byName[n]; exists {
		return nil, fmt.Errorf("duplicate stack name %q", n)
	}
	s := &Stack{
		name:       n,
		app:        a,
		resources:  map[string]*Resource{},
		outputs:    map[string]Output{},
		parameters: map[string]Parameter{},
		wiring:     map[string]OutputRef{},
		explicit:   map[string]struct{}{},
		implicit:   map[string]string{},
		forbidden:  map[string]string{},
	}
	a.stacks = append(a.stacks, s)
	a.byName[n] = s
	return s, nil
}

// MustStack is NewStack for wiring code where a duplicate name is a
// programming error.
func (a *App) MustStack(name string) *Stack {
	s, err := a.NewStack(name)
	if err != nil {
		panic(err)
	}
	return s
}

// Stacks returns the app's stacks sorted by name.
func (a *App) Stacks() []*Stack {
	out := append([]*Stack(nil), a.stacks...)
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Validate checks the declared graph before rendering: dependency targets
// must exist, every implicit data dependency must have an explicit edge, and
// no stack may expose an output its own declaration forbids.
func (a *App) Validate() error {
	for _, s := range a.Stacks() {
		for dep := range s.explicit {
			if _, ok := a.byName[dep]; !ok {
				return fmt.Errorf("stack %s depends on unknown stack %q", s.name, dep)
			}
			if dep == s.name {
				return fmt.Errorf("stack %s depends on itself", s.name)
			}
		}
		for dep, via := range s.implicit {
			if _, ok := s.explicit[dep]; !ok {
				return fmt.Errorf("stack %s consumes output of %s (parameter %s) without an explicit dependency edge", s.name, dep, via)
			}
		}
		for name, reason := range s.forbidden {
			if _, ok := s.outputs[name]; ok {
				return fmt.Errorf("stack %s must not expose output %q: %s", s.name, name, reason)
			}
		}
		if len(s.resources) == 0 {
			return fmt.Errorf("stack %s declares no resources", s.name)
		}
	}
	return nil
}

// Assemble validates the app and renders the in-memory assembly. The result
// is fully deterministic: stacks sorted by name, sorted dependency lists,
// and templates rendered with stable key order.
func (a *App) Assemble() (*Assembly, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	asm := &Assembly{Version: AssemblyVersion, App: a.name}
	for _, s := range a.Stacks() {
		tpl, err := s.Template()
		if err != nil {
			return nil, fmt.Errorf("render stack %s: %w", s.name, err)
		}
		asm.Stacks = append(asm.Stacks, StackArtifact{
			Name:         s.name,
			TemplateFile: s.name + ".template.json",
			DependsOn:    s.DependsOnNames(),
			Parameters:   s.parameterValues(),
			Capabilities: append([]string(nil), s.capabilities...),
			template:     tpl,
		})
	}
	return asm, nil
}

// Synth renders the assembly into dir: one template file per stack plus
// manifest.json. Identical declared configuration yields byte-identical
// files.
func (a *App) Synth(dir string) (*Assembly, error) {
	asm, err := a.Assemble()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	for _, art := range asm.Stacks {
		if err := os.WriteFile(filepath.Join(dir, art.TemplateFile), art.template, 0o644); err != nil {
			return nil, err
		}
	}
	raw, err := json.MarshalIndent(asm, "", "  ")
	if err != nil {
		return nil, err
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), raw, 0o644); err != nil {
		return nil, err
	}
	return asm, nil
}
