// File: internal/synth/assembly.go
// Brief: Cloud assembly manifest: the synthesized plan handed to the engine.

package synth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Assembly is the synthesized plan: one artifact per stack, sorted by name,
// plus the parameter wiring that carries outputs of prerequisite stacks into
// dependents at apply time.
type Assembly struct {
	Version string          `json:"version"`
	App     string          `json:"app,omitempty"`
	Stacks  []StackArtifact `json:"stacks"`
}

// StackArtifact points at one rendered template and records how the engine
// must feed it.
type StackArtifact struct {
	Name         string                    `json:"name"`
	TemplateFile string                    `json:"templateFile"`
	DependsOn    []string                  `json:"dependsOn,omitempty"`
	Parameters   map[string]ParameterValue `json:"parameters,omitempty"`
	Capabilities []string                  `json:"capabilities,omitempty"`

	template []byte
}

// ParameterValue is either a literal or a reference to another stack's
// output, resolved by the runner after the upstream stack applies.
type ParameterValue struct {
	Value     string `json:"value,omitempty"`
	FromStack string `json:"fromStack,omitempty"`
	Output    string `json:"output,omitempty"`
}

// TemplateBytes returns the rendered template for artifacts produced by
// Assemble/Synth in-process. Artifacts loaded from disk carry none; read the
// template file instead.
func (s *StackArtifact) TemplateBytes() []byte { return s.template }

// Artifact returns the named stack artifact, or nil.
func (a *Assembly) Artifact(name string) *StackArtifact {
	for i := range a.Stacks {
		if a.Stacks[i].Name == name {
			return &a.Stacks[i]
		}
	}
	return nil
}

// StackNames returns the names of all stacks in manifest order (sorted).
func (a *Assembly) StackNames() []string {
	out := make([]string, 0, len(a.Stacks))
	for _, s := range a.Stacks {
		out = append(out, s.Name)
	}
	return out
}

// LoadAssembly reads a previously synthesized manifest.json from dir.
func LoadAssembly(dir string) (*Assembly, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, fmt.Errorf("read assembly manifest: %w", err)
	}
	var asm Assembly
	if err := json.Unmarshal(raw, &asm); err != nil {
		return nil, fmt.Errorf("parse assembly manifest: %w", err)
	}
	if asm.Version != AssemblyVersion {
		return nil, fmt.Errorf("unsupported assembly version %q (expected %s)", asm.Version, AssemblyVersion)
	}
	return &asm, nil
}
