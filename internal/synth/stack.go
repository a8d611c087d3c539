// File: internal/synth/stack.go
// Brief: Stack: a named unit of declared resources, outputs, and edges.

package synth

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Stack is a named, independently provisionable unit of declared resources.
// It exposes outputs for consumption by dependent stacks and records both
// explicit dependency edges and the implicit edges created by parameter
// wiring.
type Stack struct {
	name        string
	description string
	app         *App

	resources  map[string]*Resource
	outputs    map[string]Output
	parameters map[string]Parameter

	// wiring maps a parameter name to the upstream output that feeds it.
	wiring map[string]OutputRef

	// explicit holds declared DependsOn edges; implicit records data
	// dependencies keyed by upstream stack name, valued by the parameter
	// that created them.
	explicit map[string]struct{}
	implicit map[string]string

	// forbidden output names, with the reason they must never be exposed.
	forbidden map[string]string

	capabilities []string
}

// Output is a named value the stack exposes after provisioning.
type Output struct {
	Value       any
	Description string
}

// Parameter is a plain configuration input the template accepts at apply
// time.
type Parameter struct {
	Type        string
	Description string
}

// OutputRef names one output of one stack.
type OutputRef struct {
	Stack  string
	Output string
}

func (s *Stack) Name() string { return s.name }

func (s *Stack) SetDescription(d string) { s.description = d }

// AddResource declares one resource under the given logical id and returns
// it for further property tweaks. Duplicate logical ids are a programming
// error in the declaring code, so this panics rather than returning an
// error.
func (s *Stack) AddResource(logicalID, resourceType string, props map[string]any) *Resource {
	id := strings.TrimSpace(logicalID)
	if id == "" {
		panic(fmt.Sprintf("stack %s: resource logical id is required", s.name))
	}
	if _, exists := s.resources[id]; exists {
		panic(fmt.Sprintf("stack %s: duplicate logical id %q", s.name, id))
	}
	r := &Resource{
		LogicalID:  id,
		Type:       resourceType,
		Properties: props,
	}
	s.resources[id] = r
	return r
}

// AddOutput exposes a named value. The value may be a literal or an
// intrinsic (Ref/GetAtt/Sub).
func (s *Stack) AddOutput(name string, value any, description string) {
	s.outputs[name] = Output{Value: value, Description: description}
}

// ForbidOutput records that this stack must never expose the named output.
// Validation fails if a later declaration adds it anyway.
func (s *Stack) ForbidOutput(name, reason string) {
	s.forbidden[name] = reason
}

// AddParameter declares a plain apply-time input.
func (s *Stack) AddParameter(name, paramType, description string) {
	if paramType == "" {
		paramType = "String"
	}
	s.parameters[name] = Parameter{Type: paramType, Description: description}
}

// ImportOutput wires an upstream stack's output into a parameter of this
// stack. This records the implicit data dependency; the caller must still
// declare the explicit edge with DependsOn, and validation enforces that.
func (s *Stack) ImportOutput(param string, from *Stack, output string) {
	s.AddParameter(param, "String", fmt.Sprintf("Imported from %s.%s", from.name, output))
	s.wiring[param] = OutputRef{Stack: from.name, Output: output}
	s.implicit[from.name] = param
}

// DependsOn declares an explicit ordering edge: this stack must not be
// applied until other has been applied successfully, and must be destroyed
// first on the way down.
func (s *Stack) DependsOn(other *Stack) {
	s.explicit[other.name] = struct{}{}
}

// DependsOnNames returns the explicit dependency set, sorted.
func (s *Stack) DependsOnNames() []string {
	out := make([]string, 0, len(s.explicit))
	for name := range s.explicit {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AddCapability marks the stack as requiring a provisioning-engine
// capability acknowledgement (e.g. named IAM resources).
func (s *Stack) AddCapability(c string) {
	for _, have := range s.capabilities {
		if have == c {
			return
		}
	}
	s.capabilities = append(s.capabilities, c)
	sort.Strings(s.capabilities)
}

func (s *Stack) parameterValues() map[string]ParameterValue {
	if len(s.parameters) == 0 {
		return nil
	}
	out := map[string]ParameterValue{}
	for name := range s.parameters {
		if ref, ok := s.wiring[name]; ok {
			out[name] = ParameterValue{FromStack: ref.Stack, Output: ref.Output}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

type templateDoc struct {
	AWSTemplateFormatVersion string                   `json:"AWSTemplateFormatVersion"`
	Description              string                   `json:"Description,omitempty"`
	Parameters               map[string]parameterDef  `json:"Parameters,omitempty"`
	Resources                map[string]*resourceBody `json:"Resources"`
	Outputs                  map[string]outputDef     `json:"Outputs,omitempty"`
}

type parameterDef struct {
	Type        string `json:"Type"`
	Description string `json:"Description,omitempty"`
}

type outputDef struct {
	Value       any    `json:"Value"`
	Description string `json:"Description,omitempty"`
}

// Template renders the stack's CloudFormation template. encoding/json emits
// map keys in sorted order, which keeps the render byte-stable across runs.
func (s *Stack) Template() ([]byte, error) {
	doc := templateDoc{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              s.description,
		Resources:                map[string]*resourceBody{},
	}
	if len(s.parameters) > 0 {
		doc.Parameters = map[string]parameterDef{}
		for name, p := range s.parameters {
			doc.Parameters[name] = parameterDef(p)
		}
	}
	for id, r := range s.resources {
		doc.Resources[id] = r.body()
	}
	if len(s.outputs) > 0 {
		doc.Outputs = map[string]outputDef{}
		for name, o := range s.outputs {
			doc.Outputs[name] = outputDef{Value: o.Value, Description: o.Description}
		}
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(raw, '\n'), nil
}
