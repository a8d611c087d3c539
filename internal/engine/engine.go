// File: internal/engine/engine.go
// Brief: Provisioning-engine boundary.

// Package engine drives the external provisioning engine over a synthesized
// assembly. The toolkit never reconciles cloud state itself: it hands each
// stack's template to the engine in dependency order and reads back the
// outputs the engine reports. Retry, rollback, and partial-failure handling
// all live on the far side of this boundary.
package engine

import "context"

// Outputs are the named values a stack exposes after provisioning.
type Outputs map[string]string

// Deployment is one stack's apply request: the rendered template plus the
// fully resolved parameter values.
type Deployment struct {
	StackName    string
	TemplateFile string
	Parameters   map[string]string
	Capabilities []string
}

// Engine abstracts the external provisioning tool.
type Engine interface {
	// DeployStack reconciles one stack and returns its outputs. The engine
	// owns diff semantics and rollback; a returned error means the stack is
	// not in the desired state.
	DeployStack(ctx context.Context, d Deployment) (Outputs, error)

	// DestroyStack tears one stack down and blocks until it is gone.
	DestroyStack(ctx context.Context, stackName string) error

	// StackOutputs reads the current outputs of a live stack.
	StackOutputs(ctx context.Context, stackName string) (Outputs, error)
}
