// File: internal/stacks/app.go
// Brief: Top-level wiring of the three stacks in dependency order.

package stacks

import (
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/config"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/synth"
)

// BuildApp instantiates the identity, registry, and orchestration stacks and
// wires identity/registry outputs into the orchestration stack's
// configuration. Orchestration carries explicit dependency edges on both
// prerequisites for every configuration; the graph is the straight line
// {identity, registry} -> orchestration.
func BuildApp(cfg *config.Options) (*synth.App, error) {
	app := synth.NewApp(cfg.AppName)

	identity, err := NewIdentityStack(app, cfg)
	if err != nil {
		return nil, err
	}
	registry, err := NewRegistryStack(app, cfg)
	if err != nil {
		return nil, err
	}
	if _, err := NewOrchestrationStack(app, cfg, identity, registry); err != nil {
		return nil, err
	}
	return app, nil
}
