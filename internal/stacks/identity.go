// File: internal/stacks/identity.go
// Brief: Identity stack: user directory and application client.

// Package stacks declares the application's three stacks (identity,
// registry, orchestration) and wires them together in dependency order.
package stacks

import (
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/config"
	"github.com/Opius-AI/cognito-flask-infrastructure/internal/synth"
)

// Output names exposed by the identity stack.
const (
	OutUserPoolID       = "UserPoolId"
	OutUserPoolArn      = "UserPoolArn"
	OutUserPoolClientID = "UserPoolClientId"
)

// NewIdentityStack declares a user directory with email sign-in and
// self-service sign-up, plus an application client holding a server-side
// secret. The secret itself is deliberately not exposed as an output: stack
// outputs end up in engine logs and state files, so it has to be fetched
// out-of-band after provisioning (see internal/secrets).
func NewIdentityStack(app *synth.App, cfg *config.Options) (*synth.Stack, error) {
	s, err := app.NewStack(cfg.StackName("identity"))
	if err != nil {
		return nil, err
	}
	s.SetDescription("User directory and application client for " + cfg.AppName)
	s.ForbidOutput("UserPoolClientSecret", "client secrets must never appear in provisioning output")

	pool := s.AddResource("UserPool", "AWS::Cognito::UserPool", map[string]any{
		"UserPoolName":           cfg.UserPoolName,
		"UsernameAttributes":     []any{"email"},
		"AutoVerifiedAttributes": []any{"email"},
		"AdminCreateUserConfig": map[string]any{
			// Self-service sign-up stays enabled; admins are not the only
			// ones who can create users.
			"AllowAdminCreateUserOnly": false,
		},
		"Policies": map[string]any{
			"PasswordPolicy": map[string]any{
				"MinimumLength":    8,
				"RequireLowercase": true,
				"RequireUppercase": true,
				"RequireNumbers":   true,
				"RequireSymbols":   false,
			},
		},
		"VerificationMessageTemplate": map[string]any{
			"DefaultEmailOption": "CONFIRM_WITH_CODE",
		},
	})
	pool.WithRemovalPolicy(synth.RemovalPolicyDestroy)

	s.AddResource("UserPoolClient", "AWS::Cognito::UserPoolClient", map[string]any{
		"ClientName":     cfg.ClientName,
		"UserPoolId":     synth.Ref{LogicalID: "UserPool"},
		"GenerateSecret": true,
		"ExplicitAuthFlows": []any{
			"ALLOW_USER_PASSWORD_AUTH",
			"ALLOW_USER_SRP_AUTH",
			"ALLOW_REFRESH_TOKEN_AUTH",
		},
		"AccessTokenValidity":  60,
		"IdTokenValidity":      60,
		"RefreshTokenValidity": 30,
		"TokenValidityUnits": map[string]any{
			"AccessToken":  "minutes",
			"IdToken":      "minutes",
			"RefreshToken": "days",
		},
	})

	s.AddOutput(OutUserPoolID, synth.Ref{LogicalID: "UserPool"}, "Identifier of the user directory")
	s.AddOutput(OutUserPoolArn, synth.GetAtt{LogicalID: "UserPool", Attribute: "Arn"}, "ARN of the user directory")
	s.AddOutput(OutUserPoolClientID, synth.Ref{LogicalID: "UserPoolClient"}, "Identifier of the application client")
	return s, nil
}
