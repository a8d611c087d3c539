// File: internal/secrets/clientsecret.go
// Brief: Out-of-band retrieval of the application client secret.

// Package secrets fetches the one value the identity stack deliberately
// refuses to expose as an output: the application client's secret. Stack
// outputs land in engine logs and state files, so the secret is read from
// the live directory with the operator's credentials instead, printed once,
// and never stored by this toolkit.
package secrets

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
)

// ClientSecret queries the user directory for the application client's
// secret value.
func ClientSecret(ctx context.Context, region, profile, userPoolID, clientID string) (string, error) {
	if strings.TrimSpace(userPoolID) == "" || strings.TrimSpace(clientID) == "" {
		return "", fmt.Errorf("user pool id and client id are required (deploy the identity stack first)")
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	if profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return "", fmt.Errorf("load credentials: %w", err)
	}
	resp, err := cognitoidentityprovider.NewFromConfig(cfg).DescribeUserPoolClient(ctx, &cognitoidentityprovider.DescribeUserPoolClientInput{
		UserPoolId: &userPoolID,
		ClientId:   &clientID,
	})
	if err != nil {
		return "", fmt.Errorf("describe user pool client: %w", err)
	}
	if resp.UserPoolClient == nil || resp.UserPoolClient.ClientSecret == nil {
		return "", fmt.Errorf("directory returned no client secret for %s", clientID)
	}
	return *resp.UserPoolClient.ClientSecret, nil
}
