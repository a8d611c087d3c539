// File: internal/push/push.go
// Brief: Build-and-push workflow: authenticate to the registry and push a tag.

// Package push implements the image publishing step that used to be a shell
// script: resolve the repository, obtain a registry credential out-of-band,
// and push a locally built image tag. Building the image stays with the
// container tool; this package takes over at `docker save`.
package push

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/distribution/reference"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/tarball"
	"github.com/opencontainers/go-digest"
)

type Options struct {
	Region  string
	Profile string

	// RepositoryURI is the target repository (a registry stack output).
	RepositoryURI string
	// Tag to push.
	Tag string
	// Source is either a docker-archive tarball (from `docker save`) or a
	// pullable image reference.
	Source string
}

type Result struct {
	Ref    string
	Digest digest.Digest
}

// Push publishes the source image to the repository under the given tag.
func Push(ctx context.Context, opts Options) (*Result, error) {
	repoURI := strings.TrimSpace(opts.RepositoryURI)
	if repoURI == "" {
		return nil, fmt.Errorf("repository URI is required (deploy the registry stack first or pass --repository)")
	}
	tag := strings.TrimSpace(opts.Tag)
	if tag == "" {
		tag = "latest"
	}
	target, err := name.NewTag(repoURI + ":" + tag)
	if err != nil {
		return nil, fmt.Errorf("invalid target reference: %w", err)
	}

	img, err := loadImage(ctx, opts.Source)
	if err != nil {
		return nil, err
	}

	auth, err := registryAuth(ctx, opts.Region, opts.Profile)
	if err != nil {
		return nil, err
	}
	if err := remote.Write(target, img, remote.WithContext(ctx), remote.WithAuth(auth)); err != nil {
		return nil, fmt.Errorf("push %s: %w", target.String(), err)
	}

	h, err := img.Digest()
	if err != nil {
		return nil, err
	}
	return &Result{Ref: target.String(), Digest: digest.Digest(h.String())}, nil
}

func loadImage(ctx context.Context, source string) (v1.Image, error) {
	src := strings.TrimSpace(source)
	if src == "" {
		return nil, fmt.Errorf("image source is required (tarball path or image reference)")
	}
	if st, err := os.Stat(src); err == nil && !st.IsDir() {
		img, err := tarball.ImageFromPath(src, nil)
		if err != nil {
			return nil, fmt.Errorf("load image archive %s: %w", src, err)
		}
		return img, nil
	}
	named, err := reference.ParseNormalizedNamed(src)
	if err != nil {
		return nil, fmt.Errorf("source %q is neither a file nor a valid image reference: %w", src, err)
	}
	img, err := crane.Pull(named.String(), crane.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("pull %s: %w", named.String(), err)
	}
	return img, nil
}

// registryAuth exchanges provider credentials for a short-lived registry
// token.
func registryAuth(ctx context.Context, region, profile string) (authn.Authenticator, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	if profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	resp, err := ecr.NewFromConfig(cfg).GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return nil, fmt.Errorf("get registry authorization token: %w", err)
	}
	if len(resp.AuthorizationData) == 0 || resp.AuthorizationData[0].AuthorizationToken == nil {
		return nil, fmt.Errorf("registry returned no authorization data")
	}
	user, pass, err := DecodeAuthToken(*resp.AuthorizationData[0].AuthorizationToken)
	if err != nil {
		return nil, err
	}
	return &authn.Basic{Username: user, Password: pass}, nil
}

// DecodeAuthToken splits the base64 user:password token the registry issues.
func DecodeAuthToken(token string) (user, pass string, err error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", "", fmt.Errorf("decode authorization token: %w", err)
	}
	user, pass, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", "", fmt.Errorf("authorization token is not in user:password form")
	}
	return user, pass, nil
}
