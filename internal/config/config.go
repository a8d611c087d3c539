// File: internal/config/config.go
// Brief: Typed CLI/file/env configuration for the cfi toolkit.

// Package config defines the configuration surface of the toolkit: the
// handful of plain key/value overrides (names, sizing) with documented
// defaults, bound to Cobra/Viper so they can come from flags, a cfi.yaml
// file, or CFI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Options holds everything the synthesizer and the deploy runner consume.
type Options struct {
	AppName string
	Region  string
	Profile string

	UserPoolName   string
	ClientName     string
	RepositoryName string

	ContainerPort int
	CPU           int
	MemoryMiB     int
	DesiredCount  int

	ImageTag        string
	HealthCheckPath string

	OutDir string
}

// NewOptions returns Options with the documented defaults applied.
func NewOptions() *Options {
	return &Options{
		AppName:         "cognito-flask",
		UserPoolName:    "flask-app-user-pool",
		ClientName:      "flask-app-client",
		RepositoryName:  "flask-app-repo",
		ContainerPort:   8000,
		CPU:             512,
		MemoryMiB:       1024,
		DesiredCount:    1,
		ImageTag:        "latest",
		HealthCheckPath: "/health",
		OutDir:          "cfi.out",
	}
}

// AddFlags binds the configuration surface to the provided FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.AppName, "app-name", o.AppName, "Application name used as the stack name prefix")
	fs.StringVar(&o.Region, "region", o.Region, "Cloud region to target (defaults to the provider CLI's configured region)")
	fs.StringVar(&o.Profile, "profile", o.Profile, "Credential profile passed to the provider CLI")
	fs.StringVar(&o.UserPoolName, "user-pool-name", o.UserPoolName, "Name of the user directory")
	fs.StringVar(&o.ClientName, "client-name", o.ClientName, "Name of the directory's application client")
	fs.StringVar(&o.RepositoryName, "repository-name", o.RepositoryName, "Name of the container image repository")
	fs.IntVar(&o.ContainerPort, "container-port", o.ContainerPort, "Port the container listens on")
	fs.IntVar(&o.CPU, "cpu", o.CPU, "Task CPU units")
	fs.IntVar(&o.MemoryMiB, "memory", o.MemoryMiB, "Task memory in MiB")
	fs.IntVar(&o.DesiredCount, "desired-count", o.DesiredCount, "Initial number of running tasks")
	fs.StringVar(&o.ImageTag, "image-tag", o.ImageTag, "Image tag the service runs")
	fs.StringVar(&o.HealthCheckPath, "health-check-path", o.HealthCheckPath, "HTTP path probed by the load balancer")
	fs.StringVar(&o.OutDir, "out", o.OutDir, "Directory the synthesized assembly is written to")
}

// Load layers a cfi.yaml config file and CFI_* environment variables under
// the flag values, keeping precedence flag > env > file > default.
func (o *Options) Load(fs *pflag.FlagSet, configFile string) error {
	v := viper.New()
	v.SetEnvPrefix("CFI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("cfi")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("read config file: %w", err)
			}
		}
	}
	if err := v.BindPFlags(fs); err != nil {
		return err
	}

	// Only adopt viper's view for flags the user did not set explicitly.
	apply := func(name string, set func()) {
		f := fs.Lookup(name)
		if f == nil || f.Changed {
			return
		}
		if v.IsSet(name) {
			set()
		}
	}
	apply("app-name", func() { o.AppName = v.GetString("app-name") })
	apply("region", func() { o.Region = v.GetString("region") })
	apply("profile", func() { o.Profile = v.GetString("profile") })
	apply("user-pool-name", func() { o.UserPoolName = v.GetString("user-pool-name") })
	apply("client-name", func() { o.ClientName = v.GetString("client-name") })
	apply("repository-name", func() { o.RepositoryName = v.GetString("repository-name") })
	apply("container-port", func() { o.ContainerPort = v.GetInt("container-port") })
	apply("cpu", func() { o.CPU = v.GetInt("cpu") })
	apply("memory", func() { o.MemoryMiB = v.GetInt("memory") })
	apply("desired-count", func() { o.DesiredCount = v.GetInt("desired-count") })
	apply("image-tag", func() { o.ImageTag = v.GetString("image-tag") })
	apply("health-check-path", func() { o.HealthCheckPath = v.GetString("health-check-path") })
	apply("out", func() { o.OutDir = v.GetString("out") })
	return nil
}

// taskSizes maps valid CPU units to the MiB range the platform accepts for
// that size.
var taskSizes = map[int][2]int{
	256:  {512, 2048},
	512:  {1024, 4096},
	1024: {2048, 8192},
	2048: {4096, 16384},
	4096: {8192, 30720},
}

// Validate rejects configurations the provisioning engine would only fail
// on much later.
func (o *Options) Validate() error {
	if strings.TrimSpace(o.AppName) == "" {
		return fmt.Errorf("app-name is required")
	}
	for _, f := range []struct{ name, v string }{
		{"user-pool-name", o.UserPoolName},
		{"client-name", o.ClientName},
		{"repository-name", o.RepositoryName},
	} {
		if strings.TrimSpace(f.v) == "" {
			return fmt.Errorf("%s is required", f.name)
		}
	}
	if o.ContainerPort < 1 || o.ContainerPort > 65535 {
		return fmt.Errorf("container-port %d is out of range (1-65535)", o.ContainerPort)
	}
	memRange, ok := taskSizes[o.CPU]
	if !ok {
		return fmt.Errorf("cpu %d is not a valid task size (one of 256, 512, 1024, 2048, 4096)", o.CPU)
	}
	if o.MemoryMiB < memRange[0] || o.MemoryMiB > memRange[1] {
		return fmt.Errorf("memory %d MiB is invalid for cpu %d (expected %d-%d)", o.MemoryMiB, o.CPU, memRange[0], memRange[1])
	}
	if o.DesiredCount < 1 {
		return fmt.Errorf("desired-count must be at least 1")
	}
	if !strings.HasPrefix(o.HealthCheckPath, "/") {
		return fmt.Errorf("health-check-path must start with /")
	}
	return nil
}

// StackName returns the engine-facing stack name for one of the app's
// stacks.
func (o *Options) StackName(suffix string) string {
	return o.AppName + "-" + suffix
}
