// Package testutil provides test utilities for command and integration tests
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pojntfx/pojde-rs/internal/app"
	"github.com/pojntfx/pojde-rs/internal/config"
	"github.com/pojntfx/pojde-rs/internal/instance"
	"github.com/pojntfx/pojde-rs/internal/runtime"
)

// TestEnv holds the test environment
type TestEnv struct {
	T       *testing.T
	TmpDir  string
	Paths   *config.Paths
	Config  *config.Config
	Client  *runtime.MockClient
	App     *app.App
	cleanup func()
}

// EnvOption configures a TestEnv before the App is created.
type EnvOption func(*envOptions)

type envOptions struct {
	config  *config.Config
	tunnels instance.TunnelDialer
}

// WithConfig uses cfg instead of config.Default().
func WithConfig(cfg *config.Config) EnvOption {
	return func(o *envOptions) {
		o.config = cfg
	}
}

// WithTunnelDialer sets the dialer used by Forward.
func WithTunnelDialer(d instance.TunnelDialer) EnvOption {
	return func(o *envOptions) {
		o.tunnels = d
	}
}

// NewTestEnv creates a new test environment with a mock runtime client and
// installs its App as app.Default. The previous default is restored when
// the test ends.
func NewTestEnv(t *testing.T, opts ...EnvOption) *TestEnv {
	t.Helper()

	var o envOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.config == nil {
		o.config = config.Default()
	}

	tmpDir := t.TempDir()
	paths := config.NewPaths(filepath.Join(tmpDir, "config"), filepath.Join(tmpDir, "state"))

	for _, dir := range []string{paths.ConfigDir, paths.StateDir, paths.EventsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	client := runtime.NewMockClient()

	appOpts := []app.Option{
		app.WithPaths(paths),
		app.WithConfig(o.config),
		app.WithClient(client),
	}
	if o.tunnels != nil {
		appOpts = append(appOpts, app.WithTunnelDialer(o.tunnels))
	}
	testApp, err := app.New(appOpts...)
	if err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}

	// Save original default and set test app
	originalDefault := app.Default
	app.SetDefault(testApp)

	env := &TestEnv{
		T:       t,
		TmpDir:  tmpDir,
		Paths:   paths,
		Config:  o.config,
		Client:  client,
		App:     testApp,
		cleanup: func() {
			app.SetDefault(originalDefault)
		},
	}
	t.Cleanup(env.Cleanup)

	return env
}

// Cleanup restores the original app default
func (e *TestEnv) Cleanup() {
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
}

// AddInstance adds an instance container to the mock runtime. ports are
// published host ports.
func (e *TestEnv) AddInstance(name, state string, ports ...uint16) *runtime.MockContainer {
	e.T.Helper()
	return e.Client.AddContainer(e.Config.Instance.Prefix+name, state, ports...)
}

// PublishServicePort publishes the instance's service port on hostPort.
func (e *TestEnv) PublishServicePort(name, hostPort string) {
	e.T.Helper()
	e.Client.Publish(e.Config.Instance.Prefix+name, e.Config.Instance.ServicePortKey(), hostPort)
}

// LoadContainers seeds the mock runtime from a containers fixture.
func (e *TestEnv) LoadContainers(fixture string) {
	e.T.Helper()

	containers, err := LoadContainersFixture(fixture)
	if err != nil {
		e.T.Fatalf("Failed to load containers fixture: %v", err)
	}
	for _, c := range containers {
		e.Client.AddContainer(c.Name, c.State, c.Ports...)
		if c.ServicePort != "" {
			e.Client.Publish(c.Name, e.Config.Instance.ServicePortKey(), c.ServicePort)
		}
	}
}

// State returns the mock state of an instance, or "" if it does not exist.
func (e *TestEnv) State(name string) string {
	c, ok := e.Client.Containers[e.Config.Instance.Prefix+name]
	if !ok {
		return ""
	}
	return c.State
}
