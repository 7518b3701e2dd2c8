// Package testutil provides test fixtures and utilities.
//
// # Test Environment
//
// NewTestEnv builds an App around a runtime.MockClient in a temporary
// directory and installs it as app.Default for the duration of the test:
//
//	env := testutil.NewTestEnv(t)
//	env.AddInstance("felix", runtime.StateRunning, 8000, 8005)
//	env.PublishServicePort("felix", "8005")
//
// # Fixtures
//
// Fixtures are embedded using go:embed:
//
//	fixtures/valid_config.toml
//	fixtures/invalid_config.toml
//	fixtures/unknown_key_config.toml
//	fixtures/containers.json
//
// Configuration fixtures are loaded through config.Load so parsing and
// validation are exercised:
//
//	cfg, err := testutil.LoadConfigFixture(t, "valid_config.toml")
//
// Container fixtures seed the mock runtime:
//
//	env.LoadContainers("containers.json")
package testutil
