package testutil

import (
	"embed"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pojntfx/pojde-rs/internal/config"
)

//go:embed fixtures/*
var fixturesFS embed.FS

// LoadFixture loads a fixture file by name.
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile("fixtures/" + name)
}

// FixtureContainer is one container of a containers fixture.
type FixtureContainer struct {
	Name        string   `json:"name"`
	State       string   `json:"state"`
	Ports       []uint16 `json:"ports"`
	ServicePort string   `json:"service_port,omitempty"`
}

// LoadContainersFixture loads a list of containers.
func LoadContainersFixture(name string) ([]FixtureContainer, error) {
	data, err := LoadFixture(name)
	if err != nil {
		return nil, err
	}
	var containers []FixtureContainer
	if err := json.Unmarshal(data, &containers); err != nil {
		return nil, err
	}
	return containers, nil
}

// WriteFixture copies a fixture into a temporary directory and returns
// its path.
func WriteFixture(t *testing.T, name string) string {
	t.Helper()

	data, err := LoadFixture(name)
	if err != nil {
		t.Fatalf("Failed to load fixture %s: %v", name, err)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return path
}

// LoadConfigFixture loads a configuration fixture through config.Load.
func LoadConfigFixture(t *testing.T, name string) (*config.Config, error) {
	t.Helper()
	return config.Load(WriteFixture(t, name))
}
