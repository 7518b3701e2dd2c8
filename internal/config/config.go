package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// instanceNameRegex validates user-facing instance names.
// Names must start with a letter or digit, followed by letters, digits, underscores, dots, or hyphens.
var instanceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// ValidateInstanceName checks if a user-facing instance name is valid.
// Valid names:
//   - Start with a letter or digit
//   - Contain only letters, digits, underscores, dots, or hyphens
//   - Do not contain path separators
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("instance name cannot be empty")
	}

	if !instanceNameRegex.MatchString(name) {
		return fmt.Errorf("invalid instance name %q: must start with a letter or digit and contain only letters, digits, underscores, dots, or hyphens", name)
	}

	return nil
}

const (
	DefaultPrefix         = "pojde-"
	DefaultServicePort    = 8005
	DefaultSSHUser        = "pojde"
	DefaultSSHHost        = "localhost"
	DefaultConnectTimeout = 10 * time.Second
	DefaultStopTimeout    = 10 * time.Second
	DefaultAPIListen      = "127.0.0.1:8060"
	DefaultMonitorPeriod  = 30 * time.Second
	ConfigFileName        = "config.toml"
)

// Duration is a time.Duration that decodes from TOML strings such as "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// InstanceConfig holds the naming convention and the fixed service port.
type InstanceConfig struct {
	Prefix      string `toml:"prefix"`
	ServicePort int    `toml:"service_port"`
}

// ServicePortKey returns the internal service port as "<port>/tcp".
func (c InstanceConfig) ServicePortKey() string {
	return strconv.Itoa(c.ServicePort) + "/tcp"
}

// SSHConfig holds the settings for tunnels into an instance.
type SSHConfig struct {
	User                  string   `toml:"user"`
	Host                  string   `toml:"host"`
	IdentityFiles         []string `toml:"identity_files"`
	UseAgent              bool     `toml:"use_agent"`
	KnownHostsFile        string   `toml:"known_hosts_file"`
	StrictHostKeyChecking bool     `toml:"strict_host_key_checking"`
	ConnectTimeout        Duration `toml:"connect_timeout"`
}

// RuntimeConfig selects the container runtime endpoint.
type RuntimeConfig struct {
	Host       string `toml:"host"`
	APIVersion string `toml:"api_version"`
}

// LifecycleConfig tunes batch start/stop/restart.
type LifecycleConfig struct {
	StopTimeout Duration `toml:"stop_timeout"`
	MaxParallel int      `toml:"max_parallel"`
}

// APIConfig configures the HTTP API server.
type APIConfig struct {
	Listen string `toml:"listen"`
}

// MonitorConfig configures the status monitor.
type MonitorConfig struct {
	Interval  Duration `toml:"interval"`
	AutoStart bool     `toml:"auto_start"`
}

// Config is the complete pojdectl configuration. It is not modified after
// Load returns.
type Config struct {
	Instance  InstanceConfig  `toml:"instance"`
	SSH       SSHConfig       `toml:"ssh"`
	Runtime   RuntimeConfig   `toml:"runtime"`
	Lifecycle LifecycleConfig `toml:"lifecycle"`
	API       APIConfig       `toml:"api"`
	Monitor   MonitorConfig   `toml:"monitor"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Instance: InstanceConfig{
			Prefix:      DefaultPrefix,
			ServicePort: DefaultServicePort,
		},
		SSH: SSHConfig{
			User:           DefaultSSHUser,
			Host:           DefaultSSHHost,
			UseAgent:       true,
			ConnectTimeout: Duration{DefaultConnectTimeout},
		},
		Lifecycle: LifecycleConfig{
			StopTimeout: Duration{DefaultStopTimeout},
		},
		API: APIConfig{
			Listen: DefaultAPIListen,
		},
		Monitor: MonitorConfig{
			Interval: Duration{DefaultMonitorPeriod},
		},
	}
}

// Validate checks that the Config is valid.
func (c *Config) Validate() error {
	if c.Instance.Prefix == "" {
		return fmt.Errorf("instance.prefix is required")
	}
	if strings.Contains(c.Instance.Prefix, "/") {
		return fmt.Errorf("instance.prefix must not contain '/' (got %q)", c.Instance.Prefix)
	}
	if c.Instance.ServicePort < 1 || c.Instance.ServicePort > 65535 {
		return fmt.Errorf("instance.service_port must be between 1 and 65535 (got %d)", c.Instance.ServicePort)
	}
	if c.SSH.User == "" {
		return fmt.Errorf("ssh.user is required")
	}
	if c.SSH.StrictHostKeyChecking && c.SSH.KnownHostsFile == "" {
		return fmt.Errorf("ssh.known_hosts_file is required when strict_host_key_checking is enabled")
	}
	if c.Lifecycle.MaxParallel < 0 {
		return fmt.Errorf("lifecycle.max_parallel must not be negative (got %d)", c.Lifecycle.MaxParallel)
	}
	if c.Lifecycle.StopTimeout.Duration < 0 {
		return fmt.Errorf("lifecycle.stop_timeout must not be negative")
	}
	if c.Monitor.Interval.Duration <= 0 {
		return fmt.Errorf("monitor.interval must be positive")
	}
	return nil
}

// Load reads a TOML configuration file over the defaults. A missing file
// yields the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if err == nil {
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, 0, len(undecoded))
				for _, k := range undecoded {
					keys = append(keys, k.String())
				}
				return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
			}
		}
	}

	cfg.SSH.IdentityFiles = expandHome(cfg.SSH.IdentityFiles)
	if files := expandHome([]string{cfg.SSH.KnownHostsFile}); len(files) == 1 {
		cfg.SSH.KnownHostsFile = files[0]
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func expandHome(paths []string) []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return paths
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "~" {
			p = home
		} else if strings.HasPrefix(p, "~/") {
			p = filepath.Join(home, p[2:])
		}
		out = append(out, p)
	}
	return out
}

// Paths holds the configured paths
type Paths struct {
	ConfigDir  string
	StateDir   string
	ConfigFile string
	EventsDir  string
}

// DefaultPaths returns the default path configuration, following the XDG
// base directory layout.
func DefaultPaths() *Paths {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	stateHome := os.Getenv("XDG_STATE_HOME")
	if home, err := os.UserHomeDir(); err == nil {
		if configHome == "" {
			configHome = filepath.Join(home, ".config")
		}
		if stateHome == "" {
			stateHome = filepath.Join(home, ".local", "state")
		}
	}
	return NewPaths(filepath.Join(configHome, "pojdectl"), filepath.Join(stateHome, "pojdectl"))
}

// NewPaths derives the path layout from a config and state directory.
func NewPaths(configDir, stateDir string) *Paths {
	return &Paths{
		ConfigDir:  configDir,
		StateDir:   stateDir,
		ConfigFile: filepath.Join(configDir, ConfigFileName),
		EventsDir:  filepath.Join(stateDir, "events"),
	}
}
