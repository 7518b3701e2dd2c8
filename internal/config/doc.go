// Package config provides configuration types and loading for pojdectl.
//
// # Configuration File
//
// Configuration is read from $XDG_CONFIG_HOME/pojdectl/config.toml (or the
// path given with --config). Every key is optional; missing keys keep their
// defaults and unknown keys are rejected:
//
//	[instance]
//	prefix = "pojde-"        # runtime name prefix of managed containers
//	service_port = 8005      # internal SSH port used for tunnels
//
//	[ssh]
//	user = "pojde"
//	host = "localhost"       # overridden by --node
//	identity_files = ["~/.ssh/id_ed25519"]
//	use_agent = true
//	known_hosts_file = "~/.ssh/known_hosts"
//	strict_host_key_checking = false
//	connect_timeout = "10s"
//
//	[runtime]
//	host = "unix:///var/run/docker.sock"
//
//	[lifecycle]
//	stop_timeout = "10s"
//	max_parallel = 0         # 0 means unbounded
//
//	[api]
//	listen = "127.0.0.1:8060"
//
//	[monitor]
//	interval = "30s"
//	auto_start = false
//
// The loaded Config is treated as immutable and passed by pointer to the
// components that need it.
//
// # Paths
//
// Paths holds the config and state directories. Lifecycle events are kept
// under <state>/events.
package config
