// Package config loads the swarm's YAML configuration, following nexus's
// nested-struct-per-concern shape: one type per subsystem, assembled into
// one top-level Config and decoded with gopkg.in/yaml.v3.
package config

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for a swarm process.
type Config struct {
	Version       int                 `yaml:"version"`
	Server        ServerConfig        `yaml:"server"`
	LLM           LLMConfig           `yaml:"llm"`
	ToolServer    ToolServerConfig    `yaml:"tool_server"`
	Swarm         SwarmConfig         `yaml:"swarm"`
	Tools         ToolsConfig         `yaml:"tools"`
	Memory        MemoryConfig        `yaml:"memory"`
	EventLog      EventLogConfig      `yaml:"event_log"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig configures the process's own listening ports: Prometheus
// metrics scrape and the streaming UI transport.
type ServerConfig struct {
	MetricsPort int `yaml:"metrics_port"`
	StreamPort  int `yaml:"stream_port"`
}

// ToolServerConfig targets the Tool Server (C1): the tmux-in-container RPC
// endpoint shell tools dispatch to. Field names mirror spec.md §6's
// configuration table (DOCKER_CONTAINER, DEBUG_MODE, CHAT_HEIGHT) so the
// corresponding environment variables can be read directly onto them.
type ToolServerConfig struct {
	// Endpoint is the Tool Server's RPC address.
	Endpoint string `yaml:"endpoint"`

	// Container is the target container name for tmux (DOCKER_CONTAINER).
	Container string `yaml:"container"`

	// Debug enables verbose event echo in the UI layer (DEBUG_MODE).
	Debug bool `yaml:"debug"`

	// ChatHeightHint is a UI-only terminal sizing hint (CHAT_HEIGHT).
	ChatHeightHint int `yaml:"chat_height_hint"`

	// RequestTimeout bounds one CommandExec RPC.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// RetryOnUnreachable controls the single retry spec.md §7 names for
	// ToolServerUnreachable before the call is surfaced as a failed ToolResult.
	RetryOnUnreachable bool `yaml:"retry_on_unreachable"`
}

// SwarmConfig configures the Agent Graph (C4): step budget, default entry
// agent, and the agent/tool binding file (this module's analogue of
// nexus's mcp_config.json).
type SwarmConfig struct {
	// MaxSteps bounds graph steps per turn. Zero uses swarm.DefaultMaxSteps.
	MaxSteps int `yaml:"max_steps"`

	// DefaultAgent is the agent a fresh thread starts on.
	DefaultAgent string `yaml:"default_agent"`

	// AgentBindingsFile maps agent names to per-agent model overrides
	// (AgentBinding), loaded as YAML (spec.md §6's mcp_config.json-equivalent).
	AgentBindingsFile string `yaml:"agent_bindings_file"`
}

// MemoryConfig configures the per-user long-term memory store (C5).
type MemoryConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory"`
}

// EventLogConfig configures the Event Log (C7): where SessionLog files are
// written, under logs/YYYY/MM/DD/session_<id>.json.
type EventLogConfig struct {
	Directory string `yaml:"directory"`
}

// Load reads, resolves $include directives in, and decodes a YAML
// configuration file, applying environment variable expansion first so
// values like ${ANTHROPIC_API_KEY} resolve before parsing.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, err
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}
	if err := ValidateVersion(cfg.Version); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeRawConfig(raw map[string]any) (*Config, error) {
	payload, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("config: serialize merged document: %w", err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(payload))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config: expected a single YAML document")
	}
	return &cfg, nil
}

// Default returns a Config with the reference deployment's defaults: logs
// under ./logs, memory under ./memory, step cap 40, debug off.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Server:  ServerConfig{MetricsPort: 9090, StreamPort: 8765},
		ToolServer: ToolServerConfig{
			Endpoint:           "http://localhost:7331",
			Container:          "attacker",
			RequestTimeout:     2 * time.Minute,
			RetryOnUnreachable: true,
		},
		Swarm:    SwarmConfig{MaxSteps: 40, DefaultAgent: "planner", AgentBindingsFile: "mcp_config.json"},
		Memory:   MemoryConfig{Enabled: true, Directory: "./memory"},
		EventLog: EventLogConfig{Directory: "./logs"},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}
