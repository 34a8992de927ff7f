package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// AgentBinding overrides one agent's per-process defaults. The swarm's
// agent bindings file (SwarmConfig.AgentBindingsFile, nexus's
// mcp_config.json equivalent) maps agent name to AgentBinding.
type AgentBinding struct {
	Model string `yaml:"model"`
}

// LoadAgentBindings reads path as a YAML map of agent name to AgentBinding.
// A missing file is not an error — it returns an empty map, since the
// bindings file is optional and agents fall back to the swarm's default
// model.
func LoadAgentBindings(path string) (map[string]AgentBinding, error) {
	if path == "" {
		return map[string]AgentBinding{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]AgentBinding{}, nil
		}
		return nil, err
	}

	bindings := map[string]AgentBinding{}
	if err := yaml.Unmarshal(data, &bindings); err != nil {
		return nil, err
	}
	return bindings, nil
}
