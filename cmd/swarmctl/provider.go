package main

import (
	"fmt"
	"os"
	"time"

	"github.com/redcell/swarm/internal/agent"
	"github.com/redcell/swarm/internal/agent/providers"
	"github.com/redcell/swarm/internal/config"
)

// buildProvider resolves cfg.LLM.DefaultProvider (or override, if set) into
// a concrete LLMProvider. API keys come from the matching provider's
// config.LLMProviderConfig.APIKey, expanded from the environment by
// config.Load already, so no provider-specific env lookup happens here.
func buildProvider(cfg *config.Config, override string) (agent.LLMProvider, error) {
	name := cfg.LLM.DefaultProvider
	if override != "" {
		name = override
	}
	if name == "" {
		name = "anthropic"
	}

	providerCfg, ok := cfg.LLM.Providers[name]
	if !ok {
		return nil, fmt.Errorf("swarmctl: no llm.providers entry for %q", name)
	}

	switch name {
	case "anthropic":
		return providers.NewAnthropicProvider(providers.AnthropicConfig{
			APIKey:       providerCfg.APIKey,
			BaseURL:      providerCfg.BaseURL,
			DefaultModel: providerCfg.DefaultModel,
			MaxRetries:   3,
			RetryDelay:   time.Second,
		})
	case "openai":
		return providers.NewOpenAIProvider(providerCfg.APIKey), nil
	case "google":
		return providers.NewGoogleProvider(providers.GoogleConfig{
			APIKey:       providerCfg.APIKey,
			DefaultModel: providerCfg.DefaultModel,
		})
	case "bedrock":
		region := cfg.LLM.Bedrock.Region
		if region == "" {
			region = os.Getenv("AWS_REGION")
		}
		return providers.NewBedrockProvider(providers.BedrockConfig{
			Region:       region,
			DefaultModel: providerCfg.DefaultModel,
		})
	default:
		return nil, fmt.Errorf("swarmctl: unknown llm provider %q", name)
	}
}
