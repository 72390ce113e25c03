package costs

import "mercator-hq/ganymede/pkg/config"

// DefaultPricing returns the built-in pricing table, used when no table
// is configured. Rates are per 1000 tokens in USD and track public list
// prices approximately; deployments that care about accuracy should ship
// a pricing file and enable the watcher.
func DefaultPricing() map[string]map[string]config.ModelPricingConfig {
	return map[string]map[string]config.ModelPricingConfig{
		"openai": {
			"gpt-4o":        {Input: 0.0025, Output: 0.01},
			"gpt-4o-mini":   {Input: 0.00015, Output: 0.0006},
			"gpt-4.1":       {Input: 0.002, Output: 0.008},
			"gpt-3.5-turbo": {Input: 0.0005, Output: 0.0015},
			"default":       {Input: 0.0025, Output: 0.01},
		},
		"anthropic": {
			"claude-opus-4":    {Input: 0.015, Output: 0.075},
			"claude-sonnet-4":  {Input: 0.003, Output: 0.015},
			"claude-3-5-haiku": {Input: 0.0008, Output: 0.004},
			"default":          {Input: 0.003, Output: 0.015},
		},
		"google": {
			"gemini-2.0-flash": {Input: 0.0001, Output: 0.0004},
			"gemini-1.5-pro":   {Input: 0.00125, Output: 0.005},
			"gemini-1.5-flash": {Input: 0.000075, Output: 0.0003},
			"default":          {Input: 0.0001, Output: 0.0004},
		},
		// Local models have no billing
		"ollama": {
			"default": {Input: 0, Output: 0},
		},
		"default": {
			"default": {Input: 0.001, Output: 0.002},
		},
	}
}
