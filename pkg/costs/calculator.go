package costs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/providers"
)

// Calculator derives spend from token counts for providers that report
// usage but not cost. It is thread-safe and supports hot-reload of the
// pricing table.
type Calculator struct {
	// pricing maps provider -> model pattern -> per-1K token rates
	pricing map[string]map[string]config.ModelPricingConfig

	// mu protects the pricing table for concurrent access
	mu sync.RWMutex
}

// ModelPricing contains the resolved pricing for a specific model.
type ModelPricing struct {
	// Provider is the provider name.
	Provider string

	// Model is the model identifier the lookup was made for.
	Model string

	// MatchedPattern is the table entry that supplied the rates: the
	// model itself, a model prefix, or "default".
	MatchedPattern string

	// InputCostPer1KTokens is the cost per 1000 input tokens in USD.
	InputCostPer1KTokens float64

	// OutputCostPer1KTokens is the cost per 1000 output tokens in USD.
	OutputCostPer1KTokens float64

	// Currency is the currency code (always "USD").
	Currency string
}

// pricingFile is the schema of a standalone pricing YAML file.
type pricingFile struct {
	Pricing map[string]map[string]config.ModelPricingConfig `yaml:"pricing"`
}

// NewCalculator creates a cost calculator from configuration. An empty
// configured table falls back to the built-in default pricing; a
// configured PricingPath is loaded by the caller via LoadFile so load
// failures stay visible.
func NewCalculator(cfg *config.CostsConfig) *Calculator {
	c := &Calculator{}

	if cfg != nil && len(cfg.Pricing) > 0 {
		c.UpdatePricing(cfg.Pricing)
	} else {
		c.UpdatePricing(DefaultPricing())
	}

	return c
}

// GetModelPricing resolves pricing for a provider and model.
// Resolution order: exact model match, longest matching model prefix,
// the provider's "default" entry, then the global default entry.
func (c *Calculator) GetModelPricing(provider, model string) (*ModelPricing, error) {
	provider = strings.ToLower(provider)
	model = strings.ToLower(model)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if providerPricing, ok := c.pricing[provider]; ok {
		if rate, ok := providerPricing[model]; ok {
			return c.resolved(provider, model, model, rate), nil
		}

		// Longest prefix wins so "claude-sonnet-4" beats "claude"
		// for "claude-sonnet-4-20250514"
		var bestPattern string
		var bestRate config.ModelPricingConfig
		for pattern, rate := range providerPricing {
			if pattern == "default" {
				continue
			}
			if strings.HasPrefix(model, pattern) && len(pattern) > len(bestPattern) {
				bestPattern = pattern
				bestRate = rate
			}
		}
		if bestPattern != "" {
			return c.resolved(provider, model, bestPattern, bestRate), nil
		}

		if rate, ok := providerPricing["default"]; ok {
			return c.resolved(provider, model, "default", rate), nil
		}
	}

	if defaultPricing, ok := c.pricing["default"]; ok {
		if rate, ok := defaultPricing["default"]; ok {
			return c.resolved(provider, model, "default", rate), nil
		}
	}

	return nil, fmt.Errorf("no pricing found for provider %q model %q", provider, model)
}

// EstimateCost returns the USD cost for the given token counts.
func (c *Calculator) EstimateCost(provider, model string, inputTokens, outputTokens int64) (float64, error) {
	pricing, err := c.GetModelPricing(provider, model)
	if err != nil {
		return 0, err
	}

	return calculateTokenCost(inputTokens, pricing.InputCostPer1KTokens) +
		calculateTokenCost(outputTokens, pricing.OutputCostPer1KTokens), nil
}

// PriceUsage derives spend for a usage report whose provider returned
// token counts but no cost. Reports that already carry a billed
// TotalCost are returned unchanged; otherwise each per-model entry with
// zero cost is priced from the table and TotalCost becomes their sum.
// Models with no pricing anywhere contribute zero.
func (c *Calculator) PriceUsage(info *providers.UsageInfo) float64 {
	if info == nil {
		return 0
	}
	if info.TotalCost > 0 {
		return info.TotalCost
	}

	var derived float64
	for i := range info.ModelUsage {
		usage := &info.ModelUsage[i]
		if usage.Cost == 0 && (usage.InputTokens > 0 || usage.OutputTokens > 0) {
			cost, err := c.EstimateCost(info.Provider, usage.Model, usage.InputTokens, usage.OutputTokens)
			if err != nil {
				slog.Debug("no pricing for model, skipping",
					"provider", info.Provider,
					"model", usage.Model,
				)
				continue
			}
			usage.Cost = cost
		}
		derived += usage.Cost
	}

	info.TotalCost = derived
	return info.TotalCost
}

// UpdatePricing replaces the pricing table. Provider and model keys are
// lowercased on ingest so lookups are case-insensitive. Thread-safe and
// callable while the calculator is in use (hot-reload).
func (c *Calculator) UpdatePricing(pricing map[string]map[string]config.ModelPricingConfig) {
	normalized := make(map[string]map[string]config.ModelPricingConfig, len(pricing))
	for provider, models := range pricing {
		table := make(map[string]config.ModelPricingConfig, len(models))
		for model, rate := range models {
			table[strings.ToLower(model)] = rate
		}
		normalized[strings.ToLower(provider)] = table
	}

	c.mu.Lock()
	c.pricing = normalized
	c.mu.Unlock()
}

// LoadFile loads a pricing table from a YAML file and replaces the
// current table. On any error the current table is left untouched.
func (c *Calculator) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading pricing file: %w", err)
	}

	var file pricingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing pricing file %q: %w", path, err)
	}
	if len(file.Pricing) == 0 {
		return fmt.Errorf("pricing file %q contains no pricing entries", path)
	}

	c.UpdatePricing(file.Pricing)

	models := 0
	for _, table := range file.Pricing {
		models += len(table)
	}
	slog.Info("pricing table loaded",
		"path", path,
		"providers", len(file.Pricing),
		"models", models,
	)
	return nil
}

// resolved builds a ModelPricing from a table entry.
func (c *Calculator) resolved(provider, model, pattern string, rate config.ModelPricingConfig) *ModelPricing {
	return &ModelPricing{
		Provider:              provider,
		Model:                 model,
		MatchedPattern:        pattern,
		InputCostPer1KTokens:  rate.Input,
		OutputCostPer1KTokens: rate.Output,
		Currency:              "USD",
	}
}

// calculateTokenCost returns the cost for a token count at a per-1K rate.
func calculateTokenCost(tokens int64, costPer1K float64) float64 {
	if tokens <= 0 {
		return 0.0
	}

	return (float64(tokens) / 1000.0) * costPer1K
}
