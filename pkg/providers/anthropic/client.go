package anthropic

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"mercator-hq/ganymede/pkg/providers"
)

const (
	// DefaultBaseURL is the Anthropic API endpoint
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultAnthropicVersion is the API version to use
	DefaultAnthropicVersion = "2023-06-01"

	modelsPath = "/v1/models"
	usagePath  = "/v1/organizations/usage_report/messages"
	costPath   = "/v1/organizations/cost_report"
)

// Provider is the Anthropic usage adapter.
// It reads the Admin API usage and cost reports, which require an admin key
// (sk-ant-admin...). The models endpoint doubles as the connectivity probe
// and also answers to regular workspace keys.
type Provider struct {
	*providers.HTTPClient
}

// NewProvider creates a new Anthropic provider instance.
// A missing API key is not an error: the adapter constructs as unconfigured
// and reports that through IsConfigured.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		config.Name = providers.ProviderAnthropic
	}
	config.Name = strings.ToLower(config.Name)
	if config.Type == "" {
		config.Type = providers.ProviderAnthropic
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	p := &Provider{
		HTTPClient: providers.NewHTTPClient(config),
	}

	slog.Info("Anthropic provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
		"configured", p.IsConfigured(),
	)

	return p, nil
}

// headers returns the authentication headers for Anthropic requests.
func (p *Provider) headers() map[string]string {
	return map[string]string{
		"x-api-key":         p.Config().APIKey,
		"anthropic-version": DefaultAnthropicVersion,
	}
}

// GetAccountInfo probes the models endpoint and reports connectivity.
// The Admin API does not expose a credit balance, so Balance stays nil.
func (p *Provider) GetAccountInfo(ctx context.Context) (*providers.AccountInfo, error) {
	if !p.IsConfigured() {
		return nil, &providers.NotConfiguredError{Provider: p.Name()}
	}

	var models ModelsResponse
	url := p.Config().BaseURL + modelsPath
	if err := p.GetJSON(ctx, url, &models, p.headers()); err != nil {
		return nil, err
	}

	info := &providers.AccountInfo{
		Provider:    p.Name(),
		IsConnected: true,
		PlanType:    providers.PlanTypePayAsYouGo,
		Diagnostics: map[string]string{
			"models_available": strconv.Itoa(len(models.Data)),
		},
		CheckedAt: time.Now(),
	}
	if org := p.Config().OrganizationID; org != "" {
		info.Diagnostics["organization"] = org
	}

	return info, nil
}

// GetUsageInfo fetches the Admin API usage and cost reports for the trailing
// number of days and merges them into a single report.
func (p *Provider) GetUsageInfo(ctx context.Context, days int) (*providers.UsageInfo, error) {
	if !p.IsConfigured() {
		return nil, &providers.NotConfiguredError{Provider: p.Name()}
	}
	if days <= 0 {
		days = 1
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)
	base := p.Config().BaseURL

	var usage UsageReport
	usageURL := fmt.Sprintf("%s%s?starting_at=%s&ending_at=%s&bucket_width=1d&group_by[]=model",
		base, usagePath,
		start.Format(time.RFC3339), end.Format(time.RFC3339))
	if err := p.GetJSON(ctx, usageURL, &usage, p.headers()); err != nil {
		return nil, err
	}

	var costs CostReport
	costURL := fmt.Sprintf("%s%s?starting_at=%s&ending_at=%s",
		base, costPath,
		start.Format(time.RFC3339), end.Format(time.RFC3339))
	if err := p.GetJSON(ctx, costURL, &costs, p.headers()); err != nil {
		return nil, err
	}

	info, err := buildUsageInfo(p.Name(), start, end, &usage, &costs)
	if err != nil {
		return nil, err
	}

	slog.Debug("usage fetch succeeded",
		"provider", p.Name(),
		"days", days,
		"total_requests", info.TotalRequests,
		"total_cost", info.TotalCost,
	)

	return info, nil
}
