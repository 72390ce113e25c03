package openai

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
	// DefaultBaseURL is the OpenAI API endpoint
	DefaultBaseURL = "https://api.openai.com"

	modelsPath = "/v1/models"
	usagePath  = "/v1/organization/usage/completions"
	costsPath  = "/v1/organization/costs"
)

// Provider is the OpenAI usage adapter.
// It reads the organization usage and costs endpoints, which require an
// admin API key. The models endpoint doubles as the connectivity probe.
type Provider struct {
	*providers.HTTPClient
}

// NewProvider creates a new OpenAI provider instance.
// A missing API key is not an error: the adapter constructs as unconfigured
// and reports that through IsConfigured.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		config.Name = providers.ProviderOpenAI
	}
	config.Name = strings.ToLower(config.Name)
	if config.Type == "" {
		config.Type = providers.ProviderOpenAI
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	p := &Provider{
		HTTPClient: providers.NewHTTPClient(config),
	}

	slog.Info("OpenAI provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
		"configured", p.IsConfigured(),
	)

	return p, nil
}

// headers returns the authentication headers for OpenAI requests.
func (p *Provider) headers() map[string]string {
	h := map[string]string{
		"Authorization": "Bearer " + p.Config().APIKey,
	}
	if org := p.Config().OrganizationID; org != "" {
		h["OpenAI-Organization"] = org
	}
	return h
}

// GetAccountInfo probes the models endpoint and reports connectivity.
// OpenAI does not expose a balance over the API, so Balance stays nil and
// the plan is reported as pay-as-you-go.
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

// GetUsageInfo fetches the organization usage and costs reports for the
// trailing number of days and merges them into a single report.
func (p *Provider) GetUsageInfo(ctx context.Context, days int) (*providers.UsageInfo, error) {
	if !p.IsConfigured() {
		return nil, &providers.NotConfiguredError{Provider: p.Name()}
	}
	if days <= 0 {
		days = 1
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)
	base := p.Config().BaseURL

	var usage UsageResponse
	usageURL := fmt.Sprintf("%s%s?start_time=%d&end_time=%d&group_by=model&limit=%d",
		base, usagePath, start.Unix(), end.Unix(), days)
	if err := p.GetJSON(ctx, usageURL, &usage, p.headers()); err != nil {
		return nil, err
	}

	var costs CostsResponse
	costsURL := fmt.Sprintf("%s%s?start_time=%d&end_time=%d&limit=%d",
		base, costsPath, start.Unix(), end.Unix(), days)
	if err := p.GetJSON(ctx, costsURL, &costs, p.headers()); err != nil {
		return nil, err
	}

	info := buildUsageInfo(p.Name(), start, end, &usage, &costs)

	slog.Debug("usage fetch succeeded",
		"provider", p.Name(),
		"days", days,
		"total_requests", info.TotalRequests,
		"total_cost", info.TotalCost,
	)

	return info, nil
}
