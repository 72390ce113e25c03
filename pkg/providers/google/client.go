// Package google implements the Google Gemini usage adapter.
//
// The adapter probes the Generative Language models listing for connectivity
// and reads per-model usage metadata. Google does not report spend through
// this surface; reports carry token counts with zero cost, and the monitor
// prices them from the pricing table.
package google

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"mercator-hq/ganymede/pkg/providers"
)

const (
	// DefaultBaseURL is the Generative Language API endpoint
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	modelsPath = "/v1beta/models"
	usagePath  = "/v1beta/usage"
)

// Provider is the Google Gemini usage adapter.
type Provider struct {
	*providers.HTTPClient
}

// NewProvider creates a new Google provider instance.
// A missing API key is not an error: the adapter constructs as unconfigured
// and reports that through IsConfigured.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		config.Name = providers.ProviderGoogle
	}
	config.Name = strings.ToLower(config.Name)
	if config.Type == "" {
		config.Type = providers.ProviderGoogle
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	p := &Provider{
		HTTPClient: providers.NewHTTPClient(config),
	}

	slog.Info("Google provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
		"configured", p.IsConfigured(),
	)

	return p, nil
}

// headers returns the authentication headers for Google requests.
// The key travels in a header rather than the query string so it stays out
// of request logs.
func (p *Provider) headers() map[string]string {
	return map[string]string{
		"x-goog-api-key": p.Config().APIKey,
	}
}

// ModelsResponse is the models listing, used as the connectivity probe.
type ModelsResponse struct {
	Models []ModelEntry `json:"models"`
}

// ModelEntry is a single model in the models listing.
// Names carry a "models/" prefix (e.g., "models/gemini-2.0-flash").
type ModelEntry struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Version     string `json:"version"`
}

// UsageReport is the per-model usage metadata report.
type UsageReport struct {
	ModelUsage []ModelUsageRow `json:"modelUsage"`
}

// ModelUsageRow is a per-model row in the usage report.
type ModelUsageRow struct {
	Model                string `json:"model"`
	RequestCount         int64  `json:"requestCount"`
	PromptTokenCount     int64  `json:"promptTokenCount"`
	CandidatesTokenCount int64  `json:"candidatesTokenCount"`
}

// GetAccountInfo probes the models listing and reports connectivity.
func (p *Provider) GetAccountInfo(ctx context.Context) (*providers.AccountInfo, error) {
	if !p.IsConfigured() {
		return nil, &providers.NotConfiguredError{Provider: p.Name()}
	}

	var models ModelsResponse
	url := p.Config().BaseURL + modelsPath
	if err := p.GetJSON(ctx, url, &models, p.headers()); err != nil {
		return nil, err
	}

	return &providers.AccountInfo{
		Provider:    p.Name(),
		IsConnected: true,
		PlanType:    providers.PlanTypePayAsYouGo,
		Diagnostics: map[string]string{
			"models_available": strconv.Itoa(len(models.Models)),
		},
		CheckedAt: time.Now(),
	}, nil
}

// GetUsageInfo fetches per-model usage metadata for the trailing number of
// days. Costs are always zero here; the monitor derives spend from the
// pricing table.
func (p *Provider) GetUsageInfo(ctx context.Context, days int) (*providers.UsageInfo, error) {
	if !p.IsConfigured() {
		return nil, &providers.NotConfiguredError{Provider: p.Name()}
	}
	if days <= 0 {
		days = 1
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	var report UsageReport
	url := fmt.Sprintf("%s%s?startDate=%s&endDate=%s",
		p.Config().BaseURL, usagePath,
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err := p.GetJSON(ctx, url, &report, p.headers()); err != nil {
		return nil, err
	}

	info := &providers.UsageInfo{
		Provider:  p.Name(),
		StartDate: start,
		EndDate:   end,
	}

	info.ModelUsage = make([]providers.ModelUsage, 0, len(report.ModelUsage))
	for _, row := range report.ModelUsage {
		info.ModelUsage = append(info.ModelUsage, providers.ModelUsage{
			Model:        strings.TrimPrefix(row.Model, "models/"),
			Requests:     row.RequestCount,
			InputTokens:  row.PromptTokenCount,
			OutputTokens: row.CandidatesTokenCount,
		})
		info.TotalRequests += row.RequestCount
		info.TotalTokens += row.PromptTokenCount + row.CandidatesTokenCount
	}
	sort.Slice(info.ModelUsage, func(i, j int) bool {
		a, b := info.ModelUsage[i], info.ModelUsage[j]
		if a.InputTokens+a.OutputTokens != b.InputTokens+b.OutputTokens {
			return a.InputTokens+a.OutputTokens > b.InputTokens+b.OutputTokens
		}
		return a.Model < b.Model
	})

	slog.Debug("usage fetch succeeded",
		"provider", p.Name(),
		"days", days,
		"total_requests", info.TotalRequests,
		"total_tokens", info.TotalTokens,
	)

	return info, nil
}
