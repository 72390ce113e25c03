// Package ollama implements the adapter for a local Ollama daemon.
//
// Ollama has no billing and tracks no usage, so account snapshots report
// connectivity and installed models, and usage reports are always empty.
// The daemon needs no credentials; the adapter is always configured.
package ollama

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"mercator-hq/ganymede/pkg/providers"
)

const (
	// DefaultBaseURL is the local Ollama daemon endpoint
	DefaultBaseURL = "http://localhost:11434"

	tagsPath    = "/api/tags"
	versionPath = "/api/version"
)

// Provider is the Ollama local daemon adapter.
type Provider struct {
	*providers.HTTPClient
}

// NewProvider creates a new Ollama provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		config.Name = providers.ProviderOllama
	}
	config.Name = strings.ToLower(config.Name)
	if config.Type == "" {
		config.Type = providers.ProviderOllama
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	p := &Provider{
		HTTPClient: providers.NewHTTPClient(config),
	}

	slog.Info("Ollama provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

// IsConfigured always reports true: a local daemon needs no credentials.
// Whether the daemon is actually running shows up as IsConnected on the
// account snapshot instead.
func (p *Provider) IsConfigured() bool {
	return true
}

// TagsResponse is the installed models listing from /api/tags.
type TagsResponse struct {
	Models []TagEntry `json:"models"`
}

// TagEntry is a single installed model.
type TagEntry struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
}

// VersionResponse is the daemon version from /api/version.
type VersionResponse struct {
	Version string `json:"version"`
}

// GetAccountInfo probes the daemon and reports connectivity plus the number
// of installed models. The version lookup is best effort.
func (p *Provider) GetAccountInfo(ctx context.Context) (*providers.AccountInfo, error) {
	var tags TagsResponse
	if err := p.GetJSON(ctx, p.Config().BaseURL+tagsPath, &tags, nil); err != nil {
		return nil, err
	}

	info := &providers.AccountInfo{
		Provider:    p.Name(),
		IsConnected: true,
		PlanType:    providers.PlanTypeLocal,
		Diagnostics: map[string]string{
			"models_installed": strconv.Itoa(len(tags.Models)),
		},
		CheckedAt: time.Now(),
	}

	var version VersionResponse
	if err := p.GetJSON(ctx, p.Config().BaseURL+versionPath, &version, nil); err == nil && version.Version != "" {
		info.Diagnostics["version"] = version.Version
	}

	return info, nil
}

// GetUsageInfo returns an empty report for the window: the daemon tracks
// no usage and local inference has no cost.
func (p *Provider) GetUsageInfo(ctx context.Context, days int) (*providers.UsageInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 1
	}

	end := time.Now()
	return &providers.UsageInfo{
		Provider:  p.Name(),
		StartDate: end.AddDate(0, 0, -days),
		EndDate:   end,
	}, nil
}
