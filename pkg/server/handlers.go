package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/ratelimit"
	"mercator-hq/ganymede/pkg/syncer"
)

// maxWindowDays bounds the days query parameter. Provider billing APIs
// do not serve usage beyond a year back.
const maxWindowDays = 365

type errorResponse struct {
	Error string `json:"error"`
}

type accountsResponse struct {
	Accounts []*providers.AccountInfo `json:"accounts"`
	Count    int                      `json:"count"`
}

type usageResponse struct {
	Usage      []*providers.UsageInfo `json:"usage"`
	WindowDays int                    `json:"window_days"`
}

type providersResponse struct {
	Configured   []string `json:"configured"`
	Unconfigured []string `json:"unconfigured"`
}

type limitsResponse struct {
	Limits map[string]ratelimit.Status `json:"limits"`
}

// syncStatusResponse flattens the engine status into the response body.
// A nil Status (sync disabled) contributes no fields.
type syncStatusResponse struct {
	Enabled bool `json:"enabled"`
	*syncer.Status
}

type refreshResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider,omitempty"`
}

// handleAccounts serves GET /v1/accounts: the current account snapshot
// for every provider that produced data.
func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	accounts := s.monitor.GetAllAccountInfo(r.Context())
	writeJSON(w, http.StatusOK, accountsResponse{
		Accounts: accounts,
		Count:    len(accounts),
	})
}

// handleUsage serves GET /v1/usage?days=N: per-provider usage reports
// over the lookback window.
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	days, err := parseDays(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	usage := s.monitor.GetAllUsageInfo(r.Context(), days)
	writeJSON(w, http.StatusOK, usageResponse{
		Usage:      usage,
		WindowDays: days,
	})
}

// handleSummary serves GET /v1/summary?days=N: the joined
// cross-provider view.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	days, err := parseDays(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary := s.monitor.GetUsageSummary(r.Context(), days)
	writeJSON(w, http.StatusOK, summary)
}

// handleProviders serves GET /v1/providers: the configured and
// unconfigured provider name lists.
func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, providersResponse{
		Configured:   s.monitor.GetConfiguredProviders(r.Context()),
		Unconfigured: s.monitor.GetUnconfiguredProviders(r.Context()),
	})
}

// handleLimits serves GET /v1/limits: rate limiter status per provider.
func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, limitsResponse{
		Limits: s.monitor.GetRateLimitStatus(),
	})
}

// handleSyncStatus serves GET /v1/sync/status: cadence timing and
// lifetime counters from the sync engine.
func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if s.engine == nil {
		writeJSON(w, http.StatusOK, syncStatusResponse{Enabled: false})
		return
	}

	status := s.engine.GetSyncStatus()
	writeJSON(w, http.StatusOK, syncStatusResponse{
		Enabled: true,
		Status:  &status,
	})
}

// handleSyncRefresh serves POST /v1/sync/refresh[?provider=name]: an
// operator-triggered refresh. The refresh runs in the background, so a
// 202 only means the trigger was accepted.
func (s *Server) handleSyncRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	provider := r.URL.Query().Get("provider")
	if provider == "" {
		s.monitor.RefreshAllProviderDataAsync()
		writeJSON(w, http.StatusAccepted, refreshResponse{Status: "refresh started"})
		return
	}

	if !s.knownProvider(provider) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown provider: %s", provider))
		return
	}

	s.monitor.RefreshProviderDataAsync(provider)
	writeJSON(w, http.StatusAccepted, refreshResponse{
		Status:   "refresh started",
		Provider: provider,
	})
}

// knownProvider reports whether name is one of the monitored providers.
func (s *Server) knownProvider(name string) bool {
	for _, known := range s.monitor.ProviderNames() {
		if known == name {
			return true
		}
	}
	return false
}

// parseDays reads the days query parameter, defaulting to the standard
// usage lookback window.
func parseDays(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return config.DefaultUsageLookbackDays, nil
	}

	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 || days > maxWindowDays {
		return 0, fmt.Errorf("days must be an integer between 1 and %d", maxWindowDays)
	}
	return days, nil
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Response is already committed; nothing to do but log
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
