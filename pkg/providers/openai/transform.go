package openai

import (
	"sort"
	"time"

	"mercator-hq/ganymede/pkg/providers"
)

// OpenAI API response types

// ModelsResponse is the /v1/models listing, used as the connectivity probe.
type ModelsResponse struct {
	Object string       `json:"object"`
	Data   []ModelEntry `json:"data"`
}

// ModelEntry is a single model in the models listing.
type ModelEntry struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// UsageResponse is the organization completions usage report.
// Results are bucketed by time and grouped by model.
type UsageResponse struct {
	Object   string        `json:"object"`
	Data     []UsageBucket `json:"data"`
	HasMore  bool          `json:"has_more"`
	NextPage string        `json:"next_page"`
}

// UsageBucket is a single time bucket in the usage report.
type UsageBucket struct {
	Object    string        `json:"object"`
	StartTime int64         `json:"start_time"`
	EndTime   int64         `json:"end_time"`
	Results   []UsageResult `json:"results"`
}

// UsageResult is a per-model row inside a usage bucket.
type UsageResult struct {
	Object           string `json:"object"`
	Model            string `json:"model"`
	NumModelRequests int64  `json:"num_model_requests"`
	InputTokens      int64  `json:"input_tokens"`
	OutputTokens     int64  `json:"output_tokens"`
}

// CostsResponse is the organization costs report.
type CostsResponse struct {
	Object   string       `json:"object"`
	Data     []CostBucket `json:"data"`
	HasMore  bool         `json:"has_more"`
	NextPage string       `json:"next_page"`
}

// CostBucket is a single time bucket in the costs report.
type CostBucket struct {
	Object    string       `json:"object"`
	StartTime int64        `json:"start_time"`
	EndTime   int64        `json:"end_time"`
	Results   []CostResult `json:"results"`
}

// CostResult is a line item inside a cost bucket.
type CostResult struct {
	Object    string     `json:"object"`
	Amount    CostAmount `json:"amount"`
	LineItem  string     `json:"line_item"`
	ProjectID string     `json:"project_id"`
}

// CostAmount is a monetary value with its currency.
type CostAmount struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// Transformation functions

// buildUsageInfo merges the usage and costs reports into the normalized
// format. Token and request counts come from the usage report; total spend
// comes from the costs report, which OpenAI does not break down by model.
func buildUsageInfo(provider string, start, end time.Time, usage *UsageResponse, costs *CostsResponse) *providers.UsageInfo {
	info := &providers.UsageInfo{
		Provider:  provider,
		StartDate: start,
		EndDate:   end,
	}

	perModel := make(map[string]*providers.ModelUsage)
	for _, bucket := range usage.Data {
		for _, result := range bucket.Results {
			m, ok := perModel[result.Model]
			if !ok {
				m = &providers.ModelUsage{Model: result.Model}
				perModel[result.Model] = m
			}
			m.Requests += result.NumModelRequests
			m.InputTokens += result.InputTokens
			m.OutputTokens += result.OutputTokens

			info.TotalRequests += result.NumModelRequests
			info.TotalTokens += result.InputTokens + result.OutputTokens
		}
	}

	for _, bucket := range costs.Data {
		for _, result := range bucket.Results {
			info.TotalCost += result.Amount.Value
		}
	}

	info.ModelUsage = make([]providers.ModelUsage, 0, len(perModel))
	for _, m := range perModel {
		info.ModelUsage = append(info.ModelUsage, *m)
	}
	// Largest consumers first; name breaks ties so the order is stable
	sort.Slice(info.ModelUsage, func(i, j int) bool {
		a, b := info.ModelUsage[i], info.ModelUsage[j]
		if a.InputTokens+a.OutputTokens != b.InputTokens+b.OutputTokens {
			return a.InputTokens+a.OutputTokens > b.InputTokens+b.OutputTokens
		}
		return a.Model < b.Model
	})

	return info
}
