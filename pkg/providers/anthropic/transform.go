package anthropic

import (
	"sort"
	"strconv"
	"time"

	"mercator-hq/ganymede/pkg/providers"
)

// Anthropic Admin API response types

// ModelsResponse is the /v1/models listing, used as the connectivity probe.
type ModelsResponse struct {
	Data    []ModelEntry `json:"data"`
	HasMore bool         `json:"has_more"`
}

// ModelEntry is a single model in the models listing.
type ModelEntry struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at"`
}

// UsageReport is the Admin API messages usage report.
// Results are bucketed by day and grouped by model.
type UsageReport struct {
	Data     []UsageTimeBucket `json:"data"`
	HasMore  bool              `json:"has_more"`
	NextPage string            `json:"next_page"`
}

// UsageTimeBucket is a single time bucket in the usage report.
type UsageTimeBucket struct {
	StartingAt string     `json:"starting_at"`
	EndingAt   string     `json:"ending_at"`
	Results    []UsageRow `json:"results"`
}

// UsageRow is a per-model row inside a usage bucket. Input tokens are split
// by cache behavior; the merged report sums all three.
type UsageRow struct {
	Model                    string `json:"model"`
	NumRequests              int64  `json:"num_requests"`
	UncachedInputTokens      int64  `json:"uncached_input_tokens"`
	CacheCreationInputTokens int64  `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64  `json:"cache_read_input_tokens"`
	OutputTokens             int64  `json:"output_tokens"`
}

// InputTokens returns the combined input token count for this row.
func (r UsageRow) InputTokens() int64 {
	return r.UncachedInputTokens + r.CacheCreationInputTokens + r.CacheReadInputTokens
}

// CostReport is the Admin API cost report.
type CostReport struct {
	Data     []CostTimeBucket `json:"data"`
	HasMore  bool             `json:"has_more"`
	NextPage string           `json:"next_page"`
}

// CostTimeBucket is a single time bucket in the cost report.
type CostTimeBucket struct {
	StartingAt string    `json:"starting_at"`
	EndingAt   string    `json:"ending_at"`
	Results    []CostRow `json:"results"`
}

// CostRow is a line item inside a cost bucket. Amount is a decimal string
// (e.g., "12.34") as the API reports it.
type CostRow struct {
	Currency    string `json:"currency"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

// Transformation functions

// buildUsageInfo merges the usage and cost reports into the normalized
// format. Token and request counts come from the usage report; total spend
// comes from the cost report, which Anthropic does not break down by model.
func buildUsageInfo(provider string, start, end time.Time, usage *UsageReport, costs *CostReport) (*providers.UsageInfo, error) {
	info := &providers.UsageInfo{
		Provider:  provider,
		StartDate: start,
		EndDate:   end,
	}

	perModel := make(map[string]*providers.ModelUsage)
	for _, bucket := range usage.Data {
		for _, row := range bucket.Results {
			m, ok := perModel[row.Model]
			if !ok {
				m = &providers.ModelUsage{Model: row.Model}
				perModel[row.Model] = m
			}
			m.Requests += row.NumRequests
			m.InputTokens += row.InputTokens()
			m.OutputTokens += row.OutputTokens

			info.TotalRequests += row.NumRequests
			info.TotalTokens += row.InputTokens() + row.OutputTokens
		}
	}

	for _, bucket := range costs.Data {
		for _, row := range bucket.Results {
			if row.Amount == "" {
				continue
			}
			amount, err := strconv.ParseFloat(row.Amount, 64)
			if err != nil {
				return nil, &providers.ParseError{
					Provider:    provider,
					RawResponse: row.Amount,
					Cause:       err,
				}
			}
			info.TotalCost += amount
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

	return info, nil
}
