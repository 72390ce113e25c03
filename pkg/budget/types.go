package budget

// State classifies observed spend against a budget limit.
type State string

const (
	// StateOK means spend is below the warning threshold.
	StateOK State = "ok"

	// StateWarning means spend has reached the warning threshold but not
	// the limit.
	StateWarning State = "warning"

	// StateExceeded means spend has reached or passed the limit.
	StateExceeded State = "exceeded"
)

// Status is the evaluation of one budget against observed spend.
// Budgets are observational: an exceeded budget raises the state in
// summaries and metrics but never blocks a request.
type Status struct {
	// Provider is the provider name, or "total" for combined spend.
	Provider string `json:"provider"`

	// State is ok, warning, or exceeded.
	State State `json:"state"`

	// Limit is the configured monthly budget in USD.
	Limit float64 `json:"limit"`

	// Used is the observed spend in USD.
	Used float64 `json:"used"`

	// Remaining is the unspent budget, clamped at zero.
	Remaining float64 `json:"remaining"`

	// Ratio is Used over Limit. Above 1.0 means overspend.
	Ratio float64 `json:"ratio"`
}
