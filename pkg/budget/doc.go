// Package budget evaluates observed provider spend against configured
// monthly limits.
//
// Budgets are purely observational. The tracker never blocks a request
// or a sync; it classifies spend as ok, warning, or exceeded so the
// summary endpoint and metrics can surface providers that are burning
// through their allowance. Spend figures come from provider usage
// reports (or the cost calculator for providers that report only
// tokens), not from any internal metering.
//
// A budget keyed "total" applies to combined spend across all providers
// and is evaluated alongside the per-provider budgets.
package budget
