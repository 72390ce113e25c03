package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/monitoring"
	"mercator-hq/ganymede/pkg/syncer"
)

var statusFlags struct {
	address string
	days    int
	output  string
	timeout time.Duration
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the usage summary from a running monitor",
	Long: `Query a running Ganymede monitor and print the aggregated usage summary.

The command reads the /v1/summary and /v1/sync/status endpoints of the
monitor. The monitor address is taken from the configuration file unless
--address is given.

Examples:
  # Summary over the default lookback window
  ganymede status

  # Summary over the last 7 days, from an explicit address
  ganymede status --address 127.0.0.1:9090 --days 7

  # Machine-readable output
  ganymede status --output json`,
	RunE: showStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusFlags.address, "address", "", "monitor address (host:port, defaults to the configured listen address)")
	statusCmd.Flags().IntVar(&statusFlags.days, "days", 0, "usage lookback window in days (0 uses the server default)")
	statusCmd.Flags().StringVarP(&statusFlags.output, "output", "o", "text", "output format: text, json")
	statusCmd.Flags().DurationVar(&statusFlags.timeout, "timeout", 10*time.Second, "request timeout")
}

// syncState mirrors the /v1/sync/status payload.
type syncState struct {
	Enabled bool `json:"enabled"`
	syncer.Status
}

// statusReport is the combined view rendered by the status command.
type statusReport struct {
	Address string                   `json:"address"`
	Summary *monitoring.UsageSummary `json:"summary"`
	Sync    syncState                `json:"sync"`
}

func showStatus(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(statusFlags.output)
	if err != nil {
		return err
	}

	address := statusFlags.address
	if address == "" {
		if err := config.Initialize(cfgFile); err != nil {
			return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
		}
		address = config.GetConfig().Server.ListenAddress
	}

	client := &http.Client{Timeout: statusFlags.timeout}
	report := &statusReport{Address: address}

	summaryURL := fmt.Sprintf("http://%s/v1/summary", address)
	if statusFlags.days > 0 {
		summaryURL += fmt.Sprintf("?days=%d", statusFlags.days)
	}
	if err := getJSON(client, summaryURL, &report.Summary); err != nil {
		return cli.NewCommandError("status", err)
	}

	syncURL := fmt.Sprintf("http://%s/v1/sync/status", address)
	if err := getJSON(client, syncURL, &report.Sync); err != nil {
		return cli.NewCommandError("status", err)
	}

	switch format {
	case cli.FormatJSON:
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, report)
	default:
		return outputStatusText(os.Stdout, report)
	}
}

// getJSON fetches url and decodes the response body into out. Error
// responses surface the server's error message when one is present.
func getJSON(client *http.Client, url string, out interface{}) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w (is the monitor running?)", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func outputStatusText(output io.Writer, report *statusReport) error {
	s := report.Summary

	fmt.Fprintf(output, "Ganymede monitor at %s\n", report.Address)
	fmt.Fprintln(output)
	fmt.Fprintf(output, "Generated: %s\n", s.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(output, "Window: last %d days\n", s.WindowDays)
	fmt.Fprintf(output, "Providers: %d monitored, %d connected\n", s.ProviderCount, s.ConnectedProviders)
	fmt.Fprintf(output, "Total cost: $%.2f\n", s.TotalCost)
	fmt.Fprintf(output, "Total requests: %d\n", s.TotalRequests)
	fmt.Fprintf(output, "Total tokens: %d\n", s.TotalTokens)
	if s.AverageSuccessRate > 0 {
		fmt.Fprintf(output, "Success rate: %.1f%%\n", s.AverageSuccessRate*100)
	}

	if len(s.Providers) > 0 {
		names := make([]string, 0, len(s.Providers))
		for name := range s.Providers {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			p := s.Providers[name]
			state := "disconnected"
			if p.IsConnected {
				state = "connected"
			}

			fmt.Fprintln(output)
			fmt.Fprintf(output, "%s (%s)\n", name, state)
			if p.Balance != nil {
				fmt.Fprintf(output, "  Balance: %.2f %s\n", *p.Balance, p.Currency)
			}
			if p.PlanType != "" {
				fmt.Fprintf(output, "  Plan: %s\n", p.PlanType)
			}
			fmt.Fprintf(output, "  Cost: $%.2f  Requests: %d  Tokens: %d\n",
				p.TotalCost, p.TotalRequests, p.TotalTokens)
		}
	}

	if len(s.Budgets) > 0 {
		fmt.Fprintln(output)
		fmt.Fprintln(output, "Budgets:")
		for _, b := range s.Budgets {
			fmt.Fprintf(output, "  %s: $%.2f of $%.2f (%s)\n", b.Provider, b.Used, b.Limit, b.State)
		}
	}

	fmt.Fprintln(output)
	if !report.Sync.Enabled {
		fmt.Fprintln(output, "Background sync: disabled")
		return nil
	}

	fmt.Fprintln(output, "Background sync: enabled")
	if !report.Sync.Running {
		fmt.Fprintln(output, "  Not running")
		return nil
	}
	fmt.Fprintf(output, "  Last account sync: %s\n", formatSyncTime(report.Sync.LastAccountSync))
	fmt.Fprintf(output, "  Last usage sync: %s\n", formatSyncTime(report.Sync.LastUsageSync))
	fmt.Fprintf(output, "  Syncs: %d succeeded, %d failed\n",
		report.Sync.SuccessfulSyncs, report.Sync.FailedSyncs)
	if report.Sync.LastError != "" {
		fmt.Fprintf(output, "  Last error: %s\n", report.Sync.LastError)
	}
	return nil
}

func formatSyncTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.RFC3339)
}
