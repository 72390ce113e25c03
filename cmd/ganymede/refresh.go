package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
)

var refreshFlags struct {
	address string
	timeout time.Duration
}

var refreshCmd = &cobra.Command{
	Use:   "refresh [provider]",
	Short: "Trigger an immediate data refresh on a running monitor",
	Long: `Ask a running Ganymede monitor to refresh its cached provider data now,
instead of waiting for the next background sync.

Without an argument every provider is refreshed; with a provider name only
that provider's cached data is rebuilt. The refresh runs in the background
on the monitor, so the command returns as soon as the trigger is accepted.

Examples:
  # Refresh every provider
  ganymede refresh

  # Refresh a single provider
  ganymede refresh openai

  # Target an explicit address
  ganymede refresh --address 127.0.0.1:9090`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().StringVar(&refreshFlags.address, "address", "", "monitor address (host:port, defaults to the configured listen address)")
	refreshCmd.Flags().DurationVar(&refreshFlags.timeout, "timeout", 10*time.Second, "request timeout")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	address := refreshFlags.address
	if address == "" {
		if err := config.Initialize(cfgFile); err != nil {
			return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
		}
		address = config.GetConfig().Server.ListenAddress
	}

	refreshURL := fmt.Sprintf("http://%s/v1/sync/refresh", address)
	if len(args) == 1 {
		refreshURL += "?provider=" + url.QueryEscape(args[0])
	}

	client := &http.Client{Timeout: refreshFlags.timeout}
	resp, err := client.Post(refreshURL, "application/json", nil)
	if err != nil {
		return cli.NewCommandError("refresh", fmt.Errorf("request failed: %w (is the monitor running?)", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return cli.NewCommandError("refresh", fmt.Errorf("%s: %s", resp.Status, apiErr.Error))
		}
		return cli.NewCommandError("refresh", fmt.Errorf("unexpected status %s", resp.Status))
	}

	if len(args) == 1 {
		fmt.Printf("✓ Refresh started for %s\n", args[0])
	} else {
		fmt.Println("✓ Refresh started for all providers")
	}
	return nil
}
