package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/costs"
	"mercator-hq/ganymede/pkg/providerfactory"
	"mercator-hq/ganymede/pkg/secrets"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a Ganymede configuration file without starting the
monitor.

Beyond the structural checks performed on every load, the validate command
constructs each configured provider (resolving secret references such as
env:OPENAI_ADMIN_KEY against the current environment), parses the pricing
file when one is configured, and reports budgets that reference unknown
providers.

Examples:
  # Validate the default config
  ganymede validate

  # Validate a specific file
  ganymede validate --config /etc/ganymede/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating configuration: %s\n\n", cfgFile)

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}
	fmt.Println("✓ Configuration loaded")

	// Construct every provider. This resolves secret references and
	// catches unsupported or uninferrable provider types.
	resolver := secrets.NewResolver(cfg.Secrets)
	providerList, err := providerfactory.BuildAll(cfg.Providers, resolver)
	if err != nil {
		return cli.NewConfigError("providers", err.Error())
	}
	defer providerfactory.CloseAll(providerList)

	names := make([]string, 0, len(providerList))
	configured := 0
	for _, p := range providerList {
		names = append(names, p.Name())
		if p.IsConfigured() {
			configured++
		}
	}
	if len(providerList) > 0 {
		fmt.Printf("✓ Providers: %d defined, %d with credentials (%s)\n",
			len(providerList), configured, strings.Join(names, ", "))
	} else {
		fmt.Println("Warning: no providers configured")
	}

	// Pricing file
	if cfg.Costs.PricingPath != "" {
		calculator := costs.NewCalculator(&cfg.Costs)
		if err := calculator.LoadFile(cfg.Costs.PricingPath); err != nil {
			return cli.NewConfigError("costs.pricing_path", err.Error())
		}
		fmt.Printf("✓ Pricing file parsed: %s\n", cfg.Costs.PricingPath)
	}

	// A budget keyed by an unknown provider never matches any observed
	// spend, so flag it here.
	if cfg.Budgets.Enabled {
		unknown := make([]string, 0)
		for name := range cfg.Budgets.Monthly {
			if name == "total" {
				continue
			}
			if _, ok := cfg.Providers[name]; !ok {
				unknown = append(unknown, name)
			}
		}
		sort.Strings(unknown)

		if len(unknown) > 0 {
			fmt.Printf("Warning: budgets reference unknown providers: %s\n", strings.Join(unknown, ", "))
		} else {
			fmt.Printf("✓ Budgets: %d monthly limits\n", len(cfg.Budgets.Monthly))
		}
	}

	if cfg.History.Enabled {
		fmt.Printf("✓ History: %s backend\n", cfg.History.Backend)
	}
	if cfg.Sync.Enabled {
		fmt.Printf("✓ Sync: accounts every %s, usage every %s\n",
			cfg.Sync.AccountInterval, cfg.Sync.UsageInterval)
	}

	fmt.Println("\nConfiguration is valid.")
	return nil
}
