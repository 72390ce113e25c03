package providerfactory

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/providers"
	"mercator-hq/ganymede/pkg/secrets"
)

// BuildAll creates adapters for every configured provider, in name
// order so the monitor sees a deterministic provider list. Errors are
// collected across the whole map rather than stopping at the first, so
// one startup failure reports every broken entry; on any error the
// adapters already built are closed and nil is returned.
func BuildAll(cfgs map[string]config.ProviderConfig, resolver *secrets.Resolver) ([]providers.Provider, error) {
	names := make([]string, 0, len(cfgs))
	for name := range cfgs {
		names = append(names, name)
	}
	sort.Strings(names)

	built := make([]providers.Provider, 0, len(cfgs))
	var errs []error

	for _, name := range names {
		provider, err := New(name, cfgs[name], resolver)
		if err != nil {
			errs = append(errs, err)
			slog.Error("failed to build provider", "provider", name, "error", err)
			continue
		}
		built = append(built, provider)
	}

	if len(errs) > 0 {
		if err := CloseAll(built); err != nil {
			slog.Error("error closing providers after build failure", "error", err)
		}
		return nil, fmt.Errorf("building providers: %w", errors.Join(errs...))
	}

	slog.Info("providers built", "count", len(built))
	return built, nil
}

// CloseAll closes every adapter, releasing pooled connections. Close
// errors are joined so one failure does not hide another.
func CloseAll(provs []providers.Provider) error {
	var errs []error
	for _, p := range provs {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing provider %q: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
