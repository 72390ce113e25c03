package providerfactory

import (
	"strings"
	"testing"

	"mercator-hq/ganymede/pkg/config"
)

func TestBuildAll(t *testing.T) {
	cfgs := map[string]config.ProviderConfig{
		"openai":    {APIKey: "sk-test"},
		"anthropic": {APIKey: "sk-ant-test"},
		"ollama":    {},
	}

	built, err := BuildAll(cfgs, nil)
	if err != nil {
		t.Fatalf("BuildAll() failed: %v", err)
	}
	defer CloseAll(built)

	if len(built) != 3 {
		t.Fatalf("expected 3 providers, got %d", len(built))
	}

	// Name order is deterministic regardless of map iteration
	wantOrder := []string{"anthropic", "ollama", "openai"}
	for i, want := range wantOrder {
		if built[i].Name() != want {
			t.Errorf("built[%d].Name() = %s, want %s", i, built[i].Name(), want)
		}
	}
}

func TestBuildAll_CollectsAllErrors(t *testing.T) {
	cfgs := map[string]config.ProviderConfig{
		"openai":  {APIKey: "sk-test"},
		"mystery": {},
		"azure":   {Type: "azure"},
	}

	built, err := BuildAll(cfgs, nil)
	if err == nil {
		t.Fatal("expected error for broken provider entries, got nil")
	}
	if built != nil {
		t.Errorf("expected nil provider list on error, got %d providers", len(built))
	}

	// Both broken entries are reported, not just the first
	if !strings.Contains(err.Error(), "mystery") {
		t.Errorf("error should mention provider mystery: %v", err)
	}
	if !strings.Contains(err.Error(), "azure") {
		t.Errorf("error should mention provider azure: %v", err)
	}
}

func TestBuildAll_Empty(t *testing.T) {
	built, err := BuildAll(map[string]config.ProviderConfig{}, nil)
	if err != nil {
		t.Fatalf("BuildAll() failed: %v", err)
	}
	if len(built) != 0 {
		t.Errorf("expected no providers, got %d", len(built))
	}
}

func TestCloseAll(t *testing.T) {
	built, err := BuildAll(map[string]config.ProviderConfig{
		"openai": {APIKey: "sk-test"},
		"ollama": {},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll() failed: %v", err)
	}

	if err := CloseAll(built); err != nil {
		t.Errorf("CloseAll() failed: %v", err)
	}
}

func TestCloseAll_Nil(t *testing.T) {
	if err := CloseAll(nil); err != nil {
		t.Errorf("CloseAll(nil) failed: %v", err)
	}
}
