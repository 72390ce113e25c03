package history

import (
	"context"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/config"
)

// seedStore fills a memory store with records at fixed ages.
func seedStore(t *testing.T, store Store, ages ...time.Duration) {
	t.Helper()

	ctx := context.Background()
	now := time.Now()
	for _, age := range ages {
		if err := store.Append(ctx, testRecord("openai", now.Add(-age), 1.0)); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}
}

// TestPruner_PruneByAge tests age-based pruning.
func TestPruner_PruneByAge(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	day := 24 * time.Hour
	seedStore(t, store, 40*day, 35*day, 10*day, 1*day)

	pruner := NewPruner(store, config.RetentionConfig{Days: 30})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted, got %d", deleted)
	}
	if store.Size() != 2 {
		t.Errorf("Expected 2 remaining, got %d", store.Size())
	}
}

// TestPruner_PruneByCount tests count-based pruning keeps the newest
// records.
func TestPruner_PruneByCount(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	seedStore(t, store, 5*time.Hour, 4*time.Hour, 3*time.Hour, 2*time.Hour, 1*time.Hour)

	pruner := NewPruner(store, config.RetentionConfig{MaxRecords: 3})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted, got %d", deleted)
	}

	results, err := store.Query(context.Background(), &Query{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 remaining, got %d", len(results))
	}

	// The three newest records (1h, 2h, 3h old) survive
	oldest := results[len(results)-1]
	if time.Since(oldest.RecordedAt) > 3*time.Hour+time.Minute {
		t.Errorf("Expected oldest survivor around 3h old, got %v old", time.Since(oldest.RecordedAt))
	}
}

// TestPruner_BothPhases tests age and count pruning in one cycle.
func TestPruner_BothPhases(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	day := 24 * time.Hour
	seedStore(t, store, 40*day, 5*day, 4*day, 3*day, 2*day, 1*day)

	pruner := NewPruner(store, config.RetentionConfig{Days: 30, MaxRecords: 3})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}

	// Age phase drops the 40-day record, count phase drops 2 more
	if deleted != 3 {
		t.Errorf("Expected 3 deleted, got %d", deleted)
	}
	if store.Size() != 3 {
		t.Errorf("Expected 3 remaining, got %d", store.Size())
	}
}

// TestPruner_NothingToPrune tests that records within limits survive.
func TestPruner_NothingToPrune(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	seedStore(t, store, 2*time.Hour, 1*time.Hour)

	pruner := NewPruner(store, config.RetentionConfig{Days: 30, MaxRecords: 10})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected 0 deleted, got %d", deleted)
	}
	if store.Size() != 2 {
		t.Errorf("Expected 2 remaining, got %d", store.Size())
	}
}

// TestPruner_ZeroConfigDisablesPruning tests that zero retention
// settings keep everything.
func TestPruner_ZeroConfigDisablesPruning(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	day := 24 * time.Hour
	seedStore(t, store, 400*day, 1*day)

	pruner := NewPruner(store, config.RetentionConfig{})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected 0 deleted with zero config, got %d", deleted)
	}
	if store.Size() != 2 {
		t.Errorf("Expected 2 remaining, got %d", store.Size())
	}
}

// TestPruner_StartEmptySchedule tests that an empty schedule is a no-op.
func TestPruner_StartEmptySchedule(t *testing.T) {
	pruner := NewPruner(NewMemoryStore(), config.RetentionConfig{Days: 30})

	if err := pruner.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if pruner.IsRunning() {
		t.Error("Expected scheduler not running with empty schedule")
	}
}

// TestPruner_StartInvalidSchedule tests cron validation.
func TestPruner_StartInvalidSchedule(t *testing.T) {
	pruner := NewPruner(NewMemoryStore(), config.RetentionConfig{
		Days:          30,
		PruneSchedule: "not a cron expression",
	})

	if err := pruner.Start(context.Background()); err == nil {
		t.Error("Expected error for invalid cron schedule, got nil")
	}
}

// TestPruner_StartStop tests the scheduler lifecycle.
func TestPruner_StartStop(t *testing.T) {
	pruner := NewPruner(NewMemoryStore(), config.RetentionConfig{
		Days:          30,
		PruneSchedule: "0 3 * * *",
	})

	if err := pruner.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !pruner.IsRunning() {
		t.Error("Expected scheduler running after Start()")
	}

	next := pruner.NextRun()
	if next == nil {
		t.Fatal("Expected a next run time, got nil")
	}
	if !next.After(time.Now()) {
		t.Errorf("Expected next run in the future, got %v", next)
	}

	pruner.Stop()
	if pruner.IsRunning() {
		t.Error("Expected scheduler stopped after Stop()")
	}
}

// TestPruner_StopWithoutStart tests that Stop is safe before Start.
func TestPruner_StopWithoutStart(t *testing.T) {
	pruner := NewPruner(NewMemoryStore(), config.RetentionConfig{Days: 30})
	pruner.Stop() // must not panic
}

// TestPruner_ContextCancelStops tests that canceling the start context
// shuts the scheduler down.
func TestPruner_ContextCancelStops(t *testing.T) {
	pruner := NewPruner(NewMemoryStore(), config.RetentionConfig{
		Days:          30,
		PruneSchedule: "0 3 * * *",
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := pruner.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for pruner.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("Scheduler still running after context cancellation")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestPruner_SQLiteBackend tests pruning against the SQLite store.
func TestPruner_SQLiteBackend(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	ctx := context.Background()
	day := 24 * time.Hour
	now := time.Now()

	store.Append(ctx, testRecord("openai", now.Add(-40*day), 1.0))
	store.Append(ctx, testRecord("openai", now.Add(-1*day), 2.0))

	pruner := NewPruner(store, config.RetentionConfig{Days: 30})

	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted, got %d", deleted)
	}

	count, err := store.Count(ctx, &Query{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 remaining, got %d", count)
	}
}
