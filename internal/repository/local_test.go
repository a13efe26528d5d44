package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rpattn/rulesync/internal/domain"
)

func TestLocalFingerprintStoreRoundTrip(t *testing.T) {
	store := NewLocalFingerprintStore(t.TempDir())
	ctx := context.Background()

	if _, found, err := store.Get(ctx, "rules/rules.hash"); err != nil || found {
		t.Fatalf("expected absent value on first read, found=%v err=%v", found, err)
	}

	if err := store.Put(ctx, "rules/rules.hash", "abc123"); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	value, found, err := store.Get(ctx, "rules/rules.hash")
	if err != nil || !found {
		t.Fatalf("expected stored value, found=%v err=%v", found, err)
	}
	if value != "abc123" {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestLocalFingerprintStoreCompareAndPut(t *testing.T) {
	store := NewLocalFingerprintStore(t.TempDir())
	ctx := context.Background()

	// Expect-absent insert.
	swapped, err := store.CompareAndPut(ctx, "k", "", "v1")
	if err != nil || !swapped {
		t.Fatalf("expected insert to win, swapped=%v err=%v", swapped, err)
	}

	// Stale token loses.
	swapped, err = store.CompareAndPut(ctx, "k", "other", "v2")
	if err != nil {
		t.Fatalf("compare-and-put failed: %v", err)
	}
	if swapped {
		t.Fatalf("expected stale token to lose")
	}
	if value, _, _ := store.Get(ctx, "k"); value != "v1" {
		t.Fatalf("loser must not overwrite, got %q", value)
	}

	// Matching token wins.
	swapped, err = store.CompareAndPut(ctx, "k", "v1", "v2")
	if err != nil || !swapped {
		t.Fatalf("expected matching token to win, swapped=%v err=%v", swapped, err)
	}
}

func TestLocalRuleStoreReplaceWritesJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules", "rules_metadata.json")
	store := NewLocalRuleStore(path)

	refs := "file1.txt"
	records := []domain.RuleRecord{
		{ID: "R1", Description: "desc1", Type: "semantica", References: &refs, Criticality: "alta"},
	}
	if err := store.Replace(context.Background(), records); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("published file unreadable: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("published file is not valid json: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected one record, got %d", len(decoded))
	}
	record := decoded[0]
	if record["id"] != "R1" || record["references"] != "file1.txt" {
		t.Fatalf("unexpected record: %v", record)
	}
	// Absent optional fields serialize as explicit nulls.
	if value, ok := record["documentation"]; !ok || value != nil {
		t.Fatalf("expected documentation null, got %v (present=%v)", value, ok)
	}
}
