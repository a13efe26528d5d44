package extract

import (
	"reflect"
	"testing"
)

func TestBuildRuleRequiredFields(t *testing.T) {
	_, missing := BuildRule(CanonicalRow{"description": "d", "criticality": "alta"})
	want := []string{"id", "type"}
	if !reflect.DeepEqual(missing, want) {
		t.Fatalf("expected missing %v, got %v", want, missing)
	}
}

func TestBuildRuleDefaultsAndOptionals(t *testing.T) {
	record, missing := BuildRule(CanonicalRow{
		"id":          "R1",
		"description": "check the header",
		"type":        "semantica",
	})
	if len(missing) != 0 {
		t.Fatalf("unexpected missing fields: %v", missing)
	}
	if record.Criticality != "media" {
		t.Fatalf("expected default criticality media, got %q", record.Criticality)
	}
	if record.Documentation != nil || record.References != nil || record.Explanation != nil {
		t.Fatalf("expected optional fields nil, got %+v", record)
	}
}

func TestBuildRuleMapsAllCanonicalFields(t *testing.T) {
	record, missing := BuildRule(CanonicalRow{
		"id":            "R2",
		"description":   "desc",
		"type":          "estructura",
		"documentation": "docs.md",
		"references":    "file1.txt",
		"criticality":   "alta",
		"explanation":   "42",
	})
	if len(missing) != 0 {
		t.Fatalf("unexpected missing fields: %v", missing)
	}
	if record.Criticality != "alta" {
		t.Fatalf("expected criticality alta, got %q", record.Criticality)
	}
	if record.References == nil || *record.References != "file1.txt" {
		t.Fatalf("unexpected references: %v", record.References)
	}
	if record.Explanation == nil || *record.Explanation != "42" {
		t.Fatalf("expected numeric explanation kept as string, got %v", record.Explanation)
	}
}

func TestBuildRuleDropsUnknownColumns(t *testing.T) {
	record, missing := BuildRule(CanonicalRow{
		"id":          "R3",
		"description": "desc",
		"type":        "semantica",
		"Comentarios": "extra column",
	})
	if len(missing) != 0 {
		t.Fatalf("unexpected missing fields: %v", missing)
	}
	// RuleRecord is closed; the extra column has nowhere to go.
	if record.Summary() != "[R3] desc (semantica, media)" {
		t.Fatalf("unexpected summary: %q", record.Summary())
	}
}
