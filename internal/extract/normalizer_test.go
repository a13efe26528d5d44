package extract

import "testing"

var testHeader = MapHeader([]string{"Id", "Descripcion", "Tipo", "Artefacto", "Criticidad"})

func TestNormalizeRowSkipsEmptyRow(t *testing.T) {
	for _, row := range [][]string{
		{},
		{"", "  ", "\t"},
		{"", "", "", "", "", "", ""},
	} {
		if _, skip := NormalizeRow(row, testHeader, ""); skip != SkipEmptyRow {
			t.Errorf("expected empty-row skip for %q, got %v", row, skip)
		}
	}
}

func TestNormalizeRowTrimsAndDropsBlankCells(t *testing.T) {
	mapping, skip := NormalizeRow([]string{" R1 ", "  desc  ", "semantica", "   ", "alta"}, testHeader, "")
	if skip != SkipNone {
		t.Fatalf("unexpected skip: %v", skip)
	}
	if mapping["id"] != "R1" || mapping["description"] != "desc" {
		t.Fatalf("expected trimmed values, got %v", mapping)
	}
	if _, ok := mapping["references"]; ok {
		t.Fatalf("expected whitespace-only cell to be absent, got %v", mapping)
	}
}

func TestNormalizeRowShortRowTreatedAsAbsent(t *testing.T) {
	mapping, skip := NormalizeRow([]string{"R1", "desc"}, testHeader, "")
	if skip != SkipNone {
		t.Fatalf("unexpected skip: %v", skip)
	}
	if _, ok := mapping["type"]; ok {
		t.Fatalf("expected missing trailing cell to be absent, got %v", mapping)
	}
}

func TestNormalizeRowTypeFilterCaseInsensitive(t *testing.T) {
	if _, skip := NormalizeRow([]string{"R1", "d", "estructura", "", ""}, testHeader, "SEMANTICA"); skip != SkipTypeFiltered {
		t.Fatalf("expected estructura row to be filtered, got %v", skip)
	}
	mapping, skip := NormalizeRow([]string{"R1", "d", "Semantica", "", ""}, testHeader, "SEMANTICA")
	if skip != SkipNone {
		t.Fatalf("expected case-insensitive match to pass, got %v", skip)
	}
	if mapping["type"] != "Semantica" {
		t.Fatalf("expected original casing preserved, got %q", mapping["type"])
	}
}

func TestNormalizeRowBlankTypeIncludedUnderFilter(t *testing.T) {
	mapping, skip := NormalizeRow([]string{"R1", "d", "  ", "", ""}, testHeader, "SEMANTICA")
	if skip != SkipNone {
		t.Fatalf("expected untyped row to be included under an active filter, got %v", skip)
	}
	if _, ok := mapping["type"]; ok {
		t.Fatalf("expected blank type to stay absent, got %v", mapping)
	}
}
