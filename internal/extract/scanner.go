package extract

import "strings"

// RequiredLabels are the source column labels a header row must carry.
// Column order is irrelevant and extra labels are allowed.
var RequiredLabels = []string{"Id", "Descripcion", "Tipo", "Artefacto", "Criticidad"}

// FindHeaderRow scans rows top to bottom and returns the index of the
// first row whose set of non-empty, trimmed cell values contains every
// required label. First match wins; there is no backtracking or scoring.
// ok is false for an empty sheet or when no row qualifies, which callers
// treat as a sheet-level skip, not a run failure.
func FindHeaderRow(rows [][]string) (int, bool) {
	for idx, row := range rows {
		if len(row) == 0 {
			continue
		}
		cells := make(map[string]struct{}, len(row))
		for _, cell := range row {
			if trimmed := strings.TrimSpace(cell); trimmed != "" {
				cells[trimmed] = struct{}{}
			}
		}
		if containsAll(cells, RequiredLabels) {
			return idx, true
		}
	}
	return 0, false
}

func containsAll(cells map[string]struct{}, labels []string) bool {
	for _, label := range labels {
		if _, ok := cells[label]; !ok {
			return false
		}
	}
	return true
}
