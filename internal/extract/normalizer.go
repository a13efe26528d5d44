package extract

import "strings"

// CanonicalRow is the canonical key→value mapping for one data row.
// Only cells that survive trimming are present: an absent key means the
// cell was blank, whitespace-only, or missing from a short row.
type CanonicalRow map[string]string

// SkipReason says why NormalizeRow produced no mapping.
type SkipReason int

const (
	SkipNone SkipReason = iota
	// SkipEmptyRow: every cell trimmed to nothing. No diagnostic.
	SkipEmptyRow
	// SkipTypeFiltered: the row's type did not match the active filter.
	// Counted, never treated as an error.
	SkipTypeFiltered
)

// IsEmptyRow reports whether every cell of the row trims to nothing.
func IsEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// NormalizeRow converts one data row into a canonical mapping. String
// cells are trimmed and cells that trim to nothing are treated as
// absent; rows shorter than the header are padded with absent cells.
// With an active typeFilter the row's canonical type is compared
// case-insensitively. Rows whose type is itself blank are included: the
// catalog owners treat an untyped row as matching every filter.
func NormalizeRow(row []string, header Header, typeFilter string) (CanonicalRow, SkipReason) {
	if IsEmptyRow(row) {
		return nil, SkipEmptyRow
	}

	mapping := make(CanonicalRow, len(header.Keys))
	for i, key := range header.Keys {
		if key == "" || i >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[i])
		if value == "" {
			continue
		}
		mapping[key] = value
	}

	if typeFilter != "" {
		if rowType, ok := mapping[FieldType]; ok && !strings.EqualFold(rowType, typeFilter) {
			return nil, SkipTypeFiltered
		}
	}

	return mapping, SkipNone
}
