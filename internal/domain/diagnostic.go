package domain

// RowFault records one row that failed validation. Row numbers are
// 1-based spreadsheet coordinates counted from the top of the sheet,
// header row included, so analysts can find the row in their editor.
type RowFault struct {
	Sheet         string   `json:"sheet"`
	RowNumber     int      `json:"row_number"`
	RawRow        []string `json:"raw_row"`
	MissingFields []string `json:"missing_fields"`
}

// SheetSkip records a sheet abandoned at sheet granularity (empty sheet,
// header row not found). Skips are diagnostics, never run failures.
type SheetSkip struct {
	Sheet  string `json:"sheet"`
	Reason string `json:"reason"`
}

// Manifest aggregates the diagnostics of one extraction pass.
type Manifest struct {
	SheetsProcessed int         `json:"sheets_processed"`
	SheetsSkipped   []SheetSkip `json:"sheets_skipped,omitempty"`
	EmptyRows       int         `json:"empty_rows"`
	FilteredRows    int         `json:"filtered_rows"`
	RowFaults       []RowFault  `json:"row_faults,omitempty"`
}

// SkipSheet records a sheet-level skip.
func (m *Manifest) SkipSheet(sheet, reason string) {
	m.SheetsSkipped = append(m.SheetsSkipped, SheetSkip{Sheet: sheet, Reason: reason})
}

// AddRowFault records a row-level validation fault.
func (m *Manifest) AddRowFault(fault RowFault) {
	m.RowFaults = append(m.RowFaults, fault)
}
