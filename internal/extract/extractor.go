package extract

import (
	"strings"

	"go.uber.org/zap"

	"github.com/rpattn/rulesync/internal/domain"
)

// Extractor walks every sheet of a row source in file order and
// aggregates validated rule records plus a diagnostic manifest.
// Sheet-level faults (empty sheet, header row not found) skip that sheet
// and never stop the remaining ones.
type Extractor struct {
	typeFilter string
	logger     *zap.Logger
}

// NewExtractor creates an extractor. An empty typeFilter disables
// filtering; otherwise only rows whose type matches it (ignoring case)
// are kept.
func NewExtractor(typeFilter string, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{typeFilter: strings.TrimSpace(typeFilter), logger: logger}
}

// Extract reads all sheets from src. The returned error is reserved for
// source-level faults (unreadable workbook); everything below sheet
// granularity lands in the manifest instead.
func (e *Extractor) Extract(src RowSource) ([]domain.RuleRecord, *domain.Manifest, error) {
	sheets, err := src.Sheets()
	if err != nil {
		return nil, nil, err
	}

	manifest := &domain.Manifest{}
	var records []domain.RuleRecord
	for _, sheet := range sheets {
		records = append(records, e.extractSheet(sheet, manifest)...)
	}

	e.logger.Info("extraction finished",
		zap.Int("sheets", len(sheets)),
		zap.Int("rules", len(records)),
		zap.Int("row_faults", len(manifest.RowFaults)),
		zap.Int("empty_rows", manifest.EmptyRows),
		zap.Int("filtered_rows", manifest.FilteredRows))
	return records, manifest, nil
}

func (e *Extractor) extractSheet(sheet SheetSnapshot, manifest *domain.Manifest) []domain.RuleRecord {
	if len(sheet.Rows) == 0 {
		e.skipSheet(manifest, sheet.Name, "sheet is empty")
		return nil
	}

	headerIdx, ok := FindHeaderRow(sheet.Rows)
	if !ok {
		e.skipSheet(manifest, sheet.Name, "header row with required labels not found")
		return nil
	}

	header := MapHeader(sheet.Rows[headerIdx])
	var records []domain.RuleRecord

	for offset, row := range sheet.Rows[headerIdx+1:] {
		rowNumber := headerIdx + offset + 2 // 1-based spreadsheet coordinates

		mapping, skip := NormalizeRow(row, header, e.typeFilter)
		switch skip {
		case SkipEmptyRow:
			manifest.EmptyRows++
			continue
		case SkipTypeFiltered:
			manifest.FilteredRows++
			continue
		}

		record, missing := BuildRule(mapping)
		if len(missing) > 0 {
			manifest.AddRowFault(domain.RowFault{
				Sheet:         sheet.Name,
				RowNumber:     rowNumber,
				RawRow:        append([]string(nil), row...),
				MissingFields: missing,
			})
			e.logger.Warn("row rejected",
				zap.String("sheet", sheet.Name),
				zap.Int("row", rowNumber),
				zap.Strings("missing_fields", missing))
			continue
		}

		e.logger.Debug("rule extracted", zap.String("rule", record.Summary()))
		records = append(records, record)
	}

	manifest.SheetsProcessed++
	e.logger.Info("sheet processed",
		zap.String("sheet", sheet.Name),
		zap.Int("rules", len(records)))
	return records
}

func (e *Extractor) skipSheet(manifest *domain.Manifest, sheet, reason string) {
	manifest.SkipSheet(sheet, reason)
	e.logger.Warn("sheet skipped",
		zap.String("sheet", sheet),
		zap.String("reason", reason))
}
