package extract

import "strings"

// Canonical field keys of a rule record, decoupled from the localized
// column labels analysts maintain in the sheet.
const (
	FieldID            = "id"
	FieldDescription   = "description"
	FieldDocumentation = "documentation"
	FieldReferences    = "references"
	FieldType          = "type"
	FieldCriticality   = "criticality"
	FieldExplanation   = "explanation"
)

// fieldMap translates source column labels to canonical field keys.
// Labels missing from the table pass through under their original text
// so analysts can add columns without breaking extraction.
var fieldMap = map[string]string{
	"Id":            FieldID,
	"Documentacion": FieldDocumentation,
	"Descripcion":   FieldDescription,
	"Artefacto":     FieldReferences,
	"Tipo":          FieldType,
	"Criticidad":    FieldCriticality,
	"Tags":          FieldExplanation,
}

// Header is the mapped form of one header row: canonical keys aligned by
// column position. A blank key marks a column with no header; cells in
// such columns are ignored. The key list is bounded at the last column
// with a non-blank header, so trailing unnamed columns never contribute.
type Header struct {
	Keys []string
}

// MapHeader translates a header row to canonical keys.
func MapHeader(headerRow []string) Header {
	maxCols := 0
	for i, cell := range headerRow {
		if strings.TrimSpace(cell) != "" {
			maxCols = i + 1
		}
	}

	keys := make([]string, maxCols)
	for i := 0; i < maxCols; i++ {
		label := strings.TrimSpace(headerRow[i])
		if label == "" {
			continue
		}
		if key, ok := fieldMap[label]; ok {
			keys[i] = key
		} else {
			keys[i] = label
		}
	}
	return Header{Keys: keys}
}
