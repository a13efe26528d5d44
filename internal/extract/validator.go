package extract

import "github.com/rpattn/rulesync/internal/domain"

// requiredFields must be present and non-blank after normalization for a
// row to become a rule record.
var requiredFields = []string{FieldID, FieldDescription, FieldType}

// BuildRule assembles a RuleRecord from a canonical mapping. The second
// return value lists the required fields that were absent; a non-empty
// list means the row is rejected and recorded as a row-scoped fault.
// Keys outside the canonical field set are dropped here: RuleRecord is a
// closed type and unknown columns are never stored.
func BuildRule(mapping CanonicalRow) (domain.RuleRecord, []string) {
	var missing []string
	for _, field := range requiredFields {
		if mapping[field] == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return domain.RuleRecord{}, missing
	}

	record := domain.RuleRecord{
		ID:          mapping[FieldID],
		Description: mapping[FieldDescription],
		Type:        mapping[FieldType],
		Criticality: domain.DefaultCriticality,
	}
	if criticality, ok := mapping[FieldCriticality]; ok {
		record.Criticality = criticality
	}
	record.Documentation = optional(mapping, FieldDocumentation)
	record.References = optional(mapping, FieldReferences)
	record.Explanation = optional(mapping, FieldExplanation)
	return record, nil
}

func optional(mapping CanonicalRow, key string) *string {
	if value, ok := mapping[key]; ok {
		return &value
	}
	return nil
}
