package domain

import "fmt"

// Criticality levels the catalog conventionally uses. The value is not
// enforced: analysts occasionally invent new ones and the record keeps
// whatever the sheet said.
const (
	CriticalityLow    = "baja"
	CriticalityMedium = "media"
	CriticalityHigh   = "alta"
)

// DefaultCriticality is applied when the source column is blank.
const DefaultCriticality = CriticalityMedium

// RuleRecord is one validated business rule extracted from the catalog.
// It is a closed type: columns outside this field set are dropped during
// extraction. Optional fields are nil when the source cell was blank and
// serialize as explicit nulls so the downstream store always sees the
// full field set. Records carry no identity across runs beyond the id
// being reused for replacement at publish time.
type RuleRecord struct {
	ID            string  `json:"id"`
	Description   string  `json:"description"`
	Type          string  `json:"type"`
	Documentation *string `json:"documentation"`
	References    *string `json:"references"`
	Criticality   string  `json:"criticality"`
	Explanation   *string `json:"explanation"`
}

// Summary returns a short one-line form of the rule for logs.
func (r RuleRecord) Summary() string {
	return fmt.Sprintf("[%s] %s (%s, %s)", r.ID, r.Description, r.Type, r.Criticality)
}
