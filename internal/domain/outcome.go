package domain

// Status classifies the terminal result of one synchronization run.
type Status string

const (
	// StatusUnchangedSkip means the source content matched the stored
	// fingerprint and no publish was attempted.
	StatusUnchangedSkip Status = "unchanged_skip"
	// StatusPublished means the extracted record set was handed to the
	// rule store successfully.
	StatusPublished Status = "published"
	// StatusNoValidRules means the changed source yielded zero valid
	// records, so there was nothing to publish.
	StatusNoValidRules Status = "no_valid_rules"
	// StatusFault covers fetch, extraction and publish failures.
	StatusFault Status = "fault"
)

// Outcome is the structured, always-returned result of one run. It is
// created once per run and never mutated afterwards.
type Outcome struct {
	Success       bool    `json:"success"`
	RulesCount    int     `json:"rules_count"`
	Message       string  `json:"message"`
	Status        Status  `json:"status_code"`
	ExecutionID   string  `json:"execution_id"`
	ExecutionTime float64 `json:"execution_time"` // seconds
}
