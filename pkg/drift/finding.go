package drift

// Category classifies a drift finding.
type Category string

const (
	// CategoryLockfile means the merged bundle hash no longer matches the
	// hash recorded in the lockfile.
	CategoryLockfile Category = "lockfile"
	// CategoryUpstream means a rule's current content hash differs from the
	// hash the lockfile recorded for it.
	CategoryUpstream Category = "upstream"
	// CategorySeverityRemap means a local override changes a rule's severity
	// in a way the team's remap policy forbids.
	CategorySeverityRemap Category = "severity_remap"
)

// Finding is one detected divergence between current state and a recorded
// or approved state.
type Finding struct {
	Category     Category `json:"category"`
	RuleID       string   `json:"rule_id,omitempty"`
	Description  string   `json:"description"`
	Suggestion   string   `json:"suggestion,omitempty"`
	RecordedHash string   `json:"recorded_hash,omitempty"`
	CurrentHash  string   `json:"current_hash,omitempty"`
}
