package domain

type Intent string

const (
	IntentList        Intent = "list"
	IntentSearch      Intent = "search"
	IntentGetInfo     Intent = "get_info"
	IntentUnsupported Intent = "unsupported"
	IntentInvalid     Intent = "invalid"
)

// Query is one classified user turn. Intent is always resolved: input
// that cannot be classified deterministically maps to IntentUnsupported,
// never silently to IntentList.
type Query struct {
	RawText     string   `json:"raw_text"`
	Intent      Intent   `json:"intent"`
	FilterTerms []string `json:"filter_terms,omitempty"`
	TargetID    string   `json:"target_id,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}
