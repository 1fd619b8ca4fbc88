package domain

import "time"

type CatalogOperation string

const (
	OperationList   CatalogOperation = "list_dashboards"
	OperationSearch CatalogOperation = "search_dashboards"
	OperationGet    CatalogOperation = "get_dashboard"
)

// ToolInvocation records one resolved call from the orchestration loop
// to the catalog client. Exactly one of Records or Err is meaningful.
type ToolInvocation struct {
	Operation CatalogOperation  `json:"operation"`
	Arguments []string          `json:"arguments,omitempty"`
	Records   []DashboardRecord `json:"records,omitempty"`
	Err       error             `json:"-"`
}

// TurnLimits bounds one orchestrated turn. Zero values are replaced
// with defaults by the orchestrator constructor.
type TurnLimits struct {
	MaxRounds         int           `json:"max_rounds"`
	TurnTimeout       time.Duration `json:"turn_timeout"`
	ClassifierTimeout time.Duration `json:"classifier_timeout"`
	CatalogTimeout    time.Duration `json:"catalog_timeout"`
	DisplayLimit      int           `json:"display_limit"`
}

// TurnResult is the terminal outcome of one turn. Response is always
// non-empty: a formatted success body, a rejection, or an error message.
type TurnResult struct {
	SessionID   string           `json:"session_id"`
	Intent      Intent           `json:"intent"`
	Response    string           `json:"response"`
	Rounds      int              `json:"rounds"`
	Invocations []ToolInvocation `json:"-"`
	FailureKind string           `json:"failure_kind,omitempty"`
	Duration    time.Duration    `json:"duration"`
}
