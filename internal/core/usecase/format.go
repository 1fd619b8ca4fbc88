package usecase

import (
	"fmt"
	"strings"

	"github.com/dashwise/dashboard-assistant/internal/core/domain"
)

const (
	msgNoDashboards = "No dashboards found."
	msgCapabilities = "I can only list or search dashboards."
	msgEmptyQuery   = "Please provide a query."
)

// Formatter renders the terminal outcome of a turn as one deterministic
// text block. It never re-sorts records: ordering is the catalog's
// responsibility.
type Formatter struct {
	displayLimit int
}

func NewFormatter(displayLimit int) *Formatter {
	if displayLimit <= 0 {
		displayLimit = 20
	}
	return &Formatter{displayLimit: displayLimit}
}

func (f *Formatter) FormatRecords(records []domain.DashboardRecord) string {
	if len(records) == 0 {
		return msgNoDashboards
	}

	shown := records
	truncated := false
	if len(records) > f.displayLimit {
		shown = records[:f.displayLimit]
		truncated = true
	}

	var b strings.Builder
	for i, record := range shown {
		b.WriteString(fmt.Sprintf("%d. %s", i+1, record.Title))
		if record.Folder != "" {
			b.WriteString(fmt.Sprintf(" [folder: %s]", record.Folder))
		}
		if len(record.Tags) > 0 {
			b.WriteString(fmt.Sprintf(" [tags: %s]", strings.Join(record.Tags, ", ")))
		}
		b.WriteString("\n")
	}
	if truncated {
		b.WriteString(fmt.Sprintf("(showing %d of %d)\n", len(shown), len(records)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (f *Formatter) FormatDashboard(record *domain.DashboardRecord) string {
	if record == nil {
		return msgNoDashboards
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Dashboard: %s\n", record.Title))
	if record.Folder != "" {
		b.WriteString(fmt.Sprintf("Folder: %s\n", record.Folder))
	}
	if len(record.Tags) > 0 {
		b.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(record.Tags, ", ")))
	}
	if !record.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Last updated: %s\n", record.UpdatedAt.UTC().Format("2006-01-02 15:04 UTC")))
	}
	if record.URL != "" {
		b.WriteString(fmt.Sprintf("URL: %s\n", record.URL))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatRejection renders the fixed refusal for turns that never reach
// the catalog.
func (f *Formatter) FormatRejection(query domain.Query) string {
	if query.Intent == domain.IntentInvalid {
		return msgEmptyQuery + " " + msgCapabilities
	}
	if reason := strings.TrimSpace(query.Reason); reason != "" {
		return fmt.Sprintf("%s (%s)", msgCapabilities, reason)
	}
	return msgCapabilities
}

// FormatError names the error category in plain language, optionally
// with one actionable suggestion. Internal detail never reaches the
// user.
func (f *Formatter) FormatError(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrValidation):
		return msgEmptyQuery + " " + msgCapabilities
	case domain.IsKind(err, domain.ErrParsing), domain.IsKind(err, domain.ErrUnsupportedScope):
		return msgCapabilities
	case domain.IsKind(err, domain.ErrTimeout):
		return "The request took too long to complete. Try again or narrow your query."
	case domain.IsKind(err, domain.ErrAuth):
		return "The dashboard catalog rejected the configured credentials. Check your configuration."
	case domain.IsKind(err, domain.ErrNotFound):
		return "I could not find that dashboard. Try listing all dashboards first."
	case domain.IsKind(err, domain.ErrData):
		return "The dashboard catalog returned data I could not read. Try again later."
	case domain.IsKind(err, domain.ErrConnection):
		return "I could not reach the dashboard catalog. Check that the catalog endpoint is available."
	default:
		return "Something went wrong while answering your question. Try again later."
	}
}
