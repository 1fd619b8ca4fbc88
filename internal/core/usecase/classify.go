package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/dashwise/dashboard-assistant/internal/core/domain"
	"github.com/dashwise/dashboard-assistant/internal/core/ports"
)

const (
	tagList       = "LIST"
	tagSearch     = "SEARCH:"
	tagInfo       = "INFO:"
	tagOutOfScope = "OUT_OF_SCOPE:"
)

// Classifier resolves raw user text into exactly one typed Query. All
// semantic interpretation happens inside the constrained model call;
// the classifier itself only validates the output syntactically.
type Classifier struct {
	model ports.IntentModel
}

func NewClassifier(model ports.IntentModel) *Classifier {
	return &Classifier{model: model}
}

// Classify never leaves the intent unresolved. Empty input maps to
// IntentInvalid without a model call; a failed model call maps to
// IntentUnsupported and returns the parsing error so callers can log
// it distinctly from an explicit out-of-scope refusal.
func (c *Classifier) Classify(ctx context.Context, rawText string) (domain.Query, error) {
	trimmed := strings.TrimSpace(rawText)
	if trimmed == "" {
		return domain.Query{RawText: rawText, Intent: domain.IntentInvalid}, nil
	}

	raw, err := c.model.GenerateFromPrompt(ctx, buildIntentPrompt(trimmed))
	if err != nil {
		return domain.Query{
			RawText: rawText,
			Intent:  domain.IntentUnsupported,
		}, domain.WrapError(domain.ErrParsing, "classify intent", err)
	}

	query := parseIntentDirective(raw)
	query.RawText = rawText
	return query, nil
}

// parseIntentDirective recognizes model output only via strict prefix
// tags. Anything that does not match a known tag exactly maps to
// IntentUnsupported; the classifier never guesses intent from free text.
func parseIntentDirective(raw string) domain.Query {
	directive := strings.TrimSpace(raw)
	if idx := strings.IndexByte(directive, '\n'); idx >= 0 {
		directive = strings.TrimSpace(directive[:idx])
	}

	switch {
	case directive == tagList:
		return domain.Query{Intent: domain.IntentList}
	case strings.HasPrefix(directive, tagSearch):
		terms := splitFilterTerms(strings.TrimPrefix(directive, tagSearch))
		if len(terms) == 0 {
			return domain.Query{Intent: domain.IntentUnsupported}
		}
		return domain.Query{Intent: domain.IntentSearch, FilterTerms: terms}
	case strings.HasPrefix(directive, tagInfo):
		target := strings.TrimSpace(strings.TrimPrefix(directive, tagInfo))
		if target == "" {
			return domain.Query{Intent: domain.IntentUnsupported}
		}
		return domain.Query{Intent: domain.IntentGetInfo, TargetID: target}
	case strings.HasPrefix(directive, tagOutOfScope):
		return domain.Query{
			Intent: domain.IntentUnsupported,
			Reason: strings.TrimSpace(strings.TrimPrefix(directive, tagOutOfScope)),
		}
	default:
		return domain.Query{Intent: domain.IntentUnsupported}
	}
}

func splitFilterTerms(raw string) []string {
	parts := strings.Split(raw, "|")
	terms := make([]string, 0, len(parts))
	for _, part := range parts {
		term := strings.TrimSpace(part)
		if term == "" {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}

func buildIntentPrompt(userText string) string {
	return fmt.Sprintf(`You classify one user request about Grafana dashboards.
Respond with EXACTLY ONE line in one of these shapes and nothing else:

LIST
SEARCH: term1|term2|term3
INFO: dashboard-name-or-uid
OUT_OF_SCOPE: short reason

Rules:
- "LIST" when the user wants every dashboard.
- "SEARCH:" when the user wants dashboards about a topic. Expand thematic
  phrases into several literal keywords. Example: a question about system
  health becomes "SEARCH: node|system|health|cpu|memory".
- "INFO:" when the user asks about one specific dashboard by name.
- "OUT_OF_SCOPE:" for anything that is not listing, searching, or
  describing dashboards (no metric analysis, no editing, no alerting).

User request:
%s
`, userText)
}
